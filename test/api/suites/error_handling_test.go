/*
Copyright 2026 the Unikorn Authors.
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

//nolint:testpackage,revive // test package in suites is standard for these tests, dot imports standard for Ginkgo
package suites

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/unikorn-cloud/github-api-tests/test/api"
)

var _ = Describe("Error Handling", func() {
	Context("When creating a repository", func() {
		Describe("Given an empty name", func() {
			It("should reject the request", func() {
				resp, err := client.CreateRepository(ctx,
					api.NewRepositoryPayload(settings.RepositoryPrefix).
						WithName("").
						Build())
				Expect(err).NotTo(HaveOccurred())

				api.VerifyCreationRejected(Default, resp)
			})
		})

		Describe("Given the name is already taken", func() {
			It("should reject the duplicate", func() {
				// Spaces are replaced on creation, the duplicate is still
				// detected against the normalized name.
				payload := api.NewRepositoryPayload(settings.RepositoryPrefix).
					WithName(strings.Replace(api.GenerateRepositoryName(settings.RepositoryPrefix), "-", " ", 1)).
					Build()

				_, name := api.CreateRepositoryWithCleanup(client, ctx, settings, payload)
				Expect(name).NotTo(ContainSubstring(" "))

				resp, err := client.CreateRepository(ctx, payload)
				Expect(err).NotTo(HaveOccurred())

				api.VerifyCreationRejected(Default, resp)
			})
		})

		Describe("Given invalid credentials", func() {
			It("should reject the request as unauthenticated", func() {
				resp, err := client.WithAuthToken("invalid-token").CreateRepository(ctx,
					api.NewRepositoryPayload(settings.RepositoryPrefix).Build())
				Expect(err).NotTo(HaveOccurred())

				api.VerifyBadCredentials(Default, resp)
			})
		})
	})

	Context("When retrieving a repository", func() {
		Describe("Given the repository does not exist", func() {
			It("should return not found", func() {
				resp, err := client.GetRepository(ctx, settings.GitHubUsername,
					api.GenerateRepositoryName(settings.RepositoryPrefix+"-missing"))
				Expect(err).NotTo(HaveOccurred())

				api.VerifyNotFound(Default, resp)
			})
		})
	})
})
