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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/unikorn-cloud/github-api-tests/test/api"
)

var _ = Describe("Repository Lifecycle", func() {
	Context("When creating a repository", func() {
		Describe("Given a valid payload", func() {
			It("should create the repository with the requested attributes", func() {
				payload := api.NewRepositoryPayload(settings.RepositoryPrefix).Build()

				resp, name := api.CreateRepositoryWithCleanup(client, ctx, settings, payload)

				api.VerifyRepositoryCreated(Default, resp, payload)
				Expect(name).To(Equal(payload.Name))
			})
		})
	})

	Context("When retrieving a repository", func() {
		Describe("Given the repository exists", func() {
			It("should return its full name and visibility", func() {
				_, name := api.CreateRepositoryWithCleanup(client, ctx, settings,
					api.NewRepositoryPayload(settings.RepositoryPrefix).Build())

				resp, err := client.GetRepository(ctx, settings.GitHubUsername, name)
				Expect(err).NotTo(HaveOccurred())

				api.VerifyRepositoryDetails(Default, resp, settings.GitHubUsername, name)
			})
		})
	})

	Context("When deleting a repository", func() {
		Describe("Given the repository exists", func() {
			It("should no longer be retrievable", func() {
				_, name := api.CreateRepositoryWithCleanup(client, ctx, settings,
					api.NewRepositoryPayload(settings.RepositoryPrefix).Build())

				resp, err := client.DeleteRepository(ctx, settings.GitHubUsername, name)
				Expect(err).NotTo(HaveOccurred())
				api.VerifyRepositoryDeleted(Default, resp)

				resp, err = client.GetRepository(ctx, settings.GitHubUsername, name)
				Expect(err).NotTo(HaveOccurred())
				api.VerifyNotFound(Default, resp)
			})
		})
	})
})
