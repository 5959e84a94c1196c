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

// The burst draws on the account wide quota so must not overlap other specs.
var _ = Describe("Rate Limiting", Serial, Label("rate-limit"), func() {
	Context("When issuing a burst of requests", func() {
		Describe("Given an existing repository", func() {
			It("should either succeed or report the rate limit", func() {
				_, name := api.CreateRepositoryWithCleanup(client, ctx, settings,
					api.NewRepositoryPayload(settings.RepositoryPrefix).Build())

				responses, err := client.ProbeRateLimit(ctx, settings.GitHubUsername, name, settings.RateLimitBurst)
				Expect(err).NotTo(HaveOccurred())

				api.VerifyRateLimitBurst(Default, responses, settings.RateLimitBurst)

				GinkgoWriter.Printf("%d of %d requests were rate limited\n", api.CountRateLimited(responses), len(responses))
			})
		})
	})
})
