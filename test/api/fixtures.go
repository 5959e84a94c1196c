/*
Copyright 2024-2025 the Unikorn Authors.
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

//nolint:revive,staticcheck // dot imports are standard for Ginkgo/Gomega test code
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// CreateRepositoryWithCleanup creates a repository and schedules its deletion.
// It returns the create response and the name the API assigned, which may differ
// from the requested one as GitHub normalizes names.
//
//nolint:revive // context follows the client, as with the other fixtures
func CreateRepositoryWithCleanup(client *APIClient, ctx context.Context, settings *Settings, payload CreateRepositoryRequest) (*Response, string) {
	resp, err := client.CreateRepository(ctx, payload)
	Expect(err).NotTo(HaveOccurred())
	Expect(resp.StatusCode).To(Equal(http.StatusCreated), "creating repository %q: %s", payload.Name, resp.Body)

	repository, err := resp.Repository()
	Expect(err).NotTo(HaveOccurred())

	owner := repository.GetOwner().GetLogin()
	if owner == "" {
		owner = settings.GitHubUsername
	}

	name := repository.GetName()

	GinkgoWriter.Printf("Created repository: %s/%s\n", owner, name)

	// Schedule cleanup - this runs whether the test passes or fails so we don't leak
	// repositories into the account.  Specs that delete explicitly leave a 404 here.
	DeferCleanup(func() {
		GinkgoWriter.Printf("Cleaning up repository: %s/%s\n", owner, name)

		deleteResp, deleteErr := client.DeleteRepository(ctx, owner, name)
		Expect(deleteErr).NotTo(HaveOccurred())

		if !VerifyCleanup(Default, deleteResp) {
			GinkgoWriter.Printf("Repository %s/%s left behind while rate limited (%s), run github-api-sweeper to remove it\n",
				owner, name, describeRateLimit(deleteResp))
		}
	})

	return resp, name
}

// VerifyCleanup verifies a cleanup delete removed the repository or found it
// already gone.  A rate limited delete is tolerated, as specs that exhaust the
// quota cannot clean up until the window resets, and false is returned to
// indicate the repository remains.
func VerifyCleanup(g Gomega, resp *Response) bool {
	if resp.IsRateLimited() {
		return false
	}

	g.Expect(resp.StatusCode).To(Or(Equal(http.StatusNoContent), Equal(http.StatusNotFound)), "body: %s", resp.Body)

	return true
}

// describeRateLimit summarises the rate limit state of a response for logs.
func describeRateLimit(resp *Response) string {
	rate, err := resp.RateLimit()
	if err != nil {
		return fmt.Sprintf("status %d, %v", resp.StatusCode, err)
	}

	return fmt.Sprintf("status %d, %s %d/%d remaining, resets at %s",
		resp.StatusCode, rate.Resource, rate.Remaining, rate.Limit, rate.Reset.Format(time.RFC3339))
}

// expectMessage asserts the response carries a JSON error message containing
// the given text.
func expectMessage(g Gomega, resp *Response, message string) {
	envelope, err := resp.Envelope()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(envelope).To(HaveKey(FieldMessage))
	g.Expect(envelope[FieldMessage]).To(ContainSubstring(message))
}

// VerifyRepositoryCreated verifies the created repository echoes the request.
func VerifyRepositoryCreated(g Gomega, resp *Response, request CreateRepositoryRequest) {
	g.Expect(resp.StatusCode).To(Equal(http.StatusCreated), "body: %s", resp.Body)

	envelope, err := resp.Envelope()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(envelope).To(HaveKeyWithValue(FieldName, request.Name))
	g.Expect(envelope).To(HaveKeyWithValue(FieldDescription, request.Description))
	g.Expect(envelope).To(HaveKeyWithValue(FieldPrivate, request.Private))
}

// VerifyCreationRejected verifies a repository creation failed validation.
func VerifyCreationRejected(g Gomega, resp *Response) {
	g.Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity), "body: %s", resp.Body)
	expectMessage(g, resp, MessageRepositoryCreationFailed)
}

// VerifyRepositoryDetails verifies a fetched repository belongs to the owner
// and is public.
func VerifyRepositoryDetails(g Gomega, resp *Response, owner, name string) {
	g.Expect(resp.StatusCode).To(Equal(http.StatusOK), "body: %s", resp.Body)

	envelope, err := resp.Envelope()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(envelope).To(HaveKeyWithValue(FieldFullName, owner+"/"+name))
	g.Expect(envelope).To(HaveKeyWithValue(FieldPrivate, false))
}

// VerifyRepositoryDeleted verifies a delete succeeded.
func VerifyRepositoryDeleted(g Gomega, resp *Response) {
	g.Expect(resp.StatusCode).To(Equal(http.StatusNoContent), "body: %s", resp.Body)
}

// VerifyNotFound verifies the repository does not exist.
func VerifyNotFound(g Gomega, resp *Response) {
	g.Expect(resp.StatusCode).To(Equal(http.StatusNotFound), "body: %s", resp.Body)
	expectMessage(g, resp, MessageNotFound)
}

// VerifyBadCredentials verifies the request was rejected as unauthenticated.
func VerifyBadCredentials(g Gomega, resp *Response) {
	g.Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized), "body: %s", resp.Body)
	expectMessage(g, resp, MessageBadCredentials)
}

// VerifyRateLimitBurst verifies every response in a burst either succeeded or
// was rejected by the rate limiter, and that the remaining quota never grows
// within a single reset window.
func VerifyRateLimitBurst(g Gomega, responses []*Response, expected int) {
	g.Expect(responses).To(HaveLen(expected))

	var previous *RateLimit

	for i, resp := range responses {
		isPrimary := resp.IsPrimaryRateLimited()

		switch {
		case isPrimary:
			expectMessage(g, resp, MessageRateLimitExceeded)
		case resp.IsSecondaryRateLimited():
			// Secondary limits carry their own wording and no quota.
		default:
			g.Expect(resp.StatusCode).To(Equal(http.StatusOK), "request %d: %s", i, resp.Body)
		}

		rate, err := resp.RateLimit()
		if errors.Is(err, ErrNoRateLimit) {
			continue
		}

		if err != nil {
			g.Expect(err).NotTo(HaveOccurred(), "request %d", i)
			continue
		}

		if isPrimary {
			g.Expect(rate.Remaining).To(BeZero(), "request %d was rate limited with quota left", i)
		}

		if previous != nil && previous.Resource == rate.Resource && previous.Reset.Equal(rate.Reset) {
			g.Expect(rate.Remaining).To(BeNumerically("<=", previous.Remaining), "request %d", i)
		}

		previous = rate
	}
}

// CountRateLimited returns how many responses were rate limited.
func CountRateLimited(responses []*Response) int {
	var count int

	for _, resp := range responses {
		if resp.IsRateLimited() {
			count++
		}
	}

	return count
}
