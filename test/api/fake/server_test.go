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

package fake_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-github/v45/github"
	"github.com/stretchr/testify/require"

	"github.com/unikorn-cloud/github-api-tests/test/api/fake"
)

const (
	owner = "alice"
	token = "t"
)

func do(t *testing.T, server *fake.Server, method, path, body, authorization string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	return rr
}

func message(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Message string `json:"message"`
	}

	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

	return body.Message
}

// TestRepositoryLifecycle walks a repository through create, get and delete.
func TestRepositoryLifecycle(t *testing.T) {
	t.Parallel()

	server := fake.New(owner, token)

	rr := do(t, server, http.MethodPost, "/user/repos", `{"name":"demo","description":"d","private":false}`, "token t")
	require.Equal(t, http.StatusCreated, rr.Code)

	var repository github.Repository
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &repository))
	require.Equal(t, "demo", repository.GetName())
	require.Equal(t, "alice/demo", repository.GetFullName())
	require.Equal(t, "d", repository.GetDescription())
	require.False(t, repository.GetPrivate())

	rr = do(t, server, http.MethodGet, "/repos/alice/demo", "", "Bearer t")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, server, http.MethodDelete, "/repos/alice/demo", "", "token t")
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Empty(t, rr.Body.Bytes())

	rr = do(t, server, http.MethodGet, "/repos/alice/demo", "", "token t")
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "Not Found", message(t, rr))

	rr = do(t, server, http.MethodDelete, "/repos/alice/demo", "", "token t")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

// TestCreateValidation ensures empty and duplicate names are rejected.
func TestCreateValidation(t *testing.T) {
	t.Parallel()

	server := fake.New(owner, token)

	rr := do(t, server, http.MethodPost, "/user/repos", `{"name":""}`, "token t")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Equal(t, "Repository creation failed.", message(t, rr))

	rr = do(t, server, http.MethodPost, "/user/repos", `{"name":"Test repo"}`, "token t")
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, []string{"Test-repo"}, server.Repositories())

	// Names are case insensitive.
	rr = do(t, server, http.MethodPost, "/user/repos", `{"name":"test-REPO"}`, "token t")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Equal(t, "Repository creation failed.", message(t, rr))

	rr = do(t, server, http.MethodPost, "/user/repos", `{`, "token t")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Test-repo", fake.NormalizeName("Test repo"))
	require.Equal(t, "a.b_c-d", fake.NormalizeName("a.b_c-d"))
	require.Equal(t, "a-b-c", fake.NormalizeName("a/b?c"))
	require.Empty(t, fake.NormalizeName(""))
}

// TestAuthentication ensures missing and wrong tokens are rejected.
func TestAuthentication(t *testing.T) {
	t.Parallel()

	server := fake.New(owner, token)

	rr := do(t, server, http.MethodGet, "/user/repos", "", "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "Requires authentication", message(t, rr))

	rr = do(t, server, http.MethodGet, "/user/repos", "", "token wrong")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "Bad credentials", message(t, rr))

	rr = do(t, server, http.MethodGet, "/user/repos", "", "Basic t")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

// TestRateLimit ensures the quota is enforced and refilled after the window.
func TestRateLimit(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0)

	server := fake.New(owner, token,
		fake.WithRateLimit(2, time.Minute),
		fake.WithClock(func() time.Time { return now }),
	)

	rr := do(t, server, http.MethodGet, "/user/repos", "", "token t")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "2", rr.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "1", rr.Header().Get("X-RateLimit-Remaining"))
	require.Equal(t, "1", rr.Header().Get("X-RateLimit-Used"))
	require.Equal(t, "1700000060", rr.Header().Get("X-RateLimit-Reset"))
	require.Equal(t, "core", rr.Header().Get("X-RateLimit-Resource"))

	rr = do(t, server, http.MethodGet, "/user/repos", "", "token t")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))

	rr = do(t, server, http.MethodGet, "/user/repos", "", "token t")
	require.Equal(t, http.StatusForbidden, rr.Code)
	require.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
	require.Contains(t, message(t, rr), "API rate limit exceeded")

	now = now.Add(time.Minute)

	rr = do(t, server, http.MethodGet, "/user/repos", "", "token t")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "1", rr.Header().Get("X-RateLimit-Remaining"))
}

// TestListRepositoriesPagination ensures pages are stable and bounded.
func TestListRepositoriesPagination(t *testing.T) {
	t.Parallel()

	server := fake.New(owner, token)

	for _, name := range []string{"c", "a", "b"} {
		rr := do(t, server, http.MethodPost, "/user/repos", `{"name":"`+name+`"}`, "token t")
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	page := func(query string) []string {
		rr := do(t, server, http.MethodGet, "/user/repos?"+query, "", "token t")
		require.Equal(t, http.StatusOK, rr.Code)

		var repositories []*github.Repository
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &repositories))

		names := make([]string, len(repositories))
		for i, repository := range repositories {
			names[i] = repository.GetName()
		}

		return names
	}

	require.Equal(t, []string{"a", "b"}, page("per_page=2&page=1"))
	require.Equal(t, []string{"c"}, page("per_page=2&page=2"))
	require.Empty(t, page("per_page=2&page=3"))
	require.Equal(t, []string{"a", "b", "c"}, page(""))
}
