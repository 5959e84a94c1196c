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

//nolint:revive // naming conventions acceptable in test code
package api

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/go-github/v45/github"
	"github.com/onsi/ginkgo/v2"

	"github.com/unikorn-cloud/github-api-tests/pkg/constants"
)

// perPage is the largest page size the API allows.
const perPage = 100

// APIClient issues requests against the configured API.  All state is fixed
// at construction so a single client can be shared between specs.
type APIClient struct {
	baseURL   string
	client    *http.Client
	authToken string
	userAgent string
	settings  *Settings
	endpoints *Endpoints
	logger    logr.Logger
	validator *ResponseValidator
}

// Option customizes a client at construction time.
type Option func(*APIClient)

// WithLogger replaces the default Ginkgo logger.
func WithLogger(logger logr.Logger) Option {
	return func(c *APIClient) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *APIClient) {
		c.client = client
	}
}

// WithResponseValidator checks every response against the OpenAPI schema.
func WithResponseValidator(validator *ResponseValidator) Option {
	return func(c *APIClient) {
		c.validator = validator
	}
}

// NewAPIClient returns a client authenticated as the configured user.
func NewAPIClient(settings *Settings, options ...Option) *APIClient {
	c := &APIClient{
		baseURL: strings.TrimSuffix(settings.GitHubAPIURL, "/"),
		client: &http.Client{
			Timeout: settings.RequestTimeout,
		},
		authToken: settings.GitHubToken,
		userAgent: constants.VersionString(),
		settings:  settings,
		endpoints: NewEndpoints(),
		logger:    ginkgo.GinkgoLogr,
	}

	for _, o := range options {
		o(c)
	}

	return c
}

// NewAPIClientWithValidation returns a client that validates responses when
// the settings ask for it.
func NewAPIClientWithValidation(ctx context.Context, settings *Settings, options ...Option) (*APIClient, error) {
	if settings.ValidateResponse {
		validator, err := NewResponseValidator(ctx, settings.GitHubAPIURL)
		if err != nil {
			return nil, err
		}

		options = append(options, WithResponseValidator(validator))
	}

	return NewAPIClient(settings, options...), nil
}

// WithAuthToken returns a copy of the client using a different token, the
// receiver is left untouched.
func (c *APIClient) WithAuthToken(token string) *APIClient {
	clone := *c
	clone.authToken = token

	return &clone
}

// Endpoints returns the endpoint table used by the client.
func (c *APIClient) Endpoints() *Endpoints {
	return c.endpoints
}

// logError logs a generic error with trace context.
func (c *APIClient) logError(method, path string, duration time.Duration, traceParent string, err error, context string) {
	c.logger.Error(err, context, "method", method, "path", path, "duration", duration, "traceID", extractTraceID(traceParent))
}

// generateTraceID creates a new W3C trace ID.
// we are using this to create a new trace ID for each request so if an error occurs we can find the request in the logs.
func generateTraceID() string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)

	return hex.EncodeToString(bytes)
}

// generateSpanID creates a new W3C span ID.
func generateSpanID() string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)

	return hex.EncodeToString(bytes)
}

// createTraceParent creates a W3C traceparent header value.
func createTraceParent() string {
	traceID := generateTraceID()
	spanID := generateSpanID()

	return fmt.Sprintf("00-%s-%s-01", traceID, spanID)
}

// extractTraceID extracts the trace ID from a traceparent header value.
func extractTraceID(traceParent string) string {
	parts := strings.Split(traceParent, "-")
	if len(parts) >= 2 {
		return parts[1]
	}

	return traceParent
}

// url joins the base URL and path with a single separator, so relative
// ("user/repos") and absolute ("/repos/...") paths both keep any base path.
func (c *APIClient) url(path string) string {
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

func (c *APIClient) doRequest(ctx context.Context, method, path string, body interface{}) (*Response, error) {
	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}

		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	// Add W3C Trace Context headers
	traceParent := createTraceParent()
	req.Header.Set("Traceparent", traceParent)
	req.Header.Set("Tracestate", "test-automation=ginkgo")

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.authToken != "" {
		req.Header.Set("Authorization", "token "+c.authToken)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logError(method, path, duration, traceParent, err, "http request failed")
		return nil, fmt.Errorf("http request failed: %w", err)
	}

	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logError(method, path, duration, traceParent, err, "reading response body")
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	response := &Response{
		StatusCode:  resp.StatusCode,
		Header:      resp.Header,
		Body:        respBody,
		TraceParent: traceParent,
		request:     req,
	}

	if c.settings.LogRequests {
		c.logger.Info("request", "method", method, "path", path, "status", resp.StatusCode, "duration", duration, "traceID", response.TraceID())
	}

	if c.settings.LogResponses && len(respBody) > 0 {
		c.logger.Info("response", "method", method, "path", path, "body", string(respBody))
	}

	if c.validator != nil {
		if err := c.validator.Validate(ctx, req, response); err != nil {
			c.logError(method, path, duration, traceParent, err, "response failed schema validation")
			return response, err
		}
	}

	return response, nil
}

// CreateRepository creates a repository for the authenticated user.
func (c *APIClient) CreateRepository(ctx context.Context, request CreateRepositoryRequest) (*Response, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, c.endpoints.CreateRepository(), request)
	if err != nil {
		return resp, fmt.Errorf("creating repository %q: %w", request.Name, err)
	}

	return resp, nil
}

// GetRepository retrieves a repository.
func (c *APIClient) GetRepository(ctx context.Context, owner, name string) (*Response, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, c.endpoints.GetRepository(owner, name), nil)
	if err != nil {
		return resp, fmt.Errorf("getting repository %s/%s: %w", owner, name, err)
	}

	return resp, nil
}

// DeleteRepository deletes a repository.
func (c *APIClient) DeleteRepository(ctx context.Context, owner, name string) (*Response, error) {
	resp, err := c.doRequest(ctx, http.MethodDelete, c.endpoints.DeleteRepository(owner, name), nil)
	if err != nil {
		return resp, fmt.Errorf("deleting repository %s/%s: %w", owner, name, err)
	}

	return resp, nil
}

// ListRepositories lists every repository visible to the authenticated user,
// following pagination until a short page is returned.
func (c *APIClient) ListRepositories(ctx context.Context) ([]*github.Repository, error) {
	var repositories []*github.Repository

	for page := 1; ; page++ {
		path := fmt.Sprintf("%s?per_page=%d&page=%d", c.endpoints.ListRepositories(), perPage, page)

		resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, fmt.Errorf("listing repositories: %w", err)
		}

		if err := resp.Err(); err != nil {
			return nil, fmt.Errorf("listing repositories: %w", err)
		}

		var items []*github.Repository
		if err := json.Unmarshal(resp.Body, &items); err != nil {
			return nil, fmt.Errorf("unmarshaling repositories response: %w", err)
		}

		repositories = append(repositories, items...)

		if len(items) < perPage {
			return repositories, nil
		}
	}
}

// ProbeRateLimit issues count sequential reads of a repository, returning
// every response.  It stops early only on a transport error.
func (c *APIClient) ProbeRateLimit(ctx context.Context, owner, name string, count int) ([]*Response, error) {
	responses := make([]*Response, 0, count)

	for i := 0; i < count; i++ {
		resp, err := c.GetRepository(ctx, owner, name)
		if err != nil {
			return responses, fmt.Errorf("probe request %d: %w", i, err)
		}

		responses = append(responses, resp)
	}

	return responses, nil
}
