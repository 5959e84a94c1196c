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

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v45/github"
)

var (
	// ErrUnexpectedStatus is raised by EnsureSuccess on a non 2xx status.
	ErrUnexpectedStatus = errors.New("unexpected status code")

	// ErrNoRateLimit is raised when a response carries no rate limit headers.
	ErrNoRateLimit = errors.New("response has no rate limit headers")
)

// Rate limit headers, see https://docs.github.com/en/rest/using-the-rest-api/rate-limits-for-the-rest-api.
const (
	headerRateLimit     = "X-RateLimit-Limit"
	headerRateRemaining = "X-RateLimit-Remaining"
	headerRateUsed      = "X-RateLimit-Used"
	headerRateReset     = "X-RateLimit-Reset"
	headerRateResource  = "X-RateLimit-Resource"
	headerRetryAfter    = "Retry-After"
)

// secondaryRateLimitMessage appears, in some casing, in every secondary
// limit rejection regardless of the documentation URL it links to.
const secondaryRateLimitMessage = "secondary rate limit"

// Response is a fully read HTTP response.  API errors such as 404 and 422 are
// expected outcomes in tests, so they are returned as a Response rather than
// a Go error.
type Response struct {
	StatusCode  int
	Header      http.Header
	Body        []byte
	TraceParent string

	// request is kept for go-github error formatting.
	request *http.Request
}

// TraceID returns the W3C trace ID sent with the request.
func (r *Response) TraceID() string {
	return extractTraceID(r.TraceParent)
}

// Envelope parses the body as a JSON object, no schema is applied.
func (r *Response) Envelope() (map[string]interface{}, error) {
	var envelope map[string]interface{}

	if err := json.Unmarshal(r.Body, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshaling response body (status %d): %w", r.StatusCode, err)
	}

	return envelope, nil
}

// Repository decodes the body as a repository.
func (r *Response) Repository() (*github.Repository, error) {
	repository := &github.Repository{}

	if err := json.Unmarshal(r.Body, repository); err != nil {
		return nil, fmt.Errorf("unmarshaling repository response: %w", err)
	}

	return repository, nil
}

// EnsureSuccess returns an error unless the status is 2xx.
func (r *Response) EnsureSuccess() error {
	if r.StatusCode < http.StatusOK || r.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %d, body: %s (trace ID: %s)", ErrUnexpectedStatus, r.StatusCode, string(r.Body), r.TraceID())
	}

	return nil
}

// Err classifies the response the same way the go-github client does,
// returning nil on success and typed errors such as *github.ErrorResponse
// or *github.RateLimitError otherwise.
func (r *Response) Err() error {
	// go-github formats errors using the request, which must not be nil.
	request := r.request
	if request == nil {
		request = &http.Request{}
	}

	httpResponse := &http.Response{
		StatusCode: r.StatusCode,
		Header:     r.Header,
		Body:       io.NopCloser(bytes.NewReader(r.Body)),
		Request:    request,
	}

	return github.CheckResponse(httpResponse)
}

// IsRateLimited reports whether the API rejected the request due to the
// primary or secondary rate limit.
func (r *Response) IsRateLimited() bool {
	return r.IsPrimaryRateLimited() || r.IsSecondaryRateLimited()
}

// IsPrimaryRateLimited reports whether the request was rejected because the
// quota for the current window is used up.  go-github only recognises a 403,
// GitHub may also answer 429.
func (r *Response) IsPrimaryRateLimited() bool {
	var rateLimitError *github.RateLimitError
	if errors.As(r.Err(), &rateLimitError) {
		return true
	}

	return isRateLimitStatus(r.StatusCode) && r.Header.Get(headerRateRemaining) == "0"
}

// IsSecondaryRateLimited reports whether the request was rejected by the
// secondary (abuse) rate limit, these carry no quota so are recognised by
// the message or a Retry-After header.
func (r *Response) IsSecondaryRateLimited() bool {
	if !isRateLimitStatus(r.StatusCode) {
		return false
	}

	var abuseError *github.AbuseRateLimitError
	if errors.As(r.Err(), &abuseError) {
		return true
	}

	if r.Header.Get(headerRetryAfter) != "" {
		return true
	}

	envelope, err := r.Envelope()
	if err != nil {
		return false
	}

	message, _ := envelope[FieldMessage].(string)

	return strings.Contains(strings.ToLower(message), secondaryRateLimitMessage)
}

func isRateLimitStatus(status int) bool {
	return status == http.StatusForbidden || status == http.StatusTooManyRequests
}

// RateLimit is the rate limit state reported with a response.
type RateLimit struct {
	Limit     int
	Remaining int
	Used      int
	Reset     time.Time
	Resource  string
}

// RateLimit parses the X-RateLimit headers.
func (r *Response) RateLimit() (*RateLimit, error) {
	if r.Header.Get(headerRateRemaining) == "" {
		return nil, ErrNoRateLimit
	}

	limit, err := headerInt(r.Header, headerRateLimit)
	if err != nil {
		return nil, err
	}

	remaining, err := headerInt(r.Header, headerRateRemaining)
	if err != nil {
		return nil, err
	}

	used, err := headerInt(r.Header, headerRateUsed)
	if err != nil {
		return nil, err
	}

	reset, err := headerInt(r.Header, headerRateReset)
	if err != nil {
		return nil, err
	}

	return &RateLimit{
		Limit:     limit,
		Remaining: remaining,
		Used:      used,
		Reset:     time.Unix(int64(reset), 0),
		Resource:  r.Header.Get(headerRateResource),
	}, nil
}

// headerInt parses an integer header, absent headers read as zero.
func headerInt(header http.Header, key string) (int, error) {
	value := header.Get(key)
	if value == "" {
		return 0, nil
	}

	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parsing header %s: %w", key, err)
	}

	return i, nil
}
