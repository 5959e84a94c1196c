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

// Package fake provides an in-memory stand in for the parts of the GitHub
// repositories API the integration tests use.  Status codes, messages and
// rate limit headers follow the live service closely enough that the same
// specs pass against either.
package fake

import (
	"encoding/json"
	"net/http"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-github/v45/github"

	"k8s.io/utils/ptr"
)

const (
	// DefaultRateLimit matches the authenticated primary rate limit.
	DefaultRateLimit = 5000

	// DefaultRateLimitWindow matches the primary rate limit window.
	DefaultRateLimitWindow = time.Hour

	maxPerPage = 100

	documentationURL = "https://docs.github.com/rest"
)

// invalidNameCharacters are replaced with a hyphen on creation.
var invalidNameCharacters = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// NormalizeName returns the name a repository is created with.
func NormalizeName(name string) string {
	return invalidNameCharacters.ReplaceAllString(name, "-")
}

type errorResponse struct {
	Message          string       `json:"message"`
	Errors           []fieldError `json:"errors,omitempty"`
	DocumentationURL string       `json:"documentation_url,omitempty"`
	Status           string       `json:"status,omitempty"`
}

type fieldError struct {
	Resource string `json:"resource"`
	Code     string `json:"code"`
	Field    string `json:"field"`
	Message  string `json:"message,omitempty"`
}

type createRepositoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Private     bool   `json:"private"`
}

// Option configures a Server.
type Option func(*Server)

// WithRateLimit sets the number of requests allowed per window.
func WithRateLimit(limit int, window time.Duration) Option {
	return func(s *Server) {
		s.limit = limit
		s.window = window
	}
}

// WithClock replaces time.Now, tests use it to move between windows.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// Server is an http.Handler serving a single account.
type Server struct {
	owner string
	token string

	limit  int
	window time.Duration
	now    func() time.Time

	lock         sync.Mutex
	repositories map[string]*github.Repository
	nextID       int64
	remaining    int
	reset        time.Time

	router chi.Router
}

// New returns a server for owner, authenticated by token.
func New(owner, token string, options ...Option) *Server {
	s := &Server{
		owner:        owner,
		token:        token,
		limit:        DefaultRateLimit,
		window:       DefaultRateLimitWindow,
		now:          time.Now,
		repositories: map[string]*github.Repository{},
		nextID:       1,
	}

	for _, o := range options {
		o(s)
	}

	router := chi.NewRouter()
	router.Use(s.authenticate)
	router.Use(s.rateLimit)
	router.Get("/user/repos", s.listRepositories)
	router.Post("/user/repos", s.createRepository)
	router.Get("/repos/{owner}/{repo}", s.getRepository)
	router.Delete("/repos/{owner}/{repo}", s.deleteRepository)
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found", nil)
	})

	s.router = router

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Repositories returns the names of all repositories, sorted.
func (s *Server) Repositories() []string {
	s.lock.Lock()
	defer s.lock.Unlock()

	names := make([]string, 0, len(s.repositories))

	for _, repository := range s.repositories {
		names = append(names, repository.GetName())
	}

	slices.Sort(names)

	return names
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string, errors []fieldError) {
	writeJSON(w, status, &errorResponse{
		Message:          message,
		Errors:           errors,
		DocumentationURL: documentationURL,
		Status:           strconv.Itoa(status),
	})
}

// authenticate accepts the token in either the "token" or "Bearer" scheme.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, "Requires authentication", nil)
			return
		}

		scheme, token, _ := strings.Cut(header, " ")

		if (!strings.EqualFold(scheme, "token") && !strings.EqualFold(scheme, "bearer")) || token != s.token {
			writeError(w, http.StatusUnauthorized, "Bad credentials", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// rateLimit charges every authenticated request against a fixed window and
// reports the state in X-RateLimit headers.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.lock.Lock()

		now := s.now()

		if s.reset.IsZero() || !now.Before(s.reset) {
			s.remaining = s.limit
			s.reset = now.Add(s.window)
		}

		limited := s.remaining == 0
		if !limited {
			s.remaining--
		}

		header := w.Header()
		header.Set("X-RateLimit-Limit", strconv.Itoa(s.limit))
		header.Set("X-RateLimit-Remaining", strconv.Itoa(s.remaining))
		header.Set("X-RateLimit-Used", strconv.Itoa(s.limit-s.remaining))
		header.Set("X-RateLimit-Reset", strconv.FormatInt(s.reset.Unix(), 10))
		header.Set("X-RateLimit-Resource", "core")

		s.lock.Unlock()

		if limited {
			writeError(w, http.StatusForbidden, "API rate limit exceeded for user ID 1. If you reach out to GitHub Support for help, please include the request ID.", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) listRepositories(w http.ResponseWriter, r *http.Request) {
	perPage := queryInt(r, "per_page", 30)
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	page := queryInt(r, "page", 1)

	s.lock.Lock()

	all := make([]*github.Repository, 0, len(s.repositories))

	for _, repository := range s.repositories {
		all = append(all, repository)
	}

	s.lock.Unlock()

	slices.SortFunc(all, func(a, b *github.Repository) int {
		return strings.Compare(a.GetName(), b.GetName())
	})

	start := min((page-1)*perPage, len(all))
	end := min(start+perPage, len(all))

	writeJSON(w, http.StatusOK, all[start:end])
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	value, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || value < 1 {
		return defaultValue
	}

	return value
}

func (s *Server) createRepository(w http.ResponseWriter, r *http.Request) {
	var request createRepositoryRequest

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "Problems parsing JSON", nil)
		return
	}

	name := NormalizeName(request.Name)
	if name == "" {
		writeError(w, http.StatusUnprocessableEntity, "Repository creation failed.", []fieldError{
			{Resource: "Repository", Code: "missing_field", Field: "name"},
		})

		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	key := strings.ToLower(name)

	if _, ok := s.repositories[key]; ok {
		writeError(w, http.StatusUnprocessableEntity, "Repository creation failed.", []fieldError{
			{Resource: "Repository", Code: "custom", Field: "name", Message: "name already exists on this account"},
		})

		return
	}

	repository := &github.Repository{
		ID:       ptr.To(s.nextID),
		Name:     ptr.To(name),
		FullName: ptr.To(s.owner + "/" + name),
		Private:  ptr.To(request.Private),
		Owner: &github.User{
			Login: ptr.To(s.owner),
			ID:    ptr.To(int64(1)),
		},
		CreatedAt: &github.Timestamp{Time: s.now()},
	}

	if request.Description != "" {
		repository.Description = ptr.To(request.Description)
	}

	s.nextID++
	s.repositories[key] = repository

	writeJSON(w, http.StatusCreated, repository)
}

// lookup finds a repository, owner and name match case insensitively.
// The caller must hold the lock.
func (s *Server) lookup(r *http.Request) (string, *github.Repository) {
	key := strings.ToLower(chi.URLParam(r, "repo"))

	if !strings.EqualFold(chi.URLParam(r, "owner"), s.owner) {
		return key, nil
	}

	return key, s.repositories[key]
}

func (s *Server) getRepository(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	_, repository := s.lookup(r)
	s.lock.Unlock()

	if repository == nil {
		writeError(w, http.StatusNotFound, "Not Found", nil)
		return
	}

	writeJSON(w, http.StatusOK, repository)
}

func (s *Server) deleteRepository(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()

	key, repository := s.lookup(r)
	if repository == nil {
		writeError(w, http.StatusNotFound, "Not Found", nil)
		return
	}

	delete(s.repositories, key)

	w.WriteHeader(http.StatusNoContent)
}
