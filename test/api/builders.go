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

package api

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const defaultDescription = "This is a test repository"

// CreateRepositoryRequest is the body of a repository creation request.
type CreateRepositoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Private     bool   `json:"private"`
}

func generateRandomName(prefix string) string {
	bytes := make([]byte, 4) // 8 hex characters
	_, _ = rand.Read(bytes)

	return fmt.Sprintf("%s-%s", prefix, hex.EncodeToString(bytes))
}

// GenerateRepositoryName returns a unique repository name so concurrent
// runs against the same account don't collide.
func GenerateRepositoryName(prefix string) string {
	return generateRandomName(prefix)
}

// RepositoryPayloadBuilder builds repository payloads for testing.
type RepositoryPayloadBuilder struct {
	payload CreateRepositoryRequest
}

// NewRepositoryPayload creates a public repository payload with a unique name.
func NewRepositoryPayload(prefix string) *RepositoryPayloadBuilder {
	return &RepositoryPayloadBuilder{
		payload: CreateRepositoryRequest{
			Name:        GenerateRepositoryName(prefix),
			Description: defaultDescription,
		},
	}
}

// WithName sets the repository name, an empty name is allowed so validation
// can be tested.
func (b *RepositoryPayloadBuilder) WithName(name string) *RepositoryPayloadBuilder {
	b.payload.Name = name
	return b
}

// WithDescription sets the repository description.
func (b *RepositoryPayloadBuilder) WithDescription(desc string) *RepositoryPayloadBuilder {
	b.payload.Description = desc
	return b
}

// WithPrivate sets the repository visibility.
func (b *RepositoryPayloadBuilder) WithPrivate(private bool) *RepositoryPayloadBuilder {
	b.payload.Private = private
	return b
}

// Build returns the completed payload.
func (b *RepositoryPayloadBuilder) Build() CreateRepositoryRequest {
	return b.payload
}
