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
	"fmt"
)

// Endpoints contains all API endpoint patterns.
//
// Owner and repository names are interpolated verbatim, callers wanting
// escaping must do it themselves.
type Endpoints struct{}

// NewEndpoints creates a new Endpoints instance.
func NewEndpoints() *Endpoints {
	return &Endpoints{}
}

// Repository creation for the authenticated user.
func (e *Endpoints) CreateRepository() string {
	return "user/repos"
}

func (e *Endpoints) ListRepositories() string {
	return "user/repos"
}

// Repository addresses a single repository, it's shared by get and delete.
func (e *Endpoints) Repository(owner, name string) string {
	return fmt.Sprintf("/repos/%s/%s", owner, name)
}

func (e *Endpoints) GetRepository(owner, name string) string {
	return e.Repository(owner, name)
}

func (e *Endpoints) DeleteRepository(owner, name string) string {
	return e.Repository(owner, name)
}
