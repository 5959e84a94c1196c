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

package sweeper

import (
	"context"

	"github.com/google/go-github/v45/github"

	"github.com/unikorn-cloud/github-api-tests/test/api"
)

//go:generate mockgen -source=interfaces.go -destination=mock/interfaces.go -package=mock -copyright_file=../../../hack/boilerplate.go.txt

// Client is the part of the API client the sweeper uses, satisfied by
// *api.APIClient.
type Client interface {
	ListRepositories(ctx context.Context) ([]*github.Repository, error)
	DeleteRepository(ctx context.Context, owner, name string) (*api.Response, error)
}
