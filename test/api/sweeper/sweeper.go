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

// Package sweeper removes repositories leaked by interrupted test runs.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spjmurray/go-util/pkg/set"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

var (
	// ErrOptions is raised when the sweeper is not scoped to an owner and
	// prefix, it would otherwise delete everything.
	ErrOptions = errors.New("invalid sweeper options")
)

// Options control what is swept.
type Options struct {
	// Owner is the account whose repositories are considered.
	Owner string
	// Prefix selects repositories named "<prefix>-...".
	Prefix string
	// Keep lists repository names that are never deleted.
	Keep []string
	// DryRun reports what would be deleted without deleting.
	DryRun bool
}

func (o *Options) AddFlags(f *pflag.FlagSet) {
	f.StringVar(&o.Owner, "owner", "", "Account to sweep, defaults to the configured username.")
	f.StringVar(&o.Prefix, "prefix", "", "Repository name prefix to sweep, defaults to the configured prefix.")
	f.StringSliceVar(&o.Keep, "keep", nil, "Repository names to never delete.")
	f.BoolVar(&o.DryRun, "dry-run", false, "Report what would be deleted without deleting anything.")
}

func (o *Options) validate() error {
	if o.Owner == "" {
		return fmt.Errorf("%w: owner is required", ErrOptions)
	}

	if o.Prefix == "" {
		return fmt.Errorf("%w: prefix is required", ErrOptions)
	}

	return nil
}

// Sweeper deletes matching repositories.
type Sweeper struct {
	client  Client
	options *Options
}

func New(client Client, options *Options) *Sweeper {
	return &Sweeper{
		client:  client,
		options: options,
	}
}

// candidates returns the repositories owned by the account, matching the
// prefix and not explicitly kept.
func (s *Sweeper) candidates(ctx context.Context) (set.Set[string], error) {
	repositories, err := s.client.ListRepositories(ctx)
	if err != nil {
		return nil, err
	}

	var names []string

	for _, repository := range repositories {
		if !strings.EqualFold(repository.GetOwner().GetLogin(), s.options.Owner) {
			continue
		}

		if !strings.HasPrefix(repository.GetName(), s.options.Prefix+"-") {
			continue
		}

		names = append(names, repository.GetName())
	}

	return set.New[string](names...).Difference(set.New[string](s.options.Keep...)), nil
}

// Run deletes every candidate and returns the names deleted, or that would
// be in a dry run.  Individual failures do not stop the sweep, they are
// returned together once it completes.
func (s *Sweeper) Run(ctx context.Context) ([]string, error) {
	log := log.FromContext(ctx)

	if err := s.options.validate(); err != nil {
		return nil, err
	}

	candidates, err := s.candidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}

	var (
		deleted []string
		errs    []error
	)

	for _, name := range slices.Sorted(candidates.All()) {
		if s.options.DryRun {
			log.Info("would delete repository", "owner", s.options.Owner, "name", name)

			deleted = append(deleted, name)

			continue
		}

		resp, err := s.client.DeleteRepository(ctx, s.options.Owner, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		// Something else got there first.
		if resp.StatusCode == http.StatusNotFound {
			log.Info("repository already deleted", "owner", s.options.Owner, "name", name)
			continue
		}

		if err := resp.Err(); err != nil {
			errs = append(errs, fmt.Errorf("deleting repository %s/%s: %w", s.options.Owner, name, err))
			continue
		}

		log.Info("deleted repository", "owner", s.options.Owner, "name", name)

		deleted = append(deleted, name)
	}

	return deleted, utilerrors.NewAggregate(errs)
}
