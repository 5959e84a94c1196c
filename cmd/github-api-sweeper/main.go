/*
Copyright 2025 the Unikorn Authors.
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

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/unikorn-cloud/github-api-tests/pkg/constants"
	"github.com/unikorn-cloud/github-api-tests/test/api"
	"github.com/unikorn-cloud/github-api-tests/test/api/sweeper"

	cr "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

func main() {
	var (
		options    sweeper.Options
		zapOptions zap.Options
	)

	options.AddFlags(pflag.CommandLine)

	// Only the logging flags are exposed, test frameworks register their
	// own on the default flag set.
	logFlags := flag.NewFlagSet("logging", flag.ExitOnError)
	zapOptions.BindFlags(logFlags)
	pflag.CommandLine.AddGoFlagSet(logFlags)

	pflag.Parse()

	log.SetLogger(zap.New(zap.UseFlagOptions(&zapOptions)))

	logger := log.Log.WithName("init")
	logger.Info("sweeper starting", "application", constants.Application, "version", constants.Version, "revision", constants.Revision)

	ctx := cr.SetupSignalHandler()

	settings, err := api.LoadSettings()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if options.Owner == "" {
		options.Owner = settings.GitHubUsername
	}

	if options.Prefix == "" {
		options.Prefix = settings.RepositoryPrefix
	}

	client := api.NewAPIClient(settings, api.WithLogger(log.Log.WithName("client")))

	deleted, err := sweeper.New(client, &options).Run(log.IntoContext(ctx, log.Log.WithName("sweeper")))
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	logger.Info("sweep complete", "owner", options.Owner, "prefix", options.Prefix, "deleted", len(deleted), "dryRun", options.DryRun)
}
