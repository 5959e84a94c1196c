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

// Package api provides integration test utilities for the GitHub repositories API.
//
// # Separate Client Implementation
//
// This package intentionally talks HTTP directly instead of using a generated
// or third party GitHub client for requests.  The tests are about the wire
// contract, so they need:
//   - Direct access to HTTP status codes and response bodies, API errors are
//     expected outcomes rather than Go errors
//   - Exactly the headers the tests send, fixed when the client is built
//   - W3C trace context on every request, logged on failure
//   - Optional validation of every response against an OpenAPI description
//
// go-github types are still used to decode repositories and to classify
// error responses the same way the official client does.
//
// # Configuration
//
// Credentials are read once from appsettings.json, see LoadSettings.  The
// package level loader caches the result, including any error, for the life
// of the process.
//
// # Cleanup
//
// Repositories created by fixtures are deleted with DeferCleanup, which runs
// even when a spec fails.  Anything left behind by an interrupted run can be
// removed with the github-api-sweeper command.
package api
