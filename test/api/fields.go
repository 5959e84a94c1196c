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

// JSON keys read from repository and error responses.
const (
	FieldFullName    = "full_name"
	FieldPrivate     = "private"
	FieldName        = "name"
	FieldDescription = "description"
	FieldMessage     = "message"
)

// Substrings expected in the message of error responses.
const (
	MessageRepositoryCreationFailed = "Repository creation failed."
	MessageNotFound                 = "Not Found"
	MessageRateLimitExceeded        = "API rate limit exceeded"
	MessageBadCredentials           = "Bad credentials"
)

// Fields returns every response key the scenarios inspect.
func Fields() []string {
	return []string{
		FieldFullName,
		FieldPrivate,
		FieldName,
		FieldDescription,
		FieldMessage,
	}
}
