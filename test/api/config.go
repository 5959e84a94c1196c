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
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	// SettingsFileName is the JSON document holding the Settings section.
	SettingsFileName = "appsettings.json"

	// envFileName is an optional dotenv file alongside the settings file.
	envFileName = ".env"
)

var (
	// ErrSettingsNotFound is raised when no settings file can be located.
	ErrSettingsNotFound = errors.New("settings file not found")

	// ErrSettingsInvalid is raised when the settings fail validation.
	ErrSettingsInvalid = errors.New("settings invalid")
)

// Settings is the immutable configuration shared by every scenario.
type Settings struct {
	GitHubUsername   string
	GitHubToken      string
	GitHubAPIURL     string
	RequestTimeout   time.Duration
	SkipIntegration  bool
	ValidateResponse bool
	LogRequests      bool
	LogResponses     bool
	RateLimitBurst   int
	RepositoryPrefix string
	// FileUsed records where the settings were read from.
	FileUsed string
}

// settingsSearchPaths are tried in order, the parents cover "go test" being
// run from test/api and test/api/suites.
//
//nolint:gochecknoglobals
var settingsSearchPaths = []string{
	SettingsFileName,
	filepath.Join("..", SettingsFileName),
	filepath.Join("..", "..", SettingsFileName),
	filepath.Join("..", "..", "..", SettingsFileName),
}

// Loader reads settings once and caches the result, including any error.
type Loader struct {
	fs    afero.Fs
	paths []string

	once     sync.Once
	settings *Settings
	err      error
}

// NewLoader returns a loader that searches the given paths on fs.
func NewLoader(fs afero.Fs, paths ...string) *Loader {
	if len(paths) == 0 {
		paths = settingsSearchPaths
	}

	return &Loader{
		fs:    fs,
		paths: paths,
	}
}

//nolint:gochecknoglobals
var defaultLoader = NewLoader(afero.NewOsFs())

// LoadSettings loads the process wide settings, reading the source only on
// the first call.
func LoadSettings() (*Settings, error) {
	return defaultLoader.Load()
}

// Load returns the cached settings, loading them on first use.
func (l *Loader) Load() (*Settings, error) {
	l.once.Do(func() {
		l.settings, l.err = l.load()
	})

	return l.settings, l.err
}

func (l *Loader) load() (*Settings, error) {
	path, err := l.locate()
	if err != nil {
		return nil, err
	}

	if err := l.loadEnvFile(filepath.Join(filepath.Dir(path), envFileName)); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetFs(l.fs)
	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.SetDefault("requesttimeout", 30*time.Second)
	v.SetDefault("ratelimitburst", 100)
	v.SetDefault("repositoryprefix", "api-test")

	bindings := map[string]string{
		"settings.githubusername": "GITHUB_USERNAME",
		"settings.githubtoken":    "GITHUB_TOKEN",
		"settings.githubapiurl":   "GITHUB_API_URL",
		"requesttimeout":          "REQUEST_TIMEOUT",
		"skipintegration":         "SKIP_INTEGRATION",
		"validateresponses":       "VALIDATE_RESPONSES",
		"logrequests":             "LOG_REQUESTS",
		"logresponses":            "LOG_RESPONSES",
		"ratelimitburst":          "RATE_LIMIT_BURST",
		"repositoryprefix":        "REPOSITORY_PREFIX",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading settings from %s: %w", path, err)
	}

	timeout, err := cast.ToDurationE(v.Get("requesttimeout"))
	if err != nil {
		return nil, fmt.Errorf("%w: REQUEST_TIMEOUT: %w", ErrSettingsInvalid, err)
	}

	burst, err := cast.ToIntE(v.Get("ratelimitburst"))
	if err != nil {
		return nil, fmt.Errorf("%w: RATE_LIMIT_BURST: %w", ErrSettingsInvalid, err)
	}

	settings := &Settings{
		GitHubUsername:   v.GetString("settings.githubusername"),
		GitHubToken:      v.GetString("settings.githubtoken"),
		GitHubAPIURL:     strings.TrimSuffix(v.GetString("settings.githubapiurl"), "/"),
		RequestTimeout:   timeout,
		SkipIntegration:  v.GetBool("skipintegration"),
		ValidateResponse: v.GetBool("validateresponses"),
		LogRequests:      v.GetBool("logrequests"),
		LogResponses:     v.GetBool("logresponses"),
		RateLimitBurst:   burst,
		RepositoryPrefix: v.GetString("repositoryprefix"),
		FileUsed:         path,
	}

	if err := validateSettings(settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// locate returns the first settings file that exists, SETTINGS_FILE wins
// over the search path.
func (l *Loader) locate() (string, error) {
	paths := l.paths

	if override := os.Getenv("SETTINGS_FILE"); override != "" {
		paths = []string{override}
	}

	for _, path := range paths {
		exists, err := afero.Exists(l.fs, path)
		if err != nil {
			return "", fmt.Errorf("checking %s: %w", path, err)
		}

		if exists {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: looked in %s", ErrSettingsNotFound, strings.Join(paths, ", "))
}

// loadEnvFile exports values from a dotenv file that are not already set,
// a missing file is fine as CI sets the environment directly.
func (l *Loader) loadEnvFile(path string) error {
	file, err := l.fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("opening %s: %w", path, err)
	}

	defer file.Close()

	values, err := godotenv.Parse(file)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	for key, value := range values {
		if os.Getenv(key) != "" {
			continue
		}

		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("exporting %s: %w", key, err)
		}
	}

	return nil
}

// validateSettings checks that all required configuration values are set.
func validateSettings(settings *Settings) error {
	var missing []string

	required := []struct {
		name  string
		value string
	}{
		{"Settings.GitHubUsername", settings.GitHubUsername},
		{"Settings.GitHubToken", settings.GitHubToken},
		{"Settings.GitHubApiUrl", settings.GitHubAPIURL},
	}

	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required configuration: %s. Please add them to %s or set GITHUB_USERNAME, GITHUB_TOKEN and GITHUB_API_URL", ErrSettingsInvalid, strings.Join(missing, ", "), settings.FileUsed)
	}

	u, err := url.Parse(settings.GitHubAPIURL)
	if err != nil {
		return fmt.Errorf("%w: parsing Settings.GitHubApiUrl: %w", ErrSettingsInvalid, err)
	}

	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: Settings.GitHubApiUrl %q must be an absolute URL", ErrSettingsInvalid, settings.GitHubAPIURL)
	}

	// A zero timeout disables it entirely on the HTTP client.
	if settings.RequestTimeout <= 0 {
		return fmt.Errorf("%w: REQUEST_TIMEOUT must be positive, got %s", ErrSettingsInvalid, settings.RequestTimeout)
	}

	if settings.RateLimitBurst <= 0 {
		return fmt.Errorf("%w: RATE_LIMIT_BURST must be positive, got %d", ErrSettingsInvalid, settings.RateLimitBurst)
	}

	return nil
}
