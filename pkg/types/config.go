// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds configuration shared by the CLI and internal packages.
package types

import (
	"path/filepath"
	"time"
)

// HTTPConfig holds the HTTP settings used when downloading source files.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "openadas/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// RepositoryConfig locates the rate repository.
type RepositoryConfig struct {
	// Path is the repository root directory.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// LockTimeout bounds how long Put waits for another writer to release
	// a repository file. Zero waits until the context is cancelled.
	LockTimeout time.Duration `json:"lock_timeout" yaml:"lock_timeout" mapstructure:"lock_timeout"`
}

// AcquisitionConfig holds settings for locating ADAS source files.
type AcquisitionConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// AdasPath is an optional local ADAS tree searched before the cache.
	AdasPath string `json:"adas_path" yaml:"adas_path" mapstructure:"adas_path"`

	// CacheDir holds downloaded source files.
	CacheDir string `json:"cache_dir" yaml:"cache_dir" mapstructure:"cache_dir"`

	// BaseURL is the mirror files are downloaded from. http and https
	// URLs use the retrying HTTP client; any other go-getter source
	// string (file::, s3::, git::) is handed to go-getter.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Offline disables downloads; only AdasPath and CacheDir are searched.
	Offline bool `json:"offline" yaml:"offline" mapstructure:"offline"`

	// MaxRetries bounds retries on throttled responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// DownloadDelay is the delay between consecutive downloads.
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay" mapstructure:"download_delay"`

	// Token is an optional bearer token for private mirrors, loaded from
	// .secrets/adas-mirror-token.
	Token string `json:"-" yaml:"-" mapstructure:"-"`
}

// CatalogConfig locates the install catalog database.
type CatalogConfig struct {
	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is console or json. Empty picks console on a terminal and
	// json otherwise.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups every setting read from openadas.yaml.
type Config struct {
	Repository  RepositoryConfig  `json:"repository" yaml:"repository" mapstructure:"repository"`
	Acquisition AcquisitionConfig `json:"acquisition" yaml:"acquisition" mapstructure:"acquisition"`
	Catalog     CatalogConfig     `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	Log         LogConfig         `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultBaseURL is the public OpenADAS download location.
const DefaultBaseURL = "http://open.adas.ac.uk/download/"

// DefaultConfig returns the configuration used when no file or
// environment overrides a setting. home is the user's home directory.
func DefaultConfig(home string) Config {
	root := filepath.Join(home, ".openadas")
	repo := filepath.Join(root, "repository")
	return Config{
		Repository: RepositoryConfig{
			Path:        repo,
			LockTimeout: 30 * time.Second,
		},
		Acquisition: AcquisitionConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   60 * time.Second,
				UserAgent: "openadas/0.1",
			},
			CacheDir:      filepath.Join(root, "download_cache"),
			BaseURL:       DefaultBaseURL,
			MaxRetries:    5,
			DownloadDelay: 500 * time.Millisecond,
		},
		Catalog: CatalogConfig{
			Path: filepath.Join(repo, ".catalog", "catalog.db"),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
