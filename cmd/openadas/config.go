// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/openadas/internal/errors"
	"github.com/pdiddy/openadas/pkg/types"
)

// envKeys maps nested keys to environment names, so repository.path is
// read from OPENADAS_REPOSITORY_PATH.
var envKeys = strings.NewReplacer(".", "_")

// setDefaults registers every default so environment variables bind to
// keys that appear in no config file.
func setDefaults(d types.Config) {
	viper.SetDefault("repository.path", d.Repository.Path)
	viper.SetDefault("repository.lock_timeout", d.Repository.LockTimeout)

	viper.SetDefault("acquisition.timeout", d.Acquisition.Timeout)
	viper.SetDefault("acquisition.user_agent", d.Acquisition.UserAgent)
	viper.SetDefault("acquisition.adas_path", d.Acquisition.AdasPath)
	viper.SetDefault("acquisition.cache_dir", d.Acquisition.CacheDir)
	viper.SetDefault("acquisition.base_url", d.Acquisition.BaseURL)
	viper.SetDefault("acquisition.offline", d.Acquisition.Offline)
	viper.SetDefault("acquisition.max_retries", d.Acquisition.MaxRetries)
	viper.SetDefault("acquisition.download_delay", d.Acquisition.DownloadDelay)

	viper.SetDefault("catalog.path", "")

	viper.SetDefault("log.level", d.Log.Level)
	viper.SetDefault("log.format", d.Log.Format)
}

// loadConfig decodes the merged settings. An unset catalog path follows
// the repository.
func loadConfig() (types.Config, error) {
	var c types.Config
	if err := viper.Unmarshal(&c); err != nil {
		return types.Config{}, errors.Wrap(err, "decoding configuration")
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = filepath.Join(c.Repository.Path, ".catalog", "catalog.db")
	}
	return c, nil
}
