package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".propsync"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the on-disk YAML configuration.
//
// Example:
//
//	database:
//	  dir: /var/lib/propsync
//	server:
//	  addr: ":8080"
//	  labelCacheTTL: 5m
//	profiles:
//	  community:
//	    batchKeywordFallback: true
//	shortcodes:
//	  delegate: es_my_listing
type File struct {
	Database   DatabaseSection            `yaml:"database,omitempty"`
	Sync       SyncSection                `yaml:"sync,omitempty"`
	Server     ServerSection              `yaml:"server,omitempty"`
	Listing    ListingSection             `yaml:"listing,omitempty"`
	Display    DisplaySection             `yaml:"display,omitempty"`
	Profiles   map[string]ProfileOverride `yaml:"profiles,omitempty"`
	Shortcodes ShortcodeSection           `yaml:"shortcodes,omitempty"`
}

// DatabaseSection configures the SQLite store.
type DatabaseSection struct {
	Dir string `yaml:"dir,omitempty"`
}

// SyncSection configures the batch-sync tool.
type SyncSection struct {
	BatchSize int `yaml:"batchSize,omitempty"`
}

// ServerSection configures the admin HTTP server.
// Secrets are better supplied through PROPSYNC_* variables than committed here.
type ServerSection struct {
	Addr              string         `yaml:"addr,omitempty"`
	AdminUser         string         `yaml:"adminUser,omitempty"`
	AdminPasswordHash string         `yaml:"adminPasswordHash,omitempty"`
	NonceSecret       string         `yaml:"nonceSecret,omitempty"`
	NonceTTL          time.Duration  `yaml:"nonceTTL,omitempty"`
	LabelCacheTTL     *time.Duration `yaml:"labelCacheTTL,omitempty"`
}

// ListingSection configures how editor fields map to stored meta keys.
type ListingSection struct {
	FieldPrefix *string `yaml:"fieldPrefix,omitempty"`
}

// DisplaySection configures the HTML display filters.
type DisplaySection struct {
	Template string `yaml:"template,omitempty"`
}

// ShortcodeSection configures the listings shortcodes.
type ShortcodeSection struct {
	Delegate   string      `yaml:"delegate,omitempty"`
	Attributes []Attribute `yaml:"attributes,omitempty"`
}

// Attribute is one fixed attribute passed to the delegate shortcode.
type Attribute struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// LoadConfigFile loads the configuration from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if cf.Profiles == nil {
		cf.Profiles = make(map[string]ProfileOverride)
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .propsync in the current directory
// 3. Look for config.yaml in the XDG config directory
// 4. Look for .propsync in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	xdgConfig := filepath.Join(XDGConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
