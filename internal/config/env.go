package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvDBDir             = "PROPSYNC_DB_DIR"
	EnvBatchSize         = "PROPSYNC_BATCH_SIZE"
	EnvListenAddr        = "PROPSYNC_ADDR"
	EnvAdminUser         = "PROPSYNC_ADMIN_USER"
	EnvAdminPasswordHash = "PROPSYNC_ADMIN_PASSWORD_HASH" //nolint:gosec // variable name, not a credential
	EnvNonceSecret       = "PROPSYNC_NONCE_SECRET"        //nolint:gosec // variable name, not a credential
)

// LoadDotEnv loads the given .env files into the process environment.
// Variables already set are left alone. Missing files are ignored so a
// bare checkout works without one.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv copies PROPSYNC_* variables over the configuration.
// lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvDBDir); ok && v != "" {
		c.DBDir = v
	}
	if v, ok := lookup(EnvBatchSize); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvBatchSize, err)
		}
		c.BatchSize = n
	}
	if v, ok := lookup(EnvListenAddr); ok && v != "" {
		c.ListenAddr = v
	}
	if v, ok := lookup(EnvAdminUser); ok && v != "" {
		c.AdminUser = v
	}
	if v, ok := lookup(EnvAdminPasswordHash); ok && v != "" {
		c.AdminPasswordHash = v
	}
	if v, ok := lookup(EnvNonceSecret); ok && v != "" {
		c.NonceSecret = v
	}
	return nil
}
