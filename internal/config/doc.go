// Package config provides configuration structures and utilities for propsync.
// It defines the database location, batch-sync sizing, admin server settings,
// the Builder and Community profiles (field names, meta keys, markers), and
// report output preferences.
//
// Values are layered in this order, later layers winning:
//  1. Built-in defaults (NewConfig, DefaultProfile)
//  2. The YAML configuration file (.propsync)
//  3. .env files and PROPSYNC_* environment variables
//  4. Command-line flags
package config
