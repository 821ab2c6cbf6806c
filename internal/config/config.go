package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/wtsks/propsync/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "propsync"

	// DefaultBatchSize is the number of listings one sync run evaluates.
	// Ten keeps a run well inside a single admin request.
	DefaultBatchSize = 10

	// DefaultListenAddr is the admin HTTP server address.
	DefaultListenAddr = ":8080"

	// DefaultAdminUser is the basic-auth user name for the admin surface.
	DefaultAdminUser = "admin"

	// DefaultNonceTTL is how long a tool-page form nonce stays valid.
	DefaultNonceTTL = 12 * time.Hour

	// DefaultLabelCacheTTL bounds how stale a cached label map can get.
	// Entity writes through the server invalidate the cache immediately;
	// the TTL only matters for writes made by other processes.
	DefaultLabelCacheTTL = time.Hour

	// DefaultShutdownTimeout is how long the server waits for in-flight
	// requests on shutdown.
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultFieldPrefix is prepended to editor field names when listing
	// fields are stored as meta keys ("builder" -> "es_property_builder").
	DefaultFieldPrefix = "es_property_"

	// DefaultDisplayTemplate is the only template display filters touch.
	DefaultDisplayTemplate = "single-properties"
)

// Config holds all configuration options for propsync.
// It is populated from defaults, the config file, the environment and CLI
// flags, and passed through the application rather than kept as global state.
type Config struct {
	// DBDir is the directory holding the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/propsync on Linux).
	DBDir string

	// BatchSize is the number of listings evaluated per sync run.
	BatchSize int

	// Verbose enables debug logging.
	Verbose bool

	// JSONReport selects JSON output for sync results. Mutually exclusive
	// with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output for sync results.
	MarkdownReport bool

	// ReportFile redirects report output to a file instead of stdout.
	ReportFile string

	// ConfigFilePath is the explicit configuration file path, if any.
	ConfigFilePath string

	// Settings is the parsed configuration file. Never nil after NewConfig.
	Settings *File

	// ListenAddr is the admin HTTP server address.
	ListenAddr string

	// AdminUser and AdminPasswordHash guard the admin surface with basic
	// auth. The hash is a bcrypt hash as printed by 'propsync hash-password'.
	AdminUser         string
	AdminPasswordHash string

	// NonceSecret signs tool-page form nonces.
	NonceSecret string

	// NonceTTL is the lifetime of a form nonce.
	NonceTTL time.Duration

	// LabelCacheTTL is how long the server reuses a label map. Zero
	// rebuilds the map on every request.
	LabelCacheTTL time.Duration

	// ShutdownTimeout bounds graceful server shutdown.
	ShutdownTimeout time.Duration

	// FieldPrefix maps editor field names to stored meta keys.
	FieldPrefix string

	// DisplayTemplate is the template name display filters apply to.
	DisplayTemplate string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		DBDir:           XDGDataDir(),
		BatchSize:       DefaultBatchSize,
		Settings:        &File{Profiles: make(map[string]ProfileOverride)},
		ListenAddr:      DefaultListenAddr,
		AdminUser:       DefaultAdminUser,
		NonceTTL:        DefaultNonceTTL,
		LabelCacheTTL:   DefaultLabelCacheTTL,
		ShutdownTimeout: DefaultShutdownTimeout,
		FieldPrefix:     DefaultFieldPrefix,
		DisplayTemplate: DefaultDisplayTemplate,
	}
}

// XDGDataDir returns the XDG data directory for propsync.
// On Linux: ~/.local/share/propsync
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for propsync.
// On Linux: ~/.config/propsync
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ApplyFile copies every value set in f over the current configuration and
// keeps f as Settings for profile and shortcode lookups.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	c.Settings = f

	if f.Database.Dir != "" {
		c.DBDir = f.Database.Dir
	}
	if f.Sync.BatchSize != 0 {
		c.BatchSize = f.Sync.BatchSize
	}
	if f.Server.Addr != "" {
		c.ListenAddr = f.Server.Addr
	}
	if f.Server.AdminUser != "" {
		c.AdminUser = f.Server.AdminUser
	}
	if f.Server.AdminPasswordHash != "" {
		c.AdminPasswordHash = f.Server.AdminPasswordHash
	}
	if f.Server.NonceSecret != "" {
		c.NonceSecret = f.Server.NonceSecret
	}
	if f.Server.NonceTTL != 0 {
		c.NonceTTL = f.Server.NonceTTL
	}
	if f.Server.LabelCacheTTL != nil {
		c.LabelCacheTTL = *f.Server.LabelCacheTTL
	}
	if f.Listing.FieldPrefix != nil {
		c.FieldPrefix = *f.Listing.FieldPrefix
	}
	if f.Display.Template != "" {
		c.DisplayTemplate = f.Display.Template
	}
}

// Profile returns the effective profile for kind: the built-in defaults
// with any configuration-file overrides applied.
func (c *Config) Profile(kind model.Kind) Profile {
	p := DefaultProfile(kind)
	if c.Settings == nil {
		return p
	}
	if o, ok := c.Settings.Profiles[kind.String()]; ok {
		p = p.Merge(o)
	}
	return p
}

// Shortcodes returns the effective shortcode settings.
func (c *Config) Shortcodes() ShortcodeSettings {
	s := DefaultShortcodeSettings()
	if c.Settings == nil {
		return s
	}
	if c.Settings.Shortcodes.Delegate != "" {
		s.Delegate = c.Settings.Shortcodes.Delegate
	}
	if len(c.Settings.Shortcodes.Attributes) > 0 {
		s.Attributes = c.Settings.Shortcodes.Attributes
	}
	return s
}

// Validate checks the options every command relies on and returns the
// first problem found.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.LabelCacheTTL < 0 {
		return ErrInvalidCacheTTL
	}
	for _, kind := range model.Kinds() {
		if err := c.Profile(kind).Validate(); err != nil {
			return fmt.Errorf("%s profile: %w", kind, err)
		}
	}
	return nil
}

// ValidateServe checks Validate plus the options the admin server needs.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ListenAddr == "" {
		return ErrMissingListenAddr
	}
	if c.NonceSecret == "" {
		return ErrMissingNonceSecret
	}
	if c.NonceTTL <= 0 {
		return ErrInvalidNonceTTL
	}
	if c.AdminPasswordHash == "" {
		return ErrMissingAdminPassword
	}
	return nil
}
