package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and Config.ValidateServe()
// and allow callers to use errors.Is() for programmatic handling.
var (
	// ErrInvalidBatchSize is returned when the batch size is not positive.
	// A batch size of zero would mean a sync run never processes anything.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidCacheTTL is returned when the label cache TTL is negative.
	// Use 0 to build label maps fresh on every request.
	ErrInvalidCacheTTL = errors.New("invalid label cache ttl: must be non-negative")

	// ErrInvalidNonceTTL is returned when the admin form nonce lifetime is not positive.
	ErrInvalidNonceTTL = errors.New("invalid nonce ttl: must be positive")

	// ErrMissingNonceSecret is returned when the server has no key to sign form nonces with.
	ErrMissingNonceSecret = errors.New("missing nonce secret: set server.nonceSecret or PROPSYNC_NONCE_SECRET")

	// ErrMissingAdminPassword is returned when the server has no admin password hash.
	ErrMissingAdminPassword = errors.New("missing admin password hash: run 'propsync hash-password' and set PROPSYNC_ADMIN_PASSWORD_HASH")

	// ErrMissingListenAddr is returned when the server has no address to listen on.
	ErrMissingListenAddr = errors.New("missing listen address")

	// ErrInvalidProfile is returned when a profile lacks a field it cannot work without.
	ErrInvalidProfile = errors.New("invalid profile")
)
