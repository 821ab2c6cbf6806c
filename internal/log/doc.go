// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of credentials (admin password hashes, form
//     nonces, signing secrets, authorization headers)
//   - Configurable log levels with verbose mode support
//   - Text output for the CLI and text or JSON output for the admin server
//
// Even in verbose mode, sensitive values are masked so logs can be shared
// when debugging a sync run.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("tool submitted",
//	    "nonce", nonce, // logged as ***REDACTED***
//	    "kind", "builder",
//	)
//
//	slog.SetDefault(logger)
package log
