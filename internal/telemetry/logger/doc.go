// Package logger provides structured logging for the registry.
//
// It wraps log/slog with JSON output, a globally adjustable level,
// and automatic redaction of API-key secrets and other credential
// shaped attributes.
package logger
