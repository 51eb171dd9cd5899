// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrConfigInvalid = errors.New("invalid configuration")
	ErrInvalidFill   = errors.New("invalid fill")
	ErrMalformedData = errors.New("malformed price data")
	ErrRunNotFound   = errors.New("run not found")
)

// ConfigError represents a fatal configuration problem detected before a
// simulation starts.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid configuration [%s]: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfigInvalid
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, reason string) *ConfigError {
	return &ConfigError{Field: field, Reason: reason}
}

// FillError represents a fill request that violates the ledger contract:
// a non-positive quantity or an unrecognized side. Cash and share
// shortfalls are not errors; the ledger clamps or drops those silently.
type FillError struct {
	Symbol string
	Side   string
	Qty    int
	Reason string
}

func (e *FillError) Error() string {
	return fmt.Sprintf("invalid fill %s %s qty=%d: %s", e.Side, e.Symbol, e.Qty, e.Reason)
}

func (e *FillError) Unwrap() error {
	return ErrInvalidFill
}

// DataError represents malformed or unusable input price data.
type DataError struct {
	Path   string
	Reason string
}

func (e *DataError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("malformed price data [%s]: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("malformed price data: %s", e.Reason)
}

func (e *DataError) Unwrap() error {
	return ErrMalformedData
}
