// Package ingestion drives the discovery pipeline: listing pages are
// classified, deduplicated, fetched, and upserted into a store.
package ingestion

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSource is returned when a coordinator is built without a listing source
	ErrNoSource = errors.New("no listing source configured")
	// ErrNoStore is returned when a coordinator is built without a store
	ErrNoStore = errors.New("no store configured")
)

// ConfigurationError is fatal: the run is aborted before any item is processed.
type ConfigurationError struct {
	Component string
	Cause     error
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error in %s: %v", e.Component, e.Cause)
	}
	return fmt.Sprintf("configuration error in %s", e.Component)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
