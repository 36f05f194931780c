package domain

import (
	"errors"
	"fmt"
)

// ConfigError reports invalid configuration or input that a caller can correct
type ConfigError struct {
	// Field is the configuration key or input the error concerns
	Field string

	// Message describes the problem
	Message string

	// Err is the underlying cause, if any
	Err error
}

// NewConfigError creates a configuration error
func NewConfigError(field, message string, err error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Err: err}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("invalid configuration: %s: %v", msg, e.Err)
	}
	return "invalid configuration: " + msg
}

// Unwrap returns the underlying cause
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is or wraps a *ConfigError
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// StorageError wraps a backend failure with the operation and module it concerned
type StorageError struct {
	// Op is the storage operation that failed
	Op string

	// ID is the module the operation concerned, empty for whole-store operations
	ID string

	// Err is the backend error
	Err error
}

// NewStorageError creates a storage error
func NewStorageError(op string, id ModuleID, err error) *StorageError {
	return &StorageError{Op: op, ID: id.String(), Err: err}
}

// Error implements the error interface
func (e *StorageError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s failed for %s: %v", e.Op, e.ID, e.Err)
}

// Unwrap returns the backend error
func (e *StorageError) Unwrap() error {
	return e.Err
}
