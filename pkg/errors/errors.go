package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from external service
	ErrorTypeExternal ErrorType = "EXTERNAL"

	// ErrorTypeTransport indicates the branch dataset could not be fetched or decoded
	ErrorTypeTransport ErrorType = "TRANSPORT"

	// ErrorTypeContent indicates the dataset arrived but held no usable records
	ErrorTypeContent ErrorType = "CONTENT"

	// ErrorTypeLocationPermission indicates the user refused to share a position
	ErrorTypeLocationPermission ErrorType = "LOCATION_PERMISSION"

	// ErrorTypeLocationUnavailable indicates no position could be determined
	ErrorTypeLocationUnavailable ErrorType = "LOCATION_UNAVAILABLE"

	// ErrorTypeLocationTimeout indicates the position request ran out of time
	ErrorTypeLocationTimeout ErrorType = "LOCATION_TIMEOUT"

	// ErrorTypeLocationCapability indicates no geolocation capability is configured
	ErrorTypeLocationCapability ErrorType = "LOCATION_CAPABILITY"

	// ErrorTypeStorageWrite indicates a durable cache write failed
	ErrorTypeStorageWrite ErrorType = "STORAGE_WRITE"
)

// Message keys shared with the i18n catalogs.
const (
	MessageDataError           = "dataError"
	MessageNoCoordinates       = "noCoordinates"
	MessageLocationDenied      = "locationDenied"
	MessageLocationUnavailable = "locationUnavailable"
	MessageLocationTimeout     = "locationTimeout"
	MessageLocationError       = "locationError"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// NewTransportError reports a failed dataset fetch. The message is always the
// generic dataError key; the cause is kept for logs.
func NewTransportError(err error) *AppError {
	return &AppError{
		Type:    ErrorTypeTransport,
		Message: MessageDataError,
		Err:     err,
	}
}

// NewContentError reports a dataset with zero valid records.
func NewContentError() *AppError {
	return &AppError{
		Type:    ErrorTypeContent,
		Message: MessageNoCoordinates,
	}
}

// NewLocationError builds one of the four location error kinds. Any other
// type falls back to the generic locationError message.
func NewLocationError(errType ErrorType, err error) *AppError {
	message := MessageLocationError
	switch errType {
	case ErrorTypeLocationPermission:
		message = MessageLocationDenied
	case ErrorTypeLocationUnavailable, ErrorTypeLocationCapability:
		message = MessageLocationUnavailable
	case ErrorTypeLocationTimeout:
		message = MessageLocationTimeout
	}
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// NewStorageWriteError wraps a durable cache write failure.
func NewStorageWriteError(key string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeStorageWrite,
		Message: "could not persist " + key,
		Err:     err,
	}
}

// IsType reports whether err (or anything it wraps) is an AppError of type t.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// IsLocationError reports whether err is one of the location error kinds.
func IsLocationError(err error) bool {
	return IsType(err, ErrorTypeLocationPermission) ||
		IsType(err, ErrorTypeLocationUnavailable) ||
		IsType(err, ErrorTypeLocationTimeout) ||
		IsType(err, ErrorTypeLocationCapability)
}

// MessageKey returns the i18n key carried by err, or fallback when err is not
// an AppError.
func MessageKey(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
