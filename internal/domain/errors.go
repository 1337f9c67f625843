package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBase64 signals that the template is not valid base64 text.
	ErrInvalidBase64 = errors.New("invalid base64 encoded template")
	// ErrTemplateTooLarge signals that the decoded template exceeds the configured limit.
	ErrTemplateTooLarge = errors.New("template exceeds allowed size")
	// ErrInvalidAPIKey signals that the provided API key is not known.
	ErrInvalidAPIKey = errors.New("invalid api key")
	// ErrTokenStoreNotReady signals that the token store has not been loaded yet.
	ErrTokenStoreNotReady = errors.New("token store not ready")
)

// InputError describes a request that failed validation. Its message is
// returned to the caller as is.
type InputError struct {
	Message string
	Key     string
}

func (e *InputError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// MissingParams is returned when template or data is absent.
func MissingParams() *InputError {
	return &InputError{Message: "Missing required parameters: template and data"}
}

// DataNotObject is returned when data is not a JSON object.
func DataNotObject() *InputError {
	return &InputError{Message: "Data must be an object"}
}

// NonStringValue is returned when a data value is not a string.
func NonStringValue(key string) *InputError {
	return &InputError{
		Message: fmt.Sprintf("Data value for key '%s' must be a string", key),
		Key:     key,
	}
}

// InvalidBase64 is returned when the template cannot be decoded.
func InvalidBase64() *InputError {
	return &InputError{Message: "Invalid base64 encoded template"}
}
