package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Workspace and sandbox errors
	ErrCodePathEscape       ErrorCode = "PATH_ESCAPE"
	ErrCodeInvalidWorkspace ErrorCode = "INVALID_WORKSPACE"

	// Proposal lifecycle errors
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeAmbiguousEdit ErrorCode = "AMBIGUOUS_EDIT"
	ErrCodeApplyFailure  ErrorCode = "APPLY_FAILURE"

	// Agent/collaborator errors
	ErrCodeTransport ErrorCode = "TRANSPORT_ERROR"

	// Configuration errors
	ErrCodeConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Command execution errors
	ErrCodeCommandTimeout  ErrorCode = "COMMAND_TIMEOUT"
	ErrCodeCommandNotFound ErrorCode = "COMMAND_NOT_FOUND"
	ErrCodeCommandFailed   ErrorCode = "COMMAND_FAILED"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// SeriemError represents a structured error with context
type SeriemError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *SeriemError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *SeriemError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *SeriemError) WithDetail(key string, value interface{}) *SeriemError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *SeriemError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new SeriemError
func New(code ErrorCode, message string) *SeriemError {
	return &SeriemError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a SeriemError
func Wrap(err error, code ErrorCode, message string) *SeriemError {
	return &SeriemError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific SeriemError code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	serr, ok := err.(*SeriemError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	return serr.Code == code
}

// AsSeriem extracts the first SeriemError in the chain
func AsSeriem(err error) (*SeriemError, bool) {
	for err != nil {
		if serr, ok := err.(*SeriemError); ok {
			return serr, true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = unwrapper.Unwrap()
	}
	return nil, false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	serr, ok := err.(*SeriemError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return serr.Code
}
