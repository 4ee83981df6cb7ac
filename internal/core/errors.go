package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeInvalidChannel   = "invalid_channel"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeMalformedPayload = "malformed_presence_payload"
	ErrCodeAppNotFound      = "app_not_found"
)

var (
	ErrInvalidChannelName       = errors.New("invalid channel name")
	ErrUnauthorized             = errors.New("channel authorization failed")
	ErrMalformedPresencePayload = errors.New("malformed presence payload")
	ErrAppNotFound              = errors.New("app not found")
	ErrDuplicateApp             = errors.New("duplicate app key")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string `json:"code"`
	Message string `json:"msg"`
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
