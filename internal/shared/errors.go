package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Session errors
	ErrAuthenticationFailure = fmt.Errorf("authentication failed")
	ErrSessionExpired        = fmt.Errorf("session expired")
	ErrNotAuthenticated      = fmt.Errorf("not authenticated")

	// Credential storage errors
	ErrCredentialNotFound = fmt.Errorf("credential not found")
	ErrCredentialStore    = fmt.Errorf("credential store failure")

	// Streaming and command errors
	ErrTransportUnavailable = fmt.Errorf("transport unavailable")
	ErrCommandFailure       = fmt.Errorf("command failed")
	ErrAPIRequest           = fmt.Errorf("API request failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// GenericFailureMessage is shown when the server gave no message of its own.
const GenericFailureMessage = "request failed"

// ServerMessenger is implemented by errors that carry a human readable message from the server.
type ServerMessenger interface {
	ServerMessage() string
}

// UserMessage returns the server-provided message carried anywhere in err's chain,
// falling back to [GenericFailureMessage].
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var sm ServerMessenger
	if errors.As(err, &sm) {
		if msg := sm.ServerMessage(); msg != "" {
			return msg
		}
	}
	return GenericFailureMessage
}
