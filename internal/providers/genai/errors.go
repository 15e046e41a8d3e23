package genai

import (
	"fmt"

	"passportsheet/internal/domain"
)

// ErrMissingCredential is returned before any request is made when no API
// key is available.
var ErrMissingCredential = fmt.Errorf("%w: gemini api key is required", domain.ErrPrecondition)

// InvalidCredentialError reports that Gemini rejected the API key. Callers
// should ask for a new key instead of resubmitting.
type InvalidCredentialError struct {
	StatusCode int
	Message    string
}

func (e *InvalidCredentialError) Error() string {
	return fmt.Sprintf("gemini rejected api key (status %d): %s", e.StatusCode, e.Message)
}

func (e *InvalidCredentialError) Unwrap() error { return domain.ErrInvalidCredential }

// RemoteServiceError wraps any other failure of the Gemini call. Message is
// safe to show to the user.
type RemoteServiceError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("gemini api error (status %d): %s", e.StatusCode, e.Message)
	}
	return "gemini api error: " + e.Message
}

func (e *RemoteServiceError) Unwrap() []error {
	if e.Err != nil {
		return []error{domain.ErrRemoteService, e.Err}
	}
	return []error{domain.ErrRemoteService}
}
