package tricount

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned when an authenticated call is made on a
// session that has not completed Authenticate.
var ErrNotAuthenticated = errors.New("tricount: session is not authenticated")

// ErrResponseTooLarge is wrapped when a response body exceeds the client's
// size limit.
var ErrResponseTooLarge = errors.New("response body too large")

// AuthenticationError reports a failed installation registration: a
// transport failure, a non-2xx status, or a response missing the session
// token or user identity.
type AuthenticationError struct {
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	Reason     string
	Err        error
}

func (e *AuthenticationError) Error() string {
	msg := "tricount: authentication failed"
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (%d)", e.StatusCode)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// FetchError reports a failed registry read.
type FetchError struct {
	LedgerKey string
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	// Body is the response body of a non-2xx response.
	Body string
	Err  error
}

func (e *FetchError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("tricount: fetching registry %q: %v", e.LedgerKey, e.Err)
	}
	return fmt.Sprintf("tricount: fetching registry %q: unexpected status %d: %s", e.LedgerKey, e.StatusCode, e.Body)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsStatus reports whether err is a FetchError or AuthenticationError
// carrying the given HTTP status code.
func IsStatus(err error, status int) bool {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.StatusCode == status
	}
	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return authErr.StatusCode == status
	}
	return false
}
