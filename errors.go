package syfix

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Wrap wraps an error by prepending additional text.
// The text can contain formatting parameters.
func Wrap(err error, msg string, v ...interface{}) error {
	msg = fmt.Sprintf(msg, v...)
	return fmt.Errorf("%v: %w", msg, err)
}

type notFound struct {
	message string
}

// NewNotFound creates a new "not found" error.
func NewNotFound(s string, v ...interface{}) error {
	return asNotFound(fmt.Errorf(s, v...))
}

func (n notFound) Error() string {
	return n.message
}

func asNotFound(e error) error {
	return notFound{fmt.Sprintf("Not found: %v", e)}
}

// IsNotFound checks if the given error is a "not found" error.
func IsNotFound(err error) bool {
	var nf notFound
	return errors.As(err, &nf)
}

// LookupError is returned when a block ID cannot be resolved to a document
// path.
type LookupError struct {
	ID  string
	Msg string
}

func (l *LookupError) Error() string {
	if l.Msg == "" {
		return fmt.Sprintf("no document for block %q", l.ID)
	}
	return fmt.Sprintf("no document for block %q: %v", l.ID, l.Msg)
}

// IsLookup checks if the given error is a LookupError.
func IsLookup(err error) bool {
	var le *LookupError
	return errors.As(err, &le)
}

// RemoteError is returned when the note service answers with a non-zero
// status code in the response envelope.
// Msg is the message from the service, unchanged.
type RemoteError struct {
	Endpoint string
	Code     int
	Msg      string
}

func (r *RemoteError) Error() string {
	return fmt.Sprintf("%v failed with code %d: %v", r.Endpoint, r.Code, r.Msg)
}

// IsRemote checks if the given error is a RemoteError.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// TransportError is returned for failures below the response envelope:
// the request could not be sent, the HTTP status was not OK,
// the body could not be decoded or the request timed out.
type TransportError struct {
	Endpoint string
	Err      error
}

func (t *TransportError) Error() string {
	return fmt.Sprintf("request to %v failed: %v", t.Endpoint, t.Err)
}

func (t *TransportError) Unwrap() error {
	return t.Err
}

// Timeout tells if the request was aborted because its deadline expired.
func (t *TransportError) Timeout() bool {
	return errors.Is(t.Err, context.DeadlineExceeded)
}

// IsTransport checks if the given error is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

type validationError struct {
	message string
}

func (v validationError) Error() string {
	return v.message
}

// NewValidationError creates an error of from the given format string.
func NewValidationError(msg string, v ...interface{}) error {
	return validationError{fmt.Sprintf(msg, v...)}
}

// ExpectOK checks if the given http response has status "200 - OK"
// and returns an error with the given message if not.
func ExpectOK(res *http.Response, msg string) error {
	return ExpectStatus(res, http.StatusOK, msg)
}

// ExpectStatus checks if the given http response has the expected status
// and returns an error with the given message if not.
func ExpectStatus(res *http.Response, expected int, msg string) error {
	code := res.StatusCode

	if code == expected {
		return nil
	}

	if msg != "" {
		msg = msg + ": "
	}

	return &StatusError{Code: code, Msg: msg}
}

// StatusError is returned for an unexpected HTTP status.
type StatusError struct {
	Code int
	Msg  string
}

func (s *StatusError) Error() string {
	return fmt.Sprintf("%vgot HTTP status code %v", s.Msg, s.Code)
}
