package store

import (
	"errors"
	"fmt"
	"net/http"
)

// NetworkError means no response was obtained from the remote store: timeout,
// DNS failure, refused connection or a cancelled context.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RemoteError means the remote store answered with a non-success status code.
type RemoteError struct {
	Op         string
	StatusCode int
	Body       []byte
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: remote store returned status %d", e.Op, e.StatusCode)
}

// DecodeError means a success response carried a body that is not the expected shape.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: failed to decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is, or wraps, a NetworkError.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsNotFound reports whether the remote store answered 404. A network fault is never "not found".
func IsNotFound(err error) bool {
	code, ok := StatusCode(err)
	return ok && code == http.StatusNotFound
}

// StatusCode extracts the remote status code from a RemoteError.
func StatusCode(err error) (int, bool) {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.StatusCode, true
	}
	return 0, false
}
