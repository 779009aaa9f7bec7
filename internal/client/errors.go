package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/erazemk/omara/internal/model"
)

// Sentinels matched by RemoteError.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError is a client-side validation failure. No request is sent.
type ValidationError = model.ValidationError

// TransportError means no response was received.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError is a non-2xx response.
type RemoteError struct {
	Op     string
	Status int
	Body   []byte
}

func (e *RemoteError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("%s: %d %s: %s", e.Op, e.Status, http.StatusText(e.Status), msg)
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.Status, http.StatusText(e.Status))
}

// Message returns the server's {"error": ...} message, or the raw body
// trimmed when it isn't JSON.
func (e *RemoteError) Message() string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(e.Body, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(e.Body))
}

// Is lets callers test the status with errors.Is(err, ErrNotFound).
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	}
	return false
}
