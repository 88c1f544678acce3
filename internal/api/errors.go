package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrMalformedResponse is returned when a 2xx body does not match its envelope
var ErrMalformedResponse = errors.New("malformed response")

// Error is a non-2xx response from the backend
type Error struct {
	StatusCode int
	Message    string // server-provided text, may be empty
	RequestID  string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// newError builds an *Error, pulling the message out of a JSON body of the
// form {"message": "..."} or {"error": "..."}
func newError(status int, body []byte, reqID string) *Error {
	e := &Error{StatusCode: status, RequestID: reqID}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		e.Message = strings.TrimSpace(payload.Message)
		if e.Message == "" {
			e.Message = strings.TrimSpace(payload.Error)
		}
	}
	return e
}

// MessageOf returns the server-provided message carried by err, or fallback
// when err is a transport failure or the server sent no message.
func MessageOf(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// IsStatus reports whether err is an *Error with the given status code
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
