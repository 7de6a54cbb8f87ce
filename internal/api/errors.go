package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind classifies a failed API call from the transport layer's point of
// view. Local validation failures never reach this package; they are
// raised before any network call.
type Kind string

const (
	// KindServer: the remote responded with a non-2xx status.
	KindServer Kind = "server"
	// KindNetwork: the request was sent but no response came back.
	KindNetwork Kind = "network"
	// KindRequest: the request could not be built or the response could
	// not be read as the expected shape.
	KindRequest Kind = "request"
)

// Error is a classified API failure. Message is the human-readable string
// the UI shows as-is; none of these are fatal, every failure leaves the
// client in a state where the operation can be retried.
type Error struct {
	Kind    Kind
	Status  int // HTTP status, server errors only
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// serverError builds a server-rejection error. The server message is the
// "message" field of a JSON body when present, otherwise the raw body.
func serverError(status int, body []byte) *Error {
	var payload struct {
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		msg = payload.Message
	}
	return &Error{
		Kind:    KindServer,
		Status:  status,
		Message: fmt.Sprintf("Server responded with status %d: %s", status, msg),
	}
}

func networkError(cause error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Message: "No response received from server. Is the backend running?",
		cause:   cause,
	}
}

func requestError(cause error) *Error {
	return &Error{
		Kind:    KindRequest,
		Message: fmt.Sprintf("Request error: %v", cause),
		cause:   cause,
	}
}
