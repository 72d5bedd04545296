// Package apierr defines the error taxonomy shared by every HTTP-facing
// client in this module. Each error records which operation failed, the HTTP
// status it failed with (0 for pure network failures) and a human-readable
// message that prefers whatever the server supplied over the generic status
// text.
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Kind identifies the operation that produced an Error.
type Kind string

const (
	// Fetch covers listing and detail reads outside the upload flow.
	Fetch Kind = "fetch"
	// NotFound is the expected "not ready yet" signal during polling.
	NotFound Kind = "not_found"
	// Presign means the backend refused to issue an upload target.
	Presign Kind = "presign"
	// Transfer is a network-level failure during the direct byte transfer.
	Transfer Kind = "transfer"
	// TransferRejected means the storage endpoint answered non-2xx.
	TransferRejected Kind = "transfer_rejected"
	// Notify means the processing kickoff request failed.
	Notify Kind = "notify"
	// Delete means a video deletion request failed.
	Delete Kind = "delete"
)

// Error is a classified failure of one gallery API operation.
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Kind, e.Message, e.Status)
}

// New builds an Error with an explicit status and message.
func New(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message}
}

// Network classifies err as a status-0 network failure.
func Network(kind Kind, err error) *Error {
	msg := "network error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{Kind: kind, Status: 0, Message: msg}
}

// FromResponse classifies a non-2xx response. The server's own
// {"error": ..., "message": ...} body wins over the HTTP status text.
func FromResponse(kind Kind, resp *http.Response) *Error {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	msg := ""
	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	if err == nil && json.Unmarshal(data, &body) == nil {
		if body.Message != "" {
			msg = body.Message
		} else {
			msg = body.Error
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return &Error{Kind: kind, Status: resp.StatusCode, Message: msg}
}

// IsKind reports whether err (or anything it wraps) is an Error of the given
// kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// IsNotFound reports whether err is the polling "not ready" signal.
func IsNotFound(err error) bool {
	return IsKind(err, NotFound)
}
