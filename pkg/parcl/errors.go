package parcl

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// TransportError is a connection, timeout or request-construction failure:
// the remote side never produced an answer.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: transport: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a non-2xx answer from the Parcl API. Body is kept verbatim;
// Message is the server's error/message field when the body is JSON,
// otherwise the body text.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: api status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

func newAPIError(method, path string, status int, statusText string, body []byte) *APIError {
	return &APIError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Status:     statusText,
		Message:    serverMessage(body),
		Body:       body,
	}
}

func serverMessage(body []byte) string {
	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
		Detail  string          `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if len(payload.Error) > 0 && string(payload.Error) != "null" {
			var s string
			if json.Unmarshal(payload.Error, &s) == nil {
				return s
			}
			return string(payload.Error)
		}
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Detail != "" {
			return payload.Detail
		}
	}
	return strings.TrimSpace(string(body))
}

// Deserialization stages.
const (
	StageResponse    = "response"
	StageTransaction = "transaction"
)

// DeserializationError reports a body or transaction blob that could not be
// decoded. Stage names the decoding step that failed.
type DeserializationError struct {
	Stage string
	Err   error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("deserialize %s: %v", e.Stage, e.Err)
}
func (e *DeserializationError) Unwrap() error { return e.Err }

// SigningError covers signer/slot mismatches and signing failures.
type SigningError struct {
	Signer string
	Reason string
	Err    error
}

func (e *SigningError) Error() string {
	msg := "sign transaction: " + e.Reason
	if e.Signer != "" {
		msg += " (" + e.Signer + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}
func (e *SigningError) Unwrap() error { return e.Err }

// SubmissionError is a failure talking to the Solana node. Rejected is set
// when the node answered with a JSON-RPC error (simulation failure, expired
// blockhash, insufficient funds); otherwise Err holds a *TransportError.
type SubmissionError struct {
	Stage    string
	Rejected bool
	Code     int
	Message  string
	Data     any
	Err      error
}

func (e *SubmissionError) Error() string {
	if e.Rejected {
		return fmt.Sprintf("%s: rejected by node (code %d): %s", e.Stage, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}
func (e *SubmissionError) Unwrap() error { return e.Err }

// IsBlockhashNotFound reports a rejection caused by an unknown or expired
// recent blockhash; the caller may fetch a new one and resubmit.
func (e *SubmissionError) IsBlockhashNotFound() bool {
	if !e.Rejected {
		return false
	}
	if strings.Contains(strings.ToLower(e.Message), "blockhash not found") {
		return true
	}
	if data, err := json.Marshal(e.Data); err == nil {
		return strings.Contains(string(data), "BlockhashNotFound")
	}
	return false
}

// IsBlockhashNotFound unwraps err looking for a blockhash-expiry rejection.
func IsBlockhashNotFound(err error) bool {
	var subErr *SubmissionError
	return errors.As(err, &subErr) && subErr.IsBlockhashNotFound()
}

// IsRejected reports whether err is a node-side rejection.
func IsRejected(err error) bool {
	var subErr *SubmissionError
	return errors.As(err, &subErr) && subErr.Rejected
}

// IsTransport reports whether err is, or wraps, a transport failure.
func IsTransport(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}
