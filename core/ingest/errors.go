package ingest

import "fmt"

// ErrorKind is a machine-readable classification of an ingestion failure.
type ErrorKind string

const (
	KindMissingFile       ErrorKind = "missing_file"
	KindMissingFields     ErrorKind = "missing_fields"
	KindUnsupportedMedia  ErrorKind = "unsupported_media_type"
	KindPayloadTooLarge   ErrorKind = "payload_too_large"
	KindStorageFailed     ErrorKind = "storage_failed"
	KindPersistenceFailed ErrorKind = "persistence_failed"
)

// Error is a structured ingestion failure: a kind for the caller to map to
// a status code and a message safe to show to clients. The underlying
// cause, if any, is wrapped and meant for operator logs only.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}
