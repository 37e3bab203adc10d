package domain

import "fmt"

// StatusError carries a non-2xx HTTP status from the remote store. The
// status code is the only structured signal on error responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote returned status %d", e.Code)
}

// ClientRejected reports whether the remote rejected the request as a
// caller error (4xx). Retrying cannot help.
func (e *StatusError) ClientRejected() bool {
	return e.Code >= 400 && e.Code < 500
}

// MalformedResponseError means the transport succeeded but the response
// violated the contract (missing status or note id). Fatal, not retried.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed remote response: %s", e.Reason)
}

// RetriesExhaustedError wraps the last failure after the retry budget
// ran out.
type RetriesExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Last
}
