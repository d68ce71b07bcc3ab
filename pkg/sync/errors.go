package sync

import (
	"errors"
	"fmt"
)

// UpstreamError reports a failed source fetch. Transient failures may be
// retried by the orchestrator; fatal ones (expired or rejected credentials)
// abort the whole run before any mutation.
type UpstreamError struct {
	StatusCode int
	Transient  bool
	Err        error
}

func (e *UpstreamError) Error() string {
	severity := "fatal"
	if e.Transient {
		severity = "transient"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s upstream error (status %d): %v", severity, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s upstream error: %v", severity, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsFatalUpstream reports whether err is a non-transient upstream failure.
func IsFatalUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && !ue.Transient
}

// ProjectionError reports a failed calendar create, update, or delete.
type ProjectionError struct {
	Op      string
	EventID string
	Err     error
}

func (e *ProjectionError) Error() string {
	if e.EventID != "" {
		return fmt.Sprintf("projection %s failed for event %s: %v", e.Op, e.EventID, e.Err)
	}
	return fmt.Sprintf("projection %s failed: %v", e.Op, e.Err)
}

func (e *ProjectionError) Unwrap() error { return e.Err }

// StorageError reports a failed cache read or write.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
