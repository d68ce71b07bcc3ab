package sync

import (
	"context"
	"time"
)

// EntityKind identifies one category of synchronized record. The
// reconciliation algorithm is kind-agnostic; the kind selects the cache
// partition and the calendar the records are projected onto.
type EntityKind string

const (
	KindTask              EntityKind = "task"
	KindTarget            EntityKind = "target"
	KindPatchVerification EntityKind = "patch_verification"
)

// EventDraft holds the rendered display fields of a record, ready to be
// turned into a calendar event. Free-text fields are already sanitized.
type EventDraft struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// Equal compares rendered fields only, so cosmetic source changes that do
// not affect the projection do not count as changes.
func (d EventDraft) Equal(other EventDraft) bool {
	return d.Summary == other.Summary &&
		d.Description == other.Description &&
		d.Start.Equal(other.Start) &&
		d.End.Equal(other.End)
}

// Record is one entity as reported by the upstream platform.
type Record interface {
	ID() string
	Kind() EntityKind
	// Render produces the event draft for this record. It must be pure:
	// the same record always renders to the same draft.
	Render() EventDraft
}

// CacheRecord is the last-synchronized state of a Record, together with the
// id of the calendar event currently projecting it (empty if none).
type CacheRecord struct {
	Record  Record
	EventID string
}

// Store persists cache records, partitioned by kind and keyed by record id.
// Upsert is a full replace; there are no partial updates.
type Store interface {
	List(ctx context.Context, kind EntityKind) ([]CacheRecord, error)
	Upsert(ctx context.Context, record CacheRecord) error
	Delete(ctx context.Context, kind EntityKind, id string) error
}

// Source fetches the current set of source-of-truth records for one kind.
type Source interface {
	Fetch(ctx context.Context, kind EntityKind) ([]Record, error)
}
