package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/aringo/synacksync/pkg/calendar"
	log "github.com/sirupsen/logrus"
)

// Engine computes the three-way diff between the cached snapshot, a fresh
// source fetch, and the currently visible calendar window, and drives the
// projection adapter and record store to converge them.
type Engine struct {
	cal   calendar.Calendar
	store Store
}

func NewEngine(cal calendar.Calendar, store Store) *Engine {
	return &Engine{cal: cal, store: store}
}

// ItemError is a non-fatal failure recorded against a single record id.
type ItemError struct {
	ID  string
	Op  string
	Err error
}

// Result reports what one reconciliation pass did for one kind.
type Result struct {
	Kind      EntityKind
	Created   int
	Updated   int
	Deleted   int
	Skipped   int
	Unchanged int
	Errors    []ItemError
}

func (r *Result) fail(id, op string, err error) {
	log.Errorf("%s %s: %s failed: %v", r.Kind, id, op, err)
	r.Errors = append(r.Errors, ItemError{ID: id, Op: op, Err: err})
}

// Writes is the total number of mutations the pass performed.
func (r *Result) Writes() int {
	return r.Created + r.Updated + r.Deleted
}

// dedupKey identifies an event by its rendered summary and start time. Two
// distinct records that render identically within the window collapse onto
// one key.
func dedupKey(summary string, start time.Time) string {
	return fmt.Sprintf("%s|%d", summary, start.Unix())
}

// Reconcile converges the calendar projection and the cache with the fetched
// records. Item-level failures are recorded in the result and do not stop
// processing of sibling records. Each record is handled as an atomic unit
// (render, project, persist, in that order); cancellation between records
// stops the pass without half-applied cache writes.
func (e *Engine) Reconcile(ctx context.Context, kind EntityKind, calendarID string, cached []CacheRecord, fetched []Record, window []calendar.Event) Result {
	result := Result{Kind: kind}

	cachedByID := make(map[string]CacheRecord, len(cached))
	cachedOrder := make([]string, 0, len(cached))
	for _, rec := range cached {
		id := rec.Record.ID()
		if _, ok := cachedByID[id]; !ok {
			cachedOrder = append(cachedOrder, id)
		}
		cachedByID[id] = rec
	}

	// A duplicate id within one fetch is not expected; when it happens the
	// later occurrence wins.
	fetchedByID := make(map[string]Record, len(fetched))
	fetchedOrder := make([]string, 0, len(fetched))
	for _, rec := range fetched {
		id := rec.ID()
		if _, ok := fetchedByID[id]; !ok {
			fetchedOrder = append(fetchedOrder, id)
		}
		fetchedByID[id] = rec
	}

	// Idempotency guard: anything already visible with the same summary and
	// start needs no further writes, even if the cache lost track of it.
	visible := make(map[string]struct{}, len(window))
	for _, event := range window {
		visible[dedupKey(event.Summary, event.StartTime)] = struct{}{}
	}

	for _, id := range fetchedOrder {
		if err := ctx.Err(); err != nil {
			log.Warnf("reconcile of %s canceled: %v", kind, err)
			return result
		}
		rec := fetchedByID[id]
		draft := rec.Render()

		if _, ok := visible[dedupKey(draft.Summary, draft.Start)]; ok {
			log.Debugf("%s %s: %q already on the calendar with the same start, skipping", kind, id, draft.Summary)
			result.Skipped++
			continue
		}

		cachedRec, known := cachedByID[id]
		if !known {
			e.create(ctx, calendarID, rec, draft, &result)
			continue
		}
		if cachedRec.Record.Render().Equal(draft) {
			result.Unchanged++
			continue
		}
		if cachedRec.EventID == "" {
			// A previous run projected this record but never recorded the
			// event id; create a fresh event instead of updating nothing.
			e.create(ctx, calendarID, rec, draft, &result)
			continue
		}
		if err := e.cal.ModifyEvent(ctx, calendarID, cachedRec.EventID, draftEvent(draft)); err != nil {
			result.fail(id, "update", &ProjectionError{Op: "update", EventID: cachedRec.EventID, Err: err})
			continue
		}
		if err := e.store.Upsert(ctx, CacheRecord{Record: rec, EventID: cachedRec.EventID}); err != nil {
			result.fail(id, "upsert", &StorageError{Op: "upsert", Err: err})
			continue
		}
		result.Updated++
	}

	// Anything cached but gone upstream loses its projection and its cache
	// row. A failed calendar delete never blocks the cache delete; a
	// dangling event is preferable to a permanently stuck cache entry.
	for _, id := range cachedOrder {
		if _, stillPresent := fetchedByID[id]; stillPresent {
			continue
		}
		if err := ctx.Err(); err != nil {
			log.Warnf("reconcile of %s canceled: %v", kind, err)
			return result
		}
		cachedRec := cachedByID[id]
		if cachedRec.EventID != "" {
			if err := e.cal.DeleteEvent(ctx, calendarID, cachedRec.EventID); err != nil {
				result.fail(id, "delete_event", &ProjectionError{Op: "delete", EventID: cachedRec.EventID, Err: err})
			}
		}
		if err := e.store.Delete(ctx, kind, id); err != nil {
			result.fail(id, "delete", &StorageError{Op: "delete", Err: err})
			continue
		}
		result.Deleted++
	}

	return result
}

func (e *Engine) create(ctx context.Context, calendarID string, rec Record, draft EventDraft, result *Result) {
	id := rec.ID()
	eventID, err := e.cal.AddEvent(ctx, calendarID, draftEvent(draft))
	if err != nil {
		result.fail(id, "create", &ProjectionError{Op: "create", Err: err})
		return
	}
	if err := e.store.Upsert(ctx, CacheRecord{Record: rec, EventID: eventID}); err != nil {
		result.fail(id, "upsert", &StorageError{Op: "upsert", Err: err})
		return
	}
	result.Created++
}

func draftEvent(draft EventDraft) calendar.Event {
	return calendar.Event{
		Summary:     draft.Summary,
		Description: draft.Description,
		StartTime:   draft.Start,
		EndTime:     draft.End,
	}
}
