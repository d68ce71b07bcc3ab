package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/aringo/synacksync/internal/utils"
	"github.com/aringo/synacksync/pkg/calendar"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Binding maps an entity kind onto the calendar its records are projected to.
type Binding struct {
	Kind       EntityKind
	CalendarID string
}

// Report aggregates the per-kind results of one orchestrator run.
type Report struct {
	RunID   string
	Results []Result
}

// Writes is the total number of mutations across all kinds.
func (r Report) Writes() int {
	total := 0
	for _, result := range r.Results {
		total += result.Writes()
	}
	return total
}

// ItemErrors is the total number of non-fatal per-item failures.
func (r Report) ItemErrors() int {
	total := 0
	for _, result := range r.Results {
		total += len(result.Errors)
	}
	return total
}

// Orchestrator runs the engine once per configured kind. It holds no
// reconciliation logic itself.
type Orchestrator struct {
	source       Source
	store        Store
	cal          calendar.Calendar
	engine       *Engine
	bindings     []Binding
	clock        utils.Clock
	fetchRetries int
	retryDelay   time.Duration
}

func NewOrchestrator(source Source, store Store, cal calendar.Calendar, bindings []Binding, clock utils.Clock, fetchRetries int) *Orchestrator {
	if fetchRetries < 1 {
		fetchRetries = 1
	}
	return &Orchestrator{
		source:       source,
		store:        store,
		cal:          cal,
		engine:       NewEngine(cal, store),
		bindings:     bindings,
		clock:        clock,
		fetchRetries: fetchRetries,
		retryDelay:   2 * time.Second,
	}
}

// Run reconciles every configured kind and returns the aggregate report. It
// returns an error only for fatal conditions: a rejected upstream
// authorization aborts the whole run. All fetches happen up front, before
// the engine runs for any kind, so a fatal rejection on a later kind leaves
// every calendar and the cache untouched. Per-item failures are carried in
// the report instead.
func (o *Orchestrator) Run(ctx context.Context) (Report, error) {
	report := Report{RunID: uuid.NewString()}
	log.Infof("starting sync run %s", report.RunID)

	fetched := make([][]Record, len(o.bindings))
	fetchErrs := make([]error, len(o.bindings))
	for i, binding := range o.bindings {
		records, err := o.fetch(ctx, binding.Kind)
		if err != nil {
			if IsFatalUpstream(err) {
				return report, err
			}
			fetchErrs[i] = err
			continue
		}
		fetched[i] = records
	}

	for i, binding := range o.bindings {
		var result Result
		if fetchErrs[i] != nil {
			result = Result{Kind: binding.Kind}
			result.fail("", "fetch", fetchErrs[i])
		} else {
			result = o.runKind(ctx, binding, fetched[i])
		}
		report.Results = append(report.Results, result)
		log.Infof("%s: %d created, %d updated, %d deleted, %d skipped, %d unchanged, %d errors",
			binding.Kind, result.Created, result.Updated, result.Deleted, result.Skipped, result.Unchanged, len(result.Errors))
	}

	log.Infof("sync run %s finished: %d writes, %d item errors", report.RunID, report.Writes(), report.ItemErrors())
	return report, nil
}

func (o *Orchestrator) runKind(ctx context.Context, binding Binding, fetched []Record) Result {
	result := Result{Kind: binding.Kind}

	cached, err := o.store.List(ctx, binding.Kind)
	if err != nil {
		result.fail("", "list", &StorageError{Op: "list", Err: err})
		return result
	}

	window, err := o.cal.ListUpcoming(ctx, binding.CalendarID, o.clock.Now())
	if err != nil {
		result.fail("", "list_window", &ProjectionError{Op: "list", Err: err})
		return result
	}

	return o.engine.Reconcile(ctx, binding.Kind, binding.CalendarID, cached, fetched, window)
}

// fetch retries transient upstream failures; fatal ones are returned
// immediately.
func (o *Orchestrator) fetch(ctx context.Context, kind EntityKind) ([]Record, error) {
	var lastErr error
	for attempt := 1; attempt <= o.fetchRetries; attempt++ {
		records, err := o.source.Fetch(ctx, kind)
		if err == nil {
			return records, nil
		}
		if IsFatalUpstream(err) {
			log.Errorf("fetching %s records failed: %v", kind, err)
			return nil, err
		}
		lastErr = err
		log.Warnf("fetching %s records failed (attempt %d/%d): %v", kind, attempt, o.fetchRetries, err)
		if attempt < o.fetchRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(o.retryDelay * time.Duration(attempt)):
			}
		}
	}
	return nil, fmt.Errorf("fetching %s records failed after %d attempts: %w", kind, o.fetchRetries, lastErr)
}
