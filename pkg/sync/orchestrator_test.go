package sync

import (
	"context"
	"testing"
	"time"

	"github.com/aringo/synacksync/internal/utils"
	"github.com/aringo/synacksync/pkg/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	records map[EntityKind][]Record
	errs    map[EntityKind][]error
	calls   map[EntityKind]int
}

func newStubSource() *stubSource {
	return &stubSource{
		records: map[EntityKind][]Record{},
		errs:    map[EntityKind][]error{},
		calls:   map[EntityKind]int{},
	}
}

func (s *stubSource) Fetch(_ context.Context, kind EntityKind) ([]Record, error) {
	attempt := s.calls[kind]
	s.calls[kind]++
	if errs := s.errs[kind]; attempt < len(errs) && errs[attempt] != nil {
		return nil, errs[attempt]
	}
	return s.records[kind], nil
}

func newTestOrchestrator(source Source, bindings []Binding) (*Orchestrator, *calendar.StubCalendar, *StubStore) {
	cal := calendar.NewStubCalendar()
	store := NewStubStore()
	clock := &utils.MockClock{FixedNow: baseTime}
	orchestrator := NewOrchestrator(source, store, cal, bindings, clock, 3)
	orchestrator.retryDelay = time.Millisecond
	return orchestrator, cal, store
}

func TestOrchestrator_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("should reconcile every configured kind and aggregate results", func(t *testing.T) {
		source := newStubSource()
		source.records[KindTask] = []Record{testRecord{id: "t1", title: "Task", start: baseTime.Add(time.Hour), dur: time.Hour}}
		source.records[KindTarget] = []Record{testRecord{id: "g1", title: "Target", start: baseTime.Add(2 * time.Hour), dur: time.Hour}}
		bindings := []Binding{
			{Kind: KindTask, CalendarID: "cal-missions"},
			{Kind: KindTarget, CalendarID: "cal-upcoming"},
		}
		orchestrator, cal, _ := newTestOrchestrator(source, bindings)

		report, err := orchestrator.Run(ctx)

		require.NoError(t, err)
		assert.NotEmpty(t, report.RunID)
		require.Len(t, report.Results, 2)
		assert.Equal(t, 2, report.Writes())
		assert.Equal(t, 0, report.ItemErrors())
		assert.Len(t, cal.Added, 2)
	})

	t.Run("should abort the run on a fatal upstream error", func(t *testing.T) {
		source := newStubSource()
		source.errs[KindTask] = []error{&UpstreamError{StatusCode: 401, Transient: false, Err: assert.AnError}}
		orchestrator, cal, store := newTestOrchestrator(source, []Binding{{Kind: KindTask, CalendarID: "cal-1"}})

		_, err := orchestrator.Run(ctx)

		require.Error(t, err)
		assert.True(t, IsFatalUpstream(err))
		assert.Equal(t, 1, source.calls[KindTask])
		assert.Empty(t, cal.Added)
		assert.Empty(t, store.Upserts)
	})

	t.Run("should not mutate anything when a later kind is fatally rejected", func(t *testing.T) {
		source := newStubSource()
		source.records[KindTask] = []Record{testRecord{id: "t1", title: "Task", start: baseTime.Add(time.Hour), dur: time.Hour}}
		source.errs[KindTarget] = []error{&UpstreamError{StatusCode: 401, Transient: false, Err: assert.AnError}}
		bindings := []Binding{
			{Kind: KindTask, CalendarID: "cal-missions"},
			{Kind: KindTarget, CalendarID: "cal-upcoming"},
		}
		orchestrator, cal, store := newTestOrchestrator(source, bindings)

		_, err := orchestrator.Run(ctx)

		require.Error(t, err)
		assert.True(t, IsFatalUpstream(err))
		assert.Equal(t, 1, source.calls[KindTask])
		assert.Empty(t, cal.Added)
		assert.Empty(t, store.Upserts)
	})

	t.Run("should retry transient upstream errors and then succeed", func(t *testing.T) {
		source := newStubSource()
		source.errs[KindTask] = []error{&UpstreamError{StatusCode: 503, Transient: true, Err: assert.AnError}, nil}
		source.records[KindTask] = []Record{testRecord{id: "t1", title: "Task", start: baseTime.Add(time.Hour), dur: time.Hour}}
		orchestrator, cal, _ := newTestOrchestrator(source, []Binding{{Kind: KindTask, CalendarID: "cal-1"}})

		report, err := orchestrator.Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, 2, source.calls[KindTask])
		assert.Equal(t, 1, report.Writes())
		assert.Len(t, cal.Added, 1)
	})

	t.Run("should report exhausted transient retries as a kind-level error without failing the run", func(t *testing.T) {
		source := newStubSource()
		transient := &UpstreamError{StatusCode: 502, Transient: true, Err: assert.AnError}
		source.errs[KindTask] = []error{transient, transient, transient}
		source.records[KindTarget] = []Record{testRecord{id: "g1", title: "Target", start: baseTime.Add(time.Hour), dur: time.Hour}}
		bindings := []Binding{
			{Kind: KindTask, CalendarID: "cal-1"},
			{Kind: KindTarget, CalendarID: "cal-2"},
		}
		orchestrator, _, _ := newTestOrchestrator(source, bindings)

		report, err := orchestrator.Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, 3, source.calls[KindTask])
		require.Len(t, report.Results, 2)
		assert.Len(t, report.Results[0].Errors, 1)
		assert.Equal(t, 1, report.Results[1].Created)
	})

	t.Run("should report a failed cache read as a kind-level error", func(t *testing.T) {
		source := newStubSource()
		source.records[KindTask] = []Record{testRecord{id: "t1", title: "Task", start: baseTime.Add(time.Hour), dur: time.Hour}}
		orchestrator, cal, store := newTestOrchestrator(source, []Binding{{Kind: KindTask, CalendarID: "cal-1"}})
		store.ListErr = assert.AnError

		report, err := orchestrator.Run(ctx)

		require.NoError(t, err)
		require.Len(t, report.Results, 1)
		require.Len(t, report.Results[0].Errors, 1)
		var storageErr *StorageError
		assert.ErrorAs(t, report.Results[0].Errors[0].Err, &storageErr)
		assert.Empty(t, cal.Added)
	})
}
