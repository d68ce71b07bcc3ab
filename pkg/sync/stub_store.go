package sync

import "context"

// StubStore is an in-memory Store for tests. Every write is recorded so
// tests can assert on the exact mutations issued.
type StubStore struct {
	data map[EntityKind]map[string]CacheRecord

	Upserts []CacheRecord
	Deletes []string

	ListErr   error
	UpsertErr error
	DeleteErr error
}

func NewStubStore() *StubStore {
	return &StubStore{data: map[EntityKind]map[string]CacheRecord{}}
}

func (s *StubStore) List(_ context.Context, kind EntityKind) ([]CacheRecord, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	records := make([]CacheRecord, 0, len(s.data[kind]))
	for _, record := range s.data[kind] {
		records = append(records, record)
	}
	return records, nil
}

func (s *StubStore) Upsert(_ context.Context, record CacheRecord) error {
	if s.UpsertErr != nil {
		return s.UpsertErr
	}
	kind := record.Record.Kind()
	if s.data[kind] == nil {
		s.data[kind] = map[string]CacheRecord{}
	}
	s.data[kind][record.Record.ID()] = record
	s.Upserts = append(s.Upserts, record)
	return nil
}

func (s *StubStore) Delete(_ context.Context, kind EntityKind, id string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.data[kind], id)
	s.Deletes = append(s.Deletes, id)
	return nil
}

// Get returns the stored record for an id, if present.
func (s *StubStore) Get(kind EntityKind, id string) (CacheRecord, bool) {
	record, ok := s.data[kind][id]
	return record, ok
}

func (s *StubStore) Cleanup() {
	s.data = map[EntityKind]map[string]CacheRecord{}
	s.Upserts = nil
	s.Deletes = nil
	s.ListErr = nil
	s.UpsertErr = nil
	s.DeleteErr = nil
}
