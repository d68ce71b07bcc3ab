package synack

import (
	"context"

	"github.com/aringo/synacksync/pkg/sync"
)

// StubClient is an in-memory Client for tests.
type StubClient struct {
	Records map[sync.EntityKind][]sync.Record
	Errs    map[sync.EntityKind]error
	Calls   map[sync.EntityKind]int
}

func NewStubClient() *StubClient {
	return &StubClient{
		Records: map[sync.EntityKind][]sync.Record{},
		Errs:    map[sync.EntityKind]error{},
		Calls:   map[sync.EntityKind]int{},
	}
}

func (c *StubClient) Fetch(_ context.Context, kind sync.EntityKind) ([]sync.Record, error) {
	c.Calls[kind]++
	if err := c.Errs[kind]; err != nil {
		return nil, err
	}
	return c.Records[kind], nil
}
