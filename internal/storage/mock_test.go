package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type MockDriver struct {
	QueryExecuted string
	QueryParams   map[string]interface{}
	MockResult    neo4j.EagerResult
	Err           error
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	m.QueryExecuted = query
	m.QueryParams = params
	if m.Err != nil {
		return neo4j.EagerResult{}, m.Err
	}
	return m.MockResult, nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error {
	return nil
}

func (m *MockDriver) Close(ctx context.Context) error {
	return nil
}

// MockSeqDriver emulates the seq counter with a read-then-write gap, so
// overlapping appends would hand out the same seq.
type MockSeqDriver struct {
	MockDriver

	mu          sync.Mutex
	next        int64
	inFlight    int32
	MaxInFlight int32
	Seqs        map[string]int64
}

func (m *MockSeqDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	n := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)

	m.mu.Lock()
	if n > m.MaxInFlight {
		m.MaxInFlight = n
	}
	seq := m.next
	m.mu.Unlock()

	time.Sleep(2 * time.Millisecond)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.next = seq + 1
	if m.Seqs == nil {
		m.Seqs = make(map[string]int64)
	}
	m.Seqs[params["id"].(string)] = seq
	return neo4j.EagerResult{}, nil
}
