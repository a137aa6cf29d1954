package worker

import (
	"context"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// MockClickHouseConn implements driver.Conn for testing
type MockClickHouseConn struct {
	driver.Conn

	mu      sync.Mutex
	Batches []*MockBatch
	PrepErr error
}

func (m *MockClickHouseConn) PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PrepErr != nil {
		return nil, m.PrepErr
	}
	b := &MockBatch{}
	m.Batches = append(m.Batches, b)
	return b, nil
}

// AppendedRows counts rows appended across all batches.
func (m *MockClickHouseConn) AppendedRows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int
	for _, b := range m.Batches {
		n += len(b.Appended)
	}
	return n
}

// SentBatches counts batches that were sent.
func (m *MockClickHouseConn) SentBatches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int
	for _, b := range m.Batches {
		if b.Sent {
			n++
		}
	}
	return n
}

type MockBatch struct {
	mu       sync.Mutex
	Appended [][]interface{}
	Sent     bool
	SendErr  error
}

func (m *MockBatch) IsSent() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Sent
}

func (m *MockBatch) Rows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Appended)
}

func (m *MockBatch) Append(v ...interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Appended = append(m.Appended, v)
	return nil
}

func (m *MockBatch) AppendStruct(v interface{}) error {
	return nil
}

func (m *MockBatch) Column(int) driver.BatchColumn {
	return nil
}

func (m *MockBatch) Send() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Sent = true
	return nil
}

func (m *MockBatch) Flush() error {
	return nil
}

func (m *MockBatch) Abort() error {
	return nil
}
