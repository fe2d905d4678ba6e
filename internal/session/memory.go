package session

import (
	"context"
	"sync"
	"time"
)

// MemoryMirror はプロセス内にミラーを保持します。開発・テスト用です。
type MemoryMirror struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryMirror は MemoryMirror を作成します。
func NewMemoryMirror() *MemoryMirror {
	return &MemoryMirror{records: make(map[string]Record)}
}

func (m *MemoryMirror) Save(ctx context.Context, record *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = *record
	return nil
}

func (m *MemoryMirror) Load(ctx context.Context, id string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (m *MemoryMirror) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

// DeleteExpired は before 時点で期限切れのレコードを削除し、削除件数を返します。
func (m *MemoryMirror) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, record := range m.records {
		if record.Expired(before) {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

// Len は保持しているレコード数を返します。
func (m *MemoryMirror) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
