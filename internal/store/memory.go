package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/serroba/easy-qr-codes/internal/qrcode"
)

// MemoryStore is an in-memory implementation of qrcode.Repository.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[qrcode.ID]qrcode.Record
	lastID  qrcode.ID
	now     func() time.Time
}

// NewMemoryStore creates a new in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[qrcode.ID]qrcode.Record),
		now:     time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, targetURL string) (qrcode.ID, error) {
	target, err := qrcode.ValidateTargetURL(targetURL)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastID++
	m.records[m.lastID] = qrcode.Record{
		ID:        m.lastID,
		TargetURL: target,
		Status:    qrcode.StatusPending,
		CreatedAt: m.now(),
	}

	return m.lastID, nil
}

func (m *MemoryStore) Get(_ context.Context, id qrcode.ID) (*qrcode.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[id]
	if !ok {
		return nil, notFound(id)
	}

	return &record, nil
}

func (m *MemoryStore) List(_ context.Context) ([]*qrcode.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*qrcode.Record, 0, len(m.records))
	for _, r := range m.records {
		record := r
		records = append(records, &record)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}

		return records[i].ID > records[j].ID
	})

	return records, nil
}

func (m *MemoryStore) SetImageReference(_ context.Context, id qrcode.ID, reference string) error {
	return m.update(id, func(r *qrcode.Record) {
		r.ImageReference = reference
		r.Status = qrcode.StatusRendered
	})
}

func (m *MemoryStore) SetTargetURL(_ context.Context, id qrcode.ID, targetURL string) error {
	target, err := qrcode.ValidateTargetURL(targetURL)
	if err != nil {
		return err
	}

	return m.update(id, func(r *qrcode.Record) {
		r.TargetURL = target
	})
}

func (m *MemoryStore) IncrementUsage(_ context.Context, id qrcode.ID) (uint64, error) {
	var count uint64

	err := m.update(id, func(r *qrcode.Record) {
		r.UsageCount++
		count = r.UsageCount
	})

	return count, err
}

func (m *MemoryStore) update(id qrcode.ID, apply func(*qrcode.Record)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[id]
	if !ok {
		return notFound(id)
	}

	apply(&record)
	m.records[id] = record

	return nil
}

func notFound(id qrcode.ID) error {
	return fmt.Errorf("%w: id %s", qrcode.ErrNotFound, id)
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", qrcode.ErrStorage, op, err)
}

var _ qrcode.Repository = (*MemoryStore)(nil)
