package tags

import (
	"context"
	"sync"
)

type recordKey struct {
	steamID string
	kind    Kind
	appID   int64
}

type inMemoryRepository struct {
	mu      sync.RWMutex
	records map[recordKey]Record
}

// NewInMemoryRepository seeds an empty tag repository.
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{records: make(map[recordKey]Record)}
}

func (m *inMemoryRepository) Upsert(ctx context.Context, record Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[recordKey{record.SteamID, record.Kind, record.AppID}] = record
	return nil
}

func (m *inMemoryRepository) Delete(ctx context.Context, steamID string, kind Kind, appID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, recordKey{steamID, kind, appID})
	return nil
}

func (m *inMemoryRepository) Exists(ctx context.Context, steamID string, kind Kind, appID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.records[recordKey{steamID, kind, appID}]
	return ok, nil
}

func (m *inMemoryRepository) ListByKind(ctx context.Context, steamID string, kind Kind) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]Record, 0)
	for key, record := range m.records {
		if key.steamID == steamID && key.kind == kind {
			records = append(records, record)
		}
	}
	return records, nil
}
