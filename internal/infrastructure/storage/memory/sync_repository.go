// Package memory содержит потокобезопасную реализацию хранилища
// синхронизации в памяти. Используется в тестах движка и как бэкенд
// для локального запуска сервера без PostgreSQL.
package memory

import (
	"context"
	"sort"
	stdsync "sync"

	"studysync/internal/domain/sync"
)

type cursorKey struct {
	ownerID string
	typ     sync.RecType
}

// SyncRepository реализация sync.Repository в памяти.
//
// Merge сериализуется блокировкой по ключу записи: конкурирующие
// Upsert одного (owner, type, id) выполняются по очереди, разные ключи
// не мешают друг другу. Глобальной блокировки на merge нет — mu
// защищает только сами map.
type SyncRepository struct {
	mu      stdsync.RWMutex
	records map[sync.Key]sync.Record
	cursors map[cursorKey]int64
	locks   stdsync.Map // sync.Key -> *stdsync.Mutex
}

func NewSyncRepository() *SyncRepository {
	return &SyncRepository{
		records: make(map[sync.Key]sync.Record),
		cursors: make(map[cursorKey]int64),
	}
}

func (r *SyncRepository) keyLock(key sync.Key) *stdsync.Mutex {
	lock, _ := r.locks.LoadOrStore(key, &stdsync.Mutex{})
	return lock.(*stdsync.Mutex)
}

func (r *SyncRepository) Get(_ context.Context, ownerID string, typ sync.RecType, id string) (*sync.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[sync.Key{OwnerID: ownerID, Type: typ, ID: id}]
	if !ok {
		return nil, sync.ErrNotFound
	}
	return &rec, nil
}

func (r *SyncRepository) Upsert(_ context.Context, incoming sync.Record) error {
	if incoming.ID == "" || incoming.OwnerID == "" {
		return sync.ErrInvalidRecord
	}

	key := incoming.Key()
	lock := r.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	r.mu.RLock()
	existing, ok := r.records[key]
	r.mu.RUnlock()

	var existingPtr *sync.Record
	if ok {
		existingPtr = &existing
	}

	merged, err := sync.Merge(existingPtr, incoming)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.records[key] = merged
	r.mu.Unlock()

	return nil
}

func (r *SyncRepository) ChangedSince(_ context.Context, ownerID string, typ sync.RecType, since int64) ([]sync.Record, error) {
	r.mu.RLock()
	var records []sync.Record
	for key, rec := range r.records {
		if key.OwnerID == ownerID && key.Type == typ && rec.UpdatedAt > since {
			records = append(records, rec)
		}
	}
	r.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		if records[i].UpdatedAt != records[j].UpdatedAt {
			return records[i].UpdatedAt < records[j].UpdatedAt
		}
		return records[i].ID < records[j].ID
	})

	return records, nil
}

func (r *SyncRepository) GetCursor(_ context.Context, ownerID string, typ sync.RecType) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.cursors[cursorKey{ownerID: ownerID, typ: typ}], nil
}

func (r *SyncRepository) SetCursor(_ context.Context, ownerID string, typ sync.RecType, cursor int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := cursorKey{ownerID: ownerID, typ: typ}
	if cursor < r.cursors[key] {
		return sync.ErrCursorRegression
	}
	r.cursors[key] = cursor
	return nil
}
