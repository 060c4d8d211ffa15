package client

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"studysync/internal/domain/sync"
)

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы данных: %w", err)
	}

	storage := &SQLiteStorage{db: db}

	if err := storage.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка инициализации таблиц: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) initTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS items (
			type TEXT NOT NULL,
			id TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			dirty INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (type, id)
		);

		CREATE INDEX IF NOT EXISTS idx_items_dirty ON items(dirty);
		CREATE INDEX IF NOT EXISTS idx_items_updated ON items(type, updated_at);

		CREATE TABLE IF NOT EXISTS sync_cursors (
			type TEXT PRIMARY KEY,
			cursor INTEGER NOT NULL
		);
	`)

	return err
}

func (s *SQLiteStorage) SaveItem(rec sync.Record, dirty bool) error {
	_, err := s.db.Exec(`
		INSERT INTO items (type, id, payload, created_at, updated_at, dirty)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (type, id) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			dirty = excluded.dirty
	`, rec.Type, rec.ID, string(rec.Payload), rec.CreatedAt, rec.UpdatedAt, dirty)
	if err != nil {
		return fmt.Errorf("ошибка сохранения записи: %w", err)
	}

	return nil
}

func (s *SQLiteStorage) GetItem(t sync.RecType, id string) (*LocalItem, error) {
	var item LocalItem
	var payload string

	err := s.db.QueryRow(`
		SELECT type, id, payload, created_at, updated_at, dirty
		FROM items
		WHERE type = ? AND id = ?
	`, t, id).Scan(&item.Type, &item.ID, &payload, &item.CreatedAt, &item.UpdatedAt, &item.Dirty)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения записи: %w", err)
	}

	item.Payload = []byte(payload)
	return &item, nil
}

func (s *SQLiteStorage) ListItems(t sync.RecType) ([]*LocalItem, error) {
	query := `
		SELECT type, id, payload, created_at, updated_at, dirty
		FROM items
	`
	args := []interface{}{}

	if t != "" {
		query += " WHERE type = ?"
		args = append(args, t)
	}

	query += " ORDER BY type, updated_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса записей: %w", err)
	}
	defer rows.Close()

	var items []*LocalItem
	for rows.Next() {
		var item LocalItem
		var payload string

		if err := rows.Scan(&item.Type, &item.ID, &payload,
			&item.CreatedAt, &item.UpdatedAt, &item.Dirty); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}

		item.Payload = []byte(payload)
		items = append(items, &item)
	}

	return items, rows.Err()
}

func (s *SQLiteStorage) DirtyItems() (map[sync.RecType][]sync.Record, error) {
	rows, err := s.db.Query(`
		SELECT type, id, payload, created_at, updated_at
		FROM items
		WHERE dirty = 1
		ORDER BY type, updated_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса измененных записей: %w", err)
	}
	defer rows.Close()

	changes := make(map[sync.RecType][]sync.Record)
	for rows.Next() {
		var rec sync.Record
		var payload string

		if err := rows.Scan(&rec.Type, &rec.ID, &payload, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}

		rec.Payload = []byte(payload)
		changes[rec.Type] = append(changes[rec.Type], rec)
	}

	return changes, rows.Err()
}

// ClearDirty снимает пометку условно: если запись успела измениться
// после захвата, пометка остается и запись уйдет в следующий пакет.
func (s *SQLiteStorage) ClearDirty(t sync.RecType, id string, updatedAt int64) error {
	_, err := s.db.Exec(`
		UPDATE items SET dirty = 0
		WHERE type = ? AND id = ? AND updated_at = ?
	`, t, id, updatedAt)
	if err != nil {
		return fmt.Errorf("ошибка снятия пометки синхронизации: %w", err)
	}

	return nil
}

func (s *SQLiteStorage) GetCursor(t sync.RecType) (int64, error) {
	var cursor int64

	err := s.db.QueryRow(`SELECT cursor FROM sync_cursors WHERE type = ?`, t).Scan(&cursor)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка получения курсора: %w", err)
	}

	return cursor, nil
}

func (s *SQLiteStorage) SetCursor(t sync.RecType, cursor int64) error {
	current, err := s.GetCursor(t)
	if err != nil {
		return err
	}
	if cursor < current {
		return sync.ErrCursorRegression
	}

	_, err = s.db.Exec(`
		INSERT INTO sync_cursors (type, cursor) VALUES (?, ?)
		ON CONFLICT (type) DO UPDATE SET cursor = excluded.cursor
	`, t, cursor)
	if err != nil {
		return fmt.Errorf("ошибка сохранения курсора: %w", err)
	}

	return nil
}

func (s *SQLiteStorage) CountItems() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчета записей: %w", err)
	}
	return count, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
