package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"studysync/internal/domain/sync"
)

// SyncRepository хранилище записей и курсоров в PostgreSQL.
//
// Merge выражен одним условным upsert: вставка либо замещение строки,
// только если updated_at входящей записи строго больше сохраненного.
// Сравнение и запись выполняются в БД атомарно, поэтому конкурирующие
// merge одного ключа сериализуются без блокировок на стороне Go, а
// merge разных ключей не мешают друг другу.
type SyncRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewSyncRepository(pool *pgxpool.Pool, log *slog.Logger) *SyncRepository {
	return &SyncRepository{
		pool: pool,
		log:  log.With("component", "sync_repository"),
	}
}

func (r *SyncRepository) Get(ctx context.Context, ownerID string, typ sync.RecType, id string) (*sync.Record, error) {
	const query = `
		SELECT id, owner_id, type, created_at, updated_at, payload
		FROM records
		WHERE owner_id = $1 AND type = $2 AND id = $3`

	var rec sync.Record
	err := r.pool.QueryRow(ctx, query, ownerID, typ.String(), id).Scan(
		&rec.ID, &rec.OwnerID, &rec.Type, &rec.CreatedAt, &rec.UpdatedAt, &rec.Payload,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sync.ErrNotFound
		}
		return nil, classify(fmt.Errorf("get record: %w", err))
	}

	return &rec, nil
}

func (r *SyncRepository) Upsert(ctx context.Context, incoming sync.Record) error {
	if incoming.ID == "" || incoming.OwnerID == "" {
		return sync.ErrInvalidRecord
	}

	// created_at берется от более ранней версии: время создания
	// никогда не сдвигается вперед.
	const query = `
		INSERT INTO records (owner_id, type, id, created_at, updated_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_id, type, id) DO UPDATE SET
			updated_at = EXCLUDED.updated_at,
			payload    = EXCLUDED.payload,
			created_at = LEAST(records.created_at, EXCLUDED.created_at)
		WHERE records.updated_at < EXCLUDED.updated_at`

	tag, err := r.pool.Exec(ctx, query,
		incoming.OwnerID, incoming.Type.String(), incoming.ID,
		incoming.CreatedAt, incoming.UpdatedAt, incoming.Payload,
	)
	if err != nil {
		r.log.Error("failed to upsert record",
			"owner_id", incoming.OwnerID, "type", incoming.Type, "id", incoming.ID, "error", err)
		return classify(fmt.Errorf("upsert record: %w", err))
	}

	if tag.RowsAffected() == 0 {
		return sync.ErrStale
	}

	return nil
}

func (r *SyncRepository) ChangedSince(ctx context.Context, ownerID string, typ sync.RecType, since int64) ([]sync.Record, error) {
	// Порядок (updated_at, id) детерминирован и не регрессирует
	// состояние клиента, даже если тот применит ответ не до конца.
	const query = `
		SELECT id, owner_id, type, created_at, updated_at, payload
		FROM records
		WHERE owner_id = $1 AND type = $2 AND updated_at > $3
		ORDER BY updated_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, ownerID, typ.String(), since)
	if err != nil {
		r.log.Error("failed to query changed records",
			"owner_id", ownerID, "type", typ, "error", err)
		return nil, classify(fmt.Errorf("changed since: %w", err))
	}
	defer rows.Close()

	var records []sync.Record
	for rows.Next() {
		var rec sync.Record
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.Type,
			&rec.CreatedAt, &rec.UpdatedAt, &rec.Payload); err != nil {
			return nil, classify(fmt.Errorf("scan record: %w", err))
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("changed since rows: %w", err))
	}

	return records, nil
}

func (r *SyncRepository) GetCursor(ctx context.Context, ownerID string, typ sync.RecType) (int64, error) {
	const query = `
		SELECT cursor FROM sync_cursors
		WHERE owner_id = $1 AND type = $2`

	var cursor int64
	err := r.pool.QueryRow(ctx, query, ownerID, typ.String()).Scan(&cursor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, classify(fmt.Errorf("get cursor: %w", err))
	}

	return cursor, nil
}

func (r *SyncRepository) SetCursor(ctx context.Context, ownerID string, typ sync.RecType, cursor int64) error {
	const query = `
		INSERT INTO sync_cursors (owner_id, type, cursor)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, type) DO UPDATE SET
			cursor = EXCLUDED.cursor
		WHERE sync_cursors.cursor <= EXCLUDED.cursor`

	tag, err := r.pool.Exec(ctx, query, ownerID, typ.String(), cursor)
	if err != nil {
		return classify(fmt.Errorf("set cursor: %w", err))
	}

	if tag.RowsAffected() == 0 {
		return sync.ErrCursorRegression
	}

	return nil
}

// classify помечает временные сбои БД как ErrStorageUnavailable,
// чтобы сервис повторил под-пакет с backoff, не трогая остальные типы.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", sync.ErrStorageUnavailable, err)
	case pgconn.Timeout(err):
		return fmt.Errorf("%w: %v", sync.ErrStorageUnavailable, err)
	case errors.As(err, &pgErr) && pgErr.Code[:2] == "08": // connection exception
		return fmt.Errorf("%w: %v", sync.ErrStorageUnavailable, err)
	}

	return err
}
