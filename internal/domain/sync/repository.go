package sync

import "context"

// Repository хранилище записей и курсоров на стороне сервера.
//
// Upsert обязан быть атомарным по ключу записи: конкурирующие merge
// для одного (owner, type, id) сериализуются (CAS по updated_at или
// блокировка по ключу), merge разных ключей независимы.
type Repository interface {
	// Get возвращает сохраненную запись или ErrNotFound.
	Get(ctx context.Context, ownerID string, typ RecType, id string) (*Record, error)

	// Upsert применяет входящую запись по правилам Merge:
	// nil — принята, ErrStale/ErrForbidden — отклонена,
	// ErrStorageUnavailable — временный сбой, можно повторить.
	Upsert(ctx context.Context, incoming Record) error

	// ChangedSince возвращает записи владельца с updated_at строго
	// больше since, упорядоченные по (updated_at, id). Только чтение.
	ChangedSince(ctx context.Context, ownerID string, typ RecType, since int64) ([]Record, error)

	// GetCursor возвращает последний подтвержденный курсор пары
	// (владелец, тип); 0, если курсор еще не выставлялся.
	GetCursor(ctx context.Context, ownerID string, typ RecType) (int64, error)

	// SetCursor выставляет курсор; ErrCursorRegression, если новое
	// значение меньше сохраненного.
	SetCursor(ctx context.Context, ownerID string, typ RecType, cursor int64) error
}
