package client

import (
	"studysync/internal/domain/sync"
)

// ProfileLocalID фиксированный локальный идентификатор профиля:
// на устройстве профиль всегда один.
const ProfileLocalID = "profile"

// LocalItem запись локального хранилища. Dirty означает, что запись
// изменена на устройстве и еще не подтверждена сервером.
type LocalItem struct {
	sync.Record
	Dirty bool `json:"dirty"`
}

// Storage локальное хранилище клиента
type Storage interface {
	// SaveItem сохраняет запись. dirty=true помечает ее для отправки.
	SaveItem(rec sync.Record, dirty bool) error
	// GetItem возвращает запись или nil, если ее нет
	GetItem(t sync.RecType, id string) (*LocalItem, error)
	// ListItems возвращает записи типа t, либо все при t == ""
	ListItems(t sync.RecType) ([]*LocalItem, error)
	// DirtyItems возвращает несинхронизированные записи по типам
	DirtyItems() (map[sync.RecType][]sync.Record, error)
	// ClearDirty снимает пометку, только если запись не менялась
	// после захвата (updated_at совпадает с переданным)
	ClearDirty(t sync.RecType, id string, updatedAt int64) error
	// GetCursor возвращает курсор типа, 0 если курсора еще нет
	GetCursor(t sync.RecType) (int64, error)
	// SetCursor сохраняет курсор. Откат назад запрещен.
	SetCursor(t sync.RecType, cursor int64) error
	// CountItems возвращает общее число записей
	CountItems() (int, error)
	Close() error
}
