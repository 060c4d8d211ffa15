package sync

// Merge единственный алгоритм разрешения конфликтов в системе:
// last-write-wins на уровне целой записи. Используется и серверными
// репозиториями, и клиентским драйвером при применении вытянутых
// записей поверх локальных.
//
// Правила:
//  1. existing == nil — запись новая, принимается как есть.
//  2. incoming.UpdatedAt строго больше — incoming замещает existing;
//     CreatedAt остается от более ранней версии, время создания
//     никогда не сдвигается вперед.
//  3. incoming.UpdatedAt меньше либо равен — ErrStale. Равенство тоже
//     отклоняется: повторная отправка того же пакета идемпотентна.
//  4. Несовпадение владельцев — ErrForbidden независимо от меток.
//
// Merge чистая функция; атомарность по ключу обеспечивает вызывающая
// сторона (блокировка по ключу или CAS в хранилище).
func Merge(existing *Record, incoming Record) (Record, error) {
	if incoming.ID == "" {
		return Record{}, ErrInvalidRecord
	}

	if existing == nil {
		return incoming, nil
	}

	if existing.OwnerID != incoming.OwnerID {
		return Record{}, ErrForbidden
	}

	if incoming.UpdatedAt <= existing.UpdatedAt {
		return Record{}, ErrStale
	}

	merged := incoming
	if existing.CreatedAt > 0 && (merged.CreatedAt == 0 || existing.CreatedAt < merged.CreatedAt) {
		merged.CreatedAt = existing.CreatedAt
	}
	return merged, nil
}
