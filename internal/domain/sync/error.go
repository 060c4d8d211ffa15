package sync

import "errors"

var (
	// ErrStale входящая запись проиграла по updated_at уже сохраненной.
	// Не ошибка для пользователя: клиент оставляет запись грязной и
	// повторит попытку в следующем цикле.
	ErrStale = errors.New("stale write")

	// ErrForbidden владелец записи не совпадает с аутентифицированным.
	ErrForbidden = errors.New("record owner mismatch")

	// ErrInvalidRecord у записи нет обязательных идентификационных полей.
	ErrInvalidRecord = errors.New("record is missing required identity fields")

	// ErrStorageUnavailable временный сбой хранилища; под-пакет типа
	// повторяется с backoff, остальные типы не затрагиваются.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrCursorRegression попытка сдвинуть курсор назад. Курсоры двигаются
	// только вперед.
	ErrCursorRegression = errors.New("cursor moved backward")

	// ErrNotFound запись не найдена.
	ErrNotFound = errors.New("record not found")
)
