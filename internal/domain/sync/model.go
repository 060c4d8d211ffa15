package sync

import (
	"encoding/json"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
)

// RecType тип синхронизируемой сущности. Закрытое множество:
// шесть коллекций учебных данных плюс синглтон профиля.
type RecType string

const (
	RecTypeCourse         RecType = "course"
	RecTypeUnit           RecType = "unit"
	RecTypeNote           RecType = "note"
	RecTypeFlashcard      RecType = "flashcard"
	RecTypeTask           RecType = "task"
	RecTypeAcademicRecord RecType = "academic_record"
	RecTypeUserProfile    RecType = "user_profile"
)

// Types возвращает все коллекционные типы в стабильном порядке.
// Профиль сюда не входит: это синглтон с ключом по владельцу,
// он передается отдельным полем запроса.
func Types() []RecType {
	return []RecType{
		RecTypeCourse,
		RecTypeUnit,
		RecTypeNote,
		RecTypeFlashcard,
		RecTypeTask,
		RecTypeAcademicRecord,
	}
}

func (RecType) Schema(_ huma.Registry) *huma.Schema {
	return &huma.Schema{
		Type: "string",
		Enum: []any{
			string(RecTypeCourse),
			string(RecTypeUnit),
			string(RecTypeNote),
			string(RecTypeFlashcard),
			string(RecTypeTask),
			string(RecTypeAcademicRecord),
			string(RecTypeUserProfile),
		},
		Description: "Тип синхронизируемой записи",
		Examples:    []any{string(RecTypeNote)},
	}
}

// Validate проверяет, что тип входит в закрытое множество.
func (t RecType) Validate() error {
	switch t {
	case RecTypeCourse, RecTypeUnit, RecTypeNote, RecTypeFlashcard,
		RecTypeTask, RecTypeAcademicRecord, RecTypeUserProfile:
		return nil
	}
	return fmt.Errorf("неверный тип записи: %s", t)
}

func (t RecType) String() string {
	return string(t)
}

// Record единая форма синхронизируемой записи. Движок синхронизации
// не заглядывает внутрь Payload: запись переносится атомарно целиком.
//
// Инварианты:
//   - ID генерируется клиентом при создании и больше не меняется;
//     для профиля ID равен идентификатору владельца.
//   - OwnerID всегда проставляется сервером из аутентифицированного
//     контекста, значение из запроса не используется.
//   - CreatedAt устанавливается один раз и никогда не растет.
//   - UpdatedAt у сохраненной копии монотонно не убывает.
//
// Временные метки — миллисекунды эпохи Unix.
type Record struct {
	ID        string          `json:"id" example:"c7a1f3d2" doc:"Клиентский идентификатор записи"`
	OwnerID   string          `json:"owner_id,omitempty" doc:"Владелец, проставляется сервером"`
	Type      RecType         `json:"type"`
	CreatedAt int64           `json:"created_at" doc:"Миллисекунды эпохи"`
	UpdatedAt int64           `json:"updated_at" doc:"Миллисекунды эпохи"`
	Payload   json.RawMessage `json:"payload" doc:"Непрозрачные поля сущности"`
}

// Key идентичность записи в хранилище: (владелец, тип, id).
// Записи разных владельцев не пересекаются даже при совпадении id.
type Key struct {
	OwnerID string
	Type    RecType
	ID      string
}

// Key возвращает ключ хранения записи.
func (r Record) Key() Key {
	return Key{OwnerID: r.OwnerID, Type: r.Type, ID: r.ID}
}
