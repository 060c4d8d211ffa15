package sync

// DTO движка синхронизации. Пакет push и ответ pull устроены как
// отображение "тип сущности -> записи": алгоритм один для всех шести
// коллекций, типоспецифичной логики здесь нет.

// PushRequest пакет локально измененных записей клиента. Любой тип
// может отсутствовать; профиль — опциональный синглтон.
type PushRequest struct {
	Records map[RecType][]Record `json:"records"`
	Profile *Record              `json:"profile,omitempty"`
}

// PushResponse итог обработки пакета. Ошибки по отдельным записям и
// по целым типам агрегируются, пакет никогда не падает целиком.
type PushResponse struct {
	Accepted  map[RecType]int    `json:"accepted" doc:"Принятых записей по типам"`
	Rejected  map[RecType]int    `json:"rejected,omitempty" doc:"Отклоненных записей по типам (stale/invalid)"`
	Failed    map[RecType]string `json:"failed,omitempty" doc:"Типы, чей под-пакет не был обработан"`
	Profile   bool               `json:"profile" doc:"Принят ли профиль"`
	Timestamp int64              `json:"timestamp" doc:"Серверное время обработки, мс эпохи"`
}

// PullRequest курсоры клиента по типам. Отсутствующий тип означает
// курсор 0 — "с начала времен".
type PullRequest struct {
	Since map[RecType]int64 `json:"since"`
}

// PullResponse записи с updated_at строго больше курсора, по каждому
// типу в порядке возрастания updated_at (при равенстве — по id), плюс
// новые курсоры. Записи с одинаковым максимальным updated_at всегда
// возвращаются в одном ответе, иначе курсор перескочил бы одну из них.
type PullResponse struct {
	Records   map[RecType][]Record `json:"records"`
	Profile   *Record              `json:"profile,omitempty"`
	Cursors   map[RecType]int64    `json:"cursors" doc:"Новые курсоры клиента по типам"`
	Failed    map[RecType]string   `json:"failed,omitempty"`
	Timestamp int64                `json:"timestamp" doc:"Серверное время ответа, мс эпохи"`
}
