package sync

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) pushOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-push",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/push",
		Summary:     "Отправить локальные изменения",
		Description: "Принимает пакет измененных записей и применяет каждую независимо (last-write-wins)",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) pullOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-pull",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/pull",
		Summary:     "Получить изменения сервера",
		Description: "Возвращает записи новее переданных курсоров и новые значения курсоров",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}
