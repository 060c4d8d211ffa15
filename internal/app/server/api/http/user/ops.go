package user

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) registerOp() huma.Operation {
	return huma.Operation{
		OperationID: "user-register",
		Method:      http.MethodPost,
		Path:        "/api/v1/user/register",
		Summary:     "Регистрация пользователя",
		Description: "Создает учетную запись и возвращает токен сессии",
		Tags:        []string{"user"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) loginOp() huma.Operation {
	return huma.Operation{
		OperationID: "user-login",
		Method:      http.MethodPost,
		Path:        "/api/v1/user/login",
		Summary:     "Вход пользователя",
		Description: "Аутентифицирует пользователя и возвращает токен сессии",
		Tags:        []string{"user"},
		Middlewares: h.middleware,
	}
}
