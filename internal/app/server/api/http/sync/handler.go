package sync

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"studysync/internal/domain/sync"
)

type Handler struct {
	service    sync.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service sync.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.pushOp(), h.push)
	huma.Register(api, h.pullOp(), h.pull)
}

func (h *Handler) push(ctx context.Context, input *pushInput) (*pushOutput, error) {
	response, err := h.service.Push(ctx, input.Body)
	if err != nil {
		return &pushOutput{
			Body: PushResponse{
				Status: "Error",
				Error:  err.Error(),
			},
		}, nil
	}

	return &pushOutput{
		Body: PushResponse{
			Status:       "Ok",
			PushResponse: *response,
		},
	}, nil
}

func (h *Handler) pull(ctx context.Context, input *pullInput) (*pullOutput, error) {
	response, err := h.service.Pull(ctx, input.Body)
	if err != nil {
		return &pullOutput{
			Body: PullResponse{
				Status: "Error",
				Error:  err.Error(),
			},
		}, nil
	}

	return &pullOutput{
		Body: PullResponse{
			Status:       "Ok",
			PullResponse: *response,
		},
	}, nil
}
