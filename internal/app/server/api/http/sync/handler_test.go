package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"studysync/internal/app/server/api/http/middleware/auth"
	"studysync/internal/domain/sync"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Push(ctx context.Context, req sync.PushRequest) (*sync.PushResponse, error) {
	args := m.Called(ctx, req)
	// Безопасное приведение nil к указателю
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sync.PushResponse), args.Error(1)
}

func (m *MockService) Pull(ctx context.Context, req sync.PullRequest) (*sync.PullResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sync.PullResponse), args.Error(1)
}

func TestHandler_Push(t *testing.T) {
	authCtx := auth.WithOwnerID(context.Background(), "owner-1")

	t.Run("Success", func(t *testing.T) {
		svc := new(MockService)
		h := NewHandler(svc, slog.Default(), nil)

		input := &pushInput{}
		input.Body.Records = map[sync.RecType][]sync.Record{
			sync.RecTypeNote: {{ID: "n1", UpdatedAt: 100}},
		}

		svc.On("Push", mock.Anything, input.Body).Return(&sync.PushResponse{
			Accepted:  map[sync.RecType]int{sync.RecTypeNote: 1},
			Timestamp: 12345,
		}, nil)

		output, err := h.push(authCtx, input)

		require.NoError(t, err)
		assert.Equal(t, "Ok", output.Body.Status)
		assert.Empty(t, output.Body.Error)
		assert.Equal(t, 1, output.Body.Accepted[sync.RecTypeNote])
		svc.AssertExpectations(t)
	})

	t.Run("ServiceError", func(t *testing.T) {
		svc := new(MockService)
		h := NewHandler(svc, slog.Default(), nil)

		svc.On("Push", mock.Anything, mock.Anything).Return(nil, errors.New("user not authenticated"))

		output, err := h.push(context.Background(), &pushInput{})

		// Ошибка уходит в тело ответа, транспортная ошибка не возвращается
		require.NoError(t, err)
		assert.Equal(t, "Error", output.Body.Status)
		assert.Equal(t, "user not authenticated", output.Body.Error)
	})
}

func TestHandler_Pull(t *testing.T) {
	authCtx := auth.WithOwnerID(context.Background(), "owner-1")

	t.Run("Success", func(t *testing.T) {
		svc := new(MockService)
		h := NewHandler(svc, slog.Default(), nil)

		input := &pullInput{}
		input.Body.Since = map[sync.RecType]int64{sync.RecTypeNote: 100}

		svc.On("Pull", mock.Anything, input.Body).Return(&sync.PullResponse{
			Records: map[sync.RecType][]sync.Record{
				sync.RecTypeNote: {{ID: "n2", UpdatedAt: 200}},
			},
			Cursors:   map[sync.RecType]int64{sync.RecTypeNote: 200},
			Timestamp: 12345,
		}, nil)

		output, err := h.pull(authCtx, input)

		require.NoError(t, err)
		assert.Equal(t, "Ok", output.Body.Status)
		require.Len(t, output.Body.Records[sync.RecTypeNote], 1)
		assert.Equal(t, int64(200), output.Body.Cursors[sync.RecTypeNote])
		svc.AssertExpectations(t)
	})

	t.Run("ServiceError", func(t *testing.T) {
		svc := new(MockService)
		h := NewHandler(svc, slog.Default(), nil)

		svc.On("Pull", mock.Anything, mock.Anything).Return(nil, errors.New("storage offline"))

		output, err := h.pull(authCtx, &pullInput{})

		require.NoError(t, err)
		assert.Equal(t, "Error", output.Body.Status)
		assert.Equal(t, "storage offline", output.Body.Error)
	})
}
