package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

// MockRepository мок для интерфейса Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, ownerID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, ownerID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockRepository) Validate(ctx context.Context, tokenHash string) (string, error) {
	args := m.Called(ctx, tokenHash)
	return args.String(0), args.Error(1)
}

func TestService_Create_StoresHashNotToken(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, slog.Default())

	var storedHash string
	repo.On("Create", mock.Anything, "owner-1", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			storedHash = args.String(2)
		}).
		Return(nil)

	token, err := svc.Create(context.Background(), "owner-1")

	require.NoError(t, err)
	require.NotEmpty(t, token)
	// В хранилище лежит sha256 от токена, сам токен не сохраняется
	want := sha256.Sum256([]byte(token))
	assert.Equal(t, hex.EncodeToString(want[:]), storedHash)
	assert.NotEqual(t, token, storedHash)
}

func TestService_Create_RepositoryError(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, slog.Default())

	repo.On("Create", mock.Anything, "owner-1", mock.Anything, mock.Anything).
		Return(errors.New("db down"))

	_, err := svc.Create(context.Background(), "owner-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "save session")
}

func TestService_Validate_RoundTrip(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, slog.Default())

	var storedHash string
	repo.On("Create", mock.Anything, "owner-1", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			storedHash = args.String(2)
		}).
		Return(nil)

	token, err := svc.Create(context.Background(), "owner-1")
	require.NoError(t, err)

	repo.On("Validate", mock.Anything, storedHash).Return("owner-1", nil)

	ownerID, err := svc.Validate(context.Background(), token)

	require.NoError(t, err)
	assert.Equal(t, "owner-1", ownerID)
}

func TestService_Validate_UnknownToken(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, slog.Default())

	repo.On("Validate", mock.Anything, mock.Anything).Return("", errors.New("session not found"))

	_, err := svc.Validate(context.Background(), "bogus-token")

	assert.Error(t, err)
}

func TestService_Create_TokensAreUnique(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, slog.Default())

	repo.On("Create", mock.Anything, "owner-1", mock.Anything, mock.Anything).Return(nil)

	t1, err := svc.Create(context.Background(), "owner-1")
	require.NoError(t, err)
	t2, err := svc.Create(context.Background(), "owner-1")
	require.NoError(t, err)

	assert.NotEqual(t, t1, t2)
}
