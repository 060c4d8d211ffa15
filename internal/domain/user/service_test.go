package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

// MockRepository мок для интерфейса Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, id, login, passwordHash string) error {
	args := m.Called(ctx, id, login, passwordHash)
	return args.Error(0)
}

func (m *MockRepository) FindByLogin(ctx context.Context, login string) (User, error) {
	args := m.Called(ctx, login)
	return args.Get(0).(User), args.Error(1)
}

func testUserService(repo Repository) *Service {
	return NewService(repo, NewPasswordValidator(), slog.Default())
}

func TestService_Register_Success(t *testing.T) {
	repo := new(MockRepository)
	svc := testUserService(repo)

	var storedHash string
	repo.On("Create", mock.Anything, mock.Anything, "user123", mock.Anything).
		Run(func(args mock.Arguments) {
			storedHash = args.String(3)
		}).
		Return(nil)

	id, err := svc.Register(context.Background(), "user123", "abcdef123")

	require.NoError(t, err)
	_, parseErr := uuid.Parse(id)
	assert.NoError(t, parseErr)
	// В репозиторий уходит bcrypt-хеш, а не пароль
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(storedHash), []byte("abcdef123")))
	repo.AssertExpectations(t)
}

func TestService_Register_ValidationFailure(t *testing.T) {
	repo := new(MockRepository)
	svc := testUserService(repo)

	_, err := svc.Register(context.Background(), "ab", "abcdef123")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	repo.AssertNotCalled(t, "Create")
}

func TestService_Register_RepositoryError(t *testing.T) {
	repo := new(MockRepository)
	svc := testUserService(repo)

	repo.On("Create", mock.Anything, mock.Anything, "user123", mock.Anything).
		Return(ErrExists)

	_, err := svc.Register(context.Background(), "user123", "abcdef123")

	assert.ErrorIs(t, err, ErrExists)
}

func TestService_Authenticate_Success(t *testing.T) {
	repo := new(MockRepository)
	svc := testUserService(repo)

	hash, err := bcrypt.GenerateFromPassword([]byte("abcdef123"), bcrypt.MinCost)
	require.NoError(t, err)

	repo.On("FindByLogin", mock.Anything, "user123").
		Return(User{ID: "owner-1", Login: "user123", Password: string(hash)}, nil)

	u, err := svc.Authenticate(context.Background(), "user123", "abcdef123")

	require.NoError(t, err)
	assert.Equal(t, "owner-1", u.ID)
}

func TestService_Authenticate_WrongPassword(t *testing.T) {
	repo := new(MockRepository)
	svc := testUserService(repo)

	hash, err := bcrypt.GenerateFromPassword([]byte("abcdef123"), bcrypt.MinCost)
	require.NoError(t, err)

	repo.On("FindByLogin", mock.Anything, "user123").
		Return(User{ID: "owner-1", Login: "user123", Password: string(hash)}, nil)

	_, err = svc.Authenticate(context.Background(), "user123", "wrong-pass1")

	assert.ErrorIs(t, err, ErrInvalidAuth)
}

func TestService_Authenticate_UserNotFound(t *testing.T) {
	repo := new(MockRepository)
	svc := testUserService(repo)

	repo.On("FindByLogin", mock.Anything, "ghost").
		Return(User{}, ErrNotFound)

	_, err := svc.Authenticate(context.Background(), "ghost", "abcdef123")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Authenticate_MalformedLogin(t *testing.T) {
	repo := new(MockRepository)
	svc := testUserService(repo)

	// Заведомо невалидный логин не должен доходить до хранилища
	_, err := svc.Authenticate(context.Background(), "u", "abcdef123")

	assert.ErrorIs(t, err, ErrInvalidAuth)
	repo.AssertNotCalled(t, "FindByLogin")
}
