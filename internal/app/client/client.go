package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"studysync/internal/app/client/config"
	"studysync/internal/domain/sync"
	"studysync/internal/domain/user"
)

type App struct {
	config        *config.Config
	log           *slog.Logger
	httpClient    *httpClient
	storage       Storage
	syncService   *SyncService
	state         *AppState
	authenticated bool
	mu            gosync.RWMutex
}

// AppState хранит состояние приложения
type AppState struct {
	Initialized bool      `json:"initialized"`
	UserLogin   string    `json:"user_login"`
	LastSync    time.Time `json:"last_sync"`
	ItemsCount  int       `json:"items_count"`
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	state, err := loadAppState(cfg)
	if err != nil {
		log.Warn("Не удалось загрузить состояние приложения", "error", err)
		state = &AppState{}
	}

	httpCl, err := NewHTTPClient(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации HTTP клиента: %w", err)
	}

	storage, err := NewSQLiteStorage(cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации хранилища: %w", err)
	}

	app := &App{
		config:     cfg,
		log:        log,
		httpClient: httpCl,
		storage:    storage,
		state:      state,
	}

	app.syncService = NewSyncService(storage, httpCl, log, cfg.ConfigDir)

	// Загружаем токен если он есть
	if token, err := app.GetToken(); err == nil && token != "" {
		httpCl.SetToken(token)
		app.mu.Lock()
		app.authenticated = true
		app.mu.Unlock()
		log.Debug("Токен загружен из файла")
	}

	return app, nil
}

func loadAppState(cfg *config.Config) (*AppState, error) {
	statePath := cfg.ConfigDir + "/state.json"

	if _, err := os.Stat(statePath); os.IsNotExist(err) {
		return &AppState{}, nil
	}

	data, err := os.ReadFile(statePath)
	if err != nil {
		return nil, err
	}

	var state AppState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}

	return &state, nil
}

func (a *App) saveAppState() error {
	statePath := a.config.ConfigDir + "/state.json"
	data, err := json.MarshalIndent(a.state, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(statePath, data, 0600)
}

// IsInitialized проверяет, инициализирован ли клиент
func (a *App) IsInitialized() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.Initialized
}

// InitStorage выполняет первоначальную настройку хранилища
func (a *App) InitStorage() error {
	count, err := a.storage.CountItems()
	if err != nil {
		return fmt.Errorf("ошибка инициализации хранилища: %w", err)
	}

	a.mu.Lock()
	a.state.ItemsCount = count
	a.state.Initialized = true
	if err := a.saveAppState(); err != nil {
		a.mu.Unlock()
		return fmt.Errorf("ошибка сохранения состояния: %w", err)
	}
	a.mu.Unlock()

	return nil
}

// CheckConnection проверяет соединение с сервером
func (a *App) CheckConnection() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return a.httpClient.HealthCheck(ctx)
}

// IsAuthenticated проверяет, аутентифицирован ли пользователь
func (a *App) IsAuthenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.authenticated {
		token, err := a.GetToken()
		if err == nil && token != "" {
			a.authenticated = true
		}
	}

	return a.authenticated
}

// GetToken возвращает сохраненный токен
func (a *App) GetToken() (string, error) {
	tokenBytes, err := os.ReadFile(a.config.TokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("токен не найден. Выполните вход: studysync auth login")
		}
		return "", fmt.Errorf("ошибка чтения токена: %w", err)
	}
	return string(tokenBytes), nil
}

// SaveToken сохраняет токен аутентификации
func (a *App) SaveToken(token string) error {
	if err := os.WriteFile(a.config.TokenPath, []byte(token), 0600); err != nil {
		return fmt.Errorf("ошибка сохранения токена: %w", err)
	}

	a.httpClient.SetToken(token)

	return nil
}

// ClearToken удаляет токен
func (a *App) ClearToken() error {
	a.mu.Lock()
	a.authenticated = false
	a.state.UserLogin = ""

	if err := os.Remove(a.config.TokenPath); err != nil && !os.IsNotExist(err) {
		a.mu.Unlock()
		return fmt.Errorf("ошибка удаления токена: %w", err)
	}

	if err := a.saveAppState(); err != nil {
		a.mu.Unlock()
		return fmt.Errorf("ошибка сохранения состояния: %w", err)
	}
	a.mu.Unlock()

	return nil
}

// Register регистрирует нового пользователя
func (a *App) Register(ctx context.Context, req user.BaseRequest) error {
	if err := a.httpClient.Register(ctx, req.Login, req.Password); err != nil {
		return err
	}

	a.log.Info("Пользователь успешно зарегистрирован", "login", req.Login)
	return nil
}

// Login выполняет вход пользователя
func (a *App) Login(ctx context.Context, req user.BaseRequest) (string, error) {
	token, err := a.httpClient.Login(ctx, req.Login, req.Password)
	if err != nil {
		return "", err
	}

	if err = a.SaveToken(token); err != nil {
		return "", fmt.Errorf("ошибка сохранения токена: %w", err)
	}

	a.mu.Lock()
	a.authenticated = true
	a.state.UserLogin = req.Login

	if err = a.saveAppState(); err != nil {
		a.log.Warn("Не удалось сохранить состояние", "error", err)
	}
	a.mu.Unlock()

	a.log.Info("Вход выполнен успешно", "login", req.Login)
	return token, nil
}

// ==================== Item Operations ====================

// AddItem создает новую запись. Идентификатор генерируется на клиенте
// и не меняется до конца жизни записи.
func (a *App) AddItem(t sync.RecType, payload json.RawMessage) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	if t == sync.RecTypeUserProfile {
		return "", fmt.Errorf("профиль меняется командой profile, а не add")
	}
	if !json.Valid(payload) {
		return "", fmt.Errorf("данные записи должны быть корректным JSON")
	}

	now := time.Now().UnixMilli()
	rec := sync.Record{
		ID:        uuid.NewString(),
		Type:      t,
		CreatedAt: now,
		UpdatedAt: now,
		Payload:   payload,
	}

	if err := a.storage.SaveItem(rec, true); err != nil {
		return "", fmt.Errorf("ошибка сохранения записи: %w", err)
	}

	a.mu.Lock()
	a.state.ItemsCount++
	if err := a.saveAppState(); err != nil {
		a.log.Warn("Не удалось сохранить состояние", "error", err)
	}
	a.mu.Unlock()

	return rec.ID, nil
}

// UpdateItem заменяет содержимое записи и помечает ее для отправки
func (a *App) UpdateItem(t sync.RecType, id string, payload json.RawMessage) error {
	existing, err := a.storage.GetItem(t, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("запись не найдена: %s", id)
	}
	if !json.Valid(payload) {
		return fmt.Errorf("данные записи должны быть корректным JSON")
	}

	rec := existing.Record
	rec.Payload = payload
	rec.UpdatedAt = bumpTimestamp(rec.UpdatedAt)

	return a.storage.SaveItem(rec, true)
}

// DeleteItem помечает запись удаленной. Физически запись остается:
// удаление должно доехать до сервера и других устройств как обычное
// обновление с tombstone в содержимом.
func (a *App) DeleteItem(t sync.RecType, id string) error {
	existing, err := a.storage.GetItem(t, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("запись не найдена: %s", id)
	}

	rec := existing.Record
	rec.Payload = json.RawMessage(`{"deleted":true}`)
	rec.UpdatedAt = bumpTimestamp(rec.UpdatedAt)

	return a.storage.SaveItem(rec, true)
}

// GetItem возвращает запись по типу и идентификатору
func (a *App) GetItem(t sync.RecType, id string) (*LocalItem, error) {
	item, err := a.storage.GetItem(t, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("запись не найдена: %s", id)
	}
	return item, nil
}

// ListItems возвращает записи, при t == "" — все типы
func (a *App) ListItems(t sync.RecType) ([]*LocalItem, error) {
	return a.storage.ListItems(t)
}

// SetProfile сохраняет профиль пользователя
func (a *App) SetProfile(payload json.RawMessage) error {
	if !json.Valid(payload) {
		return fmt.Errorf("данные профиля должны быть корректным JSON")
	}

	now := time.Now().UnixMilli()
	rec := sync.Record{
		ID:        ProfileLocalID,
		Type:      sync.RecTypeUserProfile,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if existing, err := a.storage.GetItem(sync.RecTypeUserProfile, ProfileLocalID); err == nil && existing != nil {
		rec.CreatedAt = existing.CreatedAt
		rec.UpdatedAt = bumpTimestamp(existing.UpdatedAt)
	}

	rec.Payload = payload
	return a.storage.SaveItem(rec, true)
}

// GetProfile возвращает профиль или nil, если его еще нет
func (a *App) GetProfile() (*LocalItem, error) {
	return a.storage.GetItem(sync.RecTypeUserProfile, ProfileLocalID)
}

// Sync запускает цикл синхронизации
func (a *App) Sync(ctx context.Context) (*SyncResult, error) {
	result, err := a.syncService.Sync(ctx)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.state.LastSync = result.EndTime
	if count, cerr := a.storage.CountItems(); cerr == nil {
		a.state.ItemsCount = count
	}
	if serr := a.saveAppState(); serr != nil {
		a.log.Warn("Не удалось сохранить состояние", "error", serr)
	}
	a.mu.Unlock()

	return result, nil
}

// GetSyncService возвращает сервис синхронизации
func (a *App) GetSyncService() *SyncService {
	return a.syncService
}

// StartAutoSync запускает периодическую синхронизацию в фоне
func (a *App) StartAutoSync(ctx context.Context) {
	interval := time.Duration(a.config.SyncInterval) * time.Second
	a.syncService.StartAutoSync(ctx, interval)
}

// Close закрывает локальное хранилище
func (a *App) Close() error {
	return a.storage.Close()
}

// bumpTimestamp возвращает текущее время, но строго больше prev:
// при нескольких правках в одну миллисекунду метка все равно растет.
func bumpTimestamp(prev int64) int64 {
	now := time.Now().UnixMilli()
	if now <= prev {
		return prev + 1
	}
	return now
}
