package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"studysync/internal/app/server/api/http/middleware/auth"
)

// Servicer интерфейс движка синхронизации.
type Servicer interface {
	// Push принимает пакет измененных записей и применяет каждую
	// независимо через merge.
	Push(ctx context.Context, req PushRequest) (*PushResponse, error)

	// Pull возвращает все записи владельца новее переданных курсоров.
	Pull(ctx context.Context, req PullRequest) (*PullResponse, error)
}

// ServiceConfig настройки движка.
type ServiceConfig struct {
	MaxBatchPerType int           `json:"max_batch_per_type"`
	StorageRetries  int           `json:"storage_retries"`
	RetryDelay      time.Duration `json:"retry_delay"`
}

// Service реализация движка синхронизации поверх Repository.
type Service struct {
	repo   Repository
	log    *slog.Logger
	config *ServiceConfig
}

// NewService создает движок синхронизации.
func NewService(repo Repository, log *slog.Logger, config *ServiceConfig) *Service {
	if config == nil {
		config = &ServiceConfig{
			MaxBatchPerType: 1000,
			StorageRetries:  3,
			RetryDelay:      200 * time.Millisecond,
		}
	}

	return &Service{
		repo:   repo,
		log:    log.With("component", "sync_service"),
		config: config,
	}
}

// Push применяет пакет записей. Каждый тип обрабатывается независимо:
// сбой одного под-пакета не мешает остальным. Владелец проставляется
// из аутентифицированного контекста, клиентское значение игнорируется.
// Курсоры здесь не двигаются: push и pull — независимые потоки.
func (s *Service) Push(ctx context.Context, req PushRequest) (*PushResponse, error) {
	ownerID, ok := auth.GetOwnerID(ctx)
	if !ok {
		return nil, fmt.Errorf("user not authenticated")
	}

	now := time.Now().UnixMilli()
	resp := &PushResponse{
		Accepted:  make(map[RecType]int),
		Rejected:  make(map[RecType]int),
		Failed:    make(map[RecType]string),
		Timestamp: now,
	}

	for _, typ := range Types() {
		batch := req.Records[typ]
		if len(batch) == 0 {
			continue
		}
		if s.config.MaxBatchPerType > 0 && len(batch) > s.config.MaxBatchPerType {
			resp.Failed[typ] = fmt.Sprintf("batch too large: %d > %d", len(batch), s.config.MaxBatchPerType)
			continue
		}

		accepted, rejected, err := s.pushBatch(ctx, ownerID, typ, batch, now)
		resp.Accepted[typ] = accepted
		if rejected > 0 {
			resp.Rejected[typ] = rejected
		}
		if err != nil {
			// Под-пакет не дообработан; уже принятые записи сохранены,
			// повторная отправка даст на них идемпотентный stale.
			resp.Failed[typ] = err.Error()
			s.log.Error("push sub-batch failed",
				"owner_id", ownerID, "type", typ, "error", err)
		}
	}

	if req.Profile != nil {
		accepted, err := s.pushProfile(ctx, ownerID, *req.Profile, now)
		if err != nil {
			resp.Failed[RecTypeUserProfile] = err.Error()
		}
		resp.Profile = accepted
	}

	if len(resp.Rejected) == 0 {
		resp.Rejected = nil
	}
	if len(resp.Failed) == 0 {
		resp.Failed = nil
	}

	return resp, nil
}

// pushBatch применяет записи одного типа. Отклонение отдельной записи
// (stale, нет id) не прерывает под-пакет; ошибка хранилища после всех
// повторов — прерывает, оставшиеся записи не трогаются.
func (s *Service) pushBatch(ctx context.Context, ownerID string, typ RecType, batch []Record, now int64) (int, int, error) {
	var accepted, rejected int

	for _, rec := range batch {
		rec.OwnerID = ownerID
		rec.Type = typ
		if rec.ID == "" {
			rejected++
			continue
		}
		if rec.UpdatedAt == 0 {
			rec.UpdatedAt = now
		}
		if rec.CreatedAt == 0 {
			rec.CreatedAt = rec.UpdatedAt
		}

		err := s.upsertWithRetry(ctx, rec)
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, ErrStale), errors.Is(err, ErrForbidden), errors.Is(err, ErrInvalidRecord):
			rejected++
		default:
			return accepted, rejected, err
		}
	}

	return accepted, rejected, nil
}

// pushProfile применяет синглтон профиля: ключом служит владелец,
// клиентский id не используется. Отсутствующий updated_at получает
// серверное время.
func (s *Service) pushProfile(ctx context.Context, ownerID string, profile Record, now int64) (bool, error) {
	profile.ID = ownerID
	profile.OwnerID = ownerID
	profile.Type = RecTypeUserProfile
	if profile.UpdatedAt == 0 {
		profile.UpdatedAt = now
	}
	if profile.CreatedAt == 0 {
		profile.CreatedAt = profile.UpdatedAt
	}

	err := s.upsertWithRetry(ctx, profile)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrStale), errors.Is(err, ErrForbidden):
		return false, nil
	default:
		return false, err
	}
}

func (s *Service) upsertWithRetry(ctx context.Context, rec Record) error {
	var err error
	delay := s.config.RetryDelay

	for attempt := 0; ; attempt++ {
		err = s.repo.Upsert(ctx, rec)
		if !errors.Is(err, ErrStorageUnavailable) || attempt >= s.config.StorageRetries {
			return err
		}

		s.log.Warn("storage unavailable, retrying upsert",
			"type", rec.Type, "id", rec.ID, "attempt", attempt+1)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// Pull возвращает для каждого типа записи с updated_at строго больше
// курсора клиента плюс новый курсор. Хранилище не мутирует, кроме
// продвижения серверной отметки "доставлено по". Pull можно вызывать
// сколько угодно раз и вперемешку с push: повторная доставка уже
// примененных записей безопасна, apply идемпотентен.
func (s *Service) Pull(ctx context.Context, req PullRequest) (*PullResponse, error) {
	ownerID, ok := auth.GetOwnerID(ctx)
	if !ok {
		return nil, fmt.Errorf("user not authenticated")
	}

	now := time.Now().UnixMilli()
	resp := &PullResponse{
		Records:   make(map[RecType][]Record),
		Cursors:   make(map[RecType]int64),
		Failed:    make(map[RecType]string),
		Timestamp: now,
	}

	for _, typ := range Types() {
		since := req.Since[typ]

		records, err := s.repo.ChangedSince(ctx, ownerID, typ, since)
		if err != nil {
			// Сбой одного типа не мешает остальным: клиент просто
			// не продвинет курсор этого типа и дочитает его позже.
			resp.Failed[typ] = err.Error()
			s.log.Error("pull failed", "owner_id", ownerID, "type", typ, "error", err)
			continue
		}

		cursor := since
		for _, rec := range records {
			if rec.UpdatedAt > cursor {
				cursor = rec.UpdatedAt
			}
		}

		resp.Records[typ] = records
		resp.Cursors[typ] = cursor

		if err := s.advanceCursor(ctx, ownerID, typ, cursor); err != nil {
			resp.Failed[typ] = err.Error()
		}
	}

	s.pullProfile(ctx, ownerID, req, resp)

	if len(resp.Failed) == 0 {
		resp.Failed = nil
	}

	return resp, nil
}

// pullProfile добавляет профиль в ответ, если его updated_at превышает
// курсор клиента для типа профиля.
func (s *Service) pullProfile(ctx context.Context, ownerID string, req PullRequest, resp *PullResponse) {
	since := req.Since[RecTypeUserProfile]

	profile, err := s.repo.Get(ctx, ownerID, RecTypeUserProfile, ownerID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			resp.Failed[RecTypeUserProfile] = err.Error()
		}
		resp.Cursors[RecTypeUserProfile] = since
		return
	}

	cursor := since
	if profile.UpdatedAt > since {
		resp.Profile = profile
		cursor = profile.UpdatedAt
	}
	resp.Cursors[RecTypeUserProfile] = cursor

	if err := s.advanceCursor(ctx, ownerID, RecTypeUserProfile, cursor); err != nil {
		resp.Failed[RecTypeUserProfile] = err.Error()
	}
}

// advanceCursor продвигает серверную отметку доставки. Курсор клиента
// в запросе может быть меньше сохраненного (повторный pull) — это не
// регрессия, отметка просто не двигается.
func (s *Service) advanceCursor(ctx context.Context, ownerID string, typ RecType, cursor int64) error {
	stored, err := s.repo.GetCursor(ctx, ownerID, typ)
	if err != nil {
		return err
	}
	if cursor <= stored {
		return nil
	}

	if err := s.repo.SetCursor(ctx, ownerID, typ, cursor); err != nil {
		if errors.Is(err, ErrCursorRegression) {
			// Параллельный pull успел продвинуть отметку дальше.
			return nil
		}
		return err
	}
	return nil
}
