package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"

	"studysync/internal/domain/sync"
)

// SyncService управляет циклом синхронизации: отправка локальных
// изменений, затем получение серверных. Обе стороны сходятся к одному
// состоянию за счет общего правила слияния sync.Merge.
type SyncService struct {
	storage   Storage
	api       serverAPI
	log       *slog.Logger
	configDir string
	mu        gosync.RWMutex
	lastSync  time.Time
	isSyncing bool
	stats     *SyncStats
}

// SyncError ошибка одного шага синхронизации
type SyncError struct {
	Type      sync.RecType `json:"type,omitempty"`
	Error     string       `json:"error"`
	Operation string       `json:"operation"`
	Timestamp time.Time    `json:"timestamp"`
}

// SyncStats накопленная статистика синхронизаций
type SyncStats struct {
	TotalSyncs      int       `json:"total_syncs"`
	LastSuccessful  time.Time `json:"last_successful"`
	LastFailed      time.Time `json:"last_failed"`
	TotalUploaded   int       `json:"total_uploaded"`
	TotalDownloaded int       `json:"total_downloaded"`
	TotalStale      int       `json:"total_stale"`
	TotalErrors     int       `json:"total_errors"`
}

// SyncResult итог одного цикла синхронизации
type SyncResult struct {
	Success    bool          `json:"success"`
	Uploaded   int           `json:"uploaded"`
	Downloaded int           `json:"downloaded"`
	Stale      int           `json:"stale"`
	Pending    int           `json:"pending"`
	Errors     []SyncError   `json:"errors"`
	Duration   time.Duration `json:"duration"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
}

// NewSyncService создает сервис синхронизации
func NewSyncService(storage Storage, api serverAPI, log *slog.Logger, configDir string) *SyncService {
	s := &SyncService{
		storage:   storage,
		api:       api,
		log:       log,
		configDir: configDir,
		stats:     &SyncStats{},
	}

	if stats, err := s.loadStats(); err == nil {
		s.stats = stats
	}

	return s
}

// Sync выполняет один цикл: push, затем pull. Одновременно может
// работать только один цикл.
func (s *SyncService) Sync(ctx context.Context) (*SyncResult, error) {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		return nil, fmt.Errorf("синхронизация уже выполняется")
	}

	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	result := &SyncResult{
		StartTime: time.Now(),
		Errors:    []SyncError{},
	}

	s.log.Debug("Начало синхронизации")

	s.pushChanges(ctx, result)
	s.pullChanges(ctx, result)

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Success = len(result.Errors) == 0

	s.mu.Lock()
	s.lastSync = result.EndTime
	s.updateStats(result)
	s.mu.Unlock()

	s.saveStats()

	if result.Success {
		s.log.Info("Синхронизация завершена",
			"duration", result.Duration,
			"uploaded", result.Uploaded,
			"downloaded", result.Downloaded,
		)
	} else {
		s.log.Warn("Синхронизация завершена с ошибками",
			"duration", result.Duration,
			"errors", len(result.Errors),
		)
	}

	return result, nil
}

// pushChanges отправляет несинхронизированные записи. Пометка dirty
// снимается только для типов, где сервер принял все отправленное, и
// только если запись не успела измениться после захвата пакета.
func (s *SyncService) pushChanges(ctx context.Context, result *SyncResult) {
	dirty, err := s.storage.DirtyItems()
	if err != nil {
		result.Errors = append(result.Errors, SyncError{
			Error:     err.Error(),
			Operation: "collect_dirty",
			Timestamp: time.Now(),
		})
		return
	}

	req := sync.PushRequest{Records: make(map[sync.RecType][]sync.Record)}
	for t, records := range dirty {
		if t == sync.RecTypeUserProfile {
			rec := records[0]
			req.Profile = &rec
			continue
		}
		req.Records[t] = records
	}

	if len(req.Records) == 0 && req.Profile == nil {
		s.log.Debug("Нет локальных изменений для отправки")
		return
	}

	resp, err := s.api.Push(ctx, req)
	if err != nil {
		result.Errors = append(result.Errors, SyncError{
			Error:     err.Error(),
			Operation: "push",
			Timestamp: time.Now(),
		})
		return
	}

	for t, sent := range req.Records {
		if msg, failed := resp.Failed[t]; failed {
			result.Errors = append(result.Errors, SyncError{
				Type:      t,
				Error:     msg,
				Operation: "push",
				Timestamp: time.Now(),
			})
			continue
		}

		result.Uploaded += resp.Accepted[t]
		result.Stale += resp.Rejected[t]

		if resp.Accepted[t] < len(sent) {
			// Часть записей отклонена, а ответ не говорит какая.
			// Оставляем пометки: повтор идемпотентен, а более свежие
			// серверные копии придут через pull и снимут их сами.
			result.Pending += len(sent)
			continue
		}

		for _, rec := range sent {
			if err := s.storage.ClearDirty(t, rec.ID, rec.UpdatedAt); err != nil {
				s.log.Warn("Не удалось снять пометку синхронизации",
					"type", t, "id", rec.ID, "error", err)
			}
		}
	}

	if req.Profile != nil && resp.Profile {
		if err := s.storage.ClearDirty(sync.RecTypeUserProfile, req.Profile.ID, req.Profile.UpdatedAt); err != nil {
			s.log.Warn("Не удалось снять пометку с профиля", "error", err)
		}
		result.Uploaded++
	}
}

// pullChanges получает серверные изменения и применяет их через общее
// правило слияния. Курсор типа продвигается только после успешного
// применения всех его записей.
func (s *SyncService) pullChanges(ctx context.Context, result *SyncResult) {
	req := sync.PullRequest{Since: make(map[sync.RecType]int64)}
	for _, t := range sync.Types() {
		cursor, err := s.storage.GetCursor(t)
		if err != nil {
			result.Errors = append(result.Errors, SyncError{
				Type:      t,
				Error:     err.Error(),
				Operation: "read_cursor",
				Timestamp: time.Now(),
			})
			return
		}
		req.Since[t] = cursor
	}

	resp, err := s.api.Pull(ctx, req)
	if err != nil {
		result.Errors = append(result.Errors, SyncError{
			Error:     err.Error(),
			Operation: "pull",
			Timestamp: time.Now(),
		})
		return
	}

	for _, t := range sync.Types() {
		if msg, failed := resp.Failed[t]; failed {
			result.Errors = append(result.Errors, SyncError{
				Type:      t,
				Error:     msg,
				Operation: "pull",
				Timestamp: time.Now(),
			})
			continue
		}

		applied := true
		for _, rec := range resp.Records[t] {
			if err := s.applyRemote(rec); err != nil {
				applied = false
				result.Errors = append(result.Errors, SyncError{
					Type:      t,
					Error:     err.Error(),
					Operation: "apply",
					Timestamp: time.Now(),
				})
				continue
			}
			result.Downloaded++
		}

		if !applied {
			continue
		}

		if cursor, ok := resp.Cursors[t]; ok && cursor > req.Since[t] {
			if err := s.storage.SetCursor(t, cursor); err != nil {
				s.log.Warn("Не удалось сохранить курсор", "type", t, "error", err)
			}
		}
	}

	if resp.Profile != nil {
		rec := *resp.Profile
		rec.ID = ProfileLocalID
		if err := s.applyRemote(rec); err != nil {
			result.Errors = append(result.Errors, SyncError{
				Type:      sync.RecTypeUserProfile,
				Error:     err.Error(),
				Operation: "apply",
				Timestamp: time.Now(),
			})
		} else {
			result.Downloaded++
		}
	}
}

// applyRemote применяет серверную запись к локальной копии. Если
// локальная версия новее или та же (несинхронизированная правка или
// эхо собственного push), серверная копия отбрасывается.
func (s *SyncService) applyRemote(rec sync.Record) error {
	existing, err := s.storage.GetItem(rec.Type, rec.ID)
	if err != nil {
		return err
	}

	var current *sync.Record
	if existing != nil {
		local := existing.Record
		// Локальное хранилище принадлежит одному пользователю,
		// владельца здесь не сверяем
		local.OwnerID = rec.OwnerID
		current = &local
	}

	merged, err := sync.Merge(current, rec)
	if err != nil {
		if errors.Is(err, sync.ErrStale) {
			return nil
		}
		return err
	}

	return s.storage.SaveItem(merged, false)
}

func (s *SyncService) updateStats(result *SyncResult) {
	s.stats.TotalSyncs++

	if result.Success {
		s.stats.LastSuccessful = result.EndTime
	} else {
		s.stats.LastFailed = result.EndTime
	}

	s.stats.TotalUploaded += result.Uploaded
	s.stats.TotalDownloaded += result.Downloaded
	s.stats.TotalStale += result.Stale
	s.stats.TotalErrors += len(result.Errors)
}

func (s *SyncService) loadStats() (*SyncStats, error) {
	statsPath := s.configDir + "/sync_stats.json"

	data, err := os.ReadFile(statsPath)
	if err != nil {
		return nil, err
	}

	var stats SyncStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}

	return &stats, nil
}

func (s *SyncService) saveStats() {
	if s.configDir == "" {
		return
	}

	statsPath := s.configDir + "/sync_stats.json"

	s.mu.RLock()
	data, err := json.MarshalIndent(s.stats, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		s.log.Error("Ошибка сериализации статистики", "error", err)
		return
	}

	if err := os.WriteFile(statsPath, data, 0600); err != nil {
		s.log.Error("Ошибка записи статистики", "error", err)
	}
}

// StartAutoSync запускает периодическую синхронизацию
func (s *SyncService) StartAutoSync(ctx context.Context, interval time.Duration) {
	s.log.Info("Запуск автоматической синхронизации", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Автоматическая синхронизация остановлена")
			return
		case <-ticker.C:
			if _, err := s.Sync(ctx); err != nil {
				s.log.Error("Ошибка автоматической синхронизации", "error", err)
			}
		}
	}
}

// GetStats возвращает копию статистики синхронизации
func (s *SyncService) GetStats() *SyncStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statsCopy := *s.stats
	return &statsCopy
}

// GetLastSyncTime возвращает время последней синхронизации
func (s *SyncService) GetLastSyncTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSync
}

// IsSyncing проверяет, выполняется ли синхронизация
func (s *SyncService) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}
