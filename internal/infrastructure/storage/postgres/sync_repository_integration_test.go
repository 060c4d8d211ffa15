//go:build integration

// Интеграционные тесты хранилища на настоящем PostgreSQL в docker.
// Запускаются только с тегом:
//
//	go test -tags=integration ./internal/infrastructure/storage/postgres/
//
// Требуется работающий docker daemon.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"studysync/internal/app/server/config"
	"studysync/internal/domain/sync"
	"studysync/internal/infrastructure/migration"
)

const (
	pgImage    = "postgres:16-alpine"
	pgPassword = "integration"
	pgDatabase = "studysync_test"
)

var (
	testPool    *pgxpool.Pool
	containerID string
	dockerCli   *client.Client
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	if err := startPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres container setup failed: %v\n", err)
		stopPostgres(ctx)
		os.Exit(1)
	}

	code := m.Run()

	stopPostgres(ctx)
	os.Exit(code)
}

func startPostgres(ctx context.Context) error {
	var err error
	dockerCli, err = client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return fmt.Errorf("docker client: %w", err)
	}

	reader, err := dockerCli.ImagePull(ctx, pgImage, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull %s: %w", pgImage, err)
	}
	_, _ = io.Copy(io.Discard, reader)
	_ = reader.Close()

	pgPort := nat.Port("5432/tcp")
	created, err := dockerCli.ContainerCreate(ctx,
		&container.Config{
			Image: pgImage,
			Env: []string{
				"POSTGRES_PASSWORD=" + pgPassword,
				"POSTGRES_DB=" + pgDatabase,
			},
			ExposedPorts: nat.PortSet{pgPort: struct{}{}},
		},
		&container.HostConfig{
			PortBindings: nat.PortMap{
				pgPort: []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: ""}},
			},
		},
		nil, nil, "")
	if err != nil {
		return fmt.Errorf("create container: %w", err)
	}
	containerID = created.ID

	if err := dockerCli.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return fmt.Errorf("start container: %w", err)
	}

	inspect, err := dockerCli.ContainerInspect(ctx, containerID)
	if err != nil {
		return fmt.Errorf("inspect container: %w", err)
	}
	bindings := inspect.NetworkSettings.Ports[pgPort]
	if len(bindings) == 0 {
		return fmt.Errorf("no host port bound for %s", pgPort)
	}

	dsn := fmt.Sprintf("postgres://postgres:%s@127.0.0.1:%s/%s?sslmode=disable",
		pgPassword, bindings[0].HostPort, pgDatabase)

	// Postgres в контейнере поднимается не мгновенно
	deadline := time.Now().Add(30 * time.Second)
	for {
		testPool, err = pgxpool.New(ctx, dsn)
		if err == nil {
			if pingErr := testPool.Ping(ctx); pingErr == nil {
				break
			}
			testPool.Close()
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("postgres did not become ready: %w", err)
		}
		time.Sleep(500 * time.Millisecond)
	}

	cfg := &config.Config{}
	cfg.DB.DatabaseURI = dsn
	cfg.DB.Migrations = "../../../../migrations"

	mg := migration.NewMigration(cfg, migration.DefaultEngine)
	if err := mg.Up(); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	return nil
}

func stopPostgres(ctx context.Context) {
	if testPool != nil {
		testPool.Close()
	}
	if dockerCli != nil && containerID != "" {
		_ = dockerCli.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true})
	}
}

func testRepo(t *testing.T) *SyncRepository {
	t.Helper()
	return NewSyncRepository(testPool, slog.Default())
}

func intRec(owner, id string, updatedAt int64, text string) sync.Record {
	payload, _ := json.Marshal(map[string]string{"text": text})
	return sync.Record{
		ID:        id,
		OwnerID:   owner,
		Type:      sync.RecTypeNote,
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
		Payload:   payload,
	}
}

func TestSyncRepository_UpsertAndGet(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	rec := intRec("it-owner-get", "n1", 100, "hello")
	require.NoError(t, repo.Upsert(ctx, rec))

	got, err := repo.Get(ctx, "it-owner-get", sync.RecTypeNote, "n1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.UpdatedAt)
	assert.JSONEq(t, string(rec.Payload), string(got.Payload))

	_, err = repo.Get(ctx, "it-owner-get", sync.RecTypeNote, "missing")
	assert.ErrorIs(t, err, sync.ErrNotFound)
}

func TestSyncRepository_ConditionalUpsert(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, intRec("it-owner-cas", "n1", 200, "v1")))

	// Равный и меньший updated_at отклоняются на уровне SQL
	assert.ErrorIs(t, repo.Upsert(ctx, intRec("it-owner-cas", "n1", 200, "v2")), sync.ErrStale)
	assert.ErrorIs(t, repo.Upsert(ctx, intRec("it-owner-cas", "n1", 150, "v2")), sync.ErrStale)

	require.NoError(t, repo.Upsert(ctx, intRec("it-owner-cas", "n1", 300, "v3")))

	got, err := repo.Get(ctx, "it-owner-cas", sync.RecTypeNote, "n1")
	require.NoError(t, err)
	assert.Equal(t, int64(300), got.UpdatedAt)
	// created_at остается от первой версии
	assert.Equal(t, int64(200), got.CreatedAt)
}

func TestSyncRepository_ConcurrentUpserts(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	// Конкурирующие merge одного ключа сериализует БД: выживает
	// версия с наибольшим updated_at независимо от порядка прихода.
	const writers = 8
	done := make(chan error, writers)
	for i := 0; i < writers; i++ {
		ts := int64(1000 + i*10)
		go func(ts int64) {
			done <- repo.Upsert(ctx, intRec("it-owner-race", "n1", ts, fmt.Sprintf("w%d", ts)))
		}(ts)
	}

	staleCount := 0
	for i := 0; i < writers; i++ {
		if err := <-done; err != nil {
			require.ErrorIs(t, err, sync.ErrStale)
			staleCount++
		}
	}

	got, err := repo.Get(ctx, "it-owner-race", sync.RecTypeNote, "n1")
	require.NoError(t, err)
	assert.Equal(t, int64(1070), got.UpdatedAt)
	assert.Less(t, staleCount, writers)
}

func TestSyncRepository_ChangedSinceOrdering(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, intRec("it-owner-order", "b", 300, "b")))
	require.NoError(t, repo.Upsert(ctx, intRec("it-owner-order", "c", 100, "c")))
	require.NoError(t, repo.Upsert(ctx, intRec("it-owner-order", "a", 300, "a")))

	records, err := repo.ChangedSince(ctx, "it-owner-order", sync.RecTypeNote, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	// (updated_at, id): c@100, затем a и b с одинаковым updated_at по id
	assert.Equal(t, "c", records[0].ID)
	assert.Equal(t, "a", records[1].ID)
	assert.Equal(t, "b", records[2].ID)

	records, err = repo.ChangedSince(ctx, "it-owner-order", sync.RecTypeNote, 100)
	require.NoError(t, err)
	require.Len(t, records, 2)

	records, err = repo.ChangedSince(ctx, "it-owner-order", sync.RecTypeNote, 300)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSyncRepository_OwnerIsolation(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, intRec("it-owner-a", "n1", 100, "mine")))

	records, err := repo.ChangedSince(ctx, "it-owner-b", sync.RecTypeNote, 0)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = repo.Get(ctx, "it-owner-b", sync.RecTypeNote, "n1")
	assert.ErrorIs(t, err, sync.ErrNotFound)
}

func TestSyncRepository_CursorMonotonic(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	cursor, err := repo.GetCursor(ctx, "it-owner-cursor", sync.RecTypeNote)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cursor)

	require.NoError(t, repo.SetCursor(ctx, "it-owner-cursor", sync.RecTypeNote, 500))

	// Откат назад отклоняется, повтор того же значения — нет
	assert.ErrorIs(t, repo.SetCursor(ctx, "it-owner-cursor", sync.RecTypeNote, 400), sync.ErrCursorRegression)
	assert.NoError(t, repo.SetCursor(ctx, "it-owner-cursor", sync.RecTypeNote, 500))

	cursor, err = repo.GetCursor(ctx, "it-owner-cursor", sync.RecTypeNote)
	require.NoError(t, err)
	assert.Equal(t, int64(500), cursor)
}
