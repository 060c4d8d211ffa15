// cmd/client/cmd/sync/sync.go
package sync

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"studysync/cmd/client/cmd/types"
	"studysync/internal/app/client"
)

var syncStatus bool

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Синхронизация с сервером",
	Long: `Выполняет цикл синхронизации: отправляет локальные изменения и
применяет серверные.

Флаг --status показывает статистику без запуска синхронизации.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		if syncStatus {
			return showSyncStatus(app)
		}

		return runSync(cmd, app)
	},
}

func runSync(cmd *cobra.Command, app *client.App) error {
	fmt.Println("=== Синхронизация данных ===")

	if !app.IsAuthenticated() {
		return fmt.Errorf("требуется аутентификация. Выполните: studysync auth login")
	}

	fmt.Println("Проверка соединения с сервером...")
	if err := app.CheckConnection(); err != nil {
		return fmt.Errorf("сервер недоступен: %w", err)
	}

	fmt.Println("Начало синхронизации...")
	result, err := app.Sync(cmd.Context())
	if err != nil {
		return fmt.Errorf("ошибка синхронизации: %w", err)
	}

	fmt.Println()
	if result.Success {
		color.Green("✅ Синхронизация завершена!")
	} else {
		color.Yellow("⚠️  Синхронизация завершена с ошибками")
	}

	fmt.Printf("Время выполнения: %v\n", result.Duration.Round(time.Millisecond))
	fmt.Printf("Отправлено на сервер: %d записей\n", result.Uploaded)
	fmt.Printf("Получено с сервера: %d записей\n", result.Downloaded)

	if result.Stale > 0 {
		fmt.Printf("Устаревших (на сервере версия новее): %d\n", result.Stale)
	}

	if result.Pending > 0 {
		color.Yellow("Не удалось синхронизировать записей: %d", result.Pending)
		fmt.Println("Они останутся помеченными и уйдут в следующем цикле")
	}

	if len(result.Errors) > 0 {
		fmt.Printf("Ошибок при синхронизации: %d\n", len(result.Errors))
		for i, e := range result.Errors {
			if i == 3 {
				fmt.Printf("  ... и еще %d ошибок\n", len(result.Errors)-3)
				break
			}
			fmt.Printf("  • %s: %s\n", e.Operation, e.Error)
		}
	}

	return nil
}

func showSyncStatus(app *client.App) error {
	fmt.Println("=== Статус синхронизации ===")

	stats := app.GetSyncService().GetStats()

	fmt.Println("📊 Статистика:")
	fmt.Printf("  Всего синхронизаций: %d\n", stats.TotalSyncs)
	fmt.Printf("  Отправлено на сервер: %d записей\n", stats.TotalUploaded)
	fmt.Printf("  Получено с сервера: %d записей\n", stats.TotalDownloaded)
	fmt.Printf("  Устаревших отправок: %d\n", stats.TotalStale)
	fmt.Printf("  Ошибок: %d\n", stats.TotalErrors)

	if !stats.LastSuccessful.IsZero() {
		fmt.Printf("\n⏰ Последняя успешная: %s\n",
			stats.LastSuccessful.Format("2006-01-02 15:04:05"))
	}
	if !stats.LastFailed.IsZero() {
		fmt.Printf("⏰ Последняя неудачная: %s\n",
			stats.LastFailed.Format("2006-01-02 15:04:05"))
	}

	fmt.Printf("\n🌐 Соединение с сервером: ")
	if err := app.CheckConnection(); err != nil {
		color.Red("недоступен: %v", err)
	} else {
		color.Green("OK")
	}

	fmt.Printf("🔐 Аутентификация: ")
	if app.IsAuthenticated() {
		color.Green("выполнена")
	} else {
		color.Red("требуется вход")
	}

	return nil
}

func init() {
	SyncCmd.Flags().BoolVar(&syncStatus, "status", false, "показать статус синхронизации")
}
