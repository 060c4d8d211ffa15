// cmd/client/cmd/item/list.go
package item

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"studysync/cmd/client/cmd/types"
	"studysync/internal/app/client"
	"studysync/internal/domain/sync"
)

var (
	listType   string
	listFormat string
)

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Список записей",
	Long: `Просмотр локальных записей с фильтрацией по типу.

Зеленые записи синхронизированы с сервером, желтые ожидают отправки.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		items, err := app.ListItems(sync.RecType(listType))
		if err != nil {
			return fmt.Errorf("ошибка получения списка записей: %w", err)
		}

		switch listFormat {
		case "json":
			return printItemsJSON(items)
		default:
			return printItemsSimple(items)
		}
	},
}

func printItemsSimple(items []*client.LocalItem) error {
	if len(items) == 0 {
		fmt.Println("Записи не найдены")
		return nil
	}

	synced := color.New(color.FgGreen)
	pending := color.New(color.FgYellow)

	fmt.Printf("Найдено записей: %d\n\n", len(items))

	for i, item := range items {
		title := itemTitle(item)

		line := fmt.Sprintf("%d. [%s] %s", i+1, item.Type, title)
		if item.Dirty {
			pending.Printf("%s (ожидает отправки)\n", line)
		} else {
			synced.Println(line)
		}

		fmt.Printf("   ID: %s | Обновлено: %s\n\n",
			item.ID,
			time.UnixMilli(item.UpdatedAt).Format("2006-01-02 15:04:05"))
	}

	return nil
}

func printItemsJSON(items []*client.LocalItem) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(items)
}

func itemTitle(item *client.LocalItem) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(item.Payload, &payload); err != nil {
		return "Без названия"
	}

	if deleted, ok := payload["deleted"].(bool); ok && deleted {
		return "(удалена)"
	}

	for _, key := range []string{"title", "name", "front", "text"} {
		if v, ok := payload[key].(string); ok && v != "" {
			return truncate(v, 40)
		}
	}

	return "Без названия"
}

func truncate(s string, length int) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}
	return string(runes[:length-3]) + "..."
}

func init() {
	ListCmd.Flags().StringVarP(&listType, "type", "t", "", "фильтр по типу записи")
	ListCmd.Flags().StringVarP(&listFormat, "format", "f", "simple", "формат вывода (simple, json)")
}
