// cmd/client/cmd/item/add.go
package item

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"studysync/cmd/client/cmd/types"
	"studysync/internal/app/client"
	"studysync/internal/domain/sync"
)

var (
	addType string
	addData string
)

var AddCmd = &cobra.Command{
	Use:   "add",
	Short: "Создать запись",
	Long: `Создание новой записи указанного типа.

Содержимое передается как JSON. Примеры:
  studysync item add --type note --data '{"title":"Лекция 3","text":"..."}'
  studysync item add --type flashcard --data '{"front":"вопрос","back":"ответ"}'
  studysync item add --type task --data '{"title":"Эссе","due":"2026-09-15"}'`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		if addType == "" {
			return fmt.Errorf("укажите тип записи: --type")
		}
		if addData == "" {
			return fmt.Errorf("укажите содержимое записи: --data")
		}

		id, err := app.AddItem(sync.RecType(addType), json.RawMessage(addData))
		if err != nil {
			return fmt.Errorf("ошибка создания записи: %w", err)
		}

		fmt.Printf("✅ Запись создана: %s\n", id)
		fmt.Println("Запись будет отправлена на сервер при следующей синхронизации: studysync sync")

		return nil
	},
}

func init() {
	AddCmd.Flags().StringVarP(&addType, "type", "t", "", "тип записи (course, unit, note, flashcard, task, academic_record)")
	AddCmd.Flags().StringVarP(&addData, "data", "d", "", "содержимое записи в формате JSON")
}
