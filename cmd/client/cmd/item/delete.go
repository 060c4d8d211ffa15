// cmd/client/cmd/item/delete.go
package item

import (
	"fmt"

	"github.com/spf13/cobra"

	"studysync/cmd/client/cmd/types"
	"studysync/internal/app/client"
	"studysync/internal/domain/sync"
)

var deleteType string

var DeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Удалить запись",
	Long: `Помечает запись удаленной. Удаление распространяется на сервер
и другие устройства при следующей синхронизации.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		if deleteType == "" {
			return fmt.Errorf("укажите тип записи: --type")
		}

		if err := app.DeleteItem(sync.RecType(deleteType), args[0]); err != nil {
			return fmt.Errorf("ошибка удаления записи: %w", err)
		}

		fmt.Printf("✅ Запись %s помечена удаленной\n", args[0])
		return nil
	},
}

func init() {
	DeleteCmd.Flags().StringVarP(&deleteType, "type", "t", "", "тип записи")
}
