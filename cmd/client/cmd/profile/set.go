// cmd/client/cmd/profile/set.go
package profile

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"studysync/cmd/client/cmd/types"
	"studysync/internal/app/client"
)

var setData string

var SetCmd = &cobra.Command{
	Use:   "set",
	Short: "Изменить профиль",
	Long: `Замена профиля целиком. Содержимое передается как JSON:
  studysync profile set --data '{"name":"Анна","university":"МГУ","semester":3}'`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		if setData == "" {
			return fmt.Errorf("укажите содержимое профиля: --data")
		}

		if err := app.SetProfile(json.RawMessage(setData)); err != nil {
			return fmt.Errorf("ошибка сохранения профиля: %w", err)
		}

		fmt.Println("✅ Профиль сохранен")
		fmt.Println("Изменения будут отправлены на сервер при следующей синхронизации: studysync sync")

		return nil
	},
}

func init() {
	SetCmd.Flags().StringVarP(&setData, "data", "d", "", "содержимое профиля в формате JSON")
}
