// cmd/client/cmd/profile/show.go
package profile

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"studysync/cmd/client/cmd/types"
	"studysync/internal/app/client"
)

var ShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Показать профиль",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		item, err := app.GetProfile()
		if err != nil {
			return fmt.Errorf("ошибка чтения профиля: %w", err)
		}
		if item == nil {
			fmt.Println("Профиль еще не заполнен: studysync profile set --data '{...}'")
			return nil
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, item.Payload, "", "  "); err != nil {
			pretty.Write(item.Payload)
		}
		fmt.Println(pretty.String())

		if item.Dirty {
			color.Yellow("Профиль ожидает отправки на сервер")
		}

		return nil
	},
}
