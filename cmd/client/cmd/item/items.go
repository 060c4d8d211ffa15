// cmd/client/cmd/item/items.go
package item

import (
	"github.com/spf13/cobra"
)

var ItemCmd = &cobra.Command{
	Use:   "item",
	Short: "Работа с учебными записями",
	Long: `Создание, просмотр и удаление записей: курсов, разделов,
заметок, карточек, задач и академических результатов.

Записи сохраняются локально и попадают на сервер при следующей
синхронизации.`,
}
