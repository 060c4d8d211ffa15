// cmd/client/cmd/auth/auth.go
package auth

import (
	"github.com/spf13/cobra"
)

var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Аутентификация на сервере StudySync",
	Long: `Команды регистрации и входа.

После входа токен сохраняется локально и используется для
синхронизации.`,
}
