// cmd/client/cmd/profile/profile.go
package profile

import (
	"github.com/spf13/cobra"
)

var ProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Профиль пользователя",
	Long:  `Просмотр и изменение профиля. Профиль один на учетную запись и синхронизируется как обычная запись.`,
}
