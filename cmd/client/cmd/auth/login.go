// cmd/client/cmd/auth/login.go
package auth

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"studysync/cmd/client/cmd/types"
	"studysync/internal/app/client"
	"studysync/internal/domain/user"
)

var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Войти в систему StudySync",
	Long: `Аутентификация на сервере StudySync.

После входа токен сохраняется локально, затем выполняется первая
синхронизация данных.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		fmt.Println("=== Вход в систему ===")
		fmt.Println()

		fmt.Print("Логин: ")
		var login string
		_, _ = fmt.Scanln(&login)

		fmt.Print("Пароль: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("ошибка чтения пароля: %w", err)
		}
		fmt.Println()

		fmt.Println("Аутентификация...")
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if _, err := app.Login(ctx, user.BaseRequest{
			Login:    login,
			Password: string(password),
		}); err != nil {
			return fmt.Errorf("ошибка аутентификации: %w", err)
		}

		fmt.Println()
		fmt.Println("✅ Вход выполнен успешно!")

		fmt.Println("Синхронизация данных...")
		result, err := app.Sync(ctx)
		if err != nil {
			fmt.Printf("⚠️  Предупреждение: ошибка синхронизации: %v\n", err)
			fmt.Println("Вы можете продолжить работу в офлайн-режиме")
		} else if !result.Success {
			fmt.Printf("⚠️  Синхронизация завершена с ошибками (%d)\n", len(result.Errors))
		} else {
			fmt.Printf("✓ Данные синхронизированы: отправлено %d, получено %d\n",
				result.Uploaded, result.Downloaded)
		}

		return nil
	},
}
