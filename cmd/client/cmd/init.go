// cmd/client/cmd/init.go
package cmd

import (
	"fmt"

	"studysync/cmd/client/cmd/auth"
	"studysync/cmd/client/cmd/item"
	"studysync/cmd/client/cmd/profile"
	"studysync/cmd/client/cmd/sync"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Инициализировать клиент StudySync",
	Long: `Команда init выполняет первоначальную настройку клиента:
	1. Создает локальное хранилище данных
	2. Проверяет соединение с сервером`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if app.IsInitialized() {
			fmt.Println("Клиент уже инициализирован.")
			return nil
		}

		fmt.Println("=== Инициализация StudySync ===")
		fmt.Println()

		fmt.Println("Создание локального хранилища...")
		if err := app.InitStorage(); err != nil {
			return fmt.Errorf("ошибка инициализации хранилища: %w", err)
		}

		fmt.Println("Проверка соединения с сервером...")
		if err := app.CheckConnection(); err != nil {
			fmt.Printf("⚠️  Предупреждение: не удалось подключиться к серверу: %v\n", err)
			fmt.Println("Вы можете работать в офлайн-режиме, синхронизация запустится при появлении сети.")
		} else {
			fmt.Println("✓ Соединение с сервером установлено")
		}

		fmt.Println()
		fmt.Println("✅ Инициализация успешно завершена!")
		fmt.Println()
		fmt.Println("Что дальше:")
		fmt.Println("1. Зарегистрируйтесь на сервере: studysync auth register")
		fmt.Println("2. Войдите в систему: studysync auth login")
		fmt.Println("3. Создайте первую запись: studysync item add --type note --data '{\"text\":\"...\"}'")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	rootCmd.AddCommand(auth.AuthCmd)
	auth.AuthCmd.AddCommand(auth.RegisterCmd)
	auth.AuthCmd.AddCommand(auth.LoginCmd)

	rootCmd.AddCommand(item.ItemCmd)
	item.ItemCmd.AddCommand(item.AddCmd)
	item.ItemCmd.AddCommand(item.ListCmd)
	item.ItemCmd.AddCommand(item.DeleteCmd)

	rootCmd.AddCommand(profile.ProfileCmd)
	profile.ProfileCmd.AddCommand(profile.SetCmd)
	profile.ProfileCmd.AddCommand(profile.ShowCmd)

	rootCmd.AddCommand(sync.SyncCmd)
}
