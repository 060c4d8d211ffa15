package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath  = ".env"
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	defaultRunAddress = "localhost:8080"
	defaultMigrations = "migrations"
)

type Config struct {
	Env string
	DB  struct {
		DatabaseURI string `env:"DATABASE_URI"`
		Migrations  string `env:"MIGRATIONS_PATH"`
	}
	Server struct {
		RunAddress string `env:"RUN_ADDRESS"`
	}
	Logger struct {
		LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	}
}

// MustLoad загружает конфигурацию сервера из окружения и .env файла.
func MustLoad() *Config {
	if err := godotenv.Load(envPath); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	viper.AutomaticEnv()
	viper.SetDefault("RUN_ADDRESS", defaultRunAddress)
	viper.SetDefault("MIGRATIONS_PATH", defaultMigrations)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("APP_ENV", EnvLocal)

	config := Config{Env: viper.GetString("APP_ENV")}
	config.DB.DatabaseURI = viper.GetString("DATABASE_URI")
	config.DB.Migrations = viper.GetString("MIGRATIONS_PATH")
	config.Server.RunAddress = viper.GetString("RUN_ADDRESS")
	config.Logger.LogLevel = viper.GetString("LOG_LEVEL")

	return &config
}
