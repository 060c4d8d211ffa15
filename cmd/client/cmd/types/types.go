package types

type contextKey string

// ClientAppKey ключ контекста, под которым root-команда кладет
// инициализированное приложение для подкоманд
const ClientAppKey contextKey = "client_app"
