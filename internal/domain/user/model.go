package user

// User учетная запись владельца данных. ID — стабильный идентификатор,
// которым помечаются все синхронизируемые записи.
type User struct {
	ID       string `json:"id"`
	Login    string `json:"login"`
	Password string `json:"-"`
}

// BaseRequest логин и пароль для регистрации и входа.
type BaseRequest struct {
	Login    string `json:"login" minLength:"3" maxLength:"32"`
	Password string `json:"password" minLength:"8"`
}
