package domain

// Role — именованная роль доступа.
type Role struct {
	ID   string
	Name string
}

// Account — учётная запись покупателя или администратора.
type Account struct {
	ID    string
	Name  string
	Email string
	// PasswordHash — bcrypt-хэш пароля; сырой пароль нигде не хранится.
	PasswordHash string
	RoleID       string
}
