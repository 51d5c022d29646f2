package domain

// RoleAdmin — административная роль; снимает ограничение «только владелец»
// на операциях чтения заказов.
const RoleAdmin = "ADMIN"

// RoleUser — роль по умолчанию для зарегистрированных аккаунтов.
const RoleUser = "USER"

// Identity — аутентифицированный вызывающий. Передаётся явным параметром
// в каждую операцию ядра; из глобального контекста идентичность не читается.
type Identity struct {
	ID    string
	Roles map[string]struct{}
}

// NewIdentity собирает Identity из списка ролей.
func NewIdentity(id string, roles ...string) Identity {
	set := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		set[role] = struct{}{}
	}
	return Identity{ID: id, Roles: set}
}

// HasRole проверяет наличие роли у вызывающего.
func (i Identity) HasRole(role string) bool {
	_, ok := i.Roles[role]
	return ok
}

// IsZero сообщает, что идентичность не была установлена.
func (i Identity) IsZero() bool {
	return i.ID == ""
}
