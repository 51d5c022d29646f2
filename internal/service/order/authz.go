package order

import "github.com/orchidcommerce/orchidbe/internal/domain"

// Авторизационные проверки выполняются в начале операции и
// параметризуются требуемой ролью либо предикатом владения;
// разрозненных ad hoc проверок внутри операций нет.

// requireRole требует у вызывающего конкретную роль.
func requireRole(identity domain.Identity, role string) error {
	if identity.IsZero() || !identity.HasRole(role) {
		return domain.ErrForbidden
	}
	return nil
}

// requireOwner требует, чтобы вызывающий был владельцем ресурса.
func requireOwner(identity domain.Identity, ownerID string) error {
	if identity.IsZero() || identity.ID != ownerID {
		return domain.ErrForbidden
	}
	return nil
}

// requireOwnerOrRole пропускает владельца ресурса либо носителя роли.
func requireOwnerOrRole(identity domain.Identity, ownerID, role string) error {
	if identity.IsZero() {
		return domain.ErrForbidden
	}
	if identity.ID == ownerID || identity.HasRole(role) {
		return nil
	}
	return domain.ErrForbidden
}
