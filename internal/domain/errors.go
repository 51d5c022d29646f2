package domain

import "errors"

var (
	// Ошибка отсутствующего владельца заказа.
	ErrOwnerRequired = errors.New("owner_id is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrLinesRequired = errors.New("order must contain at least one line")
	// Ошибка отрицательной суммы заказа.
	ErrTotalNegative = errors.New("total_minor must be non-negative")
	// Ошибка позиции, ссылающейся на чужой заказ.
	ErrLineOrderMismatch = errors.New("line order_id does not match order")
	// Ошибка позиции без товара каталога.
	ErrLineOrchidRequired = errors.New("line orchid_id is required")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrLineQtyInvalid = errors.New("line qty must be greater than zero")
	// Ошибка, если снимок цены отрицательный.
	ErrLinePriceInvalid = errors.New("line price must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrTotalMismatch = errors.New("order total does not match lines sum")
	// Ошибка отсутствующего идентификатора заказа.
	ErrOrderIDRequired = errors.New("order_id is required")
	// Ошибка товара каталога без имени.
	ErrOrchidNameRequired = errors.New("orchid name is required")
	// Ошибка отрицательной цены товара каталога.
	ErrOrchidPriceInvalid = errors.New("orchid price must be non-negative")
	// Ошибка товара каталога без категории.
	ErrOrchidCategoryRequired = errors.New("orchid category is required")
	// Ошибка категории без имени.
	ErrCategoryNameRequired = errors.New("category name is required")
	// Ошибка роли без имени.
	ErrRoleNameRequired = errors.New("role name is required")

	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrchidNotFound возвращается, если товар не найден в каталоге.
	ErrOrchidNotFound = errors.New("orchid not found")
	// ErrCategoryNotFound возвращается, если категория не найдена.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrAccountNotFound возвращается, если аккаунт не найден.
	ErrAccountNotFound = errors.New("account not found")
	// ErrRoleNotFound возвращается, если роль не найдена.
	ErrRoleNotFound = errors.New("role not found")

	// ErrOrderNotPending сигнализирует о нарушении статусного ограничения:
	// операция допустима только для заказа в статусе pending.
	ErrOrderNotPending = errors.New("order is not in pending status")
	// ErrForbidden — отказ в авторизации: чужой заказ или отсутствующая роль.
	ErrForbidden = errors.New("forbidden")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrPersistenceConflict — частичная запись в два хранилища, которую
	// не удалось откатить компенсирующим удалением.
	ErrPersistenceConflict = errors.New("order persistence conflict")

	// ErrEmailTaken возвращается при регистрации на занятый email.
	ErrEmailTaken = errors.New("email is already registered")
	// ErrInvalidCredentials возвращается при неверной паре email/пароль.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsNotFound проверяет, относится ли ошибка к отсутствующей записи.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrOrchidNotFound) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrRoleNotFound)
}

// IsValidation проверяет, относится ли ошибка к некорректному входу.
func IsValidation(err error) bool {
	for _, candidate := range []error{
		ErrOwnerRequired,
		ErrLinesRequired,
		ErrTotalNegative,
		ErrLineOrderMismatch,
		ErrLineOrchidRequired,
		ErrLineQtyInvalid,
		ErrLinePriceInvalid,
		ErrTotalMismatch,
		ErrOrderIDRequired,
		ErrOrchidNameRequired,
		ErrOrchidPriceInvalid,
		ErrOrchidCategoryRequired,
		ErrCategoryNameRequired,
		ErrRoleNameRequired,
	} {
		if errors.Is(err, candidate) {
			return true
		}
	}
	return false
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}
