package domain

import "time"

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, оплата ещё не выполнена.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing — зарезервировано диаграммой статусов, ни одна операция его пока не выставляет.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusCompleted — заказ оплачен владельцем; терминальный статус.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled — заказ отменён; терминальный статус.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsTerminal сообщает, является ли статус конечным.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanTransition проверяет допустимость перехода по диаграмме статусов:
// pending -> {processing -> completed | cancelled}.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return to == OrderStatusProcessing || to == OrderStatusCompleted || to == OrderStatusCancelled
	case OrderStatusProcessing:
		return to == OrderStatusCompleted || to == OrderStatusCancelled
	default:
		return false
	}
}

// OrderLine представляет одну позицию заказа.
type OrderLine struct {
	// ID позиции нужен для однозначной идентификации и аудита.
	ID string
	// OrderID — заказ-владелец; не меняется после создания.
	OrderID string
	// OrchidID — идентификатор товара каталога.
	OrchidID string
	// Qty — количество единиц товара.
	Qty int32
	// PriceMinor — снимок цены каталога на момент создания позиции,
	// в минимальных денежных единицах. Последующие изменения цены
	// в каталоге на него не влияют.
	PriceMinor int64
	// Seq сохраняет порядок позиций внутри заказа: все позиции одного
	// запроса создаются в один момент времени.
	Seq int32
	// CreatedAt фиксирует момент добавления позиции в заказ.
	CreatedAt time.Time
}

// Order агрегирует состояние заказа. Позиции хранятся отдельной
// коллекцией и подтягиваются по OrderID.
type Order struct {
	ID         string
	OwnerID    string
	Status     OrderStatus
	TotalMinor int64
	OrderDate  time.Time
	Version    int64
	UpdatedAt  time.Time
}

// LinesTotalMinor считает сумму заказа по позициям: qty * price.
func LinesTotalMinor(lines []OrderLine) int64 {
	var total int64
	for _, line := range lines {
		total += int64(line.Qty) * line.PriceMinor
	}
	return total
}

// ValidateInvariants проверяет базовые инварианты заказа относительно
// его позиций и возвращает список замечаний.
func (o *Order) ValidateInvariants(lines []OrderLine) []error {
	var errs []error

	if o.OwnerID == "" {
		errs = append(errs, ErrOwnerRequired)
	}
	if len(lines) == 0 {
		errs = append(errs, ErrLinesRequired)
	}
	if o.TotalMinor < 0 {
		errs = append(errs, ErrTotalNegative)
	}

	for _, line := range lines {
		if line.OrderID != o.ID {
			errs = append(errs, ErrLineOrderMismatch)
		}
		if line.OrchidID == "" {
			errs = append(errs, ErrLineOrchidRequired)
		}
		if line.Qty <= 0 {
			errs = append(errs, ErrLineQtyInvalid)
		}
		if line.PriceMinor < 0 {
			errs = append(errs, ErrLinePriceInvalid)
		}
	}

	if LinesTotalMinor(lines) != o.TotalMinor {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}
