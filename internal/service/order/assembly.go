package order

import (
	"time"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

// OrderLineView — позиция заказа в читаемой модели.
type OrderLineView struct {
	ID         string `json:"id"`
	OrderID    string `json:"order_id"`
	OrchidID   string `json:"orchid_id"`
	Qty        int32  `json:"quantity"`
	PriceMinor int64  `json:"price_minor"`
}

// OrderView — заказ, собранный вместе со своими позициями.
type OrderView struct {
	ID         string             `json:"id"`
	TotalMinor int64              `json:"total_minor"`
	OrderDate  time.Time          `json:"order_date"`
	Status     domain.OrderStatus `json:"status"`
	OwnerID    string             `json:"owner_id"`
	Lines      []OrderLineView    `json:"lines"`
}

// AssembleOrderView соединяет строку заказа с его позициями. Это чистый
// маппер: существование заказа проверяет вызывающая операция, не сборка.
func AssembleOrderView(order domain.Order, lines []domain.OrderLine) OrderView {
	lineViews := make([]OrderLineView, 0, len(lines))
	for _, line := range lines {
		lineViews = append(lineViews, OrderLineView{
			ID:         line.ID,
			OrderID:    line.OrderID,
			OrchidID:   line.OrchidID,
			Qty:        line.Qty,
			PriceMinor: line.PriceMinor,
		})
	}

	return OrderView{
		ID:         order.ID,
		TotalMinor: order.TotalMinor,
		OrderDate:  order.OrderDate,
		Status:     order.Status,
		OwnerID:    order.OwnerID,
		Lines:      lineViews,
	}
}
