package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/orchidcommerce/orchidbe/internal/domain"
	"github.com/orchidcommerce/orchidbe/internal/messaging/kafka"
	"github.com/orchidcommerce/orchidbe/internal/metrics"
)

// LineRequest — одна позиция корзины во входящем запросе.
// Цена позиций берётся только из каталога, от вызывающего не принимается.
type LineRequest struct {
	OrchidID string
	Qty      int32
}

// Engine реализует жизненный цикл заказа поверх двух независимых хранилищ:
// заказов и их позиций. Кросс-коллекционной транзакции между ними нет,
// поэтому частично неуспешная запись откатывается компенсирующим удалением.
type Engine struct {
	orders  domain.OrderRepository
	lines   domain.OrderLineRepository
	catalog domain.CatalogGateway
	outbox  domain.OutboxRepository
	metrics *metrics.OrderMetrics
	logger  *log.Entry
}

// NewEngine конструирует движок с зависимостями. outbox и metrics опциональны.
func NewEngine(
	orders domain.OrderRepository,
	lines domain.OrderLineRepository,
	catalog domain.CatalogGateway,
	outbox domain.OutboxRepository,
	orderMetrics *metrics.OrderMetrics,
	logger *log.Entry,
) *Engine {
	if logger == nil {
		logger = log.WithField("component", "order-engine")
	}
	return &Engine{
		orders:  orders,
		lines:   lines,
		catalog: catalog,
		outbox:  outbox,
		metrics: orderMetrics,
		logger:  logger,
	}
}

// CreateOrder создаёт заказ из корзины позиций. Цена каждой позиции
// снимается с каталога в момент создания; сумма заказа пересчитывается
// на сервере и записывается в заказ до завершения операции.
func (e *Engine) CreateOrder(ctx context.Context, identity domain.Identity, requests []LineRequest) (OrderView, error) {
	if identity.IsZero() {
		return OrderView{}, domain.ErrForbidden
	}
	if err := validateLineRequests(requests); err != nil {
		return OrderView{}, err
	}

	refs, err := e.resolveProducts(ctx, requests)
	if err != nil {
		return OrderView{}, err
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:         uuid.NewString(),
		OwnerID:    identity.ID,
		Status:     domain.OrderStatusPending,
		TotalMinor: 0,
		OrderDate:  now,
		Version:    0,
		UpdatedAt:  now,
	}

	if err := e.orders.Create(order); err != nil {
		e.logger.WithError(err).Error("failed to create order")
		return OrderView{}, fmt.Errorf("create order: %w", err)
	}

	orderLines := buildLines(order.ID, requests, refs, now)
	if err := e.lines.Insert(orderLines); err != nil {
		e.logger.WithError(err).WithField("order_id", order.ID).Error("failed to insert order lines")
		return OrderView{}, e.compensateCreate(order.ID, err)
	}

	order.TotalMinor = domain.LinesTotalMinor(orderLines)
	order.UpdatedAt = time.Now().UTC()
	if errs := order.ValidateInvariants(orderLines); len(errs) > 0 {
		return OrderView{}, e.compensateCreate(order.ID, errs[0])
	}
	if err := e.orders.Save(order); err != nil {
		e.logger.WithError(err).WithField("order_id", order.ID).Error("failed to persist order total")
		return OrderView{}, e.compensateCreate(order.ID, err)
	}
	order.Version++

	e.emitEvent(order, kafka.EventTypeOrderCreated, map[string]interface{}{
		"total_minor": order.TotalMinor,
		"lines":       len(orderLines),
	})
	if e.metrics != nil {
		e.metrics.RecordOrderCreated()
	}

	return AssembleOrderView(order, orderLines), nil
}

// UpdateOrder заменяет набор позиций заказа целиком. Допустимо только для
// заказов в статусе pending. Цены позиций снимаются с каталога заново:
// заказ в статусе pending следует текущему прайсу до момента оплаты.
func (e *Engine) UpdateOrder(ctx context.Context, identity domain.Identity, orderID string, requests []LineRequest) (OrderView, error) {
	if orderID == "" {
		return OrderView{}, domain.ErrOrderIDRequired
	}
	if err := validateLineRequests(requests); err != nil {
		return OrderView{}, err
	}

	order, err := e.loadOrder(orderID, "UpdateOrder")
	if err != nil {
		return OrderView{}, err
	}
	if order.Status != domain.OrderStatusPending {
		return OrderView{}, domain.ErrOrderNotPending
	}

	// Товары разрешаются до удаления старых позиций: промах каталога
	// не должен оставить заказ без позиций.
	refs, err := e.resolveProducts(ctx, requests)
	if err != nil {
		return OrderView{}, err
	}

	if _, err := e.lines.DeleteByOrder(order.ID); err != nil {
		e.logger.WithError(err).WithField("order_id", order.ID).Error("failed to delete order lines")
		return OrderView{}, fmt.Errorf("delete order lines: %w", err)
	}

	now := time.Now().UTC()
	orderLines := buildLines(order.ID, requests, refs, now)
	if err := e.lines.Insert(orderLines); err != nil {
		e.logger.WithError(err).WithField("order_id", order.ID).Error("failed to insert replacement lines")
		if _, cleanupErr := e.lines.DeleteByOrder(order.ID); cleanupErr != nil {
			return OrderView{}, fmt.Errorf("%w: insert failed and cleanup failed: %v", domain.ErrPersistenceConflict, cleanupErr)
		}
		return OrderView{}, fmt.Errorf("insert order lines: %w", err)
	}

	order.TotalMinor = domain.LinesTotalMinor(orderLines)
	order.UpdatedAt = now
	if err := e.orders.Save(order); err != nil {
		e.logger.WithError(err).WithField("order_id", order.ID).Error("failed to persist recomputed total")
		return OrderView{}, fmt.Errorf("save order: %w", err)
	}
	order.Version++

	e.emitEvent(order, kafka.EventTypeOrderUpdated, map[string]interface{}{
		"total_minor": order.TotalMinor,
		"lines":       len(orderLines),
	})
	if e.metrics != nil {
		e.metrics.RecordOrderUpdated()
	}

	return AssembleOrderView(order, orderLines), nil
}

// PayOrder переводит заказ pending -> completed. Разрешено только владельцу.
func (e *Engine) PayOrder(ctx context.Context, identity domain.Identity, orderID string) (OrderView, error) {
	if orderID == "" {
		return OrderView{}, domain.ErrOrderIDRequired
	}

	order, err := e.loadOrder(orderID, "PayOrder")
	if err != nil {
		return OrderView{}, err
	}
	if order.Status != domain.OrderStatusPending {
		return OrderView{}, domain.ErrOrderNotPending
	}
	if err := requireOwner(identity, order.OwnerID); err != nil {
		return OrderView{}, err
	}
	if !order.Status.CanTransition(domain.OrderStatusCompleted) {
		return OrderView{}, domain.ErrOrderNotPending
	}

	order.Status = domain.OrderStatusCompleted
	order.UpdatedAt = time.Now().UTC()
	if err := e.orders.Save(order); err != nil {
		return OrderView{}, e.mapSaveError(order.ID, "PayOrder", err)
	}
	order.Version++

	e.emitEvent(order, kafka.EventTypeOrderCompleted, nil)
	if e.metrics != nil {
		e.metrics.RecordOrderCompleted()
	}

	orderLines, err := e.lines.ListByOrder(order.ID)
	if err != nil {
		return OrderView{}, fmt.Errorf("load order lines: %w", err)
	}
	return AssembleOrderView(order, orderLines), nil
}

// CancelOrder переводит заказ в cancelled без проверки текущего статуса —
// поведение эталона сохранено намеренно, см. DESIGN.md. Позиции заказа
// не удаляются.
func (e *Engine) CancelOrder(ctx context.Context, identity domain.Identity, orderID string) error {
	if orderID == "" {
		return domain.ErrOrderIDRequired
	}

	order, err := e.loadOrder(orderID, "CancelOrder")
	if err != nil {
		return err
	}

	order.Status = domain.OrderStatusCancelled
	order.UpdatedAt = time.Now().UTC()
	if err := e.orders.Save(order); err != nil {
		return e.mapSaveError(order.ID, "CancelOrder", err)
	}
	order.Version++

	e.emitEvent(order, kafka.EventTypeOrderCancelled, nil)
	if e.metrics != nil {
		e.metrics.RecordOrderCancelled()
	}
	return nil
}

// GetOrder возвращает заказ с позициями. Доступен владельцу и администратору.
func (e *Engine) GetOrder(ctx context.Context, identity domain.Identity, orderID string) (OrderView, error) {
	if orderID == "" {
		return OrderView{}, domain.ErrOrderIDRequired
	}

	order, err := e.loadOrder(orderID, "GetOrder")
	if err != nil {
		return OrderView{}, err
	}
	if err := requireOwnerOrRole(identity, order.OwnerID, domain.RoleAdmin); err != nil {
		return OrderView{}, err
	}

	orderLines, err := e.lines.ListByOrder(order.ID)
	if err != nil {
		return OrderView{}, fmt.Errorf("load order lines: %w", err)
	}
	return AssembleOrderView(order, orderLines), nil
}

// ListAllOrders возвращает все заказы с позициями. Только для администратора.
func (e *Engine) ListAllOrders(ctx context.Context, identity domain.Identity) ([]OrderView, error) {
	if err := requireRole(identity, domain.RoleAdmin); err != nil {
		return nil, err
	}

	orders, err := e.orders.ListAll()
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return e.joinAll(orders)
}

// ListOrdersForCaller возвращает заказы вызывающего с позициями.
func (e *Engine) ListOrdersForCaller(ctx context.Context, identity domain.Identity) ([]OrderView, error) {
	if identity.IsZero() {
		return nil, domain.ErrForbidden
	}

	orders, err := e.orders.ListByOwner(identity.ID)
	if err != nil {
		return nil, fmt.Errorf("list owner orders: %w", err)
	}
	return e.joinAll(orders)
}

func (e *Engine) joinAll(orders []domain.Order) ([]OrderView, error) {
	views := make([]OrderView, 0, len(orders))
	for _, order := range orders {
		orderLines, err := e.lines.ListByOrder(order.ID)
		if err != nil {
			return nil, fmt.Errorf("load order lines: %w", err)
		}
		views = append(views, AssembleOrderView(order, orderLines))
	}
	return views, nil
}

// resolveProducts разрешает каждую позицию через каталог и возвращает
// снимки цен в порядке запроса.
func (e *Engine) resolveProducts(ctx context.Context, requests []LineRequest) ([]domain.ProductRef, error) {
	refs := make([]domain.ProductRef, 0, len(requests))
	for _, req := range requests {
		ref, err := e.catalog.ResolveProduct(ctx, req.OrchidID)
		if err != nil {
			if errors.Is(err, domain.ErrOrchidNotFound) {
				return nil, fmt.Errorf("%w: %s", domain.ErrOrchidNotFound, req.OrchidID)
			}
			return nil, fmt.Errorf("resolve product %s: %w", req.OrchidID, err)
		}
		if ref.PriceMinor < 0 {
			return nil, domain.ErrLinePriceInvalid
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// compensateCreate откатывает частично созданный заказ: удаляет записанные
// позиции и строку заказа. Неуспешная компенсация — конфликт целостности.
func (e *Engine) compensateCreate(orderID string, cause error) error {
	if _, err := e.lines.DeleteByOrder(orderID); err != nil {
		e.logger.WithError(err).WithField("order_id", orderID).Error("compensation failed: delete lines")
		return fmt.Errorf("%w: %v (cause: %v)", domain.ErrPersistenceConflict, err, cause)
	}
	if err := e.orders.Delete(orderID); err != nil && !errors.Is(err, domain.ErrOrderNotFound) {
		e.logger.WithError(err).WithField("order_id", orderID).Error("compensation failed: delete order")
		return fmt.Errorf("%w: %v (cause: %v)", domain.ErrPersistenceConflict, err, cause)
	}
	return fmt.Errorf("create order: %w", cause)
}

func (e *Engine) loadOrder(orderID, operation string) (domain.Order, error) {
	order, err := e.orders.Get(orderID)
	if err == nil {
		return order, nil
	}

	e.logger.WithError(err).WithFields(log.Fields{
		"operation": operation,
		"order_id":  orderID,
	}).Warn("failed to load order")

	if errors.Is(err, domain.ErrOrderNotFound) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return domain.Order{}, fmt.Errorf("load order: %w", err)
}

func (e *Engine) mapSaveError(orderID, operation string, err error) error {
	e.logger.WithError(err).WithFields(log.Fields{
		"operation": operation,
		"order_id":  orderID,
	}).Error("failed to save order")

	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		return domain.ErrOrderNotFound
	case errors.Is(err, domain.ErrOrderVersionConflict):
		return domain.ErrOrderVersionConflict
	default:
		return fmt.Errorf("save order: %w", err)
	}
}

// emitEvent кладет событие заказа в outbox. Payload — сериализованный
// kafka.OrderEvent: это контракт для внешних consumer-ов.
func (e *Engine) emitEvent(order domain.Order, eventType kafka.EventType, metadata map[string]interface{}) {
	if e.outbox == nil {
		return
	}

	event := kafka.NewOrderEvent(eventType, order.ID, order.OwnerID, string(order.Status), metadata)
	event.Timestamp = order.UpdatedAt

	data, err := json.Marshal(event)
	if err != nil {
		e.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"event":    eventType,
		}).Error("marshal event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   order.ID,
		EventType:     string(eventType),
		Payload:       data,
	}
	if _, err := e.outbox.Enqueue(msg); err != nil {
		e.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"event":    eventType,
		}).Error("enqueue event failed")
	} else if e.metrics != nil {
		e.metrics.RecordOutboxEvent()
	}
}

func validateLineRequests(requests []LineRequest) error {
	if len(requests) == 0 {
		return domain.ErrLinesRequired
	}
	for _, req := range requests {
		if req.OrchidID == "" {
			return domain.ErrLineOrchidRequired
		}
		if req.Qty <= 0 {
			return domain.ErrLineQtyInvalid
		}
	}
	return nil
}

func buildLines(orderID string, requests []LineRequest, refs []domain.ProductRef, now time.Time) []domain.OrderLine {
	result := make([]domain.OrderLine, 0, len(requests))
	for i, req := range requests {
		result = append(result, domain.OrderLine{
			ID:         uuid.NewString(),
			OrderID:    orderID,
			OrchidID:   req.OrchidID,
			Qty:        req.Qty,
			PriceMinor: refs[i].PriceMinor,
			Seq:        int32(i),
			CreatedAt:  now,
		})
	}
	return result
}
