package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/orchidcommerce/orchidbe/internal/domain"
	"github.com/orchidcommerce/orchidbe/internal/messaging/kafka"
	"github.com/orchidcommerce/orchidbe/internal/storage/memory"
)

type stubCatalog struct {
	products map[string]domain.ProductRef
}

func (s *stubCatalog) ResolveProduct(_ context.Context, orchidID string) (domain.ProductRef, error) {
	ref, ok := s.products[orchidID]
	if !ok {
		return domain.ProductRef{}, domain.ErrOrchidNotFound
	}
	return ref, nil
}

func (s *stubCatalog) setPrice(orchidID string, priceMinor int64) {
	s.products[orchidID] = domain.ProductRef{ID: orchidID, PriceMinor: priceMinor, Available: true}
}

type failingLineRepository struct {
	domain.OrderLineRepository
	failInsert bool
}

func (r *failingLineRepository) Insert(lines []domain.OrderLine) error {
	if r.failInsert {
		return errors.New("storage unavailable")
	}
	return r.OrderLineRepository.Insert(lines)
}

type engineFixture struct {
	engine  *Engine
	orders  domain.OrderRepository
	lines   domain.OrderLineRepository
	catalog *stubCatalog
	outbox  domain.OutboxRepository
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	catalog := &stubCatalog{products: map[string]domain.ProductRef{}}
	catalog.setPrice("orchid-phal", 150000)
	catalog.setPrice("orchid-cattleya", 120000)

	orders := memory.NewOrderRepository()
	lines := memory.NewOrderLineRepository()
	outbox := memory.NewOutboxRepository()

	return &engineFixture{
		engine:  NewEngine(orders, lines, catalog, outbox, nil, nil),
		orders:  orders,
		lines:   lines,
		catalog: catalog,
		outbox:  outbox,
	}
}

func (f *engineFixture) pendingEvents(t *testing.T) []domain.OutboxMessage {
	t.Helper()
	events, err := f.outbox.PullPending(100)
	if err != nil {
		t.Fatalf("pull pending events: %v", err)
	}
	return events
}

func ownerIdentity() domain.Identity {
	return domain.NewIdentity("acc-owner", domain.RoleUser)
}

func adminIdentity() domain.Identity {
	return domain.NewIdentity("acc-admin", domain.RoleAdmin)
}

func TestCreateOrderComputesTotalOnServer(t *testing.T) {
	f := newEngineFixture(t)

	view, err := f.engine.CreateOrder(context.Background(), ownerIdentity(), []LineRequest{
		{OrchidID: "orchid-phal", Qty: 2},
		{OrchidID: "orchid-cattleya", Qty: 1},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if view.TotalMinor != 420000 {
		t.Fatalf("expected total 420000, got %d", view.TotalMinor)
	}
	if view.Status != domain.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", view.Status)
	}
	if view.OwnerID != "acc-owner" {
		t.Fatalf("unexpected owner: %s", view.OwnerID)
	}
	if len(view.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(view.Lines))
	}

	// позиции сохраняют порядок запроса и снимок цены каталога
	if view.Lines[0].OrchidID != "orchid-phal" || view.Lines[0].PriceMinor != 150000 {
		t.Fatalf("unexpected first line: %+v", view.Lines[0])
	}
	if view.Lines[1].OrchidID != "orchid-cattleya" || view.Lines[1].PriceMinor != 120000 {
		t.Fatalf("unexpected second line: %+v", view.Lines[1])
	}

	stored, err := f.orders.Get(view.ID)
	if err != nil {
		t.Fatalf("load stored order: %v", err)
	}
	if stored.TotalMinor != 420000 {
		t.Fatalf("stored total mismatch: %d", stored.TotalMinor)
	}
	if stored.Version != 1 {
		t.Fatalf("expected version 1 after total recompute, got %d", stored.Version)
	}

	events := f.pendingEvents(t)
	if len(events) != 1 || events[0].EventType != string(kafka.EventTypeOrderCreated) {
		t.Fatalf("expected one OrderCreated event, got %+v", events)
	}
}

func TestCreateOrderEventPayloadIsOrderEvent(t *testing.T) {
	f := newEngineFixture(t)

	view, err := f.engine.CreateOrder(context.Background(), ownerIdentity(), []LineRequest{
		{OrchidID: "orchid-phal", Qty: 2},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	events := f.pendingEvents(t)
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}

	var event kafka.OrderEvent
	if err := json.Unmarshal(events[0].Payload, &event); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if event.EventType != kafka.EventTypeOrderCreated {
		t.Fatalf("unexpected event type: %q", event.EventType)
	}
	if event.OrderID != view.ID || event.OwnerID != "acc-owner" {
		t.Fatalf("unexpected event identity: %+v", event)
	}
	if event.Status != string(domain.OrderStatusPending) {
		t.Fatalf("unexpected event status: %q", event.Status)
	}
	if event.Timestamp.IsZero() {
		t.Fatal("event timestamp must be set")
	}
	if event.Metadata["total_minor"] != float64(300000) {
		t.Fatalf("unexpected metadata: %+v", event.Metadata)
	}
}

func TestCreateOrderRequiresIdentity(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.CreateOrder(context.Background(), domain.Identity{}, []LineRequest{
		{OrchidID: "orchid-phal", Qty: 1},
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateOrderValidatesLines(t *testing.T) {
	f := newEngineFixture(t)

	cases := []struct {
		name     string
		requests []LineRequest
		want     error
	}{
		{"empty cart", nil, domain.ErrLinesRequired},
		{"missing orchid", []LineRequest{{OrchidID: "", Qty: 1}}, domain.ErrLineOrchidRequired},
		{"zero qty", []LineRequest{{OrchidID: "orchid-phal", Qty: 0}}, domain.ErrLineQtyInvalid},
		{"negative qty", []LineRequest{{OrchidID: "orchid-phal", Qty: -2}}, domain.ErrLineQtyInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.CreateOrder(context.Background(), ownerIdentity(), tc.requests)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateOrderUnknownProductLeavesNoTrace(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.CreateOrder(context.Background(), ownerIdentity(), []LineRequest{
		{OrchidID: "orchid-phal", Qty: 1},
		{OrchidID: "orchid-ghost", Qty: 1},
	})
	if !errors.Is(err, domain.ErrOrchidNotFound) {
		t.Fatalf("expected ErrOrchidNotFound, got %v", err)
	}

	orders, err := f.orders.ListAll()
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("expected no persisted orders, got %d", len(orders))
	}
}

func TestCreateOrderCompensatesFailedLineInsert(t *testing.T) {
	catalog := &stubCatalog{products: map[string]domain.ProductRef{}}
	catalog.setPrice("orchid-phal", 150000)

	orders := memory.NewOrderRepository()
	lines := &failingLineRepository{OrderLineRepository: memory.NewOrderLineRepository(), failInsert: true}
	engine := NewEngine(orders, lines, catalog, nil, nil, nil)

	_, err := engine.CreateOrder(context.Background(), ownerIdentity(), []LineRequest{
		{OrchidID: "orchid-phal", Qty: 1},
	})
	if err == nil {
		t.Fatal("expected error from failed line insert")
	}

	all, listErr := orders.ListAll()
	if listErr != nil {
		t.Fatalf("list orders: %v", listErr)
	}
	if len(all) != 0 {
		t.Fatalf("expected compensation to remove the order, got %d", len(all))
	}
}

func TestUpdateOrderResnapshotsCatalogPrices(t *testing.T) {
	f := newEngineFixture(t)

	created, err := f.engine.CreateOrder(context.Background(), ownerIdentity(), []LineRequest{
		{OrchidID: "orchid-phal", Qty: 1},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	// каталог подорожал до обновления заказа
	f.catalog.setPrice("orchid-phal", 200000)

	updated, err := f.engine.UpdateOrder(context.Background(), ownerIdentity(), created.ID, []LineRequest{
		{OrchidID: "orchid-phal", Qty: 2},
		{OrchidID: "orchid-cattleya", Qty: 1},
	})
	if err != nil {
		t.Fatalf("update order: %v", err)
	}

	if updated.TotalMinor != 2*200000+120000 {
		t.Fatalf("expected re-snapshotted total, got %d", updated.TotalMinor)
	}
	if len(updated.Lines) != 2 {
		t.Fatalf("expected replaced lines, got %d", len(updated.Lines))
	}

	stored, err := f.lines.ListByOrder(created.ID)
	if err != nil {
		t.Fatalf("list lines: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("old lines must be fully replaced, got %d", len(stored))
	}
}

func TestUpdateOrderRejectsNonPending(t *testing.T) {
	f := newEngineFixture(t)

	created, err := f.engine.CreateOrder(context.Background(), ownerIdentity(), []LineRequest{
		{OrchidID: "orchid-phal", Qty: 1},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := f.engine.PayOrder(context.Background(), ownerIdentity(), created.ID); err != nil {
		t.Fatalf("pay order: %v", err)
	}

	_, err = f.engine.UpdateOrder(context.Background(), ownerIdentity(), created.ID, []LineRequest{
		{OrchidID: "orchid-cattleya", Qty: 1},
	})
	if !errors.Is(err, domain.ErrOrderNotPending) {
		t.Fatalf("expected ErrOrderNotPending, got %v", err)
	}
}

func TestUpdateOrderUnknownOrder(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.UpdateOrder(context.Background(), ownerIdentity(), "order-ghost", []LineRequest{
		{OrchidID: "orchid-phal", Qty: 1},
	})
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestPayOrderRequiresOwner(t *testing.T) {
	f := newEngineFixture(t)

	created, err := f.engine.CreateOrder(context.Background(), ownerIdentity(), []LineRequest{
		{OrchidID: "orchid-phal", Qty: 1},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	stranger := domain.NewIdentity("acc-stranger", domain.RoleUser)
	if _, err := f.engine.PayOrder(context.Background(), stranger, created.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for stranger, got %v", err)
	}

	view, err := f.engine.PayOrder(context.Background(), ownerIdentity(), created.ID)
	if err != nil {
		t.Fatalf("pay order: %v", err)
	}
	if view.Status != domain.OrderStatusCompleted {
		t.Fatalf("expected completed, got %s", view.Status)
	}
}

func TestPayOrderTwiceFails(t *testing.T) {
	f := newEngineFixture(t)

	created, err := f.engine.CreateOrder(context.Background(), ownerIdentity(), []LineRequest{
		{OrchidID: "orchid-phal", Qty: 1},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := f.engine.PayOrder(context.Background(), ownerIdentity(), created.ID); err != nil {
		t.Fatalf("first pay: %v", err)
	}

	_, err = f.engine.PayOrder(context.Background(), ownerIdentity(), created.ID)
	if !errors.Is(err, domain.ErrOrderNotPending) {
		t.Fatalf("expected ErrOrderNotPending on double pay, got %v", err)
	}
}

func TestCancelOrderIgnoresCurrentStatus(t *testing.T) {
	f := newEngineFixture(t)

	created, err := f.engine.CreateOrder(context.Background(), ownerIdentity(), []LineRequest{
		{OrchidID: "orchid-phal", Qty: 1},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := f.engine.PayOrder(context.Background(), ownerIdentity(), created.ID); err != nil {
		t.Fatalf("pay order: %v", err)
	}

	// отмена завершённого заказа проходит: статусная проверка отсутствует
	if err := f.engine.CancelOrder(context.Background(), ownerIdentity(), created.ID); err != nil {
		t.Fatalf("cancel completed order: %v", err)
	}

	stored, err := f.orders.Get(created.ID)
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	if stored.Status != domain.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", stored.Status)
	}

	// позиции отменённого заказа сохраняются
	lines, err := f.lines.ListByOrder(created.ID)
	if err != nil {
		t.Fatalf("list lines: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected lines to survive cancellation, got %d", len(lines))
	}
}

func TestGetOrderAuthorization(t *testing.T) {
	f := newEngineFixture(t)

	created, err := f.engine.CreateOrder(context.Background(), ownerIdentity(), []LineRequest{
		{OrchidID: "orchid-phal", Qty: 1},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if _, err := f.engine.GetOrder(context.Background(), ownerIdentity(), created.ID); err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if _, err := f.engine.GetOrder(context.Background(), adminIdentity(), created.ID); err != nil {
		t.Fatalf("admin get: %v", err)
	}

	stranger := domain.NewIdentity("acc-stranger", domain.RoleUser)
	if _, err := f.engine.GetOrder(context.Background(), stranger, created.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for stranger, got %v", err)
	}
}

func TestListAllOrdersAdminOnly(t *testing.T) {
	f := newEngineFixture(t)

	if _, err := f.engine.ListAllOrders(context.Background(), ownerIdentity()); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-admin, got %v", err)
	}

	for i := 0; i < 3; i++ {
		owner := domain.NewIdentity(fmt.Sprintf("acc-%d", i), domain.RoleUser)
		if _, err := f.engine.CreateOrder(context.Background(), owner, []LineRequest{
			{OrchidID: "orchid-phal", Qty: 1},
		}); err != nil {
			t.Fatalf("create order %d: %v", i, err)
		}
	}

	views, err := f.engine.ListAllOrders(context.Background(), adminIdentity())
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(views))
	}
}

func TestListOrdersForCallerFiltersByOwner(t *testing.T) {
	f := newEngineFixture(t)

	other := domain.NewIdentity("acc-other", domain.RoleUser)
	if _, err := f.engine.CreateOrder(context.Background(), other, []LineRequest{{OrchidID: "orchid-phal", Qty: 1}}); err != nil {
		t.Fatalf("create other order: %v", err)
	}
	if _, err := f.engine.CreateOrder(context.Background(), ownerIdentity(), []LineRequest{{OrchidID: "orchid-cattleya", Qty: 1}}); err != nil {
		t.Fatalf("create own order: %v", err)
	}

	views, err := f.engine.ListOrdersForCaller(context.Background(), ownerIdentity())
	if err != nil {
		t.Fatalf("list caller orders: %v", err)
	}
	if len(views) != 1 || views[0].OwnerID != "acc-owner" {
		t.Fatalf("unexpected caller orders: %+v", views)
	}

	if _, err := f.engine.ListOrdersForCaller(context.Background(), domain.Identity{}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for anonymous, got %v", err)
	}
}

func TestLifecycleEmitsOutboxEvents(t *testing.T) {
	f := newEngineFixture(t)

	created, err := f.engine.CreateOrder(context.Background(), ownerIdentity(), []LineRequest{
		{OrchidID: "orchid-phal", Qty: 1},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := f.engine.PayOrder(context.Background(), ownerIdentity(), created.ID); err != nil {
		t.Fatalf("pay order: %v", err)
	}
	if err := f.engine.CancelOrder(context.Background(), ownerIdentity(), created.ID); err != nil {
		t.Fatalf("cancel order: %v", err)
	}

	events := f.pendingEvents(t)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	wantTypes := []string{
		string(kafka.EventTypeOrderCreated),
		string(kafka.EventTypeOrderCompleted),
		string(kafka.EventTypeOrderCancelled),
	}
	for i, want := range wantTypes {
		if events[i].EventType != want {
			t.Fatalf("event %d: expected %s, got %s", i, want, events[i].EventType)
		}
		if events[i].AggregateID != created.ID {
			t.Fatalf("event %d carries wrong aggregate: %s", i, events[i].AggregateID)
		}
	}
}
