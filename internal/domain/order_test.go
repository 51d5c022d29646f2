package domain

import (
	"errors"
	"testing"
)

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCompleted, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusCompleted, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusPending, false},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusCompleted, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusCompleted, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestOrderStatusIsTerminal(t *testing.T) {
	if OrderStatusPending.IsTerminal() || OrderStatusProcessing.IsTerminal() {
		t.Fatal("pending/processing must not be terminal")
	}
	if !OrderStatusCompleted.IsTerminal() || !OrderStatusCancelled.IsTerminal() {
		t.Fatal("completed/cancelled must be terminal")
	}
}

func TestLinesTotalMinor(t *testing.T) {
	lines := []OrderLine{
		{Qty: 2, PriceMinor: 150000},
		{Qty: 1, PriceMinor: 120000},
	}
	if got := LinesTotalMinor(lines); got != 420000 {
		t.Fatalf("expected 420000, got %d", got)
	}

	if got := LinesTotalMinor(nil); got != 0 {
		t.Fatalf("expected 0 for empty lines, got %d", got)
	}
}

func TestValidateInvariants(t *testing.T) {
	order := Order{
		ID:         "order-1",
		OwnerID:    "acc-1",
		Status:     OrderStatusPending,
		TotalMinor: 300000,
	}
	lines := []OrderLine{
		{ID: "line-1", OrderID: "order-1", OrchidID: "orchid-1", Qty: 2, PriceMinor: 150000},
	}

	if errs := order.ValidateInvariants(lines); len(errs) != 0 {
		t.Fatalf("expected valid order, got %v", errs)
	}
}

func TestValidateInvariantsFindsViolations(t *testing.T) {
	order := Order{
		ID:         "order-1",
		OwnerID:    "",
		TotalMinor: 999,
	}
	lines := []OrderLine{
		{ID: "line-1", OrderID: "order-other", OrchidID: "", Qty: 0, PriceMinor: -5},
	}

	errs := order.ValidateInvariants(lines)

	for _, want := range []error{
		ErrOwnerRequired,
		ErrLineOrderMismatch,
		ErrLineOrchidRequired,
		ErrLineQtyInvalid,
		ErrLinePriceInvalid,
		ErrTotalMismatch,
	} {
		found := false
		for _, got := range errs {
			if errors.Is(got, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected %v among violations %v", want, errs)
		}
	}
}

func TestIdentityRoles(t *testing.T) {
	admin := NewIdentity("acc-1", RoleAdmin)
	if !admin.HasRole(RoleAdmin) {
		t.Fatal("expected admin role")
	}
	if admin.HasRole(RoleUser) {
		t.Fatal("unexpected user role")
	}
	if admin.IsZero() {
		t.Fatal("identity with id must not be zero")
	}
	if !(Identity{}).IsZero() {
		t.Fatal("empty identity must be zero")
	}
}
