package strategy

import (
	"testing"
	"time"
)

func TestStaleOrderIDsAllFresh(t *testing.T) {
	now := time.Unix(2000, 0)
	orders := []RestingOrder{
		{ID: "a", CreatedAt: now.Add(-10 * time.Second)},
		{ID: "b", CreatedAt: now.Add(-20 * time.Second)},
	}
	if ids := StaleOrderIDs(orders, now, 30*time.Second); len(ids) != 0 {
		t.Fatalf("expected no cancellations, got %v", ids)
	}
}

func TestStaleOrderIDsCancelsEverything(t *testing.T) {
	now := time.Unix(2000, 0)
	orders := []RestingOrder{
		{ID: "a", CreatedAt: now.Add(-10 * time.Second)},
		{ID: "b", CreatedAt: now.Add(-45 * time.Second)},
	}
	ids := StaleOrderIDs(orders, now, 30*time.Second)
	if len(ids) != 2 {
		t.Fatalf("expected all orders cancelled, got %v", ids)
	}
}

func TestStaleOrderIDsUnknownAgeNeverStale(t *testing.T) {
	now := time.Unix(2000, 0)
	orders := []RestingOrder{
		{ID: "paper"},
		{ID: "b", CreatedAt: now.Add(-5 * time.Second)},
	}
	if ids := StaleOrderIDs(orders, now, 30*time.Second); len(ids) != 0 {
		t.Fatalf("expected undefined-age orders to never trip the sweep, got %v", ids)
	}
}

func TestOrderAge(t *testing.T) {
	now := time.Unix(2000, 0)
	age, ok := OrderAge(RestingOrder{ID: "a", CreatedAt: now.Add(-7 * time.Second)}, now)
	if !ok || age != 7*time.Second {
		t.Fatalf("expected age 7s, got %v (ok=%v)", age, ok)
	}
	if _, ok := OrderAge(RestingOrder{ID: "paper"}, now); ok {
		t.Fatalf("expected undefined age for zero CreatedAt")
	}
}
