package strategy

import (
	"math"
	"testing"
	"time"
)

var epoch = time.Unix(1_700_000_000, 0)

func TestNewSchedulerStateStartsUnarmed(t *testing.T) {
	s := NewSchedulerState()
	if !s.ShouldBuildProposal(epoch) {
		t.Fatalf("expected zero timers to allow proposal building")
	}
	if !math.IsNaN(s.LastOwnTradePrice) {
		t.Fatalf("expected NaN last own trade price, got %f", s.LastOwnTradePrice)
	}
}

func TestArmTimersSetsRefreshDeadline(t *testing.T) {
	s := NewSchedulerState()
	s.ArmTimers(epoch, 30*time.Second)
	want := epoch.Add(30 * time.Second)
	if !s.CreateAt.Equal(want) {
		t.Fatalf("expected create at %v, got %v", want, s.CreateAt)
	}
	if s.CancelAt.After(s.CreateAt) {
		t.Fatalf("cancel deadline %v lags behind create deadline %v", s.CancelAt, s.CreateAt)
	}
	if s.ShouldBuildProposal(epoch.Add(time.Second)) {
		t.Fatalf("expected building gated until refresh elapses")
	}
	if !s.ShouldBuildProposal(want) {
		t.Fatalf("expected building allowed at the deadline")
	}
}

func TestArmTimersKeepsLaterDeadline(t *testing.T) {
	s := NewSchedulerState()
	later := epoch.Add(5 * time.Minute)
	s.CreateAt = later
	s.ArmTimers(epoch, 30*time.Second)
	if !s.CreateAt.Equal(later) {
		t.Fatalf("expected already-armed deadline kept, got %v", s.CreateAt)
	}
}

func TestApplyBuyFillPushesCooldown(t *testing.T) {
	// Scenario: buy fills at t=1000 with a 60s cooldown.
	s := NewSchedulerState()
	now := time.Unix(1000, 0)
	s.CancelAt = now.Add(5 * time.Minute)
	s.ApplyBuyFill(now, 123.45, 60*time.Second)
	want := time.Unix(1060, 0)
	if !s.CreateAt.Equal(want) {
		t.Fatalf("expected create at %v, got %v", want, s.CreateAt)
	}
	if s.CancelAt.After(s.CreateAt) {
		t.Fatalf("expected cancel clamped to create, got %v > %v", s.CancelAt, s.CreateAt)
	}
	if s.FilledBuys != 1 || s.FilledSells != 0 {
		t.Fatalf("expected one filled buy, got %d/%d", s.FilledBuys, s.FilledSells)
	}
	if s.LastOwnTradePrice != 123.45 {
		t.Fatalf("expected last own trade price 123.45, got %f", s.LastOwnTradePrice)
	}
}

func TestApplySellFillCountsSells(t *testing.T) {
	s := NewSchedulerState()
	s.ApplySellFill(epoch, 99, time.Minute)
	if s.FilledSells != 1 || s.FilledBuys != 0 {
		t.Fatalf("expected one filled sell, got %d/%d", s.FilledSells, s.FilledBuys)
	}
}

func TestCooldownOverridesLaterRefresh(t *testing.T) {
	s := NewSchedulerState()
	s.ArmTimers(epoch, 10*time.Minute)
	s.ApplyBuyFill(epoch.Add(time.Second), 100, time.Minute)
	want := epoch.Add(time.Second).Add(time.Minute)
	if !s.CreateAt.Equal(want) {
		t.Fatalf("expected cooldown to win over refresh, got %v", s.CreateAt)
	}
}

func TestShouldSubmitGates(t *testing.T) {
	s := NewSchedulerState()
	now := epoch

	if !s.ShouldSubmit(now, true, 0, 0, true) {
		t.Fatalf("expected submit allowed with clean state")
	}
	if s.ShouldSubmit(now, false, 0, 0, true) {
		t.Fatalf("expected submit blocked without a proposal")
	}
	if s.ShouldSubmit(now, true, 0, 2, true) {
		t.Fatalf("expected submit blocked with active non-exempt orders")
	}
	if s.ShouldSubmit(now, true, 1, 0, true) {
		t.Fatalf("expected submit blocked with in-flight cancels")
	}
	if !s.ShouldSubmit(now, true, 1, 0, false) {
		t.Fatalf("expected submit allowed when not waiting on cancel confirmation")
	}

	s.CreateAt = now
	if s.ShouldSubmit(now, true, 0, 0, true) {
		t.Fatalf("expected submit blocked until strictly past the create deadline")
	}
	if !s.ShouldSubmit(now.Add(time.Millisecond), true, 0, 0, true) {
		t.Fatalf("expected submit allowed past the create deadline")
	}
}
