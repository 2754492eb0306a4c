package strategy

import (
	"math"
	"time"
)

// SchedulerState gates order creation against wall-clock time. It is owned
// by a single strategy instance and mutated only from the app event loop, so
// ticks and fill callbacks never race on it.
type SchedulerState struct {
	CreateAt          time.Time
	CancelAt          time.Time
	LastOwnTradePrice float64
	FilledBuys        int
	FilledSells       int
}

func NewSchedulerState() *SchedulerState {
	return &SchedulerState{LastOwnTradePrice: math.NaN()}
}

func (s *SchedulerState) ShouldBuildProposal(now time.Time) bool {
	return !s.CreateAt.After(now)
}

// ShouldSubmit decides whether this tick's proposal may go to the venue.
// waitForCancel withholds submission while cancel requests are still in
// flight so balances are not double-counted.
func (s *SchedulerState) ShouldSubmit(now time.Time, hasProposal bool, inFlightCancels, activeNonExempt int, waitForCancel bool) bool {
	if !s.CreateAt.Before(now) {
		return false
	}
	if waitForCancel && inFlightCancels > 0 {
		return false
	}
	return hasProposal && activeNonExempt == 0
}

// ArmTimers runs after a successful submission. The next creation cycle
// cannot fire before the refresh period elapses, and the cancel deadline
// never lags behind the create deadline.
func (s *SchedulerState) ArmTimers(now time.Time, refresh time.Duration) {
	next := now.Add(refresh)
	if !s.CreateAt.After(now) {
		s.CreateAt = next
	}
	if !s.CancelAt.After(now) {
		s.CancelAt = minTime(s.CreateAt, next)
	}
}

// ApplyBuyFill records a completed buy and pushes the post-fill cooldown.
// The cooldown always wins over a previously scheduled, possibly later,
// refresh deadline.
func (s *SchedulerState) ApplyBuyFill(now time.Time, price float64, cooldown time.Duration) {
	s.applyFill(now, price, cooldown)
	s.FilledBuys++
}

func (s *SchedulerState) ApplySellFill(now time.Time, price float64, cooldown time.Duration) {
	s.applyFill(now, price, cooldown)
	s.FilledSells++
}

func (s *SchedulerState) applyFill(now time.Time, price float64, cooldown time.Duration) {
	s.CreateAt = now.Add(cooldown)
	if s.CancelAt.After(s.CreateAt) {
		s.CancelAt = s.CreateAt
	}
	s.LastOwnTradePrice = price
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
