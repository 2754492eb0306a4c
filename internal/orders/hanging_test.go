package orders

import (
	"math"
	"testing"
)

func TestHangingTrackerRegisterAndForget(t *testing.T) {
	tracker := NewHangingTracker(0.1)
	tracker.MarkPotential("1")
	if !tracker.IsPotentialHanging("1") {
		t.Fatalf("expected potential hanging order")
	}
	tracker.Register("1", 100)
	if !tracker.IsHanging("1") {
		t.Fatalf("expected hanging order after register")
	}
	if tracker.IsPotentialHanging("1") {
		t.Fatalf("expected register to clear the potential flag")
	}
	tracker.Forget("1")
	if tracker.IsHanging("1") {
		t.Fatalf("expected forgotten order to be gone")
	}
}

func TestHangingTrackerProcessTickCancelsDrifted(t *testing.T) {
	tracker := NewHangingTracker(0.1)
	tracker.Register("near", 95)
	tracker.Register("far", 150)

	drifted := tracker.ProcessTick(100)
	if len(drifted) != 1 || drifted[0] != "far" {
		t.Fatalf("expected only the drifted order cancelled, got %v", drifted)
	}
	if tracker.IsHanging("far") {
		t.Fatalf("expected drifted order dropped from the set")
	}
	if !tracker.IsHanging("near") {
		t.Fatalf("expected in-tolerance order kept")
	}
}

func TestHangingTrackerProcessTickSkipsBadPrice(t *testing.T) {
	tracker := NewHangingTracker(0.1)
	tracker.Register("1", 100)
	if ids := tracker.ProcessTick(0); ids != nil {
		t.Fatalf("expected no cancels on zero price, got %v", ids)
	}
	if ids := tracker.ProcessTick(math.NaN()); ids != nil {
		t.Fatalf("expected no cancels on NaN price, got %v", ids)
	}
}
