package orders

import (
	"math"
	"sort"
	"sync"
)

// HangingTracker owns the set of orders exempted from the normal
// refresh/cancel cycle. A hanging order still gets cancelled once its price
// drifts beyond the cancel tolerance (a fraction of the reference price).
type HangingTracker struct {
	mu              sync.Mutex
	cancelTolerance float64
	hanging         map[string]float64
	potential       map[string]struct{}
}

func NewHangingTracker(cancelTolerance float64) *HangingTracker {
	return &HangingTracker{
		cancelTolerance: cancelTolerance,
		hanging:         make(map[string]float64),
		potential:       make(map[string]struct{}),
	}
}

func (t *HangingTracker) Register(id string, price float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hanging[id] = price
	delete(t.potential, id)
}

func (t *HangingTracker) IsHanging(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.hanging[id]
	return ok
}

func (t *HangingTracker) MarkPotential(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.potential[id] = struct{}{}
}

func (t *HangingTracker) IsPotentialHanging(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.potential[id]
	return ok
}

func (t *HangingTracker) Forget(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.hanging, id)
	delete(t.potential, id)
}

// ProcessTick returns hanging ids whose price drifted past the cancel
// tolerance relative to refPrice and drops them from the set. The caller is
// expected to issue the cancels.
func (t *HangingTracker) ProcessTick(refPrice float64) []string {
	if refPrice <= 0 || math.IsNaN(refPrice) {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	var drifted []string
	for id, price := range t.hanging {
		if math.Abs(price-refPrice)/refPrice > t.cancelTolerance {
			drifted = append(drifted, id)
		}
	}
	for _, id := range drifted {
		delete(t.hanging, id)
	}
	sort.Strings(drifted)
	return drifted
}

func (t *HangingTracker) IDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.hanging))
	for id := range t.hanging {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
