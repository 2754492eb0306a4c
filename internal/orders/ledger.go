package orders

import (
	"sort"
	"sync"
	"time"

	"rebalance-bot/internal/strategy"
)

type Order struct {
	ID            string
	ClientOrderID string
	Pair          string
	Side          strategy.Side
	Price         float64
	Size          float64
	CreatedAt     time.Time
}

// Ledger tracks the strategy's resting orders plus cancel requests that have
// been sent but not yet confirmed by the venue.
type Ledger struct {
	mu            sync.Mutex
	orders        map[string]Order
	cancelPending map[string]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{
		orders:        make(map[string]Order),
		cancelPending: make(map[string]struct{}),
	}
}

func (l *Ledger) Add(order Order) {
	if order.ID == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.orders[order.ID] = order
}

func (l *Ledger) Get(id string) (Order, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	order, ok := l.orders[id]
	return order, ok
}

// Remove drops a completed or cancelled order. Unknown ids are a no-op so
// duplicate or late venue events stay idempotent.
func (l *Ledger) Remove(id string) (Order, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	order, ok := l.orders[id]
	if !ok {
		return Order{}, false
	}
	delete(l.orders, id)
	delete(l.cancelPending, id)
	return order, true
}

func (l *Ledger) Active() []Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Order, 0, len(l.orders))
	for _, order := range l.orders {
		out = append(out, order)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	return out
}

func (l *Ledger) MarkCancelPending(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.orders[id]; !ok {
		return false
	}
	l.cancelPending[id] = struct{}{}
	return true
}

func (l *Ledger) CancelPending(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.cancelPending[id]
	return ok
}

func (l *Ledger) InFlightCancels() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.cancelPending)
}
