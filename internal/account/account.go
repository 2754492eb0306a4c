package account

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"rebalance-bot/internal/venue/rest"
	"rebalance-bot/internal/venue/ws"

	"go.uber.org/zap"
)

const balanceRefreshWindow = 5 * time.Second

// Account holds the venue balance snapshot and turns the private order
// stream into OrderEvents consumed by the app event loop.
type Account struct {
	rest *rest.Client
	ws   *ws.Client
	log  *zap.Logger

	mu          sync.RWMutex
	balances    map[string]rest.Balance
	lastRefresh time.Time

	events chan OrderEvent
}

func New(restClient *rest.Client, wsClient *ws.Client, log *zap.Logger) *Account {
	return &Account{
		rest:     restClient,
		ws:       wsClient,
		log:      log,
		balances: make(map[string]rest.Balance),
		events:   make(chan OrderEvent, 64),
	}
}

// Reconcile pulls balances and open orders over REST. The returned open
// orders let the caller clean up leftovers from a previous run.
func (a *Account) Reconcile(ctx context.Context, pair string) ([]rest.OpenOrder, error) {
	if err := a.refreshBalances(ctx); err != nil {
		return nil, err
	}
	return a.rest.OpenOrders(ctx, pair)
}

// RefreshBalances re-reads balances, throttled so per-tick calls do not
// hammer the venue.
func (a *Account) RefreshBalances(ctx context.Context) error {
	a.mu.RLock()
	last := a.lastRefresh
	a.mu.RUnlock()
	if !last.IsZero() && time.Since(last) < balanceRefreshWindow {
		return nil
	}
	return a.refreshBalances(ctx)
}

func (a *Account) refreshBalances(ctx context.Context) error {
	balances, err := a.rest.Balances(ctx)
	if err != nil {
		return err
	}
	byAsset := make(map[string]rest.Balance, len(balances))
	for _, b := range balances {
		byAsset[b.Asset] = b
	}
	a.mu.Lock()
	a.balances = byAsset
	a.lastRefresh = time.Now().UTC()
	a.mu.Unlock()
	return nil
}

func (a *Account) Balance(asset string) float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.balances[asset].Total
}

func (a *Account) AvailableBalance(asset string) float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.balances[asset].Available
}

// Start subscribes to the private order channel and feeds parsed events into
// Events(). Unparseable messages are dropped with a debug log.
func (a *Account) Start(ctx context.Context) error {
	if a.ws == nil {
		return nil
	}
	if err := a.ws.Connect(ctx); err != nil {
		return err
	}
	sub := map[string]any{"op": "subscribe", "channel": "orders"}
	if err := a.ws.Subscribe(ctx, sub); err != nil {
		return err
	}
	go func() {
		_ = a.ws.Run(ctx, a.handleMessage)
	}()
	return nil
}

func (a *Account) Events() <-chan OrderEvent {
	return a.events
}

func (a *Account) handleMessage(raw json.RawMessage) {
	event, ok := ParseOrderEvent(raw)
	if !ok {
		return
	}
	select {
	case a.events <- event:
	default:
		a.log.Warn("order event dropped, queue full", zap.String("order_id", event.OrderID))
	}
}
