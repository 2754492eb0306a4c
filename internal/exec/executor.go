package exec

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"rebalance-bot/internal/state"
	"rebalance-bot/internal/strategy"

	"go.uber.org/zap"
)

type Order struct {
	Pair          string
	Side          strategy.Side
	Size          float64
	Price         float64
	ExpirySeconds int64
	ClientOrderID string
}

type Cancel struct {
	Pair    string
	OrderID string
}

type VenueClient interface {
	PlaceOrder(ctx context.Context, order Order) (string, error)
	CancelOrder(ctx context.Context, cancel Cancel) error
}

// Executor wraps the venue client with retries and idempotent placement:
// a client order id that already produced a venue order id is never
// resubmitted, even across restarts when a store is attached.
type Executor struct {
	venue VenueClient
	store state.Store
	log   *zap.Logger

	mu    sync.Mutex
	cache map[string]string
}

func New(venue VenueClient, store state.Store, log *zap.Logger) *Executor {
	return &Executor{
		venue: venue,
		store: store,
		log:   log,
		cache: make(map[string]string),
	}
}

func (e *Executor) PlaceOrder(ctx context.Context, order Order) (string, error) {
	if order.ClientOrderID == "" {
		return e.placeWithRetry(ctx, order)
	}
	cacheKey := "cloid:" + order.ClientOrderID
	e.mu.Lock()
	if oid, ok := e.cache[cacheKey]; ok {
		e.mu.Unlock()
		return oid, nil
	}
	e.mu.Unlock()
	if e.store != nil {
		if oid, ok, err := e.store.Get(ctx, cacheKey); err != nil {
			return "", err
		} else if ok {
			e.mu.Lock()
			e.cache[cacheKey] = oid
			e.mu.Unlock()
			return oid, nil
		}
	}
	orderID, err := e.placeWithRetry(ctx, order)
	if err != nil {
		return "", err
	}
	if e.store != nil {
		if err := e.store.Set(ctx, cacheKey, orderID); err != nil {
			e.log.Warn("failed to persist order id", zap.Error(err))
		}
	}
	e.mu.Lock()
	e.cache[cacheKey] = orderID
	e.mu.Unlock()
	return orderID, nil
}

func (e *Executor) CancelOrder(ctx context.Context, cancel Cancel) error {
	if cancel.OrderID == "" {
		return errors.New("cancel order id is required")
	}
	return e.retry(ctx, func() error {
		return e.venue.CancelOrder(ctx, cancel)
	})
}

func (e *Executor) placeWithRetry(ctx context.Context, order Order) (string, error) {
	var orderID string
	err := e.retry(ctx, func() error {
		var err error
		orderID, err = e.venue.PlaceOrder(ctx, order)
		return err
	})
	if err != nil {
		return "", err
	}
	if orderID == "" {
		return "", errors.New("empty order id")
	}
	return orderID, nil
}

func (e *Executor) retry(ctx context.Context, fn func() error) error {
	backoff := 200 * time.Millisecond
	for attempt := 0; attempt < 5; attempt++ {
		if err := fn(); err != nil {
			if attempt == 4 {
				return fmt.Errorf("retry failed: %w", err)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
			continue
		}
		return nil
	}
	return nil
}
