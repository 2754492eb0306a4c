package market

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"time"

	"rebalance-bot/internal/strategy"
	"rebalance-bot/internal/venue/rest"
	"rebalance-bot/internal/venue/ws"

	"go.uber.org/zap"
)

type Book struct {
	Bid       float64
	Ask       float64
	Last      float64
	UpdatedAt time.Time
}

// MarketData caches per-pair top-of-book prices fed by the venue websocket,
// with a REST fallback for the initial snapshot.
type MarketData struct {
	rest *rest.Client
	ws   *ws.Client
	log  *zap.Logger

	mu    sync.RWMutex
	books map[string]Book
}

func New(restClient *rest.Client, wsClient *ws.Client, log *zap.Logger) *MarketData {
	return &MarketData{
		rest:  restClient,
		ws:    wsClient,
		log:   log,
		books: make(map[string]Book),
	}
}

func (m *MarketData) Start(ctx context.Context, pairs ...string) error {
	for _, pair := range pairs {
		if err := m.RefreshTicker(ctx, pair); err != nil {
			m.log.Warn("ticker snapshot failed", zap.String("pair", pair), zap.Error(err))
		}
	}
	if m.ws == nil {
		return nil
	}
	if err := m.ws.Connect(ctx); err != nil {
		return err
	}
	for _, pair := range pairs {
		sub := map[string]any{"op": "subscribe", "channel": "ticker", "pair": pair}
		if err := m.ws.Subscribe(ctx, sub); err != nil {
			return err
		}
	}
	go func() {
		_ = m.ws.Run(ctx, m.handleMessage)
	}()
	return nil
}

func (m *MarketData) RefreshTicker(ctx context.Context, pair string) error {
	if m.rest == nil {
		return nil
	}
	ticker, err := m.rest.Ticker(ctx, pair)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.books[pair] = Book{Bid: ticker.Bid, Ask: ticker.Ask, Last: ticker.Last, UpdatedAt: time.Now().UTC()}
	m.mu.Unlock()
	return nil
}

// Ready reports whether a usable top of book exists for the pair.
func (m *MarketData) Ready(pair string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	book, ok := m.books[pair]
	return ok && book.Bid > 0 && book.Ask > 0
}

func (m *MarketData) BookFor(pair string) (Book, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	book, ok := m.books[pair]
	return book, ok
}

// PriceByType returns NaN when the requested price is unknown; callers
// treat NaN as "no signal", never as an error.
func (m *MarketData) PriceByType(pair string, priceType strategy.PriceType) float64 {
	m.mu.RLock()
	book, ok := m.books[pair]
	m.mu.RUnlock()
	if !ok {
		return math.NaN()
	}
	switch priceType {
	case strategy.PriceTypeBestBid:
		return nanIfZero(book.Bid)
	case strategy.PriceTypeBestAsk:
		return nanIfZero(book.Ask)
	case strategy.PriceTypeLastTrade:
		return nanIfZero(book.Last)
	case strategy.PriceTypeMid, strategy.PriceTypeInventoryCost:
		if book.Bid > 0 && book.Ask > 0 {
			return (book.Bid + book.Ask) / 2
		}
		return math.NaN()
	}
	return math.NaN()
}

func (m *MarketData) handleMessage(raw json.RawMessage) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		m.log.Debug("ws decode error", zap.Error(err))
		return
	}
	if channelFromPayload(payload) != "ticker" {
		return
	}
	pair, book, ok := parseTicker(payload)
	if !ok {
		return
	}
	m.mu.Lock()
	prev := m.books[pair]
	if book.Bid == 0 {
		book.Bid = prev.Bid
	}
	if book.Ask == 0 {
		book.Ask = prev.Ask
	}
	if book.Last == 0 {
		book.Last = prev.Last
	}
	book.UpdatedAt = time.Now().UTC()
	m.books[pair] = book
	m.mu.Unlock()
}

func nanIfZero(v float64) float64 {
	if v <= 0 {
		return math.NaN()
	}
	return v
}
