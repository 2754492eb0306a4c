package market

import (
	"encoding/json"
	"math"
	"testing"

	"rebalance-bot/internal/strategy"

	"go.uber.org/zap"
)

func tickerMessage(pair, bid, ask, last string) json.RawMessage {
	msg := map[string]any{
		"channel": "ticker",
		"data":    map[string]any{"pair": pair, "bid": bid, "ask": ask, "last": last},
	}
	raw, _ := json.Marshal(msg)
	return raw
}

func TestHandleMessageUpdatesBook(t *testing.T) {
	m := New(nil, nil, zap.NewNop())
	m.handleMessage(tickerMessage("ETH/USDT", "100.5", "100.7", "100.6"))

	if !m.Ready("ETH/USDT") {
		t.Fatalf("expected pair ready after ticker update")
	}
	book, ok := m.BookFor("ETH/USDT")
	if !ok || book.Bid != 100.5 || book.Ask != 100.7 || book.Last != 100.6 {
		t.Fatalf("unexpected book %+v (ok=%v)", book, ok)
	}
}

func TestHandleMessageKeepsPreviousSides(t *testing.T) {
	m := New(nil, nil, zap.NewNop())
	m.handleMessage(tickerMessage("ETH/USDT", "100.5", "100.7", "100.6"))
	m.handleMessage(tickerMessage("ETH/USDT", "101", "", ""))

	book, _ := m.BookFor("ETH/USDT")
	if book.Bid != 101 || book.Ask != 100.7 || book.Last != 100.6 {
		t.Fatalf("expected partial update to keep previous sides, got %+v", book)
	}
}

func TestPriceByType(t *testing.T) {
	m := New(nil, nil, zap.NewNop())
	m.handleMessage(tickerMessage("ETH/USDT", "100", "102", "101"))

	if got := m.PriceByType("ETH/USDT", strategy.PriceTypeBestBid); got != 100 {
		t.Fatalf("expected best bid 100, got %f", got)
	}
	if got := m.PriceByType("ETH/USDT", strategy.PriceTypeBestAsk); got != 102 {
		t.Fatalf("expected best ask 102, got %f", got)
	}
	if got := m.PriceByType("ETH/USDT", strategy.PriceTypeMid); got != 101 {
		t.Fatalf("expected mid 101, got %f", got)
	}
	if got := m.PriceByType("ETH/USDT", strategy.PriceTypeLastTrade); got != 101 {
		t.Fatalf("expected last 101, got %f", got)
	}
	if got := m.PriceByType("ETH/USDT", strategy.PriceTypeInventoryCost); got != 101 {
		t.Fatalf("expected inventory cost to fall back to mid, got %f", got)
	}
}

func TestPriceByTypeUnknownPairIsNaN(t *testing.T) {
	m := New(nil, nil, zap.NewNop())
	if got := m.PriceByType("BTC/USDT", strategy.PriceTypeMid); !math.IsNaN(got) {
		t.Fatalf("expected NaN for unknown pair, got %f", got)
	}
	if got := m.PriceByType("BTC/USDT", strategy.PriceTypeLastOwnTrade); !math.IsNaN(got) {
		t.Fatalf("expected NaN for unsupported type, got %f", got)
	}
}

func TestParseTickerRejectsJunk(t *testing.T) {
	if _, _, ok := parseTicker(map[string]any{"channel": "ticker"}); ok {
		t.Fatalf("expected missing data to be rejected")
	}
	if _, _, ok := parseTicker(map[string]any{"data": map[string]any{"pair": "X/Y"}}); ok {
		t.Fatalf("expected empty prices to be rejected")
	}
	if _, ok := floatFromAny("not-a-number"); ok {
		t.Fatalf("expected junk string rejected")
	}
	if f, ok := floatFromAny("12.5"); !ok || f != 12.5 {
		t.Fatalf("expected 12.5, got %f (ok=%v)", f, ok)
	}
}
