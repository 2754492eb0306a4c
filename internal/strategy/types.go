package strategy

import "fmt"

type PriceType string

const (
	PriceTypeMid           PriceType = "mid_price"
	PriceTypeBestBid       PriceType = "best_bid"
	PriceTypeBestAsk       PriceType = "best_ask"
	PriceTypeLastTrade     PriceType = "last_price"
	PriceTypeLastOwnTrade  PriceType = "last_own_trade_price"
	PriceTypeInventoryCost PriceType = "inventory_cost"
	PriceTypeCustom        PriceType = "custom"
)

// ParsePriceType resolves the configured selector once at construction.
// Unknown selectors must stop startup.
func ParsePriceType(s string) (PriceType, error) {
	switch t := PriceType(s); t {
	case PriceTypeMid, PriceTypeBestBid, PriceTypeBestAsk, PriceTypeLastTrade,
		PriceTypeLastOwnTrade, PriceTypeInventoryCost, PriceTypeCustom:
		return t, nil
	}
	return "", fmt.Errorf("unrecognized price type %q", s)
}

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

type PriceSize struct {
	Price float64
	Size  float64
}

// Proposal is the order set for one cycle. An empty side means no order on
// that side this cycle, which is the expected balanced state.
type Proposal struct {
	Buys  []PriceSize
	Sells []PriceSize
}

func (p *Proposal) Empty() bool {
	return len(p.Buys) == 0 && len(p.Sells) == 0
}
