package strategy

// PriceBand suppresses all order creation outside an absolute price range.
// A breach on either bound clears both sides: it is a safety stop, not a
// directional filter. A zero bound disables that check.
type PriceBand struct {
	Ceiling float64
	Floor   float64
}

func (b PriceBand) Apply(p *Proposal, refPrice float64) {
	if b.Ceiling > 0 && refPrice >= b.Ceiling {
		p.Buys = nil
		p.Sells = nil
	}
	if b.Floor > 0 && refPrice <= b.Floor {
		p.Buys = nil
		p.Sells = nil
	}
}
