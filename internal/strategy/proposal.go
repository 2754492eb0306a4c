package strategy

import "math"

type ProposalParams struct {
	TargetBasePct float64
	TolerancePct  float64
	Levels        int
}

// BuildRebalanceProposal compares the held base/quote split against the
// target allocation and, when the drift exceeds the tolerance band, sizes a
// one-sided corrective order at the touch. baseValueInQuote is the base
// balance already converted at the current price. The second return value is
// the realized per-leg size, kept for status reporting.
//
// A NaN reference price on the needed side skips that side; both sides
// within tolerance yields an empty proposal. Neither case is an error.
func BuildRebalanceProposal(baseValueInQuote, quoteBalance, bestBid, bestAsk float64, params ProposalParams) (Proposal, float64) {
	var buys, sells []PriceSize
	var orderAmount float64

	totalValue := baseValueInQuote + quoteBalance
	basePct := 0.0
	if totalValue != 0 {
		basePct = 100 * baseValueInQuote / totalValue
	}

	levels := params.Levels
	if levels <= 0 {
		levels = 1
	}

	switch {
	case !math.IsNaN(bestBid) && basePct < params.TargetBasePct-params.TolerancePct:
		size := round2(quoteBalance * params.TolerancePct / 100 / bestBid)
		for level := 0; level < levels; level++ {
			if size <= 0 {
				continue
			}
			buys = append(buys, PriceSize{Price: bestBid, Size: size})
			orderAmount = size
		}
	case !math.IsNaN(bestAsk) && basePct > params.TargetBasePct+params.TolerancePct:
		size := round2(baseValueInQuote * params.TolerancePct / 100)
		for level := 0; level < levels; level++ {
			if size <= 0 {
				continue
			}
			sells = append(sells, PriceSize{Price: bestAsk, Size: size})
			orderAmount = size
		}
	}

	return Proposal{Buys: buys, Sells: sells}, orderAmount
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
