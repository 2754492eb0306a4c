package strategy

import (
	"math"
	"testing"
)

func nonEmptyProposal() Proposal {
	return Proposal{
		Buys:  []PriceSize{{Price: 99, Size: 1}},
		Sells: []PriceSize{{Price: 101, Size: 1}},
	}
}

func TestPriceBandCeilingClearsBothSides(t *testing.T) {
	band := PriceBand{Ceiling: 100}
	proposal := nonEmptyProposal()
	band.Apply(&proposal, 100)
	if !proposal.Empty() {
		t.Fatalf("expected proposal cleared at ceiling, got %+v", proposal)
	}
}

func TestPriceBandFloorClearsBothSides(t *testing.T) {
	band := PriceBand{Floor: 50}
	proposal := nonEmptyProposal()
	band.Apply(&proposal, 49)
	if !proposal.Empty() {
		t.Fatalf("expected proposal cleared at floor, got %+v", proposal)
	}
}

func TestPriceBandInsideBandKeepsProposal(t *testing.T) {
	band := PriceBand{Ceiling: 200, Floor: 50}
	proposal := nonEmptyProposal()
	band.Apply(&proposal, 100)
	if proposal.Empty() {
		t.Fatalf("expected proposal kept inside band")
	}
}

func TestPriceBandZeroBoundsDisabled(t *testing.T) {
	band := PriceBand{}
	proposal := nonEmptyProposal()
	band.Apply(&proposal, 1e12)
	band.Apply(&proposal, 1e-12)
	if proposal.Empty() {
		t.Fatalf("expected zero bounds to disable the band")
	}
}

func TestPriceBandUndefinedPriceKeepsProposal(t *testing.T) {
	band := PriceBand{Ceiling: 100, Floor: 50}
	proposal := nonEmptyProposal()
	band.Apply(&proposal, math.NaN())
	if proposal.Empty() {
		t.Fatalf("expected NaN reference price to suppress nothing")
	}
}

func TestPriceBandIdempotent(t *testing.T) {
	band := PriceBand{Ceiling: 100}
	first := nonEmptyProposal()
	band.Apply(&first, 150)
	second := first
	band.Apply(&second, 150)
	if len(first.Buys) != len(second.Buys) || len(first.Sells) != len(second.Sells) {
		t.Fatalf("expected applying twice to equal applying once")
	}
}
