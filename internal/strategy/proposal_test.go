package strategy

import (
	"math"
	"testing"
)

func TestBuildProposalWithinToleranceIsEmpty(t *testing.T) {
	params := ProposalParams{TargetBasePct: 50, TolerancePct: 1}
	proposal, _ := BuildRebalanceProposal(500, 500, 100, 101, params)
	if !proposal.Empty() {
		t.Fatalf("expected empty proposal within tolerance, got %+v", proposal)
	}
}

func TestBuildProposalBaseDeficient(t *testing.T) {
	// base=0, quote=1000, target 50/50, tol 1%, bestBid=100 -> one buy of 0.10
	params := ProposalParams{TargetBasePct: 50, TolerancePct: 1}
	proposal, amount := BuildRebalanceProposal(0, 1000, 100, 101, params)
	if len(proposal.Buys) != 1 || len(proposal.Sells) != 0 {
		t.Fatalf("expected one buy and no sells, got %+v", proposal)
	}
	buy := proposal.Buys[0]
	if buy.Price != 100 {
		t.Fatalf("expected buy at best bid 100, got %f", buy.Price)
	}
	if buy.Size != 0.10 {
		t.Fatalf("expected buy size 0.10, got %f", buy.Size)
	}
	if amount != 0.10 {
		t.Fatalf("expected order amount 0.10, got %f", amount)
	}
}

func TestBuildProposalBaseExcess(t *testing.T) {
	params := ProposalParams{TargetBasePct: 50, TolerancePct: 1}
	proposal, _ := BuildRebalanceProposal(1000, 0, 100, 101, params)
	if len(proposal.Sells) != 1 || len(proposal.Buys) != 0 {
		t.Fatalf("expected one sell and no buys, got %+v", proposal)
	}
	sell := proposal.Sells[0]
	if sell.Price != 101 {
		t.Fatalf("expected sell at best ask 101, got %f", sell.Price)
	}
	// 1000 * 1 / 100 = 10 quote units of base value
	if sell.Size != 10 {
		t.Fatalf("expected sell size 10, got %f", sell.Size)
	}
}

func TestBuildProposalUndefinedPricesAreSkipped(t *testing.T) {
	params := ProposalParams{TargetBasePct: 50, TolerancePct: 1}
	proposal, _ := BuildRebalanceProposal(0, 1000, math.NaN(), math.NaN(), params)
	if !proposal.Empty() {
		t.Fatalf("expected empty proposal with undefined prices, got %+v", proposal)
	}
	proposal, _ = BuildRebalanceProposal(1000, 0, 100, math.NaN(), params)
	if !proposal.Empty() {
		t.Fatalf("expected empty proposal when sell side price undefined, got %+v", proposal)
	}
}

func TestBuildProposalZeroTotalValue(t *testing.T) {
	params := ProposalParams{TargetBasePct: 50, TolerancePct: 1}
	proposal, _ := BuildRebalanceProposal(0, 0, 100, 101, params)
	// basePct defaults to 0 -> deficient, but size rounds to zero and is dropped
	if !proposal.Empty() {
		t.Fatalf("expected empty proposal with zero balances, got %+v", proposal)
	}
}

func TestBuildProposalDropsDustLegs(t *testing.T) {
	params := ProposalParams{TargetBasePct: 50, TolerancePct: 1}
	// 0.1 * 1 / 100 / 100 rounds to 0.00
	proposal, amount := BuildRebalanceProposal(0, 0.1, 100, 101, params)
	if !proposal.Empty() {
		t.Fatalf("expected dust leg dropped, got %+v", proposal)
	}
	if amount != 0 {
		t.Fatalf("expected zero order amount for dropped leg, got %f", amount)
	}
}

func TestBuildProposalMultipleLevels(t *testing.T) {
	params := ProposalParams{TargetBasePct: 50, TolerancePct: 1, Levels: 3}
	proposal, _ := BuildRebalanceProposal(0, 1000, 100, 101, params)
	if len(proposal.Buys) != 3 {
		t.Fatalf("expected 3 buy legs, got %d", len(proposal.Buys))
	}
	for _, buy := range proposal.Buys {
		if buy.Price != 100 || buy.Size != 0.10 {
			t.Fatalf("unexpected leg %+v", buy)
		}
	}
}
