package metrics

type Counter interface {
	Inc()
}

type Metrics struct {
	OrdersCreated       Counter
	OrdersCancelled     Counter
	OrdersFailed        Counter
	FilledBuys          Counter
	FilledSells         Counter
	ProposalsBuilt      Counter
	ProposalsSuppressed Counter
	TicksNotReady       Counter
	StaleOrderSweeps    Counter
	HangingCancels      Counter
}

type noopCounter struct{}

func (noopCounter) Inc() {}

func NewNoop() *Metrics {
	n := noopCounter{}
	return &Metrics{
		OrdersCreated:       n,
		OrdersCancelled:     n,
		OrdersFailed:        n,
		FilledBuys:          n,
		FilledSells:         n,
		ProposalsBuilt:      n,
		ProposalsSuppressed: n,
		TicksNotReady:       n,
		StaleOrderSweeps:    n,
		HangingCancels:      n,
	}
}
