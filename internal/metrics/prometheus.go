package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promNamespace = "rebalance_bot"

type promCounter struct {
	counter prometheus.Counter
}

func (p promCounter) Inc() {
	p.counter.Inc()
}

type Prometheus struct {
	Metrics *Metrics

	registry *prometheus.Registry
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	newCounter := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: promNamespace,
			Name:      name,
			Help:      help,
		})
		registry.MustRegister(c)
		return c
	}

	m := &Metrics{
		OrdersCreated:       promCounter{newCounter("orders_created_total", "Total number of limit orders submitted.")},
		OrdersCancelled:     promCounter{newCounter("orders_cancelled_total", "Total number of cancel requests issued.")},
		OrdersFailed:        promCounter{newCounter("orders_failed_total", "Total number of order submission failures.")},
		FilledBuys:          promCounter{newCounter("filled_buys_total", "Total number of completely filled buy orders.")},
		FilledSells:         promCounter{newCounter("filled_sells_total", "Total number of completely filled sell orders.")},
		ProposalsBuilt:      promCounter{newCounter("proposals_built_total", "Total number of non-empty rebalance proposals built.")},
		ProposalsSuppressed: promCounter{newCounter("proposals_suppressed_total", "Total number of proposals cleared by the price band.")},
		TicksNotReady:       promCounter{newCounter("ticks_not_ready_total", "Total number of ticks skipped because the connector was not ready.")},
		StaleOrderSweeps:    promCounter{newCounter("stale_order_sweeps_total", "Total number of max-age cancellation sweeps.")},
		HangingCancels:      promCounter{newCounter("hanging_cancels_total", "Total number of hanging orders cancelled on drift.")},
	}

	return &Prometheus{
		Metrics:  m,
		registry: registry,
	}
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
