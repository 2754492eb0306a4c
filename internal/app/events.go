package app

import (
	"context"
	"fmt"

	"rebalance-bot/internal/account"
	"rebalance-bot/internal/history"
	"rebalance-bot/internal/orders"
	"rebalance-bot/internal/state"
	"rebalance-bot/internal/strategy"

	"go.uber.org/zap"
)

func (a *App) handleOrderEvent(ctx context.Context, event account.OrderEvent) {
	switch event.Type {
	case account.EventFilled:
		a.handleFill(ctx, event)
	case account.EventPartiallyFilled:
		a.handlePartialFill(event)
	case account.EventCancelled:
		a.handleCancel(event)
	}
}

func (a *App) handleFill(ctx context.Context, event account.OrderEvent) {
	order, ok := a.ledger.Remove(event.OrderID)
	if !ok {
		// Not ours, or already processed. Venue streams replay on reconnect.
		return
	}
	a.hanging.Forget(event.OrderID)

	now := a.now()
	price := event.Price
	if price <= 0 {
		price = order.Price
	}
	cooldown := a.cfg.Strategy.FilledOrderCooldown
	switch order.Side {
	case strategy.SideBuy:
		a.sched.ApplyBuyFill(now, price, cooldown)
		a.metrics.FilledBuys.Inc()
	case strategy.SideSell:
		a.sched.ApplySellFill(now, price, cooldown)
		a.metrics.FilledSells.Inc()
	}
	a.markHangingSurvivors(order)

	a.log.Info("order filled",
		zap.String("order_id", order.ID),
		zap.String("side", string(order.Side)),
		zap.Float64("price", price),
		zap.Float64("size", order.Size),
	)
	if a.store != nil {
		if err := state.AppendFillAudit(ctx, a.store, state.FillAudit{
			OrderID: order.ID,
			Pair:    order.Pair,
			Side:    string(order.Side),
			Price:   price,
			Size:    order.Size,
			Time:    now,
		}); err != nil {
			a.log.Warn("fill audit write failed", zap.Error(err))
		}
	}
	a.history.EnqueueFill(history.Fill{
		Time:       now,
		Pair:       order.Pair,
		Side:       string(order.Side),
		OrderID:    order.ID,
		Price:      price,
		Size:       order.Size,
		FilledSize: event.FilledSize,
	})
	msg := fmt.Sprintf("%s %s order filled: %.8g %s at %.8g", order.Pair, order.Side, order.Size, a.cfg.Strategy.BaseAsset, price)
	if err := a.alerts.Send(ctx, msg); err != nil {
		a.log.Warn("alert send failed", zap.Error(err))
	}
}

// handlePartialFill only records the event. The order keeps resting with its
// remaining size; survivors on the other side become hanging candidates.
func (a *App) handlePartialFill(event account.OrderEvent) {
	order, ok := a.ledger.Get(event.OrderID)
	if !ok {
		return
	}
	for _, other := range a.oppositeSide(order) {
		a.hanging.MarkPotential(other.ID)
	}
	a.log.Info("order partially filled",
		zap.String("order_id", order.ID),
		zap.String("side", string(order.Side)),
		zap.Float64("filled_size", event.FilledSize),
		zap.Float64("size", order.Size),
	)
}

func (a *App) handleCancel(event account.OrderEvent) {
	order, ok := a.ledger.Remove(event.OrderID)
	if !ok {
		return
	}
	a.hanging.Forget(event.OrderID)
	a.log.Info("order cancelled",
		zap.String("order_id", order.ID),
		zap.String("side", string(order.Side)),
	)
}

// markHangingSurvivors exempts the filled order's opposite-side survivors
// from the refresh cycle. They stay on the book until their price drifts
// past the hanging cancel tolerance.
func (a *App) markHangingSurvivors(filled orders.Order) {
	if a.cfg.Strategy.HangingCancelTolerance <= 0 {
		return
	}
	for _, other := range a.oppositeSide(filled) {
		a.hanging.Register(other.ID, other.Price)
		a.log.Info("order left hanging",
			zap.String("order_id", other.ID),
			zap.Float64("price", other.Price),
		)
	}
}

func (a *App) oppositeSide(order orders.Order) []orders.Order {
	var out []orders.Order
	for _, other := range a.ledger.Active() {
		if other.Side != order.Side && !a.hanging.IsHanging(other.ID) {
			out = append(out, other)
		}
	}
	return out
}
