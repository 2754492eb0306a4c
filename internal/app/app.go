package app

import (
	"context"
	"errors"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"rebalance-bot/internal/account"
	"rebalance-bot/internal/alerts"
	"rebalance-bot/internal/config"
	"rebalance-bot/internal/exec"
	"rebalance-bot/internal/history"
	"rebalance-bot/internal/market"
	"rebalance-bot/internal/metrics"
	"rebalance-bot/internal/orders"
	"rebalance-bot/internal/state/sqlite"
	"rebalance-bot/internal/strategy"
	"rebalance-bot/internal/venue/rest"
	"rebalance-bot/internal/venue/ws"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type App struct {
	cfg       *config.Config
	log       *zap.Logger
	store     *sqlite.Store
	rest      *rest.Client
	venue     *venueAdapter
	market    *market.MarketData
	account   *account.Account
	executor  *exec.Executor
	ledger    *orders.Ledger
	hanging   *orders.HangingTracker
	metrics   *metrics.Metrics
	prom      *metrics.Prometheus
	alerts    *alerts.Telegram
	history   *history.Writer
	sched     *strategy.SchedulerState
	band      strategy.PriceBand
	priceType strategy.PriceType

	lastOrderAmount float64
	now             func() time.Time
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.State.SQLitePath), 0o755); err != nil {
		return nil, err
	}
	store, err := sqlite.New(cfg.State.SQLitePath)
	if err != nil {
		return nil, err
	}
	apiKey := strings.TrimSpace(os.Getenv("VENUE_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("VENUE_API_KEY is required")
	}
	restClient := rest.New(cfg.REST.BaseURL, apiKey, cfg.REST.Timeout, log)
	marketWS := ws.New(cfg.WS.URL, cfg.WS.ReconnectDelay, cfg.WS.PingInterval, log)
	marketData := market.New(restClient, marketWS, log)

	accountWS := ws.New(cfg.WS.URL, cfg.WS.ReconnectDelay, cfg.WS.PingInterval, log)
	accountClient := account.New(restClient, accountWS, log)

	venue := &venueAdapter{client: restClient, acks: make(map[string]time.Time)}
	executor := exec.New(venue, store, log)

	priceType, err := strategy.ParsePriceType(cfg.Strategy.PriceType)
	if err != nil {
		return nil, err
	}

	histWriter, err := history.New(cfg.History, log)
	if err != nil {
		return nil, err
	}

	m := metrics.NewNoop()
	var prom *metrics.Prometheus
	if cfg.Metrics.Enabled {
		prom = metrics.NewPrometheus()
		m = prom.Metrics
	}

	return &App{
		cfg:       cfg,
		log:       log,
		store:     store,
		rest:      restClient,
		venue:     venue,
		market:    marketData,
		account:   accountClient,
		executor:  executor,
		ledger:    orders.NewLedger(),
		hanging:   orders.NewHangingTracker(cfg.Strategy.HangingCancelTolerance),
		metrics:   m,
		prom:      prom,
		alerts:    alerts.NewTelegram(cfg.Telegram, log),
		history:   histWriter,
		sched:     strategy.NewSchedulerState(),
		band:      strategy.PriceBand{Ceiling: cfg.Strategy.PriceCeiling, Floor: cfg.Strategy.PriceFloor},
		priceType: priceType,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// MetricsHandler is non-nil when metrics are enabled; the caller serves it.
func (a *App) MetricsHandler() http.Handler {
	if a.prom == nil {
		return nil
	}
	return a.prom.Handler()
}

func (a *App) Run(ctx context.Context) error {
	defer a.store.Close()
	a.history.Start(ctx)

	pair := a.cfg.Strategy.Pair
	leftovers, err := a.account.Reconcile(ctx, pair)
	if err != nil {
		return err
	}
	a.log.Info("reconciled account",
		zap.String("pair", pair),
		zap.Float64("base_balance", a.account.Balance(a.cfg.Strategy.BaseAsset)),
		zap.Float64("quote_balance", a.account.Balance(a.cfg.Strategy.QuoteAsset)),
		zap.Int("open_orders", len(leftovers)),
	)
	a.cancelLeftoverOrders(ctx, leftovers)

	if err := a.account.Start(ctx); err != nil {
		return err
	}
	pairs := []string{pair}
	if delegate := a.cfg.Strategy.PriceDelegatePair; delegate != "" && delegate != pair {
		pairs = append(pairs, delegate)
	}
	if err := a.market.Start(ctx, pairs...); err != nil {
		return err
	}

	ticker := time.NewTicker(a.cfg.Strategy.TickInterval)
	defer ticker.Stop()
	lastStatus := a.now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := a.tick(ctx); err != nil {
				a.log.Warn("tick failed", zap.Error(err))
			}
			if interval := a.cfg.Strategy.StatusReportInterval; interval > 0 && a.now().Sub(lastStatus) >= interval {
				lastStatus = a.now()
				a.log.Info("status report\n" + a.formatStatus(lastStatus))
			}
		case event := <-a.account.Events():
			a.handleOrderEvent(ctx, event)
		}
	}
}

func (a *App) tick(ctx context.Context) error {
	now := a.now()
	pair := a.cfg.Strategy.Pair
	if !a.market.Ready(pair) {
		a.metrics.TicksNotReady.Inc()
		a.log.Warn("market data not ready, skipping tick", zap.String("pair", pair))
		return nil
	}
	if err := a.account.RefreshBalances(ctx); err != nil {
		return err
	}

	book, _ := a.market.BookFor(pair)
	refPrice := a.referencePrice()

	for _, id := range a.hanging.ProcessTick(refPrice) {
		a.metrics.HangingCancels.Inc()
		a.cancelOrder(ctx, id)
	}
	a.sweepStaleOrders(ctx, now)

	var proposal strategy.Proposal
	if a.sched.ShouldBuildProposal(now) {
		proposal = a.buildProposal(book, refPrice)
	}

	if a.sched.ShouldSubmit(now, !proposal.Empty(), a.ledger.InFlightCancels(), a.activeNonExempt(), a.cfg.Strategy.WaitForCancel()) {
		a.submitProposal(ctx, proposal)
		a.sched.ArmTimers(now, a.cfg.Strategy.OrderRefreshPeriod)
	}

	a.enqueueSnapshot(now, book)
	return nil
}

func (a *App) buildProposal(book market.Book, refPrice float64) strategy.Proposal {
	s := &a.cfg.Strategy
	mid := math.NaN()
	if book.Bid > 0 && book.Ask > 0 {
		mid = (book.Bid + book.Ask) / 2
	}
	baseBalance := a.account.AvailableBalance(s.BaseAsset)
	quoteBalance := a.account.AvailableBalance(s.QuoteAsset)
	baseValue := 0.0
	if !math.IsNaN(mid) {
		baseValue = baseBalance * mid
	}
	proposal, orderAmount := strategy.BuildRebalanceProposal(baseValue, quoteBalance, nanIfZero(book.Bid), nanIfZero(book.Ask), strategy.ProposalParams{
		TargetBasePct: s.TargetBasePct,
		TolerancePct:  s.RebalanceTolerancePct,
		Levels:        s.OrderLevels,
	})
	if proposal.Empty() {
		return proposal
	}
	a.lastOrderAmount = orderAmount
	a.band.Apply(&proposal, refPrice)
	if proposal.Empty() {
		a.metrics.ProposalsSuppressed.Inc()
		a.log.Info("proposal suppressed by price band",
			zap.Float64("ref_price", refPrice),
			zap.Float64("ceiling", a.band.Ceiling),
			zap.Float64("floor", a.band.Floor),
		)
		return proposal
	}
	a.metrics.ProposalsBuilt.Inc()
	return proposal
}

func (a *App) submitProposal(ctx context.Context, proposal strategy.Proposal) {
	for _, leg := range proposal.Buys {
		a.submitOrder(ctx, strategy.SideBuy, leg)
	}
	for _, leg := range proposal.Sells {
		a.submitOrder(ctx, strategy.SideSell, leg)
	}
}

func (a *App) submitOrder(ctx context.Context, side strategy.Side, leg strategy.PriceSize) {
	pair := a.cfg.Strategy.Pair
	order := exec.Order{
		Pair:          pair,
		Side:          side,
		Size:          leg.Size,
		Price:         leg.Price,
		ExpirySeconds: int64(a.cfg.Strategy.OrderRefreshPeriod / time.Second),
		ClientOrderID: uuid.NewString(),
	}
	orderID, err := a.executor.PlaceOrder(ctx, order)
	if err != nil {
		a.metrics.OrdersFailed.Inc()
		a.log.Warn("order placement failed",
			zap.String("side", string(side)),
			zap.Float64("price", leg.Price),
			zap.Float64("size", leg.Size),
			zap.Error(err),
		)
		return
	}
	a.metrics.OrdersCreated.Inc()
	createdAt, _ := a.venue.AckTime(orderID)
	a.ledger.Add(orders.Order{
		ID:            orderID,
		ClientOrderID: order.ClientOrderID,
		Pair:          pair,
		Side:          side,
		Price:         leg.Price,
		Size:          leg.Size,
		CreatedAt:     createdAt,
	})
	a.log.Info("order placed",
		zap.String("order_id", orderID),
		zap.String("side", string(side)),
		zap.Float64("price", leg.Price),
		zap.Float64("size", leg.Size),
	)
}

// sweepStaleOrders cancels every non-exempt resting order once any of them
// exceeds the max age. Cancels go out before the submit gate runs so a
// refresh cycle does not stack orders on top of stale ones.
func (a *App) sweepStaleOrders(ctx context.Context, now time.Time) {
	var resting []strategy.RestingOrder
	for _, order := range a.ledger.Active() {
		if a.hanging.IsHanging(order.ID) || a.ledger.CancelPending(order.ID) {
			continue
		}
		resting = append(resting, strategy.RestingOrder{ID: order.ID, CreatedAt: order.CreatedAt})
	}
	stale := strategy.StaleOrderIDs(resting, now, a.cfg.Strategy.MaxOrderAge)
	if len(stale) == 0 {
		return
	}
	a.metrics.StaleOrderSweeps.Inc()
	a.log.Info("cancelling aged orders", zap.Int("count", len(stale)))
	for _, id := range stale {
		a.cancelOrder(ctx, id)
	}
}

func (a *App) cancelOrder(ctx context.Context, id string) {
	if !a.ledger.MarkCancelPending(id) {
		return
	}
	if err := a.executor.CancelOrder(ctx, exec.Cancel{Pair: a.cfg.Strategy.Pair, OrderID: id}); err != nil {
		a.log.Warn("cancel failed", zap.String("order_id", id), zap.Error(err))
		return
	}
	a.metrics.OrdersCancelled.Inc()
}

func (a *App) cancelLeftoverOrders(ctx context.Context, leftovers []rest.OpenOrder) {
	for _, order := range leftovers {
		if order.OrderID == "" {
			continue
		}
		a.log.Info("cancelling leftover order from previous run", zap.String("order_id", order.OrderID))
		if err := a.executor.CancelOrder(ctx, exec.Cancel{Pair: a.cfg.Strategy.Pair, OrderID: order.OrderID}); err != nil {
			a.log.Warn("leftover cancel failed", zap.String("order_id", order.OrderID), zap.Error(err))
		}
	}
}

// activeNonExempt counts the resting orders that block a new submission.
// Hanging orders, candidates flagged after a partial fill, and orders with a
// cancel already in flight do not block.
func (a *App) activeNonExempt() int {
	count := 0
	for _, order := range a.ledger.Active() {
		if a.hanging.IsHanging(order.ID) || a.hanging.IsPotentialHanging(order.ID) || a.ledger.CancelPending(order.ID) {
			continue
		}
		count++
	}
	return count
}

// referencePrice resolves the configured price source. When a delegate pair
// is configured it supplies the price for every source except last own trade,
// which comes from this strategy's fills and is NaN until the first one.
// Unresolvable sources fall back to the trading pair's mid.
func (a *App) referencePrice() float64 {
	pair := a.cfg.Strategy.Pair
	if delegate := a.cfg.Strategy.PriceDelegatePair; delegate != "" {
		pair = delegate
	}
	var ref float64
	switch a.priceType {
	case strategy.PriceTypeLastOwnTrade:
		ref = a.sched.LastOwnTradePrice
	case strategy.PriceTypeCustom:
		ref = a.market.PriceByType(pair, strategy.PriceTypeMid)
	default:
		ref = a.market.PriceByType(pair, a.priceType)
	}
	if math.IsNaN(ref) {
		ref = a.market.PriceByType(a.cfg.Strategy.Pair, strategy.PriceTypeMid)
	}
	return ref
}

func (a *App) enqueueSnapshot(now time.Time, book market.Book) {
	if a.history == nil {
		return
	}
	s := &a.cfg.Strategy
	mid := 0.0
	if book.Bid > 0 && book.Ask > 0 {
		mid = (book.Bid + book.Ask) / 2
	}
	baseBalance := a.account.Balance(s.BaseAsset)
	quoteBalance := a.account.Balance(s.QuoteAsset)
	basePct := 0.0
	if total := baseBalance*mid + quoteBalance; total > 0 {
		basePct = 100 * baseBalance * mid / total
	}
	a.history.EnqueueSnapshot(history.Snapshot{
		Time:          now,
		Pair:          s.Pair,
		BaseAsset:     s.BaseAsset,
		QuoteAsset:    s.QuoteAsset,
		BaseBalance:   baseBalance,
		QuoteBalance:  quoteBalance,
		BasePct:       basePct,
		TargetBasePct: s.TargetBasePct,
		MidPrice:      mid,
		OpenOrders:    len(a.ledger.Active()),
	})
}

func nanIfZero(v float64) float64 {
	if v <= 0 {
		return math.NaN()
	}
	return v
}

// venueAdapter bridges the REST order API to the executor and remembers the
// venue-reported creation time of each ack so the ledger can age orders.
type venueAdapter struct {
	client *rest.Client

	mu   sync.Mutex
	acks map[string]time.Time
}

func (v *venueAdapter) PlaceOrder(ctx context.Context, order exec.Order) (string, error) {
	ack, err := v.client.PlaceOrder(ctx, rest.OrderRequest{
		Pair:          order.Pair,
		Side:          string(order.Side),
		Type:          "limit",
		Price:         order.Price,
		Size:          order.Size,
		ExpirySeconds: order.ExpirySeconds,
		ClientOrderID: order.ClientOrderID,
	})
	if err != nil {
		return "", err
	}
	if ack.OrderID == "" {
		return "", errors.New("missing order id in venue response")
	}
	if ack.CreatedAtMS > 0 {
		v.mu.Lock()
		v.acks[ack.OrderID] = time.UnixMilli(ack.CreatedAtMS).UTC()
		v.mu.Unlock()
	}
	return ack.OrderID, nil
}

func (v *venueAdapter) CancelOrder(ctx context.Context, cancel exec.Cancel) error {
	if cancel.OrderID == "" {
		return errors.New("cancel order id is required")
	}
	return v.client.CancelOrder(ctx, cancel.Pair, cancel.OrderID)
}

// AckTime returns the venue creation time for an order id. The zero time
// means the venue did not report one; such orders never age out. The entry
// is consumed on read: the ledger carries the timestamp from then on, and
// the map must not grow with the process.
func (v *venueAdapter) AckTime(orderID string) (time.Time, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ts, ok := v.acks[orderID]
	if ok {
		delete(v.acks, orderID)
	}
	return ts, ok
}
