package app

import (
	"fmt"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"rebalance-bot/internal/strategy"
)

// formatStatus renders the operator-facing snapshot: top of book, portfolio
// split against target, and the resting order set with ages.
func (a *App) formatStatus(now time.Time) string {
	s := &a.cfg.Strategy
	var b strings.Builder

	book, _ := a.market.BookFor(s.Pair)
	mid := math.NaN()
	if book.Bid > 0 && book.Ask > 0 {
		mid = (book.Bid + book.Ask) / 2
	}

	b.WriteString("  Markets:\n")
	w := tabwriter.NewWriter(&b, 2, 0, 2, ' ', 0)
	fmt.Fprintf(w, "    Market\tBest Bid\tBest Ask\tMid\n")
	fmt.Fprintf(w, "    %s\t%s\t%s\t%s\n", s.Pair, fmtPrice(book.Bid), fmtPrice(book.Ask), fmtPrice(mid))
	w.Flush()

	baseBalance := a.account.Balance(s.BaseAsset)
	quoteBalance := a.account.Balance(s.QuoteAsset)
	basePct := math.NaN()
	if !math.IsNaN(mid) {
		if total := baseBalance*mid + quoteBalance; total > 0 {
			basePct = 100 * baseBalance * mid / total
		}
	}
	b.WriteString("\n  Assets:\n")
	fmt.Fprintf(&b, "    %s: %.6g", s.BaseAsset, baseBalance)
	if !math.IsNaN(basePct) {
		fmt.Fprintf(&b, " (%.2f%% of portfolio, target %.2f%%)", basePct, s.TargetBasePct)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "    %s: %.6g\n", s.QuoteAsset, quoteBalance)
	fmt.Fprintf(&b, "    Filled buys: %d, filled sells: %d\n", a.sched.FilledBuys, a.sched.FilledSells)
	if a.lastOrderAmount > 0 {
		fmt.Fprintf(&b, "    Last order size: %.6g %s\n", a.lastOrderAmount, s.BaseAsset)
	}

	active := a.ledger.Active()
	if len(active) == 0 {
		b.WriteString("\n  No active orders.\n")
		return b.String()
	}
	b.WriteString("\n  Orders:\n")
	w = tabwriter.NewWriter(&b, 2, 0, 2, ' ', 0)
	fmt.Fprintf(w, "    Side\tPrice\tSize\tSpread\tAge\n")
	for _, order := range active {
		spread := "n/a"
		if !math.IsNaN(mid) && mid > 0 {
			spread = fmt.Sprintf("%.2f%%", 100*math.Abs(order.Price-mid)/mid)
		}
		age := "n/a"
		if d, ok := strategy.OrderAge(strategy.RestingOrder{ID: order.ID, CreatedAt: order.CreatedAt}, now); ok {
			age = fmtAge(d)
		}
		if a.hanging.IsHanging(order.ID) {
			age += " (hang)"
		}
		fmt.Fprintf(w, "    %s\t%s\t%.6g\t%s\t%s\n", order.Side, fmtPrice(order.Price), order.Size, spread, age)
	}
	w.Flush()
	return b.String()
}

func fmtPrice(v float64) string {
	if math.IsNaN(v) || v <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.8g", v)
}

func fmtAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
