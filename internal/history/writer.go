package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"rebalance-bot/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const writeTimeout = 3 * time.Second

// Fill is a recorded own-trade execution.
type Fill struct {
	Time       time.Time
	Pair       string
	Side       string
	OrderID    string
	Price      float64
	Size       float64
	FilledSize float64
}

// Snapshot is a per-tick portfolio observation.
type Snapshot struct {
	Time          time.Time
	Pair          string
	BaseAsset     string
	QuoteAsset    string
	BaseBalance   float64
	QuoteBalance  float64
	BasePct       float64
	TargetBasePct float64
	MidPrice      float64
	OpenOrders    int
}

// Writer persists fills and portfolio snapshots to Postgres without
// blocking the trading loop. A nil *Writer is a valid no-op.
type Writer struct {
	db       *sql.DB
	log      *zap.Logger
	schema   string
	fills    chan Fill
	snaps    chan Snapshot
	started  atomic.Bool
	dropFill atomic.Uint64
	dropSnap atomic.Uint64
}

func New(cfg config.HistoryConfig, log *zap.Logger) (*Writer, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("history dsn is required")
	}
	schema := strings.TrimSpace(cfg.Schema)
	if schema == "" {
		schema = "public"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	writer := &Writer{
		db:     db,
		log:    log,
		schema: schema,
		fills:  make(chan Fill, queueSize),
		snaps:  make(chan Snapshot, queueSize),
	}
	if err := writer.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return writer, nil
}

func (w *Writer) Start(ctx context.Context) {
	if w == nil {
		return
	}
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.run(ctx)
}

func (w *Writer) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	return w.db.Close()
}

func (w *Writer) EnqueueFill(fill Fill) {
	if w == nil {
		return
	}
	select {
	case w.fills <- fill:
		return
	default:
		if w.dropFill.Add(1) == 1 && w.log != nil {
			w.log.Warn("history fill queue full")
		}
	}
}

func (w *Writer) EnqueueSnapshot(snap Snapshot) {
	if w == nil {
		return
	}
	select {
	case w.snaps <- snap:
		return
	default:
		if w.dropSnap.Add(1) == 1 && w.log != nil {
			w.log.Warn("history snapshot queue full")
		}
	}
}

func (w *Writer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fill := <-w.fills:
			w.writeFill(ctx, fill)
		case snap := <-w.snaps:
			w.writeSnapshot(ctx, snap)
		}
	}
}

func (w *Writer) ensureSchema(ctx context.Context) error {
	if w.db == nil {
		return errors.New("history db not initialized")
	}
	if w.schema != "public" {
		if err := w.exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", w.schema)); err != nil {
			return err
		}
	}
	if err := w.exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMPTZ NOT NULL,
		pair TEXT NOT NULL,
		side TEXT NOT NULL,
		order_id TEXT NOT NULL,
		price DOUBLE PRECISION NOT NULL,
		size DOUBLE PRECISION NOT NULL,
		filled_size DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (ts, order_id)
	)`, w.table("fills"))); err != nil {
		return err
	}
	return w.exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMPTZ NOT NULL,
		pair TEXT NOT NULL,
		base_asset TEXT NOT NULL,
		quote_asset TEXT NOT NULL,
		base_balance DOUBLE PRECISION NOT NULL,
		quote_balance DOUBLE PRECISION NOT NULL,
		base_pct DOUBLE PRECISION NOT NULL,
		target_base_pct DOUBLE PRECISION NOT NULL,
		mid_price DOUBLE PRECISION NOT NULL,
		open_orders INTEGER NOT NULL
	)`, w.table("portfolio_snapshots")))
}

func (w *Writer) writeFill(ctx context.Context, fill Fill) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, pair, side, order_id, price, size, filled_size
	) VALUES (
		$1,$2,$3,$4,$5,$6,$7
	)
	ON CONFLICT (ts, order_id) DO NOTHING`, w.table("fills"))
	if _, err := w.db.ExecContext(ctx, query,
		fill.Time,
		fill.Pair,
		fill.Side,
		fill.OrderID,
		fill.Price,
		fill.Size,
		fill.FilledSize,
	); err != nil && w.log != nil {
		w.log.Warn("history fill insert failed", zap.Error(err))
	}
}

func (w *Writer) writeSnapshot(ctx context.Context, snap Snapshot) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, pair, base_asset, quote_asset, base_balance, quote_balance,
		base_pct, target_base_pct, mid_price, open_orders
	) VALUES (
		$1,$2,$3,$4,$5,$6,$7,$8,$9,$10
	)`, w.table("portfolio_snapshots"))
	if _, err := w.db.ExecContext(ctx, query,
		snap.Time,
		snap.Pair,
		snap.BaseAsset,
		snap.QuoteAsset,
		snap.BaseBalance,
		snap.QuoteBalance,
		snap.BasePct,
		snap.TargetBasePct,
		snap.MidPrice,
		snap.OpenOrders,
	); err != nil && w.log != nil {
		w.log.Warn("history snapshot insert failed", zap.Error(err))
	}
}

func (w *Writer) exec(ctx context.Context, query string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_, err := w.db.ExecContext(ctx, query)
	return err
}

func (w *Writer) table(name string) string {
	return w.schema + "." + name
}
