package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfeed/alpaca-stream/internal/model"
	"github.com/quantfeed/alpaca-stream/internal/stream"
)

// tradeRow is the trades table shape.
type tradeRow struct {
	TradeID    int64
	Symbol     string
	Price      float64
	Size       int
	ExchangeTs int64 // ms since epoch
	RecordedAt int64 // µs since epoch
}

// TradeRecorder batches trade ticks into the trades table.
type TradeRecorder struct {
	cfg    Config
	logger *slog.Logger
	db     *pgxpool.Pool

	batchMu sync.Mutex
	batch   []tradeRow
	metrics Metrics

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	flushTicker *time.Ticker
}

// NewTradeRecorder creates a recorder writing to the given pool.
func NewTradeRecorder(cfg Config, db *pgxpool.Pool, logger *slog.Logger) *TradeRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &TradeRecorder{
		cfg:    cfg,
		logger: logger.With("recorder", "trades"),
		db:     db,
		batch:  make([]tradeRow, 0, cfg.BatchSize),
	}
}

// Handler returns the stream handler to register for T.* topics.
func (r *TradeRecorder) Handler() stream.HandlerFunc {
	return func(ctx context.Context, topic string, ev any) error {
		trade, ok := ev.(model.Trade)
		if !ok {
			r.batchMu.Lock()
			r.metrics.Dropped++
			r.batchMu.Unlock()
			return nil
		}
		r.add(trade)
		return nil
	}
}

// Start begins the periodic flush loop.
func (r *TradeRecorder) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.flushTicker = time.NewTicker(r.cfg.FlushInterval)

	r.wg.Add(1)
	go r.flushLoop()

	r.logger.Info("trade recorder started",
		"batch_size", r.cfg.BatchSize,
		"flush_interval", r.cfg.FlushInterval,
	)
	return nil
}

// Stop flushes the remaining batch and shuts down.
func (r *TradeRecorder) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.flushTicker != nil {
		r.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		r.logger.Warn("trade recorder stop timed out")
	}

	r.flush(context.Background())
	return nil
}

// Stats returns current metrics.
func (r *TradeRecorder) Stats() Metrics {
	r.batchMu.Lock()
	defer r.batchMu.Unlock()
	return r.metrics
}

func (r *TradeRecorder) add(trade model.Trade) {
	row := tradeRow{
		TradeID:    trade.TradeID,
		Symbol:     trade.Symbol,
		Price:      trade.Price,
		Size:       trade.Size,
		ExchangeTs: trade.Timestamp,
		RecordedAt: time.Now().UnixMicro(),
	}

	r.batchMu.Lock()
	r.batch = append(r.batch, row)
	shouldFlush := len(r.batch) >= r.cfg.BatchSize
	r.batchMu.Unlock()

	if shouldFlush {
		r.flush(r.ctx)
	}
}

func (r *TradeRecorder) flushLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-r.flushTicker.C:
			r.flush(r.ctx)
		}
	}
}

// flush writes the current batch to the database.
func (r *TradeRecorder) flush(ctx context.Context) {
	r.batchMu.Lock()
	if len(r.batch) == 0 {
		r.batchMu.Unlock()
		return
	}
	batch := r.batch
	r.batch = make([]tradeRow, 0, r.cfg.BatchSize)
	r.batchMu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	conflicts, err := r.batchInsert(ctx, batch)
	if err != nil {
		r.logger.Error("batch insert failed", "error", err, "count", len(batch))
		r.batchMu.Lock()
		r.metrics.Errors++
		r.batchMu.Unlock()
		return
	}

	r.batchMu.Lock()
	r.metrics.Inserts += int64(len(batch) - conflicts)
	r.metrics.Conflicts += int64(conflicts)
	r.metrics.Flushes++
	r.batchMu.Unlock()

	r.logger.Debug("flushed trades",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

func (r *TradeRecorder) batchInsert(ctx context.Context, rows []tradeRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO trades (trade_id, symbol, price, size, exchange_ts, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (trade_id) DO NOTHING
		`, row.TradeID, row.Symbol, row.Price, row.Size, row.ExchangeTs, row.RecordedAt)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
