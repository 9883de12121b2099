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

// quoteRow is the quotes table shape. Quotes have no venue-assigned ID, so
// uniqueness is (symbol, exchange_ts).
type quoteRow struct {
	Symbol     string
	BidPrice   float64
	BidSize    int
	AskPrice   float64
	AskSize    int
	ExchangeTs int64 // ms since epoch
	RecordedAt int64 // µs since epoch
}

// QuoteRecorder batches quote ticks into the quotes table.
type QuoteRecorder struct {
	cfg    Config
	logger *slog.Logger
	db     *pgxpool.Pool

	batchMu sync.Mutex
	batch   []quoteRow
	metrics Metrics

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	flushTicker *time.Ticker
}

// NewQuoteRecorder creates a recorder writing to the given pool.
func NewQuoteRecorder(cfg Config, db *pgxpool.Pool, logger *slog.Logger) *QuoteRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuoteRecorder{
		cfg:    cfg,
		logger: logger.With("recorder", "quotes"),
		db:     db,
		batch:  make([]quoteRow, 0, cfg.BatchSize),
	}
}

// Handler returns the stream handler to register for Q.* topics.
func (r *QuoteRecorder) Handler() stream.HandlerFunc {
	return func(ctx context.Context, topic string, ev any) error {
		quote, ok := ev.(model.Quote)
		if !ok {
			r.batchMu.Lock()
			r.metrics.Dropped++
			r.batchMu.Unlock()
			return nil
		}
		r.add(quote)
		return nil
	}
}

// Start begins the periodic flush loop.
func (r *QuoteRecorder) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.flushTicker = time.NewTicker(r.cfg.FlushInterval)

	r.wg.Add(1)
	go r.flushLoop()

	r.logger.Info("quote recorder started",
		"batch_size", r.cfg.BatchSize,
		"flush_interval", r.cfg.FlushInterval,
	)
	return nil
}

// Stop flushes the remaining batch and shuts down.
func (r *QuoteRecorder) Stop(ctx context.Context) error {
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
		r.logger.Warn("quote recorder stop timed out")
	}

	r.flush(context.Background())
	return nil
}

// Stats returns current metrics.
func (r *QuoteRecorder) Stats() Metrics {
	r.batchMu.Lock()
	defer r.batchMu.Unlock()
	return r.metrics
}

func (r *QuoteRecorder) add(quote model.Quote) {
	row := quoteRow{
		Symbol:     quote.Symbol,
		BidPrice:   quote.BidPrice,
		BidSize:    quote.BidSize,
		AskPrice:   quote.AskPrice,
		AskSize:    quote.AskSize,
		ExchangeTs: quote.Timestamp,
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

func (r *QuoteRecorder) flushLoop() {
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

func (r *QuoteRecorder) flush(ctx context.Context) {
	r.batchMu.Lock()
	if len(r.batch) == 0 {
		r.batchMu.Unlock()
		return
	}
	batch := r.batch
	r.batch = make([]quoteRow, 0, r.cfg.BatchSize)
	r.batchMu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}

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

	r.logger.Debug("flushed quotes", "count", len(batch), "conflicts", conflicts)
}

func (r *QuoteRecorder) batchInsert(ctx context.Context, rows []quoteRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO quotes (symbol, bid_price, bid_size, ask_price, ask_size, exchange_ts, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (symbol, exchange_ts) DO NOTHING
		`, row.Symbol, row.BidPrice, row.BidSize, row.AskPrice, row.AskSize, row.ExchangeTs, row.RecordedAt)
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
