// Package worker keeps balances and the exported spreadsheet in sync with
// the ledger, driven by AMQP events plus a periodic full refresh.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"caixa/internal/balance"
	"caixa/internal/events"
	"caixa/internal/export"
	"caixa/internal/flow"
	"caixa/internal/log"
)

// EventSource is the consuming side of the event stream.
type EventSource interface {
	ConsumeLedgerEvents(ctx context.Context, handler func(*events.LedgerEvent) error) error
}

// SyncWorker reacts to ledger events: it recomputes the touched year's
// balances, rebuilds the year view and exports it.
type SyncWorker struct {
	engine     *balance.Engine
	aggregator *flow.Aggregator
	exporter   export.YearViewExporter
	source     EventSource
	logger     *log.Logger

	// RefreshInterval drives the periodic current-year export that covers
	// missed events. Zero disables it.
	RefreshInterval time.Duration
	now             func() time.Time
}

// New creates a sync worker. The exporter may be nil, exports are then
// skipped and only balances are kept fresh.
func New(engine *balance.Engine, aggregator *flow.Aggregator, exporter export.YearViewExporter, source EventSource, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &SyncWorker{
		engine:          engine,
		aggregator:      aggregator,
		exporter:        exporter,
		source:          source,
		logger:          logger,
		RefreshInterval: time.Hour,
		now:             time.Now,
	}
}

// Run blocks consuming events and running the periodic refresh until the
// context is cancelled.
func (w *SyncWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.source.ConsumeLedgerEvents(ctx, func(e *events.LedgerEvent) error {
			return w.HandleEvent(ctx, e)
		})
	})

	if w.RefreshInterval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(w.RefreshInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					if err := w.RefreshYear(ctx, w.now().Year()); err != nil {
						w.logger.ErrorContext(ctx, "Periodic refresh failed", log.FieldError, err)
					}
				}
			}
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HandleEvent processes one ledger event. Errors bubble up so the delivery
// is requeued.
func (w *SyncWorker) HandleEvent(ctx context.Context, e *events.LedgerEvent) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		"kind", e.Kind,
		log.FieldMovementID, e.MovementID,
		log.FieldYear, e.Year)

	if err := w.engine.RecalculateYearAndAdjacent(ctx, e.Year); err != nil {
		return fmt.Errorf("recalculate year %d: %w", e.Year, err)
	}
	return w.exportYear(ctx, e.Year)
}

// RefreshYear rebuilds and exports one year unconditionally. Called at
// startup and by the periodic refresh to recover from missed events.
func (w *SyncWorker) RefreshYear(ctx context.Context, year int) error {
	if err := w.engine.RecalculateYearAndAdjacent(ctx, year); err != nil {
		return fmt.Errorf("recalculate year %d: %w", year, err)
	}
	return w.exportYear(ctx, year)
}

func (w *SyncWorker) exportYear(ctx context.Context, year int) error {
	if w.exporter == nil {
		w.logger.WarnContext(ctx, "No exporter configured, skipping export", log.FieldYear, year)
		return nil
	}
	view, err := w.aggregator.BuildYearView(ctx, year)
	if err != nil {
		return fmt.Errorf("build year view %d: %w", year, err)
	}
	if err := w.exporter.ExportYearView(ctx, view); err != nil {
		return fmt.Errorf("export year view %d: %w", year, err)
	}
	w.logger.InfoContext(ctx, "Year view synced", log.FieldYear, year, "rows", len(view.Rows))
	return nil
}
