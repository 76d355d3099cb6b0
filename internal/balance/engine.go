// Package balance materializes the monthly carry-forward movements on the
// fixed prior-balance account.
package balance

import (
	"context"
	"fmt"
	"time"

	"caixa/internal/core"
	"caixa/internal/ledger"
	"caixa/internal/log"
)

// Engine regenerates the synthetic balance movements for a fiscal year.
type Engine struct {
	accounts  ledger.AccountRepo
	movements ledger.MovementRepo
	logger    *log.Logger
	now       func() time.Time
}

// New creates a carry-forward engine.
func New(accounts ledger.AccountRepo, movements ledger.MovementRepo, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default(log.ComponentBalance)
	}
	return &Engine{
		accounts:  accounts,
		movements: movements,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the time source. The clock decides where generation
// stops within the current year.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// RecomputeYear deletes and regenerates the synthetic movements of one year.
// Each generated movement is dated the first of its month and holds the
// cumulative signed total of every real movement before that month. For the
// current year generation stops at the current month.
func (e *Engine) RecomputeYear(ctx context.Context, year int) error {
	if _, err := e.accounts.Account(ctx, core.SpecialBalanceAccountID); err != nil {
		if core.IsNotFound(err) {
			e.logger.WarnContext(ctx, "Prior-balance account missing, skipping recompute", log.FieldYear, year)
			return nil
		}
		return fmt.Errorf("load prior-balance account: %w", err)
	}

	synthetic, err := e.movements.MovementsByAccount(ctx, core.SpecialBalanceAccountID)
	if err != nil {
		return fmt.Errorf("load synthetic movements: %w", err)
	}
	for _, m := range synthetic {
		if m.Year() == year {
			if err := e.movements.DeleteMovement(ctx, m.ID); err != nil {
				return fmt.Errorf("delete synthetic movement %d: %w", m.ID, err)
			}
		}
	}

	real, typeOf, err := e.realMovements(ctx)
	if err != nil {
		return err
	}

	running := int64(0)
	for _, m := range real {
		if m.Year() < year {
			running += core.SignedCents(typeOf[m.AccountID], m.Amount)
		}
	}

	lastMonth := 11
	if now := e.now(); year == now.Year() {
		lastMonth = int(now.Month()) - 1
	}

	for month := 0; month <= lastMonth; month++ {
		if _, err := e.movements.AddMovement(ctx, core.Movement{
			Date:      core.Date(year, time.Month(month+1), 1),
			Amount:    core.Money{Cents: running},
			AccountID: core.SpecialBalanceAccountID,
		}); err != nil {
			return fmt.Errorf("insert synthetic movement: %w", err)
		}
		for _, m := range real {
			if m.Year() == year && m.MonthIndex() == month {
				running += core.SignedCents(typeOf[m.AccountID], m.Amount)
			}
		}
	}

	e.logger.DebugContext(ctx, "Year recomputed",
		log.FieldYear, year,
		log.FieldMonth, lastMonth+1,
		log.FieldAmountCents, running)
	return nil
}

// RecalculateYearAndAdjacent recomputes one year and, when the following year
// already holds real movements, that year as well, since its opening balance
// may have shifted.
func (e *Engine) RecalculateYearAndAdjacent(ctx context.Context, year int) error {
	if err := e.RecomputeYear(ctx, year); err != nil {
		return err
	}
	real, _, err := e.realMovements(ctx)
	if err != nil {
		return err
	}
	for _, m := range real {
		if m.Year() == year+1 {
			return e.RecomputeYear(ctx, year+1)
		}
	}
	return nil
}

// realMovements returns every movement outside balance accounts, plus the
// account type index used for signing amounts.
func (e *Engine) realMovements(ctx context.Context) ([]core.Movement, map[int64]core.AccountType, error) {
	accounts, err := e.accounts.Accounts(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load accounts: %w", err)
	}
	typeOf := make(map[int64]core.AccountType, len(accounts))
	for _, a := range accounts {
		typeOf[a.ID] = a.Type
	}
	all, err := e.movements.Movements(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load movements: %w", err)
	}
	real := all[:0]
	for _, m := range all {
		if typeOf[m.AccountID] != core.TypeBalance {
			real = append(real, m)
		}
	}
	return real, typeOf, nil
}
