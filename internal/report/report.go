// Package report computes period totals and per-category rollups.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"caixa/internal/core"
	"caixa/internal/ledger"
	"caixa/internal/log"
)

// Options tunes a report run.
type Options struct {
	// IncludeBalance keeps movements on balance accounts in the rollup.
	// They carry running totals rather than flows, so they are skipped
	// unless explicitly requested.
	IncludeBalance bool
}

// PeriodTotals is the signed summary of a date range.
type PeriodTotals struct {
	Start        time.Time
	End          time.Time
	IncomeCents  int64
	ExpenseCents int64
	NetCents     int64
	Movements    int
}

// Service computes reports over the ledger ports.
type Service struct {
	accounts  ledger.AccountRepo
	movements ledger.MovementRepo
	logger    *log.Logger
}

// New creates a report service.
func New(accounts ledger.AccountRepo, movements ledger.MovementRepo, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default(log.ComponentReport)
	}
	return &Service{accounts: accounts, movements: movements, logger: logger}
}

// Totals sums the movements of a period, split into income and expense.
func (s *Service) Totals(ctx context.Context, start, end time.Time, opts Options) (PeriodTotals, error) {
	if end.Before(start) {
		return PeriodTotals{}, &core.ValidationError{Fields: []string{"start", "end"}, Msg: "the period end precedes its start"}
	}
	accounts, movements, err := s.load(ctx, start, end)
	if err != nil {
		return PeriodTotals{}, err
	}
	totals := PeriodTotals{Start: start, End: end}
	for _, m := range movements {
		a, ok := accounts[m.AccountID]
		if !ok {
			continue
		}
		switch a.Type {
		case core.TypeIncome:
			totals.IncomeCents += m.Amount.Cents
		case core.TypeExpense:
			totals.ExpenseCents += m.Amount.Cents
		case core.TypeBalance:
			if !opts.IncludeBalance {
				continue
			}
		}
		totals.NetCents += core.SignedCents(a.Type, m.Amount)
		totals.Movements++
	}
	return totals, nil
}

// ByCategory groups the period's movements by account category, with income
// and expense subtotals per category. Categories come out alphabetically.
func (s *Service) ByCategory(ctx context.Context, start, end time.Time, opts Options) ([]core.CategorySummary, error) {
	if end.Before(start) {
		return nil, &core.ValidationError{Fields: []string{"start", "end"}, Msg: "the period end precedes its start"}
	}
	accounts, movements, err := s.load(ctx, start, end)
	if err != nil {
		return nil, err
	}
	buckets := make(map[string]*core.CategorySummary)
	for _, m := range movements {
		a, ok := accounts[m.AccountID]
		if !ok {
			continue
		}
		if a.Type == core.TypeBalance && !opts.IncludeBalance {
			continue
		}
		b, ok := buckets[a.Category.Name]
		if !ok {
			b = &core.CategorySummary{Category: a.Category}
			buckets[a.Category.Name] = b
		}
		switch a.Type {
		case core.TypeIncome:
			b.IncomeCents += m.Amount.Cents
		case core.TypeExpense:
			b.ExpenseCents += m.Amount.Cents
		}
		b.NetCents = b.IncomeCents - b.ExpenseCents
	}
	out := make([]core.CategorySummary, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category.Name < out[j].Category.Name })
	s.logger.DebugContext(ctx, "Category rollup built", log.FieldCount, len(out))
	return out, nil
}

func (s *Service) load(ctx context.Context, start, end time.Time) (map[int64]core.Account, []core.Movement, error) {
	accounts, err := s.accounts.Accounts(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load accounts: %w", err)
	}
	byID := make(map[int64]core.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	movements, err := s.movements.MovementsByPeriod(ctx, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("load movements: %w", err)
	}
	return byID, movements, nil
}
