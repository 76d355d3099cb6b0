// Package flow builds the annual cash-flow grid: one row per account in
// display order, one column per month.
package flow

import (
	"context"
	"fmt"
	"time"

	"caixa/internal/core"
	"caixa/internal/ledger"
	"caixa/internal/log"
)

// MonthNames holds the column labels of the grid.
var MonthNames = [12]string{
	"Jan", "Fev", "Mar", "Abr", "Mai", "Jun",
	"Jul", "Ago", "Set", "Out", "Nov", "Dez",
}

// Row is one account line of the grid. Cells hold signed cents per month.
type Row struct {
	Account core.Account
	Cells   [12]int64
	// Average is the mean of the non-zero cells, zero for balance accounts.
	Average float64
}

// YearView is the fully aggregated grid of one fiscal year.
type YearView struct {
	Year        int
	Rows        []Row
	MonthTotals [12]int64
	YearTotal   int64
	// Years lists the selectable fiscal years, newest first.
	Years      []int
	MonthNames [12]string
}

// Cataloger is the slice of the catalog the aggregator needs.
type Cataloger interface {
	AssignDisplayOrder(ctx context.Context) error
	AccountsOrdered(ctx context.Context) ([]core.Account, error)
}

// Recomputer regenerates the synthetic balance movements of a year.
type Recomputer interface {
	RecomputeYear(ctx context.Context, year int) error
}

// Aggregator assembles year views from the ledger.
type Aggregator struct {
	catalog   Cataloger
	engine    Recomputer
	movements ledger.MovementRepo
	logger    *log.Logger
	now       func() time.Time
}

// New creates an aggregator.
func New(catalog Cataloger, engine Recomputer, movements ledger.MovementRepo, logger *log.Logger) *Aggregator {
	if logger == nil {
		logger = log.Default(log.ComponentFlow)
	}
	return &Aggregator{
		catalog:   catalog,
		engine:    engine,
		movements: movements,
		logger:    logger,
		now:       time.Now,
	}
}

// BuildYearView refreshes the carry-forward movements and the display order,
// then aggregates every movement of the year into the grid.
func (a *Aggregator) BuildYearView(ctx context.Context, year int) (YearView, error) {
	if err := a.engine.RecomputeYear(ctx, year); err != nil {
		return YearView{}, fmt.Errorf("recompute year %d: %w", year, err)
	}
	if err := a.catalog.AssignDisplayOrder(ctx); err != nil {
		return YearView{}, fmt.Errorf("assign display order: %w", err)
	}
	accounts, err := a.catalog.AccountsOrdered(ctx)
	if err != nil {
		return YearView{}, fmt.Errorf("ordered accounts: %w", err)
	}

	view := YearView{Year: year, MonthNames: MonthNames}
	view.Rows = make([]Row, len(accounts))
	rowIndex := make(map[int64]int, len(accounts))
	typeOf := make(map[int64]core.AccountType, len(accounts))
	for i, acct := range accounts {
		view.Rows[i] = Row{Account: acct}
		rowIndex[acct.ID] = i
		typeOf[acct.ID] = acct.Type
	}

	movements, err := a.movements.Movements(ctx)
	if err != nil {
		return YearView{}, fmt.Errorf("load movements: %w", err)
	}
	for _, m := range movements {
		if m.Year() != year {
			continue
		}
		i, ok := rowIndex[m.AccountID]
		if !ok {
			continue
		}
		view.Rows[i].Cells[m.MonthIndex()] += core.SignedCents(typeOf[m.AccountID], m.Amount)
	}

	for i := range view.Rows {
		for month, cents := range view.Rows[i].Cells {
			view.MonthTotals[month] += cents
		}
		view.Rows[i].Average = rowAverage(view.Rows[i])
	}
	for _, cents := range view.MonthTotals {
		view.YearTotal += cents
	}

	view.Years = a.availableYears(movements, typeOf)

	a.logger.DebugContext(ctx, "Year view built",
		log.FieldYear, year,
		"rows", len(view.Rows),
		log.FieldAmountCents, view.YearTotal)
	return view, nil
}

// rowAverage is the mean of the non-zero cells. Balance rows always read
// zero, their values are running totals, not flows.
func rowAverage(r Row) float64 {
	if r.Account.Type == core.TypeBalance {
		return 0
	}
	var sum int64
	var n int
	for _, cents := range r.Cells {
		if cents != 0 {
			sum += cents
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// availableYears spans from the earliest real movement through the current
// year, newest first. With no data it is just the current year. Synthetic
// and balance movements never widen the range.
func (a *Aggregator) availableYears(movements []core.Movement, typeOf map[int64]core.AccountType) []int {
	current := a.now().Year()
	earliest := 0
	for _, m := range movements {
		if typeOf[m.AccountID] == core.TypeBalance {
			continue
		}
		if earliest == 0 || m.Year() < earliest {
			earliest = m.Year()
		}
	}
	if earliest == 0 || earliest > current {
		return []int{current}
	}
	years := make([]int, 0, current-earliest+1)
	for y := current; y >= earliest; y-- {
		years = append(years, y)
	}
	return years
}
