// Package services orchestrates ledger mutations: persistence, balance
// recomputation and event publishing.
package services

import (
	"context"
	"fmt"
	"time"

	"caixa/internal/balance"
	"caixa/internal/core"
	"caixa/internal/events"
	"caixa/internal/ledger"
	"caixa/internal/log"
)

// MovementFilter narrows a movement listing. Zero values mean no filter.
type MovementFilter struct {
	Start     time.Time
	End       time.Time
	AccountID int64
	Type      *core.AccountType
	Limit     int
}

// MovementService coordinates movement writes with the carry-forward engine
// and the event stream.
type MovementService struct {
	store     ledger.Store
	engine    *balance.Engine
	publisher events.Publisher
	logger    *log.Logger
}

// NewMovementService creates a movement service. The publisher may be nil,
// events are then skipped.
func NewMovementService(store ledger.Store, engine *balance.Engine, publisher events.Publisher, logger *log.Logger) *MovementService {
	if logger == nil {
		logger = log.Default(log.ComponentLedger)
	}
	return &MovementService{
		store:     store,
		engine:    engine,
		publisher: publisher,
		logger:    logger,
	}
}

// Movement returns one movement joined with its account.
func (s *MovementService) Movement(ctx context.Context, id int64) (core.Entry, error) {
	m, err := s.store.Movement(ctx, id)
	if err != nil {
		return core.Entry{}, err
	}
	entries, err := s.join(ctx, []core.Movement{m})
	if err != nil {
		return core.Entry{}, err
	}
	return entries[0], nil
}

// CreateMovement validates and stores a movement, refreshes the balances of
// the touched year and publishes a created event.
func (s *MovementService) CreateMovement(ctx context.Context, date time.Time, amount core.Money, accountID int64) (core.Entry, error) {
	if accountID == core.SpecialBalanceAccountID {
		return core.Entry{}, &core.ConflictError{Reason: "movements cannot target the prior-balance account"}
	}
	m := core.Movement{Date: date, Amount: amount, AccountID: accountID}
	if err := m.Validate(); err != nil {
		return core.Entry{}, err
	}
	account, err := s.store.Account(ctx, accountID)
	if err != nil {
		return core.Entry{}, err
	}

	saved, err := s.store.AddMovement(ctx, m)
	if err != nil {
		return core.Entry{}, fmt.Errorf("add movement: %w", err)
	}
	if err := s.engine.RecalculateYearAndAdjacent(ctx, saved.Year()); err != nil {
		return core.Entry{}, fmt.Errorf("recalculate balances: %w", err)
	}
	s.publish(ctx, events.KindMovementCreated, saved.ID, saved.Year())

	s.logger.InfoContext(ctx, "Movement created",
		log.FieldMovementID, saved.ID,
		log.FieldAccountID, accountID,
		log.FieldAmountCents, amount.Cents)
	return core.Entry{Movement: saved, Account: account}, nil
}

// UpdateMovement changes date, amount or account of a movement. Synthetic
// balance movements are system managed and rejected.
func (s *MovementService) UpdateMovement(ctx context.Context, id int64, date time.Time, amount core.Money, accountID int64) (core.Entry, error) {
	existing, err := s.store.Movement(ctx, id)
	if err != nil {
		return core.Entry{}, err
	}
	if existing.AccountID == core.SpecialBalanceAccountID {
		return core.Entry{}, &core.ConflictError{Reason: "generated balance movements cannot be edited"}
	}
	if accountID == core.SpecialBalanceAccountID {
		return core.Entry{}, &core.ConflictError{Reason: "movements cannot target the prior-balance account"}
	}
	m := core.Movement{ID: id, Date: date, Amount: amount, AccountID: accountID}
	if err := m.Validate(); err != nil {
		return core.Entry{}, err
	}
	account, err := s.store.Account(ctx, accountID)
	if err != nil {
		return core.Entry{}, err
	}

	saved, err := s.store.UpdateMovement(ctx, m)
	if err != nil {
		return core.Entry{}, fmt.Errorf("update movement: %w", err)
	}
	if err := s.engine.RecalculateYearAndAdjacent(ctx, existing.Year()); err != nil {
		return core.Entry{}, fmt.Errorf("recalculate balances: %w", err)
	}
	if saved.Year() != existing.Year() {
		if err := s.engine.RecalculateYearAndAdjacent(ctx, saved.Year()); err != nil {
			return core.Entry{}, fmt.Errorf("recalculate balances: %w", err)
		}
	}
	s.publish(ctx, events.KindMovementUpdated, saved.ID, saved.Year())

	s.logger.InfoContext(ctx, "Movement updated",
		log.FieldMovementID, id,
		log.FieldAccountID, accountID,
		log.FieldAmountCents, amount.Cents)
	return core.Entry{Movement: saved, Account: account}, nil
}

// DeleteMovement removes a movement and refreshes the year's balances.
func (s *MovementService) DeleteMovement(ctx context.Context, id int64) error {
	existing, err := s.store.Movement(ctx, id)
	if err != nil {
		return err
	}
	if existing.AccountID == core.SpecialBalanceAccountID {
		return &core.ConflictError{Reason: "generated balance movements cannot be removed"}
	}
	if err := s.store.DeleteMovement(ctx, id); err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	if err := s.engine.RecalculateYearAndAdjacent(ctx, existing.Year()); err != nil {
		return fmt.Errorf("recalculate balances: %w", err)
	}
	s.publish(ctx, events.KindMovementDeleted, id, existing.Year())

	s.logger.InfoContext(ctx, "Movement removed", log.FieldMovementID, id)
	return nil
}

// LatestMovements returns the newest user movements joined with their
// accounts. Generated balance rows are skipped, they are bookkeeping, not
// activity.
func (s *MovementService) LatestMovements(ctx context.Context, limit int) ([]core.Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	movements, err := s.store.Movements(ctx)
	if err != nil {
		return nil, fmt.Errorf("load movements: %w", err)
	}
	recent := make([]core.Movement, 0, limit)
	for _, m := range movements {
		if m.AccountID == core.SpecialBalanceAccountID {
			continue
		}
		recent = append(recent, m)
		if len(recent) == limit {
			break
		}
	}
	return s.join(ctx, recent)
}

// FilteredMovements lists movements matching the filter, date descending.
func (s *MovementService) FilteredMovements(ctx context.Context, f MovementFilter) ([]core.Entry, error) {
	var movements []core.Movement
	var err error
	switch {
	case !f.Start.IsZero() || !f.End.IsZero():
		start, end := f.Start, f.End
		if start.IsZero() {
			start = core.Date(1, time.January, 1)
		}
		if end.IsZero() {
			end = core.EndOfDay(core.Date(9999, time.December, 31))
		}
		movements, err = s.store.MovementsByPeriod(ctx, start, end)
	case f.Type != nil:
		movements, err = s.store.MovementsByAccountType(ctx, *f.Type)
	default:
		movements, err = s.store.Movements(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("load movements: %w", err)
	}

	entries, err := s.join(ctx, movements)
	if err != nil {
		return nil, err
	}
	out := entries[:0]
	for _, e := range entries {
		if f.AccountID != 0 && e.Account.ID != f.AccountID {
			continue
		}
		if f.Type != nil && e.Account.Type != *f.Type {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// FinancialSummary totals income and expense over the whole ledger. The
// balance figure is the opening balance of the current month, the current
// figure the running net of every real movement.
func (s *MovementService) FinancialSummary(ctx context.Context) (core.FinancialSummary, error) {
	movements, err := s.store.Movements(ctx)
	if err != nil {
		return core.FinancialSummary{}, fmt.Errorf("load movements: %w", err)
	}
	accounts, err := s.store.Accounts(ctx)
	if err != nil {
		return core.FinancialSummary{}, fmt.Errorf("load accounts: %w", err)
	}
	typeOf := make(map[int64]core.AccountType, len(accounts))
	for _, a := range accounts {
		typeOf[a.ID] = a.Type
	}

	var sum core.FinancialSummary
	var latestSynthetic core.Movement
	for _, m := range movements {
		if m.AccountID == core.SpecialBalanceAccountID {
			if latestSynthetic.ID == 0 || m.Date.After(latestSynthetic.Date) {
				latestSynthetic = m
			}
			continue
		}
		switch typeOf[m.AccountID] {
		case core.TypeIncome:
			sum.IncomeCents += m.Amount.Cents
			sum.CurrentCents += m.Amount.Cents
		case core.TypeExpense:
			sum.ExpenseCents += m.Amount.Cents
			sum.CurrentCents -= m.Amount.Cents
		case core.TypeBalance:
			sum.CurrentCents += m.Amount.Cents
		}
	}
	sum.NetCents = sum.IncomeCents - sum.ExpenseCents
	sum.BalanceCents = latestSynthetic.Amount.Cents
	return sum, nil
}

func (s *MovementService) join(ctx context.Context, movements []core.Movement) ([]core.Entry, error) {
	accounts, err := s.store.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	byID := make(map[int64]core.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	entries := make([]core.Entry, 0, len(movements))
	for _, m := range movements {
		entries = append(entries, core.Entry{Movement: m, Account: byID[m.AccountID]})
	}
	return entries, nil
}

// publish sends a ledger event without failing the request. The movement is
// already stored, a dead broker only delays downstream sync.
func (s *MovementService) publish(ctx context.Context, kind string, movementID int64, year int) {
	if s.publisher == nil {
		s.logger.WarnContext(ctx, "Event publisher not available, skipping event", "kind", kind)
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, events.NewLedgerEvent(kind, movementID, year)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldError, err,
			"kind", kind,
			log.FieldMovementID, movementID)
	}
}
