package catalog

import (
	"context"
	"fmt"
	"sort"

	"caixa/internal/core"
	"caixa/internal/log"
)

// groupRank places the prior-balance account first, then balance accounts,
// then income, then expense.
func groupRank(a core.Account) int {
	if a.IsSpecialBalance() {
		return 0
	}
	switch a.Type {
	case core.TypeBalance:
		return 1
	case core.TypeIncome:
		return 2
	default:
		return 3
	}
}

// AssignDisplayOrder recomputes the display order of every account: the
// prior-balance account first, then balance, income and expense accounts,
// each group alphabetical by name. Ties keep repository order.
func (s *Service) AssignDisplayOrder(ctx context.Context) error {
	accounts, err := s.accounts.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		ri, rj := groupRank(accounts[i]), groupRank(accounts[j])
		if ri != rj {
			return ri < rj
		}
		return s.coll.CompareString(accounts[i].Name, accounts[j].Name) < 0
	})
	for i := range accounts {
		order := i
		accounts[i].DisplayOrder = &order
		if _, err := s.accounts.UpdateAccount(ctx, accounts[i]); err != nil {
			return fmt.Errorf("store display order: %w", err)
		}
	}
	s.logger.DebugContext(ctx, "Display order assigned", "accounts", len(accounts))
	return nil
}

// ApplyExplicitOrder replaces the display order with a user supplied id
// sequence. The prior-balance account is always forced to the front, even
// when the input omits it.
func (s *Service) ApplyExplicitOrder(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return &core.ValidationError{Fields: []string{"ids"}, Msg: "the order must list at least one account"}
	}
	final := make([]core.Account, 0, len(ids)+1)
	seen := make(map[int64]bool, len(ids)+1)

	special, err := s.accounts.Account(ctx, core.SpecialBalanceAccountID)
	if err == nil {
		final = append(final, special)
		seen[special.ID] = true
	}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		a, err := s.accounts.Account(ctx, id)
		if err != nil {
			return err
		}
		seen[id] = true
		final = append(final, a)
	}
	for i := range final {
		order := i
		final[i].DisplayOrder = &order
		if _, err := s.accounts.UpdateAccount(ctx, final[i]); err != nil {
			return fmt.Errorf("store display order: %w", err)
		}
	}
	s.logger.InfoContext(ctx, "Explicit order applied", "accounts", len(final))
	return nil
}

// AccountsOrdered returns every account sorted by display order, assigning
// orders first when any account is missing one.
func (s *Service) AccountsOrdered(ctx context.Context) ([]core.Account, error) {
	accounts, err := s.accounts.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	missing := false
	for _, a := range accounts {
		if a.DisplayOrder == nil {
			missing = true
			break
		}
	}
	if missing {
		if err := s.AssignDisplayOrder(ctx); err != nil {
			return nil, err
		}
		if accounts, err = s.accounts.Accounts(ctx); err != nil {
			return nil, fmt.Errorf("reload accounts: %w", err)
		}
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		return orderOf(accounts[i]) < orderOf(accounts[j])
	})
	s.logger.DebugContext(ctx, "Accounts ordered", log.FieldCount, len(accounts))
	return accounts, nil
}

func orderOf(a core.Account) int {
	if a.DisplayOrder == nil {
		return int(^uint(0) >> 1)
	}
	return *a.DisplayOrder
}
