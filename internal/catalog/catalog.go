// Package catalog owns the account and category registry, including the
// display ordering of accounts in the annual grid.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"caixa/internal/core"
	"caixa/internal/ledger"
	"caixa/internal/log"
)

// Service implements catalog operations over the repository ports.
type Service struct {
	accounts   ledger.AccountRepo
	categories ledger.CategoryRepo
	movements  ledger.MovementRepo
	logger     *log.Logger
	coll       *collate.Collator
}

// NewService creates a catalog service.
func NewService(accounts ledger.AccountRepo, categories ledger.CategoryRepo, movements ledger.MovementRepo, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default(log.ComponentCatalog)
	}
	return &Service{
		accounts:   accounts,
		categories: categories,
		movements:  movements,
		logger:     logger,
		coll:       collate.New(language.BrazilianPortuguese, collate.IgnoreCase),
	}
}

// Accounts returns every account in repository order.
func (s *Service) Accounts(ctx context.Context) ([]core.Account, error) {
	return s.accounts.Accounts(ctx)
}

// Account returns one account by id.
func (s *Service) Account(ctx context.Context, id int64) (core.Account, error) {
	return s.accounts.Account(ctx, id)
}

// AccountsByType filters accounts by type.
func (s *Service) AccountsByType(ctx context.Context, t core.AccountType) ([]core.Account, error) {
	if !t.Valid() {
		return nil, &core.ValidationError{Fields: []string{"type"}, Msg: "invalid account type"}
	}
	return s.accounts.AccountsByType(ctx, t)
}

// EditableAccounts returns every account except the fixed prior-balance one,
// the set a user may pick when recording a movement.
func (s *Service) EditableAccounts(ctx context.Context) ([]core.Account, error) {
	all, err := s.accounts.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, a := range all {
		if !a.IsSpecialBalance() {
			out = append(out, a)
		}
	}
	return out, nil
}

// CreateAccount validates and stores a new account, then recomputes the
// display order so the newcomer lands in its group.
func (s *Service) CreateAccount(ctx context.Context, name string, t core.AccountType, categoryID int64) (core.Account, error) {
	name = strings.TrimSpace(name)
	a := core.Account{Name: name, Type: t, Category: core.Category{ID: categoryID}}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	exists, err := s.accounts.AccountNameExists(ctx, name, 0)
	if err != nil {
		return core.Account{}, fmt.Errorf("check account name: %w", err)
	}
	if exists {
		return core.Account{}, &core.ConflictError{Reason: "an account with this name already exists"}
	}
	cat, err := s.categories.Category(ctx, categoryID)
	if err != nil {
		return core.Account{}, err
	}
	a.Category = cat

	saved, err := s.accounts.AddAccount(ctx, a)
	if err != nil {
		return core.Account{}, fmt.Errorf("add account: %w", err)
	}
	if err := s.AssignDisplayOrder(ctx); err != nil {
		return core.Account{}, err
	}
	s.logger.InfoContext(ctx, "Account created",
		log.FieldAccountID, saved.ID,
		log.FieldAccountName, saved.Name,
		log.FieldAccountType, saved.Type.String())
	return s.accounts.Account(ctx, saved.ID)
}

// UpdateAccount changes name, type or category of an account.
func (s *Service) UpdateAccount(ctx context.Context, id int64, name string, t core.AccountType, categoryID int64) (core.Account, error) {
	existing, err := s.accounts.Account(ctx, id)
	if err != nil {
		return core.Account{}, err
	}
	if existing.IsSpecialBalance() {
		return core.Account{}, &core.ConflictError{Reason: "the prior-balance account cannot be edited"}
	}
	name = strings.TrimSpace(name)
	a := core.Account{ID: id, Name: name, Type: t, Category: core.Category{ID: categoryID}, DisplayOrder: existing.DisplayOrder}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	exists, err := s.accounts.AccountNameExists(ctx, name, id)
	if err != nil {
		return core.Account{}, fmt.Errorf("check account name: %w", err)
	}
	if exists {
		return core.Account{}, &core.ConflictError{Reason: "an account with this name already exists"}
	}
	cat, err := s.categories.Category(ctx, categoryID)
	if err != nil {
		return core.Account{}, err
	}
	a.Category = cat

	saved, err := s.accounts.UpdateAccount(ctx, a)
	if err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	s.logger.InfoContext(ctx, "Account updated", log.FieldAccountID, id, log.FieldAccountName, saved.Name)
	return saved, nil
}

// DeleteAccount removes an account. The prior-balance account and accounts
// with recorded movements are protected.
func (s *Service) DeleteAccount(ctx context.Context, id int64) error {
	a, err := s.accounts.Account(ctx, id)
	if err != nil {
		return err
	}
	if a.IsSpecialBalance() {
		return &core.ConflictError{Reason: "the prior-balance account cannot be removed"}
	}
	movs, err := s.movements.MovementsByAccount(ctx, id)
	if err != nil {
		return fmt.Errorf("check account movements: %w", err)
	}
	if len(movs) > 0 {
		return &core.ConflictError{Reason: "the account has movements and cannot be removed"}
	}
	if err := s.accounts.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.logger.InfoContext(ctx, "Account removed", log.FieldAccountID, id, log.FieldAccountName, a.Name)
	return nil
}

// Categories returns every category.
func (s *Service) Categories(ctx context.Context) ([]core.Category, error) {
	return s.categories.Categories(ctx)
}

// Category returns one category by id.
func (s *Service) Category(ctx context.Context, id int64) (core.Category, error) {
	return s.categories.Category(ctx, id)
}

// CreateCategory validates and stores a new category.
func (s *Service) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	c := core.Category{Name: strings.TrimSpace(name)}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	exists, err := s.categories.CategoryNameExists(ctx, c.Name, 0)
	if err != nil {
		return core.Category{}, fmt.Errorf("check category name: %w", err)
	}
	if exists {
		return core.Category{}, &core.ConflictError{Reason: "a category with this name already exists"}
	}
	saved, err := s.categories.AddCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("add category: %w", err)
	}
	s.logger.InfoContext(ctx, "Category created", log.FieldCategoryID, saved.ID, "category", saved.Name)
	return saved, nil
}
