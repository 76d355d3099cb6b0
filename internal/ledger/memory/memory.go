// Package memory provides the in-process ledger store. One mutex guards all
// state: every operation runs to completion under it, which serializes
// concurrent mutations the same way a single-writer event loop would.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"caixa/internal/core"
	"caixa/internal/ledger"
	"caixa/internal/users"
)

type Store struct {
	mu sync.Mutex

	categories []core.Category
	accounts   []core.Account
	movements  []core.Movement
	people     []users.User

	nextCategoryID int64
	nextAccountID  int64
	nextMovementID int64
	nextUserID     int64
}

var (
	_ ledger.Store = (*Store)(nil)
	_ users.Repo   = (*Store)(nil)
)

// New creates a store holding only what the engine requires to run: the base
// categories and the fixed prior-balance account.
func New() *Store {
	s := &Store{
		nextCategoryID: 1,
		nextAccountID:  1,
		nextMovementID: 1,
		nextUserID:     1,
	}
	saldo := s.addCategoryLocked(core.Category{Name: "Saldo"})
	s.accounts = append(s.accounts, core.Account{
		ID:       core.SpecialBalanceAccountID,
		Name:     "Saldo Anterior",
		Type:     core.TypeBalance,
		Category: saldo,
	})
	return s
}

// SeedDemo loads a small demo dataset: a handful of categories, expense and
// income accounts and one month of movements.
func (s *Store) SeedDemo() {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := []string{"Alimentação", "Transporte", "Moradia", "Salário", "Freelances", "Outros"}
	cats := make(map[string]core.Category, len(names))
	for _, n := range names {
		cats[n] = s.addCategoryLocked(core.Category{Name: n})
	}

	add := func(name string, t core.AccountType, cat string) core.Account {
		a := core.Account{ID: s.nextAccountID, Name: name, Type: t, Category: cats[cat]}
		s.nextAccountID++
		s.accounts = append(s.accounts, a)
		return a
	}
	mercado := add("Supermercado", core.TypeExpense, "Alimentação")
	combustivel := add("Combustível", core.TypeExpense, "Transporte")
	salario := add("Salário Principal", core.TypeIncome, "Salário")
	freela := add("Freelance Design", core.TypeIncome, "Freelances")
	aluguel := add("Aluguel", core.TypeExpense, "Moradia")

	mov := func(y int, m time.Month, d int, cents int64, acct core.Account) {
		s.movements = append(s.movements, core.Movement{
			ID:        s.nextMovementID,
			Date:      core.Date(y, m, d),
			Amount:    core.Money{Cents: cents},
			AccountID: acct.ID,
		})
		s.nextMovementID++
	}
	mov(2025, time.February, 1, 5000_00, salario)
	mov(2025, time.February, 2, 150_50, mercado)
	mov(2025, time.February, 3, 80_00, combustivel)
	mov(2025, time.February, 5, 1200_00, aluguel)
	mov(2025, time.February, 10, 800_00, freela)
	mov(2025, time.February, 12, 250_75, mercado)
	mov(2025, time.February, 15, 120_00, combustivel)
}

func (s *Store) addCategoryLocked(c core.Category) core.Category {
	c.ID = s.nextCategoryID
	s.nextCategoryID++
	s.categories = append(s.categories, c)
	return c
}

// Categories returns all categories in insertion order.
func (s *Store) Categories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.categories...), nil
}

func (s *Store) Category(_ context.Context, id int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return core.Category{}, &core.NotFoundError{Kind: "category", ID: id}
}

func (s *Store) AddCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addCategoryLocked(c), nil
}

func (s *Store) CategoryNameExists(_ context.Context, name string, excludeID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.ID != excludeID && strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// Accounts returns all accounts in insertion order.
func (s *Store) Accounts(_ context.Context) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAccounts(s.accounts), nil
}

func (s *Store) Account(_ context.Context, id int64) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.ID == id {
			return cloneAccount(a), nil
		}
	}
	return core.Account{}, &core.NotFoundError{Kind: "account", ID: id}
}

func (s *Store) AccountsByType(_ context.Context, t core.AccountType) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Account
	for _, a := range s.accounts {
		if a.Type == t {
			out = append(out, cloneAccount(a))
		}
	}
	return out, nil
}

func (s *Store) AddAccount(_ context.Context, a core.Account) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.nextAccountID
		s.nextAccountID++
	} else if a.ID >= s.nextAccountID {
		s.nextAccountID = a.ID + 1
	}
	s.accounts = append(s.accounts, a)
	return cloneAccount(a), nil
}

func (s *Store) UpdateAccount(_ context.Context, a core.Account) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == a.ID {
			s.accounts[i] = a
			return cloneAccount(a), nil
		}
	}
	return core.Account{}, &core.NotFoundError{Kind: "account", ID: a.ID}
}

func (s *Store) DeleteAccount(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
			return nil
		}
	}
	return &core.NotFoundError{Kind: "account", ID: id}
}

func (s *Store) AccountNameExists(_ context.Context, name string, excludeID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.ID != excludeID && strings.EqualFold(a.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// Movements returns every movement sorted by date descending.
func (s *Store) Movements(_ context.Context) ([]core.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByDateDesc(s.movements), nil
}

func (s *Store) Movement(_ context.Context, id int64) (core.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.movements {
		if m.ID == id {
			return m, nil
		}
	}
	return core.Movement{}, &core.NotFoundError{Kind: "movement", ID: id}
}

func (s *Store) MovementsByPeriod(_ context.Context, start, end time.Time) ([]core.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	last := core.EndOfDay(end)
	var out []core.Movement
	for _, m := range s.movements {
		if !m.Date.Before(start) && !m.Date.After(last) {
			out = append(out, m)
		}
	}
	return sortedByDateDesc(out), nil
}

func (s *Store) MovementsByAccount(_ context.Context, accountID int64) ([]core.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Movement
	for _, m := range s.movements {
		if m.AccountID == accountID {
			out = append(out, m)
		}
	}
	return sortedByDateDesc(out), nil
}

func (s *Store) MovementsByAccountType(_ context.Context, t core.AccountType) ([]core.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make(map[int64]core.AccountType, len(s.accounts))
	for _, a := range s.accounts {
		types[a.ID] = a.Type
	}
	var out []core.Movement
	for _, m := range s.movements {
		if at, ok := types[m.AccountID]; ok && at == t {
			out = append(out, m)
		}
	}
	return sortedByDateDesc(out), nil
}

func (s *Store) AddMovement(_ context.Context, m core.Movement) (core.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.nextMovementID
	s.nextMovementID++
	s.movements = append(s.movements, m)
	return m, nil
}

func (s *Store) UpdateMovement(_ context.Context, m core.Movement) (core.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.movements {
		if s.movements[i].ID == m.ID {
			s.movements[i].Date = m.Date
			s.movements[i].Amount = m.Amount
			s.movements[i].AccountID = m.AccountID
			return s.movements[i], nil
		}
	}
	return core.Movement{}, &core.NotFoundError{Kind: "movement", ID: m.ID}
}

func (s *Store) DeleteMovement(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.movements {
		if s.movements[i].ID == id {
			s.movements = append(s.movements[:i], s.movements[i+1:]...)
			return nil
		}
	}
	return &core.NotFoundError{Kind: "movement", ID: id}
}

// Users returns all users in insertion order.
func (s *Store) Users(_ context.Context) ([]users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]users.User(nil), s.people...), nil
}

func (s *Store) User(_ context.Context, id int64) (users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.people {
		if u.ID == id {
			return u, nil
		}
	}
	return users.User{}, &core.NotFoundError{Kind: "user", ID: id}
}

func (s *Store) AddUser(_ context.Context, u users.User) (users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.nextUserID
	s.nextUserID++
	s.people = append(s.people, u)
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u users.User) (users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.people {
		if s.people[i].ID == u.ID {
			s.people[i] = u
			return u, nil
		}
	}
	return users.User{}, &core.NotFoundError{Kind: "user", ID: u.ID}
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.people {
		if s.people[i].ID == id {
			s.people = append(s.people[:i], s.people[i+1:]...)
			return nil
		}
	}
	return &core.NotFoundError{Kind: "user", ID: id}
}

func (s *Store) UserEmailExists(_ context.Context, email string, excludeID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.people {
		if u.ID != excludeID && strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func cloneAccount(a core.Account) core.Account {
	if a.DisplayOrder != nil {
		ord := *a.DisplayOrder
		a.DisplayOrder = &ord
	}
	return a
}

func cloneAccounts(in []core.Account) []core.Account {
	out := make([]core.Account, len(in))
	for i, a := range in {
		out[i] = cloneAccount(a)
	}
	return out
}

func sortedByDateDesc(in []core.Movement) []core.Movement {
	out := append([]core.Movement(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}
