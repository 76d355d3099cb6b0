package memory

import (
	"context"
	"testing"
	"time"

	"caixa/internal/core"
)

func TestNewSeedsSpecialAccount(t *testing.T) {
	s := New()

	a, err := s.Account(context.Background(), core.SpecialBalanceAccountID)
	if err != nil {
		t.Fatalf("Account(999): %v", err)
	}
	if a.Name != "Saldo Anterior" || a.Type != core.TypeBalance {
		t.Errorf("special account = %+v", a)
	}

	cats, err := s.Categories(context.Background())
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(cats) != 1 || cats[0].Name != "Saldo" {
		t.Errorf("categories = %+v", cats)
	}
}

func TestAccountIDsStayAboveSeeded(t *testing.T) {
	s := New()
	ctx := context.Background()

	// An explicit ID bumps the sequence past it.
	if _, err := s.AddAccount(ctx, core.Account{ID: 1500, Name: "Importada", Type: core.TypeExpense, Category: core.Category{ID: 1}}); err != nil {
		t.Fatalf("AddAccount: %v", err)
	}
	a, err := s.AddAccount(ctx, core.Account{Name: "Nova", Type: core.TypeExpense, Category: core.Category{ID: 1}})
	if err != nil {
		t.Fatalf("AddAccount: %v", err)
	}
	if a.ID != 1501 {
		t.Errorf("generated ID = %d, want 1501", a.ID)
	}
}

func TestMovementsByPeriodInclusiveBounds(t *testing.T) {
	s := New()
	ctx := context.Background()

	cat, _ := s.AddCategory(ctx, core.Category{Name: "Geral"})
	acct, err := s.AddAccount(ctx, core.Account{Name: "Mercado", Type: core.TypeExpense, Category: cat})
	if err != nil {
		t.Fatalf("AddAccount: %v", err)
	}

	for _, d := range []time.Time{
		core.Date(2025, time.March, 1),
		core.Date(2025, time.March, 31),
		core.Date(2025, time.April, 1),
	} {
		if _, err := s.AddMovement(ctx, core.Movement{Date: d, Amount: core.Money{Cents: 10_00}, AccountID: acct.ID}); err != nil {
			t.Fatalf("AddMovement: %v", err)
		}
	}

	got, err := s.MovementsByPeriod(ctx, core.Date(2025, time.March, 1), core.Date(2025, time.March, 31))
	if err != nil {
		t.Fatalf("MovementsByPeriod: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d movements, want 2", len(got))
	}
	if got[0].Date.Before(got[1].Date) {
		t.Errorf("movements not sorted date descending: %v, %v", got[0].Date, got[1].Date)
	}
}

func TestUpdateMovementKeepsIdentity(t *testing.T) {
	s := New()
	ctx := context.Background()

	cat, _ := s.AddCategory(ctx, core.Category{Name: "Geral"})
	acct, _ := s.AddAccount(ctx, core.Account{Name: "Mercado", Type: core.TypeExpense, Category: cat})
	m, err := s.AddMovement(ctx, core.Movement{Date: core.Date(2025, time.May, 1), Amount: core.Money{Cents: 10_00}, AccountID: acct.ID})
	if err != nil {
		t.Fatalf("AddMovement: %v", err)
	}

	updated, err := s.UpdateMovement(ctx, core.Movement{ID: m.ID, Date: core.Date(2025, time.June, 2), Amount: core.Money{Cents: 20_00}, AccountID: acct.ID})
	if err != nil {
		t.Fatalf("UpdateMovement: %v", err)
	}
	if updated.ID != m.ID || updated.Amount.Cents != 20_00 {
		t.Errorf("updated = %+v", updated)
	}

	if _, err := s.UpdateMovement(ctx, core.Movement{ID: 9999, Date: core.Date(2025, time.June, 2), Amount: core.Money{Cents: 1}, AccountID: acct.ID}); !core.IsNotFound(err) {
		t.Errorf("unknown movement err = %v, want not found", err)
	}
}

func TestAccountClonesAreIsolated(t *testing.T) {
	s := New()
	ctx := context.Background()

	cat, _ := s.AddCategory(ctx, core.Category{Name: "Geral"})
	order := 5
	acct, err := s.AddAccount(ctx, core.Account{Name: "Mercado", Type: core.TypeExpense, Category: cat, DisplayOrder: &order})
	if err != nil {
		t.Fatalf("AddAccount: %v", err)
	}

	// Mutating the returned copy must not leak into the store.
	*acct.DisplayOrder = 42
	stored, err := s.Account(ctx, acct.ID)
	if err != nil {
		t.Fatalf("Account: %v", err)
	}
	if *stored.DisplayOrder != 5 {
		t.Errorf("stored DisplayOrder = %d, want 5", *stored.DisplayOrder)
	}
}

func TestSeedDemo(t *testing.T) {
	s := New()
	s.SeedDemo()
	ctx := context.Background()

	accounts, err := s.Accounts(ctx)
	if err != nil {
		t.Fatalf("Accounts: %v", err)
	}
	if len(accounts) != 6 {
		t.Errorf("accounts = %d, want 6 (special + 5 demo)", len(accounts))
	}

	movs, err := s.Movements(ctx)
	if err != nil {
		t.Fatalf("Movements: %v", err)
	}
	if len(movs) != 7 {
		t.Errorf("movements = %d, want 7", len(movs))
	}
	for _, m := range movs {
		if m.AccountID == core.SpecialBalanceAccountID {
			t.Errorf("demo seed wrote a movement on the prior-balance account")
		}
	}
}
