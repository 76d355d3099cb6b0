// Package ledger defines the repository ports the ledger core depends on.
// Persistence technology is irrelevant to the algorithms; adapters live in
// ledger/memory and storage.
package ledger

import (
	"context"
	"time"

	"caixa/internal/core"
)

// Ports for outbound persistence adapters.
type (
	AccountRepo interface {
		Accounts(ctx context.Context) ([]core.Account, error)
		Account(ctx context.Context, id int64) (core.Account, error)
		AccountsByType(ctx context.Context, t core.AccountType) ([]core.Account, error)
		// AddAccount assigns the id unless the account carries a fixed one.
		AddAccount(ctx context.Context, a core.Account) (core.Account, error)
		UpdateAccount(ctx context.Context, a core.Account) (core.Account, error)
		DeleteAccount(ctx context.Context, id int64) error
		// AccountNameExists matches case-insensitively, skipping excludeID.
		AccountNameExists(ctx context.Context, name string, excludeID int64) (bool, error)
	}

	CategoryRepo interface {
		Categories(ctx context.Context) ([]core.Category, error)
		Category(ctx context.Context, id int64) (core.Category, error)
		AddCategory(ctx context.Context, c core.Category) (core.Category, error)
		CategoryNameExists(ctx context.Context, name string, excludeID int64) (bool, error)
	}

	// MovementRepo stores dated entries. Listings are sorted by date
	// descending; MovementsByPeriod includes the end date through its final
	// instant.
	MovementRepo interface {
		Movements(ctx context.Context) ([]core.Movement, error)
		Movement(ctx context.Context, id int64) (core.Movement, error)
		MovementsByPeriod(ctx context.Context, start, end time.Time) ([]core.Movement, error)
		MovementsByAccount(ctx context.Context, accountID int64) ([]core.Movement, error)
		MovementsByAccountType(ctx context.Context, t core.AccountType) ([]core.Movement, error)
		AddMovement(ctx context.Context, m core.Movement) (core.Movement, error)
		UpdateMovement(ctx context.Context, m core.Movement) (core.Movement, error)
		DeleteMovement(ctx context.Context, id int64) error
	}
)

// Store bundles the three ledger ports; the memory and SQLite adapters
// implement all of them over one shared dataset.
type Store interface {
	AccountRepo
	CategoryRepo
	MovementRepo
}
