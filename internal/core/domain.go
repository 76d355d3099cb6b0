package core

import (
	"strings"
	"time"
)

// AccountType classifies an account and fixes the sign of its movements.
type AccountType uint8

const (
	TypeExpense AccountType = iota
	TypeIncome
	TypeBalance
)

// SpecialBalanceAccountID identifies the fixed prior-balance account. It is
// never deletable and never a valid target for user-created movements.
const SpecialBalanceAccountID int64 = 999

// String returns the wire name of the type.
func (t AccountType) String() string {
	switch t {
	case TypeExpense:
		return "EXPENSE"
	case TypeIncome:
		return "INCOME"
	case TypeBalance:
		return "BALANCE"
	}
	return "UNKNOWN"
}

// Description returns the display label of the type.
func (t AccountType) Description() string {
	switch t {
	case TypeExpense:
		return "Despesa"
	case TypeIncome:
		return "Receita"
	case TypeBalance:
		return "Saldo"
	}
	return ""
}

// CSSClass returns the style class used when rendering the type.
func (t AccountType) CSSClass() string {
	switch t {
	case TypeExpense:
		return "danger"
	case TypeIncome:
		return "success"
	case TypeBalance:
		return "primary"
	}
	return "secondary"
}

// Icon returns the icon name used when rendering the type.
func (t AccountType) Icon() string {
	switch t {
	case TypeExpense:
		return "bi-arrow-down-circle"
	case TypeIncome:
		return "bi-arrow-up-circle"
	case TypeBalance:
		return "bi-cash-stack"
	}
	return "bi-circle"
}

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case TypeExpense, TypeIncome, TypeBalance:
		return true
	}
	return false
}

// AccountTypes lists all valid types.
func AccountTypes() []AccountType {
	return []AccountType{TypeExpense, TypeIncome, TypeBalance}
}

// ParseAccountType converts a wire name into an AccountType.
func ParseAccountType(s string) (AccountType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EXPENSE":
		return TypeExpense, nil
	case "INCOME":
		return TypeIncome, nil
	case "BALANCE":
		return TypeBalance, nil
	}
	return 0, &ValidationError{Fields: []string{"type"}, Msg: "invalid account type: " + s}
}

type (
	// Category groups accounts for reporting.
	Category struct {
		ID   int64
		Name string
	}

	// Account is a named ledger bucket of a given type and category.
	// DisplayOrder is assigned by the catalog ordering algorithm; nil means
	// the order has not been assigned yet.
	Account struct {
		ID           int64
		Name         string
		Type         AccountType
		Category     Category
		DisplayOrder *int
	}

	// Movement is a single dated monetary entry against an account. Amount is
	// an unsigned magnitude; the sign is derived from the account type.
	Movement struct {
		ID        int64
		Date      time.Time
		Amount    Money
		AccountID int64
	}

	// Entry is a movement joined with its current account.
	Entry struct {
		Movement
		Account Account
	}
)

// Validate checks category invariants.
func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return &ValidationError{Fields: []string{"name"}, Msg: "category name is required"}
	}
	if len(name) < 2 {
		return &ValidationError{Fields: []string{"name"}, Msg: "category name must have at least 2 characters"}
	}
	return nil
}

// Validate checks account invariants.
func (a Account) Validate() error {
	var fields []string
	if strings.TrimSpace(a.Name) == "" {
		fields = append(fields, "name")
	}
	if !a.Type.Valid() {
		fields = append(fields, "type")
	}
	if a.Category.ID == 0 {
		fields = append(fields, "category")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields, Msg: "invalid account data"}
	}
	return nil
}

// IsSpecialBalance reports whether the account is the fixed prior-balance one.
func (a Account) IsSpecialBalance() bool {
	return a.ID == SpecialBalanceAccountID
}

// Validate checks movement invariants for user-entered movements. Engine
// generated prior-balance entries do not pass through here, since their
// amount may legitimately be zero or negative.
func (m Movement) Validate() error {
	var fields []string
	if m.Date.IsZero() {
		fields = append(fields, "date")
	}
	if m.Amount.Cents <= 0 {
		fields = append(fields, "amount")
	}
	if m.AccountID == 0 {
		fields = append(fields, "account")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields, Msg: "invalid movement data"}
	}
	return nil
}

// Year returns the calendar year of the movement date.
func (m Movement) Year() int { return m.Date.Year() }

// MonthIndex returns the zero-based month (0=January) of the movement date.
func (m Movement) MonthIndex() int { return int(m.Date.Month()) - 1 }

// SignedCents returns the movement amount with the sign implied by the
// account type: income positive, expense negative, balance as stored.
func SignedCents(t AccountType, amount Money) int64 {
	switch t {
	case TypeIncome:
		return amount.Cents
	case TypeExpense:
		return -amount.Cents
	case TypeBalance:
		return amount.Cents
	}
	return 0
}

// SignedCents returns the entry amount with the account-type sign applied.
func (e Entry) SignedCents() int64 {
	return SignedCents(e.Account.Type, e.Amount)
}

// Date builds a UTC date at midnight, the canonical movement timestamp.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last instant of the given day, used to make period
// queries inclusive of their end date.
func EndOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), d.Location())
}
