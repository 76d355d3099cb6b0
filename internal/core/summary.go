package core

// FinancialSummary is a compact rollup over the whole ledger.
type FinancialSummary struct {
	IncomeCents  int64 // sum of income magnitudes
	ExpenseCents int64 // sum of expense magnitudes
	BalanceCents int64 // opening balance of the latest generated month
	NetCents     int64 // income - expense
	CurrentCents int64 // signed sum of every movement
}

// CategorySummary accumulates income/expense subtotals for one category.
type CategorySummary struct {
	Category     Category
	IncomeCents  int64
	ExpenseCents int64
	NetCents     int64 // income - expense
}
