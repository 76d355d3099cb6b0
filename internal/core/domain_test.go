package core

import (
	"testing"
	"time"
)

func TestParseAccountType(t *testing.T) {
	cases := []struct {
		in   string
		want AccountType
		ok   bool
	}{
		{"EXPENSE", TypeExpense, true},
		{"income", TypeIncome, true},
		{" Balance ", TypeBalance, true},
		{"SALDO", 0, false},
		{"", 0, false},
	}
	for i, tc := range cases {
		got, err := ParseAccountType(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("case %d: got (%v, %v), want %v", i, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d: expected error for %q", i, tc.in)
		}
	}
}

func TestSignedCents(t *testing.T) {
	cases := []struct {
		typ   AccountType
		cents int64
		want  int64
	}{
		{TypeIncome, 2000_00, 2000_00},
		{TypeExpense, 800_00, -800_00},
		{TypeBalance, 1200_00, 1200_00},
		{TypeBalance, -300_00, -300_00},
	}
	for i, tc := range cases {
		if got := SignedCents(tc.typ, Money{Cents: tc.cents}); got != tc.want {
			t.Fatalf("case %d: got %d, want %d", i, got, tc.want)
		}
	}
}

func TestMovementValidate(t *testing.T) {
	good := Movement{Date: Date(2025, time.January, 5), Amount: Money{Cents: 100}, AccountID: 1}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Movement{
		{Amount: Money{Cents: 100}, AccountID: 1},                              // zero date
		{Date: Date(2025, time.January, 5), AccountID: 1},                      // zero amount
		{Date: Date(2025, time.January, 5), Amount: Money{Cents: -5}, AccountID: 1}, // negative
		{Date: Date(2025, time.January, 5), Amount: Money{Cents: 100}},         // no account
	}
	for i, m := range bads {
		err := m.Validate()
		if err == nil {
			t.Fatalf("case %d: expected error", i)
		}
		if !IsValidation(err) {
			t.Fatalf("case %d: expected validation error, got %T", i, err)
		}
	}
}

func TestAccountValidate(t *testing.T) {
	cat := Category{ID: 1, Name: "Moradia"}
	if err := (Account{ID: 1, Name: "Aluguel", Type: TypeExpense, Category: cat}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Account{ID: 1, Name: "", Type: TypeExpense, Category: cat}).Validate(); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := (Account{ID: 1, Name: "x", Type: AccountType(9), Category: cat}).Validate(); err == nil {
		t.Fatal("expected error for bad type")
	}
	if err := (Account{ID: 1, Name: "x", Type: TypeIncome}).Validate(); err == nil {
		t.Fatal("expected error for missing category")
	}
}

func TestMonthIndex(t *testing.T) {
	m := Movement{Date: Date(2025, time.January, 15)}
	if got := m.MonthIndex(); got != 0 {
		t.Fatalf("January index = %d, want 0", got)
	}
	m = Movement{Date: Date(2025, time.December, 1)}
	if got := m.MonthIndex(); got != 11 {
		t.Fatalf("December index = %d, want 11", got)
	}
}

func TestEndOfDay(t *testing.T) {
	end := EndOfDay(Date(2025, time.March, 10))
	if end.Before(Date(2025, time.March, 10).Add(23 * time.Hour)) {
		t.Fatalf("end of day too early: %v", end)
	}
	if !end.Before(Date(2025, time.March, 11)) {
		t.Fatalf("end of day leaked into next day: %v", end)
	}
}
