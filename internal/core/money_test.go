package core

import "testing"

func TestParseCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"12.345", 1235, true}, // half rounds up
		{"12.346", 1235, true}, // rounds up
		{"0.01", 1, true},
		{"5", 500, true},
		{".5", 50, true},
		{"", 0, false},
		{"0", 0, false},
		{"-12.34", 0, false},
		{"+12.34", 0, false},
		{"1.2.3", 0, false},
		{"abc", 0, false},
	}
	for i, tc := range cases {
		got, err := ParseCents(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("case %d (%q): unexpected error %v", i, tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("case %d (%q): got %d, want %d", i, tc.in, got, tc.want)
			}
			continue
		}
		if err == nil {
			t.Fatalf("case %d (%q): expected error", i, tc.in)
		}
		if !IsValidation(err) {
			t.Fatalf("case %d (%q): expected validation error, got %T", i, tc.in, err)
		}
	}
}

func TestMoneyFormat(t *testing.T) {
	if got := (Money{Cents: 123456}).Format(); got != "R$ 1234,56" {
		t.Fatalf("got %q", got)
	}
	if got := (Money{Cents: -80000}).Format(); got != "-R$ 800,00" {
		t.Fatalf("got %q", got)
	}
	if got := (Money{Cents: 5}).Format(); got != "R$ 0,05" {
		t.Fatalf("got %q", got)
	}
}
