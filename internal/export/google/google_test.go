package google

import (
	"testing"

	"caixa/internal/core"
	"caixa/internal/flow"
)

func TestYearSheetName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Fluxo", 2025, "2025 Fluxo"},
		{" Fluxo ", 2025, "2025 Fluxo"},
		{"2024 Fluxo", 2025, "2024 Fluxo"},
		{"", 2025, "2025"},
		{"Caixa Mensal", 2026, "2026 Caixa Mensal"},
	}
	for _, tt := range tests {
		if got := yearSheetName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearSheetName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}

func TestBuildGrid(t *testing.T) {
	view := flow.YearView{
		Year:       2025,
		MonthNames: flow.MonthNames,
		Rows: []flow.Row{
			{
				Account: core.Account{Name: "Saldo Anterior", Type: core.TypeBalance},
				Cells:   [12]int64{0, 1200_00},
			},
			{
				Account: core.Account{Name: "Salário", Type: core.TypeIncome},
				Cells:   [12]int64{2000_00},
				Average: 2000_00,
			},
		},
		MonthTotals: [12]int64{2000_00, 1200_00},
		YearTotal:   3200_00,
	}

	grid := buildGrid(view)
	if len(grid) != 4 {
		t.Fatalf("got %d rows, want 4 (header, 2 accounts, totals)", len(grid))
	}
	if grid[0][0] != "Conta" || grid[0][1] != "Jan" || grid[0][12] != "Dez" {
		t.Errorf("unexpected header: %v", grid[0])
	}
	if grid[1][0] != "Saldo Anterior" || grid[1][2] != 1200.0 {
		t.Errorf("unexpected balance row: %v", grid[1])
	}
	if grid[2][0] != "Salário" || grid[2][1] != 2000.0 {
		t.Errorf("unexpected salary row: %v", grid[2])
	}
	if avg := grid[2][13]; avg != 2000.0 {
		t.Errorf("salary average = %v, want 2000", avg)
	}
	if grid[3][0] != "Total" || grid[3][14] != 3200.0 {
		t.Errorf("unexpected totals row: %v", grid[3])
	}
}
