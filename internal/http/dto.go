package http

import (
	"time"

	"caixa/internal/core"
	"caixa/internal/flow"
	"caixa/internal/users"
)

type categoryJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type accountJSON struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Type         string       `json:"type"`
	TypeLabel    string       `json:"type_label"`
	TypeColor    string       `json:"type_color"`
	TypeIcon     string       `json:"type_icon"`
	Category     categoryJSON `json:"category"`
	DisplayOrder *int         `json:"display_order"`
	Special      bool         `json:"special"`
}

type movementJSON struct {
	ID          int64       `json:"id"`
	Date        string      `json:"date"`
	Amount      string      `json:"amount"`
	AmountCents int64       `json:"amount_cents"`
	SignedCents int64       `json:"signed_cents"`
	Account     accountJSON `json:"account"`
}

type summaryJSON struct {
	IncomeCents  int64   `json:"income_cents"`
	ExpenseCents int64   `json:"expense_cents"`
	BalanceCents int64   `json:"balance_cents"`
	NetCents     int64   `json:"net_cents"`
	CurrentCents int64   `json:"current_cents"`
	CurrentReais float64 `json:"current_reais"`
}

type flowRowJSON struct {
	Account accountJSON `json:"account"`
	Cells   [12]int64   `json:"cells"`
	Average float64     `json:"average"`
}

type yearViewJSON struct {
	Year        int           `json:"year"`
	MonthNames  [12]string    `json:"month_names"`
	Rows        []flowRowJSON `json:"rows"`
	MonthTotals [12]int64     `json:"month_totals"`
	YearTotal   int64         `json:"year_total"`
	Years       []int         `json:"years"`
}

type periodTotalsJSON struct {
	Start        string `json:"start"`
	End          string `json:"end"`
	IncomeCents  int64  `json:"income_cents"`
	ExpenseCents int64  `json:"expense_cents"`
	NetCents     int64  `json:"net_cents"`
	Movements    int    `json:"movements"`
}

type categorySummaryJSON struct {
	Category     string `json:"category"`
	IncomeCents  int64  `json:"income_cents"`
	ExpenseCents int64  `json:"expense_cents"`
	NetCents     int64  `json:"net_cents"`
}

type userJSON struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	CPF       string `json:"cpf,omitempty"`
	Photo     string `json:"photo,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type userStatsJSON struct {
	Total        int `json:"total"`
	WithPhoto    int `json:"with_photo"`
	WithoutPhoto int `json:"without_photo"`
}

func toCategoryJSON(c core.Category) categoryJSON {
	return categoryJSON{ID: c.ID, Name: c.Name}
}

func toAccountJSON(a core.Account) accountJSON {
	return accountJSON{
		ID:           a.ID,
		Name:         a.Name,
		Type:         a.Type.String(),
		TypeLabel:    a.Type.Description(),
		TypeColor:    a.Type.CSSClass(),
		TypeIcon:     a.Type.Icon(),
		Category:     toCategoryJSON(a.Category),
		DisplayOrder: a.DisplayOrder,
		Special:      a.IsSpecialBalance(),
	}
}

func toMovementJSON(e core.Entry) movementJSON {
	return movementJSON{
		ID:          e.ID,
		Date:        e.Date.Format(dateLayout),
		Amount:      e.Amount.Format(),
		AmountCents: e.Amount.Cents,
		SignedCents: e.SignedCents(),
		Account:     toAccountJSON(e.Account),
	}
}

func toMovementsJSON(entries []core.Entry) []movementJSON {
	out := make([]movementJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, toMovementJSON(e))
	}
	return out
}

func toYearViewJSON(v flow.YearView) yearViewJSON {
	out := yearViewJSON{
		Year:        v.Year,
		MonthNames:  v.MonthNames,
		MonthTotals: v.MonthTotals,
		YearTotal:   v.YearTotal,
		Years:       v.Years,
		Rows:        make([]flowRowJSON, 0, len(v.Rows)),
	}
	for _, r := range v.Rows {
		out.Rows = append(out.Rows, flowRowJSON{
			Account: toAccountJSON(r.Account),
			Cells:   r.Cells,
			Average: r.Average,
		})
	}
	return out
}

func toUserJSON(u users.User) userJSON {
	return userJSON{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		CPF:       u.CPF,
		Photo:     u.Photo,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toUsersJSON(list []users.User) []userJSON {
	out := make([]userJSON, 0, len(list))
	for _, u := range list {
		out = append(out, toUserJSON(u))
	}
	return out
}
