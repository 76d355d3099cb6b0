package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"caixa/internal/balance"
	"caixa/internal/catalog"
	"caixa/internal/flow"
	"caixa/internal/ledger/memory"
	"caixa/internal/report"
	"caixa/internal/services"
	"caixa/internal/users"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := memory.New()
	cat := catalog.NewService(store, store, store, nil)
	engine := balance.New(store, store, nil)
	srv := NewServer("127.0.0.1:0", Deps{
		Movements:  services.NewMovementService(store, engine, nil, nil),
		Catalog:    cat,
		Aggregator: flow.New(cat, engine, store, nil),
		Reports:    report.New(store, store, nil),
		Users:      users.NewService(store, nil, nil),
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func do(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func seedAccount(t *testing.T, srv *Server, name, typ string) accountJSON {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/categories", categoryRequest{Name: "Geral " + name})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category: status %d body %s", rec.Code, rec.Body.String())
	}
	cat := decode[categoryJSON](t, rec)

	rec = do(t, srv, http.MethodPost, "/api/accounts", accountRequest{Name: name, Type: typ, CategoryID: cat.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account: status %d body %s", rec.Code, rec.Body.String())
	}
	return decode[accountJSON](t, rec)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := do(t, srv, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestMovementLifecycle(t *testing.T) {
	srv := newTestServer(t)
	acct := seedAccount(t, srv, "Salário", "INCOME")

	rec := do(t, srv, http.MethodPost, "/api/movements", movementRequest{
		Date: "2025-03-10", AmountCents: 3000_00, AccountID: acct.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create movement: status %d body %s", rec.Code, rec.Body.String())
	}
	created := decode[movementJSON](t, rec)
	if created.SignedCents != 3000_00 || created.Account.ID != acct.ID {
		t.Errorf("created movement = %+v", created)
	}

	rec = do(t, srv, http.MethodGet, fmt.Sprintf("/api/movements/%d", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get movement: status %d", rec.Code)
	}

	rec = do(t, srv, http.MethodPut, fmt.Sprintf("/api/movements/%d", created.ID), movementRequest{
		Date: "2025-03-12", AmountCents: 3500_00, AccountID: acct.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update movement: status %d body %s", rec.Code, rec.Body.String())
	}
	updated := decode[movementJSON](t, rec)
	if updated.AmountCents != 3500_00 || updated.Date != "2025-03-12" {
		t.Errorf("updated movement = %+v", updated)
	}

	rec = do(t, srv, http.MethodDelete, fmt.Sprintf("/api/movements/%d", created.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete movement: status %d", rec.Code)
	}
	rec = do(t, srv, http.MethodGet, fmt.Sprintf("/api/movements/%d", created.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted movement: status %d, want 404", rec.Code)
	}
}

func TestCreateMovementValidation(t *testing.T) {
	srv := newTestServer(t)
	acct := seedAccount(t, srv, "Mercado", "EXPENSE")

	tests := []struct {
		name string
		req  movementRequest
		want int
	}{
		{"bad date", movementRequest{Date: "10/03/2025", AmountCents: 100, AccountID: acct.ID}, http.StatusUnprocessableEntity},
		{"zero amount", movementRequest{Date: "2025-03-10", AmountCents: 0, AccountID: acct.ID}, http.StatusUnprocessableEntity},
		{"special account target", movementRequest{Date: "2025-03-10", AmountCents: 100, AccountID: 999}, http.StatusConflict},
		{"unknown account", movementRequest{Date: "2025-03-10", AmountCents: 100, AccountID: 12345}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/movements", tt.req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestSummaryEndpoint(t *testing.T) {
	srv := newTestServer(t)
	acct := seedAccount(t, srv, "Honorários", "INCOME")

	rec := do(t, srv, http.MethodPost, "/api/movements", movementRequest{Date: "2025-05-02", AmountCents: 2500_00, AccountID: acct.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create movement: status %d", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/api/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: status %d", rec.Code)
	}
	sum := decode[summaryJSON](t, rec)
	if sum.IncomeCents != 2500_00 || sum.CurrentCents != 2500_00 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.CurrentReais != 2500.0 {
		t.Errorf("current reais = %v, want 2500", sum.CurrentReais)
	}
}

func TestCreateMovementDecimalAmount(t *testing.T) {
	srv := newTestServer(t)
	acct := seedAccount(t, srv, "Internet", "EXPENSE")

	rec := do(t, srv, http.MethodPost, "/api/movements", movementRequest{
		Date: "2025-04-05", Amount: "129,90", AccountID: acct.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create movement: status %d body %s", rec.Code, rec.Body.String())
	}
	created := decode[movementJSON](t, rec)
	if created.AmountCents != 129_90 || created.SignedCents != -129_90 {
		t.Errorf("created movement = %+v, want 12990 cents", created)
	}
	if created.Amount != "R$ 129,90" {
		t.Errorf("formatted amount = %q, want R$ 129,90", created.Amount)
	}

	rec = do(t, srv, http.MethodPost, "/api/movements", movementRequest{
		Date: "2025-04-05", Amount: "12,9,0", AccountID: acct.ID,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("malformed amount: status %d, want 422", rec.Code)
	}
}

func TestListMovementsLatestLimit(t *testing.T) {
	srv := newTestServer(t)
	acct := seedAccount(t, srv, "Vendas", "INCOME")

	for _, date := range []string{"2025-01-10", "2025-02-10", "2025-03-10"} {
		rec := do(t, srv, http.MethodPost, "/api/movements", movementRequest{Date: date, AmountCents: 100_00, AccountID: acct.ID})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create movement %s: status %d", date, rec.Code)
		}
	}

	rec := do(t, srv, http.MethodGet, "/api/movements?limit=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list movements: status %d", rec.Code)
	}
	latest := decode[[]movementJSON](t, rec)
	if len(latest) != 2 {
		t.Fatalf("got %d movements, want 2", len(latest))
	}
	if latest[0].Date != "2025-03-10" || latest[1].Date != "2025-02-10" {
		t.Errorf("latest movements = %+v, want newest first", latest)
	}
	for _, m := range latest {
		if m.Account.Special {
			t.Errorf("generated balance movement leaked into latest: %+v", m)
		}
	}
}

func TestAccountEndpoints(t *testing.T) {
	srv := newTestServer(t)
	acct := seedAccount(t, srv, "Aluguel", "EXPENSE")

	// Duplicate names conflict case-insensitively.
	rec := do(t, srv, http.MethodPost, "/api/accounts", accountRequest{Name: "aluguel", Type: "EXPENSE", CategoryID: acct.Category.ID})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate account: status %d, want 409", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/api/accounts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list accounts: status %d", rec.Code)
	}
	accounts := decode[[]accountJSON](t, rec)
	if len(accounts) < 2 || !accounts[0].Special {
		t.Fatalf("ordered accounts = %+v, want prior-balance first", accounts)
	}
	if accounts[0].TypeLabel != "Saldo" || accounts[0].TypeIcon == "" {
		t.Errorf("type metadata = %+v", accounts[0])
	}

	// ?editable=true hides the prior-balance account.
	rec = do(t, srv, http.MethodGet, "/api/accounts?editable=true", nil)
	for _, a := range decode[[]accountJSON](t, rec) {
		if a.Special {
			t.Errorf("editable listing contains the prior-balance account")
		}
	}

	rec = do(t, srv, http.MethodGet, "/api/accounts?type=EXPENSE", nil)
	byType := decode[[]accountJSON](t, rec)
	if len(byType) != 1 || byType[0].ID != acct.ID {
		t.Errorf("type filter = %+v, want only %d", byType, acct.ID)
	}

	// Explicit ordering keeps the prior-balance account in front.
	rec = do(t, srv, http.MethodPost, "/api/accounts/order", orderRequest{AccountIDs: []int64{acct.ID}})
	if rec.Code != http.StatusOK {
		t.Fatalf("order accounts: status %d body %s", rec.Code, rec.Body.String())
	}
	ordered := decode[[]accountJSON](t, rec)
	if !ordered[0].Special || ordered[1].ID != acct.ID {
		t.Errorf("explicit order = %+v", ordered)
	}

	rec = do(t, srv, http.MethodDelete, "/api/accounts/999", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("delete special account: status %d, want 409", rec.Code)
	}
}

func TestFlowEndpoint(t *testing.T) {
	srv := newTestServer(t)
	acct := seedAccount(t, srv, "Freelance", "INCOME")

	rec := do(t, srv, http.MethodPost, "/api/movements", movementRequest{Date: "2025-02-14", AmountCents: 800_00, AccountID: acct.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create movement: status %d", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/api/flow?year=2025", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("flow: status %d body %s", rec.Code, rec.Body.String())
	}
	view := decode[yearViewJSON](t, rec)
	if view.Year != 2025 || view.MonthNames[1] != "Fev" {
		t.Errorf("year view header = %+v", view)
	}
	if view.MonthTotals[1] != 800_00 {
		t.Errorf("February total = %d, want 80000", view.MonthTotals[1])
	}

	// A second movement must be visible in spite of the year-view cache.
	rec = do(t, srv, http.MethodPost, "/api/movements", movementRequest{Date: "2025-02-20", AmountCents: 200_00, AccountID: acct.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create second movement: status %d", rec.Code)
	}
	rec = do(t, srv, http.MethodGet, "/api/flow?year=2025", nil)
	view = decode[yearViewJSON](t, rec)
	if view.MonthTotals[1] != 1000_00 {
		t.Errorf("February total after second movement = %d, want 100000", view.MonthTotals[1])
	}
}

func TestReportsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	income := seedAccount(t, srv, "Consultoria", "INCOME")
	expense := seedAccount(t, srv, "Energia", "EXPENSE")

	for _, m := range []movementRequest{
		{Date: "2025-05-02", AmountCents: 2000_00, AccountID: income.ID},
		{Date: "2025-05-10", AmountCents: 350_00, AccountID: expense.ID},
	} {
		if rec := do(t, srv, http.MethodPost, "/api/movements", m); rec.Code != http.StatusCreated {
			t.Fatalf("create movement: status %d", rec.Code)
		}
	}

	rec := do(t, srv, http.MethodGet, "/api/reports?start=2025-05-01&end=2025-05-31", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reports: status %d body %s", rec.Code, rec.Body.String())
	}
	rep := decode[struct {
		Totals     periodTotalsJSON      `json:"totals"`
		Categories []categorySummaryJSON `json:"categories"`
	}](t, rec)
	if rep.Totals.IncomeCents != 2000_00 || rep.Totals.ExpenseCents != 350_00 || rep.Totals.NetCents != 1650_00 {
		t.Errorf("totals = %+v", rep.Totals)
	}
	if len(rep.Categories) != 2 {
		t.Errorf("categories = %+v", rep.Categories)
	}

	rec = do(t, srv, http.MethodGet, "/api/reports?start=2025-06-01&end=2025-05-01", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("inverted period: status %d, want 422", rec.Code)
	}
}

func TestUserEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/users", userRequest{
		Name: "Maria Silva", Email: "maria@example.com", Phone: "11999990000", CPF: "52998224725",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user: status %d body %s", rec.Code, rec.Body.String())
	}
	created := decode[userJSON](t, rec)
	if created.CPF != "529.982.247-25" {
		t.Errorf("stored CPF = %q, want formatted", created.CPF)
	}

	rec = do(t, srv, http.MethodPost, "/api/users", userRequest{
		Name: "Outra Maria", Email: "MARIA@example.com", Phone: "11888880000", CPF: "52998224725",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate email: status %d, want 409", rec.Code)
	}

	rec = do(t, srv, http.MethodPost, "/api/users", userRequest{
		Name: "João", Email: "joao@example.com", Phone: "11777770000", CPF: "11111111111",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid cpf: status %d, want 422", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/api/users/search?q=maria", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search users: status %d", rec.Code)
	}
	if found := decode[[]userJSON](t, rec); len(found) != 1 || found[0].ID != created.ID {
		t.Errorf("search result = %+v", found)
	}

	rec = do(t, srv, http.MethodGet, "/api/users/stats", nil)
	stats := decode[userStatsJSON](t, rec)
	if stats.Total != 1 || stats.WithoutPhoto != 1 {
		t.Errorf("stats = %+v", stats)
	}

	rec = do(t, srv, http.MethodDelete, fmt.Sprintf("/api/users/%d", created.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete user: status %d", rec.Code)
	}
	rec = do(t, srv, http.MethodGet, fmt.Sprintf("/api/users/%d", created.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted user: status %d, want 404", rec.Code)
	}
}

func TestRateLimitOnMutatingRequests(t *testing.T) {
	srv := newTestServer(t)

	var last int
	for i := 0; i < 61; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/categories", bytes.NewReader([]byte(`{"name":"X"}`)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		rec := httptest.NewRecorder()
		srv.Server.Handler.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("61st mutating request status = %d, want 429", last)
	}
}
