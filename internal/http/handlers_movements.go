package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"caixa/internal/core"
	"caixa/internal/report"
	"caixa/internal/services"
)

type movementRequest struct {
	Date string `json:"date"`
	// Amount is a decimal string ("123.45" or "123,45"); it wins over
	// AmountCents when both are present.
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	AccountID   int64  `json:"account_id"`
}

func (r movementRequest) money() (core.Money, error) {
	if strings.TrimSpace(r.Amount) != "" {
		cents, err := core.ParseCents(r.Amount)
		if err != nil {
			return core.Money{}, err
		}
		return core.Money{Cents: cents}, nil
	}
	return core.Money{Cents: r.AmountCents}, nil
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.movements.FinancialSummary(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryJSON{
		IncomeCents:  sum.IncomeCents,
		ExpenseCents: sum.ExpenseCents,
		BalanceCents: sum.BalanceCents,
		NetCents:     sum.NetCents,
		CurrentCents: sum.CurrentCents,
		CurrentReais: core.Money{Cents: sum.CurrentCents}.Reais(),
	})
}

func (s *Server) handleListMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.MovementFilter{Limit: queryInt(r, "limit", 0)}

	if v := strings.TrimSpace(q.Get("start")); v != "" {
		start, err := parseDate(v)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		filter.Start = start
	}
	if v := strings.TrimSpace(q.Get("end")); v != "" {
		end, err := parseDate(v)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		filter.End = core.EndOfDay(end)
	}
	if v := strings.TrimSpace(q.Get("account")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid account filter")
			return
		}
		filter.AccountID = id
	}
	if v := strings.TrimSpace(q.Get("type")); v != "" {
		t, err := core.ParseAccountType(v)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		filter.Type = &t
	}

	// A bare limit asks for the newest entries only.
	var entries []core.Entry
	var err error
	if filter.Limit > 0 && filter.Start.IsZero() && filter.End.IsZero() && filter.AccountID == 0 && filter.Type == nil {
		entries, err = s.movements.LatestMovements(r.Context(), filter.Limit)
	} else {
		entries, err = s.movements.FilteredMovements(r.Context(), filter)
	}
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementsJSON(entries))
}

func (s *Server) handleGetMovement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "movement not found")
		return
	}
	e, err := s.movements.Movement(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementJSON(e))
}

func (s *Server) handleCreateMovement(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	amount, err := req.money()
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	e, err := s.movements.CreateMovement(r.Context(), date, amount, req.AccountID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.invalidateViews()
	writeJSON(w, http.StatusCreated, toMovementJSON(e))
}

func (s *Server) handleUpdateMovement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "movement not found")
		return
	}
	var req movementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	amount, err := req.money()
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	e, err := s.movements.UpdateMovement(r.Context(), id, date, amount, req.AccountID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.invalidateViews()
	writeJSON(w, http.StatusOK, toMovementJSON(e))
}

func (s *Server) handleDeleteMovement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "movement not found")
		return
	}
	if err := s.movements.DeleteMovement(r.Context(), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.invalidateViews()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := parseDate(q.Get("start"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	end, err := parseDate(q.Get("end"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	end = core.EndOfDay(end)
	opts := reportOptions(r)

	totals, err := s.reports.Totals(r.Context(), start, end, opts)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	byCategory, err := s.reports.ByCategory(r.Context(), start, end, opts)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	categories := make([]categorySummaryJSON, 0, len(byCategory))
	for _, c := range byCategory {
		categories = append(categories, categorySummaryJSON{
			Category:     c.Category.Name,
			IncomeCents:  c.IncomeCents,
			ExpenseCents: c.ExpenseCents,
			NetCents:     c.NetCents,
		})
	}
	writeJSON(w, http.StatusOK, struct {
		Totals     periodTotalsJSON      `json:"totals"`
		Categories []categorySummaryJSON `json:"categories"`
	}{
		Totals: periodTotalsJSON{
			Start:        totals.Start.Format(dateLayout),
			End:          totals.End.Format(dateLayout),
			IncomeCents:  totals.IncomeCents,
			ExpenseCents: totals.ExpenseCents,
			NetCents:     totals.NetCents,
			Movements:    totals.Movements,
		},
		Categories: categories,
	})
}

func reportOptions(r *http.Request) report.Options {
	return report.Options{IncludeBalance: queryBool(r, "includeBalance")}
}

func (s *Server) handleFlow(w http.ResponseWriter, r *http.Request) {
	year := queryInt(r, "year", time.Now().Year())
	if year < 1900 || year > 3000 {
		writeError(w, http.StatusUnprocessableEntity, "invalid year")
		return
	}

	key := strconv.Itoa(year)
	if view, found := s.flowCache.Get(key); found {
		writeJSON(w, http.StatusOK, toYearViewJSON(view))
		return
	}

	view, err := s.aggregator.BuildYearView(r.Context(), year)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.flowCache.Set(key, view)
	writeJSON(w, http.StatusOK, toYearViewJSON(view))
}
