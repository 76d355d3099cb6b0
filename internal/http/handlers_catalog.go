package http

import (
	"net/http"

	"caixa/internal/core"
)

type accountRequest struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	CategoryID int64  `json:"category_id"`
}

type orderRequest struct {
	AccountIDs []int64 `json:"account_ids"`
}

type categoryRequest struct {
	Name string `json:"name"`
}

// handleListAccounts returns every account in display order. ?editable=true
// drops the prior-balance account, ?type= narrows to one account type.
func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	var accounts []core.Account
	var err error
	switch {
	case queryBool(r, "editable"):
		accounts, err = s.catalog.EditableAccounts(r.Context())
	case r.URL.Query().Get("type") != "":
		var t core.AccountType
		if t, err = core.ParseAccountType(r.URL.Query().Get("type")); err == nil {
			accounts, err = s.catalog.AccountsByType(r.Context(), t)
		}
	default:
		accounts, err = s.catalog.AccountsOrdered(r.Context())
	}
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	out := make([]accountJSON, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountJSON(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := core.ParseAccountType(req.Type)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	a, err := s.catalog.CreateAccount(r.Context(), req.Name, t, req.CategoryID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.invalidateViews()
	writeJSON(w, http.StatusCreated, toAccountJSON(a))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := core.ParseAccountType(req.Type)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	a, err := s.catalog.UpdateAccount(r.Context(), id, req.Name, t, req.CategoryID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.invalidateViews()
	writeJSON(w, http.StatusOK, toAccountJSON(a))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	if err := s.catalog.DeleteAccount(r.Context(), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.invalidateViews()
	w.WriteHeader(http.StatusNoContent)
}

// handleOrderAccounts stores an explicit display permutation. The prior
// balance account is forced to the front even when omitted from the list.
func (s *Server) handleOrderAccounts(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.catalog.ApplyExplicitOrder(r.Context(), req.AccountIDs); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.invalidateViews()
	accounts, err := s.catalog.AccountsOrdered(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	out := make([]accountJSON, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountJSON(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.catalog.Categories(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	out := make([]categoryJSON, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryJSON(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := s.catalog.CreateCategory(r.Context(), req.Name)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryJSON(c))
}
