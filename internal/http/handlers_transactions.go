package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	applog "donghaeng/internal/log"
	"donghaeng/internal/middleware/auth"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	in, err := req.toNewTransaction()
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}

	t, err := s.svc.Transactions.CreateTransaction(r.Context(), auth.UserID(r.Context()), in)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(t))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}

	txs, err := s.svc.Transactions.ListTransactions(r.Context(), auth.UserID(r.Context()), year, month)
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"year": year, "month": month, "transactions": out})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.svc.Transactions.DeleteTransaction(r.Context(), auth.UserID(r.Context()), id); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
