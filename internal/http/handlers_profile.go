package http

import (
	"net/http"

	applog "donghaeng/internal/log"
	"donghaeng/internal/middleware/auth"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Transactions.GetProfile(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	p, err := s.svc.Transactions.SaveProfile(r.Context(), auth.UserID(r.Context()), req.Age, req.Gender)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}
