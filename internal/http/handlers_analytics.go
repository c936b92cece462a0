package http

import (
	"net/http"

	applog "donghaeng/internal/log"
	"donghaeng/internal/middleware/auth"
)

func (s *Server) handleMonthlyStats(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		s.writeError(w, r, applog.OpAggregate, err)
		return
	}
	agg, err := s.svc.Analytics.MonthlyStats(r.Context(), auth.UserID(r.Context()), year, month)
	if err != nil {
		s.writeError(w, r, applog.OpAggregate, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthlyStatsResponse(agg))
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		s.writeError(w, r, applog.OpCompare, err)
		return
	}
	report, err := s.svc.Analytics.Comparison(r.Context(), auth.UserID(r.Context()), year, month)
	if err != nil {
		s.writeError(w, r, applog.OpCompare, err)
		return
	}
	writeJSON(w, http.StatusOK, toComparisonResponse(report))
}

func (s *Server) handlePrediction(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		s.writeError(w, r, applog.OpPredict, err)
		return
	}
	p, err := s.svc.Analytics.Prediction(r.Context(), auth.UserID(r.Context()), year, month)
	if err != nil {
		s.writeError(w, r, applog.OpPredict, err)
		return
	}
	writeJSON(w, http.StatusOK, toPredictionResponse(p))
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	income, savingGoal, err := parseBudgetParams(r)
	if err != nil {
		s.writeError(w, r, applog.OpBudget, err)
		return
	}
	report, err := s.svc.Analytics.Budget(r.Context(), auth.UserID(r.Context()), income, savingGoal)
	if err != nil {
		s.writeError(w, r, applog.OpBudget, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(report))
}
