package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"donghaeng/internal/core"
)

const maxBodyBytes = 64 << 10

var errMalformedBody = errors.New("malformed request body")

// parseYearMonth reads the required year and month query parameters.
func parseYearMonth(r *http.Request) (year, month int, err error) {
	q := r.URL.Query()
	year, err = requiredInt(q.Get("year"), "year", core.ErrInvalidYear)
	if err != nil {
		return 0, 0, err
	}
	month, err = requiredInt(q.Get("month"), "month", core.ErrInvalidMonth)
	if err != nil {
		return 0, 0, err
	}
	if err := core.ValidateYearMonth(year, month); err != nil {
		return 0, 0, fmt.Errorf("%w: year must be %d..%d and month 1..12", err, core.MinYear, core.MaxYear)
	}
	return year, month, nil
}

func requiredInt(v, name string, sentinel error) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, fmt.Errorf("%w: %s is required", sentinel, name)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", sentinel, name)
	}
	return n, nil
}

// parseBudgetParams reads income (required) and savingGoal (optional).
// Both accept thousands separators and a trailing 원.
func parseBudgetParams(r *http.Request) (income int64, savingGoal *int64, err error) {
	q := r.URL.Query()
	raw := strings.TrimSpace(q.Get("income"))
	if raw == "" {
		return 0, nil, fmt.Errorf("%w: income is required", core.ErrInvalidIncome)
	}
	income, err = core.ParseWon(raw)
	if err != nil || income <= 0 {
		return 0, nil, fmt.Errorf("%w: income must be a positive amount up to %d", core.ErrInvalidIncome, core.MaxAmount)
	}

	if raw := strings.TrimSpace(q.Get("savingGoal")); raw != "" {
		goal, err := core.ParseWon(raw)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: savingGoal must be a non-negative amount up to %d", core.ErrInvalidSavingGoal, core.MaxAmount)
		}
		savingGoal = &goal
	}
	return income, savingGoal, nil
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must contain a single JSON object", errMalformedBody)
	}
	return nil
}
