package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MinYear = 1970
	MaxYear = 2100

	MaxDescriptionLength = 200
)

type (
	// Date is a calendar day in UTC.
	Date struct {
		time.Time
	}

	// Transaction is a single spending record. Amount is in won.
	Transaction struct {
		ID          string
		OwnerID     string
		Amount      int64
		RawCategory string
		Category    Category // normalized
		OccurredOn  Date
		Description string
		CreatedAt   time.Time
	}
)

var (
	ErrInvalidYear        = errors.New("invalid year")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidIncome      = errors.New("invalid income")
	ErrInvalidSavingGoal  = errors.New("invalid saving goal")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrEmptyCategory      = errors.New("empty category")
	ErrEmptyOwner         = errors.New("empty owner")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrInvalidAge         = errors.New("invalid age")
	ErrInvalidGender      = errors.New("invalid gender")
)

var validationErrors = []error{
	ErrInvalidYear, ErrInvalidMonth, ErrInvalidDate, ErrInvalidAmount, ErrInvalidIncome,
	ErrInvalidSavingGoal, ErrInvalidCategory, ErrEmptyCategory, ErrEmptyOwner,
	ErrDescriptionTooLong, ErrInvalidAge, ErrInvalidGender,
}

// IsValidation reports whether err is caused by rejected caller input.
func IsValidation(err error) bool {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(time.DateOnly)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	if d.Year() < MinYear || d.Year() > MaxYear {
		return ErrInvalidYear
	}
	return nil
}

// ValidateYearMonth checks a requested reporting period.
func ValidateYearMonth(year, month int) error {
	if year < MinYear || year > MaxYear {
		return ErrInvalidYear
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// DaysIn returns the number of days in the given month, leap-year aware.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthRange returns the first and last day of a month.
func MonthRange(year, month int) (Date, Date) {
	return NewDate(year, month, 1), NewDate(year, month, DaysIn(year, month))
}

// AddMonths shifts a year/month pair by n months.
func AddMonths(year, month, n int) (int, int) {
	t := time.Date(year, time.Month(month)+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), int(t.Month())
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if t.Amount < 0 || t.Amount > MaxAmount {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.RawCategory) == "" {
		return ErrEmptyCategory
	}
	if err := t.OccurredOn.Validate(); err != nil {
		return err
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}
