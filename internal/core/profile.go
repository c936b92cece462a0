package core

import (
	"strings"
	"time"
)

// Gender as reported by the peer statistics source, which only distinguishes M and F.
type Gender string

const (
	GenderUnknown Gender = ""
	Male          Gender = "M"
	Female        Gender = "F"
)

// AgeGroup is a decade cohort.
type AgeGroup string

const (
	AgeGroup20s AgeGroup = "20s"
	AgeGroup30s AgeGroup = "30s"
	AgeGroup40s AgeGroup = "40s"
	AgeGroup50s AgeGroup = "50s"
	AgeGroup60s AgeGroup = "60s+"
)

// AgeGroups lists every cohort, youngest first.
var AgeGroups = [...]AgeGroup{AgeGroup20s, AgeGroup30s, AgeGroup40s, AgeGroup50s, AgeGroup60s}

// UserProfile holds the demographic attributes used to pick a peer cohort.
type UserProfile struct {
	OwnerID   string
	Age       int
	Gender    Gender
	UpdatedAt time.Time
}

// ParseGender accepts M/F, male/female and the Korean 남/여 forms.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male", "남", "남성", "남자":
		return Male, nil
	case "f", "female", "여", "여성", "여자":
		return Female, nil
	}
	return GenderUnknown, ErrInvalidGender
}

// AgeGroupFor resolves an age to its cohort.
func AgeGroupFor(age int) AgeGroup {
	switch {
	case age < 30:
		return AgeGroup20s
	case age < 40:
		return AgeGroup30s
	case age < 50:
		return AgeGroup40s
	case age < 60:
		return AgeGroup50s
	default:
		return AgeGroup60s
	}
}

// ParseAgeGroup accepts "20s", "20대", "20" and similar spellings.
func ParseAgeGroup(s string) (AgeGroup, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "+")
	s = strings.TrimSuffix(s, "이상")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "s")
	s = strings.TrimSuffix(s, "대")
	switch s {
	case "20":
		return AgeGroup20s, true
	case "30":
		return AgeGroup30s, true
	case "40":
		return AgeGroup40s, true
	case "50":
		return AgeGroup50s, true
	case "60":
		return AgeGroup60s, true
	}
	return "", false
}

func (p UserProfile) Validate() error {
	if strings.TrimSpace(p.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if p.Age < 1 || p.Age > 120 {
		return ErrInvalidAge
	}
	if p.Gender != Male && p.Gender != Female {
		return ErrInvalidGender
	}
	return nil
}
