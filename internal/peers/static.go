package peers

import (
	"context"
	"fmt"

	"donghaeng/internal/core"
)

type cohort struct {
	group  core.AgeGroup
	gender core.Gender
}

// DefaultCohort is used when neither the live feed nor the table covers a request.
var DefaultCohort = struct {
	AgeGroup core.AgeGroup
	Gender   core.Gender
}{core.AgeGroup30s, core.Male}

// monthly averages in won
var builtinTable = map[cohort]core.CategoryAmounts{
	{core.AgeGroup20s, core.Male}: {
		core.Food: 450000, core.Transport: 120000, core.Housing: 380000, core.Medical: 40000,
		core.Culture: 200000, core.Clothing: 110000, core.Other: 90000,
	},
	{core.AgeGroup20s, core.Female}: {
		core.Food: 420000, core.Transport: 110000, core.Housing: 390000, core.Medical: 50000,
		core.Culture: 210000, core.Clothing: 160000, core.Other: 90000,
	},
	{core.AgeGroup30s, core.Male}: {
		core.Food: 520000, core.Transport: 150000, core.Housing: 450000, core.Medical: 60000,
		core.Culture: 180000, core.Clothing: 120000, core.Other: 100000,
	},
	{core.AgeGroup30s, core.Female}: {
		core.Food: 500000, core.Transport: 130000, core.Housing: 460000, core.Medical: 70000,
		core.Culture: 170000, core.Clothing: 150000, core.Other: 100000,
	},
	{core.AgeGroup40s, core.Male}: {
		core.Food: 610000, core.Transport: 180000, core.Housing: 520000, core.Medical: 90000,
		core.Culture: 150000, core.Clothing: 110000, core.Other: 130000,
	},
	{core.AgeGroup40s, core.Female}: {
		core.Food: 590000, core.Transport: 150000, core.Housing: 530000, core.Medical: 100000,
		core.Culture: 140000, core.Clothing: 140000, core.Other: 120000,
	},
	{core.AgeGroup50s, core.Male}: {
		core.Food: 580000, core.Transport: 170000, core.Housing: 500000, core.Medical: 130000,
		core.Culture: 120000, core.Clothing: 90000, core.Other: 140000,
	},
	{core.AgeGroup50s, core.Female}: {
		core.Food: 560000, core.Transport: 140000, core.Housing: 500000, core.Medical: 150000,
		core.Culture: 110000, core.Clothing: 110000, core.Other: 130000,
	},
	{core.AgeGroup60s, core.Male}: {
		core.Food: 480000, core.Transport: 110000, core.Housing: 430000, core.Medical: 210000,
		core.Culture: 80000, core.Clothing: 60000, core.Other: 110000,
	},
	{core.AgeGroup60s, core.Female}: {
		core.Food: 460000, core.Transport: 90000, core.Housing: 430000, core.Medical: 230000,
		core.Culture: 70000, core.Clothing: 70000, core.Other: 100000,
	},
}

// StaticSource serves a fixed table keyed by age group and gender.
type StaticSource struct {
	table map[cohort]core.CategoryAmounts
}

// NewStaticSource returns the built-in table.
func NewStaticSource() *StaticSource {
	return &StaticSource{table: builtinTable}
}

// PeerProfile implements PeerDataSource.
func (s *StaticSource) PeerProfile(_ context.Context, group core.AgeGroup, gender core.Gender) (PeerProfile, error) {
	amounts, ok := s.table[cohort{group, gender}]
	if !ok {
		return PeerProfile{}, fmt.Errorf("static table %s/%s: %w", group, gender, ErrNoCohort)
	}
	return PeerProfile{
		AgeGroup:    group,
		Gender:      gender,
		PerCategory: complete(amounts),
		Source:      SourceStatic,
	}, nil
}
