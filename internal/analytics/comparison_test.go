package analytics

import (
	"testing"

	"donghaeng/internal/core"
)

func TestCompare(t *testing.T) {
	agg := Aggregate("u1", []core.Transaction{
		{OwnerID: "u1", Amount: 450000, Category: core.Food, OccurredOn: core.NewDate(2025, 4, 5)},
		{OwnerID: "u1", Amount: 150000, Category: core.Transport, OccurredOn: core.NewDate(2025, 4, 18)},
	}, 2025, 4)
	peer := core.CategoryAmounts{core.Food: 520000, core.Transport: 150000, core.Housing: 450000}

	cmp := Compare(agg, peer)

	if len(cmp.Categories) != len(core.Categories) {
		t.Fatalf("got %d categories, want %d", len(cmp.Categories), len(core.Categories))
	}
	if cmp.UserTotal != 600000 || cmp.PeerTotal != 1120000 {
		t.Fatalf("totals = %d/%d", cmp.UserTotal, cmp.PeerTotal)
	}
	for i, c := range core.Categories {
		row := cmp.Categories[i]
		if row.Category != c {
			t.Fatalf("row %d = %s, want %s", i, row.Category, c)
		}
		if row.Difference != row.UserAmount-row.PeerAmount {
			t.Errorf("%s difference %d != %d - %d", c, row.Difference, row.UserAmount, row.PeerAmount)
		}
	}
	if food := cmp.Categories[core.Food.Index()]; food.Difference != -70000 {
		t.Errorf("Food difference = %d, want -70000", food.Difference)
	}
	if housing := cmp.Categories[core.Housing.Index()]; housing.UserAmount != 0 || housing.Difference != -450000 {
		t.Errorf("Housing = %+v", housing)
	}
}
