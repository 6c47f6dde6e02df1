package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute_KnownTiers(t *testing.T) {
	cases := map[string]int{
		TierBudget:   8000,
		TierModerate: 18000,
		TierLuxury:   40000,
		TierPremium:  75000,
	}
	for label, want := range cases {
		t.Run(label, func(t *testing.T) {
			assert.Equal(t, want, Compute(label, 3).Total)
		})
	}
}

func TestCompute_UnknownTierFallsBack(t *testing.T) {
	assert.Equal(t, DefaultTotal, Compute("Shoestring", 4).Total)
	assert.Equal(t, DefaultTotal, Compute("", 4).Total)
	assert.Equal(t, DefaultTotal, Compute("luxury", 4).Total, "matching is case sensitive")
}

func TestCompute_SubstringMatch(t *testing.T) {
	b := Compute("Tier: Premium (Above ₹50,000) for two", 5)
	assert.Equal(t, 75000, b.Total)
}

func TestCompute_LuxuryFiveDays(t *testing.T) {
	b := Compute("Luxury (₹25,000 - ₹50,000)", 5)
	assert.Equal(t, Breakdown{
		Total:         40000,
		Daily:         8000,
		Accommodation: 14000,
		Food:          10000,
		Transport:     8000,
		Activities:    6000,
		Shopping:      2000,
	}, b)
}

func TestCompute_DailyDivision(t *testing.T) {
	for d := 1; d <= 30; d++ {
		b := Compute(TierModerate, d)
		assert.Equal(t, 18000/d, b.Daily, "duration %d", d)
	}
}

func TestCompute_NonPositiveDurationUsesTotal(t *testing.T) {
	for _, d := range []int{0, -1, -30} {
		b := Compute(TierBudget, d)
		assert.Equal(t, b.Total, b.Daily, "duration %d", d)
	}
}

func TestFromTotal_CategoriesNeverExceedTotal(t *testing.T) {
	for total := 0; total <= 5000; total += 7 {
		b := FromTotal(total, 3)
		assert.LessOrEqual(t, b.CategorySum(), b.Total, "total %d", total)
		assert.GreaterOrEqual(t, b.Accommodation, 0)
		assert.GreaterOrEqual(t, b.Shopping, 0)
	}
}

func TestFromTotal_FloorsOddTotals(t *testing.T) {
	b := FromTotal(99, 2)
	assert.Equal(t, 34, b.Accommodation)
	assert.Equal(t, 24, b.Food)
	assert.Equal(t, 19, b.Transport)
	assert.Equal(t, 14, b.Activities)
	assert.Equal(t, 4, b.Shopping)
	assert.Equal(t, 49, b.Daily)
}

func TestFromTotal_NegativeClamped(t *testing.T) {
	assert.Equal(t, Breakdown{}, FromTotal(-10, 2))
}

func TestTiers(t *testing.T) {
	assert.Equal(t, []string{TierBudget, TierModerate, TierLuxury, TierPremium}, Tiers())
}
