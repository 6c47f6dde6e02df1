package budget

import "strings"

// Tier labels accepted from the planning form. Matching is substring based so
// decorated labels ("Luxury (₹25,000 - ₹50,000) per person") still resolve.
const (
	TierBudget   = "Budget (Under ₹10,000)"
	TierModerate = "Moderate (₹10,000 - ₹25,000)"
	TierLuxury   = "Luxury (₹25,000 - ₹50,000)"
	TierPremium  = "Premium (Above ₹50,000)"
)

// DefaultTotal is used when the tier label is not recognised.
const DefaultTotal = 15000

// tierTotals maps each tier to a representative trip total in rupees.
// Order matters: the first label contained in the input wins.
var tierTotals = []struct {
	label string
	total int
}{
	{TierBudget, 8000},
	{TierModerate, 18000},
	{TierLuxury, 40000},
	{TierPremium, 75000},
}

// Category weights in percent. They sum to 100.
const (
	accommodationPct = 35
	foodPct          = 25
	transportPct     = 20
	activitiesPct    = 15
	shoppingPct      = 5
)

// Breakdown is the monetary split of a trip budget. All amounts are whole rupees.
type Breakdown struct {
	Total         int `json:"total_budget"`
	Daily         int `json:"daily_budget"`
	Accommodation int `json:"accommodation"`
	Food          int `json:"food"`
	Transport     int `json:"transport"`
	Activities    int `json:"activities"`
	Shopping      int `json:"shopping"`
}

// CategorySum returns the sum of the per-category amounts. It never exceeds Total.
func (b Breakdown) CategorySum() int {
	return b.Accommodation + b.Food + b.Transport + b.Activities + b.Shopping
}

// TotalForTier resolves a tier label to its representative total.
func TotalForTier(label string) int {
	for _, t := range tierTotals {
		if strings.Contains(label, t.label) {
			return t.total
		}
	}
	return DefaultTotal
}

// Tiers lists the recognised tier labels in ascending order of spend.
func Tiers() []string {
	out := make([]string, len(tierTotals))
	for i, t := range tierTotals {
		out[i] = t.label
	}
	return out
}

// Compute derives the breakdown for a tier label and trip length.
// Unknown tiers fall back to DefaultTotal; non-positive durations make the
// daily amount equal to the total.
func Compute(label string, durationDays int) Breakdown {
	return FromTotal(TotalForTier(label), durationDays)
}

// FromTotal splits an explicit total. Negative totals are clamped to zero.
func FromTotal(total, durationDays int) Breakdown {
	if total < 0 {
		total = 0
	}
	daily := total
	if durationDays > 0 {
		daily = total / durationDays
	}
	return Breakdown{
		Total:         total,
		Daily:         daily,
		Accommodation: share(total, accommodationPct),
		Food:          share(total, foodPct),
		Transport:     share(total, transportPct),
		Activities:    share(total, activitiesPct),
		Shopping:      share(total, shoppingPct),
	}
}

// share floors total*pct/100 using integer arithmetic.
func share(total, pct int) int {
	return total * pct / 100
}
