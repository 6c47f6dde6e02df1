package prompts

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Kocoro-lab/travelian/internal/budget"
)

// Trip carries the request fields rendered into the seed context.
type Trip struct {
	Origin              string
	Destination         string
	StartDate           string
	EndDate             string
	Duration            int
	BudgetTier          string
	TravelStyle         string
	Interests           []string
	SpecialRequirements string
}

// Section is one labeled upstream output fed into the synthesis context.
type Section struct {
	Label string
	Text  string
}

func newPrinter() *message.Printer {
	return message.NewPrinter(language.English)
}

// Rupees formats an amount with thousands grouping, e.g. ₹40,000.
func Rupees(amount int) string {
	return newPrinter().Sprintf("₹%d", amount)
}

// SeedContext renders the request details shared by every stage.
func SeedContext(trip Trip, b budget.Breakdown) string {
	printer := newPrinter()
	var sb strings.Builder
	sb.WriteString("Travel Request Details:\n")
	printer.Fprintf(&sb, "Origin: %s\n", trip.Origin)
	printer.Fprintf(&sb, "Destination: %s\n", trip.Destination)
	printer.Fprintf(&sb, "Duration: %d days\n", trip.Duration)
	if trip.StartDate != "" || trip.EndDate != "" {
		printer.Fprintf(&sb, "Travel Dates: %s to %s\n", trip.StartDate, trip.EndDate)
	}
	printer.Fprintf(&sb, "Budget Level: %s\n", trip.BudgetTier)
	printer.Fprintf(&sb, "Total Budget: %s\n", Rupees(b.Total))
	printer.Fprintf(&sb, "Daily Budget: %s\n", Rupees(b.Daily))
	printer.Fprintf(&sb, "Budget Breakdown: Accommodation %s, Food %s, Transport %s, Activities %s\n",
		Rupees(b.Accommodation), Rupees(b.Food), Rupees(b.Transport), Rupees(b.Activities))
	printer.Fprintf(&sb, "Travel Style: %s\n", trip.TravelStyle)
	printer.Fprintf(&sb, "Preferences/Interests: %s\n", strings.Join(trip.Interests, ", "))
	printer.Fprintf(&sb, "Special Requirements: %s\n", trip.SpecialRequirements)
	return sb.String()
}

// BudgetDetails renders the block appended for tasks whose description
// references the budget.
func BudgetDetails(trip Trip, b budget.Breakdown) string {
	printer := newPrinter()
	var sb strings.Builder
	sb.WriteString("\n\nBUDGET DETAILS FOR THIS TASK:\n")
	printer.Fprintf(&sb, "Budget Level: %s\n", trip.BudgetTier)
	printer.Fprintf(&sb, "Total Budget: %s\n", Rupees(b.Total))
	printer.Fprintf(&sb, "Daily Budget: %s\n", Rupees(b.Daily))
	printer.Fprintf(&sb, "Accommodation Budget: %s\n", Rupees(b.Accommodation))
	printer.Fprintf(&sb, "Food Budget: %s\n", Rupees(b.Food))
	printer.Fprintf(&sb, "Transport Budget: %s\n", Rupees(b.Transport))
	printer.Fprintf(&sb, "Activities Budget: %s\n", Rupees(b.Activities))
	return sb.String()
}

// SectionContext renders labeled sections in the order given.
func SectionContext(sections []Section) string {
	var sb strings.Builder
	for _, s := range sections {
		sb.WriteString(s.Label)
		sb.WriteString(":\n")
		sb.WriteString(s.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// SynthesisContext is the seed followed by every labeled section.
func SynthesisContext(seed string, sections []Section) string {
	return seed + "\n" + SectionContext(sections)
}
