package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kocoro-lab/travelian/internal/export"
	"github.com/Kocoro-lab/travelian/internal/templates"
	"github.com/Kocoro-lab/travelian/internal/util"
	"github.com/Kocoro-lab/travelian/internal/workflows"
)

// departureLead is how far ahead of today a CLI trip starts.
const departureLead = 7 * 24 * time.Hour

// planInput collects the answers needed for a trip.
type planInput struct {
	Origin       string
	Destination  string
	Duration     int
	Preferences  string
	Budget       string
	Style        string
	Requirements string
}

// toRequest converts the answers into a travel request departing a week after today.
func (in planInput) toRequest(today time.Time) workflows.TravelRequest {
	start := today.Add(departureLead)
	end := start.AddDate(0, 0, in.Duration)
	return workflows.TravelRequest{
		Origin:              in.Origin,
		Destination:         in.Destination,
		StartDate:           start.Format(workflows.DateLayout),
		EndDate:             end.Format(workflows.DateLayout),
		Duration:            in.Duration,
		BudgetTier:          in.Budget,
		TravelStyle:         in.Style,
		Interests:           util.SplitList(in.Preferences),
		SpecialRequirements: in.Requirements,
	}
}

// complete prompts for every required answer still missing.
func (in *planInput) complete(p *prompter) error {
	var err error
	if in.Origin == "" {
		if in.Origin, err = p.Ask("Enter your origin: "); err != nil {
			return err
		}
	}
	if in.Destination == "" {
		if in.Destination, err = p.Ask("Enter your destination: "); err != nil {
			return err
		}
	}
	for in.Duration < 1 {
		answer, err := p.Ask("Enter duration in days: ")
		if err != nil {
			return err
		}
		n, convErr := strconv.Atoi(answer)
		if convErr != nil || n < 1 {
			fmt.Fprintln(p.out, "Duration must be a whole number of days.")
			continue
		}
		in.Duration = n
	}
	if in.Preferences == "" {
		if in.Preferences, err = p.Ask("Enter your preferences (comma separated): "); err != nil {
			return err
		}
	}
	if in.Budget == "" {
		if in.Budget, err = p.Ask("Enter your budget: "); err != nil {
			return err
		}
	}
	return nil
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate a day-by-day travel itinerary",
	Long:  `Runs every research stage, then merges them into a single itinerary. Missing trip details are asked for interactively.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var in planInput
		in.Origin, _ = cmd.Flags().GetString("origin")
		in.Destination, _ = cmd.Flags().GetString("destination")
		in.Duration, _ = cmd.Flags().GetInt("duration")
		in.Preferences, _ = cmd.Flags().GetString("preferences")
		in.Budget, _ = cmd.Flags().GetString("budget")
		in.Style, _ = cmd.Flags().GetString("style")
		in.Requirements, _ = cmd.Flags().GetString("requirements")
		raw, _ := cmd.Flags().GetBool("raw")
		saveDir, _ := cmd.Flags().GetString("save-dir")
		noSave, _ := cmd.Flags().GetBool("no-save")

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "=== Travel Itinerary Generator ===")
		fmt.Fprintln(out)
		if err := in.complete(newPrompter(cmd.InOrStdin(), out)); err != nil {
			if errors.Is(err, io.EOF) {
				return errors.New("input ended before the trip details were complete")
			}
			return err
		}

		req := in.toRequest(time.Now())
		if err := req.Validate(); err != nil {
			return err
		}

		a, _, err := buildApp(cmd, workflows.WithProgress(progressPrinter(out)))
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Fprintln(out, "\nGenerating your personalized travel itinerary...")
		fmt.Fprintln(out)
		result, err := a.Orchestrator.RunFullPlan(cmd.Context(), req, credentialFlag(cmd))
		if err != nil {
			return err
		}

		banner := strings.Repeat("=", 50)
		fmt.Fprintf(out, "\n%s\nYour travel itinerary is ready!\n%s\n\n", banner, banner)
		fmt.Fprintln(out, render(result.Itinerary, raw))

		if noSave || result.SynthesisFailed() {
			return nil
		}
		path, err := export.SaveItinerary(saveDir, req.Destination, result.Itinerary, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Your itinerary has been saved to: %s\n", path)
		return nil
	},
}

func progressPrinter(out io.Writer) workflows.ProgressFunc {
	return func(task *templates.Task, result *workflows.SectionResult) {
		name := task.SectionLabel
		if name == "" {
			name = task.ID
		}
		switch {
		case result == nil:
			fmt.Fprintf(out, "Working on %s...\n", name)
		case result.Failed():
			fmt.Fprintf(out, "✗ %s failed (%s)\n", name, result.ErrorKind())
		default:
			fmt.Fprintf(out, "✓ %s completed\n", name)
		}
	}
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringP("origin", "o", "", "City you are travelling from")
	planCmd.Flags().StringP("destination", "d", "", "City or region to visit")
	planCmd.Flags().IntP("duration", "n", 0, "Trip length in days")
	planCmd.Flags().StringP("preferences", "p", "", "Comma separated interests")
	planCmd.Flags().StringP("budget", "b", "", "Budget tier, e.g. \"Moderate (₹10,000 - ₹25,000)\"")
	planCmd.Flags().String("style", "", "Travel style, e.g. Relaxed or Adventurous")
	planCmd.Flags().String("requirements", "", "Special requirements")
	planCmd.Flags().Bool("raw", false, "Print the itinerary as plain markdown")
	planCmd.Flags().String("save-dir", ".", "Directory the itinerary file is written to")
	planCmd.Flags().Bool("no-save", false, "Do not write the itinerary to a file")
}
