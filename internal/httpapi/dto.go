package httpapi

import (
	"encoding/json"

	"github.com/Kocoro-lab/travelian/internal/budget"
	"github.com/Kocoro-lab/travelian/internal/workflows"
)

// PlanRequest is the body of POST /travel/plan.
type PlanRequest struct {
	Origin              string   `json:"origin"`
	Destination         string   `json:"destination"`
	StartDate           string   `json:"startDate"`
	EndDate             string   `json:"endDate"`
	Duration            int      `json:"duration"`
	Budget              string   `json:"budget"`
	TravelStyle         string   `json:"travelStyle"`
	Interests           []string `json:"interests"`
	SpecialRequirements string   `json:"specialRequirements"`
}

func (p PlanRequest) toTravelRequest() workflows.TravelRequest {
	return workflows.TravelRequest{
		Origin:              p.Origin,
		Destination:         p.Destination,
		StartDate:           p.StartDate,
		EndDate:             p.EndDate,
		Duration:            p.Duration,
		BudgetTier:          p.Budget,
		TravelStyle:         p.TravelStyle,
		Interests:           p.Interests,
		SpecialRequirements: p.SpecialRequirements,
	}
}

// SectionDTO summarizes one task of a run.
type SectionDTO struct {
	TaskID     string `json:"task_id"`
	Label      string `json:"label"`
	Content    string `json:"content"`
	Status     string `json:"status"`
	ErrorKind  string `json:"error_kind,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// PlanResponse is the body returned by POST /travel/plan.
type PlanResponse struct {
	RunID     string           `json:"run_id"`
	Itinerary string           `json:"itinerary"`
	MapURL    string           `json:"mapUrl"`
	Budget    budget.Breakdown `json:"budget"`
	Sections  []SectionDTO     `json:"sections"`
	Status    string           `json:"status"`
}

// mapData is serialized into PlanResponse.MapURL for the frontend map widget.
type mapData struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Type        string `json:"type"`
}

func mapURL(origin, destination string) string {
	raw, _ := json.Marshal(mapData{Origin: origin, Destination: destination, Type: "directions"})
	return string(raw)
}

func newPlanResponse(req workflows.TravelRequest, result *workflows.PlanResult) PlanResponse {
	sections := make([]SectionDTO, 0, len(result.Sections))
	for _, s := range result.Sections {
		status := "ok"
		if s.Failed() {
			status = "failed"
		}
		sections = append(sections, SectionDTO{
			TaskID:     s.TaskID,
			Label:      s.Label,
			Content:    s.Output,
			Status:     status,
			ErrorKind:  s.ErrorKind(),
			DurationMs: s.Duration.Milliseconds(),
		})
	}
	return PlanResponse{
		RunID:     result.RunID,
		Itinerary: result.Itinerary,
		MapURL:    mapURL(req.Origin, req.Destination),
		Budget:    result.Budget,
		Sections:  sections,
		Status:    result.Status(),
	}
}

// ChatRequest is the body of POST /chatbot/ask.
type ChatRequest struct {
	Message string              `json:"message"`
	History []workflows.Message `json:"history"`
}

// ChatResponse is the body returned by POST /chatbot/ask.
type ChatResponse struct {
	Response string              `json:"response"`
	History  []workflows.Message `json:"history"`
}

// errorResponse mirrors the {"detail": ...} shape clients already parse.
type errorResponse struct {
	Detail any `json:"detail"`
}
