package workflows

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Kocoro-lab/travelian/internal/metrics"
	"github.com/Kocoro-lab/travelian/internal/models"
	"github.com/Kocoro-lab/travelian/internal/prompts"
	"github.com/Kocoro-lab/travelian/internal/templates"
	"github.com/Kocoro-lab/travelian/internal/tracing"
	"github.com/Kocoro-lab/travelian/internal/util"
)

// ModelInvoker sends one prompt to the model. *models.Gateway implements it.
type ModelInvoker interface {
	Invoke(ctx context.Context, req models.InvokeRequest) (*models.Response, error)
}

// RunRecorder persists run metadata after a plan completes.
type RunRecorder interface {
	RecordPlanRun(ctx context.Context, req TravelRequest, result *PlanResult) error
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder attaches a run ledger.
func WithRecorder(r RunRecorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithRunIDs overrides run id generation.
func WithRunIDs(next func() string) Option {
	return func(o *Orchestrator) {
		if next != nil {
			o.newRunID = next
		}
	}
}

// ProgressFunc observes a plan run. It is called with a nil result before a
// task starts and again with the result once it finishes.
type ProgressFunc func(task *templates.Task, result *SectionResult)

// WithProgress reports each task of a plan run as it starts and finishes.
func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

// Orchestrator executes the compiled task plan against a model.
type Orchestrator struct {
	plan     *templates.Plan
	invoker  ModelInvoker
	recorder RunRecorder
	progress ProgressFunc
	logger   *zap.Logger
	newRunID func() string
}

// NewOrchestrator returns an error when plan has no resolvable synthesis task.
func NewOrchestrator(plan *templates.Plan, invoker ModelInvoker, logger *zap.Logger, opts ...Option) (*Orchestrator, error) {
	if plan == nil {
		return nil, errors.New("task plan is nil")
	}
	if invoker == nil {
		return nil, errors.New("model invoker is nil")
	}
	if _, err := plan.SynthesisTask(); err != nil {
		return nil, fmt.Errorf("task plan %s: %w", plan.Name, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		plan:     plan,
		invoker:  invoker,
		logger:   logger,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// RunFullPlan runs every stage in order, then the synthesis task over their
// outputs. Model failures never abort the run: they become the section text.
// The returned error is reserved for faults in the plan itself.
func (o *Orchestrator) RunFullPlan(ctx context.Context, req TravelRequest, credential string) (*PlanResult, error) {
	synth, err := o.plan.SynthesisTask()
	if err != nil {
		return nil, err
	}

	rc := newRunContext(o.newRunID(), req)
	started := time.Now()
	metrics.PlanRunsStarted.Inc()

	ctx, span := tracing.StartSpan(ctx, "travel.plan")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", rc.RunID),
		attribute.String("destination", req.Destination),
		attribute.Int("duration_days", req.Duration),
	)

	logger := o.logger.With(zap.String("run_id", rc.RunID))
	logger.Info("Plan run started",
		zap.String("destination", req.Destination),
		zap.Int("duration_days", req.Duration),
		zap.String("budget_tier", req.BudgetTier),
		zap.Int("total_budget", rc.Budget.Total),
	)

	for _, task := range o.plan.Stages() {
		result, err := o.runTask(ctx, logger, rc, task, credential)
		if err != nil {
			return nil, err
		}
		rc.Record(result)
	}

	final, err := o.runTask(ctx, logger, rc, synth, credential)
	if err != nil {
		return nil, err
	}

	result := &PlanResult{
		RunID:     rc.RunID,
		Itinerary: final.Output,
		Budget:    rc.Budget,
		Sections:  rc.Sections(),
		Synthesis: final,
		StartedAt: started,
		Duration:  time.Since(started),
	}

	status := result.Status()
	metrics.RecordPlanRun(status, result.Duration.Seconds())
	if status == "failed" {
		span.SetStatus(codes.Error, "synthesis failed")
	}
	logger.Info("Plan run completed",
		zap.String("status", status),
		zap.Int("failed_sections", result.FailedSections()),
		zap.Duration("duration", result.Duration),
	)

	if o.recorder != nil {
		if err := o.recorder.RecordPlanRun(ctx, req, result); err != nil {
			logger.Warn("Failed to record plan run", zap.Error(err))
		}
	}
	return result, nil
}

// RunChatTurn answers one message with the chat task. The caller's history is
// never modified; the result carries a copy with the two new turns appended.
func (o *Orchestrator) RunChatTurn(ctx context.Context, message string, history []Message, credential string) (*ChatResult, error) {
	task, err := o.plan.ChatTask()
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "travel.chat")
	defer span.End()

	section, err := o.execute(ctx, o.logger, task, message, credential)
	if err != nil {
		return nil, err
	}

	next := make([]Message, len(history), len(history)+2)
	copy(next, history)
	next = append(next,
		Message{Role: RoleUser, Content: message},
		Message{Role: RoleAssistant, Content: section.Output},
	)

	status := "ok"
	if section.Failed() {
		status = section.ErrorKind()
	}
	metrics.ChatTurns.WithLabelValues(status).Inc()

	return &ChatResult{
		Response: section.Output,
		History:  next,
		Failure:  section.Failure,
	}, nil
}

func (o *Orchestrator) runTask(ctx context.Context, logger *zap.Logger, rc *runContext, task *templates.Task, credential string) (SectionResult, error) {
	contextText, err := rc.ContextFor(task)
	if err != nil {
		return SectionResult{}, err
	}
	if logger.Core().Enabled(zap.DebugLevel) {
		preview := templates.Placeholders{
			Origin:      rc.Request.Origin,
			Destination: rc.Request.Destination,
			Preferences: strings.Join(rc.Request.Interests, ", "),
			Budget:      rc.Request.BudgetTier,
			Duration:    strconv.Itoa(rc.Request.Duration),
		}.Render(util.FirstLine(task.Description))
		logger.Debug("Running task", zap.String("task_id", task.ID), zap.String("description", util.TruncateString(preview, 60, true)))
	}
	if o.progress != nil {
		o.progress(task, nil)
	}
	result, err := o.execute(ctx, logger, task, contextText, credential)
	if err == nil && o.progress != nil {
		o.progress(task, &result)
	}
	return result, err
}

func (o *Orchestrator) execute(ctx context.Context, logger *zap.Logger, task *templates.Task, contextText, credential string) (SectionResult, error) {
	prompt, err := prompts.Compose(task, contextText)
	if err != nil {
		return SectionResult{}, err
	}

	ctx, span := tracing.StartSpan(ctx, "travel.task")
	defer span.End()
	span.SetAttributes(attribute.String("task_id", task.ID))

	start := time.Now()
	resp, err := o.invoker.Invoke(ctx, models.InvokeRequest{
		Prompt:     prompt,
		Credential: credential,
		TaskID:     task.ID,
	})
	result := SectionResult{
		TaskID:   task.ID,
		Label:    task.SectionLabel,
		Duration: time.Since(start),
	}

	if err != nil {
		gerr, ok := models.AsGatewayError(err)
		if !ok {
			gerr = &models.GatewayError{Kind: models.KindUnknown, Cause: err}
		}
		result.Output = gerr.UserMessage()
		result.Failure = gerr
		span.RecordError(err)
		span.SetStatus(codes.Error, string(gerr.Kind))
		logger.Warn("Task failed; continuing with failure text",
			zap.String("task_id", task.ID),
			zap.String("error_kind", string(gerr.Kind)),
			zap.Duration("duration", result.Duration),
		)
		metrics.RecordSection(task.ID, "failed", string(gerr.Kind), float64(result.Duration.Milliseconds()))
		return result, nil
	}

	result.Output = resp.Text
	logger.Info("Task completed",
		zap.String("task_id", task.ID),
		zap.Duration("duration", result.Duration),
	)
	metrics.RecordSection(task.ID, "ok", "", float64(result.Duration.Milliseconds()))
	return result, nil
}
