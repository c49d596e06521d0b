// Package orchestrator composes the state machine, template generator, rule
// engine, scheduler and priority scorer into the case workflow operations.
// Sub-step failures are collected into the result, never raised; only
// infrastructure failures (persistence unavailable) surface as errors.
package orchestrator

import (
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/docket-io/docket/pkg/eventbus"
	"github.com/docket-io/docket/pkg/models"
	"github.com/docket-io/docket/pkg/persistence"
	"github.com/docket-io/docket/pkg/priority"
	"github.com/docket-io/docket/pkg/protocol"
	"github.com/docket-io/docket/pkg/rules"
	"github.com/docket-io/docket/pkg/scheduling"
	"github.com/docket-io/docket/pkg/statemachine"
	"github.com/docket-io/docket/pkg/workflow"
)

// Orchestrator coordinates the full case workflow pipeline. Transitions for
// the same case serialize on a per-case lock; different cases proceed
// concurrently.
type Orchestrator struct {
	logger    *slog.Logger
	clock     protocol.Clock
	tracer    trace.Tracer
	machine   *statemachine.Machine
	generator *workflow.Generator
	rules     *rules.Engine
	scheduler *scheduling.Engine
	scorer    *priority.Scorer
	store     persistence.Persistence
	bus       eventbus.EventPublisher

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Config carries the orchestrator's collaborators. Tracer and Bus may be
// nil; tracing then becomes a no-op and events are not published.
type Config struct {
	Logger    *slog.Logger
	Clock     protocol.Clock
	Tracer    trace.Tracer
	Machine   *statemachine.Machine
	Generator *workflow.Generator
	Rules     *rules.Engine
	Scheduler *scheduling.Engine
	Scorer    *priority.Scorer
	Store     persistence.Persistence
	Bus       eventbus.EventPublisher
}

// New creates an orchestrator.
func New(cfg Config) *Orchestrator {
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("orchestrator")
	}

	return &Orchestrator{
		logger:    cfg.Logger.With("module", "orchestrator"),
		clock:     cfg.Clock,
		tracer:    tracer,
		machine:   cfg.Machine,
		generator: cfg.Generator,
		rules:     cfg.Rules,
		scheduler: cfg.Scheduler,
		scorer:    cfg.Scorer,
		store:     cfg.Store,
		bus:       cfg.Bus,
		locks:     make(map[string]*sync.Mutex),
	}
}

// caseLock returns the mutex serializing operations on one case.
func (o *Orchestrator) caseLock(caseID string) *sync.Mutex {
	o.locksMu.Lock()
	defer o.locksMu.Unlock()

	lock, ok := o.locks[caseID]
	if !ok {
		lock = &sync.Mutex{}
		o.locks[caseID] = lock
	}

	return lock
}

// phaseBaseDurationDays is the planning-grade duration of each phase, used
// to derive default due dates for tasks whose template sets none.
func phaseBaseDurationDays(phase models.CasePhase) int {
	switch phase {
	case models.PhaseIntakeRiskAssessment:
		return 14
	case models.PhasePreProceedingPreparation:
		return 30
	case models.PhaseProceedingActive:
		return 90
	case models.PhaseResolutionNegotiation:
		return 30
	case models.PhaseClosureArchival:
		return 7
	default:
		return 30
	}
}

// caseTypeDurationMultiplier stretches phase durations for matter types that
// historically run longer.
func caseTypeDurationMultiplier(caseType models.CaseType) float64 {
	switch caseType {
	case models.CaseTypeCriminalDefense:
		return 1.2
	case models.CaseTypeMedicalMalpractice:
		return 2.0
	default:
		return 1.0
	}
}

// defaultDueDate computes the fallback due date for a generated task.
func defaultDueDate(from time.Time, phase models.CasePhase, caseType models.CaseType) time.Time {
	days := float64(phaseBaseDurationDays(phase)) * caseTypeDurationMultiplier(caseType)

	return from.Add(time.Duration(days*24) * time.Hour)
}

// workflowContext builds the evaluation context for a case and trigger.
// Condition fields and template tokens resolve against the metadata tree.
func (o *Orchestrator) workflowContext(c *models.Case, userID string, trigger models.TriggerEvent) models.WorkflowContext {
	caseView := map[string]any{
		"id":     c.ID,
		"type":   string(c.Type),
		"phase":  string(c.Phase),
		"status": string(c.Status),
		"title":  c.Title,
	}

	for k, v := range c.Metadata {
		caseView[k] = v
	}

	return models.WorkflowContext{
		CaseID:       c.ID,
		UserID:       userID,
		Timestamp:    o.clock.Now(),
		TriggerEvent: trigger,
		Metadata: map[string]any{
			"case":  caseView,
			"event": map[string]any{"type": string(trigger.Type)},
		},
	}
}
