package models

import "time"

// ConditionResult records the evaluation of one condition for auditing.
// Evaluated is false for conditions skipped by OR short-circuiting.
type ConditionResult struct {
	Field     string  `json:"field"`
	Evaluated bool    `json:"evaluated"`
	Matched   bool    `json:"matched"`
	Weight    float64 `json:"weight"`
	Error     string  `json:"error,omitempty"`
}

// ActionOutcomeStatus classifies how one action execution ended.
type ActionOutcomeStatus string

const (
	ActionSucceeded  ActionOutcomeStatus = "succeeded"
	ActionFailed     ActionOutcomeStatus = "failed"
	ActionSkipped    ActionOutcomeStatus = "skipped"
	ActionRolledBack ActionOutcomeStatus = "rolled_back"
)

// ActionOutcome records the execution of one action within a matched rule.
type ActionOutcome struct {
	ActionID string              `json:"action_id"`
	Kind     ActionKind          `json:"kind"`
	Status   ActionOutcomeStatus `json:"status"`
	Intent   Intent              `json:"intent,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// RuleEvaluationResult is returned for every active rule on every evaluation
// pass, matched or not, so non-matches stay observable for auditing.
type RuleEvaluationResult struct {
	RuleID     string            `json:"rule_id"`
	RuleName   string            `json:"rule_name"`
	Matched    bool              `json:"matched"`
	Score      float64           `json:"score"`
	Confidence float64           `json:"confidence"`
	Conditions []ConditionResult `json:"conditions,omitempty"`
	Actions    []ActionOutcome   `json:"actions,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Intents collects the intents of every succeeded action, in declared order.
func (r *RuleEvaluationResult) Intents() []Intent {
	intents := make([]Intent, 0, len(r.Actions))

	for _, outcome := range r.Actions {
		if outcome.Status == ActionSucceeded && outcome.Intent != nil {
			intents = append(intents, outcome.Intent)
		}
	}

	return intents
}

// TransitionResult is the outcome of a state-machine validation.
type TransitionResult struct {
	Success  bool     `json:"success"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// PhaseTransitionResult aggregates every sub-step of an orchestrated phase
// transition. Sub-step failures land in Errors/Warnings, never in a panic.
type PhaseTransitionResult struct {
	Success              bool                   `json:"success"`
	PhaseTransitionValid bool                   `json:"phase_transition_valid"`
	CaseID               string                 `json:"case_id"`
	FromPhase            CasePhase              `json:"from_phase"`
	ToPhase              CasePhase              `json:"to_phase"`
	TasksCreated         []CreatedTask          `json:"tasks_created,omitempty"`
	TasksUpdated         int                    `json:"tasks_updated"`
	RuleResults          []RuleEvaluationResult `json:"rule_results,omitempty"`
	Notifications        []NotificationRequest  `json:"notifications,omitempty"`
	Errors               []string               `json:"errors,omitempty"`
	Warnings             []string               `json:"warnings,omitempty"`
	CompletedAt          time.Time              `json:"completed_at"`
}

// CompletionResult aggregates the follow-up work produced by a task
// completion event.
type CompletionResult struct {
	FollowUpTasks []CreatedTask          `json:"follow_up_tasks,omitempty"`
	Notifications []NotificationRequest  `json:"notifications,omitempty"`
	RuleResults   []RuleEvaluationResult `json:"rule_results,omitempty"`
	Errors        []string               `json:"errors,omitempty"`
}
