package rules

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/docket-io/docket/pkg/models"
)

// RulePerformance summarizes one rule's counters for reporting.
type RulePerformance struct {
	RuleID        string              `json:"rule_id"`
	RuleName      string              `json:"rule_name"`
	Category      models.RuleCategory `json:"category"`
	TriggerCount  int64               `json:"trigger_count"`
	SuccessCount  int64               `json:"success_count"`
	FailureCount  int64               `json:"failure_count"`
	SuccessRate   float64             `json:"success_rate"`
	LastTriggered *time.Time          `json:"last_triggered,omitempty"`
}

// StatsReport aggregates rule statistics across the registry.
type StatsReport struct {
	TotalRules       int                           `json:"total_rules"`
	ActiveRules      int                           `json:"active_rules"`
	TotalEvaluations int64                         `json:"total_evaluations"`
	OverallSuccess   float64                       `json:"overall_success_rate"`
	ByCategory       map[models.RuleCategory]int64 `json:"by_category"`
	TopPerforming    []RulePerformance             `json:"top_performing"`
}

// topPerformingLimit bounds the top-performers list in a stats report.
const topPerformingLimit = 5

// Stats reports aggregate rule statistics: per-category evaluation volume,
// overall success rate, and the most-triggered rules by success rate.
func (e *Engine) Stats() StatsReport {
	e.mu.RLock()
	defer e.mu.RUnlock()

	report := StatsReport{
		TotalRules: len(e.rules),
		ByCategory: make(map[models.RuleCategory]int64),
	}

	var totalSuccess int64

	performances := make([]RulePerformance, 0, len(e.rules))

	for _, rule := range e.rules {
		if rule.IsActive {
			report.ActiveRules++
		}

		triggers := atomic.LoadInt64(&rule.Stats.TriggerCount)
		successes := atomic.LoadInt64(&rule.Stats.SuccessCount)
		failures := atomic.LoadInt64(&rule.Stats.FailureCount)

		report.TotalEvaluations += triggers
		totalSuccess += successes
		report.ByCategory[rule.Category] += triggers

		perf := RulePerformance{
			RuleID:        rule.ID,
			RuleName:      rule.Name,
			Category:      rule.Category,
			TriggerCount:  triggers,
			SuccessCount:  successes,
			FailureCount:  failures,
			LastTriggered: rule.Stats.LastTriggered,
		}
		if triggers > 0 {
			perf.SuccessRate = float64(successes) / float64(triggers)
		}

		performances = append(performances, perf)
	}

	if report.TotalEvaluations > 0 {
		report.OverallSuccess = float64(totalSuccess) / float64(report.TotalEvaluations)
	}

	sort.Slice(performances, func(i, j int) bool {
		if performances[i].SuccessRate != performances[j].SuccessRate {
			return performances[i].SuccessRate > performances[j].SuccessRate
		}

		return performances[i].TriggerCount > performances[j].TriggerCount
	})

	if len(performances) > topPerformingLimit {
		performances = performances[:topPerformingLimit]
	}

	report.TopPerforming = performances

	return report
}
