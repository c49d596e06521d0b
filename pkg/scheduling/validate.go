package scheduling

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// pastGrace is how far behind the engine clock a scheduled time may sit
// before it counts as "in the past". Requests built from a wall-clock
// reading are always slightly behind by the time they validate.
const pastGrace = time.Minute

// ValidationError carries every violation found in a schedule request so
// callers can surface them all at once instead of fixing one per attempt.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid schedule request: " + strings.Join(e.Violations, "; ")
}

// validateRequest collects all violations rather than stopping at the first.
func (e *Engine) validateRequest(req ScheduleRequest) error {
	violations := make([]string, 0)

	if err := e.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				violations = append(violations, fmt.Sprintf("field %s fails %q", fe.Field(), fe.Tag()))
			}
		} else {
			violations = append(violations, err.Error())
		}
	}

	now := e.clock.Now()

	if !req.ScheduledTime.IsZero() && req.ScheduledTime.Before(now.Add(-pastGrace)) {
		violations = append(violations, "scheduled time is in the past")
	}

	if req.DueDate != nil && req.DueDate.Before(req.ScheduledTime) {
		violations = append(violations, "due date precedes scheduled time")
	}

	if req.Recurrence != nil {
		if err := req.Recurrence.Validate(now); err != nil {
			violations = append(violations, err.Error())
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}

	return nil
}
