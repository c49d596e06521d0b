// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrCaseNotFound indicates a case was not found by the given identifier.
	ErrCaseNotFound = errors.New("case not found")

	// ErrTaskNotFound indicates a scheduled task was not found by the given identifier.
	ErrTaskNotFound = errors.New("scheduled task not found")

	// ErrRuleNotFound indicates a business rule was not found by the given identifier.
	ErrRuleNotFound = errors.New("business rule not found")

	// ErrTemplateNotFound indicates a task template was not found by the given identifier.
	ErrTemplateNotFound = errors.New("task template not found")

	// ErrCaseAlreadyExists indicates a case with the same identifier already exists.
	ErrCaseAlreadyExists = errors.New("case already exists")
)

// CaseError wraps case-related errors with operation context.
type CaseError struct {
	Op     string // Operation being performed (e.g., "CaseByID", "SaveCase")
	CaseID string
	Err    error
}

func (e *CaseError) Error() string {
	return fmt.Sprintf("%s operation failed for case %s: %v", e.Op, e.CaseID, e.Err)
}

func (e *CaseError) Unwrap() error {
	return e.Err
}

func (e *CaseError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewCaseError creates a case error with context.
func NewCaseError(op, caseID string, err error) *CaseError {
	return &CaseError{Op: op, CaseID: caseID, Err: err}
}

// TaskError wraps task-related errors with operation context.
type TaskError struct {
	Op     string
	TaskID string
	Err    error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s operation failed for task %s: %v", e.Op, e.TaskID, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

func (e *TaskError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewTaskError creates a task error with context.
func NewTaskError(op, taskID string, err error) *TaskError {
	return &TaskError{Op: op, TaskID: taskID, Err: err}
}

// IsCaseNotFound checks if an error indicates a case was not found.
func IsCaseNotFound(err error) bool {
	return errors.Is(err, ErrCaseNotFound)
}

// IsTaskNotFound checks if an error indicates a task was not found.
func IsTaskNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound)
}
