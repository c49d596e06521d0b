package models

import "time"

// AuditRecord is one append-only entry in a case's audit trail. Workflow
// steps write these; nothing ever updates or deletes them.
type AuditRecord struct {
	ID     string `json:"id"     validate:"required"`
	CaseID string `json:"case_id" validate:"required"`
	TaskID string `json:"task_id,omitempty"`
	Actor  string `json:"actor"`
	Action string `json:"action" validate:"required"`
	Detail string `json:"detail,omitempty"`

	At time.Time `json:"at"`
}
