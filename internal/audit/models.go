package audit

import (
	"time"

	"giyus/pkg/domain"
)

// Action names the state transition an event records.
type Action string

const (
	ActionLeadCreated           Action = "lead.created"
	ActionLeadUpdated           Action = "lead.updated"
	ActionChangeRequestCreated  Action = "change_request.created"
	ActionChangeRequestApplied  Action = "change_request.applied"
	ActionChangeRequestRejected Action = "change_request.rejected"
	ActionBatchCompleted        Action = "batch.completed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp       time.Time              `json:"timestamp"`
	Action          Action                 `json:"action"`
	ActorID         string                 `json:"actor_id,omitempty"`
	LeadID          domain.LeadID          `json:"lead_id,omitempty"`
	ChangeRequestID domain.ChangeRequestID `json:"change_request_id,omitempty"`
	Field           string                 `json:"field,omitempty"`
	// RequestID is the correlation id of the HTTP request that caused the event.
	RequestID string `json:"request_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
}
