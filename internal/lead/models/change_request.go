package models

import (
	"cmp"
	"time"

	"giyus/pkg/domain"
	dErrors "giyus/pkg/domain-errors"
)

// ChangeRequest is a proposed single-field mutation awaiting approval. It is
// immutable once created and leaves the ledger when resolved.
//
// Soft invariant: at most one outstanding request per (LeadID, FieldName).
// Only the mutation router's read-before-write check enforces it.
type ChangeRequest struct {
	ID         domain.ChangeRequestID
	LeadID     domain.LeadID
	FieldName  string
	OldValue   string
	NewValue   string
	ProposedBy string
	ProposedAt time.Time
}

// Outcome is the terminal state of a resolved change request.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeRejected Outcome = "rejected"
)

// ParseOutcome maps the resolve payload ("approve" | "reject") to an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "approve":
		return OutcomeApplied, nil
	case "reject":
		return OutcomeRejected, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "outcome must be approve or reject")
	}
}

func (o Outcome) IsValid() bool {
	return o == OutcomeApplied || o == OutcomeRejected
}

// CompareMostRecentFirst orders requests by ProposedAt descending, then ID
// descending. Suitable for slices.SortFunc.
func CompareMostRecentFirst(a, b *ChangeRequest) int {
	if c := b.ProposedAt.Compare(a.ProposedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}
