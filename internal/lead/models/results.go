package models

import (
	"fmt"

	"giyus/internal/lead/diff"
	"giyus/pkg/domain"
)

// MutationResult reports what a proposed update did.
type MutationResult struct {
	Applied               bool
	ChangeRequestsCreated int
	Changes               []diff.Change
}

// NoChanges reports a proposal that neither applied nor queued anything.
func (r *MutationResult) NoChanges() bool {
	return !r.Applied && r.ChangeRequestsCreated == 0
}

// ItemResult is the outcome of one batch item. Err is nil on success.
type ItemResult struct {
	LeadID domain.LeadID
	Err    error
	// Reason is the client-facing failure description.
	Reason string
}

// Succeeded builds a successful item result.
func Succeeded(id domain.LeadID) ItemResult {
	return ItemResult{LeadID: id}
}

// Failed builds a failed item result.
func Failed(id domain.LeadID, err error, reason string) ItemResult {
	return ItemResult{LeadID: id, Err: err, Reason: reason}
}

func (r ItemResult) OK() bool {
	return r.Err == nil
}

// BatchResult aggregates a batch. Errors follow the order ids were submitted.
type BatchResult struct {
	Updated int
	Failed  int
	Errors  []string
}

// Summarize folds item results into a BatchResult, preserving item order.
func Summarize(items []ItemResult) *BatchResult {
	result := &BatchResult{Errors: []string{}}
	for _, item := range items {
		if item.OK() {
			result.Updated++
			continue
		}
		result.Failed++
		result.Errors = append(result.Errors, fmt.Sprintf("%d: %s", item.LeadID, item.Reason))
	}
	return result
}
