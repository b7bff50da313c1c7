package models

import (
	"maps"
	"time"

	"giyus/pkg/domain"
)

// Lead is a candidate record: a flat map of stored field values. Which fields
// matter for a given candidate is decided by the intake UI; the core only
// diffs and writes values.
//
// Invariants:
//   - ID is assigned by the store and never changes
//   - Fields holds stored (serialized) values only
//   - The core mutates Fields one merge at a time, never by wholesale replace
type Lead struct {
	ID        domain.LeadID     `json:"id"`
	Fields    map[string]string `json:"fields"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewLead builds an unsaved lead.
func NewLead(values map[string]string, now time.Time) *Lead {
	f := make(map[string]string, len(values))
	maps.Copy(f, values)
	return &Lead{Fields: f, CreatedAt: now, UpdatedAt: now}
}

// Value returns a field's stored value, "" when unset.
func (l *Lead) Value(field string) string {
	return l.Fields[field]
}

// Apply merges values into the lead's fields.
func (l *Lead) Apply(values map[string]string, now time.Time) {
	if l.Fields == nil {
		l.Fields = make(map[string]string, len(values))
	}
	maps.Copy(l.Fields, values)
	l.UpdatedAt = now
}

// Clone returns a deep copy so stores never hand out shared maps.
func (l *Lead) Clone() *Lead {
	c := *l
	c.Fields = maps.Clone(l.Fields)
	if c.Fields == nil {
		c.Fields = map[string]string{}
	}
	return &c
}
