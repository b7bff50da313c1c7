package handler

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giyus/internal/lead/models"
	"giyus/pkg/domain"
	dErrors "giyus/pkg/domain-errors"
)

func TestBatchUpdateRequestUnmarshal(t *testing.T) {
	t.Run("splits ids from fields", func(t *testing.T) {
		var req BatchUpdateRequest
		require.NoError(t, json.Unmarshal([]byte(`{"ids":[3,1,3],"status":"drafted","isLoneSoldier":true}`), &req))
		assert.Equal(t, []domain.LeadID{3, 1, 3}, req.IDs)
		assert.Equal(t, map[string]any{"status": "drafted", "isLoneSoldier": true}, req.Fields)
		assert.NoError(t, req.Validate())
	})

	t.Run("missing ids fails validation", func(t *testing.T) {
		var req BatchUpdateRequest
		require.NoError(t, json.Unmarshal([]byte(`{"status":"drafted"}`), &req))
		assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation))
	})

	t.Run("rejects malformed ids", func(t *testing.T) {
		for _, body := range []string{
			`{"ids":"1,2"}`,
			`{"ids":["1"]}`,
			`{"ids":[1.5]}`,
			`{"ids":[0]}`,
		} {
			var req BatchUpdateRequest
			assert.Error(t, json.Unmarshal([]byte(body), &req), body)
		}
	})
}

func TestCreateChangeRequestRequestValidate(t *testing.T) {
	valid := func() CreateChangeRequestRequest {
		return CreateChangeRequestRequest{
			RecordID:     12,
			FieldChanged: " city ",
			OldValue:     "Haifa",
			NewValue:     "Tel Aviv",
			ChangedBy:    "recruiter-7",
			DateModified: "2025-03-10T09:30:00+02:00",
		}
	}

	req := valid()
	require.NoError(t, req.Validate())
	cr := req.ToModel()
	assert.Equal(t, domain.LeadID(12), cr.LeadID)
	assert.Equal(t, "city", cr.FieldName)
	assert.Equal(t, "recruiter-7", cr.ProposedBy)
	assert.True(t, cr.ProposedAt.Equal(time.Date(2025, 3, 10, 7, 30, 0, 0, time.UTC)))

	tests := []struct {
		name    string
		mutate  func(r *CreateChangeRequestRequest)
		message string
	}{
		{"missing record", func(r *CreateChangeRequestRequest) { r.RecordID = 0 }, "recordId is required"},
		{"blank field", func(r *CreateChangeRequestRequest) { r.FieldChanged = "  " }, "fieldChanged is required"},
		{"missing author", func(r *CreateChangeRequestRequest) { r.ChangedBy = "" }, "changedBy is required"},
		{"bad timestamp", func(r *CreateChangeRequestRequest) { r.DateModified = "yesterday" }, "dateModified must be an ISO-8601 timestamp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			err := req.Validate()
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestCreateChangeRequestRequestTimestampLayouts(t *testing.T) {
	tests := []struct {
		value string
		want  time.Time
	}{
		{"2025-01-01T10:00:00Z", time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)},
		{"2025-01-01T10:00:00.250+02:00", time.Date(2025, 1, 1, 8, 0, 0, 250_000_000, time.UTC)},
		{"2025-01-01T10:00:00", time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)},
		{"2025-01-01T10:00:00.5", time.Date(2025, 1, 1, 10, 0, 0, 500_000_000, time.UTC)},
		{"2025-01-01", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			req := CreateChangeRequestRequest{RecordID: 1, FieldChanged: "city", ChangedBy: "recruiter-7", DateModified: tt.value}
			require.NoError(t, req.Validate())
			assert.Equal(t, tt.want, req.ToModel().ProposedAt)
		})
	}

	for _, bad := range []string{"2025-01-01 10:00", "01/02/2025", "2025-13-01"} {
		req := CreateChangeRequestRequest{RecordID: 1, FieldChanged: "city", ChangedBy: "recruiter-7", DateModified: bad}
		assert.Error(t, req.Validate(), bad)
	}
}

func TestResolveRequestValidate(t *testing.T) {
	req := ResolveRequest{ChangeRequestID: 4, Outcome: " Approve "}
	require.NoError(t, req.Validate())
	assert.Equal(t, models.OutcomeApplied, req.outcome)

	req = ResolveRequest{ChangeRequestID: 4, Outcome: "reject"}
	require.NoError(t, req.Validate())
	assert.Equal(t, models.OutcomeRejected, req.outcome)

	req = ResolveRequest{ChangeRequestID: 4, Outcome: "defer"}
	assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation))

	req = ResolveRequest{Outcome: "approve"}
	assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation))
}

func TestFieldsRequestValidate(t *testing.T) {
	empty := FieldsRequest{}
	assert.True(t, dErrors.HasCode(empty.Validate(), dErrors.CodeValidation))

	ok := FieldsRequest{"city": "Haifa"}
	assert.NoError(t, ok.Validate())
}
