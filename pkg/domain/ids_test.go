package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "giyus/pkg/domain-errors"
)

// TestParseLeadID_Invariants validates the parsing invariant:
// "IDs must be positive integers that fit in int64"
func TestParseLeadID_Invariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    LeadID
		wantErr bool
	}{
		{"empty string", "", 0, true},
		{"whitespace only", "   ", 0, true},
		{"zero", "0", 0, true},
		{"negative", "-4", 0, true},
		{"not a number", "abc", 0, true},
		{"SQL injection attempt", "1; DROP TABLE leads;--", 0, true},
		{"oversized input", strings.Repeat("9", 40), 0, true},
		{"overflow", "9223372036854775808", 0, true},
		{"valid", "42", 42, false},
		{"valid with surrounding spaces", " 7 ", 7, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLeadID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseChangeRequestID(t *testing.T) {
	id, err := ParseChangeRequestID("15")
	require.NoError(t, err)
	assert.Equal(t, ChangeRequestID(15), id)
	assert.Equal(t, "15", id.String())

	_, err = ParseChangeRequestID("x")
	require.Error(t, err)
}

func TestPrivilegeForRole(t *testing.T) {
	assert.Equal(t, PrivilegePrivileged, PrivilegeForRole("admin"))
	assert.Equal(t, PrivilegeRestricted, PrivilegeForRole("volunteer"))
	assert.Equal(t, PrivilegeRestricted, PrivilegeForRole(""))
}

func TestParsePrivilege(t *testing.T) {
	p, err := ParsePrivilege("restricted")
	require.NoError(t, err)
	assert.False(t, Actor{Privilege: p}.IsPrivileged())

	_, err = ParsePrivilege("root")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
