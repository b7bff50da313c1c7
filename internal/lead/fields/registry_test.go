package fields

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "giyus/pkg/domain-errors"
)

func TestNewRegistryRejectsBadDescriptors(t *testing.T) {
	_, err := NewRegistry(Descriptor{Name: "", Serialize: Text})
	require.Error(t, err)

	_, err = NewRegistry(Descriptor{Name: "city"})
	require.Error(t, err)

	_, err = NewRegistry(text("city"), text("city"))
	require.Error(t, err)
}

func TestRegistryOrder(t *testing.T) {
	r := MustNewRegistry(text("b"), text("a"), text("c"))

	assert.Equal(t, []string{"b", "a", "c"}, r.Names())
	assert.Equal(t, []string{"b", "a", "c", "x", "z"}, r.Order([]string{"z", "c", "x", "a", "b"}))
}

func TestSerializers(t *testing.T) {
	tests := []struct {
		name    string
		fn      Serializer
		in      any
		want    string
		wantErr bool
	}{
		{"text nil is empty", Text, nil, "", false},
		{"text keeps string", Text, "Tel Aviv", "Tel Aviv", false},
		{"text json number", Text, json.Number("0521234567"), "0521234567", false},
		{"text bool", Text, true, "true", false},
		{"text float", Text, 12.5, "12.5", false},
		{"text rejects maps", Text, map[string]any{}, "", true},

		{"bool true", Bool, true, "true", false},
		{"bool string", Bool, "FALSE", "false", false},
		{"bool numeric string", Bool, "1", "true", false},
		{"bool empty is unset", Bool, "", "", false},
		{"bool garbage", Bool, "maybe", "", true},

		{"date iso", Date, "2025-01-01", "2025-01-01", false},
		{"date rfc3339", Date, "2025-01-01T10:00:00Z", "2025-01-01", false},
		{"date day first", Date, "05/03/2025", "2025-03-05", false},
		{"date dotted", Date, "05.03.2025", "2025-03-05", false},
		{"date time value", Date, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), "2024-12-31", false},
		{"date zero time", Date, time.Time{}, "", false},
		{"date garbage", Date, "next tuesday", "", true},

		{"enum allowed", Enum("a", "b"), "b", "b", false},
		{"enum unset", Enum("a", "b"), nil, "", false},
		{"enum rejected", Enum("a", "b"), "c", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("serializes every field", func(t *testing.T) {
		got, err := Leads.Normalize(map[string]any{
			City:          "Haifa",
			GiyusDate:     "01/08/2025",
			IsLoneSoldier: true,
			Notes:         nil,
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			City:          "Haifa",
			GiyusDate:     "2025-08-01",
			IsLoneSoldier: "true",
			Notes:         "",
		}, got)
	})

	t.Run("unknown field is a validation error", func(t *testing.T) {
		_, err := Leads.Normalize(map[string]any{"favouriteColor": "blue"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Contains(t, err.Error(), "favouriteColor")
	})

	t.Run("bad value is a validation error naming the field", func(t *testing.T) {
		_, err := Leads.Normalize(map[string]any{Status: "enlisted"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Contains(t, err.Error(), Status)
	})

	t.Run("first error follows registry order", func(t *testing.T) {
		_, err := Leads.Normalize(map[string]any{Notes: map[string]any{}, BirthDate: "soon"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), BirthDate)
	})
}
