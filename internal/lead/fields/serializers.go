package fields

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical stored form of date fields.
const DateLayout = "2006-01-02"

// dateInputLayouts are accepted on input. The day-first layouts are what the
// intake forms display; they are normalized before any comparison.
var dateInputLayouts = []string{
	DateLayout,
	time.RFC3339,
	"02/01/2006",
	"2/1/2006",
	"02.01.2006",
}

// Text stores strings as-is and renders numbers and booleans in their
// canonical Go form.
func Text(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case fmt.Stringer:
		return t.String(), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

// Bool stores "true", "false" or "" (unset).
func Bool(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case bool:
		return strconv.FormatBool(t), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return "", nil
		}
		b, err := strconv.ParseBool(strings.ToLower(s))
		if err != nil {
			return "", fmt.Errorf("not a boolean: %q", t)
		}
		return strconv.FormatBool(b), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

// Date stores dates as YYYY-MM-DD.
func Date(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case time.Time:
		if t.IsZero() {
			return "", nil
		}
		return t.Format(DateLayout), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return "", nil
		}
		for _, layout := range dateInputLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.Format(DateLayout), nil
			}
		}
		return "", fmt.Errorf("not a date: %q", t)
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

// Enum returns a serializer that only accepts the listed options (or unset).
func Enum(options ...string) Serializer {
	return func(v any) (string, error) {
		s, err := Text(v)
		if err != nil {
			return "", err
		}
		if s == "" || slices.Contains(options, s) {
			return s, nil
		}
		return "", fmt.Errorf("%q is not one of %s", s, strings.Join(options, ", "))
	}
}
