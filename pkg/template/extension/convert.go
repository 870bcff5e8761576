package extension

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateTimeLayout is the storage layout accepted by the date filters.
const DateTimeLayout = "2006-01-02 15:04:05"

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func toInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, unsupported("integer", v)
		}
		return n, nil
	default:
		return 0, unsupported("integer", v)
	}
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, unsupported("number", v)
		}
		return f, nil
	default:
		return 0, unsupported("number", v)
	}
}

// toTime accepts time values, Unix timestamps and RFC 3339 or
// DateTimeLayout strings.
func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t != nil {
			return *t, nil
		}
	case int:
		return time.Unix(int64(t), 0).UTC(), nil
	case int64:
		return time.Unix(t, 0).UTC(), nil
	case float64:
		return time.Unix(int64(t), 0).UTC(), nil
	case string:
		s := strings.TrimSpace(t)
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			return parsed, nil
		}
		if parsed, err := time.Parse(DateTimeLayout, s); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, unsupported("time", v)
}
