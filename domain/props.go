package domain

import "time"

// The store serializes timestamps with toString(datetime()), an ISO-8601
// string with nanosecond precision and offset.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func propString(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func propTime(props map[string]any, key string) time.Time {
	switch v := props[key].(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

func propRole(props map[string]any, key string) *Role {
	s, ok := props[key].(string)
	if !ok || s == "" {
		return nil
	}
	r := Role(s)
	return &r
}
