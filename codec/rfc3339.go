package codec

import (
	"encoding/json"
	"strconv"
	"time"
)

// TimeRFC3339 decodes an RFC3339 string, with or without fractional seconds,
// into a time.Time.
func TimeRFC3339(raw any) (time.Time, error) {
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, expected("RFC3339 string", raw)
	}
	return parseRFC3339(s)
}

// FormatRFC3339 renders t in its canonical form: UTC, trailing zeros of the
// fraction trimmed.
func FormatRFC3339(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Duration decodes a Go duration string ("1m30s") or an integer count of
// nanoseconds.
func Duration(raw any) (time.Duration, error) {
	switch v := raw.(type) {
	case string:
		return time.ParseDuration(v)
	case json.Number:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return 0, err
		}
		return time.Duration(n), nil
	}
	return 0, expected("duration", raw)
}

func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}
