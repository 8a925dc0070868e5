package helpers

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseInstant reads RFC3339 or unix seconds. Empty input means now.
func ParseInstant(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now, nil
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, NewValidationError("invalid instant", fmt.Errorf("%q is neither RFC3339 nor unix seconds", raw))
	}
	return t, nil
}
