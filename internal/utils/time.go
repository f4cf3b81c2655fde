package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/menjil-org/menjil-backend/internal/types"
)

// ParseWireTime parses a client timestamp in types.WireTimeLayout, interpreted
// in loc, and returns it in UTC.
func ParseWireTime(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(types.WireTimeLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", raw, err)
	}
	return t.UTC(), nil
}

// TruncateToSecond drops sub-second precision (truncate, never round) and
// normalizes to UTC.
func TruncateToSecond(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
