package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWireTime(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)

	got, err := ParseWireTime("2024-01-01 10:00:00", seoul)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.UTC, got.Location())

	got, err = ParseWireTime(" 2024-02-29 23:59:59 ", nil)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)))

	for _, raw := range []string{"", "2024-01-01", "2024-01-01T10:00:00", "2024-01-01 10:00", "2023-02-29 10:00:00", "01/01/2024 10:00:00"} {
		_, err := ParseWireTime(raw, seoul)
		assert.Error(t, err, raw)
	}
}

func TestTruncateToSecond(t *testing.T) {
	in := time.Date(2024, 1, 1, 10, 0, 0, 999_999_999, time.FixedZone("KST", 9*60*60))
	out := TruncateToSecond(in)
	assert.Zero(t, out.Nanosecond())
	assert.Equal(t, 1, out.Hour())
	assert.Equal(t, 0, out.Second(), "must truncate, not round")
	assert.Equal(t, time.UTC, out.Location())
}
