package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, mode := range []string{"production", "development", ""} {
		log, err := New(mode)
		require.NoError(t, err, mode)
		child := log.With("component", "test")
		assert.NotPanics(t, func() {
			child.Debug("debug", "k", 1)
			child.Info("info", "k", 2)
			child.Warn("warn")
			child.Error("error", "k", 3)
		})
	}
}
