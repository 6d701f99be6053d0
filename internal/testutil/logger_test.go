package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTestLogger_DebugEnabled(t *testing.T) {
	logger := NewTestLogger(t)
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(t.Context(), slog.LevelDebug))
}

func TestTestWriter_ReportsFullLength(t *testing.T) {
	w := testWriter{t}

	n, err := w.Write([]byte("level=DEBUG msg=lookup\n"))
	require.NoError(t, err)
	assert.Equal(t, 23, n)
}
