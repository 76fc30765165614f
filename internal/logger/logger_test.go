package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestLedgerMovement_JSON(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(New(&buf, "info", "json"))
	defer SetDefault(New(&bytes.Buffer{}, "info", "text"))

	LedgerMovement("driver", 9, "COMMISSION", "EXPENSE", "10000", "trip_id", int64(5))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Ledger movement", entry["msg"])
	assert.Equal(t, "COMMISSION", entry["type"])
	assert.Equal(t, float64(9), entry["actor_id"])
	assert.Equal(t, float64(5), entry["trip_id"])
}

func TestDebugHelpersFilteredAtInfo(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(New(&buf, "info", "text"))
	defer SetDefault(New(&bytes.Buffer{}, "info", "text"))

	EnterMethod("x")
	ExitMethod("x")
	DatabaseCall("op", "SELECT 1")
	assert.Empty(t, buf.String())

	JobFinished("audit", errors.New("boom"))
	assert.Contains(t, buf.String(), "Job failed")
	assert.Contains(t, buf.String(), "boom")
}
