package ui_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/rsniff/internal/ui"
)

// jsonMessages decodes one JSON record per line and returns their msg fields.
func jsonMessages(t *testing.T, buf *bytes.Buffer) []string {
	t.Helper()
	var msgs []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		msgs = append(msgs, rec["msg"].(string))
	}
	return msgs
}

// With -q and --log, the terminal only sees warnings while the log file
// keeps the full provisioning trace.
func TestMultiHandler_QuietTerminalFullLogFile(t *testing.T) {
	t.Parallel()

	var stderr, logFile bytes.Buffer
	logger := slog.New(ui.NewMultiHandler(
		slog.NewTextHandler(&stderr, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&logFile, &slog.HandlerOptions{Level: slog.LevelDebug}),
	))

	logger.Debug("fixture created", "role", "to", "path", "/tmp/x/to.txt")
	logger.Info("backed up previous sniff log", "path", "/tmp/x/sniffed.input.log.backup")
	logger.Warn("failed to record session", "error", "read-only state dir")

	assert.NotContains(t, stderr.String(), "fixture created")
	assert.NotContains(t, stderr.String(), "backed up")
	assert.Contains(t, stderr.String(), "level=WARN")
	assert.Contains(t, stderr.String(), "read-only state dir")

	assert.Equal(t, []string{
		"fixture created",
		"backed up previous sniff log",
		"failed to record session",
	}, jsonMessages(t, &logFile))
}

func TestMultiHandler_EnabledFollowsMostVerbose(t *testing.T) {
	t.Parallel()

	handler := func(l slog.Level) slog.Handler {
		return slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: l})
	}

	tests := []struct {
		name    string
		levels  []slog.Level
		query   slog.Level
		enabled bool
	}{
		{"default run drops debug", []slog.Level{slog.LevelInfo}, slog.LevelDebug, false},
		{"log file enables debug", []slog.Level{slog.LevelWarn, slog.LevelDebug}, slog.LevelDebug, true},
		{"quiet drops info", []slog.Level{slog.LevelWarn}, slog.LevelInfo, false},
		{"verbose keeps info", []slog.Level{slog.LevelDebug}, slog.LevelInfo, true},
		{"no handlers", nil, slog.LevelError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			hs := make([]slog.Handler, 0, len(tt.levels))
			for _, l := range tt.levels {
				hs = append(hs, handler(l))
			}
			m := ui.NewMultiHandler(hs...)
			assert.Equal(t, tt.enabled, m.Enabled(context.Background(), tt.query))
		})
	}
}

func TestMultiHandler_WithPropagatesToEveryHandler(t *testing.T) {
	t.Parallel()

	var text, js bytes.Buffer
	base := ui.NewMultiHandler(
		slog.NewTextHandler(&text, nil),
		slog.NewJSONHandler(&js, nil),
	)
	logger := slog.New(base).With("target", "dev@buildbox:sniff").WithGroup("fixture")

	logger.Info("fixture created", "role", "sniffed-input")

	assert.Contains(t, text.String(), "target=dev@buildbox:sniff")
	assert.Contains(t, text.String(), "fixture.role=sniffed-input")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &rec))
	assert.Equal(t, "dev@buildbox:sniff", rec["target"])
	group, ok := rec["fixture"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "sniffed-input", group["role"])
}

// failingHandler stands in for a log file whose disk filled up.
type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("write rsniff.log: no space left on device")
}

func TestMultiHandler_FailingFileDoesNotSilenceTerminal(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	m := ui.NewMultiHandler(
		failingHandler{slog.NewJSONHandler(&bytes.Buffer{}, nil)},
		slog.NewTextHandler(&stderr, nil),
	)

	r := slog.NewRecord(time.Time{}, slog.LevelWarn, "failed to record session", 0)
	err := m.Handle(context.Background(), r)

	assert.ErrorContains(t, err, "no space left on device")
	assert.Contains(t, stderr.String(), "failed to record session")
}
