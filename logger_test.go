package distkmeans

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func debugLogger(buf *bytes.Buffer) *Logger {
	return NewLogger(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func logRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		records = append(records, rec)
	}
	return records
}

func TestLogger_LogRound(t *testing.T) {
	var buf bytes.Buffer
	l := debugLogger(&buf).WithRank(1, 4).WithRound(7)

	l.LogRound(context.Background(), []int{0, 2}, time.Millisecond)
	l.LogRound(context.Background(), nil, time.Millisecond)

	recs := logRecords(t, &buf)
	require.Len(t, recs, 2)

	assert.Equal(t, "round completed with empty clusters", recs[0]["msg"])
	assert.Equal(t, []any{float64(0), float64(2)}, recs[0]["empty_clusters"])
	assert.Equal(t, "round completed", recs[1]["msg"])
	assert.NotContains(t, recs[1], "empty_clusters")

	for _, rec := range recs {
		assert.Equal(t, "DEBUG", rec["level"])
		assert.Equal(t, float64(1), rec["rank"])
		assert.Equal(t, float64(4), rec["world"])
		assert.Equal(t, float64(7), rec["round"])
	}
}

func TestLogger_RoundsBelowDebugAreDropped(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	l.WithRound(1).LogRound(context.Background(), []int{3}, time.Millisecond)
	assert.Empty(t, buf.String())
}

func TestWorker_LogsEveryRound(t *testing.T) {
	var buf bytes.Buffer
	logger := debugLogger(&buf)

	_, errs, err := runGroup(t, 1, Points(blobs(11)), func(int) []Option {
		return []Option{WithMaxRounds(4), WithLogger(logger)}
	})
	require.NoError(t, err)
	require.NoError(t, errs[0])

	var rounds []float64
	for _, rec := range logRecords(t, &buf) {
		msg, _ := rec["msg"].(string)
		if !strings.HasPrefix(msg, "round completed") {
			continue
		}
		assert.Equal(t, float64(0), rec["rank"])
		assert.Equal(t, float64(1), rec["world"])
		rounds = append(rounds, rec["round"].(float64))
	}
	assert.Equal(t, []float64{1, 2, 3, 4}, rounds)
}
