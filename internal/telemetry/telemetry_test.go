package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordFetch(nil, 10*time.Millisecond)
	m.RecordFetch(errors.New("boom"), time.Millisecond)
	m.RecordFetch(nil, time.Millisecond)
	m.RecordItems(4)
	m.RecordTransform(ResultChanged)
	m.RecordTransform(ResultFailed)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.fetchTotal.WithLabelValues(StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchTotal.WithLabelValues(StatusError)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.itemsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transformsTotal.WithLabelValues(ResultChanged)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.transformsTotal.WithLabelValues(ResultUnchanged)))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordFetch(nil, time.Second)
		m.RecordItems(1)
		m.RecordTransform(ResultChanged)
	})
}

func TestWriteFile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.RecordItems(3)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, WriteFile(reg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "uikit_registry_items_total 3")
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.LevelWarn, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "key=value")
	assert.NotContains(t, out, "trace_id")
}

func TestEndSpan(t *testing.T) {
	_, span := StartSpan(context.Background(), "test")
	assert.NotPanics(t, func() { EndSpan(span, errors.New("failed")) })

	_, span = StartSpan(context.Background(), "test")
	assert.NotPanics(t, func() { EndSpan(span, nil) })
}
