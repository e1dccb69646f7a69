package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/survtree/pkg/errors"
)

// TestLoggerInterface tests the Logger interface implementation
func TestLoggerInterface(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", OperationKey, OperationFit)
	testLogger.Warn("warning message", ErrorCodeKey, ErrorEmptyData)
	testLogger.Error("error message", ErrAttrKey, fmt.Errorf("test error"))

	require.NotEmpty(t, buffer.String())

	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		assert.True(t, testLogger.ContainsMessage(msg), "missing %q", msg)
	}

	assert.True(t, testLogger.ContainsField("key1", "value1"))
	assert.True(t, testLogger.ContainsField("number", 42.0)) // JSON numbers decode as float64
	assert.True(t, testLogger.ContainsField(ErrAttrKey, "test error"))
}

// TestLoggerWith tests the With method for context-aware logging
func TestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	contextLogger := testLogger.With(
		ModelNameKey, "DecisionTreeClassifier",
		EstimatorIDKey, "dt-001",
	)
	contextLogger.Info("contextual message", OperationKey, OperationFit)

	entries := testLogger.EntriesWithMessage("contextual message")
	require.Len(t, entries, 1)
	assert.Equal(t, "DecisionTreeClassifier", entries[0][ModelNameKey])
	assert.Equal(t, "dt-001", entries[0][EstimatorIDKey])
	assert.Equal(t, OperationFit, entries[0][OperationKey])
}

// TestLoggerEnabled tests the Enabled method
func TestLoggerEnabled(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)
	ctx := context.Background()

	assert.True(t, testLogger.Enabled(ctx, LevelInfo))
	assert.True(t, testLogger.Enabled(ctx, LevelError))
	assert.False(t, testLogger.Enabled(ctx, LevelDebug))

	testLogger.Debug("this should not appear")
	testLogger.Info("this should appear")

	assert.False(t, testLogger.ContainsMessage("this should not appear"))
	assert.True(t, testLogger.ContainsMessage("this should appear"))
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProvider(NewJSONZerolog(&buf), LevelInfo)

	logger := provider.GetLoggerWithName("tree.builder")
	logger.Debug("hidden split", SplitFeatureKey, "age")
	logger.Info("tree built",
		TreeDepthKey, 3,
		TreeLeavesKey, 5,
		"warning", errors.NewUndefinedMetricWarning("precision", "no predicted positives", 0),
	)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "tree built", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "tree.builder", entry[ComponentKey])
	assert.Equal(t, 3.0, entry[TreeDepthKey])

	warning, ok := entry["warning"].(map[string]interface{})
	require.True(t, ok, "LogObjectMarshaler values are nested objects")
	assert.Equal(t, "UndefinedMetricWarning", warning["type"])

	assert.False(t, logger.Enabled(context.Background(), LevelDebug))
	provider.SetLevel(LevelDebug)
	assert.True(t, provider.GetLogger().Enabled(context.Background(), LevelDebug))
}

func TestSlogLoggerAddsStacktrace(t *testing.T) {
	var buf bytes.Buffer
	provider := NewSlogProvider(&buf, LevelInfo)

	logger := provider.GetLoggerWithName("cli")
	logger.Error("fit failed", ErrAttrKey, errors.NewEmptyDatasetError("Build"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "ERROR", entry["severity"])
	assert.Equal(t, "fit failed", entry["message"])
	assert.Equal(t, "cli", entry[ComponentKey])
	assert.Equal(t, "EmptyDatasetError", entry[ErrorTypeKey])
	assert.Contains(t, entry, StacktraceAttrKey)

	buf.Reset()
	logger.Debug("not emitted")
	assert.Empty(t, buf.String())
	provider.SetLevel(LevelDebug)
	logger.Debug("emitted")
	assert.Contains(t, buf.String(), "emitted")
}

func TestErrorHandlerTypes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType string
	}{
		{
			name:     "malformed record",
			err:      errors.NewMalformedRecordError(3, "Age", "abc", fmt.Errorf("invalid syntax")),
			wantType: "MalformedRecordError",
		},
		{
			name:     "outermost kind wins",
			err:      errors.NewModelError("Restore", "invalid parameters", errors.NewValidationError("max_depth", "must be non-negative", -1)),
			wantType: "ModelError",
		},
		{
			name:     "wrapped not fitted",
			err:      errors.Wrap(errors.NewNotFittedError("DecisionTreeClassifier", "Predict"), "predict passengers"),
			wantType: "NotFittedError",
		},
		{
			name: "plain error",
			err:  fmt.Errorf("open train.csv: no such file"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewSlogLogger(slog.NewJSONHandler(&buf, nil))
			logger.Error("run failed", ErrAttrKey, tt.err)

			var entry map[string]interface{}
			require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
			if tt.wantType == "" {
				assert.NotContains(t, entry, ErrorTypeKey)
				assert.NotContains(t, entry, StacktraceAttrKey)
				return
			}
			assert.Equal(t, tt.wantType, entry[ErrorTypeKey])
			assert.NotEmpty(t, entry[StacktraceAttrKey])
		})
	}
}

func TestNewSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.NewJSONHandler(&buf, nil)).With(RunIDKey, "run-1")
	logger.Info("hello")
	assert.Contains(t, buf.String(), `"run.id":"run-1"`)
}

func TestSetup(t *testing.T) {
	defer SetProvider(NewZerologProvider(NewConsoleZerolog(&bytes.Buffer{}), LevelWarn))
	defer errors.SetZerologWarnFunc(nil)

	var buf bytes.Buffer
	require.NoError(t, Setup(Config{Level: "info", Format: FormatConsole, Output: &buf}))
	GetLoggerWithName("cli").Info("Training decision tree", SamplesKey, 3)
	assert.Contains(t, buf.String(), "Training decision tree")
	assert.Contains(t, buf.String(), "component=cli")

	buf.Reset()
	errors.Warn(errors.NewUndefinedMetricWarning("recall", "no true samples", 0))
	assert.Contains(t, buf.String(), "UndefinedMetricWarning")

	buf.Reset()
	require.NoError(t, Setup(Config{Level: "debug", Format: FormatJSON, Output: &buf}))
	GetLogger().Debug("json record")
	assert.Contains(t, buf.String(), `"message":"json record"`)

	err := Setup(Config{Level: "loud"})
	var valErr *errors.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "log_level", valErr.ParamName)

	err = Setup(Config{Level: "info", Format: "xml"})
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "log_format", valErr.ParamName)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"", LevelInfo},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "UNKNOWN", Level(3).String())
}

// TestLoggerProviderIntegration tests the LoggerProvider interface
func TestLoggerProviderIntegration(t *testing.T) {
	provider, buffer := NewTestLoggerProvider(LevelDebug)

	provider.GetLogger().Info("provider test message")
	provider.GetLoggerWithName("test-component").Info("named logger message")

	out := buffer.String()
	assert.Contains(t, out, "provider test message")
	assert.Contains(t, out, "named logger message")
	assert.True(t, provider.Logger().ContainsField(ComponentKey, "test-component"))
}

// TestConcurrentLogging tests thread safety of logging
func TestConcurrentLogging(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)

	const goroutines, perGoroutine = 4, 5
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				testLogger.Info(fmt.Sprintf("goroutine %d message %d", id, j), "goroutine_id", id)
			}
		}(i)
	}
	wg.Wait()

	entries, err := testLogger.GetLogEntries()
	require.NoError(t, err)
	assert.Len(t, entries, goroutines*perGoroutine)
}

// BenchmarkLogging benchmarks logging performance
func BenchmarkLogging(b *testing.B) {
	testLogger, _ := NewTestLogger(LevelInfo)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		testLogger.Info("benchmark message",
			"iteration", i,
			OperationKey, OperationPredict,
			SamplesKey, 1000,
		)
	}
}
