package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm/logger"
)

func newBufferedLogger(buf *bytes.Buffer) *Logger {
	h := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &Logger{Logger: slog.New(h)}
}

func TestGormLoggerDefaultLevelFiltersInfo(t *testing.T) {
	var buf bytes.Buffer
	gl := NewGormLogger(newBufferedLogger(&buf), 200*time.Millisecond)

	gl.Info(context.Background(), "established %d connections", 5)
	if buf.Len() != 0 {
		t.Errorf("info must be filtered at default warn level, got %s", buf.String())
	}

	gl.Warn(context.Background(), "connection pool exhausted")
	if !strings.Contains(buf.String(), "connection pool exhausted") {
		t.Errorf("warn must pass at default level, got %s", buf.String())
	}
}

func TestGormLoggerSilentDropsTraces(t *testing.T) {
	var buf bytes.Buffer
	gl := NewGormLogger(newBufferedLogger(&buf), time.Millisecond).LogMode(logger.Silent)

	gl.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
		return "SELECT 1", 1
	}, nil)
	if buf.Len() != 0 {
		t.Errorf("silent mode must drop traces, got %s", buf.String())
	}
}

func TestGormLoggerSlowQueryAtWarnLevel(t *testing.T) {
	var buf bytes.Buffer
	gl := NewGormLogger(newBufferedLogger(&buf), time.Millisecond)

	gl.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
		return "SELECT * FROM blend_runs", 10
	}, nil)
	if !strings.Contains(buf.String(), "slow_query") {
		t.Errorf("expected slow query warning, got %s", buf.String())
	}
}

func TestGormLoggerLogModeReturnsCopy(t *testing.T) {
	var buf bytes.Buffer
	gl := NewGormLogger(newBufferedLogger(&buf), time.Millisecond)

	_ = gl.LogMode(logger.Silent)
	if gl.Level != logger.Warn {
		t.Errorf("LogMode must not mutate the receiver, level = %v", gl.Level)
	}
}
