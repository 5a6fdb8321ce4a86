package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	logger, err := New(false, "warn")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info should be disabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Fatalf("warn should be enabled")
	}

	dev, err := New(true, "")
	if err != nil {
		t.Fatalf("new dev logger: %v", err)
	}
	if !dev.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("expected info default level")
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New(false, "loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
