package logger

import (
	"context"
	"log/slog"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	l := Get()
	if l == nil {
		t.Fatal("logger is nil after initialization")
	}

	// Logging must not panic with or without fields.
	ctx := context.Background()
	l.Info(ctx, "info message")
	l.Warn(ctx, "warn message", String("key", "value"))
	l.Error(ctx, "error message", Int("count", 3), Float64("ratio", 0.5))
	l.Debug(ctx, "debug message", Any("payload", map[string]string{"a": "b"}))
}

func TestNamedLogger(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	named := Named("sheets")
	if named == nil {
		t.Fatal("named logger is nil")
	}
	named.Info(context.Background(), "named message", String("k", "v"))
}

func TestSetLevelString(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	cases := []struct {
		input   string
		wantErr bool
	}{
		{"debug", false},
		{"info", false},
		{"", false},
		{"WARN", false},
		{"warning", false},
		{"error", false},
		{" Error ", false},
		{"verbose", true},
	}

	for _, tc := range cases {
		err := SetLevelString(tc.input)
		if tc.wantErr && err == nil {
			t.Errorf("SetLevelString(%q) expected error, got nil", tc.input)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("SetLevelString(%q) unexpected error: %v", tc.input, err)
		}
	}

	// Restore default.
	SetLevel(slog.LevelInfo)
}
