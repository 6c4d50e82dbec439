package logging

import (
	"context"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.name); got != tt.want {
			t.Errorf("ParseLevel(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if got := ParseFormat("json"); got != FormatJSON {
		t.Errorf("ParseFormat(json) = %d, want FormatJSON", got)
	}
	if got := ParseFormat("text"); got != FormatText {
		t.Errorf("ParseFormat(text) = %d, want FormatText", got)
	}
}

func TestRunIDContext(t *testing.T) {
	ctx := context.Background()
	if got := GetRunID(ctx); got != "" {
		t.Errorf("GetRunID(empty) = %q, want empty", got)
	}
	ctx = WithRunID(ctx, "run-42")
	if got := GetRunID(ctx); got != "run-42" {
		t.Errorf("GetRunID() = %q, want run-42", got)
	}
}

func TestGetLoggerNotNil(t *testing.T) {
	if GetLogger() == nil {
		t.Fatal("GetLogger() = nil")
	}
	if LoggerFromContext(context.Background()) == nil {
		t.Fatal("LoggerFromContext() = nil")
	}
}
