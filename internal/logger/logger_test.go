package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewCarriesServiceField(t *testing.T) {
	log := New("masareef-bot")
	if log.GetLevel() == zerolog.Disabled {
		t.Error("Expected logger to be enabled")
	}
}

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		raw  string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"nonsense", zerolog.InfoLevel},
	}
	for _, tc := range tests {
		t.Setenv("LOG_LEVEL", tc.raw)
		if got := levelFromEnv(); got != tc.want {
			t.Errorf("levelFromEnv(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Msg("test message")

	if !strings.Contains(buf.String(), "test message") {
		t.Errorf("Expected output to contain 'test message', got: %s", buf.String())
	}
}

func TestWithContextRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	testLog := NewWithWriter(buf)
	ctx := WithContext(context.Background(), testLog)

	got := FromContext(ctx)
	got.Info().Msg("round trip")

	if !strings.Contains(buf.String(), "round trip") {
		t.Error("Expected log output from retrieved logger")
	}
}

func TestFromContextDefaultLogger(t *testing.T) {
	log := FromContext(context.Background())
	if log.GetLevel() == zerolog.Disabled {
		t.Error("Expected default logger to be enabled")
	}
}

func TestWithConversation(t *testing.T) {
	buf := &bytes.Buffer{}
	log := WithConversation(NewWithWriter(buf), 42)

	log.Info().Msg("tagged")

	out := buf.String()
	if !strings.Contains(out, "conversation_id") || !strings.Contains(out, "42") {
		t.Errorf("Expected conversation_id field, got: %s", out)
	}
}
