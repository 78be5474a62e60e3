package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Levels(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":  zapcore.DebugLevel,
		" WARN ": zapcore.WarnLevel,
		"error":  zapcore.ErrorLevel,
		"chatty": zapcore.InfoLevel,
	}
	for in, want := range cases {
		log, err := NewLogger(in)
		if err != nil {
			t.Fatalf("NewLogger(%q) failed: %v", in, err)
		}
		if !log.Core().Enabled(want) || (want > zapcore.DebugLevel && log.Core().Enabled(want-1)) {
			t.Errorf("NewLogger(%q): expected level %s", in, want)
		}
	}
}

func TestNewLogger_EnvFallback(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	log, err := NewLogger("")
	if err != nil {
		t.Fatal(err)
	}
	if log.Core().Enabled(zapcore.WarnLevel) {
		t.Errorf("expected LOG_LEVEL=error to disable warn")
	}
}
