package logger

import (
	"log/slog"
	"testing"

	coreconfig "github.com/m3rciful/docbot/core/config"
)

func TestResolveSettings(t *testing.T) {
	s := resolve(nil)
	if s.format != formatJSON || s.level != slog.LevelInfo || s.sampleDen != 50 {
		t.Fatalf("unexpected defaults: %+v", s)
	}

	cfg := &coreconfig.Config{Logging: coreconfig.LoggingConfig{
		Level:       "WARN",
		Profile:     "Dev",
		KeysOrder:   "event, ,session_key",
		DebugSample: "0",
		Dir:         " logs ",
		ErrorsFile:  "errors.log",
	}}
	s = resolve(cfg)
	if s.format != formatKV {
		t.Errorf("dev profile should default to kv, got %s", s.format)
	}
	if s.level != slog.LevelWarn {
		t.Errorf("level = %v", s.level)
	}
	if len(s.order) != 2 || s.order[1] != "session_key" {
		t.Errorf("order = %v", s.order)
	}
	if s.sampleNum != 0 || s.sampleDen != 0 {
		t.Errorf("sample 0 should disable sampling, got %d/%d", s.sampleNum, s.sampleDen)
	}
	if s.dir != "logs" || s.errorsFile != "errors.log" {
		t.Errorf("files = %q %q", s.dir, s.errorsFile)
	}

	cfg.Logging.Format = "json"
	if resolve(cfg).format != formatJSON {
		t.Error("explicit json should win over profile")
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(2, 5)
	passed := 0
	for i := 0; i < 20; i++ {
		if s.Allow() {
			passed++
		}
	}
	if passed != 8 {
		t.Fatalf("passed = %d, want 8", passed)
	}

	s.Set(0, 0)
	for i := 0; i < 3; i++ {
		if !s.Allow() {
			t.Fatal("disabled sampler must allow everything")
		}
	}
}

func TestParseRatioSpec(t *testing.T) {
	cases := map[string][2]int{
		"1/50":  {1, 50},
		" 3/4 ": {3, 4},
		"10":    {1, 10},
		"0":     {0, 0},
		"x/2":   {0, 0},
		"":      {0, 0},
	}
	for in, want := range cases {
		num, den := parseRatioSpec(in)
		if num != want[0] || den != want[1] {
			t.Errorf("parseRatioSpec(%q) = %d/%d, want %d/%d", in, num, den, want[0], want[1])
		}
	}
}

func TestLogEventBeforeInitIsNoop(t *testing.T) {
	if L != nil {
		t.Skip("global logger already initialised")
	}
	Info(Background(), "app", "noop", slog.String("k", "v"))
	LogEvent(Background(), nil, slog.LevelError, "noop")
}
