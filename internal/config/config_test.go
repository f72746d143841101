package config

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.LogLevel != "info" {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}
	if cfg.Tickets.DeleteDelaySeconds != 5 || cfg.Tickets.HistoryLimit != 5000 {
		t.Fatalf("unexpected ticket defaults: %+v", cfg.Tickets)
	}
	if cfg.EmbedColors.Success == 0 || cfg.EmbedColors.Error == 0 || cfg.EmbedColors.Neutral == 0 {
		t.Fatalf("embed colors should have defaults")
	}
}

func TestEnvBool(t *testing.T) {
	t.Setenv("WARDEN_TEST_BOOL", "yes")
	if !envBool("WARDEN_TEST_BOOL", false) {
		t.Fatalf("yes should parse as true")
	}
	t.Setenv("WARDEN_TEST_BOOL", "nope")
	if envBool("WARDEN_TEST_BOOL", true) {
		t.Fatalf("unknown value should parse as false")
	}
	if !envBool("WARDEN_TEST_BOOL_MISSING", true) {
		t.Fatalf("missing env should keep fallback")
	}
}

func TestBuildLoggerLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		logger, err := BuildLogger(level)
		if err != nil {
			t.Fatalf("BuildLogger(%q): %v", level, err)
		}
		_ = logger.Sync()
	}
}
