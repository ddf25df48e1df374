package common

import "testing"

func TestInitLoggerHonorsOutputConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Logging.Level = "debug"
	cfg.Logging.Output = []string{"stdout"}

	logger := InitLogger(cfg)
	if logger == nil {
		t.Fatal("InitLogger returned nil")
	}
	logger.Debug().Str("check", "ok").Msg("logger configured")
}

func TestGetLoggerReturnsSameInstance(t *testing.T) {
	first := GetLogger()
	second := GetLogger()
	if first == nil || first != second {
		t.Fatal("GetLogger must return one shared instance")
	}
}
