package memory

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.HighWaterMark >= cfg.CriticalWaterMark {
		t.Errorf("high water mark %v should be below critical %v", cfg.HighWaterMark, cfg.CriticalWaterMark)
	}
	if cfg.CheckInterval <= 0 {
		t.Errorf("check interval must be positive, got %v", cfg.CheckInterval)
	}
}

func TestMonitorNoLimit(t *testing.T) {
	m := NewMonitor(Config{
		MemoryLimitBytes:  0,
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     time.Millisecond,
	})
	// Only meaningful when GOMEMLIMIT is unset in the test environment,
	// but these must never block or panic either way.
	if m.ShouldThrottle() && m.limit == 0 {
		t.Error("ShouldThrottle() should be false without a limit")
	}
	if !m.WaitIfPaused() {
		t.Error("WaitIfPaused() should return immediately when not paused")
	}
	m.Stop()
}

func TestMonitorStats(t *testing.T) {
	m := NewMonitor(Config{
		MemoryLimitBytes:  1 << 30,
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     time.Hour,
	})
	defer m.Stop()

	m.checkMemory()

	current, limit, usage := m.GetStats()
	if current <= 0 {
		t.Errorf("current should be positive after a sample, got %d", current)
	}
	if limit != 1<<30 {
		t.Errorf("limit = %d, want %d", limit, int64(1<<30))
	}
	if usage <= 0 || usage >= 1 {
		t.Errorf("usage ratio %v out of expected range for a test process", usage)
	}
	if m.IsPaused() {
		t.Error("test process should not hit the critical water mark")
	}
}

func TestConfigureFromEnvUnset(t *testing.T) {
	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "")

	result := ConfigureFromEnv()
	if result.Configured {
		t.Error("nothing set: should not configure")
	}
	if result.Source != "none" {
		t.Errorf("source = %q, want %q", result.Source, "none")
	}
}

func TestConfigureFromEnvMemoryLimit(t *testing.T) {
	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "1073741824")
	t.Setenv("MEMORY_RATIO", "0.5")

	result := ConfigureFromEnv()
	if !result.Configured {
		t.Fatal("expected configuration from MEMORY_LIMIT")
	}
	if result.Source != "MEMORY_LIMIT" {
		t.Errorf("source = %q, want MEMORY_LIMIT", result.Source)
	}
	if result.GoMemLimit != 536870912 {
		t.Errorf("GoMemLimit = %d, want 536870912", result.GoMemLimit)
	}
}

func TestConfigureFromEnvBadValues(t *testing.T) {
	t.Setenv("GOMEMLIMIT", "")

	t.Run("UnparseableLimit", func(t *testing.T) {
		t.Setenv("MEMORY_LIMIT", "not-a-number")
		if result := ConfigureFromEnv(); result.Configured {
			t.Error("unparseable MEMORY_LIMIT should not configure")
		}
	})

	t.Run("RatioOutOfRange", func(t *testing.T) {
		t.Setenv("MEMORY_LIMIT", "1000000")
		t.Setenv("MEMORY_RATIO", "1.5")
		result := ConfigureFromEnv()
		if !result.Configured {
			t.Fatal("expected configuration despite bad ratio")
		}
		if result.Ratio != DefaultMemoryRatio {
			t.Errorf("ratio = %v, want default %v", result.Ratio, DefaultMemoryRatio)
		}
	})
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in       int64
		expected string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{1536 * 1024, "1.5 MiB"},
		{1 << 30, "1.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.expected {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}
