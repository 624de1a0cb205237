package app

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SESSION_TTL_SECONDS", "")
	t.Setenv("SEEN_THROTTLE_SECONDS", "")
	t.Setenv("SEED_COURSES", "")

	cfg := loadConfig()
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("SessionTTL = %v, want 24h", cfg.SessionTTL)
	}
	if cfg.SeenThrottle != 5*time.Minute {
		t.Fatalf("SeenThrottle = %v, want 5m", cfg.SeenThrottle)
	}
	if len(cfg.SeedCourses) != 5 {
		t.Fatalf("SeedCourses = %v, want the 5 defaults", cfg.SeedCourses)
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("SESSION_TTL_SECONDS", "60")
	t.Setenv("SEEN_THROTTLE_SECONDS", "120")
	t.Setenv("SEED_COURSES", "Graphic Design, Photography")

	cfg := loadConfig()
	if cfg.SessionTTL != time.Minute {
		t.Fatalf("SessionTTL = %v, want 1m", cfg.SessionTTL)
	}
	if cfg.SeenThrottle != 2*time.Minute {
		t.Fatalf("SeenThrottle = %v, want 2m", cfg.SeenThrottle)
	}
	if len(cfg.SeedCourses) != 2 || cfg.SeedCourses[1] != "Photography" {
		t.Fatalf("SeedCourses = %v", cfg.SeedCourses)
	}
}
