package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Navigation.ArrivalThresholdMeters != 20 {
		t.Errorf("ArrivalThresholdMeters = %v, want 20", cfg.Navigation.ArrivalThresholdMeters)
	}
	if cfg.Navigation.LocateTimeout != 10*time.Second {
		t.Errorf("LocateTimeout = %v, want 10s", cfg.Navigation.LocateTimeout)
	}
	if cfg.Directions.BaseURL != "https://api.openrouteservice.org" {
		t.Errorf("Directions.BaseURL = %q", cfg.Directions.BaseURL)
	}
	if cfg.Directions.CacheTTL != 10*time.Minute {
		t.Errorf("Directions.CacheTTL = %v, want 10m", cfg.Directions.CacheTTL)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("NAVIGATION_ARRIVAL_THRESHOLD_METERS", "35.5")
	t.Setenv("DIRECTIONS_TIMEOUT", "3s")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("NEW_RELIC_ENABLED", "true")
	t.Setenv("DB_NAME", "museus")

	cfg := Load()

	if cfg.Navigation.ArrivalThresholdMeters != 35.5 {
		t.Errorf("ArrivalThresholdMeters = %v, want 35.5", cfg.Navigation.ArrivalThresholdMeters)
	}
	if cfg.Directions.Timeout != 3*time.Second {
		t.Errorf("Directions.Timeout = %v, want 3s", cfg.Directions.Timeout)
	}
	if cfg.Redis.DB != 2 || !cfg.NewRelic.Enabled {
		t.Errorf("unexpected redis/new relic config: %+v %+v", cfg.Redis, cfg.NewRelic)
	}
	if !strings.Contains(cfg.Database.DSN(), "dbname=museus") {
		t.Errorf("DSN() = %q", cfg.Database.DSN())
	}
}

func TestLoad_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("NAVIGATION_ARRIVAL_THRESHOLD_METERS", "twenty")
	t.Setenv("NAVIGATION_LOCATE_TIMEOUT", "soon")

	cfg := Load()

	if cfg.Navigation.ArrivalThresholdMeters != 20 || cfg.Navigation.LocateTimeout != 10*time.Second {
		t.Errorf("expected defaults for malformed values, got %+v", cfg.Navigation)
	}
}
