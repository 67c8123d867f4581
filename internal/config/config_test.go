package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("ADMIN_PASSWORD", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
	if cfg.AdminPassword != "" {
		t.Fatalf("expected empty ADMIN_PASSWORD when unset, got %q", cfg.AdminPassword)
	}
}

func TestLoadClampsTuningValues(t *testing.T) {
	t.Setenv("COGS_RATIO", "1.7")
	t.Setenv("LOW_STOCK_THRESHOLD", "-3")
	t.Setenv("STATS_CACHE_TTL_SECONDS", "nonsense")

	cfg := Load()
	if cfg.COGSRatio != 0.6 {
		t.Fatalf("expected COGS_RATIO fallback 0.6, got %v", cfg.COGSRatio)
	}
	if cfg.LowStockThreshold != 10 {
		t.Fatalf("expected LOW_STOCK_THRESHOLD fallback 10, got %d", cfg.LowStockThreshold)
	}
	if cfg.StatsCacheTTLSeconds != 60 {
		t.Fatalf("expected STATS_CACHE_TTL_SECONDS fallback 60, got %d", cfg.StatsCacheTTLSeconds)
	}
}
