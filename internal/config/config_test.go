package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_YAMLThenEnv_EnvWins(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: "9000"
jwt:
  secret: from-file
scheduling:
  timezone: Europe/Istanbul
  teaching_hour_factor: 0.5
`)
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("SCHEDULING_LOCK_BACKEND", "redis")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != "9100" {
		t.Errorf("expected env port 9100, got %s", cfg.Server.Port)
	}
	if cfg.JWT.Secret != "from-file" {
		t.Errorf("expected secret from file, got %q", cfg.JWT.Secret)
	}
	if cfg.Scheduling.TeachingHourFactor != 0.5 {
		t.Errorf("expected factor 0.5, got %v", cfg.Scheduling.TeachingHourFactor)
	}
	if cfg.Scheduling.LockBackend != LockBackendRedis {
		t.Errorf("expected redis lock backend, got %s", cfg.Scheduling.LockBackend)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins: %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Location().String() != "Europe/Istanbul" {
		t.Errorf("unexpected location %s", cfg.Location())
	}
}

func TestLoadConfig_MissingFile_UsesDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Scheduling.TeachingHourFactor != 0.75 {
		t.Errorf("expected default factor 0.75, got %v", cfg.Scheduling.TeachingHourFactor)
	}
	if cfg.Scheduling.LockBackend != LockBackendPostgres {
		t.Errorf("expected postgres lock backend by default, got %s", cfg.Scheduling.LockBackend)
	}
	if cfg.IsProduction() {
		t.Error("default mode must not be production")
	}
}

func TestLoadConfig_InvalidValues_ReturnError(t *testing.T) {
	cases := map[string]string{
		"missing secret":   "jwt:\n  secret: \"\"\n",
		"bad factor":       "jwt:\n  secret: x\nscheduling:\n  teaching_hour_factor: 1.5\n",
		"bad lock backend": "jwt:\n  secret: x\nscheduling:\n  lock_backend: etcd\n",
		"bad timezone":     "jwt:\n  secret: x\nscheduling:\n  timezone: Mars/Olympus\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfigFile(t, content)); err == nil {
				t.Fatal("expected configuration error")
			}
		})
	}
}

func TestLoadConfig_MalformedEnvInt_ReturnsError(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("REDIS_DB", "one")

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for malformed REDIS_DB")
	}
}

func TestLoadConfig_LockBackendIsNormalized(t *testing.T) {
	path := writeConfigFile(t, `
jwt:
  secret: s3cret
scheduling:
  lock_backend: " Redis "
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Scheduling.LockBackend != LockBackendRedis {
		t.Errorf("expected %q, got %q", LockBackendRedis, cfg.Scheduling.LockBackend)
	}
}
