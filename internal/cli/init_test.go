package cli

import (
	"os"
	"path/filepath"
	"testing"

	"dompet/internal/config"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(prev) })
}

func TestLoadConfigReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	env := "PORT=9191\nDATA_BACKEND=memory\nAUTH_MODE=header\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)
	for _, k := range []string{"PORT", "DATA_BACKEND", "AUTH_MODE"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "9191" || cfg.DataBackend != config.BackendMemory {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadConfigExtraValidation(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("AUTH_MODE", "header")
	t.Setenv("AMQP_URL", "")

	cfg, err := LoadConfig((*config.Config).ValidateWorker)
	if err == nil {
		t.Fatal("worker validation should fail without AMQP_URL")
	}
	if cfg == nil {
		t.Error("config should be returned alongside the error")
	}
}
