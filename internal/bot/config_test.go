package bot

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
  admin_id: 777
rooms:
  allowed:
    -100200300: 42
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Session.IdleTimeoutSeconds != defaultIdleTimeoutSeconds {
		t.Errorf("idle default = %d", cfg.Session.IdleTimeoutSeconds)
	}
	if cfg.Session.SweepIntervalSeconds != defaultSweepIntervalSecond {
		t.Errorf("sweep default = %d", cfg.Session.SweepIntervalSeconds)
	}
	if cfg.News.MaxItems != defaultNewsMaxItems {
		t.Errorf("news max default = %d", cfg.News.MaxItems)
	}
	if got := cfg.Rooms.Allowed[-100200300]; got != 42 {
		t.Errorf("allowed thread = %d, want 42", got)
	}
	if cfg.CoreConfig().Telegram.AdminID != 777 {
		t.Errorf("admin id = %d", cfg.CoreConfig().Telegram.AdminID)
	}
}

func TestLoadRejectsMissingCredentials(t *testing.T) {
	if _, err := Load(writeConfig(t, "telegram:\n  token: \"123:abc\"\n")); err == nil {
		t.Error("missing operator chat id must fail startup")
	}
	if _, err := Load(writeConfig(t, "telegram:\n  admin_id: 777\n")); err == nil {
		t.Error("missing token must fail startup")
	}
}

func TestNormalizeRejectsDatabaseRoomsWithoutDatabase(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
  admin_id: 777
rooms:
  use_database: true
`)
	if _, err := Load(path); err == nil {
		t.Error("rooms.use_database without database config must fail")
	}
}
