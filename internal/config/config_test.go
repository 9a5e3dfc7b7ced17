package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigYAMLRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Gateway.URL = "https://voice.example.com/api"
	cfg.Audio.Command = []string{"sox", "-d", "-t", "wav", "-"}
	cfg.Journal.Enabled = false

	if err := WriteConfig(tmpDir, cfg); err != nil {
		t.Fatalf("WriteConfig failed: %v", err)
	}

	loaded, err := ReadConfig(tmpDir)
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}

	if loaded.Gateway.URL != "https://voice.example.com/api" {
		t.Errorf("Gateway.URL: got %q", loaded.Gateway.URL)
	}
	if len(loaded.Audio.Command) != 5 || loaded.Audio.Command[0] != "sox" {
		t.Errorf("Audio.Command: got %v", loaded.Audio.Command)
	}
	if loaded.Journal.Enabled {
		t.Error("Journal.Enabled: got true, want false")
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	partial := "version: 1\ngateway:\n  url: http://10.0.0.2/voice\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte(partial), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := ReadConfig(tmpDir)
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}
	if cfg.Gateway.URL != "http://10.0.0.2/voice" {
		t.Errorf("Gateway.URL: got %q", cfg.Gateway.URL)
	}
	if cfg.Trello.APIBase != "https://api.trello.com" {
		t.Errorf("Trello.APIBase: got %q, want default", cfg.Trello.APIBase)
	}
	if cfg.GatewayTimeout() != 120*time.Second {
		t.Errorf("GatewayTimeout: got %s", cfg.GatewayTimeout())
	}
}

func TestReadConfigMalformed(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte("gateway: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadConfig(tmpDir); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Version != 1 || !cfg.Journal.Enabled || cfg.Journal.MaxAgeDays != 30 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestDataDirPrecedence(t *testing.T) {
	t.Setenv(HomeEnv, "/env/home")

	if got, _ := DataDir("/flag/dir"); got != "/flag/dir" {
		t.Errorf("flag: got %q", got)
	}
	if got, _ := DataDir(""); got != "/env/home" {
		t.Errorf("env: got %q", got)
	}

	t.Setenv(HomeEnv, "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	t.Setenv("HOME", "/home/someone")
	got, err := DataDir("")
	if err != nil {
		t.Fatalf("DataDir: %v", err)
	}
	if filepath.Base(got) != "taskvoice" {
		t.Errorf("default: got %q", got)
	}
}

func TestGatewayTimeoutZeroMeansDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gateway.Timeout = 0
	if cfg.GatewayTimeout() != 0 {
		t.Errorf("GatewayTimeout: got %s, want 0", cfg.GatewayTimeout())
	}
}
