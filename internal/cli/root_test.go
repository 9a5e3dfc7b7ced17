package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCLI executes the root command against dir and returns combined output.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--data-dir", dir}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	for _, name := range []string{"init", "status", "select", "handoff", "configure", "switch", "boards", "select-board", "send", "record", "log", "clean"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil {
			t.Fatalf("root.Find(%s) failed: %v", name, err)
		}
		if cmd.Name() != name {
			t.Fatalf("resolved to %q, want %q", cmd.Name(), name)
		}
	}
}

func TestFieldFlagsRepeatable(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	for _, name := range []string{"configure", "handoff"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil {
			t.Fatalf("root.Find(%s) failed: %v", name, err)
		}
		if cmd.Flags().Lookup("field") == nil {
			t.Fatalf("%s has no --field flag", name)
		}
	}
	if root.PersistentFlags().Lookup("data-dir") == nil {
		t.Fatal("--data-dir is not a persistent flag")
	}
}

func TestInitWritesConfigOnce(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, dir, "init", "--gateway", "http://10.0.0.5/voice")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "Initialized taskvoice") {
		t.Fatalf("unexpected output: %s", out)
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if !strings.Contains(string(data), "http://10.0.0.5/voice") {
		t.Fatalf("gateway URL not saved:\n%s", data)
	}

	if _, err := runCLI(t, dir, "init"); err == nil {
		t.Fatal("second init should refuse to overwrite")
	}
	if _, err := runCLI(t, dir, "init", "--force"); err != nil {
		t.Fatalf("init --force: %v", err)
	}
}

func TestParseFields(t *testing.T) {
	got, err := parseFields([]string{"apiKey=abc", "workspaceId=a=b"})
	if err != nil {
		t.Fatalf("parseFields: %v", err)
	}
	if got["apiKey"] != "abc" || got["workspaceId"] != "a=b" {
		t.Fatalf("got %v", got)
	}
	for _, bad := range []string{"novalue", "=x"} {
		if _, err := parseFields([]string{bad}); err == nil {
			t.Errorf("parseFields(%q) should fail", bad)
		}
	}
}

func TestMask(t *testing.T) {
	tests := map[string]string{
		"":           "",
		"abc":        "***",
		"secret-123": "******-123",
	}
	for in, want := range tests {
		if got := mask(in); got != want {
			t.Errorf("mask(%q) = %q, want %q", in, got, want)
		}
	}
}
