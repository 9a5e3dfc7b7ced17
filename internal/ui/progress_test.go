package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/taskvoice/taskvoice/internal/recorder"
)

func TestPlainProgressPrintsTransitionsOnly(t *testing.T) {
	var out bytes.Buffer
	p := NewProgress(&out, "clip.wav")

	p.Update(recorder.Recording, 0)
	p.Update(recorder.Recording, time.Second)
	p.Update(recorder.Recording, 2*time.Second)
	p.Update(recorder.Processing, 2*time.Second)
	p.Update(recorder.Idle, 2*time.Second)
	p.Finish("Heard: buy milk")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	want := []string{
		"[RECORDING] clip.wav",
		"[PROCESSING] clip.wav (2s of audio)",
		"[DONE] clip.wav",
		"Heard: buy milk",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), out.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
	if strings.Contains(out.String(), "\033[") {
		t.Fatalf("unexpected ANSI sequences in non-TTY output:\n%s", out.String())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{1500 * time.Millisecond, "2s"},
		{75 * time.Second, "1m15s"},
		{3723 * time.Second, "1h2m3s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
