package audio

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func TestFileDeviceReplaysPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, []byte("RIFFdata"), 0o644); err != nil {
		t.Fatal(err)
	}

	stream, err := FileDevice{Path: path}.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer stream.Close()

	got, err := stream.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if string(got) != "RIFFdata" {
		t.Fatalf("payload = %q", got)
	}
}

func TestFileDeviceMissingFileIsUnavailable(t *testing.T) {
	_, err := FileDevice{Path: filepath.Join(t.TempDir(), "nope.wav")}.Open(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestFileDeviceEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	stream, err := FileDevice{Path: path}.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := stream.Finish(); !errors.Is(err, ErrEmpty) {
		t.Fatalf("err = %v, want ErrEmpty", err)
	}
	if err := stream.Close(); err != nil {
		t.Fatal(err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestCommandDeviceMissingBinary(t *testing.T) {
	d := NewCommandDevice([]string{"taskvoice-no-such-recorder"})
	if _, err := d.Open(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestCommandDeviceCollectsStdoutUntilInterrupted(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	d := NewCommandDevice([]string{"sh", "-c", "printf RIFFdata; exec sleep 30"})
	stream, err := d.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer stream.Close()
	// Give the shell time to write before it is interrupted.
	time.Sleep(300 * time.Millisecond)

	got, err := stream.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if string(got) != "RIFFdata" {
		t.Fatalf("payload = %q", got)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("Close after Finish: %v", err)
	}
}

func TestCommandDeviceFailedRecorder(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	stream, err := NewCommandDevice([]string{"sh", "-c", "exit 3"}).Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer stream.Close()
	if _, err := stream.Finish(); err == nil {
		t.Fatal("expected an error from a recorder that produced nothing")
	}
}

func TestNewCommandDeviceDefaults(t *testing.T) {
	d := NewCommandDevice(nil)
	if len(d.Args) == 0 || d.Args[0] != "arecord" {
		t.Fatalf("args = %v", d.Args)
	}
}
