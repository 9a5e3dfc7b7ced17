// Package audio acquires a capture device and produces a finalized audio
// payload.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"
)

// DefaultCommand captures 16-bit mono WAV to stdout.
var DefaultCommand = []string{"arecord", "-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-t", "wav", "-"}

const stopGrace = 3 * time.Second

var (
	// ErrUnavailable is returned when no capture device can be acquired.
	ErrUnavailable = errors.New("audio device unavailable")
	// ErrEmpty is returned by Finish when nothing was captured.
	ErrEmpty = errors.New("no audio captured")
)

// Device hands out exclusive capture streams.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is one acquisition of a Device. Close releases it and is safe to
// call any number of times, before or after Finish.
type Stream interface {
	Finish() ([]byte, error)
	Close() error
}

// CommandDevice captures by running an external recorder that writes the
// payload to stdout until interrupted.
type CommandDevice struct {
	Args []string
}

// NewCommandDevice returns a device for args, or DefaultCommand when empty.
func NewCommandDevice(args []string) *CommandDevice {
	if len(args) == 0 {
		args = DefaultCommand
	}
	return &CommandDevice{Args: append([]string(nil), args...)}
}

// Open starts the recorder process.
func (d *CommandDevice) Open(ctx context.Context) (Stream, error) {
	if len(d.Args) == 0 {
		return nil, fmt.Errorf("%w: no capture command configured", ErrUnavailable)
	}
	if _, err := exec.LookPath(d.Args[0]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// The process outlives the caller's ctx; Close is what stops it.
	cmd := exec.Command(d.Args[0], d.Args[1:]...)
	s := &commandStream{cmd: cmd, done: make(chan struct{})}
	cmd.Stdout = &s.stdout
	cmd.Stderr = &s.stderr

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: starting %s: %v", ErrUnavailable, d.Args[0], err)
	}
	go func() {
		s.waitErr = cmd.Wait()
		close(s.done)
	}()
	return s, nil
}

type commandStream struct {
	cmd    *exec.Cmd
	stdout bytes.Buffer
	stderr bytes.Buffer

	done    chan struct{}
	waitErr error

	once     sync.Once
	stopped  bool
	closeErr error
}

func (s *commandStream) stop() error {
	s.once.Do(func() {
		select {
		case <-s.done:
			return
		default:
		}
		s.stopped = true
		_ = s.cmd.Process.Signal(os.Interrupt)
		select {
		case <-s.done:
		case <-time.After(stopGrace):
			_ = s.cmd.Process.Kill()
			<-s.done
			s.closeErr = errors.New("capture command did not stop; killed")
		}
	})
	return s.closeErr
}

// Finish stops the recorder and returns everything it wrote.
func (s *commandStream) Finish() ([]byte, error) {
	if err := s.stop(); err != nil {
		return nil, err
	}
	// An exit caused by our interrupt is the normal way out.
	if s.waitErr != nil && !s.stopped {
		return nil, fmt.Errorf("capture command failed: %w\nstderr: %s", s.waitErr, s.stderr.String())
	}
	if s.stdout.Len() == 0 {
		return nil, ErrEmpty
	}
	return bytes.Clone(s.stdout.Bytes()), nil
}

func (s *commandStream) Close() error {
	return s.stop()
}

// FileDevice replays a prerecorded file as if it had just been captured.
type FileDevice struct {
	Path string
}

// Open reads the file up front so a missing file fails acquisition.
func (d FileDevice) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &bufferStream{data: data}, nil
}

type bufferStream struct {
	mu     sync.Mutex
	data   []byte
	closed bool
}

func (s *bufferStream) Finish() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("stream already released")
	}
	if len(s.data) == 0 {
		return nil, ErrEmpty
	}
	return s.data, nil
}

func (s *bufferStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
