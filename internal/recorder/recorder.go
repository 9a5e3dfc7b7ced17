// Package recorder runs the capture lifecycle: idle, recording, processing
// and back to idle, reporting every step to the activity log.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/taskvoice/taskvoice/internal/audio"
	"github.com/taskvoice/taskvoice/internal/gateway"
	"github.com/taskvoice/taskvoice/internal/log"
	"github.com/taskvoice/taskvoice/internal/resolver"
)

// State is a lifecycle state.
type State int

// Lifecycle states. Idle is both initial and terminal.
const (
	Idle State = iota
	Recording
	Processing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

var (
	// ErrNotConfigured refuses Start while the session has no usable config.
	ErrNotConfigured = errors.New("no platform is configured")
	// ErrInvalidTransition is returned when an action does not apply to the
	// current state.
	ErrInvalidTransition = errors.New("action not available in the current state")
)

// Ticker is the recurring elapsed-time tick.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }

// SessionSource supplies the resolved session at dispatch time.
type SessionSource interface {
	Current() resolver.Session
}

// Option customizes a Recorder.
type Option func(*Recorder)

// WithTicker replaces the wall-clock ticker.
func WithTicker(fn func(time.Duration) Ticker) Option {
	return func(r *Recorder) { r.newTicker = fn }
}

// recording holds everything owned by one Recording state.
type recording struct {
	stream audio.Stream
	ticker Ticker
	quit   chan struct{}
	done   chan struct{}
}

// Recorder is the capture state machine. Transitions are serialized; at
// most one is in flight at a time.
type Recorder struct {
	sessions  SessionSource
	device    audio.Device
	gateway   gateway.Submitter
	sink      log.Sink
	newTicker func(time.Duration) Ticker

	mu       sync.Mutex
	state    State
	busy     bool
	elapsed  time.Duration
	latest   string
	active   *recording
	watchers []func()
}

// New wires a Recorder to its collaborators.
func New(sessions SessionSource, device audio.Device, gw gateway.Submitter, sink log.Sink, opts ...Option) *Recorder {
	r := &Recorder{
		sessions:  sessions,
		device:    device,
		gateway:   gw,
		sink:      sink,
		newTicker: newTimeTicker,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Elapsed returns the length of the current or last recording in whole ticks.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsed
}

// LatestResponse returns the most recent transcript.
func (r *Recorder) LatestResponse() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}

// OnChange registers fn to run after every state or elapsed-time change.
// fn must not block.
func (r *Recorder) OnChange(fn func()) {
	r.mu.Lock()
	r.watchers = append(r.watchers, fn)
	r.mu.Unlock()
}

func (r *Recorder) notify() {
	r.mu.Lock()
	watchers := append([]func(){}, r.watchers...)
	r.mu.Unlock()
	for _, fn := range watchers {
		fn()
	}
}

func (r *Recorder) emit(e log.Entry) {
	if r.sink != nil {
		r.sink.Append(e)
	}
}

// Start acquires the device and begins recording.
func (r *Recorder) Start(ctx context.Context) error {
	if !r.sessions.Current().Configured {
		return ErrNotConfigured
	}

	r.mu.Lock()
	if r.state != Idle || r.busy {
		r.mu.Unlock()
		return ErrInvalidTransition
	}
	r.busy = true
	r.mu.Unlock()

	stream, err := r.device.Open(ctx)
	if err != nil {
		if stream != nil {
			_ = stream.Close()
		}
		r.mu.Lock()
		r.busy = false
		r.mu.Unlock()
		r.emit(log.Error("Could not access the microphone", err))
		return err
	}

	rec := &recording{
		stream: stream,
		ticker: r.newTicker(time.Second),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	r.mu.Lock()
	r.elapsed = 0
	r.active = rec
	r.state = Recording
	r.busy = false
	r.mu.Unlock()

	go r.tick(rec)
	r.emit(log.Info("Recording started"))
	r.notify()
	return nil
}

func (r *Recorder) tick(rec *recording) {
	defer close(rec.done)
	for {
		select {
		case <-rec.quit:
			return
		case <-rec.ticker.C():
			r.mu.Lock()
			stale := r.active != rec
			if !stale {
				r.elapsed += time.Second
			}
			r.mu.Unlock()
			if stale {
				return
			}
			r.notify()
		}
	}
}

// Stop ends the recording, hands the audio and the current configuration
// to the gateway and reports the outcome. It always ends Idle. The gateway
// call ignores cancellation of ctx.
func (r *Recorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.state != Recording || r.busy {
		r.mu.Unlock()
		return ErrInvalidTransition
	}
	rec := r.active
	r.active = nil
	r.busy = true
	r.mu.Unlock()

	close(rec.quit)
	rec.ticker.Stop()
	<-rec.done

	payload, err := rec.stream.Finish()
	if cerr := rec.stream.Close(); cerr != nil && err == nil {
		r.emit(log.Error("Could not release the microphone", cerr))
	}
	if err != nil {
		r.emit(log.Error("Recording failed", err))
		r.finish()
		return err
	}

	r.setState(Processing)
	r.emit(log.Success("Recording stopped; processing"))
	r.emit(log.NewEntry(log.KindVoice, "Voice received", map[string]string{
		"bytes":    strconv.Itoa(len(payload)),
		"duration": r.Elapsed().String(),
	}))

	defer r.finish()

	session := r.sessions.Current()
	body, err := r.gateway.Submit(context.WithoutCancel(ctx), gateway.Request{
		Audio:    payload,
		Platform: session.Platform,
		Config:   session.Config,
	})
	if err != nil {
		r.emit(log.Error("Could not reach the assistant", err))
		return err
	}

	resp, err := gateway.ParseResponse(body)
	if err != nil {
		r.emit(log.Error("The assistant sent a response that could not be read", err))
		return err
	}

	if resp.Transcript != nil {
		r.mu.Lock()
		r.latest = *resp.Transcript
		r.mu.Unlock()
		r.emit(log.NewEntry(log.KindTranscript, "Transcribed: "+*resp.Transcript, nil))
	}
	for _, res := range resp.Results {
		r.emit(resultEntry(res))
	}
	return nil
}

func (r *Recorder) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
	r.notify()
}

func (r *Recorder) finish() {
	r.mu.Lock()
	r.state = Idle
	r.busy = false
	r.mu.Unlock()
	r.notify()
}

// resultEntry renders one gateway result.
func resultEntry(res gateway.Result) log.Entry {
	details := map[string]string{}
	if res.Operation != "" {
		details["operation"] = res.Operation
	}
	if res.Task != "" {
		details["task"] = res.Task
	}

	if !res.Success {
		msg := "Task failed"
		if res.Task != "" {
			msg = fmt.Sprintf("Task failed: %s", res.Task)
		}
		if res.Error != "" {
			details["error"] = res.Error
			msg += " (" + res.Error + ")"
		}
		return log.NewEntry(log.KindError, msg, details)
	}

	msg := "Task " + operationVerb(res.Operation)
	if res.Task != "" {
		msg += ": " + res.Task
	}
	return log.NewEntry(log.KindTask, msg, details)
}

func operationVerb(op string) string {
	switch op {
	case "create":
		return "created"
	case "":
		return "processed"
	default:
		return op
	}
}
