// Package ui provides terminal UI components for the non-interactive commands.
// This file implements the one-line progress display shown while a clip is
// recorded and processed.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/taskvoice/taskvoice/internal/recorder"
)

// Progress redraws a single status line in place on a terminal, and prints
// one line per state change otherwise.
type Progress struct {
	mu          sync.Mutex
	w           io.Writer
	label       string
	isTTY       bool
	drawn       bool
	state       recorder.State
	elapsed     time.Duration
	lastPrinted *recorder.State
}

// NewProgress creates a Progress writing to w.
func NewProgress(w io.Writer, label string) *Progress {
	p := &Progress{w: w, label: label}
	if f, ok := w.(*os.File); ok {
		p.isTTY = term.IsTerminal(int(f.Fd()))
	}
	return p
}

// Update records the recorder's state and re-renders.
func (p *Progress) Update(state recorder.State, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = state
	p.elapsed = elapsed
	p.render()
}

// Finish ends the status line and prints summary when non-empty.
func (p *Progress) Finish(summary string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isTTY && p.drawn {
		// Move cursor past the status line
		fmt.Fprint(p.w, "\n")
	}
	if summary != "" {
		fmt.Fprintln(p.w, summary)
	}
}

func (p *Progress) render() {
	if !p.isTTY {
		p.renderPlain()
		return
	}
	p.renderTTY()
}

// renderTTY overwrites the current line using ANSI escape codes.
func (p *Progress) renderTTY() {
	fmt.Fprintf(p.w, "\r\033[2K  %s %s  %s", statusIcon(p.state), p.label, statusDetail(p.state, p.elapsed))
	p.drawn = true
}

// renderPlain writes non-TTY output (for CI/piping).
// Only prints on state transitions to avoid a line per tick.
func (p *Progress) renderPlain() {
	if p.lastPrinted != nil && *p.lastPrinted == p.state {
		return
	}
	fmt.Fprintln(p.w, formatLinePlain(p.label, p.state, p.elapsed))
	s := p.state
	p.lastPrinted = &s
}

func formatLinePlain(label string, state recorder.State, elapsed time.Duration) string {
	switch state {
	case recorder.Recording:
		return fmt.Sprintf("[RECORDING] %s", label)
	case recorder.Processing:
		return fmt.Sprintf("[PROCESSING] %s (%s of audio)", label, formatDuration(elapsed))
	default:
		return fmt.Sprintf("[DONE] %s", label)
	}
}

// statusIcon returns the icon for a recorder state.
func statusIcon(state recorder.State) string {
	switch state {
	case recorder.Recording:
		return "\033[31m●\033[0m" // red dot
	case recorder.Processing:
		return "\033[33m⏳\033[0m" // yellow hourglass
	default:
		return "\033[32m✅\033[0m" // green checkmark
	}
}

// statusDetail returns the right-side detail text.
func statusDetail(state recorder.State, elapsed time.Duration) string {
	switch state {
	case recorder.Recording:
		return fmt.Sprintf("\033[31m[recording %s, press Enter to stop]\033[0m", formatDuration(elapsed))
	case recorder.Processing:
		return "\033[33m[processing]\033[0m"
	default:
		return "\033[90m[done]\033[0m"
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", h, m, s)
}
