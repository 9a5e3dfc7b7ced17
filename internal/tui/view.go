package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/muesli/reflow/wordwrap"

	"github.com/taskvoice/taskvoice/internal/platform"
	"github.com/taskvoice/taskvoice/internal/recorder"
)

func joinNames(names []string) string {
	return strings.Join(names, ", ")
}

// View renders the active screen.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n\n")

	switch m.screen {
	case ScreenPicker:
		b.WriteString(m.picker.View())
		b.WriteString("\n\n")
		b.WriteString(helpLine(m.keys.Up, m.keys.Down, m.keys.Enter, m.keys.Quit))
	case ScreenCredentials:
		b.WriteString(m.formView())
	case ScreenBoards:
		b.WriteString(m.boardList.View())
		b.WriteString("\n\n")
		b.WriteString(helpLine(m.keys.Enter, m.keys.Escape))
	default:
		b.WriteString(m.recorderView())
	}

	if m.loadingBoards {
		b.WriteString("\n" + m.spinner.View() + " Loading boards...")
	}
	if m.notice != "" {
		b.WriteString("\n" + WarningStyle.Render(m.notice))
	}
	return b.String()
}

func (m *Model) header() string {
	title := TitleStyle.Render("taskvoice")
	s := m.deps.Resolver.Current()
	if s.Platform == platform.None {
		return title
	}
	badge := BadgeStyle.Render(s.Platform.DisplayName())
	if !s.Configured {
		badge += " " + DimStyle.Render("not configured")
	}
	return title + "  " + badge
}

func (m *Model) formView() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s credentials\n\n", m.form.platform.DisplayName())
	for i, name := range m.form.names {
		label := name
		if i == m.form.focus {
			label = SelectedStyle.Render(name)
		}
		fmt.Fprintf(&b, "%s\n%s\n\n", label, m.form.inputs[i].View())
	}
	if m.form.platform == platform.Trello {
		b.WriteString(DimStyle.Render("A board is chosen after your boards are loaded.") + "\n\n")
	}
	b.WriteString(helpLine(m.keys.Next, m.keys.Enter, m.keys.Escape))
	return BoxStyle.Render(b.String())
}

func (m *Model) recorderView() string {
	var b strings.Builder

	switch m.deps.Recorder.State() {
	case recorder.Recording:
		b.WriteString(RecordingStyle.Render("● REC") + " " + formatElapsed(m.deps.Recorder.Elapsed()))
	case recorder.Processing:
		b.WriteString(m.spinner.View() + " Processing...")
	default:
		b.WriteString(DimStyle.Render("Ready. Press space to record."))
	}
	b.WriteString("\n")

	if latest := m.deps.Recorder.LatestResponse(); latest != "" {
		b.WriteString("\n" + VoiceStyle.Render("Heard: ") + wordwrap.String(latest, max(m.width-10, 20)) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(BoxStyle.Render(m.logView.View()))
	b.WriteString("\n")

	bindings := helpLine(m.keys.Record, m.keys.Switch, m.keys.Quit)
	if s := m.deps.Resolver.Current(); s.Platform.SupportsDiscovery() {
		bindings = helpLine(m.keys.Record, m.keys.Boards, m.keys.Switch, m.keys.Quit)
	}
	b.WriteString(StatusBarStyle.Render(bindings))
	return b.String()
}

// refreshLog re-renders the activity entries into the viewport.
func (m *Model) refreshLog() {
	if m.deps.Activity == nil {
		return
	}
	width := max(m.logView.Width-2, 20)
	var lines []string
	for _, e := range m.deps.Activity.Render() {
		stamp := DimStyle.Render(e.Timestamp.Local().Format(time.TimeOnly))
		msg := e.Message
		if detail := e.Details["error"]; detail != "" && !strings.Contains(msg, detail) {
			msg += ": " + detail
		}
		wrapped := wordwrap.String(msg, max(width-10, 10))
		lines = append(lines, stamp+"  "+entryStyle(e.Kind).Render(wrapped))
	}
	if len(lines) == 0 {
		lines = append(lines, DimStyle.Render("No activity yet."))
	}
	m.logView.SetContent(strings.Join(lines, "\n"))
	m.logView.GotoTop()
}

func formatElapsed(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
