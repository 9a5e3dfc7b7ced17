package cli

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/taskvoice/taskvoice/internal/log"
	"github.com/taskvoice/taskvoice/internal/platform"
)

// secretFields are shown masked by status output.
var secretFields = map[string]bool{
	platform.FieldAPIKey:              true,
	platform.FieldToken:               true,
	platform.FieldPersonalAccessToken: true,
}

// colorEnabled reports whether w is a terminal that should get ANSI colour.
func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateHeader = true
	tw.Style().Options.DrawBorder = true
	if !colorEnabled(w) {
		tw.Style().Color = table.ColorOptions{}
	}
	return tw
}

func kindColor(k log.Kind) text.Colors {
	switch k {
	case log.KindSuccess, log.KindTask:
		return text.Colors{text.FgGreen}
	case log.KindError:
		return text.Colors{text.FgRed}
	case log.KindTranscript, log.KindVoice:
		return text.Colors{text.FgCyan}
	default:
		return text.Colors{text.FgHiBlack}
	}
}

// writeEntries renders entries as a table in the order given.
func writeEntries(w io.Writer, entries []log.Entry) {
	useColor := colorEnabled(w)
	tw := newTable(w)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: 80},
	})
	tw.AppendHeader(table.Row{"Time", "Kind", "Message"})

	for _, e := range entries {
		kind := string(e.Kind)
		if useColor {
			kind = kindColor(e.Kind).Sprint(kind)
		}
		msg := e.Message
		if detail := e.Details["error"]; detail != "" && !strings.Contains(msg, detail) {
			msg += ": " + detail
		}
		tw.AppendRow(table.Row{
			e.Timestamp.Local().Format(time.DateTime),
			kind,
			strings.ReplaceAll(msg, "\n", " "),
		})
	}
	if len(entries) == 0 {
		tw.AppendRow(table.Row{"-", "-", "(no activity)"})
	}
	tw.Render()
}

// mask hides all but the last four characters of a secret.
func mask(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return strings.Repeat("*", len(v))
	}
	return strings.Repeat("*", len(v)-4) + v[len(v)-4:]
}

// entryCollector records every entry appended to an Activity after it was
// created, in append order.
type entryCollector struct {
	mu      sync.Mutex
	entries []log.Entry
}

func collectEntries(a *log.Activity) *entryCollector {
	c := &entryCollector{}
	a.Watch(func(e log.Entry) {
		c.mu.Lock()
		c.entries = append(c.entries, e)
		c.mu.Unlock()
	})
	return c
}

func (c *entryCollector) Entries() []log.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]log.Entry(nil), c.entries...)
}
