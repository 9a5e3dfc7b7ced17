package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskvoice/taskvoice/internal/boards"
	"github.com/taskvoice/taskvoice/internal/log"
	"github.com/taskvoice/taskvoice/internal/platform"
	"github.com/taskvoice/taskvoice/internal/recorder"
	"github.com/taskvoice/taskvoice/internal/resolver"
)

// Screen is the view currently shown.
type Screen int

const (
	ScreenPicker Screen = iota // choose a platform
	ScreenCredentials
	ScreenRecorder
	ScreenBoards
)

// SessionController owns the resolved session.
type SessionController interface {
	Current() resolver.Session
	Save(ctx context.Context, cfg platform.Config) error
	SwitchPlatform(ctx context.Context) error
	SelectBoard(ctx context.Context, boardID string) error
}

// Recorder drives capture.
type Recorder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	State() recorder.State
	Elapsed() time.Duration
	LatestResponse() string
	OnChange(fn func())
}

// ActivityFeed is the log the recorder screen renders and reports to.
type ActivityFeed interface {
	Append(entry log.Entry)
	Render() []log.Entry
	Watch(fn func(log.Entry))
}

// BoardLister discovers boards.
type BoardLister interface {
	Discover(ctx context.Context, cfg platform.Config) ([]boards.Board, error)
}

// Deps are the collaborators the TUI drives.
type Deps struct {
	Resolver SessionController
	Recorder Recorder
	Activity ActivityFeed
	Boards   BoardLister
}

type platformItem struct{ p platform.Platform }

func (i platformItem) Title() string { return i.p.DisplayName() }
func (i platformItem) Description() string {
	if i.p == platform.Jira {
		return "coming soon"
	}
	names, _ := platform.FieldNames(i.p)
	return joinNames(names)
}
func (i platformItem) FilterValue() string { return string(i.p) }

type boardItem struct{ b boards.Board }

func (i boardItem) Title() string       { return i.b.Name }
func (i boardItem) Description() string { return i.b.URL }
func (i boardItem) FilterValue() string { return i.b.Name }

// credentialForm collects one platform's fields.
type credentialForm struct {
	platform platform.Platform
	names    []string
	inputs   []textinput.Model
	focus    int
}

// formFields are the fields typed by hand; a Trello board is picked from
// the discovered list instead.
func formFields(p platform.Platform) []string {
	names, _ := platform.FieldNames(p)
	if p != platform.Trello {
		return names
	}
	var out []string
	for _, n := range names {
		if n != platform.FieldBoardID {
			out = append(out, n)
		}
	}
	return out
}

func newCredentialForm(p platform.Platform, width int) credentialForm {
	names := formFields(p)
	inputs := make([]textinput.Model, len(names))
	for i, name := range names {
		ti := textinput.New()
		ti.Placeholder = name
		ti.CharLimit = 512
		ti.Width = max(width-20, 20)
		if name != platform.FieldBoardID && name != platform.FieldWorkspaceID && name != platform.FieldProjectID {
			ti.EchoMode = textinput.EchoPassword
		}
		inputs[i] = ti
	}
	if len(inputs) > 0 {
		inputs[0].Focus()
	}
	return credentialForm{platform: p, names: names, inputs: inputs}
}

func (f *credentialForm) move(delta int) {
	if len(f.inputs) == 0 {
		return
	}
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
}

func (f credentialForm) values() map[string]string {
	out := make(map[string]string, len(f.names))
	for i, name := range f.names {
		out[name] = f.inputs[i].Value()
	}
	return out
}

// Model is the main TUI model.
type Model struct {
	ctx  context.Context
	deps Deps
	keys KeyMap

	screen Screen
	width  int
	height int

	picker    list.Model
	form      credentialForm
	boardList list.Model
	draft     platform.TrelloConfig
	logView   viewport.Model
	spinner   spinner.Model

	changes       chan struct{}
	busy          bool
	loadingBoards bool
	notice        string
}

// NewModel wires the TUI to deps and picks the first screen from the
// resolved session.
func NewModel(deps Deps) *Model {
	items := make([]list.Item, 0, len(platform.All))
	for _, p := range platform.All {
		items = append(items, platformItem{p})
	}
	picker := list.New(items, list.NewDefaultDelegate(), 60, 14)
	picker.Title = "Choose a platform"
	picker.SetShowStatusBar(false)
	picker.SetFilteringEnabled(false)
	picker.SetShowHelp(false)

	boardList := list.New(nil, list.NewDefaultDelegate(), 60, 14)
	boardList.Title = "Choose a board"
	boardList.SetShowStatusBar(false)
	boardList.SetFilteringEnabled(false)
	boardList.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		ctx:       context.Background(),
		deps:      deps,
		keys:      DefaultKeyMap,
		width:     80,
		height:    24,
		picker:    picker,
		boardList: boardList,
		logView:   viewport.New(78, 12),
		spinner:   sp,
		changes:   make(chan struct{}, 1),
	}

	if deps.Recorder != nil {
		deps.Recorder.OnChange(m.signal)
	}
	if deps.Activity != nil {
		deps.Activity.Watch(func(log.Entry) { m.signal() })
	}
	m.route()
	m.refreshLog()
	return m
}

// Screen returns the active screen.
func (m *Model) Screen() Screen { return m.screen }

func (m *Model) signal() {
	select {
	case m.changes <- struct{}{}:
	default:
	}
}

// route shows the screen that fits the current session.
func (m *Model) route() {
	s := m.deps.Resolver.Current()
	switch {
	case s.Configured:
		m.screen = ScreenRecorder
	case s.Platform != platform.None && s.Platform != platform.Jira:
		m.form = newCredentialForm(s.Platform, m.width)
		m.screen = ScreenCredentials
	default:
		m.screen = ScreenPicker
	}
}

// Init starts listening for changes. A configured Trello session also
// loads its board list in the background.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForChange(m.changes), m.spinner.Tick, textinput.Blink}
	s := m.deps.Resolver.Current()
	if cfg, ok := s.Config.(platform.TrelloConfig); ok && s.Configured {
		if cmd := m.discoverIn(cfg, true); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the application state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case changedMsg:
		m.refreshLog()
		return m, waitForChange(m.changes)

	case startedMsg:
		m.busy = false
		if errors.Is(msg.err, recorder.ErrNotConfigured) {
			m.route()
		}
		m.refreshLog()
		return m, nil

	case stoppedMsg:
		m.busy = false
		m.refreshLog()
		return m, nil

	case boardsMsg:
		m.loadingBoards = false
		if msg.err != nil {
			if m.deps.Activity != nil {
				m.deps.Activity.Append(log.Error("Could not load boards", msg.err))
			}
			if !msg.background {
				m.notice = "Could not load boards: " + msg.err.Error()
			}
			m.refreshLog()
			return m, nil
		}
		items := make([]list.Item, len(msg.boards))
		for i, b := range msg.boards {
			items[i] = boardItem{b}
		}
		m.boardList.SetItems(items)
		if msg.background {
			return m, nil
		}
		m.notice = ""
		if len(items) == 0 {
			m.notice = "No open boards found for these credentials"
		}
		m.screen = ScreenBoards
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.CtrlC) {
			return m, tea.Quit
		}
		switch m.screen {
		case ScreenPicker:
			return m.updatePicker(msg)
		case ScreenCredentials:
			return m.updateForm(msg)
		case ScreenBoards:
			return m.updateBoards(msg)
		default:
			return m.updateRecorder(msg)
		}
	}
	return m, nil
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	m.picker.SetSize(w-4, h-6)
	m.boardList.SetSize(w-4, h-6)
	m.logView.Width = max(w-4, 20)
	m.logView.Height = max(h-12, 3)
	for i := range m.form.inputs {
		m.form.inputs[i].Width = max(w-20, 20)
	}
	m.refreshLog()
}

func (m *Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Enter):
		item, ok := m.picker.SelectedItem().(platformItem)
		if !ok {
			return m, nil
		}
		if item.p == platform.Jira {
			m.notice = "Jira is not supported yet"
			return m, nil
		}
		m.notice = ""
		m.form = newCredentialForm(item.p, m.width)
		m.screen = ScreenCredentials
		return m, textinput.Blink
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.notice = ""
		m.screen = ScreenPicker
		return m, nil
	case key.Matches(msg, m.keys.Next):
		m.form.move(1)
		return m, nil
	case key.Matches(msg, m.keys.Prev):
		m.form.move(-1)
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		return m.submitForm()
	}
	var cmd tea.Cmd
	m.form.inputs[m.form.focus], cmd = m.form.inputs[m.form.focus].Update(msg)
	return m, cmd
}

// submitForm saves the form, or for Trello discovers boards with the
// typed key and token first. An incomplete form stays open.
func (m *Model) submitForm() (tea.Model, tea.Cmd) {
	cfg, err := platform.FromFields(m.form.platform, m.form.values())
	if err != nil {
		m.notice = err.Error()
		return m, nil
	}

	if draft, ok := cfg.(platform.TrelloConfig); ok {
		if draft.APIKey == "" || draft.Token == "" {
			return m, nil
		}
		m.draft = draft
		return m, m.discover(draft)
	}

	if err := m.deps.Resolver.Save(m.ctx, cfg); err != nil {
		if !errors.Is(err, resolver.ErrIncomplete) {
			m.notice = err.Error()
		}
		return m, nil
	}
	m.notice = ""
	m.screen = ScreenRecorder
	m.refreshLog()
	return m, nil
}

func (m *Model) discover(cfg platform.TrelloConfig) tea.Cmd {
	return m.discoverIn(cfg, false)
}

// discoverIn lists boards for cfg. A background result fills the board
// list without leaving the current screen.
func (m *Model) discoverIn(cfg platform.TrelloConfig, background bool) tea.Cmd {
	if m.deps.Boards == nil {
		return nil
	}
	m.loadingBoards = true
	lister, ctx := m.deps.Boards, m.ctx
	return func() tea.Msg {
		found, err := lister.Discover(ctx, cfg)
		return boardsMsg{boards: found, err: err, background: background}
	}
}

func (m *Model) updateBoards(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.notice = ""
		if m.deps.Resolver.Current().Configured {
			m.screen = ScreenRecorder
		} else {
			m.screen = ScreenCredentials
		}
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		item, ok := m.boardList.SelectedItem().(boardItem)
		if !ok {
			return m, nil
		}
		var err error
		s := m.deps.Resolver.Current()
		if _, active := s.Config.(platform.TrelloConfig); active && s.Configured {
			err = m.deps.Resolver.SelectBoard(m.ctx, item.b.ID)
		} else {
			draft := m.draft
			draft.BoardID = item.b.ID
			err = m.deps.Resolver.Save(m.ctx, draft)
		}
		if err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.notice = ""
		m.screen = ScreenRecorder
		m.refreshLog()
		return m, nil
	}
	var cmd tea.Cmd
	m.boardList, cmd = m.boardList.Update(msg)
	return m, cmd
}

func (m *Model) updateRecorder(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	state := m.deps.Recorder.State()
	switch {
	case key.Matches(msg, m.keys.Record):
		if m.busy {
			return m, nil
		}
		switch state {
		case recorder.Idle:
			m.busy = true
			rec, ctx := m.deps.Recorder, m.ctx
			return m, func() tea.Msg { return startedMsg{err: rec.Start(ctx)} }
		case recorder.Recording:
			m.busy = true
			rec, ctx := m.deps.Recorder, m.ctx
			return m, func() tea.Msg { return stoppedMsg{err: rec.Stop(ctx)} }
		}
		return m, nil

	case key.Matches(msg, m.keys.Boards):
		s := m.deps.Resolver.Current()
		cfg, ok := s.Config.(platform.TrelloConfig)
		if !ok || m.loadingBoards {
			return m, nil
		}
		m.draft = cfg
		return m, m.discover(cfg)

	case key.Matches(msg, m.keys.Switch):
		if state != recorder.Idle || m.busy {
			m.notice = "Finish the current recording first"
			return m, nil
		}
		if err := m.deps.Resolver.SwitchPlatform(m.ctx); err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.notice = ""
		m.screen = ScreenPicker
		return m, nil

	case key.Matches(msg, m.keys.Quit):
		if state != recorder.Idle || m.busy {
			m.notice = "Finish the current recording first"
			return m, nil
		}
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.logView, cmd = m.logView.Update(msg)
	return m, cmd
}
