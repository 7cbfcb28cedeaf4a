// Package chatui renders a chat.Controller in the terminal. The model holds no
// conversation state of its own: every frame is drawn from a controller snapshot.
package chatui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatbox/pkg/chat"
)

const placeholder = "Type your question here..."

// Options configures the terminal model.
type Options struct {
	// Style is the glamour style used for answers. Empty means DetectStyle.
	Style string

	// Status is shown in the footer, typically the model name.
	Status string

	Logger *zap.Logger
}

// submittedMsg is delivered when a submission started from the input returns.
type submittedMsg struct {
	err error
}

// Model is the bubbletea model for the chat screen.
type Model struct {
	ctx    context.Context
	ctrl   *chat.Controller
	logger *zap.Logger

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	styles   styles
	style    string
	status   string

	state chat.State

	// submitting gates Enter from the keypress until the submission returns,
	// so a second press never races the controller picking up the first.
	submitting bool

	// answers caches rendered answer markdown by turn ID.
	answers map[string]string

	width  int
	height int
	ready  bool
}

// New creates the model. ctx bounds every submission made from it.
func New(ctx context.Context, ctrl *chat.Controller, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	ti.Focus()

	st := newStyles()

	style := opts.Style
	if style == "" {
		style = DetectStyle()
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := Model{
		ctx:     ctx,
		ctrl:    ctrl,
		logger:  logger,
		input:   ti,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(st.spinner)),
		styles:  st,
		style:   style,
		status:  opts.Status,
		answers: make(map[string]string),
		state:   ctrl.Snapshot(),
	}
	m.input.SetValue(m.state.PendingQuestion)

	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.ctrl.Close()
			return m, tea.Quit

		case tea.KeyEnter:
			if m.submitting || m.state.IsLoading {
				return m, nil
			}
			m.submitting = true
			return m, tea.Batch(m.submit(), m.spinner.Tick)

		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.ctrl.UpdateQuestion(m.input.Value())
		m.state.PendingQuestion = m.input.Value()
		return m, cmd

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case submittedMsg:
		m.submitting = false
		if msg.err != nil && !isUserFacing(msg.err) {
			m.logger.Debug("submission ended", zap.Error(msg.err))
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.state = m.ctrl.Snapshot()
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit runs one controller submission off the event loop.
func (m Model) submit() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		_, err := ctrl.Submit(ctx)
		return submittedMsg{err: err}
	}
}

// refresh pulls a new snapshot and rebuilds everything derived from it.
func (m *Model) refresh() {
	m.state = m.ctrl.Snapshot()
	m.input.SetValue(m.state.PendingQuestion)
	m.input.CursorEnd()

	if m.ready {
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
	}
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	// title + input + error + footer
	chrome := 6
	vpHeight := max(height-chrome, 3)
	vpWidth := max(width-2, 10)

	if !m.ready {
		m.viewport = viewport.New(vpWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = vpWidth
		m.viewport.Height = vpHeight
	}

	m.input.Width = max(width-6, 10)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(m.bubbleWidth()),
	)
	if err != nil {
		m.logger.Warn("could not create markdown renderer", zap.String("style", m.style), zap.Error(err))
		renderer = nil
	}
	m.renderer = renderer
	clear(m.answers)

	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

// State returns the snapshot the model last drew.
func (m Model) State() chat.State {
	return m.state
}

// isUserFacing reports errors already reflected in State.LastError.
func isUserFacing(err error) bool {
	var svcErr *chat.ServiceError
	return errors.Is(err, chat.ErrEmptyQuestion) || errors.As(err, &svcErr)
}
