// Package term draws a countdown widget in a terminal.
package term

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/good-yellow-bee/countdown/internal/countdown"
	"github.com/good-yellow-bee/countdown/internal/models"
)

type loadedMsg struct {
	widget *countdown.Widget
	err    error
}

type tickMsg time.Time

// Model is a Bubble Tea model that fetches once and then ticks a widget
// every second until it expires.
type Model struct {
	ctx    context.Context
	client *countdown.Client
	shop   string
	opts   []countdown.WidgetOption
	now    func() time.Time

	widget *countdown.Widget
	frame  countdown.Frame
	// phase alternates each tick to animate pulse.
	phase bool

	width, height int
	err           error
}

// NewModel creates a model for shop. now must be the same clock passed to
// the widget options, or nil for the wall clock.
func NewModel(ctx context.Context, client *countdown.Client, shop string, now func() time.Time, opts ...countdown.WidgetOption) Model {
	if now == nil {
		now = time.Now
	}
	return Model{
		ctx:    ctx,
		client: client,
		shop:   shop,
		opts:   append(opts, countdown.WithNow(now)),
		now:    now,
	}
}

// Err returns the load error, if any.
func (m Model) Err() error {
	return m.err
}

// Frame returns the last evaluated frame.
func (m Model) Frame() countdown.Frame {
	return m.frame
}

func (m Model) Init() tea.Cmd {
	return m.load
}

func (m Model) load() tea.Msg {
	w, err := countdown.Load(m.ctx, m.client, m.shop, m.opts...)
	return loadedMsg{widget: w, err: err}
}

func tick() tea.Cmd {
	return tea.Every(countdown.TickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.widget = msg.widget
		return m.advance()

	case tickMsg:
		if m.widget == nil {
			return m, nil
		}
		m.phase = !m.phase
		return m.advance()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) advance() (tea.Model, tea.Cmd) {
	m.frame = m.widget.Tick(m.now())
	if m.frame.State == countdown.Expired {
		return m, tea.Quit
	}
	return m, tick()
}

func (m Model) View() string {
	if m.widget == nil || !m.frame.Visible {
		return ""
	}

	p := m.widget.Presentation()
	style := Style(p, m.frame, m.phase)
	if m.width > 0 {
		style = style.Width(m.width).Align(lipgloss.Center)
	}
	bar := style.Render(m.frame.Line())

	if p.Position == models.PositionBottom && m.height > 0 {
		return lipgloss.PlaceVertical(m.height, lipgloss.Bottom, bar)
	}
	return bar
}

// Run starts a Bubble Tea program and blocks until the widget expires, the
// load fails, or the user quits. The load error is returned so callers can
// log it; the view is never shown in that case.
func Run(ctx context.Context, client *countdown.Client, shop string, opts ...countdown.WidgetOption) error {
	model := NewModel(ctx, client, shop, nil, opts...)
	final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok {
		return m.err
	}
	return nil
}
