package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yungbote/pulse-backend/internal/domain"
	"github.com/yungbote/pulse-backend/internal/insight"
	"github.com/yungbote/pulse-backend/internal/insight/reveal"
	"github.com/yungbote/pulse-backend/internal/services"
)

// Frame is one poll of the dashboard API.
type Frame struct {
	Model          insight.View           `json:"model"`
	Reveal         reveal.Status          `json:"reveal"`
	PressurePoints []domain.PressurePoint `json:"pressurePoints"`
	Session        services.SessionStatus `json:"session"`
	FetchedAt      time.Time              `json:"fetchedAt"`
}

type Fetcher interface {
	Fetch(ctx context.Context) (Frame, error)
}

// Config wires runtime options into the TUI program.
type Config struct {
	Fetcher  Fetcher
	Interval time.Duration
	Server   string
}

type frameMsg struct {
	frame Frame
	err   error
}

type tickMsg time.Time

type model struct {
	config   Config
	frame    *Frame
	err      error
	polls    int
	width    int
	fetching bool
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	if config.Interval <= 0 {
		config.Interval = 2 * time.Second
	}
	return &model{config: config, width: 80}
}

func (m *model) fetch() tea.Cmd {
	m.fetching = true
	f := m.config.Fetcher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		frame, err := f.Fetch(ctx)
		return frameMsg{frame: frame, err: err}
	}
}

func (m *model) tick() tea.Cmd {
	return tea.Tick(m.config.Interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *model) Init() tea.Cmd {
	return m.fetch()
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if m.fetching {
				return m, nil
			}
			return m, m.fetch()
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case frameMsg:
		m.fetching = false
		m.polls++
		if msg.err != nil {
			// Keep the last good frame on screen.
			m.err = msg.err
		} else {
			m.err = nil
			f := msg.frame
			m.frame = &f
		}
		return m, m.tick()
	case tickMsg:
		if m.fetching {
			return m, nil
		}
		return m, m.fetch()
	}
	return m, nil
}
