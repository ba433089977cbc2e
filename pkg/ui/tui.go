package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/marketfeed/business/marketdata/domain"
	"github.com/fd1az/marketfeed/pkg/ui/components"
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 1500 * time.Millisecond

// Phase is the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"
	PhaseDashboard Phase = "dashboard"
)

// ErrorEntry is a displayed error with the time it was observed.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the Bubble Tea model driving the marketfeed demo dashboard. It
// owns no networking itself: events arrive on a channel handed to it at
// construction (the feed client's Events()), and the model only ever
// renders what it has already received.
type Model struct {
	venue   string
	symbols []domain.Symbol
	events  <-chan domain.Event

	selected int
	books    map[domain.Symbol]*components.BookComponent
	status   *components.StatusComponent
	stats    *components.StatsComponent

	statsData components.Stats
	connInfo  components.ConnectionStatus
	lastFrame time.Time

	phase        Phase
	welcomeStart time.Time

	errors []ErrorEntry
	keys   KeyMap

	width, height int
	quitting      bool
}

// New builds the dashboard model for venue, one BookComponent per symbol.
func New(venue string, symbols []domain.Symbol, events <-chan domain.Event) Model {
	books := make(map[domain.Symbol]*components.BookComponent, len(symbols))
	for _, s := range symbols {
		books[s] = components.NewBookComponent(10)
	}
	return Model{
		venue:        venue,
		symbols:      symbols,
		events:       events,
		books:        books,
		status:       components.NewStatusComponent(),
		stats:        components.NewStatsComponent(),
		phase:        PhaseWelcome,
		welcomeStart: time.Now(),
		keys:         DefaultKeyMap(),
		connInfo:     components.ConnectionStatus{Venue: venue},
	}
}

// Program is the running Bubble Tea program, set by Run so other
// goroutines can Send into it or Quit it. Events reach the model through
// the waitForEvent command, not through Send.
var Program *tea.Program

// Send delivers msg into the running program, if any.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}

// Quit asks the running program to exit, if any. Used by the host binary
// to tear the dashboard down on external shutdown (signal, ctx cancel)
// rather than only on a user keypress.
func Quit() {
	if Program != nil {
		Program.Quit()
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), waitForEvent(m.events), welcomeTimeout())
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(time.Time) tea.Msg { return TickMsg{} })
}

func welcomeTimeout() tea.Cmd {
	return tea.Tick(WelcomeDuration, func(time.Time) tea.Msg { return WelcomeCompleteMsg{} })
}

// waitForEvent returns a command that blocks on one channel receive and
// wraps the result as a tea.Msg; Update re-issues it after each delivery
// so the event stream keeps flowing into the program.
func waitForEvent(events <-chan domain.Event) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-events
		if !ok {
			return EventsClosedMsg{}
		}
		return EventMsg{Event: evt}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.keys.Quit.Matches(msg):
			m.quitting = true
			return m, tea.Quit
		case m.keys.NextBook.Matches(msg):
			if len(m.symbols) > 0 {
				m.selected = (m.selected + 1) % len(m.symbols)
			}
			return m, nil
		case m.keys.PrevBook.Matches(msg):
			if len(m.symbols) > 0 {
				m.selected = (m.selected - 1 + len(m.symbols)) % len(m.symbols)
			}
			return m, nil
		case m.keys.Clear.Matches(msg):
			m.errors = nil
			return m, nil
		}
		return m, nil

	case WelcomeCompleteMsg:
		m.phase = PhaseDashboard
		return m, nil

	case TickMsg:
		return m, tickCmd()

	case EventsClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case EventMsg:
		m.applyEvent(msg.Event)
		return m, waitForEvent(m.events)

	case ErrorMsg:
		m.errors = append(m.errors, ErrorEntry{Message: msg.Error.Error(), Timestamp: time.Now()})
		if len(m.errors) > 5 {
			m.errors = m.errors[len(m.errors)-5:]
		}
		return m, nil
	}
	return m, nil
}

// applyEvent folds one domain.Event into the model's display state. It
// never touches engine state directly; it only mirrors what already
// happened for rendering.
func (m *Model) applyEvent(evt domain.Event) {
	m.statsData.EventsReceived++
	m.lastFrame = time.Now()

	switch evt.Kind {
	case domain.EventOrderbookSnapshot:
		m.statsData.Snapshots++
		if evt.Snapshot != nil {
			if b, ok := m.books[evt.Symbol]; ok {
				b.Update(*evt.Snapshot)
			}
		}
	case domain.EventOrderbookUpdate:
		m.statsData.Updates++
		if evt.Snapshot != nil {
			if b, ok := m.books[evt.Symbol]; ok {
				b.Update(*evt.Snapshot)
			}
		}
	case domain.EventChecksumMismatch:
		m.statsData.ChecksumMismatches++
		if b, ok := m.books[evt.Symbol]; ok {
			b.Clear()
		}
	case domain.EventBufferOverflow:
		if evt.BufferOverflow != nil {
			m.statsData.DroppedEvents = evt.BufferOverflow.DroppedCount
		}
	case domain.EventConnected:
		m.connInfo.Connected = true
		m.connInfo.Reconnecting = false
		m.connInfo.BreakerOpen = false
		if evt.Connected != nil {
			m.connInfo.ConnectionID = evt.Connected.ConnectionID
		}
	case domain.EventDisconnected:
		m.connInfo.Connected = false
	case domain.EventReconnecting:
		m.statsData.Reconnects++
		m.connInfo.Reconnecting = true
		if evt.Reconnecting != nil {
			m.connInfo.ReconnectAttempt = evt.Reconnecting.Attempt
		}
	case domain.EventReconnectFailed:
		m.connInfo.BreakerOpen = true
	case domain.EventSubscriptionError:
		if evt.Err != nil {
			m.errors = append(m.errors, ErrorEntry{Message: evt.Err.Error(), Timestamp: time.Now()})
		}
	}
}

func (m Model) View() string {
	if m.quitting {
		return "bye\n"
	}
	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcome()
	default:
		return m.renderDashboard()
	}
}

func (m Model) renderWelcome() string {
	title := TitleStyle.Render(" marketfeed ")
	sub := HelpStyle.Render(fmt.Sprintf("connecting to %s ...", m.venue))
	return "\n\n" + lipgloss.PlaceHorizontal(max(m.width, 40), lipgloss.Center, title) +
		"\n\n" + lipgloss.PlaceHorizontal(max(m.width, 40), lipgloss.Center, sub) + "\n"
}

func (m Model) renderDashboard() string {
	var sb strings.Builder

	m.connInfo.LastFrameAgo = time.Since(m.lastFrame)
	m.status.Update(m.connInfo)
	sb.WriteString(BoxStyle.Render(m.status.View()) + "\n")

	if len(m.symbols) > 0 {
		symbol := m.symbols[m.selected]
		if b, ok := m.books[symbol]; ok {
			sb.WriteString(BoxStyle.Render(b.View()) + "\n")
		}
		if len(m.symbols) > 1 {
			sb.WriteString(HelpStyle.Render(fmt.Sprintf("symbol %d/%d — tab to switch", m.selected+1, len(m.symbols))) + "\n")
		}
	}

	m.stats.Update(m.statsData)
	sb.WriteString(BoxStyle.Render(m.stats.View()) + "\n")

	if len(m.errors) > 0 {
		var errLines strings.Builder
		for _, e := range m.errors {
			errLines.WriteString(fmt.Sprintf("[%s] %s\n", e.Timestamp.Format("15:04:05"), e.Message))
		}
		sb.WriteString(BoxStyle.Render(errLines.String()))
	}

	sb.WriteString("\n" + HelpStyle.Render(strings.Join(helpLine(m.keys), "  │  ")))
	return sb.String()
}

func helpLine(k KeyMap) []string {
	out := make([]string, 0, len(k.ShortHelp()))
	for _, b := range k.ShortHelp() {
		h := b.Help()
		out = append(out, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Run starts the Bubble Tea program for m and blocks until it exits.
func Run(m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	Program = p
	_, err := p.Run()
	return err
}
