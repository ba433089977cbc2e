// Package components provides reusable TUI components for the marketfeed
// demo binary.
package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ConnectionStatus describes the session's current connection state for
// display: whether the transport is open, how long since the last frame
// of any kind was observed, and where the reconnect/circuit-breaker
// machinery currently stands.
type ConnectionStatus struct {
	Venue           string
	Connected       bool
	ConnectionID    string
	LastFrameAgo    time.Duration
	Reconnecting    bool
	ReconnectAttempt int
	BreakerOpen     bool
}

// StatusComponent renders the connection banner.
type StatusComponent struct {
	status ConnectionStatus
}

// NewStatusComponent creates a new status component.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{}
}

// Update replaces the displayed connection status.
func (s *StatusComponent) Update(status ConnectionStatus) {
	s.status = status
}

// View renders the status component.
func (s *StatusComponent) View() string {
	st := s.status

	label := "● Connected"
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	switch {
	case st.BreakerOpen:
		label = "✕ Circuit open"
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	case st.Reconnecting:
		label = fmt.Sprintf("◐ Reconnecting (attempt %d)", st.ReconnectAttempt)
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	case !st.Connected:
		label = "○ Disconnected"
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	}

	line := fmt.Sprintf("%s  %s", st.Venue, style.Render(label))
	if st.Connected {
		if st.ConnectionID != "" {
			line += fmt.Sprintf("  conn=%s", st.ConnectionID)
		}
		line += fmt.Sprintf("  last frame %s ago", st.LastFrameAgo.Round(time.Millisecond))
	}
	return line
}
