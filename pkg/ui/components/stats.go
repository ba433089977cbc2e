package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds session-level counters for display, mirroring the fields
// the session manager and event bus already track internally.
type Stats struct {
	EventsReceived    uint64
	Snapshots         uint64
	Updates           uint64
	ChecksumMismatches uint64
	DroppedEvents     uint64
	Reconnects        uint64
}

// StatsComponent renders the counters.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update replaces the displayed counters.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	warn := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	mismatches := value.Render(fmt.Sprintf("%d", s.stats.ChecksumMismatches))
	if s.stats.ChecksumMismatches > 0 {
		mismatches = warn.Render(fmt.Sprintf("%d", s.stats.ChecksumMismatches))
	}
	dropped := value.Render(fmt.Sprintf("%d", s.stats.DroppedEvents))
	if s.stats.DroppedEvents > 0 {
		dropped = warn.Render(fmt.Sprintf("%d", s.stats.DroppedEvents))
	}

	return label.Render("STATS") + "\n" +
		fmt.Sprintf("Events: %s  │  Snapshots: %s  │  Updates: %s\n",
			value.Render(fmt.Sprintf("%d", s.stats.EventsReceived)),
			value.Render(fmt.Sprintf("%d", s.stats.Snapshots)),
			value.Render(fmt.Sprintf("%d", s.stats.Updates)),
		) +
		fmt.Sprintf("Checksum mismatches: %s  │  Dropped: %s  │  Reconnects: %s",
			mismatches, dropped,
			value.Render(fmt.Sprintf("%d", s.stats.Reconnects)),
		)
}
