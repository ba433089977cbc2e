package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/marketfeed/business/marketdata/domain"
)

// BookComponent renders a side-by-side bid/ask depth table for one
// symbol, grounded on the same fixed-width-column table rendering the
// teacher uses for its CEX/DEX price comparison table.
type BookComponent struct {
	symbol   domain.Symbol
	snapshot domain.Snapshot
	have     bool
	depth    int
}

// NewBookComponent creates a new book component showing up to depth rows
// per side.
func NewBookComponent(depth int) *BookComponent {
	if depth <= 0 {
		depth = 10
	}
	return &BookComponent{depth: depth}
}

// SetSymbol changes which symbol's book is displayed.
func (b *BookComponent) SetSymbol(symbol domain.Symbol) {
	b.symbol = symbol
}

// Update replaces the displayed snapshot.
func (b *BookComponent) Update(snapshot domain.Snapshot) {
	b.snapshot = snapshot
	b.have = true
}

// Clear marks the book as having no snapshot yet (e.g. right after a
// resubscribe, before the fresh snapshot arrives).
func (b *BookComponent) Clear() {
	b.have = false
}

// View renders the depth table.
func (b *BookComponent) View() string {
	primary := lipgloss.Color("#7C3AED")
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	bidStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	askStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	tableHeader := lipgloss.NewStyle().Bold(true).Foreground(primary).
		BorderBottom(true).BorderStyle(lipgloss.NormalBorder())

	header := lipgloss.NewStyle().Bold(true).Foreground(primary).
		Render(fmt.Sprintf("%s — L2", string(b.symbol)))

	if !b.have {
		return header + "\n" + muted.Render("awaiting snapshot...")
	}

	rows := b.depth
	bids := b.snapshot.Bids
	asks := b.snapshot.Asks

	var sb strings.Builder
	sb.WriteString(header + "\n")
	sb.WriteString(tableHeader.Render(fmt.Sprintf("%-14s %-10s │ %-14s %-10s", "BID PRICE", "QTY", "ASK PRICE", "QTY")) + "\n")

	for i := 0; i < rows; i++ {
		var bidCell, askCell string
		if i < len(bids) {
			bidCell = fmt.Sprintf("%-14s %-10s", bidStyle.Render(bids[i].Price.String()), bids[i].Qty.String())
		} else {
			bidCell = fmt.Sprintf("%-14s %-10s", "", "")
		}
		if i < len(asks) {
			askCell = fmt.Sprintf("%-14s %-10s", askStyle.Render(asks[i].Price.String()), asks[i].Qty.String())
		} else {
			askCell = fmt.Sprintf("%-14s %-10s", "", "")
		}
		sb.WriteString(fmt.Sprintf("%s │ %s\n", bidCell, askCell))
	}

	if bid, ok := b.snapshot.BestBid(); ok {
		if ask, ok2 := b.snapshot.BestAsk(); ok2 {
			spread, err := ask.Price.Sub(bid.Price)
			if err == nil {
				sb.WriteString(muted.Render(fmt.Sprintf("spread %s  seq %d  checksum %d",
					spread.String(), b.snapshot.Sequence, b.snapshot.Checksum)))
			}
		}
	}

	return sb.String()
}
