package server

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/bridgetable/internal/game"
)

var (
	madeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	passOutStyle = lipgloss.NewStyle().Faint(true)
)

// ListMonitor implements DealMonitor for compact deal-by-deal output.
// Shows one line per deal with: deal id, contract, result and trick count.
type ListMonitor struct {
	writer    io.Writer
	mu        sync.Mutex
	dealCount int
}

// NewListMonitor creates a new list monitor.
func NewListMonitor(writer io.Writer) *ListMonitor {
	if writer == nil {
		writer = os.Stdout
	}

	return &ListMonitor{
		writer: writer,
	}
}

// OnDeal implements DealMonitor.
func (l *ListMonitor) OnDeal(DealStarted) {}

// OnTrick implements DealMonitor.
func (l *ListMonitor) OnTrick(string, game.TrickResult) {}

// OnDealComplete implements DealMonitor.
func (l *ListMonitor) OnDealComplete(outcome DealOutcome) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.dealCount++

	id := outcome.DealID
	if len(id) > 8 {
		id = id[:8]
	}
	tricks := fmt.Sprintf("NS %d / EW %d", outcome.TricksWon[game.NorthSouth], outcome.TricksWon[game.EastWest])

	if outcome.Contract == nil || outcome.Score == nil {
		fmt.Fprintf(l.writer, "%-8s #%-3d %-22s %s\n", id, outcome.Number, passOutStyle.Render("no contract"), tricks)
		return
	}

	c := *outcome.Contract
	name := outcome.Names[c.Declarer]
	contract := fmt.Sprintf("%s by %s", contractText(c), name)

	result := failedStyle.Render(fmt.Sprintf("down %d", c.Bid.Level+6-outcome.Score.Tricks))
	if outcome.Score.Made {
		result = madeStyle.Render(fmt.Sprintf("made %d", outcome.Score.Tricks))
	}

	fmt.Fprintf(l.writer, "%-8s #%-3d %-22s %s  %s\n", id, outcome.Number, contract, result, tricks)
}

// Deals returns how many completed deals have been printed.
func (l *ListMonitor) Deals() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dealCount
}

func contractText(c game.Contract) string {
	s := c.Bid.String()
	if c.Doubled {
		s += "x"
	}
	return s
}
