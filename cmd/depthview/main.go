// Command depthview is a terminal dashboard that polls a running
// matchcore HTTP server's /orderbook endpoint and renders live bid/ask
// depth, adapted from the bubbletea panel idiom in the corpus's
// zappabad-stockcraft/tui/panels/orderbook.go -- same two-column
// bid/ask layout and buy/sell color convention, collapsed from a
// multi-panel trading terminal down to a single read-only view against
// this engine's JSON API instead of an in-process orderbook.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vkarasev/matchcore/internal/api/dto"
)

var (
	buyStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
	sellStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#9CA3AF"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")).Padding(0, 1)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Padding(0, 1)
)

type depthMsg struct {
	depth dto.MarketDepthResponse
	err   error
}

type tickMsg struct{}

type model struct {
	addr  string
	depth dto.MarketDepthResponse
	err   error
}

func initialModel(addr string) model {
	return model{addr: addr}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(fetchDepth(m.addr), tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return tickMsg{} })
}

func fetchDepth(addr string) tea.Cmd {
	return func() tea.Msg {
		resp, err := http.Get(addr + "/orderbook")
		if err != nil {
			return depthMsg{err: err}
		}
		defer resp.Body.Close()

		var out dto.MarketDepthResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return depthMsg{err: err}
		}
		return depthMsg{depth: out}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tickMsg:
		return m, tea.Batch(fetchDepth(m.addr), tick())
	case depthMsg:
		m.err = msg.err
		if msg.err == nil {
			m.depth = msg.depth
		}
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("matchcore depth — %s", m.depth.Symbol)))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errStyle.Render(fmt.Sprintf("fetch error: %v", m.err)))
		b.WriteString("\n")
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("%10s %10s │ %10s %10s", "BidQty", "Bid", "Ask", "AskQty")))
	b.WriteString("\n")

	rows := len(m.depth.Bids)
	if len(m.depth.Asks) > rows {
		rows = len(m.depth.Asks)
	}
	for i := 0; i < rows; i++ {
		var bidQty, bidPrice, askPrice, askQty string
		if i < len(m.depth.Bids) {
			bidQty = fmt.Sprintf("%d", m.depth.Bids[i].Quantity)
			bidPrice = m.depth.Bids[i].Price.String()
		}
		if i < len(m.depth.Asks) {
			askPrice = m.depth.Asks[i].Price.String()
			askQty = fmt.Sprintf("%d", m.depth.Asks[i].Quantity)
		}
		bidPart := buyStyle.Render(fmt.Sprintf("%10s %10s", bidQty, bidPrice))
		askPart := sellStyle.Render(fmt.Sprintf("%10s %10s", askPrice, askQty))
		b.WriteString(fmt.Sprintf("%s │ %s\n", bidPart, askPart))
	}

	b.WriteString("\npress q to quit\n")
	return b.String()
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "base URL of a running matchcore server")
	flag.Parse()

	if _, err := tea.NewProgram(initialModel(*addr)).Run(); err != nil {
		fmt.Println("depthview:", err)
	}
}
