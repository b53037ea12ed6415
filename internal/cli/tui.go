package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/autoroute/pkg/errors"
	"github.com/matzehuels/autoroute/pkg/grid"
	"github.com/matzehuels/autoroute/pkg/netlist"
	"github.com/matzehuels/autoroute/pkg/render"
	"github.com/matzehuels/autoroute/pkg/router"
)

// Cell styles
var (
	cellFreeStyle   = lipgloss.NewStyle().Foreground(colorDim)
	cellLineStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	cellLeadStyle   = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	cellViaStyle    = lipgloss.NewStyle().Foreground(colorGray)
	cellCursorStyle = lipgloss.NewStyle().Reverse(true)
	cellPickedStyle = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	hintStyle       = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// BoardModel - Interactive board editing
// =============================================================================

// BoardModel is the bubbletea model for the interactive board. It edits one
// routing session: place leads and vias under the cursor, pick two leads to
// queue a connection, and route the queue.
type BoardModel struct {
	ctx     context.Context
	session *router.Session
	snap    *router.Snapshot

	Cursor grid.Point
	Offset grid.Point // top-left cell of the viewport
	Width  int        // viewport width in cells
	Height int        // viewport height in cells

	picked  netlist.LeadID
	picking bool
	routing bool

	Status   string
	Outcomes []router.Outcome
}

// routedMsg carries the outcomes of a background Route call.
type routedMsg struct {
	outcomes []router.Outcome
}

// NewBoardModel creates a board model over s.
func NewBoardModel(ctx context.Context, s *router.Session) BoardModel {
	m := BoardModel{
		ctx:     ctx,
		session: s,
		snap:    s.Snapshot(),
		Width:   64,
		Height:  24,
		Status:  "Move with the arrow keys, c places a lead",
	}
	m.Cursor = grid.Pt(m.snap.Width/2, m.snap.Height/2)
	m.follow()
	return m
}

func (m BoardModel) Init() tea.Cmd {
	return nil
}

func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.routing {
			return m, nil
		}
		return m.handleKey(msg.String())
	case tea.WindowSizeMsg:
		m.Width = max(8, msg.Width-2)
		m.Height = max(4, msg.Height-8)
		m.follow()
	case routedMsg:
		m.routing = false
		m.Outcomes = msg.outcomes
		m.snap = m.session.Snapshot()
		m.Status = summarize(m.snap, msg.outcomes)
	}
	return m, nil
}

func (m BoardModel) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up":
		m.move(0, -1)
	case "down":
		m.move(0, 1)
	case "left":
		m.move(-1, 0)
	case "right":
		m.move(1, 0)
	case "pgup":
		m.move(0, -m.Height)
	case "pgdown":
		m.move(0, m.Height)
	case "home":
		m.move(-m.Width, 0)
	case "end":
		m.move(m.Width, 0)
	case "c":
		m.placeLead()
	case "v":
		m.placeVia()
	case "l", "enter":
		m.pickLead()
	case "esc":
		if m.picking {
			m.picking = false
			m.Status = "Selection cleared"
		}
	case "r":
		return m.route()
	}
	return m, nil
}

// move shifts the cursor, clamped to the board, and scrolls the viewport.
func (m *BoardModel) move(dx, dy int) {
	m.Cursor = grid.Pt(
		min(max(m.Cursor.X+dx, 0), m.snap.Width-1),
		min(max(m.Cursor.Y+dy, 0), m.snap.Height-1),
	)
	m.follow()
}

// follow scrolls the viewport so the cursor stays visible.
func (m *BoardModel) follow() {
	if m.Cursor.X < m.Offset.X {
		m.Offset.X = m.Cursor.X
	}
	if m.Cursor.X >= m.Offset.X+m.Width {
		m.Offset.X = m.Cursor.X - m.Width + 1
	}
	if m.Cursor.Y < m.Offset.Y {
		m.Offset.Y = m.Cursor.Y
	}
	if m.Cursor.Y >= m.Offset.Y+m.Height {
		m.Offset.Y = m.Cursor.Y - m.Height + 1
	}
	m.Offset.X = max(0, min(m.Offset.X, m.snap.Width-m.Width))
	m.Offset.Y = max(0, min(m.Offset.Y, m.snap.Height-m.Height))
}

func (m *BoardModel) placeLead() {
	id, err := m.session.PlaceLead(m.Cursor)
	if err != nil {
		m.Status = errorStatus(err)
		return
	}
	m.snap = m.session.Snapshot()
	m.Status = fmt.Sprintf("Placed %s at %d,%d", leadName(m.snap, id), m.Cursor.X, m.Cursor.Y)
}

func (m *BoardModel) placeVia() {
	if err := m.session.PlaceVia(m.Cursor); err != nil {
		m.Status = errorStatus(err)
		return
	}
	m.snap = m.session.Snapshot()
	m.Status = fmt.Sprintf("Placed via at %d,%d", m.Cursor.X, m.Cursor.Y)
}

// pickLead selects the lead under the cursor. The second pick queues a
// connection between the two.
func (m *BoardModel) pickLead() {
	l, ok := leadAt(m.snap, m.Cursor)
	if !ok {
		m.Status = "No lead under the cursor"
		return
	}
	if !m.picking {
		m.picked, m.picking = l.ID, true
		m.Status = fmt.Sprintf("Picked %s, pick a second lead", l.Name)
		return
	}

	m.picking = false
	if _, err := m.session.Connect(m.picked, l.ID); err != nil {
		m.Status = errorStatus(err)
		return
	}
	m.snap = m.session.Snapshot()
	m.Status = fmt.Sprintf("Queued %s %s %s", leadName(m.snap, m.picked), iconArrow, l.Name)
}

func (m BoardModel) route() (tea.Model, tea.Cmd) {
	if len(m.snap.Pending) == 0 {
		m.Status = "Nothing queued"
		return m, nil
	}
	m.routing = true
	m.Status = fmt.Sprintf("Routing %d connections...", len(m.snap.Pending))
	s, ctx := m.session, m.ctx
	return m, func() tea.Msg {
		return routedMsg{outcomes: s.Route(ctx)}
	}
}

func (m BoardModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Autoroute"))
	b.WriteString(hintStyle.Render(fmt.Sprintf("  %dx%d  cursor %d,%d  leads %d  traces %d  queued %d",
		m.snap.Width, m.snap.Height, m.Cursor.X, m.Cursor.Y,
		len(m.snap.Leads), len(m.snap.Routed()), len(m.snap.Pending))))
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("arrows move  c lead  v via  l pick lead  esc clear  r route  q quit"))
	b.WriteString("\n\n")

	var picked *netlist.Lead
	if m.picking {
		picked = m.snap.Lead(m.picked)
	}
	rows := render.ASCII(m.snap, m.Offset.X, m.Offset.Y, m.Width, m.Height)
	for dy, row := range rows {
		b.WriteString(m.renderRow(row, m.Offset.Y+dy, picked))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.Status)
	return b.String()
}

// renderRow styles one viewport row, batching runs of equally styled cells.
func (m BoardModel) renderRow(row string, y int, picked *netlist.Lead) string {
	var b strings.Builder
	var run []rune
	var runStyle lipgloss.Style
	var runKey string

	flush := func() {
		if len(run) > 0 {
			b.WriteString(runStyle.Render(string(run)))
			run = run[:0]
		}
	}

	for dx, r := range []rune(row) {
		p := grid.Pt(m.Offset.X+dx, y)
		style, key := cellStyle(r), string(r)
		switch {
		case p == m.Cursor:
			style, key = cellCursorStyle, "cursor"
		case picked != nil && r == render.GlyphLead && covers(picked, p):
			style, key = cellPickedStyle, "picked"
		}
		if key != runKey {
			flush()
			runStyle, runKey = style, key
		}
		run = append(run, r)
	}
	flush()
	return b.String()
}

func cellStyle(r rune) lipgloss.Style {
	switch r {
	case render.GlyphLine:
		return cellLineStyle
	case render.GlyphLead:
		return cellLeadStyle
	case render.GlyphVia:
		return cellViaStyle
	}
	return cellFreeStyle
}

// =============================================================================
// Helpers
// =============================================================================

// covers reports whether p lies on the pad of l.
func covers(l *netlist.Lead, p grid.Point) bool {
	d := p.Sub(l.Origin)
	return max(d.X, -d.X) <= l.HalfExtent && max(d.Y, -d.Y) <= l.HalfExtent
}

// leadAt returns the lead whose pad covers p.
func leadAt(snap *router.Snapshot, p grid.Point) (netlist.Lead, bool) {
	for _, l := range snap.Leads {
		if covers(&l, p) {
			return l, true
		}
	}
	return netlist.Lead{}, false
}

func errorStatus(err error) string {
	return StyleError.Render(fmt.Sprintf("%s %s", iconError, errors.UserMessage(err)))
}

// summarize describes the outcomes of one Route call.
func summarize(snap *router.Snapshot, outcomes []router.Outcome) string {
	var routed, already int
	var failed []string
	for _, o := range outcomes {
		switch o.Status {
		case router.StatusRouted:
			routed++
		case router.StatusAlreadyConnected:
			already++
		case router.StatusFailed:
			failed = append(failed, leadName(snap, o.Start)+"-"+leadName(snap, o.End))
		}
	}
	msg := StyleSuccess.Render(fmt.Sprintf("%s %d routed", iconSuccess, routed))
	if already > 0 {
		msg += hintStyle.Render(fmt.Sprintf(", %d already connected", already))
	}
	if len(failed) > 0 {
		msg += StyleWarning.Render(fmt.Sprintf(", failed: %s", strings.Join(failed, " ")))
	}
	return msg
}
