// Package display provides the terminal UI using Bubble Tea.
//
// The [Player] type renders a transport view for one story: title, a
// playhead progress bar, the active clip, and key hints. It only ever
// reads timeline snapshots and issues play/pause/stop/seek intents —
// audio I/O stays in the playback scheduler.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"voxtale/internal/domain"
	"voxtale/internal/timeline"
)

// seekStepMs is how far the arrow keys move the playhead.
const seekStepMs = 5000

// refreshInterval paces snapshot polling. Faster than this just burns
// redraws the eye can't see.
const refreshInterval = 100 * time.Millisecond

// ── Styles ───────────────────────────────────────────────────────

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd")).
			Bold(true)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	clipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0"))

	gapStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a")).
			Italic(true)

	statusPlayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a"))

	statusPauseStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a1a1aa"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))

	// BannerStyle — muted slate for the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))
)

// ── Player ───────────────────────────────────────────────────────

// Player is the interactive transport UI for one story.
type Player struct {
	program *tea.Program
	quitCh  chan struct{}
}

// NewPlayer creates the transport UI over the given timeline state.
// The story is kept so the space key can restart playback after a stop.
func NewPlayer(state *timeline.State, story *domain.Story) *Player {
	m := playerModel{
		state: state,
		story: story,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		width: 80,
	}
	return &Player{
		program: tea.NewProgram(m),
		quitCh:  make(chan struct{}),
	}
}

// Run starts the Bubble Tea event loop. Blocks until quit.
func (p *Player) Run() error {
	_, err := p.program.Run()
	close(p.quitCh)
	return err
}

// Quit tells Bubble Tea to exit.
func (p *Player) Quit() {
	if p.program != nil {
		p.program.Quit()
	}
}

// QuitChan is closed when Run returns.
func (p *Player) QuitChan() <-chan struct{} { return p.quitCh }

// ── Bubble Tea model ─────────────────────────────────────────────

type playerModel struct {
	state *timeline.State
	story *domain.Story
	bar   progress.Model
	snap  timeline.Snapshot
	width int
}

type refreshMsg time.Time

func refreshCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m playerModel) Init() tea.Cmd {
	return refreshCmd()
}

func (m playerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.state.Stop()
			return m, tea.Quit

		case " ":
			if m.snap.Playing {
				m.state.Pause()
			} else {
				// A finished story restarts from the top; a paused one
				// resumes from the pinned position.
				if m.snap.TotalMs > 0 && m.snap.PositionMs >= m.snap.TotalMs {
					m.state.Stop()
				}
				m.state.Play(m.story.ID, m.story.Items)
			}
			m.snap = m.state.Snapshot()
			return m, nil

		case "s":
			m.state.Stop()
			m.snap = m.state.Snapshot()
			return m, nil

		case "left":
			m.state.Seek(m.snap.PositionMs - seekStepMs)
			m.snap = m.state.Snapshot()
			return m, nil

		case "right":
			m.state.Seek(m.snap.PositionMs + seekStepMs)
			m.snap = m.state.Snapshot()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		barWidth := msg.Width - 4
		if barWidth > 72 {
			barWidth = 72
		}
		if barWidth > 0 {
			m.bar.Width = barWidth
		}
		return m, nil

	case refreshMsg:
		m.snap = m.state.Snapshot()
		return m, refreshCmd()
	}

	return m, nil
}

func (m playerModel) View() string {
	var b strings.Builder

	b.WriteByte('\n')
	b.WriteString("  " + titleStyle.Render(m.story.Title) + "\n\n")

	total := m.snap.TotalMs
	if total <= 0 {
		total = m.story.TotalDurationMs()
	}
	pct := 0.0
	if total > 0 {
		pct = m.snap.PositionMs / total
	}
	b.WriteString("  " + m.bar.ViewAs(pct) + "\n")
	b.WriteString("  " + timeStyle.Render(
		fmtPosition(m.snap.PositionMs)+" / "+fmtPosition(total)) + "  " + m.statusLine() + "\n\n")

	b.WriteString("  " + m.clipLine() + "\n\n")
	b.WriteString("  " + hintStyle.Render("space play/pause · s stop · ←/→ seek 5s · q quit") + "\n")
	return b.String()
}

func (m playerModel) statusLine() string {
	if m.snap.Playing {
		return statusPlayStyle.Render("▶ playing")
	}
	if m.snap.PositionMs > 0 {
		return statusPauseStyle.Render("⏸ paused")
	}
	return statusPauseStyle.Render("■ stopped")
}

func (m playerModel) clipLine() string {
	items := m.snap.Items
	if items == nil {
		items = m.story.Items
	}
	if active := timeline.ActiveItem(items, m.snap.PositionMs); active != nil {
		offset := m.snap.PositionMs - active.StartTimeMs
		return clipStyle.Render(fmt.Sprintf("clip %s  +%s", active.ID, fmtPosition(offset)))
	}
	if next := timeline.NextItem(items, m.snap.PositionMs); next != nil {
		return gapStyle.Render(fmt.Sprintf("silence · next clip %s at %s", next.ID, fmtPosition(next.StartTimeMs)))
	}
	return gapStyle.Render("end of story")
}

// ── Helpers ──────────────────────────────────────────────────────

func fmtPosition(ms float64) string {
	if ms < 0 {
		ms = 0
	}
	totalSec := int(ms / 1000)
	min := totalSec / 60
	sec := totalSec % 60
	return fmt.Sprintf("%d:%02d", min, sec)
}
