package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/repotrawl/repotrawl/internal/core/domain"
)

// phase tracks where in the run the model is.
type phase int

const (
	phasePlanning phase = iota
	phaseFetching
	phaseDone
	phaseFailed
)

// harvestStyles holds the pre-configured lipgloss styles.
type harvestStyles struct {
	title   lipgloss.Style
	stat    lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
}

func newHarvestStyles() harvestStyles {
	return harvestStyles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		stat:    lipgloss.NewStyle().Foreground(lipgloss.Color("#CDD6F4")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		success: lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		failure: lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
	}
}

// HarvestModel is the Elm-style model for harvest progress. It starts
// in the planning phase with a spinner, switches to a progress bar once
// the partition plan arrives, and quits on DoneMsg or ErrMsg.
type HarvestModel struct {
	cancel context.CancelFunc

	spinner spinner.Model
	bar     progress.Model
	styles  harvestStyles

	phase      phase
	totalCount int
	partitions int
	batches    int
	fetched    int
	percent    float64
	cloned     int
	cloneErrs  int
	lastRepo   string
	started    time.Time
	summary    *domain.HarvestSummary
	err        error
	cancelling bool
	width      int
}

// NewHarvestModel creates a model. cancel is invoked when the user
// aborts the run; it may be nil.
func NewHarvestModel(cancel context.CancelFunc) HarvestModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4"))

	return HarvestModel{
		cancel:  cancel,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient()),
		styles:  newHarvestStyles(),
		started: time.Now(),
		width:   80,
	}
}

// Init starts the planning spinner.
func (m HarvestModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and updates the model.
func (m HarvestModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// First press cancels the run and waits for it to wind
			// down. A second press force-quits.
			if m.cancelling {
				return m, tea.Quit
			}
			m.cancelling = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		barWidth := msg.Width - 8
		if barWidth > 64 {
			barWidth = 64
		}
		if barWidth > 0 {
			m.bar.Width = barWidth
		}
		return m, nil

	case spinner.TickMsg:
		if m.phase != phasePlanning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case PlanMsg:
		m.phase = phaseFetching
		m.totalCount = msg.TotalCount
		m.partitions = msg.Partitions
		return m, nil

	case BatchMsg:
		m.batches++
		m.fetched = msg.Batch.CountProgress
		m.percent = msg.Batch.Progress
		return m, nil

	case CloneMsg:
		if msg.Err != nil {
			m.cloneErrs++
		} else {
			m.cloned++
		}
		m.lastRepo = msg.FullName
		return m, nil

	case DoneMsg:
		m.phase = phaseDone
		m.summary = msg.Summary
		return m, tea.Quit

	case ErrMsg:
		m.phase = phaseFailed
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI.
func (m HarvestModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render("repotrawl harvest"))
	b.WriteString("\n\n")

	switch m.phase {
	case phasePlanning:
		b.WriteString(fmt.Sprintf("  %s Measuring and partitioning the creation window...\n",
			m.spinner.View()))

	case phaseFetching:
		b.WriteString("  " + m.bar.ViewAs(m.percent) + "\n\n")
		b.WriteString("  " + m.styles.stat.Render(m.statLine()) + "\n")
		if m.lastRepo != "" {
			b.WriteString("  " + m.styles.muted.Render("last clone: "+m.lastRepo) + "\n")
		}

	case phaseDone:
		b.WriteString("  " + m.styles.success.Render("Harvest complete.") + "\n")
		if m.summary != nil {
			b.WriteString("  " + m.styles.stat.Render(fmt.Sprintf(
				"run %s: %d/%d repositories in %d batches, %d cloned, %d clone errors",
				m.summary.RunID, m.summary.Fetched, m.summary.TotalCount,
				m.summary.Batches, m.summary.Cloned, m.summary.CloneErrors)) + "\n")
		}

	case phaseFailed:
		b.WriteString("  " + m.styles.failure.Render(fmt.Sprintf("Harvest failed: %v", m.err)) + "\n")
	}

	if m.cancelling && m.phase != phaseDone && m.phase != phaseFailed {
		b.WriteString("\n  " + m.styles.failure.Render("Cancelling, waiting for workers...") + "\n")
	} else if m.phase == phasePlanning || m.phase == phaseFetching {
		b.WriteString("\n  " + m.styles.muted.Render("q to cancel") + "\n")
	}

	return b.String()
}

// statLine summarises progress in a single line.
func (m HarvestModel) statLine() string {
	line := fmt.Sprintf("batches %d/%d · fetched %d/%d",
		m.batches, m.partitions, m.fetched, m.totalCount)
	if m.cloned > 0 || m.cloneErrs > 0 {
		line += fmt.Sprintf(" · cloned %d", m.cloned)
		if m.cloneErrs > 0 {
			line += fmt.Sprintf(" (%d failed)", m.cloneErrs)
		}
	}
	line += fmt.Sprintf(" · elapsed %s", time.Since(m.started).Round(time.Second))
	return line
}
