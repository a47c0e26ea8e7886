package cli

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// runWatch starts the live status view
func runWatch(cmd *cobra.Command, container *CLIContainer, flags *StatusFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	model := newWatchModel(ctx, container, flags.RefreshRate)
	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithOutput(cmd.OutOrStdout()),
	)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("status view failed: %w", err)
	}
	return nil
}

// watchModel holds the state for the Bubble Tea status view
type watchModel struct {
	ctx         context.Context
	container   *CLIContainer
	refreshRate time.Duration
	report      *statusReport
	paused      bool
	err         error
}

// newWatchModel creates a new status view model
func newWatchModel(ctx context.Context, container *CLIContainer, refreshRate time.Duration) watchModel {
	return watchModel{
		ctx:         ctx,
		container:   container,
		refreshRate: refreshRate,
	}
}

// Init implements the Bubble Tea init method
func (m watchModel) Init() tea.Cmd {
	return tea.Batch(
		m.tickCmd(),
		m.collectCmd(),
	)
}

// Update implements the Bubble Tea update method
func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit

		case " ", "space":
			m.paused = !m.paused
			return m, nil

		case "r":
			// Force refresh
			return m, m.collectCmd()
		}

	case tickMsg:
		if !m.paused {
			return m, tea.Batch(
				m.tickCmd(),
				m.collectCmd(),
			)
		}
		return m, m.tickCmd()

	case statusCollectedMsg:
		m.report = &msg.report
		m.err = nil
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

// View implements the Bubble Tea view method
func (m watchModel) View() string {
	var body string
	switch {
	case m.err != nil:
		body = disabledStyle.Render(fmt.Sprintf("Error: %v", m.err))
	case m.report == nil:
		body = mutedStyle.Render("Reading CPU governors...")
	default:
		body = renderStatus(*m.report)
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, "", m.renderFooter())
}

// renderFooter renders the control instructions footer
func (m watchModel) renderFooter() string {
	status := "LIVE"
	if m.paused {
		status = "PAUSED"
	}
	updated := "never"
	if m.report != nil {
		updated = m.report.CollectedAt.Format("15:04:05")
	}

	info := fmt.Sprintf("%s | Last Update: %s | Refresh Rate: %v", status, updated, m.refreshRate)
	controls := "Controls: [Space] Pause/Resume | [r] Refresh | [q] Quit"

	return lipgloss.JoinVertical(lipgloss.Left,
		mutedStyle.Render(info),
		labelStyle.Render(controls),
	)
}

// tickMsg is sent every refresh interval
type tickMsg time.Time

// tickCmd creates a tick command
func (m watchModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// statusCollectedMsg is sent when a fresh report is available
type statusCollectedMsg struct {
	report statusReport
}

// errMsg is sent when collecting the report fails
type errMsg struct {
	err error
}

// collectCmd reads the current status
func (m watchModel) collectCmd() tea.Cmd {
	return func() tea.Msg {
		report, err := collectStatus(m.ctx, m.container)
		if err != nil {
			return errMsg{err: err}
		}
		return statusCollectedMsg{report: report}
	}
}
