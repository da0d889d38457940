// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/climastat/pkg/sinclair"
)

// Error log entry
type errorLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for warnings
}

// Last decoded unit state
type unitSnapshot struct {
	timestamp time.Time
	command   uint8
	state     sinclair.ClimateState
}

// TUI model
type model struct {
	connInfo      string
	layoutName    string
	statsInterval int
	showAll       bool
	stats         *sinclair.Statistics
	errorLog      []errorLogEntry
	maxLogEntries int
	synchronized  bool
	rejected      int
	width         int
	height        int
	quitting      bool
	closed        bool
	lastState     *unitSnapshot
}

// Messages
type tickMsg time.Time
type frameDataMsg frameEvent
type syncMsg struct {
	rejectedFrames int
}
type overflowMsg struct {
	total uint64
}
type connectionClosedMsg struct {
	err error
}

// formatUptime formats a duration in milliseconds to human-friendly string
func formatUptime(ms uint64) string {
	if ms == 0 {
		return "0 seconds"
	}

	seconds := ms / 1000
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	seconds %= 60
	minutes %= 60
	hours %= 24

	plural := func(n uint64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	parts := []string{}
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}

func initialModel(connInfo, layoutName string, statsInterval int, showAll bool) model {
	return model{
		connInfo:      connInfo,
		layoutName:    layoutName,
		statsInterval: statsInterval,
		showAll:       showAll,
		stats:         sinclair.NewStatistics(),
		errorLog:      make([]errorLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.stats.Reset()
			m.addLogEntry("Statistics reset", false)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		// Update statistics rates
		m.stats.CalculateRates()
		return m, tickCmd()

	case syncMsg:
		m.synchronized = true
		m.rejected = msg.rejectedFrames
		if msg.rejectedFrames > 0 {
			m.addLogEntry(fmt.Sprintf("Synchronized after skipping %d corrupt frames", msg.rejectedFrames), false)
		} else {
			m.addLogEntry("Synchronized", false)
		}

	case overflowMsg:
		m.stats.SetOverflows(msg.total)
		m.addLogEntry("Framer overflow, partial frame discarded", true)

	case connectionClosedMsg:
		m.closed = true
		m.addLogEntry(fmt.Sprintf("Connection closed: %v", msg.err), true)

	case frameDataMsg:
		m.stats.Update(msg.decodeErr, msg.validationErrors)
		cmdName := sinclair.FormatCommand(msg.frame.Command())

		if msg.decodeErr != nil {
			m.addLogEntry(fmt.Sprintf("DECODE ERROR: %v", msg.decodeErr), true)
			break
		}

		m.lastState = &unitSnapshot{
			timestamp: msg.timestamp,
			command:   msg.frame.Command(),
			state:     *msg.state,
		}

		if len(msg.validationErrors) > 0 {
			for _, err := range msg.validationErrors {
				m.addLogEntry(fmt.Sprintf("%s: %s", cmdName, err.Message), true)
			}
		} else if m.showAll {
			m.addLogEntry(fmt.Sprintf("%s (valid)", cmdName), false)
		}
	}

	return m, nil
}

func (m *model) addLogEntry(message string, isError bool) {
	m.errorLog = appendLogEntry(m.errorLog, m.maxLogEntries, message, isError)
}

// appendLogEntry appends an entry, keeping only the last max entries
func appendLogEntry(entries []errorLogEntry, max int, message string, isError bool) []errorLogEntry {
	entries = append(entries, errorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(entries) > max {
		entries = entries[len(entries)-max:]
	}
	return entries
}

// tuiStyles holds the shared lipgloss palette
type tuiStyles struct {
	title, header, label, value, error, warning, box lipgloss.Style
}

func newTUIStyles() tuiStyles {
	return tuiStyles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true),
		value: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true),
		warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
	}
}

// renderClimateState renders the decoded unit state as label/value lines
func renderClimateState(st sinclair.ClimateState, styles tuiStyles) string {
	var b strings.Builder
	power := "OFF"
	if st.Power {
		power = "ON"
	}
	b.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		styles.label.Render("Power:"), styles.value.Render(power),
		styles.label.Render("Mode:"), styles.value.Render(st.Mode.String()),
		styles.label.Render("Action:"), styles.value.Render(st.Action().String()),
	))
	b.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		styles.label.Render("Target:"), styles.value.Render(fmt.Sprintf("%d°C", st.TargetTemperature)),
		styles.label.Render("Room:"), styles.value.Render(fmt.Sprintf("%.1f°C", st.CurrentTemperature)),
		styles.label.Render("Fan:"), styles.value.Render(st.Fan.String()),
	))
	b.WriteString(fmt.Sprintf("%s %s (%s / %s)   %s %s %s\n",
		styles.label.Render("Swing:"), styles.value.Render(st.Swing().String()),
		st.VerticalSwing, st.HorizontalSwing,
		styles.label.Render("Display:"), styles.value.Render(st.Display.String()), st.DisplayUnit,
	))

	var toggles []string
	for _, t := range []struct {
		name string
		on   bool
	}{
		{"plasma", st.Plasma}, {"beeper", st.Beeper}, {"sleep", st.Sleep}, {"x-fan", st.XFan}, {"save", st.Save},
	} {
		if t.on {
			toggles = append(toggles, styles.value.Render(t.name))
		} else {
			toggles = append(toggles, styles.header.Render(t.name))
		}
	}
	b.WriteString(styles.label.Render("Options: ") + strings.Join(toggles, " "))
	return b.String()
}

// renderEventLog renders the newest entries that fit in height lines
func renderEventLog(entries []errorLogEntry, height, width int, styles tuiStyles) string {
	if height < 5 {
		height = 5
	}

	var content strings.Builder
	start := len(entries) - height
	if start < 0 {
		start = 0
	}

	if len(entries) == 0 {
		content.WriteString(styles.header.Render("  (no events yet)"))
	} else {
		for _, entry := range entries[start:] {
			timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
			if entry.isError {
				content.WriteString(fmt.Sprintf("%s %s\n",
					styles.header.Render(timestamp),
					styles.error.Render("✗ "+entry.message),
				))
			} else {
				content.WriteString(fmt.Sprintf("%s %s\n",
					styles.header.Render(timestamp),
					styles.warning.Render("ℹ "+entry.message),
				))
			}
		}
	}

	return styles.box.Width(width - 4).Render(content.String())
}

func (m model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	styles := newTUIStyles()

	// Header
	var s strings.Builder
	s.WriteString(styles.title.Render("CLIMASTAT - ERROR DETECTION"))
	s.WriteString("\n")
	mode := "Errors only"
	if m.showAll {
		mode = "All frames"
	}
	s.WriteString(styles.header.Render(fmt.Sprintf("%s | Layout: %s | Mode: %s | 'r' reset, 'q' quit",
		m.connInfo, m.layoutName, mode)))
	s.WriteString("\n\n")

	// Sync status
	switch {
	case m.closed:
		s.WriteString(styles.error.Render("✗ Connection closed"))
	case !m.synchronized:
		s.WriteString(styles.warning.Render("⏳ Waiting for synchronization..."))
	default:
		s.WriteString(styles.value.Render("✓ Synchronized"))
		if m.rejected > 0 {
			s.WriteString(styles.header.Render(fmt.Sprintf(" (skipped %d corrupt frames)", m.rejected)))
		}
	}
	s.WriteString(styles.header.Render(fmt.Sprintf("   monitoring for %s",
		formatUptime(uint64(time.Since(m.stats.StartTime).Milliseconds())))))
	s.WriteString("\n\n")

	// Statistics
	m.stats.CalculateRates()
	var validPercent, errorPercent float64
	if m.stats.TotalFrames > 0 {
		validPercent = float64(m.stats.ValidFrames) * 100.0 / float64(m.stats.TotalFrames)
		errorPercent = float64(m.stats.Errors()) * 100.0 / float64(m.stats.TotalFrames)
	}

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		styles.label.Render("Total:"), styles.value.Render(fmt.Sprintf("%d", m.stats.TotalFrames)),
		styles.label.Render("Valid:"), styles.value.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.ValidFrames, validPercent)),
		styles.label.Render("Errors:"), styles.error.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.Errors(), errorPercent)),
	))

	if m.stats.ChecksumErrors > 0 || m.stats.UnderlengthFrames > 0 || m.stats.DecodeErrors > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
			styles.label.Render("Checksum:"), styles.error.Render(fmt.Sprintf("%d", m.stats.ChecksumErrors)),
			styles.label.Render("Underlength:"), styles.error.Render(fmt.Sprintf("%d", m.stats.UnderlengthFrames)),
			styles.label.Render("Decode:"), styles.error.Render(fmt.Sprintf("%d", m.stats.DecodeErrors)),
		))
	}

	if m.stats.AnomalousFrames > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s (%s: %d, %s: %d, %s: %d, %s: %d)\n",
			styles.label.Render("Anomalous:"), styles.warning.Render(fmt.Sprintf("%d", m.stats.AnomalousFrames)),
			styles.header.Render("length"), m.stats.LengthMismatches,
			styles.header.Render("command"), m.stats.UnknownCommands,
			styles.header.Render("values"), m.stats.InvalidValues,
			styles.header.Render("temp"), m.stats.InvalidTemp,
		))
	}

	if m.stats.Overflows > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s\n",
			styles.label.Render("Overflows:"), styles.error.Render(fmt.Sprintf("%d", m.stats.Overflows)),
		))
	}

	errorRate := styles.value.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
	if m.stats.ErrorRate > 0 {
		errorRate = styles.error.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
	}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s",
		styles.label.Render("Frame Rate:"), styles.value.Render(fmt.Sprintf("%.1f frames/s", m.stats.FrameRate)),
		styles.label.Render("Error Rate:"), errorRate,
	))

	s.WriteString(styles.box.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Unit state (only shown once a frame decoded)
	if m.lastState != nil {
		s.WriteString(styles.label.Render(fmt.Sprintf("Latest %s (%s):",
			sinclair.FormatCommand(m.lastState.command), m.lastState.timestamp.Format("15:04:05"))))
		s.WriteString("\n")
		s.WriteString(styles.box.Render(renderClimateState(m.lastState.state, styles)))
		s.WriteString("\n\n")
	}

	// Error log
	s.WriteString(styles.label.Render("Recent Events:"))
	s.WriteString("\n")
	s.WriteString(renderEventLog(m.errorLog, m.height-19, m.width, styles))

	return s.String()
}
