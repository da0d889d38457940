// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/climastat/pkg/sinclair"
	"github.com/Thermoquad/climastat/pkg/unit"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

// Focus states
const (
	focusControlList = iota
	focusTargetInput
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// controlItem is one adjustable unit parameter
type controlItem struct {
	key     string   // Request.Set key
	title   string
	options []string // nil for the numeric setpoint
	value   string
}

// Implement list.Item interface
func (c controlItem) Title() string       { return c.title }
func (c controlItem) Description() string { return c.value }
func (c controlItem) FilterValue() string { return c.key }

// controlModel is the Bubble Tea model for the control TUI
type controlModel struct {
	// Connection manager (for sending requests and reconnection)
	connMgr  *connectionManager
	connInfo string
	layout   *sinclair.Layout
	traits   sinclair.Traits

	// Unit state
	state    sinclair.ClimateState
	known    bool
	lastSeen time.Time

	controls list.Model

	// Monitoring (reused from tui.go patterns)
	stats         sinclair.Statistics
	errorLog      []errorLogEntry
	maxLogEntries int

	// Control
	targetInput  textinput.Model
	focusedField int

	// UI state
	width          int
	height         int
	quitting       bool
	connectionLost bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type controlTickMsg time.Time

type stateChangedMsg struct {
	change unit.Change
}

type appliedMsg struct {
	desc string
	sent bool
	err  error
}

type connectionLostMsg struct {
	err error
}

type reconnectedMsg struct {
	connInfo string
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialControlModel(connMgr *connectionManager, connInfo string, layout *sinclair.Layout) controlModel {
	traits := layout.Traits()

	// Text input for the setpoint
	ti := textinput.New()
	ti.Placeholder = strconv.Itoa(unit.DefaultTargetTemperature)
	ti.CharLimit = 2
	ti.Width = 4

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	controls := list.New([]list.Item{}, delegate, 30, 20)
	controls.Title = "Parameters"
	controls.SetShowStatusBar(false)
	controls.SetShowHelp(false)
	controls.SetFilteringEnabled(false)

	m := controlModel{
		connMgr:       connMgr,
		connInfo:      connInfo,
		layout:        layout,
		traits:        traits,
		state:         sinclair.ClimateState{TargetTemperature: unit.DefaultTargetTemperature},
		controls:      controls,
		stats:         *sinclair.NewStatistics(),
		errorLog:      make([]errorLogEntry, 0),
		maxLogEntries: 100,
		targetInput:   ti,
		focusedField:  focusControlList,
		width:         80,
		height:        24,
	}
	m.refreshControls()
	return m
}

// controlItems lists the parameters the layout can carry
func controlItems(traits sinclair.Traits, layout *sinclair.Layout) []controlItem {
	names := func(n int, name func(int) string) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = name(i)
		}
		return out
	}
	onOff := []string{"off", "on"}

	items := []controlItem{
		{key: "power", title: "Power", options: onOff},
		{key: "mode", title: "Mode", options: names(len(traits.Modes), func(i int) string { return traits.Modes[i].String() })},
		{key: "target", title: "Setpoint"},
		{key: "fan", title: "Fan", options: names(len(traits.FanModes), func(i int) string { return traits.FanModes[i].String() })},
		{key: "swing", title: "Swing", options: names(len(traits.SwingModes), func(i int) string { return traits.SwingModes[i].String() })},
	}
	optional := []struct {
		field string
		item  controlItem
	}{
		{sinclair.FieldVerticalSwing, controlItem{key: "vswing", title: "Vertical louvre", options: sinclair.VerticalSwingOptions()}},
		{sinclair.FieldHorizontalSwing, controlItem{key: "hswing", title: "Horizontal louvre", options: sinclair.HorizontalSwingOptions()}},
		{sinclair.FieldDisplay, controlItem{key: "display", title: "Display", options: sinclair.DisplayOptions()}},
		{sinclair.FieldDisplayUnit, controlItem{key: "unit", title: "Display unit", options: sinclair.DisplayUnitOptions()}},
		{sinclair.FieldPlasma, controlItem{key: "plasma", title: "Plasma", options: onOff}},
		{sinclair.FieldBeeper, controlItem{key: "beeper", title: "Beeper", options: onOff}},
		{sinclair.FieldSleep, controlItem{key: "sleep", title: "Sleep", options: onOff}},
		{sinclair.FieldXFan, controlItem{key: "xfan", title: "X-Fan", options: onOff}},
		{sinclair.FieldSave, controlItem{key: "save", title: "Save", options: onOff}},
	}
	for _, o := range optional {
		if _, ok := layout.Field(o.field); ok {
			items = append(items, o.item)
		}
	}
	return items
}

// controlValue returns the current value of a parameter as an option string
func controlValue(key string, st sinclair.ClimateState) string {
	sw := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}
	switch key {
	case "power":
		return sw(st.Power)
	case "mode":
		return st.Mode.String()
	case "target":
		return fmt.Sprintf("%d", st.TargetTemperature)
	case "fan":
		return st.Fan.String()
	case "swing":
		return st.Swing().String()
	case "vswing":
		return st.VerticalSwing.String()
	case "hswing":
		return st.HorizontalSwing.String()
	case "display":
		return st.Display.String()
	case "unit":
		return st.DisplayUnit.String()
	case "plasma":
		return sw(st.Plasma)
	case "beeper":
		return sw(st.Beeper)
	case "sleep":
		return sw(st.Sleep)
	case "xfan":
		return sw(st.XFan)
	case "save":
		return sw(st.Save)
	}
	return ""
}

// nextOption steps through options from the current value, wrapping around
func nextOption(options []string, current string, delta int) string {
	idx := -1
	for i, o := range options {
		if strings.EqualFold(o, current) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return options[0]
	}
	n := len(options)
	return options[((idx+delta)%n+n)%n]
}

func (m *controlModel) refreshControls() {
	defs := controlItems(m.traits, m.layout)
	items := make([]list.Item, len(defs))
	for i, d := range defs {
		d.value = controlValue(d.key, m.state)
		items[i] = d
	}
	m.controls.SetItems(items)
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m controlModel) Init() tea.Cmd {
	return controlTickCmd()
}

func controlTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return controlTickMsg(t)
	})
}

func (m controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
			m.controls, _ = m.controls.Update(msg)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()

	case controlTickMsg:
		m.stats = m.connMgr.currentStats()
		m.stats.CalculateRates()
		return m, controlTickCmd()

	case stateChangedMsg:
		if st, ok := m.connMgr.getUnit().Store().State(); ok {
			m.state = st
			m.known = true
			m.lastSeen = time.Now()
		}
		if msg.change.Old != nil {
			m.addLogEntry(msg.change.String(), false)
		} else if msg.change.Field == unit.FieldPower {
			m.addLogEntry("First report received", false)
		}
		m.refreshControls()

	case appliedMsg:
		switch {
		case msg.err != nil:
			m.addLogEntry(fmt.Sprintf("%s: %v", msg.desc, msg.err), true)
		case msg.sent:
			m.addLogEntry(fmt.Sprintf("Sent %s", msg.desc), false)
		default:
			m.addLogEntry(fmt.Sprintf("%s unchanged, nothing sent", msg.desc), false)
		}

	case connectionLostMsg:
		m.connectionLost = true
		m.addLogEntry(fmt.Sprintf("Connection lost (%v) - reconnecting...", msg.err), true)

	case reconnectedMsg:
		m.connectionLost = false
		m.connInfo = msg.connInfo
		m.known = false
		m.addLogEntry("Reconnected - waiting for unit report", false)
	}

	// Update child components
	var cmd tea.Cmd
	if m.focusedField == focusTargetInput {
		m.targetInput, cmd = m.targetInput.Update(msg)
	}
	return m, cmd
}

func (m controlModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.focusedField == focusTargetInput {
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "esc":
			m.blurTarget()
			return m, nil
		case "enter":
			value := m.targetInput.Value()
			m.blurTarget()
			return m, m.send("target", value)
		}
		var cmd tea.Cmd
		m.targetInput, cmd = m.targetInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "t":
		return m, m.focusTarget()

	case "+", "=":
		return m, m.send("target", strconv.Itoa(m.state.TargetTemperature+m.traits.TemperatureStep))

	case "-":
		return m, m.send("target", strconv.Itoa(m.state.TargetTemperature-m.traits.TemperatureStep))

	case "left", "h":
		return m, m.cycleSelected(-1)

	case "right", "l", "enter", " ":
		item, ok := m.controls.SelectedItem().(controlItem)
		if ok && item.options == nil {
			return m, m.focusTarget()
		}
		return m, m.cycleSelected(1)

	case "up", "k", "down", "j":
		m.controls, _ = m.controls.Update(msg)
	}

	return m, nil
}

func (m *controlModel) focusTarget() tea.Cmd {
	m.focusedField = focusTargetInput
	m.targetInput.SetValue("")
	return m.targetInput.Focus()
}

func (m *controlModel) blurTarget() {
	m.focusedField = focusControlList
	m.targetInput.Blur()
}

// cycleSelected moves the selected parameter to its next or previous option
func (m *controlModel) cycleSelected(delta int) tea.Cmd {
	item, ok := m.controls.SelectedItem().(controlItem)
	if !ok || item.options == nil {
		return nil
	}
	return m.send(item.key, nextOption(item.options, item.value, delta))
}

// send builds a one-field request and hands it to the connection manager
func (m *controlModel) send(key, value string) tea.Cmd {
	// Don't allow control requests while connection is lost
	if m.connectionLost {
		m.addLogEntry("Cannot send request: connection lost", true)
		return nil
	}

	var req unit.Request
	if err := req.Set(key, value); err != nil {
		m.addLogEntry(fmt.Sprintf("Invalid %s: %v", key, err), true)
		return nil
	}
	return m.connMgr.apply(fmt.Sprintf("%s=%s", key, value), req)
}

func (m *controlModel) addLogEntry(message string, isError bool) {
	m.errorLog = appendLogEntry(m.errorLog, m.maxLogEntries, message, isError)
}

func (m *controlModel) updateListSize() {
	h := m.height - 14
	if h < 8 {
		h = 8
	}
	m.controls.SetSize(30, h)
}

func (m controlModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	styles := newTUIStyles()
	focusedBoxStyle := styles.box.
		BorderForeground(lipgloss.Color("12"))

	var s strings.Builder

	// Header
	s.WriteString(styles.title.Render("CLIMASTAT CONTROL"))
	s.WriteString(" ")
	connStatus := m.connInfo
	if m.connectionLost {
		connStatus = styles.warning.Render("RECONNECTING...")
	}
	s.WriteString(styles.header.Render(fmt.Sprintf("| %s | %s | q=quit ←/→=change t=setpoint +/-", connStatus, m.layout.Name)))
	s.WriteString("\n\n")

	// Layout: left panel (parameters) | right panel (state)
	leftWidth := 30
	rightWidth := m.width - leftWidth - 6
	if rightWidth < 20 {
		rightWidth = 20
	}

	listStyle := focusedBoxStyle.Width(leftWidth)
	if m.focusedField != focusControlList {
		listStyle = styles.box.Width(leftWidth)
	}
	controlPanel := listStyle.Render(m.controls.View())

	var right strings.Builder
	if !m.known {
		right.WriteString(styles.warning.Render("Waiting for unit report..."))
		right.WriteString("\n\n")
	} else {
		right.WriteString(styles.header.Render(fmt.Sprintf("Last report %s", m.lastSeen.Format("15:04:05"))))
		right.WriteString("\n")
	}
	right.WriteString(renderClimateState(m.state, styles))
	right.WriteString("\n\n")
	right.WriteString(styles.label.Render("Setpoint: "))
	if m.focusedField == focusTargetInput {
		right.WriteString(m.targetInput.View())
		right.WriteString(styles.header.Render(fmt.Sprintf("  (%d-%d, enter to send, esc to cancel)",
			m.traits.MinTemperature, m.traits.MaxTemperature)))
	} else {
		right.WriteString(fmt.Sprintf("[%d°C]", m.state.TargetTemperature))
	}
	statePanel := styles.box.Width(rightWidth).Render(right.String())

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, controlPanel, " ", statePanel))
	s.WriteString("\n\n")

	// Statistics bar
	s.WriteString(m.renderStatisticsBar(styles))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(styles.label.Render("Recent Events:"))
	s.WriteString("\n")
	s.WriteString(renderEventLog(m.errorLog, 6, m.width, styles))

	return s.String()
}

func (m controlModel) renderStatisticsBar(styles tuiStyles) string {
	var validPercent, errorPercent float64
	if m.stats.TotalFrames > 0 {
		validPercent = float64(m.stats.ValidFrames) * 100.0 / float64(m.stats.TotalFrames)
		errorPercent = float64(m.stats.Errors()) * 100.0 / float64(m.stats.TotalFrames)
	}

	errors := styles.value.Render("0.0%")
	if errorPercent > 0 {
		errors = styles.error.Render(fmt.Sprintf("%.1f%%", errorPercent))
	}
	content := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s",
		styles.label.Render("Total:"), styles.value.Render(fmt.Sprintf("%d", m.stats.TotalFrames)),
		styles.label.Render("Valid:"), styles.value.Render(fmt.Sprintf("%.1f%%", validPercent)),
		styles.label.Render("Errors:"), errors,
		styles.label.Render("Rate:"), styles.value.Render(fmt.Sprintf("%.1f frames/s", m.stats.FrameRate)),
	)

	return styles.box.Width(m.width - 4).Render(content)
}
