// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/climastat/internal/logging"
	"github.com/Thermoquad/climastat/pkg/sinclair"
	"github.com/Thermoquad/climastat/pkg/unit"
)

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Interactive TUI for controlling an air-conditioner",
	Long: `Control a Sinclair indoor unit via an interactive terminal UI.

This command provides a TUI for monitoring and controlling a unit connected
via UART (direct connection), a WebSocket serial bridge, or --demo.

Features:
  - Live unit state (mode, setpoint, room temperature, fan, louvres)
  - Every parameter the layout carries, changed with left/right
  - Setpoint entry
  - Statistics tracking
  - Event logging of every reported change
  - Automatic reconnection on connection loss

Up/down selects a parameter, left/right or enter changes it, +/- nudges the
setpoint, 't' types a setpoint. Unchanged requests are not transmitted.`,
	RunE: runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
}

// connectionManager handles connection lifecycle and reconnection
type connectionManager struct {
	conn        Connection
	unit        *unit.Unit
	connInfo    string
	unsubscribe func()
	mu          sync.RWMutex
	p           *tea.Program
	done        chan struct{}
}

func (cm *connectionManager) getUnit() *unit.Unit {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.unit
}

// attach makes u the active unit and forwards its state changes to the TUI
func (cm *connectionManager) attach(conn Connection, u *unit.Unit, connInfo string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.unsubscribe != nil {
		cm.unsubscribe()
	}
	cm.conn = conn
	cm.unit = u
	cm.connInfo = connInfo
	cm.unsubscribe = u.Store().Subscribe(func(c unit.Change) {
		cm.p.Send(stateChangedMsg{change: c})
	})
}

func (cm *connectionManager) close() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.conn != nil {
		cm.conn.Close()
	}
}

// apply sends a request from a tea command goroutine
func (cm *connectionManager) apply(desc string, req unit.Request) tea.Cmd {
	return func() tea.Msg {
		u := cm.getUnit()
		if u == nil {
			return appliedMsg{desc: desc, err: fmt.Errorf("not connected")}
		}
		sent, err := u.Apply(req)
		return appliedMsg{desc: desc, sent: sent, err: err}
	}
}

func runControl(cmd *cobra.Command, args []string) error {
	layout, err := selectedLayout()
	if err != nil {
		return err
	}

	// Open initial connection (serial, WebSocket or demo)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	u, err := newUnit(conn, "control")
	if err != nil {
		conn.Close()
		return err
	}

	cm := &connectionManager{done: make(chan struct{})}

	// Create TUI model with connection manager
	m := initialControlModel(cm, connInfo, layout)

	// Create TUI program with alt screen and mouse support
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	cm.p = p
	cm.attach(conn, u, connInfo)

	go cm.readerLoop()

	// Run TUI
	_, err = p.Run()
	close(cm.done) // Signal goroutines to stop
	cm.close()
	if err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

// readerLoop runs the unit with automatic reconnection
func (cm *connectionManager) readerLoop() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-cm.done
		cancel()
	}()

	for {
		err := cm.getUnit().Run(ctx, cfg.PollInterval())

		select {
		case <-cm.done:
			return
		default:
		}

		logging.Warn("unit link lost", zap.Error(err))
		cm.p.Send(connectionLostMsg{err: err})

		if !cm.reconnect() {
			return // Shutdown requested during reconnect
		}
	}
}

// reconnect attempts to reconnect with exponential backoff
// Returns false if shutdown was requested during reconnection
func (cm *connectionManager) reconnect() bool {
	cm.close()

	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-cm.done:
			return false
		case <-time.After(backoff):
		}

		// Attempt to reconnect
		conn, connInfo, err := OpenConnection()
		if err == nil {
			u, uerr := newUnit(conn, "control")
			if uerr != nil {
				conn.Close()
				return false
			}
			cm.attach(conn, u, connInfo)

			// Notify TUI about reconnection
			cm.p.Send(reconnectedMsg{connInfo: connInfo})
			return true
		}
		logging.Debug("reconnect failed", zap.Error(err), zap.Duration("backoff", backoff))

		// Exponential backoff
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// currentStats returns the active unit's statistics
func (cm *connectionManager) currentStats() sinclair.Statistics {
	if u := cm.getUnit(); u != nil {
		return u.Stats()
	}
	return *sinclair.NewStatistics()
}
