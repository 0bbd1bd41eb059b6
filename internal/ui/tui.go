// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and feeds it pipeline snapshots
package ui

import (
	"context"
	"errors"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// StatusTUI manages the sender TUI
type StatusTUI struct {
	program  *tea.Program
	updates  chan StatusMsg
	quitChan chan struct{}

	mu     sync.Mutex
	closed bool
}

// New creates a TUI showing initial until the first update. Extra program
// options are passed to bubbletea; tests use them to drop the alt screen.
func New(initial StatusMsg, opts ...tea.ProgramOption) *StatusTUI {
	t := &StatusTUI{
		updates:  make(chan StatusMsg, 10),
		quitChan: make(chan struct{}, 1),
	}
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	t.program = tea.NewProgram(NewModel(initial, t.quitChan), opts...)
	return t
}

// Run blocks until the user quits or Stop is called
func (t *StatusTUI) Run() error {
	go func() {
		for status := range t.updates {
			t.program.Send(status)
		}
	}()

	_, err := t.program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// Update sends a status update to the TUI without blocking
func (t *StatusTUI) Update(status StatusMsg) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	select {
	case t.updates <- status:
	default:
		// Don't block if channel is full
	}
}

// Poll pushes snapshot() every interval until ctx is done
func (t *StatusTUI) Poll(ctx context.Context, interval time.Duration, snapshot func() StatusMsg) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Update(snapshot())
		}
	}
}

// Stop quits the program. Safe to call more than once.
func (t *StatusTUI) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	// Kill does not block when the program was never started
	t.program.Kill()
	close(t.updates)
}

// QuitChan returns the channel that signals when the user wants to quit
func (t *StatusTUI) QuitChan() <-chan struct{} {
	return t.quitChan
}
