// ABOUTME: Tests for the sender TUI model
// ABOUTME: Tests status updates, rate computation, quitting and rendering
package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Resonate-Protocol/udp-audio/pkg/audio/downmix"
	"github.com/Resonate-Protocol/udp-audio/pkg/streamer"
)

func initialStatus() StatusMsg {
	return StatusMsg{
		Source:      "tone 440 Hz",
		Destination: "192.168.1.20:5004",
		Format:      "s16",
		Output:      "left",
		Monitor:     "left",
		State:       "open",
	}
}

func TestApplyStatusKeepsEmptyFields(t *testing.T) {
	m := NewModel(initialStatus(), nil)

	m.applyStatus(StatusMsg{State: "failed", Stats: streamer.Stats{Datagrams: 3}})

	if m.status.State != "failed" {
		t.Errorf("expected state failed, got %q", m.status.State)
	}
	if m.status.Destination != "192.168.1.20:5004" {
		t.Errorf("expected destination to be kept, got %q", m.status.Destination)
	}
	if m.status.Stats.Datagrams != 3 {
		t.Errorf("expected 3 datagrams, got %d", m.status.Stats.Datagrams)
	}
}

func TestTickComputesRate(t *testing.T) {
	var model tea.Model = NewModel(initialStatus(), nil)

	model, _ = model.Update(StatusMsg{Stats: streamer.Stats{Datagrams: 50}})
	model, cmd := model.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Error("expected tick to schedule the next tick")
	}
	model, _ = model.Update(StatusMsg{Stats: streamer.Stats{Datagrams: 100}})
	model, _ = model.Update(tickMsg(time.Now()))

	if got := model.(Model).rate; got != 50 {
		t.Errorf("expected 50 datagrams/s, got %.0f", got)
	}
}

func TestQuitSignalsChannel(t *testing.T) {
	quit := make(chan struct{}, 1)
	var model tea.Model = NewModel(initialStatus(), quit)

	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}

	select {
	case <-quit:
	default:
		t.Error("expected quit signal")
	}

	if !strings.Contains(model.View(), "Stopping") {
		t.Errorf("expected stopping view, got %q", model.View())
	}
}

func TestQuitWithoutChannelDoesNotBlock(t *testing.T) {
	m := NewModel(initialStatus(), nil)
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC}); cmd == nil {
		t.Error("expected quit command")
	}
}

func TestViewShowsStatus(t *testing.T) {
	m := NewModel(initialStatus(), nil)
	m.now = func() time.Time { return m.startTime.Add(90 * time.Second) }
	m.applyStatus(StatusMsg{Stats: streamer.Stats{Buffers: 10, Datagrams: 10, Bytes: 19200}})

	view := m.View()
	for _, want := range []string{"192.168.1.20:5004", "tone 440 Hz", "s16 stereo", "1m30s", "18.8 KiB"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
	if strings.Contains(view, "Problems") {
		t.Error("expected no problems section without errors")
	}
}

func TestViewShowsProblems(t *testing.T) {
	m := NewModel(initialStatus(), nil)
	m.applyStatus(StatusMsg{Stats: streamer.Stats{
		Repeats:    2,
		LastRepeat: downmix.RepeatDiagnostic{Value: 0, Count: 12},
	}})

	view := m.View()
	if !strings.Contains(view, "Problems") || !strings.Contains(view, "value 0 x12") {
		t.Errorf("expected repeat details in view:\n%s", view)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    uint64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestStatusTUIStopIsIdempotent(t *testing.T) {
	tui := New(initialStatus(), tea.WithInput(nil), tea.WithOutput(new(strings.Builder)))
	tui.Stop()
	tui.Stop()
	tui.Update(initialStatus())
}
