package main

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/hoshinonyaruko/snake-in-browser/structs"
)

func TestKeyEvent(t *testing.T) {
	tests := []struct {
		name  string
		ev    *tcell.EventKey
		event structs.Event
		quit  bool
		ok    bool
	}{
		{"up", tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), structs.MoveUp, false, true},
		{"right", tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), structs.MoveRight, false, true},
		{"down", tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone), structs.MoveDown, false, true},
		{"left", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), structs.MoveLeft, false, true},
		{"enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), structs.Confirm, false, true},
		{"pause", tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModNone), structs.TogglePause, false, true},
		{"restart", tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone), structs.Restart, false, true},
		{"vi down", tcell.NewEventKey(tcell.KeyRune, 'j', tcell.ModNone), structs.MoveDown, false, true},
		{"quit", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), "", true, false},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), "", true, false},
		{"other", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, quit, ok := keyEvent(tt.ev)
			if event != tt.event || quit != tt.quit || ok != tt.ok {
				t.Errorf("got (%q, %v, %v), want (%q, %v, %v)", event, quit, ok, tt.event, tt.quit, tt.ok)
			}
		})
	}
}

func newTestScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	screen.SetSize(80, 24)
	t.Cleanup(screen.Fini)
	return screen
}

func TestDraw(t *testing.T) {
	screen := newTestScreen(t)
	snap := structs.Snapshot{
		Phase:    structs.PhasePlaying,
		Score:    4,
		Speed:    46,
		Snake:    []structs.Position{{Top: 30, Left: 60}, {Top: 30, Left: 30}},
		Food:     []structs.Position{{Top: 90, Left: 120}},
		Width:    300,
		Height:   150,
		CellSize: 30,
	}
	draw(screen, snap)

	// 头在第 1 行第 2 列，终端坐标 (1+2*2, 1+1)
	if r, _, style, _ := screen.GetContent(5, 2); r != '█' || style != headStyle {
		t.Errorf("head cell: got %q", r)
	}
	if r, _, style, _ := screen.GetContent(3, 2); r != '█' || style != bodyStyle {
		t.Errorf("body cell: got %q", r)
	}
	if r, _, style, _ := screen.GetContent(9, 4); r != '█' || style != foodStyle {
		t.Errorf("food cell: got %q", r)
	}
	if r, _, _, _ := screen.GetContent(0, 0); r != '┌' {
		t.Errorf("top-left corner: got %q", r)
	}
	// 10 列 5 行，右下角在 (21, 6)
	if r, _, _, _ := screen.GetContent(21, 6); r != '┘' {
		t.Errorf("bottom-right corner: got %q", r)
	}

	var line strings.Builder
	for x := 0; x < 20; x++ {
		r, _, _, _ := screen.GetContent(x, 7)
		line.WriteRune(r)
	}
	if !strings.HasPrefix(line.String(), "score 4") {
		t.Errorf("status line %q", line.String())
	}
}

func TestStatusLine(t *testing.T) {
	ended := statusLine(structs.Snapshot{Phase: structs.PhaseEnded, Score: 7, EndReason: structs.EndSelf})
	if !strings.Contains(ended, "score 7") || !strings.Contains(ended, "self") {
		t.Errorf("ended status %q", ended)
	}
	if !strings.Contains(statusLine(structs.Snapshot{Phase: structs.PhasePaused}), "paused") {
		t.Error("paused status should say paused")
	}
}
