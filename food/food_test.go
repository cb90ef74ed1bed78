package food

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/hoshinonyaruko/snake-in-browser/grid"
	"github.com/hoshinonyaruko/snake-in-browser/helpers"
	"github.com/hoshinonyaruko/snake-in-browser/scheduler"
	"github.com/hoshinonyaruko/snake-in-browser/structs"
)

func newTestManager(g grid.Grid, seed int64, occupied []structs.Position) (*Manager, *scheduler.Manual) {
	sched := scheduler.NewManual()
	m := NewManager(g, rand.New(rand.NewSource(seed)), sched,
		func() []structs.Position { return occupied }, DefaultOptions())
	return m, sched
}

func TestSpawnAvoidsOccupiedCells(t *testing.T) {
	g := grid.New(30, 4, 3)
	// 除了最后一格全部被占
	cells := g.Cells()
	occupied := cells[:len(cells)-1]
	for seed := int64(0); seed < 20; seed++ {
		m, _ := newTestManager(g, seed, occupied)
		p, err := m.Spawn(occupied)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if p != cells[len(cells)-1] {
			t.Fatalf("seed %d: spawned on %+v, only %+v was free", seed, p, cells[len(cells)-1])
		}
	}
}

func TestSpawnNeverOnSnakeOrFood(t *testing.T) {
	g := grid.New(30, 10, 10)
	occupied := []structs.Position{{Top: 0, Left: 0}, {Top: 0, Left: 30}, {Top: 0, Left: 60}}
	m, _ := newTestManager(g, 42, occupied)
	seen := make(map[structs.Position]bool)
	for i := 0; i < 90; i++ {
		p, err := m.Spawn(occupied)
		if err != nil {
			t.Fatalf("spawn %d: %v", i, err)
		}
		if !g.Valid(p) {
			t.Fatalf("spawned on invalid cell %+v", p)
		}
		for _, o := range occupied {
			if p == o {
				t.Fatalf("spawned on snake cell %+v", p)
			}
		}
		if seen[p] {
			t.Fatalf("spawned twice on %+v", p)
		}
		seen[p] = true
	}
}

func TestSpawnFullBoard(t *testing.T) {
	g := grid.New(30, 3, 3)
	m, _ := newTestManager(g, 1, nil)
	occupied := g.Cells()
	if _, err := m.Spawn(occupied); !errors.Is(err, ErrNoFreeCell) {
		t.Fatalf("expected ErrNoFreeCell, got %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("nothing should have been added")
	}
}

func TestFrenzyDraw(t *testing.T) {
	for n := 0; n <= 100; n++ {
		if got := FrenzyDraw(n); got != (n == 50) {
			t.Errorf("FrenzyDraw(%d) = %v", n, got)
		}
	}
}

func TestMaybeTriggerFrenzyMatchesDraws(t *testing.T) {
	g := grid.New(30, 40, 20)
	const seed = 2024
	m, _ := newTestManager(g, seed, nil)
	replica := rand.New(rand.NewSource(seed))

	triggered := 0
	for i := 0; i < 10000; i++ {
		want := helpers.RandomInt(replica, 0, 100) == 50
		got := m.MaybeTriggerFrenzy()
		if got != want {
			t.Fatalf("trial %d: triggered=%v, draw said %v", i, got, want)
		}
		if got {
			triggered++
		}
	}
	// 期望约 99 次
	if triggered < 50 || triggered > 160 {
		t.Errorf("frenzy triggered %d times in 10000 trials", triggered)
	}
	m.StopFrenzies()
	if m.FrenzyActive() {
		t.Error("frenzies still active after StopFrenzies")
	}
}

func TestFrenzySpawnsFifteenItems(t *testing.T) {
	g := grid.New(30, 40, 20)
	occupied := []structs.Position{{Top: 300, Left: 300}, {Top: 330, Left: 300}}
	m, sched := newTestManager(g, 9, occupied)

	m.startFrenzy()
	if !m.FrenzyActive() {
		t.Fatal("frenzy should be active")
	}
	sched.Advance(50 * time.Millisecond)
	if m.Len() != 5 {
		t.Fatalf("expected 5 items after 50ms, got %d", m.Len())
	}
	sched.Advance(time.Second)
	if m.Len() != 15 {
		t.Fatalf("expected 15 items, got %d", m.Len())
	}
	if m.FrenzyActive() || sched.Active() != 0 {
		t.Errorf("frenzy task should have stopped itself")
	}
	for _, p := range m.Positions() {
		if p == occupied[0] || p == occupied[1] {
			t.Errorf("frenzy spawned on the snake at %+v", p)
		}
	}
}

func TestStopFrenziesCancelsPendingSpawns(t *testing.T) {
	g := grid.New(30, 40, 20)
	m, sched := newTestManager(g, 3, nil)
	m.startFrenzy()
	m.startFrenzy()
	sched.Advance(20 * time.Millisecond)
	before := m.Len()
	m.StopFrenzies()
	sched.Advance(time.Second)
	if m.Len() != before {
		t.Errorf("items kept spawning after stop: %d -> %d", before, m.Len())
	}
	if sched.Active() != 0 {
		t.Errorf("expected no active tasks, got %d", sched.Active())
	}
}

func TestOnConsumedReplacement(t *testing.T) {
	g := grid.New(30, 40, 20)
	m, _ := newTestManager(g, 5, nil)
	p, err := m.Spawn(nil)
	if err != nil {
		t.Fatal(err)
	}
	item, ok := m.At(p)
	if !ok || !item.Active {
		t.Fatalf("spawned item not found at %+v", p)
	}

	m.OnConsumed(item, false, nil)
	if m.Len() != 1 {
		t.Fatalf("expected one replacement, got %d items", m.Len())
	}
	item = m.Items()[0]
	m.OnConsumed(item, true, nil)
	if m.Len() != 0 {
		t.Errorf("no replacement expected when a frenzy was triggered, got %d", m.Len())
	}
}

func TestOnConsumedKeepsOthers(t *testing.T) {
	g := grid.New(30, 40, 20)
	m, _ := newTestManager(g, 6, nil)
	m.Spawn(nil)
	m.Spawn(nil)
	first := m.Items()[0]
	m.OnConsumed(first, false, nil)
	if m.Len() != 1 {
		t.Errorf("another item is still active, no replacement expected; got %d", m.Len())
	}
}

func TestPlaceAndClear(t *testing.T) {
	g := grid.New(30, 10, 10)
	m, _ := newTestManager(g, 8, nil)
	p := structs.Position{Top: 60, Left: 90}
	if !m.Place(p) {
		t.Fatal("placing on a free cell should succeed")
	}
	if m.Place(p) {
		t.Error("placing twice on the same cell should fail")
	}
	if m.Place(structs.Position{Top: 15, Left: 0}) || m.Place(structs.Position{Top: 300, Left: 0}) {
		t.Error("misaligned or out of bounds cells must be rejected")
	}
	m.Clear()
	if m.Len() != 0 {
		t.Errorf("expected empty board, got %d", m.Len())
	}
}
