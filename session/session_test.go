package session

import (
	"image"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hoshinonyaruko/snake-in-browser/game"
	"github.com/hoshinonyaruko/snake-in-browser/memimg"
	"github.com/hoshinonyaruko/snake-in-browser/scheduler"
	"github.com/hoshinonyaruko/snake-in-browser/structs"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestRegistry() (*Registry, *scheduler.Manual, *fakeClock) {
	sched := scheduler.NewManual()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	r := NewRegistry(sched)
	r.SetClock(clock.Now)
	return r, sched, clock
}

// tinySettings 3x3 的棋盘，蛇直行几步就会撞墙
func tinySettings() game.Settings {
	s := game.DefaultSettings()
	s.Columns = 3
	s.Rows = 3
	return s
}

func TestCreateGetDelete(t *testing.T) {
	r, _, _ := newTestRegistry()
	s := r.Create(game.DefaultSettings())

	if _, err := uuid.Parse(s.ID); err != nil {
		t.Fatalf("session id %q is not a uuid: %v", s.ID, err)
	}
	if s.Game.ID() != s.ID {
		t.Errorf("game id %q differs from session id %q", s.Game.ID(), s.ID)
	}
	if got, err := r.Get(s.ID); err != nil || got != s {
		t.Fatalf("get: %v", err)
	}
	if r.Count() != 1 {
		t.Errorf("expected 1 session, got %d", r.Count())
	}

	memimg.StoreFrame(s.ID, "v", image.NewRGBA(image.Rect(0, 0, 1, 1)))
	if err := r.Delete(s.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := memimg.GetFrameFromMemory(s.ID, "v"); ok {
		t.Error("delete must drop the cached frame")
	}
	if _, err := r.Get(s.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := r.Delete(s.ID); err != ErrNotFound {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteStopsTicking(t *testing.T) {
	r, sched, _ := newTestRegistry()
	s := r.Create(game.DefaultSettings())
	s.Game.Handle(structs.Confirm)
	if sched.Active() == 0 {
		t.Fatal("playing game should have an active timer")
	}
	r.Delete(s.ID)
	if sched.Active() != 0 {
		t.Errorf("expected no active timers after delete, got %d", sched.Active())
	}
}

func TestResultsReachHooks(t *testing.T) {
	r, sched, clock := newTestRegistry()
	var results []structs.Result
	r.OnResult(func(res structs.Result) { results = append(results, res) })

	s := r.Create(tinySettings(), game.WithRand(rand.New(rand.NewSource(3))), game.WithClock(clock.Now))
	s.Game.Handle(structs.Confirm)
	sched.Advance(time.Second)

	if !s.Game.Ended() {
		t.Fatal("a snake on a 3x3 board without input must hit a wall")
	}
	if len(results) != 1 {
		t.Fatalf("expected exactly one result, got %d", len(results))
	}
	if results[0].SessionID != s.ID {
		t.Errorf("result session %q, want %q", results[0].SessionID, s.ID)
	}
}

func TestReap(t *testing.T) {
	r, sched, clock := newTestRegistry()
	ttl := time.Minute

	ended := r.Create(tinySettings(), game.WithRand(rand.New(rand.NewSource(5))), game.WithClock(clock.Now))
	ended.Game.Handle(structs.Confirm)
	sched.Advance(time.Second)
	if !ended.Game.Ended() {
		t.Fatal("expected the tiny game to end")
	}

	idle := r.Create(game.DefaultSettings())

	clock.Add(30 * time.Second)
	if n := r.Reap(ttl); n != 0 {
		t.Fatalf("nothing should expire yet, reaped %d", n)
	}

	// 访问过的对局重新计时
	clock.Add(20 * time.Second)
	if _, err := r.Get(idle.ID); err != nil {
		t.Fatal(err)
	}

	clock.Add(15 * time.Second)
	if n := r.Reap(ttl); n != 1 {
		t.Fatalf("expected only the ended session to expire, reaped %d", n)
	}
	if _, err := r.Get(ended.ID); err != ErrNotFound {
		t.Error("ended session should be gone")
	}

	clock.Add(time.Minute)
	if n := r.Reap(ttl); n != 1 {
		t.Errorf("expected the idle session to expire, reaped %d", n)
	}
	if r.Count() != 0 {
		t.Errorf("expected empty registry, got %d", r.Count())
	}
}

func TestJanitor(t *testing.T) {
	r, sched, clock := newTestRegistry()
	r.Create(game.DefaultSettings())

	task := r.StartJanitor(time.Second, func() time.Duration { return time.Minute })
	defer task.Stop()

	sched.Advance(time.Second)
	if r.Count() != 1 {
		t.Fatal("fresh session reaped too early")
	}
	clock.Add(2 * time.Minute)
	sched.Advance(time.Second)
	if r.Count() != 0 {
		t.Errorf("janitor did not reap, %d left", r.Count())
	}
}

func TestPlayingSessionIsNotReaped(t *testing.T) {
	r, sched, clock := newTestRegistry()
	s := r.Create(game.DefaultSettings())
	if _, err := r.Get(s.ID); err != nil {
		t.Fatal(err)
	}
	// 之后的按键都直接交给游戏，不经过 Get
	s.Game.Handle(structs.Confirm)
	s.Game.Handle(structs.MoveUp)

	clock.Add(20 * time.Minute)
	if n := r.Reap(10 * time.Minute); n != 0 {
		t.Fatalf("a game in progress was reaped (%d)", n)
	}
	if s.Game.Phase() != structs.PhasePlaying || sched.Active() == 0 {
		t.Errorf("game should still be ticking, phase %v active %d", s.Game.Phase(), sched.Active())
	}
}

func TestTouchKeepsPausedSessionAlive(t *testing.T) {
	r, _, clock := newTestRegistry()
	s := r.Create(game.DefaultSettings())
	s.Game.Handle(structs.Confirm)
	s.Game.Handle(structs.TogglePause)

	clock.Add(9 * time.Minute)
	s.Touch()
	clock.Add(9 * time.Minute)
	if n := r.Reap(10 * time.Minute); n != 0 {
		t.Fatalf("touched session was reaped (%d)", n)
	}

	clock.Add(2 * time.Minute)
	if n := r.Reap(10 * time.Minute); n != 1 {
		t.Errorf("paused session idle past the ttl should be reaped, got %d", n)
	}
}
