// Package game 驱动一局贪食蛇：状态机、定时刷新、得分与速度。
package game

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/hoshinonyaruko/snake-in-browser/food"
	"github.com/hoshinonyaruko/snake-in-browser/grid"
	"github.com/hoshinonyaruko/snake-in-browser/helpers"
	"github.com/hoshinonyaruko/snake-in-browser/scheduler"
	"github.com/hoshinonyaruko/snake-in-browser/snake"
	"github.com/hoshinonyaruko/snake-in-browser/structs"
)

// state 一局游戏的全部可变状态，开始时创建，重开时丢弃
type state struct {
	phase     structs.Phase
	score     int
	speed     time.Duration
	tick      uint64
	snake     *snake.Snake
	food      *food.Manager
	startedAt time.Time
	endReason string
}

// Game owns one state and the main tick task. All methods are safe for
// concurrent use; timer callbacks and input events are serialized by mu.
type Game struct {
	mu       sync.Mutex
	id       string
	settings Settings
	grid     grid.Grid
	rng      *rand.Rand
	sched    scheduler.Scheduler
	now      func() time.Time

	st       *state
	mainTask scheduler.Task
	mainGen  uint64

	listeners    map[int]func(structs.Snapshot)
	nextListener int
	onEnd        []func(structs.Result)
}

// Option configures a Game.
type Option func(*Game)

// WithRand fixes the random source, mostly for tests and replays.
func WithRand(rng *rand.Rand) Option {
	return func(g *Game) { g.rng = rng }
}

// WithID sets the session id reported in snapshots and results.
func WithID(id string) Option {
	return func(g *Game) { g.id = id }
}

// WithClock overrides the wall clock used for result durations.
func WithClock(now func() time.Time) Option {
	return func(g *Game) { g.now = now }
}

// New returns an idle game.
func New(settings Settings, sched scheduler.Scheduler, opts ...Option) *Game {
	g := &Game{
		settings:  settings,
		grid:      settings.Grid(),
		sched:     sched,
		now:       time.Now,
		listeners: make(map[int]func(structs.Snapshot)),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	g.st = g.newState()
	return g
}

func (g *Game) newState() *state {
	return &state{phase: structs.PhaseIdle, speed: g.settings.Speed}
}

// lockedScheduler 让狂潮回调与输入事件一样在 g.mu 下执行，
// 食物数量变化后推送快照，暂停时客户端也能看到新食物
type lockedScheduler struct {
	inner scheduler.Scheduler
	g     *Game
}

func (l lockedScheduler) Every(interval time.Duration, fn func()) scheduler.Task {
	return l.inner.Every(interval, func() {
		l.g.mutate(func() (bool, *structs.Result) {
			before := l.g.foodLenLocked()
			fn()
			return l.g.foodLenLocked() != before, nil
		})
	})
}

func (g *Game) foodLenLocked() int {
	if g.st.food == nil {
		return 0
	}
	return g.st.food.Len()
}

// OnEnd registers fn to receive the result of every finished game.
func (g *Game) OnEnd(fn func(structs.Result)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onEnd = append(g.onEnd, fn)
}

// Subscribe registers fn to receive a snapshot after every tick and phase
// change. fn runs outside the game lock and must not block for long.
func (g *Game) Subscribe(fn func(structs.Snapshot)) (cancel func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextListener
	g.nextListener++
	g.listeners[id] = fn
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.listeners, id)
	}
}

func (g *Game) ID() string { return g.id }

func (g *Game) Grid() grid.Grid { return g.grid }

func (g *Game) Phase() structs.Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.st.phase
}

// Ended 输入方在发送 Confirm/Restart 之前查询
func (g *Game) Ended() bool {
	return g.Phase() == structs.PhaseEnded
}

func (g *Game) Snapshot() structs.Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

func (g *Game) snapshotLocked() structs.Snapshot {
	st := g.st
	snap := structs.Snapshot{
		ID:        g.id,
		Phase:     st.phase,
		Score:     st.score,
		Speed:     st.speed.Milliseconds(),
		Tick:      st.tick,
		Snake:     []structs.Position{},
		Food:      []structs.Position{},
		Width:     g.grid.Width(),
		Height:    g.grid.Height(),
		CellSize:  g.grid.CellSize,
		EndReason: st.endReason,
	}
	if st.snake != nil {
		snap.Direction = st.snake.Direction()
		snap.Snake = st.snake.Positions()
	}
	if st.food != nil {
		snap.Food = st.food.Positions()
		snap.Frenzy = st.food.FrenzyActive()
	}
	return snap
}

// notification 在解锁后发送给订阅者与结束回调
type notification struct {
	snap      structs.Snapshot
	listeners []func(structs.Snapshot)
	result    *structs.Result
	onEnd     []func(structs.Result)
}

func (g *Game) pendingLocked(result *structs.Result) notification {
	n := notification{snap: g.snapshotLocked(), result: result}
	for _, fn := range g.listeners {
		n.listeners = append(n.listeners, fn)
	}
	if result != nil {
		n.onEnd = append(n.onEnd, g.onEnd...)
	}
	return n
}

func (n notification) send() {
	for _, fn := range n.listeners {
		fn(n.snap)
	}
	if n.result != nil {
		for _, fn := range n.onEnd {
			fn(*n.result)
		}
	}
}

// mutate runs fn under the lock and notifies listeners when fn reports a
// visible change.
func (g *Game) mutate(fn func() (changed bool, result *structs.Result)) {
	g.mu.Lock()
	changed, result := fn()
	if !changed {
		g.mu.Unlock()
		return
	}
	n := g.pendingLocked(result)
	g.mu.Unlock()
	n.send()
}

// Start moves an idle game to playing: spawns the snake and the first food
// item and starts ticking.
func (g *Game) Start() {
	g.mutate(func() (bool, *structs.Result) {
		return g.startLocked(), nil
	})
}

func (g *Game) startLocked() bool {
	if g.st.phase != structs.PhaseIdle {
		return false
	}
	st := g.st
	head := g.grid.RandomPosition(g.rng, g.settings.SpawnMargin)
	dir := structs.Directions[g.rng.Intn(len(structs.Directions))]
	st.snake = snake.New(head, dir, g.grid.CellSize)
	occupied := func() []structs.Position { return st.snake.Positions() }
	st.food = food.NewManager(g.grid, g.rng, lockedScheduler{inner: g.sched, g: g},
		occupied, g.settings.Food)
	if _, err := st.food.Spawn(st.snake.Positions()); err != nil {
		log.Printf("game %s: first food: %v", g.id, err)
	}
	st.startedAt = g.now()
	st.phase = structs.PhasePlaying
	g.startTickingLocked()
	return true
}

func (g *Game) Pause() {
	g.mutate(func() (bool, *structs.Result) {
		return g.pauseLocked(), nil
	})
}

func (g *Game) pauseLocked() bool {
	if g.st.phase != structs.PhasePlaying {
		return false
	}
	g.st.phase = structs.PhasePaused
	g.stopTickingLocked()
	return true
}

func (g *Game) Resume() {
	g.mutate(func() (bool, *structs.Result) {
		return g.resumeLocked(), nil
	})
}

func (g *Game) resumeLocked() bool {
	if g.st.phase != structs.PhasePaused {
		return false
	}
	g.st.phase = structs.PhasePlaying
	g.startTickingLocked()
	return true
}

func (g *Game) TogglePause() {
	g.mutate(func() (bool, *structs.Result) {
		switch g.st.phase {
		case structs.PhasePlaying:
			return g.pauseLocked(), nil
		case structs.PhasePaused:
			return g.resumeLocked(), nil
		}
		return false, nil
	})
}

// Restart discards an ended game and returns to idle.
func (g *Game) Restart() {
	g.mutate(func() (bool, *structs.Result) {
		return g.restartLocked(), nil
	})
}

func (g *Game) restartLocked() bool {
	if g.st.phase != structs.PhaseEnded {
		return false
	}
	g.stopAllLocked()
	g.st = g.newState()
	return true
}

// SetDirection forwards a heading change to the snake while playing or
// paused. Reversals and input in other phases are ignored.
func (g *Game) SetDirection(d structs.Direction) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.st.phase {
	case structs.PhasePlaying, structs.PhasePaused:
		return g.st.snake.SetDirection(d)
	}
	return false
}

// Handle is the entry point for input collaborators.
func (g *Game) Handle(e structs.Event) {
	if d, ok := e.Direction(); ok {
		g.SetDirection(d)
		return
	}
	switch e {
	case structs.Confirm:
		g.mutate(func() (bool, *structs.Result) {
			switch g.st.phase {
			case structs.PhaseIdle:
				return g.startLocked(), nil
			case structs.PhasePaused:
				return g.resumeLocked(), nil
			case structs.PhaseEnded:
				return g.restartLocked(), nil
			}
			return false, nil
		})
	case structs.TogglePause:
		g.TogglePause()
	case structs.Restart:
		g.Restart()
	}
}

// Stop cancels every timer without changing the phase. Used when the game
// is discarded.
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopAllLocked()
}

func (g *Game) stopAllLocked() {
	g.stopTickingLocked()
	if g.st.food != nil {
		g.st.food.StopFrenzies()
	}
}

func (g *Game) startTickingLocked() {
	g.stopTickingLocked()
	gen := g.mainGen
	g.mainTask = g.sched.Every(g.st.speed, func() { g.tick(gen) })
}

// stopTickingLocked 取消主任务，已经在路上的回调因为代数不符而被忽略
func (g *Game) stopTickingLocked() {
	g.mainGen++
	if g.mainTask != nil {
		g.mainTask.Stop()
		g.mainTask = nil
	}
}

func (g *Game) tick(gen uint64) {
	g.mutate(func() (bool, *structs.Result) {
		if gen != g.mainGen || g.st.phase != structs.PhasePlaying {
			return false, nil
		}
		return true, g.advanceLocked()
	})
}

// advanceLocked runs one simulation step and returns a result when the game
// ended on this tick.
func (g *Game) advanceLocked() *structs.Result {
	st := g.st
	if st.snake.IsOutOfBounds(g.grid) {
		return g.endLocked(structs.EndBounds)
	}
	if st.snake.CollidesWithSelf() {
		return g.endLocked(structs.EndSelf)
	}

	st.snake.Step()
	st.tick++

	head := g.grid.CellRect(st.snake.Head())
	for _, item := range st.food.Items() {
		if !helpers.RectanglesIntersect(g.grid.CellRect(item.Position), head) {
			continue
		}
		st.score++
		st.speed -= g.settings.SpeedStep
		if st.speed < g.settings.MinSpeed {
			st.speed = g.settings.MinSpeed
		}
		g.startTickingLocked()
		st.snake.Grow()
		frenzy := st.food.MaybeTriggerFrenzy()
		st.food.OnConsumed(item, frenzy, st.snake.Positions())
	}
	return nil
}

func (g *Game) endLocked(reason string) *structs.Result {
	st := g.st
	st.phase = structs.PhaseEnded
	st.endReason = reason
	g.stopAllLocked()
	now := g.now()
	return &structs.Result{
		SessionID: g.id,
		Score:     st.score,
		Length:    st.snake.Len(),
		Ticks:     st.tick,
		Duration:  now.Sub(st.startedAt),
		Reason:    reason,
		EndedAt:   now,
	}
}
