// 食物的生成、消耗与狂潮
package food

import (
	"errors"
	"log"
	"math/rand"
	"time"

	"github.com/hoshinonyaruko/snake-in-browser/grid"
	"github.com/hoshinonyaruko/snake-in-browser/helpers"
	"github.com/hoshinonyaruko/snake-in-browser/scheduler"
	"github.com/hoshinonyaruko/snake-in-browser/structs"
)

// ErrNoFreeCell 棋盘已满，没有可以放置食物的格子
var ErrNoFreeCell = errors.New("food: no free cell")

const (
	frenzyDrawMin = 0
	frenzyDrawMax = 100
	frenzyNumber  = 50
)

// Options 食物相关参数
type Options struct {
	SpawnAttempts  int           // 随机尝试次数，超过后改为扫描空格
	FrenzyCount    int           // 一次狂潮额外生成的食物数
	FrenzyInterval time.Duration // 狂潮生成间隔
}

// DefaultOptions spawns 15 extra items every 10ms per frenzy.
func DefaultOptions() Options {
	return Options{
		SpawnAttempts:  1000,
		FrenzyCount:    15,
		FrenzyInterval: 10 * time.Millisecond,
	}
}

// Manager tracks active food. It is not safe for concurrent use; the owner
// serializes calls, including the frenzy callbacks it schedules.
type Manager struct {
	grid     grid.Grid
	rng      *rand.Rand
	sched    scheduler.Scheduler
	occupied func() []structs.Position
	opts     Options

	items    []structs.Food
	frenzies map[*frenzy]struct{}
}

type frenzy struct {
	task      scheduler.Task
	remaining int
	cancelled bool
}

// NewManager creates a food manager. occupied reports the snake cells at the
// moment a frenzy spawn fires.
func NewManager(g grid.Grid, rng *rand.Rand, sched scheduler.Scheduler, occupied func() []structs.Position, opts Options) *Manager {
	if opts.SpawnAttempts <= 0 {
		opts.SpawnAttempts = DefaultOptions().SpawnAttempts
	}
	return &Manager{
		grid:     g,
		rng:      rng,
		sched:    sched,
		occupied: occupied,
		opts:     opts,
		frenzies: make(map[*frenzy]struct{}),
	}
}

// Items returns a copy of the active food items.
func (m *Manager) Items() []structs.Food {
	out := make([]structs.Food, len(m.items))
	copy(out, m.items)
	return out
}

func (m *Manager) Positions() []structs.Position {
	out := make([]structs.Position, len(m.items))
	for i, f := range m.items {
		out[i] = f.Position
	}
	return out
}

func (m *Manager) Len() int { return len(m.items) }

// At returns the active item at p.
func (m *Manager) At(p structs.Position) (structs.Food, bool) {
	for _, f := range m.items {
		if f.Position == p {
			return f, true
		}
	}
	return structs.Food{}, false
}

// Spawn places one item on a random cell that is neither in occupied nor
// holding food already.
func (m *Manager) Spawn(occupied []structs.Position) (structs.Position, error) {
	blocked := make(map[structs.Position]bool, len(occupied)+len(m.items))
	for _, p := range occupied {
		blocked[p] = true
	}
	for _, f := range m.items {
		blocked[f.Position] = true
	}

	for i := 0; i < m.opts.SpawnAttempts; i++ {
		p := structs.Position{
			Top:  helpers.RandomSteppedValue(m.rng, 0, m.grid.Height()-m.grid.CellSize, m.grid.CellSize),
			Left: helpers.RandomSteppedValue(m.rng, 0, m.grid.Width()-m.grid.CellSize, m.grid.CellSize),
		}
		if !blocked[p] {
			m.add(p)
			return p, nil
		}
	}

	// 随机尝试失败，说明棋盘接近占满，扫描剩余空格
	var free []structs.Position
	for _, p := range m.grid.Cells() {
		if !blocked[p] {
			free = append(free, p)
		}
	}
	if len(free) == 0 {
		return structs.Position{}, ErrNoFreeCell
	}
	p := free[m.rng.Intn(len(free))]
	m.add(p)
	return p, nil
}

// Place puts an item on p. It fails when p is off the grid or already
// holds food.
func (m *Manager) Place(p structs.Position) bool {
	if !m.grid.Valid(p) {
		return false
	}
	if _, ok := m.At(p); ok {
		return false
	}
	m.add(p)
	return true
}

// Clear removes every active item.
func (m *Manager) Clear() {
	m.items = nil
}

func (m *Manager) add(p structs.Position) {
	m.items = append(m.items, structs.Food{Position: p, Active: true})
}

// spawnLogged 生成失败只记录日志，不中断游戏
func (m *Manager) spawnLogged(occupied []structs.Position) {
	if _, err := m.Spawn(occupied); err != nil {
		log.Printf("skip food spawn: %v", err)
	}
}

// FrenzyDraw reports whether a draw from [0, 100] starts a frenzy.
func FrenzyDraw(n int) bool {
	return n == frenzyNumber
}

// MaybeTriggerFrenzy starts a frenzy with probability 1/101.
func (m *Manager) MaybeTriggerFrenzy() bool {
	if !FrenzyDraw(helpers.RandomInt(m.rng, frenzyDrawMin, frenzyDrawMax)) {
		return false
	}
	m.startFrenzy()
	return true
}

func (m *Manager) startFrenzy() {
	f := &frenzy{remaining: m.opts.FrenzyCount}
	if f.remaining <= 0 {
		return
	}
	m.frenzies[f] = struct{}{}
	f.task = m.sched.Every(m.opts.FrenzyInterval, func() {
		// 任务取消后可能还有一次回调在路上
		if f.cancelled {
			return
		}
		m.spawnLogged(m.occupied())
		f.remaining--
		if f.remaining == 0 {
			m.finishFrenzy(f)
		}
	})
}

func (m *Manager) finishFrenzy(f *frenzy) {
	f.cancelled = true
	if f.task != nil {
		f.task.Stop()
	}
	delete(m.frenzies, f)
}

// FrenzyActive reports whether any frenzy still has spawns pending.
func (m *Manager) FrenzyActive() bool {
	return len(m.frenzies) > 0
}

// StopFrenzies cancels every in-flight frenzy.
func (m *Manager) StopFrenzies() {
	for f := range m.frenzies {
		m.finishFrenzy(f)
	}
}

// OnConsumed removes item and, unless a frenzy was just triggered, makes
// sure at least one item stays on the board.
func (m *Manager) OnConsumed(item structs.Food, frenzyTriggered bool, occupied []structs.Position) {
	for i, f := range m.items {
		if f.Position == item.Position {
			m.items = append(m.items[:i], m.items[i+1:]...)
			break
		}
	}
	if len(m.items) == 0 && !frenzyTriggered {
		m.spawnLogged(occupied)
	}
}
