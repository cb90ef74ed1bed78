// Package session 管理浏览器对局：每个连接按 uuid 拿到自己的一局游戏
package session

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hoshinonyaruko/snake-in-browser/game"
	"github.com/hoshinonyaruko/snake-in-browser/memimg"
	"github.com/hoshinonyaruko/snake-in-browser/scheduler"
	"github.com/hoshinonyaruko/snake-in-browser/structs"
)

var ErrNotFound = errors.New("session not found")

// Session is one game plus the bookkeeping the janitor needs.
type Session struct {
	ID        string
	Game      *game.Game
	CreatedAt time.Time

	reg      *Registry
	mu       sync.Mutex
	lastSeen time.Time
	endedAt  time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// Touch marks the session as accessed, for input that does not go through
// Registry.Get such as websocket events.
func (s *Session) Touch() {
	s.touch(s.reg.clock())
}

// expired 结束的对局从结束时刻算起，暂停与未开始的从最后一次访问算起，
// 进行中的对局不会过期
func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	phase := s.Game.Phase()
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case phase == structs.PhasePlaying:
		return false
	case phase == structs.PhaseEnded && !s.endedAt.IsZero():
		return now.Sub(s.endedAt) >= ttl
	}
	return now.Sub(s.lastSeen) >= ttl
}

// Registry 保存所有进行中的对局
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	sched    scheduler.Scheduler
	now      func() time.Time
	onResult []func(structs.Result)
}

func NewRegistry(sched scheduler.Scheduler) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		sched:    sched,
		now:      time.Now,
	}
}

// SetClock replaces the clock used for expiry bookkeeping.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

func (r *Registry) clock() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.now()
}

// OnResult registers fn for the result of every game of every session,
// including sessions created before the call.
func (r *Registry) OnResult(fn func(structs.Result)) {
	r.mu.Lock()
	r.onResult = append(r.onResult, fn)
	r.mu.Unlock()
}

// Create 新建一局，返回时游戏尚未开始
func (r *Registry) Create(settings game.Settings, opts ...game.Option) *Session {
	id := uuid.New().String()

	r.mu.RLock()
	now := r.now()
	r.mu.RUnlock()

	opts = append([]game.Option{game.WithID(id)}, opts...)
	s := &Session{
		ID:        id,
		Game:      game.New(settings, r.sched, opts...),
		CreatedAt: now,
		reg:       r,
		lastSeen:  now,
	}
	s.Game.OnEnd(func(result structs.Result) {
		s.mu.Lock()
		s.endedAt = result.EndedAt
		s.mu.Unlock()
		r.dispatch(result)
	})

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	log.Printf("Session created: %s", id)
	return s
}

func (r *Registry) dispatch(result structs.Result) {
	r.mu.RLock()
	hooks := make([]func(structs.Result), len(r.onResult))
	copy(hooks, r.onResult)
	r.mu.RUnlock()
	for _, fn := range hooks {
		fn(result)
	}
}

// Get 返回对局并刷新最后访问时间
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	now := r.now()
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.touch(now)
	return s, nil
}

// Delete stops the game and drops its cached frame.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.Game.Stop()
	memimg.DeleteFrame(id)
	log.Printf("Session deleted: %s", id)
	return nil
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Reap 删除过期对局，返回删除数量
func (r *Registry) Reap(ttl time.Duration) int {
	r.mu.RLock()
	now := r.now()
	var stale []string
	for id, s := range r.sessions {
		if s.expired(now, ttl) {
			stale = append(stale, id)
		}
	}
	r.mu.RUnlock()

	reaped := 0
	for _, id := range stale {
		if r.Delete(id) == nil {
			reaped++
		}
	}
	return reaped
}

// StartJanitor reaps expired sessions every interval. ttl is read on every
// pass so a reloaded config takes effect without a restart.
func (r *Registry) StartJanitor(interval time.Duration, ttl func() time.Duration) scheduler.Task {
	return r.sched.Every(interval, func() {
		if n := r.Reap(ttl()); n > 0 {
			log.Printf("Janitor reaped %d sessions, %d left", n, r.Count())
		}
	})
}
