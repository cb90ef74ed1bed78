// Package scheduler 提供可取消的周期任务。游戏主循环与食物狂潮各自持有任务，
// 速度变化时取消旧任务并按新间隔重建。
package scheduler

import (
	"sync"
	"time"
)

// Task is a running repeating task. Stop is idempotent and never blocks.
type Task interface {
	Stop()
}

// Scheduler runs fn every interval until the returned Task is stopped.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Task
}

// Ticker 基于 time.Ticker 的实现，每个任务一个 goroutine
type Ticker struct{}

func NewTicker() *Ticker {
	return &Ticker{}
}

func (Ticker) Every(interval time.Duration, fn func()) Task {
	t := &tickerTask{done: make(chan struct{})}
	go t.run(interval, fn)
	return t
}

type tickerTask struct {
	done chan struct{}
	once sync.Once
}

func (t *tickerTask) run(interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			// Stop 可能与 tick 同时到达，优先退出
			select {
			case <-t.done:
				return
			default:
			}
			fn()
		}
	}
}

func (t *tickerTask) Stop() {
	t.once.Do(func() { close(t.done) })
}
