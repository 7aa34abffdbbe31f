package memory

import (
	"log/slog"
	"sync"
	"time"
)

// Sweeper is anything that can evict its own stale entries.
type Sweeper interface {
	Sweep() int
}

// Janitor calls Sweep on a target at a fixed interval until stopped.
type Janitor struct {
	target   Sweeper
	interval time.Duration

	stop     chan struct{}
	done     chan struct{}
	startOne sync.Once
	stopOne  sync.Once
}

func NewJanitor(target Sweeper, interval time.Duration) *Janitor {
	return &Janitor{
		target:   target,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. A non-positive interval disables it. Calling Start
// more than once has no further effect.
func (j *Janitor) Start() {
	j.startOne.Do(func() {
		if j.interval <= 0 {
			close(j.done)
			return
		}
		go j.run()
	})
}

// Stop ends the sweep loop and waits for it to exit. It is safe to call more than once.
func (j *Janitor) Stop() {
	j.startOne.Do(func() { close(j.done) }) // never started
	j.stopOne.Do(func() { close(j.stop) })
	<-j.done
}

func (j *Janitor) run() {
	defer close(j.done)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-j.stop:
			return
		case <-ticker.C:
			if n := j.target.Sweep(); n > 0 {
				slog.Debug("swept expired entries", "removed", n)
			}
		}
	}
}
