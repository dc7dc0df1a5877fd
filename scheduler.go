package epaper

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BeatGlow/epaper/pixel"
)

// State of the refresh scheduler.
type State uint32

// States.
const (
	Idle State = iota
	Refreshing
)

func (s State) String() string {
	if s == Refreshing {
		return "refreshing"
	}
	return "idle"
}

// Stats counts refresh cycles.
type Stats struct {
	Partial int // completed partial refreshes
	Full    int // completed full refreshes
	Failed  int // aborted cycles
}

// Scheduler pushes the compositor raster to a panel whenever it is dirty.
//
// Every FastRefreshCount partial refreshes are followed by one full refresh.
// A cycle that fails leaves the raster dirty so the next poll retries it.
type Scheduler struct {
	comp      *Compositor
	panel     Panel
	planes    []Plane
	interval  time.Duration
	threshold int
	log       *log.Logger

	state atomic.Uint32

	mu        sync.Mutex // serialises cycles, guards the fields below
	count     int        // partial refreshes since the last full one
	forceFull bool
	stats     Stats
	frame     *pixel.MonoImage
}

// NewScheduler returns a scheduler refreshing panel from comp.
func NewScheduler(comp *Compositor, panel Panel, config *Config) *Scheduler {
	var c Config
	if config == nil {
		c = DefaultConfig
	} else {
		c = *config
	}
	c.defaults()

	size := comp.Bounds().Size()
	return &Scheduler{
		comp:      comp,
		panel:     panel,
		planes:    c.Planes,
		interval:  c.PollInterval,
		threshold: c.FastRefreshCount,
		log:       c.Logger,
		frame:     pixel.NewMonoImage(size.X, size.Y),
	}
}

// Run polls the dirty flag until ctx is done. Failed cycles are logged and retried.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = s.cycle()
		}
	}
}

// RefreshNow runs one cycle right away if the raster is dirty.
func (s *Scheduler) RefreshNow(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.cycle()
}

// ForceFull makes the next cycle a full refresh.
func (s *Scheduler) ForceFull() {
	s.mu.Lock()
	s.forceFull = true
	s.mu.Unlock()
}

// State returns the current scheduler state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Stats returns the refresh counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// PartialCount is the number of partial refreshes since the last full refresh.
func (s *Scheduler) PartialCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// nextMode advances the refresh counter.
func (s *Scheduler) nextMode() RefreshMode {
	if s.forceFull {
		s.forceFull = false
		s.count = 0
		return FullRefresh
	}
	if s.count < s.threshold {
		s.count++
		return PartialRefresh
	}
	s.count = 0
	return FullRefresh
}

func (s *Scheduler) cycle() error {
	if !s.comp.Dirty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Store(uint32(Refreshing))
	defer s.state.Store(uint32(Idle))

	start := time.Now()
	gen := s.comp.Snapshot(s.frame)

	if err := s.panel.PowerOn(); err != nil {
		return s.fail("power on", err, false)
	}

	mode := s.nextMode()
	if debug {
		s.log.Printf("epaper: %s refresh (%d/%d)", mode, s.count, s.threshold)
	}
	if err := s.panel.SetRefreshMode(mode); err != nil {
		return s.fail("set refresh mode", err, true)
	}
	for _, plane := range s.planes {
		if err := s.panel.Draw(plane, s.frame); err != nil {
			return s.fail(fmt.Sprintf("draw %s plane", plane), err, true)
		}
	}
	if err := s.panel.Refresh(); err != nil {
		return s.fail("refresh", err, true)
	}
	if err := s.panel.PowerOff(); err != nil {
		return s.fail("power off", err, false)
	}

	if !s.comp.settle(gen) && debug {
		s.log.Printf("epaper: raster changed during refresh, keeping it dirty")
	}
	if mode == FullRefresh {
		s.stats.Full++
	} else {
		s.stats.Partial++
	}
	if debug {
		s.log.Printf("epaper: %s refresh took %s", mode, time.Since(start))
	}
	return nil
}

// fail logs a failed cycle step. The dirty flag is left set.
func (s *Scheduler) fail(step string, err error, powerOff bool) error {
	s.stats.Failed++
	s.log.Printf("epaper: refresh failed at %s: %v", step, err)
	if powerOff {
		if perr := s.panel.PowerOff(); perr != nil {
			s.log.Printf("epaper: power off after failed refresh: %v", perr)
		}
	}
	return fmt.Errorf("epaper: %s: %w", step, err)
}
