// Copyright 2022 The Launcher Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package launcher

import (
	"errors"
	"sync/atomic"
	"time"
)

// DefaultPollInterval is the pause between ticks.  It only bounds CPU
// usage; zero makes the loop spin.
const DefaultPollInterval = 100 * time.Millisecond

// RelaunchPolicy is consulted before an Idle adapter is (re)launched.  It
// is the only place where restart throttling could be introduced.
type RelaunchPolicy interface {
	Allow(a *Adapter) bool
}

// Immediate relaunches every Idle adapter on every tick, including ones
// whose previous spawn failed.
type Immediate struct{}

func (Immediate) Allow(*Adapter) bool {
	return true
}

// Supervisor keeps every declared adapter running.
//
// Each tick visits the adapters in declaration order.  A Running adapter
// is polled for exit, and becomes Idle once an exit is observed.  An Idle
// adapter is resolved and spawned.  An exit status never influences what
// happens next; a reaped adapter is simply launched again on the
// following tick.
//
// Stopping the supervisor does not stop the children.  They are left
// running, unsupervised.
type Supervisor struct {
	adapters []*Adapter
	resolver Resolver
	spawner  Spawner
	policy   RelaunchPolicy
	logger   *Logger
	board    *Board
	interval time.Duration
	active   int32
}

// NewSupervisor creates a Supervisor for the descriptors, all Idle.  It
// fails with ErrNoAdapters if there are none.
func NewSupervisor(name string, ds []Descriptor) (*Supervisor, error) {
	if len(ds) == 0 {
		return nil, ErrNoAdapters
	}
	s := &Supervisor{
		resolver: DefaultRegistry,
		spawner:  &ExecSpawner{},
		policy:   Immediate{},
		logger:   NewLogger(nil, LevelInfo),
		board:    NewBoard(name),
		interval: DefaultPollInterval,
	}
	s.adapters = make([]*Adapter, 0, len(ds))
	for _, d := range ds {
		s.adapters = append(s.adapters, newAdapter(d))
	}
	s.board.load(s.adapters)
	return s, nil
}

// SetResolver replaces DefaultRegistry as the source of executables.
func (s *Supervisor) SetResolver(r Resolver) {
	s.resolver = r
}

// SetSpawner sets how children are started.  The default is ExecSpawner.
func (s *Supervisor) SetSpawner(sp Spawner) {
	s.spawner = sp
}

// SetPolicy sets the RelaunchPolicy.  The default is Immediate.
func (s *Supervisor) SetPolicy(p RelaunchPolicy) {
	s.policy = p
}

// SetLogger sets where the loop logs.  The default is stderr at Info.
func (s *Supervisor) SetLogger(l *Logger) {
	s.logger = l
}

// SetPollInterval sets the pause between ticks.  Negative values are
// treated as zero.
func (s *Supervisor) SetPollInterval(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.interval = d
}

// Board returns where the supervisor publishes adapter state.  It is safe
// to read from other goroutines.
func (s *Supervisor) Board() *Board {
	return s.board
}

// Running counts adapters that currently hold a process.
func (s *Supervisor) Running() int {
	n := 0
	for _, a := range s.adapters {
		if a.handle != nil {
			n++
		}
	}
	return n
}

// Run ticks until stop is signalled or closed, returning nil, or until an
// adapter type cannot be resolved, returning a *ConfigError.  The stop
// channel is only checked between ticks.  In either case any children
// still running are left alone.  Only one Run may be active at a time;
// others fail with ErrAlreadyRunning.
func (s *Supervisor) Run(stop <-chan struct{}) error {
	if len(s.adapters) == 0 {
		return ErrNoAdapters
	}
	if !atomic.CompareAndSwapInt32(&s.active, 0, 1) {
		return ErrAlreadyRunning
	}
	defer atomic.StoreInt32(&s.active, 0)
	s.logger.Infof("Supervising %d adapters: %s", len(s.adapters), s.board.Name())
	s.board.setRunning(true, nil)

	for {
		select {
		case <-stop:
			s.logger.Infof("Stopped supervising; %d adapters left running",
				s.Running())
			s.board.setRunning(false, nil)
			return nil
		default:
		}

		if e := s.Tick(); e != nil {
			s.board.setRunning(false, e)
			return e
		}

		if s.interval > 0 {
			t := time.NewTimer(s.interval)
			select {
			case <-stop:
				// A single send has now been consumed; make sure
				// the top of the loop still sees it.
				t.Stop()
				stop = closedChan
			case <-t.C:
			}
		}
	}
}

var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// Tick performs one reconciliation pass.  It returns a *ConfigError, and
// stops the pass right there, when an Idle adapter has an unknown type.
func (s *Supervisor) Tick() error {
	for i, a := range s.adapters {
		if a.handle != nil {
			s.reap(i, a)
			continue
		}
		if e := s.launch(i, a); e != nil {
			return e
		}
	}
	return nil
}

func (s *Supervisor) reap(i int, a *Adapter) {
	st, e := a.handle.TryWait()
	if e != nil {
		// We don't know what the process is doing, so leave it be.
		s.logger.Warnf("Failed to get process status for %s (pid %d): %v",
			a.Name, a.pid, e)
		a.queryFailed(e)
		s.board.publish(i, a)
		return
	}
	if st == nil {
		s.logger.Tracef("Process %s (pid %d) still running", a.Name, a.pid)
		return
	}
	s.logger.Infof("Process %s (pid %d) exited with %v", a.Name, a.pid, st)
	a.exited(st)
	s.board.publish(i, a)
}

var errNilHandle = errors.New("Spawner returned no process")

func (s *Supervisor) launch(i int, a *Adapter) error {
	if !s.policy.Allow(a) {
		s.logger.Debugf("Relaunch policy held back %s", a.Name)
		return nil
	}
	r, ok := s.resolver.Resolve(a.Type)
	if !ok {
		return &ConfigError{Adapter: a.Name, Type: a.Type}
	}
	s.logger.Debugf("Launching %s: type %s resolves to %s",
		a.Name, a.Type, r.Executable)

	a.launching(r.Executable)
	h, e := s.spawner.Spawn(r, a.ConfigPath)
	if e == nil && h == nil {
		e = errNilHandle
	}
	if e != nil {
		s.logger.Errorf("Failed to start process %s (%s): %v",
			a.Name, r.Executable, e)
		a.startFailed(e)
		s.board.publish(i, a)
		return nil
	}
	a.started(h)
	if r.Env.Empty() {
		s.logger.Infof("Started %s: %s -c %s (pid %d)",
			a.Name, r.Executable, a.ConfigPath, h.Pid())
	} else {
		s.logger.Infof("Started %s: %s %s -c %s (pid %d)",
			a.Name, r.Env, r.Executable, a.ConfigPath, h.Pid())
	}
	s.board.publish(i, a)
	return nil
}
