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
	"time"
)

// Descriptor declares one adapter.  It is immutable once loaded.
type Descriptor struct {
	Name       string `json:"name" yaml:"name"`
	Type       string `json:"type" yaml:"type"`
	ConfigPath string `json:"config" yaml:"config"`
}

// State is the supervision state of an adapter.
//
//	         spawn ok
//	Idle ---------------> Running
//	  ^  \                   |
//	  |   \ spawn failed     | exit observed
//	  |    +--> Idle         |
//	  +----------------------+
//
// Launching only exists while the spawn call is in progress.
type State int

const (
	StateIdle State = iota
	StateLaunching
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLaunching:
		return "launching"
	case StateRunning:
		return "running"
	}
	return "unknown"
}

// Adapter is the runtime record for one Descriptor.  It is owned by a
// single Supervisor and is not safe for concurrent use; others observe it
// through the Board.
//
// The handle is non-nil exactly when the adapter is Running, so there is
// never more than one live process per adapter.
type Adapter struct {
	Descriptor

	state    State
	handle   Handle
	exe      string
	starts   int
	pid      int
	lastExit *ExitStatus
	lastErr  error
	stamp    time.Time
}

func newAdapter(d Descriptor) *Adapter {
	return &Adapter{Descriptor: d, state: StateIdle, stamp: time.Now()}
}

func (a *Adapter) State() State {
	return a.state
}

// Handle returns the live process, or nil when Idle.
func (a *Adapter) Handle() Handle {
	return a.handle
}

// Starts counts successful spawns.
func (a *Adapter) Starts() int {
	return a.starts
}

// LastExit is the most recently observed exit status, if any.
func (a *Adapter) LastExit() *ExitStatus {
	return a.lastExit
}

func (a *Adapter) launching(exe string) {
	a.state = StateLaunching
	a.exe = exe
}

func (a *Adapter) started(h Handle) {
	a.state = StateRunning
	a.handle = h
	a.pid = h.Pid()
	a.starts++
	a.lastErr = nil
	a.stamp = time.Now()
}

func (a *Adapter) startFailed(e error) {
	a.state = StateIdle
	a.handle = nil
	a.lastErr = e
	a.stamp = time.Now()
}

func (a *Adapter) exited(st *ExitStatus) {
	a.state = StateIdle
	a.handle = nil
	a.lastExit = st
	a.stamp = time.Now()
}

func (a *Adapter) queryFailed(e error) {
	a.lastErr = e
}

func (a *Adapter) info() AdapterInfo {
	i := AdapterInfo{
		Name:       a.Name,
		Type:       a.Type,
		Config:     a.ConfigPath,
		Executable: a.exe,
		State:      a.state.String(),
		Starts:     a.starts,
		TimeStamp:  a.stamp,
	}
	if a.handle != nil {
		i.Pid = a.pid
	}
	if a.lastExit != nil {
		i.LastExit = a.lastExit.String()
	}
	if a.lastErr != nil {
		i.LastError = a.lastErr.Error()
	}
	return i
}
