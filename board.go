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
	"sync"
	"time"
)

// AdapterInfo is a point in time copy of an adapter's state.
type AdapterInfo struct {
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Config     string    `json:"config"`
	Executable string    `json:"executable,omitempty"`
	State      string    `json:"state"`
	Pid        int       `json:"pid,omitempty"`
	Starts     int       `json:"starts"`
	LastExit   string    `json:"lastExit,omitempty"`
	LastError  string    `json:"lastError,omitempty"`
	TimeStamp  time.Time `json:"tstamp"`
}

// BoardInfo describes the supervisor as a whole.
type BoardInfo struct {
	Name       string    `json:"name"`
	Serial     int64     `json:"serial,string"`
	Adapters   int       `json:"adapters"`
	Running    bool      `json:"running"`
	Error      string    `json:"error,omitempty"`
	CreateTime time.Time `json:"created"`
	UpdateTime time.Time `json:"updated"`
}

// Board is where the supervision loop publishes what it is doing.  The
// loop's own records are never shared; after every transition it copies
// the affected adapter here, and bumps the serial number.  Readers (the
// HTTP status server, for example) only ever see these copies.
type Board struct {
	name       string
	adapters   []AdapterInfo
	serial     int64
	running    bool
	err        string
	createTime time.Time
	updateTime time.Time
	mx         sync.Mutex
	cvs        map[*sync.Cond]bool
}

func (b *Board) lock() {
	b.mx.Lock()
}

func (b *Board) unlock() {
	b.mx.Unlock()
}

// bumpSerial increments the serial and wakes up watchers.  Call with
// lock held, so that woken goroutines see the new value.
func (b *Board) bumpSerial() {
	b.updateTime = time.Now()
	b.serial++
	for cv := range b.cvs {
		cv.Broadcast()
	}
}

func (b *Board) load(ads []*Adapter) {
	b.lock()
	b.adapters = make([]AdapterInfo, len(ads))
	for i, a := range ads {
		b.adapters[i] = a.info()
	}
	b.bumpSerial()
	b.unlock()
}

func (b *Board) publish(i int, a *Adapter) {
	b.lock()
	if i < len(b.adapters) {
		b.adapters[i] = a.info()
		b.bumpSerial()
	}
	b.unlock()
}

func (b *Board) setRunning(running bool, e error) {
	b.lock()
	b.running = running
	if e != nil {
		b.err = e.Error()
	}
	b.bumpSerial()
	b.unlock()
}

// Name returns the name the board was created with.
func (b *Board) Name() string {
	return b.name
}

// Serial returns the current serial number.  It changes whenever any
// adapter changes state.
func (b *Board) Serial() int64 {
	b.lock()
	defer b.unlock()
	return b.serial
}

// Info returns a consistent summary of the supervisor.
func (b *Board) Info() *BoardInfo {
	b.lock()
	defer b.unlock()
	return &BoardInfo{
		Name:       b.name,
		Serial:     b.serial,
		Adapters:   len(b.adapters),
		Running:    b.running,
		Error:      b.err,
		CreateTime: b.createTime,
		UpdateTime: b.updateTime,
	}
}

// Adapters returns every adapter in declaration order, along with the
// serial number the copy corresponds to.
func (b *Board) Adapters() ([]AdapterInfo, int64) {
	b.lock()
	defer b.unlock()
	rv := make([]AdapterInfo, len(b.adapters))
	copy(rv, b.adapters)
	return rv, b.serial
}

// Adapter returns the first adapter with the given name.
func (b *Board) Adapter(name string) (AdapterInfo, int64, error) {
	b.lock()
	defer b.unlock()
	for _, i := range b.adapters {
		if i.Name == name {
			return i, b.serial, nil
		}
	}
	return AdapterInfo{}, b.serial, ErrNoSuchAdapter
}

// WatchSerial waits for the serial number to differ from old, and returns
// the new value.  If it does not change within expire, old is returned.
// An expire of zero just polls.
func (b *Board) WatchSerial(old int64, expire time.Duration) int64 {
	expired := false
	cv := sync.NewCond(&b.mx)
	var timer *time.Timer

	if expire > 0 {
		timer = time.AfterFunc(expire, func() {
			b.lock()
			expired = true
			cv.Broadcast()
			b.unlock()
		})
	} else {
		expired = true
	}

	b.lock()
	b.cvs[cv] = true
	for b.serial == old && !expired {
		cv.Wait()
	}
	rv := b.serial
	delete(b.cvs, cv)
	b.unlock()
	if timer != nil {
		timer.Stop()
	}
	return rv
}

// NewBoard returns an empty Board.
func NewBoard(name string) *Board {
	if name == "" {
		name = "launcher"
	}
	// The serial starts at the current time in nanoseconds, so that a
	// client caching an Etag from a previous run sees a change.
	now := time.Now()
	return &Board{
		name:       name,
		serial:     now.UnixNano(),
		createTime: now,
		updateTime: now,
		cvs:        make(map[*sync.Cond]bool),
	}
}
