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
	"strings"
	"sync"
	"time"
)

const (
	MaxLogRecords = 1000
)

type LogRecord struct {
	Id    int64     `json:"id,string"`
	Time  time.Time `json:"time"`
	Level Level     `json:"level"`
	Text  string    `json:"text"`
}

// Log is a bounded, in-memory ring of log lines.  The zero value holds
// MaxLogRecords lines.  It implements io.Writer
// so that it can sit behind a log.Logger, and it remembers the severity
// of lines written through a Logger.  Readers can long-poll for changes
// with Watch.
type Log struct {
	records    []LogRecord
	numRecords int
	maxRecords int
	id         int64
	cvs        map[*sync.Cond]bool
	mx         sync.Mutex
}

func (log *Log) lock() {
	log.mx.Lock()
}

func (log *Log) unlock() {
	log.mx.Unlock()
}

// Write implements the Writer interface consumed by Logger.
func (log *Log) Write(b []byte) (int, error) {
	str := strings.Trim(string(b), "\n")
	now := time.Now()
	log.lock()
	if log.maxRecords == 0 {
		log.maxRecords = MaxLogRecords
	}
	if log.records == nil {
		log.records = make([]LogRecord, log.maxRecords)
	}
	for _, line := range strings.Split(str, "\n") {
		lvl, text := splitLevel(line)
		rec := &log.records[log.numRecords%log.maxRecords]
		log.id++
		rec.Id = log.id
		rec.Time = now
		rec.Level = lvl
		rec.Text = text
		// numRecords keeps counting past maxRecords; it is the index
		// of the next slot, modulo the ring size.
		log.numRecords++
	}
	for cv := range log.cvs {
		cv.Broadcast()
	}
	log.unlock()
	return len(b), nil
}

// GetRecords returns the records that are stored, oldest first, as well as
// an ID suitable for use as an Etag.  If last matches the current ID then
// nothing has changed, and nil is returned without copying anything.
func (log *Log) GetRecords(last int64) ([]LogRecord, int64) {
	log.lock()
	defer log.unlock()

	if log.id == last {
		return nil, last
	}
	cnt := log.numRecords
	if cnt > log.maxRecords {
		cnt = log.maxRecords
	}
	recs := make([]LogRecord, 0, cnt)
	index := log.numRecords - cnt
	for j := 0; j < cnt; j++ {
		recs = append(recs, log.records[index%log.maxRecords])
		index++
	}
	return recs, log.id
}

// Watch waits until the log ID differs from last, or until expire has
// elapsed, and returns the current ID.  An expire of zero just polls.
func (log *Log) Watch(last int64, expire time.Duration) int64 {
	expired := false
	var timer *time.Timer
	cv := sync.NewCond(&log.mx)
	if expire > 0 {
		timer = time.AfterFunc(expire, func() {
			log.lock()
			expired = true
			cv.Broadcast()
			log.unlock()
		})
	} else {
		expired = true
	}

	log.lock()
	if log.cvs == nil {
		log.cvs = make(map[*sync.Cond]bool)
	}
	log.cvs[cv] = true
	for log.id == last && !expired {
		cv.Wait()
	}
	delete(log.cvs, cv)
	last = log.id
	log.unlock()
	if timer != nil {
		timer.Stop()
	}
	return last
}

// NewLog returns a Log holding at most max records.  A max of zero
// selects MaxLogRecords.
func NewLog(max int) *Log {
	if max <= 0 {
		max = MaxLogRecords
	}
	// Seed the ID from the clock, so that an Etag handed out by an earlier
	// instance of the daemon does not match a fresh log.
	log := &Log{
		maxRecords: max,
		id:         time.Now().UnixNano(),
		cvs:        make(map[*sync.Cond]bool),
	}
	return log
}
