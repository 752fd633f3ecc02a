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
	"bytes"
	"encoding/json"
	"log"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLogRing(t *testing.T) {
	Convey("Given a small log", t, func() {
		l := NewLog(3)
		recs, id := l.GetRecords(0)
		So(len(recs), ShouldEqual, 0)

		Convey("Lines are recorded in order with their level", func() {
			l.Write([]byte("[WARN] one\n[ERROR] two\nthree\n"))
			recs, id2 := l.GetRecords(id)
			So(id2, ShouldNotEqual, id)
			So(len(recs), ShouldEqual, 3)
			So(recs[0].Text, ShouldEqual, "one")
			So(recs[0].Level, ShouldEqual, LevelWarn)
			So(recs[1].Level, ShouldEqual, LevelError)
			So(recs[2].Text, ShouldEqual, "three")
			So(recs[2].Level, ShouldEqual, LevelInfo)

			Convey("Asking again with the same id returns nothing", func() {
				recs, id3 := l.GetRecords(id2)
				So(recs, ShouldBeNil)
				So(id3, ShouldEqual, id2)
			})

			Convey("Old lines fall off the end", func() {
				l.Write([]byte("four\nfive\n"))
				recs, _ := l.GetRecords(0)
				So(len(recs), ShouldEqual, 3)
				So(recs[0].Text, ShouldEqual, "three")
				So(recs[2].Text, ShouldEqual, "five")
				So(recs[2].Id, ShouldEqual, recs[0].Id+2)
			})
		})

		Convey("Watch returns when something is written", func() {
			go func() {
				time.Sleep(10 * time.Millisecond)
				l.Write([]byte("wake up\n"))
			}()
			nid := l.Watch(id, 5*time.Second)
			So(nid, ShouldNotEqual, id)
		})

		Convey("Watch gives up after the expiry", func() {
			nid := l.Watch(id, 10*time.Millisecond)
			So(nid, ShouldEqual, id)
		})
	})
}

func TestLogZeroValue(t *testing.T) {
	Convey("A zero Log is usable", t, func() {
		l := &Log{}
		recs, id := l.GetRecords(-1)
		So(len(recs), ShouldEqual, 0)

		n, e := l.Write([]byte("hello\n"))
		So(e, ShouldBeNil)
		So(n, ShouldEqual, 6)
		recs, nid := l.GetRecords(id)
		So(len(recs), ShouldEqual, 1)
		So(recs[0].Text, ShouldEqual, "hello")

		So(l.Watch(nid, 10*time.Millisecond), ShouldEqual, nid)
		go func() {
			time.Sleep(10 * time.Millisecond)
			l.Write([]byte("again\n"))
		}()
		So(l.Watch(nid, 5*time.Second), ShouldNotEqual, nid)
	})
}

func TestLogger(t *testing.T) {
	Convey("Given a logger at WARN", t, func() {
		ring := NewLog(0)
		m := NewMultiLogger()
		m.AddWriter(ring, 0)
		buf := &bytes.Buffer{}
		m.AddWriter(buf, 0)
		l := NewLogger(m.Logger(), LevelWarn)

		l.Infof("not shown %d", 1)
		l.Warnf("shown %d", 2)
		l.Errorf("also shown")

		So(buf.String(), ShouldEqual, "[WARN] shown 2\n[ERROR] also shown\n")
		recs, _ := ring.GetRecords(0)
		So(len(recs), ShouldEqual, 2)
		So(recs[0].Level, ShouldEqual, LevelWarn)
		So(recs[0].Text, ShouldEqual, "shown 2")

		Convey("A removed destination sees nothing more", func() {
			other := log.New(&bytes.Buffer{}, "", 0)
			m.AddLogger(other)
			m.AddLogger(other)
			So(len(m.loggers), ShouldEqual, 3)
			m.DelLogger(other)
			So(len(m.loggers), ShouldEqual, 2)
		})
	})
}

func TestParseLevel(t *testing.T) {
	Convey("Log levels parse in any case", t, func() {
		for s, want := range map[string]Level{
			"Trace": LevelTrace, "debug": LevelDebug, "INFO": LevelInfo,
			"warning": LevelWarn, "Warn": LevelWarn, " error ": LevelError,
		} {
			l, e := ParseLevel(s)
			So(e, ShouldBeNil)
			So(l, ShouldEqual, want)
		}
		_, e := ParseLevel("loud")
		So(e, ShouldNotBeNil)
	})

	Convey("Levels round trip through JSON as names", t, func() {
		b, e := json.Marshal(LogRecord{Level: LevelWarn, Text: "x"})
		So(e, ShouldBeNil)
		So(string(b), ShouldContainSubstring, `"level":"WARN"`)
		var r LogRecord
		So(json.Unmarshal(b, &r), ShouldBeNil)
		So(r.Level, ShouldEqual, LevelWarn)
	})
}
