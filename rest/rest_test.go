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

package rest

import (
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/net/context"

	"github.com/openfmb/launcher"
)

type fakeHandle struct {
	pid    int
	status *launcher.ExitStatus
}

func (h *fakeHandle) Pid() int {
	return h.pid
}

func (h *fakeHandle) TryWait() (*launcher.ExitStatus, error) {
	return h.status, nil
}

type fakeSpawner struct {
	handles []*fakeHandle
}

func (s *fakeSpawner) Spawn(r launcher.Resolution, config string) (launcher.Handle, error) {
	h := &fakeHandle{pid: 100 + len(s.handles)}
	s.handles = append(s.handles, h)
	return h, nil
}

type fixture struct {
	sup    *launcher.Supervisor
	sp     *fakeSpawner
	ring   *launcher.Log
	srv    *httptest.Server
	client *Client
	ctx    context.Context
}

func WithServer(t *testing.T, fn func(f *fixture)) func() {
	return func() {
		f := &fixture{sp: &fakeSpawner{}, ring: launcher.NewLog(0)}
		var e error
		f.sup, e = launcher.NewSupervisor("resttest", []launcher.Descriptor{
			{Name: "bridge1", Type: launcher.TypePubSubBridge, ConfigPath: "/etc/bridge1.yaml"},
			{Name: "iccpA", Type: launcher.TypeICCPClient, ConfigPath: "/etc/iccpA.yaml"},
		})
		So(e, ShouldBeNil)
		f.sup.SetSpawner(f.sp)
		f.sup.SetLogger(launcher.NewLogger(log.New(f.ring, "", 0), launcher.LevelInfo))

		h := NewHandler(f.sup.Board(), f.ring)
		f.srv = httptest.NewServer(h)
		f.client = NewClient(nil, f.srv.URL)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		f.ctx = ctx
		Reset(func() {
			cancel()
			f.srv.Close()
		})
		fn(f)
	}
}

func TestServerReadOnly(t *testing.T) {
	Convey("Given a status server", t, WithServer(t, func(f *fixture) {

		Convey("The summary is served", func() {
			info, etag, e := f.client.Info(f.ctx)
			So(e, ShouldBeNil)
			So(etag, ShouldNotBeEmpty)
			So(info.Name, ShouldEqual, "resttest")
			So(info.Adapters, ShouldEqual, 2)
			So(info.Running, ShouldBeFalse)
		})

		Convey("Adapters are listed in order", func() {
			names, e := f.client.Adapters(f.ctx)
			So(e, ShouldBeNil)
			So(names, ShouldResemble, []string{"bridge1", "iccpA"})
		})

		Convey("Adapter state follows the supervisor", func() {
			a, e := f.client.Adapter(f.ctx, "iccpA")
			So(e, ShouldBeNil)
			So(a.State, ShouldEqual, "idle")

			So(f.sup.Tick(), ShouldBeNil)
			a, e = f.client.Adapter(f.ctx, "iccpA")
			So(e, ShouldBeNil)
			So(a.State, ShouldEqual, "running")
			So(a.Pid, ShouldEqual, 101)
			So(a.Executable, ShouldEqual, launcher.ExeICCP)

			f.sp.handles[1].status = &launcher.ExitStatus{Code: 7}
			So(f.sup.Tick(), ShouldBeNil)
			all, e := f.client.AllAdapters(f.ctx)
			So(e, ShouldBeNil)
			So(len(all), ShouldEqual, 2)
			So(all[0].State, ShouldEqual, "running")
			So(all[1].State, ShouldEqual, "idle")
			So(all[1].LastExit, ShouldEqual, "exit status 7")
		})

		Convey("Unknown adapters are 404", func() {
			_, e := f.client.Adapter(f.ctx, "nosuch")
			So(e, ShouldNotBeNil)
			re, ok := e.(*Error)
			So(ok, ShouldBeTrue)
			So(re.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("There is no way to control adapters", func() {
			res, e := http.Post(f.srv.URL+"/adapters/bridge1/restart", "text/plain", nil)
			So(e, ShouldBeNil)
			res.Body.Close()
			So(res.StatusCode, ShouldNotEqual, http.StatusOK)
		})

		Convey("The log is served", func() {
			So(f.sup.Tick(), ShouldBeNil)
			recs, etag, e := f.client.Log(f.ctx, "", 0)
			So(e, ShouldBeNil)
			So(etag, ShouldNotBeEmpty)
			So(len(recs), ShouldEqual, 2)
			So(recs[0].Level, ShouldEqual, launcher.LevelInfo)
			So(recs[0].Text, ShouldStartWith, "Started bridge1")

			Convey("And unchanged logs are not resent", func() {
				recs, etag2, e := f.client.Log(f.ctx, etag, 0)
				So(e, ShouldBeNil)
				So(recs, ShouldBeNil)
				So(etag2, ShouldEqual, etag)
			})
		})
	}))
}

func TestServerLongPoll(t *testing.T) {
	Convey("Given a status server", t, WithServer(t, func(f *fixture) {
		_, etag, e := f.client.Info(f.ctx)
		So(e, ShouldBeNil)

		Convey("Watch returns the same Etag when nothing happens", func() {
			ntag, e := f.client.Watch(f.ctx, etag, time.Second)
			So(e, ShouldBeNil)
			So(ntag, ShouldEqual, etag)
		})

		Convey("Watch wakes up on a state change", func() {
			go func() {
				time.Sleep(20 * time.Millisecond)
				f.sup.Tick()
			}()
			ntag, e := f.client.Watch(f.ctx, etag, 5*time.Second)
			So(e, ShouldBeNil)
			So(ntag, ShouldNotEqual, etag)
		})
	}))
}

func TestServerAuth(t *testing.T) {
	Convey("Given a status server with users", t, WithServer(t, func(f *fixture) {
		hash, e := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
		So(e, ShouldBeNil)
		h := NewHandler(f.sup.Board(), f.ring)
		h.SetUsers(map[string]string{"admin": string(hash)})
		srv := httptest.NewServer(h)
		Reset(srv.Close)
		c := NewClient(nil, srv.URL)

		Convey("Anonymous requests are refused", func() {
			_, e := c.Adapters(f.ctx)
			So(e, ShouldNotBeNil)
			So(e.(*Error).Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("Wrong passwords are refused", func() {
			c.SetAuth("admin", "guess")
			_, e := c.Adapters(f.ctx)
			So(e, ShouldNotBeNil)
			So(e.(*Error).Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("The right password works", func() {
			c.SetAuth("admin", "secret")
			names, e := c.Adapters(f.ctx)
			So(e, ShouldBeNil)
			So(len(names), ShouldEqual, 2)
		})
	}))
}

func TestServerEscapedNames(t *testing.T) {
	Convey("Adapter names with reserved characters are served", t, func() {
		sup, e := launcher.NewSupervisor("resttest", []launcher.Descriptor{
			{Name: "site/a", Type: launcher.TypeOCPP, ConfigPath: "/etc/a.yaml"},
			{Name: "b c", Type: launcher.TypeOCPP, ConfigPath: "/etc/b.yaml"},
		})
		So(e, ShouldBeNil)
		srv := httptest.NewServer(NewHandler(sup.Board(), launcher.NewLog(0)))
		Reset(srv.Close)
		c := NewClient(nil, srv.URL)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		Reset(cancel)

		a, e := c.Adapter(ctx, "site/a")
		So(e, ShouldBeNil)
		So(a.Name, ShouldEqual, "site/a")
		So(a.Config, ShouldEqual, "/etc/a.yaml")

		a, e = c.Adapter(ctx, "b c")
		So(e, ShouldBeNil)
		So(a.Name, ShouldEqual, "b c")

		all, e := c.AllAdapters(ctx)
		So(e, ShouldBeNil)
		So(len(all), ShouldEqual, 2)

		_, e = c.Adapter(ctx, "site")
		So(e, ShouldNotBeNil)
		So(e.(*Error).Code, ShouldEqual, http.StatusNotFound)
	})
}

func TestEtags(t *testing.T) {
	Convey("Etags round trip", t, func() {
		id := time.Now().UnixNano()
		v, ok := parseEtag(formatEtag(id))
		So(ok, ShouldBeTrue)
		So(v, ShouldEqual, id)
		_, ok = parseEtag("")
		So(ok, ShouldBeFalse)
	})

	Convey("Poll times are bounded", t, func() {
		So(pollTime(""), ShouldEqual, defaultPollTime)
		So(pollTime("junk"), ShouldEqual, defaultPollTime)
		So(pollTime("5"), ShouldEqual, 5*time.Second)
		So(pollTime("100000"), ShouldEqual, maxPollTime)
	})
}
