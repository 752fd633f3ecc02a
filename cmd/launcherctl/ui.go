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

package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell"
	"golang.org/x/net/context"

	"github.com/openfmb/launcher"
	"github.com/openfmb/launcher/rest"
)

/*
   Our screen has the following appearance:

    Launcher: ems-site at http://127.0.0.1:8322
    5 Adapters  4 Running  1 Idle
   ____________________________________________________________________________
   iccpA            iccp-client        idle          3    0:00:00  exit status 1
   bridge1          pub-sub-bridge     running       1    4:10:32  pid 4711
   ...
   ____________________________________________________________________________
   2022/06/01 10:00:01 INFO  Started iccpA: LD_LIBRARY_PATH=... iccp-adapter
   ...
   [Q]uit
*/

var (
	styleNormal = tcell.StyleDefault.
			Foreground(tcell.ColorSilver).
			Background(tcell.ColorBlack)
	styleGood = tcell.StyleDefault.
			Foreground(tcell.ColorGreen).
			Background(tcell.ColorBlack)
	styleWarn = tcell.StyleDefault.
			Foreground(tcell.ColorYellow).
			Background(tcell.ColorBlack)
	styleError = tcell.StyleDefault.
			Foreground(tcell.ColorMaroon).
			Background(tcell.ColorBlack)
	styleBar = tcell.StyleDefault.
			Foreground(tcell.ColorBlack).
			Background(tcell.ColorSilver)
	styleKey = tcell.StyleDefault.
			Foreground(tcell.ColorBlue).
			Background(tcell.ColorSilver).Bold(true)
)

type view struct {
	client *rest.Client
	url    string
	screen tcell.Screen

	sync.Mutex
	info     *launcher.BoardInfo
	adapters []*launcher.AdapterInfo
	logs     []launcher.LogRecord
	err      error
}

func (v *view) puts(x, y int, style tcell.Style, s string) int {
	w, _ := v.screen.Size()
	for _, r := range s {
		if x >= w {
			break
		}
		v.screen.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}

func (v *view) bar(y int, style tcell.Style) {
	w, _ := v.screen.Size()
	for x := 0; x < w; x++ {
		v.screen.SetContent(x, y, ' ', nil, style)
	}
}

func adapterStyle(a *launcher.AdapterInfo) tcell.Style {
	switch {
	case a.State == "running":
		return styleGood
	case a.LastError != "":
		return styleError
	case a.LastExit != "":
		return styleWarn
	}
	return styleNormal
}

func logStyle(r launcher.LogRecord) tcell.Style {
	switch r.Level {
	case launcher.LevelError:
		return styleError
	case launcher.LevelWarn:
		return styleWarn
	}
	return styleNormal
}

func (v *view) draw() {
	v.Lock()
	defer v.Unlock()

	s := v.screen
	s.Clear()
	w, h := s.Size()

	v.bar(0, styleBar)
	name := "?"
	if v.info != nil {
		name = v.info.Name
	}
	v.puts(0, 0, styleBar, fmt.Sprintf("Launcher: %s at %s", name, v.url))

	running := 0
	for _, a := range v.adapters {
		if a.State == "running" {
			running++
		}
	}
	if v.err != nil {
		v.puts(0, 1, styleError, fmt.Sprintf("Error: %v", v.err))
	} else {
		v.puts(0, 1, styleNormal, fmt.Sprintf("%d Adapters  %d Running  %d Idle",
			len(v.adapters), running, len(v.adapters)-running))
	}

	// Adapters get the top of the screen, the log the rest.
	y := 3
	bottom := h - 1
	split := y + len(v.adapters) + 1
	if split > bottom-3 {
		split = bottom - 3
	}
	for _, a := range v.adapters {
		if y >= split {
			break
		}
		v.puts(0, y, adapterStyle(a), fmt.Sprintf(
			"%-16s %-18s %-8s %6d %10s  %s", a.Name, a.Type, a.State,
			a.Starts, formatDuration(time.Since(a.TimeStamp)), detail(a)))
		y++
	}
	for x := 0; x < w; x++ {
		s.SetContent(x, 2, tcell.RuneHLine, nil, styleNormal)
		s.SetContent(x, split, tcell.RuneHLine, nil, styleNormal)
	}

	logs := v.logs
	if n := bottom - split - 1; len(logs) > n && n >= 0 {
		logs = logs[len(logs)-n:]
	}
	y = split + 1
	for _, r := range logs {
		v.puts(0, y, logStyle(r), fmt.Sprintf("%s %-5s %s",
			r.Time.Format("2006/01/02 15:04:05"), r.Level, r.Text))
		y++
	}

	v.bar(bottom, styleBar)
	x := v.puts(0, bottom, styleKey, "[Q]")
	v.puts(x, bottom, styleBar, "uit")
	s.Show()
}

func (v *view) refresh(ctx context.Context) {
	etag := ""
	for {
		info, ntag, e := v.client.Info(ctx)
		var all []*launcher.AdapterInfo
		var recs []launcher.LogRecord
		if e == nil {
			all, e = v.client.AllAdapters(ctx)
		}
		if e == nil {
			recs, _, e = v.client.Log(ctx, "", 0)
		}
		if ctx.Err() != nil {
			return
		}

		v.Lock()
		v.err = e
		if e == nil {
			sortInfos(all)
			v.info = info
			v.adapters = all
			v.logs = recs
			etag = ntag
		}
		v.Unlock()
		v.screen.PostEvent(tcell.NewEventInterrupt(nil))

		if e != nil || etag == "" {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		// Wake up once a minute anyway, so the uptimes move.
		if _, e = v.client.Watch(ctx, etag, time.Minute); e != nil {
			etag = ""
		}
	}
}

func doUI(client *rest.Client, url string) error {
	s, e := tcell.NewScreen()
	if e != nil {
		return e
	}
	if e = s.Init(); e != nil {
		return e
	}
	defer s.Fini()
	s.SetStyle(styleNormal)
	s.HideCursor()

	v := &view{client: client, url: url, screen: s}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go v.refresh(ctx)

	v.draw()
	for {
		switch ev := s.PollEvent().(type) {
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEscape, tcell.KeyCtrlC:
				return nil
			case tcell.KeyCtrlL:
				s.Sync()
			case tcell.KeyRune:
				switch ev.Rune() {
				case 'q', 'Q':
					return nil
				}
			}
		case *tcell.EventResize:
			s.Sync()
		case nil:
			return nil
		}
		v.draw()
	}
}
