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

// Command launcherctl shows what a running launcher is doing.  It talks to
// the launcher's status server and uses subcommands.
//
// The flags are
//
//	-a <address>	- status server URL, default is
//			  http://127.0.0.1:8322
//	-u <user:pass>	- user name & password for basic auth
//
// Subcommands are
//
//	adapters            - list adapter names
//	status [<name> ...] - one line of status per adapter (default all)
//	info <name>         - detailed adapter info
//	log                 - the launcher's recent log
//	ui                  - full screen live view (the default)
//
// launcherctl cannot start, stop, or restart adapters.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/context"

	"github.com/openfmb/launcher"
	"github.com/openfmb/launcher/rest"
)

var addr string = "http://127.0.0.1:8322"
var auth string = ""

func usage() {
	log.Fatalf("Usage: %s [-a <address>] [-u <user:pass>] <subcommand>",
		os.Args[0])
}

func formatDuration(d time.Duration) string {
	sec := int((d % time.Minute) / time.Second)
	min := int((d % time.Hour) / time.Minute)
	hour := int(d / time.Hour)

	return fmt.Sprintf("%d:%02d:%02d", hour, min, sec)
}

// detail is the most interesting thing to say about an adapter.
func detail(a *launcher.AdapterInfo) string {
	switch {
	case a.State == "running":
		return fmt.Sprintf("pid %d", a.Pid)
	case a.LastError != "":
		return a.LastError
	case a.LastExit != "":
		return a.LastExit
	}
	return ""
}

func showStatus(w io.Writer, a *launcher.AdapterInfo) {
	fmt.Fprintf(w, "%-16s %-18s %-8s %6d %10s  %s\n", a.Name, a.Type,
		a.State, a.Starts, formatDuration(time.Since(a.TimeStamp)),
		detail(a))
}

func showInfo(w io.Writer, a *launcher.AdapterInfo) {
	fmt.Fprintf(w, "Name:       %s\n", a.Name)
	fmt.Fprintf(w, "Type:       %s\n", a.Type)
	fmt.Fprintf(w, "Config:     %s\n", a.Config)
	fmt.Fprintf(w, "Executable: %s\n", a.Executable)
	fmt.Fprintf(w, "State:      %s\n", a.State)
	if a.Pid != 0 {
		fmt.Fprintf(w, "Pid:        %d\n", a.Pid)
	}
	fmt.Fprintf(w, "Starts:     %d\n", a.Starts)
	fmt.Fprintf(w, "Since:      %v\n", time.Since(a.TimeStamp).Truncate(time.Second))
	if a.LastExit != "" {
		fmt.Fprintf(w, "Last exit:  %s\n", a.LastExit)
	}
	if a.LastError != "" {
		fmt.Fprintf(w, "Last error: %s\n", a.LastError)
	}
}

func showLog(w io.Writer, r launcher.LogRecord) {
	fmt.Fprintf(w, "%s %-5s %s\n", r.Time.Format("2006/01/02 15:04:05"),
		r.Level, r.Text)
}

type sorted []*launcher.AdapterInfo

func (s sorted) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

func (s sorted) Len() int {
	return len(s)
}

func (s sorted) Less(i, j int) bool {
	a := s[i]
	b := s[j]

	// Adapters that are not running are the ones worth looking at.
	if (a.State == "running") != (b.State == "running") {
		return b.State == "running"
	}
	return a.Name < b.Name
}

func sortInfos(items []*launcher.AdapterInfo) {
	sort.Stable(sorted(items))
}

func timeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func main() {
	flag.StringVar(&addr, "a", addr, "launcher status address")
	flag.StringVar(&auth, "u", auth, "user:pass authentication")
	flag.Parse()

	client := rest.NewClient(nil, addr)
	if auth != "" {
		a := strings.SplitN(auth, ":", 2)
		if len(a) != 2 {
			log.Fatalf("Bad user:pass supplied")
		}
		client.SetAuth(a[0], a[1])
	}

	args := flag.Args()
	if len(args) == 0 {
		args = []string{"ui"}
	}

	ctx, cancel := timeout()
	defer cancel()

	switch args[0] {
	case "adapters":
		if len(args) != 1 {
			usage()
		}
		names, e := client.Adapters(ctx)
		if e != nil {
			log.Fatalf("Failed: %v", e)
		}
		for _, n := range names {
			fmt.Println(n)
		}

	case "status":
		var infos []*launcher.AdapterInfo
		var e error
		if len(args) == 1 {
			if infos, e = client.AllAdapters(ctx); e != nil {
				log.Fatalf("Failed: %v", e)
			}
		} else {
			for _, n := range args[1:] {
				info, e := client.Adapter(ctx, n)
				if e != nil {
					log.Printf("Failed: %s: %v", n, e)
					continue
				}
				infos = append(infos, info)
			}
		}
		sortInfos(infos)
		for _, info := range infos {
			showStatus(os.Stdout, info)
		}

	case "info":
		if len(args) != 2 {
			usage()
		}
		info, e := client.Adapter(ctx, args[1])
		if e != nil {
			log.Fatalf("Failed: %v", e)
		}
		showInfo(os.Stdout, info)

	case "log":
		if len(args) != 1 {
			usage()
		}
		recs, _, e := client.Log(ctx, "", 0)
		if e != nil {
			log.Fatalf("Failed: %v", e)
		}
		for _, r := range recs {
			showLog(os.Stdout, r)
		}

	case "ui":
		cancel()
		if e := doUI(client, addr); e != nil {
			log.Fatalf("Failed: %v", e)
		}

	default:
		usage()
	}
}
