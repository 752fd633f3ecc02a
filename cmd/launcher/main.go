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

// Command launcher starts the adapters listed in a configuration file and
// restarts them whenever they exit.
//
//	launcher -c launcher.yaml [-a <status address>] [-v <log level>]
//
// SIGINT or SIGTERM stops supervision.  Adapters that are running at that
// point are not stopped.  The exit status is 0 after such a shutdown, 1 if
// the configuration is unusable (no adapters, or an adapter of an unknown
// type), and 2 for bad usage.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/openfmb/launcher"
	"github.com/openfmb/launcher/config"
	"github.com/openfmb/launcher/rest"
)

func usage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: %s -c <config.yaml> [-a <address>] [-v <level>] [-n <name>]\n",
		fs.Name())
}

// setupLogging fans log output out to stderr, the in-memory ring served
// by the status server, and the log file if one is configured.  The
// returned function closes the log file.
func setupLogging(cfg *config.Config, lvl launcher.Level) (*launcher.Logger, *launcher.Log, func()) {
	mlog := launcher.NewMultiLogger()
	mlog.AddWriter(os.Stderr, log.LstdFlags)
	ring := launcher.NewLog(0)
	mlog.AddWriter(ring, 0)

	closer := func() {}
	if f := cfg.Launcher.LogFile; f != "" {
		lj := &lumberjack.Logger{
			Filename:   f,
			MaxSize:    cfg.Launcher.LogMaxSizeMB,
			MaxBackups: cfg.Launcher.LogMaxBackups,
		}
		mlog.AddWriter(lj, log.LstdFlags)
		closer = func() { lj.Close() }
	}
	return launcher.NewLogger(mlog.Logger(), lvl), ring, closer
}

func serveStatus(addr string, sup *launcher.Supervisor, ring *launcher.Log, cfg *config.Config, logger *launcher.Logger) *http.Server {
	h := rest.NewHandler(sup.Board(), ring)
	h.SetUsers(cfg.Launcher.StatusUsers)
	srv := &http.Server{Addr: addr, Handler: h}
	go func() {
		logger.Infof("Status server listening on %s", addr)
		if e := srv.ListenAndServe(); e != nil && e != http.ErrServerClosed {
			logger.Errorf("Status server failed: %v", e)
		}
	}()
	return srv
}

// run is the whole daemon.  args excludes the program name.  SIGINT and
// SIGTERM are delivered on sigs, and the first one stops supervision.
func run(args []string, sigs chan os.Signal) int {
	var cfgFile, addr, level string
	name := "launcher"

	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.Usage = func() { usage(fs) }
	fs.StringVar(&cfgFile, "c", cfgFile, "launcher configuration file")
	fs.StringVar(&addr, "a", addr, "status listen address (overrides status_addr)")
	fs.StringVar(&level, "v", level, "log level (overrides log_level)")
	fs.StringVar(&name, "n", name, "launcher name")
	if e := fs.Parse(args); e != nil {
		return 2
	}

	if cfgFile == "" || fs.NArg() != 0 {
		usage(fs)
		return 2
	}

	cfg, e := config.Load(cfgFile)
	if e != nil {
		log.Printf("Unable to load %s: %v", cfgFile, e)
		return 1
	}
	lvl := cfg.Level()
	if level != "" {
		if lvl, e = launcher.ParseLevel(level); e != nil {
			log.Printf("%v", e)
			return 2
		}
	}
	if addr == "" {
		addr = cfg.Launcher.StatusAddr
	}

	logger, ring, closeLog := setupLogging(cfg, lvl)
	defer closeLog()

	sup, e := launcher.NewSupervisor(name, cfg.Descriptors())
	if e != nil {
		logger.Errorf("Failed to launch any of the adapters: %v", e)
		return 1
	}
	sup.SetLogger(logger)
	sup.SetPollInterval(cfg.PollInterval())

	if addr != "" {
		srv := serveStatus(addr, sup, ring, cfg, logger)
		defer srv.Close()
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	defer close(done)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case sig := <-sigs:
			logger.Infof("Received %v, stopping", sig)
			close(stop)
		case <-done:
		}
	}()

	if e := sup.Run(stop); e != nil {
		logger.Errorf("Failed to launch any of the adapters: %v", e)
		return 1
	}
	logger.Infof("Adapters are no longer supervised")
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], make(chan os.Signal, 1)))
}
