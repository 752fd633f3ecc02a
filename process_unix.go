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

//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris
// +build darwin dragonfly freebsd linux netbsd openbsd solaris

package launcher

import (
	"os/exec"

	"golang.org/x/sys/unix"
)

// Process is an operating system process started by ExecSpawner.
//
// We never call Wait on the underlying exec.Cmd.  Instead the child is
// reaped with wait4(WNOHANG), which lets us poll without blocking and
// tell a failed query apart from a child that is simply still running.
type Process struct {
	cmd    *exec.Cmd
	pid    int
	status *ExitStatus
}

func (p *Process) Pid() int {
	return p.pid
}

// Command returns the argument vector the process was started with.
func (p *Process) Command() []string {
	return copyArray(p.cmd.Args)
}

func (p *Process) TryWait() (*ExitStatus, error) {
	if p.status != nil {
		return p.status, nil
	}
	if p.cmd == nil || p.cmd.Process == nil {
		return nil, ErrNotStarted
	}

	var ws unix.WaitStatus
	var wpid int
	var e error
	for {
		wpid, e = unix.Wait4(p.pid, &ws, unix.WNOHANG, nil)
		if e != unix.EINTR {
			break
		}
	}
	if e != nil {
		return nil, e
	}
	if wpid == 0 {
		return nil, nil
	}

	st := &ExitStatus{}
	if ws.Signaled() {
		st.Signaled = true
		st.Signal = ws.Signal()
		st.Code = -1
	} else {
		st.Code = ws.ExitStatus()
	}
	p.status = st
	// The pid is gone; let the runtime drop whatever it holds for it.
	p.cmd.Process.Release()
	return st, nil
}

func (s *ExecSpawner) Spawn(r Resolution, configPath string) (Handle, error) {
	path, e := exec.LookPath(r.Executable)
	if e != nil {
		return nil, e
	}
	cmd := &exec.Cmd{
		Path: path,
		Args: []string{r.Executable, "-c", configPath},
		Dir:  s.Dir,
		Env:  s.environ(r.Env),
	}
	cmd.Stdin, cmd.Stdout, cmd.Stderr = s.streams()

	if e := cmd.Start(); e != nil {
		return nil, e
	}
	return &Process{cmd: cmd, pid: cmd.Process.Pid}, nil
}

func copyArray(src []string) []string {
	rv := make([]string, 0, len(src))
	rv = append(rv, src...)
	return rv
}
