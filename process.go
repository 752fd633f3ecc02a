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
	"fmt"
	"os"
	"strings"
	"syscall"
)

// Handle is a launched child.  TryWait must never block: it returns
// (nil, nil) while the child is still running, the exit status once it
// has exited, and an error only when the status could not be queried.
type Handle interface {
	Pid() int
	TryWait() (*ExitStatus, error)
}

// Spawner launches an adapter executable as
//
//	<executable> -c <configPath>
//
// with the resolution's environment override applied.  Spawn must return
// promptly; it is called from the supervision loop.
type Spawner interface {
	Spawn(r Resolution, configPath string) (Handle, error)
}

// ExitStatus describes how a child terminated.
type ExitStatus struct {
	Code     int            `json:"code"`
	Signaled bool           `json:"signaled"`
	Signal   syscall.Signal `json:"signal,omitempty"`
}

// Success is true for a normal exit with code zero.  The supervisor does
// not use this to decide anything; it is for display.
func (s *ExitStatus) Success() bool {
	return !s.Signaled && s.Code == 0
}

func (s *ExitStatus) String() string {
	if s.Signaled {
		return "signal: " + s.Signal.String()
	}
	return fmt.Sprintf("exit status %d", s.Code)
}

// ExecSpawner is the Spawner used by the daemon.  The zero value inherits
// the supervisor's environment, working directory, and standard streams.
type ExecSpawner struct {
	Dir string   // Working directory for children, "" = ours
	Env []string // Base environment, nil = os.Environ()

	// Standard streams.  Nil means inherit ours; the supervisor never
	// captures child output.
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

func (s *ExecSpawner) streams() (*os.File, *os.File, *os.File) {
	stdin, stdout, stderr := s.Stdin, s.Stdout, s.Stderr
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return stdin, stdout, stderr
}

func (s *ExecSpawner) environ(o EnvOverride) []string {
	base := s.Env
	if base == nil {
		base = os.Environ()
	}
	return mergeEnv(base, o)
}

// mergeEnv returns a copy of base with the override applied.  Any existing
// definition of the same variable is replaced.
func mergeEnv(base []string, o EnvOverride) []string {
	rv := make([]string, 0, len(base)+1)
	pfx := o.Name + "="
	for _, kv := range base {
		if !o.Empty() && strings.HasPrefix(kv, pfx) {
			continue
		}
		rv = append(rv, kv)
	}
	if !o.Empty() {
		rv = append(rv, o.String())
	}
	return rv
}
