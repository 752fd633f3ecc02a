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
	"errors"
	"fmt"
)

var (
	ErrNoAdapters         = errors.New("No adapters found. Nothing to be launched")
	ErrUnknownAdapterType = errors.New("Unknown adapter type")
	ErrNotStarted         = errors.New("Process not started")
	ErrAlreadyRunning     = errors.New("Supervisor already running")
	ErrNoSuchAdapter      = errors.New("No such adapter")
)

// ConfigError is returned by the supervisor when an adapter cannot be
// resolved to an executable.  It is fatal; the loop stops when it sees one.
type ConfigError struct {
	Adapter string
	Type    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("Unable to find executable file for adapter %s (type %q)",
		e.Adapter, e.Type)
}

// Unwrap lets errors.Is match ErrUnknownAdapterType.
func (e *ConfigError) Unwrap() error {
	return ErrUnknownAdapterType
}
