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
	"log"
	"os"
	"strings"
)

// Level is the severity of a log message.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelTrace || l > LevelError {
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
	return levelNames[l]
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(b []byte) error {
	v, e := ParseLevel(string(b))
	if e != nil {
		return e
	}
	*l = v
	return nil
}

// ParseLevel accepts level names in any case.  "warning" is accepted as
// an alias for "warn".
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	}
	return LevelDebug, fmt.Errorf("Bad log level %q", s)
}

// splitLevel recognizes the "[LEVEL] " prefix written by Logger.  Lines
// without one are treated as informational.
func splitLevel(line string) (Level, string) {
	if !strings.HasPrefix(line, "[") {
		return LevelInfo, line
	}
	end := strings.Index(line, "] ")
	if end < 0 {
		return LevelInfo, line
	}
	for i, n := range levelNames {
		if line[1:end] == n {
			return Level(i), line[end+2:]
		}
	}
	return LevelInfo, line
}

// Logger filters messages by severity before handing them to a log.Logger.
type Logger struct {
	out   *log.Logger
	level Level
}

// NewLogger returns a Logger that drops anything below level.  A nil out
// logs to stderr with the standard flags.
func NewLogger(out *log.Logger, level Level) *Logger {
	if out == nil {
		out = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &Logger{out: out, level: level}
}

func (l *Logger) Level() Level {
	return l.level
}

func (l *Logger) Enabled(level Level) bool {
	return l != nil && level >= l.level
}

func (l *Logger) Logf(level Level, format string, v ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	l.out.Printf("["+level.String()+"] "+format, v...)
}

func (l *Logger) Tracef(format string, v ...interface{}) {
	l.Logf(LevelTrace, format, v...)
}

func (l *Logger) Debugf(format string, v ...interface{}) {
	l.Logf(LevelDebug, format, v...)
}

func (l *Logger) Infof(format string, v ...interface{}) {
	l.Logf(LevelInfo, format, v...)
}

func (l *Logger) Warnf(format string, v ...interface{}) {
	l.Logf(LevelWarn, format, v...)
}

func (l *Logger) Errorf(format string, v ...interface{}) {
	l.Logf(LevelError, format, v...)
}
