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

// Package config reads the launcher's YAML configuration file.
//
// A configuration looks like this:
//
//	launcher:
//	  log_level: Info
//	  poll_interval: 100ms
//	  status_addr: 127.0.0.1:8322
//	adapters:
//	  - name: bridge1
//	    type: pub-sub-bridge
//	    config: /etc/openfmb/bridge1.yaml
//
// Adapter types are not checked here.  An unknown type is reported by the
// supervisor when it reaches that adapter.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/openfmb/launcher"
)

const (
	DefaultLogLevel      = launcher.LevelDebug
	DefaultLogMaxSizeMB  = 10
	DefaultLogMaxBackups = 3
)

var (
	ErrNoName       = errors.New("adapter has no name")
	ErrNoConfigPath = errors.New("adapter has no config")
)

// Config is the whole file.
type Config struct {
	Launcher Launcher  `yaml:"launcher"`
	Adapters []Adapter `yaml:"adapters"`
}

// Launcher holds settings for the launcher itself.
type Launcher struct {
	LogLevel      *launcher.Level   `yaml:"log_level"`
	LogFile       string            `yaml:"log_file"`
	LogMaxSizeMB  int               `yaml:"log_max_size_mb"`
	LogMaxBackups int               `yaml:"log_max_backups"`
	PollInterval  *Duration         `yaml:"poll_interval"`
	StatusAddr    string            `yaml:"status_addr"`
	StatusUsers   map[string]string `yaml:"status_users"` // user -> bcrypt hash
}

// Adapter is one entry of the adapters list.
type Adapter struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Config string `yaml:"config"`
}

// Duration accepts Go duration strings ("250ms", "1s") or a bare number
// of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if e := n.Decode(&s); e != nil {
		return e
	}
	v, e := time.ParseDuration(s)
	if e != nil {
		var secs float64
		if e2 := n.Decode(&secs); e2 != nil {
			return fmt.Errorf("bad duration %q: %w", s, e)
		}
		v = time.Duration(secs * float64(time.Second))
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Level returns the configured log level, or the default.
func (c *Config) Level() launcher.Level {
	if c.Launcher.LogLevel == nil {
		return DefaultLogLevel
	}
	return *c.Launcher.LogLevel
}

// PollInterval returns the configured pause between ticks, or the
// supervisor's default.
func (c *Config) PollInterval() time.Duration {
	if c.Launcher.PollInterval == nil {
		return launcher.DefaultPollInterval
	}
	return time.Duration(*c.Launcher.PollInterval)
}

// Descriptors returns the adapters in the order they were declared.
func (c *Config) Descriptors() []launcher.Descriptor {
	rv := make([]launcher.Descriptor, 0, len(c.Adapters))
	for _, a := range c.Adapters {
		rv = append(rv, launcher.Descriptor{
			Name:       a.Name,
			Type:       a.Type,
			ConfigPath: a.Config,
		})
	}
	return rv
}

func (c *Config) applyDefaults() {
	if c.Launcher.LogMaxSizeMB <= 0 {
		c.Launcher.LogMaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.Launcher.LogMaxBackups <= 0 {
		c.Launcher.LogMaxBackups = DefaultLogMaxBackups
	}
}

// Validate checks each adapter entry.  An empty adapter list is not an
// error here; the supervisor refuses to start with one.
func (c *Config) Validate() error {
	for i, a := range c.Adapters {
		if a.Name == "" {
			return fmt.Errorf("adapter %d: %w", i+1, ErrNoName)
		}
		if a.Config == "" {
			return fmt.Errorf("adapter %s: %w", a.Name, ErrNoConfigPath)
		}
	}
	if c.Launcher.PollInterval != nil && *c.Launcher.PollInterval < 0 {
		return fmt.Errorf("poll_interval: negative duration %v",
			time.Duration(*c.Launcher.PollInterval))
	}
	return nil
}

// Parse reads a configuration from r.
func Parse(r io.Reader) (*Config, error) {
	var cfg Config
	if e := yaml.NewDecoder(r).Decode(&cfg); e != nil && e != io.EOF {
		return nil, fmt.Errorf("parse config: %w", e)
	}
	cfg.applyDefaults()
	if e := cfg.Validate(); e != nil {
		return nil, e
	}
	return &cfg, nil
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	f, e := os.Open(path)
	if e != nil {
		return nil, fmt.Errorf("read config: %w", e)
	}
	defer f.Close()
	return Parse(f)
}
