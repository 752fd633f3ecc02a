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
	"sort"
)

// Adapter type tags.  These are the only values accepted in the "type"
// field of an adapter definition.
const (
	TypeICCPClient       = "iccp-client"
	TypeICCPServer       = "iccp-server"
	TypeIEC61850Client   = "IEC61850-client"
	TypeIEC61850Server   = "IEC61850-server"
	TypeDNP3Master       = "dnp3-master"
	TypeDNP3Outstation   = "dnp3-outstation"
	TypeModbusMaster     = "modbus-master"
	TypeModbusOutstation = "modbus-outstation"
	TypeOCPP             = "ocpp"
	TypeOESPlug          = "oes-plug"
	TypePubSubBridge     = "pub-sub-bridge"
	TypeHistorian        = "historian"
)

// Executable names.  These are looked up in PATH at spawn time.
const (
	ExeOpenFMB  = "openfmb-adapter"
	ExeICCP     = "iccp-adapter"
	ExeIEC61850 = "iec61850-adapter"
	ExeOCPP     = "ocpp-adapter"
	ExeUDP      = "udp-adapter"
)

const libraryPathVar = "LD_LIBRARY_PATH"

// EnvOverride is a single environment variable applied to one child.
// The zero value means no override; an empty Name never sets anything,
// not even an empty variable.
type EnvOverride struct {
	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`
}

// Empty reports whether the override should be ignored.
func (o EnvOverride) Empty() bool {
	return o.Name == ""
}

func (o EnvOverride) String() string {
	if o.Empty() {
		return ""
	}
	return o.Name + "=" + o.Value
}

// Resolution is what is needed to launch an adapter of a given type.
type Resolution struct {
	Executable string
	Env        EnvOverride
}

// Resolver maps adapter type tags to launch parameters.  Implementations
// must be pure: the same tag always yields the same answer.
type Resolver interface {
	Resolve(typ string) (Resolution, bool)
}

// Registry is a table driven Resolver.  Tags are matched exactly.
type Registry map[string]Resolution

func (r Registry) Resolve(typ string) (Resolution, bool) {
	res, ok := r[typ]
	return res, ok
}

// Types returns the tags known to the registry, sorted.
func (r Registry) Types() []string {
	rv := make([]string, 0, len(r))
	for t := range r {
		rv = append(rv, t)
	}
	sort.Strings(rv)
	return rv
}

var (
	openfmb  = Resolution{Executable: ExeOpenFMB}
	iccp     = Resolution{Executable: ExeICCP, Env: EnvOverride{libraryPathVar, "/usr/local/lib/iccp"}}
	iec61850 = Resolution{Executable: ExeIEC61850, Env: EnvOverride{libraryPathVar, "/usr/local/lib/iec61850"}}
)

// DefaultRegistry is the built-in table of adapter kinds.  It must not be
// modified; build a new Registry instead.
var DefaultRegistry = Registry{
	TypePubSubBridge:     openfmb,
	TypeHistorian:        openfmb,
	TypeDNP3Master:       openfmb,
	TypeDNP3Outstation:   openfmb,
	TypeModbusMaster:     openfmb,
	TypeModbusOutstation: openfmb,
	TypeICCPClient:       iccp,
	TypeICCPServer:       iccp,
	TypeIEC61850Client:   iec61850,
	TypeIEC61850Server:   iec61850,
	TypeOCPP:             {Executable: ExeOCPP},
	TypeOESPlug:          {Executable: ExeUDP},
}

// Resolve looks up typ in DefaultRegistry.
func Resolve(typ string) (Resolution, bool) {
	return DefaultRegistry.Resolve(typ)
}

// KnownTypes lists every tag in DefaultRegistry.
func KnownTypes() []string {
	return DefaultRegistry.Types()
}
