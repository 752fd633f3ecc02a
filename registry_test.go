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
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestResolveKnownTypes(t *testing.T) {
	Convey("Every known adapter type resolves", t, func() {
		types := KnownTypes()
		So(len(types), ShouldEqual, 12)
		for _, typ := range types {
			r, ok := Resolve(typ)
			So(ok, ShouldBeTrue)
			So(r.Executable, ShouldNotBeEmpty)
		}
	})
}

func TestResolveUnknownTypes(t *testing.T) {
	Convey("Unknown adapter types do not resolve", t, func() {
		for _, typ := range []string{"", "nosuch", "ICCP-client",
			"iec61850-client", "pub-sub-bridge ", "ocpp-2.0"} {
			r, ok := Resolve(typ)
			So(ok, ShouldBeFalse)
			So(r, ShouldResemble, Resolution{})
		}
	})
}

func TestResolveEnvOverrides(t *testing.T) {
	Convey("Only the protocol stack adapters set a library path", t, func() {
		withEnv := map[string]string{
			TypeICCPClient:     "/usr/local/lib/iccp",
			TypeICCPServer:     "/usr/local/lib/iccp",
			TypeIEC61850Client: "/usr/local/lib/iec61850",
			TypeIEC61850Server: "/usr/local/lib/iec61850",
		}
		for _, typ := range KnownTypes() {
			r, _ := Resolve(typ)
			if dir, ok := withEnv[typ]; ok {
				So(r.Env.Empty(), ShouldBeFalse)
				So(r.Env.Name, ShouldEqual, "LD_LIBRARY_PATH")
				So(r.Env.Value, ShouldEqual, dir)
			} else {
				So(r.Env.Empty(), ShouldBeTrue)
				So(r.Env.String(), ShouldBeEmpty)
			}
		}
	})
}

func TestResolveSharedExecutable(t *testing.T) {
	Convey("Bridge style adapters share one executable", t, func() {
		for _, typ := range []string{TypePubSubBridge, TypeHistorian,
			TypeDNP3Master, TypeDNP3Outstation,
			TypeModbusMaster, TypeModbusOutstation} {
			r, ok := Resolve(typ)
			So(ok, ShouldBeTrue)
			So(r.Executable, ShouldEqual, ExeOpenFMB)
		}
		r, _ := Resolve(TypeICCPServer)
		So(r.Executable, ShouldEqual, ExeICCP)
		r, _ = Resolve(TypeIEC61850Client)
		So(r.Executable, ShouldEqual, ExeIEC61850)
		r, _ = Resolve(TypeOCPP)
		So(r.Executable, ShouldEqual, ExeOCPP)
		r, _ = Resolve(TypeOESPlug)
		So(r.Executable, ShouldEqual, ExeUDP)
	})
}

func TestMergeEnv(t *testing.T) {
	Convey("Merging an environment override", t, func() {
		base := []string{"PATH=/bin", "LD_LIBRARY_PATH=/old", "HOME=/root"}

		Convey("An empty override changes nothing", func() {
			env := mergeEnv(base, EnvOverride{})
			So(env, ShouldResemble, base)
		})
		Convey("An override replaces an existing value", func() {
			env := mergeEnv(base, EnvOverride{"LD_LIBRARY_PATH", "/new"})
			So(env, ShouldResemble, []string{"PATH=/bin", "HOME=/root",
				"LD_LIBRARY_PATH=/new"})
			So(base[1], ShouldEqual, "LD_LIBRARY_PATH=/old")
		})
		Convey("An override is added when absent", func() {
			env := mergeEnv([]string{"PATH=/bin"}, EnvOverride{"X", ""})
			So(env, ShouldResemble, []string{"PATH=/bin", "X="})
		})
	})
}
