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

// Package launcher starts OpenFMB adapters as child processes and keeps
// them running.
//
// Each adapter is declared with a name, a type, and the path of its own
// configuration file.  The type selects an executable (and possibly a
// library search path) from a fixed table; see Resolve.  The adapter is
// then started as
//
//	<executable> -c <config>
//
// and relaunched whenever it exits, whatever its exit status, until the
// operator asks the launcher to stop.  Stopping the launcher stops the
// supervision only; children that are running at that point keep running.
//
// There are no dependencies between adapters, no health
// checks beyond noticing that a process has exited, and no restart
// throttling.
//
// The supervision loop is single threaded and owns all adapter state.  It
// publishes copies to a Board, which the HTTP status server in package
// rest reads.
package launcher
