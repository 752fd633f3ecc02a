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

// Package rest serves a read-only view of a running launcher over HTTP,
// and provides a client for it.
//
// Resources are
//
//	GET /                  - launcher summary (launcher.BoardInfo)
//	GET /adapters          - adapter names, in declaration order
//	GET /adapters/{name}   - one adapter (launcher.AdapterInfo)
//	GET /log               - recent log records (launcher.LogRecord)
//
// Every response carries an Etag.  A request with If-None-Match gets 304
// when nothing changed.  Adding PollEtagHeader (and optionally
// PollTimeHeader, in seconds) makes the server hold the request until the
// Etag changes or the time runs out.
//
// There is nothing here to start, stop, or restart adapters.
package rest

import (
	"strconv"
	"strings"
	"time"
)

const (
	PollEtagHeader = "X-Launcher-Poll-Etag"
	PollTimeHeader = "X-Launcher-Poll-Time"

	mimeJson = "application/json; charset=UTF-8"

	defaultPollTime = 60 * time.Second
	maxPollTime     = 300 * time.Second
)

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

func formatEtag(id int64) string {
	return `"` + strconv.FormatInt(id, 16) + `"`
}

func parseEtag(tag string) (int64, bool) {
	v, e := strconv.ParseInt(strings.Trim(tag, `"`), 16, 64)
	return v, e == nil
}

func pollTime(hdr string) time.Duration {
	if hdr == "" {
		return defaultPollTime
	}
	secs, e := strconv.Atoi(hdr)
	if e != nil || secs < 0 {
		return defaultPollTime
	}
	d := time.Duration(secs) * time.Second
	if d > maxPollTime {
		d = maxPollTime
	}
	return d
}
