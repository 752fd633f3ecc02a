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

package rest

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/openfmb/launcher"
)

// Handler wraps a Board and a Log, adding http.Handler functionality.
type Handler struct {
	board *launcher.Board
	log   *launcher.Log
	users map[string][]byte
	realm string
	r     *mux.Router
}

func (h *Handler) internalError(w http.ResponseWriter, e error) {
	http.Error(w, e.Error(), http.StatusInternalServerError)
}

func (h *Handler) writeJson(w http.ResponseWriter, etag string, v interface{}) {
	if b, e := json.Marshal(v); e != nil {
		h.internalError(w, e)
	} else {
		w.Header().Set("Content-Type", mimeJson)
		w.Header().Set("Etag", etag)
		w.Write(b)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, e *Error) {
	if b, err := json.Marshal(e); err != nil {
		h.internalError(w, err)
	} else {
		w.Header().Set("Content-Type", mimeJson)
		w.WriteHeader(e.Code)
		w.Write(b)
	}
}

// notModified answers 304 if the client already has etag.
func notModified(w http.ResponseWriter, r *http.Request, etag string) bool {
	if r.Header.Get("If-None-Match") != etag {
		return false
	}
	w.Header().Set("Etag", etag)
	w.WriteHeader(http.StatusNotModified)
	return true
}

// watchBoard holds a long poll until the board changes.  It returns the
// serial to report.
func (h *Handler) watchBoard(r *http.Request) int64 {
	if old, ok := parseEtag(r.Header.Get(PollEtagHeader)); ok {
		return h.board.WatchSerial(old, pollTime(r.Header.Get(PollTimeHeader)))
	}
	return h.board.Serial()
}

func (h *Handler) getInfo(w http.ResponseWriter, r *http.Request) {
	h.watchBoard(r)
	info := h.board.Info()
	etag := formatEtag(info.Serial)
	if !notModified(w, r, etag) {
		h.writeJson(w, etag, info)
	}
}

func (h *Handler) listAdapters(w http.ResponseWriter, r *http.Request) {
	h.watchBoard(r)
	infos, serial := h.board.Adapters()
	l := make([]string, 0, len(infos))
	for _, i := range infos {
		l = append(l, i.Name)
	}
	etag := formatEtag(serial)
	if !notModified(w, r, etag) {
		h.writeJson(w, etag, l)
	}
}

func (h *Handler) getAdapter(w http.ResponseWriter, r *http.Request) {
	// Routes match the escaped path, so names may contain "/".
	name, e := url.PathUnescape(mux.Vars(r)["adapter"])
	if e != nil {
		h.writeError(w, &Error{http.StatusBadRequest, "Bad adapter name"})
		return
	}
	h.watchBoard(r)
	info, serial, e := h.board.Adapter(name)
	if e != nil {
		h.writeError(w, &Error{http.StatusNotFound, "Adapter not found"})
		return
	}
	etag := formatEtag(serial)
	if !notModified(w, r, etag) {
		h.writeJson(w, etag, info)
	}
}

func (h *Handler) getLog(w http.ResponseWriter, r *http.Request) {
	if old, ok := parseEtag(r.Header.Get(PollEtagHeader)); ok {
		h.log.Watch(old, pollTime(r.Header.Get(PollTimeHeader)))
	}
	recs, id := h.log.GetRecords(0)
	etag := formatEtag(id)
	if !notModified(w, r, etag) {
		h.writeJson(w, etag, recs)
	}
}

// authenticate enforces basic auth when users are configured.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(h.users) != 0 {
			user, pass, ok := r.BasicAuth()
			hash, known := h.users[user]
			if !ok || !known ||
				bcrypt.CompareHashAndPassword(hash, []byte(pass)) != nil {
				w.Header().Set("WWW-Authenticate",
					`Basic realm="`+h.realm+`"`)
				h.writeError(w, &Error{http.StatusUnauthorized,
					"Unauthorized"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// SetUsers restricts access to the given users.  The map values are
// bcrypt hashes of their passwords.  An empty map allows everyone.
func (h *Handler) SetUsers(users map[string]string) {
	h.users = make(map[string][]byte, len(users))
	for u, hash := range users {
		h.users[u] = []byte(hash)
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h.r.ServeHTTP(w, req)
}

func NewHandler(b *launcher.Board, l *launcher.Log) *Handler {
	r := mux.NewRouter().UseEncodedPath()
	h := &Handler{board: b, log: l, realm: b.Name(), r: r}
	r.Use(h.authenticate)
	r.HandleFunc("/", h.getInfo).Methods("GET")
	r.HandleFunc("/adapters", h.listAdapters).Methods("GET")
	r.HandleFunc("/adapters/{adapter}", h.getAdapter).Methods("GET")
	r.HandleFunc("/log", h.getLog).Methods("GET")
	return h
}
