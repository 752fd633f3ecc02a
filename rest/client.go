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
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/context"

	"github.com/openfmb/launcher"
)

// Client talks to a Handler.  Methods that take a context honor its
// deadline and cancellation; the long poll variants are meant to be used
// with a cancellable context.
type Client struct {
	user   string // HTTP Basic-Auth
	pass   string
	base   string // URI to root of tree on server
	auth   bool
	client *http.Client
}

func (c *Client) SetAuth(user string, pass string) {
	c.user = user
	c.pass = pass
	c.auth = true
}

func (c *Client) url(name string) string {
	if name == "" {
		return c.base + "/adapters"
	}
	return c.base + "/adapters/" + url.PathEscape(name)
}

// poll issues an HTTP GET against the URL and decodes the JSON body into v.
// If etag is set it is sent as If-None-Match, and with wait > 0 the server
// is asked to hold the request until the resource changes.  It returns the
// new Etag, or "" (and a nil error) if the resource did not change, in
// which case v is untouched.
func (c *Client) poll(ctx context.Context, url string, etag string, wait time.Duration, v interface{}) (string, error) {

	req, e := http.NewRequest("GET", url, nil)
	if e != nil {
		return "", e
	}
	req = req.WithContext(ctx)
	if c.auth {
		req.SetBasicAuth(c.user, c.pass)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
		if wait > 0 {
			req.Header.Set(PollEtagHeader, etag)
			req.Header.Set(PollTimeHeader,
				strconv.Itoa(int(wait/time.Second)))
		}
	}

	res, e := c.client.Do(req)
	if e != nil {
		return "", e
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotModified {
		return "", nil
	}
	body, e := ioutil.ReadAll(res.Body)
	if e != nil {
		return "", e
	}
	if res.StatusCode != http.StatusOK {
		re := &Error{}
		if json.Unmarshal(body, re) != nil || re.Message == "" {
			re = &Error{Code: res.StatusCode, Message: res.Status}
		}
		return "", re
	}
	if e := json.Unmarshal(body, v); e != nil {
		return "", e
	}
	return res.Header.Get("Etag"), nil
}

// Info returns the launcher summary and its Etag.
func (c *Client) Info(ctx context.Context) (*launcher.BoardInfo, string, error) {
	v := &launcher.BoardInfo{}
	etag, e := c.poll(ctx, c.base+"/", "", 0, v)
	if e != nil {
		return nil, "", e
	}
	return v, etag, nil
}

// Watch waits, for at most wait, until the launcher state differs from
// etag.  It returns the new Etag, or etag itself if nothing changed.
func (c *Client) Watch(ctx context.Context, etag string, wait time.Duration) (string, error) {
	v := &launcher.BoardInfo{}
	ntag, e := c.poll(ctx, c.base+"/", etag, wait, v)
	if e != nil {
		return "", e
	}
	if ntag == "" {
		return etag, nil
	}
	return ntag, nil
}

// Adapters returns adapter names in declaration order.
func (c *Client) Adapters(ctx context.Context) ([]string, error) {
	v := []string{}
	if _, e := c.poll(ctx, c.url(""), "", 0, &v); e != nil {
		return nil, e
	}
	return v, nil
}

// Adapter returns the state of one adapter.
func (c *Client) Adapter(ctx context.Context, name string) (*launcher.AdapterInfo, error) {
	v := &launcher.AdapterInfo{}
	if _, e := c.poll(ctx, c.url(name), "", 0, v); e != nil {
		return nil, e
	}
	return v, nil
}

// AllAdapters fetches every adapter.  Adapters that vanish between the
// listing and the fetch are skipped.
func (c *Client) AllAdapters(ctx context.Context) ([]*launcher.AdapterInfo, error) {
	names, e := c.Adapters(ctx)
	if e != nil {
		return nil, e
	}
	rv := make([]*launcher.AdapterInfo, 0, len(names))
	for _, n := range names {
		info, e := c.Adapter(ctx, n)
		if re, ok := e.(*Error); ok && re.Code == http.StatusNotFound {
			continue
		} else if e != nil {
			return nil, e
		}
		rv = append(rv, info)
	}
	return rv, nil
}

// Log returns the log records.  With a non-empty etag and wait > 0 it
// waits for new records first.  If nothing changed it returns nil records
// and the same etag.
func (c *Client) Log(ctx context.Context, etag string, wait time.Duration) ([]launcher.LogRecord, string, error) {
	var recs []launcher.LogRecord
	ntag, e := c.poll(ctx, c.base+"/log", etag, wait, &recs)
	if e != nil {
		return nil, "", e
	}
	if ntag == "" {
		return nil, etag, nil
	}
	return recs, ntag, nil
}

// NewClient returns a Client handle.  The transport may be nil to use
// a default transport, but it may also be adjusted to support additional
// options such as TLS.  baseURI is the base URL to use.
func NewClient(t *http.Transport, baseURI string) *Client {
	var rt http.RoundTripper = http.DefaultTransport
	if t != nil {
		rt = t
	}
	return &Client{
		base:   strings.TrimRight(baseURI, "/"),
		client: &http.Client{Transport: rt},
	}
}
