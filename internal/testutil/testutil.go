// Package testutil provides shared test helpers for running a fake hub
// backend over HTTP.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// SpaceRecord is the raw listing JSON for one Space.
type SpaceRecord map[string]any

// NewSpace builds a minimal listing record. An empty createdAt leaves the
// timestamp out entirely.
func NewSpace(id, createdAt string) SpaceRecord {
	rec := SpaceRecord{"id": id}
	if createdAt != "" {
		rec["createdAt"] = createdAt
	}
	return rec
}

// WithCard attaches a card metadata entry to the record and returns it for
// chaining.
func (r SpaceRecord) WithCard(key string, value any) SpaceRecord {
	card, ok := r["cardData"].(map[string]any)
	if !ok {
		card = map[string]any{}
		r["cardData"] = card
	}
	card[key] = value
	return r
}

// FakeHub is an in-process hub backend serving the Space listing with Link
// header pagination and raw README documents.
type FakeHub struct {
	srv *httptest.Server

	mu          sync.Mutex
	spaces      []SpaceRecord
	readmes     map[string]string
	rejectSort  bool
	listCalls   int
	readmeCalls map[string]int
	lastAuth    string
	lastAgent   string
}

// NewFakeHub starts a fake hub backend that is shut down when the test
// finishes.
func NewFakeHub(t *testing.T) *FakeHub {
	t.Helper()
	f := &FakeHub{
		readmes:     map[string]string{},
		readmeCalls: map[string]int{},
	}
	r := chi.NewRouter()
	r.Get("/api/spaces", f.handleList)
	r.Get("/spaces/{owner}/{name}/raw/README.md", f.handleReadme)
	f.srv = httptest.NewServer(r)
	t.Cleanup(f.srv.Close)
	return f
}

// URL returns the backend's base URL.
func (f *FakeHub) URL() string {
	return f.srv.URL
}

// SetSpaces replaces the served listing.
func (f *FakeHub) SetSpaces(spaces ...SpaceRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spaces = spaces
}

// SetReadme serves body as the raw README of the given Space. Spaces
// without a README respond 404.
func (f *FakeHub) SetReadme(id, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readmes[id] = body
}

// RejectSort makes the listing respond 400 to any request carrying sort
// parameters.
func (f *FakeHub) RejectSort() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejectSort = true
}

// ListCalls returns the number of listing requests served, including
// rejected ones.
func (f *FakeHub) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

// ReadmeCalls returns the number of README requests served for a Space.
func (f *FakeHub) ReadmeCalls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readmeCalls[id]
}

// LastAuth returns the Authorization header of the most recent request.
func (f *FakeHub) LastAuth() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuth
}

// LastUserAgent returns the User-Agent header of the most recent request.
func (f *FakeHub) LastUserAgent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAgent
}

func (f *FakeHub) handleList(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.listCalls++
	f.lastAuth = r.Header.Get("Authorization")
	f.lastAgent = r.Header.Get("User-Agent")
	reject := f.rejectSort
	spaces := f.spaces
	f.mu.Unlock()

	if reject && r.URL.Query().Get("sort") != "" {
		http.Error(w, `{"error":"sort not supported"}`, http.StatusBadRequest)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = len(spaces)
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset > len(spaces) {
		offset = len(spaces)
	}
	end := offset + limit
	if end > len(spaces) {
		end = len(spaces)
	}

	if end < len(spaces) {
		q := r.URL.Query()
		q.Set("offset", strconv.Itoa(end))
		next := "http://" + r.Host + "/api/spaces?" + q.Encode()
		w.Header().Set("Link", fmt.Sprintf("<%s>; rel=%q", next, "next"))
	}
	w.Header().Set("Content-Type", "application/json")
	page := spaces[offset:end]
	if page == nil {
		page = []SpaceRecord{}
	}
	_ = json.NewEncoder(w).Encode(page)
}

func (f *FakeHub) handleReadme(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "name")

	f.mu.Lock()
	f.readmeCalls[id]++
	f.lastAuth = r.Header.Get("Authorization")
	f.lastAgent = r.Header.Get("User-Agent")
	body, ok := f.readmes[id]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, body)
}
