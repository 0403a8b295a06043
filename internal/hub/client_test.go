package hub

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/starford/spacedupes/internal/testutil"
)

func collectIDs(t *testing.T, it *SpaceIterator) []string {
	t.Helper()
	var ids []string
	for it.Next() {
		ids = append(ids, it.Space().ID)
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iterate listing: %v", err)
	}
	return ids
}

func TestListSpacesPagination(t *testing.T) {
	fake := testutil.NewFakeHub(t)
	fake.SetSpaces(
		testutil.NewSpace("acme/one", "2026-08-24T10:00:00Z"),
		testutil.NewSpace("acme/two", "2026-08-23T10:00:00Z"),
		testutil.NewSpace("acme/three", "2026-08-22T10:00:00Z"),
		testutil.NewSpace("acme/four", "2026-08-21T10:00:00Z"),
		testutil.NewSpace("acme/five", "2026-08-20T10:00:00Z"),
	)

	client := NewClient(Options{Endpoint: fake.URL(), PageSize: 2})
	it := client.ListSpaces(context.Background())

	ids := collectIDs(t, it)
	want := []string{"acme/one", "acme/two", "acme/three", "acme/four", "acme/five"}
	if len(ids) != len(want) {
		t.Fatalf("listed %d spaces, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
	if !it.Sorted() {
		t.Error("Sorted() = false, want true")
	}
	if got := fake.ListCalls(); got != 3 {
		t.Errorf("listing requests = %d, want 3", got)
	}
}

func TestListSpacesSortFallback(t *testing.T) {
	fake := testutil.NewFakeHub(t)
	fake.RejectSort()
	fake.SetSpaces(
		testutil.NewSpace("acme/old", "2026-08-20T10:00:00Z"),
		testutil.NewSpace("acme/new", "2026-08-24T10:00:00Z"),
	)

	client := NewClient(Options{Endpoint: fake.URL()})
	it := client.ListSpaces(context.Background())

	ids := collectIDs(t, it)
	if len(ids) != 2 {
		t.Fatalf("listed %d spaces, want 2", len(ids))
	}
	if it.Sorted() {
		t.Error("Sorted() = true, want false after sort rejection")
	}
	if got := fake.ListCalls(); got != 2 {
		t.Errorf("listing requests = %d, want 2 (rejected + retry)", got)
	}
}

func TestListSpacesEmpty(t *testing.T) {
	fake := testutil.NewFakeHub(t)

	client := NewClient(Options{Endpoint: fake.URL()})
	it := client.ListSpaces(context.Background())

	if it.Next() {
		t.Error("Next() = true on empty listing")
	}
	if err := it.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestListSpacesSendsAuth(t *testing.T) {
	fake := testutil.NewFakeHub(t)
	fake.SetSpaces(testutil.NewSpace("acme/one", "2026-08-24T10:00:00Z"))

	client := NewClient(Options{Endpoint: fake.URL(), Token: "hf_secret"})
	collectIDs(t, client.ListSpaces(context.Background()))

	if got := fake.LastAuth(); got != "Bearer hf_secret" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer hf_secret")
	}
	if got := fake.LastUserAgent(); got != userAgent {
		t.Errorf("User-Agent = %q, want %q", got, userAgent)
	}
}

func TestListSpacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend unavailable", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Options{Endpoint: srv.URL})
	it := client.ListSpaces(context.Background())

	if it.Next() {
		t.Error("Next() = true, want false on server error")
	}
	if it.Err() == nil {
		t.Fatal("Err() = nil, want error")
	}
}

func TestListSpacesMidStreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") == "" {
			w.Header().Set("Link", fmt.Sprintf("<http://%s/api/spaces?offset=1>; rel=%q", r.Host, "next"))
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `[{"id":"acme/one","createdAt":"2026-08-24T10:00:00Z"}]`)
			return
		}
		http.Error(w, "backend unavailable", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Options{Endpoint: srv.URL})
	it := client.ListSpaces(context.Background())

	if !it.Next() {
		t.Fatalf("Next() = false on first page, err = %v", it.Err())
	}
	if got := it.Space().ID; got != "acme/one" {
		t.Errorf("Space().ID = %q, want %q", got, "acme/one")
	}
	if it.Next() {
		t.Error("Next() = true, want false after failed page")
	}
	if it.Err() == nil {
		t.Fatal("Err() = nil, want error")
	}
}

func TestListSpacesDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"not":"an array"`)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Options{Endpoint: srv.URL})
	it := client.ListSpaces(context.Background())

	if it.Next() {
		t.Error("Next() = true, want false on malformed page")
	}
	if it.Err() == nil {
		t.Fatal("Err() = nil, want error")
	}
}

func TestListSpacesSnakeCaseFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id":"acme/snake","created_at":"2026-08-23T10:00:00Z","card_data":{"duplicated_from":"acme/base"}},`+
			`{"id":"acme/both","createdAt":"2026-08-24T10:00:00Z","created_at":"2026-08-20T10:00:00Z","cardData":{"duplicated_from":"acme/camel"},"card_data":{"duplicated_from":"acme/snake"}}]`)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Options{Endpoint: srv.URL})
	it := client.ListSpaces(context.Background())

	if !it.Next() {
		t.Fatalf("Next() = false on first space, err = %v", it.Err())
	}
	snake := it.Space()
	if got := snake.Created(); got != "2026-08-23T10:00:00Z" {
		t.Errorf("Created() = %q, want %q", got, "2026-08-23T10:00:00Z")
	}
	if got, _ := snake.Card()["duplicated_from"].(string); got != "acme/base" {
		t.Errorf("Card()[duplicated_from] = %q, want %q", got, "acme/base")
	}

	if !it.Next() {
		t.Fatalf("Next() = false on second space, err = %v", it.Err())
	}
	both := it.Space()
	if got := both.Created(); got != "2026-08-24T10:00:00Z" {
		t.Errorf("Created() = %q, want camelCase value %q when both spellings arrive", got, "2026-08-24T10:00:00Z")
	}
	if got, _ := both.Card()["duplicated_from"].(string); got != "acme/camel" {
		t.Errorf("Card()[duplicated_from] = %q, want camelCase value %q when both spellings arrive", got, "acme/camel")
	}

	if it.Next() {
		t.Error("Next() = true after last space")
	}
	if err := it.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestReadmeRaw(t *testing.T) {
	fake := testutil.NewFakeHub(t)
	fake.SetReadme("acme/clone", "---\nduplicated_from: acme/base\n---\n# Clone")

	client := NewClient(Options{Endpoint: fake.URL(), Token: "hf_secret"})
	body, err := client.ReadmeRaw(context.Background(), "acme/clone")
	if err != nil {
		t.Fatalf("ReadmeRaw() error = %v", err)
	}
	if want := "---\nduplicated_from: acme/base\n---\n# Clone"; body != want {
		t.Errorf("ReadmeRaw() = %q, want %q", body, want)
	}
	if got := fake.LastAuth(); got != "Bearer hf_secret" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer hf_secret")
	}
	if got := fake.ReadmeCalls("acme/clone"); got != 1 {
		t.Errorf("readme requests = %d, want 1", got)
	}
}

func TestReadmeRawMissing(t *testing.T) {
	fake := testutil.NewFakeHub(t)

	client := NewClient(Options{Endpoint: fake.URL()})
	if _, err := client.ReadmeRaw(context.Background(), "acme/ghost"); err == nil {
		t.Fatal("ReadmeRaw() error = nil, want error for missing readme")
	}
}

func TestSpaceFieldSpellings(t *testing.T) {
	tests := []struct {
		name        string
		space       Space
		wantCreated string
		wantCard    string
	}{
		{
			name: "camel case",
			space: Space{
				CreatedAt: "2026-08-24T10:00:00Z",
				CardData:  map[string]any{"duplicated_from": "acme/base"},
			},
			wantCreated: "2026-08-24T10:00:00Z",
			wantCard:    "acme/base",
		},
		{
			name: "snake case",
			space: Space{
				CreatedAtAlt: "2026-08-23T10:00:00Z",
				CardDataAlt:  map[string]any{"duplicated_from": "acme/alt"},
			},
			wantCreated: "2026-08-23T10:00:00Z",
			wantCard:    "acme/alt",
		},
		{
			name: "camel case wins when both present",
			space: Space{
				CreatedAt:    "2026-08-24T10:00:00Z",
				CreatedAtAlt: "2026-08-23T10:00:00Z",
				CardData:     map[string]any{"duplicated_from": "acme/base"},
				CardDataAlt:  map[string]any{"duplicated_from": "acme/alt"},
			},
			wantCreated: "2026-08-24T10:00:00Z",
			wantCard:    "acme/base",
		},
		{
			name:        "neither present",
			space:       Space{ID: "acme/bare"},
			wantCreated: "",
			wantCard:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.space.Created(); got != tt.wantCreated {
				t.Errorf("Created() = %q, want %q", got, tt.wantCreated)
			}
			card := tt.space.Card()
			got, _ := card["duplicated_from"].(string)
			if got != tt.wantCard {
				t.Errorf("Card()[duplicated_from] = %q, want %q", got, tt.wantCard)
			}
		})
	}
}

func TestNextLink(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{
			name:   "single next link",
			header: `<https://huggingface.co/api/spaces?cursor=abc>; rel="next"`,
			want:   "https://huggingface.co/api/spaces?cursor=abc",
		},
		{
			name:   "multiple links",
			header: `<https://huggingface.co/api/spaces?cursor=first>; rel="first", <https://huggingface.co/api/spaces?cursor=abc>; rel="next"`,
			want:   "https://huggingface.co/api/spaces?cursor=abc",
		},
		{
			name:   "no next relation",
			header: `<https://huggingface.co/api/spaces?cursor=first>; rel="first"`,
			want:   "",
		},
		{
			name:   "empty header",
			header: "",
			want:   "",
		},
		{
			name:   "malformed target",
			header: `https://huggingface.co/api/spaces; rel="next"`,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextLink(tt.header); got != tt.want {
				t.Errorf("nextLink(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}
