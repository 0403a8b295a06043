package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// SpaceIterator streams the hub's Space listing page by page, in the style
// of sql.Rows: call Next until it returns false, then check Err. Pages are
// fetched lazily, so a caller that stops early never pays for the rest of
// the feed.
type SpaceIterator struct {
	ctx       context.Context
	client    *Client
	next      string // URL of the next page, "" once exhausted
	firstPage bool
	sorted    bool
	buf       []Space
	cur       Space
	err       error
}

// ListSpaces starts iterating the Space listing, newest first. If the
// backend rejects the sort parameters the iterator silently retries
// unordered and reports that through Sorted.
func (c *Client) ListSpaces(ctx context.Context) *SpaceIterator {
	return &SpaceIterator{
		ctx:       ctx,
		client:    c,
		next:      c.listURL(true),
		firstPage: true,
		sorted:    true,
	}
}

// Next advances to the next Space, fetching further pages as needed. It
// returns false when the listing is exhausted or a fetch failed.
func (it *SpaceIterator) Next() bool {
	if it.err != nil {
		return false
	}
	for len(it.buf) == 0 {
		if it.next == "" {
			return false
		}
		if !it.fetchPage() {
			return false
		}
	}
	it.cur = it.buf[0]
	it.buf = it.buf[1:]
	return true
}

// Space returns the entry the last call to Next advanced to.
func (it *SpaceIterator) Space() Space {
	return it.cur
}

// Err returns the first error encountered while fetching pages. A normal
// end of the listing leaves it nil.
func (it *SpaceIterator) Err() error {
	return it.err
}

// Sorted reports whether the backend confirmed the newest-first sort. It is
// meaningful once Next has been called at least once.
func (it *SpaceIterator) Sorted() bool {
	return it.sorted
}

// fetchPage retrieves the page at it.next into the buffer and records the
// follow-up page URL from the Link header. Returns false when the iterator
// entered a terminal error state.
func (it *SpaceIterator) fetchPage() bool {
	for {
		resp, err := it.client.get(it.ctx, it.client.list, it.next)
		if err != nil {
			it.err = fmt.Errorf("list spaces: %w", err)
			return false
		}

		if resp.StatusCode == http.StatusBadRequest && it.firstPage && it.sorted {
			// The backend rejected the sort parameters. Retry the first
			// page unordered; callers must then scan the whole feed.
			resp.Body.Close()
			it.sorted = false
			it.next = it.client.listURL(false)
			slog.Debug("sort rejected by backend, listing unordered")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			it.err = fmt.Errorf("list spaces: unexpected status %d: %s",
				resp.StatusCode, strings.TrimSpace(string(body)))
			return false
		}

		var page []Space
		if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
			resp.Body.Close()
			it.err = fmt.Errorf("decode space listing: %w", err)
			return false
		}
		next := nextLink(resp.Header.Get("Link"))
		resp.Body.Close()

		it.firstPage = false
		it.buf = page
		it.next = next
		slog.Debug("space listing page fetched",
			slog.Int("spaces", len(page)),
			slog.Bool("more", next != ""))
		return true
	}
}

// nextLink extracts the rel="next" target from a Link response header.
func nextLink(header string) string {
	for _, link := range strings.Split(header, ",") {
		fields := strings.Split(link, ";")
		if len(fields) < 2 {
			continue
		}
		target := strings.TrimSpace(fields[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for _, attr := range fields[1:] {
			if strings.TrimSpace(attr) == `rel="next"` {
				return strings.Trim(target, "<>")
			}
		}
	}
	return ""
}
