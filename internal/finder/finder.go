// Package finder implements duplicated-Space detection: list recently
// created Spaces, keep the ones inside a trailing time window, and classify
// each one against a query source Space.
package finder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/spacedupes/internal/frontmatter"
	"github.com/starford/spacedupes/internal/hub"
)

// SpaceIterator is the streaming listing the finder consumes. The hub
// client's iterator satisfies it; tests substitute slice-backed fakes.
type SpaceIterator interface {
	Next() bool
	Space() hub.Space
	Err() error
	Sorted() bool
}

// Lister produces the Space listing.
type Lister interface {
	ListSpaces(ctx context.Context) SpaceIterator
}

// ListerFunc adapts a function to the Lister interface.
type ListerFunc func(ctx context.Context) SpaceIterator

// ListSpaces calls f.
func (f ListerFunc) ListSpaces(ctx context.Context) SpaceIterator {
	return f(ctx)
}

// ReadmeFetcher retrieves the raw README document of a Space.
type ReadmeFetcher interface {
	ReadmeRaw(ctx context.Context, id string) (string, error)
}

// Options tunes a detection run.
type Options struct {
	Days    int  // trailing window size in days
	Deep    bool // fall back to README frontmatter when card metadata is silent
	Workers int  // classification concurrency, 1 runs strictly sequential
}

// Finder detects Spaces duplicated from a source Space.
type Finder struct {
	lister  Lister
	fetcher ReadmeFetcher
	opts    Options
	now     func() time.Time
}

// New creates a Finder. A Workers value below 1 is treated as 1.
func New(lister Lister, fetcher ReadmeFetcher, opts Options) *Finder {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Finder{
		lister:  lister,
		fetcher: fetcher,
		opts:    opts,
		now:     time.Now,
	}
}

// cardKeys are the recognized card metadata spellings, in priority order.
var cardKeys = [...]string{"duplicated_from", "duplicatedFrom", "duplicated-from"}

// createdAtLayout matches the hub's Z-suffixed UTC timestamps. time.Parse
// accepts an optional fractional second after the seconds field, so both
// "2006-01-02T15:04:05Z" and "2006-01-02T15:04:05.000Z" values parse.
const createdAtLayout = "2006-01-02T15:04:05Z"

// Find returns the IDs of public Spaces created inside the trailing window
// that declare the given source as their duplication origin. Result order
// follows the listing order regardless of worker count.
func (f *Finder) Find(ctx context.Context, source string) ([]string, error) {
	want := Normalize(source)
	cutoff := f.now().UTC().Add(-time.Duration(f.opts.Days) * 24 * time.Hour)

	it := f.lister.ListSpaces(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Workers)

	// Each candidate gets a slot in listing order; workers fill their own
	// slot, so the result order never depends on completion order.
	type slot struct{ id string }
	var slots []*slot

	for it.Next() {
		sp := it.Space()
		if sp.ID == "" {
			continue
		}
		ok, err := inWindow(sp, cutoff)
		if err != nil {
			_ = g.Wait()
			return nil, err
		}
		if !ok {
			if it.Sorted() {
				// The listing is confirmed newest-first, everything from
				// here on is older than the cutoff.
				break
			}
			continue
		}

		s := &slot{}
		slots = append(slots, s)
		g.Go(func() error {
			if claim := f.resolveClaim(gctx, sp); claim != "" && claim == want {
				s.id = sp.ID
			}
			return nil
		})
	}
	if err := it.Err(); err != nil {
		_ = g.Wait()
		return nil, fmt.Errorf("scan space listing: %w", err)
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var ids []string
	for _, s := range slots {
		if s.id != "" {
			ids = append(ids, s.id)
		}
	}
	slog.Debug("detection finished",
		slog.String("source", want),
		slog.Int("candidates", len(slots)),
		slog.Int("matches", len(ids)))
	return ids, nil
}

// resolveClaim runs the two-stage claim lookup for one Space: card metadata
// first, then the README frontmatter fallback when deep detection is on.
// The returned claim is normalized; "" means the Space claims nothing.
func (f *Finder) resolveClaim(ctx context.Context, sp hub.Space) string {
	if claim := claimFromCard(sp.Card()); claim != "" {
		return Normalize(claim)
	}
	if !f.opts.Deep {
		return ""
	}
	return Normalize(f.claimFromReadme(ctx, sp.ID))
}

// claimFromCard picks the claim out of the card metadata. The first key
// holding a string value wins even when that value trims to nothing, so a
// blank claim still shadows later spellings.
func claimFromCard(card map[string]any) string {
	for _, key := range cardKeys {
		if v, ok := card[key].(string); ok {
			return trim(v)
		}
	}
	return ""
}

// claimFromReadme fetches the Space's raw README and extracts a frontmatter
// claim. Fetch failures are absorbed: a Space without a readable README is
// simply not a duplicate.
func (f *Finder) claimFromReadme(ctx context.Context, id string) string {
	text, err := f.fetcher.ReadmeRaw(ctx, id)
	if err != nil {
		slog.Debug("readme fetch failed",
			slog.String("space", id),
			slog.String("error", err.Error()))
		return ""
	}
	return frontmatter.DuplicatedFrom(text)
}

// inWindow reports whether the Space was created at or after cutoff. Spaces
// without a creation timestamp are kept, they cannot be aged out safely.
// An unparseable timestamp is a fatal listing defect.
func inWindow(sp hub.Space, cutoff time.Time) (bool, error) {
	raw := sp.Created()
	if raw == "" {
		return true, nil
	}
	created, err := time.Parse(createdAtLayout, raw)
	if err != nil {
		return false, fmt.Errorf("parse created_at %q for %s: %w", raw, sp.ID, err)
	}
	return !created.Before(cutoff), nil
}

// Normalize canonicalizes a Space identifier for comparison: surrounding
// whitespace and slashes are trimmed and the rest is lowercased.
func Normalize(id string) string {
	return strings.ToLower(trim(id))
}

// trim strips surrounding slashes and whitespace. trim(trim(id)) == trim(id).
func trim(id string) string {
	return strings.Trim(id, "/ \t\r\n\v\f")
}
