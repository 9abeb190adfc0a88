// Package tab tracks one open page and its cached snapshot.
//
// A tab's snapshot is either the latest capture or absent. Any mutating
// action that does not recapture clears it, so a stale snapshot is never
// served as grounding text.
package tab

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/entrhq/webpilot/pkg/driver"
	"github.com/entrhq/webpilot/pkg/logging"
)

var logger = logging.NewLogger("tab")

// ErrNoSnapshot is returned when the current tab has no fresh snapshot.
var ErrNoSnapshot = errors.New("no snapshot available: capture a snapshot first (for example with browser_snapshot)")

// Snapshot is an immutable textual rendering of a page.
type Snapshot struct {
	// Text is the full snapshot including the page header lines
	Text string
}

var fencedBlock = regexp.MustCompile("(?s)```[a-zA-Z]*\\n(.*?)\\n?```")

// Content returns the structural document embedded in the snapshot, with
// the surrounding fence and header stripped. Text without a fenced block is
// returned unchanged.
func (s *Snapshot) Content() string {
	if match := fencedBlock.FindStringSubmatch(s.Text); match != nil {
		return match[1]
	}
	return s.Text
}

// formatSnapshot renders the snapshot text for a page.
func formatSnapshot(url, title, structure string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Page URL: %s\n", url)
	fmt.Fprintf(&b, "- Page Title: %s\n", title)
	b.WriteString("- Page Snapshot\n")
	b.WriteString("```yaml\n")
	b.WriteString(strings.TrimRight(structure, "\n"))
	b.WriteString("\n```\n")
	return b.String()
}

// Tab wraps one driver page. The page is owned by the driver; the tab only
// borrows it and closes it through Close.
type Tab struct {
	id   string
	page driver.Page

	mu       sync.RWMutex
	snapshot *Snapshot
}

// New wraps page in a tab with no snapshot.
func New(page driver.Page) *Tab {
	return &Tab{
		id:   uuid.NewString(),
		page: page,
	}
}

// ID returns the tab's unique identifier.
func (t *Tab) ID() string {
	return t.id
}

// Page returns the underlying driver page.
func (t *Tab) Page() driver.Page {
	return t.page
}

// URL returns the page's current URL.
func (t *Tab) URL() string {
	return t.page.URL()
}

// Snapshot returns the cached snapshot, if any.
func (t *Tab) Snapshot() (*Snapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot, t.snapshot != nil
}

// SnapshotOrErr returns the cached snapshot or ErrNoSnapshot.
func (t *Tab) SnapshotOrErr() (*Snapshot, error) {
	snapshot, ok := t.Snapshot()
	if !ok {
		return nil, ErrNoSnapshot
	}
	return snapshot, nil
}

// HasSnapshot reports whether the tab holds a fresh snapshot.
func (t *Tab) HasSnapshot() bool {
	_, ok := t.Snapshot()
	return ok
}

// ClearSnapshot drops the cached snapshot after a mutating action.
func (t *Tab) ClearSnapshot() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snapshot = nil
}

// CaptureSnapshot recomputes the snapshot, optionally waiting for network
// quiescence first. On failure the tab is left without a snapshot.
func (t *Tab) CaptureSnapshot(ctx context.Context, waitForNetwork bool) (*Snapshot, error) {
	t.ClearSnapshot()

	if waitForNetwork {
		// A page that never goes idle still gets a snapshot
		if err := t.page.WaitForNetworkIdle(ctx); err != nil {
			logger.Debugf("tab %s: network did not settle: %v", t.id, err)
		}
	}

	structure, err := t.page.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to capture snapshot: %w", err)
	}

	title, err := t.page.Title(ctx)
	if err != nil {
		logger.Debugf("tab %s: failed to read title: %v", t.id, err)
	}

	snapshot := &Snapshot{Text: formatSnapshot(t.page.URL(), title, structure)}

	t.mu.Lock()
	t.snapshot = snapshot
	t.mu.Unlock()

	return snapshot, nil
}

// Close closes the underlying page.
func (t *Tab) Close() error {
	t.ClearSnapshot()
	return t.page.Close()
}
