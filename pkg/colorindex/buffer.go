// Package colorindex collects node colors while a frame is drawn and
// publishes them at most once per frame.
//
// Drawing calls Record for every node. The frame loop then asks for a commit
// with Schedule, and Commit replaces the published Index with a full copy of
// what was recorded. Readers only ever see whole Index values.
package colorindex

import (
	"maps"

	"github.com/vanderheijden86/depview/pkg/metrics"
)

// Index maps node id to its committed color. A published Index is never
// modified; treat it as read-only.
type Index map[string]string

// Color returns the committed color for id.
func (ix Index) Color(id string) (string, bool) {
	c, ok := ix[id]
	return c, ok
}

// Len returns the number of colored nodes.
func (ix Index) Len() int {
	return len(ix)
}

// Buffer is owned by the render loop of a single graph session. It is not
// safe for concurrent use; all calls happen on the frame loop.
type Buffer struct {
	pending   map[string]string
	published Index

	scheduled     int64
	lastCommitted int64
	version       int
	commits       int
	closed        bool
}

// NewBuffer returns an empty, open buffer.
func NewBuffer() *Buffer {
	return &Buffer{
		pending:       make(map[string]string),
		published:     Index{},
		scheduled:     -1,
		lastCommitted: -1,
	}
}

// Record notes the color a node was drawn with. Later records for the same
// id win. No-op after Close.
func (b *Buffer) Record(id, color string) {
	if b.closed {
		return
	}
	b.pending[id] = color
}

// Schedule reports whether a commit request should be issued for frame.
// Only the first request per frame returns true.
func (b *Buffer) Schedule(frame int64) bool {
	if b.closed || frame <= b.scheduled {
		return false
	}
	b.scheduled = frame
	return true
}

// Commit publishes everything recorded since the previous effective commit.
// It takes effect only for a frame newer than the last committed one, while
// the buffer is open and something was recorded; otherwise it does nothing
// and returns false.
func (b *Buffer) Commit(frame int64) bool {
	if b.closed || frame <= b.lastCommitted || len(b.pending) == 0 {
		return false
	}
	defer metrics.ColorCommit.Time()()

	next := Index(maps.Clone(b.pending))
	clear(b.pending)
	b.lastCommitted = frame
	b.commits++
	if !maps.Equal(next, b.published) {
		b.published = next
		b.version++
	}
	return true
}

// Published returns the current Index.
func (b *Buffer) Published() Index {
	return b.published
}

// Version increments each time a commit changes the published colors.
func (b *Buffer) Version() int {
	return b.version
}

// Commits returns the number of effective commits.
func (b *Buffer) Commits() int {
	return b.commits
}

// Close ends the session. Record, Schedule and Commit become no-ops; the
// last published Index stays readable.
func (b *Buffer) Close() {
	b.closed = true
	clear(b.pending)
}

// Closed reports whether Close was called.
func (b *Buffer) Closed() bool {
	return b.closed
}
