package colorindex

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func TestBuffer_CommitPublishesFrame(t *testing.T) {
	b := NewBuffer()
	b.Record("a", "#111111")
	b.Record("b", "#222222")
	b.Record("a", "#333333")

	if b.Published().Len() != 0 {
		t.Fatal("records must not be visible before commit")
	}
	if !b.Commit(0) {
		t.Fatal("first commit should take effect")
	}
	got := b.Published()
	if got.Len() != 2 || got["a"] != "#333333" || got["b"] != "#222222" {
		t.Errorf("published = %v", got)
	}
	if b.Version() != 1 || b.Commits() != 1 {
		t.Errorf("version %d commits %d", b.Version(), b.Commits())
	}
	if b.Commit(0) {
		t.Error("a second commit for frame 0 should be a no-op")
	}
}

func TestBuffer_DuplicateCommitIsNoop(t *testing.T) {
	b := NewBuffer()
	b.Record("a", "#111111")
	if !b.Commit(5) {
		t.Fatal("commit for frame 5 should apply")
	}
	b.Record("a", "#999999")
	if b.Commit(5) {
		t.Error("second commit for the same frame must be a no-op")
	}
	if b.Commit(4) {
		t.Error("commit for an older frame must be a no-op")
	}
	if c, _ := b.Published().Color("a"); c != "#111111" {
		t.Errorf("published changed by a duplicate commit: %s", c)
	}
	if !b.Commit(6) {
		t.Error("commit for a newer frame should apply")
	}
	if c, _ := b.Published().Color("a"); c != "#999999" {
		t.Errorf("a = %s", c)
	}
}

func TestBuffer_PublishedIsImmutable(t *testing.T) {
	b := NewBuffer()
	b.Record("a", "#111111")
	b.Commit(0)
	before := b.Published()

	b.Record("a", "#222222")
	b.Record("b", "#333333")
	if before.Len() != 1 || before["a"] != "#111111" {
		t.Errorf("published index mutated by Record: %v", before)
	}
	b.Commit(1)
	if before.Len() != 1 || before["a"] != "#111111" {
		t.Errorf("old index mutated by Commit: %v", before)
	}
}

func TestBuffer_VersionOnlyOnChange(t *testing.T) {
	b := NewBuffer()
	for frame := int64(0); frame < 5; frame++ {
		b.Record("a", "#111111")
		b.Record("b", "#222222")
		b.Commit(frame)
	}
	if b.Commits() != 5 {
		t.Errorf("commits = %d", b.Commits())
	}
	if b.Version() != 1 {
		t.Errorf("stable colors should publish once, version = %d", b.Version())
	}
}

func TestBuffer_EmptyCommitKeepsIndex(t *testing.T) {
	b := NewBuffer()
	b.Record("a", "#111111")
	b.Commit(0)
	if b.Commit(1) {
		t.Error("commit with nothing recorded should not apply")
	}
	if b.Published().Len() != 1 {
		t.Error("empty commit cleared the index")
	}
}

func TestBuffer_Schedule(t *testing.T) {
	b := NewBuffer()
	if !b.Schedule(0) {
		t.Error("first schedule for frame 0")
	}
	if b.Schedule(0) {
		t.Error("second schedule for frame 0")
	}
	if !b.Schedule(1) {
		t.Error("first schedule for frame 1")
	}
	b.Close()
	if b.Schedule(2) {
		t.Error("schedule after close")
	}
}

func TestBuffer_CloseStopsCommits(t *testing.T) {
	b := NewBuffer()
	b.Record("a", "#111111")
	b.Commit(0)
	b.Record("b", "#222222")
	b.Close()

	b.Record("c", "#333333")
	if b.Commit(1) {
		t.Error("commit after close must not take effect")
	}
	if !b.Closed() || b.Commits() != 1 {
		t.Errorf("closed %v commits %d", b.Closed(), b.Commits())
	}
	if got := b.Published(); got.Len() != 1 || got["a"] != "#111111" {
		t.Errorf("published after close = %v", got)
	}
}

// Within a frame, any number of records and commit requests results in one
// effective commit whose index is the last-write-wins union of the records.
func TestBuffer_FrameCoalescing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := NewBuffer()
		frames := rapid.IntRange(1, 8).Draw(t, "frames")
		for f := 0; f < frames; f++ {
			frame := int64(f)
			want := make(map[string]string)
			n := rapid.IntRange(1, 30).Draw(t, "records")
			for i := 0; i < n; i++ {
				id := fmt.Sprintf("n%d", rapid.IntRange(0, 9).Draw(t, "id"))
				color := rapid.SampledFrom([]string{"#a6cee3", "#1f78b4", "#b2df8a"}).Draw(t, "color")
				b.Record(id, color)
				want[id] = color
			}

			before := b.Commits()
			requests := rapid.IntRange(1, 5).Draw(t, "requests")
			scheduled := 0
			for r := 0; r < requests; r++ {
				if b.Schedule(frame) {
					scheduled++
				}
				b.Commit(frame)
			}
			if scheduled != 1 {
				t.Fatalf("frame %d scheduled %d commits", frame, scheduled)
			}
			if got := b.Commits() - before; got != 1 {
				t.Fatalf("frame %d had %d effective commits", frame, got)
			}
			got := b.Published()
			if len(got) != len(want) {
				t.Fatalf("frame %d published %v, want %v", frame, got, want)
			}
			for id, c := range want {
				if got[id] != c {
					t.Fatalf("frame %d: %s = %s, want %s", frame, id, got[id], c)
				}
			}
		}
	})
}
