package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/npillmayer/pagedoc/tree"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func forestWith(n int) tree.Forest {
	f := tree.Forest{}
	for i := 0; i < n; i++ {
		f = append(f, &tree.Node{ID: fmt.Sprintf("txt_%d", i), Type: tree.Text, Props: tree.Props{"content": i}})
	}
	return f
}

func TestUndoRedoRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pagedoc.history")
	defer teardown()
	//
	h := New()
	states := []tree.Forest{forestWith(0)}
	live := states[0]
	for i := 1; i <= 5; i++ {
		h.Record(live, fmt.Sprintf("add %d", i))
		live = forestWith(i)
		states = append(states, live)
	}
	for i := 4; i >= 0; i-- {
		var ok bool
		live, ok = h.Undo(live)
		if !ok {
			t.Fatalf("expected undo #%d to succeed", 5-i)
		}
		if !tree.Equal(live, states[i]) {
			t.Errorf("after undo expected state %d, got\n%s", i, live)
		}
	}
	if _, ok := h.Undo(live); ok {
		t.Error("expected undo on empty past to be a no-op")
	}
	for i := 1; i <= 5; i++ {
		var ok bool
		live, ok = h.Redo(live)
		if !ok {
			t.Fatalf("expected redo #%d to succeed", i)
		}
		if !tree.Equal(live, states[i]) {
			t.Errorf("after redo expected state %d, got\n%s", i, live)
		}
	}
	if _, ok := h.Redo(live); ok {
		t.Error("expected redo on empty future to be a no-op")
	}
}

func TestRecordInvalidatesFuture(t *testing.T) {
	h := New()
	live := forestWith(1)
	h.Record(live, "a")
	live = forestWith(2)
	live, _ = h.Undo(live)
	require.True(t, h.CanRedo())
	h.Record(live, "b")
	assert.False(t, h.CanRedo())
	g, ok := h.Redo(live)
	assert.False(t, ok)
	assert.True(t, tree.Equal(g, live))
}

func TestBoundedHistory(t *testing.T) {
	h := New(Capacity(3))
	live := forestWith(0)
	for i := 1; i <= 5; i++ {
		h.Record(live, fmt.Sprintf("step %d", i))
		live = forestWith(i)
	}
	assert.Equal(t, 3, h.PastLen())
	assert.Equal(t, []string{"step 3", "step 4", "step 5"}, h.PastLabels())
	past := h.Past()
	assert.Equal(t, 2, past[0].Forest.Count(), "oldest kept snapshot is the state before step 3")
}

func TestSnapshotsAreIndependent(t *testing.T) {
	h := New()
	live := forestWith(1)
	h.Record(live, "edit")
	live[0].Props["content"] = "mutated in place"
	restored, ok := h.Undo(live)
	require.True(t, ok)
	assert.Equal(t, 0, restored[0].Props["content"])
	// mutating the restored forest must not reach the redo snapshot
	restored[0].Props["content"] = "again"
	redone, _ := h.Redo(restored)
	assert.Equal(t, "mutated in place", redone[0].Props["content"])
}

func TestLabelsTravelWithUndo(t *testing.T) {
	h := New(Clock(func() time.Time { return time.Unix(42, 0) }))
	h.Record(forestWith(0), "add text")
	_, _ = h.Undo(forestWith(1))
	assert.Equal(t, []string{"add text"}, h.FutureLabels())
	assert.Equal(t, time.Unix(42, 0), h.Future()[0].Taken)
	h.Clear()
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}

func TestCapacityOption(t *testing.T) {
	assert.Equal(t, DefaultCapacity, New().Capacity())
	assert.Equal(t, 1, New(Capacity(0)).Capacity())
}
