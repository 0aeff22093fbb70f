package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/npillmayer/pagedoc/config"
	"github.com/npillmayer/pagedoc/history"
	"github.com/npillmayer/pagedoc/idgen"
	"github.com/npillmayer/pagedoc/persist"
	"github.com/npillmayer/pagedoc/style"
	"github.com/npillmayer/pagedoc/tree"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2022, 5, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T, opts ...Option) *Store {
	opts = append([]Option{
		WithMinter(idgen.MinterFor(idgen.Sequence())),
		WithClock(func() time.Time { return epoch }),
		WithDocumentID("home"),
	}, opts...)
	doc, err := New(opts...)
	require.NoError(t, err)
	return doc
}

// page builds
//
//    sec_1
//    ├── txt_2
//    └── ctr_3
func page(t *testing.T, doc *Store) {
	sec, err := doc.AddNode(tree.Section, tree.Props{"paddingTop": 24}, tree.Root, 0)
	require.NoError(t, err)
	_, err = doc.AddNode(tree.Text, tree.Props{"content": "hello"}, sec, 0)
	require.NoError(t, err)
	_, err = doc.AddNode(tree.Container, nil, sec, 1)
	require.NoError(t, err)
}

func TestAddUndoRedo(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pagedoc.document")
	defer teardown()
	//
	doc := newStore(t)
	page(t, doc)
	assert.Equal(t, 3, doc.Count())
	assert.True(t, doc.IsDirty())
	sel, ok := doc.Selected()
	assert.True(t, ok)
	assert.Equal(t, "ctr_3", sel)
	require.NoError(t, doc.UpdateProps("sec_1", tree.Props{"backgroundColor": "#fff"}))
	assert.Equal(t, []string{"add section", "add text", "add container", "update sec_1"}, doc.UndoLabels())
	//
	before := doc.Forest()
	require.True(t, doc.Undo())
	sec, _ := doc.Node("sec_1")
	assert.NotContains(t, sec.Props, "backgroundColor")
	assert.Equal(t, 24, sec.Props["paddingTop"])
	assert.Equal(t, []string{"update sec_1"}, doc.RedoLabels())
	require.True(t, doc.Redo())
	assert.True(t, tree.Equal(before, doc.Forest()), "redo must restore the forest")
	assert.False(t, doc.Redo())
	//
	for doc.Undo() {
	}
	assert.Equal(t, 0, doc.Count())
	assert.False(t, doc.CanUndo())
	assert.True(t, doc.CanRedo())
	_, ok = doc.Selected()
	assert.False(t, ok, "selection of vanished node must be cleared")
}

func TestNewActionDropsFuture(t *testing.T) {
	doc := newStore(t)
	page(t, doc)
	require.True(t, doc.Undo())
	require.True(t, doc.CanRedo())
	_, err := doc.AddNode(tree.Divider, nil, tree.Root, 1)
	require.NoError(t, err)
	assert.False(t, doc.CanRedo())
}

func TestHistoryIsBounded(t *testing.T) {
	doc := newStore(t, WithHistory(history.New(history.Capacity(3))))
	for i := 0; i < 5; i++ {
		_, err := doc.AddNode(tree.Spacer, nil, tree.Root, i)
		require.NoError(t, err)
	}
	assert.Len(t, doc.UndoLabels(), 3)
	undone := 0
	for doc.Undo() {
		undone++
	}
	assert.Equal(t, 3, undone)
	assert.Equal(t, 2, doc.Count())
}

func TestFailedCommandsRecordNothing(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pagedoc.document")
	defer teardown()
	//
	doc := newStore(t)
	assert.False(t, doc.IsDirty())
	assert.True(t, errors.Is(doc.UpdateProps("nope", tree.Props{"a": 1}), tree.ErrNotFound))
	assert.True(t, errors.Is(doc.RemoveNode("nope"), tree.ErrNotFound))
	_, err := doc.DuplicateNode("nope")
	assert.True(t, errors.Is(err, tree.ErrNotFound))
	_, err = doc.AddNode(tree.Kind("carousel"), nil, tree.Root, 0)
	assert.True(t, errors.Is(err, tree.ErrUnknownKind))
	assert.False(t, doc.CanUndo())
	assert.False(t, doc.IsDirty())
	//
	page(t, doc)
	n := len(doc.UndoLabels())
	_, err = doc.AddNode(tree.Text, nil, "txt_2", 0)
	assert.True(t, errors.Is(err, tree.ErrNotContainer))
	_, err = doc.AddNode(tree.Text, nil, "nope", 0)
	assert.True(t, errors.Is(err, tree.ErrNotFound))
	assert.NoError(t, doc.UpdateProps("sec_1", nil))
	assert.Len(t, doc.UndoLabels(), n)
}

func TestRemoveNode(t *testing.T) {
	doc := newStore(t)
	page(t, doc)
	require.NoError(t, doc.Select("txt_2"))
	require.NoError(t, doc.RemoveNode("sec_1"))
	assert.Equal(t, 0, doc.Count())
	_, ok := doc.Selected()
	assert.False(t, ok)
	require.True(t, doc.Undo())
	assert.Equal(t, 3, doc.Count())
}

func TestMoveNode(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pagedoc.document")
	defer teardown()
	//
	doc := newStore(t)
	page(t, doc)
	require.NoError(t, doc.MoveNode("txt_2", "ctr_3", 0))
	assert.Equal(t, 3, doc.Count())
	parent, index, ok := doc.Locate("txt_2")
	require.True(t, ok)
	assert.Equal(t, "ctr_3", parent)
	assert.Equal(t, 0, index)
	require.NoError(t, doc.MoveNode("txt_2", tree.Root, 0))
	parent, _, _ = doc.Locate("txt_2")
	assert.Equal(t, tree.Root, parent)
	//
	n := len(doc.UndoLabels())
	before := doc.Forest()
	assert.True(t, errors.Is(doc.MoveNode("sec_1", "ctr_3", 0), tree.ErrCycle))
	assert.True(t, errors.Is(doc.MoveNode("sec_1", "sec_1", 0), tree.ErrCycle))
	assert.True(t, errors.Is(doc.MoveNode("sec_1", "txt_2", 0), tree.ErrNotContainer))
	assert.Len(t, doc.UndoLabels(), n)
	assert.True(t, tree.Equal(before, doc.Forest()))
}

func TestDuplicateNode(t *testing.T) {
	doc := newStore(t)
	page(t, doc)
	id, err := doc.DuplicateNode("sec_1")
	require.NoError(t, err)
	assert.NotEqual(t, "sec_1", id)
	assert.Equal(t, 6, doc.Count())
	ids := doc.Forest().IDs()
	seen := map[string]bool{}
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	parent, index, _ := doc.Locate(id)
	assert.Equal(t, tree.Root, parent)
	assert.Equal(t, 1, index)
	sel, _ := doc.Selected()
	assert.Equal(t, id, sel)
	orig, _ := doc.Node("sec_1")
	dup, _ := doc.Node(id)
	assert.Equal(t, orig.Props, dup.Props)
	assert.Equal(t, orig.Size(), dup.Size())
}

func TestForestIsACopy(t *testing.T) {
	doc := newStore(t)
	page(t, doc)
	f := doc.Forest()
	f[0].Props["paddingTop"] = 0
	f[0].Children = nil
	sec, _ := doc.Node("sec_1")
	assert.Equal(t, 24, sec.Props["paddingTop"])
	assert.Len(t, sec.Children, 2)
	props := tree.Props{"content": "shared"}
	id, err := doc.AddNode(tree.Text, props, tree.Root, 0)
	require.NoError(t, err)
	props["content"] = "changed"
	n, _ := doc.Node(id)
	assert.Equal(t, "shared", n.Props["content"])
}

func TestInsertNodeAndReplaceForest(t *testing.T) {
	doc := newStore(t)
	page(t, doc)
	n := &tree.Node{ID: "btn_x", Type: tree.Button, Props: tree.Props{"label": "Go"}}
	id, err := doc.InsertNode(n, "ctr_3", 0)
	require.NoError(t, err)
	assert.Equal(t, "btn_x", id)
	_, err = doc.InsertNode(n, "ctr_3", 0)
	assert.True(t, errors.Is(err, tree.ErrDuplicateID))
	bad := &tree.Node{ID: "txt_x", Type: tree.Text, Children: []*tree.Node{}}
	_, err = doc.InsertNode(bad, tree.Root, 0)
	var verr *tree.ValidationError
	assert.True(t, errors.As(err, &verr))
	//
	require.NoError(t, doc.ReplaceForest(tree.Forest{{ID: "hr_1", Type: tree.Divider}}, ""))
	assert.Equal(t, "replace document", doc.UndoLabels()[len(doc.UndoLabels())-1])
	assert.Equal(t, 1, doc.Count())
	require.True(t, doc.Undo())
	assert.Equal(t, 4, doc.Count())
}

func TestSelectionAndBreakpoint(t *testing.T) {
	doc := newStore(t)
	page(t, doc)
	assert.True(t, errors.Is(doc.Select("nope"), tree.ErrNotFound))
	require.NoError(t, doc.Select("txt_2"))
	doc.ClearSelection()
	_, ok := doc.Selected()
	assert.False(t, ok)
	assert.Equal(t, style.Desktop, doc.Breakpoint())
	require.NoError(t, doc.SetBreakpoint(style.Mobile))
	assert.Equal(t, style.Mobile, doc.Breakpoint())
	assert.True(t, errors.Is(doc.SetBreakpoint(style.Breakpoint(9)), ErrInvalidBreakpoint))
	assert.Equal(t, style.Mobile, doc.Breakpoint())
}

func TestConfiguredStore(t *testing.T) {
	cfg := config.Defaults()
	cfg.IDs.Strategy = "sequence"
	cfg.Style.ClassPrefix = "pb-"
	doc, err := New(WithConfig(cfg))
	require.NoError(t, err)
	id, err := doc.AddNode(tree.Section, tree.Props{"backgroundColor": "#fff"}, tree.Root, 0)
	require.NoError(t, err)
	assert.Equal(t, "sec_1", id)
	res, err := doc.Compile()
	require.NoError(t, err)
	assert.Equal(t, "pb-sec_1", res.ClassMap[id])
	assert.Contains(t, res.MinifiedCSS, ".pb-sec_1{background-color:#fff}")
	//
	cfg.History.Capacity = 0
	_, err = New(WithConfig(cfg))
	assert.True(t, errors.Is(err, config.ErrInvalid))
	_, err = New(WithForest(tree.Forest{{ID: "", Type: tree.Text}}))
	assert.True(t, errors.Is(err, tree.ErrEmptyID))
}

func TestPreview(t *testing.T) {
	doc := newStore(t)
	page(t, doc)
	var buf bytes.Buffer
	require.NoError(t, doc.Preview(&buf, "Home"))
	out := buf.String()
	assert.Contains(t, out, "<title>Home</title>")
	assert.Contains(t, out, ".p-sec_1{padding-top:24px}")
	assert.Contains(t, out, `<section data-node-id="sec_1" class="p-sec_1">`)
	assert.Contains(t, out, `<p data-node-id="txt_2" class="p-txt_2">hello</p>`)
}

func TestMalformedValueDoesNotBlockOutput(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pagedoc.document")
	defer teardown()
	//
	p := persist.NewMemory()
	doc := newStore(t, WithPersister(p))
	page(t, doc)
	require.NoError(t, doc.UpdateProps("txt_2", tree.Props{"fontFamily": `"Open Sans`, "fontSize": 18}))
	require.NoError(t, doc.UpdateProps("ctr_3", tree.Props{"color": "red /*"}))
	res, err := doc.Compile()
	require.NoError(t, err)
	require.Len(t, res.Warnings, 2)
	for _, w := range res.Warnings {
		assert.True(t, errors.Is(w, style.ErrInvalidValue))
	}
	require.NoError(t, doc.Save(context.Background()))
	assert.False(t, doc.IsDirty())
	rec, err := p.Load(context.Background(), "home")
	require.NoError(t, err)
	assert.Equal(t, ".p-sec_1{padding-top:24px}.p-txt_2{font-size:18px}", rec.CSS)
	var buf bytes.Buffer
	require.NoError(t, doc.Preview(&buf, "Home"))
	assert.Contains(t, buf.String(), ".p-txt_2{font-size:18px}")
	assert.NotContains(t, buf.String(), "Open Sans")
}

// --- Import / export -------------------------------------------------------

func TestExportImportDocument(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pagedoc.document")
	defer teardown()
	//
	src := newStore(t)
	_, err := src.AddNode(tree.Section, tree.Props{"paddingTop": "24px"}, tree.Root, 0)
	require.NoError(t, err)
	_, err = src.AddNode(tree.Text, tree.Props{"content": "hello"}, "sec_1", 0)
	require.NoError(t, err)
	data, err := src.Export()
	require.NoError(t, err)
	var env map[string]any
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, "1.0", env["version"])
	assert.Equal(t, "document", env["type"])
	assert.Equal(t, "2022-05-01T12:00:00Z", env["exportedAt"])
	assert.NotContains(t, env, "node")
	//
	dst := newStore(t)
	_, err = dst.AddNode(tree.Divider, nil, tree.Root, 0)
	require.NoError(t, err)
	require.NoError(t, dst.Import(data))
	assert.True(t, tree.Equal(src.Forest(), dst.Forest()))
	assert.Equal(t, "import document", dst.UndoLabels()[len(dst.UndoLabels())-1])
	require.True(t, dst.Undo())
	assert.Equal(t, []string{"div_1"}, dst.Forest().IDs())
}

func TestExportEmptyDocument(t *testing.T) {
	data, err := newStore(t).Export()
	require.NoError(t, err)
	doc := newStore(t)
	page(t, doc)
	require.NoError(t, doc.Import(data))
	assert.Equal(t, 0, doc.Count())
}

func TestImportFragment(t *testing.T) {
	doc := newStore(t)
	page(t, doc)
	data, err := doc.ExportNode("txt_2")
	require.NoError(t, err)
	_, err = doc.ExportNode("nope")
	assert.True(t, errors.Is(err, tree.ErrNotFound))
	//
	require.NoError(t, doc.Select("txt_2"))
	require.NoError(t, doc.Import(data))
	id, ok := doc.Selected()
	require.True(t, ok)
	assert.NotEqual(t, "txt_2", id)
	parent, index, _ := doc.Locate(id)
	assert.Equal(t, "sec_1", parent)
	assert.Equal(t, 1, index)
	n, _ := doc.Node(id)
	assert.Equal(t, "hello", n.Props["content"])
	//
	doc.ClearSelection()
	require.NoError(t, doc.Import(data))
	id, _ = doc.Selected()
	parent, index, _ = doc.Locate(id)
	assert.Equal(t, tree.Root, parent)
	assert.Equal(t, 1, index)
	assert.Equal(t, 5, doc.Count())
	assert.Equal(t, "import text", doc.UndoLabels()[len(doc.UndoLabels())-1])
}

func TestImportRejectsInvalidData(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pagedoc.document")
	defer teardown()
	//
	doc := newStore(t)
	page(t, doc)
	before := doc.Forest()
	n := len(doc.UndoLabels())
	inputs := map[string]string{
		"malformed":     `{"version": "1.0",`,
		"no version":    `{"type": "document", "forest": []}`,
		"version 2":     `{"version": "2.0", "type": "document", "forest": []}`,
		"unknown type":  `{"version": "1.0", "type": "page", "forest": []}`,
		"no forest":     `{"version": "1.0", "type": "document"}`,
		"no node":       `{"version": "1.0", "type": "node-fragment"}`,
		"duplicate ids": `{"version": "1.0", "type": "document", "forest": [{"id": "a", "type": "text"}, {"id": "a", "type": "text"}]}`,
		"unknown kind":  `{"version": "1.1", "type": "node-fragment", "node": {"id": "a", "type": "carousel"}}`,
	}
	for name, input := range inputs {
		err := doc.Import([]byte(input))
		var ierr *ImportError
		if !errors.As(err, &ierr) {
			t.Errorf("%s: expected ImportError, got %v", name, err)
		}
	}
	assert.True(t, tree.Equal(before, doc.Forest()), "document must be untouched")
	assert.Len(t, doc.UndoLabels(), n)
	err := doc.Import([]byte(inputs["duplicate ids"]))
	assert.True(t, errors.Is(err, tree.ErrDuplicateID))
}

// --- Save / load -----------------------------------------------------------

func saveAndLoad(t *testing.T, p persist.Persister) {
	ctx := context.Background()
	doc := newStore(t, WithPersister(p))
	page(t, doc)
	require.NoError(t, doc.Save(ctx))
	assert.False(t, doc.IsDirty())
	assert.False(t, doc.IsSaving())
	saved := doc.Forest()
	rec, err := p.Load(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, ".p-sec_1{padding-top:24px}", rec.CSS)
	assert.Equal(t, "p-txt_2", rec.ClassMap["txt_2"])
	assert.True(t, epoch.Equal(rec.ModifiedAt))
	//
	require.NoError(t, doc.RemoveNode("txt_2"))
	require.NoError(t, doc.Select("sec_1"))
	assert.True(t, doc.IsDirty())
	require.NoError(t, doc.Load(ctx, "home"))
	assert.False(t, doc.IsDirty())
	assert.False(t, doc.IsLoading())
	assert.False(t, doc.CanUndo())
	_, ok := doc.Selected()
	assert.False(t, ok)
	assert.Equal(t, saved.IDs(), doc.Forest().IDs())
	//
	err = doc.Load(ctx, "nope")
	assert.True(t, errors.Is(err, persist.ErrNotFound))
	assert.Equal(t, "home", doc.ID())
	assert.Equal(t, 3, doc.Count())
}

func TestSaveLoadMemory(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pagedoc.document")
	defer teardown()
	//
	saveAndLoad(t, persist.NewMemory())
}

func TestSaveLoadSQLite(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pagedoc.document")
	defer teardown()
	//
	s, err := persist.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()
	saveAndLoad(t, s)
}

func TestSaveHonorsContext(t *testing.T) {
	doc := newStore(t)
	page(t, doc)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, doc.Save(ctx), context.Canceled)
	assert.True(t, doc.IsDirty())
}
