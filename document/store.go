/*
Package document implements the document store of the page builder.

# Overview

A Store owns the forest of a document, the current selection and a couple
of UI flags, and exposes the commands the editor calls to change the
document. Every command which changes the forest records a snapshot in the
store's history before the change is applied, so it can be undone.
Commands which would not change the forest (e.g. operating on an absent
node) record nothing and report an error.

	doc, _ := document.New()
	id, _ := doc.AddNode(tree.Section, tree.Props{"paddingTop": 24}, tree.Root, 0)
	doc.UpdateProps(id, tree.Props{"backgroundColor": "#fafafa"})
	doc.Undo()

The forest itself is never handed out; accessors return copies. A Store is
not safe for concurrent use.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2022 Norbert Pillmayer <norbert@pillmayer.com>
*/
package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/npillmayer/pagedoc/config"
	"github.com/npillmayer/pagedoc/css"
	"github.com/npillmayer/pagedoc/history"
	"github.com/npillmayer/pagedoc/idgen"
	"github.com/npillmayer/pagedoc/markup"
	"github.com/npillmayer/pagedoc/persist"
	"github.com/npillmayer/pagedoc/style"
	"github.com/npillmayer/pagedoc/tree"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'pagedoc.document'.
func tracer() tracing.Trace {
	return tracing.Select("pagedoc.document")
}

// ErrInvalidBreakpoint is returned for breakpoints outside of the known set.
var ErrInvalidBreakpoint = errors.New("invalid breakpoint")

// Store is the document store.
type Store struct {
	id         string
	forest     tree.Forest
	selected   string
	breakpoint style.Breakpoint
	dirty      bool
	saving     bool
	loading    bool
	cfg        config.Config
	history    *history.History
	mint       idgen.Minter
	compiler   *css.Compiler
	renderer   *markup.Registry
	persister  persist.Persister
	clock      func() time.Time
	initial    tree.Forest
}

// Option is a type to help initializing stores at creation time.
type Option func(*Store)

// WithConfig sets the configuration. Components not set explicitly by other
// options are created from it.
func WithConfig(cfg config.Config) Option {
	return func(s *Store) {
		s.cfg = cfg
	}
}

// WithMinter sets the minter for node ids.
func WithMinter(mint idgen.Minter) Option {
	return func(s *Store) {
		s.mint = mint
	}
}

// WithHistory sets the history. The history should be empty.
func WithHistory(h *history.History) Option {
	return func(s *Store) {
		s.history = h
	}
}

// WithPersister sets the storage used by Save and Load.
// Default is an in-memory store.
func WithPersister(p persist.Persister) Option {
	return func(s *Store) {
		s.persister = p
	}
}

// WithCompiler sets the style compiler.
func WithCompiler(c *css.Compiler) Option {
	return func(s *Store) {
		s.compiler = c
	}
}

// WithRenderer sets the renderers used by Preview. Default is markup.Default().
func WithRenderer(r *markup.Registry) Option {
	return func(s *Store) {
		s.renderer = r
	}
}

// WithDocumentID sets the id under which the document is saved.
// Default is a fresh UUID.
func WithDocumentID(id string) Option {
	return func(s *Store) {
		s.id = id
	}
}

// WithForest sets the initial content of the document. Setting it is not
// an undoable event.
func WithForest(f tree.Forest) Option {
	return func(s *Store) {
		s.initial = f
	}
}

// WithClock sets the time source for snapshots and saves.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.clock = now
		}
	}
}

// New creates a document store.
func New(opts ...Option) (*Store, error) {
	s := &Store{cfg: config.Defaults(), clock: time.Now, forest: tree.Forest{}}
	for _, option := range opts {
		option(s)
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	if s.mint == nil {
		mint, err := idgen.FromStrategy(s.cfg.IDs.Strategy, s.cfg.IDs.Length)
		if err != nil {
			return nil, err
		}
		s.mint = mint
	}
	if s.history == nil {
		s.history = history.New(history.Capacity(s.cfg.History.Capacity), history.Clock(s.clock))
	}
	if s.compiler == nil {
		s.compiler = css.NewCompiler(
			css.ClassPrefix(s.cfg.Style.ClassPrefix),
			css.Unit(s.cfg.Style.Unit),
			css.Header(s.cfg.Style.Header),
			css.MediaWidth(style.Tablet, s.cfg.Style.TabletWidth),
			css.MediaWidth(style.Mobile, s.cfg.Style.MobileWidth),
		)
	}
	if s.renderer == nil {
		s.renderer = markup.Default()
	}
	if s.persister == nil {
		s.persister = persist.NewMemory()
	}
	if s.id == "" {
		s.id = idgen.UUIDv7()()
	}
	if s.initial != nil {
		if err := tree.Validate(s.initial); err != nil {
			return nil, fmt.Errorf("initial forest: %w", err)
		}
		s.forest = tree.Normalize(s.initial)
		s.initial = nil
	}
	tracer().Debugf("document %s: created with %d node(s)", s.id, s.forest.Count())
	return s, nil
}

// --- Accessors -------------------------------------------------------------

// ID returns the document id.
func (s *Store) ID() string {
	return s.id
}

// Forest returns a copy of the forest.
func (s *Store) Forest() tree.Forest {
	return s.forest.Clone()
}

// Node returns a copy of the subtree rooted at the node with the given id.
func (s *Store) Node(id string) (*tree.Node, bool) {
	n, ok := tree.Find(s.forest, id)
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// Locate returns the parent id and the index of the node with the given id.
func (s *Store) Locate(id string) (parentID string, index int, ok bool) {
	loc, ok := tree.Locate(s.forest, id)
	if !ok {
		return "", 0, false
	}
	return loc.ParentID(), loc.Index, true
}

// Count returns the number of nodes of the document.
func (s *Store) Count() int {
	return s.forest.Count()
}

// IsDirty is a predicate wether the document has changes not yet saved.
func (s *Store) IsDirty() bool {
	return s.dirty
}

// IsSaving is a predicate wether a save is in progress.
func (s *Store) IsSaving() bool {
	return s.saving
}

// IsLoading is a predicate wether a load is in progress.
func (s *Store) IsLoading() bool {
	return s.loading
}

// --- Commands --------------------------------------------------------------

// apply replaces the forest by g, recording the current forest first.
func (s *Store) apply(g tree.Forest, label string) {
	s.history.Record(s.forest, label)
	s.forest = g
	s.dirty = true
	s.reconcileSelection()
	tracer().Debugf("document %s: %s", s.id, label)
}

// AddNode creates a node of kind k and inserts it as a child of parentID
// (tree.Root for root level) at position index. The new node is selected.
func (s *Store) AddNode(k tree.Kind, props tree.Props, parentID string, index int) (string, error) {
	if !k.IsKnown() {
		return "", fmt.Errorf("add node: %w: %q", tree.ErrUnknownKind, k)
	}
	n := tree.NewNode(k, props, func(string) string {
		return tree.FreshID(s.forest, k, s.mint)
	})
	g, err := tree.InsertAt(s.forest, parentID, index, n)
	if err != nil {
		return "", fmt.Errorf("add node: %w", err)
	}
	s.apply(g, "add "+k.String())
	s.selected = n.ID
	return n.ID, nil
}

// InsertNode inserts a copy of the subtree n as a child of parentID at
// position index, keeping its ids. The inserted node is selected.
func (s *Store) InsertNode(n *tree.Node, parentID string, index int) (string, error) {
	if n == nil {
		return "", fmt.Errorf("insert node: %w", tree.ErrNotFound)
	}
	if err := tree.Validate(tree.Forest{n}); err != nil {
		return "", fmt.Errorf("insert node: %w", err)
	}
	c := tree.Normalize(tree.Forest{n})[0]
	g, err := tree.InsertAt(s.forest, parentID, index, c)
	if err != nil {
		return "", fmt.Errorf("insert node: %w", err)
	}
	s.apply(g, "insert "+c.Type.String())
	s.selected = c.ID
	return c.ID, nil
}

// UpdateProps shallow-merges partial into the properties of a node.
func (s *Store) UpdateProps(id string, partial tree.Props) error {
	if len(partial) == 0 {
		if !s.forest.Has(id) {
			return fmt.Errorf("update %q: %w", id, tree.ErrNotFound)
		}
		return nil
	}
	g, ok := tree.Update(s.forest, id, partial)
	if !ok {
		return fmt.Errorf("update %q: %w", id, tree.ErrNotFound)
	}
	s.apply(g, "update "+id)
	return nil
}

// RemoveNode removes a node and all of its descendants.
func (s *Store) RemoveNode(id string) error {
	g, ok := tree.Remove(s.forest, id)
	if !ok {
		return fmt.Errorf("remove %q: %w", id, tree.ErrNotFound)
	}
	s.apply(g, "remove "+id)
	return nil
}

// MoveNode moves a node to position index within the children of
// parentID (tree.Root for root level). Moving a node below itself fails
// with tree.ErrCycle.
func (s *Store) MoveNode(id string, parentID string, index int) error {
	g, err := tree.Move(s.forest, id, parentID, index)
	if err != nil {
		tracer().Errorf("document %s: %v", s.id, err)
		return err
	}
	s.apply(g, "move "+id)
	return nil
}

// DuplicateNode inserts a copy of a subtree, with fresh ids, right after
// the original. The copy is selected and its id returned.
func (s *Store) DuplicateNode(id string) (string, error) {
	g, newID, ok := tree.Duplicate(s.forest, id, s.mint)
	if !ok {
		return "", fmt.Errorf("duplicate %q: %w", id, tree.ErrNotFound)
	}
	s.apply(g, "duplicate "+id)
	s.selected = newID
	return newID, nil
}

// ReplaceForest replaces the whole document as one undoable action.
func (s *Store) ReplaceForest(f tree.Forest, label string) error {
	if err := tree.Validate(f); err != nil {
		return fmt.Errorf("replace forest: %w", err)
	}
	if label == "" {
		label = "replace document"
	}
	s.apply(tree.Normalize(f), label)
	return nil
}

// Undo reverts the most recent action. It returns false if there is
// nothing to undo.
func (s *Store) Undo() bool {
	g, ok := s.history.Undo(s.forest)
	if !ok {
		return false
	}
	s.forest = g
	s.dirty = true
	s.reconcileSelection()
	return true
}

// Redo re-applies the most recently undone action. It returns false if
// there is nothing to redo.
func (s *Store) Redo() bool {
	g, ok := s.history.Redo(s.forest)
	if !ok {
		return false
	}
	s.forest = g
	s.dirty = true
	s.reconcileSelection()
	return true
}

// CanUndo is a predicate wether there is an action to undo.
func (s *Store) CanUndo() bool {
	return s.history.CanUndo()
}

// CanRedo is a predicate wether there is an action to redo.
func (s *Store) CanRedo() bool {
	return s.history.CanRedo()
}

// UndoLabels returns the labels of the actions which may be undone,
// oldest first.
func (s *Store) UndoLabels() []string {
	return s.history.PastLabels()
}

// RedoLabels returns the labels of the actions which may be redone, next
// redo first.
func (s *Store) RedoLabels() []string {
	return s.history.FutureLabels()
}

// --- Selection and view state ----------------------------------------------

// Select selects the node with the given id.
func (s *Store) Select(id string) error {
	if !s.forest.Has(id) {
		return fmt.Errorf("select %q: %w", id, tree.ErrNotFound)
	}
	s.selected = id
	return nil
}

// Selected returns the id of the selected node.
func (s *Store) Selected() (string, bool) {
	return s.selected, s.selected != ""
}

// ClearSelection clears the selection.
func (s *Store) ClearSelection() {
	s.selected = ""
}

func (s *Store) reconcileSelection() {
	if s.selected != "" && !s.forest.Has(s.selected) {
		tracer().Debugf("document %s: selected node %s vanished", s.id, s.selected)
		s.selected = ""
	}
}

// SetBreakpoint sets the active responsive preview mode.
func (s *Store) SetBreakpoint(bp style.Breakpoint) error {
	if !bp.IsValid() {
		return fmt.Errorf("%w: %v", ErrInvalidBreakpoint, bp)
	}
	s.breakpoint = bp
	return nil
}

// Breakpoint returns the active responsive preview mode.
func (s *Store) Breakpoint() style.Breakpoint {
	return s.breakpoint
}

// --- Output ----------------------------------------------------------------

// Compile compiles the style properties of the document.
func (s *Store) Compile() (css.Result, error) {
	return s.compiler.Compile(s.forest)
}

// Preview writes the document as a standalone HTML page, with the
// compiled stylesheet embedded.
func (s *Store) Preview(w io.Writer, title string) error {
	res, err := s.Compile()
	if err != nil {
		return err
	}
	return s.renderer.WriteDocument(w, title, s.forest, res.ClassMap, res.MinifiedCSS)
}

// --- Persistence -----------------------------------------------------------

// Save compiles the document and hands it to the persister.
func (s *Store) Save(ctx context.Context) error {
	res, err := s.Compile()
	if err != nil {
		return fmt.Errorf("save %s: %w", s.id, err)
	}
	s.saving = true
	defer func() { s.saving = false }()
	rec := persist.Record{
		DocumentID: s.id,
		Forest:     s.forest.Clone(),
		CSS:        res.MinifiedCSS,
		ClassMap:   res.ClassMap,
		ModifiedAt: s.clock(),
	}
	if err := s.persister.Save(ctx, s.id, rec); err != nil {
		tracer().Errorf("document %s: save failed: %v", s.id, err)
		return fmt.Errorf("save %s: %w", s.id, err)
	}
	s.dirty = false
	tracer().Infof("document %s: saved %d node(s)", s.id, s.forest.Count())
	return nil
}

// Load replaces the document by the one stored under id. Opening a
// document is not undoable: history and selection are reset.
func (s *Store) Load(ctx context.Context, id string) error {
	s.loading = true
	defer func() { s.loading = false }()
	rec, err := s.persister.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("load %s: %w", id, err)
	}
	if err := tree.Validate(rec.Forest); err != nil {
		return fmt.Errorf("load %s: %w", id, err)
	}
	s.id = id
	s.forest = tree.Normalize(rec.Forest)
	s.history.Clear()
	s.selected = ""
	s.dirty = false
	tracer().Infof("document %s: loaded %d node(s)", id, s.forest.Count())
	return nil
}
