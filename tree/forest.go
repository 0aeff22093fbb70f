package tree

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/npillmayer/pagedoc/idgen"
	tp "github.com/xlab/treeprint"
)

// Forest is an ordered list of root-level nodes, i.e. a whole document.
type Forest []*Node

// Clone returns a deep copy of f. The copy shares no mutable state with f.
func (f Forest) Clone() Forest {
	if f == nil {
		return nil
	}
	c := make(Forest, len(f))
	for i, n := range f {
		c[i] = n.Clone()
	}
	return c
}

// Count returns the total number of nodes in f.
func (f Forest) Count() int {
	c := 0
	for _, n := range f {
		c += n.Size()
	}
	return c
}

// IDs returns the identifiers of all nodes of f, in pre-order.
func (f Forest) IDs() []string {
	ids := make([]string, 0, 16)
	_ = f.Walk(func(n *Node, parent *Node, position int) error {
		ids = append(ids, n.ID)
		return nil
	})
	return ids
}

func (f Forest) idSet() map[string]struct{} {
	set := make(map[string]struct{}, 16)
	_ = f.Walk(func(n *Node, parent *Node, position int) error {
		set[n.ID] = struct{}{}
		return nil
	})
	return set
}

// Has is a predicate wether a node with the given id is part of f.
func (f Forest) Has(id string) bool {
	_, ok := Find(f, id)
	return ok
}

// Equal reports wether two forests are deep-equal.
func Equal(a, b Forest) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// String returns an indented tree representation of f, for debugging.
func (f Forest) String() string {
	printer := tp.New()
	for _, n := range f {
		printNode(printer, n)
	}
	return printer.String()
}

func printNode(printer tp.Tree, n *Node) {
	label := fmt.Sprintf("%s %s", n.Type, n.ID)
	if n.IsLeaf() {
		printer.AddNode(label)
		return
	}
	branch := printer.AddBranch(label)
	for _, ch := range n.Children {
		printNode(branch, ch)
	}
}

// --- Walking ---------------------------------------------------------------

// SkipChildren may be returned by an Action to skip the descendants of
// the current node. It is not returned as an error by Walk.
var SkipChildren = errors.New("skip children")

// Action is a function type to operate on tree nodes during a walk.
// parent is nil for root-level nodes, position is the index of n within
// the children of parent (or within the forest).
type Action func(n *Node, parent *Node, position int) error

// Walk traverses f in pre-order, i.e. parents are visited before their
// children and children are visited in order. If action returns an error
// other than SkipChildren, the walk is aborted and the error returned.
func (f Forest) Walk(action Action) error {
	assertThat(action != nil, "walk needs an action")
	return walk(f, nil, action)
}

func walk(nodes []*Node, parent *Node, action Action) error {
	for i, n := range nodes {
		err := action(n, parent, i)
		if err == SkipChildren {
			continue
		} else if err != nil {
			return err
		}
		if err = walk(n.Children, n, action); err != nil {
			return err
		}
	}
	return nil
}

// --- Identifiers -----------------------------------------------------------

// maxMintAttempts bounds the retries of FreshID for a colliding minter.
const maxMintAttempts = 64

// FreshID mints an identifier for kind k which is not yet used in f.
func FreshID(f Forest, k Kind, mint idgen.Minter) string {
	return freshID(f.idSet(), k, mint)
}

func freshID(taken map[string]struct{}, k Kind, mint idgen.Minter) string {
	assertThat(mint != nil, "cannot create identifier without id minter")
	for i := 0; i < maxMintAttempts; i++ {
		id := mint(k.Prefix())
		if _, exists := taken[id]; !exists && id != "" {
			taken[id] = struct{}{}
			return id
		}
		tracer().Debugf("minted id %q collides, retrying", id)
	}
	panic("pagedoc.tree: id minter keeps producing colliding ids")
}

// Regenerate returns a deep copy of the subtree rooted at n, where every
// node carries a fresh identifier not present in f.
func Regenerate(n *Node, f Forest, mint idgen.Minter) *Node {
	taken := f.idSet()
	// ids of n itself must not be re-used either
	for _, id := range (Forest{n}).IDs() {
		taken[id] = struct{}{}
	}
	return regenerate(n, taken, mint)
}

func regenerate(n *Node, taken map[string]struct{}, mint idgen.Minter) *Node {
	c := &Node{ID: freshID(taken, n.Type, mint), Type: n.Type, Props: n.Props.Clone()}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = regenerate(ch, taken, mint)
		}
	}
	return c
}
