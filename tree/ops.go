package tree

import (
	"fmt"

	"github.com/npillmayer/pagedoc/idgen"
)

// Root denotes the forest itself as a parent, e.g. when inserting
// a node at root level.
const Root = ""

// Location is the position of a node within its parent.
// Parent is nil for root-level nodes.
type Location struct {
	Parent *Node
	Index  int
}

// ParentID returns the id of the parent, or Root for root-level nodes.
func (loc Location) ParentID() string {
	if loc.Parent == nil {
		return Root
	}
	return loc.Parent.ID
}

// Find searches f in pre-order for a node with the given id.
func Find(f Forest, id string) (*Node, bool) {
	for _, n := range f {
		if n.ID == id {
			return n, true
		}
		if found, ok := Find(n.Children, id); ok {
			return found, true
		}
	}
	return nil, false
}

// Locate finds the parent and the index of the node with the given id.
func Locate(f Forest, id string) (Location, bool) {
	return locate(f, nil, id)
}

func locate(nodes []*Node, parent *Node, id string) (Location, bool) {
	for i, n := range nodes {
		if n.ID == id {
			return Location{Parent: parent, Index: i}, true
		}
		if loc, ok := locate(n.Children, n, id); ok {
			return loc, true
		}
	}
	return Location{}, false
}

// Update shallow-merges partial into the props of the node with the given id.
// If id is not present, f is returned unchanged and ok is false.
func Update(f Forest, id string, partial Props) (Forest, bool) {
	nodes, ok := rebuild(f, id, func(n *Node) []*Node {
		c := n.shallow()
		c.Props = n.Props.Merge(partial)
		return []*Node{c}
	})
	if !ok {
		tracer().Debugf("update: node %q not found", id)
		return f, false
	}
	return nodes, true
}

// Remove removes the node with the given id together with all of its
// descendants. If id is not present, f is returned unchanged and ok is false.
func Remove(f Forest, id string) (Forest, bool) {
	nodes, ok := rebuild(f, id, func(n *Node) []*Node {
		return nil
	})
	if !ok {
		tracer().Debugf("remove: node %q not found", id)
		return f, false
	}
	return nodes, true
}

// InsertAt inserts n as a child of the node with id parentID, or at root
// level for parentID == Root. index is clamped to [0, number of children].
//
// n must not contain an identifier already present in f.
func InsertAt(f Forest, parentID string, index int, n *Node) (Forest, error) {
	assertThat(n != nil, "cannot insert nil node")
	taken := f.idSet()
	for _, id := range (Forest{n}).IDs() {
		if _, dup := taken[id]; dup {
			return f, fmt.Errorf("insert %q: %w", id, ErrDuplicateID)
		}
		taken[id] = struct{}{}
	}
	return insert(f, parentID, index, n)
}

func insert(f Forest, parentID string, index int, n *Node) (Forest, error) {
	if parentID == Root {
		return Forest(insertInto(f, index, n)), nil
	}
	parent, ok := Find(f, parentID)
	if !ok {
		return f, fmt.Errorf("insert into %q: %w", parentID, ErrNotFound)
	}
	if parent.IsLeaf() {
		return f, fmt.Errorf("insert into %s %q: %w", parent.Type, parentID, ErrNotContainer)
	}
	nodes, _ := rebuild(f, parentID, func(p *Node) []*Node {
		c := p.shallow()
		c.Children = insertInto(p.Children, index, n)
		return []*Node{c}
	})
	return nodes, nil
}

// Move detaches the node with the given id and re-inserts it as a child of
// newParentID (or at root level) at position index. index refers to the
// list of siblings after the node has been detached.
//
// Moving a node below itself is rejected with ErrCycle. On any error, f is
// returned unchanged.
func Move(f Forest, id string, newParentID string, index int) (Forest, error) {
	n, ok := Find(f, id)
	if !ok {
		return f, fmt.Errorf("move %q: %w", id, ErrNotFound)
	}
	if newParentID != Root {
		if newParentID == id || n.Contains(newParentID) {
			tracer().Errorf("move: rejecting move of %q into %q", id, newParentID)
			return f, fmt.Errorf("move %q into %q: %w", id, newParentID, ErrCycle)
		}
		target, ok := Find(f, newParentID)
		if !ok {
			return f, fmt.Errorf("move %q into %q: %w", id, newParentID, ErrNotFound)
		}
		if target.IsLeaf() {
			return f, fmt.Errorf("move %q into %s %q: %w", id, target.Type, newParentID, ErrNotContainer)
		}
	}
	detached, _ := Remove(f, id)
	moved, err := insert(detached, newParentID, index, n)
	if err != nil { // cannot happen after the checks above
		return f, err
	}
	return moved, nil
}

// Duplicate deep-clones the subtree rooted at the node with the given id,
// assigning a fresh identifier to every node of the clone, and inserts the
// clone immediately after the original. It returns the id of the clone's root.
func Duplicate(f Forest, id string, mint idgen.Minter) (Forest, string, bool) {
	loc, ok := Locate(f, id)
	if !ok {
		tracer().Debugf("duplicate: node %q not found", id)
		return f, "", false
	}
	var orig *Node
	if loc.Parent == nil {
		orig = f[loc.Index]
	} else {
		orig = loc.Parent.Children[loc.Index]
	}
	clone := Regenerate(orig, f, mint)
	nodes, err := insert(f, loc.ParentID(), loc.Index+1, clone)
	assertThat(err == nil, "duplicate: cannot re-insert clone: %v", err)
	return nodes, clone.ID, true
}

// --- Helpers ---------------------------------------------------------------

// rebuild searches nodes for id and replaces the node by the result of
// replace. All ancestors of the node are copied, everything else is shared.
func rebuild(nodes []*Node, id string, replace func(*Node) []*Node) ([]*Node, bool) {
	for i, n := range nodes {
		if n.ID == id {
			repl := replace(n)
			r := make([]*Node, 0, len(nodes)-1+len(repl))
			r = append(r, nodes[:i]...)
			r = append(r, repl...)
			r = append(r, nodes[i+1:]...)
			return r, true
		}
		if n.Children == nil {
			continue
		}
		if children, ok := rebuild(n.Children, id, replace); ok {
			c := n.shallow()
			c.Children = children
			r := make([]*Node, len(nodes))
			copy(r, nodes)
			r[i] = c
			return r, true
		}
	}
	return nodes, false
}

func insertInto(nodes []*Node, index int, n *Node) []*Node {
	if index < 0 {
		index = 0
	} else if index > len(nodes) {
		index = len(nodes)
	}
	r := make([]*Node, 0, len(nodes)+1)
	r = append(r, nodes[:index]...)
	r = append(r, n)
	r = append(r, nodes[index:]...)
	return r
}
