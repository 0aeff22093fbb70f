package tree

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"encoding/json"
	"fmt"

	"github.com/npillmayer/pagedoc/idgen"
)

// Props is the property bag of a node: content, style attributes and
// per-node configuration. The tree package never interprets props.
type Props map[string]any

// Clone returns a deep copy of props. Nested maps and slices are copied
// recursively, scalar values are shared.
func (p Props) Clone() Props {
	if p == nil {
		return nil
	}
	c := make(Props, len(p))
	for k, v := range p {
		c[k] = cloneValue(v)
	}
	return c
}

// Merge returns a new property bag holding p, overlayed by the entries of
// partial (shallow merge). Neither p nor partial are modified.
func (p Props) Merge(partial Props) Props {
	m := make(Props, len(p)+len(partial))
	for k, v := range p {
		m[k] = v
	}
	for k, v := range partial {
		m[k] = cloneValue(v)
	}
	return m
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case Props:
		return x.Clone()
	case map[string]any:
		return map[string]any(Props(x).Clone())
	case []any:
		c := make([]any, len(x))
		for i, e := range x {
			c[i] = cloneValue(e)
		}
		return c
	case []string:
		return append([]string(nil), x...)
	case []float64:
		return append([]float64(nil), x...)
	case []int:
		return append([]int(nil), x...)
	}
	return v
}

// Node is the building block of a document. A node's Children are nil for
// leaf kinds and non-nil (possibly empty) for containers.
type Node struct {
	ID       string
	Type     Kind
	Props    Props
	Children []*Node
}

// NewNode creates a node of kind k with an identifier minted for the
// kind's prefix. Containers start with an empty list of children.
//
// NewNode does not check the identifier against a forest; see FreshID.
func NewNode(k Kind, props Props, mint idgen.Minter) *Node {
	assertThat(mint != nil, "cannot create node without id minter")
	return newNode(mint(k.Prefix()), k, props)
}

func newNode(id string, k Kind, props Props) *Node {
	n := &Node{ID: id, Type: k, Props: props.Clone()}
	if n.Props == nil {
		n.Props = Props{}
	}
	if k.IsContainer() {
		n.Children = []*Node{}
	}
	return n
}

func (n *Node) String() string {
	return fmt.Sprintf("(%s %s #ch=%d)", n.Type, n.ID, len(n.Children))
}

// IsLeaf is a predicate wether n is unable to hold children.
func (n *Node) IsLeaf() bool {
	return n.Children == nil
}

// ChildCount returns the number of children of n.
func (n *Node) ChildCount() int {
	return len(n.Children)
}

// Child returns the child at position i.
func (n *Node) Child(i int) (*Node, bool) {
	if i < 0 || i >= len(n.Children) {
		return nil, false
	}
	return n.Children[i], true
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{ID: n.ID, Type: n.Type, Props: n.Props.Clone()}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return c
}

// shallow copies n without copying props or children.
func (n *Node) shallow() *Node {
	c := *n
	return &c
}

// Size returns the number of nodes in the subtree rooted at n.
func (n *Node) Size() int {
	if n == nil {
		return 0
	}
	s := 1
	for _, ch := range n.Children {
		s += ch.Size()
	}
	return s
}

// Contains is a predicate wether id denotes a proper descendant of n.
func (n *Node) Contains(id string) bool {
	for _, ch := range n.Children {
		if ch.ID == id || ch.Contains(id) {
			return true
		}
	}
	return false
}

// --- JSON ------------------------------------------------------------------

// jsonNode is the wire form of a node. Children are a pointer to keep
// "absent" (leaf) apart from "empty" (container without children).
type jsonNode struct {
	ID       string   `json:"id"`
	Type     Kind     `json:"type"`
	Props    Props    `json:"props"`
	Children *[]*Node `json:"children,omitempty"`
}

// MarshalJSON emits "children" for containers only.
func (n Node) MarshalJSON() ([]byte, error) {
	jn := jsonNode{ID: n.ID, Type: n.Type, Props: n.Props}
	if jn.Props == nil {
		jn.Props = Props{}
	}
	if n.Children != nil {
		ch := n.Children
		jn.Children = &ch
	}
	return json.Marshal(jn)
}

// UnmarshalJSON reads a node, keeping a present but empty list of children
// apart from an absent one.
func (n *Node) UnmarshalJSON(data []byte) error {
	var jn jsonNode
	if err := json.Unmarshal(data, &jn); err != nil {
		return err
	}
	n.ID, n.Type, n.Props = jn.ID, jn.Type, jn.Props
	n.Children = nil
	if jn.Children != nil {
		n.Children = *jn.Children
		if n.Children == nil {
			n.Children = []*Node{}
		}
	}
	return nil
}
