package tree

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ValidationError reports a structurally invalid node, together with the
// path of child positions leading to it.
type ValidationError struct {
	Path []int  // positions from the forest down to the node
	ID   string // id of the offending node, if any
	Err  error  // one of the sentinel errors of this package
}

func (e *ValidationError) Error() string {
	path := make([]string, len(e.Path))
	for i, p := range e.Path {
		path[i] = strconv.Itoa(p)
	}
	return fmt.Sprintf("invalid node %q at [%s]: %v", e.ID, strings.Join(path, "."), e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

var errNilNode = errors.New("nil node")

// Validate checks the structural invariants of a forest read from outside:
// every node has a non-empty id, ids are unique across the forest, kinds are
// part of the vocabulary and leaf kinds carry no children.
//
// Validate reports the first violation found in pre-order.
func Validate(f Forest) error {
	seen := make(map[string]struct{}, 16)
	return validate(f, nil, seen)
}

func validate(nodes []*Node, path []int, seen map[string]struct{}) error {
	for i, n := range nodes {
		p := append(append([]int(nil), path...), i)
		if n == nil {
			return &ValidationError{Path: p, Err: errNilNode}
		}
		if n.ID == "" {
			return &ValidationError{Path: p, Err: ErrEmptyID}
		}
		if _, dup := seen[n.ID]; dup {
			return &ValidationError{Path: p, ID: n.ID, Err: ErrDuplicateID}
		}
		seen[n.ID] = struct{}{}
		if !n.Type.IsKnown() {
			return &ValidationError{Path: p, ID: n.ID, Err: fmt.Errorf("%w: %q", ErrUnknownKind, n.Type)}
		}
		if n.Children != nil && !n.Type.IsContainer() {
			return &ValidationError{Path: p, ID: n.ID, Err: ErrNotContainer}
		}
		if err := validate(n.Children, p, seen); err != nil {
			return err
		}
	}
	return nil
}

// Normalize returns a deep copy of f in which every container carries a
// non-nil list of children and every node carries a non-nil property bag.
// It is used for forests read from outside, after validation.
func Normalize(f Forest) Forest {
	c := f.Clone()
	if c == nil {
		c = Forest{}
	}
	_ = c.Walk(func(n *Node, parent *Node, position int) error {
		if n.Props == nil {
			n.Props = Props{}
		}
		if n.Children == nil && n.Type.IsContainer() {
			n.Children = []*Node{}
		}
		return nil
	})
	return c
}
