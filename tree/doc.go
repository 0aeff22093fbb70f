/*
Package tree implements the document model of the page builder: an ordered
forest of visual nodes, and pure operations on it.

Overview

A document is a Forest, i.e. an ordered list of root-level nodes. Every
node has an identifier, which is unique within the whole forest, a kind
(see type Kind) and a bag of properties. Nodes of container kinds also
carry an ordered list of children.

All operations in this package are pure: they never modify their input
forest, but return a new forest instead. Ancestors of a modified node are
rebuilt, untouched subtrees are shared between input and output. Clients
which need an independent copy (e.g., for snapshots) call Forest.Clone().

Operations on absent ids are no-ops and report this through a comma-ok
result, as do lookups:

    n, ok := tree.Find(forest, "txt_k3j9x0qz")
    forest, ok = tree.Update(forest, n.ID, tree.Props{"color": "red"})

Operations which may be rejected for structural reasons (inserting into
a leaf, moving a node below itself) return an error instead.

Recursion depth is bounded by the nesting depth of the document, which is
limited by what a user is able to edit; we do not guard against deeply
nested trees.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package tree

import (
	"errors"
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'pagedoc.tree'.
func tracer() tracing.Trace {
	return tracing.Select("pagedoc.tree")
}

func assertThat(that bool, msg string, msgargs ...interface{}) {
	if !that {
		msg = fmt.Sprintf("pagedoc.tree: "+msg, msgargs...)
		panic(msg)
	}
}

// ErrNotFound is returned if an operation refers to an id which is not
// present in the forest.
var ErrNotFound = errors.New("node not found")

// ErrCycle is returned if a move would place a node below itself.
var ErrCycle = errors.New("node cannot become its own descendant")

// ErrNotContainer is returned if children are to be placed below a node
// of a leaf kind.
var ErrNotContainer = errors.New("node kind cannot hold children")

// ErrDuplicateID is returned if a node to insert carries an id which is
// already present in the forest.
var ErrDuplicateID = errors.New("duplicate node id")

// ErrUnknownKind is returned for nodes of a kind outside of the vocabulary.
var ErrUnknownKind = errors.New("unknown node kind")

// ErrEmptyID is returned for nodes without an identifier.
var ErrEmptyID = errors.New("node without id")
