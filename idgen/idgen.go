/*
Package idgen produces short, type-prefixed identifiers for document nodes.

Identifiers consist of a short prefix naming the node's kind and a body
produced by a Generator, e.g. "txt_k3j9x0qz". The id strategy is a
construction-time decision of the document store: production code uses
NanoID bodies, tests usually use a deterministic Sequence.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package idgen

import (
	"crypto/rand"
	"fmt"
	"io"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'pagedoc.idgen'.
func tracer() tracing.Trace {
	return tracing.Select("pagedoc.idgen")
}

// DefaultLength is the length of NanoID bodies used by Default.
const DefaultLength = 8

// Separator joins prefix and body of an identifier.
const Separator = "_"

// Generator produces unique identifier bodies.
type Generator func() string

// Minter produces a complete identifier for a given prefix.
type Minter func(prefix string) string

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NanoID returns a Generator producing base-36 bodies of the given length.
// Lengths < 4 are raised to 4. Every symbol of the alphabet is equally
// likely.
func NanoID(length int) Generator {
	return nanoID(length, rand.Reader)
}

// maxByte is the largest multiple of len(alphabet) not exceeding 256.
// Random bytes ≥ maxByte are discarded.
const maxByte = 256 - 256%len(alphabet)

func nanoID(length int, src io.Reader) Generator {
	if length < 4 {
		length = 4
	}
	return func() string {
		id := make([]byte, 0, length)
		buf := make([]byte, length+length/4)
		for len(id) < length {
			if _, err := io.ReadFull(src, buf); err != nil {
				panic("idgen: cannot read random bytes: " + err.Error())
			}
			for _, b := range buf {
				if int(b) >= maxByte {
					continue
				}
				id = append(id, alphabet[int(b)%len(alphabet)])
				if len(id) == length {
					break
				}
			}
		}
		return string(id)
	}
}

// UUIDv7 returns a Generator producing RFC 9562 UUID v7 strings.
// These are time-sortable but considerably longer than NanoID bodies.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Sequence returns a deterministic Generator producing "1", "2", ….
// Every call to Sequence starts a new, independent counter.
func Sequence() Generator {
	var n uint64
	return func() string {
		return strconv.FormatUint(atomic.AddUint64(&n, 1), 10)
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every body.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// MinterFor creates a Minter which joins a prefix and a body from gen.
// An empty prefix yields the bare body.
func MinterFor(gen Generator) Minter {
	if gen == nil {
		panic("idgen: minter needs a generator")
	}
	return func(prefix string) string {
		if prefix == "" {
			return gen()
		}
		return prefix + Separator + gen()
	}
}

// Default returns the default Minter, using NanoID bodies of DefaultLength.
func Default() Minter {
	return MinterFor(NanoID(DefaultLength))
}

// Strategy names accepted by FromStrategy.
const (
	StrategyNanoID   = "nanoid"
	StrategyUUID     = "uuid7"
	StrategySequence = "sequence"
)

// FromStrategy creates a Minter from a strategy name, as found in
// configuration files. length is used for NanoID bodies only.
func FromStrategy(name string, length int) (Minter, error) {
	switch name {
	case "", StrategyNanoID:
		return MinterFor(NanoID(length)), nil
	case StrategyUUID:
		return MinterFor(UUIDv7()), nil
	case StrategySequence:
		return MinterFor(Sequence()), nil
	}
	tracer().Errorf("unknown id strategy %q", name)
	return nil, fmt.Errorf("idgen: unknown strategy %q", name)
}
