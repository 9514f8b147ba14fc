package occache

import "bytes"

// Comparator totally orders byte strings. It is an injected external
// capability (spec: "the key comparator"), not something occache owns the
// implementation of — the default below is the only reasonable stdlib
// rendition of it; see DESIGN.md for why no third-party library is wired
// in its place.
type Comparator interface {
	Compare(a, b []byte) int
}

// ByteComparator is the default Comparator: plain lexicographic byte
// ordering via bytes.Compare.
type ByteComparator struct{}

func (ByteComparator) Compare(a, b []byte) int {
	return bytes.Compare(a, b)
}
