package occache

import (
	"sync"
	"sync/atomic"
)

// MaxLevel bounds the number of forward-pointer levels a node can carry.
// Kept at the higher bound used by the source's range-oriented skiplist
// variant (rangeskiplist.h's RANGESKIPLIST_MAXLEVEL) rather than the
// smaller 8-level bound the cache-oriented variant used, since occache is
// meant to scale past the sizes that variant was tuned for.
const MaxLevel = 32

// levelProbability is the geometric-distribution parameter used to draw a
// node's height. Matches CACHESKIPLIST_P / RANGESKIPLIST_P in the source.
const levelProbability = 0.25

// node is either a sentinel (a gap marker between two known-contiguous
// runs) or an entry (a cached key/value pair). The source represents this
// as a tagged union sharing storage (CacheSkipListNode's anonymous union of
// {sentinel_, ea_stats_} vs {key_, value_}); Go has no union types, so the
// two forms simply sit side by side here and the sentinel flag decides
// which half is meaningful. Level 0's forward pointer is kept inline
// (next0) and every level above it lives in a separate slice, mirroring
// the node's cache-friendly "inline prefix + heap extension" layout.
type node struct {
	key   []byte
	value []byte

	sentinel bool
	dirty    bool

	height int
	next0  *node
	next   []*node // next[i] is level i+1; empty when height == 1

	marked      atomic.Bool
	fullyLinked atomic.Bool

	// mu guards value/dirty mutation and pointer swings that target this
	// node as a predecessor. Go has no recursive mutex (see DESIGN.md on
	// the source's "recursive per-node mutex" pattern); the lock-coupled
	// mutation protocol in skiplist.go tracks which predecessors it has
	// already locked so the same node is never locked twice in one edit.
	mu sync.Mutex

	// recency queue linkage. Only meaningful for non-sentinel, non-head,
	// non-tail nodes; see recency.go.
	rqPrev, rqNext *node
	inQueue        bool
}

func newSentinelNode(height int) *node {
	n := &node{
		sentinel: true,
		height:   height,
	}
	if height > 1 {
		n.next = make([]*node, height-1)
	}
	return n
}

func newEntryNode(key, value []byte, height int) *node {
	n := &node{
		key:    key,
		value:  value,
		height: height,
	}
	if height > 1 {
		n.next = make([]*node, height-1)
	}
	return n
}

func (n *node) getNext(level int) *node {
	if level == 0 {
		return n.next0
	}
	return n.next[level-1]
}

func (n *node) setNext(level int, target *node) {
	if level == 0 {
		n.next0 = target
		return
	}
	n.next[level-1] = target
}

func (n *node) valueLen() int {
	return len(n.value)
}

// randomHeight draws a node height from the geometric distribution with
// parameter levelProbability, matching RandomLevel() in rangeskiplist.h /
// cacheskiplist.cc.
func randomHeight(source *randSource) int {
	height := 1
	for source.Float64() < levelProbability && height < MaxLevel {
		height++
	}
	return height
}
