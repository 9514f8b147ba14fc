package occache

import "sync/atomic"

// Index is the ordered, concurrent, size-bounded structure at the heart of
// occache: a lock-coupled skiplist of entries interleaved with sentinel
// nodes that mark the boundary of a known-contiguous run. It is grounded on
// cacheskiplist.cc's Find/Seek/Insert/Append,
// restructured for Go: fixed-size [MaxLevel]*node predecessor/successor
// arrays instead of a resizable vector (the source resizes preds below
// currentLevel_ before Find writes into it, which is unsound; fixed arrays
// sidestep that entirely), and an explicit "already locked" slice instead
// of a recursive mutex, since sync.Mutex in Go is not reentrant.
type Index struct {
	head, tail *node

	height atomic.Int32 // 1-based count of levels currently in use

	cmp Comparator
	rnd *randSource
	st  *stats
	rq  *recencyQueue
}

// NewIndex builds an empty Index. head and tail are permanently linked at
// every level so no "extend head pointers" step is ever needed, unlike the
// source's dynamically grown level array — 32 pointers per sentinel is
// cheap enough to always carry.
func NewIndex(cmp Comparator) *Index {
	if cmp == nil {
		cmp = ByteComparator{}
	}
	head := newSentinelNode(MaxLevel)
	tail := newSentinelNode(MaxLevel)
	for i := 0; i < MaxLevel; i++ {
		head.setNext(i, tail)
	}
	head.fullyLinked.Store(true)
	tail.fullyLinked.Store(true)
	idx := &Index{
		head: head,
		tail: tail,
		cmp:  cmp,
		rnd:  newRandSource(),
		st:   &stats{},
	}
	idx.height.Store(1)
	idx.rq = newRecencyQueue()
	return idx
}

// cmpWrapper mirrors CacheSkipList::cmpWrapper: a sentinel always compares
// as less than any real key (it carries no key of its own), and tail
// always compares as greater than any real key.
func (idx *Index) cmpWrapper(n *node, key []byte) int {
	if n == idx.tail {
		return 1
	}
	if n.sentinel {
		return -1
	}
	return idx.cmp.Compare(n.key, key)
}

// find populates preds/succs for every level in [0, topLevel] and returns
// prev, the last non-sentinel node visited during the level-0 descent
// (head counts). prev is what appendExtend splices against; preds[0]
// itself may be a sentinel. Levels above topLevel get head as predecessor
// and head's current successor, so a mutator drawing a taller node has a
// predecessor to lock and validate at every level it links.
func (idx *Index) find(key []byte, preds, succs *[MaxLevel]*node) (prev *node) {
	x := idx.head
	prev = idx.head
	topLevel := int(idx.height.Load()) - 1
	for i := topLevel + 1; i < MaxLevel; i++ {
		preds[i] = idx.head
		succs[i] = idx.head.getNext(i)
	}
	for i := topLevel; i >= 0; i-- {
		y := x.getNext(i)
		for y != nil && idx.cmpWrapper(y, key) < 0 {
			x = y
			if !x.sentinel {
				prev = x
			}
			y = x.getNext(i)
		}
		preds[i] = x
		succs[i] = y
	}
	idx.st.onFind()
	return prev
}

// Seek returns the entry node whose key is >= key per the run-aware rule
// in cacheskiplist.cc's Seek: if the immediate predecessor is a real entry,
// the first successor is the answer outright; if it's a sentinel, only an
// exact key match counts (anything else falls inside an unknown gap and
// Seek must not claim knowledge of it), and the sentinel itself is
// returned as an "invalid" marker otherwise.
func (idx *Index) Seek(key []byte) *node {
	var preds, succs [MaxLevel]*node
	atCursor := idx.find(key, &preds, &succs)
	_ = atCursor
	x := preds[0]
	next := succs[0]
	var result *node
	if !x.sentinel {
		result = next
	} else if idx.cmpWrapper(next, key) == 0 {
		result = next
	} else {
		result = x
	}
	if result != nil && !result.sentinel && result != idx.tail {
		idx.rq.touch(result)
	}
	return result
}

type opKind int

const (
	opInsert opKind = iota
	opAppend
)

// Insert records key/value as a known entry. A new key always starts a
// new one-entry run closed by a fresh trailing sentinel; an existing key
// has its value replaced in place.
func (idx *Index) Insert(key, value []byte) error {
	_, err := idx.insertOrAppend(key, value, opInsert)
	return err
}

// Append extends an existing known-contiguous run onto an adjacent key. It
// requires the insertion point to sit directly after the gap sentinel that
// closes a run; ErrAppendNoPredecessor is returned otherwise (no run
// precedes the key, or the key falls inside a run) rather than spinning (the source's M_RetryFind
// would retry this case forever, since no amount of retrying manufactures
// a predecessor that was never there).
func (idx *Index) Append(key, value []byte) error {
	_, err := idx.insertOrAppend(key, value, opAppend)
	return err
}

func (idx *Index) insertOrAppend(key, value []byte, kind opKind) (*node, error) {
	for {
		var preds, succs [MaxLevel]*node
		prev := idx.find(key, &preds, &succs)

		next := succs[0]
		found := next != idx.tail && !next.sentinel && idx.cmp.Compare(next.key, key) == 0

		if found {
			n, retry := idx.updateValue(next, value)
			if retry {
				continue
			}
			if kind == opInsert {
				idx.st.onInsert()
			} else {
				idx.st.onAppend()
			}
			return n, nil
		}

		atCursor := preds[0]
		// head is a permanent boundary, not a tracked gap: landing on it
		// means there is no run to extend, only a fresh one to start.
		isGapSentinel := atCursor.sentinel && atCursor != idx.head

		if kind == opAppend {
			if !isGapSentinel {
				return nil, ErrAppendNoPredecessor
			}
			n, retry := idx.appendExtend(prev, atCursor, &preds, &succs, key, value)
			if retry {
				continue
			}
			idx.st.onAppend()
			return n, nil
		}

		// Insert always starts a new, sentinel-bounded run regardless of
		// what precedes the insertion point.
		n, retry := idx.insertNewRun(&preds, &succs, key, value)
		if retry {
			continue
		}
		idx.st.onInsert()
		return n, nil
	}
}

// updateValue refreshes an existing entry's value in place. Per the
// existing-entry-authoritative decision (SPEC_FULL.md 5), both Insert and
// Append converge on this path when the key is already known: whichever
// value is freshest wins, and no sentinel bookkeeping is disturbed.
func (idx *Index) updateValue(n *node, value []byte) (*node, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.marked.Load() {
		return nil, true
	}
	old := n.valueLen()
	n.value = value
	n.dirty = true
	idx.st.onUpdate(old, n.valueLen())
	idx.rq.touch(n)
	return n, false
}

// insertNewRun links a brand-new entry and a fresh trailing sentinel to
// close the new one-entry run. Returns retry=true if validation failed and the caller
// must re-find and retry.
func (idx *Index) insertNewRun(preds, succs *[MaxLevel]*node, key, value []byte) (*node, bool) {
	height := randomHeight(idx.rnd)
	locked, ok := idx.lockPreds(preds, height)
	defer idx.unlockAll(locked)
	if !ok {
		return nil, true
	}
	if !idx.validate(preds, succs, height) {
		return nil, true
	}

	idx.raiseHeight(height)

	entry := newEntryNode(append([]byte(nil), key...), append([]byte(nil), value...), height)

	// Close the new run with a trailing sentinel (succs[0] being a
	// sentinel never happens — cmpWrapper makes Find step past sentinels
	// — so a fresh one is always needed here) before publishing entry,
	// so no reader ever observes entry fully linked without its
	// closing sentinel. Sentinels always carry height 1: they mark a
	// single point in the level-0 chain, matching cacheskiplist.h's
	// sentinel nodes, which are never promoted by RandomLevel the way
	// entry nodes are.
	sentinel := newSentinelNode(1)
	sentinel.setNext(0, succs[0])
	entry.setNext(0, sentinel)
	for i := 1; i < height; i++ {
		entry.setNext(i, succs[i])
	}
	for i := 0; i < height; i++ {
		preds[i].setNext(i, entry)
	}
	sentinel.fullyLinked.Store(true)
	entry.fullyLinked.Store(true)
	idx.st.onLink(entry)
	idx.st.onLink(sentinel)
	idx.rq.push(entry)
	return entry, false
}

// appendExtend replaces the gap sentinel immediately following prev with a
// new entry, deleting that sentinel and closing the extended run with a
// fresh trailing sentinel of its own — the new entry joins prev's run
// without ever leaving two runs separated by nothing, matching the Append
// edit: the entry is linked in place of the sentinel that preceded it, and
// that sentinel does not survive the edit.
func (idx *Index) appendExtend(prev, sentinel *node, preds, succs *[MaxLevel]*node, key, value []byte) (*node, bool) {
	height := randomHeight(idx.rnd)
	locked, ok := idx.lockPreds(preds, height)
	if ok && !containsNode(locked, prev) {
		prev.mu.Lock()
		locked = append(locked, prev)
		if prev.marked.Load() {
			ok = false
		}
	}
	defer idx.unlockAll(locked)
	if !ok {
		return nil, true
	}
	if !idx.validate(preds, succs, height) || prev.getNext(0) != sentinel {
		return nil, true
	}
	if !sentinel.marked.CompareAndSwap(false, true) {
		return nil, true
	}
	idx.raiseHeight(height)

	entry := newEntryNode(append([]byte(nil), key...), append([]byte(nil), value...), height)
	trailer := newSentinelNode(1)
	trailer.setNext(0, sentinel.getNext(0))
	entry.setNext(0, trailer)
	for i := 1; i < height; i++ {
		entry.setNext(i, preds[i].getNext(i))
	}
	prev.setNext(0, entry)
	for i := 1; i < height; i++ {
		preds[i].setNext(i, entry)
	}
	trailer.fullyLinked.Store(true)
	entry.fullyLinked.Store(true)
	idx.st.onUnlink(sentinel)
	idx.st.onLink(entry)
	idx.st.onLink(trailer)
	idx.rq.push(entry)
	return entry, false
}

// fuseSentinel removes a gap sentinel that now sits between two entries
// known (by external assertion, e.g. InsertRange) to be contiguous.
func (idx *Index) fuseSentinel(preds *[MaxLevel]*node, sentinel *node) bool {
	locked, ok := idx.lockPreds(preds, sentinel.height)
	defer idx.unlockAll(locked)
	if !ok {
		return false
	}
	for i := 0; i < sentinel.height; i++ {
		if preds[i].getNext(i) != sentinel {
			return false
		}
	}
	if !sentinel.marked.CompareAndSwap(false, true) {
		return false
	}
	for i := sentinel.height - 1; i >= 0; i-- {
		preds[i].setNext(i, sentinel.getNext(i))
	}
	idx.st.onUnlink(sentinel)
	return true
}

// lockPreds locks every distinct predecessor up to height, tracking
// already-locked nodes in a small linear-scanned slice (height is bounded
// by MaxLevel=32, so a linear scan beats any map overhead). It returns
// ok=false, with everything it locked already unlocked via the caller's
// deferred unlockAll, if any predecessor turns out to be marked for
// deletion — the caller must re-find and retry in that case.
func (idx *Index) lockPreds(preds *[MaxLevel]*node, height int) ([]*node, bool) {
	locked := make([]*node, 0, height)
	for i := 0; i < height; i++ {
		p := preds[i]
		if containsNode(locked, p) {
			continue
		}
		p.mu.Lock()
		locked = append(locked, p)
		if p.marked.Load() {
			return locked, false
		}
	}
	return locked, true
}

func (idx *Index) unlockAll(locked []*node) {
	for _, n := range locked {
		n.mu.Unlock()
	}
}

func containsNode(locked []*node, p *node) bool {
	for _, l := range locked {
		if l == p {
			return true
		}
	}
	return false
}

// validate re-checks, under lock, that every predecessor still points at
// its recorded successor and that no predecessor has been marked since
// find() ran — the optimistic-concurrency check standard to lock-coupled
// skiplists (and to M_LockedExec's validation step in the source).
func (idx *Index) validate(preds, succs *[MaxLevel]*node, height int) bool {
	for i := 0; i < height; i++ {
		if preds[i].marked.Load() {
			return false
		}
		if preds[i].getNext(i) != succs[i] {
			return false
		}
	}
	return true
}

func (idx *Index) raiseHeight(height int) {
	for {
		cur := idx.height.Load()
		if int(cur) >= height {
			return
		}
		if idx.height.CompareAndSwap(cur, int32(height)) {
			return
		}
	}
}

// InsertRange bulk-populates a positively-known-contiguous range of
// key/value pairs, sorted ascending by key. Because the caller is
// vouching for full coverage (typically the result of a backing-store
// range scan), any gap sentinel that ends up with entries from this
// batch on both sides is fused away — the one case where the cache can
// safely claim a previously-unknown gap is now fully known.
func (idx *Index) InsertRange(pairs []KV) error {
	for _, kv := range pairs {
		if err := idx.Insert(kv.Key, kv.Value); err != nil {
			return err
		}
	}
	for i := 0; i+1 < len(pairs); i++ {
		idx.tryFuseBetween(pairs[i].Key, pairs[i+1].Key)
	}
	return nil
}

// tryFuseBetween fuses the sentinel directly between two adjacent,
// newly-asserted keys, if one is present and nothing else sits between
// them.
func (idx *Index) tryFuseBetween(lowKey, highKey []byte) {
	var preds, succs [MaxLevel]*node
	idx.find(lowKey, &preds, &succs)
	low := succs[0]
	if low == idx.tail || low.sentinel {
		return
	}
	cand := low.getNext(0)
	for cand != idx.tail && cand.sentinel {
		candSucc := cand.getNext(0)
		if candSucc != idx.tail && !candSucc.sentinel && idx.cmp.Compare(candSucc.key, highKey) == 0 {
			var sPreds [MaxLevel]*node
			sPreds[0] = low
			idx.fuseSentinel(&sPreds, cand)
		}
		break
	}
}

// KV is a single key/value pair, used by InsertRange's bulk-populate API.
type KV struct {
	Key, Value []byte
}
