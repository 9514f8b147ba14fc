package occache

// Iterator walks the known-entry nodes of an Index in key order, skipping
// sentinels transparently — callers never see a gap marker, only the
// entries on either side of one. Grounded on FollySkipList's Iterator in
// follyskiplist.h (Seek/Next/Valid/Key/Value).
type Iterator struct {
	idx *Index
	cur *node
}

// NewIterator returns a fresh Iterator positioned before the first entry.
func (idx *Index) NewIterator() *Iterator {
	return &Iterator{idx: idx}
}

// Valid reports whether the iterator is positioned at a real entry.
func (it *Iterator) Valid() bool {
	return it.cur != nil && !it.cur.sentinel && it.cur != it.idx.tail
}

// Key returns the current entry's key. Only valid when Valid() is true.
func (it *Iterator) Key() []byte {
	return it.cur.key
}

// Value returns the current entry's value. Only valid when Valid() is true.
func (it *Iterator) Value() []byte {
	it.cur.mu.Lock()
	defer it.cur.mu.Unlock()
	return it.cur.value
}

// Seek positions the iterator at the first known entry with key >= key.
// If the seek lands in an unknown gap, the iterator becomes invalid
// rather than silently reporting the wrong entry.
func (it *Iterator) Seek(key []byte) {
	result := it.idx.Seek(key)
	if result == nil || result.sentinel {
		it.cur = nil
		return
	}
	it.cur = result
}

// SeekToFirst positions the iterator at the first known entry, skipping
// any leading sentinel.
func (it *Iterator) SeekToFirst() {
	x := it.idx.head.getNext(0)
	for x != it.idx.tail && x.sentinel {
		x = x.getNext(0)
	}
	if x == it.idx.tail {
		it.cur = nil
		return
	}
	it.cur = x
}

// SeekToLast positions the iterator at the last known entry by walking
// the level-0 chain to its end. Grounded on the same style as
// SeekToFirst; occache's skiplist has no backward pointers (the source's
// range variant does, but the cache variant this is grounded on does
// not), so this is a forward scan.
func (it *Iterator) SeekToLast() {
	var last *node
	x := it.idx.head.getNext(0)
	for x != it.idx.tail {
		if !x.sentinel {
			last = x
		}
		x = x.getNext(0)
	}
	it.cur = last
}

// Next advances to the next known entry, skipping any sentinel in between.
func (it *Iterator) Next() {
	if it.cur == nil {
		return
	}
	x := it.cur.getNext(0)
	for x != it.idx.tail && x.sentinel {
		x = x.getNext(0)
	}
	if x == it.idx.tail {
		it.cur = nil
		return
	}
	it.cur = x
	it.idx.st.onFindIter()
	it.idx.rq.touch(x)
}
