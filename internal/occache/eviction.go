package occache

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// EvictBatchSize bounds how many cold entries a single eviction cycle
// removes before flushing its write-back batch, matching LRUEvict's
// 1024-victim cap in follyskiplist.h.
const EvictBatchSize = 1024

// ShouldEvict mirrors FollySkipList::ShouldEvict: trip the eviction cycle
// once length * 1000 exceeds the configured byte budget, the same scaled
// comparison used to avoid a floating-point ratio on every insert.
func (idx *Index) ShouldEvict(maxSize uint64) bool {
	return idx.st.length.Load()*1000 > maxSize
}

// evictVictim is a single node pulled off the recency queue along with
// enough context to unlink it and, if dirty, write it back.
type evictVictim struct {
	node        *node
	predecessor *node
	successor   *node
}

// evictCycle runs one eviction pass: pops up to EvictBatchSize cold
// entries, unlinks each (repairing sentinel adjacency as it goes), and
// flushes whatever came back dirty to store in one write-back batch. A
// batch failure falls back to per-key writes so a single bad key doesn't
// lose every victim in the batch; per-key failures are aggregated with
// multierr and logged, never panicked — eviction must never block a
// cache hit on the write-back path succeeding.
func (idx *Index) evictCycle(ctx context.Context, store Store, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	victims := make([]evictVictim, 0, EvictBatchSize)
	for len(victims) < EvictBatchSize {
		v, ok := idx.evictOne()
		if !ok {
			break
		}
		victims = append(victims, v)
	}
	if len(victims) == 0 {
		return nil
	}

	var batch Batch
	dirtyIdx := make([]int, 0, len(victims))
	for i, v := range victims {
		if v.node.dirty {
			batch.Put(v.node.key, v.node.value)
			dirtyIdx = append(dirtyIdx, i)
		}
	}
	idx.st.onEvict(uint64(len(victims)))
	if batch.Len() == 0 {
		return nil
	}

	if store == nil {
		return nil
	}
	if err := store.WriteBatch(ctx, batch); err != nil {
		logger.Warn("eviction write-back batch failed, falling back to per-key writes",
			zap.Error(err), zap.Int("batchSize", batch.Len()))
		var errs error
		for _, i := range dirtyIdx {
			v := victims[i]
			var single Batch
			single.Put(v.node.key, v.node.value)
			if err := store.WriteBatch(ctx, single); err != nil {
				errs = multierr.Append(errs, err)
				logger.Error("eviction write-back failed for key",
					zap.ByteString("key", v.node.key), zap.Error(err))
			}
		}
		if errs != nil {
			return multierr.Append(ErrWriteBackFailed, errs)
		}
	}
	return nil
}

// evictOne pops the coldest entry off the recency queue and unlinks it
// from the skiplist, repairing sentinel adjacency at the seam it leaves
// behind. Returns ok=false once the queue is empty.
func (idx *Index) evictOne() (evictVictim, bool) {
	n := idx.rq.popBack(nil)
	if n == nil {
		return evictVictim{}, false
	}

	var preds, succs [MaxLevel]*node
	for {
		idx.find(n.key, &preds, &succs)
		if succs[0] != n {
			// Already unlinked by a concurrent operation (a fuse or
			// another eviction cycle beat us to it); nothing left to
			// evict here, and since n is no longer in the recency queue
			// either, just skip it rather than report a phantom victim.
			return evictVictim{}, false
		}
		locked, ok := idx.lockPreds(&preds, n.height)
		if !ok {
			idx.unlockAll(locked)
			continue
		}
		if !idx.validate(&preds, &succs, n.height) {
			idx.unlockAll(locked)
			continue
		}
		if !n.marked.CompareAndSwap(false, true) {
			idx.unlockAll(locked)
			return evictVictim{}, false
		}
		before := preds[0]
		after := n.getNext(0)
		for i := n.height - 1; i >= 0; i-- {
			preds[i].setNext(i, n.getNext(i))
		}
		idx.unlockAll(locked)
		idx.st.onUnlink(n)
		idx.repairGapAdjacency(before, after)
		return evictVictim{node: n, predecessor: before, successor: after}, true
	}
}

// repairGapAdjacency restores the "no adjacent sentinels, no unmarked
// gaps" invariants after evictOne removes an entry:
//   - both neighbors already sentinels: the gap merely grew, so the
//     redundant trailing sentinel is fused away (two sentinels never need
//     to stand side by side).
//   - neither neighbor a sentinel: the evicted key's knowledge is now
//     genuinely lost, so a fresh sentinel is inserted to mark the new gap
//     rather than silently claiming the hole is still contiguous.
//   - exactly one neighbor a sentinel: the existing sentinel already
//     covers the new gap, nothing to do.
func (idx *Index) repairGapAdjacency(before, after *node) {
	switch {
	case before.sentinel && after.sentinel:
		idx.mergeAdjacentSentinels(before, after)
	case !before.sentinel && !after.sentinel:
		idx.insertGapSentinel(before, after)
	}
}

func (idx *Index) mergeAdjacentSentinels(before, after *node) {
	before.mu.Lock()
	defer before.mu.Unlock()
	if before.marked.Load() || before.getNext(0) != after {
		return
	}
	if !after.marked.CompareAndSwap(false, true) {
		return
	}
	before.setNext(0, after.getNext(0))
	idx.st.onUnlink(after)
}

func (idx *Index) insertGapSentinel(before, after *node) {
	before.mu.Lock()
	defer before.mu.Unlock()
	if before.marked.Load() || before.getNext(0) != after {
		return
	}
	sentinel := newSentinelNode(1)
	sentinel.setNext(0, after)
	sentinel.fullyLinked.Store(true)
	before.setNext(0, sentinel)
	idx.st.onLink(sentinel)
}
