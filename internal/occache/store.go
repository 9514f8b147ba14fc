package occache

import "context"

// Store is the backing persistent key-value store occache writes evicted,
// dirty entries back to. occache depends on this abstraction rather than
// reproducing a storage engine itself; memstore is the concrete
// implementation shipped alongside it and exercised by its tests.
type Store interface {
	// WriteBatch durably applies every put/delete in b. Implementations
	// are free to batch these as a single atomic write or apply them one
	// at a time (memstore does the latter). Errors are always returned,
	// never panicked.
	WriteBatch(ctx context.Context, b Batch) error

	// Get reads a single key directly from the backing store, bypassing
	// the cache entirely. Used by the cache's own miss path.
	Get(ctx context.Context, key []byte) (value []byte, found bool, err error)
}

// BatchOp is a single mutation queued in a Batch.
type BatchOp struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Batch accumulates puts and deletes for a single WriteBatch call,
// grounded on FollySkipList's LRUEvict building up a rocksdb::WriteBatch
// of dirty victims before a single disableWAL write.
type Batch struct {
	Ops []BatchOp
}

func (b *Batch) Put(key, value []byte) {
	b.Ops = append(b.Ops, BatchOp{Key: key, Value: value})
}

func (b *Batch) Delete(key []byte) {
	b.Ops = append(b.Ops, BatchOp{Key: key, Delete: true})
}

func (b *Batch) Len() int { return len(b.Ops) }
