package minisql

import (
	"context"
)

type PagerFactory interface {
	ForTable([]Column) Pager
	ForIndex(kind ColumnKind, keySize uint64, unique bool) Pager
}

// TxPagerFactory resolves the transactional pager for a table or one of its
// indexes, used by TransactionManager to read original page contents before
// journaling them.
type TxPagerFactory func(ctx context.Context, table string, index string) (TxPager, error)

// DDLSaver persists CREATE/DROP TABLE and index changes accumulated on a
// transaction once it commits. *Database satisfies this itself.
type DDLSaver interface {
	SaveDDLChanges(ctx context.Context, changes DDLChanges)
}

type PageFlusher interface {
	TotalPages() uint32
	Flush(context.Context, PageIndex) error
}

type Pager interface {
	GetPage(context.Context, PageIndex) (*Page, error)
	GetHeader(context.Context) DatabaseHeader
	TotalPages() uint32
}

type PageSaver interface {
	SavePage(context.Context, PageIndex, *Page)
	SaveHeader(context.Context, DatabaseHeader)
}

type TxPager interface {
	ReadPage(context.Context, PageIndex) (*Page, error)
	ModifyPage(context.Context, PageIndex) (*Page, error)
	GetFreePage(context.Context) (*Page, error)
	AddFreePage(context.Context, PageIndex) error
	GetOverflowPage(context.Context, PageIndex) (*Page, error)
	// GetHeader/GetPage expose the untransacted base pager, used by the
	// journal phase of CommitTransaction to snapshot pre-write state.
	GetHeader(context.Context) DatabaseHeader
	GetPage(context.Context, PageIndex) (*Page, error)
}

type BTreeIndex interface {
	GetRootPageIdx() PageIndex
	Find(ctx context.Context, keyAny any) (RowID, error)
	Seek(ctx context.Context, aPage *Page, keyAny any) (IndexCursor, bool, error)
	SeekLastKey(ctx context.Context, pageIdx PageIndex) (any, error)
	Insert(ctx context.Context, key any, rowID RowID) error
	Delete(ctx context.Context, key any) error
	ScanAll(ctx context.Context, reverse bool, callback indexScanner) error
	BFS(ctx context.Context, f indexCallback) error
}
