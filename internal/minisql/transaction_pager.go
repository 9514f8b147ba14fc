package minisql

import (
	"context"
	"fmt"
	"sync"
)

// TransactionalPager wraps a base Pager (table or index) with MVCC read/write
// tracking: reads are served from a transaction's write set first, then the
// base pager with the page version recorded; writes clone-on-first-modify
// into the write set and are only applied to the base pager by
// TransactionManager.CommitTransaction.
type TransactionalPager struct {
	Pager
	txManager *TransactionManager
	mu        sync.RWMutex
}

func NewTransactionalPager(pager Pager, txManager *TransactionManager) *TransactionalPager {
	return &TransactionalPager{
		Pager:     pager,
		txManager: txManager,
	}
}

func (tp *TransactionalPager) ReadPage(ctx context.Context, pageIdx PageIndex) (*Page, error) {
	tx := TxFromContext(ctx)
	if tx == nil {
		return tp.Pager.GetPage(ctx, pageIdx)
	}

	if modifiedPage, exists := tx.GetModifiedPage(pageIdx); exists {
		return modifiedPage, nil
	}

	page, err := tp.Pager.GetPage(ctx, pageIdx)
	if err != nil {
		return nil, err
	}

	tx.TrackRead(pageIdx, tp.txManager.GlobalPageVersion(ctx, pageIdx))

	return page, nil
}

func (tp *TransactionalPager) ModifyPage(ctx context.Context, pageIdx PageIndex) (*Page, error) {
	tx := TxFromContext(ctx)
	if tx == nil {
		return nil, fmt.Errorf("cannot modify page outside transaction")
	}

	if modifiedPage, exists := tx.GetModifiedPage(pageIdx); exists {
		return modifiedPage, nil
	}

	originalPage, err := tp.Pager.GetPage(ctx, pageIdx)
	if err != nil {
		return nil, err
	}

	modifiedPage := originalPage.Clone()
	tx.mu.Lock()
	tx.WriteSet[pageIdx] = modifiedPage
	tx.WriteInfoSet[pageIdx] = WriteInfo{}
	tx.mu.Unlock()

	return modifiedPage, nil
}

func (tp *TransactionalPager) readDBHeader(ctx context.Context, tx *Transaction) DatabaseHeader {
	if header, modified := tx.GetModifiedDBHeader(); modified {
		return *header
	}
	tx.TrackDBHeaderRead(tp.txManager.GlobalDBHeaderVersion(ctx))
	return tp.Pager.GetHeader(ctx)
}

func (tp *TransactionalPager) GetFreePage(ctx context.Context) (*Page, error) {
	tx := TxFromContext(ctx)
	if tx == nil {
		return nil, fmt.Errorf("cannot get free page outside transaction")
	}

	dbHeader := tp.readDBHeader(ctx, tx)

	if dbHeader.FirstFreePage == 0 {
		freePage, err := tp.ModifyPage(ctx, PageIndex(tp.Pager.TotalPages()))
		if err != nil {
			return nil, fmt.Errorf("allocate new free page: %w", err)
		}
		freePage.Clear()
		return freePage, nil
	}

	freePage, err := tp.ModifyPage(ctx, dbHeader.FirstFreePage)
	if err != nil {
		return nil, fmt.Errorf("get free page: %w", err)
	}

	dbHeader.FirstFreePage = freePage.FreePage.NextFreePage
	dbHeader.FreePageCount--
	tx.TrackDBHeaderWrite(dbHeader)

	freePage.Clear()

	return freePage, nil
}

func (p *Page) Clear() {
	p.OverflowPage = nil
	p.FreePage = nil
	p.LeafNode = nil
	p.InternalNode = nil
	p.IndexNode = nil
}

func (tp *TransactionalPager) AddFreePage(ctx context.Context, pageIdx PageIndex) error {
	tx := TxFromContext(ctx)
	if tx == nil {
		return fmt.Errorf("cannot add free page outside transaction")
	}
	if pageIdx == 0 {
		return fmt.Errorf("cannot free page 0 (header page)")
	}

	freePage, err := tp.ModifyPage(ctx, pageIdx)
	if err != nil {
		return fmt.Errorf("add free page: %w", err)
	}

	dbHeader := tp.readDBHeader(ctx, tx)

	freePage.FreePage = &FreePage{NextFreePage: dbHeader.FirstFreePage}
	freePage.LeafNode = nil
	freePage.InternalNode = nil
	freePage.IndexNode = nil
	freePage.OverflowPage = nil

	dbHeader.FirstFreePage = pageIdx
	dbHeader.FreePageCount++
	tx.TrackDBHeaderWrite(dbHeader)

	return nil
}

func (tp *TransactionalPager) GetOverflowPage(ctx context.Context, pageIdx PageIndex) (*Page, error) {
	tx := TxFromContext(ctx)
	if tx == nil {
		return nil, fmt.Errorf("cannot get overflow page outside transaction")
	}
	return tp.ModifyPage(ctx, pageIdx)
}
