package minisql

// DatabaseHeader occupies the first RootPageConfigSize bytes of page 0. It
// currently only tracks the free list; a rewrite must widen this once real
// page recycling lands (see FreePage).
type DatabaseHeader struct {
	FirstFreePage PageIndex // 0 if none
	FreePageCount uint32
}

func (h DatabaseHeader) Size() uint64 {
	return RootPageConfigSize
}

func (h DatabaseHeader) Marshal() ([]byte, error) {
	buf := make([]byte, h.Size())
	marshalUint32(buf, uint32(h.FirstFreePage), 0)
	marshalUint32(buf, h.FreePageCount, 4)
	return buf, nil
}

func UnmarshalDatabaseHeader(buf []byte, header *DatabaseHeader) error {
	header.FirstFreePage = PageIndex(unmarshalUint32(buf, 0))
	header.FreePageCount = unmarshalUint32(buf, 4)
	return nil
}
