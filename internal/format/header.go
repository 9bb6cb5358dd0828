package format

// HeapHeader is the decoded form of the header preceding every heap block.
type HeapHeader struct {
	Magic  uint32
	Adjust uint32 // bytes between the raw buffer start and the aligned address
	Size   uint64 // length of the raw buffer the block was carved from
}

// PutHeapHeader writes h into the first HeapHeaderSize bytes of b.
func PutHeapHeader(b []byte, h HeapHeader) error {
	if len(b) < HeapHeaderSize {
		return ErrTruncated
	}
	PutU32(b, HeapMagicOffset, h.Magic)
	PutU32(b, HeapAdjustOffset, h.Adjust)
	PutU64(b, HeapSizeOffset, h.Size)
	return nil
}

// ReadHeapHeader decodes the header in b and checks its magic.
func ReadHeapHeader(b []byte) (HeapHeader, error) {
	if len(b) < HeapHeaderSize {
		return HeapHeader{}, ErrTruncated
	}
	h := HeapHeader{
		Magic:  ReadU32(b, HeapMagicOffset),
		Adjust: ReadU32(b, HeapAdjustOffset),
		Size:   ReadU64(b, HeapSizeOffset),
	}
	if h.Magic != HeapMagic {
		return h, ErrBadMagic
	}
	return h, nil
}
