package squashfs

import (
	"fmt"
	"io"
)

// SquashComp identifies the compression algorithm a superblock was built with.
type SquashComp uint16

const (
	GZip SquashComp = 1
	LZMA SquashComp = 2
	LZO  SquashComp = 3
	XZ   SquashComp = 4
	LZ4  SquashComp = 5
	ZSTD SquashComp = 6
)

func (s SquashComp) String() string {
	switch s {
	case GZip:
		return "GZip"
	case LZMA:
		return "LZMA"
	case LZO:
		return "LZO"
	case XZ:
		return "XZ"
	case LZ4:
		return "LZ4"
	case ZSTD:
		return "ZSTD"
	}
	return fmt.Sprintf("SquashComp(%d)", s)
}

// DecompressFunc decodes src into a buffer bounded by dst's capacity (8192 for
// metadata blocks, the superblock's block size for data blocks). It returns
// the produced slice, which must not exceed that capacity.
type DecompressFunc func(dst, src []byte) ([]byte, error)

var decompressors = map[SquashComp]DecompressFunc{}

// RegisterDecompressor plugs a decode function in for a given algorithm id.
// Per-codec files call this from an init() func, one registration per
// supported compressor.
func RegisterDecompressor(id SquashComp, fn DecompressFunc) {
	decompressors[id] = fn
}

// decompress resolves s against the registry and invokes the matching codec.
// An id with no registered codec reaching this call is a mount-time
// misconfiguration; we still return it as a coarse decode error rather than
// panicking.
func (s SquashComp) decompress(dst, src []byte) ([]byte, error) {
	fn, ok := decompressors[s]
	if !ok {
		return nil, &DecodeError{Cause: ErrUnknownCompressor, Detail: s.String()}
	}
	out, err := fn(dst, src)
	if err != nil {
		return nil, &DecodeError{Cause: ErrDecompress, Detail: err.Error()}
	}
	if len(out) > cap(dst) {
		return nil, &DecodeError{Cause: ErrBufferTooSmall, Detail: s.String()}
	}
	return out, nil
}

// drainInto is shared by the stream-based codec wrappers (gzip, xz, lzma):
// it reads r to completion into dst's capacity and reports an error if more
// data remained than dst could hold, rather than silently truncating it.
func drainInto(r io.Reader, dst []byte) ([]byte, error) {
	n, err := io.ReadFull(r, dst)
	switch err {
	case nil:
		// dst filled exactly or the stream had more; check for leftover bytes.
		var probe [1]byte
		if m, _ := r.Read(probe[:]); m > 0 {
			return nil, fmt.Errorf("decompressed output exceeds %d-byte capacity", len(dst))
		}
		return dst[:n], nil
	case io.EOF, io.ErrUnexpectedEOF:
		return dst[:n], nil
	default:
		return nil, err
	}
}
