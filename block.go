package squashfs

import "io"

// metadataBlockCap is the decompressed ceiling for a single metadata block.
const metadataBlockCap = 8192

// readFullAt reads exactly len(buf) bytes at pos or fails. io.ReaderAt.ReadAt
// already promises this per its own doc comment, so this just turns a short
// read into our coarse error type.
func readFullAt(r io.ReaderAt, buf []byte, pos int64) error {
	n, err := r.ReadAt(buf, pos)
	if n == len(buf) {
		return nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return &DecodeError{Cause: ErrShortRead, Detail: err.Error()}
}

// metadataBlock is one decoded unit of the inode/directory/fragment stream:
// its decompressed payload, plus the number of on-disk bytes (2-byte header
// + payload) it occupied, used to advance a blockRun past it.
type metadataBlock struct {
	data      []byte
	footprint int64
}

// parseMetadataHeader splits a 16-bit metadata block header into its
// compressed flag and payload size.
//
// Bit 15 is the "uncompressed" flag. The masked 15-bit size is used as-is
// except in one case: if bit 15 is clear (the block would naively be
// compressed) and the masked size is zero, there is no such thing as a
// zero-length compressed block, so the bit pattern is reinterpreted as a
// full 0x8000-byte raw block instead. A masked-zero size with bit 15 set is
// not ambiguous — it is a genuine (if pathological) empty raw block — and is
// left alone.
func parseMetadataHeader(hdr uint16) (compressed bool, size int) {
	uncompressed := hdr&0x8000 != 0
	masked := int(hdr &^ 0x8000)
	if !uncompressed && masked == 0 {
		return false, 0x8000
	}
	return !uncompressed, masked
}

// parseDataHeader splits a 32-bit data block header: bit 24 is the
// uncompressed flag, the low 24 bits are the payload size. No zero-size
// collision is defined for data blocks.
func parseDataHeader(hdr uint32) (compressed bool, size int) {
	const compressedBit = 1 << 24
	uncompressed := hdr&compressedBit != 0
	return !uncompressed, int(hdr & (compressedBit - 1))
}

// readMetadataBlock reads the 2-byte header at pos, then the payload,
// decompressing through the registry if needed, bounded by metadataBlockCap
// decompressed bytes.
func readMetadataBlock(sb *Superblock, pos int64) (*metadataBlock, error) {
	var raw [2]byte
	if err := readFullAt(sb.fs, raw[:], pos); err != nil {
		return nil, err
	}
	compressed, size := parseMetadataHeader(sb.order.Uint16(raw[:]))

	payload := make([]byte, size)
	if err := readFullAt(sb.fs, payload, pos+2); err != nil {
		return nil, err
	}

	footprint := int64(2 + size)

	if !compressed {
		if len(payload) > metadataBlockCap {
			return nil, &DecodeError{Cause: ErrBufferTooSmall}
		}
		return &metadataBlock{data: payload, footprint: footprint}, nil
	}

	dst := make([]byte, metadataBlockCap)
	out, err := sb.decompress(dst, payload)
	if err != nil {
		return nil, err
	}
	return &metadataBlock{data: out, footprint: footprint}, nil
}

// readDataBlock is readMetadataBlock's counterpart for file data: same shape
// but with the 32-bit header and a capacity ceiling of the superblock's block
// size rather than a fixed 8192.
func readDataBlock(sb *Superblock, pos int64, hdr uint32) ([]byte, error) {
	compressed, size := parseDataHeader(hdr)

	payload := make([]byte, size)
	if err := readFullAt(sb.fs, payload, pos); err != nil {
		return nil, err
	}

	if !compressed {
		if len(payload) > int(sb.BlockSize) {
			return nil, &DecodeError{Cause: ErrBufferTooSmall}
		}
		return payload, nil
	}

	dst := make([]byte, sb.BlockSize)
	return sb.decompress(dst, payload)
}

// blockRun is a cursor into a metadata stream: an absolute byte offset of a
// metadata block header, paired with a byte index into that block's
// decompressed payload.
type blockRun struct {
	block  int64
	offset int
}

// get copies exactly size bytes into dst (or discards them if dst is nil),
// drawing from the metadata stream starting at the cursor's position, and
// advances the cursor past what it consumed. It is the sole operation
// MetadataCursor exposes.
func (c *blockRun) get(sb *Superblock, dst []byte, size int) error {
	for size > 0 {
		blk, err := readMetadataBlock(sb, c.block)
		if err != nil {
			return err
		}

		take := len(blk.data) - c.offset
		if take > size {
			take = size
		}
		if take < 0 {
			return &DecodeError{Cause: ErrMalformedHeader, Detail: "cursor offset past block end"}
		}

		if dst != nil {
			copy(dst, blk.data[c.offset:c.offset+take])
			dst = dst[take:]
		}
		size -= take
		c.offset += take

		if c.offset == len(blk.data) {
			c.block += blk.footprint
			c.offset = 0
		}
	}
	return nil
}
