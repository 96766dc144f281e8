package squashfs

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// fakeReader is a minimal io.ReaderAt backed by an in-memory byte slice,
// used to drive blockRun/readMetadataBlock without a real SquashFS image.
type fakeReader struct {
	buf []byte
}

func (f *fakeReader) ReadAt(p []byte, off int64) (int, error) {
	n := copy(p, f.buf[off:])
	return n, nil
}

func newFakeSB(buf []byte) *Superblock {
	return &Superblock{fs: &fakeReader{buf: buf}, order: binary.LittleEndian, BlockSize: 131072}
}

func TestParseMetadataHeaderBoundaryScenarios(t *testing.T) {
	cases := []struct {
		hdr        uint16
		compressed bool
		size       int
	}{
		{0x0000, false, 0x8000},
		{0x8000, false, 0},
		{0x4000, true, 0x4000},
	}

	for _, c := range cases {
		compressed, size := parseMetadataHeader(c.hdr)
		if compressed != c.compressed || size != c.size {
			t.Errorf("parseMetadataHeader(0x%04x) = (%v, 0x%x), want (%v, 0x%x)", c.hdr, compressed, size, c.compressed, c.size)
		}
	}
}

func TestParseDataHeader(t *testing.T) {
	compressed, size := parseDataHeader(0x01000064)
	if compressed || size != 0x64 {
		t.Errorf("parseDataHeader uncompressed: got (%v, 0x%x)", compressed, size)
	}

	compressed, size = parseDataHeader(0x00000064)
	if !compressed || size != 0x64 {
		t.Errorf("parseDataHeader compressed: got (%v, 0x%x)", compressed, size)
	}
}

// buildRawMetadataStream lays out a sequence of uncompressed metadata blocks
// back to back, each preceded by its 2-byte raw-payload header.
func buildRawMetadataStream(payloads ...[]byte) []byte {
	var buf bytes.Buffer
	for _, p := range payloads {
		var hdr [2]byte
		binary.LittleEndian.PutUint16(hdr[:], uint16(len(p))|0x8000)
		buf.Write(hdr[:])
		buf.Write(p)
	}
	return buf.Bytes()
}

func TestCursorAdvancesAcrossBlockBoundary(t *testing.T) {
	p1 := bytes.Repeat([]byte{0xAA}, 100)
	p2 := bytes.Repeat([]byte{0xBB}, 100)
	p3 := bytes.Repeat([]byte{0xCC}, 100)
	stream := buildRawMetadataStream(p1, p2, p3)
	sb := newFakeSB(stream)

	cur := blockRun{block: 0, offset: 0}
	dst := make([]byte, 250)
	if err := cur.get(sb, dst, len(dst)); err != nil {
		t.Fatalf("get: %v", err)
	}

	want := append(append(append([]byte{}, p1...), p2...), p3[:50]...)
	if !bytes.Equal(dst, want) {
		t.Errorf("unexpected payload content")
	}

	wantBlock := int64(2+len(p1)) + int64(2+len(p2))
	if cur.block != wantBlock || cur.offset != 50 {
		t.Errorf("cursor after get = (block=%d, offset=%d), want (block=%d, offset=50)", cur.block, cur.offset, wantBlock)
	}
}

func TestCursorExactBoundaryResetsOffset(t *testing.T) {
	p1 := bytes.Repeat([]byte{0x11}, 40)
	p2 := bytes.Repeat([]byte{0x22}, 40)
	stream := buildRawMetadataStream(p1, p2)
	sb := newFakeSB(stream)

	cur := blockRun{block: 0, offset: 0}
	dst := make([]byte, 40)
	if err := cur.get(sb, dst, len(dst)); err != nil {
		t.Fatalf("get: %v", err)
	}
	if cur.offset != 0 {
		t.Errorf("offset after exact block consumption = %d, want 0", cur.offset)
	}
	if cur.block != int64(2+len(p1)) {
		t.Errorf("block after exact block consumption = %d, want %d", cur.block, 2+len(p1))
	}
}

func TestReadMetadataBlockRejectsOverCapacityDecompression(t *testing.T) {
	sb := newFakeSB(nil)
	RegisterDecompressor(SquashComp(0xfffe), func(dst, src []byte) ([]byte, error) {
		return make([]byte, len(dst)+1), nil
	})
	sb.Comp = SquashComp(0xfffe)

	var hdr [2]byte
	binary.LittleEndian.PutUint16(hdr[:], 10) // compressed, 10-byte on-disk payload
	stream := append(hdr[:], make([]byte, 10)...)
	sb.fs = &fakeReader{buf: stream}

	if _, err := readMetadataBlock(sb, 0); err == nil {
		t.Fatal("expected error when decompressor overflows destination capacity")
	}
}
