package squashfs

import (
	"bytes"

	"github.com/ulikunitz/xz/lzma"
)

// SquashFS's legacy LZMA compressor (id 2, distinct from the later XZ-backed
// id 4) stores a raw LZMA stream. ulikunitz/xz ships the same codec as a
// sub-package, so no second LZMA dependency is needed.
func init() {
	RegisterDecompressor(LZMA, func(dst, src []byte) ([]byte, error) {
		r, err := lzma.NewReader(bytes.NewReader(src))
		if err != nil {
			return nil, err
		}
		return drainInto(r, dst)
	})
}
