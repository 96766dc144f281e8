package squashfs

import (
	"bytes"

	"github.com/klauspost/compress/zlib"
)

// SquashFS's "gzip" compressor is a raw zlib (RFC 1950) stream, not a gzip
// (RFC 1952) one. klauspost/compress's zlib package is a drop-in, faster
// replacement for the standard library's, which is why the rest of the
// retrieved corpus reaches for it even for plain zlib streams.
func init() {
	RegisterDecompressor(GZip, func(dst, src []byte) ([]byte, error) {
		r, err := zlib.NewReader(bytes.NewReader(src))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return drainInto(r, dst)
	})
}
