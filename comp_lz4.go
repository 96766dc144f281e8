package squashfs

import "github.com/pierrec/lz4/v4"

// SquashFS's LZ4 blocks are raw (frameless) LZ4, matching lz4.UncompressBlock
// rather than the frame-oriented lz4.Reader the same package also exposes.
func init() {
	RegisterDecompressor(LZ4, func(dst, src []byte) ([]byte, error) {
		n, err := lz4.UncompressBlock(src, dst)
		if err != nil {
			return nil, err
		}
		return dst[:n], nil
	})
}
