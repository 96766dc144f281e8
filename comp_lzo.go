package squashfs

import "github.com/woozymasta/lzo"

// LZO-compressed images are rare in practice (mksquashfs defaults to gzip or
// xz) but the format id exists, and the corpus carries a pure-Go LZO1X
// decoder, so it gets wired in rather than left to fail at mount time.
func init() {
	RegisterDecompressor(LZO, func(dst, src []byte) ([]byte, error) {
		out, err := lzo.Decompress(src, &lzo.DecompressOptions{OutLen: len(dst)})
		if err != nil {
			return nil, err
		}
		return out, nil
	})
}
