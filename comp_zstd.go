package squashfs

import "github.com/klauspost/compress/zstd"

// zstd.Decoder is safe for concurrent use, so one shared instance serves
// every block instead of spinning one up per call.
var zstdDecoder *zstd.Decoder

func init() {
	d, err := zstd.NewReader(nil)
	if err != nil {
		panic(err)
	}
	zstdDecoder = d

	RegisterDecompressor(ZSTD, func(dst, src []byte) ([]byte, error) {
		return zstdDecoder.DecodeAll(src, dst[:0])
	})
}
