package squashfs

import (
	"bytes"

	"github.com/ulikunitz/xz"
)

func init() {
	RegisterDecompressor(XZ, func(dst, src []byte) ([]byte, error) {
		r, err := xz.NewReader(bytes.NewReader(src))
		if err != nil {
			return nil, err
		}
		return drainInto(r, dst)
	})
}
