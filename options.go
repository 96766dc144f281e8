package squashfs

// Option configures a Superblock at mount time (New/Open), following the
// usual functional-options pattern.
type Option func(sb *Superblock) error

// InodeOffset shifts every public inode number reported by this mount by
// the given amount, so multiple SquashFS images can be mounted side by side
// under a single inode namespace (e.g. a FUSE union of several images).
func InodeOffset(inoOfft uint64) Option {
	return func(sb *Superblock) error {
		sb.inoOfft = inoOfft
		return nil
	}
}

// WithDecompressor overrides the codec used for a given compressor id for
// this mount only, without touching the process-wide registry. Useful for
// swapping in a cgo-backed codec, or for testing a handler in isolation.
func WithDecompressor(id SquashComp, fn DecompressFunc) Option {
	return func(sb *Superblock) error {
		if sb.override == nil {
			sb.override = make(map[SquashComp]DecompressFunc)
		}
		sb.override[id] = fn
		return nil
	}
}
