package squashfs

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"reflect"
	"sync"
)

// Superblock holds the mount-time parameters decoded from a SquashFS image's
// 96-byte header, immutable for the life of the mount, plus the bookkeeping
// the fs.FS facade needs to resolve small sequential inode numbers back into
// inodeRefs.
//
// https://dr-emann.github.io/squashfs/
type Superblock struct {
	fs    io.ReaderAt
	order binary.ByteOrder

	Magic             uint32
	InodeCnt          uint32
	ModTime           int32
	BlockSize         uint32
	FragCount         uint32
	Comp              SquashComp
	BlockLog          uint16
	Flags             SquashFlags
	IdCount           uint16
	VMajor            uint16
	VMinor            uint16
	RootInode         uint64
	BytesUsed         uint64
	IdTableStart      uint64
	XattrIdTableStart uint64
	InodeTableStart   uint64
	DirTableStart     uint64
	FragTableStart    uint64
	ExportTableStart  uint64

	inoOfft  uint64
	override map[SquashComp]DecompressFunc

	rootIno  *Inode
	rootInoN uint64

	idTable []uint32

	inoIdxL sync.RWMutex
	inoIdx  map[uint32]inodeRef

	closer io.Closer
}

// idsPerBlock is how many 4-byte ids fit in one decompressed metadata block.
const idsPerBlock = metadataBlockCap / 4

// Open opens path as a SquashFS image and mounts it. The file is kept open
// for the lifetime of the returned Superblock; call Close when done.
func Open(path string, opts ...Option) (*Superblock, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	sb, err := New(f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	sb.closer = f
	return sb, nil
}

// Close releases any resource opened on behalf of this mount via Open. A
// Superblock built from New directly with a caller-owned io.ReaderAt is a
// no-op to close: the backing store is borrowed by the mount, not owned.
func (sb *Superblock) Close() error {
	if sb.closer != nil {
		return sb.closer.Close()
	}
	return nil
}

// New mounts a SquashFS image already available as a positional reader.
// It parses the superblock, validates it, and resolves the root inode so
// RootInodeID and the fs.FS facade can use it immediately.
func New(fs io.ReaderAt, opts ...Option) (*Superblock, error) {
	sb := &Superblock{fs: fs, inoIdx: make(map[uint32]inodeRef)}

	for _, o := range opts {
		if err := o(sb); err != nil {
			return nil, err
		}
	}

	head := make([]byte, sb.binarySize())

	log.Printf("squashfs: reading %d-byte superblock", len(head))
	if _, err := fs.ReadAt(head, 0); err != nil {
		return nil, err
	}
	if err := sb.UnmarshalBinary(head); err != nil {
		return nil, err
	}
	if err := sb.validate(); err != nil {
		return nil, err
	}

	if err := sb.loadIDTable(); err != nil {
		return nil, fmt.Errorf("squashfs: failed to read id table: %w", err)
	}

	root, err := sb.GetInodeRef(inodeRef(sb.RootInode))
	if err != nil {
		return nil, fmt.Errorf("squashfs: failed to read root inode: %w", err)
	}
	sb.rootIno = root
	sb.rootInoN = uint64(root.Ino)
	sb.inoIdx[root.Ino] = inodeRef(sb.RootInode)

	return sb, nil
}

// loadIDTable reads the uid/gid resolution table: an array of IdCount
// 32-bit ids, stored in metadata blocks of up to idsPerBlock entries each,
// themselves located through an index of 8-byte block pointers at
// IdTableStart. UidIdx/GidIdx in a decoded inode index into the result.
func (sb *Superblock) loadIDTable() error {
	n := int(sb.IdCount)
	if n == 0 {
		return nil
	}

	blocks := (n + idsPerBlock - 1) / idsPerBlock
	index := make([]byte, blocks*8)
	if err := readFullAt(sb.fs, index, int64(sb.IdTableStart)); err != nil {
		return err
	}

	ids := make([]uint32, 0, n)
	for b := 0; b < blocks; b++ {
		cur := blockRun{block: int64(sb.order.Uint64(index[b*8 : b*8+8]))}

		count := n - len(ids)
		if count > idsPerBlock {
			count = idsPerBlock
		}
		buf := make([]byte, count*4)
		if err := cur.get(sb, buf, len(buf)); err != nil {
			return err
		}
		for i := 0; i < count; i++ {
			ids = append(ids, sb.order.Uint32(buf[i*4:i*4+4]))
		}
	}

	sb.idTable = ids
	return nil
}

// ResolveID maps a UidIdx/GidIdx value from a decoded inode to its actual
// on-disk uid/gid. index values come straight from the id table idxes
// stored in each inode; an out-of-range index returns 0.
func (sb *Superblock) ResolveID(index uint16) uint32 {
	if int(index) >= len(sb.idTable) {
		return 0
	}
	return sb.idTable[index]
}

func (s *Superblock) UnmarshalBinary(data []byte) error {
	v := reflect.ValueOf(s).Elem()
	c := v.NumField()
	r := bytes.NewReader(data)

	switch string(data[:4]) {
	case "hsqs":
		s.order = binary.LittleEndian
	case "sqsh":
		s.order = binary.BigEndian
	default:
		return ErrInvalidFile
	}

	var err error
	for i := 0; i < c; i++ {
		name := v.Type().Field(i).Name[0]
		if name < 'A' || name > 'Z' {
			continue
		}
		err = binary.Read(r, s.order, v.Field(i).Addr().Interface())
		if err != nil {
			return err
		}
	}

	return nil
}

// validate rejects images this decoder cannot speak for: wrong version, or
// a BlockSize/BlockLog pair that don't agree (both describe the same value,
// redundantly, and a mismatch means the header is corrupt).
func (sb *Superblock) validate() error {
	if sb.VMajor != 4 || sb.VMinor != 0 {
		return ErrInvalidVersion
	}
	if sb.BlockSize == 0 || sb.BlockSize != 1<<sb.BlockLog {
		return fmt.Errorf("%w: block size %d does not match block log %d", ErrInvalidSuper, sb.BlockSize, sb.BlockLog)
	}
	if sb.InodeCnt == 0 {
		return ErrInvalidSuper
	}
	return nil
}

func (s *Superblock) binarySize() int {
	v := reflect.ValueOf(s).Elem()
	c := v.NumField()
	sz := uintptr(0)

	for i := 0; i < c; i++ {
		name := v.Type().Field(i).Name[0]
		if name < 'A' || name > 'Z' {
			continue
		}
		sz += v.Field(i).Type().Size()
	}
	return int(sz)
}

// RootInodeID returns the 64-bit inode id of the filesystem's root directory.
func (sb *Superblock) RootInodeID() uint64 {
	return sb.RootInode
}

var _ fs.FS = (*Superblock)(nil)
var _ fs.StatFS = (*Superblock)(nil)

// Open implements fs.FS: it resolves name against the root inode through
// LookupRelativeInodePath and wraps whatever it finds in the File/FileDir
// facade from file.go, so a mounted image can be driven with fs.ReadDir,
// fs.ReadFile and fs.WalkDir like any other fs.FS.
func (sb *Superblock) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	ino := sb.rootIno
	if name != "." {
		var err error
		ino, err = sb.rootIno.LookupRelativeInodePath(context.Background(), name)
		if err != nil {
			return nil, &fs.PathError{Op: "open", Path: name, Err: err}
		}
	}
	return ino.OpenFile(name), nil
}

// Stat implements fs.StatFS, sparing callers an Open+Close round trip just
// to inspect a file's metadata.
func (sb *Superblock) Stat(name string) (fs.FileInfo, error) {
	f, err := sb.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Stat()
}

// decompress resolves sb.Comp against any per-mount override installed via
// the WithDecompressor option, falling back to the global registry.
func (sb *Superblock) decompress(dst, src []byte) ([]byte, error) {
	if sb.override != nil {
		if fn, ok := sb.override[sb.Comp]; ok {
			out, err := fn(dst, src)
			if err != nil {
				return nil, &DecodeError{Cause: ErrDecompress, Detail: err.Error()}
			}
			if len(out) > cap(dst) {
				return nil, &DecodeError{Cause: ErrBufferTooSmall, Detail: sb.Comp.String()}
			}
			return out, nil
		}
	}
	return sb.Comp.decompress(dst, src)
}
