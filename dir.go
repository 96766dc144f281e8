package squashfs

import (
	"io"
	"io/fs"
)

// dirReader provides sequential access to the entries of a SquashFS
// directory: a stream of fixed-size directory headers, each followed by a
// run of variable-length entries, read through the same MetadataCursor
// (blockRun) primitive the inode decoder uses.
type dirReader struct {
	sb  *Superblock
	cur blockRun
	end int64 // cumulative payload bytes still left to read, signed so EOF detection is exact

	count, startBlock uint32
	inodeNum          int32
}

// direntry implements fs.DirEntry for a single directory entry.
type direntry struct {
	name string
	typ  Type
	inoR inodeRef
	sb   *Superblock
}

// DirIndexEntry is one entry of an extended directory's on-disk index,
// used to seek partway into a large directory's entry stream instead of
// scanning it from the start.
type DirIndexEntry struct {
	Index uint32
	Start uint32
	Name  string
}

// dirReader opens a stream over i's directory entries. When seek is
// non-nil, the stream starts at the index hint instead of i's own
// (StartBlockDir, Offset) pair, matching the role of an extended
// directory's on-disk index table.
func (sb *Superblock) dirReader(i *Inode, seek *DirIndexEntry) (*dirReader, error) {
	if seek != nil {
		return &dirReader{
			sb:  sb,
			cur: blockRun{block: int64(sb.DirTableStart) + int64(seek.Start), offset: (int(i.Offset) + int(seek.Index)) & 0x1fff},
			end: int64(i.Size) - int64(seek.Index),
		}, nil
	}

	return &dirReader{
		sb:  sb,
		cur: blockRun{block: int64(sb.DirTableStart) + int64(i.StartBlockDir), offset: int(i.Offset)},
		end: int64(i.Size),
	}, nil
}

func (dr *dirReader) read(dst []byte) error {
	if int64(len(dst)) > dr.end {
		return io.EOF
	}
	if err := dr.cur.get(dr.sb, dst, len(dst)); err != nil {
		return err
	}
	dr.end -= int64(len(dst))
	return nil
}

func (dr *dirReader) next() (string, inodeRef, error) {
	name, _, inoR, err := dr.nextfull()
	return name, inoR, err
}

// nextfull decodes one directory entry: a header of {count, start_block,
// inode_number} followed by count+1 entries of {offset, inode_number delta,
// type, name_size, name}.
func (dr *dirReader) nextfull() (string, Type, inodeRef, error) {
	if dr.end <= 3 {
		return "", 0, 0, io.EOF
	}

	if dr.count == 0 {
		if err := dr.readHeader(); err != nil {
			return "", 0, 0, err
		}
	}

	var head [8]byte
	if err := dr.read(head[:]); err != nil {
		return "", 0, 0, err
	}
	offset := dr.sb.order.Uint16(head[0:2])
	typ := Type(dr.sb.order.Uint16(head[4:6]))
	siz := dr.sb.order.Uint16(head[6:8])

	name := make([]byte, int(siz)+1)
	if err := dr.read(name); err != nil {
		return "", 0, 0, err
	}

	dr.count--

	inoRef := inodeRef((uint64(dr.startBlock) << 16) | uint64(offset))
	return string(name), typ, inoRef, nil
}

func (dr *dirReader) readHeader() error {
	var hdr [12]byte
	if err := dr.read(hdr[:]); err != nil {
		return err
	}
	dr.count = dr.sb.order.Uint32(hdr[0:4])
	dr.startBlock = dr.sb.order.Uint32(hdr[4:8])
	dr.inodeNum = int32(dr.sb.order.Uint32(hdr[8:12]))
	dr.count++
	return nil
}

func (dr *dirReader) ReadDir(n int) ([]fs.DirEntry, error) {
	var res []fs.DirEntry

	for {
		ename, typ, inoR, err := dr.nextfull()
		if err != nil {
			if err == io.EOF {
				return res, nil
			}
			return res, err
		}

		res = append(res, &direntry{ename, typ, inoR, dr.sb})
		if n > 0 && len(res) >= n {
			return res, nil
		}
	}
}

func (de *direntry) Name() string {
	return de.name
}

func (de *direntry) IsDir() bool {
	return de.typ.Basic() == DirType
}

func (de *direntry) Type() fs.FileMode {
	return de.typ.Mode()
}

func (de *direntry) Info() (fs.FileInfo, error) {
	found, err := de.sb.GetInodeRef(de.inoR)
	if err != nil {
		return nil, err
	}
	de.sb.setInodeRefCache(found.Ino, de.inoR)
	return &fileinfo{name: de.name, ino: found}, nil
}
