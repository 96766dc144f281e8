//go:build darwin && fuse

package squashfs

import (
	"github.com/hanwen/go-fuse/v2/fuse"
)

func (i *Inode) FillAttr(attr *fuse.Attr) error {
	attr.Size = i.Size
	attr.Blocks = uint64(len(i.Blocks)) + 1
	attr.Mode = ModeToUnix(i.Mode())
	attr.Nlink = i.NLink // 1 required
	attr.Rdev = PackDev(i.DevMajor, i.DevMinor)
	attr.Atime = uint64(i.ModTime)
	attr.Mtime = uint64(i.ModTime)
	attr.Ctime = uint64(i.ModTime)
	attr.Owner.Uid = i.sb.ResolveID(i.UidIdx)
	attr.Owner.Gid = i.sb.ResolveID(i.GidIdx)
	return nil
}
