package squashfs

import (
	"errors"
	"fmt"
)

// Package-specific error variables that can be used with errors.Is() for error handling.
var (
	// ErrInvalidFile is returned when the file format is not recognized as SquashFS
	ErrInvalidFile = errors.New("invalid file, squashfs signature not found")

	// ErrInvalidSuper is returned when the superblock data is corrupted or invalid
	ErrInvalidSuper = errors.New("invalid squashfs superblock")

	// ErrInvalidVersion is returned when the SquashFS version is not 4.0
	// This library only supports SquashFS 4.0 format
	ErrInvalidVersion = errors.New("invalid file version, expected squashfs 4.0")

	// ErrInodeNotExported is returned by GetInodeByNumber for an inode number this mount
	// has not yet seen during a directory lookup; the NFS export table is not consulted
	ErrInodeNotExported = errors.New("unknown squashfs inode and no NFS export table")

	// ErrNotDirectory is returned when attempting to perform directory operations on a non-directory
	ErrNotDirectory = errors.New("not a directory")

	// ErrTooManySymlinks reports a symlink chain that exceeds the maximum depth.
	// Nothing in this package follows symlinks, so no function here returns it.
	ErrTooManySymlinks = errors.New("too many levels of symbolic links")
)

// Cause distinguishes the sub-reason behind a DecodeError. Callers that only
// care about pass/fail can ignore it and match on SQFS_ERR via errors.As;
// it exists purely so logs can say more than the caller needs to act on.
type Cause int

const (
	ErrShortRead Cause = iota + 1
	ErrDecompress
	ErrBufferTooSmall
	ErrMalformedHeader
	ErrInodeRange
	ErrUnknownType
	ErrUnknownCompressor
)

func (c Cause) String() string {
	switch c {
	case ErrShortRead:
		return "short read"
	case ErrDecompress:
		return "decompression failed"
	case ErrBufferTooSmall:
		return "decompressed output exceeds buffer capacity"
	case ErrMalformedHeader:
		return "malformed block header"
	case ErrInodeRange:
		return "inode number out of range"
	case ErrUnknownType:
		return "unknown inode type"
	case ErrUnknownCompressor:
		return "unknown compressor id"
	}
	return "unknown decode error"
}

// DecodeError is the single coarse SQFS_ERR kind the core ever returns once
// mount has succeeded: any decoding failure in the metadata pipeline. The
// Cause field exists only to make logs useful; callers should match on the
// type (errors.As) or treat any DecodeError as EIO, never branch on Cause.
type DecodeError struct {
	Cause  Cause
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return "squashfs: " + e.Cause.String()
	}
	return fmt.Sprintf("squashfs: %s: %s", e.Cause, e.Detail)
}
