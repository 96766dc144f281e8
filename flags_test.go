package squashfs_test

import (
	"testing"

	"github.com/nilgrove/sqfsreader"
)

func TestFlagsString(t *testing.T) {
	testCases := []struct {
		flag     squashfs.SquashFlags
		expected string
	}{
		{squashfs.UNCOMPRESSED_INODES, "UNCOMPRESSED_INODES"},
		{squashfs.UNCOMPRESSED_DATA, "UNCOMPRESSED_DATA"},
		{squashfs.CHECK, "CHECK"},
		{squashfs.UNCOMPRESSED_FRAGMENTS, "UNCOMPRESSED_FRAGMENTS"},
		{squashfs.NO_FRAGMENTS, "NO_FRAGMENTS"},
		{squashfs.ALWAYS_FRAGMENTS, "ALWAYS_FRAGMENTS"},
		{squashfs.DUPLICATES, "DUPLICATES"},
		{squashfs.EXPORTABLE, "EXPORTABLE"},
		{squashfs.UNCOMPRESSED_XATTRS, "UNCOMPRESSED_XATTRS"},
		{squashfs.NO_XATTRS, "NO_XATTRS"},
		{squashfs.COMPRESSOR_OPTIONS, "COMPRESSOR_OPTIONS"},
		{squashfs.UNCOMPRESSED_IDS, "UNCOMPRESSED_IDS"},
		{squashfs.EXPORTABLE | squashfs.NO_FRAGMENTS, "NO_FRAGMENTS|EXPORTABLE"},
		{0, ""},
	}

	for _, tc := range testCases {
		if got := tc.flag.String(); got != tc.expected {
			t.Errorf("flag %d: got %q, want %q", tc.flag, got, tc.expected)
		}
	}
}

func TestFlagsHas(t *testing.T) {
	flags := squashfs.EXPORTABLE | squashfs.UNCOMPRESSED_DATA

	if !flags.Has(squashfs.EXPORTABLE) {
		t.Error("flags should have EXPORTABLE")
	}
	if !flags.Has(squashfs.UNCOMPRESSED_DATA) {
		t.Error("flags should have UNCOMPRESSED_DATA")
	}
	if flags.Has(squashfs.NO_FRAGMENTS) {
		t.Error("flags should not have NO_FRAGMENTS")
	}
}
