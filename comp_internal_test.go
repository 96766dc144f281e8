package squashfs

import (
	"bytes"
	"testing"
)

func TestDecompressUnknownCompressorID(t *testing.T) {
	_, err := SquashComp(0xbeef).decompress(make([]byte, 16), []byte{1, 2, 3})
	de, ok := err.(*DecodeError)
	if !ok || de.Cause != ErrUnknownCompressor {
		t.Fatalf("err = %v, want DecodeError{Cause: ErrUnknownCompressor}", err)
	}
}

func TestDecompressOutputExceedingCapacityIsError(t *testing.T) {
	const id = SquashComp(0xbeee)
	RegisterDecompressor(id, func(dst, src []byte) ([]byte, error) {
		return make([]byte, len(dst)+1), nil
	})

	_, err := id.decompress(make([]byte, 4), nil)
	de, ok := err.(*DecodeError)
	if !ok || de.Cause != ErrBufferTooSmall {
		t.Fatalf("err = %v, want DecodeError{Cause: ErrBufferTooSmall}", err)
	}
}

func TestDrainIntoExactFit(t *testing.T) {
	dst := make([]byte, 5)
	out, err := drainInto(bytes.NewReader([]byte("hello")), dst)
	if err != nil {
		t.Fatalf("drainInto: %v", err)
	}
	if string(out) != "hello" {
		t.Errorf("drainInto output = %q, want %q", out, "hello")
	}
}

func TestDrainIntoShortStream(t *testing.T) {
	dst := make([]byte, 10)
	out, err := drainInto(bytes.NewReader([]byte("hi")), dst)
	if err != nil {
		t.Fatalf("drainInto: %v", err)
	}
	if string(out) != "hi" {
		t.Errorf("drainInto output = %q, want %q", out, "hi")
	}
}

func TestDrainIntoOverflow(t *testing.T) {
	dst := make([]byte, 3)
	_, err := drainInto(bytes.NewReader([]byte("toolong")), dst)
	if err == nil {
		t.Fatal("expected error when stream exceeds destination capacity")
	}
}
