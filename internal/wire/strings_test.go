package wire

import (
	"errors"
	"testing"

	"github.com/btraceio/jafar-sub003/internal/bytesource"
)

type fakeTable []string

func (t fakeTable) Get(index uint64) (string, error) {
	if index >= uint64(len(t)) {
		return "", ErrTableRefOutOfRange
	}
	return t[index], nil
}

func TestReadStringNullAndEmpty(t *testing.T) {
	src := bytesource.FromBytes([]byte{StringNull, StringEmpty})
	scratch := &Scratch{}

	v, isNull, err := ReadString(src, nil, scratch, true)
	if err != nil || !isNull || v != "" {
		t.Fatalf("null: v=%q isNull=%v err=%v", v, isNull, err)
	}

	v, isNull, err = ReadString(src, nil, scratch, true)
	if err != nil || isNull || v != "" {
		t.Fatalf("empty: v=%q isNull=%v err=%v", v, isNull, err)
	}
}

func TestReadStringUTF8(t *testing.T) {
	buf := []byte{StringUTF8}
	buf = EncodeVarint(buf, 5)
	buf = append(buf, "hello"...)

	src := bytesource.FromBytes(buf)
	v, _, err := ReadString(src, nil, &Scratch{}, true)
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if v != "hello" {
		t.Fatalf("got %q, want hello", v)
	}
}

func TestReadStringLatin1(t *testing.T) {
	buf := []byte{StringLatin1}
	buf = EncodeVarint(buf, 1)
	buf = append(buf, 0xE9) // U+00E9 in Latin-1

	src := bytesource.FromBytes(buf)
	v, _, err := ReadString(src, nil, &Scratch{}, true)
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if v != "é" {
		t.Fatalf("got %q, want \\u00e9", v)
	}
}

func TestReadStringUTF16(t *testing.T) {
	buf := []byte{StringUTF16}
	buf = EncodeVarint(buf, 2)
	buf = EncodeVarint(buf, uint64('h'))
	buf = EncodeVarint(buf, uint64('i'))

	src := bytesource.FromBytes(buf)
	v, _, err := ReadString(src, nil, &Scratch{}, true)
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if v != "hi" {
		t.Fatalf("got %q, want hi", v)
	}
}

func TestReadStringTableRef(t *testing.T) {
	buf := []byte{StringTableRef}
	buf = EncodeVarint(buf, 2)

	src := bytesource.FromBytes(buf)
	table := fakeTable{"a", "b", "c"}
	v, _, err := ReadString(src, table, &Scratch{}, true)
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if v != "c" {
		t.Fatalf("got %q, want c", v)
	}
}

func TestReadStringTableRefOutOfRange(t *testing.T) {
	buf := []byte{StringTableRef}
	buf = EncodeVarint(buf, 99)

	src := bytesource.FromBytes(buf)
	table := fakeTable{"a"}
	_, _, err := ReadString(src, table, &Scratch{}, true)
	if !errors.Is(err, ErrTableRefOutOfRange) {
		t.Fatalf("got %v, want ErrTableRefOutOfRange", err)
	}
}

func TestSkipStringMatchesReadLength(t *testing.T) {
	buf := []byte{StringUTF8}
	buf = EncodeVarint(buf, 3)
	buf = append(buf, "abc"...)
	buf = append(buf, 0xFF) // trailing sentinel byte to confirm exact skip

	src := bytesource.FromBytes(buf)
	if err := SkipString(src, true); err != nil {
		t.Fatalf("SkipString: %v", err)
	}
	if src.Position() != int64(len(buf)-1) {
		t.Fatalf("position = %d, want %d", src.Position(), len(buf)-1)
	}
	b, _ := src.ReadU8()
	if b != 0xFF {
		t.Fatalf("sentinel byte = %#x, want 0xff", b)
	}
}
