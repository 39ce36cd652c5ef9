package wire

import (
	"errors"
	"unicode/utf16"

	"github.com/btraceio/jafar-sub003/internal/bytesource"
)

// String encoding discriminants (§4.1).
const (
	StringNull        = 0
	StringEmpty       = 1
	StringTableRef    = 2
	StringUTF8        = 3
	StringUTF16       = 4
	StringLatin1      = 5
)

// ErrMalformedString is returned for an unrecognised string type byte.
var ErrMalformedString = errors.New("wire: malformed string encoding")

// ErrTableRefOutOfRange is returned when a table-reference string index is
// outside the chunk's string table.
var ErrTableRefOutOfRange = errors.New("wire: string table reference out of range")

// StringTable resolves a table-reference string index (§4.1 encoding 2)
// against the chunk's metadata string table. Implemented by
// internal/metadata.StringTable; kept as a narrow interface here so wire
// does not depend on metadata.
type StringTable interface {
	Get(index uint64) (string, error)
}

// Scratch holds reusable buffers for string decoding, avoiding a fresh
// allocation on every field read. ParserContext owns one pair (§3: "small
// reusable parse buffers (byte and char, 4096 each)") and passes it down.
type Scratch struct {
	Bytes []byte
	Chars []uint16
}

// ReadString decodes one JFR string value per the six-way encoding in
// §4.1. table resolves StringTableRef entries; it may be nil if the caller
// is certain no table reference will be encountered (e.g. decoding the
// metadata string table itself, which never self-references).
//
// isNull distinguishes the null encoding (0) from the empty string (1);
// callers that don't care may ignore it and use the zero value "".
func ReadString(src *bytesource.Source, table StringTable, scratch *Scratch, fastVarint bool) (value string, isNull bool, err error) {
	kind, err := src.ReadU8()
	if err != nil {
		return "", false, err
	}

	switch kind {
	case StringNull:
		return "", true, nil

	case StringEmpty:
		return "", false, nil

	case StringTableRef:
		idx, err := ReadVarint(src, fastVarint)
		if err != nil {
			return "", false, err
		}
		if table == nil {
			return "", false, ErrTableRefOutOfRange
		}
		s, err := table.Get(idx)
		if err != nil {
			return "", false, err
		}
		return s, false, nil

	case StringUTF8:
		n, err := ReadVarint(src, fastVarint)
		if err != nil {
			return "", false, err
		}
		scratch.Bytes, err = src.AppendBytes(scratch.Bytes, int64(n))
		if err != nil {
			return "", false, err
		}
		return string(scratch.Bytes), false, nil

	case StringUTF16:
		n, err := ReadVarint(src, fastVarint)
		if err != nil {
			return "", false, err
		}
		if cap(scratch.Chars) < int(n) {
			scratch.Chars = make([]uint16, n)
		}
		scratch.Chars = scratch.Chars[:n]
		for i := range scratch.Chars {
			cu, err := ReadVarint(src, fastVarint)
			if err != nil {
				return "", false, err
			}
			scratch.Chars[i] = uint16(cu)
		}
		return string(utf16.Decode(scratch.Chars)), false, nil

	case StringLatin1:
		n, err := ReadVarint(src, fastVarint)
		if err != nil {
			return "", false, err
		}
		scratch.Bytes, err = src.AppendBytes(scratch.Bytes, int64(n))
		if err != nil {
			return "", false, err
		}
		return latin1ToUTF8(scratch.Bytes), false, nil

	default:
		return "", false, ErrMalformedString
	}
}

// latin1ToUTF8 converts ISO-8859-1 bytes to a UTF-8 string. Each Latin-1
// byte maps directly to the Unicode code point of the same value, so this
// is a straight rune-per-byte widening, not a table lookup.
func latin1ToUTF8(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}

// SkipString advances src past one encoded string value without
// materialising it, mirroring ReadString's dispatch.
func SkipString(src *bytesource.Source, fastVarint bool) error {
	kind, err := src.ReadU8()
	if err != nil {
		return err
	}
	switch kind {
	case StringNull, StringEmpty:
		return nil
	case StringTableRef:
		_, err := ReadVarint(src, fastVarint)
		return err
	case StringUTF8, StringLatin1:
		n, err := ReadVarint(src, fastVarint)
		if err != nil {
			return err
		}
		return src.Skip(int64(n))
	case StringUTF16:
		n, err := ReadVarint(src, fastVarint)
		if err != nil {
			return err
		}
		for i := uint64(0); i < n; i++ {
			if _, err := ReadVarint(src, fastVarint); err != nil {
				return err
			}
		}
		return nil
	default:
		return ErrMalformedString
	}
}
