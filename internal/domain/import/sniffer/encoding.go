package sniffer

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
)

var ErrUndecodable = errors.New("content is not text in any supported encoding")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Single-byte encodings tried after UTF-8, most specific first. Bank
// exports from Windows tooling are almost always cp1252.
var fallbackEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"windows-1252", charmap.Windows1252},
	{"iso-8859-15", charmap.ISO8859_15},
	{"iso-8859-1", charmap.ISO8859_1},
}

// Decode returns data as a UTF-8 string together with the name of the
// encoding that produced it. UTF-16 is only considered when a byte order
// mark says so; otherwise UTF-8 is tried first and the single-byte
// fallbacks after it. A decoding that introduces replacement characters
// counts as a failure.
func Decode(data []byte) (string, string, error) {
	if hasUTF16BOM(data) {
		out, err := xunicode.UTF16(xunicode.LittleEndian, xunicode.UseBOM).NewDecoder().Bytes(data)
		if err != nil {
			return "", "", fmt.Errorf("%w: utf-16: %v", ErrUndecodable, err)
		}
		return string(out), "utf-16", nil
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), "utf-8", nil
	}

	for _, fb := range fallbackEncodings {
		out, err := fb.enc.NewDecoder().Bytes(data)
		if err != nil || bytes.ContainsRune(out, utf8.RuneError) {
			continue
		}
		return string(out), fb.name, nil
	}
	return "", "", ErrUndecodable
}

func hasUTF16BOM(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF})
}
