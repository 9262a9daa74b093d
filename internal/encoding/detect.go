// Package encoding normalises bank statement files to UTF-8 before parsing.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	xenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffSize = 4096

// Charset names reported by Detect.
const (
	UTF8        = "UTF-8"
	UTF8BOM     = "UTF-8 (BOM)"
	UTF16LE     = "UTF-16LE"
	UTF16BE     = "UTF-16BE"
	Windows1252 = "windows-1252"
	ISO8859_9   = "ISO-8859-9"
)

var boms = []struct {
	prefix  []byte
	charset string
}{
	{[]byte{0xEF, 0xBB, 0xBF}, UTF8BOM},
	{[]byte{0xFF, 0xFE}, UTF16LE},
	{[]byte{0xFE, 0xFF}, UTF16BE},
}

var decoders = map[string]xenc.Encoding{
	UTF16LE:     unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
	UTF16BE:     unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
	Windows1252: charmap.Windows1252,
	ISO8859_9:   charmap.ISO8859_9,
}

// Detect guesses the charset of r from its first bytes and returns a reader yielding UTF-8
// together with the detected charset name. A byte order mark wins; valid UTF-8 is passed
// through; otherwise chardet decides, defaulting to Windows-1252 (what Portuguese banks emit).
func Detect(r io.Reader) (io.Reader, string, error) {
	br := bufio.NewReaderSize(r, sniffSize)

	head, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("peek: %w", err)
	}

	charset := sniff(head)

	if charset == UTF8BOM {
		_, _ = br.Discard(3)
		return br, charset, nil
	}

	dec, ok := decoders[charset]
	if !ok {
		return br, charset, nil
	}

	return transform.NewReader(br, dec.NewDecoder()), charset, nil
}

// NewUTF8Reader is Detect without the charset name.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	utf8r, _, err := Detect(r)
	return utf8r, err
}

func sniff(head []byte) string {
	for _, b := range boms {
		if bytes.HasPrefix(head, b.prefix) {
			return b.charset
		}
	}

	if validUTF8(head) {
		return UTF8
	}

	result, err := chardet.NewTextDetector().DetectBest(head)
	if err != nil {
		return Windows1252
	}

	switch result.Charset {
	case "UTF-8":
		return UTF8
	case "ISO-8859-9":
		return ISO8859_9
	}

	return Windows1252
}

// validUTF8 tolerates a rune cut in half by the sniff window.
func validUTF8(head []byte) bool {
	if utf8.Valid(head) {
		return true
	}

	for cut := 1; cut < utf8.UTFMax && cut < len(head); cut++ {
		tail := head[len(head)-cut:]
		if !utf8.FullRune(tail) && utf8.Valid(head[:len(head)-cut]) {
			return true
		}
	}

	return false
}
