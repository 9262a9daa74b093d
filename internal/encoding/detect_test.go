package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/MrJamesThe3rd/budgetbuddy/internal/encoding"
)

const sample = "Descrição;Montante\nCafé;12,50\nOperação;-3,00\n"

func TestDetect(t *testing.T) {
	latin1, err := charmap.Windows1252.NewEncoder().Bytes([]byte(sample))
	require.NoError(t, err)

	utf16le, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(sample))
	require.NoError(t, err)

	tests := []struct {
		name        string
		input       []byte
		wantCharset string
	}{
		{name: "UTF8Passthrough", input: []byte(sample), wantCharset: encoding.UTF8},
		{name: "UTF8BOMStripped", input: append([]byte{0xEF, 0xBB, 0xBF}, sample...), wantCharset: encoding.UTF8BOM},
		{name: "UTF16LE", input: utf16le, wantCharset: encoding.UTF16LE},
		{name: "Latin1", input: latin1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, charset, err := encoding.Detect(bytes.NewReader(tt.input))
			require.NoError(t, err)
			if tt.wantCharset != "" {
				assert.Equal(t, tt.wantCharset, charset)
			}

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, sample, string(got))
		})
	}
}

func TestNewUTF8Reader_Empty(t *testing.T) {
	r, err := encoding.NewUTF8Reader(bytes.NewReader(nil))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewUTF8Reader_LargeInput(t *testing.T) {
	input := bytes.Repeat([]byte(sample), 500)

	r, err := encoding.NewUTF8Reader(bytes.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, input, got)
}
