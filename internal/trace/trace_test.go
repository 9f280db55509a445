package trace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

const sample = `# three adjacent blocks
alloc a 16
alloc b 16

alloc c 16
  free b
free a   # trailing text is part of the name check below
check
`

func TestParse(t *testing.T) {
	src := "# header\nalloc a 16\n\nalloc b 4000\n  free a\ncheck\n"
	s, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	want := []Op{
		{Kind: Alloc, Name: "a", Bytes: 16, Line: 2},
		{Kind: Alloc, Name: "b", Bytes: 4000, Line: 4},
		{Kind: Free, Name: "a", Line: 5},
		{Kind: Check, Line: 6},
	}
	assert.Equal(t, want, s.Ops)
	assert.Equal(t, 2, s.Count(Alloc))
	assert.Equal(t, 1, s.Count(Free))
	assert.Equal(t, 1, s.Count(Check))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line string
	}{
		{"unknown op", "alloc a 8\nrealloc a 16\n", "line 2"},
		{"missing size", "alloc a\n", "line 1"},
		{"bad size", "alloc a lots\n", "line 1"},
		{"zero size", "\n\nalloc a 0\n", "line 3"},
		{"negative size", "alloc a -8\n", "line 1"},
		{"free arity", "free\n", "line 1"},
		{"check arity", "check now\n", "line 1"},
		{"trailing comment", sample, "line 7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src))
			require.ErrorIs(t, err, ErrSyntax)
			assert.Contains(t, err.Error(), tt.line)
		})
	}
}

func TestParse_UTF16WithBOM(t *testing.T) {
	src := "alloc α 16\r\nfree α\r\n"

	for _, endian := range []unicode.Endianness{unicode.LittleEndian, unicode.BigEndian} {
		enc := unicode.UTF16(endian, unicode.UseBOM).NewEncoder()
		encoded, err := enc.String(src)
		require.NoError(t, err)

		s, err := Parse(strings.NewReader(encoded))
		require.NoError(t, err)
		require.Len(t, s.Ops, 2)
		assert.Equal(t, "α", s.Ops[0].Name)
		assert.Equal(t, Free, s.Ops[1].Kind)
	}
}

func TestParse_UTF8BOM(t *testing.T) {
	s, err := Parse(strings.NewReader("\ufeffalloc a 8\n"))
	require.NoError(t, err)
	require.Len(t, s.Ops, 1)
	assert.Equal(t, "a", s.Ops[0].Name)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.trace")
	require.NoError(t, os.WriteFile(path, []byte("alloc x 1\n"), 0o600))

	s, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alloc x 1", s.Ops[0].String())

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "alloc", Alloc.String())
	assert.Equal(t, "check", Check.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
	assert.Equal(t, "free b", Op{Kind: Free, Name: "b"}.String())
}
