package aggregate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "stream.txt")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDedupKeepsFirstOccurrence(t *testing.T) {
	p := writeFile(t, "a\nb\na\nc\nb\n")
	n, err := Dedup(p)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	b, _ := os.ReadFile(p)
	assert.Equal(t, "a\nb\nc\n", string(b))
}

func TestDedupIdempotent(t *testing.T) {
	p := writeFile(t, "x\ny\nx\n\nz\n\n")
	_, err := Dedup(p)
	require.NoError(t, err)
	first, _ := os.ReadFile(p)

	n, err := Dedup(p)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	second, _ := os.ReadFile(p)
	assert.Equal(t, string(first), string(second))
}

func TestDedupKeepsStructuralLines(t *testing.T) {
	in := "Description: one.\n" + Delimiter + "\n\nDescription: two.\n" + Delimiter + "\n\nDescription: one.\n" + Delimiter + "\n\n"
	p := writeFile(t, in)
	n, err := Dedup(p, "", Delimiter)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	b, _ := os.ReadFile(p)
	assert.Equal(t, "Description: one.\n"+Delimiter+"\n\nDescription: two.\n"+Delimiter+"\n\n", string(b))
}

func TestDedupDropsSeparatorsOfDuplicateBlock(t *testing.T) {
	p := writeFile(t, "Description: Same.\n"+Delimiter+"\n\nDescription: Same.\n"+Delimiter+"\n\n")
	n, err := Dedup(p, "", Delimiter)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	b, _ := os.ReadFile(p)
	assert.Equal(t, "Description: Same.\n"+Delimiter+"\n\n", string(b))
}

func TestDedupPartialBlockKeepsSeparators(t *testing.T) {
	in := "a\nb\n" + Delimiter + "\n\nb\nc\n" + Delimiter + "\n\n"
	p := writeFile(t, in)
	n, err := Dedup(p, "", Delimiter)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	b, _ := os.ReadFile(p)
	assert.Equal(t, "a\nb\n"+Delimiter+"\n\nc\n"+Delimiter+"\n\n", string(b))
}

func TestDedupPlainBlocks(t *testing.T) {
	p := writeFile(t, "one\n\ntwo\n\none\n\n")
	n, err := Dedup(p, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	b, _ := os.ReadFile(p)
	assert.Equal(t, "one\n\ntwo\n\n", string(b))
}

func TestDedupUnterminatedLastLine(t *testing.T) {
	p := writeFile(t, "a\nb\na")
	n, err := Dedup(p)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	b, _ := os.ReadFile(p)
	assert.Equal(t, "a\nb\n", string(b))
}

func TestDedupMissingFile(t *testing.T) {
	_, err := Dedup(filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
