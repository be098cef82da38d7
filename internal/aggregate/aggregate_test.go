package aggregate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/scpscraper/internal/record"
)

func strptr(s string) *string { return &s }

func brassKey() *record.Record {
	return &record.Record{
		ID: 5,
		Content: map[string]string{
			"Item #":                         "SCP-005",
			"Object Class":                   "Safe",
			"Special Containment Procedures": "Keep SCP-005 in a locker.",
			"Description":                    "A brass key.",
			"Addendum 005-1":                 ": Opened every door on site.",
		},
		Tags: []string{"safe", "key"},
		Name: strptr("Skeleton Key"),
	}
}

func readStream(t *testing.T, dir string, s Stream) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, s.FileName()))
	if os.IsNotExist(err) {
		return ""
	}
	require.NoError(t, err)
	return string(b)
}

func TestAddWritesEachStream(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Reset(dir, Sections...))

	a := New(Options{})
	assert.Equal(t, 4, a.Add(brassKey()))
	require.NoError(t, a.Flush(dir))

	assert.Equal(t, "Description: A brass key.\n\n", readStream(t, dir, Description))
	assert.Equal(t, "Special Containment Procedures: Keep SCP-005 in a locker.\n\n", readStream(t, dir, Containment))
	assert.Equal(t, "Addendum 005-1: : Opened every door on site.\n\n", readStream(t, dir, Addendum))
	assert.Equal(t, "SCP-005: Skeleton Key\n", readStream(t, dir, Title))
}

func TestDatasetRedactsIdentifiers(t *testing.T) {
	dir := t.TempDir()
	a := New(Options{Dataset: true})
	a.Add(brassKey())
	require.NoError(t, a.Flush(dir))

	for _, s := range Sections {
		text := readStream(t, dir, s)
		assert.NotContains(t, text, "005", s.String())
	}
	assert.Equal(t, "Description: A brass key.\n"+Delimiter+"\n\n", readStream(t, dir, Description))
	assert.Equal(t, "Special Containment Procedures: Keep SCP-XXXX in a locker.\n"+Delimiter+"\n\n", readStream(t, dir, Containment))
	assert.Equal(t, "Addendum XXXX-XX: Opened every door on site.\n"+Delimiter+"\n\n", readStream(t, dir, Addendum))
	assert.Equal(t, "SCP-XXXX: Skeleton Key\n", readStream(t, dir, Title))
}

func TestTagFilter(t *testing.T) {
	a := New(Options{Tags: []string{"euclid"}})
	rec := brassKey()
	assert.False(t, a.Accept(rec))
	assert.Equal(t, 0, a.Add(rec))

	dir := t.TempDir()
	require.NoError(t, a.Flush(dir))
	for _, s := range Sections {
		assert.Empty(t, readStream(t, dir, s))
	}

	a = New(Options{Tags: []string{"euclid", "key"}})
	assert.True(t, a.Accept(rec))
	assert.False(t, a.Accept(nil))
}

func TestRecordWithoutContainmentLeavesStreamEmpty(t *testing.T) {
	dir := t.TempDir()
	rec := brassKey()
	delete(rec.Content, "Special Containment Procedures")
	a := New(Options{})
	a.Add(rec)
	require.NoError(t, a.Flush(dir))
	assert.Empty(t, readStream(t, dir, Containment))
	assert.Equal(t, 0, a.Count(Containment))
	assert.Equal(t, 1, a.Count(Description))
}

func TestTitleSkipsMissingAndDenied(t *testing.T) {
	a := New(Options{})
	rec := brassKey()
	rec.Name = strptr(record.AccessDenied)
	a.Add(rec)
	rec.Name = nil
	a.Add(rec)
	rec.Name = strptr("")
	a.Add(rec)
	assert.Equal(t, 0, a.Count(Title))
}

func TestAddendaKeepOriginalLabelOrder(t *testing.T) {
	dir := t.TempDir()
	rec := &record.Record{ID: 173, Content: map[string]string{
		"Addendum 173-2": "Second.",
		"Addendum 173-1": "First.",
		"Incident Log":   "Ignored.",
	}}
	a := New(Options{})
	assert.Equal(t, 2, a.Add(rec))
	require.NoError(t, a.Flush(dir))
	assert.Equal(t, "Addendum 173-1: First.\n\nAddendum 173-2: Second.\n\n", readStream(t, dir, Addendum))
}

func TestLabelWithBothKindsFeedsBothStreams(t *testing.T) {
	dir := t.TempDir()
	rec := &record.Record{ID: 5, Content: map[string]string{
		"Addendum 005-1: Revised Containment": "Moved to a safe.",
	}}
	a := New(Options{})
	assert.Equal(t, 2, a.Add(rec))
	assert.Equal(t, 1, a.Count(Containment))
	assert.Equal(t, 1, a.Count(Addendum))
	require.NoError(t, a.Flush(dir))
	assert.Equal(t, "Special Containment Procedures: Moved to a safe.\n\n", readStream(t, dir, Containment))
	assert.Equal(t, "Addendum 005-1: Revised Containment: Moved to a safe.\n\n", readStream(t, dir, Addendum))
}

func TestDatasetKeepsAddendaWithRedactedCollidingLabels(t *testing.T) {
	dir := t.TempDir()
	rec := &record.Record{ID: 2, Content: map[string]string{
		"Addendum 002-1":  "First.",
		"Addendum XXXX-1": "Second.",
	}}
	a := New(Options{Dataset: true})
	assert.Equal(t, 2, a.Add(rec))
	require.NoError(t, a.Flush(dir))
	assert.Equal(t,
		"Addendum XXXX-XX: First.\n"+Delimiter+"\n\nAddendum XXXX-XX: Second.\n"+Delimiter+"\n\n",
		readStream(t, dir, Addendum))
}

func TestFlushAppendsAndEmptiesBuffers(t *testing.T) {
	dir := t.TempDir()
	a := New(Options{})
	a.Add(brassKey())
	require.NoError(t, a.Flush(dir))
	require.NoError(t, a.Flush(dir))
	assert.Equal(t, 1, strings.Count(readStream(t, dir, Description), "A brass key."))

	a.Add(brassKey())
	require.NoError(t, a.Flush(dir))
	assert.Equal(t, 2, strings.Count(readStream(t, dir, Description), "A brass key."))

	require.NoError(t, Reset(dir, Description))
	assert.Empty(t, readStream(t, dir, Description))
}

func TestAddHTML(t *testing.T) {
	dir := t.TempDir()
	a := New(Options{Dataset: true})

	ok, err := a.AddHTML(5, nil, `<div id="page-content"><p>SCP-005 opens locks.</p></div>`)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.AddHTML(6, nil, `<div id="page-content"></div>`)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.Flush(dir))
	got := readStream(t, dir, HTML)
	assert.Equal(t, `<div id="page-content"><p>SCP-XXXX opens locks.</p></div>`+"\n"+Delimiter+"\n\n", got)
}

func TestAddHTMLTagFilter(t *testing.T) {
	a := New(Options{Tags: []string{"keter"}})
	ok, err := a.AddHTML(5, []string{"safe"}, `<div id="page-content"><p>x</p></div>`)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, a.Count(HTML))
}

func TestAddHTMLMarkdown(t *testing.T) {
	dir := t.TempDir()
	a := New(Options{Markdown: true})
	ok, err := a.AddHTML(5, nil, `<div id="page-content"><p><strong>Object Class:</strong> Safe</p></div>`)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, a.Flush(dir))
	got := readStream(t, dir, HTML)
	assert.Contains(t, got, "**Object Class:** Safe")
	assert.NotContains(t, got, "<p>")
}

func TestStreamNames(t *testing.T) {
	assert.Equal(t, "scp-descrips.txt", Description.FileName())
	assert.Equal(t, "scp-conprocs.txt", Containment.FileName())
	assert.Equal(t, "scp-titles.txt", Title.FileName())
	assert.Equal(t, "scp-addenda.txt", Addendum.FileName())
	assert.Equal(t, "scp-html.txt", HTML.FileName())
	assert.Equal(t, "descrips", Description.String())
}
