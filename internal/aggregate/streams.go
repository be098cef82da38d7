// Package aggregate buckets extracted sections into the category output files.
package aggregate

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/hyperifyio/scpscraper/internal/extract"
	"github.com/hyperifyio/scpscraper/internal/record"
)

// Stream is one output destination.
type Stream int

const (
	Description Stream = iota
	Containment
	Title
	Addendum
	HTML
)

// Sections are the streams written by a section scrape, in flush order.
var Sections = []Stream{Description, Containment, Title, Addendum}

// FileName is the stream's file name inside the output directory.
func (s Stream) FileName() string {
	switch s {
	case Description:
		return "scp-descrips.txt"
	case Containment:
		return "scp-conprocs.txt"
	case Title:
		return "scp-titles.txt"
	case Addendum:
		return "scp-addenda.txt"
	case HTML:
		return "scp-html.txt"
	default:
		return fmt.Sprintf("scp-stream-%d.txt", int(s))
	}
}

func (s Stream) String() string {
	return strings.TrimSuffix(strings.TrimPrefix(s.FileName(), "scp-"), ".txt")
}

// Delimiter ends every block in dataset mode.
const Delimiter = "<|endoftext|>"

// Options shapes what is accepted and how it is written.
type Options struct {
	// Tags is the allow-list. Empty accepts every record.
	Tags []string
	// Dataset redacts the padded identifier and appends Delimiter.
	Dataset bool
	// Markdown renders raw content blocks as Markdown instead of HTML.
	Markdown bool
}

// Accumulator buffers output per stream until Flush. It is not safe for
// concurrent use; the runner feeds it from a single goroutine in
// identifier order.
type Accumulator struct {
	opts   Options
	bufs   map[Stream]*bytes.Buffer
	counts map[Stream]int
	conv   *md.Converter
}

// New returns an empty accumulator.
func New(opts Options) *Accumulator {
	return &Accumulator{
		opts:   opts,
		bufs:   map[Stream]*bytes.Buffer{},
		counts: map[Stream]int{},
	}
}

// Accept applies the tag filter.
func (a *Accumulator) Accept(rec *record.Record) bool {
	return rec != nil && rec.HasAnyTag(a.opts.Tags)
}

// Add appends the record's classified sections and title. It returns the
// number of blocks written. Records rejected by the tag filter add nothing.
func (a *Accumulator) Add(rec *record.Record) int {
	if !a.Accept(rec) {
		return 0
	}
	if a.opts.Dataset {
		rec = rec.Redacted()
	}
	labels := make([]string, 0, len(rec.Content))
	for label := range rec.Content {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	n := 0
	for _, label := range labels {
		value := rec.Content[label]
		kind := record.Classify(label)
		if kind.Has(record.KindDescription) {
			a.block(Description, "Description: "+value)
			n++
		}
		if kind.Has(record.KindContainment) {
			a.block(Containment, "Special Containment Procedures: "+value)
			n++
		}
		if kind.Has(record.KindAddendum) {
			if a.opts.Dataset {
				a.block(Addendum, "Addendum XXXX-XX: "+strings.Trim(value, ": "))
			} else {
				a.block(Addendum, label+": "+value)
			}
			n++
		}
	}
	if rec.Name != nil && *rec.Name != "" && !strings.Contains(*rec.Name, record.AccessDenied) {
		id := record.PadID(rec.ID)
		if a.opts.Dataset {
			id = record.Placeholder
		}
		a.line(Title, "SCP-"+id+": "+*rec.Name)
		n++
	}
	return n
}

// AddHTML appends one raw content block. Blocks of placeholder pages and
// blocks rejected by the tag filter are skipped.
func (a *Accumulator) AddHTML(id int, tags []string, block string) (bool, error) {
	if !(&record.Record{Tags: tags}).HasAnyTag(a.opts.Tags) {
		return false, nil
	}
	if extract.LooksEmpty(block) {
		return false, nil
	}
	if a.opts.Dataset {
		block = strings.ReplaceAll(block, record.PadID(id), record.Placeholder)
	}
	if a.opts.Markdown {
		if a.conv == nil {
			a.conv = md.NewConverter("", true, nil)
		}
		out, err := a.conv.ConvertString(block)
		if err != nil {
			return false, fmt.Errorf("convert scp-%s to markdown: %w", record.PadID(id), err)
		}
		block = out
	}
	a.block(HTML, block)
	return true, nil
}

// Count returns the number of blocks added to s since New.
func (a *Accumulator) Count(s Stream) int { return a.counts[s] }

func (a *Accumulator) buf(s Stream) *bytes.Buffer {
	b, ok := a.bufs[s]
	if !ok {
		b = &bytes.Buffer{}
		a.bufs[s] = b
	}
	return b
}

// block writes text as a blank-line separated block.
func (a *Accumulator) block(s Stream, text string) {
	b := a.buf(s)
	b.WriteString(strings.TrimRight(text, "\n"))
	b.WriteByte('\n')
	if a.opts.Dataset {
		b.WriteString(Delimiter)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	a.counts[s]++
}

func (a *Accumulator) line(s Stream, text string) {
	b := a.buf(s)
	b.WriteString(text)
	b.WriteByte('\n')
	a.counts[s]++
}

// Reset truncates the files of streams under dir, creating dir if needed.
func Reset(dir string, streams ...Stream) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, s := range streams {
		if err := os.WriteFile(filepath.Join(dir, s.FileName()), nil, 0o644); err != nil {
			return fmt.Errorf("reset %s: %w", s.FileName(), err)
		}
	}
	return nil
}

// Flush appends every buffered stream to its file under dir and empties the
// buffers. Each file is closed before Flush returns.
func (a *Accumulator) Flush(dir string) error {
	var errs []error
	for s, b := range a.bufs {
		if b.Len() == 0 {
			continue
		}
		if err := appendFile(filepath.Join(dir, s.FileName()), b.Bytes()); err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", s.FileName(), err))
			continue
		}
		b.Reset()
	}
	return errors.Join(errs...)
}

func appendFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
