package aggregate

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Dedup rewrites path keeping only the first occurrence of every line, in
// order. Lines equal to one of keep are structural (block separators,
// delimiters) and are not deduplicated. A block is the run of lines up to and
// including a blank line; when every content line of a block was a duplicate
// its structural lines go too. The set of seen lines is held in memory.
// It returns the number of duplicate lines removed.
func Dedup(path string, keep ...string) (int, error) {
	in, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	tmp := path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("create temp: %w", err)
	}
	removed, err := dedupLines(in, out, keep)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("replace %s: %w", path, err)
	}
	return removed, nil
}

func dedupLines(r io.Reader, w io.Writer, keep []string) (int, error) {
	always := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		always[k] = struct{}{}
	}
	seen := map[string]struct{}{}
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)
	removed := 0
	// kept and dropped track content lines of the current block.
	kept, dropped := false, false
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			text := strings.TrimSuffix(line, "\n")
			_, structural := always[text]
			_, dup := seen[text]
			write := true
			switch {
			case structural:
				write = kept || !dropped
			case dup:
				removed++
				dropped = true
				write = false
			default:
				seen[text] = struct{}{}
				kept = true
			}
			if write {
				if _, werr := bw.WriteString(text + "\n"); werr != nil {
					return removed, werr
				}
			}
			if text == "" {
				kept, dropped = false, false
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return removed, err
		}
	}
	return removed, bw.Flush()
}
