package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
)

// writeSummary renders a human readable run summary next to the outputs.
func writeSummary(dir string, r *Report) (string, error) {
	path := filepath.Join(dir, summaryFile)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create summary: %w", err)
	}
	defer f.Close()

	md := markdown.NewMarkdown(f)
	md.H1("SCP scrape summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Field", "Value"},
		Rows: [][]string{
			{"Run", r.RunID},
			{"Mode", r.Mode},
			{"Site", r.BaseURL},
			{"Range", fmt.Sprintf("%d-%d", r.Start, r.End)},
			{"Dataset", strconv.FormatBool(r.Dataset)},
			{"Tags", tagList(r.Tags)},
			{"Duration", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()},
			{"Canceled", strconv.FormatBool(r.Canceled)},
		},
	})
	md.PlainText("")
	md.H2("Pages")
	md.PlainText("")
	md.BulletList(
		fmt.Sprintf("processed: %d", r.Processed),
		fmt.Sprintf("written: %d", r.Written),
		fmt.Sprintf("filtered: %d", r.Filtered),
		fmt.Sprintf("failed: %d", r.Failed),
		fmt.Sprintf("skipped by robots: %d", r.Skipped),
		fmt.Sprintf("duplicate lines removed: %d", r.Removed),
	)
	md.PlainText("")
	md.H2("Files")
	md.PlainText("")
	rows := make([][]string, 0, len(r.Files))
	for _, fd := range r.Files {
		rows = append(rows, []string{fd.Name, strconv.Itoa(fd.Lines), strconv.FormatInt(fd.Bytes, 10), fd.SHA256[:12]})
	}
	if len(rows) == 0 {
		md.PlainText("No files written.")
	} else {
		md.Table(markdown.TableSet{Header: []string{"File", "Lines", "Bytes", "SHA-256"}, Rows: rows})
	}
	if err := md.Build(); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	return path, nil
}

func tagList(tags []string) string {
	if len(tags) == 0 {
		return "any"
	}
	return strings.Join(tags, ", ")
}
