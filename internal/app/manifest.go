package app

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const (
	manifestFile = "manifest.json"
	summaryFile  = "summary.md"
)

// FileDigest describes one output file after dedup.
type FileDigest struct {
	Name   string `json:"name"`
	SHA256 string `json:"sha256"`
	Lines  int    `json:"lines"`
	Bytes  int64  `json:"bytes"`
}

// Report is the outcome of one batch run. It is written as manifest.json.
type Report struct {
	RunID      string       `json:"run_id"`
	Version    string       `json:"version"`
	Commit     string       `json:"commit"`
	Mode       string       `json:"mode"`
	BaseURL    string       `json:"base_url"`
	Start      int          `json:"start"`
	End        int          `json:"end"`
	Dataset    bool         `json:"dataset"`
	Tags       []string     `json:"tags,omitempty"`
	Processed  int          `json:"processed"`
	Written    int          `json:"written"`
	Filtered   int          `json:"filtered"`
	Failed     int          `json:"failed"`
	Skipped    int          `json:"skipped"`
	Removed    int          `json:"duplicates_removed"`
	Canceled   bool         `json:"canceled"`
	FailedIDs  []int        `json:"failed_ids,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Files      []FileDigest `json:"files"`
}

// digestFile hashes path and counts its lines in one pass.
func digestFile(path string) (FileDigest, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileDigest{}, err
	}
	defer f.Close()
	h := sha256.New()
	r := bufio.NewReader(io.TeeReader(f, h))
	d := FileDigest{Name: filepath.Base(path)}
	for {
		line, err := r.ReadSlice('\n')
		d.Bytes += int64(len(line))
		if len(line) > 0 && line[len(line)-1] == '\n' {
			d.Lines++
		}
		if err == io.EOF {
			break
		}
		if err != nil && err != bufio.ErrBufferFull {
			return FileDigest{}, err
		}
	}
	d.SHA256 = hex.EncodeToString(h.Sum(nil))
	return d, nil
}

func writeManifest(dir string, r *Report) (string, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	path := filepath.Join(dir, manifestFile)
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}
