// Package drive copies finished output files into a mounted cloud drive.
package drive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	cp "github.com/otiai10/copy"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNotMounted means the drive mount point is missing.
	ErrNotMounted = errors.New("drive not mounted")
	// ErrPathNotExist means the source path does not exist.
	ErrPathNotExist = errors.New("path does not exist")
	// ErrPathNotRecognized means the source is neither a file nor a directory.
	ErrPathNotRecognized = errors.New("path not recognized")
)

// DefaultMount is where a notebook runtime mounts the drive.
const DefaultMount = "/content/drive"

// DefaultDir is the folder inside the mount that receives copies.
const DefaultDir = "My Drive"

// Drive is a mounted drive.
type Drive struct {
	Mount string
	Dir   string
}

func (d *Drive) mount() string {
	if d.Mount == "" {
		return DefaultMount
	}
	return d.Mount
}

// Target is the directory copies are written to.
func (d *Drive) Target() string {
	dir := d.Dir
	if dir == "" {
		dir = DefaultDir
	}
	return filepath.Join(d.mount(), dir)
}

// Mounted returns ErrNotMounted when the mount point is absent.
func (d *Drive) Mounted() error {
	fi, err := os.Stat(d.mount())
	if err != nil || !fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotMounted, d.mount())
	}
	return nil
}

// Copy copies a file, or a directory tree, into Target under its base name.
func (d *Drive) Copy(path string) error {
	if err := d.Mounted(); err != nil {
		return err
	}
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrPathNotExist, path)
	}
	if err != nil {
		return err
	}
	if !fi.Mode().IsRegular() && !fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrPathNotRecognized, path)
	}
	dst := filepath.Join(d.Target(), filepath.Base(path))
	if err := cp.Copy(path, dst, cp.Options{Skip: skipIrregular}); err != nil {
		return fmt.Errorf("copy %s: %w", path, err)
	}
	log.Info().Str("src", path).Str("dst", dst).Msg("copied to drive")
	return nil
}

// skipIrregular drops sockets, devices and pipes found inside a tree.
func skipIrregular(info os.FileInfo, _, _ string) (bool, error) {
	return !info.Mode().IsRegular() && !info.IsDir() && info.Mode()&os.ModeSymlink == 0, nil
}
