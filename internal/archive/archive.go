// Package archive stores generated teacher reports as files under a single
// directory. Files are created once and never overwritten.
package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNotFound is returned when a report name does not resolve to a stored file.
var ErrNotFound = errors.New("report not found")

// ErrExists is returned by Put when the name is already taken.
var ErrExists = errors.New("report already exists")

// FileInfo describes one stored report.
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Store is a directory of report files.
type Store struct {
	base    string
	pattern string
}

// New opens (creating if needed) the report directory. Only files matching
// pattern (a filepath.Match glob) are listed.
func New(base, pattern string) (*Store, error) {
	if base == "" {
		base = "./teacher_reports"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	return &Store{base: base, pattern: pattern}, nil
}

// Dir returns the report directory.
func (s *Store) Dir() string {
	return s.base
}

// Put writes r to a new file called name.
func (s *Store) Put(name string, r io.Reader) error {
	if !validName(name) {
		return fmt.Errorf("invalid report name %q", name)
	}
	dst := filepath.Join(s.base, name)
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", name, ErrExists)
		}
		return fmt.Errorf("create report: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	return nil
}

// Open returns the named report. Names with path separators or dot segments
// are rejected as not found.
func (s *Store) Open(name string) (*os.File, error) {
	if !validName(name) {
		return nil, ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.base, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !st.Mode().IsRegular() {
		f.Close()
		return nil, ErrNotFound
	}
	return f, nil
}

// Remove deletes the named report.
func (s *Store) Remove(name string) error {
	if !validName(name) {
		return ErrNotFound
	}
	err := os.Remove(filepath.Join(s.base, name))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("remove report: %w", err)
	}
	return nil
}

// List returns the stored reports, newest first.
func (s *Store) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.base)
	if err != nil {
		return nil, fmt.Errorf("read report dir: %w", err)
	}
	var files []FileInfo
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if s.pattern != "" {
			if ok, _ := filepath.Match(s.pattern, e.Name()); !ok {
				continue
			}
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name > files[j].Name
		}
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return filepath.Base(name) == name
}
