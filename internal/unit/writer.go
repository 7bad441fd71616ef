package unit

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/firefly-engineering/conduit-console/internal/config"
	"github.com/firefly-engineering/conduit-console/internal/system"
)

// Writer manages unit files inside a single directory.
type Writer struct {
	Dir    string
	Prefix string
	FS     system.FileSystem
}

// NewWriter returns a Writer backed by the real filesystem.
func NewWriter(dir, prefix string) *Writer {
	return &Writer{Dir: dir, Prefix: prefix, FS: system.DefaultFS()}
}

func (w *Writer) path(file string) (string, error) {
	if file == "" || strings.ContainsRune(file, '/') {
		return "", fmt.Errorf("invalid unit file name: %q", file)
	}
	return securejoin.SecureJoin(w.Dir, file)
}

// Install renders and writes the unit for c, returning its path.
// Container-backed conduits are refused before anything touches disk.
func (w *Writer) Install(c *config.Conduit, opts Options) (string, error) {
	data, err := Render(c, opts)
	if err != nil {
		return "", err
	}

	p, err := w.path(Name(w.Prefix, c))
	if err != nil {
		return "", err
	}
	if err := w.FS.MkdirAll(w.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create unit directory: %w", err)
	}
	if err := w.FS.WriteFile(p, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write unit file: %w", err)
	}
	return p, nil
}

// Remove deletes a unit file by name. A missing file is not an error.
func (w *Writer) Remove(file string) error {
	p, err := w.path(file)
	if err != nil {
		return err
	}
	if err := w.FS.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove unit file: %w", err)
	}
	return nil
}

// Exists reports whether the named unit file is present.
func (w *Writer) Exists(file string) bool {
	p, err := w.path(file)
	if err != nil {
		return false
	}
	return w.FS.Exists(p)
}

// Managed reports whether the named unit file exists and was generated
// by this tool.
func (w *Writer) Managed(file string) bool {
	p, err := w.path(file)
	if err != nil {
		return false
	}
	data, err := w.FS.ReadFile(p)
	if err != nil {
		return false
	}
	return IsManaged(data)
}

// List returns unit file names that carry the writer's prefix, sorted.
func (w *Writer) List() ([]string, error) {
	entries, err := w.FS.ReadDir(w.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read unit directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), w.Prefix) || !strings.HasSuffix(e.Name(), Suffix) {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

// LegacyDockerUnits returns the prefixed "*-docker.service" files.
func (w *Writer) LegacyDockerUnits() ([]string, error) {
	files, err := w.List()
	if err != nil {
		return nil, err
	}
	var legacy []string
	for _, f := range files {
		if IsLegacyDockerUnit(f) {
			legacy = append(legacy, f)
		}
	}
	return legacy, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
