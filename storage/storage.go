// Package storage abstracts where key files and metadata live. The interface
// is small on purpose: readers, atomic writers and simple folder operations,
// so that backends other than a local filesystem stay easy to add.
package storage

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/secure-systems-lab/go-securesystemslib"
)

// Backend stores and retrieves named blobs. Put must be atomic: a reader of
// name either sees the previous content or the complete new content, never a
// partial write.
type Backend interface {
	Get(name string) (io.ReadCloser, error)
	Put(r io.Reader, name string) error
	Remove(name string) error
	Size(name string) (int64, error)
	CreateFolder(name string) error
	ListFolder(name string) ([]string, error)
}

// FilesystemBackend implements Backend on an afero filesystem. Use
// afero.NewMemMapFs in tests and afero.NewOsFs (via NewOSBackend) in
// production.
type FilesystemBackend struct {
	fs afero.Fs
}

var _ Backend = (*FilesystemBackend)(nil)

func NewFilesystemBackend(fs afero.Fs) *FilesystemBackend {
	return &FilesystemBackend{fs: fs}
}

// NewOSBackend returns a backend on the host filesystem.
func NewOSBackend() *FilesystemBackend {
	return &FilesystemBackend{fs: afero.NewOsFs()}
}

func (b *FilesystemBackend) Get(name string) (io.ReadCloser, error) {
	f, err := b.fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	return f, nil
}

// Put writes r to a temporary file next to name and renames it into place,
// creating parent directories as needed.
func (b *FilesystemBackend) Put(r io.Reader, name string) error {
	dir := filepath.Dir(name)
	if err := b.fs.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating parent dir of %s: %w", name, err)
	}

	tmp, err := afero.TempFile(b.fs, dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		b.fs.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		b.fs.Remove(tmpName)
		return fmt.Errorf("closing temp file for %s: %w", name, err)
	}
	if err := b.fs.Rename(tmpName, name); err != nil {
		b.fs.Remove(tmpName)
		return fmt.Errorf("renaming into %s: %w", name, err)
	}
	return nil
}

func (b *FilesystemBackend) Remove(name string) error {
	if err := b.fs.Remove(name); err != nil {
		return fmt.Errorf("removing %s: %w", name, err)
	}
	return nil
}

func (b *FilesystemBackend) Size(name string) (int64, error) {
	info, err := b.fs.Stat(name)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", name, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("stat %s: is a directory", name)
	}
	return info.Size(), nil
}

func (b *FilesystemBackend) CreateFolder(name string) error {
	if err := b.fs.MkdirAll(name, 0o700); err != nil {
		return fmt.Errorf("creating folder %s: %w", name, err)
	}
	return nil
}

func (b *FilesystemBackend) ListFolder(name string) ([]string, error) {
	entries, err := afero.ReadDir(b.fs, name)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", name, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// LoadJSON reads the named blob and unmarshals it into v. Files with a .gz
// suffix are decompressed first.
func LoadJSON(b Backend, name string, v any) error {
	f, err := b.Get(name)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(name, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("%w: %s is not gzip data: %v", securesystemslib.ErrFormat, name, err)
		}
		defer gz.Close()
		r = gz
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s is not valid JSON: %v", securesystemslib.ErrFormat, name, err)
	}
	return nil
}
