package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Dir stores files below a host directory.
type Dir struct {
	root string

	mu      sync.Mutex
	mounted bool
}

// NewDir returns a backend rooted at root. The directory is created on Mount.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Root returns the host directory.
func (d *Dir) Root() string { return d.root }

// Mount creates the root directory and checks it is writable.
func (d *Dir) Mount() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.MkdirAll(d.root, 0700); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	info, err := os.Stat(d.root)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrUnavailable, d.root)
	}
	d.mounted = true
	return nil
}

func (d *Dir) hostPath(name string) (string, error) {
	if !d.mounted {
		return "", ErrUnavailable
	}
	p, err := clean(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.root, filepath.FromSlash(p)), nil
}

// Read returns the file contents.
func (d *Dir) Read(name string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, err := d.hostPath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotExist
	}
	return data, err
}

// Write replaces the file through a temporary file and a rename.
func (d *Dir) Write(name string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, err := d.hostPath(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}

// Delete removes the file.
func (d *Dir) Delete(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, err := d.hostPath(name)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotExist
	}
	return err
}
