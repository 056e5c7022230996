// Package storage is the byte-level persistent storage contract of the device
// and its backends.
//
// Paths are slash separated and rooted ("/config.json"), the way the flash
// filesystem on the board addresses them.
package storage

import (
	"errors"
	"path"
	"strings"
)

var (
	// ErrNotExist is returned by Read and Delete for a missing path.
	ErrNotExist = errors.New("storage: path does not exist")

	// ErrUnavailable is returned while the storage could not be mounted.
	ErrUnavailable = errors.New("storage: unavailable")
)

// Storage reads, writes and deletes whole files.
type Storage interface {
	// Mount prepares the backend. Operations before a successful Mount
	// return ErrUnavailable.
	Mount() error
	Read(name string) ([]byte, error)
	// Write replaces the file as a whole; readers never observe a partial write.
	Write(name string, data []byte) error
	Delete(name string) error
}

// clean normalises a storage path and rejects escapes from the root.
func clean(name string) (string, error) {
	if name == "" || strings.ContainsRune(name, 0) {
		return "", errors.New("storage: invalid path")
	}
	p := path.Clean("/" + name)
	if p == "/" {
		return "", errors.New("storage: invalid path")
	}
	return p, nil
}
