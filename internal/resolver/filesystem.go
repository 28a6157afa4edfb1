package resolver

import (
	"errors"
	"io/fs"
	"os"
)

// FileSystem is the read-only view of local files the resolver works on.
type FileSystem interface {
	// Exists reports false with a nil error when name is absent.
	Exists(name string) (bool, error)
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
}

// OSFileSystem reads straight from the operating system. Names are used as
// given; callers decide how they are rooted.
type OSFileSystem struct{}

func (OSFileSystem) Exists(name string) (bool, error) {
	_, err := os.Stat(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (OSFileSystem) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

func (OSFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}
