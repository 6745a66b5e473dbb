package backingstore

import (
	"fmt"
	"os"
)

// FileStorage persists blocks in a single file, each block at the offset
// block * BlockSize. The file grows as higher block numbers are written.
type FileStorage struct {
	file *os.File
}

// NewFileStorage opens or creates the store file at path.
func NewFileStorage(path string) (*FileStorage, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening backing store: %w", err)
	}

	return &FileStorage{file: f}, nil
}

// WriteBlock writes one block at its file offset.
func (s *FileStorage) WriteBlock(data []byte, block uint32) error {
	if err := checkBlockAccess(data, block); err != nil {
		return err
	}

	_, err := s.file.WriteAt(data, int64(block)*BlockSize)

	return err
}

// ReadBlock reads one block from its file offset.
func (s *FileStorage) ReadBlock(data []byte, block uint32) error {
	if err := checkBlockAccess(data, block); err != nil {
		return err
	}

	_, err := s.file.ReadAt(data, int64(block)*BlockSize)

	return err
}

// Close closes the underlying file.
func (s *FileStorage) Close() error {
	return s.file.Close()
}
