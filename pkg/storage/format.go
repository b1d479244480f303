package storage

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

const (
	// Magic bytes to identify our file format
	MagicBytes = "DOCP"
	// Current version: msgpack body inside an lz4 frame
	FormatVersion = 2
	// File extension for snapshot files
	FileExtension = ".snapshot"
)

// FileHeader represents the header of a snapshot file
type FileHeader struct {
	Magic    [4]byte // "DOCP"
	Version  uint8   // Format version
	Flags    uint8   // Reserved for future use
	Reserved [2]byte // Reserved for future use
}

// WriteHeader writes the file header to the given writer
func WriteHeader(w io.Writer) error {
	header := FileHeader{
		Magic:   [4]byte{'D', 'O', 'C', 'P'},
		Version: FormatVersion,
	}

	return binary.Write(w, binary.LittleEndian, header)
}

// ReadHeader reads and validates the file header
func ReadHeader(r io.Reader) (*FileHeader, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	if string(header.Magic[:]) != MagicBytes {
		return nil, fmt.Errorf("invalid file format: expected %s, got %s", MagicBytes, string(header.Magic[:]))
	}

	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported file version: %d", header.Version)
	}

	return &header, nil
}

// StorageData is the snapshot body
type StorageData struct {
	Collections map[string]*CollectionData `msgpack:"collections"`
	SavedAt     int64                      `msgpack:"saved_at"`
}

// CollectionData holds one collection in insertion order
type CollectionData struct {
	NextID    int64             `msgpack:"next_id"`
	Indexes   []string          `msgpack:"indexes,omitempty"`
	Documents []domain.Document `msgpack:"documents"`
}

// NewStorageData creates a new empty storage data structure
func NewStorageData() *StorageData {
	return &StorageData{
		Collections: make(map[string]*CollectionData),
	}
}
