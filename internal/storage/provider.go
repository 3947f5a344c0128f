// Package storage reads bookmark documents and writes results to disk.
package storage

import "time"

// Document describes a bookmark file found by List.
type Document struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for document file operations.
type Provider interface {
	// List returns every bookmark document (.html, .htm, .json) under dir.
	List(dir string) ([]Document, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path with content.
	Write(path string, content []byte) error
	// SamePath reports whether a and b name the same file.
	SamePath(a, b string) (bool, error)
}
