package filestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"museum-ticketing/errs"

	"github.com/google/uuid"
)

// Upload limits for payment-proof images.
const MaxFileSize = 5 * 1024 * 1024 // 5MB

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// Store persists raw payment-proof bytes and returns an opaque reference.
// The ledger only ever keeps the reference.
type Store interface {
	Save(filename string, data []byte) (string, error)
}

// ValidateProof checks the filename extension and size before storage.
func ValidateProof(filename string, size int) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return errs.Validation("file", "only PNG, JPG, JPEG and GIF images are accepted")
	}
	if size > MaxFileSize {
		return errs.Validation("file", "file too large (max 5MB)")
	}
	if size == 0 {
		return errs.Validation("file", "file is empty")
	}
	return nil
}

// DiskStore writes proofs under a local directory using random names so
// the stored reference leaks nothing about the uploader.
type DiskStore struct {
	Dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskStore{Dir: dir}, nil
}

func (s *DiskStore) Save(filename string, data []byte) (string, error) {
	if err := ValidateProof(filename, len(data)); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	ref := "proof_" + uuid.NewString() + ext

	if err := os.WriteFile(filepath.Join(s.Dir, ref), data, 0o644); err != nil {
		return "", errs.Storage("save proof file", err)
	}

	return ref, nil
}
