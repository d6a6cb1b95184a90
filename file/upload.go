package file

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Naming decides how an uploaded file is named on disk.
type Naming string

const (
	// NamingGenerated stores every upload under a fresh random key.
	NamingGenerated Naming = "generated"
	// NamingClient keeps the base name sent by the client. Same-named uploads overwrite each other.
	NamingClient Naming = "client"
)

var ErrEmptyFilename = errors.New("empty filename")

// UploadStore saves uploaded images into a local directory.
type UploadStore struct {
	dir    string
	naming Naming
}

// NewUploadStore creates dir if needed and returns a store writing into it.
func NewUploadStore(dir string, naming Naming) (*UploadStore, error) {
	switch naming {
	case NamingGenerated, NamingClient:
	default:
		return nil, fmt.Errorf("unsupported upload naming %q", naming)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &UploadStore{dir: dir, naming: naming}, nil
}

// Save copies r into the upload directory and returns the path written.
func (s *UploadStore) Save(filename string, r io.Reader) (string, error) {
	name, err := s.storageName(filename)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}

	return path, f.Close()
}

func (s *UploadStore) storageName(filename string) (string, error) {
	base := filepath.Base(filepath.Clean("/" + filename))
	if base == "/" || base == "." {
		return "", ErrEmptyFilename
	}

	if s.naming == NamingClient {
		return base, nil
	}
	return uuid.NewString() + strings.ToLower(filepath.Ext(base)), nil
}
