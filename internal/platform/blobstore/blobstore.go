// Package blobstore stores uploaded photos outside the database. Upload
// handlers hand it raw multipart content and keep only the returned object
// name; the database rows never carry image bytes.
package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("object not found")
	ErrTooLarge          = errors.New("file exceeds maximum allowed size")
	ErrUnsupportedFormat = errors.New("file is not a supported image format")
)

// MaxPhotoSize is the maximum accepted upload size in bytes (10 MB).
const MaxPhotoSize = 10 * 1024 * 1024

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

// Store is the storage boundary for uploaded photos. Save sniffs the
// content, rejects anything that is not an accepted image, and returns the
// generated object name. Open returns the content with its MIME type.
type Store interface {
	Save(ctx context.Context, content io.Reader) (string, error)
	Open(ctx context.Context, object string) (io.ReadCloser, string, error)
	Remove(ctx context.Context, object string) error
}

// readPhoto drains the upload within the size bound and verifies the bytes
// are an accepted image format. Returns the content and its detected type.
func readPhoto(content io.Reader) ([]byte, *mimetype.MIME, error) {
	data, err := io.ReadAll(io.LimitReader(content, MaxPhotoSize+1))
	if err != nil {
		return nil, nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > MaxPhotoSize {
		return nil, nil, ErrTooLarge
	}

	mtype := mimetype.Detect(data)
	for _, allowed := range allowedImageTypes {
		if mtype.Is(allowed) {
			return data, mtype, nil
		}
	}
	return nil, nil, ErrUnsupportedFormat
}

// Disk stores objects as flat files under a root directory, named by a
// generated UUID plus the extension of the sniffed type.
type Disk struct {
	root string
}

func NewDisk(root string) (*Disk, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory %s: %w", root, err)
	}
	return &Disk{root: root}, nil
}

func (d *Disk) Save(_ context.Context, content io.Reader) (string, error) {
	data, mtype, err := readPhoto(content)
	if err != nil {
		return "", err
	}

	object := uuid.NewString() + mtype.Extension()
	if err := os.WriteFile(filepath.Join(d.root, object), data, 0o644); err != nil {
		return "", fmt.Errorf("write object %s: %w", object, err)
	}
	return object, nil
}

func (d *Disk) Open(_ context.Context, object string) (io.ReadCloser, string, error) {
	// Object names are flat UUIDs; anything path-like is not ours.
	if object == "" || filepath.Base(object) != object {
		return nil, "", ErrNotFound
	}

	f, err := os.Open(filepath.Join(d.root, object))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("open object %s: %w", object, err)
	}
	return f, contentTypeByExtension(object), nil
}

func (d *Disk) Remove(_ context.Context, object string) error {
	if object == "" || filepath.Base(object) != object {
		return ErrNotFound
	}

	if err := os.Remove(filepath.Join(d.root, object)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("remove object %s: %w", object, err)
	}
	return nil
}

func contentTypeByExtension(object string) string {
	switch filepath.Ext(object) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// Memory is a thread-safe in-memory Store for tests and development.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data     []byte
	mimeType string
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]memoryObject)}
}

func (m *Memory) Save(_ context.Context, content io.Reader) (string, error) {
	data, mtype, err := readPhoto(content)
	if err != nil {
		return "", err
	}

	object := uuid.NewString() + mtype.Extension()
	m.mu.Lock()
	m.objects[object] = memoryObject{data: data, mimeType: mtype.String()}
	m.mu.Unlock()
	return object, nil
}

func (m *Memory) Open(_ context.Context, object string) (io.ReadCloser, string, error) {
	m.mu.RLock()
	obj, ok := m.objects[object]
	m.mu.RUnlock()

	if !ok {
		return nil, "", ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.mimeType, nil
}

func (m *Memory) Remove(_ context.Context, object string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[object]; !ok {
		return ErrNotFound
	}
	delete(m.objects, object)
	return nil
}
