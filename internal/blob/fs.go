package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Filesystem keeps attachments in a local directory. Payloads live under
// <root>/objects mirroring the key paths; one manifest file at the root
// carries the attachment attributes for every key. The manifest is loaded
// on open and rewritten after each mutation, which suits the small
// per-check photo volumes this store holds.
type Filesystem struct {
	root    string
	objects string
	mu      sync.Mutex
	index   map[string]fsRecord
}

type fsRecord struct {
	Size        int64             `json:"size_bytes"`
	ContentType string            `json:"content_type,omitempty"`
	ETag        string            `json:"etag"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	StoredAt    time.Time         `json:"stored_at"`
}

const manifestName = "manifest.json"

// NewFilesystem opens (or initializes) an attachment directory at root.
func NewFilesystem(root string) (*Filesystem, error) {
	if root == "" {
		root = "./blobdata"
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve attachment root: %w", err)
	}
	objects := filepath.Join(abs, "objects")
	if err := os.MkdirAll(objects, 0o755); err != nil {
		return nil, fmt.Errorf("create attachment root: %w", err)
	}
	f := &Filesystem{root: abs, objects: objects, index: make(map[string]fsRecord)}
	if err := f.loadManifest(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Filesystem) Driver() Driver { return DriverFilesystem }

// cleanKey normalizes an attachment key and rejects anything that could
// leave the objects directory.
func cleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("blob: empty key")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("blob: absolute key %q", key)
	}
	clean := path.Clean(key)
	if clean == ".." || strings.HasPrefix(clean, "../") || strings.Contains(key, "..") {
		return "", fmt.Errorf("blob: key %q escapes the store", key)
	}
	return clean, nil
}

func (f *Filesystem) dataPath(key string) string {
	return filepath.Join(f.objects, filepath.FromSlash(key))
}

func (f *Filesystem) Put(_ context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	key, err := cleanKey(key)
	if err != nil {
		return Info{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.index[key]; taken {
		return Info{}, fmt.Errorf("%w: %s", ErrExists, key)
	}

	// Stream through a temp file, hashing as we go, then move into place.
	tmp, err := os.CreateTemp(f.objects, "upload-*")
	if err != nil {
		return Info{}, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	digest := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, digest), r)
	if cErr := tmp.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		return Info{}, fmt.Errorf("store attachment %s: %w", key, err)
	}

	dst := f.dataPath(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Info{}, err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return Info{}, err
	}

	rec := fsRecord{
		Size:        size,
		ContentType: opts.ContentType,
		ETag:        hex.EncodeToString(digest.Sum(nil)),
		Metadata:    cloneMetadata(opts.Metadata),
		StoredAt:    time.Now().UTC(),
	}
	f.index[key] = rec
	if err := f.saveManifest(); err != nil {
		return Info{}, err
	}
	return f.describe(key, rec), nil
}

func (f *Filesystem) Get(_ context.Context, key string) (Info, io.ReadCloser, error) {
	key, err := cleanKey(key)
	if err != nil {
		return Info{}, nil, err
	}
	f.mu.Lock()
	rec, ok := f.index[key]
	f.mu.Unlock()
	if !ok {
		return Info{}, nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	file, err := os.Open(f.dataPath(key))
	if err != nil {
		return Info{}, nil, fmt.Errorf("open attachment %s: %w", key, err)
	}
	return f.describe(key, rec), file, nil
}

func (f *Filesystem) Head(_ context.Context, key string) (Info, error) {
	key, err := cleanKey(key)
	if err != nil {
		return Info{}, err
	}
	f.mu.Lock()
	rec, ok := f.index[key]
	f.mu.Unlock()
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return f.describe(key, rec), nil
}

func (f *Filesystem) Delete(_ context.Context, key string) (bool, error) {
	key, err := cleanKey(key)
	if err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.index[key]; !ok {
		return false, nil
	}
	if err := os.Remove(f.dataPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	delete(f.index, key)
	if err := f.saveManifest(); err != nil {
		return false, err
	}
	return true, nil
}

func (f *Filesystem) List(_ context.Context, prefix string) ([]Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.index))
	for key := range f.index {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	infos := make([]Info, 0, len(keys))
	for _, key := range keys {
		infos = append(infos, f.describe(key, f.index[key]))
	}
	return infos, nil
}

// PresignURL hands out a file URL for local viewing; only GET makes sense
// for a directory-backed store.
func (f *Filesystem) PresignURL(_ context.Context, key string, opts SignedURLOptions) (string, error) {
	if opts.Method != "" && !strings.EqualFold(opts.Method, "GET") {
		return "", ErrUnsupported
	}
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return f.fileURL(key), nil
}

func (f *Filesystem) describe(key string, rec fsRecord) Info {
	return Info{
		Key:          key,
		Size:         rec.Size,
		ContentType:  rec.ContentType,
		ETag:         rec.ETag,
		Metadata:     cloneMetadata(rec.Metadata),
		LastModified: rec.StoredAt,
		URL:          f.fileURL(key),
	}
}

func (f *Filesystem) fileURL(key string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(f.dataPath(key))}
	return u.String()
}

func (f *Filesystem) loadManifest() error {
	raw, err := os.ReadFile(filepath.Join(f.root, manifestName))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read attachment manifest: %w", err)
	}
	if err := json.Unmarshal(raw, &f.index); err != nil {
		return fmt.Errorf("decode attachment manifest: %w", err)
	}
	return nil
}

func (f *Filesystem) saveManifest() error {
	raw, err := json.MarshalIndent(f.index, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.root, "manifest-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(f.root, manifestName))
}
