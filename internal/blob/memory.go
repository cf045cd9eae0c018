package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory keeps attachments in process memory. It backs tests and the
// default development configuration where photos need not survive restarts.
type Memory struct {
	mu      sync.Mutex
	objects map[string]memObject
}

type memObject struct {
	info    Info
	payload []byte
}

// NewMemory returns an empty in-memory attachment store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]memObject)}
}

func (m *Memory) Driver() Driver { return DriverMemory }

func (m *Memory) Put(_ context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return Info{}, fmt.Errorf("read attachment %s: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.objects[key]; taken {
		return Info{}, fmt.Errorf("%w: %s", ErrExists, key)
	}
	info := Info{
		Key:          key,
		Size:         int64(len(payload)),
		ContentType:  opts.ContentType,
		Metadata:     cloneMetadata(opts.Metadata),
		LastModified: time.Now().UTC(),
	}
	m.objects[key] = memObject{info: info, payload: payload}
	return info, nil
}

func (m *Memory) Get(_ context.Context, key string) (Info, io.ReadCloser, error) {
	m.mu.Lock()
	obj, ok := m.objects[key]
	m.mu.Unlock()
	if !ok {
		return Info{}, nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	// Readers get their own copy so later deletes cannot race the payload.
	payload := append([]byte(nil), obj.payload...)
	return obj.describe(), io.NopCloser(bytes.NewReader(payload)), nil
}

func (m *Memory) Head(_ context.Context, key string) (Info, error) {
	m.mu.Lock()
	obj, ok := m.objects[key]
	m.mu.Unlock()
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return obj.describe(), nil
}

func (m *Memory) Delete(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return false, nil
	}
	delete(m.objects, key)
	return true, nil
}

func (m *Memory) List(_ context.Context, prefix string) ([]Info, error) {
	m.mu.Lock()
	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	infos := make([]Info, 0, len(keys))
	for _, key := range keys {
		infos = append(infos, m.objects[key].describe())
	}
	m.mu.Unlock()
	return infos, nil
}

func (m *Memory) PresignURL(_ context.Context, _ string, _ SignedURLOptions) (string, error) {
	return "", ErrUnsupported
}

func (o memObject) describe() Info {
	info := o.info
	info.Metadata = cloneMetadata(info.Metadata)
	return info
}
