package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// MemoryObjects is an in-memory bucket keyed by "bucket/object".
type MemoryObjects struct {
	mu      sync.Mutex
	Objects map[string][]byte
	// Err, when set, fails every call.
	Err error
}

func NewMemoryObjects() *MemoryObjects {
	return &MemoryObjects{Objects: map[string][]byte{}}
}

func (m *MemoryObjects) Put(bucket, object string, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[bucket+"/"+object] = body
}

func (m *MemoryObjects) DownloadToFile(_ context.Context, bucket, object, dst string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	body, ok := m.Objects[bucket+"/"+object]
	if !ok {
		return 0, fmt.Errorf("object gs://%s/%s not found", bucket, object)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}
	if err := os.WriteFile(dst, body, 0o644); err != nil {
		return 0, err
	}
	return int64(len(body)), nil
}

func (m *MemoryObjects) UploadFile(_ context.Context, bucket, object, src string) error {
	if m.Err != nil {
		return m.Err
	}
	body, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	m.Put(bucket, object, body)
	return nil
}

func (m *MemoryObjects) Exists(_ context.Context, bucket, object string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Objects[bucket+"/"+object]
	return ok, m.Err
}

func (m *MemoryObjects) ListObjects(_ context.Context, bucket, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.Objects {
		name, ok := strings.CutPrefix(k, bucket+"/")
		if ok && strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, m.Err
}

func (m *MemoryObjects) Close() error { return nil }
