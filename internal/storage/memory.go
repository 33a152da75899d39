package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryBucket is an in-memory Bucket for tests and offline use.
// Thread-safe; object bodies are copied on the way in and out.
type MemoryBucket struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data     []byte
	modified time.Time
}

func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{objects: make(map[string]memoryObject)}
}

func (m *MemoryBucket) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]byte, len(data))
	copy(copied, data)
	m.objects[key] = memoryObject{data: copied, modified: time.Now().UTC()}
	return nil
}

func (m *MemoryBucket) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	copied := make([]byte, len(obj.data))
	copy(copied, obj.data)
	return copied, nil
}

func (m *MemoryBucket) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, key)
	return nil
}

func (m *MemoryBucket) Stat(_ context.Context, key string) (ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return ObjectInfo{}, ErrNotFound
	}
	return ObjectInfo{Key: key, Size: int64(len(obj.data)), LastModified: obj.modified}, nil
}

func (m *MemoryBucket) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var infos []ObjectInfo
	for key, obj := range m.objects {
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			continue
		}
		infos = append(infos, ObjectInfo{Key: key, Size: int64(len(obj.data)), LastModified: obj.modified})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (m *MemoryBucket) Ensure(context.Context) error { return nil }
