package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

type memObject struct {
	data        []byte
	contentType string
}

// MemoryStorage is an in-memory Storage implementation for tests and
// local development. It is safe for concurrent use.
type MemoryStorage struct {
	mu      sync.RWMutex
	buckets map[string]map[string]memObject
	public  map[string]bool
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		buckets: make(map[string]map[string]memObject),
		public:  make(map[string]bool),
	}
}

func (m *MemoryStorage) BucketExists(_ context.Context, bucket string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.buckets[bucket]
	return ok, nil
}

func (m *MemoryStorage) CreateBucket(_ context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[bucket]; ok {
		return ErrBucketExists
	}
	m.buckets[bucket] = make(map[string]memObject)
	return nil
}

func (m *MemoryStorage) SetPublicReadPolicy(_ context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[bucket]; !ok {
		return ErrBucketNotFound
	}
	m.public[bucket] = true
	return nil
}

// IsPublic reports whether the public-read policy was applied.
func (m *MemoryStorage) IsPublic(bucket string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.public[bucket]
}

func (m *MemoryStorage) DeleteBucket(_ context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	objs, ok := m.buckets[bucket]
	if !ok {
		return ErrBucketNotFound
	}
	if len(objs) > 0 {
		return ErrBucketNotEmpty
	}
	delete(m.buckets, bucket)
	delete(m.public, bucket)
	return nil
}

func (m *MemoryStorage) ListObjects(_ context.Context, bucket string) ([]ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	objs, ok := m.buckets[bucket]
	if !ok {
		return nil, ErrBucketNotFound
	}
	infos := make([]ObjectInfo, 0, len(objs))
	for key, obj := range objs {
		infos = append(infos, ObjectInfo{
			Key:         key,
			ContentType: obj.contentType,
			Size:        int64(len(obj.data)),
		})
	}
	return infos, nil
}

func (m *MemoryStorage) Get(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.buckets[bucket][key]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (m *MemoryStorage) Put(_ context.Context, bucket, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	objs, ok := m.buckets[bucket]
	if !ok {
		return ErrBucketNotFound
	}
	objs[key] = memObject{data: data, contentType: contentType}
	return nil
}

func (m *MemoryStorage) Stat(_ context.Context, bucket, key string) (*ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.buckets[bucket][key]
	if !ok {
		return nil, ErrNotFound
	}
	return &ObjectInfo{Key: key, ContentType: obj.contentType, Size: int64(len(obj.data))}, nil
}

func (m *MemoryStorage) Delete(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buckets[bucket], key)
	return nil
}

func (m *MemoryStorage) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("https://memory.local/%s/%s?method=GET&expires=%d", bucket, key, int64(expiry.Seconds())), nil
}

func (m *MemoryStorage) PresignPut(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("https://memory.local/%s/%s?method=PUT&expires=%d", bucket, key, int64(expiry.Seconds())), nil
}

func (m *MemoryStorage) PublicURL(bucket, key string) string {
	return fmt.Sprintf("https://memory.local/%s/%s", bucket, key)
}

var _ Storage = (*MemoryStorage)(nil)
