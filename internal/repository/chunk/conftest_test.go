package chunk

import (
	"context"
	"path"
	"sort"
	"sync"

	"github.com/matkb-cloud/matkb/internal/db"
)

// fakeStore is an in-memory hash store for repository tests.
type fakeStore struct {
	mu     sync.Mutex
	hashes map[string]map[string]string
	err    error // returned by every op when set
}

func newFakeStore() *fakeStore {
	return &fakeStore{hashes: make(map[string]map[string]string)}
}

func (f *fakeStore) HSet(_ context.Context, key string, fields map[string]string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	f.hashes[key] = cp
	return nil
}

func (f *fakeStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	for _, item := range items {
		if err := f.HSet(ctx, item.Key, item.Fields); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.hashes[key]
	if !ok {
		return map[string]string{}, nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp, nil
}

func (f *fakeStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		m, err := f.HGetAll(ctx, k)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

func (f *fakeStore) Scan(_ context.Context, pattern string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.hashes {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
