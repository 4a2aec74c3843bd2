package account

import (
	"context"

	"github.com/jobxpress/creditgate/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hashes map[string]map[string]string
	kv     map[string][]byte

	hsetFn      func(ctx context.Context, key string, fields map[string]string) error
	hgetAllFn   func(ctx context.Context, key string) (map[string]string, error)
	runScriptFn func(ctx context.Context, src string, keys, args []string) (int64, error)
}

func newMockStore() *mockStore {
	return &mockStore{
		hashes: make(map[string]map[string]string),
		kv:     make(map[string][]byte),
	}
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return m.hashes[key], nil
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	m.kv[key] = value
	return nil
}

func (m *mockStore) RunScript(ctx context.Context, src string, keys, args []string) (int64, error) {
	if m.runScriptFn != nil {
		return m.runScriptFn(ctx, src, keys, args)
	}
	return 0, nil
}
