package repository

import (
	"context"
)

// KVStore defines the string-keyed persistence the game state lives in
type KVStore interface {
	// Get returns the value for key; ok is false when the key is absent
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Namespace scopes every key of store under prefix
func Namespace(store KVStore, prefix string) KVStore {
	return &namespaced{store: store, prefix: prefix}
}

type namespaced struct {
	store  KVStore
	prefix string
}

func (n *namespaced) key(k string) string {
	return n.prefix + ":" + k
}

func (n *namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	return n.store.Get(ctx, n.key(key))
}

func (n *namespaced) Set(ctx context.Context, key, value string) error {
	return n.store.Set(ctx, n.key(key), value)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.store.Delete(ctx, n.key(key))
}
