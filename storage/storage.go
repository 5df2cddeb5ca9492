package storage

import (
	"fmt"
)

const DefaultStorageEngine = "bolt"

var supportedStorage = map[string]func(path string) (Storage, error){
	"kv":   openKVStorage,
	"bolt": openBoltStorage,
}

// Storage is an ordered key/value store. ForEach visits keys in
// ascending byte order.
type Storage interface {
	Set(k, v []byte) error
	Get(k []byte) ([]byte, error)
	Delete(k []byte) error
	ForEach(fn func(k, v []byte) error) error
	Close() error
	WALName() string
}

// OpenStorage opens or creates the store at path with the named engine.
// An empty engine means DefaultStorageEngine.
func OpenStorage(path, engine string) (Storage, error) {
	if engine == "" {
		engine = DefaultStorageEngine
	}
	if fn, has := supportedStorage[engine]; has {
		return fn(path)
	}
	return nil, fmt.Errorf("unsupported storage engine %v", engine)
}
