package storage

import (
	"time"

	"github.com/boltdb/bolt"
)

var journalBucket = []byte("toyml_journal")

type boltStorage struct {
	db *bolt.DB
}

func openBoltStorage(path string) (Storage, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 10 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(journalBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &boltStorage{db}, nil
}

func (s *boltStorage) WALName() string {
	return s.db.Path()
}

func (s *boltStorage) Set(k []byte, v []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(journalBucket).Put(k, v)
	})
}

// Get returns a copy of the value, nil when k is absent.
func (s *boltStorage) Get(k []byte) (b []byte, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(journalBucket).Get(k); v != nil {
			b = append([]byte(nil), v...)
		}
		return nil
	})
	return
}

func (s *boltStorage) Delete(k []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(journalBucket).Delete(k)
	})
}

func (s *boltStorage) ForEach(fn func(k, v []byte) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(journalBucket).ForEach(fn)
	})
}

func (s *boltStorage) Close() error {
	return s.db.Close()
}
