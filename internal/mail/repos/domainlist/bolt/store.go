package bolt

import (
	"encoding/binary"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"
)

var (
	bucketBlock = []byte("block")
	bucketAllow = []byte("allow")
	bucketMeta  = []byte("meta")
)

// Stats captures counts and metadata for a snapshot.
type Stats struct {
	BlockCount  uint64
	AllowCount  uint64
	Version     uint64
	UpdatedUnix int64 // seconds since epoch
}

// Store persists block/allow domain lists in a bbolt database so the daemon
// can restart without re-reading list files or re-fetching feeds. Domains are
// keyed by a big-endian insertion index, which keeps Load order identical to
// the order given to RebuildAll.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) a snapshot database at path and ensures buckets exist.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketBlock, bucketAllow, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init snapshot %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// RebuildAll replaces both lists and the metadata in a single transaction.
func (s *Store) RebuildAll(block, allow []string, version uint64, updatedUnix int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := rebuildBucket(tx, bucketBlock, block); err != nil {
			return err
		}
		if err := rebuildBucket(tx, bucketAllow, allow); err != nil {
			return err
		}
		b, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		vbuf := make([]byte, 8)
		ubuf := make([]byte, 8)
		binary.BigEndian.PutUint64(vbuf, version)
		binary.BigEndian.PutUint64(ubuf, uint64(updatedUnix))
		if err := b.Put([]byte("version"), vbuf); err != nil {
			return err
		}
		return b.Put([]byte("updated"), ubuf)
	})
}

// Load returns both lists in stored (insertion) order.
func (s *Store) Load() (block, allow []string, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		block = readBucket(tx, bucketBlock)
		allow = readBucket(tx, bucketAllow)
		return nil
	})
	return block, allow, err
}

// Stats returns counts and snapshot metadata.
func (s *Store) Stats() Stats {
	st := Stats{}
	_ = s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketBlock); b != nil {
			st.BlockCount = uint64(b.Stats().KeyN)
		}
		if b := tx.Bucket(bucketAllow); b != nil {
			st.AllowCount = uint64(b.Stats().KeyN)
		}
		if b := tx.Bucket(bucketMeta); b != nil {
			if v := b.Get([]byte("version")); len(v) == 8 {
				st.Version = binary.BigEndian.Uint64(v)
			}
			if v := b.Get([]byte("updated")); len(v) == 8 {
				st.UpdatedUnix = int64(binary.BigEndian.Uint64(v))
			}
		}
		return nil
	})
	return st
}

// rebuildBucket drops and recreates a list bucket, writing domains under
// monotonically increasing index keys.
func rebuildBucket(tx *bbolt.Tx, name []byte, domains []string) error {
	if tx.Bucket(name) != nil {
		if err := tx.DeleteBucket(name); err != nil {
			return err
		}
	}
	b, err := tx.CreateBucket(name)
	if err != nil {
		return err
	}
	for i, d := range domains {
		// bbolt holds on to key slices for the life of the tx
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, uint64(i))
		if err := b.Put(key, []byte(d)); err != nil {
			return err
		}
	}
	return nil
}

// readBucket returns bucket values in key order.
func readBucket(tx *bbolt.Tx, name []byte) []string {
	b := tx.Bucket(name)
	if b == nil {
		return nil
	}
	out := make([]string, 0, b.Stats().KeyN)
	_ = b.ForEach(func(_, v []byte) error {
		out = append(out, string(v))
		return nil
	})
	return out
}
