// Package store persists engine snapshots.  Badger holds the latest state
// on local disk; the MinIO archiver keeps periodic copies in object
// storage.
package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/Qiyd81/flightsurety-2/internal/surety"
)

var (
	snapshotKey = []byte("surety/snapshot")
	seqKey      = []byte("surety/seq")
)

const maxConflictRetries = 3

// SnapshotStore keeps the most recent engine snapshot in Badger.
type SnapshotStore struct {
	db  *badger.DB
	log logrus.FieldLogger
}

// Open opens (or creates) a store under dir.  An empty dir keeps everything
// in memory.
func Open(dir string, log logrus.FieldLogger) (*SnapshotStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open badger: %w", err)
	}
	return &SnapshotStore{db: db, log: log}, nil
}

// Close releases the underlying database.
func (s *SnapshotStore) Close() error { return s.db.Close() }

// SaveSnapshot writes snap unless a snapshot with the same or a later
// sequence number is already stored.  Commits run concurrently, so saves
// can arrive out of order.
func (s *SnapshotStore) SaveSnapshot(_ context.Context, snap surety.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("store: marshal snapshot: %w", err)
	}
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], snap.Seq)

	for attempt := 0; ; attempt++ {
		err = s.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(seqKey)
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
			case err != nil:
				return err
			default:
				var stored uint64
				if err := item.Value(func(val []byte) error {
					stored = binary.BigEndian.Uint64(val)
					return nil
				}); err != nil {
					return err
				}
				if stored >= snap.Seq {
					return nil
				}
			}
			if err := txn.Set(snapshotKey, body); err != nil {
				return err
			}
			return txn.Set(seqKey, seq[:])
		})
		if !errors.Is(err, badger.ErrConflict) || attempt >= maxConflictRetries {
			break
		}
		s.log.WithField("seq", snap.Seq).Debug("store: snapshot save conflicted, retrying")
	}
	if err != nil {
		return fmt.Errorf("store: save snapshot %d: %w", snap.Seq, err)
	}
	return nil
}

// Load returns the stored snapshot, or nil when the store is empty.
func (s *SnapshotStore) Load(_ context.Context) (*surety.Snapshot, error) {
	var snap *surety.Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			snap = &surety.Snapshot{}
			return json.Unmarshal(val, snap)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: load snapshot: %w", err)
	}
	return snap, nil
}
