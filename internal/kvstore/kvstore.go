// Package kvstore persists operator settings in an embedded BadgerDB
// key/value store. It is the external collaborator behind the core's
// SettingsKV contract; the dispatch core itself stays storage-free.
package kvstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/signalsfoundry/orbital-sentinel/model"
)

var settingsKey = []byte("settings/current")

// Store wraps a Badger database holding persisted preferences.
type Store struct {
	db *badger.DB
}

// Open opens (creating if needed) the database at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open settings store at %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a non-persistent store, used by tests and by runs that
// do not want state on disk.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory settings store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load implements core.SettingsKV. The boolean is false when no settings
// have ever been stored.
func (s *Store) Load() (model.Settings, bool, error) {
	var out model.Settings
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(settingsKey)
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &out)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return model.Settings{}, false, nil
	}
	if err != nil {
		return model.Settings{}, false, fmt.Errorf("load settings: %w", err)
	}
	return out, true, nil
}

// Store implements core.SettingsKV.
func (s *Store) Store(settings model.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(settingsKey, data)
	})
	if err != nil {
		return fmt.Errorf("store settings: %w", err)
	}
	return nil
}
