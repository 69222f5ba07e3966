package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/bitmark-inc/logger"
	"github.com/dgraph-io/badger/v4"

	"github.com/vjranagit/isstracker/pkg/fault"
	"github.com/vjranagit/isstracker/pkg/types"
)

// Storage interface defines the contract for the state vector cache
type Storage interface {
	// Exists reports whether a sample is stored under key
	Exists(key string) (bool, error)

	// Get returns the sample stored under key
	Get(key string) (*types.StateVector, error)

	// UpsertIfChanged inserts, overwrites or leaves alone the sample under key
	UpsertIfChanged(key string, sv *types.StateVector) (types.UpsertResult, error)

	// ListAll returns every sample in index order
	ListAll() ([]types.StateVector, error)

	// Keys returns every epoch key in index order
	Keys() ([]string, error)

	// Count returns the number of index entries
	Count() (int, error)

	// Verify checks the index and the samples against each other
	Verify() (*VerifyReport, error)

	// Close closes the storage
	Close() error
}

// Config holds storage configuration
type Config struct {
	Path             string
	CompressionLevel int
	InMemory         bool
	SyncWrites       bool
}

// DefaultConfig returns default storage configuration
func DefaultConfig() *Config {
	return &Config{
		Path:             "./data",
		CompressionLevel: 3,
	}
}

// badgerStorage implements Storage using BadgerDB
type badgerStorage struct {
	cfg        *Config
	db         *badger.DB
	index      *Index
	compressor *Compressor
	log        *logger.L

	// serialises writers only; readers use badger snapshots
	mu sync.Mutex
}

// NewStorage creates a new storage instance
func NewStorage(cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	// Initialize BadgerDB
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(filepath.Join(cfg.Path, "badger"))
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts.Logger = nil // Disable BadgerDB logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	compressor, err := NewCompressor(cfg.CompressionLevel)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create compressor: %w", err)
	}

	index, err := loadIndex(db)
	if err != nil {
		compressor.Close()
		db.Close()
		return nil, fmt.Errorf("failed to load epoch index: %w", err)
	}

	s := &badgerStorage{
		cfg:        cfg,
		db:         db,
		index:      index,
		compressor: compressor,
		log:        logger.New("storage"),
	}
	s.log.Infof("opened store at %q, next index sequence: %d", cfg.Path, index.Peek())

	return s, nil
}

// Exists implements Storage.Exists
func (s *badgerStorage) Exists(key string) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(sampleKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to check epoch %q: %w", key, err)
	}
	return found, nil
}

// Get implements Storage.Get
func (s *badgerStorage) Get(key string) (*types.StateVector, error) {
	var sv *types.StateVector
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		sv, err = s.readSample(txn, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sv, nil
}

// UpsertIfChanged implements Storage.UpsertIfChanged
//
// The existence check, the comparison and both writes happen in one
// read-write transaction under the writer lock, so two callers racing
// on the same new key append exactly one index entry.
func (s *badgerStorage) UpsertIfChanged(key string, sv *types.StateVector) (types.UpsertResult, error) {
	if sv == nil || sv.Epoch != key {
		return types.Unchanged, fault.ErrKeyMismatch
	}

	payload, err := s.encode(sv)
	if err != nil {
		return types.Unchanged, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := types.Unchanged
	seq := s.index.Peek()
	err = s.db.Update(func(txn *badger.Txn) error {
		stored, err := s.readSample(txn, key)
		switch {
		case errors.Is(err, fault.ErrNotFoundEpoch):
			if err := txn.Set(sampleKey(key), payload); err != nil {
				return err
			}
			if err := txn.Set(indexKey(seq), []byte(key)); err != nil {
				return err
			}
			result = types.Inserted
			return nil

		case err != nil:
			return err

		case *stored == *sv:
			result = types.Unchanged
			return nil

		default:
			result = types.Updated
			return txn.Set(sampleKey(key), payload)
		}
	})
	if err != nil {
		return types.Unchanged, fmt.Errorf("failed to upsert epoch %q: %w", key, err)
	}

	if result == types.Inserted {
		s.index.Advance()
	}
	s.log.Debugf("upsert %s: %s", key, result)
	return result, nil
}

// ListAll implements Storage.ListAll
func (s *badgerStorage) ListAll() ([]types.StateVector, error) {
	var vectors []types.StateVector
	err := s.db.View(func(txn *badger.Txn) error {
		keys, err := scanIndex(txn)
		if err != nil {
			return err
		}

		vectors = make([]types.StateVector, 0, len(keys))
		for _, key := range keys {
			sv, err := s.readSample(txn, key)
			if errors.Is(err, fault.ErrNotFoundEpoch) {
				s.log.Criticalf("index entry %q has no stored sample", key)
				return fmt.Errorf("epoch %q: %w", key, fault.ErrIndexMismatch)
			}
			if err != nil {
				return err
			}
			vectors = append(vectors, *sv)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vectors, nil
}

// Keys implements Storage.Keys
func (s *badgerStorage) Keys() ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		keys, err = scanIndex(txn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Count implements Storage.Count
func (s *badgerStorage) Count() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(indexPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// readSample loads and decodes one sample inside txn
func (s *badgerStorage) readSample(txn *badger.Txn, key string) (*types.StateVector, error) {
	item, err := txn.Get(sampleKey(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fault.ErrNotFoundEpoch
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read epoch %q: %w", key, err)
	}

	var sv *types.StateVector
	err = item.Value(func(val []byte) error {
		sv, err = s.decode(val)
		return err
	})
	if err != nil {
		s.log.Criticalf("epoch %q: %s", key, err)
		return nil, fmt.Errorf("epoch %q: %w", key, err)
	}
	return sv, nil
}

// encode serialises and compresses a sample
func (s *badgerStorage) encode(sv *types.StateVector) ([]byte, error) {
	data, err := json.Marshal(sv)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state vector: %w", err)
	}
	return s.compressor.CompressPayload(data), nil
}

// decode reverses encode; any failure means the cache is corrupt
func (s *badgerStorage) decode(val []byte) (*types.StateVector, error) {
	data, err := s.compressor.DecompressPayload(val)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fault.ErrCorruptPayload, err)
	}

	var sv types.StateVector
	if err := json.Unmarshal(data, &sv); err != nil {
		return nil, fmt.Errorf("%w: %v", fault.ErrCorruptPayload, err)
	}
	return &sv, nil
}

// Close implements Storage.Close
func (s *badgerStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.compressor != nil {
		s.compressor.Close()
		s.compressor = nil
	}
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}
