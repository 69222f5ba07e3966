package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// key layout:
//
//	sv/<epoch>                    -> compressed JSON state vector
//	index/<8-byte big endian seq> -> epoch
//
// big endian sequence numbers make badger's sorted iteration return
// epochs in first-seen order
const (
	samplePrefix = "sv/"
	indexPrefix  = "index/"
	seqLength    = 8
)

func sampleKey(epoch string) []byte {
	return append([]byte(samplePrefix), epoch...)
}

func indexKey(seq uint64) []byte {
	buf := make([]byte, len(indexPrefix)+seqLength)
	copy(buf, indexPrefix)
	binary.BigEndian.PutUint64(buf[len(indexPrefix):], seq)
	return buf
}

func seqFromIndexKey(key []byte) (uint64, error) {
	if !bytes.HasPrefix(key, []byte(indexPrefix)) || len(key) != len(indexPrefix)+seqLength {
		return 0, fmt.Errorf("malformed index key %x", key)
	}
	return binary.BigEndian.Uint64(key[len(indexPrefix):]), nil
}

// Index hands out the sequence number of the next index entry
type Index struct {
	mu   sync.Mutex
	next uint64
}

// loadIndex positions the sequence after the last persisted entry
func loadIndex(db *badger.DB) (*Index, error) {
	idx := &Index{}
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(indexPrefix)
		last := append(append([]byte{}, prefix...), bytes.Repeat([]byte{0xff}, seqLength+1)...)
		it.Seek(last)
		if !it.ValidForPrefix(prefix) {
			return nil
		}

		seq, err := seqFromIndexKey(it.Item().KeyCopy(nil))
		if err != nil {
			return err
		}
		idx.next = seq + 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// Peek returns the sequence the next insert will use
func (idx *Index) Peek() uint64 {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.next
}

// Advance consumes the current sequence after a committed insert
func (idx *Index) Advance() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.next++
}

// scanIndex returns the epochs of every index entry in sequence order
func scanIndex(txn *badger.Txn) ([]string, error) {
	prefix := []byte(indexPrefix)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	keys := make([]string, 0)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read index entry: %w", err)
		}
		keys = append(keys, string(val))
	}
	return keys, nil
}
