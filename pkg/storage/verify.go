package storage

import (
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/vjranagit/isstracker/pkg/fault"
)

// VerifyReport lists every disagreement between the index and the samples
type VerifyReport struct {
	IndexEntries   int      `json:"index_entries"`
	Samples        int      `json:"samples"`
	Duplicates     []string `json:"duplicates,omitempty"`
	MissingSamples []string `json:"missing_samples,omitempty"`
	Unindexed      []string `json:"unindexed,omitempty"`
	Corrupt        []string `json:"corrupt,omitempty"`
}

// OK reports whether the index and samples are in 1:1 correspondence
// and every payload decodes to the epoch it is stored under
func (r *VerifyReport) OK() bool {
	return len(r.Duplicates) == 0 &&
		len(r.MissingSamples) == 0 &&
		len(r.Unindexed) == 0 &&
		len(r.Corrupt) == 0
}

// Verify implements Storage.Verify
func (s *badgerStorage) Verify() (*VerifyReport, error) {
	report := &VerifyReport{}

	err := s.db.View(func(txn *badger.Txn) error {
		keys, err := scanIndex(txn)
		if err != nil {
			return err
		}
		report.IndexEntries = len(keys)

		indexed := make(map[string]struct{}, len(keys))
		for _, key := range keys {
			if _, seen := indexed[key]; seen {
				report.Duplicates = append(report.Duplicates, key)
				continue
			}
			indexed[key] = struct{}{}
		}

		prefix := []byte(samplePrefix)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		stored := make(map[string]struct{}, len(keys))
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := strings.TrimPrefix(string(item.Key()), samplePrefix)
			stored[key] = struct{}{}
			report.Samples++

			if _, ok := indexed[key]; !ok {
				report.Unindexed = append(report.Unindexed, key)
			}

			err := item.Value(func(val []byte) error {
				sv, err := s.decode(val)
				if err != nil || sv.Epoch != key {
					report.Corrupt = append(report.Corrupt, key)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}

		for _, key := range keys {
			if _, ok := stored[key]; !ok {
				report.MissingSamples = append(report.MissingSamples, key)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !report.OK() {
		s.log.Criticalf("store verification failed: %d duplicate, %d missing, %d unindexed, %d corrupt",
			len(report.Duplicates), len(report.MissingSamples), len(report.Unindexed), len(report.Corrupt))
	}
	return report, nil
}

// Err converts a failed report into the matching corruption error
func (r *VerifyReport) Err() error {
	switch {
	case r.OK():
		return nil
	case len(r.Corrupt) > 0:
		return fault.ErrCorruptPayload
	default:
		return fault.ErrIndexMismatch
	}
}
