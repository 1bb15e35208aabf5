package dict

import (
	"github.com/ValentinKolb/kvcore/lib/alloc"
	"github.com/ValentinKolb/kvcore/lib/db"
	"github.com/ValentinKolb/kvcore/lib/db/util"
)

// --------------------------------------------------------------------------
// KVDB adapter
// --------------------------------------------------------------------------

// StoreOptions configures a dict backed db.KVDB
type StoreOptions struct {
	Allocator   alloc.Allocator // nil = alloc.Default()
	Hash        util.HashFunc   // nil = util.GenHash
	InitialSize uint64          // buckets to allocate up front (0 = lazily on first insert)
}

// DefaultStoreOptions returns the default store options
func DefaultStoreOptions() *StoreOptions {
	return &StoreOptions{
		Allocator: alloc.Default(),
		Hash:      util.GenHash,
	}
}

// Store exposes a Table with copied byte string keys and values as db.KVDB
type Store struct {
	t *Table[[]byte, []byte]
}

// NewStore creates a dict backed db.KVDB with the specified options (optional)
func NewStore(opts *StoreOptions) (*Store, error) {
	if opts == nil {
		opts = DefaultStoreOptions()
	}
	a := opts.Allocator
	if a == nil {
		a = alloc.Default()
	}

	t := New[[]byte, []byte](NewCopyKeyValueType(a, opts.Hash), nil, WithAllocator(a))
	if opts.InitialSize > 0 {
		if err := t.Expand(opts.InitialSize); err != nil {
			return nil, err
		}
	}
	return &Store{t: t}, nil
}

// Table returns the underlying table
func (s *Store) Table() *Table[[]byte, []byte] {
	return s.t
}

func (s *Store) Set(key, value []byte) (bool, error) {
	res, err := s.t.Replace(key, value)
	if err != nil {
		return false, err
	}
	return res == Updated, nil
}

func (s *Store) Delete(key []byte) bool {
	return s.t.Delete(key, true) == nil
}

func (s *Store) Get(key []byte) ([]byte, bool) {
	v, ok := s.t.FetchValue(key)
	if !ok {
		return nil, false
	}
	return append(make([]byte, 0, len(v)), v...), true
}

func (s *Store) Has(key []byte) bool {
	_, ok := s.t.Find(key)
	return ok
}

func (s *Store) Len() int {
	return s.t.Len()
}

func (s *Store) Range(fn func(key, value []byte) bool) {
	for k, v := range s.t.All() {
		if !fn(k, v) {
			return
		}
	}
}

func (s *Store) RandomKey() ([]byte, bool) {
	e, ok := s.t.RandomEntry()
	if !ok {
		return nil, false
	}
	return append(make([]byte, 0, len(e.Key)), e.Key...), true
}

// Resize shrinks the table to the minimal size holding all entries
func (s *Store) Resize() error {
	return s.t.Resize()
}

// Stats returns the chain statistics of the underlying table
func (s *Store) Stats() Stats {
	return s.t.Stats()
}

var supportedFeatures = []db.Feature{
	db.FeatureSet, db.FeatureGet, db.FeatureHas, db.FeatureDelete,
	db.FeatureRange, db.FeatureLen, db.FeatureRandomKey, db.FeatureResize,
}

func (s *Store) SupportsFeature(feature db.Feature) bool {
	var all db.Feature
	for _, f := range supportedFeatures {
		all |= f
	}
	return all&feature == feature
}

// GetInfo walks the table once to compute the stored byte count
func (s *Store) GetInfo() db.DatabaseInfo {
	histogram := util.NewSizeHistogram()
	payload := 0
	for k, v := range s.t.All() {
		histogram.AddSample(len(v))
		payload += len(k) + len(v)
	}

	stats := s.t.Stats()
	meta := &struct {
		Stats           Stats `json:"stats"`
		MedianValueSize int   `json:"median_value_size"`
		AvgValueSize    int   `json:"avg_value_size"`
	}{
		Stats:           stats,
		MedianValueSize: histogram.MedianEstimate(),
		AvgValueSize:    histogram.AverageSize(),
	}

	return db.DatabaseInfo{
		SizeBytes:         payload + s.t.Slots()*bucketBytes + s.t.Len()*s.t.entrySize,
		DbType:            db.ImplDict,
		Entries:           s.t.Len(),
		SupportedFeatures: supportedFeatures,
		Metadata:          meta,
	}
}

func (s *Store) Close() error {
	s.t.Release()
	return nil
}

var _ db.KVDB = (*Store)(nil)
