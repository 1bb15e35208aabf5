package zipmap

import (
	"math/rand/v2"

	"github.com/ValentinKolb/kvcore/lib/alloc"
	"github.com/ValentinKolb/kvcore/lib/db"
	"github.com/ValentinKolb/kvcore/lib/db/util"
)

// --------------------------------------------------------------------------
// KVDB adapter
// --------------------------------------------------------------------------

// Store exposes a single ZipMap as db.KVDB. Every operation is a linear scan
// of the buffer, so it is meant for small collections.
type Store struct {
	engine *Engine
	zm     ZipMap
	rand   *rand.Rand
}

// NewStore creates a zipmap backed db.KVDB that allocates through a (nil = alloc.Default())
func NewStore(a alloc.Allocator) (*Store, error) {
	e := NewEngine(a)
	zm, err := e.New()
	if err != nil {
		return nil, err
	}
	return &Store{
		engine: e,
		zm:     zm,
		rand:   rand.New(rand.NewPCG(util.GenerateSeed(), util.GenerateSeed())),
	}, nil
}

// Map returns the current buffer. It is invalidated by the next write.
func (s *Store) Map() ZipMap {
	return s.zm
}

func (s *Store) Set(key, value []byte) (bool, error) {
	zm, updated, err := s.engine.Set(s.zm, key, value)
	s.zm = zm
	return updated, err
}

func (s *Store) Delete(key []byte) bool {
	zm, deleted := s.engine.Delete(s.zm, key)
	s.zm = zm
	return deleted
}

func (s *Store) Get(key []byte) ([]byte, bool) {
	v, ok := s.zm.Get(key)
	if !ok {
		return nil, false
	}
	return append(make([]byte, 0, len(v)), v...), true
}

func (s *Store) Has(key []byte) bool {
	return s.zm.Exists(key)
}

func (s *Store) Len() int {
	return s.zm.Len()
}

func (s *Store) Range(fn func(key, value []byte) bool) {
	for k, v := range s.zm.All() {
		if !fn(k, v) {
			return
		}
	}
}

// RandomKey picks a uniformly random entry. It needs two scans of the buffer.
func (s *Store) RandomKey() ([]byte, bool) {
	n := s.zm.Len()
	if n == 0 {
		return nil, false
	}

	i := s.rand.IntN(n)
	for k := range s.zm.All() {
		if i == 0 {
			return append(make([]byte, 0, len(k)), k...), true
		}
		i--
	}
	return nil, false
}

// Repr renders the buffer layout
func (s *Store) Repr() string {
	return s.zm.Repr()
}

var supportedFeatures = []db.Feature{
	db.FeatureSet, db.FeatureGet, db.FeatureHas, db.FeatureDelete,
	db.FeatureRange, db.FeatureLen, db.FeatureRandomKey, db.FeatureRepr,
}

func (s *Store) SupportsFeature(feature db.Feature) bool {
	var all db.Feature
	for _, f := range supportedFeatures {
		all |= f
	}
	return all&feature == feature
}

func (s *Store) GetInfo() db.DatabaseInfo {
	histogram := util.NewSizeHistogram()
	entries := 0
	for _, v := range s.zm.All() {
		histogram.AddSample(len(v))
		entries++
	}

	meta := &struct {
		Fragmented      bool `json:"fragmented"`
		FreeBytes       int  `json:"free_bytes"`
		MedianValueSize int  `json:"median_value_size"`
		AvgValueSize    int  `json:"avg_value_size"`
	}{
		Fragmented:      s.zm.Fragmented(),
		FreeBytes:       s.zm.FreeBytes(),
		MedianValueSize: histogram.MedianEstimate(),
		AvgValueSize:    histogram.AverageSize(),
	}

	return db.DatabaseInfo{
		SizeBytes:         len(s.zm),
		DbType:            db.ImplZipmap,
		Entries:           entries,
		SupportedFeatures: supportedFeatures,
		Metadata:          meta,
	}
}

// Close frees the buffer and leaves an empty map behind
func (s *Store) Close() error {
	s.engine.Free(s.zm)
	zm, err := s.engine.New()
	if err != nil {
		s.zm = nil
		return err
	}
	s.zm = zm
	return nil
}

var _ db.KVDB = (*Store)(nil)
