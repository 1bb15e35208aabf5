package alloc

import (
	"io"

	"github.com/ValentinKolb/kvcore/lib/common"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var plog = logger.GetLogger(common.LoggerAlloc)

// --------------------------------------------------------------------------
// Allocator Interface
// --------------------------------------------------------------------------

// Allocator hands out byte regions and keeps track of how many bytes are in use.
// Typed memory that is not a byte slice (bucket arrays, entry arenas) is only
// accounted for via Reserve and Release.
//
// Every method that may allocate returns an error which is non-nil only if the
// allocator is configured to propagate out-of-memory conditions. Under the
// default fatal policy a failed allocation never returns.
type Allocator interface {
	// Alloc returns a zeroed region of exactly size bytes.
	Alloc(size int) ([]byte, error)

	// Realloc resizes buf to size bytes, preserving the common prefix.
	// The returned slice may or may not share memory with buf, callers must
	// not use buf afterward.
	Realloc(buf []byte, size int) ([]byte, error)

	// Free returns buf to the allocator.
	Free(buf []byte)

	// Reserve accounts size bytes of memory allocated outside of Alloc.
	Reserve(size int) error

	// Release undoes a Reserve of size bytes.
	Release(size int)

	// Used returns the number of bytes currently accounted.
	Used() int64
}

// FailureHandler is called whenever a request can not be satisfied.
// The returned error is handed to the caller of the allocating method.
// A handler implementing the fatal policy does not return.
type FailureHandler func(requested int, used int64) error

// FatalOnFailure logs the failure and aborts by panicking with a *common.Error.
func FatalOnFailure(requested int, used int64) error {
	plog.Errorf("out of memory trying to allocate %d bytes (%d bytes in use)", requested, used)
	panic(common.Errorf(common.RetCOutOfMemory, "out of memory trying to allocate %d bytes", requested))
}

// PropagateOnFailure returns an out-of-memory error to the caller.
func PropagateOnFailure(requested int, used int64) error {
	plog.Debugf("allocation of %d bytes refused (%d bytes in use)", requested, used)
	return common.Errorf(common.RetCOutOfMemory, "out of memory trying to allocate %d bytes", requested)
}

// --------------------------------------------------------------------------
// Heap Allocator
// --------------------------------------------------------------------------

// Options configures a Heap
type Options struct {
	Limit     int64            // Max bytes in use (0 = unlimited)
	Policy    common.OOMPolicy // Behavior when Limit would be exceeded (default: fatal)
	OnFailure FailureHandler   // Overrides Policy if set
}

// DefaultOptions returns options for an unlimited heap with the fatal policy
func DefaultOptions() *Options {
	return &Options{
		Limit:  0,
		Policy: common.OOMFatal,
	}
}

// Heap is an Allocator backed by the Go heap.
// An optional limit simulates memory exhaustion so both failure policies can be exercised.
//
// Thread-safety: The usage counter is safe for concurrent use, the limit check is not atomic
// with respect to concurrent allocations.
type Heap struct {
	limit     int64
	used      *xsync.Counter
	onFailure FailureHandler

	metrics *metrics.Set
	calls   *metrics.Counter
	ooms    *metrics.Counter
}

// NewHeap creates a new Heap with the specified options (optional)
func NewHeap(opts *Options) *Heap {
	if opts == nil {
		opts = DefaultOptions()
	}

	onFailure := opts.OnFailure
	if onFailure == nil {
		switch opts.Policy {
		case common.OOMPropagate:
			onFailure = PropagateOnFailure
		default:
			onFailure = FatalOnFailure
		}
	}

	h := &Heap{
		limit:     opts.Limit,
		used:      xsync.NewCounter(),
		onFailure: onFailure,
		metrics:   metrics.NewSet(),
	}

	h.calls = h.metrics.NewCounter("kvcore_alloc_calls_total")
	h.ooms = h.metrics.NewCounter("kvcore_alloc_oom_total")
	h.metrics.NewGauge("kvcore_alloc_used_bytes", func() float64 {
		return float64(h.used.Value())
	})

	return h
}

var defaultHeap = NewHeap(nil)

// Default returns the process wide unlimited heap with the fatal policy
func Default() *Heap {
	return defaultHeap
}

// grow checks whether delta more bytes fit under the limit and accounts them
func (h *Heap) grow(delta int) error {
	h.calls.Inc()
	if delta <= 0 {
		h.used.Add(int64(delta))
		return nil
	}

	used := h.used.Value()
	if h.limit > 0 && used+int64(delta) > h.limit {
		h.ooms.Inc()
		return h.onFailure(delta, used)
	}

	h.used.Add(int64(delta))
	return nil
}

func (h *Heap) Alloc(size int) ([]byte, error) {
	if err := h.grow(size); err != nil {
		return nil, err
	}
	return make([]byte, size), nil
}

func (h *Heap) Realloc(buf []byte, size int) ([]byte, error) {
	if buf == nil {
		return h.Alloc(size)
	}

	if err := h.grow(size - len(buf)); err != nil {
		return nil, err
	}

	// shrinking or growing inside the capacity keeps the region
	if size <= cap(buf) {
		return buf[:size], nil
	}

	newBuf := make([]byte, size)
	copy(newBuf, buf)
	return newBuf, nil
}

func (h *Heap) Free(buf []byte) {
	if buf == nil {
		return
	}
	h.used.Add(-int64(len(buf)))
}

func (h *Heap) Reserve(size int) error {
	return h.grow(size)
}

func (h *Heap) Release(size int) {
	h.used.Add(-int64(size))
}

func (h *Heap) Used() int64 {
	return h.used.Value()
}

// Calls returns how many accounting operations were performed
func (h *Heap) Calls() uint64 {
	return h.calls.Get()
}

// Failures returns how many requests exceeded the limit
func (h *Heap) Failures() uint64 {
	return h.ooms.Get()
}

// WritePrometheus writes the allocator metrics in Prometheus text format to w
func (h *Heap) WritePrometheus(w io.Writer) {
	h.metrics.WritePrometheus(w)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// Dup returns a copy of b allocated from a
func Dup(a Allocator, b []byte) ([]byte, error) {
	c, err := a.Alloc(len(b))
	if err != nil {
		return nil, err
	}
	copy(c, b)
	return c, nil
}
