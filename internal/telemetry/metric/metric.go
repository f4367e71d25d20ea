package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pathmark"

// Registry holds the counters maintained across the codec, store, and
// delete paths. All methods are safe on a nil receiver.
type Registry struct {
	tokensEncoded  prometheus.Counter
	decodeStale    prometheus.Counter
	decodeFailures prometheus.Counter
	relocations    prometheus.Counter

	storeUpserts prometheus.Counter
	storeDedup   prometheus.Counter
	storePruned  prometheus.Counter
	storeRepairs prometheus.Counter

	deletes *prometheus.CounterVec
}

// New creates a Registry with fresh collectors. Call Register to
// attach them to a Prometheus registerer.
func New() *Registry {
	return &Registry{
		tokensEncoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "codec",
			Name:      "tokens_encoded_total",
			Help:      "Tokens minted for file-system entries",
		}),
		decodeStale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "codec",
			Name:      "decode_stale_total",
			Help:      "Decodes that resolved through a moved or replaced entry",
		}),
		decodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "codec",
			Name:      "decode_failures_total",
			Help:      "Decodes that could not resolve to any entry",
		}),
		relocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "codec",
			Name:      "relocation_scans_total",
			Help:      "Relocation scans that found a moved entry",
		}),
		storeUpserts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "upserts_total",
			Help:      "Bookmarks added to the persistent collection",
		}),
		storeDedup: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "dedup_hits_total",
			Help:      "Upserts that matched an existing bookmark by path",
		}),
		storePruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "pruned_total",
			Help:      "Bookmarks dropped because they no longer decode",
		}),
		storeRepairs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "repairs_total",
			Help:      "Stale bookmarks replaced with freshly minted tokens",
		}),
		deletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "entry",
			Name:      "deletes_total",
			Help:      "Delete operations by mode and outcome",
		}, []string{"mode", "outcome"}),
	}
}

// Register attaches all collectors to the given registerer.
func (r *Registry) Register(reg prometheus.Registerer) error {
	if r == nil {
		return nil
	}
	collectors := []prometheus.Collector{
		r.tokensEncoded, r.decodeStale, r.decodeFailures, r.relocations,
		r.storeUpserts, r.storeDedup, r.storePruned, r.storeRepairs,
		r.deletes,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// TokenEncoded records a freshly minted token.
func (r *Registry) TokenEncoded() {
	if r != nil {
		r.tokensEncoded.Inc()
	}
}

// DecodeStale records a decode that went through staleness handling.
func (r *Registry) DecodeStale() {
	if r != nil {
		r.decodeStale.Inc()
	}
}

// DecodeFailure records a decode that could not resolve.
func (r *Registry) DecodeFailure() {
	if r != nil {
		r.decodeFailures.Inc()
	}
}

// Relocation records a relocation scan that found the entry.
func (r *Registry) Relocation() {
	if r != nil {
		r.relocations.Inc()
	}
}

// Upsert records a bookmark added to the collection.
func (r *Registry) Upsert() {
	if r != nil {
		r.storeUpserts.Inc()
	}
}

// DedupHit records an upsert answered by an existing bookmark.
func (r *Registry) DedupHit() {
	if r != nil {
		r.storeDedup.Inc()
	}
}

// Pruned records bookmarks dropped during a pruning pass.
func (r *Registry) Pruned(n int) {
	if r != nil && n > 0 {
		r.storePruned.Add(float64(n))
	}
}

// Repair records a stale bookmark replaced by a fresh token.
func (r *Registry) Repair() {
	if r != nil {
		r.storeRepairs.Inc()
	}
}

// Delete records a delete operation. Mode is "trash" or "permanent";
// outcome is "ok" or "error".
func (r *Registry) Delete(mode, outcome string) {
	if r != nil {
		r.deletes.WithLabelValues(mode, outcome).Inc()
	}
}
