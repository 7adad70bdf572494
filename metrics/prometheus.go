package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/krisalay/fetchcache/types"
)

var _ types.Metrics = (*Prometheus)(nil)

// Prometheus reports cache events as counters labelled by cache name.
type Prometheus struct {
	events *prometheus.CounterVec
	name   string
}

// NewPrometheus registers the fetchcache counters with reg. Pass
// prometheus.DefaultRegisterer to expose them on the default /metrics
// handler. Registering twice on the same registry panics, so share one
// *Prometheus per registry and tell caches apart with ForCache.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	events := promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Name: "fetchcache_events_total",
		Help: "Fetch cache events by kind",
	}, []string{"cache", "event"})
	return &Prometheus{events: events, name: "default"}
}

// ForCache returns a view that labels events with name.
func (p *Prometheus) ForCache(name string) *Prometheus {
	return &Prometheus{events: p.events, name: name}
}

func (p *Prometheus) inc(event string) {
	p.events.WithLabelValues(p.name, event).Inc()
}

func (p *Prometheus) Hit()          { p.inc("hit") }
func (p *Prometheus) Miss()         { p.inc("miss") }
func (p *Prometheus) Coalesced()    { p.inc("coalesced") }
func (p *Prometheus) Eviction()     { p.inc("eviction") }
func (p *Prometheus) Expire()       { p.inc("expire") }
func (p *Prometheus) FetchFailure() { p.inc("fetch_failure") }
