// Package callbacks fans ledger events out to named subscribers.
package callbacks

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kdudkov/geogate/pkg/model"
)

var (
	publishedMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geogate",
		Name:      "events_published_total",
		Help:      "Ledger events published, by type",
	}, []string{"type"})

	removedMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geogate",
		Name:      "event_subscribers_removed_total",
		Help:      "Subscribers removed after refusing an event",
	})
)

// Func gets every published event. Returning false unsubscribes it.
type Func func(evt *model.Event) bool

type Callback struct {
	callbacks sync.Map
}

func New() *Callback {
	return &Callback{
		callbacks: sync.Map{},
	}
}

// Publish calls every subscriber in its own goroutine.
func (p *Callback) Publish(evt *model.Event) {
	if evt == nil {
		return
	}

	publishedMetric.WithLabelValues(evt.Type).Inc()

	p.callbacks.Range(func(key, value any) bool {
		if fn, ok := value.(Func); ok {
			go func() {
				if !fn(evt) {
					if _, loaded := p.callbacks.LoadAndDelete(key); loaded {
						removedMetric.Inc()
					}
				}
			}()
		}

		return true
	})
}

func (p *Callback) Subscribe(name string, fn Func) {
	p.callbacks.Store(name, fn)
}

func (p *Callback) Unsubscribe(name string) bool {
	_, found := p.callbacks.LoadAndDelete(name)

	return found
}

func (p *Callback) Count() int {
	n := 0

	p.callbacks.Range(func(_, _ any) bool {
		n++
		return true
	})

	return n
}
