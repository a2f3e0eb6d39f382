// Package status is a concurrent metric registry
// The simulation goroutine writes through cached pointers; viewers read snapshots
package status

import (
	"fmt"
	"sync/atomic"
)

// Registry groups metrics by value type
type Registry struct {
	Ints    *MetricMap[atomic.Int64]
	Floats  *MetricMap[AtomicFloat]
	Strings *MetricMap[AtomicString]
}

func NewRegistry() *Registry {
	return &Registry{
		Ints:    NewMetricMap[atomic.Int64](),
		Floats:  NewMetricMap[AtomicFloat](),
		Strings: NewMetricMap[AtomicString](),
	}
}

// Metric is one formatted reading
type Metric struct {
	Key   string
	Value string
}

// Snapshot reads every metric; ints, floats, then strings, each sorted by key
func (r *Registry) Snapshot() []Metric {
	out := make([]Metric, 0, r.Ints.Count()+r.Floats.Count()+r.Strings.Count())
	r.Ints.Range(func(key string, v *atomic.Int64) {
		out = append(out, Metric{Key: key, Value: fmt.Sprintf("%d", v.Load())})
	})
	r.Floats.Range(func(key string, v *AtomicFloat) {
		out = append(out, Metric{Key: key, Value: fmt.Sprintf("%.2f", v.Load())})
	})
	r.Strings.Range(func(key string, v *AtomicString) {
		out = append(out, Metric{Key: key, Value: v.Load()})
	})
	return out
}
