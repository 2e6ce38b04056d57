// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"time"

	"github.com/hashicorp/go-metrics"
)

// RingBufferSource is the subset of disruptor.RingBuffer this recorder
// needs; defined here rather than imported so the metrics package
// doesn't take a hard dependency on the disruptor package's generic
// type parameter.
type RingBufferSource interface {
	Cursor() int64
	BufferSize() int64
	RemainingCapacity() int64
	GetMinimumGatingSequence() int64
}

// RingBufferRecorder periodically samples a ring buffer's occupancy and
// reports it through a metrics.MetricSink, the same hashicorp/go-metrics
// sink the Prometheus-backed metrics server exposes over HTTP.
type RingBufferRecorder struct {
	name string
	rb   RingBufferSource
	sink metrics.MetricSink
}

// NewRingBufferRecorder returns a recorder that reports name-prefixed
// gauges for rb through sink.
func NewRingBufferRecorder(name string, rb RingBufferSource, sink metrics.MetricSink) *RingBufferRecorder {
	return &RingBufferRecorder{name: name, rb: rb, sink: sink}
}

// Sample emits the current cursor, remaining capacity, and minimum
// gating sequence as gauges. Call it on a ticker from the owning
// goroutine; it performs no locking of its own.
func (r *RingBufferRecorder) Sample() {
	r.sink.SetGauge([]string{"disruptor", r.name, "cursor"}, float32(r.rb.Cursor()))
	r.sink.SetGauge([]string{"disruptor", r.name, "remaining_capacity"}, float32(r.rb.RemainingCapacity()))
	r.sink.SetGauge([]string{"disruptor", r.name, "min_gating_sequence"}, float32(r.rb.GetMinimumGatingSequence()))
	occupancy := float32(0)
	if size := r.rb.BufferSize(); size > 0 {
		occupancy = 1 - float32(r.rb.RemainingCapacity())/float32(size)
	}
	r.sink.SetGauge([]string{"disruptor", r.name, "occupancy_ratio"}, occupancy)
}

// Run samples on every tick of interval until stop is closed.
func (r *RingBufferRecorder) Run(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Sample()
		case <-stop:
			return
		}
	}
}
