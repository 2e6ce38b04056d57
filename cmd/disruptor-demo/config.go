package main

import (
	"fmt"

	"github.com/go-arcade/disruptor/pkg/log"
	"github.com/go-arcade/disruptor/pkg/metrics"
	"github.com/go-arcade/disruptor/pkg/pprof"
	"github.com/go-arcade/disruptor/pkg/trace"
)

/**
 * @author: gagral.x@gmail.com
 * @file: config.go
 * @description: config for the disruptor demo binary
 */

// AppConfig is the top-level config.toml shape for the demo binary.
type AppConfig struct {
	Log       log.Conf
	Metrics   metrics.MetricsConfig
	Pprof     pprof.PprofConfig
	Trace     trace.TraceConfig
	Disruptor DisruptorConfig
}

// DisruptorConfig configures the ring buffer wired up by cmd/disruptor-demo.
type DisruptorConfig struct {
	BufferSize        int64  `mapstructure:"buffer_size"`
	ProducerType      string `mapstructure:"producer_type"` // "single" or "multi"
	WaitStrategy      string `mapstructure:"wait_strategy"` // "blocking", "yielding", "busyspin", "sleeping"
	Producers         int
	Consumers         int
	EventsPerProducer int64  `mapstructure:"events_per_producer"`
	MetricsInterval   string `mapstructure:"metrics_interval"` // duration.Parse syntax, e.g. "1s"
}

// SetDefaults fills in zero-valued fields with the demo's defaults.
func (d *DisruptorConfig) SetDefaults() {
	if d.BufferSize == 0 {
		d.BufferSize = 1024
	}
	if d.ProducerType == "" {
		d.ProducerType = "single"
	}
	if d.WaitStrategy == "" {
		d.WaitStrategy = "blocking"
	}
	if d.Producers == 0 {
		d.Producers = 1
	}
	if d.Consumers == 0 {
		d.Consumers = 1
	}
	if d.EventsPerProducer == 0 {
		d.EventsPerProducer = 1000
	}
	if d.MetricsInterval == "" {
		d.MetricsInterval = "1s"
	}
}

// Validate rejects configurations the demo can't act on.
func (d *DisruptorConfig) Validate() error {
	switch d.ProducerType {
	case "single", "multi":
	default:
		return fmt.Errorf("disruptor.producer_type must be \"single\" or \"multi\", got %q", d.ProducerType)
	}
	switch d.WaitStrategy {
	case "blocking", "yielding", "busyspin", "sleeping":
	default:
		return fmt.Errorf("disruptor.wait_strategy must be one of blocking|yielding|busyspin|sleeping, got %q", d.WaitStrategy)
	}
	if d.ProducerType == "single" && d.Producers != 1 {
		return fmt.Errorf("disruptor.producers must be 1 when producer_type is \"single\", got %d", d.Producers)
	}
	return nil
}
