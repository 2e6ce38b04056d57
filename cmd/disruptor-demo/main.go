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

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-arcade/disruptor/pkg/conf"
	"github.com/go-arcade/disruptor/pkg/disruptor"
	"github.com/go-arcade/disruptor/pkg/duration"
	"github.com/go-arcade/disruptor/pkg/id"
	"github.com/go-arcade/disruptor/pkg/log"
	"github.com/go-arcade/disruptor/pkg/metrics"
	"github.com/go-arcade/disruptor/pkg/parallel"
	"github.com/go-arcade/disruptor/pkg/pprof"
	"github.com/go-arcade/disruptor/pkg/retry"
	"github.com/go-arcade/disruptor/pkg/safe"
	"github.com/go-arcade/disruptor/pkg/shutdown"
	"github.com/go-arcade/disruptor/pkg/trace"
	"github.com/go-arcade/disruptor/pkg/version"
	"github.com/spf13/cobra"
)

/**
 * @author: gagral.x@gmail.com
 * @file: main.go
 * @description: disruptor demo program
 */

var configDir string

var rootCmd = &cobra.Command{
	Use:   "disruptor-demo",
	Short: "disruptor-demo wires a ring buffer to producers and consumers",
	Long:  "disruptor-demo wires a ring buffer to producers and consumers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "conf", "conf.d", "config file path, e.g. --conf ./conf.d")
	rootCmd.AddCommand(version.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}

// tickEvent is the demo's pre-allocated ring buffer slot.
type tickEvent struct {
	Sequence int64
	EventID  string
	Symbol   string
	Price    float64
	Qty      int
}

func tickEventFactory() tickEvent { return tickEvent{} }

func run() error {
	var appConf AppConfig
	if _, err := conf.LoadConfigFile(configDir, &appConf); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	appConf.Disruptor.SetDefaults()
	if err := appConf.Disruptor.Validate(); err != nil {
		return fmt.Errorf("invalid disruptor config: %w", err)
	}

	if err := log.Init(&appConf.Log); err != nil {
		return fmt.Errorf("init log: %w", err)
	}
	if err := trace.Init(appConf.Trace); err != nil {
		return fmt.Errorf("init trace: %w", err)
	}

	runID := id.GetUUID()
	instanceID := id.ShortId()
	log.Infow("starting disruptor demo",
		"run_id", runID,
		"instance_id", instanceID,
		"buffer_size", appConf.Disruptor.BufferSize,
		"producer_type", appConf.Disruptor.ProducerType,
		"wait_strategy", appConf.Disruptor.WaitStrategy,
		"producers", appConf.Disruptor.Producers,
		"consumers", appConf.Disruptor.Consumers,
	)

	waitStrategy := newWaitStrategy(appConf.Disruptor.WaitStrategy)
	producerType := disruptor.SingleProducer
	if appConf.Disruptor.ProducerType == "multi" {
		producerType = disruptor.MultiProducer
	}

	rb, err := disruptor.NewRingBuffer(appConf.Disruptor.BufferSize, tickEventFactory, waitStrategy, producerType)
	if err != nil {
		return fmt.Errorf("new ring buffer: %w", err)
	}

	metricsServer := metrics.NewServer(appConf.Metrics)
	startErr := retry.Do(context.Background(), func(ctx context.Context) error {
		return metricsServer.Start()
	}, retry.WithMaxAttempts(3), retry.WithBackoff(retry.Fixed(200*time.Millisecond)))
	if startErr != nil {
		return fmt.Errorf("start metrics server: %w", startErr)
	}
	recorder := metrics.NewRingBufferRecorder("tick", rb, metricsServer.GetSink())
	sampleInterval, err := duration.Parse(appConf.Disruptor.MetricsInterval)
	if err != nil {
		sampleInterval = time.Second
	}
	stopRecorder := make(chan struct{})
	safe.Go(func() { recorder.Run(sampleInterval, stopRecorder) })

	pprofServer := pprof.NewServer(appConf.Pprof)
	startErr = retry.Do(context.Background(), func(ctx context.Context) error {
		return pprofServer.Start()
	}, retry.WithMaxAttempts(3), retry.WithBackoff(retry.Fixed(200*time.Millisecond)))
	if startErr != nil {
		return fmt.Errorf("start pprof server: %w", startErr)
	}

	sm := shutdown.NewManager()

	barriers := make([]disruptor.SequenceBarrier, appConf.Disruptor.Consumers)
	var consumerWG sync.WaitGroup
	for i := 0; i < appConf.Disruptor.Consumers; i++ {
		gating := disruptor.NewSequence(disruptor.InitialSequenceValue)
		rb.AddGatingSequences(gating)
		barrier := rb.NewBarrier()
		barriers[i] = barrier

		consumerWG.Add(1)
		consumerID := i
		safe.Go(func() {
			defer consumerWG.Done()
			runConsumer(consumerID, rb, barrier, gating)
		})
	}

	producerGroup := parallel.GoGroup(context.Background())
	for i := 0; i < appConf.Disruptor.Producers; i++ {
		producerID := i
		producerGroup.Go(func(ctx context.Context) error {
			return runProducer(ctx, producerID, rb, appConf.Disruptor.EventsPerProducer)
		})
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	producersDone := make(chan error, 1)
	safe.Go(func() {
		producersDone <- producerGroup.Wait()
	})

	select {
	case err := <-producersDone:
		if err != nil {
			log.Warnw("a producer reported an error", "error", err)
		}
		log.Info("all producers finished, draining consumers")
		for rb.GetMinimumGatingSequence() < rb.Cursor() {
			time.Sleep(time.Millisecond)
		}
	case sig := <-sc:
		log.Infow("received signal, shutting down early", "signal", sig.String())
	}

	sm.Shutdown()
	for _, b := range barriers {
		b.Alert()
	}
	consumerWG.Wait()

	close(stopRecorder)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pprofServer.Stop(ctx); err != nil {
		log.Warnw("pprof server stop failed", "error", err)
	}
	if err := metricsServer.Stop(ctx); err != nil {
		log.Warnw("metrics server stop failed", "error", err)
	}
	if err := trace.Shutdown(ctx); err != nil {
		log.Warnw("trace shutdown failed", "error", err)
	}

	log.Infow("disruptor demo exited", "run_id", runID, "final_cursor", rb.Cursor())
	return nil
}

func newWaitStrategy(name string) disruptor.WaitStrategy {
	switch name {
	case "yielding":
		return disruptor.NewYieldingWaitStrategy()
	case "busyspin":
		return &disruptor.BusySpinWaitStrategy{}
	case "sleeping":
		return disruptor.NewSleepingWaitStrategy()
	default:
		return disruptor.NewBlockingWaitStrategy()
	}
}

func runProducer(ctx context.Context, producerID int, rb *disruptor.RingBuffer[tickEvent], count int64) error {
	_, span := trace.StartSpan(ctx, "disruptor-demo.producer")
	producerRunID := id.GetUild()

	symbol := fmt.Sprintf("SYM-%d", producerID)
	translator := func(e *tickEvent, seq int64, symbol string, price float64, qty int) error {
		e.Sequence, e.EventID, e.Symbol, e.Price, e.Qty = seq, id.GetXid(), symbol, price, qty
		return nil
	}

	var firstErr error
	for i := int64(0); i < count; i++ {
		price := 100 + float64(i%50)
		if err := disruptor.PublishEventThreeArg(rb, translator, symbol, price, int(i)); err != nil {
			log.Errorw("publish failed", "producer", producerID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	log.Infow("producer finished", "producer", producerID, "producer_run_id", producerRunID, "events", count)
	trace.EndSpan(span, firstErr)
	return firstErr
}

func runConsumer(consumerID int, rb *disruptor.RingBuffer[tickEvent], barrier disruptor.SequenceBarrier, gating *disruptor.Sequence) {
	next := int64(0)
	var processed int64
	for {
		available, err := barrier.WaitFor(next)
		if err != nil {
			if errors.Is(err, disruptor.ErrAlerted) {
				log.Infow("consumer alerted, exiting", "consumer", consumerID, "processed", processed)
				return
			}
			log.Warnw("consumer wait failed", "consumer", consumerID, "error", err)
			return
		}
		for ; next <= available; next++ {
			_ = rb.Get(next) // consume the slot
			processed++
		}
		gating.Set(available)
	}
}
