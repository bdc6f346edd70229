// Copyright Flowlight, Inc. All rights reserved.
//
// Use of this source code is governed by the Apache 2.0 license that can be found in the
// LICENSE file or at:
// https://www.apache.org/licenses/LICENSE-2.0

// telemetry-agent reads telemetry records as JSON lines on stdin, runs them
// through the processor chain described by a pipeline config file, and
// transmits them through the configured sinks.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"

	"github.com/flowlight-io/telemetry/internal/channel"
	"github.com/flowlight-io/telemetry/internal/config"
	"github.com/flowlight-io/telemetry/internal/pipeline"
	"github.com/flowlight-io/telemetry/pkg/telemetry"
)

var (
	configPath string
	watch      bool
	verbose    bool
)

func init() {
	flag.StringVar(&configPath, "config", "pipeline.yaml",
		"Path to the pipeline definition file")
	flag.BoolVar(&watch, "watch", false,
		"Rebuild the processor chain when the pipeline definition changes")
	flag.BoolVar(&verbose, "verbose", false,
		"Enable verbose logging")
}

func main() {
	flag.Parse()

	var logger logr.Logger
	if verbose {
		zapLog, _ := zap.NewDevelopment()
		logger = zapr.NewLogger(zapLog)
	} else {
		zapLog, _ := zap.NewProduction()
		logger = zapr.NewLogger(zapLog)
	}
	setupLog := logger.WithName("setup")

	if err := run(logger, setupLog); err != nil {
		setupLog.Error(err, "Agent failed")
		os.Exit(1)
	}
}

func run(logger, setupLog logr.Logger) error {
	f, err := config.Load(configPath)
	if err != nil {
		return err
	}

	reg := config.NewRegistry(logger)
	registerProcessors(reg, setupLog)

	p, err := config.Assemble(f, reg, channel.NewWriterTransmitter(os.Stdout), logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := p.Start(ctx); err != nil {
		return err
	}

	if watch {
		w, err := config.NewWatcher(configPath, reg, p.Config, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := w.Close(); err != nil {
				setupLog.Error(err, "Failed to close config watcher")
			}
		}()
	}

	setupLog.Info("Agent started",
		"config", configPath,
		"sinks", len(p.Config.Sinks()),
		"chain_len", p.Config.Chain().Len())

	if err := feed(ctx, p.Config, setupLog); err != nil {
		return err
	}

	// Drain whatever is still buffered before the senders shut down.
	stop()
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.Flush(flushCtx); err != nil {
		setupLog.Error(err, "Final flush failed")
	}
	p.Wait()
	return nil
}

// feed turns stdin JSON lines into telemetry items until EOF or shutdown.
func feed(ctx context.Context, cfg *pipeline.Configuration, logger logr.Logger) error {
	type record struct {
		Source     string            `json:"source"`
		Kind       string            `json:"kind"`
		Name       string            `json:"name"`
		Properties map[string]string `json:"properties"`
		Data       any               `json:"data"`
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			logger.V(1).Info("Skipping malformed input line", "error", err)
			continue
		}
		if rec.Kind == "" {
			rec.Kind = string(telemetry.KindTrace)
		}

		item := telemetry.New(telemetry.ItemKind(rec.Kind), rec.Name)
		item.Source = rec.Source
		item.Properties = rec.Properties
		item.Data = rec.Data
		cfg.Track(item)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

// registerProcessors installs the agent's built-in processor stages. The
// pipeline core treats these as opaque caller-supplied factories.
func registerProcessors(reg *config.Registry, setupLog logr.Logger) {
	register := func(name string, ctor config.FactoryConstructor) {
		if err := reg.Register(name, ctor); err != nil {
			setupLog.Error(err, "Failed to register processor", "processor", name)
		}
	}

	// drop-source drops every item whose Source matches settings["source"].
	register("drop-source", func(settings map[string]string, logger logr.Logger) pipeline.ProcessorFactory {
		source := settings["source"]
		return func(next pipeline.Processor) (pipeline.Processor, error) {
			if source == "" {
				err := fmt.Errorf("drop-source requires a source setting")
				logger.Error(err, "Stage omitted from chain")
				return nil, err
			}
			return processorFunc(func(item *telemetry.Item) {
				if item.Source == source {
					return
				}
				next.Process(item)
			}), nil
		}
	})

	// annotate copies its settings onto every item as properties.
	register("annotate", func(settings map[string]string, logger logr.Logger) pipeline.ProcessorFactory {
		return func(next pipeline.Processor) (pipeline.Processor, error) {
			return processorFunc(func(item *telemetry.Item) {
				for k, v := range settings {
					item.SetProperty(k, v)
				}
				next.Process(item)
			}), nil
		}
	})
}

type processorFunc func(item *telemetry.Item)

func (f processorFunc) Process(item *telemetry.Item) { f(item) }
