// Copyright Flowlight, Inc. All rights reserved.
//
// Use of this source code is governed by the Apache 2.0 license that can be found in the
// LICENSE file or at:
// https://www.apache.org/licenses/LICENSE-2.0

// Package config loads pipeline definitions from YAML and assembles them
// into runnable telemetry pipelines. It also provides a file watcher that
// rebuilds the processor chain when the definition changes on disk.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Channel types recognized in sink definitions.
const (
	ChannelTypeMemory = "memory"
	ChannelTypeDebug  = "debug"
)

// Duration wraps time.Duration for YAML strings like "5s" or "250ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// File is the top-level pipeline definition.
type File struct {
	// Sinks lists the destinations, first entry is the default sink.
	Sinks []SinkConfig `yaml:"sinks"`

	// Processors lists the chain stages in execution order.
	Processors []ProcessorConfig `yaml:"processors"`

	// Async, when present, switches multi-sink broadcast to bounded
	// concurrent dispatch.
	Async *AsyncConfig `yaml:"async,omitempty"`
}

type SinkConfig struct {
	Name    string        `yaml:"name"`
	Channel ChannelConfig `yaml:"channel"`
}

type ChannelConfig struct {
	Type string `yaml:"type"`

	// Memory channel settings
	Capacity      int      `yaml:"capacity,omitempty"`
	BatchSize     int      `yaml:"batchSize,omitempty"`
	FlushInterval Duration `yaml:"flushInterval,omitempty"`
	MaxRetryTime  Duration `yaml:"maxRetryTime,omitempty"`

	// Debug channel settings
	IncludeData bool `yaml:"includeData,omitempty"`
}

type ProcessorConfig struct {
	Name     string            `yaml:"name"`
	Settings map[string]string `yaml:"settings,omitempty"`
}

type AsyncConfig struct {
	MaxConcurrency int      `yaml:"maxConcurrency,omitempty"`
	Timeout        Duration `yaml:"timeout,omitempty"`
}

// Load reads and parses a pipeline definition from path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline config: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates a pipeline definition.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline config: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks structural requirements; per-channel settings are validated
// by the channel constructors during assembly.
func (f *File) Validate() error {
	if len(f.Sinks) == 0 {
		return fmt.Errorf("at least one sink is required")
	}

	seen := make(map[string]struct{}, len(f.Sinks))
	for i, s := range f.Sinks {
		if s.Name == "" {
			return fmt.Errorf("sink %d: name is required", i)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("sink %s: duplicate name", s.Name)
		}
		seen[s.Name] = struct{}{}

		switch s.Channel.Type {
		case ChannelTypeMemory, ChannelTypeDebug:
		case "":
			return fmt.Errorf("sink %s: channel type is required", s.Name)
		default:
			return fmt.Errorf("sink %s: unknown channel type %q", s.Name, s.Channel.Type)
		}
	}

	for i, p := range f.Processors {
		if p.Name == "" {
			return fmt.Errorf("processor %d: name is required", i)
		}
	}
	return nil
}
