// Copyright Flowlight, Inc. All rights reserved.
//
// Use of this source code is governed by the Apache 2.0 license that can be found in the
// LICENSE file or at:
// https://www.apache.org/licenses/LICENSE-2.0

package config

import (
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"github.com/flowlight-io/telemetry/internal/pipeline"
)

// FactoryConstructor builds a processor factory from the settings of one
// processor entry in a pipeline definition.
type FactoryConstructor func(settings map[string]string, logger logr.Logger) pipeline.ProcessorFactory

// Registry maps processor names from pipeline definitions to factory
// constructors supplied by the embedding application. The pipeline core
// never defines processor behavior itself.
type Registry struct {
	logger logr.Logger

	mu           sync.RWMutex
	constructors map[string]FactoryConstructor
}

func NewRegistry(logger logr.Logger) *Registry {
	return &Registry{
		logger:       logger.WithName("processor-registry"),
		constructors: make(map[string]FactoryConstructor),
	}
}

// Register adds a constructor under a unique name.
func (r *Registry) Register(name string, ctor FactoryConstructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.constructors[name]; exists {
		return fmt.Errorf("processor %s already registered", name)
	}
	r.constructors[name] = ctor
	return nil
}

// Names returns the registered processor names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	return names
}

// Factory resolves one processor entry to a factory. An unknown name yields
// a factory that reports its own failure and returns an error, so the stage
// is omitted from the chain while the rest of the pipeline keeps working.
func (r *Registry) Factory(cfg ProcessorConfig) pipeline.ProcessorFactory {
	r.mu.RLock()
	ctor, ok := r.constructors[cfg.Name]
	r.mu.RUnlock()

	if !ok {
		logger := r.logger
		return func(next pipeline.Processor) (pipeline.Processor, error) {
			logger.Info("Unknown processor, stage omitted from chain", "processor", cfg.Name)
			return nil, fmt.Errorf("unknown processor %s", cfg.Name)
		}
	}
	return ctor(cfg.Settings, r.logger.WithName(cfg.Name))
}
