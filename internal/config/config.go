// Package config collects the environment-tunable limits the run and
// repl commands apply to the thread they start, so a deploy
// can cap a script's resource usage without a recompile.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

// Runtime holds every VELLUM_*-prefixed tunable. Zero/false is always "no
// limit" or "off", matching the corresponding Thread field's own zero-value
// behavior, so an embedding that builds a Thread directly (bypassing this
// package) sees the same defaults as the CLI.
type Runtime struct {
	// MaxSteps bounds the number of bytecode instructions a single run may
	// execute before it is cancelled. 0 means unlimited.
	MaxSteps int `env:"VELLUM_MAX_STEPS" envDefault:"0"`

	// MaxCallStackDepth bounds nested function calls. 0 means unlimited.
	MaxCallStackDepth int `env:"VELLUM_MAX_CALL_STACK_DEPTH" envDefault:"0"`

	// MaxCompareDepth bounds recursion into nested container comparisons.
	// 0 means unlimited.
	MaxCompareDepth int `env:"VELLUM_MAX_COMPARE_DEPTH" envDefault:"0"`

	// GCThreshold is the heap's initial collection threshold, in the same
	// byte-estimate units heap.Heap.Allocate's size argument uses. 0 falls
	// back to the Thread's own small default.
	GCThreshold int `env:"VELLUM_GC_THRESHOLD" envDefault:"0"`

	// GCStress forces a collection on every heap allocation, to flush out a
	// missed GC root during development; far too slow for normal use.
	GCStress bool `env:"VELLUM_GC_STRESS" envDefault:"false"`

	// DisableRecursion rejects a function calling its own Funcode while
	// already on the call stack, a safety check for running untrusted
	// scripts at the cost of every call doing the check.
	DisableRecursion bool `env:"VELLUM_DISABLE_RECURSION" envDefault:"false"`
}

// Load reads Runtime from the process environment, applying envDefault to
// any variable that is unset.
func Load() (Runtime, error) {
	var rt Runtime
	if err := env.Parse(&rt); err != nil {
		return Runtime{}, fmt.Errorf("config: %w", err)
	}
	return rt, nil
}
