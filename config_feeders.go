package userfetch

import (
	"github.com/CrisisTextLine/userfetch/feeders"
)

// Feeder defines the interface for configuration feeders that provide configuration data.
type Feeder interface {
	// Feed gets a struct and feeds it using configuration data.
	Feed(structure any) error
}

// DefaultConfigFeeders returns a fresh default set of configuration feeders:
// BASE_URL and friends from the environment. Each call allocates new feeders
// so verbose settings never leak between loaders.
func DefaultConfigFeeders() []Feeder {
	return []Feeder{
		feeders.NewEnvFeeder(),
	}
}

// VerboseAwareFeeder provides functionality for verbose debug logging during configuration feeding
type VerboseAwareFeeder interface {
	// SetVerboseDebug enables or disables verbose debug logging
	SetVerboseDebug(enabled bool, logger feeders.VerboseLogger)
}

// PrioritizedFeeder extends the Feeder interface with priority control.
// Feeders with higher priority values are applied later, so they override
// values set by lower priority feeders. Feeders that do not implement it
// have priority 0, and equal priorities keep the order they were added in.
//
//	feeders.NewYamlFeeder("config.yaml").WithPriority(10)
//	feeders.NewEnvFeeder().WithPriority(100) // environment wins
type PrioritizedFeeder interface {
	Feeder
	// Priority returns the priority value for this feeder.
	Priority() int
}

func feederPriority(f Feeder) int {
	if pf, ok := f.(PrioritizedFeeder); ok {
		return pf.Priority()
	}
	return 0
}
