package recurrence

import (
	"io"
	"log/slog"
	"time"
)

// EngineConfig holds configuration options for the recurrence engine
type EngineConfig struct {
	// Safety ceilings
	MaxOccurrences        int // Hard cap on emitted dates per call
	AttemptsPerOccurrence int // Cycles allowed per requested occurrence, skips included

	// Cache configuration
	CacheEnabled bool
	CacheConfig  CacheConfig
}

// DefaultMaxOccurrences is the process-wide cap on dates emitted by one call.
const DefaultMaxOccurrences = 1000

// DefaultOpenCount is the count used when a rule has neither a count nor an
// end date.
const DefaultOpenCount = 999

// DefaultEngineConfig keeps the engine pure: no cache, no goroutines.
var DefaultEngineConfig = EngineConfig{
	MaxOccurrences:        DefaultMaxOccurrences,
	AttemptsPerOccurrence: 48, // a yearly Feb 29 rule needs at most 16 with a 25-year interval
	CacheEnabled:          false,
}

// CachedEngineConfig memoizes expansions for callers that regenerate the same
// series repeatedly, e.g. a calendar view re-rendering.
var CachedEngineConfig = EngineConfig{
	MaxOccurrences:        DefaultMaxOccurrences,
	AttemptsPerOccurrence: 48,
	CacheEnabled:          true,
	CacheConfig:           DefaultCacheConfig,
}

// StrictEngineConfig caps output tightly, for untrusted input.
var StrictEngineConfig = EngineConfig{
	MaxOccurrences:        100,
	AttemptsPerOccurrence: 16,
	CacheEnabled:          false,
}

// NewEngineWithConfig creates a new recurrence engine with custom configuration.
// A nil logger discards output.
func NewEngineWithConfig(config EngineConfig, logger *slog.Logger) *Engine {
	if config.MaxOccurrences <= 0 {
		config.MaxOccurrences = DefaultMaxOccurrences
	}
	if config.AttemptsPerOccurrence <= 0 {
		config.AttemptsPerOccurrence = DefaultEngineConfig.AttemptsPerOccurrence
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var cache *ExpansionCache
	if config.CacheEnabled {
		if config.CacheConfig.TTL <= 0 {
			config.CacheConfig.TTL = 15 * time.Minute
		}
		cache = NewExpansionCache(config.CacheConfig)
	}

	return &Engine{
		cache:  cache,
		config: config,
		logger: logger,
	}
}
