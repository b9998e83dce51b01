package esg

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/esg-engine/internal/config"
)

// DefaultFallbackMaxScore is the max_score assumed by older assessment
// templates that omitted it.
const DefaultFallbackMaxScore = 300

// DefaultScoringConfig returns a config.ScoringConfig with sensible defaults.
func DefaultScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		FallbackMaxScore: DefaultFallbackMaxScore,
		Categories:       []string{CategoryEnvironment, CategorySocial, CategoryGovernance},
	}
}

// ValidateConfig checks that a ScoringConfig is internally consistent.
func ValidateConfig(c config.ScoringConfig) error {
	var errs []string

	if c.FallbackMaxScore <= 0 {
		errs = append(errs, "fallback_max_score must be > 0")
	}

	seen := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		name := strings.TrimSpace(cat)
		if name == "" {
			errs = append(errs, "categories must not contain blank names")
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Sprintf("duplicate category %q", name))
		}
		seen[name] = true
	}

	if len(errs) > 0 {
		return eris.Errorf("esg: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
