package config

import (
	"fmt"
	"strings"
)

// Text clause policies accepted by search.text_policy.
const (
	TextPolicyLengthKeyed = "length_keyed"
	TextPolicySimple      = "simple"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}
	if c.Server.RateLimitPerMin < 0 {
		return fmt.Errorf("server.rate_limit_per_min must be >= 0 (got %d)", c.Server.RateLimitPerMin)
	}

	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) must not exceed max_conns (%d)",
			c.Database.MinConns, c.Database.MaxConns)
	}

	if err := c.Search.validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if c.Loader.BatchSize <= 0 {
		return fmt.Errorf("loader.batch_size must be > 0 (got %d)", c.Loader.BatchSize)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with / (got %q)", c.Metrics.Path)
	}

	return nil
}

func (s *SearchConfig) validate() error {
	if s.QueryTimeout < 0 {
		return fmt.Errorf("query_timeout must be >= 0 (got %s)", s.QueryTimeout)
	}
	if s.DefaultPageSize <= 0 {
		return fmt.Errorf("default_page_size must be > 0 (got %d)", s.DefaultPageSize)
	}
	if s.MaxPageSize < s.DefaultPageSize {
		return fmt.Errorf("max_page_size (%d) must be >= default_page_size (%d)",
			s.MaxPageSize, s.DefaultPageSize)
	}
	if s.FuzzyThreshold <= 0 || s.FuzzyThreshold > 1 {
		return fmt.Errorf("fuzzy_threshold must be in (0, 1] (got %v)", s.FuzzyThreshold)
	}

	s.TextPolicy = strings.ToLower(strings.TrimSpace(s.TextPolicy))
	switch s.TextPolicy {
	case TextPolicyLengthKeyed, TextPolicySimple:
	default:
		return fmt.Errorf("text_policy must be %q or %q (got %q)",
			TextPolicyLengthKeyed, TextPolicySimple, s.TextPolicy)
	}

	return nil
}
