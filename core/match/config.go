package match

import "fmt"

// Config controls mention extraction. The zero value is not valid as a
// default, use DefaultConfig.
type Config struct {
	// MinConfidence drops mentions scoring below it. Must be in [0, 1].
	MinConfidence float64
	// ContextChars is the amount of surrounding text captured on each
	// side of a match for the mention context. Must not be negative.
	ContextChars int
}

// DefaultConfig returns the default extraction configuration.
func DefaultConfig() *Config {
	return &Config{
		MinConfidence: 0.0,
		ContextChars:  50,
	}
}

func (c *Config) validate() error {
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be between 0 and 1, got %v", c.MinConfidence)
	}
	if c.ContextChars < 0 {
		return fmt.Errorf("context chars must not be negative, got %d", c.ContextChars)
	}
	return nil
}
