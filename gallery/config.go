package gallery

import "time"

const (
	// DefaultSlotTimeout bounds how long a slot may stay non-terminal.
	DefaultSlotTimeout = 30 * time.Second
	// DefaultPlaceholder is shown for slots that end in StateError.
	DefaultPlaceholder = "/static/media-placeholder.svg"

	defaultProbeConcurrency = 6
)

// Config configures a gallery.
type Config struct {
	// SlotTimeout moves a slot that is still not terminal to StateError.
	SlotTimeout time.Duration `yaml:"slot_timeout" mapstructure:"slot_timeout"`

	// Placeholder is the display URL of failed slots.
	Placeholder string `yaml:"placeholder" mapstructure:"placeholder"`

	// PublicFallback declares that unsigned references are publicly
	// readable. When false an identity fallback goes straight to the
	// placeholder without a load probe.
	PublicFallback bool `yaml:"public_fallback" mapstructure:"public_fallback"`

	// ProbeConcurrency bounds concurrent load probes.
	ProbeConcurrency int `yaml:"probe_concurrency" mapstructure:"probe_concurrency"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.SlotTimeout <= 0 {
		c.SlotTimeout = DefaultSlotTimeout
	}
	if c.Placeholder == "" {
		c.Placeholder = DefaultPlaceholder
	}
	if c.ProbeConcurrency <= 0 {
		c.ProbeConcurrency = defaultProbeConcurrency
	}
}
