package client

import (
	"github.com/planktosim/planktosim/internal/plankton"
)

// ConfigBuilder builds a simulation config fluently, starting from the
// server defaults so callers only touch what they want to change.
type ConfigBuilder struct {
	cfg plankton.SimConfig
}

// NewConfig starts a builder from the default scenario.
func NewConfig() *ConfigBuilder {
	return &ConfigBuilder{cfg: plankton.DefaultConfig()}
}

// Populations sets the initial population of both species.
func (b *ConfigBuilder) Populations(phyto, zoo int) *ConfigBuilder {
	b.cfg.PopulationPhyto = phyto
	b.cfg.PopulationZoo = zoo
	return b
}

// Domain sets the extent of the toroidal domain.
func (b *ConfigBuilder) Domain(width, height float64) *ConfigBuilder {
	b.cfg.Width = width
	b.cfg.Height = height
	return b
}

// Steps sets the step budget for batch runs.
func (b *ConfigBuilder) Steps(n int) *ConfigBuilder {
	b.cfg.Steps = n
	return b
}

// Seed pins the random stream for a reproducible trajectory.
func (b *ConfigBuilder) Seed(seed int64) *ConfigBuilder {
	b.cfg.Seed = seed
	return b
}

// Rules applies fn to the rule parameters, which start at the defaults.
func (b *ConfigBuilder) Rules(fn func(*plankton.RuleParams)) *ConfigBuilder {
	fn(&b.cfg.Rules)
	return b
}

// Build returns the assembled config.
func (b *ConfigBuilder) Build() plankton.SimConfig {
	return b.cfg
}
