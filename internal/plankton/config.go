package plankton

// SimConfig is the initialization surface of a simulation. Load JSON
// over DefaultConfig() so absent fields keep their defaults while an
// explicit zero (e.g. no zooplankton at all) is respected.
type SimConfig struct {
	PopulationPhyto int     `json:"population_phyto"`
	PopulationZoo   int     `json:"population_zoo"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	Steps           int     `json:"steps"`

	// Seed for the random stream; 0 means derive one from the clock.
	Seed int64 `json:"seed,omitempty"`

	Rules RuleParams `json:"rules"`
}

// DefaultConfig returns the standard scenario: 200 phytoplankton and 20
// zooplankton in a 70x70 domain for 200 steps.
func DefaultConfig() SimConfig {
	return SimConfig{
		PopulationPhyto: 200,
		PopulationZoo:   20,
		Width:           70.0,
		Height:          70.0,
		Steps:           200,
		Rules:           DefaultRuleParams(),
	}
}

// Validate rejects configurations no simulation state should be built
// from. All issues are collected so the caller sees everything wrong at
// once.
func (c SimConfig) Validate() error {
	err := &ValidationError{}

	if c.PopulationPhyto < 0 {
		err.Add("population_phyto must not be negative")
	}
	if c.PopulationZoo < 0 {
		err.Add("population_zoo must not be negative")
	}
	if c.Width <= 0 {
		err.Add("width must be positive")
	}
	if c.Height <= 0 {
		err.Add("height must be positive")
	}
	if c.Steps <= 0 {
		err.Add("steps must be positive")
	}
	if c.Rules.CrowdRadius <= 0 {
		err.Add("rules.crowd_radius must be positive")
	}
	if c.Rules.HuntRadius <= 0 {
		err.Add("rules.hunt_radius must be positive")
	}
	if c.Rules.PhytoBirthRate < 0 || c.Rules.PhytoBirthRate > 1 {
		err.Add("rules.phyto_birth_rate must be in [0, 1]")
	}
	if c.Rules.InitialEnergyMin > c.Rules.InitialEnergyMax {
		err.Add("rules.initial_energy_min must not exceed rules.initial_energy_max")
	}

	if err.HasIssues() {
		return err
	}
	return nil
}
