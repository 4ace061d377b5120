package plankton

// AgentID is a unique identifier for an agent. IDs are allocated by the
// Store, increase monotonically, and are never reused.
type AgentID int64

// Species identifies the kind of an agent.
type Species string

const (
	SpeciesPhyto Species = "phyto"
	SpeciesZoo   Species = "zoo"
)

// Vec is a point (or displacement) in the 2D domain.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Agent is the common view over the two agent kinds. It is a closed
// interface: *Phyto and *Zoo are the only implementations, so a type
// switch over them is exhaustive. Only Zoo carries an energy budget;
// a phytoplankton agent with energy is unrepresentable.
type Agent interface {
	ID() AgentID
	Species() Species
	Pos() Vec
	Heading() float64

	// state exposes the mutable position/heading core to the engine.
	state() *agentState
}

// agentState holds the fields shared by both species. The position is
// always kept wrapped into [0,W) x [0,H) by the Space.
type agentState struct {
	id  AgentID
	pos Vec
	dir float64
}

func (s *agentState) ID() AgentID        { return s.id }
func (s *agentState) Pos() Vec           { return s.pos }
func (s *agentState) Heading() float64   { return s.dir }
func (s *agentState) state() *agentState { return s }

// Phyto is a phytoplankton agent. It drifts, reproduces stochastically
// and dies from local overcrowding.
type Phyto struct {
	agentState
}

func (p *Phyto) Species() Species { return SpeciesPhyto }

// Zoo is a zooplankton agent. It hunts phytoplankton, pays a metabolic
// cost every step, dies from starvation and reproduces once its energy
// reaches a threshold. Energy may go negative transiently; the next
// starvation check then removes the agent with certainty.
type Zoo struct {
	agentState
	Energy int
}

func (z *Zoo) Species() Species { return SpeciesZoo }
