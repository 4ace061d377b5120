package plankton

import (
	"math"
)

// Space is the periodic 2D domain the agents move in. Opposite edges are
// identified, so every position lives in [0,W) x [0,H) and distances are
// measured with the toroidal metric (shortest path across the wrap).
//
// Internally the domain is partitioned into a uniform grid whose cell
// edge is at least the largest query radius, so a radius query only has
// to look at the cells overlapping the query window. Cell membership is
// maintained on every add, remove and move.
//
// Neighbor query results follow the grid scan order (cells row-major
// over the window, insertion order within a cell). That order is stable
// for a fixed operation history but is not part of the contract; callers
// must not rely on it.
type Space struct {
	width, height float64
	cellW, cellH  float64
	cols, rows    int

	cells  [][]AgentID // row-major: cells[row*cols+col]
	agents map[AgentID]*agentState
}

// NewSpace builds a periodic domain of the given extent. cellSize is the
// largest radius that will ever be queried; actual cell edges are rounded
// up so the grid tiles the domain exactly.
func NewSpace(width, height, cellSize float64) *Space {
	cols := int(math.Floor(width / cellSize))
	if cols < 1 {
		cols = 1
	}
	rows := int(math.Floor(height / cellSize))
	if rows < 1 {
		rows = 1
	}

	return &Space{
		width:  width,
		height: height,
		cellW:  width / float64(cols),
		cellH:  height / float64(rows),
		cols:   cols,
		rows:   rows,
		cells:  make([][]AgentID, cols*rows),
		agents: make(map[AgentID]*agentState),
	}
}

// Width returns the domain extent along x.
func (s *Space) Width() float64 { return s.width }

// Height returns the domain extent along y.
func (s *Space) Height() float64 { return s.height }

// wrap normalizes a point into [0,W) x [0,H).
func (s *Space) wrap(p Vec) Vec {
	x := math.Mod(p.X, s.width)
	if x < 0 {
		x += s.width
	}
	y := math.Mod(p.Y, s.height)
	if y < 0 {
		y += s.height
	}
	return Vec{X: x, Y: y}
}

// Distance returns the toroidal distance between two points: per axis the
// shorter of the direct and the wrapped separation.
func (s *Space) Distance(a, b Vec) float64 {
	dx := math.Abs(a.X - b.X)
	if dx > s.width/2 {
		dx = s.width - dx
	}
	dy := math.Abs(a.Y - b.Y)
	if dy > s.height/2 {
		dy = s.height - dy
	}
	return math.Hypot(dx, dy)
}

func (s *Space) cellIndex(p Vec) int {
	col := int(p.X / s.cellW)
	if col >= s.cols {
		col = s.cols - 1
	}
	row := int(p.Y / s.cellH)
	if row >= s.rows {
		row = s.rows - 1
	}
	return row*s.cols + col
}

// add inserts an agent, wrapping its position first. The caller (the
// Store) guarantees the id is not already present.
func (s *Space) add(st *agentState) {
	st.pos = s.wrap(st.pos)
	s.agents[st.id] = st
	idx := s.cellIndex(st.pos)
	s.cells[idx] = append(s.cells[idx], st.id)
}

// remove deletes an agent from the index. Unknown ids are a no-op.
func (s *Space) remove(id AgentID) {
	st, ok := s.agents[id]
	if !ok {
		return
	}
	delete(s.agents, id)
	s.removeFromCell(s.cellIndex(st.pos), id)
}

func (s *Space) removeFromCell(idx int, id AgentID) {
	cell := s.cells[idx]
	for i, other := range cell {
		if other == id {
			s.cells[idx] = append(cell[:i], cell[i+1:]...)
			return
		}
	}
}

// Move displaces an agent by (dx, dy), wraps the new position back into
// the domain and updates grid membership. Moving an unknown id is a
// no-op: the agent died earlier in the step.
func (s *Space) Move(id AgentID, dx, dy float64) {
	st, ok := s.agents[id]
	if !ok {
		return
	}
	oldIdx := s.cellIndex(st.pos)
	st.pos = s.wrap(Vec{X: st.pos.X + dx, Y: st.pos.Y + dy})
	newIdx := s.cellIndex(st.pos)
	if newIdx != oldIdx {
		s.removeFromCell(oldIdx, id)
		s.cells[newIdx] = append(s.cells[newIdx], id)
	}
}

// NeighborsWithin returns the ids of every agent whose toroidal distance
// to p is at most radius. The agent at p itself is not excluded; callers
// filter their own id if they need to.
func (s *Space) NeighborsWithin(p Vec, radius float64) []AgentID {
	p = s.wrap(p)

	minCol := int(math.Floor((p.X - radius) / s.cellW))
	maxCol := int(math.Floor((p.X + radius) / s.cellW))
	if maxCol-minCol+1 >= s.cols {
		minCol, maxCol = 0, s.cols-1
	}
	minRow := int(math.Floor((p.Y - radius) / s.cellH))
	maxRow := int(math.Floor((p.Y + radius) / s.cellH))
	if maxRow-minRow+1 >= s.rows {
		minRow, maxRow = 0, s.rows-1
	}

	var out []AgentID
	for row := minRow; row <= maxRow; row++ {
		r := wrapIndex(row, s.rows)
		for col := minCol; col <= maxCol; col++ {
			c := wrapIndex(col, s.cols)
			for _, id := range s.cells[r*s.cols+c] {
				if s.Distance(p, s.agents[id].pos) <= radius {
					out = append(out, id)
				}
			}
		}
	}
	return out
}

// wrapIndex maps i into [0, n) with the sign convention of a torus.
func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
