package terrain

import (
	"math/rand"

	"github.com/talgya/tileforge/internal/world"
)

const (
	edgeW = iota
	edgeSW
	edgeSE
)

// placeRivers traces paths from high ground toward water and writes river
// edges along them.
func placeRivers(m *Map, cfg GenConfig, rng *rand.Rand) {
	if cfg.Rivers == 0 {
		return
	}

	// Highland land tiles are river sources.
	var sources []world.Offset
	for id := range m.cells {
		c := &m.cells[id]
		if c.elev > cfg.HillLvl && !c.water() && !c.boundary {
			x, y := m.Dims.Coords(id)
			sources = append(sources, world.Offset{X: x, Y: y})
		}
	}

	rng.Shuffle(len(sources), func(i, j int) {
		sources[i], sources[j] = sources[j], sources[i]
	})
	if len(sources) > cfg.Rivers {
		sources = sources[:cfg.Rivers]
	}

	for _, start := range sources {
		path := traceRiver(m, start)
		if len(path) >= 2 {
			markRiver(m, path)
		}
	}
}

// traceRiver follows the steepest descent from start until it reaches water
// or runs out of downhill path. The returned path excludes the water tile.
func traceRiver(m *Map, start world.Offset) []world.Offset {
	var path []world.Offset
	visited := make(map[world.Offset]bool)
	current := start
	maxSteps := 50

	for step := 0; step < maxSteps; step++ {
		visited[current] = true
		c := m.at(current.X, current.Y)
		if c == nil || c.water() || c.boundary {
			break
		}
		path = append(path, current)

		var best *world.Offset
		bestElev := c.elev
		for _, n := range current.Neighbors() {
			if visited[n] {
				continue
			}
			nc := m.at(n.X, n.Y)
			if nc == nil {
				continue
			}
			if nc.elev < bestElev {
				bestElev = nc.elev
				nn := n
				best = &nn
			}
		}
		if best == nil {
			break
		}
		current = *best
	}
	return path
}

// markRiver writes river edges along path. Every path tile gets a visible
// west edge. A step to the north-east neighbour opens the destination's
// south-west edge; a step to the north-west neighbour closes the south-east
// edge of the tile west of the destination.
func markRiver(m *Map, path []world.Offset) {
	set := func(p world.Offset, edge, value int) {
		if c := m.at(p.X, p.Y); c != nil && !c.boundary && !c.water() {
			c.river[edge] = value
		}
	}

	for _, p := range path {
		set(p, edgeW, 1)
	}
	for i := 1; i < len(path); i++ {
		prev, cur := path[i-1], path[i]
		ne, nw := northNeighbors(prev)
		switch cur {
		case ne:
			set(cur, edgeSW, 1)
		case nw:
			set(world.Offset{X: cur.X - 1, Y: cur.Y}, edgeSE, 0)
		}
	}
}

// northNeighbors returns the two neighbours of p on the next row.
func northNeighbors(p world.Offset) (ne, nw world.Offset) {
	if p.Y&1 == 0 {
		return world.Offset{X: p.X, Y: p.Y + 1}, world.Offset{X: p.X - 1, Y: p.Y + 1}
	}
	return world.Offset{X: p.X + 1, Y: p.Y + 1}, world.Offset{X: p.X, Y: p.Y + 1}
}
