package fdsearch

// PathSubsetFilter narrows the active propagator set to the shortest paths
// between a variable and the objective. It only deactivates: the caller owns
// the checkpoint that brings the propagators back.
type PathSubsetFilter struct {
	graph       *ObjectiveGraph
	kept        map[*Propagator]struct{}
	visited     map[int]struct{}
	deactivated int
}

// NewPathSubsetFilter creates a filter over g.
func NewPathSubsetFilter(g *ObjectiveGraph) *PathSubsetFilter {
	return &PathSubsetFilter{
		graph:   g,
		kept:    make(map[*Propagator]struct{}),
		visited: make(map[int]struct{}),
	}
}

// RestrictToShortestPath walks parent edges from x's concrete variables
// toward the objective, keeping every active propagator it traverses, then
// sets passive every other active propagator attached to a visited
// variable. Propagators binding a sum-view objective stay active. Walking
// stops at instantiated variables. The result reports
// whether the objective was reached.
//
// It must be called inside a checkpoint opened by the caller.
func (f *PathSubsetFilter) RestrictToShortestPath(x *IntVar) bool {
	clear(f.kept)
	clear(f.visited)
	f.deactivated = 0

	reached := false
	var frontier []*IntVar
	for _, c := range concreteVars(x) {
		if f.graph.IsObjective(c) {
			reached = true
		}
		f.visited[c.id] = struct{}{}
		frontier = append(frontier, c)
	}
	order := append([]*IntVar(nil), frontier...)

	for len(frontier) > 0 {
		var next []*IntVar
		for _, v := range frontier {
			n := f.graph.Node(v)
			if n == nil {
				continue
			}
			for _, e := range n.Parents {
				if !e.Propagator.IsActive() {
					continue
				}
				f.kept[e.Propagator] = struct{}{}
				if f.graph.IsObjective(e.Near) {
					reached = true
				}
				if e.Near.IsInstantiated() {
					continue
				}
				if _, ok := f.visited[e.Near.id]; ok {
					continue
				}
				f.visited[e.Near.id] = struct{}{}
				next = append(next, e.Near)
				order = append(order, e.Near)
			}
		}
		frontier = next
	}

	for _, v := range order {
		for _, p := range v.props {
			if !p.IsActive() {
				continue
			}
			if _, ok := f.kept[p]; ok {
				continue
			}
			if _, ok := p.constraint.(*sumBounds); ok {
				continue
			}
			p.SetPassive()
			f.deactivated++
		}
	}
	return reached
}

// Kept returns how many propagators the last call kept.
func (f *PathSubsetFilter) Kept() int { return len(f.kept) }

// Deactivated returns how many propagators the last call set passive.
func (f *PathSubsetFilter) Deactivated() int { return f.deactivated }
