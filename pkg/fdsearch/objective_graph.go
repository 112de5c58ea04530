package fdsearch

// objective_graph.go: shortest constraint paths from every variable to the objective

// Edge links a variable to a neighbour one hop closer to the objective
// through a shared propagator.
type Edge struct {
	Propagator *Propagator
	Near       *IntVar // endpoint closer to the objective
	Far        *IntVar // endpoint farther from the objective
}

// IsActive reports whether the edge can still carry information toward the
// objective: its propagator is active and the near endpoint is not fixed.
func (e Edge) IsActive() bool {
	return e.Propagator.IsActive() && !e.Near.IsInstantiated()
}

// GraphNode is a concrete variable reachable from the objective. Parents
// lists every edge toward a variable at Distance-1; a variable may have
// several shortest paths and all of them are kept.
type GraphNode struct {
	Var      *IntVar
	Distance int
	Parents  []Edge
}

// ObjectiveGraph is the bipartite variable/constraint graph explored
// breadth-first from the objective. Nodes live in an arena addressed by
// index, and every lookup goes through per-variable index tables, so the
// graph is read-only once built and can be shared by the selectors and
// filters of one model.
//
// The topology is computed once. Propagator activity changes during search
// and is re-checked at use time through Edge.IsActive, but constraints
// becoming permanently irrelevant never shrink the graph.
type ObjectiveGraph struct {
	model     *Model
	objective []*IntVar
	nodes     []GraphNode
	index     []int // variable id -> node index, -1 if none
	proxy     []int // view id -> proxy variable id, -1 if none
	examined  int
	levels    map[int][][]*Propagator
}

// BuildObjectiveGraph runs one breadth-first pass from the objective over
// the model's propagators. Each propagator is examined once, so the cost is
// linear in the number of variable occurrences.
func BuildObjectiveGraph(m *Model) (*ObjectiveGraph, error) {
	obj := m.Objective()
	if obj == nil {
		return nil, &ConfigurationError{Op: "build objective graph", Err: ErrNoObjective}
	}
	g := &ObjectiveGraph{
		model:  m,
		index:  make([]int, len(m.vars)),
		proxy:  make([]int, len(m.vars)),
		levels: make(map[int][][]*Propagator),
	}
	for i := range g.index {
		g.index[i] = -1
		g.proxy[i] = -1
	}

	seen := make([]bool, len(m.props))
	processed := make([]bool, len(m.vars))

	frontier := concreteVars(obj)
	g.objective = frontier
	for _, v := range frontier {
		g.addNode(v, 0)
		processed[v.id] = true
	}

	for dist := 1; len(frontier) > 0; dist++ {
		var next []*IntVar
		for _, u := range frontier {
			for _, p := range u.props {
				if seen[p.id] {
					continue
				}
				seen[p.id] = true
				g.examined++
				for _, w := range p.Variables() {
					for _, c := range concreteVars(w) {
						if processed[c.id] {
							continue
						}
						ni := g.index[c.id]
						if ni < 0 {
							ni = g.addNode(c, dist)
							next = append(next, c)
						}
						node := &g.nodes[ni]
						if k := len(node.Parents); k > 0 && node.Parents[k-1].Propagator == p && node.Parents[k-1].Near == u {
							continue
						}
						node.Parents = append(node.Parents, Edge{Propagator: p, Near: u, Far: c})
					}
				}
			}
		}
		for _, c := range next {
			processed[c.id] = true
		}
		frontier = next
	}

	for _, v := range m.vars {
		if v.view == nil {
			continue
		}
		best, bestDist := -1, 0
		for _, c := range concreteVars(v) {
			ni := g.index[c.id]
			if ni < 0 {
				continue
			}
			if best < 0 || g.nodes[ni].Distance < bestDist {
				best, bestDist = c.id, g.nodes[ni].Distance
			}
		}
		g.proxy[v.id] = best
	}
	return g, nil
}

func (g *ObjectiveGraph) addNode(v *IntVar, dist int) int {
	g.nodes = append(g.nodes, GraphNode{Var: v, Distance: dist})
	g.index[v.id] = len(g.nodes) - 1
	return len(g.nodes) - 1
}

// concreteVars unwraps views recursively and drops constants.
func concreteVars(v *IntVar) []*IntVar {
	if v.constant {
		return nil
	}
	if v.view == nil {
		return []*IntVar{v}
	}
	var out []*IntVar
	for _, d := range v.view.deps() {
		for _, c := range concreteVars(d) {
			dup := false
			for _, o := range out {
				if o == c {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, c)
			}
		}
	}
	return out
}

// Node returns the node of a concrete variable, or nil when the variable is
// a view, a constant, unknown to the graph or unreachable from the objective.
func (g *ObjectiveGraph) Node(v *IntVar) *GraphNode {
	if v == nil || v.id >= len(g.index) || g.index[v.id] < 0 {
		return nil
	}
	return &g.nodes[g.index[v.id]]
}

// MostRelevant returns v itself for a concrete variable, and for a view the
// dependency closest to the objective. It returns nil for a view none of
// whose dependencies is reachable.
func (g *ObjectiveGraph) MostRelevant(v *IntVar) *IntVar {
	if v.view == nil {
		return v
	}
	if v.id >= len(g.proxy) || g.proxy[v.id] < 0 {
		return nil
	}
	return g.model.vars[g.proxy[v.id]]
}

// Distance returns the hop distance of v (through its proxy for a view).
func (g *ObjectiveGraph) Distance(v *IntVar) (int, bool) {
	c := g.MostRelevant(v)
	if c == nil {
		return 0, false
	}
	n := g.Node(c)
	if n == nil {
		return 0, false
	}
	return n.Distance, true
}

// IsObjective reports whether v is one of the concrete variables the
// objective resolves to.
func (g *ObjectiveGraph) IsObjective(v *IntVar) bool {
	n := g.Node(v)
	return n != nil && n.Distance == 0
}

// Objective returns the concrete variables the objective resolves to.
func (g *ObjectiveGraph) Objective() []*IntVar { return g.objective }

// Nodes returns the arena of nodes in discovery order. Callers must not
// modify it.
func (g *ObjectiveGraph) Nodes() []GraphNode { return g.nodes }

// Examined returns how many propagators the construction pass visited.
func (g *ObjectiveGraph) Examined() int { return g.examined }

// PathLevels returns the propagators on the shortest paths from v to the
// objective, grouped by hop: level 0 holds the propagators leaving v's own
// node and the last level reaches the objective. Results are memoized.
func (g *ObjectiveGraph) PathLevels(v *IntVar) [][]*Propagator {
	c := g.MostRelevant(v)
	if c == nil {
		return nil
	}
	start := g.Node(c)
	if start == nil {
		return nil
	}
	if lv, ok := g.levels[c.id]; ok {
		return lv
	}

	var levels [][]*Propagator
	visited := map[int]bool{c.id: true}
	seen := make(map[*Propagator]bool)
	frontier := []*GraphNode{start}
	for len(frontier) > 0 {
		var level []*Propagator
		var next []*GraphNode
		for _, n := range frontier {
			for _, e := range n.Parents {
				if !seen[e.Propagator] {
					seen[e.Propagator] = true
					level = append(level, e.Propagator)
				}
				if !visited[e.Near.id] {
					visited[e.Near.id] = true
					next = append(next, g.Node(e.Near))
				}
			}
		}
		if len(level) > 0 {
			levels = append(levels, level)
		}
		frontier = next
	}
	g.levels[c.id] = levels
	return levels
}
