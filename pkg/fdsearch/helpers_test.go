package fdsearch

import "fmt"

// forbidFixed fails only once x is fixed to value. It prunes nothing, so
// only lookahead can discover the value is infeasible.
type forbidFixed struct {
	x     *IntVar
	value int
}

func (c *forbidFixed) Variables() []*IntVar { return []*IntVar{c.x} }
func (c *forbidFixed) Type() string         { return "forbidFixed" }
func (c *forbidFixed) String() string       { return fmt.Sprintf("%s never fixed to %d", c.x.Name(), c.value) }

func (c *forbidFixed) Propagate(p *Propagator) error {
	if c.x.IsInstantiated() && c.x.Value() == c.value {
		return &Contradiction{Cause: p, Var: c.x, Msg: "forbidden value"}
	}
	return nil
}

// floorAt fails when z can no longer reach k: the objective of a
// minimisation cannot be pushed below k without a contradiction.
type floorAt struct {
	z *IntVar
	k int
}

func (c *floorAt) Variables() []*IntVar { return []*IntVar{c.z} }
func (c *floorAt) Type() string         { return "floorAt" }
func (c *floorAt) String() string       { return fmt.Sprintf("%s reaches %d", c.z.Name(), c.k) }

func (c *floorAt) Propagate(p *Propagator) error {
	if c.z.UB() < c.k {
		return &Contradiction{Cause: p, Var: c.z, Msg: "below floor"}
	}
	return nil
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// sumModel is z = x + y with x, y in [0,5] and z in [0,10], minimised.
func sumModel() (m *Model, x, y, z *IntVar) {
	m = NewModel("sum")
	x = m.IntVar("x", 0, 5)
	y = m.IntVar("y", 0, 5)
	z = m.BoundedVar("z", 0, 10)
	m.Post(must(NewSumEquals([]*IntVar{x, y}, z)))
	m.SetObjective(Minimize, z)
	return m, x, y, z
}
