package fdsearch

import (
	"errors"
	"reflect"
	"testing"
)

func propagate(t *testing.T, m *Model) {
	t.Helper()
	if err := m.Propagate(); err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}
}

func values(v *IntVar) []int {
	var out []int
	v.Domain().IterateValues(func(x int) { out = append(out, x) })
	return out
}

func TestLinearSum_Bounds(t *testing.T) {
	m := NewModel("sum")
	x := m.IntVar("x", 0, 5)
	y := m.IntVar("y", 0, 5)
	total := m.BoundedVar("t", 0, 100)
	m.Post(must(NewLinearSum([]*IntVar{x, y}, []int{2, 3}, total)))
	propagate(t, m)
	if total.LB() != 0 || total.UB() != 25 {
		t.Fatalf("t = %s, want [0..25]", total)
	}

	total.UpdateUpperBound(4, nil)
	propagate(t, m)
	if x.UB() != 2 || y.UB() != 1 {
		t.Fatalf("x=%s y=%s, want x<=2 y<=1", x, y)
	}
}

func TestLinearSum_NegativeCoefficient(t *testing.T) {
	m := NewModel("diff")
	x := m.IntVar("x", 0, 5)
	y := m.IntVar("y", 0, 5)
	d := m.BoundedVar("d", -100, 100)
	m.Post(must(NewLinearSum([]*IntVar{x, y}, []int{1, -1}, d)))
	propagate(t, m)
	if d.LB() != -5 || d.UB() != 5 {
		t.Fatalf("d = %s, want [-5..5]", d)
	}

	d.UpdateLowerBound(4, nil)
	propagate(t, m)
	if x.LB() != 4 || y.UB() != 1 {
		t.Fatalf("x=%s y=%s", x, y)
	}
}

func TestArithmetic_FiltersSupport(t *testing.T) {
	m := NewModel("arith")
	src := m.IntVarFromValues("src", 0, 2, 4)
	dst := m.IntVar("dst", 0, 10)
	m.Post(must(NewArithmetic(src, dst, 3)))
	propagate(t, m)
	if got := values(dst); !reflect.DeepEqual(got, []int{3, 5, 7}) {
		t.Fatalf("dst = %v", got)
	}

	dst.RemoveValue(5, nil)
	propagate(t, m)
	if got := values(src); !reflect.DeepEqual(got, []int{0, 4}) {
		t.Fatalf("src = %v", got)
	}
}

func TestInequality_Kinds(t *testing.T) {
	m := NewModel("ineq")
	x := m.IntVar("x", 0, 5)
	y := m.IntVar("y", 0, 5)
	m.Post(must(NewInequality(x, y, GreaterThan)))
	propagate(t, m)
	if x.LB() != 1 || y.UB() != 4 {
		t.Fatalf("x=%s y=%s", x, y)
	}

	z := m.IntVar("z", 0, 3)
	m.Post(must(NewInequality(z, x, NotEqual)))
	x.InstantiateTo(2, nil)
	propagate(t, m)
	if z.Contains(2) {
		t.Fatalf("z must lose 2, got %s", z)
	}

	if _, err := NewInequality(x, y, InequalityKind(42)); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestAllDifferent(t *testing.T) {
	m := NewModel("alldiff")
	a := m.IntVar("a", 1, 1)
	b := m.IntVar("b", 1, 2)
	c := m.IntVar("c", 1, 3)
	m.Post(must(NewAllDifferent([]*IntVar{a, b, c})))
	propagate(t, m)
	if !b.IsInstantiated() || b.Value() != 2 || !c.IsInstantiated() || c.Value() != 3 {
		t.Fatalf("b=%s c=%s", b, c)
	}

	m2 := NewModel("pigeons")
	m2.Post(must(NewAllDifferent(m2.IntVars("p", 3, 0, 1))))
	if err := m2.Propagate(); !IsContradiction(err) {
		t.Fatalf("three pigeons in two holes must fail, got %v", err)
	}
}

func TestMaximum(t *testing.T) {
	m := NewModel("max")
	a := m.IntVar("a", 0, 3)
	b := m.IntVar("b", 0, 7)
	r := m.IntVar("r", 5, 6)
	m.Post(must(NewMaximum([]*IntVar{a, b}, r)))
	propagate(t, m)
	if b.LB() != 5 || b.UB() != 6 {
		t.Fatalf("b is the only support of r and must be in [5..6], got %s", b)
	}
	if a.UB() != 3 {
		t.Fatalf("a = %s", a)
	}

	m2 := NewModel("max-fail")
	r2 := m2.IntVar("r", 8, 9)
	m2.Post(must(NewMaximum([]*IntVar{m2.IntVar("a", 0, 3)}, r2)))
	if err := m2.Propagate(); !IsContradiction(err) {
		t.Fatalf("expected contradiction, got %v", err)
	}
}

func TestElement(t *testing.T) {
	m := NewModel("element")
	idx := m.IntVar("i", -2, 10)
	res := m.IntVar("r", 0, 25)
	m.Post(must(NewElement(idx, []int{10, 20, 10, 30}, res)))
	propagate(t, m)
	if got := values(idx); !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Fatalf("index = %v", got)
	}
	if got := values(res); !reflect.DeepEqual(got, []int{10, 20}) {
		t.Fatalf("result = %v", got)
	}

	res.RemoveValue(10, nil)
	propagate(t, m)
	if !idx.IsInstantiated() || idx.Value() != 1 {
		t.Fatalf("index = %s", idx)
	}
}

func TestCumulative_Disjunctive(t *testing.T) {
	m := NewModel("disjunctive")
	a := m.IntVar("a", 0, 0)
	b := m.IntVar("b", 0, 5)
	m.Post(must(NewDisjunctive([]*IntVar{a, b}, []int{3, 2})))
	propagate(t, m)
	if got := values(b); !reflect.DeepEqual(got, []int{3, 4, 5}) {
		t.Fatalf("b = %v", got)
	}

	m2 := NewModel("overload")
	x := m2.IntVar("x", 0, 0)
	y := m2.IntVar("y", 1, 1)
	m2.Post(must(NewCumulative([]*IntVar{x, y}, []int{2, 2}, []int{1, 1}, 1)))
	if err := m2.Propagate(); !IsContradiction(err) {
		t.Fatalf("overlapping fixed tasks must fail, got %v", err)
	}
}

func TestCumulative_CapacityAllowsOverlap(t *testing.T) {
	m := NewModel("cumulative")
	a := m.IntVar("a", 0, 0)
	b := m.IntVar("b", 0, 4)
	m.Post(must(NewCumulative([]*IntVar{a, b}, []int{3, 2}, []int{1, 1}, 2)))
	propagate(t, m)
	if b.Size() != 5 {
		t.Fatalf("capacity 2 must leave b untouched, got %s", b)
	}
}

func TestConstructorsRejectMalformedInput(t *testing.T) {
	m := NewModel("bad")
	x := m.IntVar("x", 0, 1)
	cases := map[string]error{}
	_, cases["sum-empty"] = NewLinearSum(nil, nil, x)
	_, cases["sum-len"] = NewLinearSum([]*IntVar{x}, []int{1, 2}, x)
	_, cases["arith-nil"] = NewArithmetic(nil, x, 0)
	_, cases["alldiff-empty"] = NewAllDifferent(nil)
	_, cases["max-nil"] = NewMaximum([]*IntVar{x}, nil)
	_, cases["element-empty"] = NewElement(x, nil, x)
	_, cases["cumulative-capacity"] = NewCumulative([]*IntVar{x}, []int{1}, []int{1}, 0)
	_, cases["cumulative-duration"] = NewCumulative([]*IntVar{x}, []int{0}, []int{1}, 1)
	for name, err := range cases {
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s: expected ErrInvalidArgument, got %v", name, err)
		}
	}
}
