package fdsearch

import (
	"math"
	"reflect"
	"testing"
)

func TestBitSetDomain_Basics(t *testing.T) {
	d := NewBitSetDomain(-3, 4)
	if d.Size() != 8 || d.Min() != -3 || d.Max() != 4 {
		t.Fatalf("expected {-3..4}, got %s (size %d)", d, d.Size())
	}
	if !d.Contains(-3) || !d.Contains(0) || d.Contains(5) || d.Contains(-4) {
		t.Fatalf("membership wrong for %s", d)
	}
	if got := d.String(); got != "{-3..4}" {
		t.Fatalf("String() = %q", got)
	}

	empty := NewBitSetDomain(2, 1)
	if empty.Size() != 0 || empty.String() != "{}" {
		t.Fatalf("expected empty domain, got %s", empty)
	}
}

func TestBitSetDomain_NextPrevAcrossWords(t *testing.T) {
	d := NewBitSetDomainFromValues(-70, 1, 130)
	if got := d.Next(-70); got != 1 {
		t.Fatalf("Next(-70) = %d, want 1", got)
	}
	if got := d.Next(1); got != 130 {
		t.Fatalf("Next(1) = %d, want 130", got)
	}
	if got := d.Next(130); got != math.MaxInt {
		t.Fatalf("Next(130) = %d, want MaxInt", got)
	}
	if got := d.Prev(130); got != 1 {
		t.Fatalf("Prev(130) = %d, want 1", got)
	}
	if got := d.Prev(1); got != -70 {
		t.Fatalf("Prev(1) = %d, want -70", got)
	}
	if got := d.Prev(-70); got != math.MinInt {
		t.Fatalf("Prev(-70) = %d, want MinInt", got)
	}
	if got := d.Next(-1000); got != -70 {
		t.Fatalf("Next below min = %d, want -70", got)
	}
}

func TestBitSetDomain_Immutability(t *testing.T) {
	d := NewBitSetDomain(0, 9)
	r := d.RemoveValue(5).RemoveBelow(2).RemoveAbove(7)

	if d.Size() != 10 {
		t.Fatalf("receiver changed: %s", d)
	}
	want := []int{2, 3, 4, 6, 7}
	if got := r.(*BitSetDomain).ToSlice(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if r.String() != "{2,3,4,6,7}" {
		t.Fatalf("String() = %q", r.String())
	}
	if f := r.Fix(4); f.Size() != 1 || f.Min() != 4 {
		t.Fatalf("Fix(4) = %s", f)
	}
	if f := r.Fix(5); f.Size() != 0 {
		t.Fatalf("Fix(5) on a hole should be empty, got %s", f)
	}
}

func TestBitSetDomain_IterateValues(t *testing.T) {
	d := NewBitSetDomainFromValues(5, -2, 64, 5, 0)
	var got []int
	d.IterateValues(func(v int) { got = append(got, v) })
	if want := []int{-2, 0, 5, 64}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if d.Size() != 4 {
		t.Fatalf("duplicates must be ignored, size %d", d.Size())
	}
}

func TestIntervalDomain(t *testing.T) {
	d := NewIntervalDomain(0, 10)
	if d.Enumerated() {
		t.Fatalf("interval domains are bounds-only")
	}
	if r := d.RemoveValue(5); r.Size() != 11 {
		t.Fatalf("interior removal must be a no-op, got %s", r)
	}
	if r := d.RemoveValue(0); r.Min() != 1 {
		t.Fatalf("removing the lower bound must shrink, got %s", r)
	}
	if r := d.RemoveBelow(3).RemoveAbove(4); r.Size() != 2 || r.String() != "{3..4}" {
		t.Fatalf("got %s", r)
	}
	if got := d.Next(10); got != math.MaxInt {
		t.Fatalf("Next(max) = %d", got)
	}
	if !d.Equal(NewBitSetDomain(0, 10)) {
		t.Fatalf("equal value sets must compare equal across representations")
	}
}
