package fdsearch

// domain.go: immutable finite domains over (possibly negative) integers

import (
	"fmt"
	"math"
	"math/bits"
	"strings"
)

// Domain represents the set of values a concrete variable can still take.
// Domains are immutable: every narrowing operation returns a new Domain and
// leaves the receiver untouched, which is what lets the environment trail
// restore an old domain by simply storing the previous value.
//
// An empty domain (Size() == 0) is never stored on a variable; the variable
// layer turns emptiness into a *Contradiction instead.
type Domain interface {
	// Min returns the smallest value. Undefined on an empty domain.
	Min() int
	// Max returns the largest value. Undefined on an empty domain.
	Max() int
	// Size returns the number of values.
	Size() int
	// Contains reports whether v is in the domain.
	Contains(v int) bool

	// Next returns the smallest value strictly greater than v,
	// or math.MaxInt if there is none.
	Next(v int) int
	// Prev returns the largest value strictly smaller than v,
	// or math.MinInt if there is none.
	Prev(v int) int

	// Enumerated reports whether holes are represented. Interval domains
	// only track their bounds.
	Enumerated() bool

	// IterateValues calls f for each value in ascending order.
	IterateValues(f func(v int))

	// RemoveValue returns the domain without v.
	RemoveValue(v int) Domain
	// RemoveBelow returns the domain without the values < v.
	RemoveBelow(v int) Domain
	// RemoveAbove returns the domain without the values > v.
	RemoveAbove(v int) Domain
	// Fix returns the domain reduced to {v}, or an empty domain when v is absent.
	Fix(v int) Domain

	Equal(other Domain) bool
	String() string
}

// BitSetDomain is an enumerated domain backed by a bitset.
// Bit i of the set represents the value offset+i.
type BitSetDomain struct {
	offset int
	words  []uint64
	count  int
	min    int
	max    int
}

// NewBitSetDomain creates the domain {lo..hi}. If hi < lo the domain is empty.
func NewBitSetDomain(lo, hi int) *BitSetDomain {
	if hi < lo {
		return &BitSetDomain{offset: lo}
	}
	n := hi - lo + 1
	words := make([]uint64, (n+63)/64)
	for i := 0; i < n/64; i++ {
		words[i] = ^uint64(0)
	}
	if rem := n % 64; rem != 0 {
		words[len(words)-1] = (uint64(1) << uint(rem)) - 1
	}
	return &BitSetDomain{offset: lo, words: words, count: n, min: lo, max: hi}
}

// NewBitSetDomainFromValues creates an enumerated domain holding exactly
// the given values. Duplicates are ignored.
func NewBitSetDomainFromValues(values ...int) *BitSetDomain {
	if len(values) == 0 {
		return &BitSetDomain{}
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	words := make([]uint64, (hi-lo+64)/64)
	for _, v := range values {
		i := v - lo
		words[i/64] |= uint64(1) << uint(i%64)
	}
	return newBitSet(lo, words)
}

// newBitSet takes ownership of words and computes the cached summary.
func newBitSet(offset int, words []uint64) *BitSetDomain {
	d := &BitSetDomain{offset: offset, words: words}
	first := true
	for wi, w := range words {
		if w == 0 {
			continue
		}
		d.count += bits.OnesCount64(w)
		if first {
			d.min = offset + wi*64 + bits.TrailingZeros64(w)
			first = false
		}
		d.max = offset + wi*64 + 63 - bits.LeadingZeros64(w)
	}
	return d
}

func (d *BitSetDomain) Min() int         { return d.min }
func (d *BitSetDomain) Max() int         { return d.max }
func (d *BitSetDomain) Size() int        { return d.count }
func (d *BitSetDomain) Enumerated() bool { return true }

// Contains is O(1).
func (d *BitSetDomain) Contains(v int) bool {
	if d.count == 0 || v < d.min || v > d.max {
		return false
	}
	i := v - d.offset
	return d.words[i/64]>>uint(i%64)&1 == 1
}

// Next scans forward word by word from v+1.
func (d *BitSetDomain) Next(v int) int {
	if d.count == 0 || v >= d.max {
		return math.MaxInt
	}
	if v < d.min {
		return d.min
	}
	i := v + 1 - d.offset
	wi := i / 64
	w := d.words[wi] >> uint(i%64)
	if w != 0 {
		return v + 1 + bits.TrailingZeros64(w)
	}
	for wi++; wi < len(d.words); wi++ {
		if d.words[wi] != 0 {
			return d.offset + wi*64 + bits.TrailingZeros64(d.words[wi])
		}
	}
	return math.MaxInt
}

// Prev scans backward word by word from v-1.
func (d *BitSetDomain) Prev(v int) int {
	if d.count == 0 || v <= d.min {
		return math.MinInt
	}
	if v > d.max {
		return d.max
	}
	i := v - 1 - d.offset
	wi := i / 64
	w := d.words[wi] << uint(63-i%64)
	if w != 0 {
		return v - 1 - bits.LeadingZeros64(w)
	}
	for wi--; wi >= 0; wi-- {
		if d.words[wi] != 0 {
			return d.offset + wi*64 + 63 - bits.LeadingZeros64(d.words[wi])
		}
	}
	return math.MinInt
}

// IterateValues extracts the set bits lowest first.
func (d *BitSetDomain) IterateValues(f func(v int)) {
	for wi, w := range d.words {
		for w != 0 {
			f(d.offset + wi*64 + bits.TrailingZeros64(w))
			w &= w - 1
		}
	}
}

func (d *BitSetDomain) RemoveValue(v int) Domain {
	if !d.Contains(v) {
		return d
	}
	words := append([]uint64(nil), d.words...)
	i := v - d.offset
	words[i/64] &^= uint64(1) << uint(i%64)
	return newBitSet(d.offset, words)
}

// RemoveBelow clears every bit below v using whole-word masks.
func (d *BitSetDomain) RemoveBelow(v int) Domain {
	if d.count == 0 || v <= d.min {
		return d
	}
	if v > d.max {
		return &BitSetDomain{offset: d.offset}
	}
	words := append([]uint64(nil), d.words...)
	i := v - d.offset
	for wi := 0; wi < i/64; wi++ {
		words[wi] = 0
	}
	words[i/64] &^= (uint64(1) << uint(i%64)) - 1
	return newBitSet(d.offset, words)
}

// RemoveAbove clears every bit above v using whole-word masks.
func (d *BitSetDomain) RemoveAbove(v int) Domain {
	if d.count == 0 || v >= d.max {
		return d
	}
	if v < d.min {
		return &BitSetDomain{offset: d.offset}
	}
	words := append([]uint64(nil), d.words...)
	i := v - d.offset
	keep := uint(i%64) + 1
	if keep < 64 {
		words[i/64] &= (uint64(1) << keep) - 1
	}
	for wi := i/64 + 1; wi < len(words); wi++ {
		words[wi] = 0
	}
	return newBitSet(d.offset, words)
}

func (d *BitSetDomain) Fix(v int) Domain {
	if !d.Contains(v) {
		return &BitSetDomain{offset: d.offset}
	}
	if d.count == 1 {
		return d
	}
	return NewBitSetDomain(v, v)
}

// Equal compares values, not representation.
func (d *BitSetDomain) Equal(other Domain) bool {
	return domainsEqual(d, other)
}

// String renders "{lo..hi}" for ranges and "{a,b,c}" otherwise.
func (d *BitSetDomain) String() string {
	return formatDomain(d)
}

// ToSlice returns all values in ascending order.
func (d *BitSetDomain) ToSlice() []int {
	values := make([]int, 0, d.count)
	d.IterateValues(func(v int) { values = append(values, v) })
	return values
}

// IntervalDomain is a bounds-only domain [lo, hi]. Removing an interior
// value is a no-op; removing a bound shrinks the interval.
type IntervalDomain struct {
	lo, hi int
}

// NewIntervalDomain creates [lo, hi]. If hi < lo the domain is empty.
func NewIntervalDomain(lo, hi int) *IntervalDomain {
	return &IntervalDomain{lo: lo, hi: hi}
}

func (d *IntervalDomain) Min() int         { return d.lo }
func (d *IntervalDomain) Max() int         { return d.hi }
func (d *IntervalDomain) Enumerated() bool { return false }

func (d *IntervalDomain) Size() int {
	if d.hi < d.lo {
		return 0
	}
	return d.hi - d.lo + 1
}

func (d *IntervalDomain) Contains(v int) bool { return v >= d.lo && v <= d.hi }

func (d *IntervalDomain) Next(v int) int {
	switch {
	case d.Size() == 0 || v >= d.hi:
		return math.MaxInt
	case v < d.lo:
		return d.lo
	}
	return v + 1
}

func (d *IntervalDomain) Prev(v int) int {
	switch {
	case d.Size() == 0 || v <= d.lo:
		return math.MinInt
	case v > d.hi:
		return d.hi
	}
	return v - 1
}

func (d *IntervalDomain) IterateValues(f func(v int)) {
	for v := d.lo; v <= d.hi; v++ {
		f(v)
	}
}

func (d *IntervalDomain) RemoveValue(v int) Domain {
	switch {
	case d.lo == d.hi && v == d.lo:
		return &IntervalDomain{lo: d.lo, hi: d.lo - 1}
	case v == d.lo:
		return &IntervalDomain{lo: d.lo + 1, hi: d.hi}
	case v == d.hi:
		return &IntervalDomain{lo: d.lo, hi: d.hi - 1}
	}
	return d
}

func (d *IntervalDomain) RemoveBelow(v int) Domain {
	if v <= d.lo {
		return d
	}
	return &IntervalDomain{lo: v, hi: d.hi}
}

func (d *IntervalDomain) RemoveAbove(v int) Domain {
	if v >= d.hi {
		return d
	}
	return &IntervalDomain{lo: d.lo, hi: v}
}

func (d *IntervalDomain) Fix(v int) Domain {
	if !d.Contains(v) {
		return &IntervalDomain{lo: 1, hi: 0}
	}
	return &IntervalDomain{lo: v, hi: v}
}

func (d *IntervalDomain) Equal(other Domain) bool { return domainsEqual(d, other) }
func (d *IntervalDomain) String() string          { return formatDomain(d) }

func domainsEqual(a, b Domain) bool {
	if b == nil || a.Size() != b.Size() {
		return false
	}
	if a.Size() == 0 {
		return true
	}
	if a.Min() != b.Min() || a.Max() != b.Max() {
		return false
	}
	for v := a.Min(); v != math.MaxInt; v = a.Next(v) {
		if !b.Contains(v) {
			return false
		}
	}
	return true
}

func formatDomain(d Domain) string {
	n := d.Size()
	switch {
	case n == 0:
		return "{}"
	case n == 1:
		return fmt.Sprintf("{%d}", d.Min())
	case d.Max()-d.Min()+1 == n:
		return fmt.Sprintf("{%d..%d}", d.Min(), d.Max())
	}
	var b strings.Builder
	b.WriteString("{")
	i := 0
	for v := d.Min(); v != math.MaxInt; v = d.Next(v) {
		if i > 0 {
			b.WriteString(",")
		}
		if i == 20 {
			fmt.Fprintf(&b, "...+%d more", n-20)
			break
		}
		fmt.Fprintf(&b, "%d", v)
		i++
	}
	b.WriteString("}")
	return b.String()
}
