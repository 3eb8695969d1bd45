package orrery

import "testing"

func TestPcg32Determinism(t *testing.T) {
	r1 := NewPcg32(12345, 67890)
	r2 := NewPcg32(12345, 67890)
	for i := 0; i < 1000; i++ {
		if r1.NextU32() != r2.NextU32() {
			t.Fatalf("diverged at iteration %d", i)
		}
	}
}

func TestPcg32KnownSequence(t *testing.T) {
	r := NewPcg32(42, 54)
	first := r.NextU32()
	if first != 2707161783 {
		t.Fatalf("expected 2707161783 for seed=42 stream=54, got %d", first)
	}
}

func TestPcg32F64Range(t *testing.T) {
	r := NewPcg32(12345, 0)
	for i := 0; i < 10000; i++ {
		v := r.NextF64()
		if v < 0 || v >= 1 {
			t.Fatalf("f64 out of range: %v", v)
		}
	}
}

func TestPcg32Bounded(t *testing.T) {
	r := NewPcg32(12345, 0)
	const bound = 100
	for i := 0; i < 10000; i++ {
		v := r.NextU32Bounded(bound)
		if v >= bound {
			t.Fatalf("bounded draw out of range: %v", v)
		}
	}
}

func TestPcg32StateRestore(t *testing.T) {
	r := NewPcg32(12345, 67890)
	for i := 0; i < 100; i++ {
		r.NextU32()
	}
	state, inc := r.State()

	var expected [10]uint32
	for i := range expected {
		expected[i] = r.NextU32()
	}

	r2 := Pcg32FromState(state, inc)
	for i := range expected {
		if got := r2.NextU32(); got != expected[i] {
			t.Fatalf("restore mismatch at %d: got %d want %d", i, got, expected[i])
		}
	}
}

func TestPcg32UnitVector(t *testing.T) {
	r := NewPcg32(12345, 0)
	for i := 0; i < 1000; i++ {
		v := r.NextUnitVector()
		if !approxEqual(v.LengthSquared(), 1) {
			t.Fatalf("unit vector not normalized: %+v", v)
		}
	}
}
