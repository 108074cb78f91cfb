package trajectory

import (
	"testing"

	"mirrorshot/internal/geom"
)

// TestDepthAccounting verifies depth equals the number of ReflectThrough
// calls that produced the state.
func TestDepthAccounting(t *testing.T) {
	cache := NewReflectionCache()
	left := mustMirror(t, "left", geom.V(0, -10), geom.V(0, 10), geom.V(5, 0))
	right := mustMirror(t, "right", geom.V(10, -10), geom.V(10, 10), geom.V(5, 0))

	prop := NewRayPropagator(geom.V(2, 0), geom.V(8, 1))
	if prop.Depth() != 0 {
		t.Fatalf("initial depth = %d, want 0", prop.Depth())
	}
	if prop.Last() != nil {
		t.Fatal("initial state must have no last surface")
	}

	chain := []Surface{right, left, right, left}
	for i, s := range chain {
		prop = prop.ReflectThrough(s, cache)
		if prop.Depth() != i+1 {
			t.Errorf("after %d reflections depth = %d", i+1, prop.Depth())
		}
		if !sameSurface(prop.Last(), s) {
			t.Errorf("last surface after step %d = %v", i+1, prop.Last())
		}
	}
}

// TestPropagatorImmutable verifies ReflectThrough returns a new value and
// leaves the receiver untouched, so branches can fork cheaply.
func TestPropagatorImmutable(t *testing.T) {
	cache := NewReflectionCache()
	m := mustMirror(t, "m", geom.V(5, -5), geom.V(5, 5), geom.V(0, 0))

	base := NewRayPropagator(geom.V(0, 0), geom.V(3, 1))
	branch := base.ReflectThrough(m, cache)

	if base.Depth() != 0 {
		t.Error("reflecting must not mutate the original propagator")
	}
	if branch.Depth() != 1 {
		t.Error("branch should be one reflection deep")
	}
	o1, t1 := base.Ray()
	if !o1.Eq(geom.V(0, 0)) || !t1.Eq(geom.V(3, 1)) {
		t.Error("original images changed")
	}
}

// TestPropagatorRoundTripImages verifies that reflecting through the same
// surface twice restores both images exactly, via the shared cache. This
// is the invariant that keeps the merge prefix bit-identical.
func TestPropagatorRoundTripImages(t *testing.T) {
	cache := NewReflectionCache()
	m := mustMirror(t, "m", geom.V(3, -7), geom.V(8, 4), geom.V(0, 0))

	source := geom.V(1.5, 2.25)
	target := geom.V(6.125, -0.5)
	prop := NewRayPropagator(source, target)

	twice := prop.ReflectThrough(m, cache).ReflectThrough(m, cache)
	o, tg := twice.Ray()
	if !o.Eq(source) || !tg.Eq(target) {
		t.Errorf("double reflection images = %v, %v; want exact originals", o, tg)
	}
	if twice.Depth() != 2 {
		t.Errorf("depth = %d, want 2", twice.Depth())
	}
}

// TestRayLenInvariant verifies reflections preserve the image distance,
// which the tracer relies on for its distance bookkeeping.
func TestRayLenInvariant(t *testing.T) {
	cache := NewReflectionCache()
	m := mustMirror(t, "m", geom.V(2, -9), geom.V(7, 6), geom.V(0, 0))

	prop := NewRayPropagator(geom.V(0, 0), geom.V(4, 3))
	before := prop.RayLen()
	after := prop.ReflectThrough(m, cache).RayLen()

	if diff := before - after; diff > pathTol || diff < -pathTol {
		t.Errorf("ray length changed across reflection: %v -> %v", before, after)
	}
}
