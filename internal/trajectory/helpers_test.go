package trajectory

import (
	"testing"

	"mirrorshot/internal/geom"
)

// pathTol is the tolerance for geometric comparisons in tests. Provenance
// checks (cache identity, propagator images) use exact equality instead;
// the two are deliberately distinct. The value itself is empirically
// tuned, not derived — keep assertions coarse enough not to depend on it.
const pathTol = 1e-6

func mustMirror(t *testing.T, id string, a, b, facing geom.Vec2) *Mirror {
	t.Helper()
	m, err := NewMirrorFacing(id, a, b, facing)
	if err != nil {
		t.Fatalf("NewMirrorFacing(%s): %v", id, err)
	}
	return m
}

func mustWall(t *testing.T, id string, a, b geom.Vec2) *Wall {
	t.Helper()
	w, err := NewWall(id, a, b)
	if err != nil {
		t.Fatalf("NewWall(%s): %v", id, err)
	}
	return w
}

func wantPoint(t *testing.T, got, want geom.Vec2, what string) {
	t.Helper()
	if !got.Near(want, pathTol) {
		t.Errorf("%s = (%v, %v), want (%v, %v)", what, got.X, got.Y, want.X, want.Y)
	}
}

func defaultConfig() Config {
	return Config{
		MaxReflections:     8,
		ExhaustionDistance: 5000,
		MaxTraceDistance:   400,
	}
}
