package trajectory

import "mirrorshot/internal/geom"

// segEps is the tolerance for the on-segment test on the surface
// parameter u.
const segEps = 1e-9

// HitCandidate describes a possible ray/surface hit. T is the ray
// parameter (normalized so t=1 at the target image), U the position along
// the surface segment. OnSegment distinguishes a hit on the finite
// segment from one only on its infinite extension.
type HitCandidate struct {
	Point      geom.Vec2
	Surface    Surface
	T          float64
	U          float64
	OnSegment  bool
	CanReflect bool
}

type strategyKind int

const (
	kindPhysical strategyKind = iota
	kindOrderedPlanned
)

// HitStrategy selects the next surface a ray interacts with. It is a
// closed variant: Physical scans every candidate surface and returns the
// nearest on-segment hit; OrderedPlanned only considers plan[depth], with
// the same on-segment test. An earlier OrderedPlanned variant accepted
// extended-line hits for planned surfaces; that let a later plan surface
// steal a hit from an earlier one by geometric proximity and is
// superseded.
type HitStrategy struct {
	kind     strategyKind
	surfaces []Surface
	plan     []Surface
}

// PhysicalStrategy considers every surface in the given insertion order.
// Ties on t are broken by that order (stable).
func PhysicalStrategy(surfaces []Surface) HitStrategy {
	return HitStrategy{kind: kindPhysical, surfaces: surfaces}
}

// PlannedStrategy considers only plan[depth] at each step, so the plan's
// ordering is authoritative regardless of geometry.
func PlannedStrategy(plan []Surface) HitStrategy {
	return HitStrategy{kind: kindOrderedPlanned, plan: plan}
}

// FindNextHit returns the next hit strictly ahead of minT along the
// propagator's current ray, excluding the surface just departed. Only
// on-segment hits are returned; a miss is (zero, false), never an error.
func (st HitStrategy) FindNextHit(prop RayPropagator, exclude Surface, minT float64) (HitCandidate, bool) {
	origin, _ := prop.Ray()
	dir := prop.Dir()
	if dir.IsZero() {
		return HitCandidate{}, false
	}

	switch st.kind {
	case kindOrderedPlanned:
		if prop.Depth() >= len(st.plan) {
			// Plan exhausted: the target should now be reachable directly.
			return HitCandidate{}, false
		}
		return testSurface(st.plan[prop.Depth()], origin, dir, exclude, minT)

	default:
		var best HitCandidate
		found := false
		for _, s := range st.surfaces {
			cand, ok := testSurface(s, origin, dir, exclude, minT)
			if !ok {
				continue
			}
			if !found || cand.T < best.T {
				best = cand
				found = true
			}
		}
		return best, found
	}
}

func testSurface(s Surface, origin, dir geom.Vec2, exclude Surface, minT float64) (HitCandidate, bool) {
	if exclude != nil && sameSurface(s, exclude) {
		return HitCandidate{}, false
	}
	t, u, ok := geom.RaySegment(origin, dir, s.Segment())
	if !ok {
		return HitCandidate{}, false
	}
	if t <= minT {
		return HitCandidate{}, false
	}
	if u < -segEps || u > 1+segEps {
		return HitCandidate{}, false
	}
	return HitCandidate{
		Point:      s.Segment().At(u),
		Surface:    s,
		T:          t,
		U:          u,
		OnSegment:  true,
		CanReflect: s.CanReflectFrom(dir),
	}, true
}
