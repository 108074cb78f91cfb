package geom

import "math"

// ParallelEps is the cross-product magnitude below which a ray and a
// segment are treated as parallel (no intersection reported).
const ParallelEps = 1e-12

// Segment is a finite line segment from A to B.
type Segment struct {
	A Vec2 `json:"a"`
	B Vec2 `json:"b"`
}

func (s Segment) Dir() Vec2 {
	return s.B.Sub(s.A)
}

func (s Segment) Len() float64 {
	return s.Dir().Len()
}

// At returns the point at parameter u along the segment (u=0 at A, u=1 at B).
func (s Segment) At(u float64) Vec2 {
	return s.A.Add(s.Dir().Scale(u))
}

// RaySegment intersects the ray origin + t*dir with the infinite line
// through seg. t is in units of |dir| (t=1 at origin+dir), u is the
// position along seg (u in [0,1] means the hit is on the finite segment).
// Returns ok=false when the ray and segment are parallel, including the
// collinear case; a ray sliding along a mirror is not a hit.
func RaySegment(origin, dir Vec2, seg Segment) (t, u float64, ok bool) {
	e := seg.Dir()
	denom := dir.Cross(e)
	if math.Abs(denom) < ParallelEps {
		return 0, 0, false
	}
	ao := seg.A.Sub(origin)
	t = ao.Cross(e) / denom
	u = ao.Cross(dir) / denom
	return t, u, true
}

// ReflectPoint mirrors p across the infinite line through seg using the
// closed-form projection. No trigonometry.
func ReflectPoint(p Vec2, seg Segment) Vec2 {
	d := seg.Dir()
	l2 := d.LenSq()
	if l2 == 0 {
		return p
	}
	t := p.Sub(seg.A).Dot(d) / l2
	proj := seg.A.Add(d.Scale(t))
	return proj.Scale(2).Sub(p)
}

// SegmentBlocks reports whether seg strictly blocks the open segment from
// p to q: the crossing must be interior to p→q and land on seg itself.
func SegmentBlocks(p, q Vec2, seg Segment) bool {
	dir := q.Sub(p)
	t, u, ok := RaySegment(p, dir, seg)
	if !ok {
		return false
	}
	const interiorEps = 1e-9
	return t > interiorEps && t < 1-interiorEps && u >= -interiorEps && u <= 1+interiorEps
}
