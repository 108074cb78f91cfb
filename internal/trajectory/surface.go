package trajectory

import (
	"fmt"

	"mirrorshot/internal/geom"
)

// ArrowHitType classifies what a surface does to an arrow that actually
// reaches it in flight (not the preview).
type ArrowHitType string

const (
	HitReflect     ArrowHitType = "reflect"
	HitStick       ArrowHitType = "stick"
	HitPassThrough ArrowHitType = "pass_through"
	HitDestroy     ArrowHitType = "destroy"
)

// ArrowHit is the outcome of an arrow striking a surface.
type ArrowHit struct {
	Type               ArrowHitType
	ReflectedDirection geom.Vec2 // only meaningful for HitReflect
	Damage             int
	Effects            []string
}

// Surface is the capability the engine consumes. Surfaces come from the
// level subsystem and are never mutated here. Implementations must
// guarantee a non-zero-length segment and a unit normal; that contract is
// enforced at construction time, not at trace time.
type Surface interface {
	ID() string
	Segment() geom.Segment
	Normal() geom.Vec2
	// CanReflectFrom reports whether a ray travelling along dir strikes
	// the reflective face.
	CanReflectFrom(dir geom.Vec2) bool
	IsPlannable() bool
	OnArrowHit(point, velocity geom.Vec2) ArrowHit
}

// OnReflectiveSide reports whether p lies strictly on the reflective side
// of s (the side its normal points into).
func OnReflectiveSide(s Surface, p geom.Vec2) bool {
	return s.Normal().Dot(p.Sub(s.Segment().A)) > 0
}

// Mirror is a one-sided reflective surface. Rays arriving against the
// normal bounce; rays arriving from behind pass the CanReflectFrom test
// as false and terminate the trace like a wall.
type Mirror struct {
	id        string
	seg       geom.Segment
	normal    geom.Vec2
	plannable bool
}

// NewMirror builds a mirror with its reflective face on the left of A→B.
func NewMirror(id string, a, b geom.Vec2) (*Mirror, error) {
	seg := geom.Segment{A: a, B: b}
	if seg.Dir().IsZero() {
		return nil, fmt.Errorf("mirror %q: zero-length segment", id)
	}
	return &Mirror{
		id:        id,
		seg:       seg,
		normal:    seg.Dir().LeftNormal().Normalize(),
		plannable: true,
	}, nil
}

// NewMirrorFacing builds a mirror whose reflective face is oriented toward
// the given point. Levels use this so segment endpoint order never matters.
func NewMirrorFacing(id string, a, b, toward geom.Vec2) (*Mirror, error) {
	m, err := NewMirror(id, a, b)
	if err != nil {
		return nil, err
	}
	if m.normal.Dot(toward.Sub(a)) < 0 {
		m.normal = m.normal.Scale(-1)
	}
	return m, nil
}

func (m *Mirror) ID() string            { return m.id }
func (m *Mirror) Segment() geom.Segment { return m.seg }
func (m *Mirror) Normal() geom.Vec2     { return m.normal }
func (m *Mirror) IsPlannable() bool     { return m.plannable }

func (m *Mirror) CanReflectFrom(dir geom.Vec2) bool {
	return dir.Dot(m.normal) < 0
}

func (m *Mirror) OnArrowHit(point, velocity geom.Vec2) ArrowHit {
	if !m.CanReflectFrom(velocity) {
		return ArrowHit{Type: HitStick}
	}
	n := m.normal
	reflected := velocity.Sub(n.Scale(2 * velocity.Dot(n)))
	return ArrowHit{Type: HitReflect, ReflectedDirection: reflected}
}

// Wall is an opaque, non-reflective surface. Arrows stick into it.
type Wall struct {
	id     string
	seg    geom.Segment
	normal geom.Vec2
	damage int
}

func NewWall(id string, a, b geom.Vec2) (*Wall, error) {
	seg := geom.Segment{A: a, B: b}
	if seg.Dir().IsZero() {
		return nil, fmt.Errorf("wall %q: zero-length segment", id)
	}
	return &Wall{
		id:     id,
		seg:    seg,
		normal: seg.Dir().LeftNormal().Normalize(),
	}, nil
}

func (w *Wall) ID() string                         { return w.id }
func (w *Wall) Segment() geom.Segment              { return w.seg }
func (w *Wall) Normal() geom.Vec2                  { return w.normal }
func (w *Wall) IsPlannable() bool                  { return false }
func (w *Wall) CanReflectFrom(dir geom.Vec2) bool  { return false }
func (w *Wall) OnArrowHit(_, _ geom.Vec2) ArrowHit { return ArrowHit{Type: HitStick, Damage: w.damage} }

// sameSurface compares surfaces by stable identifier. Surface identity is
// always the ID, never pointer equality.
func sameSurface(a, b Surface) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}
