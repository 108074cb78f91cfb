package trajectory

import "mirrorshot/internal/geom"

// RayPropagator is a ray whose endpoints have been pulled through depth
// mirror images, so the straight line from originImage to targetImage
// corresponds to the true bounced path. It is an immutable value; every
// ReflectThrough returns a new one, which lets the merge calculator keep
// two independent branch propagators cheaply.
type RayPropagator struct {
	origin geom.Vec2
	target geom.Vec2
	depth  int
	last   Surface
}

// NewRayPropagator is the un-reflected initial state: images equal the
// true source and target, depth 0, no last surface.
func NewRayPropagator(source, target geom.Vec2) RayPropagator {
	return RayPropagator{origin: source, target: target}
}

// ReflectThrough reflects both images through s, increments depth and
// records s as the last surface. Reflections go through the cache so the
// same (point, surface) pair yields the identical point from any call
// site — the exact-equality guarantee the merge prefix depends on.
func (rp RayPropagator) ReflectThrough(s Surface, cache *ReflectionCache) RayPropagator {
	return RayPropagator{
		origin: cache.Reflect(rp.origin, s),
		target: cache.Reflect(rp.target, s),
		depth:  rp.depth + 1,
		last:   s,
	}
}

// Ray returns the current hit-test ray: source is the origin image,
// target is the target image.
func (rp RayPropagator) Ray() (source, target geom.Vec2) {
	return rp.origin, rp.target
}

// Dir returns targetImage - originImage. The ray parameter t used by the
// strategies and tracer is normalized to this vector: t=1 at the target.
func (rp RayPropagator) Dir() geom.Vec2 {
	return rp.target.Sub(rp.origin)
}

// At returns the world point at ray parameter t.
func (rp RayPropagator) At(t float64) geom.Vec2 {
	return rp.origin.Add(rp.Dir().Scale(t))
}

// RayLen is the world distance between the images. Reflections are
// isometries, so it is invariant across ReflectThrough.
func (rp RayPropagator) RayLen() float64 {
	return rp.Dir().Len()
}

func (rp RayPropagator) Depth() int    { return rp.depth }
func (rp RayPropagator) Last() Surface { return rp.last }
