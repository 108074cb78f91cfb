package trajectory

import "mirrorshot/internal/geom"

// cacheKey identifies a (point, surface) pair by the point's exact bits
// and the surface's stable ID. Exact float equality is deliberate here:
// cache correctness is a provenance question, not a geometric one.
type cacheKey struct {
	x, y      float64
	surfaceID string
}

// ReflectionCache memoizes point reflections across surfaces. Reflecting a
// point through the same surface twice returns a value bit-identical to
// the original: when Q = reflect(P,S) is computed, the reverse entry
// (Q,S)→P is stored alongside (P,S)→Q, so cascading reflections never
// accumulate drift and higher layers may compare propagator images by
// exact equality.
//
// A cache is owned by a single recomputation. It is not safe for
// concurrent use; callers that need parallelism use separate instances.
type ReflectionCache struct {
	entries map[cacheKey]geom.Vec2
	hits    int
	misses  int
}

func NewReflectionCache() *ReflectionCache {
	return &ReflectionCache{entries: make(map[cacheKey]geom.Vec2)}
}

// Reflect returns the mirror image of p across the line through s.
func (c *ReflectionCache) Reflect(p geom.Vec2, s Surface) geom.Vec2 {
	key := cacheKey{x: p.X, y: p.Y, surfaceID: s.ID()}
	if q, ok := c.entries[key]; ok {
		c.hits++
		return q
	}
	q := geom.ReflectPoint(p, s.Segment())
	c.entries[key] = q
	c.entries[cacheKey{x: q.X, y: q.Y, surfaceID: s.ID()}] = p
	c.misses++
	return q
}

// Size returns the number of stored entries.
func (c *ReflectionCache) Size() int { return len(c.entries) }

// Stats returns hit/miss counters for observability.
func (c *ReflectionCache) Stats() (hits, misses int) { return c.hits, c.misses }
