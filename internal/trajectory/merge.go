package trajectory

import "mirrorshot/internal/geom"

// MergeResult reconciles the Physical and Ordered-Planned traces run in
// lock-step from one shared propagator. Merged is the agreement prefix.
// At most one divergence point is ever reported, and IsFullyAligned is
// true iff DivergencePoint is nil.
type MergeResult struct {
	Merged          []PathSegment
	DivergencePoint *geom.Vec2
	// DivergenceProp is the propagator state before the divergent
	// reflection, so each branch can continue without re-deriving
	// history. Only meaningful when DivergencePoint is set.
	DivergenceProp RayPropagator
	// DivergenceT is the ray parameter of the divergence point on
	// DivergenceProp's ray.
	DivergenceT float64
	// PhysicalNext / PlannedNext are the disagreeing candidates at the
	// divergence step; either may be nil when that strategy found no hit.
	PhysicalNext *HitCandidate
	PlannedNext  *HitCandidate

	IsFullyAligned bool
	ReachedCursor  bool
	Termination    Termination

	// Remaining budget and propagator/offset where the lock-step loop
	// ended, for continuing past the cursor.
	FinalProp RayPropagator
	Offset    float64
	Remaining float64
}

// MergeOptions configures a lock-step merge run.
type MergeOptions struct {
	Surfaces       []Surface
	Plan           []Surface // effective plan, already bypass-filtered
	Cache          *ReflectionCache
	MaxReflections int
	Budget         float64
	FreeFlight     float64
}

// Merge walks both strategies from player toward target. While both agree
// on the same surface identity (on-segment both), the segment joins the
// merged prefix and both reflect through it — a single shared propagator,
// so the agreement region is identical between branches by construction.
func Merge(player, target geom.Vec2, opts MergeOptions) MergeResult {
	physical := PhysicalStrategy(opts.Surfaces)
	planned := PlannedStrategy(opts.Plan)

	prop := NewRayPropagator(player, target)
	res := MergeResult{IsFullyAligned: true, Termination: TermNoHit}

	rayLen := prop.RayLen()
	if rayLen == 0 {
		res.FinalProp = prop
		return res
	}

	offset := 0.0
	remaining := opts.Budget
	start := prop.At(0)
	reflections := 0

	for {
		epsT := ForwardEps / rayLen
		hitP, okP := physical.FindNextHit(prop, prop.Last(), offset+epsT)
		hitO, okO := planned.FindNextHit(prop, prop.Last(), offset+epsT)

		nearest := -1.0
		if okP {
			nearest = hitP.T
		}
		if okO && (nearest < 0 || hitO.T < nearest) {
			nearest = hitO.T
		}

		// Cursor reached: one strategy ran out while the target sits
		// ahead on the shared segment before any hit. The continuation
		// past the target is physics-only and cannot diverge; the
		// assembler traces it separately.
		if (!okP || !okO) && 1 > offset+epsT && (nearest < 0 || nearest > 1) {
			cursorDist := (1 - offset) * rayLen
			if cursorDist > remaining {
				end := prop.At(offset + remaining/rayLen)
				res.Merged = append(res.Merged, PathSegment{Start: start, End: end, Termination: TermExhausted})
				res.Termination = TermExhausted
			} else {
				end := prop.At(1)
				res.Merged = append(res.Merged, PathSegment{Start: start, End: end, Termination: TermCursor})
				res.Termination = TermCursor
				res.ReachedCursor = true
				remaining -= cursorDist
				offset = 1
			}
			res.FinalProp = prop
			res.Offset = offset
			res.Remaining = remaining
			return res
		}

		// Both out of hits: agreed free flight to the budget limit.
		if !okP && !okO {
			length := opts.FreeFlight
			term := TermNoHit
			if length > remaining {
				length = remaining
				term = TermExhausted
			}
			end := prop.At(offset + length/rayLen)
			res.Merged = append(res.Merged, PathSegment{Start: start, End: end, Termination: term})
			res.Termination = term
			res.FinalProp = prop
			res.Offset = offset
			res.Remaining = remaining
			return res
		}

		// Agreement: same surface identity, on-segment both.
		if okP && okO && sameSurface(hitP.Surface, hitO.Surface) && hitP.OnSegment && hitO.OnSegment {
			segLen := (hitP.T - offset) * rayLen
			if segLen > remaining {
				end := prop.At(offset + remaining/rayLen)
				res.Merged = append(res.Merged, PathSegment{Start: start, End: end, Termination: TermExhausted})
				res.Termination = TermExhausted
				res.FinalProp = prop
				res.Offset = offset
				res.Remaining = remaining
				return res
			}
			if !hitP.CanReflect {
				// Both stop dead on the same non-reflective face; the
				// paths end together, still aligned.
				res.Merged = append(res.Merged, segmentTo(start, hitP, TermWall))
				res.Termination = TermWall
				res.FinalProp = prop
				res.Offset = hitP.T
				res.Remaining = remaining - segLen
				return res
			}
			res.Merged = append(res.Merged, segmentTo(start, hitP, TermNone))
			prop = prop.ReflectThrough(hitP.Surface, opts.Cache)
			remaining -= segLen
			offset = hitP.T
			start = hitP.Point
			reflections++
			if reflections >= opts.MaxReflections {
				res.Termination = TermMaxReflections
				res.FinalProp = prop
				res.Offset = offset
				res.Remaining = remaining
				return res
			}
			continue
		}

		// Divergence, declared at the earlier of the two hit points (or
		// where one strategy stops while the other continues).
		divT := nearest
		divLen := (divT - offset) * rayLen
		if divLen > remaining {
			// Budget runs out before the paths can disagree.
			end := prop.At(offset + remaining/rayLen)
			res.Merged = append(res.Merged, PathSegment{Start: start, End: end, Termination: TermExhausted})
			res.Termination = TermExhausted
			res.FinalProp = prop
			res.Offset = offset
			res.Remaining = remaining
			return res
		}

		div := divergencePoint(prop, divT, hitP, okP, hitO, okO)
		if divLen > ForwardEps {
			res.Merged = append(res.Merged, PathSegment{Start: start, End: div})
		}
		res.DivergencePoint = &div
		res.DivergenceProp = prop
		res.DivergenceT = divT
		res.IsFullyAligned = false
		res.Termination = TermNone
		if okP {
			h := hitP
			res.PhysicalNext = &h
		}
		if okO {
			h := hitO
			res.PlannedNext = &h
		}
		res.FinalProp = prop
		res.Offset = divT
		res.Remaining = remaining - divLen
		return res
	}
}

func divergencePoint(prop RayPropagator, divT float64, hitP HitCandidate, okP bool, hitO HitCandidate, okO bool) geom.Vec2 {
	if okP && hitP.T == divT {
		return hitP.Point
	}
	if okO && hitO.T == divT {
		return hitO.Point
	}
	return prop.At(divT)
}
