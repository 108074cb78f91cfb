package trajectory

import "mirrorshot/internal/geom"

// FullTrajectoryResult is the four-section renderable trajectory. Merged
// is the trusted prefix both traces agree on; PhysicalDivergent is what
// will really happen past the divergence; PlannedToTarget is what the
// plan promises (empty when fully aligned); PhysicalFromTarget is the
// physics continuation past a reached target.
type FullTrajectoryResult struct {
	Merged             []PathSegment
	PhysicalDivergent  []PathSegment
	PlannedToTarget    []PathSegment
	PhysicalFromTarget []PathSegment

	IsFullyAligned  bool
	ReachedCursor   bool
	DivergencePoint *geom.Vec2
	Bypassed        []BypassEntry
}

// Config carries the scalar tuning for a full-trajectory build.
type Config struct {
	MaxReflections     int
	ExhaustionDistance float64
	MaxTraceDistance   float64
}

// BuildFullTrajectory runs bypass, merge and the branch continuations,
// producing the renderable result.
func BuildFullTrajectory(player, target geom.Vec2, surfaces []Surface, plan []Surface, cfg Config, cache *ReflectionCache) FullTrajectoryResult {
	bp := CheckBypass(player, target, plan, BypassOptions{
		Surfaces:           surfaces,
		Cache:              cache,
		ExhaustionDistance: cfg.ExhaustionDistance,
	})

	m := Merge(player, target, MergeOptions{
		Surfaces:       surfaces,
		Plan:           bp.Effective,
		Cache:          cache,
		MaxReflections: cfg.MaxReflections,
		Budget:         cfg.ExhaustionDistance,
		FreeFlight:     cfg.MaxTraceDistance,
	})

	res := FullTrajectoryResult{
		Merged:          m.Merged,
		IsFullyAligned:  m.IsFullyAligned,
		ReachedCursor:   m.ReachedCursor,
		DivergencePoint: m.DivergencePoint,
		Bypassed:        bp.Bypassed,
	}

	physical := PhysicalStrategy(surfaces)
	planned := PlannedStrategy(bp.Effective)

	if m.ReachedCursor {
		res.PhysicalFromTarget = Trace(m.FinalProp, TraceOptions{
			Strategy:       physical,
			Cache:          cache,
			MaxReflections: cfg.MaxReflections,
			Budget:         m.Remaining,
			FreeFlight:     cfg.MaxTraceDistance,
			StartOffset:    m.Offset,
		}).Segments
	}

	if m.IsFullyAligned {
		return res
	}

	res.PhysicalDivergent = continueBranch(m, m.PhysicalNext, physical, cfg, cache, false)
	res.PlannedToTarget = continueBranch(m, m.PlannedNext, planned, cfg, cache, true)
	return res
}

// continueBranch resumes one strategy from the divergence propagator. The
// divergent step itself is handled explicitly: the branch's own hit may
// lie beyond the divergence point (it diverged because the other strategy
// acted first), in which case the approach segment belongs to this
// branch, not to merged.
func continueBranch(m MergeResult, next *HitCandidate, strat HitStrategy, cfg Config, cache *ReflectionCache, toCursor bool) []PathSegment {
	prop := m.DivergenceProp
	start := *m.DivergencePoint
	offset := m.DivergenceT
	remaining := m.Remaining

	var segs []PathSegment

	if next == nil {
		// This strategy had no hit: straight continuation (toward the
		// cursor for the planned branch).
		return Trace(prop, TraceOptions{
			Strategy:       strat,
			Cache:          cache,
			MaxReflections: cfg.MaxReflections,
			Budget:         remaining,
			FreeFlight:     cfg.MaxTraceDistance,
			StopAtCursor:   toCursor,
			StartOffset:    offset,
		}).Segments
	}

	rayLen := prop.RayLen()
	approach := (next.T - offset) * rayLen
	if approach > remaining {
		end := prop.At(offset + remaining/rayLen)
		return append(segs, PathSegment{Start: start, End: end, Termination: TermExhausted})
	}

	if !next.CanReflect {
		// Physics ends here (or the plan dies here); no continuation
		// past a non-reflective face.
		if approach <= ForwardEps {
			// Divergence sits on the face itself, nothing left to draw.
			return nil
		}
		return append(segs, segmentTo(start, *next, TermWall))
	}

	if approach > ForwardEps {
		segs = append(segs, segmentTo(start, *next, TermNone))
	}
	remaining -= approach
	prop = prop.ReflectThrough(next.Surface, cache)

	cont := Trace(prop, TraceOptions{
		Strategy:       strat,
		Cache:          cache,
		MaxReflections: cfg.MaxReflections,
		Budget:         remaining,
		FreeFlight:     cfg.MaxTraceDistance,
		StopAtCursor:   toCursor,
		StartOffset:    next.T,
	})
	return append(segs, cont.Segments...)
}

// Waypoints flattens a result into the list the arrow actually flies:
// player, then every merged endpoint, then every physical-divergent
// endpoint. The target point and the planned/post-target sections are
// excluded — once physics and plan disagree, the arrow follows physics.
func Waypoints(player geom.Vec2, res FullTrajectoryResult) []geom.Vec2 {
	points := []geom.Vec2{player}
	for _, s := range res.Merged {
		points = append(points, s.End)
	}
	for _, s := range res.PhysicalDivergent {
		points = append(points, s.End)
	}
	return points
}

// TerminalSurface returns the surface the physical path ends on, if any:
// the last segment of the physical-divergent section, or of merged when
// nothing diverged. Used by the flight layer to fire OnArrowHit.
func TerminalSurface(res FullTrajectoryResult) Surface {
	if n := len(res.PhysicalDivergent); n > 0 {
		return res.PhysicalDivergent[n-1].Surface
	}
	if n := len(res.Merged); n > 0 {
		return res.Merged[n-1].Surface
	}
	return nil
}
