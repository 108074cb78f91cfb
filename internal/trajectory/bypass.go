package trajectory

import "mirrorshot/internal/geom"

// BypassReason says why a planned surface was dropped from the effective
// plan before tracing. Only the first applicable reason is reported per
// surface; the evaluation order is part of the contract.
type BypassReason string

const (
	BypassPlayerWrongSide     BypassReason = "player_on_wrong_side"
	BypassReflectionWrongSide BypassReason = "reflection_on_wrong_side"
	BypassObstructed          BypassReason = "obstructed"
	BypassTargetWrongSide     BypassReason = "target_on_wrong_side"
	BypassExhausted           BypassReason = "exhausted"
)

// BypassEntry reports one dropped plan surface. BlockerID is set only for
// BypassObstructed.
type BypassEntry struct {
	SurfaceID string       `json:"surfaceId"`
	Reason    BypassReason `json:"reason"`
	BlockerID string       `json:"blockerId,omitempty"`
}

// BypassResult is the pruned plan plus the per-surface drop report.
type BypassResult struct {
	Effective []Surface
	Bypassed  []BypassEntry
}

// BypassOptions configures a bypass check.
type BypassOptions struct {
	Surfaces           []Surface
	Cache              *ReflectionCache
	ExhaustionDistance float64
}

// CheckBypass prunes an invalid plan before tracing. For each planned
// surface, in plan order, the intended bounce point is computed with the
// image method: the target pulled backward through the surfaces after it,
// then one forward line intersection. Checks run in priority order —
// wrong side, next unreachable, obstructed, exhausted — and the
// target-side check applies to the last surviving surface as a post-pass.
func CheckBypass(player, target geom.Vec2, plan []Surface, opts BypassOptions) BypassResult {
	res := BypassResult{}
	if len(plan) == 0 {
		return res
	}

	current := player
	var prev Surface
	traveled := 0.0

	for i, s := range plan {
		// Wrong side: the preceding point cannot see this face.
		if !OnReflectiveSide(s, current) {
			res.Bypassed = append(res.Bypassed, BypassEntry{SurfaceID: s.ID(), Reason: BypassPlayerWrongSide})
			continue
		}

		bounce, ok := bouncePoint(current, target, plan[i:], opts.Cache)
		if !ok {
			// Degenerate aim (parallel or behind): the face cannot be
			// struck from here, same verdict as the side test.
			res.Bypassed = append(res.Bypassed, BypassEntry{SurfaceID: s.ID(), Reason: BypassPlayerWrongSide})
			continue
		}

		// Next unreachable: the bounce lands behind the next planned
		// surface, so that one is implicitly dead too.
		if i+1 < len(plan) && !OnReflectiveSide(plan[i+1], bounce) {
			res.Bypassed = append(res.Bypassed, BypassEntry{SurfaceID: s.ID(), Reason: BypassReflectionWrongSide})
			continue
		}

		// Obstructed: anything else strictly blocking the approach.
		if blocker := firstBlocker(current, bounce, s, prev, opts.Surfaces); blocker != nil {
			res.Bypassed = append(res.Bypassed, BypassEntry{
				SurfaceID: s.ID(),
				Reason:    BypassObstructed,
				BlockerID: blocker.ID(),
			})
			continue
		}

		traveled += current.DistanceTo(bounce)
		if traveled > opts.ExhaustionDistance {
			// Out of range: stop evaluating, later surfaces are moot.
			res.Bypassed = append(res.Bypassed, BypassEntry{SurfaceID: s.ID(), Reason: BypassExhausted})
			return res
		}

		res.Effective = append(res.Effective, s)
		current = bounce
		prev = s
	}

	// Target unreachable applies to the last surface of the effective
	// plan; dropping it can expose a new last, so repeat until stable.
	for len(res.Effective) > 0 {
		last := res.Effective[len(res.Effective)-1]
		if OnReflectiveSide(last, target) {
			break
		}
		res.Effective = res.Effective[:len(res.Effective)-1]
		res.Bypassed = append(res.Bypassed, BypassEntry{SurfaceID: last.ID(), Reason: BypassTargetWrongSide})
	}

	return res
}

// bouncePoint finds where the path from current is intended to strike
// remaining[0], aiming at the target pulled backward through the rest of
// the chain. The intersection is with the surface's infinite line; the
// on-segment question belongs to the tracer, not the bypass check.
func bouncePoint(current, target geom.Vec2, remaining []Surface, cache *ReflectionCache) (geom.Vec2, bool) {
	image := target
	for j := len(remaining) - 1; j >= 1; j-- {
		image = cache.Reflect(image, remaining[j])
	}
	aim := cache.Reflect(image, remaining[0])

	dir := aim.Sub(current)
	t, u, ok := geom.RaySegment(current, dir, remaining[0].Segment())
	if !ok || t <= 0 {
		return geom.Vec2{}, false
	}
	return remaining[0].Segment().At(u), true
}

// firstBlocker returns the first surface strictly blocking the open
// segment current→bounce, excluding the struck surface and the one the
// path just departed.
func firstBlocker(current, bounce geom.Vec2, struck, departed Surface, surfaces []Surface) Surface {
	for _, s := range surfaces {
		if sameSurface(s, struck) || (departed != nil && sameSurface(s, departed)) {
			continue
		}
		if geom.SegmentBlocks(current, bounce, s.Segment()) {
			return s
		}
	}
	return nil
}
