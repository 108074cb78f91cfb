package trajectory

import (
	"testing"

	"mirrorshot/internal/geom"
)

// TestAssembleClearShot verifies the aligned case: merged carries the
// whole path to the aimed range and the physics continuation starts
// exactly where merged stopped.
func TestAssembleClearShot(t *testing.T) {
	cache := NewReflectionCache()
	res := BuildFullTrajectory(geom.V(0, 0), geom.V(10, 0), nil, nil, defaultConfig(), cache)

	if !res.IsFullyAligned || !res.ReachedCursor {
		t.Fatalf("aligned=%v reached=%v", res.IsFullyAligned, res.ReachedCursor)
	}
	if len(res.Merged) != 1 || len(res.PhysicalDivergent) != 0 || len(res.PlannedToTarget) != 0 {
		t.Fatalf("sections: merged=%d divergent=%d planned=%d",
			len(res.Merged), len(res.PhysicalDivergent), len(res.PlannedToTarget))
	}
	if len(res.PhysicalFromTarget) != 1 {
		t.Fatalf("continuation sections = %d", len(res.PhysicalFromTarget))
	}
	wantPoint(t, res.Merged[0].End, geom.V(10, 0), "aimed-range stop")
	wantPoint(t, res.PhysicalFromTarget[0].Start, geom.V(10, 0), "continuation start")
	wantPoint(t, res.PhysicalFromTarget[0].End, geom.V(410, 0), "free flight end")
}

// TestAssembleWallDivergence verifies the obstructed-plan case: the
// planned mirror is bypassed, physics dies on the wall, and the planned
// section still draws the promised line to the cursor.
func TestAssembleWallDivergence(t *testing.T) {
	w := mustWall(t, "w", geom.V(4, -5), geom.V(4, 5))
	m := mustMirror(t, "m", geom.V(8, -5), geom.V(8, 5), geom.V(0, 0))
	cache := NewReflectionCache()

	res := BuildFullTrajectory(geom.V(0, 0), geom.V(10, 0),
		[]Surface{w, m}, []Surface{m}, defaultConfig(), cache)

	if res.IsFullyAligned {
		t.Fatal("wall in the way must diverge")
	}
	if len(res.Bypassed) != 1 || res.Bypassed[0].Reason != BypassObstructed || res.Bypassed[0].BlockerID != "w" {
		t.Fatalf("bypassed = %+v", res.Bypassed)
	}
	wantPoint(t, *res.DivergencePoint, geom.V(4, 0), "divergence at the wall")

	// Physics ends on the wall face itself, so there is nothing extra to
	// draw past the divergence point.
	if len(res.PhysicalDivergent) != 0 {
		t.Errorf("physical divergent = %+v", res.PhysicalDivergent)
	}
	if len(res.PlannedToTarget) != 1 {
		t.Fatalf("planned section = %+v", res.PlannedToTarget)
	}
	wantPoint(t, res.PlannedToTarget[0].Start, geom.V(4, 0), "planned resumes at divergence")
	wantPoint(t, res.PlannedToTarget[0].End, geom.V(10, 0), "planned reaches the cursor")
	if res.PlannedToTarget[0].Termination != TermCursor {
		t.Errorf("planned termination = %s", res.PlannedToTarget[0].Termination)
	}
}

// TestAssembleMirrorDivergence verifies an unplanned mirror on the line:
// physics bounces away while the planned section carries on straight to
// the cursor.
func TestAssembleMirrorDivergence(t *testing.T) {
	m := mustMirror(t, "m", geom.V(5, -5), geom.V(5, 5), geom.V(0, 0))
	cache := NewReflectionCache()

	res := BuildFullTrajectory(geom.V(0, 0), geom.V(10, 0),
		[]Surface{m}, nil, defaultConfig(), cache)

	if res.IsFullyAligned {
		t.Fatal("unplanned mirror must diverge")
	}
	wantPoint(t, *res.DivergencePoint, geom.V(5, 0), "divergence at the mirror")

	if len(res.PhysicalDivergent) != 1 {
		t.Fatalf("physical divergent = %+v", res.PhysicalDivergent)
	}
	// Head-on hit: the bounce sends the shot straight back.
	wantPoint(t, res.PhysicalDivergent[0].Start, geom.V(5, 0), "bounce start")
	if res.PhysicalDivergent[0].End.X >= 5 {
		t.Errorf("bounced segment should head back, ends at %v", res.PhysicalDivergent[0].End)
	}

	if len(res.PlannedToTarget) != 1 || res.PlannedToTarget[0].Termination != TermCursor {
		t.Fatalf("planned section = %+v", res.PlannedToTarget)
	}
	wantPoint(t, res.PlannedToTarget[0].End, geom.V(10, 0), "planned cursor point")
}

// TestWaypointsFollowPhysics verifies the flight list: player, merged
// endpoints, then physical-divergent endpoints. The planned promise and
// the cursor itself are not waypoints once physics disagrees.
func TestWaypointsFollowPhysics(t *testing.T) {
	m := mustMirror(t, "m", geom.V(5, -5), geom.V(5, 5), geom.V(0, 0))
	cache := NewReflectionCache()
	player := geom.V(0, 0)

	res := BuildFullTrajectory(player, geom.V(10, 0), []Surface{m}, nil, defaultConfig(), cache)
	points := Waypoints(player, res)

	if len(points) != 3 {
		t.Fatalf("got %d waypoints: %v", len(points), points)
	}
	wantPoint(t, points[0], player, "first waypoint")
	wantPoint(t, points[1], geom.V(5, 0), "bounce waypoint")
	for _, p := range points {
		if p.Near(geom.V(10, 0), pathTol) {
			t.Error("the cursor must not appear as a waypoint after divergence")
		}
	}
}

// TestTerminalSurface verifies the flight layer's impact lookup prefers
// the divergent section's last segment over merged.
func TestTerminalSurface(t *testing.T) {
	w := mustWall(t, "w", geom.V(0, 0), geom.V(0, 1))
	m := mustMirror(t, "m", geom.V(1, 0), geom.V(1, 1), geom.V(0, 0))

	res := FullTrajectoryResult{
		Merged:            []PathSegment{{Surface: m}},
		PhysicalDivergent: []PathSegment{{Surface: nil}, {Surface: w}},
	}
	if got := TerminalSurface(res); !sameSurface(got, w) {
		t.Errorf("terminal surface = %v, want the divergent wall", got)
	}

	res.PhysicalDivergent = nil
	if got := TerminalSurface(res); !sameSurface(got, m) {
		t.Errorf("terminal surface = %v, want the merged mirror", got)
	}

	if TerminalSurface(FullTrajectoryResult{}) != nil {
		t.Error("empty result has no terminal surface")
	}
}
