package render

import (
	"bytes"
	"testing"

	"mirrorshot/internal/geom"
	"mirrorshot/internal/trajectory"
)

// TestRenderPNG verifies a full scene encodes to a valid PNG stream.
func TestRenderPNG(t *testing.T) {
	m, err := trajectory.NewMirrorFacing("m", geom.V(400, 100), geom.V(400, 500), geom.V(100, 300))
	if err != nil {
		t.Fatal(err)
	}
	w, err := trajectory.NewWall("w", geom.V(200, 0), geom.V(200, 200))
	if err != nil {
		t.Fatal(err)
	}

	cache := trajectory.NewReflectionCache()
	res := trajectory.BuildFullTrajectory(
		geom.V(100, 300), geom.V(300, 300),
		[]trajectory.Surface{m, w}, []trajectory.Surface{m},
		trajectory.Config{MaxReflections: 8, ExhaustionDistance: 5000, MaxTraceDistance: 400},
		cache,
	)

	var buf bytes.Buffer
	if err := NewPreview(800, 600).RenderPNG(&buf, geom.V(100, 300), geom.V(300, 300), []trajectory.Surface{m, w}, res); err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("empty output")
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("output is not a PNG stream")
	}
}

// TestRenderEmptyScene verifies rendering with no surfaces and an empty
// result still succeeds.
func TestRenderEmptyScene(t *testing.T) {
	var buf bytes.Buffer
	err := NewPreview(64, 64).RenderPNG(&buf, geom.V(10, 10), geom.V(50, 50), nil, trajectory.FullTrajectoryResult{})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("empty output")
	}
}
