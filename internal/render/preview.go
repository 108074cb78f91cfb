// Package render draws the aim preview as a PNG: the arena surfaces plus
// the four trajectory sections in their conventional colors.
package render

import (
	"image/color"
	"io"

	"github.com/fogleman/gg"

	"mirrorshot/internal/geom"
	"mirrorshot/internal/trajectory"
)

// Section colors. Merged is the trusted path, planned is the promise,
// dashed sections are speculative.
var (
	colorBackground = color.RGBA{12, 12, 28, 255}
	colorGrid       = color.RGBA{30, 30, 45, 255}
	colorWall       = color.RGBA{110, 110, 130, 255}
	colorMirror     = color.RGBA{120, 200, 255, 255}
	colorMirrorBack = color.RGBA{50, 80, 100, 255}
	colorMerged     = color.RGBA{80, 220, 100, 255}
	colorDivergent  = color.RGBA{240, 200, 60, 255}
	colorPlanned    = color.RGBA{235, 80, 80, 255}
	colorContinued  = color.RGBA{160, 60, 60, 255}
	colorPlayer     = color.RGBA{255, 255, 255, 255}
	colorCursor     = color.RGBA{235, 80, 80, 255}
)

// Preview renders one frame of the aim preview.
type Preview struct {
	width  int
	height int
}

// NewPreview creates a renderer for the given canvas size.
func NewPreview(width, height int) *Preview {
	return &Preview{width: width, height: height}
}

// RenderPNG draws the scene and encodes it as PNG to w.
func (p *Preview) RenderPNG(w io.Writer, player, cursor geom.Vec2, surfaces []trajectory.Surface, res trajectory.FullTrajectoryResult) error {
	dc := gg.NewContext(p.width, p.height)

	p.drawBackground(dc)
	p.drawSurfaces(dc, surfaces)

	// Dashed speculative sections first so the solid paths draw on top.
	p.drawSection(dc, res.PhysicalDivergent, colorDivergent, true)
	p.drawSection(dc, res.PhysicalFromTarget, colorContinued, true)
	p.drawSection(dc, res.PlannedToTarget, colorPlanned, false)
	p.drawSection(dc, res.Merged, colorMerged, false)

	if res.DivergencePoint != nil {
		dc.SetColor(colorDivergent)
		dc.DrawCircle(res.DivergencePoint.X, res.DivergencePoint.Y, 5)
		dc.Stroke()
	}

	p.drawMarker(dc, player, colorPlayer)
	p.drawMarker(dc, cursor, colorCursor)

	return dc.EncodePNG(w)
}

func (p *Preview) drawBackground(dc *gg.Context) {
	dc.SetColor(colorBackground)
	dc.DrawRectangle(0, 0, float64(p.width), float64(p.height))
	dc.Fill()

	dc.SetColor(colorGrid)
	dc.SetLineWidth(1)
	gridSize := 100.0
	for x := 0.0; x < float64(p.width); x += gridSize {
		dc.DrawLine(x, 0, x, float64(p.height))
		dc.Stroke()
	}
	for y := 0.0; y < float64(p.height); y += gridSize {
		dc.DrawLine(0, y, float64(p.width), y)
		dc.Stroke()
	}
}

func (p *Preview) drawSurfaces(dc *gg.Context, surfaces []trajectory.Surface) {
	for _, s := range surfaces {
		seg := s.Segment()
		if s.IsPlannable() {
			dc.SetColor(colorMirror)
			dc.SetLineWidth(3)
		} else {
			dc.SetColor(colorWall)
			dc.SetLineWidth(4)
		}
		dc.DrawLine(seg.A.X, seg.A.Y, seg.B.X, seg.B.Y)
		dc.Stroke()

		// Short ticks marking the non-reflective back of a mirror.
		if s.IsPlannable() {
			n := s.Normal()
			mid := seg.At(0.5)
			dc.SetColor(colorMirrorBack)
			dc.SetLineWidth(2)
			dc.DrawLine(mid.X, mid.Y, mid.X-n.X*8, mid.Y-n.Y*8)
			dc.Stroke()
		}
	}
}

func (p *Preview) drawSection(dc *gg.Context, segs []trajectory.PathSegment, c color.RGBA, dashed bool) {
	if len(segs) == 0 {
		return
	}
	dc.SetColor(c)
	dc.SetLineWidth(2)
	if dashed {
		dc.SetDash(6, 6)
	} else {
		dc.SetDash()
	}
	for _, s := range segs {
		dc.DrawLine(s.Start.X, s.Start.Y, s.End.X, s.End.Y)
		dc.Stroke()
	}
	dc.SetDash()
}

func (p *Preview) drawMarker(dc *gg.Context, at geom.Vec2, c color.RGBA) {
	dc.SetColor(c)
	dc.SetLineWidth(2)
	dc.DrawCircle(at.X, at.Y, 6)
	dc.Stroke()
	dc.DrawLine(at.X-9, at.Y, at.X+9, at.Y)
	dc.Stroke()
	dc.DrawLine(at.X, at.Y-9, at.X, at.Y+9)
	dc.Stroke()
}
