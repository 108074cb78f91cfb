// Package level loads arena definitions and turns them into the surface
// set the trajectory engine consumes.
package level

import (
	"encoding/json"
	"fmt"
	"os"

	"mirrorshot/internal/geom"
	"mirrorshot/internal/trajectory"
)

// SurfaceSpec is one surface entry in a level file. Facing is required
// for mirrors and orients the reflective side; walls ignore it.
type SurfaceSpec struct {
	ID     string     `json:"id"`
	Type   string     `json:"type"` // "mirror" or "wall"
	A      geom.Vec2  `json:"a"`
	B      geom.Vec2  `json:"b"`
	Facing *geom.Vec2 `json:"facing,omitempty"`
}

// Level is a parsed arena: spawn point, cursor start and the surface set.
type Level struct {
	Name     string        `json:"name"`
	Width    float64       `json:"width"`
	Height   float64       `json:"height"`
	Player   geom.Vec2     `json:"player"`
	Cursor   geom.Vec2     `json:"cursor"`
	Surfaces []SurfaceSpec `json:"surfaces"`
}

// Load reads and validates a level file.
func Load(path string) (*Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("level: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a level from raw JSON.
func Parse(data []byte) (*Level, error) {
	var lvl Level
	if err := json.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("level: decode: %w", err)
	}
	if err := lvl.Validate(); err != nil {
		return nil, err
	}
	return &lvl, nil
}

// Validate checks the level is usable: positive bounds, unique surface
// IDs, known types, non-degenerate segments, mirrors with a facing.
func (l *Level) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("level: missing name")
	}
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("level %q: non-positive bounds %gx%g", l.Name, l.Width, l.Height)
	}

	seen := make(map[string]bool, len(l.Surfaces))
	for _, s := range l.Surfaces {
		if s.ID == "" {
			return fmt.Errorf("level %q: surface with empty id", l.Name)
		}
		if seen[s.ID] {
			return fmt.Errorf("level %q: duplicate surface id %q", l.Name, s.ID)
		}
		seen[s.ID] = true

		if s.A.Eq(s.B) {
			return fmt.Errorf("level %q: surface %q has zero length", l.Name, s.ID)
		}
		switch s.Type {
		case "mirror":
			if s.Facing == nil {
				return fmt.Errorf("level %q: mirror %q needs a facing point", l.Name, s.ID)
			}
		case "wall":
		default:
			return fmt.Errorf("level %q: surface %q has unknown type %q", l.Name, s.ID, s.Type)
		}
	}
	return nil
}

// Build instantiates the surface set. Validation has already guaranteed
// the constructors cannot fail, but errors are still propagated rather
// than swallowed.
func (l *Level) Build() ([]trajectory.Surface, error) {
	surfaces := make([]trajectory.Surface, 0, len(l.Surfaces))
	for _, spec := range l.Surfaces {
		var (
			s   trajectory.Surface
			err error
		)
		switch spec.Type {
		case "mirror":
			s, err = trajectory.NewMirrorFacing(spec.ID, spec.A, spec.B, *spec.Facing)
		case "wall":
			s, err = trajectory.NewWall(spec.ID, spec.A, spec.B)
		default:
			err = fmt.Errorf("unknown type %q", spec.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("level %q: surface %q: %w", l.Name, spec.ID, err)
		}
		surfaces = append(surfaces, s)
	}
	return surfaces, nil
}

// Demo returns the built-in arena used when no level file is configured:
// a bordered box with two facing mirrors and a dividing wall.
func Demo() *Level {
	facing := func(x, y float64) *geom.Vec2 {
		v := geom.V(x, y)
		return &v
	}
	return &Level{
		Name:   "demo",
		Width:  800,
		Height: 600,
		Player: geom.V(170, 520),
		Cursor: geom.V(406, 396),
		Surfaces: []SurfaceSpec{
			{ID: "border-top", Type: "wall", A: geom.V(0, 0), B: geom.V(800, 0)},
			{ID: "border-bottom", Type: "wall", A: geom.V(0, 600), B: geom.V(800, 600)},
			{ID: "border-left", Type: "wall", A: geom.V(0, 0), B: geom.V(0, 600)},
			{ID: "border-right", Type: "wall", A: geom.V(800, 0), B: geom.V(800, 600)},
			{ID: "mirror-left", Type: "mirror", A: geom.V(250, 50), B: geom.V(250, 500), Facing: facing(550, 300)},
			{ID: "mirror-right", Type: "mirror", A: geom.V(550, 100), B: geom.V(550, 450), Facing: facing(250, 300)},
			{ID: "divider", Type: "wall", A: geom.V(380, 0), B: geom.V(380, 180)},
		},
	}
}
