package level

import (
	"strings"
	"testing"

	"mirrorshot/internal/geom"
)

// TestParseValid verifies a well-formed level decodes and builds.
func TestParseValid(t *testing.T) {
	data := []byte(`{
		"name": "box",
		"width": 100, "height": 100,
		"player": {"x": 10, "y": 10},
		"cursor": {"x": 90, "y": 90},
		"surfaces": [
			{"id": "m1", "type": "mirror", "a": {"x": 50, "y": 0}, "b": {"x": 50, "y": 100}, "facing": {"x": 0, "y": 50}},
			{"id": "w1", "type": "wall", "a": {"x": 0, "y": 0}, "b": {"x": 100, "y": 0}}
		]
	}`)

	lvl, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	surfaces, err := lvl.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(surfaces) != 2 {
		t.Fatalf("got %d surfaces", len(surfaces))
	}
	if surfaces[0].ID() != "m1" || !surfaces[0].IsPlannable() {
		t.Error("first surface should be the plannable mirror")
	}
	if surfaces[1].IsPlannable() {
		t.Error("walls must not be plannable")
	}
}

// TestValidateRejects covers the malformed-level cases.
func TestValidateRejects(t *testing.T) {
	base := func() *Level {
		return &Level{
			Name: "x", Width: 100, Height: 100,
			Surfaces: []SurfaceSpec{{ID: "w", Type: "wall", A: geom.V(0, 0), B: geom.V(1, 0)}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Level)
		wantErr string
	}{
		{"missing name", func(l *Level) { l.Name = "" }, "missing name"},
		{"bad bounds", func(l *Level) { l.Width = 0 }, "bounds"},
		{"empty id", func(l *Level) { l.Surfaces[0].ID = "" }, "empty id"},
		{"duplicate id", func(l *Level) { l.Surfaces = append(l.Surfaces, l.Surfaces[0]) }, "duplicate"},
		{"zero length", func(l *Level) { l.Surfaces[0].B = l.Surfaces[0].A }, "zero length"},
		{"unknown type", func(l *Level) { l.Surfaces[0].Type = "portal" }, "unknown type"},
		{"mirror without facing", func(l *Level) { l.Surfaces[0].Type = "mirror" }, "facing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lvl := base()
			tt.mutate(lvl)
			err := lvl.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

// TestDemoBuilds verifies the built-in arena is always valid.
func TestDemoBuilds(t *testing.T) {
	lvl := Demo()
	if err := lvl.Validate(); err != nil {
		t.Fatalf("demo level invalid: %v", err)
	}
	surfaces, err := lvl.Build()
	if err != nil {
		t.Fatalf("demo level build: %v", err)
	}
	if len(surfaces) != len(lvl.Surfaces) {
		t.Errorf("built %d of %d surfaces", len(surfaces), len(lvl.Surfaces))
	}
}
