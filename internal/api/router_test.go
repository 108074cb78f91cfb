package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mirrorshot/internal/config"
	"mirrorshot/internal/flight"
	"mirrorshot/internal/geom"
	"mirrorshot/internal/trajectory"
)

// newTestRouter wires a real engine and flight loop (not started) behind
// the pure router, with rate limits high enough to never interfere.
func newTestRouter(t *testing.T) (http.Handler, *trajectory.Engine) {
	t.Helper()

	eng := trajectory.NewEngine(trajectory.Config{
		MaxReflections:     8,
		ExhaustionDistance: 5000,
		MaxTraceDistance:   400,
	})
	eng.SetPlayer(geom.V(0, 0))
	eng.SetTarget(geom.V(10, 0))

	m, err := trajectory.NewMirrorFacing("m", geom.V(5, -5), geom.V(5, 5), geom.V(0, 0))
	if err != nil {
		t.Fatal(err)
	}
	w, err := trajectory.NewWall("w", geom.V(20, -5), geom.V(20, 5))
	if err != nil {
		t.Fatal(err)
	}
	eng.SetSurfaces([]trajectory.Surface{m, w})

	fc := config.DefaultFlight()
	fl := flight.NewManager(fc.Speed, fc.TickRate, fc.MaxLive)

	router := NewRouter(RouterConfig{
		Engine: eng,
		Flight: fl,
		RateLimitConfig: &RateLimitConfig{
			RequestsPerSecond: 1000,
			Burst:             1000,
			CleanupInterval:   DefaultRateLimitConfig.CleanupInterval,
		},
		DisableLogging: true,
	})
	return router, eng
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

// TestAimAndTrajectory drives the happy path: move the aim, read back
// the four-section trajectory.
func TestAimAndTrajectory(t *testing.T) {
	router, _ := newTestRouter(t)
	ts := httptest.NewServer(router)
	defer ts.Close()

	resp := postJSON(t, ts, "/api/aim", map[string]interface{}{
		"cursor": map[string]float64{"x": 3, "y": 0},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("aim status = %d", resp.StatusCode)
	}
	var aim struct {
		Reachable bool      `json:"reachable"`
		Cursor    geom.Vec2 `json:"cursor"`
	}
	decode(t, resp, &aim)
	if aim.Cursor.X != 3 {
		t.Errorf("cursor = %v", aim.Cursor)
	}
	if !aim.Reachable {
		t.Error("short clear aim should be reachable")
	}

	resp, err := http.Get(ts.URL + "/api/trajectory")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("trajectory status = %d", resp.StatusCode)
	}
	var tr struct {
		Merged        []json.RawMessage `json:"merged"`
		ReachedCursor bool              `json:"reachedCursor"`
	}
	decode(t, resp, &tr)
	if !tr.ReachedCursor || len(tr.Merged) == 0 {
		t.Errorf("trajectory = reached=%v merged=%d", tr.ReachedCursor, len(tr.Merged))
	}
}

// TestPlanEndpoint verifies plan updates, unknown-surface rejection and
// the non-plannable guard.
func TestPlanEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	ts := httptest.NewServer(router)
	defer ts.Close()

	resp := postJSON(t, ts, "/api/plan", map[string]interface{}{"surfaceIds": []string{"m"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("plan status = %d", resp.StatusCode)
	}
	var plan struct {
		Plan []string `json:"plan"`
	}
	decode(t, resp, &plan)
	if len(plan.Plan) != 1 || plan.Plan[0] != "m" {
		t.Errorf("plan = %v", plan.Plan)
	}

	resp = postJSON(t, ts, "/api/plan", map[string]interface{}{"surfaceIds": []string{"nope"}})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown surface status = %d", resp.StatusCode)
	}

	resp = postJSON(t, ts, "/api/plan", map[string]interface{}{"surfaceIds": []string{"w"}})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("wall in plan status = %d", resp.StatusCode)
	}
}

// TestSurfacesEndpoint verifies the surface listing.
func TestSurfacesEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	ts := httptest.NewServer(router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/surfaces")
	if err != nil {
		t.Fatal(err)
	}
	var surfaces []surfaceJSON
	decode(t, resp, &surfaces)
	if len(surfaces) != 2 {
		t.Fatalf("surfaces = %+v", surfaces)
	}
	plannable := map[string]bool{}
	for _, s := range surfaces {
		plannable[s.ID] = s.Plannable
	}
	if !plannable["m"] || plannable["w"] {
		t.Errorf("plannable flags = %v", plannable)
	}
}

// TestFireEndpoint verifies firing launches an arrow along the current
// waypoints.
func TestFireEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	ts := httptest.NewServer(router)
	defer ts.Close()

	resp := postJSON(t, ts, "/api/fire", map[string]interface{}{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fire status = %d", resp.StatusCode)
	}
	var fired struct {
		ArrowID   string      `json:"arrowId"`
		Waypoints []geom.Vec2 `json:"waypoints"`
	}
	decode(t, resp, &fired)
	if fired.ArrowID == "" || len(fired.Waypoints) < 2 {
		t.Errorf("fired = %+v", fired)
	}

	resp, err := http.Get(ts.URL + "/api/arrows")
	if err != nil {
		t.Fatal(err)
	}
	var arrows []flight.ArrowSnapshot
	decode(t, resp, &arrows)
	if len(arrows) != 1 || arrows[0].ID != fired.ArrowID {
		t.Errorf("arrows = %+v", arrows)
	}
}

// TestAimRejectsGarbage verifies malformed bodies are rejected.
func TestAimRejectsGarbage(t *testing.T) {
	router, _ := newTestRouter(t)
	ts := httptest.NewServer(router)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/aim", "application/json", bytes.NewReader([]byte("{")))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("garbage body status = %d", resp.StatusCode)
	}

	resp = postJSON(t, ts, "/api/aim", map[string]interface{}{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty aim status = %d", resp.StatusCode)
	}
}

// TestRateLimiting verifies the limiter rejects once the burst is spent.
func TestRateLimiting(t *testing.T) {
	eng := trajectory.NewEngine(trajectory.Config{MaxReflections: 8, ExhaustionDistance: 5000, MaxTraceDistance: 400})
	fl := flight.NewManager(600, 60, 4)

	limiter := NewIPRateLimiter(RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             2,
		CleanupInterval:   DefaultRateLimitConfig.CleanupInterval,
	})
	defer limiter.Stop()

	router := NewRouter(RouterConfig{
		Engine:         eng,
		Flight:         fl,
		RateLimiter:    limiter,
		DisableLogging: true,
	})
	ts := httptest.NewServer(router)
	defer ts.Close()

	var last int
	for i := 0; i < 5; i++ {
		resp, err := http.Get(ts.URL + "/api/state")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		last = resp.StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("final status = %d, want 429", last)
	}
}
