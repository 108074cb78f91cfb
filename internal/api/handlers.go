package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"mirrorshot/internal/geom"
	"mirrorshot/internal/trajectory"
)

// Handler methods for routerHandlers.
// These are used by both the standalone router (for testing) and the full Server.

// surfaceJSON is the wire shape of one surface.
type surfaceJSON struct {
	ID        string    `json:"id"`
	A         geom.Vec2 `json:"a"`
	B         geom.Vec2 `json:"b"`
	Normal    geom.Vec2 `json:"normal"`
	Plannable bool      `json:"plannable"`
}

func surfaceToJSON(s trajectory.Surface) surfaceJSON {
	seg := s.Segment()
	return surfaceJSON{
		ID:        s.ID(),
		A:         seg.A,
		B:         seg.B,
		Normal:    s.Normal(),
		Plannable: s.IsPlannable(),
	}
}

func planIDs(plan []trajectory.Surface) []string {
	ids := make([]string, 0, len(plan))
	for _, s := range plan {
		ids = append(ids, s.ID())
	}
	return ids
}

// segmentJSON is the wire shape of one path segment.
type segmentJSON struct {
	Start       geom.Vec2 `json:"start"`
	End         geom.Vec2 `json:"end"`
	SurfaceID   string    `json:"surfaceId,omitempty"`
	Termination string    `json:"termination,omitempty"`
}

func sectionToJSON(segs []trajectory.PathSegment) []segmentJSON {
	out := make([]segmentJSON, 0, len(segs))
	for _, s := range segs {
		j := segmentJSON{Start: s.Start, End: s.End, Termination: string(s.Termination)}
		if s.Surface != nil {
			j.SurfaceID = s.Surface.ID()
		}
		out = append(out, j)
	}
	return out
}

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"player": h.engine.Player(),
		"cursor": h.engine.Target(),
		"plan":   planIDs(h.engine.Plan()),
	})
}

func (h *routerHandlers) handleAim(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Player *geom.Vec2 `json:"player"`
		Cursor *geom.Vec2 `json:"cursor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Player == nil && req.Cursor == nil {
		writeError(w, "Nothing to update", http.StatusBadRequest)
		return
	}

	if req.Player != nil {
		h.engine.SetPlayer(*req.Player)
	}
	if req.Cursor != nil {
		h.engine.SetTarget(*req.Cursor)
	}

	writeJSON(w, map[string]interface{}{
		"player":    h.engine.Player(),
		"cursor":    h.engine.Target(),
		"reachable": h.engine.IsCursorReachable(),
	})
}

func (h *routerHandlers) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SurfaceIDs []string `json:"surfaceIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	byID := make(map[string]trajectory.Surface)
	for _, s := range h.engine.Surfaces() {
		byID[s.ID()] = s
	}

	plan := make([]trajectory.Surface, 0, len(req.SurfaceIDs))
	for _, id := range req.SurfaceIDs {
		s, ok := byID[id]
		if !ok {
			writeError(w, "Unknown surface: "+id, http.StatusBadRequest)
			return
		}
		if !s.IsPlannable() {
			writeError(w, "Surface not plannable: "+id, http.StatusBadRequest)
			return
		}
		plan = append(plan, s)
	}

	h.engine.SetPlan(plan)
	writeJSON(w, map[string]interface{}{
		"plan":     planIDs(h.engine.Plan()),
		"bypassed": h.engine.BypassReport(),
	})
}

func (h *routerHandlers) handleGetTrajectory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	res := h.engine.FullTrajectory()
	RecordRecompute(time.Since(start))

	size, hits, _ := h.engine.CacheStats()
	UpdateCacheStats(size, hits)
	for _, b := range res.Bypassed {
		RecordBypass(string(b.Reason))
	}

	writeJSON(w, map[string]interface{}{
		"merged":             sectionToJSON(res.Merged),
		"physicalDivergent":  sectionToJSON(res.PhysicalDivergent),
		"plannedToTarget":    sectionToJSON(res.PlannedToTarget),
		"physicalFromTarget": sectionToJSON(res.PhysicalFromTarget),
		"isFullyAligned":     res.IsFullyAligned,
		"reachedCursor":      res.ReachedCursor,
		"divergencePoint":    res.DivergencePoint,
		"bypassed":           res.Bypassed,
		"reachable":          h.engine.IsCursorReachable(),
	})
}

func (h *routerHandlers) handleGetWaypoints(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"waypoints": h.engine.Waypoints(),
	})
}

func (h *routerHandlers) handleGetSurfaces(w http.ResponseWriter, r *http.Request) {
	surfaces := h.engine.Surfaces()
	out := make([]surfaceJSON, 0, len(surfaces))
	for _, s := range surfaces {
		out = append(out, surfaceToJSON(s))
	}
	writeJSON(w, out)
}

func (h *routerHandlers) handleFire(w http.ResponseWriter, r *http.Request) {
	waypoints := h.engine.Waypoints()
	terminal := trajectory.TerminalSurface(h.engine.FullTrajectory())

	arrow, err := h.flight.Fire(waypoints, terminal)
	if err != nil {
		writeError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	RecordArrowFired()
	UpdateArrowsLive(h.flight.Live())

	writeJSON(w, map[string]interface{}{
		"arrowId":   arrow.ID,
		"waypoints": waypoints,
	})
}

func (h *routerHandlers) handleGetArrows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.flight.Snapshot())
}

func (h *routerHandlers) handlePreview(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	res := h.engine.FullTrajectory()

	w.Header().Set("Content-Type", "image/png")
	err := h.preview.RenderPNG(w, h.engine.Player(), h.engine.Target(), h.engine.Surfaces(), res)
	if err != nil {
		// Headers are already out; all we can do is log.
		log.Printf("⚠️ Preview render error: %v", err)
		return
	}
	RecordPreview(time.Since(start))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("⚠️ JSON encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
