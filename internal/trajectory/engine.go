package trajectory

import (
	"sync"

	"mirrorshot/internal/geom"
)

// Engine is the facade owning the current player/target/plan/surface set.
// Derived results are recomputed lazily on the next getter and memoized
// until an invalidating setter or InvalidateAll. Setters compare by value:
// setting an identical value is a no-op and keeps the memo warm.
//
// All mutation goes through one mutex so the API layer can share an
// Engine; the computation itself is pure and single-threaded.
type Engine struct {
	mu sync.Mutex

	player   geom.Vec2
	target   geom.Vec2
	plan     []Surface
	surfaces []Surface
	cfg      Config

	full  *FullTrajectoryResult
	cache *ReflectionCache

	subscribers []subscriber
	nextSubID   int
	disposed    bool

	// recomputes counts full rebuilds, for tests and metrics.
	recomputes int
}

type subscriber struct {
	id int
	fn func()
}

// NewEngine creates a facade with the given tuning.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// SetPlayer updates the player position. Repeated identical calls do not
// invalidate cached results.
func (e *Engine) SetPlayer(p geom.Vec2) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.player.Eq(p) {
		return
	}
	e.player = p
	e.full = nil
}

// SetTarget updates the cursor position.
func (e *Engine) SetTarget(t geom.Vec2) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.target.Eq(t) {
		return
	}
	e.target = t
	e.full = nil
}

// SetPlan replaces the ordered bounce plan. Non-plannable surfaces are
// dropped silently; the plan is a subset of plannable surfaces by
// contract.
func (e *Engine) SetPlan(plan []Surface) {
	filtered := make([]Surface, 0, len(plan))
	for _, s := range plan {
		if s != nil && s.IsPlannable() {
			filtered = append(filtered, s)
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if samePlan(e.plan, filtered) {
		return
	}
	e.plan = filtered
	e.full = nil
}

// SetSurfaces replaces the full surface set.
func (e *Engine) SetSurfaces(surfaces []Surface) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if samePlan(e.surfaces, surfaces) {
		return
	}
	e.surfaces = append([]Surface(nil), surfaces...)
	e.full = nil
}

// SetConfig replaces the scalar tuning.
func (e *Engine) SetConfig(cfg Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cfg == cfg {
		return
	}
	e.cfg = cfg
	e.full = nil
}

func (e *Engine) Player() geom.Vec2 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.player
}

func (e *Engine) Target() geom.Vec2 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.target
}

func (e *Engine) Surfaces() []Surface {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Surface(nil), e.surfaces...)
}

func (e *Engine) Plan() []Surface {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Surface(nil), e.plan...)
}

func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// FullTrajectory returns the memoized four-section result, rebuilding it
// if a setter changed anything since the last call. The reflection cache
// is scoped to one recomputation and discarded with the memo.
func (e *Engine) FullTrajectory() FullTrajectoryResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.recomputeLocked()
}

// Waypoints returns the flat list the arrow flies.
func (e *Engine) Waypoints() []geom.Vec2 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Waypoints(e.player, *e.recomputeLocked())
}

// IsCursorReachable reports whether the planned trace, over the effective
// plan, actually reaches the cursor.
func (e *Engine) IsCursorReachable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recomputeLocked()
	bp := CheckBypass(e.player, e.target, e.plan, BypassOptions{
		Surfaces:           e.surfaces,
		Cache:              e.cache,
		ExhaustionDistance: e.cfg.ExhaustionDistance,
	})
	res := Trace(NewRayPropagator(e.player, e.target), TraceOptions{
		Strategy:       PlannedStrategy(bp.Effective),
		Cache:          e.cache,
		MaxReflections: e.cfg.MaxReflections,
		Budget:         e.cfg.ExhaustionDistance,
		FreeFlight:     e.cfg.MaxTraceDistance,
		StopAtCursor:   true,
	})
	return res.Termination == TermCursor
}

// BypassReport returns the drop report of the last recomputation.
func (e *Engine) BypassReport() []BypassEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recomputeLocked().Bypassed
}

// Recomputes returns how many full rebuilds have run.
func (e *Engine) Recomputes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recomputes
}

// CacheStats exposes the current recomputation cache counters.
func (e *Engine) CacheStats() (size, hits, misses int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cache == nil {
		return 0, 0, 0
	}
	hits, misses = e.cache.Stats()
	return e.cache.Size(), hits, misses
}

func (e *Engine) recomputeLocked() *FullTrajectoryResult {
	if e.full != nil {
		return e.full
	}
	e.cache = NewReflectionCache()
	res := BuildFullTrajectory(e.player, e.target, e.surfaces, e.plan, e.cfg, e.cache)
	e.full = &res
	e.recomputes++
	return e.full
}

// Subscribe registers a callback fired synchronously, in registration
// order, from InvalidateAll. The returned function unsubscribes; after it
// runs (or after Dispose) the callback is never invoked again.
func (e *Engine) Subscribe(fn func()) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextSubID++
	id := e.nextSubID
	e.subscribers = append(e.subscribers, subscriber{id: id, fn: fn})
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, s := range e.subscribers {
			if s.id == id {
				e.subscribers = append(e.subscribers[:i], e.subscribers[i+1:]...)
				return
			}
		}
	}
}

// InvalidateAll drops every memoized result and notifies subscribers.
// After Dispose it does nothing.
func (e *Engine) InvalidateAll() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.full = nil
	e.cache = nil
	subs := append([]subscriber(nil), e.subscribers...)
	e.mu.Unlock()

	for _, s := range subs {
		s.fn()
	}
}

// Dispose drops all subscribers and guarantees no further callbacks.
func (e *Engine) Dispose() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disposed = true
	e.subscribers = nil
}

func samePlan(a, b []Surface) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !sameSurface(a[i], b[i]) {
			return false
		}
	}
	return true
}
