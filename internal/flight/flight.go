// Package flight animates fired arrows along the waypoint paths produced
// by the trajectory engine. The preview decides where an arrow will go;
// this loop only replays that decision over time.
package flight

import (
	"fmt"
	"log"
	"sync"
	"time"

	"mirrorshot/internal/geom"
	"mirrorshot/internal/trajectory"
)

// Arrow is one projectile in flight along a fixed waypoint path.
type Arrow struct {
	ID       string
	Pos      geom.Vec2
	Dir      geom.Vec2
	segment  int     // index into waypoints of the segment start
	progress float64 // world units travelled along the current segment

	waypoints []geom.Vec2
	terminal  trajectory.Surface
	Done      bool
}

// ArrowSnapshot is the immutable per-tick view broadcast to clients.
type ArrowSnapshot struct {
	ID   string    `json:"id"`
	Pos  geom.Vec2 `json:"pos"`
	Dir  geom.Vec2 `json:"dir"`
	Done bool      `json:"done"`
}

// ImpactEvent reports an arrow finishing its path on a surface.
type ImpactEvent struct {
	ArrowID   string                 `json:"arrowId"`
	SurfaceID string                 `json:"surfaceId,omitempty"`
	Point     geom.Vec2              `json:"point"`
	Hit       trajectory.ArrowHitType `json:"hit,omitempty"`
}

// Manager owns the flight loop: a fixed-rate ticker advancing every live
// arrow and retiring the ones that reach the end of their path.
type Manager struct {
	mu     sync.Mutex
	arrows []*Arrow

	speed    float64
	tickRate int
	maxLive  int

	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}

	fired int64

	// OnImpact is called from the tick goroutine when an arrow lands.
	OnImpact func(ImpactEvent)
}

// NewManager creates a flight loop with the given tuning.
func NewManager(speed float64, tickRate, maxLive int) *Manager {
	return &Manager{
		speed:    speed,
		tickRate: tickRate,
		maxLive:  maxLive,
		stopChan: make(chan struct{}),
	}
}

// Start begins the flight loop.
func (m *Manager) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	m.ticker = time.NewTicker(time.Second / time.Duration(m.tickRate))

	go func() {
		for {
			select {
			case <-m.ticker.C:
				m.tick()
			case <-m.stopChan:
				return
			}
		}
	}()

	log.Printf("🏹 Flight loop started at %d TPS", m.tickRate)
}

// Stop stops the flight loop.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.running = false
	if m.ticker != nil {
		m.ticker.Stop()
	}
	close(m.stopChan)
	log.Println("🛑 Flight loop stopped")
}

// Fire launches an arrow along the given waypoints. The terminal surface,
// when non-nil, receives OnArrowHit once the arrow arrives.
func (m *Manager) Fire(waypoints []geom.Vec2, terminal trajectory.Surface) (*Arrow, error) {
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("flight: need at least two waypoints, got %d", len(waypoints))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.arrows) >= m.maxLive {
		return nil, fmt.Errorf("flight: %d arrows already live", len(m.arrows))
	}

	m.fired++
	a := &Arrow{
		ID:        fmt.Sprintf("arrow_%d", m.fired),
		Pos:       waypoints[0],
		Dir:       waypoints[1].Sub(waypoints[0]).Normalize(),
		waypoints: waypoints,
		terminal:  terminal,
	}
	m.arrows = append(m.arrows, a)
	return a, nil
}

// Snapshot returns the current state of every live arrow.
func (m *Manager) Snapshot() []ArrowSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ArrowSnapshot, 0, len(m.arrows))
	for _, a := range m.arrows {
		out = append(out, ArrowSnapshot{ID: a.ID, Pos: a.Pos, Dir: a.Dir, Done: a.Done})
	}
	return out
}

// Live returns the number of arrows still flying.
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.arrows)
}

func (m *Manager) tick() {
	dt := 1.0 / float64(m.tickRate)

	m.mu.Lock()
	var impacts []ImpactEvent
	kept := m.arrows[:0]
	for _, a := range m.arrows {
		a.advance(m.speed * dt)
		if !a.Done {
			kept = append(kept, a)
			continue
		}
		impacts = append(impacts, a.impact())
	}
	m.arrows = kept
	cb := m.OnImpact
	m.mu.Unlock()

	if cb != nil {
		for _, ev := range impacts {
			cb(ev)
		}
	}
}

// advance moves the arrow dist world units along its waypoint path,
// crossing waypoint corners within a single tick when needed.
func (a *Arrow) advance(dist float64) {
	for dist > 0 && !a.Done {
		from := a.waypoints[a.segment]
		to := a.waypoints[a.segment+1]
		segLen := from.DistanceTo(to)

		remaining := segLen - a.progress
		if dist < remaining {
			a.progress += dist
			frac := a.progress / segLen
			a.Pos = from.Add(to.Sub(from).Scale(frac))
			a.Dir = to.Sub(from).Normalize()
			return
		}

		dist -= remaining
		a.segment++
		a.progress = 0
		a.Pos = to
		if a.segment+1 >= len(a.waypoints) {
			a.Done = true
			a.Dir = to.Sub(from).Normalize()
			return
		}
	}
}

func (a *Arrow) impact() ImpactEvent {
	ev := ImpactEvent{ArrowID: a.ID, Point: a.Pos}
	if a.terminal != nil {
		ev.SurfaceID = a.terminal.ID()
		velocity := a.Dir
		ev.Hit = a.terminal.OnArrowHit(a.Pos, velocity).Type
	}
	return ev
}
