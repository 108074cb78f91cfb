package trajectory

import "mirrorshot/internal/geom"

// Termination says why a trace stopped. Every in-domain input maps to one
// of these; the tracer never returns an error.
type Termination string

const (
	TermNone           Termination = ""
	TermNoHit          Termination = "no_hit"
	TermWall           Termination = "wall"
	TermOffSegment     Termination = "off_segment"
	TermMaxReflections Termination = "max_reflections"
	TermExhausted      Termination = "exhausted"
	TermCursor         Termination = "cursor"
)

// ForwardEps is the strictly-ahead margin, in world units, that keeps a
// trace from re-hitting the surface it just departed.
const ForwardEps = 1e-7

// PathSegment is one straight piece of a trajectory. Surface is the
// surface the segment ends on, nil for free flight. Termination is set on
// the final segment of a trace and TermNone elsewhere.
type PathSegment struct {
	Start       geom.Vec2
	End         geom.Vec2
	Surface     Surface
	OnSegment   bool
	CanReflect  bool
	Termination Termination
}

// TraceResult is the ordered segment list plus the propagator the trace
// ended in. CursorIndex/CursorFrac are only meaningful when Termination
// is TermCursor: the index of the truncated segment and how far along its
// untruncated extent the cursor sits.
type TraceResult struct {
	Segments    []PathSegment
	Final       RayPropagator
	Termination Termination
	CursorIndex int
	CursorFrac  float64
}

// TraceOptions configures one trace run.
type TraceOptions struct {
	Strategy       HitStrategy
	Cache          *ReflectionCache
	MaxReflections int
	// Budget is the remaining exhaustion distance. Exceeding it ends the
	// trace with TermExhausted.
	Budget float64
	// FreeFlight caps the length of a terminal no-hit segment.
	FreeFlight float64
	// StopAtCursor truncates the trace at the target image (ray parameter
	// 1) when it lies ahead on the current segment before any hit.
	StopAtCursor bool
	// StartOffset resumes the trace at this ray parameter instead of the
	// propagator's source. It only shifts the ahead-of-ray-start filter;
	// the geometry is unchanged.
	StartOffset float64
}

// Trace drives a strategy and propagator until a termination condition.
func Trace(prop RayPropagator, opts TraceOptions) TraceResult {
	res := TraceResult{Final: prop, Termination: TermNoHit, CursorIndex: -1}

	rayLen := prop.RayLen()
	if rayLen == 0 {
		// Degenerate aim (source == target): nothing to trace.
		return res
	}

	offset := opts.StartOffset
	remaining := opts.Budget
	start := prop.At(offset)
	reflections := 0

	for {
		epsT := ForwardEps / rayLen
		hit, ok := opts.Strategy.FindNextHit(prop, prop.Last(), offset+epsT)

		// Cursor stop: the target image sits at parameter 1 on every ray.
		if opts.StopAtCursor && 1 > offset+epsT && (!ok || hit.T > 1) {
			cursorDist := (1 - offset) * rayLen
			if cursorDist > remaining {
				end := prop.At(offset + remaining/rayLen)
				res.Segments = append(res.Segments, PathSegment{Start: start, End: end, Termination: TermExhausted})
				res.Termination = TermExhausted
				res.Final = prop
				return res
			}
			end := prop.At(1)
			res.Segments = append(res.Segments, PathSegment{Start: start, End: end, Termination: TermCursor})
			res.Termination = TermCursor
			res.CursorIndex = len(res.Segments) - 1
			res.CursorFrac = cursorFraction(offset, 1, hit, ok, remaining, rayLen, opts.FreeFlight)
			res.Final = prop
			return res
		}

		if !ok {
			length := opts.FreeFlight
			term := TermNoHit
			if length > remaining {
				length = remaining
				term = TermExhausted
			}
			end := prop.At(offset + length/rayLen)
			res.Segments = append(res.Segments, PathSegment{Start: start, End: end, Termination: term})
			res.Termination = term
			res.Final = prop
			return res
		}

		segLen := (hit.T - offset) * rayLen
		if segLen > remaining {
			end := prop.At(offset + remaining/rayLen)
			res.Segments = append(res.Segments, PathSegment{Start: start, End: end, Termination: TermExhausted})
			res.Termination = TermExhausted
			res.Final = prop
			return res
		}

		if !hit.OnSegment {
			// Strategies only return on-segment hits, but the vocabulary
			// keeps the case explicit for hand-built candidates.
			res.Segments = append(res.Segments, segmentTo(start, hit, TermOffSegment))
			res.Termination = TermOffSegment
			res.Final = prop
			return res
		}

		if !hit.CanReflect {
			res.Segments = append(res.Segments, segmentTo(start, hit, TermWall))
			res.Termination = TermWall
			res.Final = prop
			return res
		}

		res.Segments = append(res.Segments, segmentTo(start, hit, TermNone))
		prop = prop.ReflectThrough(hit.Surface, opts.Cache)
		remaining -= segLen
		offset = hit.T
		start = hit.Point
		reflections++

		if reflections >= opts.MaxReflections {
			res.Termination = TermMaxReflections
			res.Final = prop
			return res
		}
	}
}

func segmentTo(start geom.Vec2, hit HitCandidate, term Termination) PathSegment {
	return PathSegment{
		Start:       start,
		End:         hit.Point,
		Surface:     hit.Surface,
		OnSegment:   hit.OnSegment,
		CanReflect:  hit.CanReflect,
		Termination: term,
	}
}

// cursorFraction reports how far along the segment's untruncated extent
// (to the next hit, or to the free-flight/budget limit) the cursor sits.
func cursorFraction(offset, cursorT float64, hit HitCandidate, ok bool, remaining, rayLen, freeFlight float64) float64 {
	endT := offset
	if ok {
		endT = hit.T
	} else {
		length := freeFlight
		if length > remaining {
			length = remaining
		}
		endT = offset + length/rayLen
	}
	if endT <= offset {
		return 1
	}
	frac := (cursorT - offset) / (endT - offset)
	if frac > 1 {
		frac = 1
	}
	return frac
}
