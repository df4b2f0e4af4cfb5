package game

import "math"

// Vec2 is a point or direction in play-area pixels. Y grows downward.
type Vec2 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }
func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Len() }
func (v Vec2) Lerp(o Vec2, t float64) Vec2 { return Vec2{v.X + (o.X-v.X)*t, v.Y + (o.Y-v.Y)*t} }

// Wobble parameters for the Wobbly archetype.
const (
	WobbleAmplitude  = 25.0
	WobbleWavelength = 140.0
)

// TravelFraction returns traveled/total clamped to [0, 1].
// A path of zero length counts as fully traveled.
func TravelFraction(traveled, total float64) float64 {
	if total <= 0 {
		return 1
	}
	f := traveled / total
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// LinearPosition interpolates from start to target by the travel fraction.
func LinearPosition(start, target Vec2, traveled, total float64) Vec2 {
	return start.Lerp(target, TravelFraction(traveled, total))
}

// WobblePosition is LinearPosition plus a sinusoidal offset perpendicular to
// the path. The phase is driven by path distance, not time, so the pattern is
// identical regardless of frame rate.
func WobblePosition(start, target Vec2, traveled, total, amplitude, wavelength float64) Vec2 {
	base := LinearPosition(start, target, traveled, total)
	dir := target.Sub(start)
	length := dir.Len()
	if length == 0 || wavelength <= 0 {
		return base
	}
	perp := Vec2{-dir.Y / length, dir.X / length}
	offset := amplitude * math.Sin(2*math.Pi*traveled/wavelength)
	return base.Add(perp.Scale(offset))
}

// Pursue moves pos toward target by step. It snaps onto the target and
// reports arrival when the remaining distance is within step.
func Pursue(pos, target Vec2, step float64) (Vec2, bool) {
	d := target.Sub(pos)
	dist := d.Len()
	if dist <= step {
		return target, true
	}
	return pos.Add(d.Scale(step / dist)), false
}
