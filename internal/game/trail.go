package game

// TrailLength is the number of past positions kept per moving entity.
const TrailLength = 8

// Trail is a fixed-size ring buffer of recent positions.
type Trail struct {
	Points [TrailLength]Vec2 `msgpack:"points"`
	Head   int               `msgpack:"head"` // Next write position
	Count  int               `msgpack:"count"`
}

// Push records a position, overwriting the oldest once full.
func (t *Trail) Push(p Vec2) {
	t.Points[t.Head] = p
	t.Head = (t.Head + 1) % TrailLength
	if t.Count < TrailLength {
		t.Count++
	}
}

// AppendTo appends the points oldest first to dst and returns it.
func (t *Trail) AppendTo(dst []Vec2) []Vec2 {
	start := t.Head - t.Count
	if start < 0 {
		start += TrailLength
	}
	for i := 0; i < t.Count; i++ {
		dst = append(dst, t.Points[(start+i)%TrailLength])
	}
	return dst
}
