package kinematics

import "github.com/go-gl/mathgl/mgl64"

// Capsule is a line segment with a radius, the collision proxy for every
// moving suspension part.
type Capsule struct {
	A, B   mgl64.Vec3
	Radius float64
}

// segmentDistance returns the minimum distance between segments p1-q1 and
// p2-q2. Standard closest-point parameterization, clamped to the segment
// ends.
func segmentDistance(p1, q1, p2, q2 mgl64.Vec3) float64 {
	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)

	a := d1.Dot(d1)
	e := d2.Dot(d2)
	f := d2.Dot(r)

	var s, t float64
	const eps = 1e-12

	switch {
	case a <= eps && e <= eps:
		// Both segments degenerate to points.
		return r.Len()
	case a <= eps:
		t = clamp01(f / e)
	case e <= eps:
		c := d1.Dot(r)
		s = clamp01(-c / a)
	default:
		c := d1.Dot(r)
		b := d1.Dot(d2)
		denom := a*e - b*b

		if denom > eps {
			s = clamp01((b*f - c*e) / denom)
		}
		t = (b*s + f) / e

		if t < 0 {
			t = 0
			s = clamp01(-c / a)
		} else if t > 1 {
			t = 1
			s = clamp01((b - c) / a)
		}
	}

	c1 := p1.Add(d1.Mul(s))
	c2 := p2.Add(d2.Mul(t))
	return c1.Sub(c2).Len()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Overlap returns how deep two capsules interpenetrate; zero or negative
// means clear. Positive overlap is advisory only and never alters the
// solved geometry.
func (c Capsule) Overlap(other Capsule) float64 {
	d := segmentDistance(c.A, c.B, other.A, other.B)
	return (c.Radius + other.Radius) - d
}

// Intersects reports whether the two capsules touch.
func (c Capsule) Intersects(other Capsule) bool {
	return c.Overlap(other) > 0
}
