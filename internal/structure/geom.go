package structure

import "math"

// Vec3 represents a 3D vector in Cartesian Angstrom space.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Cross computes the cross product of two vectors.
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// Dot computes the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Norm returns the length of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns a unit vector in the same direction. The zero vector is
// returned unchanged.
func (v Vec3) Normalize() Vec3 {
	mag := v.Norm()
	if mag == 0 {
		return Vec3{}
	}
	return Vec3{X: v.X / mag, Y: v.Y / mag, Z: v.Z / mag}
}

// Scale returns the vector scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Dihedral computes the signed dihedral angle defined by four points, in
// degrees in [-180, 180]. The angle is between the planes (p1,p2,p3) and
// (p2,p3,p4); atan2 gives proper quadrant handling. The angle is positive when,
// looking along p2->p3, the p3-p4 bond is turned clockwise from the p2-p1 bond.
func Dihedral(p1, p2, p3, p4 Vec3) float64 {
	b1 := p2.Sub(p1)
	b2 := p3.Sub(p2)
	b3 := p4.Sub(p3)

	n1 := b1.Cross(b2)
	n2 := b2.Cross(b3)
	m1 := b2.Normalize().Cross(n1)

	x := n1.Dot(n2)
	y := m1.Dot(n2)
	return math.Atan2(y, x) * 180.0 / math.Pi
}

// RotateAbout rotates point p about the axis through origin with unit
// direction axis, by angle degrees (right-handed), using Rodrigues' formula.
func RotateAbout(p, origin, axis Vec3, angleDeg float64) Vec3 {
	theta := angleDeg * math.Pi / 180.0
	cos := math.Cos(theta)
	sin := math.Sin(theta)

	v := p.Sub(origin)
	rot := v.Scale(cos).
		Add(axis.Cross(v).Scale(sin)).
		Add(axis.Scale(axis.Dot(v) * (1 - cos)))
	return rot.Add(origin)
}

// PlaceAtom positions a fourth atom given three reference atoms, a bond
// length to p3, the p2-p3-new bond angle in degrees, and the p1-p2-p3-new
// dihedral in degrees (natural extension reference frame construction).
func PlaceAtom(p1, p2, p3 Vec3, bond, angleDeg, dihedralDeg float64) Vec3 {
	angle := angleDeg * math.Pi / 180.0
	dihedral := dihedralDeg * math.Pi / 180.0

	bc := p3.Sub(p2).Normalize()
	n := p2.Sub(p1).Cross(bc).Normalize()
	m := n.Cross(bc)

	// Local displacement in the frame (bc, m, n).
	d := Vec3{
		X: -bond * math.Cos(angle),
		Y: bond * math.Sin(angle) * math.Cos(dihedral),
		Z: bond * math.Sin(angle) * math.Sin(dihedral),
	}
	return Vec3{
		X: p3.X + d.X*bc.X + d.Y*m.X + d.Z*n.X,
		Y: p3.Y + d.X*bc.Y + d.Y*m.Y + d.Z*n.Y,
		Z: p3.Z + d.X*bc.Z + d.Y*m.Z + d.Z*n.Z,
	}
}
