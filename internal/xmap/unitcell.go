// Package xmap implements the crystallographic density grid: unit cell
// conversions, a 3D real-valued array with P1 modular indexing, and CCP4/MRC
// map output.
package xmap

import "math"

// UnitCell holds the cell parameters and the fractional/Cartesian conversion
// matrices. Lengths are in Angstrom, angles in degrees.
type UnitCell struct {
	A, B, C             float64
	Alpha, Beta, Gamma  float64

	// orth converts fractional to Cartesian coordinates (a along x, b in
	// the xy plane); deorth is its inverse.
	orth   [3][3]float64
	deorth [3][3]float64
}

// NewUnitCell builds a unit cell and precomputes the orthogonalization
// matrices.
func NewUnitCell(a, b, c, alpha, beta, gamma float64) UnitCell {
	u := UnitCell{A: a, B: b, C: c, Alpha: alpha, Beta: beta, Gamma: gamma}

	ca := math.Cos(alpha * math.Pi / 180)
	cb := math.Cos(beta * math.Pi / 180)
	cg := math.Cos(gamma * math.Pi / 180)
	sg := math.Sin(gamma * math.Pi / 180)

	u.orth = [3][3]float64{
		{a, b * cg, c * cb},
		{0, b * sg, c * (ca - cb*cg) / sg},
		{0, 0, 0},
	}
	cz := c * math.Sqrt(1-cb*cb-((ca-cb*cg)/sg)*((ca-cb*cg)/sg))
	u.orth[2][2] = cz

	// Analytic inverse of the upper-triangular orthogonalization matrix.
	o := u.orth
	u.deorth = [3][3]float64{
		{1 / o[0][0], -o[0][1] / (o[0][0] * o[1][1]),
			(o[0][1]*o[1][2] - o[0][2]*o[1][1]) / (o[0][0] * o[1][1] * o[2][2])},
		{0, 1 / o[1][1], -o[1][2] / (o[1][1] * o[2][2])},
		{0, 0, 1 / o[2][2]},
	}
	return u
}

// Volume returns the cell volume in cubic Angstrom.
func (u UnitCell) Volume() float64 {
	ca := math.Cos(u.Alpha * math.Pi / 180)
	cb := math.Cos(u.Beta * math.Pi / 180)
	cg := math.Cos(u.Gamma * math.Pi / 180)
	return u.A * u.B * u.C *
		math.Sqrt(1-ca*ca-cb*cb-cg*cg+2*ca*cb*cg)
}

// FracToCart converts fractional coordinates to Cartesian Angstrom.
func (u UnitCell) FracToCart(fx, fy, fz float64) (x, y, z float64) {
	o := u.orth
	x = o[0][0]*fx + o[0][1]*fy + o[0][2]*fz
	y = o[1][1]*fy + o[1][2]*fz
	z = o[2][2] * fz
	return
}

// DeorthRowNorms returns the row norms of the Cartesian-to-fractional matrix.
// Row i bounds the fractional displacement along axis i per Angstrom of
// Cartesian displacement, which sizes voxel bounding boxes on skewed cells.
func (u UnitCell) DeorthRowNorms() [3]float64 {
	var n [3]float64
	for i := 0; i < 3; i++ {
		n[i] = math.Sqrt(u.deorth[i][0]*u.deorth[i][0] +
			u.deorth[i][1]*u.deorth[i][1] + u.deorth[i][2]*u.deorth[i][2])
	}
	return n
}

// CartToFrac converts Cartesian Angstrom to fractional coordinates.
func (u UnitCell) CartToFrac(x, y, z float64) (fx, fy, fz float64) {
	d := u.deorth
	fx = d[0][0]*x + d[0][1]*y + d[0][2]*z
	fy = d[1][1]*y + d[1][2]*z
	fz = d[2][2] * z
	return
}
