package fitter

import "github.com/structbio/mcfit/internal/structure"

// ChiRotator perturbs one chi dihedral around a captured starting pose. Each
// Rotate call is absolute with respect to the pose at construction, so a
// sampling window can be swept without accumulating drift.
type ChiRotator struct {
	residue *structure.Residue
	chi     int

	origin structure.Vec3
	axis   structure.Vec3

	moving []int // global indices of the chi-rotate set
	base   []structure.Vec3
}

// NewChiRotator captures the rotation axis and the base coordinates of the
// atoms moved by chi index chi (1-based).
func NewChiRotator(residue *structure.Residue, chi int) *ChiRotator {
	lib := residue.Library()
	def := lib.Chis[chi-1]
	a2 := residue.GlobalIndex(def[1])
	a3 := residue.GlobalIndex(def[2])
	s := residue.Structure()

	cr := &ChiRotator{
		residue: residue,
		chi:     chi,
		origin:  s.Coor[a2],
		axis:    s.Coor[a3].Sub(s.Coor[a2]).Normalize(),
	}
	for _, name := range lib.Rotate[chi-1] {
		gi := residue.GlobalIndex(name)
		if gi < 0 {
			continue
		}
		cr.moving = append(cr.moving, gi)
		cr.base = append(cr.base, s.Coor[gi])
	}
	return cr
}

// Rotate sets the moving atoms to the base pose rotated by angleDeg about the
// chi axis. A positive angle increases the dihedral.
func (cr *ChiRotator) Rotate(angleDeg float64) {
	s := cr.residue.Structure()
	for k, gi := range cr.moving {
		s.Coor[gi] = structure.RotateAbout(cr.base[k], cr.origin, cr.axis, angleDeg)
	}
}
