// Package fitter implements the rotameric side-chain fitting engine: the
// receptor clash detector, the chi-window rotator, and the per-residue
// orchestration of sampling, density rendering, and conformer selection.
package fitter

import (
	"math"

	"github.com/structbio/mcfit/internal/elements"
	"github.com/structbio/mcfit/internal/structure"
)

// ClashDetector checks a residue against its receptor environment (the rest
// of the structure) using van-der-Waals radii scaled by a configurable
// factor. Receptor atoms are bucketed into a cubic cell grid whose edge is
// the worst-case clash cutoff, so each query inspects only the 27
// surrounding cells without ever missing a contact.
type ClashDetector struct {
	residue  *structure.Residue
	receptor *structure.Structure

	scale    float64
	cellSize float64
	cells    map[[3]int][]int // receptor atom indices per cell

	recRadius []float64

	// exclude marks (residue local index, receptor index) pairs that are
	// bonded across the residue boundary, e.g. the peptide N-C bonds.
	exclude map[[2]int]bool
}

// ExcludePair identifies a bonded pair spanning the residue boundary.
type ExcludePair struct {
	ResidueAtom  int // local index within the residue
	ReceptorAtom int // index within the receptor structure
}

// NewClashDetector buckets the receptor atoms and registers the excluded
// bonded pairs.
func NewClashDetector(residue *structure.Residue, receptor *structure.Structure,
	exclude []ExcludePair, scale float64) *ClashDetector {

	cd := &ClashDetector{
		residue:   residue,
		receptor:  receptor,
		scale:     scale,
		cells:     make(map[[3]int][]int),
		recRadius: make([]float64, receptor.NAtoms()),
		exclude:   make(map[[2]int]bool, len(exclude)),
	}
	maxReceptorRadius := 0.0
	for i := 0; i < receptor.NAtoms(); i++ {
		r := elements.VdWRadius(receptor.Element[i])
		cd.recRadius[i] = r
		if r > maxReceptorRadius {
			maxReceptorRadius = r
		}
	}
	maxResidueRadius := 0.0
	for li := 0; li < residue.NAtoms(); li++ {
		if r := elements.VdWRadius(residue.AtomElement(li)); r > maxResidueRadius {
			maxResidueRadius = r
		}
	}
	// The cell edge must cover the worst-case cutoff so the 27-cell query in
	// Detect cannot miss a clash.
	cd.cellSize = scale * (maxReceptorRadius + maxResidueRadius)
	if cd.cellSize <= 0 {
		cd.cellSize = 1
	}
	for i := 0; i < receptor.NAtoms(); i++ {
		key := cd.cellOf(receptor.Coor[i])
		cd.cells[key] = append(cd.cells[key], i)
	}
	for _, p := range exclude {
		cd.exclude[[2]int{p.ResidueAtom, p.ReceptorAtom}] = true
	}
	return cd
}

func (cd *ClashDetector) cellOf(p structure.Vec3) [3]int {
	return [3]int{
		int(math.Floor(p.X / cd.cellSize)),
		int(math.Floor(p.Y / cd.cellSize)),
		int(math.Floor(p.Z / cd.cellSize)),
	}
}

// Detect reports whether any unexcluded receptor atom lies within
// scale·(r_receptor + r_residue) of an active residue atom.
func (cd *ClashDetector) Detect() bool {
	for li := 0; li < cd.residue.NAtoms(); li++ {
		if !cd.residue.AtomActive(li) {
			continue
		}
		p := cd.residue.AtomCoor(li)
		rRes := elements.VdWRadius(cd.residue.AtomElement(li))
		c := cd.cellOf(p)
		for dz := -1; dz <= 1; dz++ {
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					key := [3]int{c[0] + dx, c[1] + dy, c[2] + dz}
					for _, ri := range cd.cells[key] {
						if cd.exclude[[2]int{li, ri}] {
							continue
						}
						cutoff := cd.scale * (cd.recRadius[ri] + rRes)
						if p.Sub(cd.receptor.Coor[ri]).Norm() < cutoff {
							return true
						}
					}
				}
			}
		}
	}
	return false
}
