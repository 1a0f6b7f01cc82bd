package structure

// Segment is a view over a run of peptide-connected residues. It allows
// backbone rotations that keep the chain covalently intact.
type Segment struct {
	s        *Structure
	Residues []*Residue
}

// Length returns the number of residues in the segment.
func (g *Segment) Length() int { return len(g.Residues) }

// Find returns the position of the residue with the given id, or -1.
func (g *Segment) Find(resi int, icode string) int {
	for i, r := range g.Residues {
		if r.ResSeq == resi && r.ICode == icode {
			return i
		}
	}
	return -1
}

// RotatePsi rotates everything C-terminal of residue index about the residue's
// CA-C bond by angle degrees: the residue's own O (and OXT when present) plus
// all atoms of the following residues in the segment.
func (g *Segment) RotatePsi(index int, angleDeg float64) {
	residue := g.Residues[index]
	ca := residue.GlobalIndex("CA")
	c := residue.GlobalIndex("C")
	if ca < 0 || c < 0 {
		return
	}
	var moving []int
	for _, name := range []string{"O", "OXT"} {
		if gi := residue.GlobalIndex(name); gi >= 0 {
			moving = append(moving, gi)
		}
	}
	for _, r := range g.Residues[index+1:] {
		moving = append(moving, r.sel...)
	}

	origin := g.s.Coor[ca]
	axis := g.s.Coor[c].Sub(g.s.Coor[ca]).Normalize()
	for _, gi := range moving {
		g.s.Coor[gi] = RotateAbout(g.s.Coor[gi], origin, axis, angleDeg)
	}
}
