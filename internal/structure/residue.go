package structure

import (
	"github.com/structbio/mcfit/internal/elements"
	"github.com/structbio/mcfit/internal/rotamer"
	"github.com/structbio/mcfit/pkg/errors"
)

// Residue is a view over one residue's records in the owning arena. For
// rotamer residues it additionally carries the library entry, the chi count,
// and the internal clash mask.
type Residue struct {
	s   *Structure
	sel []int // global record indices, arena order

	Kind    ResidueKind
	Chain   string
	ResSeq  int
	ICode   string
	ResName string

	lib  *rotamer.Entry
	nchi int

	// clashMask is symmetric over local atom indices; true marks a pair
	// subject to the internal clash test (both active, not bonded through
	// 1-4).
	clashMask [][]bool
}

// NAtoms returns the number of atoms in the residue view.
func (r *Residue) NAtoms() int { return len(r.sel) }

// NChi returns the number of free side-chain dihedrals.
func (r *Residue) NChi() int { return r.nchi }

// Library returns the rotamer-library entry, or nil for non-rotamer kinds.
func (r *Residue) Library() *rotamer.Entry { return r.lib }

// Structure returns the owning arena.
func (r *Residue) Structure() *Structure { return r.s }

// AtomIndex returns the local index of the named atom, or -1. When multiple
// altloc records share the name the first wins.
func (r *Residue) AtomIndex(name string) int {
	for li, gi := range r.sel {
		if r.s.Name[gi] == name {
			return li
		}
	}
	return -1
}

// GlobalIndex returns the arena index of the named atom, or -1.
func (r *Residue) GlobalIndex(name string) int {
	li := r.AtomIndex(name)
	if li < 0 {
		return -1
	}
	return r.sel[li]
}

// Global returns the arena index for local index li.
func (r *Residue) Global(li int) int { return r.sel[li] }

// AtomCoor returns the coordinate of local atom li.
func (r *Residue) AtomCoor(li int) Vec3 { return r.s.Coor[r.sel[li]] }

// AtomName returns the name of local atom li.
func (r *Residue) AtomName(li int) string { return r.s.Name[r.sel[li]] }

// AtomElement returns the element of local atom li.
func (r *Residue) AtomElement(li int) string { return r.s.Element[r.sel[li]] }

// AtomB returns the temperature factor of local atom li.
func (r *Residue) AtomB(li int) float64 { return r.s.B[r.sel[li]] }

// AtomQ returns the occupancy of local atom li.
func (r *Residue) AtomQ(li int) float64 { return r.s.Q[r.sel[li]] }

// AtomActive reports whether local atom li participates in clash and density
// operations.
func (r *Residue) AtomActive(li int) bool { return r.s.Active[r.sel[li]] }

// Coor returns a copy of the residue's coordinates in local order.
func (r *Residue) Coor() []Vec3 {
	c := make([]Vec3, len(r.sel))
	for li, gi := range r.sel {
		c[li] = r.s.Coor[gi]
	}
	return c
}

// SetCoor overwrites the residue's coordinates from a local-order array.
func (r *Residue) SetCoor(coor []Vec3) {
	if len(coor) != len(r.sel) {
		panic("structure: residue coordinate length mismatch")
	}
	for li, gi := range r.sel {
		r.s.Coor[gi] = coor[li]
	}
}

// SetActive sets the active flag on every atom of the residue.
func (r *Residue) SetActive(active bool) {
	for _, gi := range r.sel {
		r.s.Active[gi] = active
	}
}

// SetActiveByName sets the active flag on the named atoms.
func (r *Residue) SetActiveByName(names []string, active bool) {
	for _, name := range names {
		if li := r.AtomIndex(name); li >= 0 {
			r.s.Active[r.sel[li]] = active
		}
	}
}

// SetQ sets the occupancy of every atom of the residue.
func (r *Residue) SetQ(q float64) {
	for _, gi := range r.sel {
		r.s.Q[gi] = q
	}
}

// MissingAtoms lists library atoms absent from the view. A complete residue
// returns an empty slice.
func (r *Residue) MissingAtoms() []string {
	if r.lib == nil {
		return nil
	}
	var missing []string
	for _, name := range r.lib.Atoms {
		if r.AtomIndex(name) < 0 {
			missing = append(missing, name)
		}
	}
	return missing
}

// CheckComplete returns a StructureIncomplete error when a library atom is
// missing, identifying the residue.
func (r *Residue) CheckComplete() error {
	if missing := r.MissingAtoms(); len(missing) > 0 {
		return errors.New(errors.KindStructureIncomplete,
			"residue %s %d%s is missing atoms %v; build the full sidechain before fitting",
			r.Chain, r.ResSeq, r.ICode, missing)
	}
	return nil
}

// chiAtoms resolves the four defining atoms of chi i (1-based) to global
// indices.
func (r *Residue) chiAtoms(i int) (a1, a2, a3, a4 int) {
	def := r.lib.Chis[i-1]
	return r.GlobalIndex(def[0]), r.GlobalIndex(def[1]),
		r.GlobalIndex(def[2]), r.GlobalIndex(def[3])
}

// GetChi returns the chi i dihedral in degrees, i in [1, NChi()].
func (r *Residue) GetChi(i int) float64 {
	a1, a2, a3, a4 := r.chiAtoms(i)
	return Dihedral(r.s.Coor[a1], r.s.Coor[a2], r.s.Coor[a3], r.s.Coor[a4])
}

// SetChi rotates the chi-rotate atom set of chi i about the bond between
// defining atoms 2 and 3 so that the dihedral equals angleDeg. Atoms outside
// the rotate set keep their coordinates.
func (r *Residue) SetChi(i int, angleDeg float64) {
	r.RotateChi(i, angleDeg-r.GetChi(i))
}

// RotateChi rotates chi i by deltaDeg relative to its current value.
//
// The rotation axis points from defining atom 2 to atom 3 so that a positive
// delta increases the dihedral read back by GetChi.
func (r *Residue) RotateChi(i int, deltaDeg float64) {
	_, a2, a3, _ := r.chiAtoms(i)
	origin := r.s.Coor[a2]
	axis := r.s.Coor[a3].Sub(r.s.Coor[a2]).Normalize()
	for _, name := range r.lib.Rotate[i-1] {
		gi := r.GlobalIndex(name)
		if gi < 0 {
			continue
		}
		r.s.Coor[gi] = RotateAbout(r.s.Coor[gi], origin, axis, deltaDeg)
	}
}

// UpdateClashMask rebuilds the symmetric internal clash mask from the current
// active set and the library bond graph, excluding self pairs and bonded
// neighbors up through 1-4. Idempotent for a fixed active set.
func (r *Residue) UpdateClashMask() {
	n := r.NAtoms()
	if r.clashMask == nil {
		r.clashMask = make([][]bool, n)
		for i := range r.clashMask {
			r.clashMask[i] = make([]bool, n)
		}
	}
	dist := r.bondDistances()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			r.clashMask[i][j] = i != j &&
				r.AtomActive(i) && r.AtomActive(j) &&
				dist[i][j] > 3
		}
	}
}

// ClashMask returns the current internal clash mask (local indices). Callers
// must not mutate it.
func (r *Residue) ClashMask() [][]bool { return r.clashMask }

// bondDistances computes all-pairs bond-graph distances over local atoms,
// capped at 4 steps (only distances up to 1-4 matter for the mask).
func (r *Residue) bondDistances() [][]int {
	n := r.NAtoms()
	const far = 1 << 20
	dist := make([][]int, n)
	adj := make([][]int, n)
	if r.lib != nil {
		for _, b := range r.lib.Bonds {
			i, j := r.AtomIndex(b[0]), r.AtomIndex(b[1])
			if i < 0 || j < 0 {
				continue
			}
			adj[i] = append(adj[i], j)
			adj[j] = append(adj[j], i)
		}
	}
	for src := 0; src < n; src++ {
		d := make([]int, n)
		for i := range d {
			d[i] = far
		}
		d[src] = 0
		queue := []int{src}
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			if d[u] >= 4 {
				continue
			}
			for _, v := range adj[u] {
				if d[v] == far {
					d[v] = d[u] + 1
					queue = append(queue, v)
				}
			}
		}
		dist[src] = d
	}
	return dist
}

// Clashes counts internal atom pairs (a, b) with both atoms active, the clash
// mask set, and center distance below scale times the sum of their
// van-der-Waals radii.
func (r *Residue) Clashes(scale float64) int {
	if r.clashMask == nil {
		r.UpdateClashMask()
	}
	n := r.NAtoms()
	count := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if !r.clashMask[i][j] {
				continue
			}
			cutoff := scale * (elements.VdWRadius(r.AtomElement(i)) +
				elements.VdWRadius(r.AtomElement(j)))
			if r.AtomCoor(i).Sub(r.AtomCoor(j)).Norm() < cutoff {
				count++
			}
		}
	}
	return count
}

// ExtractCopy materialises the view as a standalone structure.
func (r *Residue) ExtractCopy() *Structure {
	e := newEmpty(len(r.sel))
	for _, gi := range r.sel {
		e.appendAtom(r.s, gi)
	}
	return e
}
