// Package structure implements the atomic model: a flat column-array arena of
// atom records, view objects over index slices (residues, segments), residue
// chi operations, and PDB I/O.
package structure

import (
	"sort"

	"github.com/structbio/mcfit/internal/rotamer"
)

// Structure owns the dense column arrays of the atom records. Hierarchy
// levels are views holding a reference to this arena plus an index slice.
// All columns have identical length.
type Structure struct {
	Record  []string // "ATOM" or "HETATM"
	Name    []string // atom name, e.g. "CA"
	AltLoc  []string
	ResName []string
	Chain   []string
	ResSeq  []int
	ICode   []string
	Coor    []Vec3
	Q       []float64 // occupancy
	B       []float64 // temperature factor
	Element []string
	Active  []bool

	residues []*Residue
	segments []*Segment
}

// NAtoms returns the number of atom records.
func (s *Structure) NAtoms() int { return len(s.Name) }

// AtomCoor returns the coordinate of record i.
func (s *Structure) AtomCoor(i int) Vec3 { return s.Coor[i] }

// AtomElement returns the element of record i.
func (s *Structure) AtomElement(i int) string { return s.Element[i] }

// AtomB returns the temperature factor of record i.
func (s *Structure) AtomB(i int) float64 { return s.B[i] }

// AtomQ returns the occupancy of record i.
func (s *Structure) AtomQ(i int) float64 { return s.Q[i] }

// AtomActive reports whether record i participates in clash and density
// operations.
func (s *Structure) AtomActive(i int) bool { return s.Active[i] }

// newEmpty allocates a structure with capacity n.
func newEmpty(n int) *Structure {
	return &Structure{
		Record:  make([]string, 0, n),
		Name:    make([]string, 0, n),
		AltLoc:  make([]string, 0, n),
		ResName: make([]string, 0, n),
		Chain:   make([]string, 0, n),
		ResSeq:  make([]int, 0, n),
		ICode:   make([]string, 0, n),
		Coor:    make([]Vec3, 0, n),
		Q:       make([]float64, 0, n),
		B:       make([]float64, 0, n),
		Element: make([]string, 0, n),
		Active:  make([]bool, 0, n),
	}
}

// appendAtom copies record i of src onto the end of s.
func (s *Structure) appendAtom(src *Structure, i int) {
	s.Record = append(s.Record, src.Record[i])
	s.Name = append(s.Name, src.Name[i])
	s.AltLoc = append(s.AltLoc, src.AltLoc[i])
	s.ResName = append(s.ResName, src.ResName[i])
	s.Chain = append(s.Chain, src.Chain[i])
	s.ResSeq = append(s.ResSeq, src.ResSeq[i])
	s.ICode = append(s.ICode, src.ICode[i])
	s.Coor = append(s.Coor, src.Coor[i])
	s.Q = append(s.Q, src.Q[i])
	s.B = append(s.B, src.B[i])
	s.Element = append(s.Element, src.Element[i])
	s.Active = append(s.Active, src.Active[i])
}

// Copy returns a deep copy of the arena. Views are rebuilt lazily on the
// copy; the original's views are untouched.
func (s *Structure) Copy() *Structure {
	c := newEmpty(s.NAtoms())
	for i := 0; i < s.NAtoms(); i++ {
		c.appendAtom(s, i)
	}
	return c
}

// Extract returns a new structure holding the records whose index satisfies
// keep. Atom order is preserved.
func (s *Structure) Extract(keep func(i int) bool) *Structure {
	e := newEmpty(s.NAtoms())
	for i := 0; i < s.NAtoms(); i++ {
		if keep(i) {
			e.appendAtom(s, i)
		}
	}
	return e
}

// ExtractNotResidue returns the structure without the atoms of the residue
// identified by (chain, resi, icode) — the receptor environment.
func (s *Structure) ExtractNotResidue(chain string, resi int, icode string) *Structure {
	return s.Extract(func(i int) bool {
		return s.Chain[i] != chain || s.ResSeq[i] != resi || s.ICode[i] != icode
	})
}

// Combine concatenates two structures into a new one, column by column.
func (s *Structure) Combine(other *Structure) *Structure {
	c := newEmpty(s.NAtoms() + other.NAtoms())
	for i := 0; i < s.NAtoms(); i++ {
		c.appendAtom(s, i)
	}
	for i := 0; i < other.NAtoms(); i++ {
		c.appendAtom(other, i)
	}
	return c
}

// Reorder returns a new structure with records sorted into hierarchy order:
// chain id, residue number and insertion code ascending, then atom group
// (altloc) in first-appearance order. The sort is stable so atom order within
// a group is preserved.
func (s *Structure) Reorder() *Structure {
	type key struct {
		chain  string
		resi   int
		icode  string
		altloc string
	}
	firstSeen := make(map[key]int)
	order := make([]int, s.NAtoms())
	for i := range order {
		order[i] = i
	}
	rank := func(i int) int {
		k := key{s.Chain[i], s.ResSeq[i], s.ICode[i], s.AltLoc[i]}
		if r, ok := firstSeen[k]; ok {
			return r
		}
		r := len(firstSeen)
		firstSeen[k] = r
		return r
	}
	// Assign group ranks in scan order, then stable-sort by
	// (chain, resi, group rank).
	ranks := make([]int, s.NAtoms())
	for i := 0; i < s.NAtoms(); i++ {
		ranks[i] = rank(i)
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if s.Chain[ia] != s.Chain[ib] {
			return s.Chain[ia] < s.Chain[ib]
		}
		if s.ResSeq[ia] != s.ResSeq[ib] {
			return s.ResSeq[ia] < s.ResSeq[ib]
		}
		if s.ICode[ia] != s.ICode[ib] {
			return s.ICode[ia] < s.ICode[ib]
		}
		return ranks[ia] < ranks[ib]
	})
	r := newEmpty(s.NAtoms())
	for _, i := range order {
		r.appendAtom(s, i)
	}
	return r
}

// SetAltLoc assigns the altloc label to every record.
func (s *Structure) SetAltLoc(label string) {
	for i := range s.AltLoc {
		s.AltLoc[i] = label
	}
}

// SetQ assigns the occupancy to every record.
func (s *Structure) SetQ(q float64) {
	for i := range s.Q {
		s.Q[i] = q
	}
}

// SetActive assigns the active flag to every record.
func (s *Structure) SetActive(active bool) {
	for i := range s.Active {
		s.Active[i] = active
	}
}

// CoorCopy returns a copy of the coordinate column.
func (s *Structure) CoorCopy() []Vec3 {
	c := make([]Vec3, len(s.Coor))
	copy(c, s.Coor)
	return c
}

// SetCoor overwrites the coordinate column. The length must match the atom
// count; coordinate array length never changes during fitting.
func (s *Structure) SetCoor(coor []Vec3) {
	if len(coor) != len(s.Coor) {
		panic("structure: coordinate array length mismatch")
	}
	copy(s.Coor, coor)
}

// Residues returns the residue views, building them on first call. Residues
// are grouped by (chain, resi, icode) in first-appearance order; records with
// differing altloc at one site belong to the same residue view.
func (s *Structure) Residues() []*Residue {
	if s.residues == nil {
		s.buildResidues()
	}
	return s.residues
}

func (s *Structure) buildResidues() {
	type key struct {
		chain string
		resi  int
		icode string
	}
	index := make(map[key]*Residue)
	s.residues = []*Residue{}
	for i := 0; i < s.NAtoms(); i++ {
		k := key{s.Chain[i], s.ResSeq[i], s.ICode[i]}
		r, ok := index[k]
		if !ok {
			r = &Residue{
				s:       s,
				Chain:   s.Chain[i],
				ResSeq:  s.ResSeq[i],
				ICode:   s.ICode[i],
				ResName: s.ResName[i],
			}
			index[k] = r
			s.residues = append(s.residues, r)
		}
		r.sel = append(r.sel, i)
	}
	for _, r := range s.residues {
		r.classify()
	}
}

// FindResidue returns the residue view with the given id, or nil.
func (s *Structure) FindResidue(chain string, resi int, icode string) *Residue {
	for _, r := range s.Residues() {
		if r.Chain == chain && r.ResSeq == resi && r.ICode == icode {
			return r
		}
	}
	return nil
}

// FindLigand locates the first residue with the given residue name that is
// tagged as a ligand and reports its chain and residue number.
func (s *Structure) FindLigand(resn string) (chain string, resi int, ok bool) {
	for _, r := range s.Residues() {
		if r.ResName == resn && r.Kind == KindLigand {
			return r.Chain, r.ResSeq, true
		}
	}
	return "", 0, false
}

// peptideBondMax is the C-N distance below which consecutive residues are
// considered covalently connected.
const peptideBondMax = 1.5

// Segments returns maximal runs of peptide-connected amino-acid residues,
// building them on first call.
func (s *Structure) Segments() []*Segment {
	if s.segments == nil {
		s.buildSegments()
	}
	return s.segments
}

func (s *Structure) buildSegments() {
	s.segments = []*Segment{}
	var run []*Residue
	flush := func() {
		if len(run) > 0 {
			s.segments = append(s.segments, &Segment{s: s, Residues: run})
		}
		run = nil
	}
	for _, r := range s.Residues() {
		if r.Kind != KindRotamerResidue && r.Kind != KindAminoAcidResidue {
			flush()
			continue
		}
		if len(run) > 0 {
			prev := run[len(run)-1]
			ci := prev.GlobalIndex("C")
			ni := r.GlobalIndex("N")
			if prev.Chain != r.Chain || ci < 0 || ni < 0 ||
				s.Coor[ci].Sub(s.Coor[ni]).Norm() >= peptideBondMax {
				flush()
			}
		}
		run = append(run, r)
	}
	flush()
}

// SegmentOf returns the segment containing the residue and the residue's
// position within it, or (nil, -1).
func (s *Structure) SegmentOf(r *Residue) (*Segment, int) {
	for _, seg := range s.Segments() {
		for i, sr := range seg.Residues {
			if sr == r {
				return seg, i
			}
		}
	}
	return nil, -1
}

// ResidueKind tags follow the source hierarchy: a rotamer residue has a
// library entry, an amino-acid residue is a standard residue without free
// chis, a ligand is a HETATM group, anything else is a plain residue.
type ResidueKind int

const (
	KindResidue ResidueKind = iota
	KindRotamerResidue
	KindAminoAcidResidue
	KindLigand
)

func (k ResidueKind) String() string {
	switch k {
	case KindRotamerResidue:
		return "rotamer-residue"
	case KindAminoAcidResidue:
		return "aa-residue"
	case KindLigand:
		return "ligand"
	}
	return "residue"
}

func (r *Residue) classify() {
	if e, ok := rotamer.Lookup(r.ResName); ok {
		r.lib = e
		r.nchi = e.NChi()
		r.Kind = KindRotamerResidue
		return
	}
	if rotamer.AminoAcids3[r.ResName] {
		r.Kind = KindAminoAcidResidue
		return
	}
	for _, i := range r.sel {
		if r.s.Record[i] == "HETATM" {
			r.Kind = KindLigand
			return
		}
	}
	r.Kind = KindResidue
}
