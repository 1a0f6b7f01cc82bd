// Package rotamer holds the canonical side-chain rotamer library: per residue
// type the chi dihedral definitions, the atom sets moved by each chi, the
// side-chain bond topology, and the commonly observed chi-angle tuples.
//
// The table is process-wide constant data, initialised at package load and
// treated as immutable. Chi tuples follow the penultimate rotamer library:
// Lovell, S. C., et al. (2000). "The penultimate rotamer library."
// Proteins 40.3: 389-408.
package rotamer

// ChiDef names the four atoms defining one chi dihedral, in order.
type ChiDef [4]string

// Entry describes the rotameric properties of one residue type.
type Entry struct {
	// Name is the three-letter residue code.
	Name string

	// Atoms lists the heavy atoms of a complete residue in PDB order,
	// backbone first.
	Atoms []string

	// Chis holds the chi definitions, chi 1 first.
	Chis []ChiDef

	// Rotate[i-1] lists every atom displaced when chi i rotates, i.e. all
	// atoms distal to the chi bond. Rotate sets are nested: Rotate[i]
	// is a subset of Rotate[i-1].
	Rotate [][]string

	// Rotamers holds the canonical chi tuples in degrees; each tuple has
	// len(Chis) entries.
	Rotamers [][]float64

	// Bonds lists the covalent bonds between named atoms, used to build
	// the internal clash mask (1-2, 1-3, 1-4 exclusion).
	Bonds [][2]string
}

// NChi returns the number of free side-chain dihedrals.
func (e *Entry) NChi() int { return len(e.Chis) }

// backboneBonds are shared by every amino-acid entry.
var backboneBonds = [][2]string{
	{"N", "CA"}, {"CA", "C"}, {"C", "O"}, {"CA", "CB"},
}

func withBackbone(sidechain [][2]string) [][2]string {
	bonds := make([][2]string, 0, len(backboneBonds)+len(sidechain))
	bonds = append(bonds, backboneBonds...)
	bonds = append(bonds, sidechain...)
	return bonds
}

var table = map[string]*Entry{
	"SER": {
		Name:  "SER",
		Atoms: []string{"N", "CA", "C", "O", "CB", "OG"},
		Chis:  []ChiDef{{"N", "CA", "CB", "OG"}},
		Rotate: [][]string{
			{"OG"},
		},
		Rotamers: [][]float64{{62}, {-65}, {178}},
		Bonds:    withBackbone([][2]string{{"CB", "OG"}}),
	},
	"CYS": {
		Name:  "CYS",
		Atoms: []string{"N", "CA", "C", "O", "CB", "SG"},
		Chis:  []ChiDef{{"N", "CA", "CB", "SG"}},
		Rotate: [][]string{
			{"SG"},
		},
		Rotamers: [][]float64{{-65}, {-177}, {63}},
		Bonds:    withBackbone([][2]string{{"CB", "SG"}}),
	},
	"THR": {
		Name:  "THR",
		Atoms: []string{"N", "CA", "C", "O", "CB", "OG1", "CG2"},
		Chis:  []ChiDef{{"N", "CA", "CB", "OG1"}},
		Rotate: [][]string{
			{"OG1", "CG2"},
		},
		Rotamers: [][]float64{{62}, {-60}, {-175}},
		Bonds:    withBackbone([][2]string{{"CB", "OG1"}, {"CB", "CG2"}}),
	},
	"VAL": {
		Name:  "VAL",
		Atoms: []string{"N", "CA", "C", "O", "CB", "CG1", "CG2"},
		Chis:  []ChiDef{{"N", "CA", "CB", "CG1"}},
		Rotate: [][]string{
			{"CG1", "CG2"},
		},
		Rotamers: [][]float64{{175}, {-60}, {63}},
		Bonds:    withBackbone([][2]string{{"CB", "CG1"}, {"CB", "CG2"}}),
	},
	"LEU": {
		Name:  "LEU",
		Atoms: []string{"N", "CA", "C", "O", "CB", "CG", "CD1", "CD2"},
		Chis: []ChiDef{
			{"N", "CA", "CB", "CG"},
			{"CA", "CB", "CG", "CD1"},
		},
		Rotate: [][]string{
			{"CG", "CD1", "CD2"},
			{"CD1", "CD2"},
		},
		Rotamers: [][]float64{
			{-65, 175}, {177, 65}, {-172, 145}, {-85, 65},
		},
		Bonds: withBackbone([][2]string{
			{"CB", "CG"}, {"CG", "CD1"}, {"CG", "CD2"},
		}),
	},
	"ILE": {
		Name:  "ILE",
		Atoms: []string{"N", "CA", "C", "O", "CB", "CG1", "CG2", "CD1"},
		Chis: []ChiDef{
			{"N", "CA", "CB", "CG1"},
			{"CA", "CB", "CG1", "CD1"},
		},
		Rotate: [][]string{
			{"CG1", "CG2", "CD1"},
			{"CD1"},
		},
		Rotamers: [][]float64{
			{-65, 170}, {-57, -60}, {62, 170}, {-177, 166},
		},
		Bonds: withBackbone([][2]string{
			{"CB", "CG1"}, {"CB", "CG2"}, {"CG1", "CD1"},
		}),
	},
	"ASP": {
		Name:  "ASP",
		Atoms: []string{"N", "CA", "C", "O", "CB", "CG", "OD1", "OD2"},
		Chis: []ChiDef{
			{"N", "CA", "CB", "CG"},
			{"CA", "CB", "CG", "OD1"},
		},
		Rotate: [][]string{
			{"CG", "OD1", "OD2"},
			{"OD1", "OD2"},
		},
		Rotamers: [][]float64{
			{-70, -15}, {-177, 0}, {62, -10},
		},
		Bonds: withBackbone([][2]string{
			{"CB", "CG"}, {"CG", "OD1"}, {"CG", "OD2"},
		}),
	},
	"ASN": {
		Name:  "ASN",
		Atoms: []string{"N", "CA", "C", "O", "CB", "CG", "OD1", "ND2"},
		Chis: []ChiDef{
			{"N", "CA", "CB", "CG"},
			{"CA", "CB", "CG", "OD1"},
		},
		Rotate: [][]string{
			{"CG", "OD1", "ND2"},
			{"OD1", "ND2"},
		},
		Rotamers: [][]float64{
			{62, -10}, {-174, -20}, {-65, -20}, {-65, 120},
		},
		Bonds: withBackbone([][2]string{
			{"CB", "CG"}, {"CG", "OD1"}, {"CG", "ND2"},
		}),
	},
	"GLU": {
		Name:  "GLU",
		Atoms: []string{"N", "CA", "C", "O", "CB", "CG", "CD", "OE1", "OE2"},
		Chis: []ChiDef{
			{"N", "CA", "CB", "CG"},
			{"CA", "CB", "CG", "CD"},
			{"CB", "CG", "CD", "OE1"},
		},
		Rotate: [][]string{
			{"CG", "CD", "OE1", "OE2"},
			{"CD", "OE1", "OE2"},
			{"OE1", "OE2"},
		},
		Rotamers: [][]float64{
			{-67, 180, -10}, {-177, 177, 0}, {62, 180, -20}, {-65, -65, -40},
		},
		Bonds: withBackbone([][2]string{
			{"CB", "CG"}, {"CG", "CD"}, {"CD", "OE1"}, {"CD", "OE2"},
		}),
	},
	"GLN": {
		Name:  "GLN",
		Atoms: []string{"N", "CA", "C", "O", "CB", "CG", "CD", "OE1", "NE2"},
		Chis: []ChiDef{
			{"N", "CA", "CB", "CG"},
			{"CA", "CB", "CG", "CD"},
			{"CB", "CG", "CD", "OE1"},
		},
		Rotate: [][]string{
			{"CG", "CD", "OE1", "NE2"},
			{"CD", "OE1", "NE2"},
			{"OE1", "NE2"},
		},
		Rotamers: [][]float64{
			{-67, 180, -25}, {-177, 177, -25}, {62, 180, 20}, {-65, -65, -40},
		},
		Bonds: withBackbone([][2]string{
			{"CB", "CG"}, {"CG", "CD"}, {"CD", "OE1"}, {"CD", "NE2"},
		}),
	},
	"MET": {
		Name:  "MET",
		Atoms: []string{"N", "CA", "C", "O", "CB", "CG", "SD", "CE"},
		Chis: []ChiDef{
			{"N", "CA", "CB", "CG"},
			{"CA", "CB", "CG", "SD"},
			{"CB", "CG", "SD", "CE"},
		},
		Rotate: [][]string{
			{"CG", "SD", "CE"},
			{"SD", "CE"},
			{"CE"},
		},
		Rotamers: [][]float64{
			{-65, -65, -70}, {-65, 180, 75}, {-177, 180, 180},
			{-65, 180, 180}, {-177, 180, 75},
		},
		Bonds: withBackbone([][2]string{
			{"CB", "CG"}, {"CG", "SD"}, {"SD", "CE"},
		}),
	},
	"LYS": {
		Name:  "LYS",
		Atoms: []string{"N", "CA", "C", "O", "CB", "CG", "CD", "CE", "NZ"},
		Chis: []ChiDef{
			{"N", "CA", "CB", "CG"},
			{"CA", "CB", "CG", "CD"},
			{"CB", "CG", "CD", "CE"},
			{"CG", "CD", "CE", "NZ"},
		},
		Rotate: [][]string{
			{"CG", "CD", "CE", "NZ"},
			{"CD", "CE", "NZ"},
			{"CE", "NZ"},
			{"NZ"},
		},
		Rotamers: [][]float64{
			{-177, 180, 180, 180}, {-65, 180, 180, 180},
			{-65, -68, 180, 180}, {-177, 68, 180, 180},
			{-65, 180, -68, 180}, {-65, 180, 180, 65},
		},
		Bonds: withBackbone([][2]string{
			{"CB", "CG"}, {"CG", "CD"}, {"CD", "CE"}, {"CE", "NZ"},
		}),
	},
	"ARG": {
		Name: "ARG",
		Atoms: []string{
			"N", "CA", "C", "O", "CB", "CG", "CD", "NE", "CZ", "NH1", "NH2",
		},
		Chis: []ChiDef{
			{"N", "CA", "CB", "CG"},
			{"CA", "CB", "CG", "CD"},
			{"CB", "CG", "CD", "NE"},
			{"CG", "CD", "NE", "CZ"},
		},
		Rotate: [][]string{
			{"CG", "CD", "NE", "CZ", "NH1", "NH2"},
			{"CD", "NE", "CZ", "NH1", "NH2"},
			{"NE", "CZ", "NH1", "NH2"},
			{"CZ", "NH1", "NH2"},
		},
		Rotamers: [][]float64{
			{-67, 180, 180, 180}, {-174, 180, 180, 180},
			{-67, -167, 180, 180}, {62, 180, 180, 180},
			{-67, 180, 65, 85}, {-67, 180, -65, -85},
		},
		Bonds: withBackbone([][2]string{
			{"CB", "CG"}, {"CG", "CD"}, {"CD", "NE"}, {"NE", "CZ"},
			{"CZ", "NH1"}, {"CZ", "NH2"},
		}),
	},
	"HIS": {
		Name: "HIS",
		Atoms: []string{
			"N", "CA", "C", "O", "CB", "CG", "ND1", "CD2", "CE1", "NE2",
		},
		Chis: []ChiDef{
			{"N", "CA", "CB", "CG"},
			{"CA", "CB", "CG", "ND1"},
		},
		Rotate: [][]string{
			{"CG", "ND1", "CD2", "CE1", "NE2"},
			{"ND1", "CD2", "CE1", "NE2"},
		},
		Rotamers: [][]float64{
			{62, -75}, {-177, -165}, {-65, -70}, {-65, 165},
		},
		Bonds: withBackbone([][2]string{
			{"CB", "CG"}, {"CG", "ND1"}, {"CG", "CD2"},
			{"ND1", "CE1"}, {"CD2", "NE2"}, {"CE1", "NE2"},
		}),
	},
	"PHE": {
		Name: "PHE",
		Atoms: []string{
			"N", "CA", "C", "O", "CB", "CG", "CD1", "CD2", "CE1", "CE2", "CZ",
		},
		Chis: []ChiDef{
			{"N", "CA", "CB", "CG"},
			{"CA", "CB", "CG", "CD1"},
		},
		Rotate: [][]string{
			{"CG", "CD1", "CD2", "CE1", "CE2", "CZ"},
			{"CD1", "CD2", "CE1", "CE2", "CZ"},
		},
		Rotamers: [][]float64{
			{-65, -85}, {-177, 80}, {62, 90},
		},
		Bonds: withBackbone([][2]string{
			{"CB", "CG"}, {"CG", "CD1"}, {"CG", "CD2"},
			{"CD1", "CE1"}, {"CD2", "CE2"}, {"CE1", "CZ"}, {"CE2", "CZ"},
		}),
	},
	"TYR": {
		Name: "TYR",
		Atoms: []string{
			"N", "CA", "C", "O", "CB", "CG", "CD1", "CD2", "CE1", "CE2", "CZ", "OH",
		},
		Chis: []ChiDef{
			{"N", "CA", "CB", "CG"},
			{"CA", "CB", "CG", "CD1"},
		},
		Rotate: [][]string{
			{"CG", "CD1", "CD2", "CE1", "CE2", "CZ", "OH"},
			{"CD1", "CD2", "CE1", "CE2", "CZ", "OH"},
		},
		Rotamers: [][]float64{
			{-65, -85}, {-177, 80}, {62, 90},
		},
		Bonds: withBackbone([][2]string{
			{"CB", "CG"}, {"CG", "CD1"}, {"CG", "CD2"},
			{"CD1", "CE1"}, {"CD2", "CE2"}, {"CE1", "CZ"}, {"CE2", "CZ"},
			{"CZ", "OH"},
		}),
	},
	"TRP": {
		Name: "TRP",
		Atoms: []string{
			"N", "CA", "C", "O", "CB", "CG", "CD1", "CD2", "NE1", "CE2",
			"CE3", "CZ2", "CZ3", "CH2",
		},
		Chis: []ChiDef{
			{"N", "CA", "CB", "CG"},
			{"CA", "CB", "CG", "CD1"},
		},
		Rotate: [][]string{
			{"CG", "CD1", "CD2", "NE1", "CE2", "CE3", "CZ2", "CZ3", "CH2"},
			{"CD1", "CD2", "NE1", "CE2", "CE3", "CZ2", "CZ3", "CH2"},
		},
		Rotamers: [][]float64{
			{-65, 95}, {-177, -105}, {62, -90}, {-65, -5},
		},
		Bonds: withBackbone([][2]string{
			{"CB", "CG"}, {"CG", "CD1"}, {"CG", "CD2"},
			{"CD1", "NE1"}, {"NE1", "CE2"}, {"CD2", "CE2"}, {"CD2", "CE3"},
			{"CE2", "CZ2"}, {"CE3", "CZ3"}, {"CZ2", "CH2"}, {"CZ3", "CH2"},
		}),
	},
	"PRO": {
		Name:  "PRO",
		Atoms: []string{"N", "CA", "C", "O", "CB", "CG", "CD"},
		Chis:  []ChiDef{{"N", "CA", "CB", "CG"}},
		Rotate: [][]string{
			{"CG"},
		},
		Rotamers: [][]float64{{30}, {-29}},
		Bonds: withBackbone([][2]string{
			{"CB", "CG"}, {"CG", "CD"}, {"CD", "N"},
		}),
	},
}

// Lookup returns the library entry for a residue name, or false when the
// residue type is not rotameric (ALA, GLY, non-amino-acid).
func Lookup(resn string) (*Entry, bool) {
	e, ok := table[resn]
	return e, ok
}

// AminoAcids3 lists the twenty standard residue codes; used for residue-kind
// tagging of entries that carry no free chi (ALA, GLY).
var AminoAcids3 = map[string]bool{
	"ALA": true, "ARG": true, "ASN": true, "ASP": true, "CYS": true,
	"GLN": true, "GLU": true, "GLY": true, "HIS": true, "ILE": true,
	"LEU": true, "LYS": true, "MET": true, "PHE": true, "PRO": true,
	"SER": true, "THR": true, "TRP": true, "TYR": true, "VAL": true,
}
