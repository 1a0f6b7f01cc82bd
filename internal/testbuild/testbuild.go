// Package testbuild constructs small synthetic structures with exact internal
// geometry for tests: residues are grown atom by atom from ideal bond lengths
// and angles, with the side-chain chi dihedrals set to requested values.
package testbuild

import (
	"fmt"

	"github.com/structbio/mcfit/internal/structure"
)

// Atom is one record to append to a test structure.
type Atom struct {
	Name    string
	Element string
	Coor    structure.Vec3
}

// AppendAtom adds a single record to the arena, defaulting occupancy to 1 and
// the B-factor to 15.
func AppendAtom(s *structure.Structure, record, name, element, resn, chain string,
	resi int, coor structure.Vec3) {
	s.Record = append(s.Record, record)
	s.Name = append(s.Name, name)
	s.AltLoc = append(s.AltLoc, "")
	s.ResName = append(s.ResName, resn)
	s.Chain = append(s.Chain, chain)
	s.ResSeq = append(s.ResSeq, resi)
	s.ICode = append(s.ICode, "")
	s.Coor = append(s.Coor, coor)
	s.Q = append(s.Q, 1)
	s.B = append(s.B, 15)
	s.Element = append(s.Element, element)
	s.Active = append(s.Active, true)
}

// Residue builds a complete residue of the given type at origin with the
// requested chi angles. Supported types: SER, LEU, LYS.
func Residue(resn, chain string, resi int, origin structure.Vec3, chis []float64) *structure.Structure {
	s := &structure.Structure{}
	BuildInto(s, resn, chain, resi, origin, chis)
	return s
}

// BuildInto appends a residue's atoms to an existing arena, so multi-residue
// test structures can be assembled.
func BuildInto(s *structure.Structure, resn, chain string, resi int,
	origin structure.Vec3, chis []float64) {

	n := origin
	ca := n.Add(structure.Vec3{X: 1.458})
	// Seed the frame with an off-axis dummy so the backbone is bent.
	dummy := n.Add(structure.Vec3{Y: 1})
	c := structure.PlaceAtom(dummy, n, ca, 1.523, 111.0, 57.0)
	o := structure.PlaceAtom(n, ca, c, 1.231, 120.5, -47.0)
	cb := structure.PlaceAtom(c, n, ca, 1.530, 110.5, 122.5)

	add := func(name, element string, coor structure.Vec3) {
		AppendAtom(s, "ATOM", name, element, resn, chain, resi, coor)
	}
	add("N", "N", n)
	add("CA", "C", ca)
	add("C", "C", c)
	add("O", "O", o)
	add("CB", "C", cb)

	switch resn {
	case "SER":
		og := structure.PlaceAtom(n, ca, cb, 1.417, 110.8, chis[0])
		add("OG", "O", og)
	case "LEU":
		cg := structure.PlaceAtom(n, ca, cb, 1.530, 116.3, chis[0])
		cd1 := structure.PlaceAtom(ca, cb, cg, 1.521, 110.5, chis[1])
		cd2 := structure.PlaceAtom(ca, cb, cg, 1.521, 110.5, chis[1]+122.0)
		add("CG", "C", cg)
		add("CD1", "C", cd1)
		add("CD2", "C", cd2)
	case "LYS":
		cg := structure.PlaceAtom(n, ca, cb, 1.520, 114.1, chis[0])
		cd := structure.PlaceAtom(ca, cb, cg, 1.520, 111.3, chis[1])
		ce := structure.PlaceAtom(cb, cg, cd, 1.520, 111.3, chis[2])
		nz := structure.PlaceAtom(cg, cd, ce, 1.489, 111.9, chis[3])
		add("CG", "C", cg)
		add("CD", "C", cd)
		add("CE", "C", ce)
		add("NZ", "N", nz)
	default:
		panic(fmt.Sprintf("testbuild: unsupported residue type %q", resn))
	}
}
