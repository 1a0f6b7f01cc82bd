package fitter

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/structbio/mcfit/internal/config"
	"github.com/structbio/mcfit/internal/logging"
	"github.com/structbio/mcfit/internal/solver"
	"github.com/structbio/mcfit/internal/structure"
	"github.com/structbio/mcfit/internal/transformer"
	"github.com/structbio/mcfit/internal/xmap"
	"github.com/structbio/mcfit/pkg/errors"
)

// occupancyCutoff prunes candidates whose selected weight falls below it.
const occupancyCutoff = 0.002

// dedupTolerance is the element-wise coordinate tolerance of the
// chi-expansion deduplication test, in Angstrom. The test is order-sensitive;
// candidate append order is preserved so runs are deterministic.
const dedupTolerance = 0.01

// peptideNeighborMax is the N-C distance below which a neighboring residue is
// treated as covalently bonded for clash exclusion.
const peptideNeighborMax = 2.0

// altlocLabels assigns alternate-location labels to conformers in order.
const altlocLabels = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Conformer is one selected side-chain pose with its occupancy weight.
type Conformer struct {
	Coor      []structure.Vec3
	Occupancy float64
}

// baseFit carries the state shared by every fitter flavor: the candidate
// coordinate sets, their weights, the derived density-mode constants, and the
// model grid with its transformer.
type baseFit struct {
	residue *structure.Residue
	xm      *xmap.XMap
	opts    *config.Options
	log     logging.Logger

	coorSet     [][]structure.Vec3
	occupancies []float64

	smin, smax, rmask float64
	simple            bool

	xmModel *xmap.XMap
	trans   *transformer.Transformer
}

func newBaseFit(residue *structure.Residue, xm *xmap.XMap, opts *config.Options,
	log logging.Logger) *baseFit {

	residue.SetQ(1)
	f := &baseFit{
		residue:     residue,
		xm:          xm,
		opts:        opts,
		log:         log,
		coorSet:     [][]structure.Vec3{residue.Coor()},
		occupancies: []float64{1.0},
		smin:        opts.SMin(),
		smax:        opts.SMax(),
		rmask:       opts.RMask(),
		simple:      opts.Simple(),
	}
	// The model grid is allocated once per residue fit and reset between
	// passes; space group symmetry is reduced to P1 for speed.
	f.xmModel = xm.ZerosLike()
	f.xmModel.SetSpaceGroup("P1")
	f.trans = transformer.New(residue, f.xmModel, f.smin, f.smax, f.simple,
		opts.Scattering)
	f.log.Debug("initializing radial density lookup table")
	f.trans.Initialize()
	return f
}

// convert renders every candidate to a row of the model matrix: the union
// footprint mask is built first, then each candidate's density is read out at
// the masked voxels.
func (f *baseFit) convert() (target []float64, models [][]float64, err error) {
	for _, coor := range f.coorSet {
		f.residue.SetCoor(coor)
		f.trans.Mask(f.rmask)
	}
	var maskIdx []int
	for i, v := range f.xmModel.Array {
		if v > 0 {
			maskIdx = append(maskIdx, i)
		}
	}
	f.trans.Reset(true)
	if len(maskIdx) == 0 {
		return nil, nil, errors.New(errors.KindMaskEmpty,
			"union footprint of %d candidates contains no voxels", len(f.coorSet))
	}
	if f.opts.Debug {
		volume := float64(len(maskIdx)) / float64(f.xmModel.NVoxels()) *
			f.xmModel.Cell.Volume()
		f.log.Debug("footprint mask",
			logging.Int("voxels", len(maskIdx)),
			logging.Float64("volume", volume))
	}

	target = make([]float64, len(maskIdx))
	for k, i := range maskIdx {
		target[k] = f.xm.Array[i]
	}
	if f.opts.Debug {
		total := 0.0
		for _, v := range target {
			total += v
		}
		f.log.Debug("density under footprint",
			logging.Float64("total", total),
			logging.Float64("mean", total/float64(len(target))))
	}

	models = make([][]float64, len(f.coorSet))
	for n, coor := range f.coorSet {
		f.residue.SetCoor(coor)
		f.trans.Density()
		row := make([]float64, len(maskIdx))
		for k, i := range maskIdx {
			row[k] = f.xmModel.Array[i]
		}
		models[n] = row
		f.trans.Reset(false)
	}
	return target, models, nil
}

// solveQP runs the convex weight fit and prunes low-weight candidates.
func (f *baseFit) solveQP() error {
	target, models, err := f.convert()
	if err != nil {
		return err
	}
	qp, err := solver.NewQPSolver(target, models)
	if err != nil {
		return err
	}
	if err := qp.Solve(); err != nil {
		return err
	}
	f.updateConformers(qp.Weights)
	if f.opts.Debug {
		f.log.Debug("density remaining under footprint",
			logging.Float64("remainder", qp.Remainder()))
	}
	return nil
}

// solveMIQP runs the cardinality-constrained selection and prunes.
func (f *baseFit) solveMIQP(cardinality int, threshold float64) error {
	target, models, err := f.convert()
	if err != nil {
		return err
	}
	miqp, err := solver.NewMIQPSolver(target, models)
	if err != nil {
		return err
	}
	if err := miqp.Solve(cardinality, threshold); err != nil {
		return err
	}
	f.updateConformers(miqp.Weights)
	if f.opts.Debug {
		f.log.Debug("density remaining under footprint",
			logging.Float64("remainder", miqp.Remainder()))
	}
	return nil
}

// updateConformers adopts the solver weights and drops candidates below the
// occupancy cutoff.
func (f *baseFit) updateConformers(weights []float64) {
	newCoor := f.coorSet[:0:0]
	newOcc := f.occupancies[:0:0]
	for i, q := range weights {
		if q >= occupancyCutoff {
			newCoor = append(newCoor, f.coorSet[i])
			newOcc = append(newOcc, q)
		}
	}
	f.coorSet = newCoor
	f.occupancies = newOcc
}

// Conformers returns the surviving coordinate sets with their weights.
func (f *baseFit) Conformers() []Conformer {
	conformers := make([]Conformer, len(f.coorSet))
	for i := range f.coorSet {
		conformers[i] = Conformer{Coor: f.coorSet[i], Occupancy: f.occupancies[i]}
	}
	return conformers
}

// writeIntermediateConformers dumps the current candidate set, used for debug
// inspection between sampling and selection passes.
func (f *baseFit) writeIntermediateConformers(prefix string) error {
	for n, coor := range f.coorSet {
		c := f.residue.ExtractCopy()
		c.SetCoor(coor)
		path := filepath.Join(f.opts.Directory, fmt.Sprintf("%s_%d.pdb", prefix, n))
		if err := structure.WritePDB(path, c); err != nil {
			return err
		}
	}
	return nil
}

// RotamericFitter fits a rotameric residue: chi-by-chi expansion over the
// rotamer library, steric filtering, and QP/MIQP conformer selection.
type RotamericFitter struct {
	*baseFit

	parent  *structure.Structure
	cd      *ClashDetector
	exclude []string
}

// NewRotamericFitter validates the residue, sets up the receptor clash
// detector with peptide-bond exclusions, and prepares the density
// transformer. An incomplete side chain is rejected before any sampling.
func NewRotamericFitter(parent *structure.Structure, residue *structure.Residue,
	xm *xmap.XMap, opts *config.Options, log logging.Logger) (*RotamericFitter, error) {

	if log == nil {
		log = logging.NewNop()
	}
	if residue.Kind != structure.KindRotamerResidue {
		return nil, errors.New(errors.KindInvalidParam,
			"residue %s %d%s (%s) is not rotameric",
			residue.Chain, residue.ResSeq, residue.ICode, residue.ResName)
	}
	if err := residue.CheckComplete(); err != nil {
		return nil, err
	}

	f := &RotamericFitter{
		parent:  parent,
		exclude: opts.ExcludeAtoms,
	}
	f.baseFit = newBaseFit(residue, xm, opts, log)
	f.setupClashDetector()
	return f, nil
}

// setupClashDetector builds the receptor bucketing and excludes the bonded
// N-C interactions with the previous and next residue when those neighbors
// sit within peptide-bond distance.
func (f *RotamericFitter) setupClashDetector() {
	res := f.residue
	receptor := f.parent.ExtractNotResidue(res.Chain, res.ResSeq, res.ICode)

	var exclude []ExcludePair
	seg, index := f.parent.SegmentOf(res)
	if seg != nil {
		if index > 0 {
			prev := seg.Residues[index-1]
			exclude = appendPeptideExclusion(exclude, res, "N", prev, "C", receptor)
		}
		if index < seg.Length()-1 {
			next := seg.Residues[index+1]
			exclude = appendPeptideExclusion(exclude, res, "C", next, "N", receptor)
		}
	}
	f.cd = NewClashDetector(res, receptor, exclude, f.opts.ClashScalingFactor)
}

// appendPeptideExclusion records the (residue atom, receptor atom) pair when
// the two atoms are within bonding distance.
func appendPeptideExclusion(exclude []ExcludePair, res *structure.Residue,
	resAtom string, neighbor *structure.Residue, neighborAtom string,
	receptor *structure.Structure) []ExcludePair {

	li := res.AtomIndex(resAtom)
	if li < 0 {
		return exclude
	}
	nr := receptor.FindResidue(neighbor.Chain, neighbor.ResSeq, neighbor.ICode)
	if nr == nil {
		return exclude
	}
	ri := nr.GlobalIndex(neighborAtom)
	if ri < 0 {
		return exclude
	}
	if res.AtomCoor(li).Sub(receptor.Coor[ri]).Norm() < peptideNeighborMax {
		exclude = append(exclude, ExcludePair{ResidueAtom: li, ReceptorAtom: ri})
	}
	return exclude
}

// Run executes the fit: the backbone hook followed by side-chain sampling
// when the residue has free dihedrals.
func (f *RotamericFitter) Run() error {
	f.sampleBackbone()
	if f.residue.NChi() >= 1 {
		return f.sampleSidechain()
	}
	return nil
}

// sampleBackbone is an intentionally empty hook; backbone sampling is not
// part of the rotameric fit.
func (f *RotamericFitter) sampleBackbone() {}

// setActiveAtoms activates the whole residue, then deactivates the atoms
// controlled by not-yet-fit dihedrals and the configured exclusions, and
// rebuilds the internal clash mask.
func (f *RotamericFitter) setActiveAtoms(chiIndex int) {
	res := f.residue
	lib := res.Library()
	res.SetActive(true)
	if chiIndex+1 <= res.NChi() {
		res.SetActiveByName(lib.Rotate[chiIndex], false)
	}
	if len(f.exclude) > 0 {
		res.SetActiveByName(f.exclude, false)
	}
	res.UpdateClashMask()
}

func (f *RotamericFitter) sampleSidechain() error {
	res := f.residue
	lib := res.Library()
	nchi := res.NChi()
	opts := f.opts

	var window []float64
	for a := -opts.RotamerNeighborhood; a < opts.RotamerNeighborhood+opts.DOFsStepsize-1e-9; a += opts.DOFsStepsize {
		window = append(window, a)
	}

	// Augment the library rotamers with the starting chi tuple so the
	// initial conformation is always reachable.
	rotamers := make([][]float64, 0, len(lib.Rotamers)+1)
	rotamers = append(rotamers, lib.Rotamers...)
	start := make([]float64, nchi)
	for i := 1; i <= nchi; i++ {
		start[i-1] = res.GetChi(i)
	}
	rotamers = append(rotamers, start)

	startChi := 1
	iteration := 0
	for {
		endChi := startChi + opts.DOFsPerIteration
		if endChi > nchi+1 {
			endChi = nchi + 1
		}
		lastChi := endChi - 1
		for chiIndex := startChi; chiIndex < endChi; chiIndex++ {
			f.setActiveAtoms(chiIndex)
			f.log.Info("sampling chi",
				logging.Int("chi", chiIndex), logging.Int("nchi", nchi))

			var newCoorSet [][]structure.Vec3
			var sampled [][]structure.Vec3
			for _, coor := range f.coorSet {
				res.SetCoor(coor)
				chis := make([]float64, chiIndex-1)
				for i := 1; i < chiIndex; i++ {
					chis[i-1] = res.GetChi(i)
				}
				for _, rot := range rotamers {
					// Only expand rotamers whose already-fit
					// chis match the current configuration.
					match := true
					for j, cur := range chis {
						if math.Abs(cur-rot[j]) > opts.RotamerNeighborhood {
							match = false
							break
						}
					}
					if !match {
						continue
					}
					res.SetChi(chiIndex, rot[chiIndex-1])

					// Starting chi angles coincide for many
					// rotamers; skip poses already sampled
					// this step.
					cur := res.Coor()
					if !coordsUnique(sampled, cur) {
						continue
					}
					sampled = append(sampled, cur)

					cr := NewChiRotator(res, chiIndex)
					for _, angle := range window {
						cr.Rotate(angle)
						if !f.cd.Detect() &&
							res.Clashes(opts.ClashScalingFactor) == 0 {
							newCoorSet = append(newCoorSet, res.Coor())
						}
					}
				}
			}
			f.coorSet = newCoorSet
		}

		f.log.Info("conformers sampled", logging.Int("n", len(f.coorSet)))
		if len(f.coorSet) == 0 {
			return errors.New(errors.KindNoViableConformers,
				"no conformers could be generated at iteration %d; check for initial clashes",
				iteration)
		}
		if opts.Debug {
			if err := f.writeIntermediateConformers(
				fmt.Sprintf("_conformer_%d", iteration)); err != nil {
				return err
			}
		}

		if err := f.solveQP(); err != nil {
			return err
		}
		// MIQP twice with identical arguments: the second pass
		// stabilizes the integer selection mask.
		if err := f.solveMIQP(opts.Cardinality, opts.Threshold); err != nil {
			return err
		}
		if err := f.solveMIQP(opts.Cardinality, opts.Threshold); err != nil {
			return err
		}
		f.log.Info("conformers after selection", logging.Int("n", len(f.coorSet)))

		if lastChi == nchi {
			return nil
		}
		iteration++
		startChi++
	}
}

// coordsUnique reports whether coor differs from every entry of sampled by
// more than the dedup tolerance in at least one coordinate component.
func coordsUnique(sampled [][]structure.Vec3, coor []structure.Vec3) bool {
	for _, prev := range sampled {
		if coordsClose(prev, coor, dedupTolerance) {
			return false
		}
	}
	return true
}

func coordsClose(a, b []structure.Vec3, tol float64) bool {
	for i := range a {
		if math.Abs(a[i].X-b[i].X) > tol ||
			math.Abs(a[i].Y-b[i].Y) > tol ||
			math.Abs(a[i].Z-b[i].Z) > tol {
			return false
		}
	}
	return true
}

// WriteConformers emits conformer_{n}.pdb for every surviving conformer plus
// the combined multiconformer_residue.pdb with altloc labels assigned in
// order.
func (f *RotamericFitter) WriteConformers() error {
	conformers := f.Conformers()
	if len(conformers) == 0 {
		return errors.New(errors.KindNoViableConformers,
			"no conformers to write")
	}

	singles := make([]*structure.Structure, len(conformers))
	for n, c := range conformers {
		s := f.residue.ExtractCopy()
		s.SetCoor(c.Coor)
		s.SetQ(c.Occupancy)
		singles[n] = s
		path := filepath.Join(f.opts.Directory, fmt.Sprintf("conformer_%d.pdb", n+1))
		if err := structure.WritePDB(path, s); err != nil {
			return err
		}
	}

	multi := singles[0].Copy()
	multi.SetAltLoc(altlocLabels[0:1])
	for n := 1; n < len(singles); n++ {
		c := singles[n].Copy()
		c.SetAltLoc(altlocLabels[n : n+1])
		multi = multi.Combine(c)
	}
	multi = multi.Reorder()
	path := filepath.Join(f.opts.Directory, "multiconformer_residue.pdb")
	return structure.WritePDB(path, multi)
}

// WriteMaps writes the debug map artifacts: the union footprint, the weighted
// model density, the difference against the observed map, and the masked
// variants of both.
func (f *RotamericFitter) WriteMaps() error {
	res := f.residue
	for i, coor := range f.coorSet {
		res.SetQ(f.occupancies[i])
		res.SetCoor(coor)
		f.trans.Mask(f.rmask)
	}
	if err := f.xmModel.WriteCCP4(filepath.Join(f.opts.Directory, "mask.mrc")); err != nil {
		return err
	}
	var maskIdx []int
	for i, v := range f.xmModel.Array {
		if v > 0 {
			maskIdx = append(maskIdx, i)
		}
	}
	f.trans.Reset(true)

	for i, coor := range f.coorSet {
		res.SetQ(f.occupancies[i])
		res.SetCoor(coor)
		f.trans.Density()
	}
	if err := f.xmModel.WriteCCP4(filepath.Join(f.opts.Directory, "model.mrc")); err != nil {
		return err
	}
	values := make([]float64, len(maskIdx))
	for k, i := range maskIdx {
		values[k] = f.xmModel.Array[i]
	}
	f.xmModel.Sub(f.xm)
	if err := f.xmModel.WriteCCP4(filepath.Join(f.opts.Directory, "diff.mrc")); err != nil {
		return err
	}

	f.trans.Reset(true)
	for k, i := range maskIdx {
		f.xmModel.Array[i] = values[k]
	}
	if err := f.xmModel.WriteCCP4(filepath.Join(f.opts.Directory, "model_masked.mrc")); err != nil {
		return err
	}
	for _, i := range maskIdx {
		f.xmModel.Array[i] -= f.xm.Array[i]
	}
	if err := f.xmModel.WriteCCP4(filepath.Join(f.opts.Directory, "diff_masked.mrc")); err != nil {
		return err
	}
	f.trans.Reset(true)
	res.SetQ(1)
	return nil
}
