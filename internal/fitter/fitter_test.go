package fitter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structbio/mcfit/internal/config"
	"github.com/structbio/mcfit/internal/logging"
	"github.com/structbio/mcfit/internal/structure"
	"github.com/structbio/mcfit/internal/testbuild"
	"github.com/structbio/mcfit/internal/transformer"
	"github.com/structbio/mcfit/internal/xmap"
	"github.com/structbio/mcfit/pkg/errors"
)

// gridCenter positions test residues away from the cell edges.
var gridCenter = structure.Vec3{X: 9, Y: 9, Z: 9}

func testGrid() *xmap.XMap {
	return xmap.Zeros(xmap.NewUnitCell(22, 22, 22, 90, 90, 90), [3]int{44, 44, 44})
}

// renderInto paints the structure's density into the grid with the mode
// implied by opts.
func renderInto(s *structure.Structure, xm *xmap.XMap, opts *config.Options) {
	tr := transformer.New(s, xm, opts.SMin(), opts.SMax(), opts.Simple(), opts.Scattering)
	tr.Initialize()
	tr.Density()
}

// angleDiff is the absolute angular difference folded into [0, 180].
func angleDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// countLogger counts Info messages per message string.
type countLogger struct {
	counts map[string]int
}

func newCountLogger() *countLogger { return &countLogger{counts: map[string]int{}} }

func (c *countLogger) Debug(string, ...logging.Field)          {}
func (c *countLogger) Info(msg string, _ ...logging.Field)     { c.counts[msg]++ }
func (c *countLogger) Warn(string, ...logging.Field)           {}
func (c *countLogger) Error(msg string, _ ...logging.Field)    {}

func TestClashDetectorExcludePairs(t *testing.T) {
	s := testbuild.Residue("SER", "A", 1, gridCenter, []float64{62})
	res := s.FindResidue("A", 1, "")
	res.SetActive(true)

	receptor := &structure.Structure{}
	// Peptide-bond distance from N, on the side away from CA.
	nPos := res.AtomCoor(res.AtomIndex("N"))
	testbuild.AppendAtom(receptor, "ATOM", "C", "C", "GLY", "A", 0,
		nPos.Add(structure.Vec3{X: -1.33}))

	cd := NewClashDetector(res, receptor, nil, 0.80)
	assert.True(t, cd.Detect(), "unexcluded bonded neighbor must clash")

	cd = NewClashDetector(res, receptor,
		[]ExcludePair{{ResidueAtom: res.AtomIndex("N"), ReceptorAtom: 0}}, 0.80)
	assert.False(t, cd.Detect(), "excluded pair must not clash")
}

func TestClashDetectorDistantReceptor(t *testing.T) {
	s := testbuild.Residue("SER", "A", 1, gridCenter, []float64{62})
	res := s.FindResidue("A", 1, "")
	res.SetActive(true)

	receptor := &structure.Structure{}
	testbuild.AppendAtom(receptor, "ATOM", "O", "O", "HOH", "W", 501,
		gridCenter.Add(structure.Vec3{X: 15}))
	cd := NewClashDetector(res, receptor, nil, 0.80)
	assert.False(t, cd.Detect())
}

// buildDipeptide grows a second serine bonded to the first so the peptide
// N-C pair sits within bonding distance.
func buildDipeptide(t *testing.T) *structure.Structure {
	t.Helper()
	s := &structure.Structure{}
	testbuild.BuildInto(s, "SER", "A", 1, gridCenter, []float64{62})
	first := s.FindResidue("A", 1, "")
	c := first.AtomCoor(first.AtomIndex("C"))
	ca := first.AtomCoor(first.AtomIndex("CA"))
	dir := c.Sub(ca).Normalize()
	perp := dir.Cross(structure.Vec3{Z: 1}).Normalize()
	origin2 := c.Add(dir.Scale(1.1)).Add(perp.Scale(0.75))
	testbuild.BuildInto(s, "SER", "A", 2, origin2, []float64{-65})
	return s.Copy()
}

func TestPeptideBondPairsExcluded(t *testing.T) {
	s := buildDipeptide(t)
	res := s.FindResidue("A", 2, "")
	require.NotNil(t, res)

	f, err := NewRotamericFitter(s, res, testGrid(), config.Default(), logging.NewNop())
	require.NoError(t, err)

	// The N(res 2) - C(res 1) pair is registered: C is the third atom of
	// the receptor's first residue.
	receptorC := 2
	localN := res.AtomIndex("N")
	assert.True(t, f.cd.exclude[[2]int{localN, receptorC}],
		"peptide N-C pair must be excluded")
	require.Len(t, f.cd.exclude, 1)
}

func TestIncompleteResidueRejectedBeforeSampling(t *testing.T) {
	s := testbuild.Residue("LEU", "A", 1, gridCenter, []float64{-65, 175})
	trimmed := s.Extract(func(i int) bool { return s.Name[i] != "CG" })
	res := trimmed.FindResidue("A", 1, "")
	require.NotNil(t, res)

	_, err := NewRotamericFitter(trimmed, res, testGrid(), config.Default(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindStructureIncomplete))
}

func TestNonRotamericResidueRejected(t *testing.T) {
	s := &structure.Structure{}
	for i, name := range []string{"N", "CA", "C", "O"} {
		el := "N"
		if i > 0 {
			el = "C"
		}
		testbuild.AppendAtom(s, "ATOM", name, el, "GLY", "A", 1,
			gridCenter.Add(structure.Vec3{X: float64(i) * 1.4}))
	}
	res := s.FindResidue("A", 1, "")
	require.NotNil(t, res)

	_, err := NewRotamericFitter(s, res, testGrid(), config.Default(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindInvalidParam))
}

func TestNoViableConformers(t *testing.T) {
	s := &structure.Structure{}
	testbuild.BuildInto(s, "SER", "A", 1, gridCenter, []float64{62})
	// A blocking atom on top of CB collides with every candidate.
	first := s.FindResidue("A", 1, "")
	cb := first.AtomCoor(first.AtomIndex("CB"))
	testbuild.AppendAtom(s, "HETATM", "C1", "C", "LIG", "B", 90,
		cb.Add(structure.Vec3{X: 0.3}))
	s = s.Copy()

	res := s.FindResidue("A", 1, "")
	opts := config.Default()
	opts.Resolution = 1.5

	xm := testGrid()
	f, err := NewRotamericFitter(s, res, xm, opts, nil)
	require.NoError(t, err)
	err = f.Run()
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNoViableConformers))
}

func TestFitSingleRotamerLeucine(t *testing.T) {
	truthChis := []float64{-65, 175}
	truth := testbuild.Residue("LEU", "A", 1, gridCenter, truthChis)

	opts := config.Default()
	opts.Resolution = 1.5

	xm := testGrid()
	renderInto(truth, xm, opts)

	// Start the model from a different rotamer.
	model := testbuild.Residue("LEU", "A", 1, gridCenter, []float64{177, 65})
	res := model.FindResidue("A", 1, "")

	f, err := NewRotamericFitter(model, res, xm, opts, nil)
	require.NoError(t, err)
	require.NoError(t, f.Run())

	conformers := f.Conformers()
	require.NotEmpty(t, conformers)

	top := conformers[0]
	for _, c := range conformers[1:] {
		if c.Occupancy > top.Occupancy {
			top = c
		}
	}
	assert.GreaterOrEqual(t, top.Occupancy, 0.9)

	res.SetCoor(top.Coor)
	assert.LessOrEqual(t, angleDiff(res.GetChi(1), truthChis[0]), 15.0)
	assert.LessOrEqual(t, angleDiff(res.GetChi(2), truthChis[1]), 15.0)
}

func TestFitTwoRotamerMixture(t *testing.T) {
	chisA := []float64{-65, 175}
	chisB := []float64{177, 65}

	opts := config.Default()
	opts.Resolution = 1.8

	xm := testGrid()
	for _, chis := range [][]float64{chisA, chisB} {
		truth := testbuild.Residue("LEU", "A", 1, gridCenter, chis)
		truth.SetQ(0.5)
		renderInto(truth, xm, opts)
	}

	model := testbuild.Residue("LEU", "A", 1, gridCenter, chisA)
	res := model.FindResidue("A", 1, "")

	f, err := NewRotamericFitter(model, res, xm, opts, nil)
	require.NoError(t, err)
	require.NoError(t, f.Run())

	conformers := f.Conformers()
	require.Len(t, conformers, 2)
	for _, c := range conformers {
		assert.GreaterOrEqual(t, c.Occupancy, 0.30)
		assert.LessOrEqual(t, c.Occupancy, 0.70)
	}

	// One conformer per ground-truth rotamer.
	var gotA, gotB bool
	for _, c := range conformers {
		res.SetCoor(c.Coor)
		chi1 := res.GetChi(1)
		if angleDiff(chi1, chisA[0]) < 20 {
			gotA = true
		}
		if angleDiff(chi1, chisB[0]) < 20 {
			gotB = true
		}
	}
	assert.True(t, gotA, "missing first rotamer")
	assert.True(t, gotB, "missing second rotamer")
}

func TestLysineIterationSchedule(t *testing.T) {
	truthChis := []float64{-65, 180, 180, 180}
	truth := testbuild.Residue("LYS", "A", 1, gridCenter, truthChis)

	opts := config.Default()
	opts.Resolution = 1.2

	xm := testGrid()
	renderInto(truth, xm, opts)

	model := testbuild.Residue("LYS", "A", 1, gridCenter, []float64{-177, 180, 180, 180})
	res := model.FindResidue("A", 1, "")

	log := newCountLogger()
	f, err := NewRotamericFitter(model, res, xm, opts, log)
	require.NoError(t, err)
	require.NoError(t, f.Run())

	// dofs_per_iteration=2 over 4 chis advances the window 1..3, 2..4,
	// 3..5: three outer iterations, six chi sampling steps.
	assert.Equal(t, 3, log.counts["conformers sampled"])
	assert.Equal(t, 6, log.counts["sampling chi"])

	conformers := f.Conformers()
	require.NotEmpty(t, conformers)
	top := conformers[0]
	for _, c := range conformers[1:] {
		if c.Occupancy > top.Occupancy {
			top = c
		}
	}
	res.SetCoor(top.Coor)
	for i := 1; i <= 4; i++ {
		assert.LessOrEqual(t, angleDiff(res.GetChi(i), truthChis[i-1]), 15.0,
			"chi %d", i)
	}
}

func TestSerineStartingChiAugmentation(t *testing.T) {
	truthChis := []float64{62}
	truth := testbuild.Residue("SER", "A", 1, gridCenter, truthChis)

	opts := config.Default()
	opts.Resolution = 1.5

	xm := testGrid()
	renderInto(truth, xm, opts)

	// The initial model points the hydroxyl the other way; the rotamer
	// list is augmented with this starting chi so both are covered.
	model := testbuild.Residue("SER", "A", 1, gridCenter, []float64{180})
	res := model.FindResidue("A", 1, "")

	f, err := NewRotamericFitter(model, res, xm, opts, nil)
	require.NoError(t, err)
	require.NoError(t, f.Run())

	conformers := f.Conformers()
	require.NotEmpty(t, conformers)
	top := conformers[0]
	for _, c := range conformers[1:] {
		if c.Occupancy > top.Occupancy {
			top = c
		}
	}
	res.SetCoor(top.Coor)
	assert.LessOrEqual(t, angleDiff(res.GetChi(1), truthChis[0]), 15.0)
}

func TestFitIsDeterministic(t *testing.T) {
	truth := testbuild.Residue("SER", "A", 1, gridCenter, []float64{62})
	opts := config.Default()
	opts.Resolution = 1.5
	xm := testGrid()
	renderInto(truth, xm, opts)

	run := func() []Conformer {
		model := testbuild.Residue("SER", "A", 1, gridCenter, []float64{-65})
		res := model.FindResidue("A", 1, "")
		f, err := NewRotamericFitter(model, res, xm, opts, nil)
		require.NoError(t, err)
		require.NoError(t, f.Run())
		return f.Conformers()
	}
	first := run()
	second := run()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Occupancy, second[i].Occupancy)
		assert.Equal(t, first[i].Coor, second[i].Coor)
	}
}

func TestCandidateSetsShareAtomLayout(t *testing.T) {
	truth := testbuild.Residue("SER", "A", 1, gridCenter, []float64{62})
	opts := config.Default()
	opts.Resolution = 1.5
	xm := testGrid()
	renderInto(truth, xm, opts)

	model := testbuild.Residue("SER", "A", 1, gridCenter, []float64{178})
	res := model.FindResidue("A", 1, "")
	f, err := NewRotamericFitter(model, res, xm, opts, nil)
	require.NoError(t, err)
	require.NoError(t, f.Run())

	for _, c := range f.Conformers() {
		assert.Len(t, c.Coor, res.NAtoms())
		assert.GreaterOrEqual(t, c.Occupancy, 0.002)
	}
}

func TestWriteConformersOutputs(t *testing.T) {
	truth := testbuild.Residue("SER", "A", 1, gridCenter, []float64{62})
	opts := config.Default()
	opts.Resolution = 1.5
	opts.Directory = t.TempDir()
	xm := testGrid()
	renderInto(truth, xm, opts)

	model := testbuild.Residue("SER", "A", 1, gridCenter, []float64{178})
	res := model.FindResidue("A", 1, "")
	f, err := NewRotamericFitter(model, res, xm, opts, nil)
	require.NoError(t, err)
	require.NoError(t, f.Run())
	require.NoError(t, f.WriteConformers())

	multi, err := structure.ReadPDB(opts.Directory + "/multiconformer_residue.pdb")
	require.NoError(t, err)
	nconf := len(f.Conformers())
	assert.Equal(t, nconf*res.NAtoms(), multi.NAtoms())
	assert.Equal(t, "A", multi.AltLoc[0])

	one, err := structure.ReadPDB(opts.Directory + "/conformer_1.pdb")
	require.NoError(t, err)
	assert.Equal(t, res.NAtoms(), one.NAtoms())
}

func TestSegmentFitterIsStub(t *testing.T) {
	f := NewSegmentFitter(nil, nil, nil, nil)
	err := f.Run()
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNotImplemented))

	cl := NewCovalentLigandFitter()
	err = cl.Run()
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNotImplemented))
}
