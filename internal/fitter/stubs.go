package fitter

import (
	"github.com/structbio/mcfit/internal/config"
	"github.com/structbio/mcfit/internal/logging"
	"github.com/structbio/mcfit/internal/structure"
	"github.com/structbio/mcfit/internal/xmap"
	"github.com/structbio/mcfit/pkg/errors"
)

// SegmentFitter would select consistent protein segments based on occupancy
// and density fit. The upstream algorithm is ambiguous (its fragment
// enumeration references an undefined input), so the surface is exposed as a
// stub rather than guessed at.
type SegmentFitter struct {
	Segment *structure.Segment
}

// NewSegmentFitter constructs the stub.
func NewSegmentFitter(segment *structure.Segment, xm *xmap.XMap,
	opts *config.Options, log logging.Logger) *SegmentFitter {
	return &SegmentFitter{Segment: segment}
}

// Run reports that segment fitting is not implemented.
func (f *SegmentFitter) Run() error {
	return errors.New(errors.KindNotImplemented, "segment fitting")
}

// CovalentLigandFitter is the placeholder for covalently bound ligand
// fitting.
type CovalentLigandFitter struct{}

// NewCovalentLigandFitter constructs the stub.
func NewCovalentLigandFitter() *CovalentLigandFitter {
	return &CovalentLigandFitter{}
}

// Run reports that covalent-ligand fitting is not implemented.
func (f *CovalentLigandFitter) Run() error {
	return errors.New(errors.KindNotImplemented, "covalent ligand fitting")
}
