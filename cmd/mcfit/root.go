package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/structbio/mcfit/internal/config"
	"github.com/structbio/mcfit/internal/fitter"
	"github.com/structbio/mcfit/internal/logging"
	"github.com/structbio/mcfit/internal/structure"
	"github.com/structbio/mcfit/internal/xmap"
	"github.com/structbio/mcfit/pkg/errors"
)

func newRootCommand() *cobra.Command {
	var (
		configFile string
		opts       = config.Default()
	)

	cmd := &cobra.Command{
		Use:   "mcfit <structure.pdb> <map.ccp4> <chain,resi[:icode]>",
		Short: "Multiconformer side-chain fitting against a density map",
		Long: `mcfit enumerates plausible side-chain rotamers of one residue, filters
them for steric feasibility, simulates each candidate's density contribution,
and selects a small weighted set of conformers whose combination best
reconstructs the observed map.`,
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configFile)
			if err != nil {
				return err
			}
			// CLI flags override the file/env configuration.
			mergeFlagOverrides(cmd, loaded, opts)
			if err := loaded.Validate(); err != nil {
				return err
			}
			return run(args[0], args[1], args[2], loaded)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&configFile, "config", "", "YAML options file")
	cmd.Flags().StringVarP(&opts.Directory, "directory", "d", opts.Directory, "output directory")
	cmd.Flags().BoolVar(&opts.Debug, "debug", opts.Debug, "diagnostic logging and extra map outputs")
	cmd.Flags().Float64VarP(&opts.Resolution, "resolution", "r", opts.Resolution, "high resolution limit (Angstrom); 0 selects simple mode")
	cmd.Flags().Float64Var(&opts.ResolutionMin, "resolution-min", opts.ResolutionMin, "low resolution limit (Angstrom)")
	cmd.Flags().StringVar(&opts.Scattering, "scattering", opts.Scattering, "scattering factor table: xray or electron")
	cmd.Flags().Float64Var(&opts.ClashScalingFactor, "clash-scaling-factor", opts.ClashScalingFactor, "van-der-Waals overlap scaling factor")
	cmd.Flags().IntVar(&opts.DOFsPerIteration, "dofs-per-iteration", opts.DOFsPerIteration, "chi indices advanced per outer loop")
	cmd.Flags().Float64Var(&opts.DOFsStepsize, "dofs-stepsize", opts.DOFsStepsize, "degrees between samples in the rotation window")
	cmd.Flags().IntVar(&opts.Cardinality, "cardinality", opts.Cardinality, "MIQP maximum number of conformers")
	cmd.Flags().Float64Var(&opts.Threshold, "threshold", opts.Threshold, "MIQP minimum occupancy when selected")
	cmd.Flags().Float64Var(&opts.RotamerNeighborhood, "rotamer-neighborhood", opts.RotamerNeighborhood, "rotamer matching and sampling window (degrees)")
	cmd.Flags().StringSliceVar(&opts.ExcludeAtoms, "exclude-atoms", opts.ExcludeAtoms, "atom names excluded from clash and density")

	return cmd
}

// mergeFlagOverrides copies every flag the user set explicitly over the
// loaded configuration.
func mergeFlagOverrides(cmd *cobra.Command, loaded, flags *config.Options) {
	set := func(name string) bool { return cmd.Flags().Changed(name) }
	if set("directory") {
		loaded.Directory = flags.Directory
	}
	if set("debug") {
		loaded.Debug = flags.Debug
	}
	if set("resolution") {
		loaded.Resolution = flags.Resolution
	}
	if set("resolution-min") {
		loaded.ResolutionMin = flags.ResolutionMin
	}
	if set("scattering") {
		loaded.Scattering = flags.Scattering
	}
	if set("clash-scaling-factor") {
		loaded.ClashScalingFactor = flags.ClashScalingFactor
	}
	if set("dofs-per-iteration") {
		loaded.DOFsPerIteration = flags.DOFsPerIteration
	}
	if set("dofs-stepsize") {
		loaded.DOFsStepsize = flags.DOFsStepsize
	}
	if set("cardinality") {
		loaded.Cardinality = flags.Cardinality
	}
	if set("threshold") {
		loaded.Threshold = flags.Threshold
	}
	if set("rotamer-neighborhood") {
		loaded.RotamerNeighborhood = flags.RotamerNeighborhood
	}
	if set("exclude-atoms") {
		loaded.ExcludeAtoms = flags.ExcludeAtoms
	}
}

// parseResidueID splits "chain,resi" or "chain,resi:icode".
func parseResidueID(arg string) (chain string, resi int, icode string, err error) {
	parts := strings.SplitN(arg, ",", 2)
	if len(parts) != 2 {
		return "", 0, "", errors.New(errors.KindInvalidParam,
			"residue id %q: want chain,resi[:icode]", arg)
	}
	chain = parts[0]
	num := parts[1]
	if i := strings.IndexByte(num, ':'); i >= 0 {
		icode = num[i+1:]
		num = num[:i]
	}
	resi, convErr := strconv.Atoi(num)
	if convErr != nil {
		return "", 0, "", errors.Wrap(convErr, errors.KindInvalidParam,
			"residue id %q", arg)
	}
	return chain, resi, icode, nil
}

func run(pdbPath, mapPath, residueID string, opts *config.Options) error {
	log := logging.New(opts.Debug)

	chain, resi, icode, err := parseResidueID(residueID)
	if err != nil {
		return err
	}

	s, err := structure.ReadPDB(pdbPath)
	if err != nil {
		return err
	}
	xm, err := xmap.ReadCCP4(mapPath)
	if err != nil {
		return err
	}
	log.Info("inputs loaded",
		logging.Int("atoms", s.NAtoms()),
		logging.Int("voxels", xm.NVoxels()))

	residue := s.FindResidue(chain, resi, icode)
	if residue == nil {
		return errors.New(errors.KindInvalidParam,
			"residue %s not found in %s", residueID, pdbPath)
	}

	f, err := fitter.NewRotamericFitter(s, residue, xm, opts, log)
	if err != nil {
		return err
	}
	if err := f.Run(); err != nil {
		return err
	}
	if err := f.WriteConformers(); err != nil {
		return err
	}
	if opts.Debug {
		if err := f.WriteMaps(); err != nil {
			return err
		}
	}
	log.Info("fit complete", logging.Int("conformers", len(f.Conformers())))
	return nil
}
