// Package config defines the fitting options, their defaults, and
// file/environment loading.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/structbio/mcfit/pkg/errors"
)

// envPrefix is the environment variable prefix; "sampling.dofs_stepsize"
// resolves to MCFIT_SAMPLING_DOFS_STEPSIZE style keys (flat keys here, so
// MCFIT_DOFS_STEPSIZE).
const envPrefix = "MCFIT"

// Options holds every recognized fitting option.
type Options struct {
	// Directory receives all output files.
	Directory string `mapstructure:"directory"`

	// Debug enables diagnostic logging and the extra map outputs.
	Debug bool `mapstructure:"debug"`

	// Resolution is the high-resolution limit in Angstrom; zero means not
	// given, which selects the simple Gaussian density mode.
	Resolution float64 `mapstructure:"resolution"`

	// ResolutionMin is the low-resolution limit in Angstrom; zero means
	// not given.
	ResolutionMin float64 `mapstructure:"resolution_min"`

	// Scattering selects the factor table: "xray" or "electron".
	Scattering string `mapstructure:"scattering"`

	// ClashScalingFactor scales the van-der-Waals radius sum in the
	// clash test.
	ClashScalingFactor float64 `mapstructure:"clash_scaling_factor"`

	// DOFsPerIteration is the number of chi indices advanced per outer
	// loop.
	DOFsPerIteration int `mapstructure:"dofs_per_iteration"`

	// DOFsStepsize is the sampling interval in degrees within the
	// rotation window.
	DOFsStepsize float64 `mapstructure:"dofs_stepsize"`

	// Cardinality is the MIQP maximum number of nonzero weights.
	Cardinality int `mapstructure:"cardinality"`

	// Threshold is the MIQP minimum weight when nonzero.
	Threshold float64 `mapstructure:"threshold"`

	// RotamerNeighborhood is the +/- window in degrees for rotamer
	// matching and sampling.
	RotamerNeighborhood float64 `mapstructure:"rotamer_neighborhood"`

	// ExcludeAtoms lists atom names never considered during clash and
	// density operations.
	ExcludeAtoms []string `mapstructure:"exclude_atoms"`
}

// Default returns the options with their documented defaults.
func Default() *Options {
	return &Options{
		Directory:           ".",
		Scattering:          "xray",
		ClashScalingFactor:  0.80,
		DOFsPerIteration:    2,
		DOFsStepsize:        8,
		Cardinality:         2,
		Threshold:           0.30,
		RotamerNeighborhood: 40,
	}
}

// Load reads a YAML options file, merges MCFIT_* environment overrides on
// top of the defaults, and validates the result. An empty path loads from
// defaults and environment only.
func Load(path string) (*Options, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	d := Default()
	v.SetDefault("directory", d.Directory)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("resolution", d.Resolution)
	v.SetDefault("resolution_min", d.ResolutionMin)
	v.SetDefault("scattering", d.Scattering)
	v.SetDefault("clash_scaling_factor", d.ClashScalingFactor)
	v.SetDefault("dofs_per_iteration", d.DOFsPerIteration)
	v.SetDefault("dofs_stepsize", d.DOFsStepsize)
	v.SetDefault("cardinality", d.Cardinality)
	v.SetDefault("threshold", d.Threshold)
	v.SetDefault("rotamer_neighborhood", d.RotamerNeighborhood)
	v.SetDefault("exclude_atoms", d.ExcludeAtoms)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, errors.KindIOFailure,
				"reading options file %q", path)
		}
	}

	var o Options
	if err := v.Unmarshal(&o); err != nil {
		return nil, errors.Wrap(err, errors.KindInvalidParam,
			"unmarshalling options")
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &o, nil
}

// Validate rejects out-of-range values.
func (o *Options) Validate() error {
	if o.ClashScalingFactor <= 0 {
		return errors.New(errors.KindInvalidParam,
			"clash_scaling_factor must be positive, got %g", o.ClashScalingFactor)
	}
	if o.DOFsPerIteration < 1 {
		return errors.New(errors.KindInvalidParam,
			"dofs_per_iteration must be at least 1, got %d", o.DOFsPerIteration)
	}
	if o.DOFsStepsize <= 0 {
		return errors.New(errors.KindInvalidParam,
			"dofs_stepsize must be positive, got %g", o.DOFsStepsize)
	}
	if o.Cardinality < 1 {
		return errors.New(errors.KindInvalidParam,
			"cardinality must be at least 1, got %d", o.Cardinality)
	}
	if o.Threshold <= 0 || o.Threshold > 1 {
		return errors.New(errors.KindInvalidParam,
			"threshold must be in (0, 1], got %g", o.Threshold)
	}
	if o.RotamerNeighborhood <= 0 {
		return errors.New(errors.KindInvalidParam,
			"rotamer_neighborhood must be positive, got %g", o.RotamerNeighborhood)
	}
	if o.Scattering != "xray" && o.Scattering != "electron" {
		return errors.New(errors.KindInvalidParam,
			"scattering must be \"xray\" or \"electron\", got %q", o.Scattering)
	}
	if o.Resolution < 0 || o.ResolutionMin < 0 {
		return errors.New(errors.KindInvalidParam,
			"resolution limits must be nonnegative")
	}
	return nil
}

// Simple reports whether the simple Gaussian density mode applies (no
// resolution given).
func (o *Options) Simple() bool { return o.Resolution == 0 }

// SMax returns the high band limit 1/(2·resolution), or zero in simple mode.
func (o *Options) SMax() float64 {
	if o.Resolution == 0 {
		return 0
	}
	return 1 / (2 * o.Resolution)
}

// SMin returns the low band limit 1/(2·resolution_min), or zero when no low
// limit is given.
func (o *Options) SMin() float64 {
	if o.ResolutionMin == 0 {
		return 0
	}
	return 1 / (2 * o.ResolutionMin)
}

// RMask returns the footprint mask radius in Angstrom:
// resolution_min/3 + 0.5 when a low limit is given, else 1.5.
func (o *Options) RMask() float64 {
	if o.ResolutionMin == 0 {
		return 1.5
	}
	return o.ResolutionMin/3 + 0.5
}
