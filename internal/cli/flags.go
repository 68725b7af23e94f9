package cli

import "flaky/internal/config"

// Flag names shared between registration and change detection
const (
	FlagMinRuns           = "min-runs"
	FlagFlakyMin          = "flaky-min"
	FlagFlakyMax          = "flaky-max"
	FlagVarianceThreshold = "variance-threshold"
)

// Flags holds command-line flags
type Flags struct {
	ConfigFile        string
	Processors        int
	Cycles            int
	ReportsDir        string
	Pattern           string
	NameFilter        string
	FlakyOnly         bool
	Open              bool
	Verbose           bool
	MinRuns           int
	FlakyMin          float64
	FlakyMax          float64
	VarianceThreshold float64
}

// ToConfigFlags converts CLI flags to config flags.
// Threshold flags are only carried over when changed reports them as set,
// so an explicit zero still overrides the config file.
func (f *Flags) ToConfigFlags(changed func(name string) bool) config.Flags {
	cf := config.Flags{
		ConfigFile: f.ConfigFile,
		Processors: f.Processors,
		Cycles:     f.Cycles,
		ReportsDir: f.ReportsDir,
		Pattern:    f.Pattern,
		NameFilter: f.NameFilter,
		FlakyOnly:  f.FlakyOnly,
		Open:       f.Open,
		Verbose:    f.Verbose,
	}
	if changed(FlagMinRuns) {
		v := f.MinRuns
		cf.MinRuns = &v
	}
	if changed(FlagFlakyMin) {
		v := f.FlakyMin
		cf.FlakyMin = &v
	}
	if changed(FlagFlakyMax) {
		v := f.FlakyMax
		cf.FlakyMax = &v
	}
	if changed(FlagVarianceThreshold) {
		v := f.VarianceThreshold
		cf.VarianceThreshold = &v
	}
	return cf
}
