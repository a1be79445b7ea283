// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package config holds the run configuration: command-line flags,
// merged with an optional TOML config file, validated and
// cross-checked for conflicting option combinations.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the full set of run parameters, loadable either from
// command-line flags alone or from flags layered over a TOML file
// (flags take precedence over file values that were explicitly set).
type Config struct {
	// Path to the FASTA reference sequence collection.
	RefFile string `toml:"ref_file"`

	// FASTQ input. Paired libraries need both files; single-end
	// libraries (SF, SR, U) read whichever one of the two is set.
	R1File string `toml:"r1_file"`
	R2File string `toml:"r2_file"`

	// Output basename; "<basename>.bed" (single-end) or
	// "<basename>.bedpe" (paired) and "<basename>.fastq" are derived
	// from it. There are no separate _R1/_R2 FASTQ files: in paired
	// modes each R1 record is followed by its R2 record in the one
	// FASTQ output.
	OutBase string `toml:"out_base"`

	// Library orientation mode: one of ISF, ISR, IU, OSF, OSR, OU,
	// SF, SR, U.
	Lib string `toml:"lib"`

	// K-mer seed width.
	K int `toml:"k"`

	// Percent mismatches tolerated during extension (0-99).
	MismatchPercent int `toml:"mismatch_percent"`

	// Seed search step size.
	Step int `toml:"step"`

	// Number of worker goroutines.
	Threads int `toml:"threads"`

	// Number of same-sequence candidates to evaluate and score before
	// picking the best (0 disables multi-candidate evaluation).
	Evals int `toml:"evals"`

	// If true, 'N' bases in a read never count as mismatches.
	IgnoreN bool `toml:"ignore_n"`

	// If true, lowercase reference bases are kept as they are on load
	// (and so cannot seed); if false they are uppercased.
	MaskLower bool `toml:"mask_lower"`

	// If true, allows cross-sequence and ordering-free pairing
	// fallbacks. evals>0 forces this false regardless of the supplied
	// value (see Resolve).
	Disjoin bool `toml:"disjoin"`

	// If true, the FASTQ output receives the unmapped reads instead
	// of the mapped ones; disables BED/BEDPE output.
	Diff bool `toml:"diff"`

	NoBED   bool `toml:"no_bed"`
	NoFASTQ bool `toml:"no_fastq"`
	Quiet   bool `toml:"quiet"`

	MinReadLength int `toml:"min_read_length"`

	TempDir string `toml:"temp_dir"`
	LogDir  string `toml:"log_dir"`

	// Screen enables a Bloom-filter pre-screen over the reference
	// k-mers: reads with no window that could possibly seed are
	// rejected before the index is ever consulted. ScreenBits sizes
	// the underlying bit array (defaults to 8x the reference length
	// when zero); ScreenHashes sets the number of hash functions
	// (defaults to 4 when zero).
	Screen       bool   `toml:"screen"`
	ScreenBits   uint64 `toml:"screen_bits"`
	ScreenHashes int    `toml:"screen_hashes"`

	// Dedup enables a per-worker Bloom cache that skips reads whose
	// exact sequence the worker has already processed, mapped or not;
	// a skipped read is written to no output. DedupEstimate is
	// the expected distinct-read count (defaults to 1,000,000 when
	// zero); DedupFalsePositiveRate defaults to 0.001 when zero.
	Dedup                  bool    `toml:"dedup"`
	DedupEstimate          uint    `toml:"dedup_estimate"`
	DedupFalsePositiveRate float64 `toml:"dedup_false_positive_rate"`
}

// Load reads a TOML config file into a fresh Config with no flag
// overrides applied.
func Load(path string) (*Config, error) {
	cfg := new(Config)
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// Conflict is a non-fatal configuration inconsistency that was
// resolved by an explicit precedence rule rather than rejected.
type Conflict struct {
	Field   string
	Message string
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s: %s", c.Field, c.Message)
}

// Resolve applies cross-field precedence rules, returning any
// resulting conflicts as warnings (the caller logs these with a
// "[Warning]" prefix per the diagnostic convention; none of them are
// fatal).
func (c *Config) Resolve() []Conflict {
	var conflicts []Conflict

	if c.Evals > 0 && c.Disjoin {
		c.Disjoin = false
		conflicts = append(conflicts, Conflict{
			Field:   "disjoin",
			Message: "evals>0 excludes disjoin; forcing disjoin=false",
		})
	}

	if c.Diff && !c.NoBED {
		c.NoBED = true
		conflicts = append(conflicts, Conflict{
			Field:   "no_bed",
			Message: "diff=true disables BED/BEDPE output regardless of no_bed",
		})
	}

	return conflicts
}

// Validate checks that required fields are present and internally
// consistent, returning a descriptive error naming the first problem
// found. Validate should run after Resolve.
func (c *Config) Validate() error {
	if c.RefFile == "" {
		return fmt.Errorf("config: ref_file is required")
	}
	if c.R1File == "" && c.R2File == "" {
		return fmt.Errorf("config: at least one of r1_file, r2_file is required")
	}
	if c.OutBase == "" {
		return fmt.Errorf("config: out_base is required")
	}
	if c.Lib == "" {
		return fmt.Errorf("config: lib is required")
	}
	if c.K < 1 || c.K > 15 {
		return fmt.Errorf("config: k must be in [1,15], got %d", c.K)
	}
	if c.MismatchPercent < 0 || c.MismatchPercent > 99 {
		return fmt.Errorf("config: mismatch_percent must be in [0,99], got %d", c.MismatchPercent)
	}
	if c.Step < 1 {
		return fmt.Errorf("config: step must be >= 1, got %d", c.Step)
	}
	if c.Threads < 1 {
		return fmt.Errorf("config: threads must be >= 1, got %d", c.Threads)
	}

	switch c.Lib {
	case "ISF", "ISR", "IU", "OSF", "OSR", "OU":
		if c.R1File == "" || c.R2File == "" {
			return fmt.Errorf("config: lib %s requires both r1_file and r2_file", c.Lib)
		}
	case "SF", "SR", "U":
		if c.R1File != "" && c.R2File != "" {
			return fmt.Errorf("config: lib %s is single-end and takes only one of r1_file, r2_file", c.Lib)
		}
	default:
		return fmt.Errorf("config: unrecognized lib %q", c.Lib)
	}

	return nil
}
