package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() *Config {
	return &Config{
		RefFile: "ref.fasta",
		R1File:  "r1.fastq",
		R2File:  "r2.fastq",
		OutBase: "out",
		Lib:     "ISF",
		K:       11,
		Step:    1,
		Threads: 4,
	}
}

func TestValidateAccepts(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateRejectsMissingRef(t *testing.T) {
	c := validConfig()
	c.RefFile = ""
	if err := c.Validate(); err == nil {
		t.Error("expected an error for missing ref_file")
	}
}

func TestValidateRejectsSingleEndWithBothMates(t *testing.T) {
	c := validConfig()
	c.Lib = "SF"
	if err := c.Validate(); err == nil {
		t.Error("expected an error for SF with both mates set")
	}
}

func TestValidateRejectsPairedWithOneMate(t *testing.T) {
	c := validConfig()
	c.R2File = ""
	if err := c.Validate(); err == nil {
		t.Error("expected an error for ISF with only R1 set")
	}
}

func TestResolveEvalsDisablesDisjoin(t *testing.T) {
	c := validConfig()
	c.Evals = 4
	c.Disjoin = true
	conflicts := c.Resolve()
	if c.Disjoin {
		t.Error("expected disjoin to be forced false when evals>0")
	}
	if len(conflicts) != 1 {
		t.Errorf("expected one conflict, got %d", len(conflicts))
	}
}

func TestResolveDiffDisablesBED(t *testing.T) {
	c := validConfig()
	c.Diff = true
	c.NoBED = false
	conflicts := c.Resolve()
	if !c.NoBED {
		t.Error("expected no_bed to be forced true when diff=true")
	}
	if len(conflicts) != 1 {
		t.Errorf("expected one conflict, got %d", len(conflicts))
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.toml")
	content := `
ref_file = "ref.fasta"
r1_file = "r1.fastq"
out_base = "out"
lib = "SF"
k = 13
step = 2
threads = 8
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.K != 13 || c.Threads != 8 || c.Lib != "SF" {
		t.Errorf("unexpected decode: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}
