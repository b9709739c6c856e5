// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// BinConfig holds the paths of the external binaries that varfold shells out to.
type BinConfig struct {
	// python interpreter used to launch the inference entry point
	Python string `mapstructure:"python" yaml:"python"`

	// the AlphaFold3 run script passed to the python interpreter
	RunScript string `mapstructure:"run-script" yaml:"run-script"`

	// hmmbuild binary for building a profile HMM from an alignment
	Hmmbuild string `mapstructure:"hmmbuild" yaml:"hmmbuild"`

	// hmmsearch binary for searching the profile against the seqres database
	Hmmsearch string `mapstructure:"hmmsearch" yaml:"hmmsearch"`

	// maxit binary for converting mmCIF outputs to PDB
	Maxit string `mapstructure:"maxit" yaml:"maxit"`
}

// TemplateConfig is settings for the template search stage.
type TemplateConfig struct {
	// maximum number of template hits kept per chain
	MaxHits int `mapstructure:"max-hits" yaml:"max-hits"`

	// hmmsearch e-value cutoff for keeping a hit
	MaxEvalue float64 `mapstructure:"max-evalue" yaml:"max-evalue"`
}

// Config is the root-level settings struct and is a mix of settings
// from settings.yaml and those available from the command line.
type Config struct {
	// path to the model weights directory
	ModelDir string `mapstructure:"model-dir" yaml:"model-dir"`

	// path to the sequence database directory, substituted for ${DB_DIR}
	// in database path settings
	DBDir string `mapstructure:"db-dir" yaml:"db-dir"`

	// path to the PDB seqres FASTA searched for templates
	SeqresDB string `mapstructure:"seqres-db" yaml:"seqres-db"`

	// directory of template structures in mmCIF, one file per PDB entry
	PDBDir string `mapstructure:"pdb-dir" yaml:"pdb-dir"`

	// name of the fold input file looked for in each job directory
	InputJSONName string `mapstructure:"input-json-name" yaml:"input-json-name"`

	// file checked for (bare, or with any seed prefix) to decide
	// whether a prediction already completed
	OutputMarker string `mapstructure:"output-marker" yaml:"output-marker"`

	// external binary paths
	Bins BinConfig `mapstructure:"bins" yaml:"bins"`

	// template search settings
	Templates TemplateConfig `mapstructure:"templates" yaml:"templates"`
}

// New returns a new Config populated by Viper settings: the defaults,
// overridden by settings.yaml, overridden by command line arguments.
func New() *Config {
	c := &Config{}
	if err := viper.Unmarshal(c); err != nil {
		log.Fatalf("failed to decode settings: %v", err)
	}

	c.SeqresDB = c.ExpandPath(c.SeqresDB)
	c.PDBDir = c.ExpandPath(c.PDBDir)

	return c
}

// SetDefaults registers every setting's default value against viper.
// Called once from the root command before any config is read.
func SetDefaults() {
	viper.SetDefault("input-json-name", "input.json")
	viper.SetDefault("output-marker", "model_output.cif")
	viper.SetDefault("bins.python", "python3")
	viper.SetDefault("bins.run-script", "run_alphafold.py")
	viper.SetDefault("bins.hmmbuild", "hmmbuild")
	viper.SetDefault("bins.hmmsearch", "hmmsearch")
	viper.SetDefault("bins.maxit", "maxit")
	viper.SetDefault("seqres-db", "${DB_DIR}/pdb_seqres_2022_09_28.fasta")
	viper.SetDefault("pdb-dir", "${DB_DIR}/mmcif_files")
	viper.SetDefault("templates.max-hits", 20)
	viper.SetDefault("templates.max-evalue", 1e-3)
}

// ExpandPath substitutes ${DB_DIR} in a database path setting and
// makes the result absolute.
func (c *Config) ExpandPath(p string) string {
	if p == "" {
		return p
	}
	p = strings.ReplaceAll(p, "${DB_DIR}", c.DBDir)
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

// CheckModelDir errors if the model weights directory is unset or missing.
func (c *Config) CheckModelDir() error {
	if c.ModelDir == "" {
		return fmt.Errorf("no model directory set: pass --model-dir or set model-dir in settings.yaml")
	}
	if _, err := os.Stat(c.ModelDir); os.IsNotExist(err) {
		return fmt.Errorf("failed to find model directory at %s", c.ModelDir)
	}
	return nil
}

// CheckDBDir errors if the sequence database directory is unset or missing.
func (c *Config) CheckDBDir() error {
	if c.DBDir == "" {
		return fmt.Errorf("no database directory set: pass --db-dir or set db-dir in settings.yaml")
	}
	if _, err := os.Stat(c.DBDir); os.IsNotExist(err) {
		return fmt.Errorf("failed to find database directory at %s", c.DBDir)
	}
	return nil
}

// YAML renders the effective settings, for `varfold settings`.
func (c *Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
