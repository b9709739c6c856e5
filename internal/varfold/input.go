package varfold

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// stderr is for logging to Stderr (without an annoying timestamp)
	stderr = log.New(os.Stderr, "", 0)
)

// inputParser contains methods for parsing flags from the input &cobra.Command.
type inputParser struct{}

// ParsePrepareFlags gathers the variants FASTA, wild-type config and
// output paths from the prepare command.
func ParsePrepareFlags(cmd *cobra.Command, args []string) *PrepareFlags {
	var err error
	fs := &PrepareFlags{}
	p := inputParser{}

	if fs.variants, err = cmd.Flags().GetString("variants"); fs.variants == "" || err != nil {
		if fs.variants, err = p.guessFasta(); err != nil {
			cmd.Help()
			stderr.Fatal(err)
		}
	}

	if fs.wtConfig, err = cmd.Flags().GetString("wild-type"); fs.wtConfig == "" || err != nil {
		cmd.Help()
		stderr.Fatal("no wild-type fold input path set")
	}

	if fs.out, err = cmd.Flags().GetString("out"); fs.out == "" || err != nil {
		fs.out = p.guessOutput(fs.variants)
	}

	fs.ligandSMILES, _ = cmd.Flags().GetString("ligand-smiles")
	fs.ligandID, _ = cmd.Flags().GetString("ligand-id")

	seeds, _ := cmd.Flags().GetString("seeds")
	if fs.seeds, err = p.parseSeeds(seeds); err != nil {
		stderr.Fatal(err)
	}

	fs.inputJSONName = viper.GetString("input-json-name")

	return fs
}

// ParseBatchFlags gathers the batch directory and stage toggles from
// the batch command.
func ParseBatchFlags(cmd *cobra.Command, args []string) *BatchFlags {
	var err error
	fs := &BatchFlags{}

	if fs.dir, err = cmd.Flags().GetString("dir"); err != nil || fs.dir == "" {
		if len(args) > 0 {
			fs.dir = args[0]
		} else {
			cmd.Help()
			stderr.Fatal("no batch input directory set")
		}
	}

	fs.skipExisting, _ = cmd.Flags().GetBool("skip-existing")
	fs.templateSearch, _ = cmd.Flags().GetBool("template-search")
	fs.runInference, _ = cmd.Flags().GetBool("inference")
	fs.convertPDB, _ = cmd.Flags().GetBool("convert-pdb")
	fs.device, _ = cmd.Flags().GetInt("device")
	fs.report, _ = cmd.Flags().GetString("report")

	fs.inputJSONName = viper.GetString("input-json-name")
	fs.outputMarker = viper.GetString("output-marker")

	return fs
}

// ParseRunFlags gathers the single-job inputs from the run command.
func ParseRunFlags(cmd *cobra.Command, args []string) *RunFlags {
	var err error
	fs := &RunFlags{}

	if fs.input, err = cmd.Flags().GetString("in"); fs.input == "" || err != nil {
		if len(args) > 0 {
			fs.input = args[0]
		} else {
			cmd.Help()
			stderr.Fatal("no fold input path set")
		}
	}

	if fs.out, err = cmd.Flags().GetString("out"); fs.out == "" || err != nil {
		fs.out = filepath.Dir(fs.input)
	}

	fs.a3mPath, _ = cmd.Flags().GetString("a3m")
	fs.a3mDir, _ = cmd.Flags().GetString("a3m-dir")
	fs.templateSearch, _ = cmd.Flags().GetBool("template-search")
	fs.runInference, _ = cmd.Flags().GetBool("inference")
	fs.convertPDB, _ = cmd.Flags().GetBool("convert-pdb")
	fs.device, _ = cmd.Flags().GetInt("device")

	return fs
}

// guessFasta returns the first FASTA file in the current directory.
// Is used if the user hasn't specified a variants file.
func (p *inputParser) guessFasta() (in string, err error) {
	dir, _ := filepath.Abs(".")
	files, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(file.Name()))
		if ext == ".fa" || ext == ".fasta" {
			return file.Name(), nil
		}
	}

	return "", fmt.Errorf("failed: no variants argument set and no FASTA file found in %s", dir)
}

// guessOutput gets an output directory from an input path (if no
// output path is specified).
func (p *inputParser) guessOutput(in string) (out string) {
	ext := filepath.Ext(in)
	return in[0:len(in)-len(ext)] + ".variants"
}

// parseSeeds turns a comma separated seed list into ints. An empty
// flag means "keep the wild-type's seeds" and returns nil.
func (p *inputParser) parseSeeds(seeds string) ([]int, error) {
	if strings.TrimSpace(seeds) == "" {
		return nil, nil
	}

	var parsed []int
	for _, s := range strings.Split(seeds, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}

		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("failed to parse seed %q: %v", s, err)
		}
		parsed = append(parsed, n)
	}

	return parsed, nil
}
