package varfold

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charlesxu90/alphafold3/config"
)

// af3Exec is a small utility object for one invocation of the external
// AlphaFold3 entry point.
type af3Exec struct {
	// python interpreter and the run script it is given
	python string
	script string

	// path to the fold input config
	jsonPath string

	// directory the structure outputs are written into
	outDir string

	// model weights and sequence database directories
	modelDir string
	dbDir    string

	// stage toggles passed through to the entry point
	runPipeline  bool
	runInference bool

	// accelerator device index for CUDA_VISIBLE_DEVICES
	device int
}

// run calls the external inference process and blocks until it exits.
// All process output is captured in a log file inside the job
// directory. A non-zero exit is attributed to this job alone.
func (e *af3Exec) run() error {
	args := []string{
		e.script,
		"--json_path=" + e.jsonPath,
		"--output_dir=" + e.outDir,
		"--model_dir=" + e.modelDir,
		fmt.Sprintf("--run_data_pipeline=%t", e.runPipeline),
		fmt.Sprintf("--run_inference=%t", e.runInference),
	}
	if e.dbDir != "" {
		args = append(args, "--db_dir="+e.dbDir)
	}

	logFile, err := os.Create(filepath.Join(e.outDir, "af3.log"))
	if err != nil {
		return fmt.Errorf("failed to create job log: %v", err)
	}
	defer logFile.Close()

	cmd := exec.Command(e.python, args...)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("CUDA_VISIBLE_DEVICES=%d", e.device),
		"XLA_PYTHON_CLIENT_PREALLOCATE=true",
	)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("inference process failed (see %s): %v", logFile.Name(), err)
	}

	return nil
}

// af3Runner satisfies runner by shelling out to the configured python
// entry point once per job.
type af3Runner struct {
	bins         config.BinConfig
	modelDir     string
	dbDir        string
	runPipeline  bool
	runInference bool
	device       int
}

// newAF3Runner builds the runner for one batch invocation. The
// upstream data pipeline stage stays off: every dispatched config
// already carries inline alignment data.
func newAF3Runner(c *config.Config, flags *BatchFlags) *af3Runner {
	return &af3Runner{
		bins:         c.Bins,
		modelDir:     c.ModelDir,
		dbDir:        c.DBDir,
		runPipeline:  false,
		runInference: flags.runInference,
		device:       flags.device,
	}
}

func (r *af3Runner) run(jsonPath, outDir string) error {
	e := &af3Exec{
		python:       r.bins.Python,
		script:       r.bins.RunScript,
		jsonPath:     jsonPath,
		outDir:       outDir,
		modelDir:     r.modelDir,
		dbDir:        r.dbDir,
		runPipeline:  r.runPipeline,
		runInference: r.runInference,
		device:       r.device,
	}

	return e.run()
}

// convert invokes maxit once per mmCIF output in the job directory,
// producing a sibling PDB file. Already converted outputs are skipped.
func (r *af3Runner) convert(outDir string) error {
	cifs, err := filepath.Glob(filepath.Join(outDir, "*.cif"))
	if err != nil {
		return err
	}

	for _, cif := range cifs {
		pdb := strings.TrimSuffix(cif, ".cif") + ".pdb"
		if _, err := os.Stat(pdb); err == nil {
			continue
		}

		// -o 2 is maxit's cif-to-pdb mode
		cmd := exec.Command(r.bins.Maxit, "-input", cif, "-output", pdb, "-o", "2")
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("maxit failed on %s: %v: %s", cif, err, strings.TrimSpace(string(out)))
		}
	}

	return nil
}
