package varfold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charlesxu90/alphafold3/config"
)

// RunFlags are the parsed arguments to `varfold run`.
type RunFlags struct {
	// path to the fold input config
	input string

	// directory the outputs are written into
	out string

	// optional A3M applied to the first protein chain
	a3mPath string

	// optional directory of per-chain A3M files named {chainID}.a3m
	a3mDir string

	// stage toggles
	templateSearch bool
	runInference   bool
	convertPDB     bool

	// accelerator device index
	device int
}

// Run is the entry point of `varfold run`: one fold input, optional
// A3M attachment, one inference invocation.
func Run(flags *RunFlags, c *config.Config) {
	if flags.runInference {
		if err := c.CheckModelDir(); err != nil {
			stderr.Fatal(err)
		}
	}
	if flags.templateSearch {
		if err := c.CheckDBDir(); err != nil {
			stderr.Fatal(err)
		}
	}

	var searcher templateSearcher
	if flags.templateSearch {
		searcher = newHmmerSearcher(c)
	}

	r := newAF3Runner(c, &BatchFlags{
		runInference: flags.runInference,
		device:       flags.device,
	})

	if err := runSingle(flags, r, searcher); err != nil {
		stderr.Fatal(err)
	}

	stderr.Printf("done, results saved to %s\n", flags.out)
}

// runSingle prepares and dispatches the one job: attach explicit A3Ms,
// resolve path references, search templates when asked, then invoke
// the inference process. A config changed by any of those steps is
// written into the output directory first; the original is never
// mutated in place.
func runSingle(flags *RunFlags, r runner, ts templateSearcher) error {
	doc, err := ReadDocument(flags.input)
	if err != nil {
		return err
	}
	stderr.Printf("processing fold input: %s\n", doc.Name)

	inputDir := filepath.Dir(flags.input)
	changed := false

	if flags.a3mPath != "" || flags.a3mDir != "" {
		if err = attachA3Ms(doc, flags.a3mPath, flags.a3mDir); err != nil {
			return err
		}
		changed = true
	}

	if _, ok := classify(doc).(alignmentReference); ok {
		if err = resolveReferences(doc, inputDir); err != nil {
			return err
		}
		changed = true
	}

	if flags.templateSearch && ts != nil {
		if err = attachTemplates(doc, ts); err != nil {
			return err
		}
		changed = true
	}

	if _, ok := classify(doc).(noAlignment); ok {
		stderr.Println("warning: no alignment source in fold input")
	}

	if err = os.MkdirAll(flags.out, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %v", flags.out, err)
	}

	runPath := flags.input
	if changed {
		if runPath, err = writeResolved(doc, flags.out, filepath.Base(flags.input)); err != nil {
			return err
		}
	}

	if err = r.run(runPath, flags.out); err != nil {
		return err
	}

	if flags.convertPDB {
		return r.convert(flags.out)
	}

	return nil
}

// attachA3Ms inlines explicitly passed A3M files: a per-chain
// directory of {chainID}.a3m files, or a single file applied to the
// first protein chain, replacing any alignment it already carries.
func attachA3Ms(doc *Document, a3mPath, a3mDir string) error {
	appliedSingle := false

	for _, entry := range doc.Sequences {
		p := entry.Protein
		if p == nil {
			continue
		}

		var path string
		if a3mDir != "" && len(p.ID) > 0 {
			chainPath := filepath.Join(a3mDir, p.ID[0]+".a3m")
			if _, err := os.Stat(chainPath); err == nil {
				path = chainPath
			}
		} else if a3mPath != "" && !appliedSingle {
			path = a3mPath
			appliedSingle = true
		}

		if path == "" {
			continue
		}

		msa, err := loadA3M(path)
		if err != nil {
			return err
		}
		if err := checkAlignmentLength(msa, len(p.Sequence)); err != nil {
			return fmt.Errorf("%s: %v", path, err)
		}

		chain := ""
		if len(p.ID) > 0 {
			chain = p.ID[0]
		}
		stderr.Printf("loaded unpaired MSA for chain %s from %s\n", chain, path)

		p.UnpairedMSA = &msa
		p.MSAPath = ""
	}

	return nil
}
