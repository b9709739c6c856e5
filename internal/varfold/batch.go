package varfold

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charlesxu90/alphafold3/config"
)

// BatchFlags are the parsed arguments to `varfold batch`.
type BatchFlags struct {
	// directory whose children are per-job subdirectories
	dir string

	// name of the config file looked for in each job directory
	inputJSONName string

	// output file checked to decide whether a job already completed
	outputMarker string

	// skip jobs whose output marker already exists
	skipExisting bool

	// search templates for jobs that have an MSA but no templates
	templateSearch bool

	// invoke the inference stage (vs data preparation only)
	runInference bool

	// convert produced mmCIF outputs to PDB
	convertPDB bool

	// accelerator device index, exported as CUDA_VISIBLE_DEVICES
	device int

	// path the batch report is written to
	report string
}

// runner invokes the external inference process for one job.
type runner interface {
	run(jsonPath, outDir string) error
	convert(outDir string) error
}

// templateSearcher finds structural templates for a chain with a
// precomputed alignment.
type templateSearcher interface {
	search(p *Protein) ([]Template, error)
}

// Batch is the entry point of `varfold batch`: enumerate job
// directories, filter completed ones, dispatch the rest sequentially,
// and report. A failing job never aborts the remaining batch.
func Batch(flags *BatchFlags, c *config.Config) {
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

	dirs, err := findJobDirs(flags.dir, flags.inputJSONName)
	if err != nil {
		stderr.Fatal(err)
	}
	stderr.Printf("found %d job directories in %s\n", len(dirs), flags.dir)

	var searcher templateSearcher
	if flags.templateSearch {
		searcher = newHmmerSearcher(c)
	}

	report := runBatch(dirs, flags, newAF3Runner(c, flags), searcher)
	report.log()

	if report.Skipped == report.Total {
		stderr.Println("all predictions already complete, nothing to do")
	}

	reportPath := flags.report
	if reportPath == "" {
		reportPath = filepath.Join(flags.dir, "batch_report.json")
	}
	if err := report.write(reportPath); err != nil {
		stderr.Printf("failed to write batch report: %v\n", err)
	}

	if report.Failed > 0 {
		stderr.Fatalf("%d of %d jobs failed", report.Failed, report.Total)
	}
}

// runBatch dispatches each job in order and collects per-job outcomes.
// Failures are isolated: they are recorded and the loop continues.
// The pre-existing-output check happens here, per job at dispatch
// time, so a rerun is safely re-entrant from any partial completion
// point.
func runBatch(dirs []string, flags *BatchFlags, r runner, ts templateSearcher) *Report {
	report := newReport(flags.dir, len(dirs))

	for i, dir := range dirs {
		name := filepath.Base(dir)

		if flags.skipExisting && isComplete(dir, flags.outputMarker) {
			stderr.Printf("[%d/%d] skipping %s, output exists\n", i+1, len(dirs), name)
			report.add(JobResult{Name: name, Dir: dir, Status: JobSkipped})
			continue
		}

		stderr.Printf("[%d/%d] processing %s\n", i+1, len(dirs), name)

		start := time.Now()
		err := processJob(dir, flags, r, ts)
		elapsed := time.Since(start).Seconds()

		if err != nil {
			stderr.Printf("[%d/%d] failed %s: %v\n", i+1, len(dirs), name, err)
			report.add(JobResult{Name: name, Dir: dir, Status: JobFailed, Seconds: elapsed, Error: err.Error()})
			continue
		}

		stderr.Printf("[%d/%d] completed %s in %.1fs\n", i+1, len(dirs), name, elapsed)
		report.add(JobResult{Name: name, Dir: dir, Status: JobCompleted, Seconds: elapsed})
	}

	return report
}

// processJob classifies one job's alignment source, resolves path
// references when needed, and invokes the external inference process.
// Outputs are written into the job's own directory.
func processJob(dir string, flags *BatchFlags, r runner, ts templateSearcher) error {
	jsonPath := filepath.Join(dir, flags.inputJSONName)

	doc, err := ReadDocument(jsonPath)
	if err != nil {
		return err
	}

	runPath := jsonPath
	switch src := classify(doc).(type) {
	case alignmentReference:
		stderr.Printf("  alignment referenced by path, loading %d file(s)\n", len(src.paths))
		if err := resolveReferences(doc, dir); err != nil {
			return err
		}
		if flags.templateSearch && ts != nil {
			if err := attachTemplates(doc, ts); err != nil {
				return err
			}
		}
		if runPath, err = writeResolved(doc, dir, flags.inputJSONName); err != nil {
			return err
		}

	case inlineAlignment:
		if !src.hasTemplates && flags.templateSearch && ts != nil {
			stderr.Println("  inline alignment without templates, searching")
			if err := attachTemplates(doc, ts); err != nil {
				return err
			}
			if runPath, err = writeResolved(doc, dir, flags.inputJSONName); err != nil {
				return err
			}
		} else {
			stderr.Println("  inline alignment data, skipping search")
		}

	case noAlignment:
		stderr.Println("  warning: no alignment source in fold input")
	}

	if err := r.run(runPath, dir); err != nil {
		return err
	}

	if flags.convertPDB {
		return r.convert(dir)
	}

	return nil
}

// resolveReferences loads each referenced A3M into its chain entry.
// Relative paths are resolved against the job directory. The loaded
// alignment must agree with the chain's sequence length before it is
// inlined.
func resolveReferences(doc *Document, dir string) error {
	for _, entry := range doc.Sequences {
		p := entry.Protein
		if p == nil || p.MSAPath == "" {
			continue
		}

		path := p.MSAPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("failed to find alignment file at %s", path)
		}

		msa, err := loadA3M(path)
		if err != nil {
			return err
		}
		if err := checkAlignmentLength(msa, len(p.Sequence)); err != nil {
			return fmt.Errorf("%s: %v", path, err)
		}

		p.UnpairedMSA = &msa
		p.MSAPath = ""
	}

	return nil
}

// attachTemplates runs the template search for every protein chain
// that has an alignment but no templates entry yet.
func attachTemplates(doc *Document, ts templateSearcher) error {
	for _, entry := range doc.Sequences {
		p := entry.Protein
		if p == nil || p.Templates != nil {
			continue
		}
		if p.UnpairedMSA == nil || *p.UnpairedMSA == "" {
			continue
		}

		templates, err := ts.search(p)
		if err != nil {
			return fmt.Errorf("template search failed: %v", err)
		}
		p.Templates = &templates
	}

	return nil
}

// writeResolved writes the job's fully inlined config next to the
// original, which is never mutated in place.
func writeResolved(doc *Document, dir, inputJSONName string) (string, error) {
	name := strings.TrimSuffix(inputJSONName, filepath.Ext(inputJSONName)) + ".resolved.json"
	path := filepath.Join(dir, name)

	if err := WriteDocument(path, doc); err != nil {
		return "", fmt.Errorf("failed to write resolved config: %v", err)
	}

	return path, nil
}

// findJobDirs returns the base directory itself, when it holds a
// config, plus every immediate subdirectory that does, sorted by name.
func findJobDirs(base, inputJSONName string) ([]string, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, err
	}

	var dirs []string
	if _, err := os.Stat(filepath.Join(abs, inputJSONName)); err == nil {
		dirs = append(dirs, abs)
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch directory %s: %v", base, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		sub := filepath.Join(abs, entry.Name())
		if _, err := os.Stat(filepath.Join(sub, inputJSONName)); err == nil {
			dirs = append(dirs, sub)
		}
	}

	if len(dirs) == 0 {
		return nil, fmt.Errorf("no job directories with %s found under %s", inputJSONName, base)
	}

	sort.Strings(dirs)
	return dirs, nil
}

// isComplete reports whether a job's expected output artifact already
// exists: the marker file bare, or prefixed by any seed (`*_marker`).
func isComplete(dir, marker string) bool {
	matches, err := filepath.Glob(filepath.Join(dir, "*_"+marker))
	if err == nil && len(matches) > 0 {
		return true
	}

	if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
		return true
	}

	return false
}
