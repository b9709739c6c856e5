package varfold

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubRunner records invocations instead of launching processes.
type stubRunner struct {
	ran       []string
	converted []string

	// failOn makes run error for the job directory with this base name
	failOn string
}

func (s *stubRunner) run(jsonPath, outDir string) error {
	if s.failOn != "" && filepath.Base(outDir) == s.failOn {
		return errors.New("inference process failed")
	}
	s.ran = append(s.ran, jsonPath)
	return nil
}

func (s *stubRunner) convert(outDir string) error {
	s.converted = append(s.converted, outDir)
	return nil
}

// stubSearcher returns a fixed template list.
type stubSearcher struct {
	calls int
}

func (s *stubSearcher) search(p *Protein) ([]Template, error) {
	s.calls++
	return []Template{{MMCIFPath: "1abc.cif", QueryIndices: []int{0}, TemplateIndices: []int{0}}}, nil
}

// writeJob writes one job directory with the given document.
func writeJob(t *testing.T, base, name string, doc *Document) string {
	t.Helper()

	dir := filepath.Join(base, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, WriteDocument(filepath.Join(dir, "input.json"), doc))

	return dir
}

// inlineJob is a complete job document with inline MSA and templates.
func inlineJob(name string) *Document {
	doc := testWT()
	doc.Name = name
	return doc
}

// referenceJob is a job document whose alignment is a path reference.
func referenceJob(name, msaPath string) *Document {
	return &Document{
		Name:       name,
		ModelSeeds: []int{1},
		Sequences: []Entry{
			{Protein: &Protein{ID: ChainID{"A"}, Sequence: "MKKLV", MSAPath: msaPath}},
		},
		Dialect: "alphafold3",
		Version: 1,
	}
}

func testBatchFlags(dir string) *BatchFlags {
	return &BatchFlags{
		dir:           dir,
		inputJSONName: "input.json",
		outputMarker:  "model_output.cif",
		runInference:  true,
	}
}

func Test_findJobDirs(t *testing.T) {
	base := t.TempDir()
	writeJob(t, base, "seq_0", inlineJob("seq_0"))
	writeJob(t, base, "seq_1", inlineJob("seq_1"))

	// a subdirectory without a config is not a job
	require.NoError(t, os.MkdirAll(filepath.Join(base, "not_a_job"), 0755))

	dirs, err := findJobDirs(base, "input.json")
	require.NoError(t, err)
	require.Len(t, dirs, 2)
	require.Equal(t, "seq_0", filepath.Base(dirs[0]))
	require.Equal(t, "seq_1", filepath.Base(dirs[1]))

	// the base directory itself counts when it holds a config
	require.NoError(t, WriteDocument(filepath.Join(base, "input.json"), inlineJob("base")))
	dirs, err = findJobDirs(base, "input.json")
	require.NoError(t, err)
	require.Len(t, dirs, 3)

	// an empty directory is an error
	_, err = findJobDirs(t.TempDir(), "input.json")
	require.Error(t, err)
}

func Test_isComplete(t *testing.T) {
	dir := t.TempDir()
	require.False(t, isComplete(dir, "model_output.cif"))

	// bare marker
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model_output.cif"), []byte("x"), 0644))
	require.True(t, isComplete(dir, "model_output.cif"))

	// seed-prefixed marker
	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seed1234_model_output.cif"), []byte("x"), 0644))
	require.True(t, isComplete(dir, "model_output.cif"))
}

func Test_runBatch_skipExistingAll(t *testing.T) {
	base := t.TempDir()
	for _, name := range []string{"seq_0", "seq_1"} {
		dir := writeJob(t, base, name, inlineJob(name))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "model_output.cif"), []byte("x"), 0644))
	}

	dirs, err := findJobDirs(base, "input.json")
	require.NoError(t, err)

	flags := testBatchFlags(base)
	flags.skipExisting = true

	r := &stubRunner{}
	report := runBatch(dirs, flags, r, nil)

	// zero inference invocations over a fully completed directory
	require.Empty(t, r.ran)
	require.Equal(t, 2, report.Skipped)
	require.Equal(t, 0, report.Completed)
	require.Equal(t, 0, report.Failed)
}

func Test_runBatch_skipExistingMixed(t *testing.T) {
	base := t.TempDir()

	done := writeJob(t, base, "seq_0", inlineJob("seq_0"))
	require.NoError(t, os.WriteFile(filepath.Join(done, "seed1_model_output.cif"), []byte("x"), 0644))
	pending := writeJob(t, base, "seq_1", inlineJob("seq_1"))

	dirs, err := findJobDirs(base, "input.json")
	require.NoError(t, err)

	flags := testBatchFlags(base)
	flags.skipExisting = true

	r := &stubRunner{}
	report := runBatch(dirs, flags, r, nil)

	// only the incomplete job was dispatched
	require.Equal(t, []string{filepath.Join(pending, "input.json")}, r.ran)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, 1, report.Completed)
}

func Test_runBatch_failureIsolation(t *testing.T) {
	base := t.TempDir()
	writeJob(t, base, "seq_0", inlineJob("seq_0"))
	writeJob(t, base, "seq_1", inlineJob("seq_1"))
	writeJob(t, base, "seq_2", inlineJob("seq_2"))

	dirs, err := findJobDirs(base, "input.json")
	require.NoError(t, err)

	r := &stubRunner{failOn: "seq_1"}
	report := runBatch(dirs, testBatchFlags(base), r, nil)

	// the failure did not abort the remaining batch
	require.Len(t, r.ran, 2)
	require.Equal(t, 2, report.Completed)
	require.Equal(t, 1, report.Failed)
	require.Equal(t, JobFailed, report.Jobs[1].Status)
	require.Contains(t, report.Jobs[1].Error, "inference process failed")
}

func Test_processJob_inline(t *testing.T) {
	base := t.TempDir()
	dir := writeJob(t, base, "seq_0", inlineJob("seq_0"))

	r := &stubRunner{}
	ts := &stubSearcher{}
	flags := testBatchFlags(base)
	flags.templateSearch = true

	require.NoError(t, processJob(dir, flags, r, ts))

	// inline data: routed straight to inference, no file loading, no
	// search, and the original config is what runs
	require.Equal(t, []string{filepath.Join(dir, "input.json")}, r.ran)
	require.Zero(t, ts.calls)
}

func Test_processJob_reference(t *testing.T) {
	base := t.TempDir()
	dir := writeJob(t, base, "seq_0", referenceJob("seq_0", "A.a3m"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.a3m"), []byte(">q\nMKKLV\n>h\nMK-LV\n"), 0644))

	r := &stubRunner{}
	ts := &stubSearcher{}
	flags := testBatchFlags(base)
	flags.templateSearch = true

	require.NoError(t, processJob(dir, flags, r, ts))

	// the load-then-search path ran and produced a resolved config
	require.Equal(t, 1, ts.calls)
	resolved := filepath.Join(dir, "input.resolved.json")
	require.Equal(t, []string{resolved}, r.ran)

	doc, err := ReadDocument(resolved)
	require.NoError(t, err)
	p := doc.Sequences[0].Protein
	require.Empty(t, p.MSAPath)
	require.NotNil(t, p.UnpairedMSA)
	require.Contains(t, *p.UnpairedMSA, ">q\nMKKLV")
	require.NotNil(t, p.Templates)
	require.Len(t, *p.Templates, 1)

	// the original config was not mutated in place
	orig, err := ReadDocument(filepath.Join(dir, "input.json"))
	require.NoError(t, err)
	require.Equal(t, "A.a3m", orig.Sequences[0].Protein.MSAPath)
}

func Test_processJob_referenceMissingFile(t *testing.T) {
	base := t.TempDir()
	dir := writeJob(t, base, "seq_0", referenceJob("seq_0", "missing.a3m"))

	r := &stubRunner{}
	err := processJob(dir, testBatchFlags(base), r, nil)

	// fails clearly, before any inference invocation
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing.a3m")
	require.Empty(t, r.ran)
}

func Test_processJob_referenceLengthMismatch(t *testing.T) {
	base := t.TempDir()
	dir := writeJob(t, base, "seq_0", referenceJob("seq_0", "A.a3m"))

	// three aligned columns against a five residue chain
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.a3m"), []byte(">q\nMKK\n"), 0644))

	r := &stubRunner{}
	err := processJob(dir, testBatchFlags(base), r, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "aligned columns")
	require.Empty(t, r.ran)
}

func Test_processJob_convert(t *testing.T) {
	base := t.TempDir()
	dir := writeJob(t, base, "seq_0", inlineJob("seq_0"))

	r := &stubRunner{}
	flags := testBatchFlags(base)
	flags.convertPDB = true

	require.NoError(t, processJob(dir, flags, r, nil))
	require.Equal(t, []string{dir}, r.converted)
}
