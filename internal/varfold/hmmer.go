package varfold

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charlesxu90/alphafold3/config"
)

// hmmerExec is a small utility object for one template search: a
// profile HMM is built from the chain's alignment and searched against
// the PDB seqres database.
type hmmerExec struct {
	// hmmbuild and hmmsearch binary paths
	hmmbuild  string
	hmmsearch string

	// the chain's A3M alignment
	msa string

	// the seqres FASTA searched for template hits
	seqresDB string

	// working directory for the intermediate files
	dir string

	// e-value cutoff passed to hmmsearch
	maxEvalue float64
}

// input writes the alignment as aligned FASTA for hmmbuild. A3M
// lowercase insertion columns are stripped: they are not aligned to
// the query and hmmbuild expects every row the same width.
func (h *hmmerExec) input() (string, error) {
	var out strings.Builder
	for _, line := range strings.Split(h.msa, "\n") {
		if strings.HasPrefix(line, ">") {
			out.WriteString(line)
			out.WriteByte('\n')
			continue
		}

		for _, r := range line {
			if r == '-' || (r >= 'A' && r <= 'Z') {
				out.WriteRune(r)
			}
		}
		out.WriteByte('\n')
	}

	path := filepath.Join(h.dir, "query.afa")
	if err := os.WriteFile(path, []byte(out.String()), 0644); err != nil {
		return "", err
	}

	return path, nil
}

// build runs hmmbuild on the aligned FASTA, producing a profile HMM.
func (h *hmmerExec) build(afa string) (string, error) {
	hmm := filepath.Join(h.dir, "query.hmm")

	cmd := exec.Command(h.hmmbuild, "--amino", hmm, afa)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("hmmbuild failed: %v: %s", err, strings.TrimSpace(string(out)))
	}

	return hmm, nil
}

// search runs hmmsearch against the seqres database and returns the
// domain table output path.
func (h *hmmerExec) search(hmm string) (string, error) {
	tbl := filepath.Join(h.dir, "hits.domtbl")

	cmd := exec.Command(
		h.hmmsearch,
		"--noali",
		"--domtblout", tbl,
		"-E", strconv.FormatFloat(h.maxEvalue, 'g', -1, 64),
		hmm,
		h.seqresDB,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("hmmsearch failed: %v: %s", err, strings.TrimSpace(string(out)))
	}

	return tbl, nil
}

// hit is one domain row from hmmsearch's table output.
type hit struct {
	// target is the seqres entry name, ex: "1abc_A"
	target string

	// evalue is the domain's independent e-value
	evalue float64

	// alignment coordinates, 1-indexed inclusive: hmm (query profile)
	// and ali (target sequence)
	hmmFrom, hmmTo int
	aliFrom, aliTo int
}

// parseDomTbl parses hmmsearch --domtblout content to hits, keeping
// rows under the e-value cutoff.
func parseDomTbl(contents string, maxEvalue float64) (hits []hit, err error) {
	for _, line := range strings.Split(contents, "\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 21 {
			return nil, fmt.Errorf("failed to parse hmmsearch output row: %q", line)
		}

		evalue, err := strconv.ParseFloat(fields[12], 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse e-value %q: %v", fields[12], err)
		}
		if evalue > maxEvalue {
			continue
		}

		coords := make([]int, 4)
		for i, f := range fields[15:19] {
			if coords[i], err = strconv.Atoi(f); err != nil {
				return nil, fmt.Errorf("failed to parse coordinate %q: %v", f, err)
			}
		}

		hits = append(hits, hit{
			target:  fields[0],
			evalue:  evalue,
			hmmFrom: coords[0],
			hmmTo:   coords[1],
			aliFrom: coords[2],
			aliTo:   coords[3],
		})
	}

	return hits, nil
}

// template converts the hit into a fold input template entry: the
// mmCIF path of the PDB entry plus parallel 0-indexed query/template
// index lists over the aligned span.
func (h hit) template(pdbDir string) Template {
	pdbID := strings.ToLower(strings.SplitN(h.target, "_", 2)[0])

	span := h.hmmTo - h.hmmFrom
	if aliSpan := h.aliTo - h.aliFrom; aliSpan < span {
		span = aliSpan
	}

	query := make([]int, 0, span+1)
	templ := make([]int, 0, span+1)
	for i := 0; i <= span; i++ {
		query = append(query, h.hmmFrom-1+i)
		templ = append(templ, h.aliFrom-1+i)
	}

	return Template{
		MMCIFPath:       filepath.Join(pdbDir, pdbID+".cif"),
		QueryIndices:    query,
		TemplateIndices: templ,
	}
}

// hmmerSearcher satisfies templateSearcher with the configured HMMER
// binaries and databases.
type hmmerSearcher struct {
	bins      config.BinConfig
	seqresDB  string
	pdbDir    string
	maxHits   int
	maxEvalue float64
}

func newHmmerSearcher(c *config.Config) *hmmerSearcher {
	return &hmmerSearcher{
		bins:      c.Bins,
		seqresDB:  c.SeqresDB,
		pdbDir:    c.PDBDir,
		maxHits:   c.Templates.MaxHits,
		maxEvalue: c.Templates.MaxEvalue,
	}
}

// search builds a profile from the chain's alignment, searches the
// seqres database and returns up to maxHits template entries.
func (s *hmmerSearcher) search(p *Protein) ([]Template, error) {
	if _, err := os.Stat(s.seqresDB); os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to find seqres database at %s", s.seqresDB)
	}

	dir, err := os.MkdirTemp("", "varfold-hmmer-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	h := &hmmerExec{
		hmmbuild:  s.bins.Hmmbuild,
		hmmsearch: s.bins.Hmmsearch,
		msa:       *p.UnpairedMSA,
		seqresDB:  s.seqresDB,
		dir:       dir,
		maxEvalue: s.maxEvalue,
	}

	afa, err := h.input()
	if err != nil {
		return nil, err
	}

	hmm, err := h.build(afa)
	if err != nil {
		return nil, err
	}

	tbl, err := h.search(hmm)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(tbl)
	if err != nil {
		return nil, err
	}

	hits, err := parseDomTbl(string(raw), s.maxEvalue)
	if err != nil {
		return nil, err
	}

	templates := []Template{}
	for _, ht := range hits {
		if len(templates) >= s.maxHits {
			break
		}
		templates = append(templates, ht.template(s.pdbDir))
	}

	return templates, nil
}
