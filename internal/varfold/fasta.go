package varfold

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Variant is one record from a variants FASTA: an identifier and the
// substitute protein sequence. A variant carries no alignment data of
// its own; it inherits the wild-type's.
type Variant struct {
	// ID is the FASTA header token before the first whitespace
	ID string

	// Seq is the variant amino acid sequence
	Seq string
}

// readVariants reads a FASTA file (by its path on local FS) to a slice
// of Variants.
func readVariants(path string) (variants []Variant, err error) {
	if !filepath.IsAbs(path) {
		path, err = filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create path to variants file: %v", err)
		}
	}

	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return parseFasta(path, string(dat))
}

// parseFasta parses multi-FASTA contents to variants.
func parseFasta(path, contents string) (variants []Variant, err error) {
	// split by newlines
	lines := strings.Split(contents, "\n")

	// read in the headers
	var headerIndices []int
	var ids []string
	for i, line := range lines {
		if strings.HasPrefix(line, ">") {
			headerIndices = append(headerIndices, i)

			id := ""
			if fields := strings.Fields(line[1:]); len(fields) > 0 {
				id = fields[0]
			}
			ids = append(ids, id)
		}
	}

	// create a regex for cleaning the sequence
	var unwantedChars = regexp.MustCompile(`(?im)[^a-z*]|\W`)

	// accumulate the sequences from between the headers
	var seqs []string
	for i, headerIndex := range headerIndices {
		nextLine := len(lines)
		if i < len(headerIndices)-1 {
			nextLine = headerIndices[i+1]
		}
		seqLines := lines[headerIndex+1 : nextLine]
		seqJoined := strings.Join(seqLines, "")
		seq := unwantedChars.ReplaceAllString(seqJoined, "")
		seqs = append(seqs, strings.ToUpper(seq))
	}

	// build and return the new variants
	for i, id := range ids {
		if id == "" {
			return nil, fmt.Errorf("failed to parse %s: empty header at entry %d", path, i+1)
		}
		variants = append(variants, Variant{
			ID:  id,
			Seq: seqs[i],
		})
	}

	// opened and parsed file but found nothing
	if len(variants) < 1 {
		return variants, fmt.Errorf("failed to parse variant(s) from %s", path)
	}

	return
}
