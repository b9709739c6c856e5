package varfold

import (
	"fmt"
	"os"
	"strings"
)

// An A3M alignment is FASTA-like: '>' headers followed by aligned rows.
// Uppercase letters and '-' are aligned columns relative to the query;
// lowercase letters are insertions and do not count toward the aligned
// length. The first entry is the query itself.

// cleanA3M normalizes raw A3M content: CRLF endings are converted,
// blank lines dropped. Errors if the content does not start with a
// FASTA header.
func cleanA3M(content string) (string, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var kept []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		kept = append(kept, line)
	}

	if len(kept) == 0 || !strings.HasPrefix(kept[0], ">") {
		return "", fmt.Errorf("not an A3M alignment: expected a '>' header on the first line")
	}

	return strings.Join(kept, "\n"), nil
}

// loadA3M reads and normalizes an A3M file.
func loadA3M(path string) (string, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read alignment file: %v", err)
	}

	msa, err := cleanA3M(string(dat))
	if err != nil {
		return "", fmt.Errorf("%s: %v", path, err)
	}

	return msa, nil
}

// alignedLength counts the aligned columns of one A3M row: uppercase
// residues and gaps, excluding lowercase insertions.
func alignedLength(row string) int {
	n := 0
	for _, r := range row {
		if r == '-' || (r >= 'A' && r <= 'Z') {
			n++
		}
	}

	return n
}

// querySequence returns the first (query) sequence of the alignment.
func querySequence(msa string) (string, error) {
	lines := strings.Split(msa, "\n")
	if len(lines) < 2 || !strings.HasPrefix(lines[0], ">") {
		return "", fmt.Errorf("alignment has no query entry")
	}

	// the query may span multiple lines up to the next header
	var parts []string
	for _, line := range lines[1:] {
		if strings.HasPrefix(line, ">") {
			break
		}
		parts = append(parts, strings.TrimSpace(line))
	}

	query := strings.Join(parts, "")
	if query == "" {
		return "", fmt.Errorf("alignment has an empty query row")
	}

	return query, nil
}

// countSequences returns the number of entries in the alignment.
func countSequences(msa string) int {
	return strings.Count(msa, ">")
}

// replaceQuery swaps the alignment's first entry for the variant: the
// first header becomes the variant name and the query rows, wrapped or
// not, collapse into the single variant sequence row. Every other
// entry passes through untouched, so the alignment columns stay valid
// as long as the variant length matches the wild-type query.
func replaceQuery(msa, name, seq string) string {
	lines := strings.Split(msa, "\n")

	var result []string
	firstEntry := true
	inQuery := false

	for _, line := range lines {
		if strings.HasPrefix(line, ">") {
			if firstEntry {
				result = append(result, ">"+name, seq)
				inQuery = true
				firstEntry = false
			} else {
				result = append(result, line)
				inQuery = false
			}
			continue
		}

		if !inQuery {
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// checkAlignmentLength errors if the alignment's query row disagrees
// with the expected reference length. A length-mismatched alignment
// silently corrupts featurization downstream, so this is surfaced
// before any config is written or dispatched.
func checkAlignmentLength(msa string, want int) error {
	query, err := querySequence(msa)
	if err != nil {
		return err
	}

	if got := alignedLength(query); got != want {
		return fmt.Errorf("alignment query is %d aligned columns, sequence is %d residues", got, want)
	}

	return nil
}
