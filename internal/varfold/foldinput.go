// Package varfold prepares AlphaFold3 fold inputs for point-variant
// batches and dispatches inference runs over directories of jobs.
package varfold

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ChainID is one or more chain identifiers for an entity. The upstream
// schema allows either a single string ("A") or a list (["A", "B"]);
// both forms round-trip through this type unchanged.
type ChainID []string

// MarshalJSON writes a lone id as a string and multiple ids as a list.
func (c ChainID) MarshalJSON() ([]byte, error) {
	if len(c) == 1 {
		return json.Marshal(c[0])
	}
	return json.Marshal([]string(c))
}

// UnmarshalJSON accepts both the string and the list form.
func (c *ChainID) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*c = ChainID{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("chain id is neither a string nor a list: %s", data)
	}
	*c = ChainID(many)
	return nil
}

// Template is one structural template attached to a protein chain.
// Either the mmCIF content is inlined or a path to it is referenced.
type Template struct {
	MMCIF           string `json:"mmcif,omitempty"`
	MMCIFPath       string `json:"mmcifPath,omitempty"`
	QueryIndices    []int  `json:"queryIndices,omitempty"`
	TemplateIndices []int  `json:"templateIndices,omitempty"`
}

// Protein is a protein chain entry in a fold input.
//
// UnpairedMSA, PairedMSA and Templates are pointers so that the
// difference between an absent key and an explicitly empty value
// survives a read/write round trip: upstream treats an empty string
// as "run the search pipeline for this chain" and a missing key the
// same way, but a present-and-filled value as "use this as is".
type Protein struct {
	ID            ChainID         `json:"id"`
	Sequence      string          `json:"sequence"`
	Modifications json.RawMessage `json:"modifications,omitempty"`

	// inline alignment data
	UnpairedMSA *string     `json:"unpairedMsa,omitempty"`
	PairedMSA   *string     `json:"pairedMsa,omitempty"`
	Templates   *[]Template `json:"templates,omitempty"`

	// path reference to an external A3M file, resolved against the
	// directory of the fold input that carries it
	MSAPath string `json:"msa_path,omitempty"`
}

// RNA is an RNA chain entry.
type RNA struct {
	ID            ChainID         `json:"id"`
	Sequence      string          `json:"sequence"`
	Modifications json.RawMessage `json:"modifications,omitempty"`
	UnpairedMSA   *string         `json:"unpairedMsa,omitempty"`
}

// DNA is a DNA chain entry.
type DNA struct {
	ID            ChainID         `json:"id"`
	Sequence      string          `json:"sequence"`
	Modifications json.RawMessage `json:"modifications,omitempty"`
}

// Ligand is a small-molecule entry, identified by SMILES or CCD codes.
type Ligand struct {
	ID       ChainID  `json:"id"`
	SMILES   string   `json:"smiles,omitempty"`
	CCDCodes []string `json:"ccdCodes,omitempty"`
}

// Entry is one element of the sequences list. Exactly one of the
// fields is set.
type Entry struct {
	Protein *Protein `json:"protein,omitempty"`
	RNA     *RNA     `json:"rna,omitempty"`
	DNA     *DNA     `json:"dna,omitempty"`
	Ligand  *Ligand  `json:"ligand,omitempty"`
}

// Document is one AlphaFold3 fold input config: a named prediction job
// with its chain entries, seeds and schema dialect tag.
type Document struct {
	Name            string          `json:"name"`
	ModelSeeds      []int           `json:"modelSeeds"`
	Sequences       []Entry         `json:"sequences"`
	BondedAtomPairs json.RawMessage `json:"bondedAtomPairs,omitempty"`
	UserCCD         string          `json:"userCCD,omitempty"`
	Dialect         string          `json:"dialect"`
	Version         int             `json:"version"`
}

// FirstProtein returns the first protein entry, the chain the
// templater targets. Multi-protein inputs are valid for dispatch but
// not for variant templating.
func (d *Document) FirstProtein() (*Protein, error) {
	for _, entry := range d.Sequences {
		if entry.Protein != nil {
			return entry.Protein, nil
		}
	}

	return nil, fmt.Errorf("no protein entity found in %s", d.Name)
}

// HasLigand reports whether any entry is a ligand.
func (d *Document) HasLigand() bool {
	for _, entry := range d.Sequences {
		if entry.Ligand != nil {
			return true
		}
	}

	return false
}

// Clone deep-copies the document via a JSON round trip. The document
// is plain data, so the round trip is lossless.
func (d *Document) Clone() (*Document, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}

	clone := &Document{}
	if err := json.Unmarshal(raw, clone); err != nil {
		return nil, err
	}

	return clone, nil
}

// Marshal renders the document in the canonical on-disk form:
// two-space indented with a trailing newline. Both the templater and
// the dispatcher write through this path so that configs produced from
// the same wild-type are comparable byte for byte.
func (d *Document) Marshal() ([]byte, error) {
	raw, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, err
	}

	return append(raw, '\n'), nil
}

// ReadDocument reads and validates a fold input config from path.
func ReadDocument(path string) (*Document, error) {
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create path to fold input: %v", err)
		}
		path = abs
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := validateFoldInput(raw); err != nil {
		return nil, fmt.Errorf("invalid fold input %s: %v", path, err)
	}

	doc := &Document{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %v", path, err)
	}

	if err := checkChainIDs(doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// WriteDocument writes the document to path in the canonical form.
func WriteDocument(path string, d *Document) error {
	raw, err := d.Marshal()
	if err != nil {
		return err
	}

	return os.WriteFile(path, raw, 0644)
}
