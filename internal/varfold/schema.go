package varfold

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// foldInputSchema is the JSON schema the upstream entry point accepts.
//
//go:embed schema.json
var foldInputSchema string

// validateFoldInput checks raw fold input JSON against the schema.
// Schema violations are configuration errors: they are surfaced before
// a job is templated or dispatched, never mid-run.
func validateFoldInput(raw []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(foldInputSchema)
	docLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %v", err)
	}
	if result.Valid() {
		return nil
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, e.String())
	}

	return fmt.Errorf("%s", strings.Join(errs, "; "))
}

// checkChainIDs errors if any chain identifier appears on more than
// one entity within the document.
func checkChainIDs(d *Document) error {
	seen := map[string]bool{}

	add := func(ids ChainID) error {
		for _, id := range ids {
			if seen[id] {
				return fmt.Errorf("duplicate chain id %q in %s", id, d.Name)
			}
			seen[id] = true
		}
		return nil
	}

	for _, entry := range d.Sequences {
		var ids ChainID
		switch {
		case entry.Protein != nil:
			ids = entry.Protein.ID
		case entry.RNA != nil:
			ids = entry.RNA.ID
		case entry.DNA != nil:
			ids = entry.DNA.ID
		case entry.Ligand != nil:
			ids = entry.Ligand.ID
		}

		if err := add(ids); err != nil {
			return err
		}
	}

	return nil
}
