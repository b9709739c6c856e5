package varfold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PrepareFlags are the parsed arguments to `varfold prepare`.
type PrepareFlags struct {
	// path to the variants FASTA
	variants string

	// path to the wild-type fold input with inline MSA/template data
	wtConfig string

	// directory to write one subdirectory per variant into
	out string

	// optional ligand to add to each variant config
	ligandSMILES string
	ligandID     string

	// optional modelSeeds override
	seeds []int

	// name of the config file written into each variant directory
	inputJSONName string
}

// newVariantDocument builds one variant config from the wild-type: the
// wild-type document with the job name, the targeted chain's sequence,
// and the alignment's query row replaced. Templates are structural and
// stay valid for point mutations, so they are carried over untouched.
//
// Errors if the variant length differs from the wild-type reference;
// the wild-type alignment's columns assume that fixed length.
func newVariantDocument(wt *Document, v Variant, flags *PrepareFlags) (*Document, error) {
	wtProtein, err := wt.FirstProtein()
	if err != nil {
		return nil, err
	}

	if len(v.Seq) != len(wtProtein.Sequence) {
		return nil, fmt.Errorf(
			"variant %s is %d residues, wild-type is %d: only point substitutions are supported",
			v.ID, len(v.Seq), len(wtProtein.Sequence),
		)
	}

	doc, err := wt.Clone()
	if err != nil {
		return nil, err
	}

	doc.Name = v.ID
	if flags.seeds != nil {
		doc.ModelSeeds = flags.seeds
	}

	protein, err := doc.FirstProtein()
	if err != nil {
		return nil, err
	}

	protein.Sequence = v.Seq
	if protein.UnpairedMSA != nil && *protein.UnpairedMSA != "" {
		msa := replaceQuery(*protein.UnpairedMSA, v.ID, v.Seq)
		protein.UnpairedMSA = &msa
	}

	// add the ligand, unless the wild-type already carries one
	if flags.ligandSMILES != "" && !doc.HasLigand() {
		doc.Sequences = append(doc.Sequences, Entry{
			Ligand: &Ligand{
				ID:     ChainID{flags.ligandID},
				SMILES: flags.ligandSMILES,
			},
		})
	}

	return doc, nil
}

// Prepare is the entry point of `varfold prepare`: it templates one
// config per variant into flags.out. Length-mismatched variants are
// reported and skipped, never written; any skip makes the whole run
// return an error so the caller exits non-zero.
func Prepare(flags *PrepareFlags) error {
	wt, err := ReadDocument(flags.wtConfig)
	if err != nil {
		return err
	}

	wtProtein, err := wt.FirstProtein()
	if err != nil {
		return err
	}

	stderr.Printf("wild-type: %s (%d aa)\n", wt.Name, len(wtProtein.Sequence))

	if wtProtein.Templates != nil {
		stderr.Printf("templates: %d structure(s)\n", len(*wtProtein.Templates))
	}
	if wtProtein.UnpairedMSA != nil && *wtProtein.UnpairedMSA != "" {
		// the alignment must agree with the reference before any
		// variant inherits it
		if err := checkAlignmentLength(*wtProtein.UnpairedMSA, len(wtProtein.Sequence)); err != nil {
			return fmt.Errorf("wild-type %s: %v", flags.wtConfig, err)
		}
		stderr.Printf("unpaired MSA: %d sequences\n", countSequences(*wtProtein.UnpairedMSA))
	}

	variants, err := readVariants(flags.variants)
	if err != nil {
		return err
	}
	stderr.Printf("loaded %d variant sequences\n", len(variants))

	if err = os.MkdirAll(flags.out, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %v", flags.out, err)
	}

	created := 0
	skipped := 0
	for _, v := range variants {
		if strings.ContainsAny(v.ID, `/\`) {
			stderr.Printf("skipping %s: id is not usable as a directory name\n", v.ID)
			skipped++
			continue
		}

		doc, err := newVariantDocument(wt, v, flags)
		if err != nil {
			stderr.Printf("skipping %s: %v\n", v.ID, err)
			skipped++
			continue
		}

		variantDir := filepath.Join(flags.out, v.ID)
		if err = os.MkdirAll(variantDir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %v", variantDir, err)
		}

		if err = WriteDocument(filepath.Join(variantDir, flags.inputJSONName), doc); err != nil {
			return err
		}
		created++
	}

	stderr.Printf("created %d variant configs in %s\n", created, flags.out)
	if skipped > 0 {
		return fmt.Errorf("skipped %d of %d variants", skipped, len(variants))
	}

	return nil
}
