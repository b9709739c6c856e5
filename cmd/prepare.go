package cmd

import (
	"github.com/charlesxu90/alphafold3/internal/varfold"
	"github.com/spf13/cobra"
)

// prepareCmd represents the prepare command
var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Template per-variant fold inputs from a wild-type config",
	Long: `Generate one AlphaFold3 fold input per variant sequence.

Each variant config is a copy of the wild-type fold input with the job name,
the targeted chain's sequence, and the alignment's query row replaced. The
wild-type's MSA and templates are reused as is, so the expensive search
pipeline runs once for the wild-type instead of once per variant. Variants
whose length differs from the wild-type are rejected: the alignment's columns
assume the wild-type's length, and a mismatch would corrupt featurization.

Configs are written as <out>/<variant id>/input.json, ready for "varfold batch".`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := varfold.Prepare(varfold.ParsePrepareFlags(cmd, args)); err != nil {
			stderr.Fatal(err)
		}
	},
}

func init() {
	RootCmd.AddCommand(prepareCmd)

	prepareCmd.Flags().StringP("variants", "f", "", "Input FASTA with variant sequences")
	prepareCmd.Flags().StringP("wild-type", "w", "", "Wild-type fold input JSON with inline MSA/template data")
	prepareCmd.Flags().StringP("out", "o", "", "Output directory for variant configs")
	prepareCmd.Flags().String("ligand-smiles", "", "Optional ligand SMILES added to each variant")
	prepareCmd.Flags().String("ligand-id", "B", "Chain ID for the added ligand")
	prepareCmd.Flags().String("seeds", "", "Comma separated model seeds, overriding the wild-type's")
}
