package cmd

import (
	"github.com/charlesxu90/alphafold3/config"
	"github.com/charlesxu90/alphafold3/internal/varfold"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [input.json]",
	Short: "Run a single prediction from one fold input",
	Long: `Run the external inference process for a single fold input.

Precomputed A3M alignments can be attached with --a3m (applied to the first
protein chain) or --a3m-dir (per-chain files named {chainID}.a3m), skipping
the MSA search pipeline entirely. Path references inside the config are
resolved the same way "varfold batch" resolves them.`,
	Run: func(cmd *cobra.Command, args []string) {
		varfold.Run(varfold.ParseRunFlags(cmd, args), config.New())
	},
}

func init() {
	RootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("in", "i", "", "Fold input JSON path")
	runCmd.Flags().StringP("out", "o", "", "Output directory (default: the input's directory)")
	runCmd.Flags().String("a3m", "", "Unpaired A3M applied to the first protein chain")
	runCmd.Flags().String("a3m-dir", "", "Directory of per-chain A3M files named {chainID}.a3m")
	runCmd.Flags().BoolP("template-search", "t", false, "Search templates before inference")
	runCmd.Flags().Bool("inference", true, "Run the inference stage")
	runCmd.Flags().Bool("convert-pdb", false, "Convert mmCIF outputs to PDB with maxit")
	runCmd.Flags().IntP("device", "g", 0, "Accelerator device index (CUDA_VISIBLE_DEVICES)")
}
