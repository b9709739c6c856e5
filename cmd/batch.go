package cmd

import (
	"github.com/charlesxu90/alphafold3/config"
	"github.com/charlesxu90/alphafold3/internal/varfold"
	"github.com/spf13/cobra"
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch [dir]",
	Short: "Run predictions over a directory of per-variant job directories",
	Long: `Scan a directory for job subdirectories containing a fold input and run the
external inference process once per job, sequentially, on one device.

Each job is classified by how it carries its alignment data: configs with an
inline MSA run directly, configs that reference an A3M file by path have the
file loaded (and templates searched, with --template-search) first. With
--skip-existing, jobs whose output marker file already exists are skipped, so
an interrupted batch can be rerun from where it stopped. A failing job is
logged and the batch continues; the exit code is non-zero if any job failed.`,
	Run: func(cmd *cobra.Command, args []string) {
		varfold.Batch(varfold.ParseBatchFlags(cmd, args), config.New())
	},
}

func init() {
	RootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringP("dir", "d", "", "Directory with per-job subdirectories")
	batchCmd.Flags().BoolP("skip-existing", "k", false, "Skip jobs whose output already exists")
	batchCmd.Flags().BoolP("template-search", "t", false, "Search templates for jobs without any")
	batchCmd.Flags().Bool("inference", true, "Run the inference stage")
	batchCmd.Flags().Bool("convert-pdb", false, "Convert mmCIF outputs to PDB with maxit")
	batchCmd.Flags().IntP("device", "g", 0, "Accelerator device index (CUDA_VISIBLE_DEVICES)")
	batchCmd.Flags().StringP("report", "r", "", "Path for the batch report (default <dir>/batch_report.json)")
}
