package cmd

import (
	"fmt"

	"github.com/charlesxu90/alphafold3/config"
	"github.com/spf13/cobra"
)

// settingsCmd represents the settings command
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Print the effective settings as YAML",
	Long: `Print the settings the other commands would run with: the defaults, merged
with settings.yaml and any command line overrides.`,
	Run: func(cmd *cobra.Command, args []string) {
		out, err := config.New().YAML()
		if err != nil {
			stderr.Fatal(err)
		}
		fmt.Print(out)
	},
}

func init() {
	RootCmd.AddCommand(settingsCmd)
}
