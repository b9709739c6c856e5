// Package cmd is for command line interactions with the varfold application
package cmd

import (
	"log"
	"os"

	"github.com/charlesxu90/alphafold3/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// stderr is for logging to Stderr (without an annoying timestamp)
var stderr = log.New(os.Stderr, "", 0)

// settingsFile is an optional explicit path to a settings.yaml.
var settingsFile string

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use: "varfold",
	Short: `Prepare and batch-run AlphaFold3 predictions for protein point-variants,
reusing a wild-type's precomputed MSA and template data`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

func init() {
	cobra.OnInitialize(initSettings)

	RootCmd.PersistentFlags().StringVarP(&settingsFile, "settings", "s", "", "Path to a settings.yaml, overriding the defaults")
	RootCmd.PersistentFlags().StringP("model-dir", "m", "", "Path to the model weights directory")
	RootCmd.PersistentFlags().StringP("db-dir", "b", "", "Path to the sequence database directory")

	viper.BindPFlag("model-dir", RootCmd.PersistentFlags().Lookup("model-dir"))
	viper.BindPFlag("db-dir", RootCmd.PersistentFlags().Lookup("db-dir"))
}

// initSettings reads defaults, then settings.yaml, then environment
// variables into viper. Command line flags override everything.
func initSettings() {
	config.SetDefaults()

	if settingsFile != "" {
		viper.SetConfigFile(settingsFile)
	} else {
		viper.SetConfigName("settings")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.varfold")
	}

	viper.SetEnvPrefix("VARFOLD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// the settings file is optional unless one was named explicitly
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && settingsFile != "" {
			log.Fatalf("failed to read settings at %s: %v", settingsFile, err)
		}
	}
}
