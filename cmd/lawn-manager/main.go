package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/i474232898/lawn-manager/internal/config"
	"github.com/i474232898/lawn-manager/internal/reference"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "lawn-manager",
		Short:         "Lawn care rates, seasonal guidance and zone tracking",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("reference", "", "Chemical and grass table (YAML); built-in tables when empty")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(rateCmd())
	rootCmd.AddCommand(seasonCmd())
	rootCmd.AddCommand(chemicalsCmd())
	rootCmd.AddCommand(grassesCmd())

	return rootCmd
}

// loadTables reads the --reference file, then REFERENCE_FILE, falling back
// to the built-in tables.
func loadTables(cmd *cobra.Command) (*reference.Tables, error) {
	return tablesFrom(cmd, config.ReferenceFile())
}

func tablesFrom(cmd *cobra.Command, envPath string) (*reference.Tables, error) {
	path, _ := cmd.Flags().GetString("reference")
	if path == "" {
		path = envPath
	}
	if path == "" {
		return reference.Default(), nil
	}
	return reference.Load(path)
}
