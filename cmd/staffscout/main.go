package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "staffscout",
	Short: "Enumerate a company's staff and derive username candidates",
	Long: `staffscout pages through the people search of a professional network for
one company, collects display names and occupations, and turns the names
into username lists in the common corporate formats.

Run it once from the command line with 'scrape', or as an HTTP service
with 'serve'. Settings are read from the environment or a .env file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scrapeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
