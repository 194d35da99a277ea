// Package main is rosterctl, the command-line companion of the rosterd
// engine: solve an input document offline and export results to Excel.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rosterctl",
	Short: "Roster engine command-line tool",
	Long:  "rosterctl solves monthly shift rosters from JSON input documents and exports results.",
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	decimal.MarshalJSONWithoutQuotes = true
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(exportCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
