package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amara/rosterd/internal/export"
	"github.com/amara/rosterd/internal/model"
)

var (
	exportInputPath string
	exportXlsxPath  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a solved roster to an Excel workbook",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportInputPath, "input", "i", "", "output JSON document from a solve (required)")
	exportCmd.Flags().StringVarP(&exportXlsxPath, "xlsx", "x", "roster.xlsx", "workbook file to write")
	_ = exportCmd.MarkFlagRequired("input")
}

func runExport(cmd *cobra.Command, _ []string) error {
	raw, err := os.ReadFile(exportInputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	var out model.Output
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("parse roster output: %w", err)
	}

	if err := export.WriteFile(&out, exportXlsxPath); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", exportXlsxPath)
	return nil
}
