package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/siherrmann/linker/extract"
)

var (
	extractDir string
	extractOut string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract a catalog of entities from a source tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		extractor := extract.NewExtractor()
		entities, err := extractor.ExtractDir(context.Background(), extractDir)
		if err != nil {
			return fmt.Errorf("failed to extract entities: %w", err)
		}

		encoded, err := json.MarshalIndent(entities, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode catalog: %w", err)
		}

		if extractOut == "" {
			fmt.Println(string(encoded))
			return nil
		}

		if err := os.WriteFile(extractOut, encoded, 0o644); err != nil {
			return fmt.Errorf("failed to write catalog: %w", err)
		}
		fmt.Printf("Wrote %d entities to %s\n", len(entities), extractOut)
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractDir, "dir", "", "source directory to scan")
	extractCmd.Flags().StringVar(&extractOut, "out", "", "output catalog file (default stdout)")
	extractCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(extractCmd)
}
