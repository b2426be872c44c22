package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loadCatalogPath string

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load an entity catalog into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLinker()
		if err != nil {
			return err
		}
		defer l.Close()

		count, err := l.LoadCatalog(loadCatalogPath)
		if err != nil {
			return err
		}

		fmt.Printf("Loaded %d entities from %s\n", count, loadCatalogPath)
		return nil
	},
}

func init() {
	loadCmd.Flags().StringVar(&loadCatalogPath, "catalog", "", "path to the catalog JSON export")
	loadCmd.MarkFlagRequired("catalog")
	rootCmd.AddCommand(loadCmd)
}
