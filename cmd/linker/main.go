// Command linker manages an entity mention linking store: loading
// catalogs, processing documents, searching and serving the HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/siherrmann/linker"
	"github.com/siherrmann/linker/helper"
)

var embeddingDim int

var rootCmd = &cobra.Command{
	Use:   "linker",
	Short: "Entity mention linker over a pgvector document store",
	Long: `linker extracts catalog entity mentions from documents, stores the
documents with embeddings in Postgres and builds a mention graph for
retrieval and digests.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is fine, the environment may be set directly.
		_ = godotenv.Load()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&embeddingDim, "embedding-dim", 384, "dimension of stored document embeddings")
}

// newLinker connects to the database configured via environment.
func newLinker() (*linker.Linker, error) {
	config, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return nil, fmt.Errorf("failed to read database configuration: %w", err)
	}
	return linker.NewLinker(config, embeddingDim)
}

// withCatalogPipeline builds the matcher and embedder from the stored
// catalog before running the command body.
func withCatalogPipeline(l *linker.Linker) error {
	if err := l.UseCatalogPipeline(nil); err != nil {
		return fmt.Errorf("failed to build catalog pipeline: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
