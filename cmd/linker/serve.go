package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/siherrmann/linker/server"
	"github.com/siherrmann/linker/summarize"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLinker()
		if err != nil {
			return err
		}
		defer l.Close()

		// Without stored entities the server still starts, search then
		// runs keyword-only until a catalog is loaded.
		if err := withCatalogPipeline(l); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}

		if os.Getenv("ANTHROPIC_API_KEY") != "" {
			summarizer, err := summarize.NewAnthropicSummarizer("")
			if err != nil {
				return err
			}
			l.SetSummarizer(summarizer)
		}

		port := servePort
		if port == "" {
			port = os.Getenv("LINKER_API_PORT")
		}
		if port == "" {
			port = "8080"
		}

		return server.New(l, server.Config{Addr: ":" + port}).Run()
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "port to listen on (default LINKER_API_PORT or 8080)")
	rootCmd.AddCommand(serveCmd)
}
