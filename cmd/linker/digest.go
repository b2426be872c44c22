package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/siherrmann/linker/core/digest"
	"github.com/siherrmann/linker/summarize"
)

var (
	digestDays      int
	digestSummarize bool
	digestOut       string
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Generate a topic digest over recent documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLinker()
		if err != nil {
			return err
		}
		defer l.Close()

		if err := withCatalogPipeline(l); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}

		if digestSummarize {
			summarizer, err := summarize.NewAnthropicSummarizer("")
			if err != nil {
				return err
			}
			l.SetSummarizer(summarizer)
		}

		result, err := l.GenerateDigest(context.Background(), digest.Options{WindowDays: digestDays})
		if err != nil {
			return err
		}

		markdown := result.RenderMarkdown()
		if digestOut == "" {
			fmt.Println(markdown)
			return nil
		}

		if err := os.WriteFile(digestOut, []byte(markdown), 0o644); err != nil {
			return fmt.Errorf("failed to write digest: %w", err)
		}
		fmt.Printf("Wrote digest with %d topics to %s\n", len(result.Topics), digestOut)
		return nil
	},
}

func init() {
	digestCmd.Flags().IntVar(&digestDays, "days", digest.DefaultWindowDays, "lookback window in days")
	digestCmd.Flags().BoolVar(&digestSummarize, "summarize", false, "write topic briefs with the Anthropic API")
	digestCmd.Flags().StringVar(&digestOut, "out", "", "output markdown file (default stdout)")
	rootCmd.AddCommand(digestCmd)
}
