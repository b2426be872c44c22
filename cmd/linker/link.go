package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/siherrmann/linker/model"
)

var (
	linkFilePath string
	linkTitle    string
	linkSource   string
	linkURL      string
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Process one document: embed, link mentions and store it",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLinker()
		if err != nil {
			return err
		}
		defer l.Close()

		if err := withCatalogPipeline(l); err != nil {
			return err
		}

		doc, err := model.NewDocumentFromFile(linkFilePath, nil)
		if err != nil {
			return fmt.Errorf("failed to read document: %w", err)
		}
		if linkTitle != "" {
			doc.Title = linkTitle
		}
		if linkSource != "" {
			doc.Source = linkSource
		}
		doc.URL = linkURL

		content := doc.Content
		numMentions, err := l.ProcessAndInsertDocument(doc)
		if err != nil {
			return err
		}

		fmt.Printf("Stored document %s with %d mentions\n", doc.RID, numMentions)
		if numMentions == 0 {
			return nil
		}

		mentions, err := l.ExtractMentions(content)
		if err != nil {
			return err
		}

		writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(writer, "ENTITY\tTYPE\tSURFACE\tOFFSET\tCONFIDENCE")
		for _, mention := range mentions {
			fmt.Fprintf(writer, "%s\t%s\t%s\t%d\t%.2f\n",
				mention.EntityName, mention.EntityType, mention.SurfaceForm,
				mention.StartOffset, mention.Confidence)
		}
		return writer.Flush()
	},
}

func init() {
	linkCmd.Flags().StringVar(&linkFilePath, "file", "", "path to the document file")
	linkCmd.Flags().StringVar(&linkTitle, "title", "", "document title (default file name)")
	linkCmd.Flags().StringVar(&linkSource, "source", "", "document source (default file path)")
	linkCmd.Flags().StringVar(&linkURL, "url", "", "document url")
	linkCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(linkCmd)
}
