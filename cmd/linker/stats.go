package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statsDetailed bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLinker()
		if err != nil {
			return err
		}
		defer l.Close()

		stats, err := l.Stats(statsDetailed)
		if err != nil {
			return err
		}

		writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(writer, "Documents\t%d\n", stats.TotalDocuments)
		fmt.Fprintf(writer, "Entities\t%d\n", stats.TotalEntities)
		fmt.Fprintf(writer, "Mentions\t%d\n", stats.TotalMentions)
		fmt.Fprintf(writer, "Recent documents\t%d\n", stats.RecentDocuments)

		if statsDetailed {
			for source, count := range stats.BySource {
				fmt.Fprintf(writer, "Source %s\t%d\n", source, count)
			}
			for entityType, count := range stats.ByEntityType {
				fmt.Fprintf(writer, "Type %s\t%d\n", entityType, count)
			}
		}
		return writer.Flush()
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsDetailed, "detailed", false, "include per source and per type breakdowns")
	rootCmd.AddCommand(statsCmd)
}
