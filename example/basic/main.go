package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/linker"
	"github.com/siherrmann/linker/helper"
	"github.com/siherrmann/linker/model"
)

const sampleContent = `The basket module got a new validation path this week.

BasketKeeper now rejects MsgCreateBasket when the requested credit class
does not exist. The basket keeper also forwards QueryBasketBalance requests
to the read model so balances stay consistent during deposits.`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := helper.ContainerDatabaseConfiguration(dbPort)

	l, err := linker.NewLinker(dbConfig, 384)
	if err != nil {
		log.Fatalf("Failed to create linker: %v", err)
	}
	defer l.Close()

	// Store a small entity catalog
	entities := []*model.Entity{
		model.NewEntity("BasketKeeper", "Keeper", "basket", nil),
		model.NewEntity("MsgCreateBasket", "Message", "basket", nil),
		model.NewEntity("QueryBasketBalance", "Query", "basket", nil),
	}
	for _, entity := range entities {
		if err := l.Entities.InsertEntity(entity); err != nil {
			log.Fatalf("Failed to insert entity: %v", err)
		}
	}

	// Build the matcher and embedder from the stored catalog
	if err := l.UseCatalogPipeline(nil); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	// Show which mentions the matcher finds
	mentions, err := l.ExtractMentions(sampleContent)
	if err != nil {
		log.Fatalf("Failed to extract mentions: %v", err)
	}
	fmt.Println("Mentions found:")
	for _, mention := range mentions {
		fmt.Printf("  %-20s %-8s %q (confidence %.2f)\n",
			mention.EntityName, mention.EntityType, mention.SurfaceForm, mention.Confidence)
	}

	// Create document with content
	doc := &model.Document{
		Title:   "Basket module release notes",
		Source:  "basic_example",
		Content: sampleContent,
	}

	// Process and insert document in one call
	fmt.Println("\nIngesting document...")
	numMentions, err := l.ProcessAndInsertDocument(doc)
	if err != nil {
		log.Fatalf("Failed to process and insert document: %v", err)
	}
	fmt.Printf("Document inserted with ID: %s\n", doc.RID)
	fmt.Printf("Linked %d mentions\n", numMentions)

	// Perform a hybrid search over the stored documents
	queryText := "basket deposit validation"

	fmt.Printf("\nQuerying: %s\n", queryText)

	config := model.DefaultSearchConfig()
	config.MinSimilarity = 0.0

	results, err := l.Search(queryText, config)
	if err != nil {
		log.Fatalf("Failed to search: %v", err)
	}

	// Display results
	fmt.Printf("\nFound %d results:\n", len(results))
	for i, result := range results {
		fmt.Printf("\n--- Result %d ---\n", i+1)
		fmt.Printf("Title: %s\n", result.Document.Title)
		fmt.Printf("Score: %.4f\n", result.Score)
		fmt.Printf("Match type: %s\n", result.MatchType)
	}

	fmt.Println("\nBasic example completed successfully!")
}
