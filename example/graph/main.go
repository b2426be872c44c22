package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/linker"
	"github.com/siherrmann/linker/core/digest"
	"github.com/siherrmann/linker/helper"
	"github.com/siherrmann/linker/model"
)

const sampleContent1 = `The basket submodule now enforces credit class checks.

BasketKeeper validates every MsgCreateBasket against the stored credit
classes before a basket is created. Deposits through MsgBasketDeposit are
routed to the basket keeper as well, so both paths share one validation.`

const sampleContent2 = `Query routing changed for read endpoints.

QueryBasketBalance and QueryBasketClasses are now answered by the read
model directly. The BasketKeeper only steps in when a balance is locked
by a pending MsgBasketDeposit.`

const sampleContent3 = `Governance votes moved to their own store.

Proposal tallies are written by the governance handler and no longer
touch basket state at all.`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration matching the test container
	dbConfig := helper.ContainerDatabaseConfiguration(dbPort)

	l, err := linker.NewLinker(dbConfig, 384)
	if err != nil {
		log.Fatalf("Failed to create linker: %v", err)
	}
	defer l.Close()

	// Store the entity catalog
	entities := []*model.Entity{
		model.NewEntity("BasketKeeper", "Keeper", "basket", nil),
		model.NewEntity("MsgCreateBasket", "Message", "basket", nil),
		model.NewEntity("MsgBasketDeposit", "Message", "basket", nil),
		model.NewEntity("QueryBasketBalance", "Query", "basket", nil),
		model.NewEntity("QueryBasketClasses", "Query", "basket", nil),
	}
	for _, entity := range entities {
		if err := l.Entities.InsertEntity(entity); err != nil {
			log.Fatalf("Failed to insert entity: %v", err)
		}
	}

	if err := l.UseCatalogPipeline(nil); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	// Process and insert multiple documents
	docs := []*model.Document{
		{Title: "Basket validation changes", Source: "graph_example", Content: sampleContent1},
		{Title: "Query routing changes", Source: "graph_example", Content: sampleContent2},
		{Title: "Governance store split", Source: "graph_example", Content: sampleContent3},
	}
	for _, doc := range docs {
		numMentions, err := l.ProcessAndInsertDocument(doc)
		if err != nil {
			log.Fatalf("Failed to process document: %v", err)
		}
		fmt.Printf("Stored %q with %d mentions\n", doc.Title, numMentions)
	}

	// Walk the mention graph from the keeper
	fmt.Println("\nEntities related to keeper:BasketKeeper:")
	related, err := l.RelatedEntities(context.Background(), "keeper:BasketKeeper", 2)
	if err != nil {
		log.Fatalf("Failed to find related entities: %v", err)
	}
	for _, r := range related {
		fmt.Printf("  %-30s distance=%d shared_docs=%d\n", r.Entity.Key, r.Distance, r.MentionCount)
	}

	// Entity-centric retrieval
	fmt.Println("\nDocuments mentioning message:MsgBasketDeposit:")
	results, err := l.EntitySearch("message:MsgBasketDeposit", "", model.DefaultSearchConfig())
	if err != nil {
		log.Fatalf("Failed to search by entity: %v", err)
	}
	for _, result := range results {
		fmt.Printf("  %-30s score=%.2f\n", result.Document.Title, result.Score)
	}

	// Build a digest over the stored documents
	fmt.Println("\nGenerating digest...")
	digestResult, err := l.GenerateDigest(context.Background(), digest.Options{WindowDays: 7})
	if err != nil {
		log.Fatalf("Failed to generate digest: %v", err)
	}
	fmt.Println(digestResult.RenderMarkdown())

	// Print store statistics
	stats, err := l.Stats(true)
	if err != nil {
		log.Fatalf("Failed to read stats: %v", err)
	}
	fmt.Printf("Stats: %d documents, %d entities, %d mentions\n",
		stats.TotalDocuments, stats.TotalEntities, stats.TotalMentions)

	fmt.Println("\nGraph example completed successfully!")
}
