package main

import (
	"context"
	"fmt"
	"log"

	questionbank "github.com/vaishnavipawardottech/anticheating-sub000"
	"github.com/vaishnavipawardottech/anticheating-sub000/helper"
	"github.com/vaishnavipawardottech/anticheating-sub000/model"
)

func sampleElements() []model.Element {
	texts := []struct {
		elementType model.ElementType
		text        string
	}{
		{model.ElementTypeTitle, "Unit 1: Set Theory"},
		{model.ElementTypeNarrativeText, "A set is a well defined collection of distinct objects, called the elements of the set. Sets are usually written with curly braces and named with capital letters."},
		{model.ElementTypeNarrativeText, "The union of two sets A and B contains every element that belongs to A, to B, or to both. The intersection contains exactly the elements that belong to both sets."},
		{model.ElementTypeNarrativeText, "De Morgan's laws relate union and intersection through complementation: the complement of a union is the intersection of the complements."},
		{model.ElementTypeTitle, "Unit 2: Relations and Functions"},
		{model.ElementTypeNarrativeText, "A relation from a set A to a set B is a subset of the cartesian product of A and B. A function is a relation that assigns to each element of A exactly one element of B."},
		{model.ElementTypeNarrativeText, "An equivalence relation is reflexive, symmetric and transitive. Every equivalence relation partitions its underlying set into disjoint equivalence classes."},
	}

	elements := make([]model.Element, 0, len(texts))
	for i, t := range texts {
		elements = append(elements, model.Element{
			Order:    i,
			Text:     t.text,
			Type:     t.elementType,
			Category: model.CategoryText,
		})
	}
	return elements
}

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		User:     "user",
		Password: "password",
		Name:     "database",
	}

	q, err := questionbank.NewQuestionBank(dbConfig, 384, nil)
	if err != nil {
		log.Fatalf("Failed to create question bank: %v", err)
	}
	defer q.Close()

	// Set up the default pipeline (section-aware segmentation + embeddings)
	if err := q.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	// Ingest a parsed document into subject 1, unit 1
	doc := model.NewDocument(1, "Discrete Mathematics Notes", "basic_example", model.Metadata{
		"author": "Example Author",
		"topic":  "set theory",
	})

	fmt.Println("Ingesting document...")
	numChunks, err := q.IngestElements(doc, 1, sampleElements())
	if err != nil {
		log.Fatalf("Failed to ingest document: %v", err)
	}
	fmt.Printf("Document inserted with ID: %s\n", doc.RID)
	fmt.Printf("Inserted %d chunks\n", numChunks)

	// Retrieve chunks for a question spec
	spec := &model.QuestionSpec{
		SubjectID:   1,
		UnitIDs:     []int64{1},
		Topic:       "union and intersection of sets",
		Descriptors: []string{"De Morgan's laws"},
	}

	fmt.Printf("\nRetrieving chunks for topic: %s\n", spec.Topic)

	results, err := q.Retrieve(context.Background(), spec)
	if err != nil {
		log.Fatalf("Failed to retrieve: %v", err)
	}

	// Display results
	fmt.Printf("\nFound %d chunks:\n", len(results))
	chunkIDs := make([]int, 0, len(results))
	for i, chunk := range results {
		fmt.Printf("\n--- Chunk %d ---\n", i+1)
		fmt.Printf("Score: %.4f\n", chunk.Similarity)
		fmt.Printf("Section: %s\n", chunk.SectionPath)
		fmt.Printf("Text: %s\n", chunk.Text)
		chunkIDs = append(chunkIDs, chunk.ID)
	}

	// Record usage so repeated retrievals rotate through the material
	if err := q.MarkUsed(context.Background(), chunkIDs); err != nil {
		log.Fatalf("Failed to mark chunks as used: %v", err)
	}

	fmt.Println("\nBasic example completed successfully!")
}
