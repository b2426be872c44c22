package pipeline

import (
	"fmt"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/siherrmann/linker/helper"
	"github.com/siherrmann/linker/model"
)

// DefaultDiscovererModel detects PERSON, ORGANIZATION, LOCATION and
// MISC entities.
const DefaultDiscovererModel = "KnightsAnalytics/distilbert-NER"

// NewHugotDiscoverer creates an entity discoverer backed by a NER
// model. Discovered entities are candidates for catalog review, they
// never feed the deterministic linking pass. An empty modelName selects
// DefaultDiscovererModel.
func NewHugotDiscoverer(modelName string) (DiscoverFunc, error) {
	if modelName == "" {
		modelName = DefaultDiscovererModel
	}

	// Prepare model (download if needed)
	modelPath, err := helper.PrepareModel(modelName, "model.onnx")
	if err != nil {
		return nil, err
	}

	// Initialize hugot session with Go backend
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	// Create token classification pipeline for NER
	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "ner-pipeline",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}), // Ignore non-entity tokens
		},
	}
	nerPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create NER pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create NER pipeline: %w", err)
	}

	return func(text string) ([]*model.Entity, error) {
		result, err := nerPipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to run NER: %w", err)
		}

		if len(result.Entities) == 0 {
			return nil, nil
		}

		var entities []*model.Entity
		for _, nerEntity := range result.Entities[0] {
			name := strings.TrimSpace(nerEntity.Word)
			if name == "" {
				continue
			}

			entity := model.NewEntity(name, normalizeNERLabel(nerEntity.Entity), "", nil)
			entity.Metadata = map[string]interface{}{
				"confidence": nerEntity.Score,
				"start":      nerEntity.Start,
				"end":        nerEntity.End,
				"discovered": true,
			}
			entities = append(entities, entity)
		}

		return entities, nil
	}, nil
}

// normalizeNERLabel removes BIO tagging prefixes (B- for beginning,
// I- for inside) from NER labels.
func normalizeNERLabel(label string) string {
	if strings.HasPrefix(label, "B-") || strings.HasPrefix(label, "I-") {
		return label[2:]
	}
	return label
}
