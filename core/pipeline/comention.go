package pipeline

import (
	"github.com/google/uuid"
	"github.com/siherrmann/linker/core/match"
	"github.com/siherrmann/linker/model"
)

// DefaultCoMentionWindow is the byte distance within which two mentions
// count as co-mentioned.
const DefaultCoMentionWindow = 200

// CoMentionEdges builds entity to entity co-mention edges from the
// mentions of one document. Two mentions of different entities within
// window bytes produce a bidirectional edge weighted by proximity,
// 1.0 for adjacent mentions falling to 0.0 at the window edge. Each
// entity pair keeps its closest co-mention only.
func CoMentionEdges(mentions []match.Mention, entityRIDs map[string]uuid.UUID, window int) []*model.Edge {
	if window <= 0 {
		window = DefaultCoMentionWindow
	}

	type pairKey struct {
		first  string
		second string
	}
	// Mentions arrive sorted by start offset, so scanning forward until
	// the window is exceeded sees every pair once.
	best := map[pairKey]*model.Edge{}
	order := []pairKey{}

	for i := 0; i < len(mentions); i++ {
		for j := i + 1; j < len(mentions); j++ {
			distance := mentions[j].StartOffset - mentions[i].StartOffset
			if distance >= window {
				break
			}
			if mentions[i].EntityID == mentions[j].EntityID {
				continue
			}

			sourceRID, sourceOk := entityRIDs[mentions[i].EntityID]
			targetRID, targetOk := entityRIDs[mentions[j].EntityID]
			if !sourceOk || !targetOk {
				continue
			}

			key := pairKey{mentions[i].EntityID, mentions[j].EntityID}
			if key.first > key.second {
				key.first, key.second = key.second, key.first
			}

			weight := 1.0 - float64(distance)/float64(window)
			if existing, ok := best[key]; ok {
				if weight > existing.Weight {
					existing.Weight = weight
					existing.Metadata["distance"] = distance
				}
				continue
			}

			source := sourceRID
			target := targetRID
			best[key] = &model.Edge{
				SourceEntityID: &source,
				TargetEntityID: &target,
				EdgeType:       model.EdgeTypeCoMention,
				Weight:         weight,
				Bidirectional:  true,
				Metadata: model.Metadata{
					"distance":     distance,
					"surface_form": mentions[i].SurfaceForm + " / " + mentions[j].SurfaceForm,
				},
			}
			order = append(order, key)
		}
	}

	edges := make([]*model.Edge, 0, len(best))
	for _, key := range order {
		edges = append(edges, best[key])
	}
	return edges
}
