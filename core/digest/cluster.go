package digest

import "math"

// cosineSimilarity computes the cosine similarity between two vectors.
// Returns 0 for mismatched lengths or zero vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// cosineDistance is 1 minus cosine similarity, the clustering metric.
func cosineDistance(a, b []float32) float64 {
	return 1 - cosineSimilarity(a, b)
}

const (
	labelUnvisited = 0
	labelNoise     = -1
)

// dbscan clusters the vectors by cosine distance. Vectors within eps of
// each other are neighbors, a point with at least minPoints neighbors
// (itself included) is a core point. Returns a cluster label per vector,
// labelNoise for points that end up in no cluster.
func dbscan(vectors [][]float32, eps float64, minPoints int) []int {
	labels := make([]int, len(vectors))
	clusterID := 0

	for i := range vectors {
		if labels[i] != labelUnvisited {
			continue
		}

		neighbors := regionQuery(vectors, i, eps)
		if len(neighbors) < minPoints {
			labels[i] = labelNoise
			continue
		}

		clusterID++
		labels[i] = clusterID

		// Expand the cluster over a growing seed set.
		for j := 0; j < len(neighbors); j++ {
			p := neighbors[j]
			if labels[p] == labelNoise {
				labels[p] = clusterID
			}
			if labels[p] != labelUnvisited {
				continue
			}
			labels[p] = clusterID

			pNeighbors := regionQuery(vectors, p, eps)
			if len(pNeighbors) >= minPoints {
				neighbors = append(neighbors, pNeighbors...)
			}
		}
	}

	return labels
}

func regionQuery(vectors [][]float32, index int, eps float64) []int {
	var neighbors []int
	for i := range vectors {
		if cosineDistance(vectors[index], vectors[i]) <= eps {
			neighbors = append(neighbors, i)
		}
	}
	return neighbors
}

// centroid returns the componentwise mean of the vectors.
func centroid(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}

	result := make([]float32, len(vectors[0]))
	for _, vector := range vectors {
		for i := range result {
			result[i] += vector[i]
		}
	}
	for i := range result {
		result[i] /= float32(len(vectors))
	}
	return result
}
