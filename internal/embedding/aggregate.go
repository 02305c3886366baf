package embedding

// Aggregation defaults. An enrollment photo whose embedding scores below
// the outlier threshold against the running mean is likely mislabeled or
// badly cropped and gets dropped.
const (
	DefaultOutlierThreshold = 0.3
	DefaultMaxIterations    = 2
)

// Aggregate builds a robust per-identity mean embedding from sample
// embeddings. It iteratively computes the normalized mean of the kept
// samples and drops every sample whose cosine similarity to that mean
// falls below outlierThreshold. Iteration stops when a round drops
// nothing, after maxIterations rounds, or once at most one sample
// remains. The second return value is false when no mean could be
// produced (empty input, or every sample rejected).
func Aggregate(samples []Embedding, outlierThreshold float64, maxIterations int) (Embedding, bool) {
	if len(samples) == 0 {
		return nil, false
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	kept := make([]Embedding, len(samples))
	copy(kept, samples)

	for iter := 0; iter < maxIterations; iter++ {
		if len(kept) <= 1 {
			break
		}
		mean := Mean(kept)
		filtered := make([]Embedding, 0, len(kept))
		for _, s := range kept {
			if Cosine(s, mean) >= outlierThreshold {
				filtered = append(filtered, s)
			}
		}
		if len(filtered) == len(kept) {
			break
		}
		kept = filtered
	}

	mean := Mean(kept)
	if mean == nil {
		return nil, false
	}
	return mean, true
}
