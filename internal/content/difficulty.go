package content

// Bucket thresholds for averaged difficulty scores. Boundary values map to medium.
const (
	easyCeiling = 1.5
	hardFloor   = 2.5
)

// Score maps a difficulty to its weight: easy=1, medium=2, hard=3.
// Unknown labels weigh as medium.
func (d Difficulty) Score() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyHard:
		return 3
	default:
		return 2
	}
}

// BucketScore turns an averaged difficulty score back into a label.
func BucketScore(avg float64) Difficulty {
	switch {
	case avg < easyCeiling:
		return DifficultyEasy
	case avg > hardFloor:
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// ScoreDifficulty averages item weights and buckets the result.
// An empty slice scores as easy.
func ScoreDifficulty(items []*Item) Difficulty {
	if len(items) == 0 {
		return DifficultyEasy
	}
	total := 0
	for _, it := range items {
		total += it.Difficulty.Score()
	}
	return BucketScore(float64(total) / float64(len(items)))
}

// TotalTime sums the recommended time of items, in seconds.
func TotalTime(items []*Item) int {
	total := 0
	for _, it := range items {
		total += it.TimeRecommended
	}
	return total
}
