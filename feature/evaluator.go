package feature

import "math"

// Distance scales per feature family, giving the families roughly equal
// weight in the raw feature space.
const (
	mfccScale     = 15.0
	centroidScale = 5000.0
	attackScale   = 0.5
	rmsScale      = 1.0
)

// TargetSimilarity scores how closely a raw feature vector matches a raw
// target vector: 1 for a perfect match, approaching 0 as the normalized
// Euclidean distance grows.
func TargetSimilarity(candidate, target []float64) float64 {
	sum := 0.0
	for i := 0; i < 2*NumMFCC; i++ {
		sum += sqDiff(at(candidate, i), at(target, i), mfccScale)
	}
	sum += sqDiff(at(candidate, IdxCentroidMean), at(target, IdxCentroidMean), centroidScale)
	sum += sqDiff(at(candidate, IdxCentroidStd), at(target, IdxCentroidStd), centroidScale)
	sum += sqDiff(at(candidate, IdxAttack), at(target, IdxAttack), attackScale)
	sum += sqDiff(at(candidate, IdxRMS), at(target, IdxRMS), rmsScale)
	return 1.0 / (1.0 + math.Sqrt(sum))
}

func at(v []float64, i int) float64 {
	if i < len(v) {
		return v[i]
	}
	return 0.0
}

func sqDiff(a, b, scale float64) float64 {
	d := (a - b) / scale
	return d * d
}
