package synth

// noiseGenerator is a fixed-seed linear congruential white noise source,
// deterministic across renders so feature extraction stays repeatable.
type noiseGenerator struct {
	seed uint32
}

func (n *noiseGenerator) reset() {
	n.seed = 22222
}

func (n *noiseGenerator) nextValue() float32 {
	n.seed = n.seed*196314165 + 907633515
	temp := int32(n.seed>>7) - 16777216
	return float32(temp) / 16777216.0
}
