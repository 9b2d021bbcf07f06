// Package mlp implements the single-hidden-layer preference network used
// as the online fitness signal: input -> hidden (ReLU) -> one sigmoid
// output, trained one sample at a time with Adam.
package mlp

import (
	"math"
	"math/rand"
)

// Adam hyperparameters and training safeguards. The gradient clip and the
// weight decay keep incremental training numerically tame; the zero
// initialized output layer makes a fresh network predict exactly 0.5.
const (
	beta1             = 0.9
	beta2             = 0.999
	epsilon           = 1e-8
	weightDecay       = 1e-4
	gradClipThreshold = 1.0
)

// MLP is a fully connected network with one hidden ReLU layer and a
// single sigmoid output. It is not safe for concurrent use; callers guard
// it with their own lock.
type MLP struct {
	inputSize  int
	hiddenSize int

	wIH []float64 // input -> hidden, laid out [input*hiddenSize + hidden]
	bH  []float64
	wHO []float64
	bO  float64

	// Adam moment estimates, same layout as the weights they track.
	mIH, vIH []float64
	mBH, vBH []float64
	mHO, vHO []float64
	mBO, vBO float64
	timestep int

	// Cached activations from the last Predict, reused by Train.
	zHidden []float64
	aHidden []float64
	aOut    float64
}

// New creates a network with Xavier-uniform input weights and a zeroed
// output layer, so the initial prediction is exactly 0.5 for any input.
func New(inputSize, hiddenSize int, rng *rand.Rand) *MLP {
	n := &MLP{
		inputSize:  inputSize,
		hiddenSize: hiddenSize,
		wIH:        make([]float64, inputSize*hiddenSize),
		bH:         make([]float64, hiddenSize),
		wHO:        make([]float64, hiddenSize),
		mIH:        make([]float64, inputSize*hiddenSize),
		vIH:        make([]float64, inputSize*hiddenSize),
		mBH:        make([]float64, hiddenSize),
		vBH:        make([]float64, hiddenSize),
		mHO:        make([]float64, hiddenSize),
		vHO:        make([]float64, hiddenSize),
		zHidden:    make([]float64, hiddenSize),
		aHidden:    make([]float64, hiddenSize),
		aOut:       0.5,
	}
	scale := math.Sqrt(2.0 / float64(inputSize+hiddenSize))
	for i := range n.wIH {
		n.wIH[i] = (rng.Float64()*2.0 - 1.0) * scale
	}
	return n
}

// InputSize returns the expected input vector length.
func (n *MLP) InputSize() int {
	return n.inputSize
}

// HiddenSize returns the hidden layer width.
func (n *MLP) HiddenSize() int {
	return n.hiddenSize
}

// Predict runs the forward pass and caches the pre-activations for a
// following Train call.
func (n *MLP) Predict(input []float64) float64 {
	for j := 0; j < n.hiddenSize; j++ {
		sum := n.bH[j]
		for i := 0; i < n.inputSize && i < len(input); i++ {
			sum += input[i] * n.wIH[i*n.hiddenSize+j]
		}
		n.zHidden[j] = sum
		if sum > 0.0 {
			n.aHidden[j] = sum
		} else {
			n.aHidden[j] = 0.0
		}
	}

	sum := n.bO
	for j := 0; j < n.hiddenSize; j++ {
		sum += n.aHidden[j] * n.wHO[j]
	}
	n.aOut = sigmoid(sum)
	return n.aOut
}

// Train performs one step of backpropagation toward target (0 or 1) with
// binary-cross-entropy gradient (output-target), scaled by sampleWeight
// and clipped. Updates use bias-corrected Adam; L2 decay applies to
// connection weights only.
func (n *MLP) Train(input []float64, target, learningRate, sampleWeight float64) {
	n.Predict(input)
	n.timestep++

	dOut := (n.aOut - target) * sampleWeight
	if dOut > gradClipThreshold {
		dOut = gradClipThreshold
	} else if dOut < -gradClipThreshold {
		dOut = -gradClipThreshold
	}

	bc1 := 1.0 - math.Pow(beta1, float64(n.timestep))
	bc2 := 1.0 - math.Pow(beta2, float64(n.timestep))

	// Hidden deltas use the pre-update output weights.
	dHidden := make([]float64, n.hiddenSize)
	for j := 0; j < n.hiddenSize; j++ {
		if n.zHidden[j] > 0.0 {
			dHidden[j] = dOut * n.wHO[j]
		}
	}

	for j := 0; j < n.hiddenSize; j++ {
		grad := dOut * n.aHidden[j]
		n.mHO[j] = beta1*n.mHO[j] + (1.0-beta1)*grad
		n.vHO[j] = beta2*n.vHO[j] + (1.0-beta2)*grad*grad
		mHat := n.mHO[j] / bc1
		vHat := n.vHO[j] / bc2
		n.wHO[j] -= learningRate * (mHat/(math.Sqrt(vHat)+epsilon) + weightDecay*n.wHO[j])
	}

	n.mBO = beta1*n.mBO + (1.0-beta1)*dOut
	n.vBO = beta2*n.vBO + (1.0-beta2)*dOut*dOut
	n.bO -= learningRate * (n.mBO / bc1) / (math.Sqrt(n.vBO/bc2) + epsilon)

	for j := 0; j < n.hiddenSize; j++ {
		for i := 0; i < n.inputSize; i++ {
			var x float64
			if i < len(input) {
				x = input[i]
			}
			idx := i*n.hiddenSize + j
			grad := dHidden[j] * x
			n.mIH[idx] = beta1*n.mIH[idx] + (1.0-beta1)*grad
			n.vIH[idx] = beta2*n.vIH[idx] + (1.0-beta2)*grad*grad
			mHat := n.mIH[idx] / bc1
			vHat := n.vIH[idx] / bc2
			n.wIH[idx] -= learningRate * (mHat/(math.Sqrt(vHat)+epsilon) + weightDecay*n.wIH[idx])
		}

		n.mBH[j] = beta1*n.mBH[j] + (1.0-beta1)*dHidden[j]
		n.vBH[j] = beta2*n.vBH[j] + (1.0-beta2)*dHidden[j]*dHidden[j]
		n.bH[j] -= learningRate * (n.mBH[j] / bc1) / (math.Sqrt(n.vBH[j]/bc2) + epsilon)
	}
}

// WeightCount returns the serialized state length for an architecture:
// learnable weights and biases, both Adam moment sets, and the timestep.
func WeightCount(inputSize, hiddenSize int) int {
	base := inputSize*hiddenSize + hiddenSize + hiddenSize + 1
	return 3*base + 1
}

// WeightCount returns the serialized state length of this network.
func (n *MLP) WeightCount() int {
	return WeightCount(n.inputSize, n.hiddenSize)
}

// Weights serializes the full learnable state as a flat vector: wIH, bH,
// wHO, bO, then first moments in the same order, then second moments,
// then the timestep. Restoring it with SetWeights resumes training
// exactly.
func (n *MLP) Weights() []float64 {
	out := make([]float64, 0, n.WeightCount())
	out = append(out, n.wIH...)
	out = append(out, n.bH...)
	out = append(out, n.wHO...)
	out = append(out, n.bO)
	out = append(out, n.mIH...)
	out = append(out, n.mBH...)
	out = append(out, n.mHO...)
	out = append(out, n.mBO)
	out = append(out, n.vIH...)
	out = append(out, n.vBH...)
	out = append(out, n.vHO...)
	out = append(out, n.vBO)
	out = append(out, float64(n.timestep))
	return out
}

// SetWeights restores state from a Weights vector. A vector of the wrong
// length is rejected with false and the network is left untouched.
func (n *MLP) SetWeights(weights []float64) bool {
	if len(weights) != n.WeightCount() {
		return false
	}

	idx := 0
	take := func(dst []float64) {
		copy(dst, weights[idx:idx+len(dst)])
		idx += len(dst)
	}

	take(n.wIH)
	take(n.bH)
	take(n.wHO)
	n.bO = weights[idx]
	idx++
	take(n.mIH)
	take(n.mBH)
	take(n.mHO)
	n.mBO = weights[idx]
	idx++
	take(n.vIH)
	take(n.vBH)
	take(n.vHO)
	n.vBO = weights[idx]
	idx++
	n.timestep = int(weights[idx])
	return true
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
