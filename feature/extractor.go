// Package feature turns rendered audio into compact timbre descriptors
// and caches them per genome so audio-based fitness stays affordable.
package feature

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

// Raw feature vector layout: 10 MFCC means, 10 MFCC standard deviations,
// spectral centroid mean and std, attack time in seconds, RMS energy.
const (
	NumMFCC     = 10
	VectorSize  = 2*NumMFCC + 4
	numMelBands = 26
)

// Indices into a feature vector.
const (
	IdxMFCCMean     = 0
	IdxMFCCStd      = NumMFCC
	IdxCentroidMean = 2 * NumMFCC
	IdxCentroidStd  = 2*NumMFCC + 1
	IdxAttack       = 2*NumMFCC + 2
	IdxRMS          = 2*NumMFCC + 3
)

type melFilter struct {
	bins    []int
	weights []float64
}

// Extractor computes frame-averaged MFCC and spectral-centroid statistics
// plus attack time and RMS over a mono buffer. One instance is tied to a
// sample rate; it reuses its FFT plan and scratch buffers across calls
// and is not safe for concurrent use.
type Extractor struct {
	sampleRate float64
	fftSize    int
	hopSize    int

	forward func(dst []complex128, src []float64)
	window  []float64
	buf     []float64
	spec    []complex128
	mag     []float64
	filters []melFilter
	melLog  []float64
}

// NewExtractor builds an extractor for the given sample rate using a
// 2048-point FFT with 75% frame overlap.
func NewExtractor(sampleRate float64) (*Extractor, error) {
	const fftSize = 2048
	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("fft plan: %w", err)
	}

	e := &Extractor{
		sampleRate: sampleRate,
		fftSize:    fftSize,
		hopSize:    fftSize / 4,
		forward: func(dst []complex128, src []float64) {
			plan.Forward(dst, src)
		},
		window: make([]float64, fftSize),
		buf:    make([]float64, fftSize),
		spec:   make([]complex128, fftSize/2+1),
		mag:    make([]float64, fftSize/2+1),
		melLog: make([]float64, numMelBands),
	}
	for i := range e.window {
		e.window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(fftSize-1))
	}
	e.buildMelFilterbank()
	return e, nil
}

// SampleRate returns the rate this extractor was built for.
func (e *Extractor) SampleRate() float64 {
	return e.sampleRate
}

// Extract computes the raw (unnormalized) feature vector of a mono
// buffer. Buffers shorter than one FFT frame fall back to a single
// zero-padded frame.
func (e *Extractor) Extract(samples []float64) []float64 {
	out := make([]float64, VectorSize)

	out[IdxRMS] = rmsEnergy(samples)
	out[IdxAttack] = e.attackTime(samples)

	var (
		mfccFrames     [][NumMFCC]float64
		centroidFrames []float64
	)
	for start := 0; start+e.fftSize <= len(samples); start += e.hopSize {
		mfcc, centroid := e.analyzeFrame(samples[start : start+e.fftSize])
		mfccFrames = append(mfccFrames, mfcc)
		centroidFrames = append(centroidFrames, centroid)
	}
	if len(mfccFrames) == 0 {
		mfcc, centroid := e.analyzeFrame(samples)
		mfccFrames = append(mfccFrames, mfcc)
		centroidFrames = append(centroidFrames, centroid)
	}

	for i := 0; i < NumMFCC; i++ {
		vals := make([]float64, len(mfccFrames))
		for f := range mfccFrames {
			vals[f] = mfccFrames[f][i]
		}
		mean, std := meanStd(vals)
		out[IdxMFCCMean+i] = mean
		out[IdxMFCCStd+i] = std
	}
	out[IdxCentroidMean], out[IdxCentroidStd] = meanStd(centroidFrames)

	return out
}

// analyzeFrame windows one frame (zero-padded if short), takes its
// magnitude spectrum, and returns MFCCs and the spectral centroid.
func (e *Extractor) analyzeFrame(frame []float64) ([NumMFCC]float64, float64) {
	for i := 0; i < e.fftSize; i++ {
		if i < len(frame) {
			e.buf[i] = frame[i] * e.window[i]
		} else {
			e.buf[i] = 0.0
		}
	}
	e.forward(e.spec, e.buf)
	for i := range e.mag {
		e.mag[i] = cmplx.Abs(e.spec[i])
	}

	for b, f := range e.filters {
		energy := 0.0
		for k, bin := range f.bins {
			energy += e.mag[bin] * f.weights[k]
		}
		e.melLog[b] = math.Log(energy + 1e-10)
	}

	// DCT-II of the log mel energies gives the cepstral coefficients.
	var mfcc [NumMFCC]float64
	for i := 0; i < NumMFCC; i++ {
		sum := 0.0
		for j := 0; j < numMelBands; j++ {
			sum += e.melLog[j] * math.Cos(math.Pi*float64(i)*(float64(j)+0.5)/numMelBands)
		}
		mfcc[i] = sum
	}

	return mfcc, e.spectralCentroid()
}

func (e *Extractor) spectralCentroid() float64 {
	freqPerBin := e.sampleRate / float64(e.fftSize)
	weighted, sum := 0.0, 0.0
	for i, m := range e.mag {
		weighted += float64(i) * freqPerBin * m
		sum += m
	}
	if sum <= 1e-10 {
		return 0.0
	}
	return weighted / sum
}

// attackTime finds the peak sample, then walks backwards to where the
// amplitude last crossed 5% of the peak. Silent buffers report zero.
func (e *Extractor) attackTime(samples []float64) float64 {
	peak, peakIdx := 0.0, 0
	for i, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
			peakIdx = i
		}
	}
	if peak < 0.001 {
		return 0.0
	}
	threshold := peak * 0.05
	start := 0
	for i := peakIdx; i >= 0; i-- {
		if math.Abs(samples[i]) <= threshold {
			start = i
			break
		}
	}
	return float64(peakIdx-start) / e.sampleRate
}

// buildMelFilterbank creates triangular filters on the mel scale across
// 0..Nyquist, storing only non-negligible weights per filter.
func (e *Extractor) buildMelFilterbank() {
	minMel := hzToMel(0.0)
	maxMel := hzToMel(e.sampleRate / 2.0)
	maxBin := len(e.mag) - 1

	e.filters = make([]melFilter, numMelBands)
	for i := 0; i < numMelBands; i++ {
		leftHz := melToHz(minMel + (maxMel-minMel)*float64(i)/(numMelBands+1))
		centerHz := melToHz(minMel + (maxMel-minMel)*float64(i+1)/(numMelBands+1))
		rightHz := melToHz(minMel + (maxMel-minMel)*float64(i+2)/(numMelBands+1))

		leftBin := clampInt(int(leftHz*float64(e.fftSize)/e.sampleRate), 0, maxBin)
		rightBin := clampInt(int(rightHz*float64(e.fftSize)/e.sampleRate), 0, maxBin)

		f := melFilter{}
		for j := leftBin; j <= rightBin; j++ {
			freq := float64(j) * e.sampleRate / float64(e.fftSize)
			weight := 0.0
			switch {
			case freq >= leftHz && freq <= centerHz && centerHz > leftHz:
				weight = (freq - leftHz) / (centerHz - leftHz)
			case freq > centerHz && freq <= rightHz && rightHz > centerHz:
				weight = (rightHz - freq) / (rightHz - centerHz)
			}
			if weight > 1e-6 {
				f.bins = append(f.bins, j)
				f.weights = append(f.weights, weight)
			}
		}
		e.filters[i] = f
	}
}

func rmsEnergy(samples []float64) float64 {
	if len(samples) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func meanStd(vals []float64) (mean, std float64) {
	if len(vals) == 0 {
		return 0.0, 0.0
	}
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	if len(vals) > 1 {
		for _, v := range vals {
			d := v - mean
			std += d * d
		}
		std = math.Sqrt(std / float64(len(vals)-1))
	}
	return mean, std
}

func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
