package evolve

// Individual is a candidate preset: a fixed-length vector of normalized
// [0,1] parameters plus a lazily valid fitness value. Any mutation of the
// parameters invalidates the fitness.
type Individual struct {
	params    []float64
	fitness   float64
	evaluated bool
}

// NewIndividual creates an individual with count zero-valued parameters.
func NewIndividual(count int) *Individual {
	if count < 0 {
		count = 0
	}
	return &Individual{params: make([]float64, count)}
}

// NewIndividualFrom creates an individual from an explicit parameter vector.
// The vector is copied.
func NewIndividualFrom(params []float64) *Individual {
	return &Individual{params: append([]float64(nil), params...)}
}

// ParameterCount returns the genome length.
func (ind *Individual) ParameterCount() int {
	return len(ind.params)
}

// Parameter returns the parameter at index, or 0.0 when out of range.
func (ind *Individual) Parameter(index int) float64 {
	if index < 0 || index >= len(ind.params) {
		return 0.0
	}
	return ind.params[index]
}

// SetParameter writes a single parameter and invalidates the fitness.
// Out-of-range writes are ignored.
func (ind *Individual) SetParameter(index int, value float64) {
	if index < 0 || index >= len(ind.params) {
		return
	}
	ind.params[index] = value
	ind.evaluated = false
}

// Parameters returns a copy of the parameter vector.
func (ind *Individual) Parameters() []float64 {
	return append([]float64(nil), ind.params...)
}

// SetParameters replaces the whole vector (copied) and invalidates fitness.
func (ind *Individual) SetParameters(params []float64) {
	ind.params = append(ind.params[:0], params...)
	ind.evaluated = false
}

// Fitness returns the last assigned fitness value.
func (ind *Individual) Fitness() float64 {
	return ind.fitness
}

// SetFitness assigns a fitness value and marks the individual evaluated.
func (ind *Individual) SetFitness(fitness float64) {
	ind.fitness = fitness
	ind.evaluated = true
}

// Evaluated reports whether the current fitness is valid.
func (ind *Individual) Evaluated() bool {
	return ind.evaluated
}

// InvalidateFitness clears the evaluated flag.
func (ind *Individual) InvalidateFitness() {
	ind.evaluated = false
}

// Clone returns a deep copy.
func (ind *Individual) Clone() *Individual {
	return &Individual{
		params:    append([]float64(nil), ind.params...),
		fitness:   ind.fitness,
		evaluated: ind.evaluated,
	}
}
