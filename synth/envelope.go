package synth

// silenceThreshold is the level below which an envelope counts as done.
const silenceThreshold = float32(0.0001)

// envelope is a one-pole exponential ADSR. Stage transitions ride on the
// target value: attack aims above 2.0, so level+target crossing 3.0
// marks the switch to decay.
type envelope struct {
	level             float32
	attackMultiplier  float32
	decayMultiplier   float32
	sustainLevel      float32
	releaseMultiplier float32

	multiplier float32
	target     float32
}

func (e *envelope) nextValue() float32 {
	e.level = e.multiplier*(e.level-e.target) + e.target

	if e.level+e.target > 3.0 {
		e.multiplier = e.decayMultiplier
		e.target = e.sustainLevel
	}

	return e.level
}

func (e *envelope) reset() {
	e.level = 0
	e.target = 0
	e.multiplier = 0
}

func (e *envelope) isActive() bool {
	return e.level > silenceThreshold
}

func (e *envelope) isInAttack() bool {
	return e.target >= 2.0
}

func (e *envelope) attack() {
	e.level += silenceThreshold + silenceThreshold
	e.target = 2.0
	e.multiplier = e.attackMultiplier
}

func (e *envelope) release() {
	e.target = 0
	e.multiplier = e.releaseMultiplier
}
