package evolve

// Indices of the evolved synth parameters within a genome. The order is
// fixed: it defines the genome layout, the preset file fields and the
// dataset CSV columns.
const (
	ParamOscMix = iota
	ParamOscFine
	ParamFilterFreq
	ParamFilterReso
	ParamFilterEnv
	ParamFilterLFO
	ParamFilterAttack
	ParamFilterDecay
	ParamFilterSustain
	ParamFilterRelease
	ParamEnvAttack
	ParamEnvDecay
	ParamEnvSustain
	ParamEnvRelease
	ParamLFORate
	ParamVibrato
	ParamNoise

	ParamCount
)

var paramNames = [ParamCount]string{
	"oscMix",
	"oscFine",
	"filterFreq",
	"filterReso",
	"filterEnv",
	"filterLFO",
	"filterAttack",
	"filterDecay",
	"filterSustain",
	"filterRelease",
	"envAttack",
	"envDecay",
	"envSustain",
	"envRelease",
	"lfoRate",
	"vibrato",
	"noise",
}

// ParamNames returns the canonical genome parameter names in index order.
func ParamNames() []string {
	return append([]string(nil), paramNames[:]...)
}

// Minimum combined filter opening for audible output, and how much a
// positive filter envelope contributes relative to the static cutoff (the
// envelope only opens the filter during the attack phase).
const (
	minAudibility = 0.35
	envWeight     = 0.7
)

// Repair adjusts a genome in place so the preset produces audible output.
// filterEnv is normalized with 0.5 as zero depth; when the static cutoff
// plus the positive envelope contribution cannot open the filter enough,
// filterEnv is raised to the minimum value that does. Repair is idempotent.
func Repair(genome []float64) {
	if len(genome) <= ParamFilterEnv {
		return
	}

	filterFreq := genome[ParamFilterFreq]
	filterEnv := genome[ParamFilterEnv]

	positiveEnv := (filterEnv - 0.5) * 2.0
	if positiveEnv < 0.0 {
		positiveEnv = 0.0
	}

	if filterFreq+positiveEnv*envWeight >= minAudibility {
		return
	}

	required := (minAudibility - filterFreq) / envWeight
	repaired := 0.5 + required/2.0
	if repaired > 1.0 {
		repaired = 1.0
	}
	genome[ParamFilterEnv] = repaired
}
