package evolve

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"
)

const (
	// PopulationSize is the fixed number of individuals in the engine's
	// population.
	PopulationSize = 50
	// OffspringPerGeneration is the steady-state batch size.
	OffspringPerGeneration = 10

	tournamentSize   = 3
	mutationRate     = 0.1
	mutationStrength = 0.2

	// defaultEpsilon is the exploration rate when adaptive exploration is
	// disabled.
	defaultEpsilon = 0.25

	// pollInterval bounds every cooperative wait so stop/resume requests
	// are observed promptly.
	pollInterval    = 100 * time.Millisecond
	backoffInterval = 50 * time.Millisecond
	generationPause = 10 * time.Millisecond

	stopTimeout = 2 * time.Second
)

// Engine runs the steady-state evolutionary search on a background
// goroutine and publishes candidates through its bridge. The population is
// owned exclusively by the search goroutine; the bridge is the only
// cross-goroutine data path.
type Engine struct {
	model  FitnessModel
	bridge *Bridge

	mu      sync.Mutex
	cfg     Config
	epsilon float64
	running bool
	paused  bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	pop *Population
	rng *rand.Rand

	selector  TournamentSelection
	crossover UniformCrossover
	mutation  UniformMutation
}

// NewEngine creates an engine searching ParamCount-dimensional genomes
// with the given fitness model and RNG seed.
func NewEngine(model FitnessModel, seed int64) *Engine {
	return &Engine{
		model:     model,
		bridge:    NewBridge(),
		cfg:       DefaultConfig(),
		epsilon:   defaultEpsilon,
		rng:       rand.New(rand.NewSource(seed)),
		selector:  TournamentSelection{Size: tournamentSize},
		crossover: UniformCrossover{},
		mutation:  UniformMutation{Rate: mutationRate, Strength: mutationStrength},
	}
}

// Bridge returns the candidate mailbox the consumer should poll.
func (e *Engine) Bridge() *Bridge {
	return e.bridge
}

// SetConfig applies a configuration snapshot atomically and resets the
// exploration rate accordingly.
func (e *Engine) SetConfig(cfg Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
	e.epsilon = initialEpsilon(cfg)
}

// Config returns the current configuration snapshot.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// IsRunning reports whether the search loop is active (possibly paused).
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// IsPaused reports whether the loop is cooperatively paused.
func (e *Engine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// Start seeds and fully evaluates a fresh random population, publishes its
// best individual, and launches the background loop. Calling Start on a
// running engine is a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.paused = false
	e.running = true
	e.epsilon = initialEpsilon(e.cfg)
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	stopCh, doneCh := e.stopCh, e.doneCh

	if e.pop == nil {
		e.pop = NewPopulation(PopulationSize, ParamCount)
		e.pop.InitializeRandom(e.rng)
	}
	pop := e.pop
	e.mu.Unlock()

	// Synchronous seeding so a first candidate is available immediately
	// after Start returns. Stop during seeding aborts early.
	for i := 0; i < pop.Len(); i++ {
		if stopped(stopCh) {
			close(doneCh)
			return
		}
		ind := pop.At(i)
		if !ind.Evaluated() {
			ind.SetFitness(e.model.Evaluate(ind.Parameters()))
		}
	}
	pop.MarkDirty()
	if best := pop.Best(); best != nil {
		e.bridge.Push(best.Parameters(), best.Fitness())
	}

	go e.run(pop, stopCh, doneCh)
}

// Stop cancels the loop, wakes a paused wait, joins the goroutine with a
// bounded timeout and resets the population so a later Start reseeds.
// Stop is idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	doneCh := e.doneCh
	if e.stopCh != nil {
		close(e.stopCh)
		e.stopCh = nil
	}
	e.running = false
	e.paused = false
	e.mu.Unlock()

	if doneCh != nil {
		select {
		case <-doneCh:
		case <-time.After(stopTimeout):
		}
	}

	e.mu.Lock()
	e.doneCh = nil
	e.pop = nil
	e.mu.Unlock()
}

// Pause suspends the loop cooperatively. The loop keeps polling so Stop
// and Resume are observed within the poll interval.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		e.paused = true
	}
}

// Resume clears a pause.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = false
}

func (e *Engine) run(pop *Population, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	for {
		if stopped(stopCh) {
			return
		}
		if e.IsPaused() {
			waitOrStop(stopCh, pollInterval)
			continue
		}
		// Backpressure: an unread candidate means the consumer has not
		// caught up, so generating more would only be thrown away.
		if e.bridge.HasData() {
			waitOrStop(stopCh, backoffInterval)
			continue
		}

		cfg, epsilon := e.snapshot()

		offspring := e.generateOffspring(pop, cfg, stopCh)
		if stopped(stopCh) {
			return
		}
		if len(offspring) > 0 {
			replaceWorst(pop, offspring)
			e.publish(pop, offspring, epsilon)
		}
		if cfg.AdaptiveExploration {
			e.decayEpsilon(cfg)
		}

		waitOrStop(stopCh, generationPause)
	}
}

func (e *Engine) generateOffspring(pop *Population, cfg Config, stopCh <-chan struct{}) []*Individual {
	offspring := make([]*Individual, 0, OffspringPerGeneration)
	for i := 0; i < OffspringPerGeneration; i++ {
		if stopped(stopCh) || e.IsPaused() {
			break
		}

		p1 := pop.At(e.selector.Select(pop, e.rng))
		p2 := pop.At(e.selector.Select(pop, e.rng))

		child := e.crossover.Cross(p1, p2, e.rng)
		e.mutation.Mutate(child, e.rng)
		Repair(child.params)

		fitness := e.model.Evaluate(child.Parameters())
		if cfg.MultiObjective && cfg.NoveltyBonus {
			nov := populationNovelty(pop, child, cfg.NoveltyK)
			fitness = (1.0-cfg.NoveltyWeight)*fitness + cfg.NoveltyWeight*nov
		}
		child.SetFitness(fitness)
		offspring = append(offspring, child)
	}
	return offspring
}

// replaceWorst overwrites the currently worst evaluated individuals with
// the offspring batch.
func replaceWorst(pop *Population, offspring []*Individual) {
	type indexed struct {
		index   int
		fitness float64
	}
	evaluated := make([]indexed, 0, pop.Len())
	for i := 0; i < pop.Len(); i++ {
		if ind := pop.At(i); ind.Evaluated() {
			evaluated = append(evaluated, indexed{i, ind.Fitness()})
		}
	}
	sort.SliceStable(evaluated, func(a, b int) bool {
		return evaluated[a].fitness < evaluated[b].fitness
	})

	n := len(offspring)
	if len(evaluated) < n {
		n = len(evaluated)
	}
	for i := 0; i < n; i++ {
		pop.Replace(evaluated[i].index, offspring[i])
	}
}

// publish sends either a uniformly random population member (exploration,
// probability epsilon) or the fittest offspring of this generation.
// Publishing the generation's best rather than the population's global
// best avoids re-announcing an unchanged incumbent forever.
func (e *Engine) publish(pop *Population, offspring []*Individual, epsilon float64) {
	if e.rng.Float64() < epsilon {
		ind := pop.At(e.rng.Intn(pop.Len()))
		e.bridge.Push(ind.Parameters(), ind.Fitness())
		return
	}
	best := offspring[0]
	for _, ind := range offspring[1:] {
		if ind.Fitness() > best.Fitness() {
			best = ind
		}
	}
	e.bridge.Push(best.Parameters(), best.Fitness())
}

// populationNovelty is the mean parameter-space distance from ind to its k
// nearest population members, normalized by the space diagonal sqrt(N) and
// clamped to [0,1].
func populationNovelty(pop *Population, ind *Individual, k int) float64 {
	if k < 1 {
		k = 1
	}
	dists := make([]float64, 0, pop.Len())
	for i := 0; i < pop.Len(); i++ {
		dists = append(dists, euclidean(ind.params, pop.At(i).params))
	}
	sort.Float64s(dists)
	if k > len(dists) {
		k = len(dists)
	}
	if k == 0 {
		return 0.0
	}
	var sum float64
	for _, d := range dists[:k] {
		sum += d
	}
	nov := (sum / float64(k)) / math.Sqrt(float64(ind.ParameterCount()))
	if nov < 0.0 {
		nov = 0.0
	} else if nov > 1.0 {
		nov = 1.0
	}
	return nov
}

func euclidean(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func (e *Engine) snapshot() (Config, float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg, e.epsilon
}

func (e *Engine) decayEpsilon(cfg Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.epsilon *= cfg.EpsilonDecay
	if e.epsilon < cfg.EpsilonMin {
		e.epsilon = cfg.EpsilonMin
	}
}

func initialEpsilon(cfg Config) float64 {
	if cfg.AdaptiveExploration {
		return cfg.EpsilonMax
	}
	return defaultEpsilon
}

func stopped(stopCh <-chan struct{}) bool {
	select {
	case <-stopCh:
		return true
	default:
		return false
	}
}

func waitOrStop(stopCh <-chan struct{}, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-stopCh:
	case <-timer.C:
	}
}
