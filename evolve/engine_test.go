package evolve

import (
	"testing"
	"time"
)

func waitForBridgeData(t *testing.T, b *Bridge, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if b.HasData() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no candidate on bridge within %v", timeout)
}

func TestEngineStartStopLifecycle(t *testing.T) {
	e := NewEngine(ConstantModel{Value: 0.5}, 1)
	if e.IsRunning() {
		t.Fatalf("engine must not run before Start")
	}

	e.Start()
	if !e.IsRunning() {
		t.Fatalf("expected running after Start")
	}

	e.Stop()
	if e.IsRunning() {
		t.Fatalf("expected stopped after Stop")
	}
}

func TestEngineDoubleStartAndDoubleStop(t *testing.T) {
	e := NewEngine(ConstantModel{Value: 0.5}, 2)
	e.Start()
	e.Start()
	if !e.IsRunning() {
		t.Fatalf("double start must leave engine running")
	}
	e.Stop()
	e.Stop()
	if e.IsRunning() {
		t.Fatalf("double stop must leave engine stopped")
	}
}

func TestEnginePublishesInitialCandidate(t *testing.T) {
	e := NewEngine(ConstantModel{Value: 0.5}, 3)
	e.Start()
	defer e.Stop()

	waitForBridgeData(t, e.Bridge(), time.Second)
	params, _, ok := e.Bridge().Pop()
	if !ok {
		t.Fatalf("expected candidate after start")
	}
	if len(params) != ParamCount {
		t.Fatalf("expected %d parameters, got %d", ParamCount, len(params))
	}
	for _, v := range params {
		if v < 0.0 || v > 1.0 {
			t.Fatalf("published parameter out of [0,1]: %f", v)
		}
	}
}

func TestEngineKeepsProducingAfterPop(t *testing.T) {
	e := NewEngine(NewRandomModel(17), 4)
	e.Start()
	defer e.Stop()

	for i := 0; i < 5; i++ {
		waitForBridgeData(t, e.Bridge(), time.Second)
		if _, _, ok := e.Bridge().Pop(); !ok {
			t.Fatalf("round %d: expected candidate", i)
		}
	}
}

func TestEnginePauseResume(t *testing.T) {
	e := NewEngine(NewRandomModel(23), 5)
	e.Start()
	defer e.Stop()

	if e.IsPaused() {
		t.Fatalf("engine must not start paused")
	}
	e.Pause()
	if !e.IsPaused() || !e.IsRunning() {
		t.Fatalf("pause must keep the engine running: paused=%v running=%v",
			e.IsPaused(), e.IsRunning())
	}

	// Drain and wait out in-flight generation; a paused engine must stop
	// publishing new candidates.
	time.Sleep(250 * time.Millisecond)
	e.Bridge().Clear()
	time.Sleep(250 * time.Millisecond)
	if e.Bridge().HasData() {
		t.Fatalf("paused engine must not publish")
	}

	e.Resume()
	if e.IsPaused() {
		t.Fatalf("expected unpaused after Resume")
	}
	waitForBridgeData(t, e.Bridge(), time.Second)
}

func TestEngineStopWhilePaused(t *testing.T) {
	e := NewEngine(ConstantModel{Value: 0.5}, 6)
	e.Start()
	e.Pause()

	done := make(chan struct{})
	go func() {
		e.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("stop did not return while paused")
	}
	if e.IsRunning() || e.IsPaused() {
		t.Fatalf("expected idle after stop, running=%v paused=%v", e.IsRunning(), e.IsPaused())
	}
}

func TestEngineRestartReseedsPopulation(t *testing.T) {
	e := NewEngine(NewRandomModel(5), 7)
	e.Start()
	waitForBridgeData(t, e.Bridge(), time.Second)
	e.Stop()

	e.Bridge().Clear()
	e.Start()
	defer e.Stop()
	waitForBridgeData(t, e.Bridge(), time.Second)
}

func TestEngineConfigSnapshot(t *testing.T) {
	e := NewEngine(ConstantModel{Value: 0.5}, 8)
	cfg := DefaultConfig()
	cfg.AdaptiveExploration = true
	cfg.EpsilonMax = 0.8
	cfg.EpsilonMin = 0.1
	cfg.EpsilonDecay = 0.9
	cfg.NoveltyBonus = true
	cfg.MultiObjective = true
	e.SetConfig(cfg)

	got := e.Config()
	if !got.AdaptiveExploration || got.EpsilonMax != 0.8 || got.EpsilonDecay != 0.9 {
		t.Fatalf("config snapshot mismatch: %+v", got)
	}
	if got.Flags() != "adaptive+novelty+multiobjective" {
		t.Fatalf("unexpected flags label %q", got.Flags())
	}
}

func TestEngineBackpressure(t *testing.T) {
	e := NewEngine(NewRandomModel(9), 10)
	e.Start()
	defer e.Stop()

	waitForBridgeData(t, e.Bridge(), time.Second)
	first, _, _ := e.Bridge().Pop()

	// Leave the next candidate unread; the engine must back off rather
	// than churn. We can only observe this indirectly: the pending
	// candidate stays stable for a while.
	waitForBridgeData(t, e.Bridge(), time.Second)
	time.Sleep(300 * time.Millisecond)
	second, _, ok := e.Bridge().Pop()
	if !ok {
		t.Fatalf("expected pending candidate to remain available")
	}
	if len(first) != len(second) {
		t.Fatalf("candidate length changed: %d vs %d", len(first), len(second))
	}
}

func TestPopulationNoveltyRange(t *testing.T) {
	pop := NewPopulation(10, ParamCount)
	for i := 0; i < pop.Len(); i++ {
		pop.At(i).SetParameters(constantGenome(0.0))
		pop.At(i).SetFitness(0.5)
	}
	far := NewIndividualFrom(constantGenome(1.0))
	near := NewIndividualFrom(constantGenome(0.0))

	novFar := populationNovelty(pop, far, 5)
	novNear := populationNovelty(pop, near, 5)
	if novFar <= novNear {
		t.Fatalf("expected distant individual to be more novel: %f vs %f", novFar, novNear)
	}
	if novFar < 0.0 || novFar > 1.0 {
		t.Fatalf("novelty out of [0,1]: %f", novFar)
	}
	if novNear != 0.0 {
		t.Fatalf("identical individual must have zero novelty, got %f", novNear)
	}
}

func TestConfigFlagsBaseline(t *testing.T) {
	if got := DefaultConfig().Flags(); got != "baseline" {
		t.Fatalf("expected baseline, got %q", got)
	}
	cfg := DefaultConfig()
	cfg.InputMode = InputAudio
	if got := cfg.Flags(); got != "audio" {
		t.Fatalf("expected audio, got %q", got)
	}
}
