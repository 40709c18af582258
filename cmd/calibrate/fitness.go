package main

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/contagion/config"
	"github.com/pthm-cable/contagion/engine"
)

// varianceWeight penalises parameter sets whose outcome depends strongly
// on the seed.
const varianceWeight = 0.25

// EvalResult aggregates the seeds of one evaluation.
type EvalResult struct {
	Fitness      float64
	MeanAttack   float64
	StdDevAttack float64
	AttackRates  []float64
}

// FitnessEvaluator runs headless simulations and scores them against a
// target final attack rate.
type FitnessEvaluator struct {
	params       *ParamVector
	ticks        int
	seeds        []int64
	baseConfig   *config.Config
	targetAttack float64

	mu         sync.Mutex
	bestResult EvalResult
	lastResult EvalResult
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, ticks int, seeds []int64, baseCfg *config.Config, targetAttack float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:       params,
		ticks:        ticks,
		seeds:        seeds,
		baseConfig:   baseCfg.Clone(),
		targetAttack: targetAttack,
		bestResult:   EvalResult{Fitness: math.Inf(1)},
	}
}

// Last returns the result of the most recent Evaluate call.
func (fe *FitnessEvaluator) Last() EvalResult {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastResult
}

// Best returns the best result seen so far.
func (fe *FitnessEvaluator) Best() EvalResult {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestResult
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// All seeds run concurrently, one engine per goroutine.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	rates := make([]float64, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			rates[idx] = fe.runSimulation(context.Background(), cfg, s)
		}(i, seed)
	}
	wg.Wait()

	result := fe.score(rates)

	fe.mu.Lock()
	fe.lastResult = result
	if result.Fitness < fe.bestResult.Fitness {
		fe.bestResult = result
	}
	fe.mu.Unlock()

	return result.Fitness
}

// score turns per-seed attack rates into a fitness value.
func (fe *FitnessEvaluator) score(rates []float64) EvalResult {
	mean, variance := stat.MeanVariance(rates, nil)
	if len(rates) < 2 {
		variance = 0
	}
	diff := mean - fe.targetAttack
	return EvalResult{
		Fitness:      diff*diff + varianceWeight*variance,
		MeanAttack:   mean,
		StdDevAttack: math.Sqrt(variance),
		AttackRates:  rates,
	}
}

// runSimulation executes a single headless run and returns its final
// attack rate. A configuration error scores as the worst attack rate
// relative to the target. A cancelled run scores the ticks it completed.
func (fe *FitnessEvaluator) runSimulation(ctx context.Context, cfg *config.Config, seed int64) float64 {
	e, err := engine.New(cfg, seed)
	if err != nil {
		slog.Error("invalid calibration config", "error", err, "seed", seed)
		if fe.targetAttack < 0.5 {
			return 1
		}
		return 0
	}
	if err := e.Run(ctx, fe.ticks); err != nil {
		slog.Warn("calibration run ended early", "error", err, "seed", seed, "tick", e.Tick())
	}
	return e.Stats().AttackRate()
}
