// Package main provides CMA-ES calibration of transmission and mobility
// parameters against a target final attack rate.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/contagion/config"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// evalRow is one line of calibrate_log.csv.
type evalRow struct {
	Eval         int     `csv:"eval"`
	Fitness      float64 `csv:"fitness"`
	MeanAttack   float64 `csv:"mean_attack_rate"`
	StdDevAttack float64 `csv:"stddev_attack_rate"`
	Transmission float64 `csv:"transmission"`
	BetaAdult    float64 `csv:"beta_adult"`
	BetaElderly  float64 `csv:"beta_elderly"`
	BetaYouth    float64 `csv:"beta_youth"`
	BetaInfant   float64 `csv:"beta_infant"`
}

func newEvalRow(eval int, r EvalResult, clamped []float64) evalRow {
	return evalRow{
		Eval:         eval,
		Fitness:      r.Fitness,
		MeanAttack:   r.MeanAttack,
		StdDevAttack: r.StdDevAttack,
		Transmission: clamped[0],
		BetaAdult:    clamped[1],
		BetaElderly:  clamped[2],
		BetaYouth:    clamped[3],
		BetaInfant:   clamped[4],
	}
}

// evalLog appends rows to a CSV file, writing the header once.
type evalLog struct {
	file          *os.File
	headerWritten bool
}

func (l *evalLog) write(row evalRow) error {
	rows := []evalRow{row}
	if !l.headerWritten {
		l.headerWritten = true
		return gocsv.Marshal(rows, l.file)
	}
	return gocsv.MarshalWithoutHeaders(rows, l.file)
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	ticks := flag.Int("ticks", 0, "Ticks per run (0 = use config)")
	target := flag.Float64("target", 0.5, "Target final attack rate in [0, 1]")
	seeds := flag.Int("seeds", 4, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if *target < 0 || *target > 1 {
		log.Fatalf("--target must be in [0, 1], got %v", *target)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg := config.Cfg()
	if err := baseCfg.Validate(); err != nil {
		log.Fatalf("invalid base config: %v", err)
	}
	runTicks := baseCfg.Run.Ticks
	if *ticks > 0 {
		runTicks = *ticks
	}

	params := NewParamVector()

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	evaluator := NewFitnessEvaluator(params, runTicks, evalSeeds, baseCfg, *target)

	dim := params.Dim()
	initX := params.Normalize(params.Clamp(params.ExtractFromConfig(baseCfg)))

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}

	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}
	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // seeds already run in parallel
	}

	logPath := filepath.Join(*outputDir, "calibrate_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()
	evals := &evalLog{file: logFile}

	evalCount := 0
	bestFitness := 1e9
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			clamped := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(clamped)
			evalCount++

			result := evaluator.Last()
			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = clamped
			}

			if err := evals.write(newEvalRow(evalCount, result, clamped)); err != nil {
				log.Printf("failed to write log row: %v", err)
			}

			elapsed := time.Since(startTime)
			avgPerEval := elapsed / time.Duration(evalCount)
			remaining := time.Duration(*maxEvals-evalCount) * avgPerEval

			fmt.Printf("Eval %d/%d: attack=%.3f±%.3f fitness=%.5f (best=%.5f) | elapsed: %s, ETA: %s\n",
				evalCount, *maxEvals, result.MeanAttack, result.StdDevAttack, fitness, bestFitness,
				formatDuration(elapsed), formatDuration(remaining))

			return fitness
		},
	}

	fmt.Printf("Starting CMA-ES calibration with %d parameters, population=%d, max_evals=%d\n",
		dim, popSize, *maxEvals)
	fmt.Printf("Target attack rate: %.3f, seeds per evaluation: %d, ticks per run: %d\n", *target, *seeds, runTicks)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("calibration ended: %v", err)
	}

	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		log.Fatal("no evaluation completed")
	}

	fmt.Printf("\nCalibration complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best fitness: %.6f (mean attack rate %.3f)\n", bestFitness, evaluator.Best().MeanAttack)

	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Path, bestParams[i])
	}

	bestCfg := baseCfg.Clone()
	params.ApplyToConfig(bestCfg, bestParams)
	bestCfg.Run.Ticks = runTicks

	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}
}
