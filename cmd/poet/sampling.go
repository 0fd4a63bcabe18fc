package main

import (
	"fmt"
	"math"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/poet/internal/api"
	"github.com/samcharles93/poet/internal/inference"
)

type samplingSettings struct {
	temperature float64
	seed        int64
	strategy    string
	safetySteps int64
}

func samplingFlags(s *samplingSettings) []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{
			Name:        "temperature",
			Aliases:     []string{"temp", "t"},
			Usage:       "sampling temperature in [0, 2]; 0 is greedy",
			Value:       inference.DefaultTemperature,
			Destination: &s.temperature,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "RNG seed (-1 for random)",
			Value:       -1,
			Destination: &s.seed,
		},
		&cli.StringFlag{
			Name:        "strategy",
			Usage:       "decoding strategy (incremental, resequence)",
			Value:       string(inference.StrategyIncremental),
			Destination: &s.strategy,
		},
		&cli.Int64Flag{
			Name:        "safety-steps",
			Usage:       "upper bound on decode steps before padding",
			Value:       inference.DefaultSafetySteps,
			Destination: &s.safetySteps,
		},
	}
}

// defaults validates the settings and turns them into engine defaults.
func (s samplingSettings) defaults() (inference.GenDefaults, error) {
	if math.IsNaN(s.temperature) || s.temperature < api.MinTemperature || s.temperature > api.MaxTemperature {
		return inference.GenDefaults{}, fmt.Errorf("temperature must be between %g and %g, got %g", api.MinTemperature, api.MaxTemperature, s.temperature)
	}
	strategy, err := inference.ParseStrategy(s.strategy)
	if err != nil {
		return inference.GenDefaults{}, err
	}
	if s.safetySteps <= 0 {
		return inference.GenDefaults{}, fmt.Errorf("safety-steps must be positive, got %d", s.safetySteps)
	}
	temp := s.temperature
	seed := s.seed
	steps := int(s.safetySteps)
	return inference.GenDefaults{
		Temperature: &temp,
		Seed:        &seed,
		Strategy:    &strategy,
		SafetySteps: &steps,
	}, nil
}
