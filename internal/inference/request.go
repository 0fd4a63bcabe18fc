package inference

// RequestOptions carries caller-supplied overrides; nil fields fall back to
// the configured defaults.
type RequestOptions struct {
	Prompt string

	Temperature *float64
	Seed        *int64
	Strategy    *Strategy
	SafetySteps *int
}

// GenDefaults holds process-level defaults, usually from flags or the user
// config file.
type GenDefaults struct {
	Temperature *float64
	Seed        *int64
	Strategy    *Strategy
	SafetySteps *int
}

// DefaultTemperature matches the interactive slider's starting value.
const DefaultTemperature = 0.5

func ResolveRequest(opts RequestOptions, defaults GenDefaults) Request {
	req := Request{
		Prompt:      opts.Prompt,
		Temperature: DefaultTemperature,
		Seed:        -1,
		Strategy:    StrategyIncremental,
		SafetySteps: DefaultSafetySteps,
	}

	if defaults.Temperature != nil && *defaults.Temperature >= 0 {
		req.Temperature = *defaults.Temperature
	}
	if defaults.Seed != nil {
		req.Seed = *defaults.Seed
	}
	if defaults.Strategy != nil && *defaults.Strategy != "" {
		req.Strategy = *defaults.Strategy
	}
	if defaults.SafetySteps != nil && *defaults.SafetySteps > 0 {
		req.SafetySteps = *defaults.SafetySteps
	}

	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}
	if opts.Seed != nil {
		req.Seed = *opts.Seed
	}
	if opts.Strategy != nil && *opts.Strategy != "" {
		req.Strategy = *opts.Strategy
	}
	if opts.SafetySteps != nil {
		req.SafetySteps = *opts.SafetySteps
	}

	return req
}
