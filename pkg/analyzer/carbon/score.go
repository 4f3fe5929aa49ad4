package carbon

// Complexity weights. The model is a linear weighted sum over lexical
// counts, not an asymptotic analysis.
const (
	BaseComplexity            = 1.0
	LoopWeight                = 1.5
	RecursionWeight           = 3.0
	ConditionalWeight         = 0.8
	NestedLoopWeight          = 5.0
	DOMOperationWeight        = 0.7
	NetworkCallWeight         = 2.0
	RegexWeight               = 0.8
	NaiveSortPenalty          = 3.0
	AllocationWeight          = 0.3
	StringConcatenationWeight = 0.2
)

// Runtime model constants, in milliseconds.
const (
	BaseRuntimeMs         = 0.01
	RuntimePerLineMs      = 0.005
	RuntimePerOperationMs = 0.001
	RuntimePerComplexity  = 0.5
)

// Grid and device assumptions used to turn runtime into grams.
const (
	// CarbonIntensity is the average grid intensity in gCO2e per kWh.
	CarbonIntensity = 475.0
	// ProcessorWatts is the assumed power draw while the code runs.
	ProcessorWatts = 65.0

	joulesPerKWh = 3_600_000.0
)

// Factors are the per-unit emission factors in grams CO2e.
type Factors struct {
	PerOperation    float64 `json:"per_operation" koanf:"per_operation" toml:"per_operation"`
	PerLoop         float64 `json:"per_loop" koanf:"per_loop" toml:"per_loop"`
	PerNestedLoop   float64 `json:"per_nested_loop" koanf:"per_nested_loop" toml:"per_nested_loop"`
	PerDOMOperation float64 `json:"per_dom_operation" koanf:"per_dom_operation" toml:"per_dom_operation"`
	PerComplexity   float64 `json:"per_complexity" koanf:"per_complexity" toml:"per_complexity"`
	PerRuntimeMs    float64 `json:"per_runtime_ms" koanf:"per_runtime_ms" toml:"per_runtime_ms"`
}

// DefaultFactors returns the standard emission factors. The runtime factor is
// the grid cost of one millisecond at ProcessorWatts.
func DefaultFactors() Factors {
	return Factors{
		PerOperation:    0.0005,
		PerLoop:         0.002,
		PerNestedLoop:   0.01,
		PerDOMOperation: 0.003,
		PerComplexity:   0.001,
		PerRuntimeMs:    EnergyToCarbon(ProcessorWatts / 1000),
	}
}

// Complexity scores the metrics. A nil snapshot scores zero.
func Complexity(m *Metrics) float64 {
	if m == nil {
		return 0
	}

	c := BaseComplexity
	c += float64(m.Loops) * LoopWeight
	c += float64(m.Signals.Recursion) * RecursionWeight
	c += float64(m.Conditionals) * ConditionalWeight
	c += float64(m.Patterns.NestedLoops) * NestedLoopWeight
	c += float64(m.DOMOperations) * DOMOperationWeight
	c += float64(m.Signals.NetworkCalls) * NetworkCallWeight
	c += float64(m.Signals.RegexConstructions) * RegexWeight
	if m.Signals.NaiveSort {
		c += NaiveSortPenalty
	}
	c += float64(m.Patterns.Allocations) * AllocationWeight
	c += float64(m.Signals.StringConcatenations) * StringConcatenationWeight
	return c
}

// EstimateRuntime returns an estimated execution time in milliseconds.
func EstimateRuntime(complexity float64, lines, operations int) float64 {
	return BaseRuntimeMs +
		float64(lines)*RuntimePerLineMs +
		float64(operations)*RuntimePerOperationMs +
		complexity*RuntimePerComplexity
}

// EstimateEmission returns grams CO2e as an additive sum of weighted
// components.
func EstimateEmission(m *Metrics, complexity, runtimeMs float64, f Factors) float64 {
	if m == nil {
		return 0
	}
	return float64(m.Operations)*f.PerOperation +
		float64(m.Loops)*f.PerLoop +
		float64(m.Patterns.NestedLoops)*f.PerNestedLoop +
		float64(m.DOMOperations)*f.PerDOMOperation +
		complexity*f.PerComplexity +
		runtimeMs*f.PerRuntimeMs
}

// EnergyToCarbon converts joules to grams CO2e at CarbonIntensity.
func EnergyToCarbon(joules float64) float64 {
	return joules / joulesPerKWh * CarbonIntensity
}
