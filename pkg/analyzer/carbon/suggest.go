package carbon

import "strings"

// Kind classifies a suggestion.
type Kind string

const (
	KindWarning Kind = "warning"
	KindTip     Kind = "tip"
)

// Suggestion is one optimization hint with its estimated saving.
type Suggestion struct {
	Rule    string  `json:"rule"`
	Kind    Kind    `json:"kind"`
	Message string  `json:"message"`
	Impact  float64 `json:"impact_grams"`
}

// DefaultMinSuggestions is the number of suggestions every analysis reports,
// padded with general tips when fewer rules fire.
const DefaultMinSuggestions = 3

// Impact values in grams CO2e.
const (
	legacyLoopImpact       = 0.001
	domInLoopImpactEach    = 0.005
	logCallImpactEach      = 0.0008
	chainedIterationImpact = 0.003
	unmemoizedImpact       = 0.004
	listenerLeakImpact     = 0.002
	domBatchingImpact      = 0.003
	deepChainImpact        = 0.001
	fillerImpact           = 0.001
)

// maxDirectDOMMutations is the number of mutation calls tolerated before
// suggesting batched updates.
const maxDirectDOMMutations = 3

type rule struct {
	id    string
	check func(code string, m *Metrics) (Suggestion, bool)
}

// rules run in order; each is independent of the others.
var rules = []rule{
	{"legacy-loop-variable", legacyLoopRule},
	{"dom-in-loop", domInLoopRule},
	{"console-logging", loggingRule},
	{"chained-iteration", chainedIterationRule},
	{"unmemoized-recursion", recursionRule},
	{"listener-leak", listenerRule},
	{"dom-batching", domBatchingRule},
	{"deep-property-chain", deepChainRule},
}

var fillers = []Suggestion{
	{
		Rule:    "web-worker",
		Kind:    KindTip,
		Message: "Move CPU-intensive work to a Web Worker to keep the main thread idle and avoid wasted frames.",
		Impact:  fillerImpact,
	},
	{
		Rule:    "animation-frame",
		Kind:    KindTip,
		Message: "Schedule visual updates with requestAnimationFrame instead of timers so work only runs when the browser paints.",
		Impact:  fillerImpact,
	},
	{
		Rule:    "memoization",
		Kind:    KindTip,
		Message: "Consider memoization for expensive calculations to avoid redundant processing.",
		Impact:  fillerImpact,
	},
}

// Suggest evaluates the rule list against code and its metrics and pads the
// result to DefaultMinSuggestions entries.
func Suggest(code string, m *Metrics) []Suggestion {
	return suggest(code, m, DefaultMinSuggestions)
}

func suggest(code string, m *Metrics, minimum int) []Suggestion {
	if m == nil {
		return nil
	}

	suggestions := make([]Suggestion, 0, minimum)
	for _, r := range rules {
		if s, ok := r.check(code, m); ok {
			s.Rule = r.id
			suggestions = append(suggestions, s)
		}
	}

	for i := 0; len(suggestions) < minimum && i < len(fillers); i++ {
		suggestions = append(suggestions, fillers[i])
	}
	return suggestions
}

// hasLegacyLoop reports a for loop none of whose headers declare with let.
// A single "for (let " anywhere silences it.
func hasLegacyLoop(code string) bool {
	return strings.Contains(code, "for (") && !strings.Contains(code, "for (let ")
}

func legacyLoopRule(code string, _ *Metrics) (Suggestion, bool) {
	if !hasLegacyLoop(code) {
		return Suggestion{}, false
	}
	return Suggestion{
		Kind:    KindWarning,
		Message: `Use block-scoped loop variables declared with "let" instead of "var".`,
		Impact:  legacyLoopImpact,
	}, true
}

func domInLoopRule(_ string, m *Metrics) (Suggestion, bool) {
	if m.Patterns.DOMInLoops == 0 {
		return Suggestion{}, false
	}
	return Suggestion{
		Kind:    KindWarning,
		Message: "Cache DOM selections outside loops to reduce DOM queries on every iteration.",
		Impact:  float64(m.Patterns.DOMInLoops) * domInLoopImpactEach,
	}, true
}

func loggingRule(_ string, m *Metrics) (Suggestion, bool) {
	if m.Patterns.RedundantLogs == 0 {
		return Suggestion{}, false
	}
	return Suggestion{
		Kind:    KindWarning,
		Message: "Remove console logging from production code to reduce unnecessary operations.",
		Impact:  float64(m.Patterns.RedundantLogs) * logCallImpactEach,
	}, true
}

func chainedIterationRule(code string, _ *Metrics) (Suggestion, bool) {
	if !strings.Contains(code, ".forEach") {
		return Suggestion{}, false
	}
	if !strings.Contains(code, ".filter") && !strings.Contains(code, ".map") {
		return Suggestion{}, false
	}
	return Suggestion{
		Kind:    KindWarning,
		Message: "Combine forEach with filter/map passes into a single loop to avoid iterating the same data several times.",
		Impact:  chainedIterationImpact,
	}, true
}

func recursionRule(code string, m *Metrics) (Suggestion, bool) {
	if m.Signals.Recursion == 0 || memoPattern.MatchString(code) {
		return Suggestion{}, false
	}
	return Suggestion{
		Kind:    KindTip,
		Message: "Memoize recursive functions so repeated sub-problems are computed once.",
		Impact:  unmemoizedImpact,
	}, true
}

func listenerRule(code string, _ *Metrics) (Suggestion, bool) {
	if !strings.Contains(code, "addEventListener") || strings.Contains(code, "removeEventListener") {
		return Suggestion{}, false
	}
	return Suggestion{
		Kind:    KindTip,
		Message: "Remove event listeners when they are no longer needed to prevent leaks and stray handler work.",
		Impact:  listenerLeakImpact,
	}, true
}

func domBatchingRule(code string, _ *Metrics) (Suggestion, bool) {
	if countMatches(domMutationPattern, code) <= maxDirectDOMMutations {
		return Suggestion{}, false
	}
	return Suggestion{
		Kind:    KindTip,
		Message: "Batch DOM updates with a DocumentFragment or a single render to avoid repeated layout work.",
		Impact:  domBatchingImpact,
	}, true
}

func deepChainRule(code string, _ *Metrics) (Suggestion, bool) {
	if !deepChainPattern.MatchString(code) {
		return Suggestion{}, false
	}
	return Suggestion{
		Kind:    KindTip,
		Message: "Store deeply nested property lookups in a local variable instead of walking the chain repeatedly.",
		Impact:  deepChainImpact,
	}, true
}
