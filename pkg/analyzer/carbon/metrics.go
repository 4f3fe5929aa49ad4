package carbon

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultLongFunctionLines is the body length above which a function counts
// as long.
const DefaultLongFunctionLines = 50

// Metrics is a structural snapshot of one source text.
type Metrics struct {
	Lines         int      `json:"lines"`
	Characters    int      `json:"characters"`
	Operations    int      `json:"operations"`
	Loops         int      `json:"loops"`
	Conditionals  int      `json:"conditionals"`
	FunctionCalls int      `json:"function_calls"`
	DOMOperations int      `json:"dom_operations"`
	Patterns      Patterns `json:"patterns"`
	Signals       Signals  `json:"signals"`
}

// Patterns counts detected inefficiency patterns.
type Patterns struct {
	NestedLoops   int `json:"nested_loops"`
	DOMInLoops    int `json:"dom_in_loops"`
	LongFunctions int `json:"long_functions"`
	Allocations   int `json:"allocations"`
	RedundantLogs int `json:"redundant_logs"`
}

// Signals are the extra lexical signals consumed by the complexity score.
type Signals struct {
	Recursion            int  `json:"recursion"`
	NetworkCalls         int  `json:"network_calls"`
	RegexConstructions   int  `json:"regex_constructions"`
	StringConcatenations int  `json:"string_concatenations"`
	NaiveSort            bool `json:"naive_sort"`
}

// Extract computes metrics for code. It returns nil for empty or
// whitespace-only input, which callers treat as "cannot analyze".
func Extract(code string) *Metrics {
	return extract(code, DefaultLongFunctionLines)
}

func extract(code string, longFunctionLines int) *Metrics {
	if strings.TrimSpace(code) == "" {
		return nil
	}

	src := newSource(code)
	calls := countCalls(code)
	loops := loopBlocks(src)
	funcs := functionBlocks(src)
	nested := countMatches(nestedLoopPattern, code)

	return &Metrics{
		Lines:         strings.Count(code, "\n") + 1,
		Characters:    utf8.RuneCountInString(code),
		Operations:    countMatches(operatorPattern, code) + calls,
		Loops:         countMatches(loopKeywordPattern, code),
		Conditionals:  countMatches(conditionalPattern, code),
		FunctionCalls: calls,
		DOMOperations: countMatches(domOperationPattern, code),
		Patterns: Patterns{
			NestedLoops:   nested,
			DOMInLoops:    countInSpans(domAccessPattern, code, mergeSpans(loops)),
			LongFunctions: countLongFunctions(src, funcs, longFunctionLines),
			Allocations:   countMatches(arrayAllocPattern, code) + countMatches(objectAllocPattern, code),
			RedundantLogs: countMatches(logCallPattern, code),
		},
		Signals: Signals{
			Recursion:            countRecursion(src, funcs),
			NetworkCalls:         countMatches(networkPattern, code),
			RegexConstructions:   countMatches(regexOpPattern, code),
			StringConcatenations: countMatches(stringConcatPattern, code),
			NaiveSort:            naiveSort(code, nested),
		},
	}
}

func countInSpans(re *regexp.Regexp, code string, spans []span) int {
	if len(spans) == 0 {
		return 0
	}
	n := 0
	for _, loc := range re.FindAllStringIndex(code, -1) {
		if inSpans(loc[0], spans) {
			n++
		}
	}
	return n
}

func countLongFunctions(src *source, funcs []funcBlock, limit int) int {
	n := 0
	for _, fn := range funcs {
		if src.newlines(fn.open, fn.close+1)+1 > limit {
			n++
		}
	}
	return n
}

func countRecursion(src *source, funcs []funcBlock) int {
	n := 0
	for _, fn := range funcs {
		if selfCalling(src, fn) {
			n++
		}
	}
	return n
}

// naiveSort flags a sort alongside nested loops when no named fast sort
// appears in the text.
func naiveSort(code string, nestedLoops int) bool {
	return strings.Contains(code, "sort") &&
		!strings.Contains(code, "quicksort") &&
		!strings.Contains(code, "mergesort") &&
		nestedLoops > 0
}
