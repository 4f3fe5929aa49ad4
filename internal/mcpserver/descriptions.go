package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it,
// how to interpret results, and key thresholds.

func describeAnalyzeCode() string {
	return `Estimates the carbon cost of JavaScript or TypeScript code and proposes a lower-cost rewrite.

USE WHEN:
- Reviewing a snippet for wasteful loops, DOM access or logging
- Comparing the estimated footprint of two implementations
- Finding the most expensive files in a front-end project
- Looking for quick wins before a performance pass

INTERPRETING RESULTS:
- Emissions are grams CO2e from a lexical heuristic, useful for comparison only
- Nested loops and DOM access inside loops dominate the estimate
- A warning names a pattern worth fixing; a tip is general advice
- Impact is the estimated saving in grams if the suggestion is applied
- optimized_code is present only when the automatic rewrite changed the text
- A negative reduction means the rewrite costs more than the original

METRICS RETURNED:
- Single snippet: original and optimized emission, savings, suggestions, complexity, runtime
- Paths: per-file emission and reduction, failed files, totals, mean, P50, P90, max`
}

func describeEstimateWebsite() string {
	return `Returns a placeholder carbon estimate for a website URL.

USE WHEN:
- Demonstrating the shape of a website footprint report
- Checking that a URL is well formed

INTERPRETING RESULTS:
- The page is not fetched; every figure is a fixed placeholder (mock: true)
- Rating is Good when the site is cleaner than more than 70% of pages tested

METRICS RETURNED:
- emissions_grams per visit, energy_wh and data_transfer_mb per view
- cleaner_than_percent, rating, optimization opportunities`
}
