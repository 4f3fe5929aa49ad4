package carbon

import (
	"regexp"
	"sort"
	"strings"
)

// Lexical heuristic layer.
//
// Everything in this file works on raw text with regular expressions and
// bracket pairing. Nothing here parses JavaScript: string literals and
// comments are skipped when pairing brackets, regex literals and ASI are
// not understood. Callers treat every count as a proxy.
//
// A text is indexed once into a source. Lookups against the index are
// constant or logarithmic, so every scan below stays near linear in the size
// of the text whatever its bracket balance.

const identPattern = `[A-Za-z_$][\w$]*`

var (
	operatorPattern     = regexp.MustCompile(`[+\-*/%=<>!&|^~?]+`)
	callPattern         = regexp.MustCompile(`(` + identPattern + `)\s*\(`)
	loopKeywordPattern  = regexp.MustCompile(`\b(?:for|while|forEach|map|filter|reduce)\b`)
	conditionalPattern  = regexp.MustCompile(`\b(?:if|else|switch|case)\b|=>`)
	domOperationPattern = regexp.MustCompile(`\b(?:document|querySelectorAll|querySelector|getElementById|getElementsByClassName|getElementsByTagName|innerHTML|appendChild|removeChild|insertBefore|createElement)\b`)

	// Two loop keywords within 120 characters of each other. This over-counts
	// unrelated adjacent loops and misses nested loops whose headers are
	// further apart; both are accepted.
	nestedLoopPattern = regexp.MustCompile(`(?s)\b(?:for|while)\b.{0,120}?\b(?:for|while)\b`)

	// A DOM access is a document query, a node mutation, or a bare document
	// reference. The first alternative consumes "document.getElementById" as
	// one access.
	domAccessPattern   = regexp.MustCompile(`\bdocument\s*\.\s*(?:querySelectorAll|querySelector|getElementById|getElementsByClassName|getElementsByTagName|getElementsByName|createElement)\b|\b(?:querySelectorAll|querySelector|getElementById|getElementsByClassName|getElementsByTagName|getElementsByName|innerHTML|appendChild|removeChild|insertBefore|createElement)\b|\bdocument\b`)
	domMutationPattern = regexp.MustCompile(`\.(?:appendChild|removeChild|insertBefore|replaceChild|insertAdjacentHTML|setAttribute)\s*\(|\.(?:innerHTML|outerHTML|textContent)\s*\+?=[^=]`)
	domQueryPattern    = regexp.MustCompile(`\bdocument\s*\.\s*(?:getElementById|querySelectorAll|querySelector|getElementsByClassName|getElementsByTagName)\s*\(\s*('[^'\n]*'|"[^"\n]*")\s*\)`)

	arrayAllocPattern   = regexp.MustCompile(`new Array|Array\(|Array\.from|\[\]`)
	objectAllocPattern  = regexp.MustCompile(`new Object|\{\}`)
	logCallPattern      = regexp.MustCompile(`\bconsole\s*\.\s*(?:log|debug|info|trace)\s*\(`)
	networkPattern      = regexp.MustCompile(`fetch|XMLHttpRequest|axios|ajax`)
	regexOpPattern      = regexp.MustCompile(`new RegExp|/.*/[gimsuy]*`)
	stringConcatPattern = regexp.MustCompile("\\+\\s*\"|'\\s*\\+|`.*\\$\\{")
	memoPattern         = regexp.MustCompile(`(?i)memo|cache|new\s+(?:Weak)?Map\b`)
	deepChainPattern    = regexp.MustCompile(identPattern + `(?:\??\.` + identPattern + `){4,}`)

	loopHeaderPattern    = regexp.MustCompile(`\b(?:for|while)\s*\(`)
	iteratorCallPattern  = regexp.MustCompile(`\.(?:forEach|map|filter|reduce)\s*\(`)
	doBlockPattern       = regexp.MustCompile(`\bdo\s*\{`)
	functionDeclPattern  = regexp.MustCompile(`\bfunction\b\s*\*?\s*(` + identPattern + `)?\s*\(`)
	arrowBodyPattern     = regexp.MustCompile(`=>\s*\{`)
	assignedNamePattern  = regexp.MustCompile(`(?:const|let|var)\s+(` + identPattern + `)\s*=\s*(?:async\s*)?(?:\([^()]*\)|` + identPattern + `)?\s*$`)
	legacyLoopVarPattern = regexp.MustCompile(`(\bfor\s*\(\s*)var\b`)
	identTokenPattern    = regexp.MustCompile(identPattern)
)

// assignWindow bounds how far back assignedName looks for a binding.
const assignWindow = 256

// callKeywords are identifiers that precede "(" without being calls.
var callKeywords = map[string]bool{
	"if":       true,
	"for":      true,
	"while":    true,
	"switch":   true,
	"catch":    true,
	"function": true,
	"return":   true,
	"typeof":   true,
}

// span is a half-open byte range [start, end).
type span struct {
	start int
	end   int
}

func (s span) contains(pos int) bool {
	return pos >= s.start && pos < s.end
}

// loopBlock is a loop statement and the text that forms its body.
type loopBlock struct {
	stmt int
	body span
}

// funcBlock is a function with its brace-delimited body.
type funcBlock struct {
	name  string
	start int
	open  int
	close int
}

func countMatches(re *regexp.Regexp, text string) int {
	return len(re.FindAllStringIndex(text, -1))
}

func countCalls(code string) int {
	n := 0
	for _, m := range callPattern.FindAllStringSubmatch(code, -1) {
		if !callKeywords[m[1]] {
			n++
		}
	}
	return n
}

// source is a text with its lexical index.
type source struct {
	code  string
	pairs map[int]int
	lines []int // offset of every line start; lines[0] is 0
	stops []int // offsets of ';' and '\n'

	idents map[string]bool
	calls  map[string][]int
}

func newSource(code string) *source {
	s := &source{code: code, pairs: pairBrackets(code), lines: []int{0}}
	for i := 0; i < len(code); i++ {
		switch code[i] {
		case '\n':
			s.lines = append(s.lines, i+1)
			s.stops = append(s.stops, i)
		case ';':
			s.stops = append(s.stops, i)
		}
	}
	return s
}

// close returns the index of the bracket closing the one at open, or -1.
func (s *source) close(open int) int {
	if c, ok := s.pairs[open]; ok {
		return c
	}
	return -1
}

func (s *source) lineStart(pos int) int {
	return s.lines[sort.SearchInts(s.lines, pos+1)-1]
}

func (s *source) lineIndent(pos int) string {
	start := s.lineStart(pos)
	return s.code[start:skipHorizontal(s.code, start)]
}

// nextLine returns the start of the first line beginning after pos, or -1.
func (s *source) nextLine(pos int) int {
	i := sort.SearchInts(s.lines, pos+1)
	if i == len(s.lines) {
		return -1
	}
	return s.lines[i]
}

// newlines counts the line breaks in code[start:end].
func (s *source) newlines(start, end int) int {
	return sort.SearchInts(s.lines, end+1) - sort.SearchInts(s.lines, start+1)
}

// stmtEnd returns the first ';' or newline at or after pos, or len(code).
func (s *source) stmtEnd(pos int) int {
	i := sort.SearchInts(s.stops, pos)
	if i == len(s.stops) {
		return len(s.code)
	}
	return s.stops[i]
}

// identifierUsed reports whether name appears as an identifier token.
func (s *source) identifierUsed(name string) bool {
	if s.idents == nil {
		s.idents = make(map[string]bool)
		for _, tok := range identTokenPattern.FindAllString(s.code, -1) {
			s.idents[tok] = true
		}
	}
	return s.idents[name]
}

// callsTo returns the sorted offsets of calls to name.
func (s *source) callsTo(name string) []int {
	if s.calls == nil {
		s.calls = make(map[string][]int)
		for _, m := range callPattern.FindAllStringSubmatchIndex(s.code, -1) {
			id := s.code[m[2]:m[3]]
			s.calls[id] = append(s.calls[id], m[2])
		}
	}
	return s.calls[name]
}

func bracketKind(c byte) int {
	switch c {
	case '(', ')':
		return 0
	case '[', ']':
		return 1
	}
	return 2
}

// pairBrackets matches (), [] and {} in a single pass and maps every paired
// open bracket to its close. String literals and comments are skipped. A
// close with no open of its kind pending is ignored; otherwise the opens
// stacked above its partner are left unpaired. A quoted string missing its
// closing quote ends at the line break. An unterminated template literal or
// block comment ends the scan.
func pairBrackets(code string) map[int]int {
	pairs := make(map[int]int)
	var (
		stack   []int
		pending [3]int
	)
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch c {
		case '"', '\'', '`':
			end, closed := scanString(code, i)
			if !closed && (c == '`' || end == len(code)) {
				return pairs
			}
			i = end
		case '/':
			switch {
			case i+1 < len(code) && code[i+1] == '/':
				nl := strings.IndexByte(code[i:], '\n')
				if nl < 0 {
					return pairs
				}
				i += nl
			case i+1 < len(code) && code[i+1] == '*':
				end := strings.Index(code[i+2:], "*/")
				if end < 0 {
					return pairs
				}
				i += end + 3
			}
		case '(', '[', '{':
			stack = append(stack, i)
			pending[bracketKind(c)]++
		case ')', ']', '}':
			kind := bracketKind(c)
			if pending[kind] == 0 {
				continue
			}
			for {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				k := bracketKind(code[top])
				pending[k]--
				if k == kind {
					pairs[top] = i
					break
				}
			}
		}
	}
	return pairs
}

// scanString returns the index of the quote closing the literal that opens
// at i. When the literal is not terminated it returns the line break ending
// a quoted string, or len(code), with closed false.
func scanString(code string, i int) (end int, closed bool) {
	quote := code[i]
	for j := i + 1; j < len(code); j++ {
		switch code[j] {
		case '\\':
			j++
		case quote:
			return j, true
		case '\n':
			if quote != '`' {
				return j, false
			}
		}
	}
	return len(code), false
}

func skipSpace(code string, i int) int {
	for i < len(code) && (code[i] == ' ' || code[i] == '\t' || code[i] == '\n' || code[i] == '\r') {
		i++
	}
	return i
}

func skipHorizontal(code string, i int) int {
	for i < len(code) && (code[i] == ' ' || code[i] == '\t') {
		i++
	}
	return i
}

// loopBlocks locates loop statements and their bodies. Braced bodies run to
// the matching brace, unbraced bodies to the end of the statement, and
// iterator callbacks (forEach, map, ...) to the closing parenthesis.
func loopBlocks(src *source) []loopBlock {
	code := src.code
	var blocks []loopBlock

	for _, loc := range loopHeaderPattern.FindAllStringIndex(code, -1) {
		parenClose := src.close(loc[1] - 1)
		if parenClose < 0 {
			continue
		}
		j := skipSpace(code, parenClose+1)
		if j >= len(code) || code[j] == ';' {
			// do { } while (...); has its body recorded by doBlockPattern.
			continue
		}
		if code[j] == '{' {
			braceClose := src.close(j)
			if braceClose < 0 {
				continue
			}
			blocks = append(blocks, loopBlock{stmt: loc[0], body: span{j + 1, braceClose}})
			continue
		}
		blocks = append(blocks, loopBlock{stmt: loc[0], body: span{j, src.stmtEnd(j)}})
	}

	for _, loc := range iteratorCallPattern.FindAllStringIndex(code, -1) {
		open := loc[1] - 1
		closeIdx := src.close(open)
		if closeIdx < 0 {
			continue
		}
		blocks = append(blocks, loopBlock{stmt: loc[0], body: span{open + 1, closeIdx}})
	}

	for _, loc := range doBlockPattern.FindAllStringIndex(code, -1) {
		open := loc[1] - 1
		closeIdx := src.close(open)
		if closeIdx < 0 {
			continue
		}
		blocks = append(blocks, loopBlock{stmt: loc[0], body: span{open + 1, closeIdx}})
	}

	sort.Slice(blocks, func(i, j int) bool { return blocks[i].stmt < blocks[j].stmt })
	return blocks
}

// mergeSpans returns the union of the loop bodies as disjoint sorted spans.
func mergeSpans(blocks []loopBlock) []span {
	if len(blocks) == 0 {
		return nil
	}
	spans := make([]span, len(blocks))
	for i, b := range blocks {
		spans[i] = b.body
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	merged := []span{spans[0]}
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.start <= last.end {
			if s.end > last.end {
				last.end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// inSpans reports whether pos falls in one of the disjoint sorted spans.
func inSpans(pos int, spans []span) bool {
	i := sort.Search(len(spans), func(i int) bool { return spans[i].end > pos })
	return i < len(spans) && spans[i].contains(pos)
}

// outerLoops returns the loops whose statement does not start inside an
// earlier loop's body. Their bodies are disjoint and sorted.
func outerLoops(loops []loopBlock) []loopBlock {
	var outer []loopBlock
	reach := -1
	for _, l := range loops {
		if l.stmt >= reach {
			outer = append(outer, l)
		}
		if l.body.end > reach {
			reach = l.body.end
		}
	}
	return outer
}

// containingLoop returns the index of the outer loop whose body holds pos,
// or -1.
func containingLoop(outer []loopBlock, pos int) int {
	i := sort.Search(len(outer), func(i int) bool { return outer[i].body.end > pos })
	if i < len(outer) && outer[i].body.contains(pos) {
		return i
	}
	return -1
}

// functionBlocks locates function declarations, function expressions and
// braced arrow functions. Names come from the declaration or from a
// const/let/var binding on the same line.
func functionBlocks(src *source) []funcBlock {
	code := src.code
	var blocks []funcBlock

	for _, m := range functionDeclPattern.FindAllStringSubmatchIndex(code, -1) {
		parenClose := src.close(m[1] - 1)
		if parenClose < 0 {
			continue
		}
		open := skipSpace(code, parenClose+1)
		if open >= len(code) || code[open] != '{' {
			continue
		}
		closeIdx := src.close(open)
		if closeIdx < 0 {
			continue
		}
		name := ""
		if m[2] >= 0 {
			name = code[m[2]:m[3]]
		} else {
			name = assignedName(src, m[0])
		}
		blocks = append(blocks, funcBlock{name: name, start: m[0], open: open, close: closeIdx})
	}

	for _, loc := range arrowBodyPattern.FindAllStringIndex(code, -1) {
		open := loc[1] - 1
		closeIdx := src.close(open)
		if closeIdx < 0 {
			continue
		}
		blocks = append(blocks, funcBlock{
			name:  assignedName(src, loc[0]),
			start: src.lineStart(loc[0]),
			open:  open,
			close: closeIdx,
		})
	}

	sort.Slice(blocks, func(i, j int) bool { return blocks[i].open < blocks[j].open })
	return blocks
}

func assignedName(src *source, pos int) string {
	from := src.lineStart(pos)
	if pos-from > assignWindow {
		from = pos - assignWindow
	}
	if m := assignedNamePattern.FindStringSubmatch(src.code[from:pos]); m != nil {
		return m[1]
	}
	return ""
}

// selfCalling reports whether the function body calls the function's own name.
func selfCalling(src *source, fn funcBlock) bool {
	if fn.name == "" {
		return false
	}
	calls := src.callsTo(fn.name)
	i := sort.SearchInts(calls, fn.open+1)
	return i < len(calls) && calls[i] < fn.close
}

// enclosingFunctions returns, for each loop, the innermost function whose
// body contains the whole loop, or nil. Both slices are sorted by position;
// function bodies come from paired braces, so any two are nested or disjoint.
func enclosingFunctions(funcs []funcBlock, loops []loopBlock) []*funcBlock {
	owners := make([]*funcBlock, len(loops))
	var open []int
	next := 0
	for i, l := range loops {
		for ; next < len(funcs) && funcs[next].open < l.stmt; next++ {
			for len(open) > 0 && funcs[open[len(open)-1]].close < funcs[next].open {
				open = open[:len(open)-1]
			}
			open = append(open, next)
		}
		for len(open) > 0 && funcs[open[len(open)-1]].close < l.stmt {
			open = open[:len(open)-1]
		}
		for k := len(open) - 1; k >= 0; k-- {
			if funcs[open[k]].close >= l.body.end {
				owners[i] = &funcs[open[k]]
				break
			}
		}
	}
	return owners
}
