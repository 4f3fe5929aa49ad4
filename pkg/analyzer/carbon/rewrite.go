package carbon

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rewrite returns a best-effort patched copy of code. Patches run in a fixed
// order: canonical templates, log call removal, hoisting of literal DOM
// queries out of loops, then var to let in loop headers when the legacy loop
// rule fires on code. Text the patches do not recognize is returned
// unchanged.
func Rewrite(code string) string {
	out := applyTemplates(code)
	out = stripLogCalls(newSource(out))
	out = hoistDOMQueries(newSource(out))
	if hasLegacyLoop(code) {
		out = legacyLoopVarPattern.ReplaceAllString(out, "${1}let")
	}
	return out
}

// edit replaces code[start:end] with text. Insertions have start == end.
type edit struct {
	start int
	end   int
	text  string
}

// applyEdits applies non-overlapping edits. An edit starting inside an
// earlier one is dropped.
func applyEdits(code string, edits []edit) string {
	if len(edits) == 0 {
		return code
	}
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var b strings.Builder
	b.Grow(len(code))
	last := 0
	for _, e := range edits {
		if e.start < last {
			continue
		}
		b.WriteString(code[last:e.start])
		b.WriteString(e.text)
		last = e.end
	}
	b.WriteString(code[last:])
	return b.String()
}

// rewriteTemplate replaces a whole function with a hand-written equivalent
// when the function's name, parameters and body shape match.
type rewriteTemplate struct {
	name    string
	pattern *regexp.Regexp
	applies func(param, body string) bool
	render  func(indent, param string) string
}

var templates = []rewriteTemplate{
	{
		name:    "find-duplicates",
		pattern: regexp.MustCompile(`\bfunction\s+findDuplicates\s*\(\s*(` + identPattern + `)\s*\)\s*\{`),
		applies: func(param, body string) bool {
			switch param {
			case "seen", "duplicates", "element":
				return false
			}
			return nestedLoopPattern.MatchString(body)
		},
		render: renderFindDuplicates,
	},
}

const findDuplicatesTemplate = `function findDuplicates($param) {
  const seen = new Set();
  const duplicates = new Set();
  for (const element of $param) {
    if (seen.has(element)) {
      duplicates.add(element);
    } else {
      seen.add(element);
    }
  }
  return Array.from(duplicates);
}`

func renderFindDuplicates(indent, param string) string {
	lines := strings.Split(strings.ReplaceAll(findDuplicatesTemplate, "$param", param), "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = indent + lines[i]
	}
	return strings.Join(lines, "\n")
}

// applyTemplates renders every template whose function matches. A candidate
// nested in the body of an earlier candidate is not examined; the outer
// definition decides.
func applyTemplates(code string) string {
	for _, t := range templates {
		src := newSource(code)
		var edits []edit
		examined := 0
		for _, m := range t.pattern.FindAllStringSubmatchIndex(code, -1) {
			open := m[1] - 1
			closeIdx := src.close(open)
			if closeIdx < 0 || open < examined {
				continue
			}
			examined = closeIdx
			param := code[m[2]:m[3]]
			if !t.applies(param, code[open+1:closeIdx]) {
				continue
			}
			edits = append(edits, edit{
				start: m[0],
				end:   closeIdx + 1,
				text:  t.render(src.lineIndent(m[0]), param),
			})
		}
		code = applyEdits(code, edits)
	}
	return code
}

// stripLogCalls removes console logging statements. Only calls that form a
// whole statement are removed: the call must start a statement and be
// followed by ';', '}', the end of the text, or a line break the next line
// does not continue. Any other call stays in place.
func stripLogCalls(src *source) string {
	code := src.code
	var edits []edit
	for _, loc := range logCallPattern.FindAllStringIndex(code, -1) {
		start := loc[0]
		if !statementStart(code, start) {
			continue
		}
		closeIdx := src.close(loc[1] - 1)
		if closeIdx < 0 {
			continue
		}
		end := closeIdx + 1
		k := skipHorizontal(code, end)
		if k < len(code) {
			switch code[k] {
			case ';':
				end = k + 1
			case '\n', '\r':
				if continuesExpression(code, k) {
					continue
				}
			case '}':
			default:
				continue
			}
		}
		edits = append(edits, removal(src, start, end))
	}
	return applyEdits(code, edits)
}

// continuesExpression reports whether the next line picks up the expression
// that ends at the line break at pos.
func continuesExpression(code string, pos int) bool {
	j := skipSpace(code, pos)
	return j < len(code) && strings.IndexByte(",.?:+-*/%&|^=<>([`", code[j]) >= 0
}

func statementStart(code string, pos int) bool {
	before := strings.TrimRight(code[:pos], " \t\r\n")
	if before == "" {
		return true
	}
	switch before[len(before)-1] {
	case ';', '{', '}':
		return true
	}
	return false
}

// hoistPoint reports whether a declaration may be inserted at the line start
// pos: the text before it must end a statement or open a block. A line that
// continues an expression or forms an unbraced body is rejected.
func hoistPoint(code string, pos int) bool {
	if j := skipHorizontal(code, pos); j < len(code) && code[j] == '.' {
		return false
	}
	before := strings.TrimRight(code[:pos], " \t\r\n")
	if before == "" {
		return true
	}
	switch before[len(before)-1] {
	case ';', '}':
		return true
	case '{':
		return blockBrace(code, len(before)-1)
	}
	return false
}

// blockBrace reports whether the '{' at pos opens a block rather than an
// object literal.
func blockBrace(code string, pos int) bool {
	before := strings.TrimRight(code[:pos], " \t\r\n")
	if before == "" {
		return true
	}
	switch before[len(before)-1] {
	case ')', ';', '{', '}':
		return true
	case '>':
		return strings.HasSuffix(before, "=>")
	}
	for _, kw := range []string{"else", "do", "try", "finally"} {
		if strings.HasSuffix(before, kw) && !identByte(before, len(before)-len(kw)-1) {
			return true
		}
	}
	return false
}

func identByte(s string, i int) bool {
	if i < 0 {
		return false
	}
	c := s[i]
	return c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// removal deletes code[start:end]. When nothing else shares the line, the
// whole line goes with it.
func removal(src *source, start, end int) edit {
	code := src.code
	ls := src.lineStart(start)
	after := skipHorizontal(code, end)
	if blankBefore(code, ls, start) {
		switch {
		case after < len(code) && code[after] == '\r' && after+1 < len(code) && code[after+1] == '\n':
			return edit{start: ls, end: after + 2}
		case after < len(code) && code[after] == '\n':
			return edit{start: ls, end: after + 1}
		case after == len(code) && ls > 0:
			return edit{start: ls - 1, end: after}
		case after == len(code):
			return edit{start: ls, end: after}
		}
	}
	return edit{start: start, end: after}
}

func blankBefore(code string, ls, pos int) bool {
	for pos > ls && (code[pos-1] == ' ' || code[pos-1] == '\t') {
		pos--
	}
	return pos == ls
}

// hoistDOMQueries moves literal-argument document queries out of loop bodies
// into a const declared at the top of the enclosing function, or on the line
// before the outermost loop when the loop is not inside a function. A query
// whose loop line is no place for a declaration stays where it is.
func hoistDOMQueries(src *source) string {
	code := src.code
	loops := loopBlocks(src)
	if len(loops) == 0 {
		return code
	}
	outer := outerLoops(loops)
	owners := enclosingFunctions(functionBlocks(src), outer)

	var (
		edits    []edit
		bindings = map[string]string{}
		inserts  = map[int][]string{}
		order    []int
		taken    = map[string]bool{}
	)

	for _, loc := range domQueryPattern.FindAllStringSubmatchIndex(code, -1) {
		i := containingLoop(outer, loc[0])
		if i < 0 {
			continue
		}

		var (
			at             int
			prefix, suffix string
		)
		if fn := owners[i]; fn != nil {
			at, prefix, suffix = fn.open+1, "\n"+bodyIndent(src, *fn), ""
		} else {
			at = src.lineStart(outer[i].stmt)
			if !hoistPoint(code, at) {
				continue
			}
			prefix, suffix = src.lineIndent(outer[i].stmt), "\n"
		}

		expr := code[loc[0]:loc[1]]
		key := strconv.Itoa(at) + "\x00" + expr
		name, seen := bindings[key]
		if !seen {
			name = uniqueName(src, elementName(code[loc[2]:loc[3]]), taken)
			bindings[key] = name
			if _, ok := inserts[at]; !ok {
				order = append(order, at)
			}
			inserts[at] = append(inserts[at], prefix+"const "+name+" = "+expr+";"+suffix)
		}
		edits = append(edits, edit{start: loc[0], end: loc[1], text: name})
	}

	for _, at := range order {
		edits = append(edits, edit{start: at, end: at, text: strings.Join(inserts[at], "")})
	}
	return applyEdits(code, edits)
}

// bodyIndent is the indentation of the first non-blank line of the function
// body, falling back to the declaration's indentation plus two spaces.
func bodyIndent(src *source, fn funcBlock) string {
	code := src.code
	for at := src.nextLine(fn.open); at >= 0 && at < fn.close; {
		j := skipHorizontal(code, at)
		if j < fn.close && code[j] != '\n' && code[j] != '\r' {
			return code[at:j]
		}
		at = src.nextLine(j)
	}
	return src.lineIndent(fn.start) + "  "
}

// elementName turns a quoted selector or id into a camelCase identifier
// ending in "El": '#todo-list .item' becomes todoListItemEl.
func elementName(literal string) string {
	literal = strings.Trim(literal, `'"`)
	words := strings.FieldsFunc(literal, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$'
	})

	var b strings.Builder
	for _, w := range words {
		if b.Len() == 0 {
			b.WriteString(strings.ToLower(w[:1]) + w[1:])
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]) + w[1:])
	}
	name := b.String()
	if name == "" || unicode.IsDigit(rune(name[0])) || !isASCII(name) {
		return "cachedEl"
	}
	return name + "El"
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// uniqueName returns base, or base with a numeric suffix, such that the name
// is neither used in code nor already handed out.
func uniqueName(src *source, base string, taken map[string]bool) string {
	name := base
	for i := 2; taken[name] || src.identifierUsed(name); i++ {
		name = base + strconv.Itoa(i)
	}
	taken[name] = true
	return name
}
