package carbon

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ruleIDs(suggestions []Suggestion) []string {
	ids := make([]string, len(suggestions))
	for i, s := range suggestions {
		ids[i] = s.Rule
	}
	return ids
}

func TestSuggest_NilMetrics(t *testing.T) {
	assert.Nil(t, Suggest("", nil))
}

func TestSuggest_FillersOnly(t *testing.T) {
	code := "const x = 1 + 2;"
	got := Suggest(code, Extract(code))

	require.Len(t, got, DefaultMinSuggestions)
	assert.Equal(t, []string{"web-worker", "animation-frame", "memoization"}, ruleIDs(got))
	for _, s := range got {
		assert.Equal(t, KindTip, s.Kind)
		assert.Equal(t, fillerImpact, s.Impact)
	}
}

func TestSuggest_LegacyLoopAndLogging(t *testing.T) {
	code := "for (var i=0;i<10;i++) { console.log(i); }"
	got := Suggest(code, Extract(code))

	assert.Equal(t, []string{"legacy-loop-variable", "console-logging", "web-worker"}, ruleIDs(got))
	assert.Equal(t, KindWarning, got[0].Kind)
	assert.Equal(t, KindWarning, got[1].Kind)
	assert.InDelta(t, logCallImpactEach, got[1].Impact, 1e-12)
}

func TestSuggest_LetLoopSilencesLegacyRule(t *testing.T) {
	code := "for (let i = 0; i < 3; i++) {}\nfor (var j = 0; j < 3; j++) {}"
	got := Suggest(code, Extract(code))

	assert.NotContains(t, ruleIDs(got), "legacy-loop-variable")
}

func TestSuggest_DOMInLoopImpactScales(t *testing.T) {
	code := `for (let i = 0; i < 3; i++) {
  document.getElementById('a').textContent = i;
  document.getElementById('b').textContent = i;
}`
	got := Suggest(code, Extract(code))

	require.Equal(t, "dom-in-loop", got[0].Rule)
	assert.Equal(t, KindWarning, got[0].Kind)
	assert.InDelta(t, 2*domInLoopImpactEach, got[0].Impact, 1e-12)
}

func TestSuggest_Rules(t *testing.T) {
	tests := []struct {
		name string
		code string
		rule string
		kind Kind
	}{
		{
			name: "forEach with map",
			code: "items.forEach(x => total += x);\nconst doubled = items.map(x => x * 2);",
			rule: "chained-iteration",
			kind: KindWarning,
		},
		{
			name: "recursion without memo",
			code: "function fib(n) {\n  return n < 2 ? n : fib(n - 1) + fib(n - 2);\n}",
			rule: "unmemoized-recursion",
			kind: KindTip,
		},
		{
			name: "listener never removed",
			code: "button.addEventListener('click', onClick);",
			rule: "listener-leak",
			kind: KindTip,
		},
		{
			name: "many direct mutations",
			code: "list.appendChild(a);\nlist.appendChild(b);\nlist.appendChild(c);\nlist.appendChild(d);",
			rule: "dom-batching",
			kind: KindTip,
		},
		{
			name: "deep property chain",
			code: "const v = config.server.http.tls.cert;",
			rule: "deep-property-chain",
			kind: KindTip,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Suggest(tt.code, Extract(tt.code))
			require.NotEmpty(t, got)
			assert.Equal(t, tt.rule, got[0].Rule)
			assert.Equal(t, tt.kind, got[0].Kind)
			assert.Positive(t, got[0].Impact)
		})
	}
}

func TestSuggest_RulesNotTriggered(t *testing.T) {
	tests := []struct {
		name string
		code string
		rule string
	}{
		{
			name: "memoized recursion",
			code: "const memo = new Map();\nfunction fib(n) {\n  if (memo.has(n)) return memo.get(n);\n  return fib(n - 1) + fib(n - 2);\n}",
			rule: "unmemoized-recursion",
		},
		{
			name: "listener removed",
			code: "el.addEventListener('click', f);\nel.removeEventListener('click', f);",
			rule: "listener-leak",
		},
		{
			name: "three mutations",
			code: "list.appendChild(a);\nlist.appendChild(b);\nlist.appendChild(c);",
			rule: "dom-batching",
		},
		{
			name: "forEach alone",
			code: "items.forEach(x => use(x));",
			rule: "chained-iteration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Suggest(tt.code, Extract(tt.code))
			assert.NotContains(t, ruleIDs(got), tt.rule)
		})
	}
}

func TestSuggest_Minimum(t *testing.T) {
	code := "const x = 1;"
	m := Extract(code)

	assert.Empty(t, suggest(code, m, 0))
	assert.Len(t, suggest(code, m, 1), 1)
	// Padding stops when the filler list is exhausted.
	assert.Len(t, suggest(code, m, 10), len(fillers))
}

func TestSuggest_NoPaddingWhenRulesSuffice(t *testing.T) {
	code := strings.Join([]string{
		"for (var i = 0; i < 3; i++) { console.log(i); }",
		"btn.addEventListener('click', go);",
		"const v = a.b.c.d.e;",
	}, "\n")

	got := Suggest(code, Extract(code))
	for _, s := range got {
		assert.NotEqual(t, "web-worker", s.Rule)
	}
	assert.GreaterOrEqual(t, len(got), DefaultMinSuggestions)
}
