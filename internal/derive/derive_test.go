package derive

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/gnoswap-labs/cnf/internal/cnf"
	"github.com/gnoswap-labs/cnf/internal/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func certify(t testing.TB, src string) *cnf.Validated {
	t.Helper()
	vg, err := cnf.Certify(grammar.MustParse(src))
	require.NoError(t, err)
	return vg
}

const (
	simple      = "3\nS=AB|a\nA=a\nB=b\n"
	withEpsilon = "3\nS=AB|$\nA=a\nB=b\n"
	// balanced strings of a^n b^n, n >= 1
	anbn = "4\nS=AB|AC\nC=SB\nA=a\nB=b\n"
	// even-length binary strings
	evenBinary = "3\nS=XX|SS\nX=0|1\nA=a\n"
)

func TestMembershipScenarios(t *testing.T) {
	t.Parallel()
	tests := []struct {
		grammar string
		input   string
		want    bool
	}{
		{simple, "ab", true},
		{simple, "aa", false},
		{simple, "a", true},
		{simple, "b", false},
		{simple, "", false},
		{simple, "abb", false},
		{simple, "ba", false},
		{withEpsilon, "", true},
		{withEpsilon, "ab", true},
		{withEpsilon, "a", false},
		{anbn, "ab", true},
		{anbn, "aabb", true},
		{anbn, "aaabbb", true},
		{anbn, "aab", false},
		{anbn, "abab", false},
		{anbn, "ba", false},
		{evenBinary, "01", true},
		{evenBinary, "0110", true},
		{evenBinary, "011", false},
		{evenBinary, "0a", false},
	}
	for _, tt := range tests {
		name := fmt.Sprintf("%s/%q", strings.SplitN(tt.grammar, "\n", 3)[1], tt.input)
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TestMembership(certify(t, tt.grammar), tt.input))
		})
	}
}

func TestStepsBudget(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1, Steps(0))
	assert.Equal(t, 1, Steps(1))
	assert.Equal(t, 3, Steps(2))
	assert.Equal(t, 9, Steps(5))

	r := Run(certify(t, simple), "ab")
	assert.True(t, r.Member)
	assert.Equal(t, 3, r.Budget)
	assert.Positive(t, r.Calls)
	assert.Positive(t, r.CacheEntries)

	r = Run(certify(t, withEpsilon), "")
	assert.True(t, r.Member)
	assert.Equal(t, 1, r.Budget)
	assert.Zero(t, r.Calls)
}

func newDeriver(vg *cnf.Validated) *deriver {
	return &deriver{g: vg.Grammar(), memo: make(map[memoKey]bool)}
}

func TestDeriveStepExactness(t *testing.T) {
	t.Parallel()
	vg := certify(t, simple)

	// a terminal match needs exactly one step
	assert.True(t, newDeriver(vg).derive("A", "a", 1))
	assert.False(t, newDeriver(vg).derive("A", "a", 2))
	assert.False(t, newDeriver(vg).derive("A", "a", 3))

	// "ab" needs 3 steps: S -> AB, A -> a, B -> b
	assert.False(t, newDeriver(vg).derive("S", "ab", 1))
	assert.False(t, newDeriver(vg).derive("S", "ab", 2))
	assert.True(t, newDeriver(vg).derive("S", "ab", 3))
}

func TestDeriveZeroStepsComparesLiterally(t *testing.T) {
	t.Parallel()
	vg := certify(t, simple)

	assert.True(t, newDeriver(vg).derive("S", "S", 0))
	assert.False(t, newDeriver(vg).derive("S", "a", 0))
	assert.False(t, newDeriver(vg).derive("S", "", 0))
}

func TestDeriveEmptyTarget(t *testing.T) {
	t.Parallel()
	assert.True(t, newDeriver(certify(t, withEpsilon)).derive("S", "", 1))
	assert.False(t, newDeriver(certify(t, withEpsilon)).derive("A", "", 1))
	assert.False(t, newDeriver(certify(t, simple)).derive("S", "", 1))
}

func TestMemoizationCollapsesSharedSubproblems(t *testing.T) {
	t.Parallel()
	vg := certify(t, evenBinary)

	r := Run(vg, "01010101")
	assert.True(t, r.Member)
	assert.Greater(t, r.Calls, r.CacheEntries, "expected cache hits")
}

func TestMembershipIsolatedAcrossCalls(t *testing.T) {
	t.Parallel()
	vg := certify(t, anbn)
	inputs := []string{"aabb", "aab", "ab", "abab", "aaabbb", "", "b"}

	want := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		want[in] = TestMembership(vg, in)
	}

	// reversed order gives the same answers
	for i := len(inputs) - 1; i >= 0; i-- {
		assert.Equal(t, want[inputs[i]], TestMembership(vg, inputs[i]), inputs[i])
	}

	// and so do concurrent calls over the shared grammar
	var wg sync.WaitGroup
	for range 8 {
		for _, in := range inputs {
			wg.Add(1)
			go func(in string) {
				defer wg.Done()
				assert.Equal(t, want[in], TestMembership(vg, in), in)
			}(in)
		}
	}
	wg.Wait()
}

func TestUndefinedVariableFailsBranch(t *testing.T) {
	t.Parallel()
	vg := certify(t, "2\nS=AB|AC\nA=a\n")
	// neither B nor C has rules
	assert.False(t, TestMembership(vg, "ab"))
	assert.False(t, TestMembership(vg, "a"))
}

// cyk is an independent polynomial membership test used as an oracle.
func cyk(g *grammar.Grammar, s string) bool {
	n := len(s)
	if n == 0 {
		return g.DerivesEpsilon(g.Start())
	}
	table := make([][]map[grammar.Symbol]bool, n)
	for i := range table {
		table[i] = make([]map[grammar.Symbol]bool, n+1)
		for j := range table[i] {
			table[i][j] = make(map[grammar.Symbol]bool)
		}
	}
	for i := 0; i < n; i++ {
		for r := range g.TerminalRules() {
			if string(r.Terminal) == s[i:i+1] {
				table[i][1][r.Variable] = true
			}
		}
	}
	for span := 2; span <= n; span++ {
		for i := 0; i+span <= n; i++ {
			for k := 1; k < span; k++ {
				for r := range g.BinaryRules() {
					if table[i][k][r.Left] && table[i+k][span-k][r.Right] {
						table[i][span][r.Variable] = true
					}
				}
			}
		}
	}
	return table[0][n][g.Start()]
}

func randomGrammar(rng *rand.Rand) string {
	vars := []string{"S", "A", "B", "C"}
	terms := []string{"a", "b"}
	var lines []string
	for i, v := range vars {
		var alts []string
		for range 1 + rng.IntN(3) {
			if rng.IntN(3) == 0 {
				alts = append(alts, terms[rng.IntN(len(terms))])
				continue
			}
			left := vars[rng.IntN(len(vars))]
			right := vars[rng.IntN(len(vars))]
			alts = append(alts, left+right)
		}
		if i == 0 && rng.IntN(2) == 0 {
			alts = append(alts, terms[rng.IntN(len(terms))])
		}
		lines = append(lines, v+"="+strings.Join(alts, "|"))
	}
	return fmt.Sprintf("%d\n%s\n", len(lines), strings.Join(lines, "\n"))
}

func allStrings(alphabet string, maxLen int) []string {
	out := []string{""}
	level := []string{""}
	for l := 1; l <= maxLen; l++ {
		var next []string
		for _, prefix := range level {
			for i := 0; i < len(alphabet); i++ {
				next = append(next, prefix+alphabet[i:i+1])
			}
		}
		out = append(out, next...)
		level = next
	}
	return out
}

func TestMembershipAgreesWithCYK(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(464, 2024))
	inputs := allStrings("ab", 5)

	for i := range 25 {
		src := randomGrammar(rng)
		vg := certify(t, src)
		for _, in := range inputs {
			require.Equal(t, cyk(vg.Grammar(), in), TestMembership(vg, in),
				"grammar %d:\n%s\ninput %q", i, src, in)
		}
	}
}
