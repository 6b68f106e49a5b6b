package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gnoswap-labs/cnf/internal/cnf"
	"github.com/gnoswap-labs/cnf/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTempDir creates a temporary directory and returns its path.
// It also registers a cleanup function to remove the directory after the test.
func createTempDir(t testing.TB, prefix string) string {
	tempDir, err := os.MkdirTemp("", prefix)
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tempDir) })
	return tempDir
}

func writeGrammar(t testing.TB, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func rules(issues []types.Issue) []string {
	var names []string
	for _, issue := range issues {
		names = append(names, issue.Rule)
	}
	return names
}

func TestNewEngine(t *testing.T) {
	t.Parallel()
	engine := NewEngine(nil)
	assert.Len(t, engine.rules, len(allRuleConstructors))
	assert.Empty(t, engine.ignoredRules)
}

func TestEngine_IgnoreRule(t *testing.T) {
	t.Parallel()
	engine := &Engine{}
	engine.IgnoreRule("test_rule")

	assert.True(t, engine.ignoredRules["test_rule"])
}

func TestEngine_ApplyRules(t *testing.T) {
	t.Parallel()
	engine := NewEngine(map[string]types.ConfigRule{
		"undefined-variable":   {Severity: types.SeverityError},
		"duplicate-production": {Severity: types.SeverityOff},
		"no-such-rule":         {Severity: types.SeverityError},
	})

	assert.Equal(t, types.SeverityError, engine.rules["undefined-variable"].Severity())
	assert.True(t, engine.ignoredRules["duplicate-production"])
	assert.NotContains(t, engine.rules, "no-such-rule")
}

func TestEngine_Check(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		source   string
		cnf      bool
		parsed   bool
		expected []string
	}{
		{
			name:   "valid",
			source: "3\nS=AB|a\nA=a\nB=b\n",
			cnf:    true,
			parsed: true,
		},
		{
			name:     "unit production",
			source:   "2\nS=A\nA=a\n",
			parsed:   true,
			expected: []string{cnf.RuleUnitProduction},
		},
		{
			name:     "parse error",
			source:   "two\nS=a\n",
			expected: []string{RuleParseError},
		},
		{
			name:     "valid with advisories",
			source:   "3\nS=AB|AB\nA=a\nC=c\n",
			cnf:      true,
			parsed:   true,
			expected: []string{"undefined-variable", "duplicate-production", "unreachable-variable"},
		},
		{
			name:     "violation and advisory",
			source:   "2\nS=AB|a\nA=abc\n",
			parsed:   true,
			expected: []string{"undefined-variable", cnf.RuleProductionArity},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			report, err := NewEngine(nil).Check("g.txt", []byte(tt.source))
			require.NoError(t, err)
			assert.Equal(t, tt.cnf, report.IsCNF())
			assert.Equal(t, tt.parsed, report.Grammar != nil)
			assert.Equal(t, tt.expected, rules(report.Issues))
		})
	}
}

func TestEngine_CheckIssueDetails(t *testing.T) {
	t.Parallel()
	engine := NewEngine(nil)

	report, err := engine.Check("g.txt", []byte("3\nS=AB|A\nA=a\nB=b\n"))
	require.NoError(t, err)
	require.NotEmpty(t, report.Issues)
	issue := report.Issues[0]
	assert.Equal(t, cnf.RuleUnitProduction, issue.Rule)
	assert.Equal(t, types.SeverityError, issue.Severity)
	assert.Equal(t, "cnf", issue.Category)
	assert.Equal(t, 2, issue.Start.Line)
	assert.Equal(t, 6, issue.Start.Column)
	assert.NotEmpty(t, issue.Suggestion)
	assert.True(t, report.HasErrors())

	report, err = engine.Check("g.txt", []byte("1\nS=a!\n"))
	require.NoError(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, 2, report.Issues[0].Start.Line)
	assert.Equal(t, 4, report.Issues[0].Start.Column)

	report, err = engine.Check("g.txt", nil)
	require.NoError(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "Empty grammar file", report.Issues[0].Message)
	assert.Equal(t, 1, report.Issues[0].Start.Line)
}

func TestEngine_IgnoredRulesAreSkipped(t *testing.T) {
	t.Parallel()
	engine := NewEngine(nil)
	engine.IgnoreRule("undefined-variable")

	issues, err := engine.RunSource([]byte("1\nS=AB\n"))
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestEngine_Run(t *testing.T) {
	t.Parallel()
	dir := createTempDir(t, "engine_test")
	path := writeGrammar(t, dir, "g.txt", "3\nS=AB|a\nA=a\nB=b\nC=c\n")

	issues, err := NewEngine(nil).Run(path)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, RuleParseError, issues[0].Rule)
	assert.Equal(t, path, issues[0].Filename)

	_, err = NewEngine(nil).Run(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestDefaultRules(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"duplicate-production", "undefined-variable", "unreachable-variable"}, RuleNames())
	for _, rule := range DefaultRules() {
		assert.Equal(t, types.SeverityWarning, rule.Severity)
	}
}

func TestReadSourceCode(t *testing.T) {
	t.Parallel()
	dir := createTempDir(t, "source_test")
	path := writeGrammar(t, dir, "g.txt", "1\r\nS=a\r\n")

	src, err := ReadSourceCode(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "S=a", ""}, src.Lines)

	_, err = ReadSourceCode(filepath.Join(dir, "nope"))
	assert.Error(t, err)
}
