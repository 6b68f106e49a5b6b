package analyze

import (
	"bytes"
	"context"
	"errors"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/gnoswap-labs/cnf/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) Run(filePath string) ([]types.Issue, error) {
	args := m.Called(filePath)
	return args.Get(0).([]types.Issue), args.Error(1)
}

func (m *mockEngine) RunSource(source []byte) ([]types.Issue, error) {
	args := m.Called(source)
	return args.Get(0).([]types.Issue), args.Error(1)
}

func (m *mockEngine) IgnoreRule(rule string) {
	m.Called(rule)
}

func createTempFiles(t *testing.T, dir string, names ...string) []string {
	var paths []string
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("1\nS=a\n"), 0o644))
		paths = append(paths, path)
	}
	return paths
}

func issueFor(path, rule string) types.Issue {
	return types.Issue{
		Rule:     rule,
		Filename: path,
		Start:    token.Position{Filename: path, Line: 1, Column: 1},
		End:      token.Position{Filename: path, Line: 1, Column: 3},
		Message:  "Test issue " + rule,
	}
}

func TestProcessFile(t *testing.T) {
	t.Parallel()
	expected := []types.Issue{issueFor("g.txt", "test-rule")}
	engine := new(mockEngine)
	engine.On("Run", "g.txt").Return(expected, nil)

	issues, err := ProcessFile(engine, "g.txt")

	assert.NoError(t, err)
	assert.Equal(t, expected, issues)
	engine.AssertExpectations(t)
}

func TestProcessSource(t *testing.T) {
	t.Parallel()
	expected := []types.Issue{issueFor("", "test-rule")}
	engine := new(mockEngine)
	engine.On("RunSource", []byte("1\nS=a\n")).Return(expected, nil)

	issues, err := ProcessSource(engine, []byte("1\nS=a\n"))

	assert.NoError(t, err)
	assert.Equal(t, expected, issues)
	engine.AssertExpectations(t)
}

func TestProcessPath(t *testing.T) {
	t.Parallel()
	logger, _ := zap.NewProduction()
	tempDir := t.TempDir()

	paths := createTempFiles(t, tempDir, "a.txt", "b.cnf", "nested/c.grammar")
	createTempFiles(t, tempDir, "README.md")

	engine := new(mockEngine)
	for _, p := range paths {
		engine.On("Run", p).Return([]types.Issue{issueFor(p, "rule")}, nil)
	}

	var progress bytes.Buffer
	issues, err := ProcessPath(context.Background(), logger, engine, tempDir, Options{Progress: &progress}, ProcessFile)

	require.NoError(t, err)
	require.Len(t, issues, 3)
	// walk order is lexical
	for i, p := range paths {
		assert.Equal(t, p, issues[i].Filename)
	}
	assert.NotEmpty(t, progress.String())
	engine.AssertExpectations(t)
}

func TestProcessPathCustomExtensions(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	paths := createTempFiles(t, tempDir, "a.g", "b.txt")

	engine := new(mockEngine)
	engine.On("Run", paths[0]).Return([]types.Issue{issueFor(paths[0], "rule")}, nil)

	issues, err := ProcessPath(context.Background(), nil, engine, tempDir, Options{Extensions: []string{".g"}, Workers: 1}, ProcessFile)

	require.NoError(t, err)
	assert.Len(t, issues, 1)
	engine.AssertExpectations(t)
}

func TestProcessFiles(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	paths := createTempFiles(t, tempDir, "ok.txt", "broken.txt")

	engine := new(mockEngine)
	engine.On("Run", paths[0]).Return([]types.Issue{issueFor(paths[0], "rule")}, nil)
	engine.On("Run", paths[1]).Return([]types.Issue(nil), errors.New("boom"))

	issues, err := ProcessFiles(context.Background(), nil, engine, paths, Options{}, ProcessFile)

	assert.ErrorContains(t, err, "boom")
	require.Len(t, issues, 1)
	assert.Equal(t, paths[0], issues[0].Filename)

	_, err = ProcessFiles(context.Background(), nil, engine, []string{filepath.Join(tempDir, "missing")}, Options{}, ProcessFile)
	assert.ErrorContains(t, err, "error accessing")
}

func TestProcessPathCancelled(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	createTempFiles(t, tempDir, "a.txt", "b.txt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := new(mockEngine)
	_, err := ProcessPath(ctx, nil, engine, tempDir, Options{}, ProcessFile)

	assert.ErrorIs(t, err, context.Canceled)
	engine.AssertNotCalled(t, "Run", mock.Anything)
}

func TestProcessSources(t *testing.T) {
	t.Parallel()
	logger, _ := zap.NewProduction()
	first := issueFor("", "rule1")
	second := issueFor("", "rule2")

	engine := new(mockEngine)
	engine.On("RunSource", []byte("one")).Return([]types.Issue{first}, nil)
	engine.On("RunSource", []byte("two")).Return([]types.Issue{second}, nil)

	issues, err := ProcessSources(context.Background(), logger, engine, [][]byte{[]byte("one"), []byte("two")}, ProcessSource)

	assert.NoError(t, err)
	assert.Equal(t, []types.Issue{first, second}, issues)
	engine.AssertExpectations(t)
}

func TestCheckPaths(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	good := filepath.Join(tempDir, "good.txt")
	bad := filepath.Join(tempDir, "bad.txt")
	require.NoError(t, os.WriteFile(good, []byte("3\nS=AB|a\nA=a\nB=b\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("2\nS=A\nA=a\n"), 0o644))

	engine, err := New("")
	require.NoError(t, err)

	reports, err := CheckPaths(context.Background(), nil, engine, []string{tempDir}, Options{})
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, bad, reports[0].Filename)
	assert.False(t, reports[0].IsCNF())
	assert.Equal(t, good, reports[1].Filename)
	assert.True(t, reports[1].IsCNF())
}

func TestCollectFiles(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	paths := createTempFiles(t, tempDir, "x.md")

	// a named file is kept whatever its extension
	files, err := CollectFiles(paths[0], []string{".txt"})
	require.NoError(t, err)
	assert.Equal(t, paths, files)

	files, err = CollectFiles(tempDir, []string{".txt"})
	require.NoError(t, err)
	assert.Empty(t, files)
}
