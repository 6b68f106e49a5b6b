// Package analyze is the public entry point for checking grammar files in
// bulk. It loads the configuration, walks directories for grammar files and
// runs the checking engine over them with a bounded worker pool.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/gnoswap-labs/cnf/internal"
	tt "github.com/gnoswap-labs/cnf/internal/types"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// Engine is the part of the checking engine the processing helpers need.
type Engine interface {
	Run(filePath string) ([]tt.Issue, error)
	RunSource(source []byte) ([]tt.Issue, error)
	IgnoreRule(rule string)
}

// New loads the configuration file and returns an engine built from it. An
// empty path uses DefaultConfig.
func New(configPath string) (*internal.Engine, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(config), nil
}

func NewWithConfig(config Config) *internal.Engine {
	return internal.NewEngine(config.Rules)
}

// Options controls directory processing.
type Options struct {
	// Extensions selects grammar files; nil means DefaultConfig().Extensions.
	Extensions []string
	// Workers bounds concurrent files; zero means runtime.NumCPU().
	Workers int
	// Progress receives a progress bar when set.
	Progress io.Writer
}

func (o Options) extensions() []string {
	if o.Extensions == nil {
		return DefaultConfig().Extensions
	}
	return o.Extensions
}

func (o Options) workers() int {
	if o.Workers <= 0 {
		return runtime.NumCPU()
	}
	return o.Workers
}

func ProcessSources(
	ctx context.Context,
	logger *zap.Logger,
	engine Engine,
	sources [][]byte,
	processor func(Engine, []byte) ([]tt.Issue, error),
) ([]tt.Issue, error) {
	var allIssues []tt.Issue
	for i, source := range sources {
		if err := ctx.Err(); err != nil {
			return allIssues, err
		}
		issues, err := processor(engine, source)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing source", zap.Int("source", i), zap.Error(err))
			}
			return nil, err
		}
		allIssues = append(allIssues, issues...)
	}

	return allIssues, nil
}

func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine Engine,
	paths []string,
	opts Options,
	processor func(Engine, string) ([]tt.Issue, error),
) ([]tt.Issue, error) {
	var allIssues []tt.Issue
	var errs []error
	for _, path := range paths {
		issues, err := ProcessPath(ctx, logger, engine, path, opts, processor)
		allIssues = append(allIssues, issues...)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			}
			if ctx.Err() != nil {
				return allIssues, err
			}
			errs = append(errs, err)
		}
	}

	return allIssues, errors.Join(errs...)
}

// ProcessPath runs processor on a file, or on every grammar file below a
// directory. Issues come back in file order. Per-file errors are joined;
// the files that succeeded still contribute their issues.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine Engine,
	path string,
	opts Options,
	processor func(Engine, string) ([]tt.Issue, error),
) ([]tt.Issue, error) {
	files, err := CollectFiles(path, opts.extensions())
	if err != nil {
		return nil, err
	}

	results, err := processConcurrently(ctx, logger, files, opts, func(fp string) ([]tt.Issue, error) {
		return processor(engine, fp)
	})
	var issues []tt.Issue
	for _, r := range results {
		issues = append(issues, r...)
	}
	return issues, err
}

// CheckPaths is ProcessFiles for callers that need the whole report of each
// grammar, not only its issues.
func CheckPaths(
	ctx context.Context,
	logger *zap.Logger,
	engine *internal.Engine,
	paths []string,
	opts Options,
) ([]*internal.Report, error) {
	var files []string
	for _, path := range paths {
		found, err := CollectFiles(path, opts.extensions())
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	reports, err := processConcurrently(ctx, logger, files, opts, engine.CheckFile)
	compact := reports[:0]
	for _, r := range reports {
		if r != nil {
			compact = append(compact, r)
		}
	}
	return compact, err
}

// CollectFiles returns path itself when it is a file, or every file below it
// with one of the extensions when it is a directory. An explicitly named
// file is returned whatever its extension.
func CollectFiles(path string, extensions []string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	desired := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		desired[ext] = true
	}

	var files []string
	err = filepath.WalkDir(path, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && desired[filepath.Ext(filePath)] {
			files = append(files, filePath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking %s: %w", path, err)
	}
	return files, nil
}

// processConcurrently applies fn to every file with at most opts.Workers in
// flight. results[i] belongs to files[i]; it holds the zero value when fn
// failed or the context was cancelled before the file was started.
func processConcurrently[T any](
	ctx context.Context,
	logger *zap.Logger,
	files []string,
	opts Options,
	fn func(string) (T, error),
) ([]T, error) {
	results := make([]T, len(files))
	if len(files) == 0 {
		return results, nil
	}

	var bar *progressbar.ProgressBar
	if opts.Progress != nil {
		bar = newProgressBar(opts.Progress, len(files))
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	sem := make(chan struct{}, opts.workers())

dispatch:
	for i, filePath := range files {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, fp string) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := fn(fp)
			if err != nil {
				if logger != nil {
					logger.Error("Error processing file", zap.String("file", fp), zap.Error(err))
				}
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			} else {
				results[i] = result
			}
			if bar != nil {
				_ = bar.Add(1)
			}
		}(i, filePath)
	}
	wg.Wait()

	if bar != nil {
		_ = bar.Finish()
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, errors.Join(errs...)
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("checking"),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func ProcessFile(engine Engine, filePath string) ([]tt.Issue, error) {
	return engine.Run(filePath)
}

func ProcessSource(engine Engine, source []byte) ([]tt.Issue, error) {
	return engine.RunSource(source)
}
