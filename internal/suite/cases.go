package suite

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// ErrCaseFormat marks a case line that is not input|YES or input|NO.
var ErrCaseFormat = errors.New("invalid test line")

// Case is one expectation from a case file.
type Case struct {
	Line int `json:"line"`
	// Raw is the input as written, before epsilon aliases are resolved.
	Raw    string `json:"raw"`
	Input  string `json:"input"`
	Expect bool   `json:"expect"`
}

// ParseCases reads lines of the form input|YES or input|NO. Blank lines are
// skipped. Inputs listed in aliases stand for the empty string. Malformed
// lines do not stop parsing; they come back joined in the error next to the
// cases that did parse.
func ParseCases(r io.Reader, aliases []string) ([]Case, error) {
	var (
		cases []Case
		errs  []error
	)
	scanner := bufio.NewScanner(r)
	num := 0
	for scanner.Scan() {
		num++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		raw, verdict, ok := strings.Cut(line, "|")
		if !ok {
			errs = append(errs, fmt.Errorf("line %d: %w: %s", num, ErrCaseFormat, line))
			continue
		}
		var expect bool
		switch strings.ToUpper(strings.TrimSpace(verdict)) {
		case "YES":
			expect = true
		case "NO":
		default:
			errs = append(errs, fmt.Errorf("line %d: %w: expected YES or NO, got %q", num, ErrCaseFormat, verdict))
			continue
		}

		raw = strings.TrimSpace(raw)
		input := raw
		if slices.Contains(aliases, raw) {
			input = ""
		}
		cases = append(cases, Case{Line: num, Raw: raw, Input: input, Expect: expect})
	}
	if err := scanner.Err(); err != nil {
		return cases, fmt.Errorf("error reading cases: %w", err)
	}
	return cases, errors.Join(errs...)
}
