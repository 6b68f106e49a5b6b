package grammar

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	ErrEmptyGrammar = errors.New("empty grammar file")
	ErrRuleCount    = errors.New("rule count mismatch")
	ErrRuleFormat   = errors.New("invalid rule format")
	ErrVariableName = errors.New("invalid variable")
	ErrSymbol       = errors.New("invalid symbol")
)

// ParseError reports a construction failure at a source location.
type ParseError struct {
	Filename string
	Line     int
	Column   int
	Msg      string
	Err      error
}

func (e *ParseError) Error() string {
	var loc string
	switch {
	case e.Filename != "" && e.Line > 0:
		loc = fmt.Sprintf("%s:%d: ", e.Filename, e.Line)
	case e.Filename != "":
		loc = e.Filename + ": "
	case e.Line > 0:
		loc = fmt.Sprintf("line %d: ", e.Line)
	}
	return loc + e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

type sourceLine struct {
	text string
	num  int
}

// ParseFile reads and parses the grammar file at path.
func ParseFile(path string) (*Grammar, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading grammar file: %w", err)
	}
	return Parse(bytes.NewReader(content), path)
}

// ParseString parses grammar source held in memory.
func ParseString(src string) (*Grammar, error) {
	return Parse(strings.NewReader(src), "")
}

// MustParse is like ParseString but panics on error. It is meant for tests
// and package-level fixtures.
func MustParse(src string) *Grammar {
	g, err := ParseString(src)
	if err != nil {
		panic(err)
	}
	return g
}

// Parse reads a grammar in the rule-count format:
//
//	3
//	S=AB|a
//	A=a
//	B=b
//
// Blank lines are ignored. The first line holds the number of rule lines that
// follow; each rule line is VAR=prod1|prod2|... with one character per symbol
// and $ standing for epsilon.
func Parse(r io.Reader, filename string) (*Grammar, error) {
	var lines []sourceLine
	scanner := bufio.NewScanner(r)
	num := 0
	for scanner.Scan() {
		num++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		lines = append(lines, sourceLine{text: text, num: num})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading grammar: %w", err)
	}

	if len(lines) == 0 {
		return nil, &ParseError{Filename: filename, Msg: "Empty grammar file", Err: ErrEmptyGrammar}
	}

	header := strings.TrimSpace(lines[0].text)
	count, err := strconv.Atoi(header)
	if err != nil {
		return nil, &ParseError{
			Filename: filename,
			Line:     lines[0].num,
			Msg:      fmt.Sprintf("First line must be a number, got: %s", header),
			Err:      ErrRuleFormat,
		}
	}
	if len(lines)-1 != count {
		return nil, &ParseError{
			Filename: filename,
			Line:     lines[0].num,
			Msg:      fmt.Sprintf("Expected %d rules, found %d lines", count, len(lines)-1),
			Err:      ErrRuleCount,
		}
	}

	g := New(Start)
	for _, line := range lines[1:] {
		if err := parseRule(g, line, filename); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func parseRule(g *Grammar, line sourceLine, filename string) error {
	eq := strings.IndexByte(line.text, '=')
	if eq < 0 {
		return &ParseError{
			Filename: filename,
			Line:     line.num,
			Msg:      fmt.Sprintf("Invalid rule format (missing =): %s", strings.TrimSpace(line.text)),
			Err:      ErrRuleFormat,
		}
	}

	rawVar := line.text[:eq]
	variable := strings.TrimSpace(rawVar)
	varCol := len(rawVar) - len(strings.TrimLeft(rawVar, " \t")) + 1
	if !Symbol(variable).IsVariable() {
		return &ParseError{
			Filename: filename,
			Line:     line.num,
			Column:   varCol,
			Msg:      fmt.Sprintf("Invalid variable (must be single uppercase letter): %s", variable),
			Err:      ErrVariableName,
		}
	}

	var prods []Production
	offset := eq + 1
	for _, field := range strings.Split(line.text[eq+1:], "|") {
		lead := len(field) - len(strings.TrimLeft(field, " \t"))
		text := strings.TrimSpace(field)
		col := offset + lead + 1

		for i := 0; i < len(text); i++ {
			c := text[i]
			if c == '$' || isUpper(c) || isLower(c) || isDigit(c) {
				continue
			}
			return &ParseError{
				Filename: filename,
				Line:     line.num,
				Column:   col + i,
				Msg:      fmt.Sprintf("Invalid symbol %q in production %s -> %s", c, variable, text),
				Err:      ErrSymbol,
			}
		}

		p := NewProduction(text)
		end := col + len(text) - 1
		if end < col {
			end = col
		}
		p.Pos = Position{Line: line.num, Column: col, EndColumn: end}
		prods = append(prods, p)
		offset += len(field) + 1
	}

	g.AddRule(Symbol(variable), Position{Line: line.num, Column: varCol, EndColumn: varCol}, prods...)
	return nil
}
