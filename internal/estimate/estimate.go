// Package estimate predicts the worst-case cost of the brute-force
// membership search and decides whether running it is worthwhile.
//
// The model mirrors the search in package derive: at each of the 2n-1
// derivation steps the search may pick any binary rule and any of the n-1
// split points, so the branching factor is binaryRules*(n-1) raised to the
// step depth.
package estimate

import (
	"fmt"
	"math/bits"
	"time"

	"github.com/gnoswap-labs/cnf/internal/grammar"
)

// Config holds the constants of the feasibility model.
type Config struct {
	// OperationsPerSecond is the assumed throughput of the search.
	OperationsPerSecond uint64 `yaml:"operations_per_second" validate:"gt=0"`
	// TimeBudget is the longest acceptable worst-case running time.
	TimeBudget time.Duration `yaml:"time_budget" validate:"gt=0"`
	// MaxLength rejects every longer string outright.
	MaxLength int `yaml:"max_length" validate:"gte=1"`
	// BinaryRuleLimit and LongStringLength reject grammars with more than
	// BinaryRuleLimit binary rules for strings longer than LongStringLength.
	BinaryRuleLimit  int `yaml:"binary_rule_limit" validate:"gte=0"`
	LongStringLength int `yaml:"long_string_length" validate:"gte=1"`
	// Ceiling caps operation counts.
	Ceiling uint64 `yaml:"ceiling" validate:"gt=0"`
}

// DefaultConfig returns the constant set used when nothing is configured:
// one million operations per second, a one minute budget, strings of at most
// 20 symbols, more than 10 binary rules rejected beyond length 10, and a
// ceiling of 10^18 operations.
func DefaultConfig() Config {
	return Config{
		OperationsPerSecond: 1_000_000,
		TimeBudget:          time.Minute,
		MaxLength:           20,
		BinaryRuleLimit:     10,
		LongStringLength:    10,
		Ceiling:             1_000_000_000_000_000_000,
	}
}

// Estimator applies a Config to grammars.
type Estimator struct {
	cfg Config
}

func New(cfg Config) *Estimator {
	return &Estimator{cfg: cfg}
}

func (e *Estimator) Config() Config { return e.cfg }

// Operations returns the worst-case operation count of a membership search
// for a string of the given length. Negative lengths cost nothing.
func (e *Estimator) Operations(g *grammar.Grammar, length int) uint64 {
	if length < 0 {
		return 0
	}
	if length == 0 {
		// epsilon check only
		return 1
	}

	binary := uint64(g.BinaryRuleCount())
	terminal := uint64(g.TerminalRuleCount())
	n := uint64(length)

	if binary == 0 {
		return max(1, e.clamp(mulSat(n, terminal)))
	}
	if length == 1 {
		return e.clamp(binary + terminal)
	}

	branching := mulSat(binary, n-1)
	exponential := powSat(branching, uint64(2*length-1), e.cfg.Ceiling)
	// never below the work of a single non-branching pass
	linear := binary + mulSat(n, terminal)
	return e.clamp(max(exponential, linear))
}

func (e *Estimator) clamp(ops uint64) uint64 {
	return min(ops, e.cfg.Ceiling)
}

// Assessment is the result of Feasible.
type Assessment struct {
	Feasible    bool    `json:"feasible"`
	Explanation string  `json:"explanation"`
	Operations  uint64  `json:"operations,omitempty"`
	Seconds     float64 `json:"seconds,omitempty"`
}

// Feasible decides whether the search for a string of the given length fits
// the time budget. Cheap shortcuts run before the full estimate.
func (e *Estimator) Feasible(g *grammar.Grammar, length int) Assessment {
	if length < 0 {
		return Assessment{Explanation: "String length must be non-negative"}
	}
	if length == 0 {
		return Assessment{Feasible: true, Explanation: "Epsilon check is very fast", Operations: 1}
	}
	if length == 1 {
		return Assessment{
			Feasible:    true,
			Explanation: "Single character check is very fast",
			Operations:  e.Operations(g, 1),
		}
	}
	if length > e.cfg.MaxLength {
		return Assessment{
			Explanation: fmt.Sprintf("String length %d is too long (threshold: %d)", length, e.cfg.MaxLength),
		}
	}

	binary := g.BinaryRuleCount()
	if binary > e.cfg.BinaryRuleLimit && length > e.cfg.LongStringLength {
		return Assessment{
			Explanation: fmt.Sprintf("Too many binary rules (%d) for string length %d", binary, length),
		}
	}

	ops := e.Operations(g, length)
	seconds := float64(ops) / float64(e.cfg.OperationsPerSecond)
	budget := e.cfg.TimeBudget.Seconds()
	if seconds > budget {
		return Assessment{
			Explanation: fmt.Sprintf("Estimated worst-case time: %.2f seconds (exceeds %s seconds)", seconds, formatSeconds(budget)),
			Operations:  ops,
			Seconds:     seconds,
		}
	}
	return Assessment{
		Feasible:    true,
		Explanation: fmt.Sprintf("Estimated worst-case time: %.4f seconds (within %s seconds)", seconds, formatSeconds(budget)),
		Operations:  ops,
		Seconds:     seconds,
	}
}

var defaultEstimator = New(DefaultConfig())

// EstimateOperations is Operations with DefaultConfig.
func EstimateOperations(g *grammar.Grammar, length int) uint64 {
	return defaultEstimator.Operations(g, length)
}

// IsFeasible is Feasible with DefaultConfig.
func IsFeasible(g *grammar.Grammar, length int) (bool, string) {
	a := defaultEstimator.Feasible(g, length)
	return a.Feasible, a.Explanation
}

func formatSeconds(s float64) string {
	return fmt.Sprintf("%g", s)
}

// mulSat multiplies and saturates at the maximum uint64.
func mulSat(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return ^uint64(0)
	}
	return lo
}

// powSat computes base^exp, stopping as soon as the result passes limit.
func powSat(base, exp, limit uint64) uint64 {
	if base <= 1 {
		if exp == 0 {
			return 1
		}
		return base
	}
	result := uint64(1)
	for range exp {
		result = mulSat(result, base)
		if result > limit {
			return result
		}
	}
	return result
}
