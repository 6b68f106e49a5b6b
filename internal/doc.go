// Package internal provides the checking engine behind the cnf tool.
//
// Engine parses a grammar file, validates it against Chomsky Normal Form and
// then applies advisory LintRules that flag grammars which are valid CNF but
// probably not what the author meant (undefined or unreachable variables,
// duplicated alternatives). Parse failures and CNF violations become issues
// with error severity so that every problem is reported the same way.
//
// Watcher re-runs the engine whenever a watched grammar file is written.
//
// Usage:
//
//	engine := internal.NewEngine(nil)
//	report, err := engine.CheckFile("grammar.txt")
//	if err != nil {
//	    // handle error
//	}
//	if report.IsCNF() {
//	    // report.Grammar can be certified and searched
//	}
//
// This package is intended for internal use within the tool and should not
// be imported by external packages.
package internal
