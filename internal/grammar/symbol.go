package grammar

// Symbol is a single grammar symbol. Well-formed symbols are one character
// long; longer values only appear in grammars built programmatically and are
// rejected by the CNF validator.
type Symbol string

const (
	// Start is the designated start variable.
	Start Symbol = "S"
	// Epsilon marks the empty string on a right-hand side.
	Epsilon Symbol = "$"
)

// Kind classifies a Symbol.
type Kind int

const (
	Invalid Kind = iota
	Variable
	Terminal
	EpsilonMarker
)

func (k Kind) String() string {
	switch k {
	case Variable:
		return "variable"
	case Terminal:
		return "terminal"
	case EpsilonMarker:
		return "epsilon"
	default:
		return "invalid"
	}
}

// Classify reports the kind of s. Only ASCII letters and digits are
// recognized.
func Classify(s Symbol) Kind {
	if s == Epsilon {
		return EpsilonMarker
	}
	if len(s) != 1 {
		return Invalid
	}
	switch c := s[0]; {
	case isUpper(c):
		return Variable
	case isLower(c), isDigit(c):
		return Terminal
	}
	return Invalid
}

// IsVariable reports whether s is a single uppercase letter.
func (s Symbol) IsVariable() bool { return Classify(s) == Variable }

// IsTerminal reports whether s is a single lowercase letter or digit.
func (s Symbol) IsTerminal() bool { return Classify(s) == Terminal }

// IsEpsilon reports whether s is the epsilon marker.
func (s Symbol) IsEpsilon() bool { return s == Epsilon }

// IsUpper reports whether s is non-empty and made only of uppercase letters.
// It accepts multi-character symbols so that callers can tell "not a variable"
// apart from "too wide to be a variable".
func (s Symbol) IsUpper() bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isUpper(s[i]) {
			return false
		}
	}
	return true
}

func isUpper(c byte) bool { return 'A' <= c && c <= 'Z' }
func isLower(c byte) bool { return 'a' <= c && c <= 'z' }
func isDigit(c byte) bool { return '0' <= c && c <= '9' }
