package enigma

import "unicode"

// DefaultSymbols is the alphabet used when a configuration does not supply one.
const DefaultSymbols = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Alphabet is an ordered set of distinct symbols. Symbol number k has index k.
type Alphabet struct {
	symbols []rune
	index   map[rune]int
}

// NewAlphabet returns an alphabet containing the symbols of chars in order.
// Whitespace and the cycle delimiters cannot be symbols.
func NewAlphabet(chars string) (*Alphabet, error) {
	symbols := []rune(chars)
	if len(symbols) == 0 {
		return nil, ErrEmptyAlphabet
	}
	index := make(map[rune]int, len(symbols))
	for i, r := range symbols {
		if unicode.IsSpace(r) || r == cycleOpen || r == cycleClose {
			return nil, Errorf(CodeInvalidSymbol, "%q cannot be an alphabet symbol", r)
		}
		if prev, dup := index[r]; dup {
			return nil, Errorf(CodeDuplicateSymbol, "%q at positions %d and %d", r, prev, i)
		}
		index[r] = i
	}
	return &Alphabet{symbols: symbols, index: index}, nil
}

// DefaultAlphabet returns the upper-case A-Z alphabet.
func DefaultAlphabet() *Alphabet {
	a, err := NewAlphabet(DefaultSymbols)
	if err != nil {
		panic(err)
	}
	return a
}

// Size returns the number of symbols.
func (a *Alphabet) Size() int { return len(a.symbols) }

// Contains reports whether r is a symbol of the alphabet.
func (a *Alphabet) Contains(r rune) bool {
	_, ok := a.index[r]
	return ok
}

// ToIndex returns the index of r.
func (a *Alphabet) ToIndex(r rune) (int, error) {
	i, ok := a.index[r]
	if !ok {
		return 0, Errorf(CodeInvalidSymbol, "%q not in alphabet", r)
	}
	return i, nil
}

// ToSymbol returns the symbol at index i, which must be in [0, Size()).
func (a *Alphabet) ToSymbol(i int) (rune, error) {
	if i < 0 || i >= len(a.symbols) {
		return 0, Errorf(CodeIndexOutOfRange, "%d not in [0,%d)", i, len(a.symbols))
	}
	return a.symbols[i], nil
}

// String returns the symbols in order.
func (a *Alphabet) String() string { return string(a.symbols) }

// wrap reduces p modulo the alphabet size into [0, Size()).
func (a *Alphabet) wrap(p int) int {
	r := p % len(a.symbols)
	if r < 0 {
		r += len(a.symbols)
	}
	return r
}
