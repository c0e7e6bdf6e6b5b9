package enigma

import (
	"strings"
	"unicode"
)

const (
	cycleOpen  = '('
	cycleClose = ')'
)

// Permutation is a substitution over an alphabet, given in cycle notation.
// Every symbol belongs to exactly one cycle; symbols not named in the cycle
// text form singleton cycles and map to themselves.
type Permutation struct {
	alphabet    *Alphabet
	cycles      [][]int
	forward     []int
	inverse     []int
	derangement bool
}

// NewPermutation parses cycles, a string such as "(ABC) (DE)", over alpha.
// Whitespace between groups is ignored. An empty string yields the identity.
func NewPermutation(cycles string, alpha *Alphabet) (*Permutation, error) {
	parsed, err := parseCycles(cycles, alpha)
	if err != nil {
		return nil, err
	}
	n := alpha.Size()
	p := &Permutation{
		alphabet: alpha,
		forward:  make([]int, n),
		inverse:  make([]int, n),
	}
	seen := make([]bool, n)
	for _, c := range parsed {
		for _, i := range c {
			seen[i] = true
		}
		p.cycles = append(p.cycles, c)
	}
	p.derangement = true
	for i := 0; i < n; i++ {
		if !seen[i] {
			p.cycles = append(p.cycles, []int{i})
		}
	}
	for _, c := range p.cycles {
		if len(c) == 1 {
			p.derangement = false
		}
		for k, i := range c {
			next := c[(k+1)%len(c)]
			p.forward[i] = next
			p.inverse[next] = i
		}
	}
	return p, nil
}

// parseCycles validates the grammar ws* ('(' symbol+ ')' ws*)* and returns the
// cycles as index lists.
func parseCycles(text string, alpha *Alphabet) ([][]int, error) {
	var (
		out    [][]int
		cur    []int
		open   bool
		placed = make(map[int]bool)
	)
	for pos, r := range text {
		switch {
		case r == cycleOpen:
			if open {
				return nil, Errorf(CodeMalformedCycle, "nested %q at offset %d in %q", r, pos, text)
			}
			open = true
			cur = nil
		case r == cycleClose:
			if !open {
				return nil, Errorf(CodeMalformedCycle, "unbalanced %q at offset %d in %q", r, pos, text)
			}
			if len(cur) == 0 {
				return nil, Errorf(CodeMalformedCycle, "empty cycle at offset %d in %q", pos, text)
			}
			out = append(out, cur)
			open = false
		case unicode.IsSpace(r):
			if open {
				return nil, Errorf(CodeMalformedCycle, "whitespace inside cycle at offset %d in %q", pos, text)
			}
		default:
			if !open {
				return nil, Errorf(CodeMalformedCycle, "%q outside a cycle at offset %d in %q", r, pos, text)
			}
			i, err := alpha.ToIndex(r)
			if err != nil {
				return nil, Errorf(CodeMalformedCycle, "%q not in alphabet %q", r, alpha.String())
			}
			if placed[i] {
				return nil, Errorf(CodeMalformedCycle, "%q appears in more than one position", r)
			}
			placed[i] = true
			cur = append(cur, i)
		}
	}
	if open {
		return nil, Errorf(CodeMalformedCycle, "unterminated cycle in %q", text)
	}
	return out, nil
}

// Alphabet returns the alphabet the permutation is defined over.
func (p *Permutation) Alphabet() *Alphabet { return p.alphabet }

// Size returns the size of the alphabet.
func (p *Permutation) Size() int { return p.alphabet.Size() }

// Wrap returns i modulo Size() in [0, Size()).
func (p *Permutation) Wrap(i int) int { return p.alphabet.wrap(i) }

// Permute returns the successor of symbol index i (taken modulo Size()) in its cycle.
func (p *Permutation) Permute(i int) int { return p.forward[p.Wrap(i)] }

// Invert returns the predecessor of symbol index i (taken modulo Size()) in its cycle.
func (p *Permutation) Invert(i int) int { return p.inverse[p.Wrap(i)] }

// PermuteSymbol applies the permutation to a symbol.
func (p *Permutation) PermuteSymbol(r rune) (rune, error) {
	i, err := p.alphabet.ToIndex(r)
	if err != nil {
		return 0, err
	}
	return p.alphabet.ToSymbol(p.Permute(i))
}

// InvertSymbol applies the inverse permutation to a symbol.
func (p *Permutation) InvertSymbol(r rune) (rune, error) {
	i, err := p.alphabet.ToIndex(r)
	if err != nil {
		return 0, err
	}
	return p.alphabet.ToSymbol(p.Invert(i))
}

// Derangement reports whether no symbol maps to itself.
func (p *Permutation) Derangement() bool { return p.derangement }

// Cycles returns the full cycle decomposition, singletons included, as index lists.
func (p *Permutation) Cycles() [][]int {
	out := make([][]int, len(p.cycles))
	for i, c := range p.cycles {
		out[i] = append([]int(nil), c...)
	}
	return out
}

// String renders the non-singleton cycles in cycle notation.
func (p *Permutation) String() string {
	var b strings.Builder
	for _, c := range p.cycles {
		if len(c) < 2 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(cycleOpen)
		for _, i := range c {
			b.WriteRune(p.alphabet.symbols[i])
		}
		b.WriteRune(cycleClose)
	}
	return b.String()
}
