package enigma

import (
	"sort"
	"strings"
	"unicode"
)

// Machine is a configured rotor cipher machine. Slot 0 holds the reflector and
// the trailing NumPawls() slots are driven by pawls.
//
// A Machine is mutable: every Convert advances rotors. It is not safe for
// concurrent use; callers hold one Machine per session or serialize calls.
type Machine struct {
	alphabet  *Alphabet
	slots     int
	pawls     int
	available map[string]Definition
	rotors    []Rotor
	plugboard *Permutation
}

// NewMachine returns a machine over alpha with slots rotor slots and pawls
// pawls, choosing rotors from defs. It requires 1 < slots and 0 <= pawls < slots.
func NewMachine(alpha *Alphabet, slots, pawls int, defs []Definition) (*Machine, error) {
	if alpha == nil {
		return nil, ErrEmptyAlphabet
	}
	if slots <= 1 {
		return nil, Errorf(CodeCapacityMismatch, "machine needs more than one slot, got %d", slots)
	}
	if pawls < 0 || pawls >= slots {
		return nil, Errorf(CodeCapacityMismatch, "pawl count %d must be in [0,%d)", pawls, slots)
	}
	available := make(map[string]Definition, len(defs))
	for _, d := range defs {
		key := strings.ToUpper(d.Name())
		if _, dup := available[key]; dup {
			return nil, Errorf(CodeDuplicateRotor, "rotor %s defined twice", d.Name())
		}
		if d.Wiring() == nil {
			return nil, Errorf(CodeBadRotorDescription, "rotor %s has no wiring", d.Name())
		}
		if d.Wiring().Alphabet().String() != alpha.String() {
			return nil, Errorf(CodeBadRotorDescription, "rotor %s is wired over a different alphabet", d.Name())
		}
		available[key] = d
	}
	identity, err := NewPermutation("", alpha)
	if err != nil {
		return nil, err
	}
	return &Machine{
		alphabet:  alpha,
		slots:     slots,
		pawls:     pawls,
		available: available,
		plugboard: identity,
	}, nil
}

// Alphabet returns the machine's alphabet.
func (m *Machine) Alphabet() *Alphabet { return m.alphabet }

// NumRotors returns the number of rotor slots.
func (m *Machine) NumRotors() int { return m.slots }

// NumPawls returns the number of pawls.
func (m *Machine) NumPawls() int { return m.pawls }

// Available returns the rotor definitions the machine can insert, sorted by name.
func (m *Machine) Available() []Definition {
	out := make([]Definition, 0, len(m.available))
	for _, d := range m.available {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Rotors returns the rotors currently in the slots, slot 0 first. The slice
// is a copy; the rotors are live.
func (m *Machine) Rotors() []Rotor {
	return append([]Rotor(nil), m.rotors...)
}

// Plugboard returns the current plugboard permutation.
func (m *Machine) Plugboard() *Permutation { return m.plugboard }

// InsertRotors fills the slots with fresh rotors built from the definitions
// named by names, names[0] being the reflector. Names are matched without
// regard to case. All rotors start at setting 0 and ring 0.
func (m *Machine) InsertRotors(names []string) error {
	if len(names) != m.slots {
		return Errorf(CodeCapacityMismatch, "%d rotors named for %d slots", len(names), m.slots)
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		key := strings.ToUpper(n)
		if seen[key] {
			return Errorf(CodeDuplicateRotor, "rotor %s named twice", n)
		}
		seen[key] = true
	}
	rotors := make([]Rotor, len(names))
	for i, n := range names {
		d, ok := m.available[strings.ToUpper(n)]
		if !ok {
			return Errorf(CodeUnknownRotor, "no rotor named %s", n)
		}
		rotors[i] = d.NewRotor()
	}
	if !rotors[0].Reflecting() {
		return Errorf(CodeNotReflector, "rotor %s in slot 0 does not reflect", rotors[0].Name())
	}
	m.rotors = rotors
	return nil
}

// SetRotors sets slots 1..NumRotors()-1 from the symbols of setting, leftmost
// first. The reflector is untouched.
func (m *Machine) SetRotors(setting string) error {
	idx, err := m.positions(setting, "setting")
	if err != nil {
		return err
	}
	for i, p := range idx {
		m.rotors[i+1].Set(p)
	}
	return nil
}

// SetRings sets the ring offsets of slots 1..NumRotors()-1 from the symbols
// of rings, leftmost first. Slot 0 keeps ring 0.
func (m *Machine) SetRings(rings string) error {
	idx, err := m.positions(rings, "ring setting")
	if err != nil {
		return err
	}
	m.rotors[0].SetRing(0)
	for i, p := range idx {
		m.rotors[i+1].SetRing(p)
	}
	return nil
}

// positions validates a per-slot symbol string before any slot is touched.
func (m *Machine) positions(text, what string) ([]int, error) {
	if m.rotors == nil {
		return nil, Errorf(CodeBadSetting, "%s before rotors are inserted", what)
	}
	symbols := []rune(text)
	if len(symbols) != m.slots-1 {
		return nil, Errorf(CodeBadSetting, "%s %q has %d symbols, want %d", what, text, len(symbols), m.slots-1)
	}
	idx := make([]int, len(symbols))
	for i, r := range symbols {
		p, err := m.alphabet.ToIndex(r)
		if err != nil {
			return nil, Errorf(CodeBadSetting, "%s %q: %q not in alphabet", what, text, r)
		}
		idx[i] = p
	}
	return idx, nil
}

// SetPlugboard replaces the plugboard. The plugboard must be defined over the
// machine's alphabet. The cipher is only reciprocal when plugboard consists of
// pairwise swaps; that is left to the caller.
func (m *Machine) SetPlugboard(plugboard *Permutation) error {
	if plugboard == nil {
		return Errorf(CodeBadSetting, "missing plugboard")
	}
	if plugboard.Alphabet().String() != m.alphabet.String() {
		return Errorf(CodeBadSetting, "plugboard alphabet %q differs from machine alphabet %q",
			plugboard.Alphabet().String(), m.alphabet.String())
	}
	m.plugboard = plugboard
	return nil
}

// Convert advances the rotors and returns the encoding of the symbol index c.
func (m *Machine) Convert(c int) (int, error) {
	if c < 0 || c >= m.alphabet.Size() {
		return 0, Errorf(CodeOutOfAlphabet, "index %d not in [0,%d)", c, m.alphabet.Size())
	}
	if m.rotors == nil {
		return 0, Errorf(CodeBadSetting, "convert before rotors are inserted")
	}
	m.step()
	result := m.plugboard.Permute(c)
	for i := m.slots - 1; i >= 0; i-- {
		result = m.rotors[i].ConvertForward(result)
	}
	for i := 1; i < m.slots; i++ {
		result = m.rotors[i].ConvertBackward(result)
	}
	return m.plugboard.Permute(result), nil
}

// step advances the rotors under the pawls. Notch positions are read for the
// whole window before anything moves. The fastest rotor always advances; any
// other rotor advances when its right neighbour sat on a notch, and a rotor
// sitting on its own notch advances as well unless it is the leftmost one
// under a pawl (double stepping).
func (m *Machine) step() {
	first := m.slots - m.pawls
	if first >= m.slots {
		return
	}
	notched := make([]bool, m.slots)
	for i := first; i < m.slots; i++ {
		notched[i] = m.rotors[i].AtNotch()
	}
	advance := make([]bool, m.slots)
	for i := m.slots - 1; i >= first; i-- {
		switch {
		case i == m.slots-1:
			advance[i] = true
		case notched[i+1]:
			advance[i] = true
		case notched[i] && i != first:
			advance[i] = true
		}
	}
	for i := first; i < m.slots; i++ {
		if advance[i] && m.rotors[i].Rotates() {
			m.rotors[i].Advance()
		}
	}
}

// ConvertString encodes msg symbol by symbol, skipping whitespace. Rotor
// state carries over between calls.
func (m *Machine) ConvertString(msg string) (string, error) {
	var b strings.Builder
	b.Grow(len(msg))
	for _, r := range msg {
		if unicode.IsSpace(r) {
			continue
		}
		c, err := m.alphabet.ToIndex(r)
		if err != nil {
			return b.String(), err
		}
		out, err := m.Convert(c)
		if err != nil {
			return b.String(), err
		}
		b.WriteRune(m.alphabet.symbols[out])
	}
	return b.String(), nil
}
