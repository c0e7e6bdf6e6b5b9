package enigma

import "strings"

// Rotor is one wheel of the machine: a wiring permutation rotated by a
// setting and corrected by a ring offset. Reflector, FixedRotor and
// MovingRotor implement it.
type Rotor interface {
	Name() string
	Alphabet() *Alphabet
	Wiring() *Permutation
	Size() int
	Setting() int
	Ring() int
	Set(posn int)
	SetSymbol(r rune) error
	SetRing(posn int)
	SetRingSymbol(r rune) error
	ConvertForward(p int) int
	ConvertBackward(e int) int
	// Rotates reports whether the rotor has a ratchet and can advance.
	Rotates() bool
	// Reflecting reports whether the rotor can sit in slot 0.
	Reflecting() bool
	// AtNotch reports whether the rotor lets its left neighbour advance.
	AtNotch() bool
	Advance()
}

// rotor holds what every variant shares. The wiring is never mutated after
// construction; setting and ring are per-instance.
type rotor struct {
	name    string
	wiring  *Permutation
	setting int
	ring    int
}

func (r *rotor) Name() string         { return r.name }
func (r *rotor) Alphabet() *Alphabet  { return r.wiring.Alphabet() }
func (r *rotor) Wiring() *Permutation { return r.wiring }
func (r *rotor) Size() int            { return r.wiring.Size() }
func (r *rotor) Setting() int         { return r.setting }
func (r *rotor) Ring() int            { return r.ring }

// Set sets the rotational setting to posn modulo Size().
func (r *rotor) Set(posn int) { r.setting = r.wiring.Wrap(posn) }

// SetSymbol sets the rotational setting to the index of symbol s.
func (r *rotor) SetSymbol(s rune) error {
	i, err := r.Alphabet().ToIndex(s)
	if err != nil {
		return err
	}
	r.setting = i
	return nil
}

// SetRing sets the ring offset to posn modulo Size().
func (r *rotor) SetRing(posn int) { r.ring = r.wiring.Wrap(posn) }

// SetRingSymbol sets the ring offset to the index of symbol s.
func (r *rotor) SetRingSymbol(s rune) error {
	i, err := r.Alphabet().ToIndex(s)
	if err != nil {
		return err
	}
	r.ring = i
	return nil
}

// ConvertForward passes p through the wiring right to left.
func (r *rotor) ConvertForward(p int) int {
	s := r.setting - r.ring
	return r.wiring.Wrap(r.wiring.Permute(p+s) - s)
}

// ConvertBackward passes e through the inverse wiring left to right.
func (r *rotor) ConvertBackward(e int) int {
	s := r.setting - r.ring
	return r.wiring.Wrap(r.wiring.Invert(e+s) - s)
}

func (r *rotor) String() string { return "Rotor " + r.name }

// Reflector is the non-moving wheel in slot 0 that sends the signal back.
type Reflector struct{ rotor }

// NewReflector returns a reflector named name with wiring perm.
func NewReflector(name string, perm *Permutation) *Reflector {
	return &Reflector{rotor{name: name, wiring: perm}}
}

func (*Reflector) Rotates() bool    { return false }
func (*Reflector) Reflecting() bool { return true }
func (*Reflector) AtNotch() bool    { return false }
func (*Reflector) Advance()         {}

// FixedRotor has no ratchet and never advances.
type FixedRotor struct{ rotor }

// NewFixedRotor returns a fixed rotor named name with wiring perm.
func NewFixedRotor(name string, perm *Permutation) *FixedRotor {
	return &FixedRotor{rotor{name: name, wiring: perm}}
}

func (*FixedRotor) Rotates() bool    { return false }
func (*FixedRotor) Reflecting() bool { return false }
func (*FixedRotor) AtNotch() bool    { return false }
func (*FixedRotor) Advance()         {}

// MovingRotor advances one position whenever its pawl engages and carries
// its left neighbour when it sits on one of its notches.
type MovingRotor struct {
	rotor
	notches []rune
}

// NewMovingRotor returns a moving rotor named name with wiring perm and
// notches at the positions of the symbols in notches. The rotor starts at 0.
func NewMovingRotor(name string, perm *Permutation, notches string) *MovingRotor {
	return &MovingRotor{rotor: rotor{name: name, wiring: perm}, notches: []rune(notches)}
}

func (*MovingRotor) Rotates() bool    { return true }
func (*MovingRotor) Reflecting() bool { return false }

// AtNotch reports whether the symbol at the current setting is a notch.
func (m *MovingRotor) AtNotch() bool {
	sym := m.Alphabet().symbols[m.wiring.Wrap(m.setting)]
	for _, n := range m.notches {
		if n == sym {
			return true
		}
	}
	return false
}

// Advance moves the rotor one position.
func (m *MovingRotor) Advance() { m.Set(m.setting + 1) }

// Notches returns the notch symbols.
func (m *MovingRotor) Notches() string { return string(m.notches) }

// RotorKind selects a Rotor variant.
type RotorKind int

const (
	KindMoving RotorKind = iota
	KindFixed
	KindReflector
)

func (k RotorKind) String() string {
	switch k {
	case KindMoving:
		return "moving"
	case KindFixed:
		return "fixed"
	case KindReflector:
		return "reflector"
	default:
		return "unknown"
	}
}

// Definition is the immutable description of a named rotor held in a
// machine's registry. A Machine builds a fresh Rotor from it for every
// configuration, so definitions can be shared between machines.
type Definition struct {
	name    string
	kind    RotorKind
	wiring  *Permutation
	notches string
}

// NewDefinition validates and returns a rotor definition. Notches are only
// allowed on moving rotors and must be symbols of the wiring's alphabet.
func NewDefinition(name string, kind RotorKind, wiring *Permutation, notches string) (Definition, error) {
	if strings.TrimSpace(name) == "" {
		return Definition{}, Errorf(CodeBadRotorDescription, "rotor name is empty")
	}
	if wiring == nil {
		return Definition{}, Errorf(CodeBadRotorDescription, "rotor %s has no wiring", name)
	}
	switch kind {
	case KindMoving:
		for _, n := range notches {
			if !wiring.Alphabet().Contains(n) {
				return Definition{}, Errorf(CodeInvalidSymbol, "notch %q of rotor %s not in alphabet", n, name)
			}
		}
	case KindFixed, KindReflector:
		if notches != "" {
			return Definition{}, Errorf(CodeBadRotorDescription, "%s rotor %s cannot have notches", kind, name)
		}
	default:
		return Definition{}, Errorf(CodeBadRotorDescription, "rotor %s has unknown kind %d", name, int(kind))
	}
	return Definition{name: name, kind: kind, wiring: wiring, notches: notches}, nil
}

func (d Definition) Name() string         { return d.name }
func (d Definition) Kind() RotorKind      { return d.kind }
func (d Definition) Wiring() *Permutation { return d.wiring }
func (d Definition) Notches() string      { return d.notches }

// NewRotor returns a new rotor instance at setting 0 and ring 0.
func (d Definition) NewRotor() Rotor {
	switch d.kind {
	case KindReflector:
		return NewReflector(d.name, d.wiring)
	case KindFixed:
		return NewFixedRotor(d.name, d.wiring)
	default:
		return NewMovingRotor(d.name, d.wiring, d.notches)
	}
}
