package enigma

import (
	"errors"
	"testing"
)

// checkRotor verifies that r maps DefaultSymbols[i] to to[i] forward and back.
func checkRotor(t *testing.T, id string, r Rotor, to string) {
	t.Helper()
	if r.Size() != len(to) {
		t.Fatalf("%s: size %d, want %d", id, r.Size(), len(to))
	}
	for i := 0; i < len(to); i++ {
		e := int(to[i] - 'A')
		if got := r.ConvertForward(i); got != e {
			t.Fatalf("%s: forward %d (%c) = %d, want %d", id, i, 'A'+i, got, e)
		}
		if got := r.ConvertBackward(e); got != i {
			t.Fatalf("%s: backward %d = %d, want %d", id, e, got, i)
		}
	}
}

func navalRotorI(t *testing.T, notches string) *MovingRotor {
	t.Helper()
	return NewMovingRotor("I", mustPerm(t, navalI, DefaultAlphabet()), notches)
}

func TestMovingRotorConversions(t *testing.T) {
	r := navalRotorI(t, "Q")
	checkRotor(t, "I at A", r, "EKMFLGDQVZNTOWYHXUSPAIBRCJ")

	r.Advance()
	checkRotor(t, "I advanced", r, "JLEKFCPUYMSNVXGWTROZHAQBID")

	r.Set(25)
	checkRotor(t, "I at Z", r, "KFLNGMHERWAOUPXZIYVTQBJCSD")
}

func TestRingOffsetShiftsWiring(t *testing.T) {
	r := navalRotorI(t, "Q")
	r.SetRing(1)
	// Ring B at setting A behaves like setting Z with ring A.
	checkRotor(t, "I ring B", r, "KFLNGMHERWAOUPXZIYVTQBJCSD")

	r.Set(3)
	if err := r.SetRingSymbol('F'); err != nil {
		t.Fatalf("SetRingSymbol: %v", err)
	}
	checkRotor(t, "I at D ring F", r, "ELGMOHNIFSXBPVQYAJZWURCKDT")
	if r.Ring() != 5 || r.Setting() != 3 {
		t.Fatalf("unexpected setting %d ring %d", r.Setting(), r.Ring())
	}
}

func TestConvertBackwardInvertsForwardAtEverySetting(t *testing.T) {
	r := navalRotorI(t, "Q")
	for s := 0; s < r.Size(); s++ {
		r.Set(s)
		r.SetRing((s * 7) % r.Size())
		for p := 0; p < r.Size(); p++ {
			if got := r.ConvertBackward(r.ConvertForward(p)); got != p {
				t.Fatalf("setting %d: backward(forward(%d)) = %d", s, p, got)
			}
		}
	}
}

func TestMovingRotorNotches(t *testing.T) {
	cases := []struct {
		notches string
		setting int
		want    bool
	}{
		{"G", 6, true},
		{"D", 1, false},
		{"I", 3, false},
		{"A", 0, true},
		{"ZM", 12, true},
		{"ZM", 25, true},
		{"", 0, false},
	}
	for _, tc := range cases {
		r := navalRotorI(t, tc.notches)
		r.Set(tc.setting)
		if got := r.AtNotch(); got != tc.want {
			t.Fatalf("notches %q setting %d: AtNotch = %v, want %v", tc.notches, tc.setting, got, tc.want)
		}
	}
}

func TestAdvanceWrapsToNotch(t *testing.T) {
	r := navalRotorI(t, "A")
	r.Set(25)
	if r.AtNotch() {
		t.Fatalf("Z is not a notch")
	}
	r.Advance()
	if r.Setting() != 0 || !r.AtNotch() {
		t.Fatalf("expected setting 0 at notch, got %d %v", r.Setting(), r.AtNotch())
	}
}

func TestFullRevolutionRestoresState(t *testing.T) {
	r := navalRotorI(t, "QV")
	r.Set(7)
	start, notch := r.Setting(), r.AtNotch()
	for i := 0; i < r.Size(); i++ {
		before := r.Setting()
		r.Advance()
		if r.Setting() != (before+1)%r.Size() {
			t.Fatalf("advance from %d gave %d", before, r.Setting())
		}
	}
	if r.Setting() != start || r.AtNotch() != notch {
		t.Fatalf("state after a revolution: %d %v, want %d %v", r.Setting(), r.AtNotch(), start, notch)
	}
}

func TestFixedRotorsAndReflectorsStayPut(t *testing.T) {
	a := DefaultAlphabet()
	fixed := NewFixedRotor("Beta", mustPerm(t, "(ALBEVFCYODJWUGNMQTZSKPR) (HIX)", a))
	refl := NewReflector("B", mustPerm(t, "(AY) (BR) (CU) (DH) (EQ) (FS) (GL) (IP) (JX) (KN) (MO) (TZ) (VW)", a))
	for _, r := range []Rotor{fixed, refl} {
		r.Set(4)
		r.Advance()
		if r.Setting() != 4 {
			t.Fatalf("%s moved to %d", r.Name(), r.Setting())
		}
		if r.Rotates() || r.AtNotch() {
			t.Fatalf("%s should not rotate or notch", r.Name())
		}
	}
	if fixed.Reflecting() || !refl.Reflecting() {
		t.Fatalf("reflecting flags wrong")
	}
	if err := fixed.SetSymbol('!'); !errors.Is(err, ErrInvalidSymbol) {
		t.Fatalf("expected invalid symbol, got %v", err)
	}
}

func TestDefinitionBuildsFreshRotors(t *testing.T) {
	def, err := NewDefinition("I", KindMoving, mustPerm(t, navalI, DefaultAlphabet()), "Q")
	if err != nil {
		t.Fatalf("NewDefinition: %v", err)
	}
	a, b := def.NewRotor(), def.NewRotor()
	a.Set(10)
	if b.Setting() != 0 {
		t.Fatalf("rotor instances share state")
	}
	m, ok := a.(*MovingRotor)
	if !ok || m.Notches() != "Q" || !m.Rotates() {
		t.Fatalf("expected moving rotor with notch Q, got %#v", a)
	}
}

func TestNewDefinitionRejects(t *testing.T) {
	wiring := mustPerm(t, navalI, DefaultAlphabet())
	cases := []struct {
		name    string
		rotor   string
		kind    RotorKind
		wiring  *Permutation
		notches string
		want    error
	}{
		{"empty name", " ", KindMoving, wiring, "Q", ErrBadRotorDescription},
		{"nil wiring", "I", KindMoving, nil, "Q", ErrBadRotorDescription},
		{"foreign notch", "I", KindMoving, wiring, "q", ErrInvalidSymbol},
		{"notched reflector", "B", KindReflector, wiring, "A", ErrBadRotorDescription},
		{"notched fixed", "Beta", KindFixed, wiring, "A", ErrBadRotorDescription},
		{"unknown kind", "X", RotorKind(9), wiring, "", ErrBadRotorDescription},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewDefinition(tc.rotor, tc.kind, tc.wiring, tc.notches); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
