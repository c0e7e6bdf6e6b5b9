package enigma

import (
	"errors"
	"strings"
	"testing"
)

type rotorSpec struct {
	name    string
	kind    RotorKind
	notches string
	cycles  string
}

var navalRotors = []rotorSpec{
	{"I", KindMoving, "Q", navalI},
	{"II", KindMoving, "E", "(FIXVYOMW) (CDKLHUP) (ESZ) (BJ) (GR) (NT) (A) (Q)"},
	{"III", KindMoving, "V", "(ABDHPEJT) (CFLVMZOYQIRWUKXSG) (N)"},
	{"IV", KindMoving, "J", "(AEPLIYWCOXMRFZBSTGJQNH) (DV) (KU)"},
	{"V", KindMoving, "Z", "(AVOLDRWFIUQ)(BZKSMNHYC) (EGTJPX)"},
	{"Beta", KindFixed, "", "(ALBEVFCYODJWUGNMQTZSKPR) (HIX)"},
	{"Gamma", KindFixed, "", "(AFNIRLBSQWVXGUZDKMTPCOYJHE)"},
	{"B", KindReflector, "", "(AY) (BR) (CU) (DH) (EQ) (FS) (GL) (IP) (JX) (KN) (MO) (TZ) (VW)"},
	{"C", KindReflector, "", "(AF) (BV) (CP) (DJ) (EI) (GO) (HY) (KR) (LZ) (MX) (NW) (QT) (SU)"},
}

func navalDefinitions(t *testing.T) []Definition {
	t.Helper()
	a := DefaultAlphabet()
	defs := make([]Definition, 0, len(navalRotors))
	for _, s := range navalRotors {
		d, err := NewDefinition(s.name, s.kind, mustPerm(t, s.cycles, a), s.notches)
		if err != nil {
			t.Fatalf("NewDefinition(%s): %v", s.name, err)
		}
		defs = append(defs, d)
	}
	return defs
}

func newMachine(t *testing.T, slots, pawls int, names []string, setting, rings, plugboard string) *Machine {
	t.Helper()
	m, err := NewMachine(DefaultAlphabet(), slots, pawls, navalDefinitions(t))
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	if err := m.InsertRotors(names); err != nil {
		t.Fatalf("InsertRotors: %v", err)
	}
	if err := m.SetRotors(setting); err != nil {
		t.Fatalf("SetRotors: %v", err)
	}
	if rings != "" {
		if err := m.SetRings(rings); err != nil {
			t.Fatalf("SetRings: %v", err)
		}
	}
	if err := m.SetPlugboard(mustPerm(t, plugboard, DefaultAlphabet())); err != nil {
		t.Fatalf("SetPlugboard: %v", err)
	}
	return m
}

func settings(m *Machine) string {
	var b strings.Builder
	for _, r := range m.Rotors()[1:] {
		b.WriteByte(byte('A' + r.Setting()))
	}
	return b.String()
}

func TestConvertKnownVectors(t *testing.T) {
	cases := []struct {
		name      string
		rings     string
		plugboard string
		in, want  string
	}{
		{"no rings", "", "", "AAAAA", "BDZGO"},
		{"rings BBB", "BBB", "", "AAAAA", "EWTYX"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newMachine(t, 4, 3, []string{"B", "I", "II", "III"}, "AAA", tc.rings, tc.plugboard)
			got, err := m.ConvertString(tc.in)
			if err != nil {
				t.Fatalf("ConvertString: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestDoubleStep(t *testing.T) {
	m := newMachine(t, 4, 3, []string{"B", "I", "II", "III"}, "ADU", "", "")
	for _, want := range []string{"ADV", "AEW", "BFX", "BFY"} {
		if _, err := m.Convert(0); err != nil {
			t.Fatalf("Convert: %v", err)
		}
		if got := settings(m); got != want {
			t.Fatalf("settings %s, want %s", got, want)
		}
	}
}

func TestMiddleRotorAtNotchAdvancesAllThree(t *testing.T) {
	// II sits on its notch E: the left rotor is pushed, II double-steps, III is driven.
	m := newMachine(t, 4, 3, []string{"B", "I", "II", "III"}, "AEA", "", "")
	if _, err := m.Convert(0); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if got := settings(m); got != "BFB" {
		t.Fatalf("settings %s, want BFB", got)
	}
}

func TestLeftmostPawlRotorDoesNotSelfStep(t *testing.T) {
	// I is the leftmost rotor under a pawl; sitting on its own notch Q does not move it.
	m := newMachine(t, 4, 3, []string{"B", "I", "II", "III"}, "QAA", "", "")
	if _, err := m.Convert(0); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if got := settings(m); got != "QAB" {
		t.Fatalf("settings %s, want QAB", got)
	}
}

func TestFixedRotorOutsidePawlWindowNeverMoves(t *testing.T) {
	m := newMachine(t, 5, 3, []string{"B", "Beta", "III", "IV", "I"}, "AXLE", "", "(HQ) (EX) (IP) (TR) (BY)")
	got, err := m.ConvertString("FROM HIS SHOULDER HIAWATHA")
	if err != nil {
		t.Fatalf("ConvertString: %v", err)
	}
	if got != "PEHOEARQSRSTZNTRSXTEZCO" {
		t.Fatalf("got %s", got)
	}
	if got := settings(m); got != "AXMB" {
		t.Fatalf("settings %s, want AXMB", got)
	}
	next, err := m.ConvertString("TOOK THE CAMERA OF ROSEWOOD")
	if err != nil {
		t.Fatalf("ConvertString: %v", err)
	}
	if next != "HGQJXEWYLGMQXJQCJUWSQLF" {
		t.Fatalf("state did not carry over: got %s", next)
	}
}

func TestReconfiguredMachineDecrypts(t *testing.T) {
	const plain = "FROMHISSHOULDERHIAWATHATOOKTHECAMERAOFROSEWOOD"
	enc := newMachine(t, 5, 3, []string{"B", "Beta", "III", "IV", "I"}, "AXLE", "BCDE", "(HQ) (EX) (IP) (TR) (BY)")
	cipher, err := enc.ConvertString(plain)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if cipher == plain {
		t.Fatalf("cipher text equals plain text")
	}
	dec := newMachine(t, 5, 3, []string{"B", "Beta", "III", "IV", "I"}, "AXLE", "BCDE", "(HQ) (EX) (IP) (TR) (BY)")
	back, err := dec.ConvertString(cipher)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if back != plain {
		t.Fatalf("round trip: got %s", back)
	}
}

func TestMachinesSharingDefinitionsKeepSeparateState(t *testing.T) {
	defs := navalDefinitions(t)
	build := func() *Machine {
		m, err := NewMachine(DefaultAlphabet(), 4, 3, defs)
		if err != nil {
			t.Fatalf("NewMachine: %v", err)
		}
		if err := m.InsertRotors([]string{"b", "i", "ii", "iii"}); err != nil {
			t.Fatalf("InsertRotors: %v", err)
		}
		if err := m.SetRotors("AAA"); err != nil {
			t.Fatalf("SetRotors: %v", err)
		}
		return m
	}
	first, second := build(), build()
	if _, err := first.ConvertString("AAAAAAAAAA"); err != nil {
		t.Fatalf("ConvertString: %v", err)
	}
	got, err := second.ConvertString("AAAAA")
	if err != nil {
		t.Fatalf("ConvertString: %v", err)
	}
	if got != "BDZGO" {
		t.Fatalf("second machine disturbed by first: %s", got)
	}
}

func TestInsertRotorsErrors(t *testing.T) {
	m, err := NewMachine(DefaultAlphabet(), 4, 3, navalDefinitions(t))
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	cases := []struct {
		name  string
		names []string
		want  error
	}{
		{"too few", []string{"B", "I", "II"}, ErrCapacityMismatch},
		{"too many", []string{"B", "I", "II", "III", "IV"}, ErrCapacityMismatch},
		{"duplicate", []string{"B", "I", "i", "III"}, ErrDuplicateRotor},
		{"unknown", []string{"B", "I", "II", "IX"}, ErrUnknownRotor},
		{"no reflector", []string{"I", "B", "II", "III"}, ErrNotReflector},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := m.InsertRotors(tc.names); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSettingErrorsLeaveRotorsUntouched(t *testing.T) {
	m := newMachine(t, 4, 3, []string{"B", "I", "II", "III"}, "CAT", "", "")
	for _, bad := range []string{"AB", "ABCD", "AB!", "ab c"} {
		if err := m.SetRotors(bad); !errors.Is(err, ErrBadSetting) {
			t.Fatalf("SetRotors(%q): expected bad setting, got %v", bad, err)
		}
		if err := m.SetRings(bad); !errors.Is(err, ErrBadSetting) {
			t.Fatalf("SetRings(%q): expected bad setting, got %v", bad, err)
		}
	}
	if got := settings(m); got != "CAT" {
		t.Fatalf("settings changed to %s", got)
	}
}

func TestSetRingsLeavesReflectorAtZero(t *testing.T) {
	m := newMachine(t, 4, 3, []string{"B", "I", "II", "III"}, "AAA", "XYZ", "")
	rotors := m.Rotors()
	if rotors[0].Ring() != 0 {
		t.Fatalf("reflector ring %d", rotors[0].Ring())
	}
	if rotors[1].Ring() != 23 || rotors[3].Ring() != 25 {
		t.Fatalf("rings not assigned positionally")
	}
}

func TestConvertRejectsOutOfRangeIndex(t *testing.T) {
	m := newMachine(t, 4, 3, []string{"B", "I", "II", "III"}, "AAA", "", "")
	for _, c := range []int{-1, 26} {
		if _, err := m.Convert(c); !errors.Is(err, ErrOutOfAlphabet) {
			t.Fatalf("Convert(%d): expected out of alphabet, got %v", c, err)
		}
	}
	if got := settings(m); got != "AAA" {
		t.Fatalf("rejected input stepped the rotors: %s", got)
	}
	if _, err := m.ConvertString("AB1"); !errors.Is(err, ErrInvalidSymbol) {
		t.Fatalf("expected invalid symbol, got %v", err)
	}
}

func TestUnconfiguredMachine(t *testing.T) {
	m, err := NewMachine(DefaultAlphabet(), 4, 3, navalDefinitions(t))
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	if _, err := m.Convert(0); !errors.Is(err, ErrBadSetting) {
		t.Fatalf("expected bad setting, got %v", err)
	}
	if err := m.SetRotors("AAA"); !errors.Is(err, ErrBadSetting) {
		t.Fatalf("expected bad setting, got %v", err)
	}
}

func TestNewMachineValidation(t *testing.T) {
	defs := navalDefinitions(t)
	if _, err := NewMachine(DefaultAlphabet(), 1, 0, defs); !errors.Is(err, ErrCapacityMismatch) {
		t.Fatalf("expected capacity mismatch for one slot, got %v", err)
	}
	if _, err := NewMachine(DefaultAlphabet(), 4, 4, defs); !errors.Is(err, ErrCapacityMismatch) {
		t.Fatalf("expected capacity mismatch for pawls, got %v", err)
	}
	if _, err := NewMachine(DefaultAlphabet(), 4, 3, append(defs, defs[0])); !errors.Is(err, ErrDuplicateRotor) {
		t.Fatalf("expected duplicate rotor, got %v", err)
	}
	other := mustAlphabet(t, "ABCD")
	d, err := NewDefinition("R", KindReflector, mustPerm(t, "(AB)(CD)", other), "")
	if err != nil {
		t.Fatalf("NewDefinition: %v", err)
	}
	if _, err := NewMachine(DefaultAlphabet(), 4, 3, []Definition{d}); !errors.Is(err, ErrBadRotorDescription) {
		t.Fatalf("expected alphabet mismatch, got %v", err)
	}
	m, err := NewMachine(DefaultAlphabet(), 5, 3, defs)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	if m.NumRotors() != 5 || m.NumPawls() != 3 || len(m.Available()) != len(defs) {
		t.Fatalf("unexpected machine shape")
	}
	if m.Available()[0].Name() != "B" {
		t.Fatalf("Available not sorted: %s", m.Available()[0].Name())
	}
}

func TestSetPlugboardValidation(t *testing.T) {
	m := newMachine(t, 5, 3, []string{"B", "Beta", "III", "IV", "I"}, "AXLE", "", "")
	wide := mustAlphabet(t, "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	if err := m.SetPlugboard(mustPerm(t, "(A0)(B1)(C2)", wide)); !errors.Is(err, ErrBadSetting) {
		t.Fatalf("expected bad setting for foreign alphabet, got %v", err)
	}
	if err := m.SetPlugboard(nil); !errors.Is(err, ErrBadSetting) {
		t.Fatalf("expected bad setting for nil plugboard, got %v", err)
	}
	for i := 0; i < 2*DefaultAlphabet().Size(); i++ {
		out, err := m.Convert(0)
		if err != nil {
			t.Fatalf("Convert: %v", err)
		}
		if out < 0 || out >= DefaultAlphabet().Size() {
			t.Fatalf("Convert left the alphabet: %d", out)
		}
	}
	if err := m.SetPlugboard(mustPerm(t, "(HQ)(EX)", DefaultAlphabet())); err != nil {
		t.Fatalf("SetPlugboard: %v", err)
	}
}

func TestZeroPawlsNeverStep(t *testing.T) {
	m := newMachine(t, 4, 0, []string{"B", "I", "II", "III"}, "AAA", "", "")
	if _, err := m.ConvertString("AAAA"); err != nil {
		t.Fatalf("ConvertString: %v", err)
	}
	if got := settings(m); got != "AAA" {
		t.Fatalf("rotors moved without pawls: %s", got)
	}
}
