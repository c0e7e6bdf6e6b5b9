package config

import (
	"strings"

	"rotorcore/pkg/enigma"
)

// SettingMarker introduces a setting line.
const SettingMarker = "*"

// Setting is a parsed setting line:
//
//	* B Beta III IV I AXLE [RING] (HQ) (EX) (IP) (TR) (BY)
type Setting struct {
	Rotors    []string
	Positions string
	Rings     string
	Plugboard string
}

// IsSettingLine reports whether line starts a new configuration.
func IsSettingLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), SettingMarker)
}

// ParseSetting parses a setting line for a machine with slots rotor slots.
func ParseSetting(line string, slots int) (Setting, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != SettingMarker {
		return Setting{}, enigma.Errorf(enigma.CodeBadSetting, "setting line must start with %q: %q", SettingMarker, line)
	}
	fields = fields[1:]
	if len(fields) < slots {
		return Setting{}, enigma.Errorf(enigma.CodeConfigTruncated, "setting names %d rotors, want %d", len(fields), slots)
	}
	if len(fields) == slots {
		return Setting{}, enigma.Errorf(enigma.CodeConfigTruncated, "setting has no rotor positions")
	}
	s := Setting{
		Rotors:    append([]string(nil), fields[:slots]...),
		Positions: fields[slots],
	}
	var plugs []string
	for _, tok := range fields[slots+1:] {
		if strings.HasPrefix(tok, "(") {
			plugs = append(plugs, tok)
			continue
		}
		if s.Rings != "" || len(plugs) > 0 {
			return Setting{}, enigma.Errorf(enigma.CodeBadSetting, "unexpected token %q in setting", tok)
		}
		s.Rings = tok
	}
	s.Plugboard = strings.Join(plugs, " ")
	return s, nil
}

// Apply configures m: inserts the rotors, sets positions and rings, and
// installs the plugboard. Without a ring token every ring is at the first
// symbol of the alphabet.
func (s Setting) Apply(m *enigma.Machine) error {
	plugboard, err := enigma.NewPermutation(s.Plugboard, m.Alphabet())
	if err != nil {
		return err
	}
	if err := m.InsertRotors(s.Rotors); err != nil {
		return err
	}
	if err := m.SetRotors(s.Positions); err != nil {
		return err
	}
	rings := s.Rings
	if rings == "" {
		first, err := m.Alphabet().ToSymbol(0)
		if err != nil {
			return err
		}
		rings = strings.Repeat(string(first), m.NumRotors()-1)
	}
	if err := m.SetRings(rings); err != nil {
		return err
	}
	return m.SetPlugboard(plugboard)
}

// Configure parses line and applies it to m.
func Configure(m *enigma.Machine, line string) (Setting, error) {
	s, err := ParseSetting(line, m.NumRotors())
	if err != nil {
		return Setting{}, err
	}
	return s, s.Apply(m)
}
