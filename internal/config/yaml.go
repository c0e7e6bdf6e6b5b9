package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"rotorcore/pkg/enigma"
)

// yamlMachine is the YAML form of a MachineSpec:
//
//	alphabet: ABCDEFGHIJKLMNOPQRSTUVWXYZ
//	slots: 5
//	pawls: 3
//	rotors:
//	  - name: I
//	    type: moving
//	    notches: Q
//	    cycles: (AELTPHQXRU) (BKNW) (CMOY) (DFG) (IV) (JZ) (S)
type yamlMachine struct {
	Alphabet string      `yaml:"alphabet"`
	Slots    int         `yaml:"slots"`
	Pawls    *int        `yaml:"pawls"`
	Rotors   []yamlRotor `yaml:"rotors"`
}

type yamlRotor struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Notches string `yaml:"notches,omitempty"`
	Cycles  string `yaml:"cycles,omitempty"`
}

// ParseYAML reads the YAML format. Unknown keys are rejected.
func ParseYAML(r io.Reader) (MachineSpec, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc yamlMachine
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return MachineSpec{}, enigma.Errorf(enigma.CodeConfigTruncated, "empty configuration")
		}
		return MachineSpec{}, fmt.Errorf("decode yaml configuration: %w", err)
	}
	if doc.Slots == 0 {
		return MachineSpec{}, enigma.Errorf(enigma.CodeConfigTruncated, "missing rotor slot count")
	}
	if doc.Pawls == nil {
		return MachineSpec{}, enigma.Errorf(enigma.CodeConfigTruncated, "missing pawl count")
	}
	spec := MachineSpec{Alphabet: doc.Alphabet, Slots: doc.Slots, Pawls: *doc.Pawls}
	for _, yr := range doc.Rotors {
		if strings.TrimSpace(yr.Name) == "" {
			return MachineSpec{}, enigma.Errorf(enigma.CodeBadRotorDescription, "rotor without a name")
		}
		kind, err := kindFromName(yr.Name, yr.Type)
		if err != nil {
			return MachineSpec{}, err
		}
		spec.Rotors = append(spec.Rotors, RotorSpec{Name: yr.Name, Kind: kind, Notches: yr.Notches, Cycles: yr.Cycles})
	}
	return spec, nil
}

func kindFromName(rotor, typ string) (enigma.RotorKind, error) {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "moving", "m":
		return enigma.KindMoving, nil
	case "fixed", "n":
		return enigma.KindFixed, nil
	case "reflector", "r":
		return enigma.KindReflector, nil
	default:
		return 0, enigma.Errorf(enigma.CodeBadRotorDescription, "rotor %s has unknown type %q", rotor, typ)
	}
}

// YAML renders the configuration in the YAML format.
func (s MachineSpec) YAML() ([]byte, error) {
	pawls := s.Pawls
	doc := yamlMachine{Alphabet: s.Alphabet, Slots: s.Slots, Pawls: &pawls}
	for _, rs := range s.Rotors {
		doc.Rotors = append(doc.Rotors, yamlRotor{Name: rs.Name, Type: rs.Kind.String(), Notches: rs.Notches, Cycles: rs.Cycles})
	}
	return yaml.Marshal(doc)
}
