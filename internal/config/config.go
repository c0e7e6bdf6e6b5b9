// Package config reads machine configurations and setting lines and turns them
// into configured enigma machines.
//
// The text format is whitespace separated:
//
//	ALPHABET
//	SLOTS PAWLS
//	NAME TYPE (CYCLE)...   one rotor per description, TYPE is M<notches>, N or R
//
// The YAML format carries the same fields (see ParseYAML).
package config

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"rotorcore/pkg/enigma"
)

// Format names a configuration encoding.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
)

// FormatForPath infers the format from a file name; anything that is not
// .yaml or .yml is text.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatText
	}
}

// ParseFormat validates a format name. The empty string means text.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatText:
		return FormatText, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown configuration format %q", name)
	}
}

// RotorSpec describes one available rotor.
type RotorSpec struct {
	Name    string
	Kind    enigma.RotorKind
	Notches string
	Cycles  string
}

// MachineSpec is a parsed configuration: the alphabet, the slot and pawl
// counts, and the rotors the machine may choose from.
type MachineSpec struct {
	Alphabet string
	Slots    int
	Pawls    int
	Rotors   []RotorSpec
}

// Parse reads a configuration in the given format.
func Parse(r io.Reader, format Format) (MachineSpec, error) {
	switch format {
	case FormatYAML:
		return ParseYAML(r)
	case FormatText, "":
		return ParseText(r)
	default:
		return MachineSpec{}, fmt.Errorf("unknown configuration format %q", format)
	}
}

// ParseText reads the whitespace-separated text format.
func ParseText(r io.Reader) (MachineSpec, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)
	var tokens []string
	for sc.Scan() {
		tokens = append(tokens, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return MachineSpec{}, fmt.Errorf("read configuration: %w", err)
	}
	t := &tokenizer{tokens: tokens}

	var spec MachineSpec
	alpha, ok := t.next()
	if !ok {
		return MachineSpec{}, enigma.Errorf(enigma.CodeConfigTruncated, "missing alphabet")
	}
	spec.Alphabet = alpha
	var err error
	if spec.Slots, err = t.nextInt("rotor slot count"); err != nil {
		return MachineSpec{}, err
	}
	if spec.Pawls, err = t.nextInt("pawl count"); err != nil {
		return MachineSpec{}, err
	}
	for t.more() {
		rs, err := t.rotor()
		if err != nil {
			return MachineSpec{}, err
		}
		spec.Rotors = append(spec.Rotors, rs)
	}
	return spec, nil
}

type tokenizer struct {
	tokens []string
	pos    int
}

func (t *tokenizer) more() bool { return t.pos < len(t.tokens) }

func (t *tokenizer) next() (string, bool) {
	if !t.more() {
		return "", false
	}
	tok := t.tokens[t.pos]
	t.pos++
	return tok, true
}

func (t *tokenizer) nextInt(what string) (int, error) {
	tok, ok := t.next()
	if !ok {
		return 0, enigma.Errorf(enigma.CodeConfigTruncated, "missing %s", what)
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, enigma.Errorf(enigma.CodeConfigTruncated, "%s %q is not a number", what, tok)
	}
	return n, nil
}

func (t *tokenizer) rotor() (RotorSpec, error) {
	name, _ := t.next()
	if strings.HasPrefix(name, "(") {
		return RotorSpec{}, enigma.Errorf(enigma.CodeBadRotorDescription, "cycle %s without a rotor", name)
	}
	typ, ok := t.next()
	if !ok {
		return RotorSpec{}, enigma.Errorf(enigma.CodeConfigTruncated, "rotor %s has no type", name)
	}
	kind, notches, err := parseType(name, typ)
	if err != nil {
		return RotorSpec{}, err
	}
	var cycles []string
	for t.more() && strings.HasPrefix(t.tokens[t.pos], "(") {
		tok, _ := t.next()
		cycles = append(cycles, tok)
	}
	return RotorSpec{Name: name, Kind: kind, Notches: notches, Cycles: strings.Join(cycles, " ")}, nil
}

func parseType(name, typ string) (enigma.RotorKind, string, error) {
	letter, rest := typ[:1], typ[1:]
	switch letter {
	case "M":
		return enigma.KindMoving, rest, nil
	case "N":
		return enigma.KindFixed, rest, nil
	case "R":
		return enigma.KindReflector, rest, nil
	default:
		return 0, "", enigma.Errorf(enigma.CodeBadRotorDescription, "rotor %s has unknown type %q", name, typ)
	}
}

func typeLetter(k enigma.RotorKind) string {
	switch k {
	case enigma.KindFixed:
		return "N"
	case enigma.KindReflector:
		return "R"
	default:
		return "M"
	}
}

// Build constructs an unconfigured machine from the spec. Rotors still have
// to be inserted with a setting line.
func (s MachineSpec) Build() (*enigma.Machine, error) {
	alphaText := s.Alphabet
	if alphaText == "" {
		alphaText = enigma.DefaultSymbols
	}
	alpha, err := enigma.NewAlphabet(alphaText)
	if err != nil {
		return nil, err
	}
	defs := make([]enigma.Definition, 0, len(s.Rotors))
	for _, rs := range s.Rotors {
		perm, err := enigma.NewPermutation(rs.Cycles, alpha)
		if err != nil {
			return nil, fmt.Errorf("rotor %s: %w", rs.Name, err)
		}
		def, err := enigma.NewDefinition(rs.Name, rs.Kind, perm, rs.Notches)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return enigma.NewMachine(alpha, s.Slots, s.Pawls, defs)
}

// Text renders the configuration in the text format. ParseText(Text()) yields an
// equivalent MachineSpec.
func (s MachineSpec) Text() string {
	var b strings.Builder
	alpha := s.Alphabet
	if alpha == "" {
		alpha = enigma.DefaultSymbols
	}
	fmt.Fprintf(&b, "%s\n%d %d\n", alpha, s.Slots, s.Pawls)
	for _, rs := range s.Rotors {
		fmt.Fprintf(&b, "%s %s%s", rs.Name, typeLetter(rs.Kind), rs.Notches)
		if rs.Cycles != "" {
			b.WriteString(" " + rs.Cycles)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Load parses and builds in one step.
func Load(r io.Reader, format Format) (MachineSpec, *enigma.Machine, error) {
	spec, err := Parse(r, format)
	if err != nil {
		return MachineSpec{}, nil, err
	}
	m, err := spec.Build()
	if err != nil {
		return MachineSpec{}, nil, err
	}
	return spec, m, nil
}
