// Package enigma simulates rotor cipher machines of the Enigma family.
//
// A Machine stacks a reflector and a number of rotors behind a plugboard.
// Each symbol passes through the plugboard, the rotors right to left, the
// reflector, the rotors left to right and the plugboard again; before every
// symbol the rotors under the pawls step, including the double step of a
// rotor sitting on its notch. With an involutive plugboard the cipher is
// reciprocal: a machine configured identically decodes its own output.
//
// Substitutions are Permutations written in cycle notation over an
// Alphabet. Rotor wiring is described once by a Definition and instantiated
// per configuration, so several machines may share definitions.
//
// The package does no I/O and no logging.
package enigma
