// Package target describes the architecture a procedure is being compiled
// for. The value-numbering store folds floating-point constants using the
// target's bit patterns, which differ from the host's for invalid
// operations, so every store instance carries a Target selected once at
// creation instead of relying on build-time conditionals.
package target

import "fmt"

// Arch identifies a supported target architecture family.
type Arch uint8

const (
	// X64 covers the x86-family targets. Invalid floating-point
	// operations produce the negative quiet NaN on this family.
	X64 Arch = iota
	// ARM64 covers the ARM-family targets. Invalid floating-point
	// operations produce the positive default NaN.
	ARM64
)

// Target is an immutable description of one compilation target.
type Target struct {
	arch Arch
}

// For returns the Target for the given architecture.
func For(arch Arch) Target {
	return Target{arch: arch}
}

// Parse maps a command-line architecture name to a Target.
func Parse(name string) (Target, error) {
	switch name {
	case "x64", "amd64", "x86_64":
		return Target{arch: X64}, nil
	case "arm64", "aarch64":
		return Target{arch: ARM64}, nil
	default:
		return Target{}, fmt.Errorf("unknown target architecture %q", name)
	}
}

// Arch returns the architecture family.
func (t Target) Arch() Arch {
	return t.arch
}

func (t Target) String() string {
	switch t.arch {
	case X64:
		return "x64"
	case ARM64:
		return "arm64"
	}
	return "unknown"
}

// NaN64Bits returns the bit pattern the target's floating-point unit
// produces for an invalid 64-bit operation (inf-inf, 0*inf, 0/0, inf/inf)
// whose operands are themselves not NaN.
func (t Target) NaN64Bits() uint64 {
	if t.arch == ARM64 {
		return 0x7FF8000000000000 // default NaN
	}
	return 0xFFF8000000000000 // x86 "real indefinite"
}

// NaN32Bits is the 32-bit counterpart of NaN64Bits.
func (t Target) NaN32Bits() uint32 {
	if t.arch == ARM64 {
		return 0x7FC00000
	}
	return 0xFFC00000
}

// PointerSize returns the byte size of a pointer. Both supported
// families are 64-bit.
func (t Target) PointerSize() int {
	return 8
}
