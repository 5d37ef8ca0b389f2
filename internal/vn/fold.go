package vn

import (
	"math"
)

// Constant folding evaluates an operator application whose operands are
// all interned constants, using the target architecture's semantics:
// two's-complement wrapping at the operand width, masked shift counts,
// and the target's canonical NaN bits for invalid floating operations.
//
// The fold-safety gate refuses to fold anything that could have thrown
// at runtime: division by zero, MinInt/-1 for the signed divide and
// modulo instructions, and checked arithmetic or casts whose check
// fails. Those applications are interned unevaluated so the exception
// edge stays visible.

func float32Bits(f float32) uint32     { return math.Float32bits(f) }
func float64Bits(f float64) uint64     { return math.Float64bits(f) }
func float32FromBits(b uint32) float32 { return math.Float32frombits(b) }
func float64FromBits(b uint64) float64 { return math.Float64frombits(b) }

// foldConstants attempts to evaluate op over fully-constant arguments.
// It returns (NoVN, false) when any argument is non-constant or when
// the fold-safety gate refuses.
func (s *Store) foldConstants(typ Typ, op Op, args []ValueNum) (ValueNum, bool) {
	for _, a := range args {
		if !s.IsConstant(a) {
			return NoVN, false
		}
	}
	switch op {
	case OpCast:
		return s.foldCast(typ, args[0], args[1], false)
	case OpCastOvf:
		return s.foldCast(typ, args[0], args[1], true)
	case OpBitCast:
		return s.foldBitCast(typ, args[0])
	}
	switch len(args) {
	case 1:
		return s.foldUnary(typ, op, args[0])
	case 2:
		return s.foldBinary(typ, op, args[0], args[1])
	}
	return NoVN, false
}

func (s *Store) foldUnary(typ Typ, op Op, arg ValueNum) (ValueNum, bool) {
	switch storageTyp(s.TypeOf(arg)) {
	case TypInt32:
		v := s.Int32Val(arg)
		switch op {
		case OpNeg:
			return s.VNForInt32(-v), true
		case OpBitNot:
			return s.VNForInt32(^v), true
		}
	case TypInt64:
		v := s.Int64Val(arg)
		switch op {
		case OpNeg:
			return s.VNForInt64(-v), true
		case OpBitNot:
			return s.VNForInt64(^v), true
		}
	case TypFloat32:
		if op == OpNeg {
			return s.VNForFloat32Bits(float32Bits(s.Float32Val(arg)) ^ 0x80000000), true
		}
	case TypFloat64:
		if op == OpNeg {
			return s.VNForFloat64Bits(float64Bits(s.Float64Val(arg)) ^ 0x8000000000000000), true
		}
	}
	return NoVN, false
}

func (s *Store) foldBinary(typ Typ, op Op, a0, a1 ValueNum) (ValueNum, bool) {
	switch storageTyp(s.TypeOf(a0)) {
	case TypInt32:
		if storageTyp(s.TypeOf(a1)) != TypInt32 {
			return NoVN, false
		}
		return s.foldInt32(op, s.Int32Val(a0), s.Int32Val(a1))
	case TypInt64:
		// Shift counts may be interned at 32 bits even for a 64-bit
		// shiftee.
		if c, ok := s.IsIntegralConstant(a1); ok {
			return s.foldInt64(op, s.Int64Val(a0), c)
		}
		return NoVN, false
	case TypFloat32:
		if storageTyp(s.TypeOf(a1)) != TypFloat32 {
			return NoVN, false
		}
		return s.foldFloat32(op, s.Float32Val(a0), s.Float32Val(a1))
	case TypFloat64:
		if storageTyp(s.TypeOf(a1)) != TypFloat64 {
			return NoVN, false
		}
		return s.foldFloat64(op, s.Float64Val(a0), s.Float64Val(a1))
	}
	return NoVN, false
}

func (s *Store) foldInt32(op Op, a, b int32) (ValueNum, bool) {
	switch op {
	case OpAdd:
		return s.VNForInt32(int32(uint32(a) + uint32(b))), true
	case OpSub:
		return s.VNForInt32(int32(uint32(a) - uint32(b))), true
	case OpMul:
		return s.VNForInt32(int32(uint32(a) * uint32(b))), true

	case OpDiv:
		if b == 0 || (a == math.MinInt32 && b == -1) {
			return NoVN, false // would have trapped
		}
		return s.VNForInt32(a / b), true
	case OpMod:
		// MinInt%-1 matches the trapping idiv it compiles to, so it
		// is not folded even though the result is defined.
		if b == 0 || (a == math.MinInt32 && b == -1) {
			return NoVN, false
		}
		return s.VNForInt32(a % b), true
	case OpUDiv:
		if b == 0 {
			return NoVN, false
		}
		return s.VNForInt32(int32(uint32(a) / uint32(b))), true
	case OpUMod:
		if b == 0 {
			return NoVN, false
		}
		return s.VNForInt32(int32(uint32(a) % uint32(b))), true

	case OpAddOvf:
		r := int64(a) + int64(b)
		if r < math.MinInt32 || r > math.MaxInt32 {
			return NoVN, false
		}
		return s.VNForInt32(int32(r)), true
	case OpSubOvf:
		r := int64(a) - int64(b)
		if r < math.MinInt32 || r > math.MaxInt32 {
			return NoVN, false
		}
		return s.VNForInt32(int32(r)), true
	case OpMulOvf:
		r := int64(a) * int64(b)
		if r < math.MinInt32 || r > math.MaxInt32 {
			return NoVN, false
		}
		return s.VNForInt32(int32(r)), true

	case OpAnd:
		return s.VNForInt32(a & b), true
	case OpOr:
		return s.VNForInt32(a | b), true
	case OpXor:
		return s.VNForInt32(a ^ b), true
	case OpLsh:
		return s.VNForInt32(int32(uint32(a) << (uint(b) & 31))), true
	case OpRsh:
		return s.VNForInt32(a >> (uint(b) & 31)), true
	case OpRsz:
		return s.VNForInt32(int32(uint32(a) >> (uint(b) & 31))), true

	case OpEq:
		return s.VNForBool(a == b), true
	case OpNe:
		return s.VNForBool(a != b), true
	case OpLt:
		return s.VNForBool(a < b), true
	case OpLe:
		return s.VNForBool(a <= b), true
	case OpGt:
		return s.VNForBool(a > b), true
	case OpGe:
		return s.VNForBool(a >= b), true
	}
	return NoVN, false
}

func (s *Store) foldInt64(op Op, a, b int64) (ValueNum, bool) {
	switch op {
	case OpAdd:
		return s.VNForInt64(int64(uint64(a) + uint64(b))), true
	case OpSub:
		return s.VNForInt64(int64(uint64(a) - uint64(b))), true
	case OpMul:
		return s.VNForInt64(int64(uint64(a) * uint64(b))), true

	case OpDiv:
		if b == 0 || (a == math.MinInt64 && b == -1) {
			return NoVN, false
		}
		return s.VNForInt64(a / b), true
	case OpMod:
		if b == 0 || (a == math.MinInt64 && b == -1) {
			return NoVN, false
		}
		return s.VNForInt64(a % b), true
	case OpUDiv:
		if b == 0 {
			return NoVN, false
		}
		return s.VNForInt64(int64(uint64(a) / uint64(b))), true
	case OpUMod:
		if b == 0 {
			return NoVN, false
		}
		return s.VNForInt64(int64(uint64(a) % uint64(b))), true

	case OpAddOvf:
		r := int64(uint64(a) + uint64(b))
		if (r > a) != (b > 0) {
			return NoVN, false
		}
		return s.VNForInt64(r), true
	case OpSubOvf:
		r := int64(uint64(a) - uint64(b))
		if (r < a) != (b > 0) {
			return NoVN, false
		}
		return s.VNForInt64(r), true
	case OpMulOvf:
		if a == 0 || b == 0 {
			return s.VNForInt64(0), true
		}
		if (a == math.MinInt64 && b == -1) || (b == math.MinInt64 && a == -1) {
			return NoVN, false
		}
		r := int64(uint64(a) * uint64(b))
		if r/b != a {
			return NoVN, false
		}
		return s.VNForInt64(r), true

	case OpAnd:
		return s.VNForInt64(a & b), true
	case OpOr:
		return s.VNForInt64(a | b), true
	case OpXor:
		return s.VNForInt64(a ^ b), true
	case OpLsh:
		return s.VNForInt64(int64(uint64(a) << (uint(b) & 63))), true
	case OpRsh:
		return s.VNForInt64(a >> (uint(b) & 63)), true
	case OpRsz:
		return s.VNForInt64(int64(uint64(a) >> (uint(b) & 63))), true

	case OpEq:
		return s.VNForBool(a == b), true
	case OpNe:
		return s.VNForBool(a != b), true
	case OpLt:
		return s.VNForBool(a < b), true
	case OpLe:
		return s.VNForBool(a <= b), true
	case OpGt:
		return s.VNForBool(a > b), true
	case OpGe:
		return s.VNForBool(a >= b), true
	}
	return NoVN, false
}

// Floating point never throws, so every float operator folds. Invalid
// operations on non-NaN operands must produce the target's canonical
// NaN, which differs between the x86 and ARM families; a NaN operand
// propagates with its payload, quieted.

func (s *Store) foldFloat64(op Op, a, b float64) (ValueNum, bool) {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv:
		if math.IsNaN(a) {
			return s.VNForFloat64Bits(float64Bits(a) | 0x0008000000000000), true
		}
		if math.IsNaN(b) {
			return s.VNForFloat64Bits(float64Bits(b) | 0x0008000000000000), true
		}
		var r float64
		switch op {
		case OpAdd:
			r = a + b
		case OpSub:
			r = a - b
		case OpMul:
			r = a * b
		case OpDiv:
			r = a / b
		}
		if math.IsNaN(r) {
			// inf-inf, 0*inf, 0/0, inf/inf: the result bits are the
			// target's, not the host FPU's.
			return s.VNForFloat64Bits(s.tgt.NaN64Bits()), true
		}
		return s.VNForFloat64(r), true

	case OpEq:
		return s.VNForBool(a == b), true
	case OpNe:
		return s.VNForBool(a != b), true
	case OpLt:
		return s.VNForBool(a < b), true
	case OpLe:
		return s.VNForBool(a <= b), true
	case OpGt:
		return s.VNForBool(a > b), true
	case OpGe:
		return s.VNForBool(a >= b), true
	}
	return NoVN, false
}

func (s *Store) foldFloat32(op Op, a, b float32) (ValueNum, bool) {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv:
		if math.IsNaN(float64(a)) {
			return s.VNForFloat32Bits(float32Bits(a) | 0x00400000), true
		}
		if math.IsNaN(float64(b)) {
			return s.VNForFloat32Bits(float32Bits(b) | 0x00400000), true
		}
		var r float32
		switch op {
		case OpAdd:
			r = a + b
		case OpSub:
			r = a - b
		case OpMul:
			r = a * b
		case OpDiv:
			r = a / b
		}
		if math.IsNaN(float64(r)) {
			return s.VNForFloat32Bits(s.tgt.NaN32Bits()), true
		}
		return s.VNForFloat32(r), true

	case OpEq:
		return s.VNForBool(a == b), true
	case OpNe:
		return s.VNForBool(a != b), true
	case OpLt:
		return s.VNForBool(a < b), true
	case OpLe:
		return s.VNForBool(a <= b), true
	case OpGt:
		return s.VNForBool(a > b), true
	case OpGe:
		return s.VNForBool(a >= b), true
	}
	return NoVN, false
}

// Cast descriptors. A cast application's second argument is an i32
// constant encoding the destination type and whether the source bits
// are read as unsigned.

// VNForCastInfo interns the descriptor constant for a cast to the given
// type, optionally treating the source as unsigned.
func (s *Store) VNForCastInfo(to Typ, srcUnsigned bool) ValueNum {
	bits := int32(to) << 1
	if srcUnsigned {
		bits |= 1
	}
	return s.VNForInt32(bits)
}

func decodeCastInfo(bits int32) (Typ, bool) {
	return Typ(bits >> 1), bits&1 != 0
}

// typRange returns the representable range of an integer type as a
// signed pair; for unsigned types the max is reported via uint64.
func typRange(t Typ) (min int64, umax uint64) {
	switch t {
	case TypInt8:
		return math.MinInt8, math.MaxInt8
	case TypInt16:
		return math.MinInt16, math.MaxInt16
	case TypInt32:
		return math.MinInt32, math.MaxInt32
	case TypInt64:
		return math.MinInt64, math.MaxInt64
	case TypUint8:
		return 0, math.MaxUint8
	case TypUint16:
		return 0, math.MaxUint16
	case TypUint32:
		return 0, math.MaxUint32
	case TypUint64:
		return 0, math.MaxUint64
	}
	return 0, 0
}

// srcBits reads an integer constant's bits at its declared storage
// width, optionally reinterpreted as unsigned, widened to 64 bits.
func (s *Store) srcBits(arg ValueNum, unsigned bool) (int64, uint64, bool) {
	switch storageTyp(s.TypeOf(arg)) {
	case TypInt32:
		v := s.Int32Val(arg)
		if unsigned {
			u := uint64(uint32(v))
			return int64(u), u, true
		}
		return int64(v), uint64(int64(v)), true
	case TypInt64:
		v := s.Int64Val(arg)
		if unsigned {
			return v, uint64(v), true
		}
		return v, uint64(v), true
	}
	return 0, 0, false
}

// truncToTyp wraps a 64-bit value to the destination integer type and
// interns it at that type's storage width, sign- or zero-extended per
// the destination's signedness.
func (s *Store) truncToTyp(to Typ, v int64) ValueNum {
	switch to {
	case TypInt8:
		return s.VNForInt32(int32(int8(v)))
	case TypInt16:
		return s.VNForInt32(int32(int16(v)))
	case TypInt32:
		return s.VNForInt32(int32(v))
	case TypInt64:
		return s.VNForInt64(v)
	case TypUint8:
		return s.VNForInt32(int32(uint8(v)))
	case TypUint16:
		return s.VNForInt32(int32(uint16(v)))
	case TypUint32:
		return s.VNForInt32(int32(uint32(v)))
	case TypUint64:
		return s.VNForInt64(v)
	}
	internalErrorf("truncToTyp: %v is not an integer type", to)
	return NoVN
}

// inTypRange reports whether a source value (signed view sv, unsigned
// view uv, with srcUnsigned selecting which is meaningful) fits the
// destination type without change of value.
func inTypRange(to Typ, sv int64, uv uint64, srcUnsigned bool) bool {
	min, umax := typRange(to)
	if srcUnsigned {
		if to.Unsigned() || to == TypInt64 {
			return uv <= umax
		}
		return uv <= uint64(umax) && int64(uv) >= min
	}
	if sv < 0 {
		return !to.Unsigned() && sv >= min
	}
	return uint64(sv) <= umax
}

func (s *Store) foldCast(typ Typ, src, info ValueNum, checked bool) (ValueNum, bool) {
	toTyp, srcUnsigned := decodeCastInfo(s.Int32Val(info))

	srcTyp := s.TypeOf(src)
	switch {
	case srcTyp.Floating() && toTyp.Floating():
		var v float64
		if storageTyp(srcTyp) == TypFloat32 {
			v = float64(s.Float32Val(src))
		} else {
			v = s.Float64Val(src)
		}
		if toTyp == TypFloat32 {
			return s.VNForFloat32(float32(v)), true
		}
		return s.VNForFloat64(v), true

	case srcTyp.Floating():
		// Float to integer. Out-of-range and NaN inputs behave
		// differently across targets, so only the in-range case folds;
		// for checked casts an out-of-range input would throw anyway.
		var v float64
		if storageTyp(srcTyp) == TypFloat32 {
			v = float64(s.Float32Val(src))
		} else {
			v = s.Float64Val(src)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NoVN, false
		}
		t := math.Trunc(v)
		min, umax := typRange(toTyp)
		if toTyp.Unsigned() || toTyp == TypUint64 {
			if t < 0 || t >= math.Ldexp(1, 64) || uint64(t) > umax {
				return NoVN, false
			}
			return s.truncToTyp(toTyp, int64(uint64(t))), true
		}
		if t < float64(min) || t > float64(umax) {
			return NoVN, false
		}
		return s.truncToTyp(toTyp, int64(t)), true

	case toTyp.Floating():
		sv, uv, ok := s.srcBits(src, srcUnsigned)
		if !ok {
			return NoVN, false
		}
		var v float64
		if srcUnsigned {
			v = float64(uv)
		} else {
			v = float64(sv)
		}
		if toTyp == TypFloat32 {
			return s.VNForFloat32(float32(v)), true
		}
		return s.VNForFloat64(v), true

	default:
		// Integer to integer.
		sv, uv, ok := s.srcBits(src, srcUnsigned)
		if !ok {
			return NoVN, false
		}
		if checked && !inTypRange(toTyp, sv, uv, srcUnsigned) {
			return NoVN, false // would have thrown
		}
		return s.truncToTyp(toTyp, sv), true
	}
}

// foldBitCast reinterprets a constant's bits as an equal-size type.
func (s *Store) foldBitCast(typ Typ, src ValueNum) (ValueNum, bool) {
	srcTyp := s.TypeOf(src)
	if srcTyp == typ {
		return src, true
	}
	switch storageTyp(typ) {
	case TypInt32:
		if storageTyp(srcTyp) == TypFloat32 {
			return s.VNForInt32(int32(float32Bits(s.Float32Val(src)))), true
		}
	case TypInt64:
		if storageTyp(srcTyp) == TypFloat64 {
			return s.VNForInt64(int64(float64Bits(s.Float64Val(src)))), true
		}
	case TypFloat32:
		if storageTyp(srcTyp) == TypInt32 {
			return s.VNForFloat32Bits(uint32(s.Int32Val(src))), true
		}
	case TypFloat64:
		if storageTyp(srcTyp) == TypInt64 {
			return s.VNForFloat64Bits(uint64(s.Int64Val(src))), true
		}
	}
	return NoVN, false
}
