package vn

import (
	"math"
	"testing"

	"github.com/Emeka-MSFT/runtime-sub000/internal/target"
)

func TestFoldIntegerArithmetic(t *testing.T) {
	s := newTestStore()

	if s.VNForFunc(TypInt32, OpAdd, s.VNForInt32(2), s.VNForInt32(3)) != s.VNForInt32(5) {
		t.Error("2+3 should fold to 5")
	}
	if s.VNForFunc(TypInt32, OpSub, s.VNForInt32(2), s.VNForInt32(3)) != s.VNForInt32(-1) {
		t.Error("2-3 should fold to -1")
	}
	if s.VNForFunc(TypInt32, OpMul, s.VNForInt32(6), s.VNForInt32(7)) != s.VNForInt32(42) {
		t.Error("6*7 should fold to 42")
	}
	if s.VNForFunc(TypInt64, OpAdd, s.VNForInt64(1<<40), s.VNForInt64(1)) != s.VNForInt64(1<<40+1) {
		t.Error("i64 add should fold")
	}
}

func TestFoldWrapsOnOverflow(t *testing.T) {
	s := newTestStore()

	got := s.VNForFunc(TypInt32, OpAdd, s.VNForInt32(math.MaxInt32), s.VNForInt32(1))
	if got != s.VNForInt32(math.MinInt32) {
		t.Error("unchecked i32 add should wrap to MinInt32")
	}
	got = s.VNForFunc(TypInt64, OpMul, s.VNForInt64(math.MaxInt64), s.VNForInt64(2))
	if got != s.VNForInt64(-2) {
		t.Error("unchecked i64 mul should wrap")
	}
}

func TestDivideByZeroNeverFolds(t *testing.T) {
	s := newTestStore()
	zero := s.VNForInt32(0)

	for _, op := range []Op{OpDiv, OpMod, OpUDiv, OpUMod} {
		vn := s.VNForFunc(TypInt32, op, s.VNForInt32(17), zero)
		if s.IsConstant(vn) {
			t.Errorf("%v by zero must not fold to a constant", op)
		}
		if vn != s.VNForFunc(TypInt32, op, s.VNForInt32(17), zero) {
			t.Errorf("%v by zero should still intern deterministically", op)
		}
	}
}

func TestMinIntDivByMinusOneNeverFolds(t *testing.T) {
	s := newTestStore()

	minInt := s.VNForInt32(math.MinInt32)
	negOne := s.VNForInt32(-1)
	if s.IsConstant(s.VNForFunc(TypInt32, OpDiv, minInt, negOne)) {
		t.Error("MinInt32 / -1 must not fold; the idiv would trap")
	}
	// The modulo result is mathematically defined (0) but the
	// instruction still traps, so it must not fold either.
	if s.IsConstant(s.VNForFunc(TypInt32, OpMod, minInt, negOne)) {
		t.Error("MinInt32 % -1 must not fold")
	}

	minLong := s.VNForInt64(math.MinInt64)
	negOneL := s.VNForInt64(-1)
	if s.IsConstant(s.VNForFunc(TypInt64, OpDiv, minLong, negOneL)) {
		t.Error("MinInt64 / -1 must not fold")
	}
}

func TestUnsignedDivideReinterprets(t *testing.T) {
	s := newTestStore()

	// -2 read as u32 is 0xFFFFFFFE; dividing by 2 gives 0x7FFFFFFF.
	got := s.VNForFunc(TypInt32, OpUDiv, s.VNForInt32(-2), s.VNForInt32(2))
	if got != s.VNForInt32(math.MaxInt32) {
		t.Errorf("udiv(-2, 2) = %s, want MaxInt32", s.Render(got))
	}
	got = s.VNForFunc(TypInt64, OpUMod, s.VNForInt64(-1), s.VNForInt64(10))
	if got != s.VNForInt64(5) {
		t.Errorf("umod(-1, 10) = %s, want 5 (0xFFFF...F %% 10)", s.Render(got))
	}
}

func TestShiftCountsMaskedToWidth(t *testing.T) {
	s := newTestStore()

	// A 33-bit shift of a 32-bit value masks to 1.
	got := s.VNForFunc(TypInt32, OpLsh, s.VNForInt32(1), s.VNForInt32(33))
	if got != s.VNForInt32(2) {
		t.Errorf("i32 1<<33 = %s, want 2 (count masked to 5 bits)", s.Render(got))
	}
	// A 64-bit value masks the count to 6 bits.
	got = s.VNForFunc(TypInt64, OpLsh, s.VNForInt64(1), s.VNForInt32(65))
	if got != s.VNForInt64(2) {
		t.Errorf("i64 1<<65 = %s, want 2 (count masked to 6 bits)", s.Render(got))
	}
	// Arithmetic vs logical right shift of a negative value.
	if s.VNForFunc(TypInt32, OpRsh, s.VNForInt32(-8), s.VNForInt32(1)) != s.VNForInt32(-4) {
		t.Error("arithmetic shift should keep the sign")
	}
	if s.VNForFunc(TypInt32, OpRsz, s.VNForInt32(-8), s.VNForInt32(1)) != s.VNForInt32(0x7FFFFFFC) {
		t.Error("logical shift should shift in zeros")
	}
}

func TestCheckedArithmeticGatesOnOverflow(t *testing.T) {
	s := newTestStore()

	if s.VNForFunc(TypInt32, OpAddOvf, s.VNForInt32(2), s.VNForInt32(3)) != s.VNForInt32(5) {
		t.Error("add.ovf without overflow should fold")
	}
	if s.IsConstant(s.VNForFunc(TypInt32, OpAddOvf, s.VNForInt32(math.MaxInt32), s.VNForInt32(1))) {
		t.Error("add.ovf overflowing must not fold")
	}
	if s.IsConstant(s.VNForFunc(TypInt32, OpSubOvf, s.VNForInt32(math.MinInt32), s.VNForInt32(1))) {
		t.Error("sub.ovf overflowing must not fold")
	}
	if s.IsConstant(s.VNForFunc(TypInt64, OpMulOvf, s.VNForInt64(math.MinInt64), s.VNForInt64(-1))) {
		t.Error("mul.ovf of MinInt64 by -1 must not fold")
	}
	if s.VNForFunc(TypInt64, OpMulOvf, s.VNForInt64(1<<31), s.VNForInt64(1<<31)) != s.VNForInt64(1<<62) {
		t.Error("mul.ovf within range should fold")
	}
}

func TestFloatFoldingAlwaysFolds(t *testing.T) {
	s := newTestStore()

	if s.VNForFunc(TypFloat64, OpAdd, s.VNForFloat64(1.5), s.VNForFloat64(2.25)) != s.VNForFloat64(3.75) {
		t.Error("f64 add should fold")
	}
	// Division by zero is not an exception in floating point.
	got := s.VNForFunc(TypFloat64, OpDiv, s.VNForFloat64(1), s.VNForFloat64(0))
	if got != s.VNForFloat64(math.Inf(1)) {
		t.Errorf("1.0/0.0 should fold to +inf, got %s", s.Render(got))
	}
}

func TestInvalidFloatOpsUseTargetNaN(t *testing.T) {
	x64 := NewStore(Config{Target: target.For(target.X64)})
	arm := NewStore(Config{Target: target.For(target.ARM64)})

	cases := []struct {
		name string
		op   Op
		a, b float64
	}{
		{"inf-inf", OpSub, math.Inf(1), math.Inf(1)},
		{"0*inf", OpMul, 0, math.Inf(1)},
		{"0/0", OpDiv, 0, 0},
		{"inf/inf", OpDiv, math.Inf(1), math.Inf(1)},
	}
	for _, c := range cases {
		got := x64.VNForFunc(TypFloat64, c.op, x64.VNForFloat64(c.a), x64.VNForFloat64(c.b))
		if got != x64.VNForFloat64Bits(0xFFF8000000000000) {
			t.Errorf("%s on x64: got %s, want negative QNaN", c.name, x64.Render(got))
		}
		got = arm.VNForFunc(TypFloat64, c.op, arm.VNForFloat64(c.a), arm.VNForFloat64(c.b))
		if got != arm.VNForFloat64Bits(0x7FF8000000000000) {
			t.Errorf("%s on arm64: got %s, want default NaN", c.name, arm.Render(got))
		}
	}
}

func TestFloat32InvalidOpsUseTargetNaN(t *testing.T) {
	arm := NewStore(Config{Target: target.For(target.ARM64)})
	zero := arm.VNForFloat32(0)
	got := arm.VNForFunc(TypFloat32, OpDiv, zero, zero)
	if got != arm.VNForFloat32Bits(0x7FC00000) {
		t.Errorf("f32 0/0 on arm64: got %s, want default NaN", arm.Render(got))
	}
}

func TestFloatComparisonsRespectNaN(t *testing.T) {
	s := newTestStore()
	nan := s.VNForFloat64(math.NaN())

	if s.VNForFunc(TypInt32, OpEq, nan, nan) != s.VNForBool(false) {
		t.Error("NaN == NaN should fold to false")
	}
	if s.VNForFunc(TypInt32, OpNe, nan, nan) != s.VNForBool(true) {
		t.Error("NaN != NaN should fold to true")
	}
	if s.VNForFunc(TypInt32, OpLe, nan, nan) != s.VNForBool(false) {
		t.Error("NaN <= NaN should fold to false")
	}
}

func TestIntegerCasts(t *testing.T) {
	s := newTestStore()

	// Unchecked narrowing wraps.
	got := s.VNForFunc(TypInt8, OpCast, s.VNForInt32(300), s.VNForCastInfo(TypInt8, false))
	if got != s.VNForInt32(44) {
		t.Errorf("cast 300 to i8 = %s, want 44", s.Render(got))
	}
	// Unsigned source widens by zero extension.
	got = s.VNForFunc(TypInt64, OpCast, s.VNForInt32(-1), s.VNForCastInfo(TypInt64, true))
	if got != s.VNForInt64(4294967295) {
		t.Errorf("cast u32(-1) to i64 = %s, want 4294967295", s.Render(got))
	}
	// Signed source widens by sign extension.
	got = s.VNForFunc(TypInt64, OpCast, s.VNForInt32(-1), s.VNForCastInfo(TypInt64, false))
	if got != s.VNForInt64(-1) {
		t.Errorf("cast i32(-1) to i64 = %s, want -1", s.Render(got))
	}
}

func TestCheckedCastGatesOnRange(t *testing.T) {
	s := newTestStore()

	if s.VNForFunc(TypInt8, OpCastOvf, s.VNForInt32(100), s.VNForCastInfo(TypInt8, false)) != s.VNForInt32(100) {
		t.Error("checked cast in range should fold")
	}
	if s.IsConstant(s.VNForFunc(TypInt8, OpCastOvf, s.VNForInt32(300), s.VNForCastInfo(TypInt8, false))) {
		t.Error("checked cast out of range must not fold")
	}
	if s.IsConstant(s.VNForFunc(TypUint32, OpCastOvf, s.VNForInt32(-1), s.VNForCastInfo(TypUint32, false))) {
		t.Error("checked cast of negative to unsigned must not fold")
	}
}

func TestFloatIntCasts(t *testing.T) {
	s := newTestStore()

	got := s.VNForFunc(TypInt32, OpCast, s.VNForFloat64(3.7), s.VNForCastInfo(TypInt32, false))
	if got != s.VNForInt32(3) {
		t.Errorf("cast 3.7 to i32 = %s, want 3 (truncation)", s.Render(got))
	}
	got = s.VNForFunc(TypInt32, OpCast, s.VNForFloat64(-3.7), s.VNForCastInfo(TypInt32, false))
	if got != s.VNForInt32(-3) {
		t.Errorf("cast -3.7 to i32 = %s, want -3", s.Render(got))
	}
	// Out-of-range float-to-int behaves differently per target and
	// must not fold.
	if s.IsConstant(s.VNForFunc(TypInt32, OpCast, s.VNForFloat64(1e10), s.VNForCastInfo(TypInt32, false))) {
		t.Error("out-of-range float-to-int cast must not fold")
	}
	if s.IsConstant(s.VNForFunc(TypInt32, OpCast, s.VNForFloat64(math.NaN()), s.VNForCastInfo(TypInt32, false))) {
		t.Error("NaN-to-int cast must not fold")
	}

	got = s.VNForFunc(TypFloat64, OpCast, s.VNForInt32(7), s.VNForCastInfo(TypFloat64, false))
	if got != s.VNForFloat64(7) {
		t.Errorf("cast 7 to f64 = %s, want 7.0", s.Render(got))
	}
}

func TestBitCastFoldsConstants(t *testing.T) {
	s := newTestStore()

	f := s.VNForFloat32(1.5)
	asInt := s.VNForBitCast(TypInt32, f)
	if asInt != s.VNForInt32(0x3FC00000) {
		t.Errorf("bitcast f32(1.5) to i32 = %s, want 0x3FC00000", s.Render(asInt))
	}
	back := s.VNForBitCast(TypFloat32, asInt)
	if back != f {
		t.Error("bitcast round trip should restore the original VN")
	}
}

func TestBitCastCollapsesRepeatedViews(t *testing.T) {
	s := newTestStore()

	x := s.VNForOpaque(TypFloat32, 0)
	viewInt := s.VNForBitCast(TypInt32, x)
	if _, ok := s.funcAppIs(viewInt, OpBitCast); !ok {
		t.Fatal("bitcast of an opaque value should stay a bitcast application")
	}
	// view<f32>(view<i32>(x)) == x when x is already f32.
	if s.VNForBitCast(TypFloat32, viewInt) != x {
		t.Error("repeated bitcast views should collapse to the original value")
	}
}
