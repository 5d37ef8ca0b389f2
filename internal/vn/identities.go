package vn

// Algebraic identities run before generic folding and before a slot is
// allocated. They are restricted to cases that cannot alter observable
// behavior: integer-only for the arithmetic shortcuts (floating-point
// signed zero and NaN break them), and never for operators that can
// throw on the eliminated operand.

func (s *Store) foldIdentities(typ Typ, op Op, args []ValueNum) (ValueNum, bool) {
	switch len(args) {
	case 1:
		return s.unaryIdentities(typ, op, args[0])
	case 2:
		return s.binaryIdentities(typ, op, args[0], args[1])
	}
	return NoVN, false
}

func (s *Store) unaryIdentities(typ Typ, op Op, arg ValueNum) (ValueNum, bool) {
	if op != OpBitCast {
		return NoVN, false
	}
	// A view of a view collapses: view<A>(view<B>(x)) == view<A>(x).
	if inner, ok := s.funcAppIs(arg, OpBitCast); ok {
		return s.VNForFunc(typ, OpBitCast, inner[0]), true
	}
	// A view at the value's own type is the value.
	if s.TypeOf(arg) == typ {
		return arg, true
	}
	return NoVN, false
}

func (s *Store) binaryIdentities(typ Typ, op Op, a0, a1 ValueNum) (ValueNum, bool) {
	if op.Comparison() {
		return s.comparisonIdentities(op, a0, a1)
	}

	// The remaining shortcuts are integer-only.
	if !typ.Integral() {
		return NoVN, false
	}

	switch op {
	case OpAdd:
		// Commutative canonicalization already ran; a constant zero
		// may still sit on either side.
		if s.isIntZero(a0) {
			return a1, true
		}
		if s.isIntZero(a1) {
			return a0, true
		}

	case OpSub:
		if s.isIntZero(a1) {
			return a0, true
		}
		if a0 == a1 {
			return s.zeroOf(typ), true
		}

	case OpMul:
		if s.isIntZero(a0) || s.isIntZero(a1) {
			return s.zeroOf(typ), true
		}
		if s.isIntOne(a0) {
			return a1, true
		}
		if s.isIntOne(a1) {
			return a0, true
		}

	case OpDiv, OpUDiv:
		if s.isIntOne(a1) {
			return a0, true
		}

	case OpAnd:
		if s.isIntZero(a0) || s.isIntZero(a1) {
			return s.zeroOf(typ), true
		}
		if a0 == a1 {
			return a0, true
		}

	case OpOr:
		if s.isIntZero(a0) {
			return a1, true
		}
		if s.isIntZero(a1) {
			return a0, true
		}
		if a0 == a1 {
			return a0, true
		}

	case OpXor:
		if s.isIntZero(a0) {
			return a1, true
		}
		if s.isIntZero(a1) {
			return a0, true
		}
		if a0 == a1 {
			return s.zeroOf(typ), true
		}

	case OpLsh, OpRsh, OpRsz:
		if s.isIntZero(a1) {
			return a0, true
		}
		if s.isIntZero(a0) {
			return a0, true
		}
	}
	return NoVN, false
}

func (s *Store) comparisonIdentities(op Op, a0, a1 ValueNum) (ValueNum, bool) {
	// Reflexive comparisons fold for integral operands only; a floating
	// operand may be NaN, which breaks reflexivity.
	if a0 == a1 && !s.TypeOf(a0).Floating() {
		switch op {
		case OpEq, OpLe, OpGe:
			return s.VNForBool(true), true
		case OpNe, OpLt, OpGt:
			return s.VNForBool(false), true
		}
	}

	// "(x relop y) == 1" is the relop itself; "== 0" is its reversal,
	// and symmetrically for !=. The constant may sit on either side.
	if op == OpEq || op == OpNe {
		if vn, ok := s.relopAgainstBit(op, a0, a1); ok {
			return vn, true
		}
		if vn, ok := s.relopAgainstBit(op, a1, a0); ok {
			return vn, true
		}
	}
	return NoVN, false
}

func (s *Store) relopAgainstBit(op Op, relop, bit ValueNum) (ValueNum, bool) {
	inner, args, ok := s.FuncApp(relop)
	if !ok || !inner.Comparison() {
		return NoVN, false
	}
	c, ok := s.IsIntegralConstant(bit)
	if !ok || (c != 0 && c != 1) {
		return NoVN, false
	}
	same := (c == 1) == (op == OpEq)
	if same {
		return relop, true
	}
	return s.VNForFunc(TypInt32, reverseRelop(inner), args[0], args[1]), true
}

func (s *Store) isIntZero(vn ValueNum) bool {
	c, ok := s.IsIntegralConstant(vn)
	return ok && c == 0
}

func (s *Store) isIntOne(vn ValueNum) bool {
	c, ok := s.IsIntegralConstant(vn)
	return ok && c == 1
}

// zeroOf returns the zero constant at the storage width of an integer
// type.
func (s *Store) zeroOf(typ Typ) ValueNum {
	if storageTyp(typ) == TypInt64 {
		return s.VNForInt64(0)
	}
	return s.VNForInt32(0)
}
