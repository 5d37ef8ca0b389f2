package vn

// Exception sets represent "the set of exceptions this expression might
// raise" as interned, content-addressed lists: either the empty set or
// OpExcSetCons(head, tail), invariant-sorted by ascending head value
// number with no duplicates. Because sets are built only through the
// constructors here, equal sets always share one value number, and the
// merge-style walks below run in O(|A|+|B|).

// VNExcSetSingleton returns the exception set containing exactly one
// exception descriptor.
func (s *Store) VNExcSetSingleton(exc ValueNum) ValueNum {
	return s.VNForFunc(TypExcSet, OpExcSetCons, exc, s.emptyExcSetVN)
}

// excSetParts splits a set into head and tail, reporting false for the
// empty set. Anything other than a well-formed set is a store bug.
func (s *Store) excSetParts(set ValueNum) (head, tail ValueNum, nonEmpty bool) {
	if set == s.emptyExcSetVN {
		return NoVN, NoVN, false
	}
	args, ok := s.funcAppIs(set, OpExcSetCons)
	if !ok {
		internalErrorf("malformed exception set %d", set)
	}
	return args[0], args[1], true
}

// VNExcSetUnion returns the union of two exception sets, preserving the
// sorted, duplicate-free list invariant by merging.
func (s *Store) VNExcSetUnion(a, b ValueNum) ValueNum {
	aHead, aTail, aNonEmpty := s.excSetParts(a)
	if !aNonEmpty {
		return b
	}
	bHead, bTail, bNonEmpty := s.excSetParts(b)
	if !bNonEmpty {
		return a
	}
	switch {
	case aHead == bHead:
		return s.VNForFunc(TypExcSet, OpExcSetCons, aHead, s.VNExcSetUnion(aTail, bTail))
	case aHead < bHead:
		return s.VNForFunc(TypExcSet, OpExcSetCons, aHead, s.VNExcSetUnion(aTail, b))
	default:
		return s.VNForFunc(TypExcSet, OpExcSetCons, bHead, s.VNExcSetUnion(a, bTail))
	}
}

// VNExcSetIntersection returns the intersection of two exception sets.
func (s *Store) VNExcSetIntersection(a, b ValueNum) ValueNum {
	aHead, aTail, aNonEmpty := s.excSetParts(a)
	if !aNonEmpty {
		return s.emptyExcSetVN
	}
	bHead, bTail, bNonEmpty := s.excSetParts(b)
	if !bNonEmpty {
		return s.emptyExcSetVN
	}
	switch {
	case aHead == bHead:
		return s.VNForFunc(TypExcSet, OpExcSetCons, aHead, s.VNExcSetIntersection(aTail, bTail))
	case aHead < bHead:
		return s.VNExcSetIntersection(aTail, b)
	default:
		return s.VNExcSetIntersection(a, bTail)
	}
}

// ExcSetIsSubset reports whether every member of candidate is in full.
func (s *Store) ExcSetIsSubset(full, candidate ValueNum) bool {
	cHead, cTail, cNonEmpty := s.excSetParts(candidate)
	if !cNonEmpty {
		return true
	}
	fHead, fTail, fNonEmpty := s.excSetParts(full)
	for fNonEmpty {
		if fHead == cHead {
			return s.ExcSetIsSubset(fTail, cTail)
		}
		if fHead > cHead {
			// The sorted order means cHead can no longer appear.
			return false
		}
		fHead, fTail, fNonEmpty = s.excSetParts(fTail)
	}
	return false
}

// PackExc combines a normal value with the exceptions its computation
// might raise. Packing with the empty set returns the bare value, which
// keeps the common no-throw case free of wrappers.
func (s *Store) PackExc(norm, excSet ValueNum) ValueNum {
	if excSet == s.emptyExcSetVN {
		return norm
	}
	return s.VNForFunc(s.TypeOf(norm), OpValWithExc, norm, excSet)
}

// UnpackExc splits a value into its normal part and exception set. A
// bare value unpacks as (value, empty set).
func (s *Store) UnpackExc(vn ValueNum) (norm, excSet ValueNum) {
	if args, ok := s.funcAppIs(vn, OpValWithExc); ok {
		return args[0], args[1]
	}
	return vn, s.emptyExcSetVN
}

// Descriptor helpers for the exception conditions the driver models.

// VNForDivByZeroExc returns the divide-by-zero exception descriptor.
func (s *Store) VNForDivByZeroExc() ValueNum {
	return s.VNForFunc(TypRef, OpDivByZeroExc)
}

// VNForOverflowExc returns the checked-arithmetic overflow descriptor.
func (s *Store) VNForOverflowExc() ValueNum {
	return s.VNForFunc(TypRef, OpOverflowExc)
}

// VNForNullPtrExc returns the null-dereference descriptor for an
// address value.
func (s *Store) VNForNullPtrExc(addr ValueNum) ValueNum {
	return s.VNForFunc(TypRef, OpNullPtrExc, addr)
}

// VNForBoundsChkExc returns the bounds-check descriptor for an (index,
// length) pair.
func (s *Store) VNForBoundsChkExc(index, length ValueNum) ValueNum {
	return s.VNForFunc(TypRef, OpBoundsChkExc, index, length)
}
