// Package vn implements the value-numbering store used by the optimizer:
// a content-addressed, append-only arena that assigns a canonical small
// integer identity to every distinct constant, computed value, memory
// state, and exception condition seen while compiling one procedure.
//
// One Store serves exactly one in-progress compilation. Value numbers
// issued by different stores are unrelated and must never be mixed.
package vn

// ValueNum is the opaque identity of one interned entity. Two ValueNums
// are equal iff they denote the same constant, function application,
// handle, or map state within one Store.
type ValueNum int32

const (
	// NoVN marks the absence of a value number.
	NoVN ValueNum = 0

	// RecursiveVN is the reserved cycle marker used internally by the
	// map-select evaluator. It never escapes the package as a result.
	RecursiveVN ValueNum = 1

	// firstAllocatedVN is the first value number backed by chunk
	// storage. The band below it is reserved for sentinels.
	firstAllocatedVN ValueNum = 8
)

// Valid reports whether vn denotes an allocated entity (as opposed to
// NoVN or a reserved sentinel).
func (vn ValueNum) Valid() bool {
	return vn >= firstAllocatedVN
}

// ValueNumPair carries the two views every IR node is annotated with:
// the liberal value number permits aggressive equalities exploited for
// optimization, the conservative one is a safe upper bound used where
// unsound merging would be incorrect.
type ValueNumPair struct {
	Liberal      ValueNum
	Conservative ValueNum
}

// PairBoth builds a pair whose two views agree, as they do for constants
// and anything else unaffected by loop-carried merging.
func PairBoth(vn ValueNum) ValueNumPair {
	return ValueNumPair{Liberal: vn, Conservative: vn}
}

// BothEqual reports whether the two views agree.
func (p ValueNumPair) BothEqual() bool {
	return p.Liberal == p.Conservative
}

// Get returns the requested view.
func (p ValueNumPair) Get(conservative bool) ValueNum {
	if conservative {
		return p.Conservative
	}
	return p.Liberal
}
