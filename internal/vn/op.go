package vn

import "fmt"

// Op tags one function-application operator. The store never interprets
// an Op beyond the metadata recorded in its opInfo entry; folding and
// identity logic dispatch on it explicitly.
type Op uint8

const (
	OpNone Op = iota

	// Arithmetic. The unchecked forms wrap on overflow; the Ovf forms
	// model the trapping instructions and fold only when the check
	// provably passes.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpUDiv
	OpUMod
	OpAddOvf
	OpSubOvf
	OpMulOvf
	OpNeg

	// Bitwise and shifts. Shift counts are masked to the operand
	// width's count field (5 bits for 32-bit, 6 for 64-bit).
	OpAnd
	OpOr
	OpXor
	OpBitNot
	OpLsh
	OpRsh // arithmetic right shift
	OpRsz // logical right shift

	// Comparisons produce an i32 0/1.
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	// Casts. The second argument is a cast-descriptor constant built
	// by castInfoVN. OpCastOvf additionally range-checks.
	OpCast
	OpCastOvf
	// OpBitCast reinterprets the bits of an equal-size value as a
	// different type. Repeated application collapses.
	OpBitCast

	// Sentinel values interned eagerly by NewStore.
	OpNull
	OpVoid
	OpZeroMap
	OpEmptyExcSet

	// Opaque introduces a value distinct from every other; its single
	// argument is a store-unique serial constant.
	OpOpaque

	// Phi merges. A structural phi's argument is an OpPhiList cons
	// chain of the incoming definitions. A phi def is instead named by
	// (variable, ssa number) constants, with its incoming definitions
	// registered separately so a loop back edge can refer to the phi
	// before its inputs exist.
	OpPhi
	OpPhiList
	OpPhiDef

	// Precise maps: OpMapStore(map, index, value, loop) and
	// OpMapSelect(map, index). An interned OpMapSelect application is
	// itself the opaque result of an unresolvable select.
	OpMapStore
	OpMapSelect

	// Physical maps keyed by packed (offset, size) selectors:
	// OpMapPhysicalStore(map, selector, value),
	// OpMapPhysicalSelect(map, selector).
	OpMapPhysicalStore
	OpMapPhysicalSelect

	// Exception sets: sorted cons lists of exception descriptors, and
	// the (value, exception-set) composite.
	OpExcSetCons
	OpValWithExc

	// Exception descriptors.
	OpDivByZeroExc
	OpOverflowExc
	OpNullPtrExc   // arg: address
	OpBoundsChkExc // args: index, length

	opCount
)

// opInfo is the immutable metadata for one operator. The table is built
// once at package initialization and shared read-only by every store.
type opInfo struct {
	name        string
	arity       int8
	commutative bool
	// structural operators represent store-internal shapes (maps, phis,
	// exception lists, sentinels); they are never offered to the
	// identity or folding engines.
	structural bool
	comparison bool
}

var opTable = [opCount]opInfo{
	OpNone: {name: "none", arity: 0, structural: true},

	OpAdd:    {name: "add", arity: 2, commutative: true},
	OpSub:    {name: "sub", arity: 2},
	OpMul:    {name: "mul", arity: 2, commutative: true},
	OpDiv:    {name: "div", arity: 2},
	OpMod:    {name: "mod", arity: 2},
	OpUDiv:   {name: "udiv", arity: 2},
	OpUMod:   {name: "umod", arity: 2},
	OpAddOvf: {name: "add.ovf", arity: 2, commutative: true},
	OpSubOvf: {name: "sub.ovf", arity: 2},
	OpMulOvf: {name: "mul.ovf", arity: 2, commutative: true},
	OpNeg:    {name: "neg", arity: 1},

	OpAnd:    {name: "and", arity: 2, commutative: true},
	OpOr:     {name: "or", arity: 2, commutative: true},
	OpXor:    {name: "xor", arity: 2, commutative: true},
	OpBitNot: {name: "not", arity: 1},
	OpLsh:    {name: "lsh", arity: 2},
	OpRsh:    {name: "rsh", arity: 2},
	OpRsz:    {name: "rsz", arity: 2},

	OpEq: {name: "eq", arity: 2, commutative: true, comparison: true},
	OpNe: {name: "ne", arity: 2, commutative: true, comparison: true},
	OpLt: {name: "lt", arity: 2, comparison: true},
	OpLe: {name: "le", arity: 2, comparison: true},
	OpGt: {name: "gt", arity: 2, comparison: true},
	OpGe: {name: "ge", arity: 2, comparison: true},

	OpCast:    {name: "cast", arity: 2},
	OpCastOvf: {name: "cast.ovf", arity: 2},
	OpBitCast: {name: "bitcast", arity: 1},

	OpNull:        {name: "null", arity: 0, structural: true},
	OpVoid:        {name: "void", arity: 0, structural: true},
	OpZeroMap:     {name: "zeromap", arity: 0, structural: true},
	OpEmptyExcSet: {name: "empty-excset", arity: 0, structural: true},

	OpOpaque: {name: "opaque", arity: 1, structural: true},

	OpPhi:     {name: "phi", arity: 1, structural: true},
	OpPhiList: {name: "philist", arity: 2, structural: true},
	OpPhiDef:  {name: "phidef", arity: 2, structural: true},

	OpMapStore:  {name: "map-store", arity: 4, structural: true},
	OpMapSelect: {name: "map-select", arity: 2, structural: true},

	OpMapPhysicalStore:  {name: "phys-store", arity: 3, structural: true},
	OpMapPhysicalSelect: {name: "phys-select", arity: 2, structural: true},

	OpExcSetCons: {name: "excset-cons", arity: 2, structural: true},
	OpValWithExc: {name: "val-with-exc", arity: 2, structural: true},

	OpDivByZeroExc: {name: "exc.div0", arity: 0, structural: true},
	OpOverflowExc:  {name: "exc.overflow", arity: 0, structural: true},
	OpNullPtrExc:   {name: "exc.nullptr", arity: 1, structural: true},
	OpBoundsChkExc: {name: "exc.bounds", arity: 2, structural: true},
}

func init() {
	// Every tag must have a table entry; a miss here is a build bug.
	for op := Op(1); op < opCount; op++ {
		if opTable[op].name == "" {
			panic(fmt.Sprintf("vn: operator %d has no opTable entry", op))
		}
	}
}

func (o Op) String() string {
	if o < opCount {
		return opTable[o].name
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Arity returns the number of arguments o takes.
func (o Op) Arity() int {
	return int(opTable[o].arity)
}

// Commutative reports whether the store canonicalizes o's argument
// order before interning.
func (o Op) Commutative() bool {
	return opTable[o].commutative
}

// Comparison reports whether o is one of the relational operators.
func (o Op) Comparison() bool {
	return opTable[o].comparison
}

func (o Op) structural() bool {
	return opTable[o].structural
}

// reverseRelop returns the logical negation of a relational operator,
// used when simplifying "relop == 0" to a single comparison.
func reverseRelop(o Op) Op {
	switch o {
	case OpEq:
		return OpNe
	case OpNe:
		return OpEq
	case OpLt:
		return OpGe
	case OpLe:
		return OpGt
	case OpGt:
		return OpLe
	case OpGe:
		return OpLt
	}
	return OpNone
}
