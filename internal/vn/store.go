package vn

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Emeka-MSFT/runtime-sub000/internal/target"
)

// DefaultSelectBudget bounds the number of recursive steps one
// top-level map select may take before degrading to an opaque result.
const DefaultSelectBudget = 100

// Small integer constants in [smallIntMin, smallIntMax] are served from
// a direct-mapped cache, bypassing the hash tables.
const (
	smallIntMin = -1
	smallIntMax = 10
)

// Config carries the per-compilation parameters of a store.
type Config struct {
	// Target selects the architecture whose arithmetic the folding
	// engine reproduces.
	Target target.Target

	// SelectBudget overrides DefaultSelectBudget. Non-positive values
	// reset to the default. Note that map-select results reached by
	// exhausting the budget are memoized, so resolution is
	// budget-dependent; full precision is a non-goal.
	SelectBudget int

	// Logger receives Debug-level traces of interning and map-select
	// decisions. Nil means no logging.
	Logger *zap.Logger
}

// Store is the value-numbering store for one procedure compilation.
// It is single-threaded and append-only: interned entities never change
// meaning, and nothing is ever freed before the whole store is dropped.
type Store struct {
	tgt    target.Target
	budget int
	log    *zap.Logger

	chunks     []*chunk
	openChunks map[chunkKey]int

	int32Map   map[int32]ValueNum
	int64Map   map[int64]ValueNum
	float32Map map[uint32]ValueNum // keyed by bits so NaN payloads and -0 stay distinct
	float64Map map[uint64]ValueNum
	handleMap  map[Handle]ValueNum
	funcMap    map[funcKey]ValueNum

	smallInt32 [smallIntMax - smallIntMin + 1]ValueNum
	smallInt64 [smallIntMax - smallIntMin + 1]ValueNum

	// Map-select machinery (memmap.go).
	selectMemo map[selKey]ValueNum
	inFlight   []selKey
	phiInputs  map[ValueNum][]ValueNum

	opaqueSeq int64

	nullVN        ValueNum
	voidVN        ValueNum
	zeroMapVN     ValueNum
	emptyExcSetVN ValueNum
}

// funcKey identifies a function application for interning. Args are the
// post-canonicalization argument order.
type funcKey struct {
	op   Op
	typ  Typ
	args [4]ValueNum
}

// NewStore creates the store for one procedure compilation.
func NewStore(cfg Config) *Store {
	budget := cfg.SelectBudget
	if budget <= 0 {
		budget = DefaultSelectBudget
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		tgt:        cfg.Target,
		budget:     budget,
		log:        log,
		openChunks: make(map[chunkKey]int),
		int32Map:   make(map[int32]ValueNum),
		int64Map:   make(map[int64]ValueNum),
		float32Map: make(map[uint32]ValueNum),
		float64Map: make(map[uint64]ValueNum),
		handleMap:  make(map[Handle]ValueNum),
		funcMap:    make(map[funcKey]ValueNum),
		selectMemo: make(map[selKey]ValueNum),
		phiInputs:  make(map[ValueNum][]ValueNum),
	}
	for i := range s.smallInt32 {
		s.smallInt32[i] = NoVN
		s.smallInt64[i] = NoVN
	}
	s.nullVN = s.internFunc(TypRef, OpNull, nil)
	s.voidVN = s.internFunc(TypVoid, OpVoid, nil)
	s.zeroMapVN = s.internFunc(TypMap, OpZeroMap, nil)
	s.emptyExcSetVN = s.internFunc(TypExcSet, OpEmptyExcSet, nil)
	return s
}

// Target returns the architecture this store folds for.
func (s *Store) Target() target.Target { return s.tgt }

// VNForNull returns the canonical null-reference value number.
func (s *Store) VNForNull() ValueNum { return s.nullVN }

// VNForVoid returns the canonical void value number.
func (s *Store) VNForVoid() ValueNum { return s.voidVN }

// VNForZeroMap returns the map in which every location holds its
// zero-initialized value.
func (s *Store) VNForZeroMap() ValueNum { return s.zeroMapVN }

// VNForEmptyExcSet returns the empty exception set.
func (s *Store) VNForEmptyExcSet() ValueNum { return s.emptyExcSetVN }

// VNForInt32 returns the unique value number for a 32-bit integer
// constant. Unsigned 32-bit constants are interned via their bit
// pattern.
func (s *Store) VNForInt32(v int32) ValueNum {
	if v >= smallIntMin && v <= smallIntMax {
		if vn := s.smallInt32[v-smallIntMin]; vn != NoVN {
			return vn
		}
		vn := s.allocInt32(TypInt32, v)
		s.smallInt32[v-smallIntMin] = vn
		s.int32Map[v] = vn
		return vn
	}
	if vn, ok := s.int32Map[v]; ok {
		return vn
	}
	vn := s.allocInt32(TypInt32, v)
	s.int32Map[v] = vn
	return vn
}

// VNForInt64 returns the unique value number for a 64-bit integer
// constant.
func (s *Store) VNForInt64(v int64) ValueNum {
	if v >= smallIntMin && v <= smallIntMax {
		if vn := s.smallInt64[v-smallIntMin]; vn != NoVN {
			return vn
		}
		vn := s.allocInt64(TypInt64, v)
		s.smallInt64[v-smallIntMin] = vn
		s.int64Map[v] = vn
		return vn
	}
	if vn, ok := s.int64Map[v]; ok {
		return vn
	}
	vn := s.allocInt64(TypInt64, v)
	s.int64Map[v] = vn
	return vn
}

// VNForFloat32 returns the unique value number for a 32-bit float
// constant. Distinct bit patterns (NaN payloads, signed zero) intern
// separately.
func (s *Store) VNForFloat32(v float32) ValueNum {
	bits := float32Bits(v)
	if vn, ok := s.float32Map[bits]; ok {
		return vn
	}
	vn := s.allocFloat32(v)
	s.float32Map[bits] = vn
	return vn
}

// VNForFloat64 returns the unique value number for a 64-bit float
// constant.
func (s *Store) VNForFloat64(v float64) ValueNum {
	bits := float64Bits(v)
	if vn, ok := s.float64Map[bits]; ok {
		return vn
	}
	vn := s.allocFloat64(v)
	s.float64Map[bits] = vn
	return vn
}

// VNForFloat32Bits interns the exact bit pattern, used when folding
// must emit a target-specific NaN rather than a host-computed value.
func (s *Store) VNForFloat32Bits(bits uint32) ValueNum {
	if vn, ok := s.float32Map[bits]; ok {
		return vn
	}
	vn := s.allocFloat32(float32FromBits(bits))
	s.float32Map[bits] = vn
	return vn
}

// VNForFloat64Bits interns the exact 64-bit pattern.
func (s *Store) VNForFloat64Bits(bits uint64) ValueNum {
	if vn, ok := s.float64Map[bits]; ok {
		return vn
	}
	vn := s.allocFloat64(float64FromBits(bits))
	s.float64Map[bits] = vn
	return vn
}

// VNForHandle returns the unique value number for a tagged handle.
// Handles with equal payloads but different kinds never collapse.
func (s *Store) VNForHandle(payload uint64, kind HandleKind) ValueNum {
	h := Handle{Payload: payload, Kind: kind}
	if vn, ok := s.handleMap[h]; ok {
		return vn
	}
	vn := s.allocHandle(TypByRef, h)
	s.handleMap[h] = vn
	return vn
}

// VNForBool interns a boolean as an i32 0/1 constant, the shape the
// comparison operators produce.
func (s *Store) VNForBool(b bool) ValueNum {
	if b {
		return s.VNForInt32(1)
	}
	return s.VNForInt32(0)
}

// VNForOpaque returns a value number distinct from every other one in
// the store, used for expressions whose value cannot be analyzed. The
// block number keeps syntactically distinct unresolvable reads in
// different blocks from aliasing.
func (s *Store) VNForOpaque(typ Typ, block int) ValueNum {
	s.opaqueSeq++
	serial := s.VNForInt64(int64(block)<<32 | s.opaqueSeq)
	return s.internFunc(typ, OpOpaque, []ValueNum{serial})
}

// VNForFunc returns the unique value number for applying op to the
// given already-numbered arguments, producing a value of type typ.
// Commutative operators canonicalize argument order; applications whose
// arguments are all constants are folded when folding is safe; a small
// set of algebraic identities short-circuits allocation entirely.
func (s *Store) VNForFunc(typ Typ, op Op, args ...ValueNum) ValueNum {
	if len(args) != op.Arity() {
		internalErrorf("VNForFunc(%v): %d args, arity %d", op, len(args), op.Arity())
	}
	for _, a := range args {
		if !a.Valid() {
			internalErrorf("VNForFunc(%v): invalid argument %d", op, a)
		}
	}

	if op.Commutative() && len(args) == 2 && args[1] < args[0] {
		args[0], args[1] = args[1], args[0]
	}

	if !op.structural() {
		if vn, ok := s.foldIdentities(typ, op, args); ok {
			return vn
		}
		if vn, ok := s.foldConstants(typ, op, args); ok {
			return vn
		}
	}

	return s.internFunc(typ, op, args)
}

// internFunc is the raw hash-consing path: no folding, no identities.
func (s *Store) internFunc(typ Typ, op Op, args []ValueNum) ValueNum {
	key := funcKey{op: op, typ: typ}
	copy(key.args[:], args)
	if vn, ok := s.funcMap[key]; ok {
		return vn
	}
	app := funcApp{op: op, arity: uint8(len(args))}
	copy(app.args[:], args)
	vn := s.allocFunc(typ, app)
	s.funcMap[key] = vn
	if ce := s.log.Check(zap.DebugLevel, "intern func"); ce != nil {
		ce.Write(
			zap.String("op", op.String()),
			zap.String("typ", typ.String()),
			zap.Int32("vn", int32(vn)),
		)
	}
	return vn
}

// TypeOf returns the declared type of an interned value number.
func (s *Store) TypeOf(vn ValueNum) Typ {
	c, _ := s.chunkFor(vn)
	return c.typ
}

// IsConstant reports whether vn denotes an interned constant (numeric
// or handle).
func (s *Store) IsConstant(vn ValueNum) bool {
	if !vn.Valid() {
		return false
	}
	c, _ := s.chunkFor(vn)
	return c.kind == chunkConst || c.kind == chunkHandle
}

// IsIntegralConstant reports whether vn is an integer constant and, if
// so, returns its value sign-extended to 64 bits.
func (s *Store) IsIntegralConstant(vn ValueNum) (int64, bool) {
	if !vn.Valid() {
		return 0, false
	}
	c, off := s.chunkFor(vn)
	if c.kind != chunkConst {
		return 0, false
	}
	switch slots := c.payload.(type) {
	case *int32Slots:
		return int64(slots.vals[off]), true
	case *int64Slots:
		return slots.vals[off], true
	}
	return 0, false
}

// Int32Val returns the value of a 32-bit integer constant.
func (s *Store) Int32Val(vn ValueNum) int32 {
	c, off := s.chunkFor(vn)
	slots, ok := c.payload.(*int32Slots)
	if !ok || c.kind != chunkConst {
		internalErrorf("Int32Val(%d): not an i32 constant", vn)
	}
	return slots.vals[off]
}

// Int64Val returns the value of a 64-bit integer constant.
func (s *Store) Int64Val(vn ValueNum) int64 {
	c, off := s.chunkFor(vn)
	slots, ok := c.payload.(*int64Slots)
	if !ok || c.kind != chunkConst {
		internalErrorf("Int64Val(%d): not an i64 constant", vn)
	}
	return slots.vals[off]
}

// Float32Val returns the value of a 32-bit float constant.
func (s *Store) Float32Val(vn ValueNum) float32 {
	c, off := s.chunkFor(vn)
	slots, ok := c.payload.(*float32Slots)
	if !ok {
		internalErrorf("Float32Val(%d): not an f32 constant", vn)
	}
	return slots.vals[off]
}

// Float64Val returns the value of a 64-bit float constant.
func (s *Store) Float64Val(vn ValueNum) float64 {
	c, off := s.chunkFor(vn)
	slots, ok := c.payload.(*float64Slots)
	if !ok {
		internalErrorf("Float64Val(%d): not an f64 constant", vn)
	}
	return slots.vals[off]
}

// HandleVal returns the payload and kind of a handle constant.
func (s *Store) HandleVal(vn ValueNum) Handle {
	c, off := s.chunkFor(vn)
	slots, ok := c.payload.(*handleSlots)
	if !ok {
		internalErrorf("HandleVal(%d): not a handle", vn)
	}
	return slots.vals[off]
}

// FuncApp decomposes a function-application value number into its
// operator and arguments. The second result is false for constants and
// handles.
func (s *Store) FuncApp(vn ValueNum) (Op, []ValueNum, bool) {
	if !vn.Valid() {
		return OpNone, nil, false
	}
	c, off := s.chunkFor(vn)
	slots, ok := c.payload.(*funcSlots)
	if !ok {
		return OpNone, nil, false
	}
	app := slots.vals[off]
	return app.op, app.args[:app.arity], true
}

// funcAppIs reports whether vn is an application of op and returns its
// arguments if so.
func (s *Store) funcAppIs(vn ValueNum, op Op) ([]ValueNum, bool) {
	got, args, ok := s.FuncApp(vn)
	if !ok || got != op {
		return nil, false
	}
	return args, true
}

// PairForFunc applies VNForFunc independently to the liberal and
// conservative views of the argument pairs.
func (s *Store) PairForFunc(typ Typ, op Op, args ...ValueNumPair) ValueNumPair {
	lib := make([]ValueNum, len(args))
	con := make([]ValueNum, len(args))
	for i, a := range args {
		lib[i] = a.Liberal
		con[i] = a.Conservative
	}
	return ValueNumPair{
		Liberal:      s.VNForFunc(typ, op, lib...),
		Conservative: s.VNForFunc(typ, op, con...),
	}
}

// internalErrorf reports a compiler-internal invariant violation. The
// store has no recoverable-error surface; an outer layer turns the
// panic into "abort compilation of this procedure".
func internalErrorf(format string, args ...any) {
	panic(fmt.Sprintf("vn: internal error: "+format, args...))
}
