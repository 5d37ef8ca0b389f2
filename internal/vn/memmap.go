package vn

import "go.uber.org/zap"

// Precise maps model a functional index -> value store. Mutation is
// functional: VNForMapStore returns a new map value number and leaves
// its input untouched. VNForMapSelect resolves a read by walking the
// map's producing history, through stores with provably distinct
// constant indices and through loop phi-merges, under a shared step
// budget that guarantees termination on cyclic inputs.

// selKey identifies one (map, index) resolution, both for memoization
// and for the in-flight cycle check.
type selKey struct {
	m     ValueNum
	index ValueNum
}

type selKind uint8

const (
	selResolved selKind = iota
	selRecursive
	selBudget
)

// selectResult is the evaluator's tri-state: a resolved value number, a
// cycle marker (this (map, index) is already being evaluated higher up
// the same walk), or budget exhaustion. Only selResolved ever reaches a
// caller of the exported API.
type selectResult struct {
	kind selKind
	vn   ValueNum
	// usedRecursive marks a resolved value derived through at least
	// one back-edge branch. Such results are correct for this walk but
	// must not be memoized.
	usedRecursive bool
}

func resolved(vn ValueNum) selectResult {
	return selectResult{kind: selResolved, vn: vn}
}

// VNForMapStore returns the map equal to m everywhere except at index,
// where it holds value. The store is tagged with the enclosing loop
// number so a later pass can scope invalidation to that loop's effects;
// the tag does not affect select resolution.
func (s *Store) VNForMapStore(m, index, value ValueNum, loopNum int) ValueNum {
	if s.TypeOf(m) != TypMap {
		internalErrorf("VNForMapStore: %d is not a map", m)
	}
	return s.VNForFunc(TypMap, OpMapStore, m, index, value, s.VNForInt32(int32(loopNum)))
}

// VNForMapPhi returns the map merging the given incoming map
// definitions at a loop join. At least one definition is required.
func (s *Store) VNForMapPhi(defs ...ValueNum) ValueNum {
	if len(defs) == 0 {
		internalErrorf("VNForMapPhi: no incoming definitions")
	}
	for _, def := range defs {
		if s.TypeOf(def) != TypMap {
			internalErrorf("VNForMapPhi: definition %d is not a map", def)
		}
	}
	list := defs[len(defs)-1]
	for i := len(defs) - 2; i >= 0; i-- {
		list = s.VNForFunc(TypMap, OpPhiList, defs[i], list)
	}
	return s.VNForFunc(TypMap, OpPhi, list)
}

// VNForMapPhiDef returns the named map merge point for one SSA memory
// definition, identified by a variable and SSA number. Unlike the
// structural VNForMapPhi, its incoming definitions are registered
// afterwards with SetMapPhiInputs, which is what allows a loop's back
// edge to flow through the phi it feeds.
func (s *Store) VNForMapPhiDef(varNum, ssaNum int) ValueNum {
	return s.VNForFunc(TypMap, OpPhiDef, s.VNForInt32(int32(varNum)), s.VNForInt32(int32(ssaNum)))
}

// SetMapPhiInputs registers the incoming definitions of a phi def. It
// completes the definition and may be called once per phi; the store
// stays append-only because the phi had no meaning to resolve against
// before registration.
func (s *Store) SetMapPhiInputs(phi ValueNum, defs ...ValueNum) {
	if _, ok := s.funcAppIs(phi, OpPhiDef); !ok {
		internalErrorf("SetMapPhiInputs: %d is not a phi def", phi)
	}
	if len(defs) == 0 {
		internalErrorf("SetMapPhiInputs: no incoming definitions")
	}
	if _, ok := s.phiInputs[phi]; ok {
		internalErrorf("SetMapPhiInputs: inputs of %d already registered", phi)
	}
	s.phiInputs[phi] = defs
}

// phiDefs flattens a phi's cons chain back into its definitions.
func (s *Store) phiDefs(list ValueNum) []ValueNum {
	var defs []ValueNum
	for {
		args, ok := s.funcAppIs(list, OpPhiList)
		if !ok {
			return append(defs, list)
		}
		defs = append(defs, args[0])
		list = args[1]
	}
}

// VNForMapSelect resolves reading index out of map m in the given basic
// block, returning either the stored value or a stable opaque value
// number when the walk cannot resolve it (unknown provenance,
// disagreeing phi branches, a genuine cycle, or budget exhaustion).
// The opaque fallback is the interned select application itself, so
// repeated unresolvable reads of the same (map, index) agree.
func (s *Store) VNForMapSelect(typ Typ, m, index ValueNum, block int) ValueNum {
	if s.TypeOf(m) != TypMap {
		internalErrorf("VNForMapSelect: %d is not a map", m)
	}
	budget := s.budget
	res := s.mapSelectWork(&budget, typ, m, index)

	switch res.kind {
	case selResolved:
		if !res.usedRecursive {
			s.selectMemo[selKey{m, index}] = res.vn
		}
		return res.vn
	case selBudget:
		// Degrade to the stable opaque select. Memoized even though a
		// larger budget might have resolved it concretely: bounding
		// total work is the point, full precision is a non-goal.
		vn := s.internFunc(typ, OpMapSelect, []ValueNum{m, index})
		s.selectMemo[selKey{m, index}] = vn
		if ce := s.log.Check(zap.DebugLevel, "map select budget exhausted"); ce != nil {
			ce.Write(zap.Int32("map", int32(m)), zap.Int32("index", int32(index)), zap.Int("block", block))
		}
		return vn
	default:
		// The whole select is self-referential with no anchoring
		// definition; the interned application is its only stable
		// identity. Not memoized: it was derived from the marker.
		return s.internFunc(typ, OpMapSelect, []ValueNum{m, index})
	}
}

// mapSelectWork is the budgeted recursive walk. The budget pointer is
// shared across the whole top-level select so pathological inputs
// cannot cause unbounded work.
func (s *Store) mapSelectWork(budget *int, typ Typ, m, index ValueNum) selectResult {
	key := selKey{m, index}
	if vn, ok := s.selectMemo[key]; ok {
		return resolved(vn)
	}
	for _, k := range s.inFlight {
		if k == key {
			return selectResult{kind: selRecursive}
		}
	}
	if *budget <= 0 {
		return selectResult{kind: selBudget}
	}
	*budget--

	s.inFlight = append(s.inFlight, key)
	res := s.mapSelectStep(budget, typ, m, index)
	s.inFlight = s.inFlight[:len(s.inFlight)-1]

	if res.kind == selResolved && !res.usedRecursive {
		s.selectMemo[key] = res.vn
	}
	return res
}

func (s *Store) mapSelectStep(budget *int, typ Typ, m, index ValueNum) selectResult {
	op, args, ok := s.FuncApp(m)
	if ok {
		switch op {
		case OpMapStore:
			base, storeIndex, value := args[0], args[1], args[2]
			if storeIndex == index {
				return resolved(value)
			}
			ci, okI := s.IsIntegralConstant(storeIndex)
			cj, okJ := s.IsIntegralConstant(index)
			if okI && okJ && ci != cj {
				// Provably disjoint: the store cannot affect this
				// read, keep walking the underlying map.
				return s.mapSelectWork(budget, typ, base, index)
			}
			// Possibly aliasing store with an unprovable index.

		case OpPhi:
			return s.selectThroughPhi(budget, typ, m, s.phiDefs(args[0]), index)

		case OpPhiDef:
			if defs, registered := s.phiInputs[m]; registered {
				return s.selectThroughPhi(budget, typ, m, defs, index)
			}
		}
	}

	// Unknown provenance: the interned select application is the fresh
	// opaque value for this read.
	return resolved(s.internFunc(typ, OpMapSelect, []ValueNum{m, index}))
}

// selectThroughPhi resolves a read against every incoming definition of
// a loop merge. A branch that reports recursion re-enters the pair
// currently being resolved: whatever the other branches agree on is, by
// construction, also the value carried around that back edge, so the
// branch is skipped but poisons memoization.
func (s *Store) selectThroughPhi(budget *int, typ Typ, phi ValueNum, defs []ValueNum, index ValueNum) selectResult {
	var agreed ValueNum = NoVN
	usedRecursive := false

	for _, def := range defs {
		res := s.mapSelectWork(budget, typ, def, index)
		switch res.kind {
		case selBudget:
			return res
		case selRecursive:
			usedRecursive = true
			continue
		}
		usedRecursive = usedRecursive || res.usedRecursive
		if agreed == NoVN {
			agreed = res.vn
		} else if agreed != res.vn {
			// The merge is a genuinely new value.
			return resolved(s.internFunc(typ, OpMapSelect, []ValueNum{phi, index}))
		}
	}

	if agreed == NoVN {
		// Every branch was a back edge.
		return selectResult{kind: selRecursive}
	}
	return selectResult{kind: selResolved, vn: agreed, usedRecursive: usedRecursive}
}
