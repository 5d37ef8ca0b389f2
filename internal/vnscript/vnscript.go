// Package vnscript evaluates a small line-oriented script against a
// value-numbering store. It plays the role of the compiler's tree
// walker for the CLI and for end-to-end tests: each line interns a
// constant, applies an operator to previously bound results, or
// performs a map operation, and binds the resulting value number to a
// name.
//
//	five = i32 5
//	ten  = i64 0xA
//	sum  = add i32 five five
//	m0   = zeromap
//	m1   = store m0 five sum @loop=1
//	v    = select i32 m1 five @block=2
//
// Integer operands parse as signed 64-bit decimals; values above
// MaxInt64 (u64 constants, wide handle payloads) are written as hex,
// octal, or binary bit patterns, e.g. 0xFFFFFFFFFFFFFFFF for the
// all-ones word.
package vnscript

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Emeka-MSFT/runtime-sub000/internal/numeric"
	"github.com/Emeka-MSFT/runtime-sub000/internal/vn"
)

// Binding is one named script result in evaluation order.
type Binding struct {
	Name string
	VN   vn.ValueNum
}

// Result carries the bindings a script produced.
type Result struct {
	Bindings []Binding
	byName   map[string]vn.ValueNum
}

// Lookup returns the value number bound to a name.
func (r *Result) Lookup(name string) (vn.ValueNum, bool) {
	v, ok := r.byName[name]
	return v, ok
}

var typNames = map[string]vn.Typ{
	"i8":  vn.TypInt8,
	"i16": vn.TypInt16,
	"i32": vn.TypInt32,
	"i64": vn.TypInt64,
	"u8":  vn.TypUint8,
	"u16": vn.TypUint16,
	"u32": vn.TypUint32,
	"u64": vn.TypUint64,
	"f32": vn.TypFloat32,
	"f64": vn.TypFloat64,
	"ref": vn.TypRef,
}

var unaryOps = map[string]vn.Op{
	"neg":     vn.OpNeg,
	"not":     vn.OpBitNot,
	"bitcast": vn.OpBitCast,
}

var binaryOps = map[string]vn.Op{
	"add":     vn.OpAdd,
	"sub":     vn.OpSub,
	"mul":     vn.OpMul,
	"div":     vn.OpDiv,
	"mod":     vn.OpMod,
	"udiv":    vn.OpUDiv,
	"umod":    vn.OpUMod,
	"add.ovf": vn.OpAddOvf,
	"sub.ovf": vn.OpSubOvf,
	"mul.ovf": vn.OpMulOvf,
	"and":     vn.OpAnd,
	"or":      vn.OpOr,
	"xor":     vn.OpXor,
	"lsh":     vn.OpLsh,
	"rsh":     vn.OpRsh,
	"rsz":     vn.OpRsz,
	"eq":      vn.OpEq,
	"ne":      vn.OpNe,
	"lt":      vn.OpLt,
	"le":      vn.OpLe,
	"gt":      vn.OpGt,
	"ge":      vn.OpGe,
}

var handleKinds = map[string]vn.HandleKind{
	"module": vn.HandleModule,
	"class":  vn.HandleClass,
	"method": vn.HandleMethod,
	"field":  vn.HandleField,
	"string": vn.HandleString,
	"token":  vn.HandleToken,
}

// Run evaluates src against the store and returns the bindings in
// order. Evaluation stops at the first malformed line.
func Run(store *vn.Store, src string) (*Result, error) {
	ev := &evaluator{
		store: store,
		res:   &Result{byName: make(map[string]vn.ValueNum)},
	}
	for i, line := range strings.Split(src, "\n") {
		if err := ev.evalLine(line); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	return ev.res, nil
}

type evaluator struct {
	store *vn.Store
	res   *Result
}

func (ev *evaluator) evalLine(line string) error {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	// Trailing @loop=N / @block=N directives.
	loopNum, blockNum := 0, 0
	for len(fields) > 0 {
		last := fields[len(fields)-1]
		var err error
		switch {
		case strings.HasPrefix(last, "@loop="):
			loopNum, err = strconv.Atoi(last[len("@loop="):])
		case strings.HasPrefix(last, "@block="):
			blockNum, err = strconv.Atoi(last[len("@block="):])
		default:
			err = errNotDirective
		}
		if err != nil {
			if err == errNotDirective {
				break
			}
			return fmt.Errorf("bad directive %q", last)
		}
		fields = fields[:len(fields)-1]
	}

	// Input registration has no binding.
	if fields[0] == "phiinputs" {
		return ev.evalPhiInputs(fields[1:])
	}

	if len(fields) < 3 || fields[1] != "=" {
		return fmt.Errorf("expected \"name = operation ...\", got %q", strings.Join(fields, " "))
	}
	name, op, args := fields[0], fields[2], fields[3:]
	if _, exists := ev.res.byName[name]; exists {
		return fmt.Errorf("name %q already bound", name)
	}

	result, err := ev.evalOp(op, args, loopNum, blockNum)
	if err != nil {
		return err
	}
	ev.res.byName[name] = result
	ev.res.Bindings = append(ev.res.Bindings, Binding{Name: name, VN: result})
	return nil
}

var errNotDirective = fmt.Errorf("not a directive")

func (ev *evaluator) evalOp(op string, args []string, loopNum, blockNum int) (vn.ValueNum, error) {
	s := ev.store
	switch op {
	case "i8", "i16", "i32", "u8", "u16", "u32":
		v, err := ev.intArg(args, 0)
		if err != nil {
			return vn.NoVN, err
		}
		return s.VNForInt32(int32(v)), nil
	case "i64", "u64":
		v, err := ev.intArg(args, 0)
		if err != nil {
			return vn.NoVN, err
		}
		return s.VNForInt64(v), nil
	case "f32":
		v, err := ev.floatArg(args, 0)
		if err != nil {
			return vn.NoVN, err
		}
		return s.VNForFloat32(float32(v)), nil
	case "f64":
		v, err := ev.floatArg(args, 0)
		if err != nil {
			return vn.NoVN, err
		}
		return s.VNForFloat64(v), nil

	case "handle":
		if len(args) != 2 {
			return vn.NoVN, fmt.Errorf("handle wants <kind> <payload>")
		}
		kind, ok := handleKinds[args[0]]
		if !ok {
			return vn.NoVN, fmt.Errorf("unknown handle kind %q", args[0])
		}
		payload, err := ev.intArg(args, 1)
		if err != nil {
			return vn.NoVN, err
		}
		return s.VNForHandle(uint64(payload), kind), nil

	case "opaque":
		typ, err := ev.typArg(args, 0)
		if err != nil {
			return vn.NoVN, err
		}
		return s.VNForOpaque(typ, blockNum), nil

	case "null":
		return s.VNForNull(), nil
	case "zeromap":
		return s.VNForZeroMap(), nil
	case "emptyexcset":
		return s.VNForEmptyExcSet(), nil

	case "store":
		m, i, v, err := ev.threeVNs(args)
		if err != nil {
			return vn.NoVN, err
		}
		return s.VNForMapStore(m, i, v, loopNum), nil
	case "select":
		typ, err := ev.typArg(args, 0)
		if err != nil {
			return vn.NoVN, err
		}
		m, err := ev.vnArg(args, 1)
		if err != nil {
			return vn.NoVN, err
		}
		i, err := ev.vnArg(args, 2)
		if err != nil {
			return vn.NoVN, err
		}
		return s.VNForMapSelect(typ, m, i, blockNum), nil

	case "phi":
		defs, err := ev.vnArgs(args)
		if err != nil {
			return vn.NoVN, err
		}
		return s.VNForMapPhi(defs...), nil
	case "phidef":
		varNum, err := ev.intArg(args, 0)
		if err != nil {
			return vn.NoVN, err
		}
		ssaNum, err := ev.intArg(args, 1)
		if err != nil {
			return vn.NoVN, err
		}
		return s.VNForMapPhiDef(int(varNum), int(ssaNum)), nil

	case "physstore":
		if len(args) != 5 {
			return vn.NoVN, fmt.Errorf("physstore wants <map> <off> <size> <objsize> <value>")
		}
		m, err := ev.vnArg(args, 0)
		if err != nil {
			return vn.NoVN, err
		}
		off, size, objSize, err := ev.rangeArgs(args[1:4])
		if err != nil {
			return vn.NoVN, err
		}
		v, err := ev.vnArg(args, 4)
		if err != nil {
			return vn.NoVN, err
		}
		return s.VNForPhysicalStore(m, off, size, objSize, v), nil
	case "physselect":
		if len(args) != 5 {
			return vn.NoVN, fmt.Errorf("physselect wants <typ> <map> <off> <size> <objsize>")
		}
		typ, err := ev.typArg(args, 0)
		if err != nil {
			return vn.NoVN, err
		}
		m, err := ev.vnArg(args, 1)
		if err != nil {
			return vn.NoVN, err
		}
		off, size, objSize, err := ev.rangeArgs(args[2:5])
		if err != nil {
			return vn.NoVN, err
		}
		return s.VNForPhysicalSelect(typ, m, off, size, objSize), nil

	case "cast", "cast.ovf":
		typ, err := ev.typArg(args, 0)
		if err != nil {
			return vn.NoVN, err
		}
		x, err := ev.vnArg(args, 1)
		if err != nil {
			return vn.NoVN, err
		}
		srcUnsigned := false
		if len(args) > 2 {
			if args[2] != "unsigned" {
				return vn.NoVN, fmt.Errorf("cast modifier must be \"unsigned\", got %q", args[2])
			}
			srcUnsigned = true
		}
		castOp := vn.OpCast
		if op == "cast.ovf" {
			castOp = vn.OpCastOvf
		}
		return s.VNForFunc(typ, castOp, x, s.VNForCastInfo(typ, srcUnsigned)), nil

	case "excset":
		return ev.evalExcSet(args)
	case "union":
		a, b, err := ev.twoVNs(args)
		if err != nil {
			return vn.NoVN, err
		}
		return s.VNExcSetUnion(a, b), nil
	case "intersect":
		a, b, err := ev.twoVNs(args)
		if err != nil {
			return vn.NoVN, err
		}
		return s.VNExcSetIntersection(a, b), nil
	case "pack":
		v, e, err := ev.twoVNs(args)
		if err != nil {
			return vn.NoVN, err
		}
		return s.PackExc(v, e), nil
	}

	if o, ok := unaryOps[op]; ok {
		typ, err := ev.typArg(args, 0)
		if err != nil {
			return vn.NoVN, err
		}
		x, err := ev.vnArg(args, 1)
		if err != nil {
			return vn.NoVN, err
		}
		if o == vn.OpBitCast {
			return s.VNForBitCast(typ, x), nil
		}
		return s.VNForFunc(typ, o, x), nil
	}
	if o, ok := binaryOps[op]; ok {
		typ, err := ev.typArg(args, 0)
		if err != nil {
			return vn.NoVN, err
		}
		a, err := ev.vnArg(args, 1)
		if err != nil {
			return vn.NoVN, err
		}
		b, err := ev.vnArg(args, 2)
		if err != nil {
			return vn.NoVN, err
		}
		return s.VNForFunc(typ, o, a, b), nil
	}
	return vn.NoVN, fmt.Errorf("unknown operation %q", op)
}

func (ev *evaluator) evalExcSet(args []string) (vn.ValueNum, error) {
	s := ev.store
	if len(args) == 0 {
		return vn.NoVN, fmt.Errorf("excset wants a descriptor")
	}
	switch args[0] {
	case "div0":
		return s.VNExcSetSingleton(s.VNForDivByZeroExc()), nil
	case "overflow":
		return s.VNExcSetSingleton(s.VNForOverflowExc()), nil
	case "nullptr":
		addr, err := ev.vnArg(args, 1)
		if err != nil {
			return vn.NoVN, err
		}
		return s.VNExcSetSingleton(s.VNForNullPtrExc(addr)), nil
	case "bounds":
		i, err := ev.vnArg(args, 1)
		if err != nil {
			return vn.NoVN, err
		}
		n, err := ev.vnArg(args, 2)
		if err != nil {
			return vn.NoVN, err
		}
		return s.VNExcSetSingleton(s.VNForBoundsChkExc(i, n)), nil
	}
	return vn.NoVN, fmt.Errorf("unknown exception descriptor %q", args[0])
}

func (ev *evaluator) evalPhiInputs(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("phiinputs wants <phi> <defs...>")
	}
	phi, err := ev.vnArg(args, 0)
	if err != nil {
		return err
	}
	defs, err := ev.vnArgs(args[1:])
	if err != nil {
		return err
	}
	ev.store.SetMapPhiInputs(phi, defs...)
	return nil
}

func (ev *evaluator) vnArg(args []string, i int) (vn.ValueNum, error) {
	if i >= len(args) {
		return vn.NoVN, fmt.Errorf("missing operand %d", i+1)
	}
	v, ok := ev.res.byName[args[i]]
	if !ok {
		return vn.NoVN, fmt.Errorf("unknown name %q", args[i])
	}
	return v, nil
}

func (ev *evaluator) vnArgs(args []string) ([]vn.ValueNum, error) {
	vns := make([]vn.ValueNum, len(args))
	for i := range args {
		v, err := ev.vnArg(args, i)
		if err != nil {
			return nil, err
		}
		vns[i] = v
	}
	return vns, nil
}

func (ev *evaluator) twoVNs(args []string) (vn.ValueNum, vn.ValueNum, error) {
	a, err := ev.vnArg(args, 0)
	if err != nil {
		return vn.NoVN, vn.NoVN, err
	}
	b, err := ev.vnArg(args, 1)
	return a, b, err
}

func (ev *evaluator) threeVNs(args []string) (vn.ValueNum, vn.ValueNum, vn.ValueNum, error) {
	a, err := ev.vnArg(args, 0)
	if err != nil {
		return vn.NoVN, vn.NoVN, vn.NoVN, err
	}
	b, err := ev.vnArg(args, 1)
	if err != nil {
		return vn.NoVN, vn.NoVN, vn.NoVN, err
	}
	c, err := ev.vnArg(args, 2)
	return a, b, c, err
}

func (ev *evaluator) typArg(args []string, i int) (vn.Typ, error) {
	if i >= len(args) {
		return vn.TypVoid, fmt.Errorf("missing type operand")
	}
	typ, ok := typNames[args[i]]
	if !ok {
		return vn.TypVoid, fmt.Errorf("unknown type %q", args[i])
	}
	return typ, nil
}

func (ev *evaluator) intArg(args []string, i int) (int64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing integer operand")
	}
	if !numeric.IsInteger(args[i]) {
		return 0, fmt.Errorf("not an integer literal: %q", args[i])
	}
	return numeric.ParseInt(args[i])
}

func (ev *evaluator) floatArg(args []string, i int) (float64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing float operand")
	}
	if !numeric.IsFloat(args[i]) {
		return 0, fmt.Errorf("not a float literal: %q", args[i])
	}
	return numeric.ParseFloat(args[i])
}

func (ev *evaluator) rangeArgs(args []string) (off, size, objSize int64, err error) {
	if off, err = ev.intArg(args, 0); err != nil {
		return
	}
	if size, err = ev.intArg(args, 1); err != nil {
		return
	}
	objSize, err = ev.intArg(args, 2)
	return
}
