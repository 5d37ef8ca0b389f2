package vn

// Typ is the declared type of an interned value. Integer constants are
// stored as signed bit patterns at their width; unsignedness is a
// property of the operator (OpUDiv, casts), not of the stored constant.
type Typ uint8

const (
	TypVoid Typ = iota
	TypInt8
	TypInt16
	TypInt32
	TypInt64
	TypUint8
	TypUint16
	TypUint32
	TypUint64
	TypFloat32
	TypFloat64
	TypRef    // GC reference
	TypByRef  // unmanaged pointer / interior pointer
	TypMap    // functional memory map
	TypExcSet // exception-set list
)

var typNames = [...]string{
	TypVoid:    "void",
	TypInt8:    "i8",
	TypInt16:   "i16",
	TypInt32:   "i32",
	TypInt64:   "i64",
	TypUint8:   "u8",
	TypUint16:  "u16",
	TypUint32:  "u32",
	TypUint64:  "u64",
	TypFloat32: "f32",
	TypFloat64: "f64",
	TypRef:     "ref",
	TypByRef:   "byref",
	TypMap:     "map",
	TypExcSet:  "excset",
}

func (t Typ) String() string {
	if int(t) < len(typNames) {
		return typNames[t]
	}
	return "typ?"
}

// Size returns the byte size of the type, or 0 for the non-data types.
func (t Typ) Size() int {
	switch t {
	case TypInt8, TypUint8:
		return 1
	case TypInt16, TypUint16:
		return 2
	case TypInt32, TypUint32, TypFloat32:
		return 4
	case TypInt64, TypUint64, TypFloat64, TypRef, TypByRef:
		return 8
	}
	return 0
}

// Integral reports whether t is an integer type of any width or sign.
func (t Typ) Integral() bool {
	switch t {
	case TypInt8, TypInt16, TypInt32, TypInt64,
		TypUint8, TypUint16, TypUint32, TypUint64:
		return true
	}
	return false
}

// Floating reports whether t is a floating-point type.
func (t Typ) Floating() bool {
	return t == TypFloat32 || t == TypFloat64
}

// Unsigned reports whether t is an unsigned integer type.
func (t Typ) Unsigned() bool {
	switch t {
	case TypUint8, TypUint16, TypUint32, TypUint64:
		return true
	}
	return false
}

// storageTyp maps a declared type to the chunk storage type holding its
// constants. Narrow and unsigned integers share the signed storage of
// their width class; pointers are stored as 64-bit patterns.
func storageTyp(t Typ) Typ {
	switch t {
	case TypInt8, TypInt16, TypInt32, TypUint8, TypUint16, TypUint32:
		return TypInt32
	case TypInt64, TypUint64, TypRef, TypByRef:
		return TypInt64
	default:
		return t
	}
}
