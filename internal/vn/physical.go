package vn

// Physical maps model a struct's or local's in-memory layout as a
// functional byteOffset -> byte store. Reads and writes carry a
// (byteOffset, byteSize) range packed into one selector constant, and
// the select walk reasons about range overlap: full enclosure projects
// into the covering store's value, disjoint ranges skip past, and
// partial overlap (true aliasing) degrades to the stable opaque select
// application.

const maxPhysicalRange = int64(1) << 32

// physicalSelector packs a byte range into one interned i64 constant.
// Packing and decoding go through uint64: offsets at or above 1<<31
// would set the sign bit of offset<<32, and an arithmetic decode shift
// would sign-extend them into negative offsets, making a genuinely
// overlapping store look disjoint.
func (s *Store) physicalSelector(offset, size int64) ValueNum {
	if offset < 0 || size <= 0 || offset >= maxPhysicalRange || size >= maxPhysicalRange {
		internalErrorf("physical selector out of range: offset %d size %d", offset, size)
	}
	return s.VNForInt64(int64(uint64(offset)<<32 | uint64(size)))
}

func decodePhysicalSelector(bits int64) (offset, size int64) {
	return int64(uint64(bits) >> 32), bits & (maxPhysicalRange - 1)
}

// VNForPhysicalStore returns the physical map after storing value into
// the byte range [offset, offset+size) of an object of objSize bytes.
// Storing the entire object is an identity rather than a projection:
// the value itself becomes the location's map, with no selector built.
func (s *Store) VNForPhysicalStore(m ValueNum, offset, size, objSize int64, value ValueNum) ValueNum {
	if offset+size > objSize {
		internalErrorf("physical store [%d,%d) beyond object size %d", offset, offset+size, objSize)
	}
	if offset == 0 && size == objSize {
		return value
	}
	return s.VNForFunc(TypMap, OpMapPhysicalStore, m, s.physicalSelector(offset, size), value)
}

// VNForPhysicalSelect resolves reading the byte range [offset,
// offset+size) out of an object of objSize bytes. Reading the whole
// object returns the map itself; the caller bridges the declared type
// with VNForBitCast where needed.
func (s *Store) VNForPhysicalSelect(typ Typ, m ValueNum, offset, size, objSize int64) ValueNum {
	if offset+size > objSize {
		internalErrorf("physical select [%d,%d) beyond object size %d", offset, offset+size, objSize)
	}
	if offset == 0 && size == objSize {
		return m
	}
	budget := s.budget
	return s.physSelectWork(&budget, typ, m, offset, size)
}

func (s *Store) physSelectWork(budget *int, typ Typ, m ValueNum, offset, size int64) ValueNum {
	for *budget > 0 {
		*budget--
		args, ok := s.funcAppIs(m, OpMapPhysicalStore)
		if !ok {
			break
		}
		base, value := args[0], args[2]
		stOffset, stSize := decodePhysicalSelector(s.Int64Val(args[1]))
		switch {
		case offset == stOffset && size == stSize:
			return value
		case offset >= stOffset && offset+size <= stOffset+stSize:
			// Enclosed by the store: project into the stored value at
			// the adjusted offset.
			return s.physSelectWork(budget, typ, value, offset-stOffset, size)
		case offset+size <= stOffset || stOffset+stSize <= offset:
			// Disjoint: this store cannot affect the read.
			m = base
			continue
		default:
			// Partial overlap: true aliasing, unresolvable.
		}
		break
	}
	return s.internFunc(typ, OpMapPhysicalSelect, []ValueNum{m, s.physicalSelector(offset, size)})
}

// VNForBitCast returns the value of x viewed as an equal-size type.
// The declared-type view over a physical location is obtained by
// layering this over the raw byte-range select result, so a 4-byte
// region reads as either i32 or f32 while sharing one representation.
func (s *Store) VNForBitCast(typ Typ, x ValueNum) ValueNum {
	xTyp := s.TypeOf(x)
	if xTyp == typ {
		return x
	}
	if typ.Size() != 0 && xTyp.Size() != 0 && typ.Size() != xTyp.Size() {
		internalErrorf("bitcast between unequal sizes: %v to %v", xTyp, typ)
	}
	return s.VNForFunc(typ, OpBitCast, x)
}
