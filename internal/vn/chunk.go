package vn

// The store's backing memory is a monotonic sequence of fixed-capacity
// chunks. Each chunk is homogeneous in both type and payload kind, so a
// value number decomposes deterministically into (chunk, offset) and the
// payload slice's element type is known from the chunk alone. Chunks are
// never freed or resized; slots are immutable once written.

const chunkCapacity = 64

// HandleKind tags the provenance of a handle constant. Two handles with
// equal payload bits but different kinds denote different entities and
// must not collapse to one value number.
type HandleKind uint8

const (
	HandleModule HandleKind = iota
	HandleClass
	HandleMethod
	HandleField
	HandleString
	HandleToken
)

var handleKindNames = [...]string{
	HandleModule: "module",
	HandleClass:  "class",
	HandleMethod: "method",
	HandleField:  "field",
	HandleString: "string",
	HandleToken:  "token",
}

func (k HandleKind) String() string {
	if int(k) < len(handleKindNames) {
		return handleKindNames[k]
	}
	return "handle?"
}

// Handle is an address or metadata token with a provenance tag.
type Handle struct {
	Payload uint64
	Kind    HandleKind
}

// funcApp is one interned function application. Slots beyond arity hold
// NoVN.
type funcApp struct {
	op    Op
	arity uint8
	args  [4]ValueNum
}

// chunkPayload is the sum of the per-kind slot storages. Exhaustive type
// switches over this interface replace the original's kind byte plus raw
// reinterpretation.
type chunkPayload interface {
	used() int
}

type int32Slots struct{ vals []int32 }
type int64Slots struct{ vals []int64 }
type float32Slots struct{ vals []float32 }
type float64Slots struct{ vals []float64 }
type handleSlots struct{ vals []Handle }
type funcSlots struct{ vals []funcApp }

func (s *int32Slots) used() int   { return len(s.vals) }
func (s *int64Slots) used() int   { return len(s.vals) }
func (s *float32Slots) used() int { return len(s.vals) }
func (s *float64Slots) used() int { return len(s.vals) }
func (s *handleSlots) used() int  { return len(s.vals) }
func (s *funcSlots) used() int    { return len(s.vals) }

// chunkKind distinguishes what a chunk's slots hold: a constant of the
// chunk's type, a handle, or a function application of a fixed arity.
type chunkKind uint8

const (
	chunkConst chunkKind = iota
	chunkHandle
	chunkFunc0
	chunkFunc1
	chunkFunc2
	chunkFunc3
	chunkFunc4
)

func funcChunkKind(arity int) chunkKind {
	return chunkFunc0 + chunkKind(arity)
}

type chunk struct {
	base    ValueNum // value number of slot 0
	typ     Typ
	kind    chunkKind
	payload chunkPayload
}

// full reports whether the chunk has no free slot left.
func (c *chunk) full() bool {
	return c.payload.used() >= chunkCapacity
}

// chunkKey identifies the open chunk for one (type, kind) class.
type chunkKey struct {
	typ  Typ
	kind chunkKind
}

// newChunk allocates an empty chunk and appends it to the store's chunk
// list. The chunk's base follows the previous chunk's capacity, keeping
// the VN space dense.
func (s *Store) newChunk(typ Typ, kind chunkKind) *chunk {
	base := firstAllocatedVN + ValueNum(len(s.chunks))*chunkCapacity
	c := &chunk{base: base, typ: typ, kind: kind}
	switch kind {
	case chunkConst:
		switch typ {
		case TypInt32:
			c.payload = &int32Slots{vals: make([]int32, 0, chunkCapacity)}
		case TypInt64:
			c.payload = &int64Slots{vals: make([]int64, 0, chunkCapacity)}
		case TypFloat32:
			c.payload = &float32Slots{vals: make([]float32, 0, chunkCapacity)}
		case TypFloat64:
			c.payload = &float64Slots{vals: make([]float64, 0, chunkCapacity)}
		default:
			internalErrorf("constant chunk of type %v", typ)
		}
	case chunkHandle:
		c.payload = &handleSlots{vals: make([]Handle, 0, chunkCapacity)}
	default:
		c.payload = &funcSlots{vals: make([]funcApp, 0, chunkCapacity)}
	}
	s.chunks = append(s.chunks, c)
	s.openChunks[chunkKey{typ, kind}] = len(s.chunks) - 1
	return c
}

// openChunk returns a chunk of the given class with at least one free
// slot, allocating a fresh one if the current open chunk is full.
func (s *Store) openChunk(typ Typ, kind chunkKind) *chunk {
	if i, ok := s.openChunks[chunkKey{typ, kind}]; ok {
		if c := s.chunks[i]; !c.full() {
			return c
		}
	}
	return s.newChunk(typ, kind)
}

// chunkFor resolves a value number to its chunk and slot offset. The
// offset must address a written slot; anything else is a store bug.
func (s *Store) chunkFor(vn ValueNum) (*chunk, int) {
	if !vn.Valid() {
		internalErrorf("chunkFor(%d): not an allocated value number", vn)
	}
	idx := int(vn-firstAllocatedVN) / chunkCapacity
	off := int(vn-firstAllocatedVN) % chunkCapacity
	if idx >= len(s.chunks) {
		internalErrorf("chunkFor(%d): chunk %d out of range", vn, idx)
	}
	c := s.chunks[idx]
	if off >= c.payload.used() {
		internalErrorf("chunkFor(%d): offset %d beyond used slots", vn, off)
	}
	return c, off
}

// allocInt32 writes v into the open i32 constant chunk of type typ and
// returns the slot's value number.
func (s *Store) allocInt32(typ Typ, v int32) ValueNum {
	c := s.openChunk(typ, chunkConst)
	slots := c.payload.(*int32Slots)
	vn := c.base + ValueNum(len(slots.vals))
	slots.vals = append(slots.vals, v)
	return vn
}

func (s *Store) allocInt64(typ Typ, v int64) ValueNum {
	c := s.openChunk(typ, chunkConst)
	slots := c.payload.(*int64Slots)
	vn := c.base + ValueNum(len(slots.vals))
	slots.vals = append(slots.vals, v)
	return vn
}

func (s *Store) allocFloat32(v float32) ValueNum {
	c := s.openChunk(TypFloat32, chunkConst)
	slots := c.payload.(*float32Slots)
	vn := c.base + ValueNum(len(slots.vals))
	slots.vals = append(slots.vals, v)
	return vn
}

func (s *Store) allocFloat64(v float64) ValueNum {
	c := s.openChunk(TypFloat64, chunkConst)
	slots := c.payload.(*float64Slots)
	vn := c.base + ValueNum(len(slots.vals))
	slots.vals = append(slots.vals, v)
	return vn
}

func (s *Store) allocHandle(typ Typ, h Handle) ValueNum {
	c := s.openChunk(typ, chunkHandle)
	slots := c.payload.(*handleSlots)
	vn := c.base + ValueNum(len(slots.vals))
	slots.vals = append(slots.vals, h)
	return vn
}

func (s *Store) allocFunc(typ Typ, app funcApp) ValueNum {
	c := s.openChunk(typ, funcChunkKind(int(app.arity)))
	slots := c.payload.(*funcSlots)
	vn := c.base + ValueNum(len(slots.vals))
	slots.vals = append(slots.vals, app)
	return vn
}
