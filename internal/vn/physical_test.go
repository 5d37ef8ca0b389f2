package vn

import "testing"

func TestPhysicalStoreSelectExact(t *testing.T) {
	s := newTestStore()

	base := s.VNForZeroMap()
	val := s.VNForInt32(42)

	// An 8-byte object: store 4 bytes at offset 0, read them back.
	m := s.VNForPhysicalStore(base, 0, 4, 8, val)
	if got := s.VNForPhysicalSelect(TypInt32, m, 0, 4, 8); got != val {
		t.Errorf("read of the stored range = %s, want %s", s.Render(got), s.Render(val))
	}
}

func TestPhysicalDisjointRangesUnaffected(t *testing.T) {
	s := newTestStore()

	base := s.VNForZeroMap()
	val := s.VNForInt32(42)

	before := s.VNForPhysicalSelect(TypInt32, base, 4, 4, 8)
	m := s.VNForPhysicalStore(base, 0, 4, 8, val)
	after := s.VNForPhysicalSelect(TypInt32, m, 4, 4, 8)
	if after != before {
		t.Error("bytes 4-7 must be unchanged by a store to bytes 0-3")
	}
}

func TestPhysicalPartialOverlapIsOpaque(t *testing.T) {
	s := newTestStore()

	base := s.VNForZeroMap()
	val := s.VNForInt32(42)

	m := s.VNForPhysicalStore(base, 0, 4, 8, val)
	// Bytes 2-5 straddle the stored range: true aliasing.
	got := s.VNForPhysicalSelect(TypInt32, m, 2, 4, 8)
	if got == val || s.IsConstant(got) {
		t.Error("a partially overlapping read must not resolve")
	}
	if got != s.VNForPhysicalSelect(TypInt32, m, 2, 4, 8) {
		t.Error("the opaque overlap result should be stable")
	}
}

func TestPhysicalOverlapAtHighOffsets(t *testing.T) {
	s := newTestStore()

	base := s.VNForZeroMap()
	val := s.VNForOpaque(TypInt64, 0)

	// An 8-byte store whose offset has bit 31 set: the selector
	// encoding must not sign-extend it into a negative offset, which
	// would misclassify the straddling read below as disjoint.
	const off = int64(1) << 31
	objSize := off + 16

	before := s.VNForPhysicalSelect(TypInt64, base, off-4, 8, objSize)
	m := s.VNForPhysicalStore(base, off, 8, objSize, val)
	got := s.VNForPhysicalSelect(TypInt64, m, off-4, 8, objSize)
	if got == before {
		t.Error("a read straddling the stored range must not resolve past the store")
	}
	if got == val || s.IsConstant(got) {
		t.Error("a partially overlapping read must not resolve")
	}

	// Exact and disjoint reads still behave at the same offsets.
	if s.VNForPhysicalSelect(TypInt64, m, off, 8, objSize) != val {
		t.Error("the exact read should return the stored value")
	}
	if s.VNForPhysicalSelect(TypInt64, m, off+8, 8, objSize) != s.VNForPhysicalSelect(TypInt64, base, off+8, 8, objSize) {
		t.Error("a disjoint read past the store must be unchanged")
	}
}

func TestPhysicalEnclosedReadProjects(t *testing.T) {
	s := newTestStore()

	base := s.VNForZeroMap()
	val := s.VNForOpaque(TypInt32, 0)

	// Store 4 bytes at offset 2, then read one byte at offset 3: the
	// read is byte 1 of the stored value.
	m := s.VNForPhysicalStore(base, 2, 4, 8, val)
	got := s.VNForPhysicalSelect(TypUint8, m, 3, 1, 8)
	want := s.VNForPhysicalSelect(TypUint8, val, 1, 1, 4)
	if got != want {
		t.Errorf("enclosed read = %s, want projection %s", s.Render(got), s.Render(want))
	}
}

func TestPhysicalWholeObjectFastPath(t *testing.T) {
	s := newTestStore()

	base := s.VNForZeroMap()
	val := s.VNForOpaque(TypInt64, 0)

	// Storing the whole object is an identity: the value is the map.
	m := s.VNForPhysicalStore(base, 0, 8, 8, val)
	if m != val {
		t.Error("a whole-object store should return the value directly")
	}
	// Reading the whole object returns the map itself.
	if s.VNForPhysicalSelect(TypInt64, m, 0, 8, 8) != m {
		t.Error("a whole-object read should return the map directly")
	}
}

func TestPhysicalTypeBridging(t *testing.T) {
	s := newTestStore()

	base := s.VNForZeroMap()
	f := s.VNForFloat32(1.5)

	// A 4-byte region written as f32 and read back as i32 shares the
	// representation through the bitcast bridge.
	m := s.VNForPhysicalStore(base, 0, 4, 8, f)
	raw := s.VNForPhysicalSelect(TypFloat32, m, 0, 4, 8)
	if raw != f {
		t.Fatalf("raw read = %s, want the stored f32", s.Render(raw))
	}
	asInt := s.VNForBitCast(TypInt32, raw)
	if asInt != s.VNForInt32(0x3FC00000) {
		t.Errorf("i32 view of stored f32 = %s, want 0x3FC00000", s.Render(asInt))
	}
}

func TestPhysicalSelectorRangeChecks(t *testing.T) {
	s := newTestStore()

	defer func() {
		if recover() == nil {
			t.Error("a store beyond the object must fail fast")
		}
	}()
	s.VNForPhysicalStore(s.VNForZeroMap(), 6, 4, 8, s.VNForInt32(1))
}
