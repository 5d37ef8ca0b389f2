package vnscript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Emeka-MSFT/runtime-sub000/internal/target"
	"github.com/Emeka-MSFT/runtime-sub000/internal/vn"
)

func newTestStore() *vn.Store {
	return vn.NewStore(vn.Config{Target: target.For(target.X64)})
}

func TestConstantsFold(t *testing.T) {
	s := newTestStore()
	res, err := Run(s, `
		a   = i32 2
		b   = i32 3
		sum = add i32 a b
		lit = i32 5
	`)
	require.NoError(t, err)

	sum, ok := res.Lookup("sum")
	require.True(t, ok)
	lit, _ := res.Lookup("lit")
	assert.Equal(t, lit, sum, "2+3 folds to the interned 5")
}

func TestLiteralForms(t *testing.T) {
	s := newTestStore()
	res, err := Run(s, `
		hex = i64 0x10
		dec = i64 16
		f   = f64 2.5e-1
		q   = f64 0.25
	`)
	require.NoError(t, err)

	hex, _ := res.Lookup("hex")
	dec, _ := res.Lookup("dec")
	assert.Equal(t, dec, hex)

	f, _ := res.Lookup("f")
	q, _ := res.Lookup("q")
	assert.Equal(t, q, f)
}

func TestWideOperandsAreBitPatterns(t *testing.T) {
	s := newTestStore()
	res, err := Run(s, `
		ones = u64 0xFFFFFFFFFFFFFFFF
		neg  = i64 -1
		h    = handle token 0xFFFF_FFFF_FFFF_FFFF
	`)
	require.NoError(t, err)

	ones, _ := res.Lookup("ones")
	neg, _ := res.Lookup("neg")
	assert.Equal(t, neg, ones, "the all-ones bit pattern is the -1 word")

	h, _ := res.Lookup("h")
	assert.Equal(t, uint64(0xFFFFFFFFFFFFFFFF), s.HandleVal(h).Payload)

	// Above MaxInt64 only the bit-pattern forms parse.
	_, err = Run(newTestStore(), "x = u64 18446744073709551615")
	assert.Error(t, err)
}

func TestCommentsAndBlankLines(t *testing.T) {
	s := newTestStore()
	res, err := Run(s, `
		# header comment

		x = i32 7 # trailing comment
	`)
	require.NoError(t, err)
	x, ok := res.Lookup("x")
	require.True(t, ok)
	assert.EqualValues(t, 7, s.Int32Val(x))
}

func TestOpaqueAndHandles(t *testing.T) {
	s := newTestStore()
	res, err := Run(s, `
		p = opaque i32 @block=3
		q = opaque i32 @block=3
		h = handle class 0xBEEF
	`)
	require.NoError(t, err)

	p, _ := res.Lookup("p")
	q, _ := res.Lookup("q")
	assert.NotEqual(t, p, q, "each opaque line is a fresh value")

	h, _ := res.Lookup("h")
	assert.Equal(t, vn.TypByRef, s.TypeOf(h))
}

func TestMapStoreSelect(t *testing.T) {
	s := newTestStore()
	res, err := Run(s, `
		m0  = zeromap
		idx = opaque ref
		val = i32 41
		m1  = store m0 idx val @loop=1
		got = select i32 m1 idx @block=2
	`)
	require.NoError(t, err)

	val, _ := res.Lookup("val")
	got, _ := res.Lookup("got")
	assert.Equal(t, val, got, "select of the stored index is exact")
}

func TestPhiCycleResolvesThroughScript(t *testing.T) {
	s := newTestStore()
	res, err := Run(s, `
		idx = opaque ref
		val = i32 1
		m0  = zeromap
		pre = store m0 idx val
		hdr = phidef 1 2
		bod = store hdr idx val @loop=1
		phiinputs hdr pre bod
		got = select i32 hdr idx
	`)
	require.NoError(t, err)

	val, _ := res.Lookup("val")
	got, _ := res.Lookup("got")
	assert.Equal(t, val, got, "loop-invariant store resolves through the back edge")
}

func TestExcSetAlgebra(t *testing.T) {
	s := newTestStore()
	res, err := Run(s, `
		d  = excset div0
		o  = excset overflow
		u1 = union d o
		u2 = union o d
		i  = intersect u1 d
	`)
	require.NoError(t, err)

	u1, _ := res.Lookup("u1")
	u2, _ := res.Lookup("u2")
	assert.Equal(t, u1, u2, "union is order-insensitive")

	i, _ := res.Lookup("i")
	d, _ := res.Lookup("d")
	assert.Equal(t, d, i)
}

func TestCast(t *testing.T) {
	s := newTestStore()
	res, err := Run(s, `
		big   = i32 300
		small = cast i8 big
		want  = i32 44
	`)
	require.NoError(t, err)

	small, _ := res.Lookup("small")
	want, _ := res.Lookup("want")
	assert.Equal(t, want, small, "300 truncates to 44 in 8 bits")
}

func TestErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"unknown name", "x = add i32 a b"},
		{"rebinding", "x = i32 1\nx = i32 2"},
		{"unknown op", "x = frobnicate i32"},
		{"unknown type", "x = opaque q32"},
		{"bad literal", "x = i32 banana"},
		{"bad directive", "x = i32 1 @loop=abc"},
		{"missing equals", "i32 1"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Run(newTestStore(), c.src)
			assert.Error(t, err)
		})
	}
}

func TestBindingsKeepScriptOrder(t *testing.T) {
	res, err := Run(newTestStore(), `
		a = i32 1
		b = i32 2
		c = add i32 a b
	`)
	require.NoError(t, err)

	names := make([]string, len(res.Bindings))
	for i, b := range res.Bindings {
		names[i] = b.Name
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}
