package vn

import (
	"fmt"
	"strings"
)

// Render returns a human-readable expression tree for a value number,
// for tracing and diagnostics. It is a pure read-only projection: it
// never interns anything.
func (s *Store) Render(vn ValueNum) string {
	var b strings.Builder
	s.renderInto(&b, vn, 0)
	return b.String()
}

// renderDepthLimit caps how deep the renderer follows argument edges;
// the function-application graph is a DAG but can be arbitrarily deep.
const renderDepthLimit = 10

func (s *Store) renderInto(b *strings.Builder, vn ValueNum, depth int) {
	switch vn {
	case NoVN:
		b.WriteString("<novn>")
		return
	case RecursiveVN:
		b.WriteString("<recursive>")
		return
	}
	if !vn.Valid() {
		fmt.Fprintf(b, "<reserved:%d>", vn)
		return
	}
	if depth > renderDepthLimit {
		fmt.Fprintf(b, "$%d", vn)
		return
	}

	c, off := s.chunkFor(vn)
	switch slots := c.payload.(type) {
	case *int32Slots:
		fmt.Fprintf(b, "%d:%v", slots.vals[off], c.typ)
	case *int64Slots:
		fmt.Fprintf(b, "%d:%v", slots.vals[off], c.typ)
	case *float32Slots:
		fmt.Fprintf(b, "%v:%v", slots.vals[off], c.typ)
	case *float64Slots:
		fmt.Fprintf(b, "%v:%v", slots.vals[off], c.typ)
	case *handleSlots:
		h := slots.vals[off]
		fmt.Fprintf(b, "hnd<%v>(0x%x)", h.Kind, h.Payload)
	case *funcSlots:
		app := slots.vals[off]
		if app.arity == 0 {
			fmt.Fprintf(b, "%v:%v", app.op, c.typ)
			return
		}
		fmt.Fprintf(b, "(%v:%v", app.op, c.typ)
		for _, arg := range app.args[:app.arity] {
			b.WriteByte(' ')
			s.renderInto(b, arg, depth+1)
		}
		b.WriteByte(')')
	}
}
