package ir

import (
	"fmt"
	"strings"
)

// Types carried by IR values. The set is closed: streams of integers on the
// source side, tuples/integers/control tokens on the dataflow side.

type Type interface {
	String() string
}

// IntType is a fixed-width integer. Bits == 1 doubles as the boolean type.
type IntType struct {
	Bits int
}

// NoneType is the control-token type: a value-less "fired" signal.
type NoneType struct{}

// TupleType is an ordered aggregate, used for the (element, eos) encoding.
type TupleType struct {
	Elements []Type
}

// StreamType is an unbounded ordered sequence of elements terminated by an
// end-of-stream marker. Only present before lowering.
type StreamType struct {
	Element Type
}

// FunctionType describes the signature of func and dataflow.func operations.
type FunctionType struct {
	Inputs  []Type
	Results []Type
}

func (t *IntType) String() string    { return fmt.Sprintf("i%d", t.Bits) }
func (t *NoneType) String() string   { return "none" }
func (t *StreamType) String() string { return fmt.Sprintf("stream<%s>", t.Element) }

func (t *TupleType) String() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.String()
	}
	return "tuple<" + strings.Join(parts, ", ") + ">"
}

func (t *FunctionType) String() string {
	ins := make([]string, len(t.Inputs))
	for i, in := range t.Inputs {
		ins[i] = in.String()
	}
	outs := make([]string, len(t.Results))
	for i, out := range t.Results {
		outs[i] = out.String()
	}
	return "(" + strings.Join(ins, ", ") + ") -> (" + strings.Join(outs, ", ") + ")"
}

// Canonical type constructors.

func I1() *IntType    { return &IntType{Bits: 1} }
func I32() *IntType   { return &IntType{Bits: 32} }
func I64() *IntType   { return &IntType{Bits: 64} }
func None() *NoneType { return &NoneType{} }

func Tuple(elements ...Type) *TupleType { return &TupleType{Elements: elements} }
func Stream(element Type) *StreamType   { return &StreamType{Element: element} }

// TypesEqual reports structural equality of two types.
func TypesEqual(a, b Type) bool {
	switch at := a.(type) {
	case *IntType:
		bt, ok := b.(*IntType)
		return ok && at.Bits == bt.Bits
	case *NoneType:
		_, ok := b.(*NoneType)
		return ok
	case *StreamType:
		bt, ok := b.(*StreamType)
		return ok && TypesEqual(at.Element, bt.Element)
	case *TupleType:
		bt, ok := b.(*TupleType)
		if !ok || len(at.Elements) != len(bt.Elements) {
			return false
		}
		for i := range at.Elements {
			if !TypesEqual(at.Elements[i], bt.Elements[i]) {
				return false
			}
		}
		return true
	case *FunctionType:
		bt, ok := b.(*FunctionType)
		if !ok {
			return false
		}
		return TypeListEqual(at.Inputs, bt.Inputs) && TypeListEqual(at.Results, bt.Results)
	}
	return false
}

// TypeListEqual reports element-wise structural equality of two type lists.
func TypeListEqual(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !TypesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
