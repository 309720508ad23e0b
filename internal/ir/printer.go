package ir

import (
	"fmt"
	"sort"
	"strings"
)

// Printer renders IR textually for debugging and golden tests.
type Printer struct {
	indent int
	output strings.Builder
}

// NewPrinter creates a printer.
func NewPrinter() *Printer {
	return &Printer{}
}

// Print returns the textual form of a module.
func Print(m *Module) string {
	p := NewPrinter()
	p.printModule(m)
	return p.output.String()
}

// PrintOp returns the textual form of a single operation.
func PrintOp(op *Operation) string {
	p := NewPrinter()
	p.printOp(op)
	return p.output.String()
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

func (p *Printer) printModule(m *Module) {
	p.writeLine("module {")
	p.indent++
	for _, op := range m.Body.Ops() {
		p.printOp(op)
	}
	p.indent--
	p.writeLine("}")
}

func (p *Printer) printOp(op *Operation) {
	switch op.Kind {
	case KindFunc, KindDFFunc:
		p.printFunc(op)
	default:
		p.printPlainOp(op)
	}
}

func (p *Printer) printFunc(op *Operation) {
	name, _ := op.StringAttr("sym_name")
	sig, _ := op.TypeAttr("type")
	p.writeLine("%s @%s %s {", op.Kind, name, sig)
	p.indent++
	for _, r := range op.Regions {
		for _, blk := range r.Blocks {
			p.printBlock(blk)
		}
	}
	p.indent--
	p.writeLine("}")
}

func (p *Printer) printBlock(blk *Block) {
	args := make([]string, blk.NumArgs())
	for i, a := range blk.Args() {
		args[i] = fmt.Sprintf("%s: %s", valueName(a), a.Type)
	}
	p.writeLine("^(%s):", strings.Join(args, ", "))
	p.indent++
	for _, op := range blk.Ops() {
		p.printOp(op)
	}
	p.indent--
}

func (p *Printer) printPlainOp(op *Operation) {
	var line strings.Builder

	if op.NumResults() > 0 {
		names := make([]string, op.NumResults())
		for i, r := range op.Results() {
			names[i] = valueName(r)
		}
		line.WriteString(strings.Join(names, ", "))
		line.WriteString(" = ")
	}

	line.WriteString(op.Kind.String())

	if op.NumOperands() > 0 {
		names := make([]string, op.NumOperands())
		for i, v := range op.Operands() {
			names[i] = valueName(v)
		}
		line.WriteString(" ")
		line.WriteString(strings.Join(names, ", "))
	}

	if attrs := formatAttrs(op.Attrs); attrs != "" {
		line.WriteString(" ")
		line.WriteString(attrs)
	}

	if op.NumResults() > 0 {
		types := make([]string, op.NumResults())
		for i, r := range op.Results() {
			types[i] = r.Type.String()
		}
		line.WriteString(" : ")
		line.WriteString(strings.Join(types, ", "))
	}

	p.writeLine("%s", line.String())

	for _, r := range op.Regions {
		p.indent++
		for _, blk := range r.Blocks {
			p.printBlock(blk)
		}
		p.indent--
	}
}

func valueName(v *Value) string {
	return fmt.Sprintf("%%%d", v.ID)
}

func formatAttrs(attrs map[string]any) string {
	if len(attrs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s = %s", k, formatAttrValue(attrs[k])))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatAttrValue(v any) string {
	switch val := v.(type) {
	case string:
		return fmt.Sprintf("%q", val)
	case int64:
		return fmt.Sprintf("%d", val)
	case []int64:
		parts := make([]string, len(val))
		for i, n := range val {
			parts[i] = fmt.Sprintf("%d", n)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Type:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
