// Package sim interprets lowered dataflow functions as Kahn networks:
// every SSA edge is an unbounded FIFO, nodes fire deterministically in
// elaboration order, and self-clocking circuits are bounded by a step
// budget. It exists to drive activation-level checks that a structural
// inspection of the lowered representation cannot answer.
package sim

import (
	"fmt"

	"riffle/internal/ir"
)

type channel struct {
	queue []Token
}

func (c *channel) push(t Token) { c.queue = append(c.queue, t) }

func (c *channel) pop() Token {
	t := c.queue[0]
	c.queue = c.queue[1:]
	return t
}

func (c *channel) empty() bool { return len(c.queue) == 0 }

type node struct {
	op  *ir.Operation
	in  []*channel
	out []*channel
}

// Simulator executes one elaborated dataflow function.
type Simulator struct {
	nodes   []*node
	inputs  []*channel
	outputs []*channel
}

// New elaborates the named dataflow function of a lowered module,
// recursively inlining instantiations. The module must already satisfy the
// single-use invariant.
func New(m *ir.Module, funcName string) (*Simulator, error) {
	fn := m.LookupSymbol(funcName)
	if fn == nil {
		return nil, fmt.Errorf("no function %q in module", funcName)
	}
	if fn.Kind != ir.KindDFFunc {
		return nil, fmt.Errorf("function %q is not a dataflow function", funcName)
	}

	s := &Simulator{}
	entry := fn.Regions[0].Front()
	args := make([]*channel, entry.NumArgs())
	for i := range args {
		args[i] = &channel{}
	}
	s.inputs = args

	outs, err := s.elaborate(m, fn, args)
	if err != nil {
		return nil, err
	}
	s.outputs = outs
	return s, nil
}

func (s *Simulator) elaborate(m *ir.Module, fn *ir.Operation, args []*channel) ([]*channel, error) {
	blk := fn.Regions[0].Front()
	env := make(map[*ir.Value]*channel)
	for i, a := range blk.Args() {
		env[a] = args[i]
	}
	chanOf := func(v *ir.Value) *channel {
		if c, ok := env[v]; ok {
			return c
		}
		c := &channel{}
		env[v] = c
		return c
	}

	var outs []*channel
	for _, op := range blk.Ops() {
		switch op.Kind {
		case ir.KindInstance:
			calleeName, _ := op.StringAttr("callee")
			callee := m.LookupSymbol(calleeName)
			if callee == nil {
				return nil, fmt.Errorf("instance of unknown function %q", calleeName)
			}
			ins := make([]*channel, op.NumOperands())
			for i, v := range op.Operands() {
				ins[i] = chanOf(v)
			}
			calleeOuts, err := s.elaborate(m, callee, ins)
			if err != nil {
				return nil, err
			}
			for i, res := range op.Results() {
				env[res] = calleeOuts[i]
			}

		case ir.KindDFReturn:
			for _, v := range op.Operands() {
				outs = append(outs, chanOf(v))
			}

		case ir.KindCast:
			return nil, fmt.Errorf("conversion cast survived lowering")

		case ir.KindBuffer:
			n := &node{op: op, in: []*channel{chanOf(op.Operand(0))}, out: []*channel{chanOf(op.Result(0))}}
			// Init values are emitted before any input token, last
			// entry first.
			if init, ok := op.IntsAttr("initValues"); ok {
				for i := len(init) - 1; i >= 0; i-- {
					n.out[0].push(initToken(op.Result(0).Type, init[i]))
				}
			}
			s.nodes = append(s.nodes, n)

		default:
			n := &node{op: op}
			for _, v := range op.Operands() {
				n.in = append(n.in, chanOf(v))
			}
			for _, res := range op.Results() {
				n.out = append(n.out, chanOf(res))
			}
			s.nodes = append(s.nodes, n)
		}
	}
	if outs == nil {
		return nil, fmt.Errorf("function body has no return")
	}
	return outs, nil
}

func initToken(t ir.Type, v int64) Token {
	if _, ok := t.(*ir.NoneType); ok {
		return Ctrl()
	}
	return Int64(v)
}

// Push enqueues a token on the function's i-th parameter.
func (s *Simulator) Push(i int, t Token) { s.inputs[i].push(t) }

// Output returns the tokens observed so far on the i-th function result.
func (s *Simulator) Output(i int) []Token {
	return append([]Token{}, s.outputs[i].queue...)
}

// Step runs one firing round: every node that is ready when the round
// starts fires exactly once. Rounds keep self-clocking loops from starving
// downstream nodes. Reports false when the net is quiescent.
func (s *Simulator) Step() bool {
	fired := false
	for _, n := range s.nodes {
		if s.ready(n) {
			s.fire(n)
			fired = true
		}
	}
	return fired
}

// Run executes until quiescence or until the round budget is exhausted.
// Self-clocking circuits never quiesce, so the budget is load-bearing.
func (s *Simulator) Run(maxRounds int) {
	for i := 0; i < maxRounds; i++ {
		if !s.Step() {
			return
		}
	}
}

// Collect runs until at least n tokens were observed on the i-th result,
// quiescence, or the round budget, and returns the observed tokens.
func (s *Simulator) Collect(i, n, maxRounds int) []Token {
	for round := 0; round < maxRounds && len(s.outputs[i].queue) < n; round++ {
		if !s.Step() {
			break
		}
	}
	return s.Output(i)
}

func (s *Simulator) ready(n *node) bool {
	switch n.op.Kind {
	case ir.KindNever:
		return false
	case ir.KindMerge:
		for _, in := range n.in {
			if !in.empty() {
				return true
			}
		}
		return false
	case ir.KindMux:
		if n.in[0].empty() {
			return false
		}
		sel := n.in[0].queue[0].Int
		return !n.in[1+sel].empty()
	default:
		for _, in := range n.in {
			if in.empty() {
				return false
			}
		}
		return true
	}
}

func (s *Simulator) fire(n *node) {
	op := n.op
	switch op.Kind {
	case ir.KindUnpack:
		t := n.in[0].pop()
		for i, part := range t.Parts {
			n.out[i].push(part)
		}

	case ir.KindPack:
		parts := make([]Token, len(n.in))
		for i, in := range n.in {
			parts[i] = in.pop()
		}
		n.out[0].push(TupleOf(parts...))

	case ir.KindBuffer:
		n.out[0].push(n.in[0].pop())

	case ir.KindFork:
		t := n.in[0].pop()
		for _, out := range n.out {
			out.push(t)
		}

	case ir.KindSink:
		n.in[0].pop()

	case ir.KindJoin:
		for _, in := range n.in {
			in.pop()
		}
		n.out[0].push(Ctrl())

	case ir.KindMerge:
		for _, in := range n.in {
			if !in.empty() {
				n.out[0].push(in.pop())
				return
			}
		}

	case ir.KindMux:
		sel := n.in[0].pop().Int
		n.out[0].push(n.in[1+sel].pop())

	case ir.KindCondBranch:
		cond := n.in[0].pop()
		data := n.in[1].pop()
		if cond.Int != 0 {
			n.out[0].push(data)
		} else {
			n.out[1].push(data)
		}

	case ir.KindConstant:
		n.in[0].pop()
		value, _ := op.IntAttr("value")
		n.out[0].push(initToken(op.Result(0).Type, value))

	case ir.KindAddI:
		n.out[0].push(Int64(n.in[0].pop().Int + n.in[1].pop().Int))
	case ir.KindSubI:
		n.out[0].push(Int64(n.in[0].pop().Int - n.in[1].pop().Int))
	case ir.KindMulI:
		n.out[0].push(Int64(n.in[0].pop().Int * n.in[1].pop().Int))
	case ir.KindOrI:
		n.out[0].push(Int64(n.in[0].pop().Int | n.in[1].pop().Int))
	case ir.KindAndI:
		n.out[0].push(Int64(n.in[0].pop().Int & n.in[1].pop().Int))

	case ir.KindCmpI:
		pred, _ := op.StringAttr("predicate")
		lhs := n.in[0].pop().Int
		rhs := n.in[1].pop().Int
		n.out[0].push(Int64(boolToInt(compare(pred, lhs, rhs))))
	}
}

func compare(pred string, lhs, rhs int64) bool {
	switch pred {
	case "eq":
		return lhs == rhs
	case "ne":
		return lhs != rhs
	case "slt":
		return lhs < rhs
	case "sle":
		return lhs <= rhs
	case "sgt":
		return lhs > rhs
	case "sge":
		return lhs >= rhs
	}
	return false
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
