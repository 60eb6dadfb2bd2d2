// Package bindingtest provides a minimal reference interpreter for
// Recipe values. It exists purely as test infrastructure for asserting
// the Unbox/Box duality property; it is not a specification of the
// production binding executor's runtime semantics, which are
// explicitly out of scope.
//
// The interpreter only covers the five classes the duality property
// applies to (INTEGER, FLOAT, POINTER, STRUCT_REGISTER, STRUCT_HFA) —
// STRUCT_REFERENCE is excluded by the property itself and is not
// modeled.
package bindingtest

import "github.com/arm64abi/callarranger/internal/arm64abi"

// Interpreter holds the simulated native register file that an unbox
// recipe writes into and a box recipe reads back out of.
type Interpreter struct {
	Registers map[arm64abi.VMStorage]uint64
}

func NewInterpreter() *Interpreter {
	return &Interpreter{Registers: map[arm64abi.VMStorage]uint64{}}
}

// RunUnbox executes an unbox recipe. scalar is the managed value for a
// plain INTEGER/FLOAT/POINTER recipe; buf is the source struct's bytes
// for a STRUCT_REGISTER/STRUCT_HFA recipe (ignored otherwise).
func (it *Interpreter) RunUnbox(recipe arm64abi.Recipe, scalar uint64, buf []byte) {
	structMode := isStructMode(recipe)

	var stack []uint64
	if structMode {
		// The struct's own address is already on top of the binding
		// stack when its recipe starts running — the recipe itself
		// never needs to conjure it with an explicit op.
		stack = []uint64{0}
	}
	pop := func() uint64 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}
	push := func(v uint64) { stack = append(stack, v) }

	for _, op := range recipe {
		switch op.Kind {
		case arm64abi.OpUnboxAddress:
			push(scalar)
		case arm64abi.OpDup:
			push(stack[len(stack)-1])
		case arm64abi.OpBufferLoad:
			addr := pop()
			push(readPrim(buf, int64(addr)+op.Offset, op.Prim))
		case arm64abi.OpVMStore:
			var v uint64
			if len(stack) > 0 {
				v = pop()
			} else {
				v = scalar
			}
			it.Registers[op.Storage] = v
		}
	}
}

// RunBox executes a box recipe, reading it.Registers. bufSize is the
// struct size for a STRUCT_REGISTER/STRUCT_HFA recipe (0 otherwise).
// It returns the plain scalar result and/or the reconstructed struct
// bytes.
func (it *Interpreter) RunBox(recipe arm64abi.Recipe, bufSize int64) (scalar uint64, buf []byte) {
	buf = make([]byte, bufSize)
	structMode := isStructMode(recipe)

	var stack []uint64
	pop := func() uint64 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}
	push := func(v uint64) { stack = append(stack, v) }

	for _, op := range recipe {
		switch op.Kind {
		case arm64abi.OpAllocate:
			push(0)
		case arm64abi.OpDup:
			push(stack[len(stack)-1])
		case arm64abi.OpVMLoad:
			v := it.Registers[op.Storage]
			if structMode {
				push(v)
			} else {
				scalar = v
			}
		case arm64abi.OpBufferStore:
			v := pop()
			addr := pop()
			writePrim(buf, int64(addr)+op.Offset, op.Prim, v)
		}
	}
	return scalar, buf
}

func isStructMode(recipe arm64abi.Recipe) bool {
	for _, op := range recipe {
		if op.Kind == arm64abi.OpBufferLoad || op.Kind == arm64abi.OpBufferStore || op.Kind == arm64abi.OpAllocate {
			return true
		}
	}
	return false
}

func readPrim(buf []byte, offset int64, p arm64abi.Prim) uint64 {
	n := p.ByteSize()
	var v uint64
	for i := int64(0); i < n; i++ {
		v |= uint64(buf[offset+i]) << (8 * i)
	}
	return v
}

func writePrim(buf []byte, offset int64, p arm64abi.Prim, v uint64) {
	n := p.ByteSize()
	for i := int64(0); i < n; i++ {
		buf[offset+i] = byte(v >> (8 * i))
	}
}
