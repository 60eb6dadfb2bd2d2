package arm64abi

import "fmt"

// TypeClass is the fixed set of argument classes the AAPCS64 calling
// convention distinguishes.
type TypeClass byte

const (
	ClassInteger TypeClass = iota
	ClassFloat
	ClassPointer
	ClassStructRegister
	ClassStructHFA
	ClassStructReference
)

func (c TypeClass) String() string {
	switch c {
	case ClassInteger:
		return "INTEGER"
	case ClassFloat:
		return "FLOAT"
	case ClassPointer:
		return "POINTER"
	case ClassStructRegister:
		return "STRUCT_REGISTER"
	case ClassStructHFA:
		return "STRUCT_HFA"
	case ClassStructReference:
		return "STRUCT_REFERENCE"
	default:
		return "UNKNOWN"
	}
}

// ClassificationError is the one error the engine itself raises: a
// layout that does not classify into the closed TypeClass set. It is
// always a programmer error — the caller handed the engine a layout the
// AArch64 C ABI cannot express.
type ClassificationError struct {
	Layout Layout
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("arm64abi: layout %#v does not classify to a recognized argument class", e.Layout)
}

// ClassifyLayout maps a memory layout to its AAPCS64 argument class.
// The classifier is pure and platform-independent; platform.go's
// Platform.classify is the call-site hook that lets a platform override
// this default; Windows does so for variadic structs larger than 16
// bytes.
func ClassifyLayout(l Layout) TypeClass {
	return classifyLayoutForBindings(l, false)
}

func classifyLayoutForBindings(l Layout, forVariadic bool) TypeClass {
	var class TypeClass
	switch v := l.(type) {
	case ScalarLayout:
		switch v.Kind {
		case ScalarInt:
			class = ClassInteger
		case ScalarFloat:
			class = ClassFloat
		case ScalarPointer:
			class = ClassPointer
		default:
			panic(&ClassificationError{Layout: l})
		}
	case GroupLayout:
		if leaves, ok := flattenFloatLeaves(v); ok {
			traceClassification("%#v -> STRUCT_HFA (%d leaves)", l, len(leaves))
			return ClassStructHFA
		}
		if v.ByteSize() <= 16 {
			class = ClassStructRegister
		} else {
			class = ClassStructReference
		}
	default:
		panic(&ClassificationError{Layout: l})
	}
	traceClassification("%#v -> %s (variadic=%v)", l, class, forVariadic)
	return class
}

// hfaLeaf is one flattened floating-point leaf of a candidate HFA,
// paired with its absolute byte offset from the start of the outermost
// group.
type hfaLeaf struct {
	Layout ScalarLayout
	Offset int64
}

// flattenFloatLeaves recursively flattens a group's members. It reports
// ok == true only if every leaf is a floating-point scalar of the same
// size and the leaf count is in {1, 2, 3, 4} — AAPCS64's Homogeneous
// Floating-point Aggregate condition.
func flattenFloatLeaves(g GroupLayout) ([]hfaLeaf, bool) {
	if g.Union {
		// A union's members overlap, so it can never be homogeneous in
		// the AAPCS64 sense (there is no single flattened leaf sequence).
		return nil, false
	}
	leaves, ok := flattenFloatLeavesAt(g, 0)
	if !ok || len(leaves) == 0 || len(leaves) > 4 {
		return nil, false
	}
	size := leaves[0].Layout.Size
	for _, leaf := range leaves[1:] {
		if leaf.Layout.Size != size {
			return nil, false
		}
	}
	return leaves, true
}

func flattenFloatLeavesAt(g GroupLayout, base int64) ([]hfaLeaf, bool) {
	var leaves []hfaLeaf
	for i, m := range g.Members {
		off := base + g.Offsets[i]
		switch mv := m.(type) {
		case ScalarLayout:
			if mv.Kind != ScalarFloat {
				return nil, false
			}
			leaves = append(leaves, hfaLeaf{Layout: mv, Offset: off})
		case GroupLayout:
			if mv.Union {
				return nil, false
			}
			sub, ok := flattenFloatLeavesAt(mv, off)
			if !ok {
				return nil, false
			}
			leaves = append(leaves, sub...)
		default:
			return nil, false
		}
	}
	return leaves, true
}
