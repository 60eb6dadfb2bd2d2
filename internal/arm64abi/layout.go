package arm64abi

// Layout is an opaque description of a C type's memory shape: byte size,
// byte alignment, and (for aggregates) member layout. It corresponds to
// MemoryLayout in the external contract; downstream code never needs to
// know more about a type than what this interface exposes.
type Layout interface {
	ByteSize() int64
	ByteAlignment() int64

	// isLayout restricts implementations to this package's two concrete
	// kinds (ScalarLayout, GroupLayout), matching the closed TypeClass
	// switch in classifier.go.
	isLayout()
}

// ScalarKind distinguishes the three non-aggregate layout kinds the
// classifier recognizes.
type ScalarKind byte

const (
	ScalarInt ScalarKind = iota
	ScalarFloat
	ScalarPointer
)

func (k ScalarKind) String() string {
	switch k {
	case ScalarInt:
		return "int"
	case ScalarFloat:
		return "float"
	case ScalarPointer:
		return "pointer"
	default:
		return "unknown"
	}
}

// ScalarLayout describes a non-aggregate C type: an integer, a
// floating-point value, or a pointer.
type ScalarLayout struct {
	Kind ScalarKind
	Size int64
	Align int64

	// PointeeSize bounds the referent of a ScalarPointer layout, in
	// bytes. Zero means unknown; boxing falls back to
	// UnboundedPointeeSize (see SPEC_FULL.md §12).
	PointeeSize int64
}

func (s ScalarLayout) ByteSize() int64      { return s.Size }
func (s ScalarLayout) ByteAlignment() int64 { return s.Align }
func (ScalarLayout) isLayout()              {}

// Predefined scalar layouts for the primitive C types this ABI cares
// about. Callers building a FunctionDescriptor by hand can use these
// directly; a real binding generator would synthesize its own.
var (
	Int8    = ScalarLayout{Kind: ScalarInt, Size: 1, Align: 1}
	Int16   = ScalarLayout{Kind: ScalarInt, Size: 2, Align: 2}
	Int32   = ScalarLayout{Kind: ScalarInt, Size: 4, Align: 4}
	Int64   = ScalarLayout{Kind: ScalarInt, Size: 8, Align: 8}
	Float32 = ScalarLayout{Kind: ScalarFloat, Size: 4, Align: 4}
	Float64 = ScalarLayout{Kind: ScalarFloat, Size: 8, Align: 8}
	Pointer = ScalarLayout{Kind: ScalarPointer, Size: 8, Align: 8}
)

// GroupLayout describes a struct or union. Offsets[i] is the byte offset
// of Members[i] from the start of the group; for a union every offset is
// zero.
type GroupLayout struct {
	Members []Layout
	Offsets []int64
	Size    int64
	Align   int64
	Union   bool
}

func (g GroupLayout) ByteSize() int64      { return g.Size }
func (g GroupLayout) ByteAlignment() int64 { return g.Align }
func (GroupLayout) isLayout()              {}

// NewStruct lays out members sequentially with natural C alignment
// padding, matching the layout a C compiler would assign to
// `struct { members... }`.
func NewStruct(members ...Layout) GroupLayout {
	offsets := make([]int64, len(members))
	var offset, align int64 = 0, 1
	for i, m := range members {
		a := m.ByteAlignment()
		if a > align {
			align = a
		}
		offset = alignUp(offset, a)
		offsets[i] = offset
		offset += m.ByteSize()
	}
	return GroupLayout{Members: members, Offsets: offsets, Size: alignUp(offset, align), Align: align}
}

// NewUnion lays out members all at offset zero, sized to the widest
// member, matching `union { members... }`.
func NewUnion(members ...Layout) GroupLayout {
	offsets := make([]int64, len(members))
	var size, align int64 = 0, 1
	for _, m := range members {
		if s := m.ByteSize(); s > size {
			size = s
		}
		if a := m.ByteAlignment(); a > align {
			align = a
		}
	}
	return GroupLayout{Members: members, Offsets: offsets, Size: alignUp(size, align), Align: align, Union: true}
}

func alignUp(v, a int64) int64 {
	if a <= 1 {
		return v
	}
	return (v + a - 1) &^ (a - 1)
}

// FunctionDescriptor is the C-style signature the engine classifies and
// allocates against: an optional return layout plus ordered argument
// layouts.
type FunctionDescriptor struct {
	Return Layout // nil means void
	Args   []Layout
}
