package arm64abi

// OpKind is one operation from the binding alphabet. The engine only
// composes these; their runtime semantics belong to the external
// binding executor.
type OpKind byte

const (
	OpDup OpKind = iota
	OpVMLoad
	OpVMStore
	OpBufferLoad
	OpBufferStore
	OpAllocate
	OpCopy
	OpUnboxAddress
	OpBoxAddress
	OpBoxAddressRaw
)

func (k OpKind) String() string {
	switch k {
	case OpDup:
		return "dup"
	case OpVMLoad:
		return "vmLoad"
	case OpVMStore:
		return "vmStore"
	case OpBufferLoad:
		return "bufferLoad"
	case OpBufferStore:
		return "bufferStore"
	case OpAllocate:
		return "allocate"
	case OpCopy:
		return "copy"
	case OpUnboxAddress:
		return "unboxAddress"
	case OpBoxAddress:
		return "boxAddress"
	case OpBoxAddressRaw:
		return "boxAddressRaw"
	default:
		return "unknown"
	}
}

// Prim is the primitive width an op moves, chosen to match a struct
// slice's byte count.
type Prim byte

const (
	Prim8 Prim = iota
	Prim16
	Prim32
	Prim64
)

// ByteSize returns the byte width of p.
func (p Prim) ByteSize() int64 {
	switch p {
	case Prim8:
		return 1
	case Prim16:
		return 2
	case Prim32:
		return 4
	default:
		return 8
	}
}

// primForSize picks the smallest primitive carrier whose width is at
// least n bytes, capping at 8.
func primForSize(n int64) Prim {
	switch {
	case n <= 1:
		return Prim8
	case n <= 2:
		return Prim16
	case n <= 4:
		return Prim32
	default:
		return Prim64
	}
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// UnboundedPointeeSize is the pointee-size bound used for
// boxAddressRaw when no tighter bound is known — in particular for the
// indirect-result return buffer, where the size of the caller-allocated
// buffer isn't known to the engine. This effectively disables bounds
// checks on the returned buffer; code relying on it is trusting the
// caller to have allocated enough.
const UnboundedPointeeSize int64 = 1<<31 - 1 // math.MaxInt32

// Op is one instance of the binding alphabet, carrying only the fields
// relevant to its Kind.
type Op struct {
	Kind OpKind

	Storage VMStorage // OpVMLoad, OpVMStore
	Prim    Prim      // OpVMLoad, OpVMStore, OpBufferLoad, OpBufferStore
	Offset  int64     // OpBufferLoad, OpBufferStore

	Layout Layout // OpAllocate, OpCopy, OpBoxAddress
	Size   int64  // OpBoxAddressRaw
}

// Recipe is the ordered, immutable sequence of ops the executor replays
// for one argument or the return value.
type Recipe []Op

// recipeBuilder accumulates a Recipe for one argument. It exists purely
// to keep the per-op construction terse in the calculators below —
// analogous in spirit to wazero's linked-list instruction builder
// (backend/isa/arm64/abi_go_call.go), simplified to a plain append-only
// slice since binding recipes have no control flow or relocations.
type recipeBuilder struct {
	ops Recipe
}

func (b *recipeBuilder) dup() {
	b.ops = append(b.ops, Op{Kind: OpDup})
}

func (b *recipeBuilder) vmLoad(s VMStorage, p Prim) {
	b.ops = append(b.ops, Op{Kind: OpVMLoad, Storage: s, Prim: p})
}

func (b *recipeBuilder) vmStore(s VMStorage, p Prim) {
	b.ops = append(b.ops, Op{Kind: OpVMStore, Storage: s, Prim: p})
}

func (b *recipeBuilder) bufferLoad(offset int64, p Prim) {
	b.ops = append(b.ops, Op{Kind: OpBufferLoad, Offset: offset, Prim: p})
}

func (b *recipeBuilder) bufferStore(offset int64, p Prim) {
	b.ops = append(b.ops, Op{Kind: OpBufferStore, Offset: offset, Prim: p})
}

func (b *recipeBuilder) allocate(l Layout) {
	b.ops = append(b.ops, Op{Kind: OpAllocate, Layout: l})
}

func (b *recipeBuilder) copy(l Layout) {
	b.ops = append(b.ops, Op{Kind: OpCopy, Layout: l})
}

func (b *recipeBuilder) unboxAddress() {
	b.ops = append(b.ops, Op{Kind: OpUnboxAddress})
}

func (b *recipeBuilder) boxAddress(l Layout) {
	b.ops = append(b.ops, Op{Kind: OpBoxAddress, Layout: l})
}

func (b *recipeBuilder) boxAddressRaw(size int64) {
	b.ops = append(b.ops, Op{Kind: OpBoxAddressRaw, Size: size})
}

func (b *recipeBuilder) build() Recipe {
	return b.ops
}
