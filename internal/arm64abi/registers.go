package arm64abi

import "fmt"

// StorageKind is the kind of a VMStorage: a general-purpose register, a
// SIMD/FP register, or a stack slot.
type StorageKind byte

const (
	Integer StorageKind = iota
	Vector
	Stack
)

func (k StorageKind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Vector:
		return "vector"
	case Stack:
		return "stack"
	default:
		return "unknown"
	}
}

// numRegBanks is the number of register kinds that carry a per-call
// allocation counter (Integer, Vector) — Stack is unbounded and has no
// counter.
const numRegBanks = 2

// Register is an opaque architecture-register handle. It carries just
// enough identity to print and compare.
type Register struct {
	Name string
}

func (r Register) String() string { return r.Name }

// VMStorage is either a register handle (Kind == Integer or Vector) or
// an encoded stack slot (Kind == Stack).
type VMStorage struct {
	Kind   StorageKind
	Reg    Register // valid if Kind != Stack
	Offset int64    // valid if Kind == Stack
	Size   uint16   // valid if Kind == Stack: byte count of the slot's contents
}

func (s VMStorage) String() string {
	if s.Kind == Stack {
		return fmt.Sprintf("stack[%d:%d]", s.Offset, s.Size)
	}
	return s.Reg.Name
}

func intReg(n int) Register { return Register{Name: fmt.Sprintf("x%d", n)} }
func vecReg(n int) Register { return Register{Name: fmt.Sprintf("v%d", n)} }

// AArch64 general-purpose and SIMD/FP registers, per AAPCS64. x0-x7 and
// v0-v7 are the argument/result banks; x8 is the indirect-result
// register; x9/x10 are scratch registers reserved for the linker.
var (
	X0, X1, X2, X3, X4, X5, X6, X7 = intReg(0), intReg(1), intReg(2), intReg(3), intReg(4), intReg(5), intReg(6), intReg(7)
	X8                             = intReg(8)
	X9, X10                        = intReg(9), intReg(10)

	V0, V1, V2, V3, V4, V5, V6, V7 = vecReg(0), vecReg(1), vecReg(2), vecReg(3), vecReg(4), vecReg(5), vecReg(6), vecReg(7)
)

// ABIDescriptor is the static per-architecture table of register banks,
// volatile sets, and stack rules. AAPCS64 assigns the same banks on
// Linux, macOS, and Windows; only the four policy booleans in
// platform.go vary across those three.
type ABIDescriptor struct {
	InputStorage  [numRegBanks][]Register
	OutputStorage [numRegBanks][]Register
	Volatile      []Register
	StackAlignment int64
	ShadowSpace    int64
	Scratch1       Register
	Scratch2       Register
	IndirectResult Register
}

// AArch64Descriptor is the single shared AAPCS64 ABI descriptor. It is
// immutable and safe to share across every CallArranger instance and
// every goroutine.
var AArch64Descriptor = ABIDescriptor{
	InputStorage: [numRegBanks][]Register{
		Integer: {X0, X1, X2, X3, X4, X5, X6, X7},
		Vector:  {V0, V1, V2, V3, V4, V5, V6, V7},
	},
	// Result return uses a narrower subset than argument passing: at
	// most two integer registers and four vector registers.
	OutputStorage: [numRegBanks][]Register{
		Integer: {X0, X1},
		Vector:  {V0, V1, V2, V3},
	},
	Volatile:       []Register{X0, X1, X2, X3, X4, X5, X6, X7, X8, X9, X10, V0, V1, V2, V3, V4, V5, V6, V7},
	StackAlignment: 16,
	ShadowSpace:    0,
	Scratch1:       X9,
	Scratch2:       X10,
	IndirectResult: X8,
}
