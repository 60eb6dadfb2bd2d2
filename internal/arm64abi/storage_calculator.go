package arm64abi

import (
	"fmt"
	"math"
)

const numRegsPerBank = 8

// StorageCalculator is the stateful left-to-right register/stack
// allocator owned by one BindingCalculator, implementing AAPCS64's
// greedy register assignment. Each call to GetBindings for a whole
// signature must start from a fresh StorageCalculator — state never
// escapes or is reused across calls.
type StorageCalculator struct {
	platform     Platform
	forArguments bool

	nRegs       [numRegBanks]int
	stackOffset int64
	forVarArgs  bool
}

// NewStorageCalculator constructs a zeroed allocator. forArguments
// selects the input register bank (true) or output/return bank (false).
func NewStorageCalculator(platform Platform, forArguments bool) *StorageCalculator {
	return &StorageCalculator{platform: platform, forArguments: forArguments}
}

func (c *StorageCalculator) bank(kind StorageKind) []Register {
	if c.forArguments {
		return AArch64Descriptor.InputStorage[kind]
	}
	return AArch64Descriptor.OutputStorage[kind]
}

// RegAlloc allocates count consecutive registers from the given bank if
// they fit within it; otherwise it saturates the bank's counter and
// returns ok == false. Saturating on failure is what establishes the
// no-splitting invariant: once a bank overflows for one argument, it
// stays closed for every later argument of that kind.
func (c *StorageCalculator) RegAlloc(kind StorageKind, count int) (regs []VMStorage, ok bool) {
	bank := c.bank(kind)
	if c.nRegs[kind]+count <= len(bank) {
		out := make([]VMStorage, count)
		for i := 0; i < count; i++ {
			out[i] = VMStorage{Kind: kind, Reg: bank[c.nRegs[kind]+i]}
		}
		c.nRegs[kind] += count
		traceStorage("regAlloc(%s,%d) -> %v", kind, count, out)
		return out, true
	}
	c.nRegs[kind] = len(bank)
	traceStorage("regAlloc(%s,%d) overflow, bank closed", kind, count)
	return nil, false
}

// RegAllocPartial allocates as many registers of kind as remain (up to
// the number of 8-byte slices layout needs), used only when the
// platform's SpillsVariadicStructsPartially policy applies (Windows
// variadic structs). The caller is responsible for spilling whatever
// doesn't fit to the stack.
func (c *StorageCalculator) RegAllocPartial(kind StorageKind, layout Layout) []VMStorage {
	avail := len(c.bank(kind)) - c.nRegs[kind]
	if avail <= 0 {
		return nil
	}
	need := int((layout.ByteSize() + 7) / 8)
	n := need
	if avail < n {
		n = avail
	}
	regs, _ := c.RegAlloc(kind, n)
	return regs
}

// StackAllocSize aligns the current stack offset up to alignment,
// records a stack storage of size bytes there, and advances the offset.
func (c *StorageCalculator) StackAllocSize(size, alignment int64) VMStorage {
	c.AlignStack(alignment)
	if size < 0 || size > math.MaxUint16 {
		panic(fmt.Sprintf("arm64abi: stack slot size %d does not fit in 16 bits", size))
	}
	s := VMStorage{Kind: Stack, Offset: c.stackOffset, Size: uint16(size)}
	c.stackOffset += size
	traceStorage("stackAlloc(%d,%d) -> %v", size, alignment, s)
	return s
}

// StackAllocLayout chooses alignment: the layout's own alignment when
// the platform requires sub-slot packing and we are not in the variadic
// section, otherwise the usual one-slot-is-8-bytes rule.
func (c *StorageCalculator) StackAllocLayout(layout Layout) VMStorage {
	alignment := layout.ByteAlignment()
	if !(c.platform.RequiresSubSlotStackPacking && !c.forVarArgs) && alignment < 8 {
		alignment = 8
	}
	return c.StackAllocSize(layout.ByteSize(), alignment)
}

// AlignStack bumps the stack offset up to the next multiple of
// alignment without allocating a slot.
func (c *StorageCalculator) AlignStack(alignment int64) {
	if alignment <= 1 {
		return
	}
	c.stackOffset = (c.stackOffset + alignment - 1) &^ (alignment - 1)
}

// NextStorage is the single-slot convenience: try one register of kind,
// else spill one stack slot. variadic is the per-argument flag (whether
// this particular argument falls in the variadic section); on Windows a
// VECTOR request there is rewritten to INTEGER.
func (c *StorageCalculator) NextStorage(kind StorageKind, layout Layout, variadic bool) VMStorage {
	effective := kind
	if kind == Vector && c.forArguments && variadic && c.platform.UseIntRegsForVariadicFloatingPointArgs {
		effective = Integer
	}
	if regs, ok := c.RegAlloc(effective, 1); ok {
		return regs[0]
	}
	return c.StackAllocLayout(layout)
}

// NextStorageForHFA tries to allocate one vector register per leaf. On
// register-bank overflow, if the platform packs sub-slot stack
// arguments and we are not in the variadic section, each field gets its
// own (tightly packed) stack slot instead of one slot per bank's usual
// 8-byte granularity; otherwise it returns ok == false, signaling the
// caller to spill the whole struct via the generic path.
func (c *StorageCalculator) NextStorageForHFA(group GroupLayout) (storages []VMStorage, ok bool) {
	leaves, isHFA := flattenFloatLeaves(group)
	if !isHFA {
		panic("arm64abi: NextStorageForHFA called on a non-HFA layout")
	}
	if regs, ok := c.RegAlloc(Vector, len(leaves)); ok {
		return regs, true
	}
	if c.platform.RequiresSubSlotStackPacking && !c.forVarArgs {
		out := make([]VMStorage, len(leaves))
		for i, leaf := range leaves {
			out[i] = c.StackAllocLayout(leaf.Layout)
		}
		return out, true
	}
	return nil, false
}

// AdjustForVarArgs closes both register banks and marks the sticky
// variadic-section flag, invoked once at the fixed/variadic boundary
// when the platform's VarArgsOnStack policy applies (macOS).
func (c *StorageCalculator) AdjustForVarArgs() {
	c.nRegs[Integer] = len(c.bank(Integer))
	c.nRegs[Vector] = len(c.bank(Vector))
	c.forVarArgs = true
	traceStorage("adjustForVarArgs: banks closed")
}
