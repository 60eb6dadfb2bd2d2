package arm64abi

import "fmt"

// UnboxCalculator emits recipes that move a managed value into native
// storage: the argument side of a downcall, and the return side of an
// upcall.
type UnboxCalculator struct {
	storage  *StorageCalculator
	platform Platform
}

func NewUnboxCalculator(platform Platform, forArguments bool) *UnboxCalculator {
	return &UnboxCalculator{storage: NewStorageCalculator(platform, forArguments), platform: platform}
}

// AdjustForVarArgs implements argBindingCalculator.
func (u *UnboxCalculator) AdjustForVarArgs() { u.storage.AdjustForVarArgs() }

// GetIndirectBindings emits the hidden indirect-result pointer binding:
// unbox the managed buffer's address and store it into x8.
func (u *UnboxCalculator) GetIndirectBindings() Recipe {
	b := &recipeBuilder{}
	b.unboxAddress()
	b.vmStore(VMStorage{Kind: Integer, Reg: AArch64Descriptor.IndirectResult}, Prim64)
	return b.build()
}

// GetBindings emits the recipe for one argument, given its managed
// carrier, native layout, and whether it falls in the variadic section
// of this call.
func (u *UnboxCalculator) GetBindings(carrier Carrier, layout Layout, variadic bool) (Recipe, error) {
	class := u.platform.classify(layout, variadic)
	b := &recipeBuilder{}
	switch class {
	case ClassInteger, ClassFloat:
		if carrier.Kind != CarrierInt && carrier.Kind != CarrierFloat {
			return nil, fmt.Errorf("arm64abi: carrier %s cannot convey a scalar %s argument", carrier.Kind, class)
		}
		kind := Integer
		if class == ClassFloat {
			kind = Vector
		}
		storage := u.storage.NextStorage(kind, layout, variadic)
		b.vmStore(storage, primForSize(layout.ByteSize()))
	case ClassPointer:
		if carrier.Kind != CarrierAddress {
			return nil, fmt.Errorf("arm64abi: carrier %s cannot convey a pointer argument", carrier.Kind)
		}
		b.unboxAddress()
		storage := u.storage.NextStorage(Integer, layout, variadic)
		b.vmStore(storage, Prim64)
	case ClassStructRegister:
		g, ok := layout.(GroupLayout)
		if !ok || carrier.Kind != CarrierBuffer {
			return nil, fmt.Errorf("arm64abi: struct-class carrier must be a buffer carrier over a GroupLayout")
		}
		u.emitStructRegisterUnbox(b, g, variadic)
	case ClassStructHFA:
		g, ok := layout.(GroupLayout)
		if !ok || carrier.Kind != CarrierBuffer {
			return nil, fmt.Errorf("arm64abi: struct-class carrier must be a buffer carrier over a GroupLayout")
		}
		u.emitHFAUnbox(b, g)
	case ClassStructReference:
		if carrier.Kind != CarrierBuffer {
			return nil, fmt.Errorf("arm64abi: struct-class carrier must be a buffer carrier")
		}
		b.copy(layout)
		b.unboxAddress()
		storage := u.storage.NextStorage(Integer, layout, variadic)
		b.vmStore(storage, Prim64)
	default:
		return nil, fmt.Errorf("arm64abi: unrecognized type class %s", class)
	}
	return b.build(), nil
}

// emitStructRegisterUnbox handles both the ordinary STRUCT_REGISTER path
// and, when the platform spills variadic structs partially, the
// Windows-style partial-register-then-stack path.
func (u *UnboxCalculator) emitStructRegisterUnbox(b *recipeBuilder, g GroupLayout, variadic bool) {
	size := g.ByteSize()
	nSlices := int((size + 7) / 8)

	var regs []VMStorage
	if variadic && u.platform.SpillsVariadicStructsPartially {
		regs = u.storage.RegAllocPartial(Integer, g)
	} else if r, ok := u.storage.RegAlloc(Integer, nSlices); ok {
		regs = r
	}

	moreFollows := len(regs) < nSlices
	offset := int64(0)
	for i, reg := range regs {
		copySize := minInt64(size-offset, 8)
		prim := primForSize(copySize)
		isLastOverall := i == len(regs)-1 && !moreFollows
		if !isLastOverall {
			b.dup()
		}
		b.bufferLoad(offset, prim)
		b.vmStore(reg, prim)
		offset += 8
	}
	if moreFollows {
		u.spillStructUnbox(b, g, offset)
	}
}

// emitHFAUnbox handles the STRUCT_HFA path.
func (u *UnboxCalculator) emitHFAUnbox(b *recipeBuilder, g GroupLayout) {
	leaves, _ := flattenFloatLeaves(g)
	storages, ok := u.storage.NextStorageForHFA(g)
	if !ok {
		u.spillStructUnbox(b, g, 0)
		return
	}
	for i, leaf := range leaves {
		isLast := i == len(leaves)-1
		if !isLast {
			b.dup()
		}
		prim := primForSize(leaf.Layout.ByteSize())
		b.bufferLoad(leaf.Offset, prim)
		b.vmStore(storages[i], prim)
	}
}

// spillStructUnbox spills g's bytes from startOffset..size to the
// stack, 8 bytes (or the struct's trailing remainder) at a time. It
// generalizes both the plain whole-struct stack spill and the
// partial-register-spill tail: called with startOffset == 0 for the
// former, or the already-covered byte count for the latter.
func (u *UnboxCalculator) spillStructUnbox(b *recipeBuilder, g Layout, startOffset int64) {
	size := g.ByteSize()
	offset := startOffset
	for offset < size {
		copySize := minInt64(size-offset, 8)
		slot := u.storage.StackAllocSize(copySize, 8)
		if offset+8 < size {
			b.dup()
		}
		prim := primForSize(copySize)
		b.bufferLoad(offset, prim)
		b.vmStore(slot, prim)
		offset += 8
	}
	if u.platform.RequiresSubSlotStackPacking {
		u.storage.AlignStack(8)
	}
}
