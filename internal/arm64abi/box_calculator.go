package arm64abi

import "fmt"

// BoxCalculator emits recipes that move native storage into a managed
// value: the return side of a downcall, and the argument side of an
// upcall. It is the dual of UnboxCalculator.
//
// Box always treats the call as non-variadic: the variadic section is
// a caller-side (downcall-argument) routing decision, which upcalls
// and downcall returns never encounter. The variadic parameter on
// GetBindings is therefore accepted for interface symmetry with
// UnboxCalculator but ignored.
type BoxCalculator struct {
	storage  *StorageCalculator
	platform Platform
}

func NewBoxCalculator(platform Platform, forArguments bool) *BoxCalculator {
	return &BoxCalculator{storage: NewStorageCalculator(platform, forArguments), platform: platform}
}

// AdjustForVarArgs implements argBindingCalculator. It is a no-op: Box
// never routes arguments through the variadic-specific storage rules.
func (x *BoxCalculator) AdjustForVarArgs() {}

// GetIndirectBindings emits the hidden indirect-result pointer binding:
// load x8 and box it as an unbounded-size buffer view for the managed
// upcall target to write its return value into.
func (x *BoxCalculator) GetIndirectBindings() Recipe {
	b := &recipeBuilder{}
	b.vmLoad(VMStorage{Kind: Integer, Reg: AArch64Descriptor.IndirectResult}, Prim64)
	b.boxAddressRaw(UnboundedPointeeSize)
	return b.build()
}

// GetBindings emits the recipe for one argument or return value.
func (x *BoxCalculator) GetBindings(carrier Carrier, layout Layout, _ bool) (Recipe, error) {
	class := x.platform.classify(layout, false)
	b := &recipeBuilder{}
	switch class {
	case ClassInteger, ClassFloat:
		if carrier.Kind != CarrierInt && carrier.Kind != CarrierFloat {
			return nil, fmt.Errorf("arm64abi: carrier %s cannot convey a scalar %s value", carrier.Kind, class)
		}
		kind := Integer
		if class == ClassFloat {
			kind = Vector
		}
		storage := x.storage.NextStorage(kind, layout, false)
		b.vmLoad(storage, primForSize(layout.ByteSize()))
	case ClassPointer:
		if carrier.Kind != CarrierAddress {
			return nil, fmt.Errorf("arm64abi: carrier %s cannot convey a pointer value", carrier.Kind)
		}
		storage := x.storage.NextStorage(Integer, layout, false)
		b.vmLoad(storage, Prim64)
		b.boxAddressRaw(pointeeSize(layout))
	case ClassStructRegister:
		g, ok := layout.(GroupLayout)
		if !ok || carrier.Kind != CarrierBuffer {
			return nil, fmt.Errorf("arm64abi: struct-class carrier must be a buffer carrier over a GroupLayout")
		}
		x.emitStructRegisterBox(b, g)
	case ClassStructHFA:
		g, ok := layout.(GroupLayout)
		if !ok || carrier.Kind != CarrierBuffer {
			return nil, fmt.Errorf("arm64abi: struct-class carrier must be a buffer carrier over a GroupLayout")
		}
		x.emitHFABox(b, g)
	case ClassStructReference:
		if carrier.Kind != CarrierBuffer {
			return nil, fmt.Errorf("arm64abi: struct-class carrier must be a buffer carrier")
		}
		storage := x.storage.NextStorage(Integer, layout, false)
		b.vmLoad(storage, Prim64)
		b.boxAddress(layout)
	default:
		return nil, fmt.Errorf("arm64abi: unrecognized type class %s", class)
	}
	return b.build(), nil
}

func pointeeSize(l Layout) int64 {
	if s, ok := l.(ScalarLayout); ok && s.PointeeSize > 0 {
		return s.PointeeSize
	}
	return UnboundedPointeeSize
}

// emitStructRegisterBox handles the STRUCT_REGISTER path. Unlike unbox,
// dup appears on every iteration (not skipped on the last): the buffer
// reference must remain on the stack both for the next store and as the
// final boxed value handed to the consumer.
func (x *BoxCalculator) emitStructRegisterBox(b *recipeBuilder, g GroupLayout) {
	b.allocate(g)
	size := g.ByteSize()
	nSlices := int((size + 7) / 8)
	regs, ok := x.storage.RegAlloc(Integer, nSlices)
	if !ok {
		x.spillStructBox(b, g, 0)
		return
	}
	offset := int64(0)
	for _, reg := range regs {
		copySize := minInt64(size-offset, 8)
		prim := primForSize(copySize)
		b.dup()
		b.vmLoad(reg, prim)
		b.bufferStore(offset, prim)
		offset += 8
	}
}

// emitHFABox handles the STRUCT_HFA path.
func (x *BoxCalculator) emitHFABox(b *recipeBuilder, g GroupLayout) {
	b.allocate(g)
	leaves, _ := flattenFloatLeaves(g)
	storages, ok := x.storage.NextStorageForHFA(g)
	if !ok {
		x.spillStructBox(b, g, 0)
		return
	}
	for i, leaf := range leaves {
		prim := primForSize(leaf.Layout.ByteSize())
		b.dup()
		b.vmLoad(storages[i], prim)
		b.bufferStore(leaf.Offset, prim)
	}
}

// spillStructBox mirrors the unbox spill in the dual direction:
// vmLoad+bufferStore instead of bufferLoad+vmStore, with dup on every
// iteration rather than all-but-last.
func (x *BoxCalculator) spillStructBox(b *recipeBuilder, g Layout, startOffset int64) {
	size := g.ByteSize()
	offset := startOffset
	for offset < size {
		copySize := minInt64(size-offset, 8)
		slot := x.storage.StackAllocSize(copySize, 8)
		prim := primForSize(copySize)
		b.dup()
		b.vmLoad(slot, prim)
		b.bufferStore(offset, prim)
		offset += 8
	}
	if x.platform.RequiresSubSlotStackPacking {
		x.storage.AlignStack(8)
	}
}
