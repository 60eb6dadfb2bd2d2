package arm64abi

import (
	"fmt"
	"io"
)

// Bindings is the return value of GetBindings.
type Bindings struct {
	Sequence       *CallingSequence
	InMemoryReturn bool
}

// argBindingCalculator is the shared shape of UnboxCalculator and
// BoxCalculator that the facade drives.
type argBindingCalculator interface {
	GetIndirectBindings() Recipe
	GetBindings(carrier Carrier, layout Layout, variadic bool) (Recipe, error)
	AdjustForVarArgs()
}

// CallArranger is the per-platform facade. LINUX, MACOS, and WINDOWS
// are the only instances; each GetBindings call builds its own
// calculators, so CallArranger values carry no mutable state and are
// safe to share across goroutines.
type CallArranger struct {
	Platform Platform
}

var (
	LINUX   = CallArranger{Platform: Linux}
	MACOS   = CallArranger{Platform: MacOS}
	WINDOWS = CallArranger{Platform: Windows}
)

// GetBindings picks calculators by direction, decides whether the
// return is in memory, optionally prepends the synthetic
// indirect-result argument, then walks the arguments in declaration
// order, closing the variadic-section boundary as needed.
func (a CallArranger) GetBindings(mt MethodType, desc FunctionDescriptor, forUpcall bool, options LinkerOptions) (Bindings, error) {
	if len(mt.Params) != len(desc.Args) {
		return Bindings{}, fmt.Errorf("arm64abi: method type has %d params but descriptor has %d args", len(mt.Params), len(desc.Args))
	}

	var argCalc, retCalc argBindingCalculator
	if forUpcall {
		argCalc = NewBoxCalculator(a.Platform, true)
		retCalc = NewUnboxCalculator(a.Platform, false)
	} else {
		argCalc = NewUnboxCalculator(a.Platform, true)
		retCalc = NewBoxCalculator(a.Platform, false)
	}

	builder := NewCallingSequenceBuilder()

	returnInMemory := false
	if g, ok := desc.Return.(GroupLayout); ok && a.Platform.classify(g, false) == ClassStructReference {
		returnInMemory = true
	}

	switch {
	case returnInMemory:
		builder.AddArgumentBindings(AddressCarrier, Pointer, argCalc.GetIndirectBindings())
		builder.SetIndirectResult()
	case desc.Return != nil:
		if mt.Return == nil {
			return Bindings{}, fmt.Errorf("arm64abi: descriptor has a return layout but method type has none")
		}
		recipe, err := retCalc.GetBindings(*mt.Return, desc.Return, false)
		if err != nil {
			return Bindings{}, fmt.Errorf("arm64abi: return: %w", err)
		}
		builder.SetReturnBindings(*mt.Return, desc.Return, recipe)
	}

	variadicBoundaryCrossed := false
	for i, layout := range desc.Args {
		variadic := options.IsVarargsIndex(i)
		if variadic && a.Platform.VarArgsOnStack && !variadicBoundaryCrossed {
			argCalc.AdjustForVarArgs()
			variadicBoundaryCrossed = true
		}
		recipe, err := argCalc.GetBindings(mt.Params[i], layout, variadic)
		if err != nil {
			return Bindings{}, fmt.Errorf("arm64abi: argument %d: %w", i, err)
		}
		builder.AddArgumentBindings(mt.Params[i], layout, recipe)
	}

	return Bindings{Sequence: builder.Build(), InMemoryReturn: returnInMemory}, nil
}

// ---- External collaborators (out of scope) ----
//
// The trampoline linker, the memory-segment lifetime scope, and the
// binding executor are referenced only through the narrow interfaces
// below. Their bodies live downstream; this package never implements
// them. arrangertest and bindingtest provide test-only stand-ins.

// InvocationHandle is the opaque call-time handle a downcall compiles
// to.
type InvocationHandle interface {
	Invoke(args ...any) (any, error)
}

// StubAddress is the opaque machine-code address an upcall compiles to.
type StubAddress interface {
	Address() uintptr
}

// UpcallTarget is the managed function an upcall stub invokes.
type UpcallTarget interface {
	Invoke(args ...any) (any, error)
}

// MemoryScope is the caller-supplied lifetime an upcall stub is bound
// to; the engine never allocates or frees through it.
type MemoryScope interface {
	io.Closer
}

// TrampolineLinker materializes a CallingSequence into machine code.
// Trampoline code generation itself is out of scope for this package.
type TrampolineLinker interface {
	LinkDowncall(seq *CallingSequence, inMemoryReturn bool) (InvocationHandle, error)
	LinkUpcall(target UpcallTarget, seq *CallingSequence, inMemoryReturn bool, scope MemoryScope) (StubAddress, error)
}

// ReturnBufferAllocator allocates the caller-owned buffer for an
// in-memory return value. Supplied by the out-of-scope memory-segment
// layer.
type ReturnBufferAllocator interface {
	Allocate(size, alignment int64) (ptr uintptr, release func(), err error)
}

// ArrangeDowncall builds a call-time invocation handle from the
// arranged sequence and, if the return is in memory, wraps it with an
// adapter that owns allocation of the return buffer.
func (a CallArranger) ArrangeDowncall(mt MethodType, desc FunctionDescriptor, options LinkerOptions, linker TrampolineLinker, allocator ReturnBufferAllocator) (InvocationHandle, error) {
	bindings, err := a.GetBindings(mt, desc, false, options)
	if err != nil {
		return nil, err
	}
	handle, err := linker.LinkDowncall(bindings.Sequence, bindings.InMemoryReturn)
	if err != nil {
		return nil, err
	}
	if !bindings.InMemoryReturn {
		return handle, nil
	}
	return &indirectReturnInvocationHandle{inner: handle, returnLayout: desc.Return, allocator: allocator}, nil
}

type indirectReturnInvocationHandle struct {
	inner        InvocationHandle
	returnLayout Layout
	allocator    ReturnBufferAllocator
}

func (h *indirectReturnInvocationHandle) Invoke(args ...any) (any, error) {
	ptr, release, err := h.allocator.Allocate(h.returnLayout.ByteSize(), h.returnLayout.ByteAlignment())
	if err != nil {
		return nil, fmt.Errorf("arm64abi: allocating indirect-return buffer: %w", err)
	}
	defer release()
	return h.inner.Invoke(append([]any{ptr}, args...)...)
}

// ArrangeUpcall produces an executable stub tied to scope's lifetime;
// if the return is in memory, the target is wrapped so its (absent)
// return is discarded.
func (a CallArranger) ArrangeUpcall(target UpcallTarget, mt MethodType, desc FunctionDescriptor, scope MemoryScope, linker TrampolineLinker) (StubAddress, error) {
	bindings, err := a.GetBindings(mt, desc, true, LinkerOptions{})
	if err != nil {
		return nil, err
	}
	if bindings.InMemoryReturn {
		target = &discardingReturnTarget{inner: target}
	}
	return linker.LinkUpcall(target, bindings.Sequence, bindings.InMemoryReturn, scope)
}

type discardingReturnTarget struct {
	inner UpcallTarget
}

func (d *discardingReturnTarget) Invoke(args ...any) (any, error) {
	_, err := d.inner.Invoke(args...)
	return nil, err
}
